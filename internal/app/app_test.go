package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-gestao/internal/config"
	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/logger"
	"github.com/celerix-dev/celerix-gestao/internal/metrics"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Env: logger.EnvLocal,
		Storage: config.Storage{
			DataDir:    dir,
			Driver:     driver,
			SQLitePath: filepath.Join(dir, "gestao.db"),
		},
		Session: config.Session{
			Duration:      12 * time.Hour,
			WarningWindow: 30 * time.Minute,
			CheckInterval: time.Minute,
		},
		Backup: config.Backup{Driver: config.BackupFS, Dir: filepath.Join(dir, "backups")},
	}
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.DriverFile)
	log := logger.Discard()

	store, closeStore, err := OpenStore(ctx, cfg.Storage, cfg.Storage.Driver, log)
	require.NoError(t, err)
	a, err := New(ctx, cfg, store, log, WithMetrics(metrics.New()))
	require.NoError(t, err)
	require.NotNil(t, a.Backups)

	assert.ErrorIs(t, a.EnsureAdmin(ctx, "admin", ""), ErrNoAdmin)
	require.NoError(t, a.EnsureAdmin(ctx, "admin", "segredo1"))
	require.NoError(t, a.EnsureAdmin(ctx, "outro", "segredo2"))

	users, err := database.List(ctx, a.Repo, database.Users)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Login)
	assert.Equal(t, schema.RoleAdmin, users[0].Role)
	require.NoError(t, closeStore())

	// A second process sees the persisted user.
	store, closeStore, err = OpenStore(ctx, cfg.Storage, cfg.Storage.Driver, log)
	require.NoError(t, err)
	defer closeStore()
	a, err = New(ctx, cfg, store, log)
	require.NoError(t, err)
	u, err := a.Services.Users.FindByLogin(ctx, "ADMIN")
	require.NoError(t, err)
	assert.True(t, u.Active)
}

func TestOpenStore_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.DriverSQLite)
	log := logger.Discard()

	store, closeStore, err := OpenStore(ctx, cfg.Storage, cfg.Storage.Driver, log)
	require.NoError(t, err)
	require.NoError(t, store.SetItem("local", "k", `{"a":1}`))
	require.NoError(t, closeStore())

	store, closeStore, err = OpenStore(ctx, cfg.Storage, cfg.Storage.Driver, log)
	require.NoError(t, err)
	defer closeStore()
	val, err := store.GetItem("local", "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, val)
}

func TestConnect_EmbeddedWithoutRemote(t *testing.T) {
	cfg := testConfig(t, config.DriverFile)
	store, closeStore, err := Connect(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	defer closeStore()
	require.NoError(t, store.SetItem("local", "k", `"v"`))
}

func TestOpenPersister_UnknownDriver(t *testing.T) {
	cfg := testConfig(t, "mongo")
	_, _, err := OpenPersister(context.Background(), cfg.Storage, cfg.Storage.Driver, logger.Discard())
	assert.Error(t, err)

	_, err = OpenBackupSink(context.Background(), config.Backup{Driver: "ftp"})
	assert.Error(t, err)
}
