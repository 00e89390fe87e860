package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_OpenError(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("boom") }

	_, err := New(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open postgres")
}

func TestPersister_RoundTrip(t *testing.T) {
	dsn := os.Getenv("CELERIX_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CELERIX_TEST_POSTGRES_DSN not set")
	}

	p, err := New(context.Background(), dsn)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.SaveArea("test_local", map[string]string{"k": `{"a":1}`}))

	all, err := p.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, all["test_local"]["k"])
}
