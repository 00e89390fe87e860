package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-gestao/internal/engine"
	pengine "github.com/celerix-dev/celerix-gestao/pkg/engine"
)

func TestPersister_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gestao.db")
	p, err := New(path)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.SaveArea("local", map[string]string{"a": `1`}))
	require.NoError(t, p.SaveArea("local", map[string]string{"a": `2`, "b": `"x"`}))

	all, err := p.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]string{
		"local": {"a": `2`, "b": `"x"`},
	}, all)
	assert.Equal(t, path, p.Path())
}

func TestPersister_BacksMemStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gestao.db")
	p, err := New(path)
	require.NoError(t, err)

	ms := engine.NewMemStore(nil, p)
	require.NoError(t, ms.SetItem(pengine.AreaLocal, "sistema-gestao-data", `{"counters":{"veiculos":1}}`))
	ms.Wait()
	require.NoError(t, p.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.LoadAll()
	require.NoError(t, err)
	ms2 := engine.NewMemStore(all, reopened)

	val, err := ms2.GetItem(pengine.AreaLocal, "sistema-gestao-data")
	require.NoError(t, err)
	assert.JSONEq(t, `{"counters":{"veiculos":1}}`, val)
}
