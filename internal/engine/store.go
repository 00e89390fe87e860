// Package engine implements the embedded storage engine: an in-memory
// key-value store with pluggable background persistence.
package engine

import (
	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

var (
	_ engine.Store    = (*MemStore)(nil)
	_ engine.Notifier = (*MemStore)(nil)
)

// Persister saves and restores the persistent areas of a MemStore.
type Persister interface {
	// SaveArea replaces the stored copy of one area with data.
	SaveArea(area string, data map[string]string) error
	// LoadAll returns every stored area keyed by area name.
	LoadAll() (map[string]map[string]string, error)
}
