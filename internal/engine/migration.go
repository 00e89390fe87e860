package engine

import (
	"fmt"

	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

// Migrate takes data from a source store and pushes it to a destination store.
// This works for:
// - Embedded -> Remote (The "Upgrade")
// - Remote -> Embedded (The "Backup/Offline")
// - File -> SQLite/Postgres persister (through two embedded stores)
//
// The session area is skipped: tab-scoped data never leaves its process.
func Migrate(src engine.Store, dst engine.Store) error {
	areas, err := src.Areas()
	if err != nil {
		return fmt.Errorf("failed to list areas: %w", err)
	}

	for _, area := range areas {
		if area == engine.AreaSession {
			continue
		}

		data, err := src.Dump(area)
		if err != nil {
			return fmt.Errorf("failed to dump area %s: %w", area, err)
		}

		for k, v := range data {
			if err := dst.SetItem(area, k, v); err != nil {
				return fmt.Errorf("failed to set key %s in destination: %w", k, err)
			}
		}
	}

	return nil
}
