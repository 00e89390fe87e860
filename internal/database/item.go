package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

// GetItem decodes the JSON stored under key. Absent keys, read failures and
// undecodable values all yield the zero value and false; failures other than
// absence are logged.
func GetItem[T any](scope engine.AreaScope, key string, log *slog.Logger) (T, bool) {
	var out T
	raw, err := scope.GetItem(key)
	if err != nil {
		if !errors.Is(err, engine.ErrKeyNotFound) && log != nil {
			log.Error("read item", slog.String("area", scope.Name()), slog.String("key", key), slog.Any("error", err))
		}
		return out, false
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		if log != nil {
			log.Error("decode item", slog.String("area", scope.Name()), slog.String("key", key), slog.Any("error", err))
		}
		var zero T
		return zero, false
	}
	return out, true
}

// SetItem serializes value and overwrites key.
func SetItem[T any](scope engine.AreaScope, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := scope.SetItem(key, string(raw)); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}
