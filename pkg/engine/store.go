// Package engine defines the storage contract shared by the embedded engine,
// the remote SDK client and everything built on top of them.
package engine

import (
	"errors"
	"strings"
	"unicode"
)

// Standard errors for the engine.
var (
	ErrAreaNotFound = errors.New("area not found")
	ErrKeyNotFound  = errors.New("key not found")
	ErrInvalidValue = errors.New("value is not valid json")
	ErrInvalidKey   = errors.New("area and key must be non-empty names without whitespace or path separators")
)

// Storage areas. AreaLocal survives restarts; AreaSession lives only as long
// as the process (the browser-tab equivalent).
const (
	AreaLocal   = "local"
	AreaSession = "session"
)

// Store is the primary interface for interacting with the key-value storage.
// Both the local embedded engine and the remote network client implement it.
// Values are JSON documents kept as text.
type Store interface {
	// GetItem returns the raw JSON stored under key, or ErrKeyNotFound.
	GetItem(area, key string) (string, error)
	// SetItem overwrites key with value. The value must be valid JSON.
	SetItem(area, key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(area, key string) error
	// Keys lists the keys held in area, sorted.
	Keys(area string) ([]string, error)
	// Clear removes every key from area.
	Clear(area string) error
	// Areas lists the areas that currently hold data.
	Areas() ([]string, error)
	// Dump returns a copy of every key and value in area.
	Dump(area string) (map[string]string, error)

	// Area returns an AreaScope pinned to a single area.
	Area(area string) AreaScope
}

// AreaScope provides a simplified interface for one storage area.
type AreaScope interface {
	Name() string
	GetItem(key string) (string, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Keys() ([]string, error)
	Clear() error
}

// StorageEvent describes one mutation. OldValue or NewValue is empty when
// the key did not exist before or was removed.
type StorageEvent struct {
	Area     string
	Key      string
	OldValue string
	NewValue string
}

// Listener receives storage events after the write is visible to readers.
type Listener func(StorageEvent)

// Notifier is implemented by stores that can report their own mutations.
type Notifier interface {
	Subscribe(fn Listener) (unsubscribe func())
}

// ValidName reports whether s can be used as an area or key name.
// Names travel as single fields on the wire protocol and areas become file
// names, so whitespace, path separators and dot-only names are rejected.
func ValidName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '/' || r == '\\' || r == 0
	}) < 0
}
