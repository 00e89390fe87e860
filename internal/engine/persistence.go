package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/celerix-dev/celerix-gestao/internal/vault"
	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

const (
	plainExt     = ".json"
	encryptedExt = ".json.enc"
)

// Persistence handles the disk I/O for the MemStore: one file per area.
// With an encryption key the file holds the AES-GCM sealed document instead
// of readable JSON.
type Persistence struct {
	DataDir string
	key     []byte
	log     *slog.Logger
	mu      sync.Mutex // Protects concurrent writes to the filesystem
}

// Option configures a Persistence.
type Option func(*Persistence)

// WithEncryptionKey seals every area file with key (32 bytes).
func WithEncryptionKey(key []byte) Option {
	return func(p *Persistence) { p.key = key }
}

// WithLogger sets the logger used for skipped files.
func WithLogger(l *slog.Logger) Option {
	return func(p *Persistence) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPersistence initializes a persistence handler.
func NewPersistence(dir string, opts ...Option) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	p := &Persistence{DataDir: dir, log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.key != nil && len(p.key) != vault.KeySize {
		return nil, vault.ErrInvalidKey
	}
	return p, nil
}

// SaveArea writes a single area to its file atomically.
func (p *Persistence) SaveArea(area string, data map[string]string) error {
	if !engine.ValidName(area) || !filepath.IsLocal(area) {
		return fmt.Errorf("save area %q: %w", area, engine.ErrInvalidKey)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Values are already JSON; keep them nested so the file stays readable.
	doc := make(map[string]json.RawMessage, len(data))
	for k, v := range data {
		doc[k] = json.RawMessage(v)
	}
	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	ext := plainExt
	if p.key != nil {
		sealed, err := vault.Encrypt(content, p.key)
		if err != nil {
			return fmt.Errorf("encrypt area %s: %w", area, err)
		}
		content = []byte(sealed)
		ext = encryptedExt
	}

	filePath := filepath.Join(p.DataDir, area+ext)
	tempPath := filePath + ".tmp"

	if err := os.WriteFile(tempPath, content, 0o600); err != nil {
		return err
	}

	// Rename replaces the file in one step: readers see the old or the new
	// document, never a partial one.
	return os.Rename(tempPath, filePath)
}

// LoadAll returns all area data found in the data directory.
// Unreadable or undecodable files are skipped with a warning.
func (p *Persistence) LoadAll() (map[string]map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	allData := make(map[string]map[string]string)

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		name := file.Name()
		var area string
		switch {
		case strings.HasSuffix(name, encryptedExt):
			area = strings.TrimSuffix(name, encryptedExt)
		case strings.HasSuffix(name, plainExt):
			area = strings.TrimSuffix(name, plainExt)
		default:
			continue
		}

		content, err := os.ReadFile(filepath.Join(p.DataDir, name))
		if err != nil {
			p.log.Warn("could not read area file", slog.String("file", name), slog.Any("error", err))
			continue
		}

		if strings.HasSuffix(name, encryptedExt) {
			if p.key == nil {
				p.log.Warn("encrypted area file but no key configured", slog.String("file", name))
				continue
			}
			content, err = vault.Decrypt(strings.TrimSpace(string(content)), p.key)
			if err != nil {
				p.log.Warn("could not decrypt area file", slog.String("file", name), slog.Any("error", err))
				continue
			}
		}

		var doc map[string]json.RawMessage
		if err := json.Unmarshal(content, &doc); err != nil {
			p.log.Warn("could not unmarshal area file", slog.String("file", name), slog.Any("error", err))
			continue
		}
		kv := make(map[string]string, len(doc))
		for k, v := range doc {
			var buf bytes.Buffer
			if err := json.Compact(&buf, v); err != nil {
				continue
			}
			kv[k] = buf.String()
		}
		allData[area] = kv
	}
	return allData, nil
}
