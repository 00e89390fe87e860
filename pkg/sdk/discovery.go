package sdk

import (
	"log/slog"
	"os"

	"github.com/celerix-dev/celerix-gestao/internal/engine"
	pengine "github.com/celerix-dev/celerix-gestao/pkg/engine"
)

// New initializes the store based on the environment.
// It returns the interface, so the app doesn't care if it's local or remote.
func New(dataDir string) (pengine.Store, error) {
	if remoteAddr := os.Getenv("CELERIX_STORE_ADDR"); remoteAddr != "" {
		client, err := Connect(remoteAddr)
		if err == nil {
			return client, nil
		}
		slog.Warn("remote store unavailable, using embedded mode",
			slog.String("addr", remoteAddr), slog.Any("error", err))
	}

	p, err := engine.NewPersistence(dataDir)
	if err != nil {
		return nil, err
	}
	allData, err := p.LoadAll()
	if err != nil {
		return nil, err
	}
	return engine.NewMemStore(allData, p), nil
}
