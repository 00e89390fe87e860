package services

import (
	"errors"
	"fmt"

	"github.com/celerix-dev/celerix-gestao/internal/database"
)

// ErrLastAdmin protects the only remaining active administrator.
var ErrLastAdmin = errors.New("cannot remove the last active administrator")

func notFound(collection, id string) error {
	return fmt.Errorf("%s %s: %w", collection, id, database.ErrNotFound)
}
