package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/celerix-dev/celerix-gestao/pkg/engine"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

const (
	// UserKey holds the single session record of an embedded store.
	UserKey = "user"
	// TokenKeyPrefix prefixes the record of a token-bound session.
	TokenKeyPrefix = "user."
)

// SessionStore keeps the session record in exactly one of two tiers: the
// persistent area (remember me) or the volatile session area.
type SessionStore struct {
	store engine.Store
	key   string
	log   *slog.Logger
}

// NewSessionStore keeps the record under UserKey.
func NewSessionStore(store engine.Store, log *slog.Logger) *SessionStore {
	return newSessionStore(store, UserKey, log)
}

// NewTokenStore keeps the record of the session identified by token.
func NewTokenStore(store engine.Store, token string, log *slog.Logger) *SessionStore {
	return newSessionStore(store, TokenKeyPrefix+token, log)
}

func newSessionStore(store engine.Store, key string, log *slog.Logger) *SessionStore {
	if log == nil {
		log = slog.Default()
	}
	return &SessionStore{store: store, key: key, log: log}
}

func tier(persistent bool) string {
	if persistent {
		return engine.AreaLocal
	}
	return engine.AreaSession
}

// Load reads the record, persistent tier first. It returns ErrNoSession when
// neither tier has one and ErrCorruptSession when the stored record cannot
// be decoded.
func (s *SessionStore) Load() (schema.SessionUser, bool, error) {
	for _, persistent := range []bool{true, false} {
		raw, err := s.store.GetItem(tier(persistent), s.key)
		if errors.Is(err, engine.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			s.log.Error("read session", slog.String("area", tier(persistent)), slog.Any("error", err))
			return schema.SessionUser{}, persistent, fmt.Errorf("%w: %v", ErrCorruptSession, err)
		}

		var u schema.SessionUser
		if err := json.Unmarshal([]byte(raw), &u); err != nil || u.Name == "" {
			s.log.Warn("discarding unreadable session record", slog.String("area", tier(persistent)), slog.Any("error", err))
			return schema.SessionUser{}, persistent, ErrCorruptSession
		}
		return u, persistent, nil
	}
	return schema.SessionUser{}, false, ErrNoSession
}

// Save writes u to the chosen tier and removes any record from the other.
func (s *SessionStore) Save(u schema.SessionUser, persistent bool) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.SetItem(tier(persistent), s.key, string(raw)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := s.store.RemoveItem(tier(!persistent), s.key); err != nil {
		return fmt.Errorf("clear other session tier: %w", err)
	}
	return nil
}

// Clear removes the record from both tiers.
func (s *SessionStore) Clear() error {
	return errors.Join(
		s.store.RemoveItem(engine.AreaLocal, s.key),
		s.store.RemoveItem(engine.AreaSession, s.key),
	)
}
