package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/celerix-dev/celerix-gestao/pkg/engine"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

// Registry binds sessions to callers. Each Login issues an opaque token and
// the record is kept under TokenKeyPrefix+token, so one caller's state never
// authenticates or signs out another.
type Registry struct {
	store engine.Store
	cfg   Config
	opts  []Option
	log   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Manager
}

// NewRegistry returns a registry whose managers share cfg and opts.
func NewRegistry(store engine.Store, cfg Config, opts ...Option) *Registry {
	// A throwaway manager resolves the defaults and the logger.
	base := NewManager(nil, cfg, opts...)
	return &Registry{
		store:    store,
		cfg:      base.cfg,
		opts:     opts,
		log:      base.log,
		sessions: make(map[string]*Manager),
	}
}

func (r *Registry) newManager(token string) *Manager {
	return NewManager(NewTokenStore(r.store, token, r.log), r.cfg, r.opts...)
}

// validToken accepts only canonical UUID strings, which keeps the storage
// key well formed.
func validToken(token string) bool {
	id, err := uuid.Parse(token)
	return err == nil && id.String() == token
}

// Login starts a new session and returns its token.
func (r *Registry) Login(ctx context.Context, users UserFinder, login, password string, remember bool) (string, schema.SessionUser, error) {
	token := uuid.NewString()
	m := r.newManager(token)
	m.SetPath(LoginPath)
	u, err := m.Login(ctx, users, login, password, remember)
	if err != nil {
		return "", schema.SessionUser{}, err
	}

	r.mu.Lock()
	r.sessions[token] = m
	r.mu.Unlock()
	return token, u, nil
}

// Session checks the session behind token with the caller on path. It
// returns false when the token is unknown, malformed or expired; the manager
// is still returned for a well formed token so its final state can be
// reported. Sessions kept in the persistent tier are picked up again after a
// restart.
func (r *Registry) Session(token, path string) (*Manager, bool) {
	if !validToken(token) {
		return nil, false
	}

	r.mu.Lock()
	m, ok := r.sessions[token]
	r.mu.Unlock()
	if !ok {
		m = r.newManager(token)
	}

	m.SetPath(path)
	m.Check()
	if !m.Authenticated() {
		r.drop(token, m)
		return m, false
	}

	if !ok {
		r.mu.Lock()
		if existing, found := r.sessions[token]; found {
			m = existing
		} else {
			r.sessions[token] = m
		}
		r.mu.Unlock()
	}
	return m, true
}

// Logout ends the session behind token. Unknown tokens are ignored.
func (r *Registry) Logout(token string) {
	if !validToken(token) {
		return
	}

	r.mu.Lock()
	m, ok := r.sessions[token]
	delete(r.sessions, token)
	r.mu.Unlock()

	if !ok {
		m = r.newManager(token)
	}
	m.SetPath(LoginPath)
	m.Logout()
}

// Len is the number of sessions currently held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) drop(token string, m *Manager) {
	r.mu.Lock()
	if r.sessions[token] == m {
		delete(r.sessions, token)
	}
	r.mu.Unlock()
}

// Sweep checks every held session and every stored record, dropping the ones
// that have expired.
func (r *Registry) Sweep() {
	tokens := make(map[string]struct{})

	r.mu.Lock()
	for token := range r.sessions {
		tokens[token] = struct{}{}
	}
	r.mu.Unlock()

	for _, area := range []string{engine.AreaLocal, engine.AreaSession} {
		keys, err := r.store.Keys(area)
		if err != nil {
			r.log.Error("list session records", slog.String("area", area), slog.Any("error", err))
			continue
		}
		for _, key := range keys {
			if token, ok := strings.CutPrefix(key, TokenKeyPrefix); ok {
				tokens[token] = struct{}{}
			}
		}
	}

	for token := range tokens {
		r.Session(token, LoginPath)
	}
}

// Run sweeps once at start and then every CheckInterval until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	r.Sweep()

	ticker := time.NewTicker(r.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
