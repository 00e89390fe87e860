// Package session tracks the signed-in operator: where the record lives,
// when it expires and when the operator should be warned about expiry.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

// LoginPath is where an unauthenticated operator is sent.
const LoginPath = "/login"

// State is the authentication state after the most recent check.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateValid           State = "authenticated-valid"
	StateWarning         State = "authenticated-warning"
	StateExpired         State = "expired"
)

var (
	ErrNoSession          = errors.New("no active session")
	ErrCorruptSession     = errors.New("session record is unreadable")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
)

// Config holds the session timings.
type Config struct {
	Duration      time.Duration
	WarningWindow time.Duration
	CheckInterval time.Duration
}

// DefaultConfig is twelve hour sessions, a thirty minute warning and a check
// every minute.
func DefaultConfig() Config {
	return Config{
		Duration:      12 * time.Hour,
		WarningWindow: 30 * time.Minute,
		CheckInterval: time.Minute,
	}
}

// Navigator receives redirect requests.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// UserFinder looks up an admin user by login.
type UserFinder interface {
	FindByLogin(ctx context.Context, login string) (schema.AdminUser, error)
}

// dummyHash is compared against when the login is unknown.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("celerix-gestao"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("session: dummy hash: %v", err))
	}
	return h
})

// Option configures a Manager.
type Option func(*Manager)

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func WithNavigator(n Navigator) Option { return func(m *Manager) { m.nav = n } }

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.log = l } }

// WithTransitionHook is called whenever the state changes.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(m *Manager) { m.onTransition = fn }
}

// Manager drives the session lifecycle. The stored record is the source of
// truth; every check re-reads it so a logout elsewhere is picked up.
type Manager struct {
	store        *SessionStore
	cfg          Config
	now          func() time.Time
	nav          Navigator
	log          *slog.Logger
	onTransition func(from, to State)

	mu         sync.Mutex
	user       *schema.SessionUser
	persistent bool
	state      State
	warning    bool
	path       string
}

func NewManager(store *SessionStore, cfg Config, opts ...Option) *Manager {
	def := DefaultConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.WarningWindow <= 0 {
		cfg.WarningWindow = def.WarningWindow
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	m := &Manager{
		store: store,
		cfg:   cfg,
		now:   time.Now,
		nav:   NavigatorFunc(func(string) {}),
		log:   slog.Default(),
		state: StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(slog.String("component", "session"))
	return m
}

// SetPath records the path the operator is on; no redirect is issued while
// it is LoginPath.
func (m *Manager) SetPath(path string) {
	m.mu.Lock()
	m.path = path
	m.mu.Unlock()
}

// Check re-reads the stored record and recomputes the state.
func (m *Manager) Check() State {
	m.mu.Lock()
	state, redirect := m.checkLocked()
	m.mu.Unlock()

	if redirect {
		m.nav.Navigate(LoginPath)
	}
	return state
}

func (m *Manager) checkLocked() (State, bool) {
	u, persistent, err := m.store.Load()
	switch {
	case errors.Is(err, ErrNoSession):
		m.user = nil
		m.warning = false
		m.setState(StateUnauthenticated)
		return m.state, m.path != LoginPath
	case err != nil:
		m.logoutLocked(StateUnauthenticated)
		return m.state, m.path != LoginPath
	}

	now := m.now()
	if u.Legacy() {
		u.LoginTimestamp = now
		u.ExpiresAt = now.Add(m.cfg.Duration)
		if err := m.store.Save(u, persistent); err != nil {
			m.log.Error("backfill legacy session", slog.Any("error", err))
		}
	}

	if u.ExpiresAt.Before(now) {
		m.logoutLocked(StateExpired)
		return m.state, m.path != LoginPath
	}

	m.user = &u
	m.persistent = persistent
	remaining := u.ExpiresAt.Sub(now)
	m.warning = remaining > 0 && remaining <= m.cfg.WarningWindow
	if m.warning {
		m.setState(StateWarning)
	} else {
		m.setState(StateValid)
	}
	return m.state, false
}

// Login checks the password of an active admin user and starts a session.
// With remember set the record goes to the persistent tier.
func (m *Manager) Login(ctx context.Context, users UserFinder, login, password string, remember bool) (schema.SessionUser, error) {
	admin, err := users.FindByLogin(ctx, login)
	if err != nil {
		// Unknown logins pay the same bcrypt cost as a wrong password.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return schema.SessionUser{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return schema.SessionUser{}, ErrInvalidCredentials
	}
	if !admin.Active {
		return schema.SessionUser{}, ErrUserInactive
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	u := schema.SessionUser{
		Name:           admin.Name,
		Username:       admin.Login,
		Role:           admin.Role,
		LoginTimestamp: now,
		ExpiresAt:      now.Add(m.cfg.Duration),
	}
	if err := m.store.Save(u, remember); err != nil {
		return schema.SessionUser{}, err
	}
	m.user = &u
	m.persistent = remember
	m.warning = false
	m.setState(StateValid)
	m.log.Info("login", slog.String("user", admin.Login), slog.Bool("remember", remember))
	return u, nil
}

// Renew restarts the session clock in the tier the session already uses.
func (m *Manager) Renew() (schema.SessionUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.user == nil {
		return schema.SessionUser{}, ErrNoSession
	}
	now := m.now()
	u := *m.user
	u.LoginTimestamp = now
	u.ExpiresAt = now.Add(m.cfg.Duration)
	if err := m.store.Save(u, m.persistent); err != nil {
		return schema.SessionUser{}, fmt.Errorf("renew: %w", err)
	}
	m.user = &u
	m.warning = false
	m.setState(StateValid)
	return u, nil
}

// Logout clears both tiers and the in-memory user, then redirects.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.logoutLocked(StateUnauthenticated)
	redirect := m.path != LoginPath
	m.mu.Unlock()

	if redirect {
		m.nav.Navigate(LoginPath)
	}
}

func (m *Manager) logoutLocked(to State) {
	if err := m.store.Clear(); err != nil {
		m.log.Error("clear session", slog.Any("error", err))
	}
	m.user = nil
	m.warning = false
	m.setState(to)
}

func (m *Manager) setState(to State) {
	from := m.state
	m.state = to
	if from != to && m.onTransition != nil {
		m.onTransition(from, to)
	}
}

// User returns the signed-in user as of the last check.
func (m *Manager) User() (schema.SessionUser, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return schema.SessionUser{}, false
	}
	return *m.user, true
}

// Authenticated reports whether the last check found a live session.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

// Warning reports whether the session is inside the warning window.
func (m *Manager) Warning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warning
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Persistent reports whether the session lives in the persistent tier.
func (m *Manager) Persistent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistent
}

// Remaining is the time left before expiry, or zero without a session.
func (m *Manager) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return 0
	}
	return m.user.ExpiresAt.Sub(m.now())
}

// Run checks the session every CheckInterval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check()
		}
	}
}
