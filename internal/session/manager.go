package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/calday/internal/models"
	"github.com/desertthunder/calday/internal/shared"
)

// TokenStore persists the opaque bearer token across restarts.
//
// Implemented by [repositories.TokenRepository].
type TokenStore interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (string, bool, error)
	Clear(ctx context.Context) error
}

// Manager owns the authentication state and is the single writer of its [TokenStore].
type Manager struct {
	// writeMu serializes store writes with the transition they cause.
	writeMu     sync.Mutex
	mu          sync.RWMutex
	store       TokenStore
	notifier    Notifier
	logger      *log.Logger
	current     models.Session
	hydrated    bool
	nextID      int
	subscribers map[int]func(models.Session)
}

// ManagerOpts contains optional collaborators for [NewManager].
type ManagerOpts struct {
	Notifier Notifier
	Logger   *log.Logger
}

// NewManager creates an unauthenticated [Manager] backed by store.
func NewManager(store TokenStore, opts ManagerOpts) *Manager {
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Manager{
		store:       store,
		notifier:    opts.Notifier,
		logger:      shared.WithLogger(opts.Logger, "component", "session"),
		subscribers: make(map[int]func(models.Session)),
	}
}

// Hydrate loads a previously saved token. Only the first call reads the store.
//
// A stored token makes the session authenticated without notification or navigation.
func (m *Manager) Hydrate(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	if m.hydrated {
		m.mu.Unlock()
		return nil
	}
	m.hydrated = true
	m.mu.Unlock()

	token, ok, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Error("failed to hydrate session", "error", err)
		return fmt.Errorf("failed to hydrate session: %w", err)
	}
	if !ok || token == "" {
		m.logger.Debug("no stored token, starting unauthenticated")
		return nil
	}

	m.logger.Debug("hydrated session from token store")
	m.set(models.NewSession(token))
	return nil
}

// Login persists token and transitions to authenticated. Re-login overwrites the previous token.
//
// An empty token is rejected with [shared.ErrEmptyCredential] and leaves the state unchanged.
func (m *Manager) Login(ctx context.Context, token string) error {
	if token == "" {
		return shared.ErrEmptyCredential
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.store.Save(ctx, token); err != nil {
		m.logger.Error("failed to persist token", "error", err)
		return fmt.Errorf("login failed: %w", err)
	}

	m.set(models.NewSession(token))
	m.logger.Info("logged in")
	m.notifier.Notify(Notification{Level: LevelSuccess, Message: MsgLoggedIn})
	return nil
}

// Logout clears the stored token and transitions to unauthenticated. Valid from any state.
//
// The in-memory session is reset even when clearing the store fails; the error is returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	err := m.store.Clear(ctx)
	if err != nil {
		m.logger.Error("failed to clear stored token", "error", err)
	}

	m.set(models.Session{})
	m.logger.Info("logged out")
	m.notifier.Notify(Notification{Level: LevelSuccess, Message: MsgLoggedOut})

	if err != nil {
		return fmt.Errorf("logout incomplete: %w", err)
	}
	return nil
}

// RejectLogin records an identity provider failure. The session is not changed.
func (m *Manager) RejectLogin(reason error) {
	m.logger.Warn("identity provider login failed", "error", reason)
	m.notifier.Notify(Notification{Level: LevelError, Message: MsgLoginFailed})
}

// Current returns a snapshot of the session.
func (m *Manager) Current() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Subscribe registers fn to receive every session transition. The returned func unregisters it.
//
// fn runs synchronously on the goroutine that performed the transition and must not call Login, Logout or Hydrate.
func (m *Manager) Subscribe(fn func(models.Session)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

func (m *Manager) set(s models.Session) {
	m.mu.Lock()
	m.current = s
	fns := make([]func(models.Session), 0, len(m.subscribers))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.subscribers[id]; ok {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
