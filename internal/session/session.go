// Package session manages the authenticated session and its persistence.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"taskdesk/internal/logging"
	"taskdesk/internal/service"
	"taskdesk/internal/store"
)

// Storage keys. Token and user must both be present to restore a session.
// The filter key holds the listing filter last chosen, so task numbers mean
// the same thing in the next process.
const (
	TokenKey  = "token"
	UserKey   = "user"
	FilterKey = "filter"
)

// ErrCredentialsRequired is returned by Authenticate when the username or
// password is blank. No request is made.
var ErrCredentialsRequired = errors.New("username and password required")

// Manager holds the current session and mirrors it to durable storage.
// It is safe for concurrent use.
//
// Manager also implements oauth2.TokenSource so HTTP transports attach the
// current credential without holding their own copy.
type Manager struct {
	store store.Store
	log   *slog.Logger

	mu      sync.RWMutex
	current service.Session
}

// NewManager creates a manager persisting to st.
func NewManager(st store.Store, log *slog.Logger) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{store: st, log: log}
}

// Authenticate exchanges credentials for a session and persists it.
// On failure the previous session, in memory and on disk, is left untouched.
func (m *Manager) Authenticate(ctx context.Context, auth service.Authenticator, username, password string) (service.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return service.Session{}, ErrCredentialsRequired
	}

	sess, err := auth.Login(ctx, username, password)
	if err != nil {
		return service.Session{}, err
	}
	if !sess.Valid() {
		return service.Session{}, errors.New("login response missing token or user")
	}

	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return service.Session{}, fmt.Errorf("encode user: %w", err)
	}
	if err := m.persist(ctx, sess.Token, string(userJSON)); err != nil {
		return service.Session{}, fmt.Errorf("save session: %w", err)
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.log.Debug("session established", "user", sess.User.ID, "role", sess.User.Role)
	return sess, nil
}

// persist writes the user, then the token. A stored token is the commit
// point: if it cannot be written the previous user is put back, so storage
// never pairs the old token with the new identity or the reverse.
func (m *Manager) persist(ctx context.Context, token, userJSON string) error {
	prevUser, err := m.store.Get(ctx, UserKey)
	hadUser := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if err := m.store.Put(ctx, UserKey, userJSON); err != nil {
		return err
	}
	if err := m.store.Put(ctx, TokenKey, token); err != nil {
		var rollback error
		if hadUser {
			rollback = m.store.Put(ctx, UserKey, prevUser)
		} else {
			rollback = m.store.Delete(ctx, UserKey)
		}
		if rollback != nil {
			m.log.Error("restore previous user failed", "error", rollback)
		}
		return err
	}
	return nil
}

// Restore loads a persisted session. It reports false when none is stored
// or the stored values are incomplete or unreadable.
func (m *Manager) Restore(ctx context.Context) (service.Session, bool, error) {
	token, err := m.store.Get(ctx, TokenKey)
	if errors.Is(err, store.ErrNotFound) {
		return service.Session{}, false, nil
	}
	if err != nil {
		return service.Session{}, false, fmt.Errorf("load session: %w", err)
	}
	rawUser, err := m.store.Get(ctx, UserKey)
	if errors.Is(err, store.ErrNotFound) {
		return service.Session{}, false, nil
	}
	if err != nil {
		return service.Session{}, false, fmt.Errorf("load session: %w", err)
	}

	var user service.Identity
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		m.log.Warn("stored user is unreadable", "error", err)
		return service.Session{}, false, nil
	}
	sess := service.Session{Token: token, User: user}
	if !sess.Valid() {
		return service.Session{}, false, nil
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	return sess, true, nil
}

// Logout clears the session from memory and storage unconditionally.
// The in-memory session is cleared even if storage fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.current = service.Session{}
	m.mu.Unlock()

	err := errors.Join(
		m.store.Delete(ctx, TokenKey),
		m.store.Delete(ctx, UserKey),
		m.store.Delete(ctx, FilterKey),
	)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SaveFilter remembers the active listing filter.
func (m *Manager) SaveFilter(ctx context.Context, filter service.Filter) error {
	if err := m.store.Put(ctx, FilterKey, string(filter)); err != nil {
		return fmt.Errorf("save filter: %w", err)
	}
	return nil
}

// SavedFilter returns the remembered listing filter. It reports false when
// none is stored or the stored value is not a filter.
func (m *Manager) SavedFilter(ctx context.Context) (service.Filter, bool) {
	raw, err := m.store.Get(ctx, FilterKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Warn("stored filter is unreadable", "error", err)
		}
		return "", false
	}
	filter := service.Filter(strings.TrimSpace(raw))
	if !filter.Valid() {
		m.log.Warn("ignoring stored filter", "filter", raw)
		return "", false
	}
	return filter, true
}

// Current returns the session and whether one is established.
func (m *Manager) Current() (service.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current.Valid()
}

// Token implements oauth2.TokenSource.
func (m *Manager) Token() (*oauth2.Token, error) {
	sess, ok := m.Current()
	if !ok {
		return nil, service.ErrNoSession
	}
	return &oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer"}, nil
}
