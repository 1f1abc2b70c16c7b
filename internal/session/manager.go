package session

import (
	"log"
	"sync"

	"finwatch/internal/models"
)

// CredentialStore is the persistence boundary for the server identity.
type CredentialStore interface {
	GetCredentials() (models.Credentials, error)
	SetCredentials(models.Credentials) error
	DeleteCredentials() error
	DeviceID() (string, error)
}

// Manager owns the process-wide server identity: the auth token and
// base URL read by the gateway on every request. Reads and writes are
// serialized behind a mutex; writes happen only through Login, Restore,
// and Logout.
type Manager struct {
	mu    sync.RWMutex
	creds *models.Credentials
	store CredentialStore

	subMu    sync.Mutex
	onLogout []func()
}

func NewManager(store CredentialStore) *Manager {
	return &Manager{store: store}
}

// Restore loads a previously persisted session into memory. Returns
// false when no session is stored.
func (m *Manager) Restore() (bool, error) {
	creds, err := m.store.GetCredentials()
	if err != nil {
		if err == models.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if !creds.Valid() {
		return false, nil
	}
	m.mu.Lock()
	m.creds = &creds
	m.mu.Unlock()
	return true, nil
}

// Login persists and activates a freshly authenticated session.
func (m *Manager) Login(creds models.Credentials) error {
	if err := m.store.SetCredentials(creds); err != nil {
		return err
	}
	m.mu.Lock()
	m.creds = &creds
	m.mu.Unlock()
	return nil
}

// Current returns the active credentials. It satisfies the gateway's
// CredentialSource.
func (m *Manager) Current() (models.Credentials, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.creds == nil {
		return models.Credentials{}, false
	}
	return *m.creds, true
}

// LoggedIn reports whether a session is active.
func (m *Manager) LoggedIn() bool {
	_, ok := m.Current()
	return ok
}

// DeviceID returns the stable per-install device identifier.
func (m *Manager) DeviceID() (string, error) {
	return m.store.DeviceID()
}

// OnLogout registers a callback run on every logout, including the
// broadcast invalidation triggered by an expired token.
func (m *Manager) OnLogout(fn func()) {
	m.subMu.Lock()
	m.onLogout = append(m.onLogout, fn)
	m.subMu.Unlock()
}

// Logout tears down the session: memory first, then persistence, then
// subscribers. Safe to call when already logged out (no-op).
func (m *Manager) Logout() {
	m.mu.Lock()
	wasActive := m.creds != nil
	m.creds = nil
	m.mu.Unlock()

	if !wasActive {
		return
	}

	if err := m.store.DeleteCredentials(); err != nil {
		log.Printf("session: clearing stored credentials: %v", err)
	}

	m.subMu.Lock()
	subs := make([]func(), len(m.onLogout))
	copy(subs, m.onLogout)
	m.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// HandleSessionExpired is the gateway's 401/403 hook. A stale token
// invalidates all concurrent requests at once, so the whole session is
// torn down rather than failing request-by-request.
func (m *Manager) HandleSessionExpired() {
	m.Logout()
}
