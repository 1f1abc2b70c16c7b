package session

import (
	"errors"
	"testing"

	"finwatch/internal/models"
)

type fakeStore struct {
	creds    *models.Credentials
	deviceID string
	deletes  int
}

func (f *fakeStore) GetCredentials() (models.Credentials, error) {
	if f.creds == nil {
		return models.Credentials{}, models.ErrNotFound
	}
	return *f.creds, nil
}

func (f *fakeStore) SetCredentials(c models.Credentials) error {
	f.creds = &c
	return nil
}

func (f *fakeStore) DeleteCredentials() error {
	f.creds = nil
	f.deletes++
	return nil
}

func (f *fakeStore) DeviceID() (string, error) {
	if f.deviceID == "" {
		f.deviceID = "dev-1"
	}
	return f.deviceID, nil
}

func validCreds() models.Credentials {
	return models.Credentials{
		ServerURL:   "http://media.local",
		AccessToken: "tok",
		UserID:      "u1",
		UserName:    "alice",
		DeviceID:    "dev-1",
	}
}

func TestRestoreEmpty(t *testing.T) {
	m := NewManager(&fakeStore{})
	ok, err := m.Restore()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected no session to restore")
	}
	if m.LoggedIn() {
		t.Error("should not be logged in")
	}
}

func TestLoginAndCurrent(t *testing.T) {
	fs := &fakeStore{}
	m := NewManager(fs)

	if err := m.Login(validCreds()); err != nil {
		t.Fatal(err)
	}
	creds, ok := m.Current()
	if !ok || creds.AccessToken != "tok" {
		t.Errorf("Current() = %+v, %v", creds, ok)
	}
	if fs.creds == nil {
		t.Error("login did not persist credentials")
	}
}

func TestRestoreAfterLogin(t *testing.T) {
	fs := &fakeStore{}
	m1 := NewManager(fs)
	if err := m1.Login(validCreds()); err != nil {
		t.Fatal(err)
	}

	m2 := NewManager(fs)
	ok, err := m2.Restore()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || !m2.LoggedIn() {
		t.Error("expected restored session")
	}
}

func TestLogoutBroadcast(t *testing.T) {
	fs := &fakeStore{}
	m := NewManager(fs)
	if err := m.Login(validCreds()); err != nil {
		t.Fatal(err)
	}

	var fired int
	m.OnLogout(func() { fired++ })

	m.Logout()
	if m.LoggedIn() {
		t.Error("still logged in after logout")
	}
	if fired != 1 {
		t.Errorf("logout callbacks fired %d times, want 1", fired)
	}
	if fs.deletes != 1 {
		t.Errorf("stored credentials deleted %d times, want 1", fs.deletes)
	}

	// Repeated logout is a no-op, not a second broadcast.
	m.Logout()
	if fired != 1 {
		t.Errorf("logout callbacks fired %d times after double logout, want 1", fired)
	}
}

func TestSessionExpiredTearsDown(t *testing.T) {
	fs := &fakeStore{}
	m := NewManager(fs)
	if err := m.Login(validCreds()); err != nil {
		t.Fatal(err)
	}

	var fired int
	m.OnLogout(func() { fired++ })

	m.HandleSessionExpired()
	if m.LoggedIn() {
		t.Error("session survived expiry")
	}
	if fired != 1 {
		t.Errorf("expected 1 broadcast, got %d", fired)
	}
}

func TestRestorePropagatesStoreErrors(t *testing.T) {
	m := NewManager(&errStore{})
	if _, err := m.Restore(); err == nil {
		t.Fatal("expected error")
	}
}

type errStore struct{ fakeStore }

func (e *errStore) GetCredentials() (models.Credentials, error) {
	return models.Credentials{}, errors.New("disk broken")
}
