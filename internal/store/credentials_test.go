package store

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"finwatch/internal/crypto"
	"finwatch/internal/models"
)

func testCreds() models.Credentials {
	return models.Credentials{
		ServerURL:   "http://media.local",
		AccessToken: "secret-token",
		UserID:      "u1",
		UserName:    "alice",
		ServerID:    "srv1",
	}
}

func TestCredentialsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.GetCredentials(); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before login, got %v", err)
	}

	if err := s.SetCredentials(testCreds()); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != "secret-token" || got.UserName != "alice" {
		t.Errorf("credentials = %+v", got)
	}
	if got.DeviceID == "" {
		t.Error("expected device id to be assigned")
	}
}

func TestCredentialsEncryptedAtRest(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	enc, err := crypto.NewEncryptor(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatal(err)
	}

	s, err := New(":memory:", WithEncryptor(enc))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.SetCredentials(testCreds()); err != nil {
		t.Fatal(err)
	}

	// The raw settings row must not contain the plaintext token.
	raw, err := s.GetSetting("auth.access_token")
	if err != nil {
		t.Fatal(err)
	}
	if raw == "" || raw == "secret-token" {
		t.Errorf("token not encrypted at rest: %q", raw)
	}

	got, err := s.GetCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != "secret-token" {
		t.Errorf("decrypted token = %q", got.AccessToken)
	}
}

func TestDeleteCredentialsKeepsDeviceID(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	id1, err := s.DeviceID()
	if err != nil {
		t.Fatal(err)
	}
	if id1 == "" {
		t.Fatal("expected device id")
	}

	if err := s.SetCredentials(testCreds()); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCredentials(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetCredentials(); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	id2, err := s.DeviceID()
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id1 {
		t.Errorf("device id changed across logout: %q != %q", id2, id1)
	}
}

func TestDeviceIDStable(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	id1, err := s.DeviceID()
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.DeviceID()
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("device id not stable: %q != %q", id1, id2)
	}
}
