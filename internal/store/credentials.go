package store

import (
	"fmt"

	"github.com/google/uuid"

	"finwatch/internal/models"
)

const (
	serverURLKey  = "server.url"
	serverIDKey   = "server.id"
	accessToknKey = "auth.access_token"
	userIDKey     = "auth.user_id"
	userNameKey   = "auth.user_name"
	deviceIDKey   = "device.id"
)

// SetCredentials persists the server identity. The access token is
// encrypted when the store has an encryptor.
func (s *Store) SetCredentials(c models.Credentials) error {
	token := c.AccessToken
	if s.encryptor != nil {
		var err error
		if token, err = s.encryptor.Encrypt(token); err != nil {
			return fmt.Errorf("encrypting access token: %w", err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, kv := range []struct{ k, v string }{
		{serverURLKey, c.ServerURL},
		{serverIDKey, c.ServerID},
		{accessToknKey, token},
		{userIDKey, c.UserID},
		{userNameKey, c.UserName},
	} {
		if _, err := tx.Exec(settingUpsert, kv.k, kv.v); err != nil {
			return fmt.Errorf("setting %q: %w", kv.k, err)
		}
	}

	return tx.Commit()
}

// GetCredentials loads the persisted server identity. Returns
// models.ErrNotFound when no session has been stored.
func (s *Store) GetCredentials() (models.Credentials, error) {
	var c models.Credentials
	var err error
	if c.ServerURL, err = s.GetSetting(serverURLKey); err != nil {
		return c, err
	}
	if c.ServerID, err = s.GetSetting(serverIDKey); err != nil {
		return c, err
	}
	if c.AccessToken, err = s.GetSetting(accessToknKey); err != nil {
		return c, err
	}
	if c.UserID, err = s.GetSetting(userIDKey); err != nil {
		return c, err
	}
	if c.UserName, err = s.GetSetting(userNameKey); err != nil {
		return c, err
	}
	if c.ServerURL == "" || c.AccessToken == "" {
		return models.Credentials{}, models.ErrNotFound
	}
	if s.encryptor != nil {
		if c.AccessToken, err = s.encryptor.Decrypt(c.AccessToken); err != nil {
			return models.Credentials{}, fmt.Errorf("decrypting access token: %w", err)
		}
	}
	if c.DeviceID, err = s.DeviceID(); err != nil {
		return models.Credentials{}, err
	}
	return c, nil
}

// DeleteCredentials wipes the stored session. The device id survives so
// the server keeps recognizing this install.
func (s *Store) DeleteCredentials() error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key IN (?, ?, ?, ?, ?)`,
		serverURLKey, serverIDKey, accessToknKey, userIDKey, userNameKey)
	if err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}

// DeviceID returns the stable per-install device identifier, creating
// one on first use.
func (s *Store) DeviceID() (string, error) {
	id, err := s.GetSetting(deviceIDKey)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := s.SetSetting(deviceIDKey, id); err != nil {
		return "", err
	}
	return id, nil
}
