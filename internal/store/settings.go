package store

import (
	"database/sql"
	"errors"
	"fmt"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting setting: %w", err)
	}
	return value, nil
}

const settingUpsert = `INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(settingUpsert, key, value)
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}

// PlaybackSettings are the user-tunable playback behaviors. Skip
// settings are independently configurable per category; intro covers
// intro and recap segments, credits covers credits and preview segments.
type PlaybackSettings struct {
	AutoSkipIntro   bool `json:"auto_skip_intro"`
	AutoSkipCredits bool `json:"auto_skip_credits"`
	AutoPlayNext    bool `json:"auto_play_next"`
}

const (
	autoSkipIntroKey   = "playback.auto_skip_intro"
	autoSkipCreditsKey = "playback.auto_skip_credits"
	autoPlayNextKey    = "playback.auto_play_next"
)

func (s *Store) GetPlaybackSettings() (PlaybackSettings, error) {
	var cfg PlaybackSettings
	var err error
	if cfg.AutoSkipIntro, err = s.getBool(autoSkipIntroKey); err != nil {
		return cfg, err
	}
	if cfg.AutoSkipCredits, err = s.getBool(autoSkipCreditsKey); err != nil {
		return cfg, err
	}
	if cfg.AutoPlayNext, err = s.getBool(autoPlayNextKey); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s *Store) SetPlaybackSettings(cfg PlaybackSettings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, kv := range []struct {
		k string
		v bool
	}{
		{autoSkipIntroKey, cfg.AutoSkipIntro},
		{autoSkipCreditsKey, cfg.AutoSkipCredits},
		{autoPlayNextKey, cfg.AutoPlayNext},
	} {
		if _, err := tx.Exec(settingUpsert, kv.k, formatBool(kv.v)); err != nil {
			return fmt.Errorf("setting %q: %w", kv.k, err)
		}
	}

	return tx.Commit()
}

func (s *Store) getBool(key string) (bool, error) {
	val, err := s.GetSetting(key)
	if err != nil {
		return false, err
	}
	return val == "true", nil
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
