package store

import (
	"fmt"

	"finwatch/internal/models"
)

// ReplaceSnapshot atomically replaces the persisted continue-watching
// snapshot with the given entries, in order.
func (s *Store) ReplaceSnapshot(entries []models.SnapshotEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM continue_watching`); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	for i, e := range entries {
		_, err := tx.Exec(`INSERT INTO continue_watching (rank, item_id, name, subtitle, image_url, kind, progress_percent)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, e.ID, e.Name, e.Subtitle, e.ImageURL, string(e.Kind), e.ProgressPercent)
		if err != nil {
			return fmt.Errorf("inserting snapshot entry %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Snapshot returns the persisted continue-watching entries in rank order.
func (s *Store) Snapshot() ([]models.SnapshotEntry, error) {
	rows, err := s.db.Query(`SELECT item_id, name, subtitle, image_url, kind, progress_percent
		FROM continue_watching ORDER BY rank`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close()

	var entries []models.SnapshotEntry
	for rows.Next() {
		var e models.SnapshotEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.Name, &e.Subtitle, &e.ImageURL, &kind, &e.ProgressPercent); err != nil {
			return nil, fmt.Errorf("scanning snapshot entry: %w", err)
		}
		e.Kind = models.ItemKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
