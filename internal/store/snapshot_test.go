package store

import (
	"testing"

	"finwatch/internal/models"
)

func TestSnapshotReplaceAndRead(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	entries, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty snapshot, got %d", len(entries))
	}

	first := []models.SnapshotEntry{
		{ID: "a", Name: "Severance", Subtitle: "S1E3", Kind: models.KindEpisode, ProgressPercent: 41.5},
		{ID: "b", Name: "Heat", Kind: models.KindMovie, ProgressPercent: 12},
	}
	if err := s.ReplaceSnapshot(first); err != nil {
		t.Fatal(err)
	}

	got, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("snapshot = %+v", got)
	}
	if got[0].Kind != models.KindEpisode || got[0].ProgressPercent != 41.5 {
		t.Errorf("entry 0 = %+v", got[0])
	}

	// Replacing must drop old rows entirely.
	second := []models.SnapshotEntry{{ID: "c", Name: "New", Kind: models.KindMovie}}
	if err := s.ReplaceSnapshot(second); err != nil {
		t.Fatal(err)
	}
	got, err = s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("snapshot after replace = %+v", got)
	}
}
