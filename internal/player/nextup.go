package player

import (
	"context"

	"finwatch/internal/models"
)

const lookaheadLimit = 200

// EpisodeLister is the catalog slice next-item lookahead needs.
type EpisodeLister interface {
	ItemsByParent(ctx context.Context, parentID string, kinds []models.ItemKind, sortBy string, limit int) ([]models.MediaItem, error)
}

// NextItem finds the item that should play after current. Episodes use
// ordinary sequential numbering: the season sibling with index equal to
// current+1 wins, falling back to the first strictly higher index for
// sparse numbering schemes. Generic videos carry no sequential
// guarantee, so only the strictly-higher rule applies, scoped to
// whichever of season, series, or parent id is known. A missing scope or
// index means "no next item", not an error.
func NextItem(ctx context.Context, lister EpisodeLister, current models.MediaItem) (models.MediaItem, bool, error) {
	scope := lookaheadScope(current)
	if scope == "" || current.IndexNumber <= 0 {
		return models.MediaItem{}, false, nil
	}

	siblings, err := lister.ItemsByParent(ctx, scope, []models.ItemKind{models.KindEpisode, models.KindVideo}, "IndexNumber", lookaheadLimit)
	if err != nil {
		return models.MediaItem{}, false, err
	}

	if current.IsEpisode() {
		for _, s := range siblings {
			if s.IndexNumber == current.IndexNumber+1 {
				return s, true, nil
			}
		}
	}

	var best models.MediaItem
	found := false
	for _, s := range siblings {
		if s.IndexNumber <= current.IndexNumber {
			continue
		}
		if !found || s.IndexNumber < best.IndexNumber {
			best = s
			found = true
		}
	}
	return best, found, nil
}

func lookaheadScope(item models.MediaItem) string {
	switch {
	case item.SeasonID != "":
		return item.SeasonID
	case item.SeriesID != "":
		return item.SeriesID
	default:
		return item.ParentID
	}
}
