package homefeed

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"finwatch/internal/models"
	"finwatch/internal/units"
)

const (
	resumeFetchLimit = 20
	nextUpFetchLimit = 20
	latestFetchLimit = 16
	snapshotLimit    = 10
)

// Gateway is the slice of the API gateway the home feed needs.
type Gateway interface {
	ResumeItems(ctx context.Context, limit int) ([]models.MediaItem, error)
	NextUp(ctx context.Context, limit int) ([]models.MediaItem, error)
	Latest(ctx context.Context, parentID string, limit int, includeWatched bool) ([]models.MediaItem, error)
	Libraries(ctx context.Context) ([]models.Library, error)
	ImageURL(item models.MediaItem) string
}

// SnapshotStore receives the continue-watching snapshot after every
// successful load.
type SnapshotStore interface {
	ReplaceSnapshot(entries []models.SnapshotEntry) error
}

// Service builds the home screen: the merged continue-watching feed,
// the global recently-added shelf, and the hero rotation.
type Service struct {
	gw        Gateway
	snapshots SnapshotStore
	now       func() time.Time
}

func NewService(gw Gateway, snapshots SnapshotStore) *Service {
	return &Service{
		gw:        gw,
		snapshots: snapshots,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type HomeScreen struct {
	ContinueWatching []models.MediaItem `json:"continue_watching"`
	RecentlyAdded    []models.MediaItem `json:"recently_added"`
	Hero             []models.HeroItem  `json:"hero"`
}

// Load fetches the four home-screen inputs in parallel and joins them.
// The four joined fetches are all-or-nothing: a failure in any one fails
// the whole load. The hero rotation's per-library fetches are
// independently best-effort on top of the libraries list.
func (s *Service) Load(ctx context.Context) (*HomeScreen, error) {
	var (
		resume    []models.MediaItem
		nextUp    []models.MediaItem
		latest    []models.MediaItem
		libraries []models.Library
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resume, err = s.gw.ResumeItems(gctx, resumeFetchLimit)
		return err
	})
	g.Go(func() error {
		var err error
		nextUp, err = s.gw.NextUp(gctx, nextUpFetchLimit)
		return err
	})
	g.Go(func() error {
		var err error
		latest, err = s.gw.Latest(gctx, "", latestFetchLimit, false)
		return err
	})
	g.Go(func() error {
		var err error
		libraries, err = s.gw.Libraries(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	feed := MergeContinueWatching(resume, nextUp, s.now())
	hero := s.heroRotation(ctx, libraries)
	s.writeSnapshot(feed)

	return &HomeScreen{
		ContinueWatching: feed,
		RecentlyAdded:    latest,
		Hero:             hero,
	}, nil
}

// writeSnapshot persists the top of the feed for the always-on surface.
// Best effort: a write failure never fails the home load.
func (s *Service) writeSnapshot(feed []models.MediaItem) {
	if s.snapshots == nil {
		return
	}
	n := len(feed)
	if n > snapshotLimit {
		n = snapshotLimit
	}
	entries := make([]models.SnapshotEntry, 0, n)
	for _, item := range feed[:n] {
		entries = append(entries, models.SnapshotEntry{
			ID:              item.ID,
			Name:            displayName(item),
			Subtitle:        subtitle(item),
			ImageURL:        s.gw.ImageURL(item),
			Kind:            item.Kind,
			ProgressPercent: item.ProgressPercent(),
		})
	}
	if err := s.snapshots.ReplaceSnapshot(entries); err != nil {
		log.Printf("homefeed: writing continue-watching snapshot: %v", err)
	}
}

func displayName(item models.MediaItem) string {
	if item.IsEpisode() && item.SeriesName != "" {
		return item.SeriesName
	}
	return item.Name
}

func subtitle(item models.MediaItem) string {
	switch {
	case item.IsEpisode() && item.ParentIndexNumber > 0 && item.IndexNumber > 0:
		return fmt.Sprintf("S%dE%d · %s", item.ParentIndexNumber, item.IndexNumber, item.Name)
	case item.Kind == models.KindMovie:
		runtime := units.FormatRuntime(item.RunTimeTicks)
		switch {
		case item.ProductionYear > 0 && runtime != "":
			return fmt.Sprintf("%d · %s", item.ProductionYear, runtime)
		case item.ProductionYear > 0:
			return fmt.Sprintf("%d", item.ProductionYear)
		default:
			return runtime
		}
	}
	return ""
}
