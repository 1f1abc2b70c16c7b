package player

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finwatch/internal/models"
)

type fakeLister struct {
	siblings []models.MediaItem
	err      error
	gotScope string
}

func (f *fakeLister) ItemsByParent(_ context.Context, parentID string, _ []models.ItemKind, _ string, _ int) ([]models.MediaItem, error) {
	f.gotScope = parentID
	return f.siblings, f.err
}

func numbered(id string, index int) models.MediaItem {
	return models.MediaItem{ID: id, Kind: models.KindEpisode, IndexNumber: index}
}

func TestNextItemExactMatch(t *testing.T) {
	current := models.MediaItem{ID: "ep2", Kind: models.KindEpisode, SeasonID: "s1", IndexNumber: 2}
	lister := &fakeLister{siblings: []models.MediaItem{
		numbered("ep1", 1), numbered("ep2", 2), numbered("ep3", 3), numbered("ep4", 4),
	}}

	next, found, err := NextItem(context.Background(), lister, current)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ep3", next.ID)
	assert.Equal(t, "s1", lister.gotScope)
}

func TestNextItemSparseFallback(t *testing.T) {
	current := models.MediaItem{ID: "ep2", Kind: models.KindEpisode, SeasonID: "s1", IndexNumber: 2}
	lister := &fakeLister{siblings: []models.MediaItem{
		numbered("ep2", 2), numbered("ep9", 9), numbered("ep5", 5),
	}}

	next, found, err := NextItem(context.Background(), lister, current)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ep5", next.ID, "fallback picks the lowest strictly higher index")
}

func TestNextItemDateEncodedVideos(t *testing.T) {
	current := models.MediaItem{ID: "v1", Kind: models.KindVideo, ParentID: "folder", IndexNumber: 20241101}
	lister := &fakeLister{siblings: []models.MediaItem{
		{ID: "v1", Kind: models.KindVideo, IndexNumber: 20241101},
		{ID: "v2", Kind: models.KindVideo, IndexNumber: 20241105},
		{ID: "v3", Kind: models.KindVideo, IndexNumber: 20241110},
	}}

	next, found, err := NextItem(context.Background(), lister, current)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v2", next.ID)
	assert.Equal(t, "folder", lister.gotScope)
}

func TestNextItemAtEndOfList(t *testing.T) {
	current := models.MediaItem{ID: "ep4", Kind: models.KindEpisode, SeasonID: "s1", IndexNumber: 4}
	lister := &fakeLister{siblings: []models.MediaItem{
		numbered("ep1", 1), numbered("ep2", 2), numbered("ep3", 3), numbered("ep4", 4),
	}}

	_, found, err := NextItem(context.Background(), lister, current)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNextItemNoScope(t *testing.T) {
	current := models.MediaItem{ID: "v1", Kind: models.KindVideo, IndexNumber: 3}
	lister := &fakeLister{}

	_, found, err := NextItem(context.Background(), lister, current)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, lister.gotScope, "no lookup without a scope")
}

func TestNextItemNoIndex(t *testing.T) {
	current := models.MediaItem{ID: "v1", Kind: models.KindVideo, ParentID: "folder"}
	lister := &fakeLister{}

	_, found, err := NextItem(context.Background(), lister, current)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNextItemScopePreference(t *testing.T) {
	lister := &fakeLister{}

	current := models.MediaItem{Kind: models.KindEpisode, SeasonID: "season", SeriesID: "series", ParentID: "parent", IndexNumber: 1}
	_, _, err := NextItem(context.Background(), lister, current)
	require.NoError(t, err)
	assert.Equal(t, "season", lister.gotScope)

	current.SeasonID = ""
	_, _, err = NextItem(context.Background(), lister, current)
	require.NoError(t, err)
	assert.Equal(t, "series", lister.gotScope)

	current.SeriesID = ""
	_, _, err = NextItem(context.Background(), lister, current)
	require.NoError(t, err)
	assert.Equal(t, "parent", lister.gotScope)
}

func TestNextItemListerError(t *testing.T) {
	current := models.MediaItem{Kind: models.KindEpisode, SeasonID: "s1", IndexNumber: 1}
	lister := &fakeLister{err: errors.New("timeout")}

	_, found, err := NextItem(context.Background(), lister, current)
	assert.Error(t, err)
	assert.False(t, found)
}
