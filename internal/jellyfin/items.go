package jellyfin

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"finwatch/internal/models"
)

// itemFields is requested on every item query so parent references and
// image tags are present for the merger and artwork fallback.
const itemFields = "ParentId,SeriesId,SeasonId,ParentBackdropImageTags"

type itemJSON struct {
	ID                      string            `json:"Id"`
	Name                    string            `json:"Name"`
	Type                    string            `json:"Type"`
	SeriesID                string            `json:"SeriesId"`
	SeriesName              string            `json:"SeriesName"`
	SeasonID                string            `json:"SeasonId"`
	ParentID                string            `json:"ParentId"`
	IndexNumber             int               `json:"IndexNumber"`
	ParentIndexNumber       int               `json:"ParentIndexNumber"`
	ProductionYear          int               `json:"ProductionYear"`
	RunTimeTicks            int64             `json:"RunTimeTicks"`
	CollectionType          string            `json:"CollectionType"`
	UserData                *userDataJSON     `json:"UserData"`
	ImageTags               map[string]string `json:"ImageTags"`
	BackdropImageTags       []string          `json:"BackdropImageTags"`
	ParentBackdropImageTags []string          `json:"ParentBackdropImageTags"`
}

type userDataJSON struct {
	PlaybackPositionTicks int64  `json:"PlaybackPositionTicks"`
	PlayCount             int    `json:"PlayCount"`
	IsFavorite            bool   `json:"IsFavorite"`
	Played                bool   `json:"Played"`
	LastPlayedDate        string `json:"LastPlayedDate"`
}

type itemsResponse struct {
	Items []itemJSON `json:"Items"`
}

func itemKind(t string) models.ItemKind {
	switch t {
	case "Movie":
		return models.KindMovie
	case "Series":
		return models.KindSeries
	case "Season":
		return models.KindSeason
	case "Episode":
		return models.KindEpisode
	case "CollectionFolder":
		return models.KindCollectionFolder
	default:
		// Flat collections (ingested web content etc.) come back as
		// Video or vendor-specific types.
		return models.KindVideo
	}
}

func (j itemJSON) toItem() models.MediaItem {
	m := models.MediaItem{
		ID:                j.ID,
		Name:              j.Name,
		Kind:              itemKind(j.Type),
		SeriesID:          j.SeriesID,
		SeriesName:        j.SeriesName,
		SeasonID:          j.SeasonID,
		ParentID:          j.ParentID,
		IndexNumber:       j.IndexNumber,
		ParentIndexNumber: j.ParentIndexNumber,
		ProductionYear:    j.ProductionYear,
		RunTimeTicks:      j.RunTimeTicks,

		HasPrimaryImage:        j.ImageTags["Primary"] != "",
		HasBackdropImage:       len(j.BackdropImageTags) > 0,
		HasParentBackdropImage: len(j.ParentBackdropImageTags) > 0,
	}
	if j.UserData != nil {
		m.UserData = models.UserData{
			PositionTicks:  j.UserData.PlaybackPositionTicks,
			PlayCount:      j.UserData.PlayCount,
			IsFavorite:     j.UserData.IsFavorite,
			Played:         j.UserData.Played,
			LastPlayedDate: j.UserData.LastPlayedDate,
		}
	}
	return m
}

func toItems(list []itemJSON) []models.MediaItem {
	items := make([]models.MediaItem, 0, len(list))
	for _, j := range list {
		items = append(items, j.toItem())
	}
	return items
}

// ResumeItems returns partially-watched items, most recently played first.
func (c *Client) ResumeItems(ctx context.Context, limit int) ([]models.MediaItem, error) {
	creds, ok := c.creds.Current()
	if !ok {
		return nil, &Error{Kind: KindNotConfigured}
	}
	q := url.Values{
		"Limit":      {strconv.Itoa(limit)},
		"MediaTypes": {"Video"},
		"Fields":     {itemFields},
	}
	var resp itemsResponse
	if err := c.do(ctx, "GET", "/Users/"+creds.UserID+"/Items/Resume", q, nil, &resp); err != nil {
		return nil, err
	}
	return toItems(resp.Items), nil
}

// NextUp returns each series' next unwatched episode, ordered by that
// series' most recent activity. The entries carry no reliable
// last-played timestamp of their own.
func (c *Client) NextUp(ctx context.Context, limit int) ([]models.MediaItem, error) {
	creds, ok := c.creds.Current()
	if !ok {
		return nil, &Error{Kind: KindNotConfigured}
	}
	q := url.Values{
		"UserId": {creds.UserID},
		"Limit":  {strconv.Itoa(limit)},
		"Fields": {itemFields},
	}
	var resp itemsResponse
	if err := c.do(ctx, "GET", "/Shows/NextUp", q, nil, &resp); err != nil {
		return nil, err
	}
	return toItems(resp.Items), nil
}

// Latest returns the most recently added items, optionally scoped to one
// library. The endpoint returns a bare array rather than an Items wrapper.
func (c *Client) Latest(ctx context.Context, parentID string, limit int, includeWatched bool) ([]models.MediaItem, error) {
	creds, ok := c.creds.Current()
	if !ok {
		return nil, &Error{Kind: KindNotConfigured}
	}
	q := url.Values{
		"Limit":      {strconv.Itoa(limit)},
		"IsPlayed":   {strconv.FormatBool(includeWatched)},
		"Fields":     {itemFields},
		"GroupItems": {"false"},
	}
	if parentID != "" {
		q.Set("ParentId", parentID)
	}
	var list []itemJSON
	if err := c.do(ctx, "GET", "/Users/"+creds.UserID+"/Items/Latest", q, nil, &list); err != nil {
		return nil, err
	}
	return toItems(list), nil
}

// Libraries returns the views the user can see.
func (c *Client) Libraries(ctx context.Context) ([]models.Library, error) {
	creds, ok := c.creds.Current()
	if !ok {
		return nil, &Error{Kind: KindNotConfigured}
	}
	var resp itemsResponse
	if err := c.do(ctx, "GET", "/Users/"+creds.UserID+"/Views", nil, nil, &resp); err != nil {
		return nil, err
	}
	libs := make([]models.Library, 0, len(resp.Items))
	for _, j := range resp.Items {
		libs = append(libs, models.Library{ID: j.ID, Name: j.Name, CollectionType: j.CollectionType})
	}
	return libs, nil
}

// Item fetches a single item fresh, including its latest saved position.
func (c *Client) Item(ctx context.Context, id string) (models.MediaItem, error) {
	creds, ok := c.creds.Current()
	if !ok {
		return models.MediaItem{}, &Error{Kind: KindNotConfigured}
	}
	q := url.Values{"Fields": {itemFields}}
	var j itemJSON
	if err := c.do(ctx, "GET", "/Users/"+creds.UserID+"/Items/"+id, q, nil, &j); err != nil {
		return models.MediaItem{}, err
	}
	return j.toItem(), nil
}

// ItemsByParent lists the children of a parent, filtered by kind and
// sorted server-side.
func (c *Client) ItemsByParent(ctx context.Context, parentID string, kinds []models.ItemKind, sortBy string, limit int) ([]models.MediaItem, error) {
	creds, ok := c.creds.Current()
	if !ok {
		return nil, &Error{Kind: KindNotConfigured}
	}
	q := url.Values{
		"ParentId": {parentID},
		"Fields":   {itemFields},
	}
	if len(kinds) > 0 {
		names := make([]string, 0, len(kinds))
		for _, k := range kinds {
			names = append(names, string(k))
		}
		q.Set("IncludeItemTypes", strings.Join(names, ","))
	}
	if sortBy != "" {
		q.Set("SortBy", sortBy)
	}
	if limit > 0 {
		q.Set("Limit", strconv.Itoa(limit))
	}
	var resp itemsResponse
	if err := c.do(ctx, "GET", "/Users/"+creds.UserID+"/Items", q, nil, &resp); err != nil {
		return nil, err
	}
	return toItems(resp.Items), nil
}

// Ancestors returns the parent chain of an item, nearest first. Used to
// resolve the display name of the library an item lives in.
func (c *Client) Ancestors(ctx context.Context, id string) ([]models.MediaItem, error) {
	creds, ok := c.creds.Current()
	if !ok {
		return nil, &Error{Kind: KindNotConfigured}
	}
	q := url.Values{"UserId": {creds.UserID}}
	var list []itemJSON
	if err := c.do(ctx, "GET", "/Items/"+id+"/Ancestors", q, nil, &list); err != nil {
		return nil, err
	}
	return toItems(list), nil
}

// MarkFavorite flags the item as a favorite for the current user.
func (c *Client) MarkFavorite(ctx context.Context, id string) error {
	creds, ok := c.creds.Current()
	if !ok {
		return &Error{Kind: KindNotConfigured}
	}
	return c.do(ctx, "POST", "/Users/"+creds.UserID+"/FavoriteItems/"+id, nil, nil, nil)
}

// MarkUnfavorite clears the favorite flag.
func (c *Client) MarkUnfavorite(ctx context.Context, id string) error {
	creds, ok := c.creds.Current()
	if !ok {
		return &Error{Kind: KindNotConfigured}
	}
	return c.do(ctx, "DELETE", "/Users/"+creds.UserID+"/FavoriteItems/"+id, nil, nil, nil)
}

// MarkWatched marks the item fully played server-side.
func (c *Client) MarkWatched(ctx context.Context, id string) error {
	creds, ok := c.creds.Current()
	if !ok {
		return &Error{Kind: KindNotConfigured}
	}
	return c.do(ctx, "POST", "/Users/"+creds.UserID+"/PlayedItems/"+id, nil, nil, nil)
}

// MarkUnwatched clears the played flag.
func (c *Client) MarkUnwatched(ctx context.Context, id string) error {
	creds, ok := c.creds.Current()
	if !ok {
		return &Error{Kind: KindNotConfigured}
	}
	return c.do(ctx, "DELETE", "/Users/"+creds.UserID+"/PlayedItems/"+id, nil, nil, nil)
}

// ImageURL builds the artwork URL for an item using the fallback order
// primary, own backdrop, parent backdrop. Returns "" when the item has
// no usable artwork or no session is active.
func (c *Client) ImageURL(item models.MediaItem) string {
	creds, ok := c.creds.Current()
	if !ok {
		return ""
	}
	switch {
	case item.HasPrimaryImage:
		return creds.ServerURL + "/Items/" + item.ID + "/Images/Primary"
	case item.HasBackdropImage:
		return creds.ServerURL + "/Items/" + item.ID + "/Images/Backdrop"
	case item.HasParentBackdropImage && item.SeriesID != "":
		return creds.ServerURL + "/Items/" + item.SeriesID + "/Images/Backdrop"
	}
	return ""
}
