package models

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// TicksPerSecond is the fixed-point time unit used by the media server
// for all position and duration arithmetic: 10,000,000 ticks per second.
const TicksPerSecond int64 = 10_000_000

// SecondsToTicks converts whole seconds to server ticks.
func SecondsToTicks(s int64) int64 { return s * TicksPerSecond }

// TicksToDuration converts server ticks to a time.Duration.
func TicksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks * 100)
}

// DurationToTicks converts a time.Duration to server ticks.
func DurationToTicks(d time.Duration) int64 {
	return int64(d / 100)
}

type ItemKind string

const (
	KindMovie   ItemKind = "Movie"
	KindSeries  ItemKind = "Series"
	KindSeason  ItemKind = "Season"
	KindEpisode ItemKind = "Episode"
	KindVideo   ItemKind = "Video"

	// KindCollectionFolder is a library root in an item's ancestor chain.
	KindCollectionFolder ItemKind = "CollectionFolder"
)

// UserData is the per-user playback state the server tracks for an item.
type UserData struct {
	PositionTicks  int64  `json:"position_ticks"`
	PlayCount      int    `json:"play_count"`
	IsFavorite     bool   `json:"is_favorite"`
	Played         bool   `json:"played"`
	LastPlayedDate string `json:"last_played_date,omitempty"`
}

// MediaItem is an immutable catalog entry fetched from the server.
// State changes (favorite, watched, position) are round-tripped through
// the server and a fresh copy is re-fetched; items are never mutated
// locally.
type MediaItem struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Kind              ItemKind `json:"kind"`
	SeriesID          string   `json:"series_id,omitempty"`
	SeriesName        string   `json:"series_name,omitempty"`
	SeasonID          string   `json:"season_id,omitempty"`
	ParentID          string   `json:"parent_id,omitempty"`
	IndexNumber       int      `json:"index_number,omitempty"`
	ParentIndexNumber int      `json:"parent_index_number,omitempty"`
	ProductionYear    int      `json:"production_year,omitempty"`
	RunTimeTicks      int64    `json:"run_time_ticks,omitempty"`
	UserData          UserData `json:"user_data"`

	// Image-tag presence flags, used to pick the artwork fallback order
	// (primary, then own backdrop, then parent backdrop).
	HasPrimaryImage        bool `json:"has_primary_image"`
	HasBackdropImage       bool `json:"has_backdrop_image"`
	HasParentBackdropImage bool `json:"has_parent_backdrop_image"`
}

// IsEpisode reports whether the item is a numbered episode of a series.
func (m *MediaItem) IsEpisode() bool { return m.Kind == KindEpisode }

// ProgressPercent returns the watched fraction of the item in [0, 100].
func (m *MediaItem) ProgressPercent() float64 {
	if m.RunTimeTicks <= 0 {
		return 0
	}
	pct := float64(m.UserData.PositionTicks) / float64(m.RunTimeTicks) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

type MediaStream struct {
	Index        int    `json:"index"`
	Type         string `json:"type"` // Video, Audio, Subtitle
	Codec        string `json:"codec"`
	Language     string `json:"language,omitempty"`
	DisplayTitle string `json:"display_title,omitempty"`
}

// MediaSource describes one playable rendition of an item. It is fetched
// fresh at playback start and never cached across sessions, since
// bitrate and device-profile negotiation may change the result.
type MediaSource struct {
	ID              string        `json:"id"`
	Container       string        `json:"container"`
	Streams         []MediaStream `json:"streams,omitempty"`
	TranscodingURL  string        `json:"transcoding_url,omitempty"`
	DirectStreamURL string        `json:"direct_stream_url,omitempty"`
	PlaySessionID   string        `json:"play_session_id,omitempty"`
}

type SegmentKind string

const (
	SegmentIntro      SegmentKind = "Introduction"
	SegmentCredits    SegmentKind = "Credits"
	SegmentRecap      SegmentKind = "Recap"
	SegmentPreview    SegmentKind = "Preview"
	SegmentCommercial SegmentKind = "Commercial"
)

// Skippable reports whether the segment kind is exposed for skipping.
// Commercials are tracked but not skippable.
func (k SegmentKind) Skippable() bool {
	switch k {
	case SegmentIntro, SegmentCredits, SegmentRecap, SegmentPreview:
		return true
	}
	return false
}

// Segment is a named time range within an item's runtime. Absence of
// segment data for an item is not an error.
type Segment struct {
	Kind       SegmentKind `json:"kind"`
	StartTicks int64       `json:"start_ticks"`
	EndTicks   int64       `json:"end_ticks"`
}

// Contains reports whether pos falls within [start, end).
func (s Segment) Contains(pos int64) bool {
	return pos >= s.StartTicks && pos < s.EndTicks
}

type Library struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CollectionType string `json:"collection_type,omitempty"`
}

// HeroItem is a recently-added item tagged with the display name of the
// library it came from, for the rotating showcase.
type HeroItem struct {
	Item        MediaItem `json:"item"`
	LibraryName string    `json:"library_name"`
}

// SnapshotEntry is one row of the persisted continue-watching snapshot
// consumed by an external always-on surface.
type SnapshotEntry struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Subtitle        string   `json:"subtitle,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	Kind            ItemKind `json:"kind"`
	ProgressPercent float64  `json:"progress_percent"`
}

// Credentials is the locally persisted server identity. The access token
// is stored encrypted at rest.
type Credentials struct {
	ServerURL   string `json:"server_url"`
	AccessToken string `json:"-"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	ServerID    string `json:"server_id"`
	DeviceID    string `json:"device_id"`
}

func (c *Credentials) Valid() bool {
	return c != nil && c.ServerURL != "" && c.AccessToken != "" && c.UserID != ""
}
