package homefeed

import (
	"time"

	"finwatch/internal/models"
)

// FeedLimit caps the merged continue-watching feed.
const FeedLimit = 20

var lastPlayedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999", // server omits the zone on some builds
	"2006-01-02T15:04:05",
}

// parseLastPlayed parses the server's ISO-8601-ish last-played stamp,
// with or without fractional seconds. Missing or unparseable stamps are
// treated as "now" so the item sorts to the front rather than vanishing.
func parseLastPlayed(raw string, now time.Time) time.Time {
	if raw == "" {
		return now
	}
	for _, layout := range lastPlayedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}

type taggedItem struct {
	item models.MediaItem
	ts   time.Time
}

// MergeContinueWatching combines the resumable list and the next-up list
// into a single deduplicated feed of at most FeedLimit items, newest
// activity first, with at most one entry per series. Movies carry no
// series id and are never deduplicated against each other.
//
// Next-up entries have no reliable timestamp of their own, so each is
// assigned a synthetic one: "now" for the head of the list, one second
// earlier per subsequent entry. That preserves the next-up API's own
// activity ordering and makes the two lists comparable without
// re-sorting the combined list by raw timestamp — a full re-sort would
// misorder series whose synthetic stamps are not true clock times.
func MergeContinueWatching(resumable, nextUp []models.MediaItem, now time.Time) []models.MediaItem {
	resume := make([]taggedItem, 0, len(resumable))
	for _, item := range resumable {
		resume = append(resume, taggedItem{
			item: item,
			ts:   parseLastPlayed(item.UserData.LastPlayedDate, now),
		})
	}

	next := make([]taggedItem, 0, len(nextUp))
	for i, item := range nextUp {
		next = append(next, taggedItem{
			item: item,
			ts:   now.Add(-time.Duration(i) * time.Second),
		})
	}

	// Stable two-pointer descending merge; ties prefer the resumable head.
	merged := make([]taggedItem, 0, len(resume)+len(next))
	i, j := 0, 0
	for i < len(resume) && j < len(next) {
		if next[j].ts.After(resume[i].ts) {
			merged = append(merged, next[j])
			j++
		} else {
			merged = append(merged, resume[i])
			i++
		}
	}
	merged = append(merged, resume[i:]...)
	merged = append(merged, next[j:]...)

	seenItems := make(map[string]struct{})
	seenSeries := make(map[string]struct{})
	feed := make([]models.MediaItem, 0, FeedLimit)
	for _, ti := range merged {
		if len(feed) >= FeedLimit {
			break
		}
		if _, dup := seenItems[ti.item.ID]; dup {
			continue
		}
		if sid := ti.item.SeriesID; sid != "" {
			if _, dup := seenSeries[sid]; dup {
				continue
			}
			seenSeries[sid] = struct{}{}
		}
		seenItems[ti.item.ID] = struct{}{}
		feed = append(feed, ti.item)
	}
	return feed
}
