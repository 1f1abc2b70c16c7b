package player

import (
	"sync"

	"finwatch/internal/models"
)

// segmentTracker matches the playback head against the item's fetched
// segments on every observed position. Auto-skip is decided per
// category: intro covers intro and recap, credits covers credits and
// preview. Commercials are never matched; SegmentKind.Skippable already
// excludes them.
type segmentTracker struct {
	segments        []models.Segment
	autoSkipIntro   bool
	autoSkipCredits bool
	seek            func(positionTicks int64)

	mu     sync.Mutex
	active *models.Segment
}

func newSegmentTracker(segments []models.Segment, intro, credits bool, seek func(int64)) *segmentTracker {
	return &segmentTracker{
		segments:        segments,
		autoSkipIntro:   intro,
		autoSkipCredits: credits,
		seek:            seek,
	}
}

// observe is the position-observer callback, invoked at the segment
// polling cadence while playback runs.
func (t *segmentTracker) observe(pos int64) {
	seg, ok := t.match(pos)

	t.mu.Lock()
	if !ok {
		t.active = nil
		t.mu.Unlock()
		return
	}
	entered := t.active == nil || t.active.StartTicks != seg.StartTicks
	if entered {
		t.active = &seg
	}
	autoSkip := entered && t.autoSkipFor(seg.Kind)
	if autoSkip {
		// Skipped segments never show the affordance.
		t.active = nil
	}
	t.mu.Unlock()

	if autoSkip {
		t.seek(seg.EndTicks)
	}
}

func (t *segmentTracker) match(pos int64) (models.Segment, bool) {
	for _, seg := range t.segments {
		if seg.Kind.Skippable() && seg.Contains(pos) {
			return seg, true
		}
	}
	return models.Segment{}, false
}

func (t *segmentTracker) autoSkipFor(kind models.SegmentKind) bool {
	switch kind {
	case models.SegmentIntro, models.SegmentRecap:
		return t.autoSkipIntro
	case models.SegmentCredits, models.SegmentPreview:
		return t.autoSkipCredits
	}
	return false
}

// Active returns the segment the head is currently inside, if the skip
// affordance should be shown for it.
func (t *segmentTracker) Active() (models.Segment, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return models.Segment{}, false
	}
	return *t.active, true
}

// Skip seeks past the active segment, if any. Reports whether a skip
// happened.
func (t *segmentTracker) Skip() bool {
	t.mu.Lock()
	seg := t.active
	t.active = nil
	t.mu.Unlock()
	if seg == nil {
		return false
	}
	t.seek(seg.EndTicks)
	return true
}
