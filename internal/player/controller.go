package player

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"finwatch/internal/models"
	"finwatch/internal/store"
	"finwatch/internal/units"
)

// ResumeThresholdTicks is the saved position at or below which playback
// starts from zero instead of resuming. 30 seconds.
const ResumeThresholdTicks = 30 * models.TicksPerSecond

const (
	defaultProgressInterval = 5 * time.Second
	segmentPollInterval     = 500 * time.Millisecond

	// quickExitWindow protects an existing resume point from an engine
	// that fails fast: stops within this window report the original
	// resume position instead of the near-zero head.
	quickExitWindow = 10 * time.Second

	reportTimeout = 10 * time.Second
)

var (
	ErrNoMediaSource = errors.New("server returned no media sources")
	ErrNoStreamURL   = errors.New("no usable stream url")
	ErrAborted       = errors.New("playback load aborted")
	ErrNoNextItem    = errors.New("no next item pending")
)

type State string

const (
	StateIdle       State = "idle"
	StateResolving  State = "resolving"
	StatePlaying    State = "playing"
	StateEnded      State = "ended"
	StateNextPrompt State = "next_prompt"
)

// Gateway is the server surface the controller drives.
type Gateway interface {
	EpisodeLister
	Item(ctx context.Context, id string) (models.MediaItem, error)
	ResolvePlaybackSource(ctx context.Context, itemID string) ([]models.MediaSource, error)
	StaticStreamURL(itemID string, src models.MediaSource) string
	ReportPlaybackStart(ctx context.Context, itemID string, positionTicks int64, playSessionID string) error
	ReportPlaybackProgress(ctx context.Context, itemID string, positionTicks int64, paused bool, playSessionID string) error
	ReportPlaybackStopped(ctx context.Context, itemID string, positionTicks int64, playSessionID string) error
	MarkWatched(ctx context.Context, id string) error
	Segments(ctx context.Context, itemID string) ([]models.Segment, error)
}

// SettingsSource supplies the user's playback preferences, re-read at
// every load so changes apply to the next session.
type SettingsSource interface {
	GetPlaybackSettings() (store.PlaybackSettings, error)
}

// session is the runtime state of one active playback. Created on load,
// destroyed on stop, end-of-media, or replacement by a new load.
type session struct {
	item        models.MediaItem
	source      models.MediaSource
	streamURL   string
	engine      Engine
	tracker     *segmentTracker
	startedAt   time.Time
	resumeTicks int64 // position the session resumed from, 0 if from start
	autoPlay    bool
	paused      atomic.Bool
	cancel      context.CancelFunc // progress loop
	stopObserve func()             // segment observer
}

// Controller owns the single active playback session and its state
// machine. All server calls it makes after the initial resolution are
// best-effort telemetry: their failures are logged, never surfaced, and
// never interrupt playback.
type Controller struct {
	gw        Gateway
	settings  SettingsSource
	newEngine func() Engine

	progressInterval time.Duration
	now              func() time.Time

	mu    sync.Mutex
	gen   uint64
	state State
	sess  *session
	next  *models.MediaItem

	subMu sync.Mutex
	subs  []func(Status)
}

func NewController(gw Gateway, settings SettingsSource, newEngine func() Engine) *Controller {
	return &Controller{
		gw:               gw,
		settings:         settings,
		newEngine:        newEngine,
		progressInterval: defaultProgressInterval,
		now:              time.Now,
		state:            StateIdle,
	}
}

// Status is a point-in-time snapshot of the controller, pushed to
// subscribers on every transition.
type Status struct {
	State         State             `json:"state"`
	Item          *models.MediaItem `json:"item,omitempty"`
	PositionTicks int64             `json:"position_ticks"`
	Paused        bool              `json:"paused"`
	ActiveSegment *models.Segment   `json:"active_segment,omitempty"`
	NextItem      *models.MediaItem `json:"next_item,omitempty"`

	// Rendered clock strings for the UI: "1:02:33" and "42m left".
	PositionDisplay  string `json:"position_display,omitempty"`
	RemainingDisplay string `json:"remaining_display,omitempty"`
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{State: c.state, NextItem: c.next}
	if c.sess != nil {
		item := c.sess.item
		st.Item = &item
		st.PositionTicks = c.sess.engine.Position()
		st.Paused = c.sess.paused.Load()
		st.PositionDisplay = units.FormatPosition(st.PositionTicks)
		st.RemainingDisplay = units.FormatRemaining(st.PositionTicks, c.sess.item.RunTimeTicks)
		if seg, ok := c.sess.tracker.Active(); ok {
			st.ActiveSegment = &seg
		}
	}
	return st
}

// OnChange registers a subscriber for state snapshots.
func (c *Controller) OnChange(fn func(Status)) {
	c.subMu.Lock()
	c.subs = append(c.subs, fn)
	c.subMu.Unlock()
}

func (c *Controller) notify() {
	st := c.Status()
	c.subMu.Lock()
	subs := make([]func(Status), len(c.subs))
	copy(subs, c.subs)
	c.subMu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

// Load starts playback of the given item, tearing down any previous
// session first with full stop semantics. The item is re-fetched fresh
// so the resume decision sees the server's latest saved position.
// Resolution errors leave the controller in Idle with no partial
// session.
func (c *Controller) Load(ctx context.Context, itemID string) error {
	c.Stop()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = StateResolving
	c.next = nil
	c.mu.Unlock()
	c.notify()

	item, err := c.gw.Item(ctx, itemID)
	if err != nil {
		return c.abandon(gen, fmt.Errorf("fetching item: %w", err))
	}

	sources, err := c.gw.ResolvePlaybackSource(ctx, item.ID)
	if err != nil {
		return c.abandon(gen, fmt.Errorf("resolving media source: %w", err))
	}
	if len(sources) == 0 {
		return c.abandon(gen, ErrNoMediaSource)
	}
	src := sources[0]

	streamURL := c.pickStreamURL(item.ID, src)
	if streamURL == "" {
		return c.abandon(gen, ErrNoStreamURL)
	}

	start := resumeStart(item.UserData.PositionTicks)

	engine := c.newEngine()
	if err := engine.Load(streamURL, start, item.RunTimeTicks); err != nil {
		engine.Release()
		return c.abandon(gen, fmt.Errorf("engine load: %w", err))
	}

	segments, err := c.gw.Segments(ctx, item.ID)
	if err != nil {
		log.Printf("player: fetching segments for %s: %v", item.ID, err)
		segments = nil
	}
	prefs, err := c.settings.GetPlaybackSettings()
	if err != nil {
		log.Printf("player: reading playback settings: %v", err)
	}

	sctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		item:        item,
		source:      src,
		streamURL:   streamURL,
		engine:      engine,
		startedAt:   c.now(),
		resumeTicks: start,
		autoPlay:    prefs.AutoPlayNext,
		cancel:      cancel,
	}
	sess.tracker = newSegmentTracker(segments, prefs.AutoSkipIntro, prefs.AutoSkipCredits, engine.Seek)

	c.mu.Lock()
	if c.gen != gen || c.state != StateResolving {
		c.mu.Unlock()
		cancel()
		engine.Release()
		return ErrAborted
	}
	c.sess = sess
	c.state = StatePlaying
	c.mu.Unlock()

	engine.OnEnded(func() { go c.handleEnded(gen) })
	engine.Play()
	sess.stopObserve = engine.ObservePosition(segmentPollInterval, sess.tracker.observe)
	go c.progressLoop(sctx, sess)

	if err := c.gw.ReportPlaybackStart(ctx, item.ID, start, src.PlaySessionID); err != nil {
		log.Printf("player: reporting playback start: %v", err)
	}

	c.notify()
	return nil
}

// pickStreamURL applies the source selection order: transcode, direct
// stream, then a constructed static-file URL.
func (c *Controller) pickStreamURL(itemID string, src models.MediaSource) string {
	switch {
	case src.TranscodingURL != "":
		return src.TranscodingURL
	case src.DirectStreamURL != "":
		return src.DirectStreamURL
	default:
		return c.gw.StaticStreamURL(itemID, src)
	}
}

// resumeStart decides the starting position: at or below the threshold
// starts from zero, above it resumes at the saved position.
func resumeStart(savedTicks int64) int64 {
	if savedTicks > ResumeThresholdTicks {
		return savedTicks
	}
	return 0
}

// abandon resolves a failed or superseded load. The state machine
// returns to Idle only if this load still owns it.
func (c *Controller) abandon(gen uint64, err error) error {
	c.mu.Lock()
	if c.gen == gen && c.state == StateResolving {
		c.state = StateIdle
	}
	c.mu.Unlock()
	c.notify()
	return err
}

func (c *Controller) progressLoop(ctx context.Context, sess *session) {
	t := time.NewTicker(c.progressInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pos := sess.engine.Position()
			err := c.gw.ReportPlaybackProgress(ctx, sess.item.ID, pos, sess.paused.Load(), sess.source.PlaySessionID)
			if err != nil && ctx.Err() == nil {
				log.Printf("player: progress report: %v", err)
			}
		}
	}
}

// handleEnded runs the end-of-media flow: final report at full runtime,
// server-side watched mark, then next-item lookahead. This is the only
// path allowed to mark an item fully watched.
func (c *Controller) handleEnded(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.sess == nil || c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	sess := c.sess
	c.sess = nil
	c.state = StateEnded
	c.mu.Unlock()

	sess.cancel()
	if sess.stopObserve != nil {
		sess.stopObserve()
	}
	c.notify()

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	final := sess.item.RunTimeTicks
	if err := c.gw.ReportPlaybackStopped(ctx, sess.item.ID, final, sess.source.PlaySessionID); err != nil {
		log.Printf("player: reporting playback stopped: %v", err)
	}
	if err := c.gw.MarkWatched(ctx, sess.item.ID); err != nil {
		log.Printf("player: marking %s watched: %v", sess.item.ID, err)
	}

	next, found, err := NextItem(ctx, c.gw, sess.item)
	if err != nil {
		log.Printf("player: next-item lookahead: %v", err)
		found = false
	}

	sess.engine.Release()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	if found {
		c.next = &next
		c.state = StateNextPrompt
	} else {
		c.state = StateIdle
	}
	autoPlay := found && sess.autoPlay
	c.mu.Unlock()
	c.notify()

	if autoPlay {
		if err := c.Load(context.Background(), next.ID); err != nil {
			log.Printf("player: auto-playing next item: %v", err)
		}
	}
}

// Stop ends the active session on user exit. The reported position gets
// quick-exit protection and is clamped to 90% of runtime so a manual
// near-end exit never trips the server's own auto-watched heuristic.
// Safe in every state; stopping mid-resolution abandons the resolution.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	c.gen++
	sess := c.sess
	c.sess = nil
	c.next = nil
	c.state = StateIdle
	c.mu.Unlock()

	if sess == nil {
		c.notify()
		return
	}

	sess.cancel()
	if sess.stopObserve != nil {
		sess.stopObserve()
	}

	head := sess.engine.Position()
	reported := stopPosition(head, sess.resumeTicks, sess.item.RunTimeTicks, c.now().Sub(sess.startedAt))

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	if err := c.gw.ReportPlaybackStopped(ctx, sess.item.ID, reported, sess.source.PlaySessionID); err != nil {
		log.Printf("player: reporting playback stopped: %v", err)
	}

	sess.engine.Release()
	c.notify()
}

// stopPosition computes the position reported on manual stop.
func stopPosition(head, resumeTicks, runtimeTicks int64, elapsed time.Duration) int64 {
	pos := head
	if elapsed < quickExitWindow && resumeTicks > 0 {
		pos = resumeTicks
	}
	if runtimeTicks > 0 {
		if limit := runtimeTicks / 10 * 9; pos > limit {
			pos = limit
		}
	}
	return pos
}

// Pause suspends playback. Progress reports continue, flagged paused.
func (c *Controller) Pause() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return
	}
	sess.engine.Pause()
	sess.paused.Store(true)
	c.notify()
}

// Resume continues paused playback.
func (c *Controller) Resume() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return
	}
	sess.engine.Play()
	sess.paused.Store(false)
	c.notify()
}

// Seek moves the playback head.
func (c *Controller) Seek(positionTicks int64) {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return
	}
	sess.engine.Seek(positionTicks)
	c.notify()
}

// SkipSegment seeks past the active skippable segment. Reports whether
// there was one to skip.
func (c *Controller) SkipSegment() bool {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return false
	}
	skipped := sess.tracker.Skip()
	if skipped {
		c.notify()
	}
	return skipped
}

// PlayNext accepts the pending next item discovered at end-of-media.
func (c *Controller) PlayNext(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateNextPrompt || c.next == nil {
		c.mu.Unlock()
		return ErrNoNextItem
	}
	next := *c.next
	c.mu.Unlock()
	return c.Load(ctx, next.ID)
}

// DismissNext declines the pending next item and returns to Idle.
func (c *Controller) DismissNext() {
	c.mu.Lock()
	if c.state == StateNextPrompt {
		c.next = nil
		c.state = StateIdle
	}
	c.mu.Unlock()
	c.notify()
}
