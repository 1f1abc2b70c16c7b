package player

import (
	"errors"
	"sync"
	"time"

	"finwatch/internal/models"
)

// ClockEngine is a playback engine that advances the head position on
// wall-clock time instead of decoding anything. It gives the session
// controller a real transport to drive when the process runs headless,
// and deterministic behavior under test via the injectable clock.
type ClockEngine struct {
	now func() time.Time

	mu           sync.Mutex
	url          string
	duration     int64
	base         int64     // head position when last paused/sought
	playingSince time.Time // zero while paused
	ended        bool
	released     bool
	onEnded      func()

	obsMu     sync.Mutex
	observers map[int]chan struct{}
	nextObs   int
}

func NewClockEngine() *ClockEngine {
	return &ClockEngine{
		now:       time.Now,
		observers: make(map[int]chan struct{}),
	}
}

func (e *ClockEngine) Load(url string, startTicks, durationTicks int64) error {
	if url == "" {
		return errors.New("clockengine: empty stream url")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return errors.New("clockengine: released")
	}
	e.url = url
	e.duration = durationTicks
	e.base = startTicks
	e.playingSince = time.Time{}
	e.ended = false
	return nil
}

func (e *ClockEngine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released || e.ended || !e.playingSince.IsZero() {
		return
	}
	e.playingSince = e.now()
}

func (e *ClockEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playingSince.IsZero() {
		return
	}
	e.base = e.positionLocked()
	e.playingSince = time.Time{}
}

func (e *ClockEngine) Seek(positionTicks int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if positionTicks < 0 {
		positionTicks = 0
	}
	e.base = positionTicks
	if !e.playingSince.IsZero() {
		e.playingSince = e.now()
	}
}

func (e *ClockEngine) Position() int64 {
	e.mu.Lock()
	pos := e.positionLocked()
	atEnd := e.duration > 0 && pos >= e.duration && !e.ended && !e.released
	if atEnd {
		e.ended = true
		e.base = e.duration
		e.playingSince = time.Time{}
		pos = e.duration
	}
	fire := e.onEnded
	e.mu.Unlock()

	if atEnd && fire != nil {
		fire()
	}
	return pos
}

func (e *ClockEngine) positionLocked() int64 {
	pos := e.base
	if !e.playingSince.IsZero() {
		pos += models.DurationToTicks(e.now().Sub(e.playingSince))
	}
	if e.duration > 0 && pos > e.duration {
		pos = e.duration
	}
	return pos
}

func (e *ClockEngine) OnEnded(fn func()) {
	e.mu.Lock()
	e.onEnded = fn
	e.mu.Unlock()
}

func (e *ClockEngine) ObservePosition(interval time.Duration, fn func(int64)) (stop func()) {
	done := make(chan struct{})

	e.obsMu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers[id] = done
	e.obsMu.Unlock()

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				e.mu.Lock()
				paused := e.playingSince.IsZero()
				released := e.released
				e.mu.Unlock()
				if released {
					return
				}
				if paused {
					continue
				}
				fn(e.Position())
			}
		}
	}()

	return func() { e.stopObserver(id) }
}

// stopObserver closes an observer channel exactly once, whether the
// caller's stop func or Release gets there first.
func (e *ClockEngine) stopObserver(id int) {
	e.obsMu.Lock()
	if ch, ok := e.observers[id]; ok {
		close(ch)
		delete(e.observers, id)
	}
	e.obsMu.Unlock()
}

func (e *ClockEngine) Release() {
	e.mu.Lock()
	e.released = true
	e.onEnded = nil
	e.playingSince = time.Time{}
	e.mu.Unlock()

	e.obsMu.Lock()
	ids := make([]int, 0, len(e.observers))
	for id := range e.observers {
		ids = append(ids, id)
	}
	e.obsMu.Unlock()
	for _, id := range ids {
		e.stopObserver(id)
	}
}
