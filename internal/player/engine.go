package player

import "time"

// Engine is the narrow surface the session controller needs from a
// playback backend: load an asset, transport control, position
// observation, and an end-of-media signal. The host process supplies the
// implementation; ClockEngine is a decode-free stand-in.
type Engine interface {
	// Load prepares the asset at url and positions the head at
	// startTicks without starting playback.
	Load(url string, startTicks, durationTicks int64) error
	Play()
	Pause()
	Seek(positionTicks int64)
	// Position returns the current head position in ticks.
	Position() int64
	// OnEnded registers the end-of-media callback. The engine fires it
	// at most once per loaded asset.
	OnEnded(fn func())
	// ObservePosition reports the head position at the given cadence
	// while playback runs. Observation pauses with playback. The
	// returned function cancels the observer.
	ObservePosition(interval time.Duration, fn func(positionTicks int64)) (stop func())
	// Release tears the engine down. No callbacks fire after Release.
	Release()
}
