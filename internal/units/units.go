package units

import (
	"fmt"
	"time"

	"finwatch/internal/models"
)

// FormatRuntime renders a runtime in ticks as a compact duration for
// display: "2h 15m", "45m", "30s". Zero or negative ticks render as "".
func FormatRuntime(ticks int64) string {
	if ticks <= 0 {
		return ""
	}
	d := models.TicksToDuration(ticks)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatPosition renders a playback head position as a clock string:
// "1:02:33" past the hour mark, "12:07" under it.
func FormatPosition(ticks int64) string {
	if ticks < 0 {
		ticks = 0
	}
	total := int(models.TicksToDuration(ticks).Seconds())
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatRemaining renders the time left at the given position, for the
// "ends at" affordance: "42m left".
func FormatRemaining(positionTicks, runtimeTicks int64) string {
	if runtimeTicks <= 0 || positionTicks >= runtimeTicks {
		return ""
	}
	return FormatRuntime(runtimeTicks-positionTicks) + " left"
}
