package units

import (
	"testing"

	"finwatch/internal/models"
)

func TestFormatRuntime(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, ""},
		{30, "30s"},
		{45 * 60, "45m"},
		{2 * 3600, "2h"},
		{2*3600 + 15*60, "2h 15m"},
		{90 * 60, "1h 30m"},
	}
	for _, tc := range cases {
		if got := FormatRuntime(models.SecondsToTicks(tc.seconds)); got != tc.want {
			t.Errorf("FormatRuntime(%ds) = %q, want %q", tc.seconds, got, tc.want)
		}
	}

	if got := FormatRuntime(-1); got != "" {
		t.Errorf("negative ticks = %q", got)
	}
}

func TestFormatPosition(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "0:00"},
		{7, "0:07"},
		{12*60 + 7, "12:07"},
		{3600 + 2*60 + 33, "1:02:33"},
	}
	for _, tc := range cases {
		if got := FormatPosition(models.SecondsToTicks(tc.seconds)); got != tc.want {
			t.Errorf("FormatPosition(%ds) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatRemaining(t *testing.T) {
	runtime := models.SecondsToTicks(3600)

	if got := FormatRemaining(models.SecondsToTicks(1080), runtime); got != "42m left" {
		t.Errorf("FormatRemaining = %q", got)
	}
	if got := FormatRemaining(runtime, runtime); got != "" {
		t.Errorf("at the end = %q", got)
	}
	if got := FormatRemaining(0, 0); got != "" {
		t.Errorf("unknown runtime = %q", got)
	}
}
