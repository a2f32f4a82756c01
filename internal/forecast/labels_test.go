package forecast

import (
	"testing"
	"time"
)

func TestUVLevel(t *testing.T) {
	tests := []struct {
		uv   float64
		want string
	}{
		{0, "Low"},
		{2, "Low"},
		{2.5, "Moderate"},
		{5, "Moderate"},
		{7, "High"},
		{10, "Very High"},
		{11, "Extreme"},
	}
	for _, tt := range tests {
		if got := UVLevel(tt.uv); got != tt.want {
			t.Errorf("UVLevel(%v) = %q, want %q", tt.uv, got, tt.want)
		}
	}
}

func TestDayLabel(t *testing.T) {
	now := time.Date(2025, 10, 18, 21, 0, 0, 0, time.UTC) // a Saturday evening

	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC), "Today"},
		{time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC), "Tomorrow"},
		{time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC), "Mon"},
		{time.Date(2025, 10, 24, 0, 0, 0, 0, time.UTC), "Fri"},
	}
	for _, tt := range tests {
		if got := DayLabel(tt.date, now); got != tt.want {
			t.Errorf("DayLabel(%s) = %q, want %q", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestShortDate(t *testing.T) {
	if got := ShortDate(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)); got != "Jan 2" {
		t.Errorf("ShortDate = %q, want Jan 2", got)
	}
}
