package forecast

import "time"

// UVLevel names the band a UV index falls in.
func UVLevel(uv float64) string {
	switch {
	case uv <= 2:
		return "Low"
	case uv <= 5:
		return "Moderate"
	case uv <= 7:
		return "High"
	case uv <= 10:
		return "Very High"
	default:
		return "Extreme"
	}
}

// UVColor is the badge colour for UVLevel.
func UVColor(uv float64) string {
	switch {
	case uv <= 2:
		return "#22c55e"
	case uv <= 5:
		return "#f59e0b"
	case uv <= 7:
		return "#f97316"
	case uv <= 10:
		return "#ef4444"
	default:
		return "#9333ea"
	}
}

// DayLabel is "Today", "Tomorrow" or the short weekday of date, relative to
// now's calendar day.
func DayLabel(date, now time.Time) string {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch int(d.Sub(n).Hours() / 24) {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return date.Format("Mon")
	}
}

// ShortDate formats date as "Jan 2".
func ShortDate(date time.Time) string {
	return date.Format("Jan 2")
}
