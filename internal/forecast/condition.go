package forecast

import (
	"strings"
	"time"
)

// Category is the normalized weather state behind icons and backgrounds.
type Category string

const (
	CategoryClear   Category = "clear"
	CategoryPartly  Category = "partly"
	CategoryCloudy  Category = "cloudy"
	CategoryRain    Category = "rain"
	CategoryStorm   Category = "storm"
	CategorySnow    Category = "snow"
	CategoryFog     Category = "fog"
	CategoryUnknown Category = "unknown"
)

// Categories lists every category Classify can return.
var Categories = []Category{
	CategoryClear, CategoryPartly, CategoryCloudy, CategoryRain,
	CategoryStorm, CategorySnow, CategoryFog, CategoryUnknown,
}

// Classify maps provider condition text ("Patchy light rain with thunder",
// "Partly cloudy", ...) to a Category. Unrecognized text is CategoryUnknown.
func Classify(text string) Category {
	lower := strings.ToLower(text)

	// Storm first: "light rain with thunder" is a storm, not rain.
	if strings.Contains(lower, "thunder") || strings.Contains(lower, "storm") {
		return CategoryStorm
	}

	if strings.Contains(lower, "snow") || strings.Contains(lower, "sleet") ||
		strings.Contains(lower, "blizzard") || strings.Contains(lower, "ice") {
		return CategorySnow
	}

	if strings.Contains(lower, "rain") || strings.Contains(lower, "drizzle") ||
		strings.Contains(lower, "shower") {
		return CategoryRain
	}

	if strings.Contains(lower, "fog") || strings.Contains(lower, "mist") ||
		strings.Contains(lower, "haze") {
		return CategoryFog
	}

	if strings.Contains(lower, "partly") {
		return CategoryPartly
	}
	if strings.Contains(lower, "cloud") || strings.Contains(lower, "overcast") {
		return CategoryCloudy
	}

	if strings.Contains(lower, "sunny") || strings.Contains(lower, "clear") {
		return CategoryClear
	}

	return CategoryUnknown
}

// TimeOfDay is the lighting period used to pick a background.
type TimeOfDay string

const (
	TimeDawn      TimeOfDay = "dawn"
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeDusk      TimeOfDay = "dusk"
	TimeNight     TimeOfDay = "night"
)

// GetTimeOfDay buckets the wall-clock hour of t.
func GetTimeOfDay(t time.Time) TimeOfDay {
	hour := t.Hour()
	switch {
	case hour >= 5 && hour < 7:
		return TimeDawn
	case hour >= 7 && hour < 12:
		return TimeMorning
	case hour >= 12 && hour < 17:
		return TimeAfternoon
	case hour >= 17 && hour < 19:
		return TimeDusk
	default:
		return TimeNight
	}
}

// Emoji is the icon shown next to a condition.
func Emoji(c Category, isDay bool) string {
	switch c {
	case CategoryClear:
		if !isDay {
			return "🌙"
		}
		return "☀️"
	case CategoryPartly:
		return "⛅"
	case CategoryCloudy:
		return "☁️"
	case CategoryRain:
		return "🌧️"
	case CategoryStorm:
		return "⛈️"
	case CategorySnow:
		return "❄️"
	case CategoryFog:
		return "🌫️"
	default:
		return "🌈"
	}
}
