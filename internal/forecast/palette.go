package forecast

// Palette is the page colour scheme for a category and time of day.
type Palette struct {
	// Gradient is a CSS background value.
	Gradient string
	// Text is the primary text colour drawn over Gradient.
	Text string
	// Card is the translucent panel background.
	Card string
}

// DefaultPalette is the plain sunny-day sky.
var DefaultPalette = Palette{
	Gradient: "linear-gradient(to bottom, #00bfff 0%, #1e90ff 25%, #4169e1 50%, #6495ed 75%, #87ceeb 100%)",
	Text:     "#ffffff",
	Card:     "rgba(255, 255, 255, 0.15)",
}

var (
	darkCard  = "rgba(0, 0, 0, 0.25)"
	lightCard = "rgba(255, 255, 255, 0.35)"
)

// weatherPalettes apply whatever the hour, split only by day/night.
var weatherPalettes = map[Category][2]Palette{
	CategoryRain: {
		{Gradient: "linear-gradient(to bottom, #4a5568 0%, #718096 50%, #a0aec0 100%)", Text: "#ffffff", Card: darkCard},
		{Gradient: "linear-gradient(to bottom, #1a202c 0%, #2d3748 50%, #4a5568 100%)", Text: "#e2e8f0", Card: darkCard},
	},
	CategoryStorm: {
		{Gradient: "linear-gradient(to bottom, #1a202c 0%, #2d3748 30%, #4a5568 70%, #718096 100%)", Text: "#f7fafc", Card: darkCard},
		{Gradient: "linear-gradient(to bottom, #1a202c 0%, #2d3748 30%, #4a5568 70%, #718096 100%)", Text: "#f7fafc", Card: darkCard},
	},
	CategorySnow: {
		{Gradient: "linear-gradient(to bottom, #cbd5e0 0%, #e2e8f0 50%, #f7fafc 100%)", Text: "#1a202c", Card: lightCard},
		{Gradient: "linear-gradient(to bottom, #2d3748 0%, #4a5568 50%, #718096 100%)", Text: "#f7fafc", Card: darkCard},
	},
	CategoryCloudy: {
		{Gradient: "linear-gradient(to bottom, #7c8ea6 0%, #a8b8d0 50%, #d4dce8 100%)", Text: "#1e293b", Card: lightCard},
		{Gradient: "linear-gradient(to bottom, #1e293b 0%, #334155 50%, #475569 100%)", Text: "#e2e8f0", Card: darkCard},
	},
	CategoryFog: {
		{Gradient: "linear-gradient(to bottom, #9ca3af 0%, #d1d5db 50%, #e5e7eb 100%)", Text: "#1f2937", Card: lightCard},
		{Gradient: "linear-gradient(to bottom, #9ca3af 0%, #d1d5db 50%, #e5e7eb 100%)", Text: "#1f2937", Card: lightCard},
	},
}

// skyPalettes are used for clear and partly cloudy skies.
var skyPalettes = map[TimeOfDay]Palette{
	TimeDawn: {
		Gradient: "linear-gradient(to bottom, #ff1493 0%, #ff69b4 20%, #ffa500 40%, #ffb347 60%, #87ceeb 80%, #4a90e2 100%)",
		Text:     "#ffffff",
		Card:     "rgba(255, 255, 255, 0.15)",
	},
	TimeMorning: {
		Gradient: "linear-gradient(to bottom, #00bfff 0%, #1e90ff 30%, #4169e1 60%, #6495ed 100%)",
		Text:     "#ffffff",
		Card:     "rgba(255, 255, 255, 0.15)",
	},
	TimeAfternoon: {
		Gradient: "linear-gradient(to bottom, #1e90ff 0%, #4169e1 25%, #6495ed 50%, #87ceeb 75%, #b0d4f1 100%)",
		Text:     "#ffffff",
		Card:     "rgba(255, 255, 255, 0.15)",
	},
	TimeDusk: {
		Gradient: "linear-gradient(to bottom, #ff1493 0%, #ff69b4 20%, #ff6b9d 40%, #9370db 60%, #483d8b 80%, #2c1f4a 100%)",
		Text:     "#ffffff",
		Card:     darkCard,
	},
	TimeNight: {
		Gradient: "linear-gradient(to bottom, #000033 0%, #000066 25%, #000099 50%, #0f3460 75%, #1a1a2e 100%)",
		Text:     "#e2e8f0",
		Card:     "rgba(255, 255, 255, 0.08)",
	},
}

// GetPalette returns the colour scheme for a category. Weather categories
// depend only on day/night; clear skies follow the time of day.
func GetPalette(c Category, tod TimeOfDay, isDay bool) Palette {
	if p, ok := weatherPalettes[c]; ok {
		if isDay {
			return p[0]
		}
		return p[1]
	}
	if c == CategoryClear || c == CategoryPartly {
		if p, ok := skyPalettes[tod]; ok {
			return p
		}
	}
	return DefaultPalette
}
