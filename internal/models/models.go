package models

import (
	"fmt"
	"time"
)

// Location is a named point the dashboard can show weather for.
type Location struct {
	ID        string  `json:"id" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat" validate:"latitude"`
	Lon       float64 `json:"lon" validate:"longitude"`
	IsCurrent bool    `json:"isCurrent,omitempty"`
}

// Query returns the "lat,lon" form accepted by the weather API.
func (l Location) Query() string {
	return CoordinateQuery(l.Lat, l.Lon)
}

// Label is the "Name, Country" display form.
func (l Location) Label() string {
	if l.Country == "" {
		return l.Name
	}
	return l.Name + ", " + l.Country
}

// CoordinateQuery formats coordinates the way the weather API expects them.
func CoordinateQuery(lat, lon float64) string {
	return fmt.Sprintf("%g,%g", lat, lon)
}

type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

type CurrentReading struct {
	TempC         float64   `json:"tempC"`
	FeelsLikeC    float64   `json:"feelsLikeC"`
	Humidity      int       `json:"humidity"`
	WindKph       float64   `json:"windKph"`
	WindDegree    int       `json:"windDegree"`
	WindDir       string    `json:"windDir"`
	PressureMb    float64   `json:"pressureMb"`
	VisKm         float64   `json:"visKm"`
	Cloud         int       `json:"cloud"`
	UV            float64   `json:"uv"`
	IsDay         bool      `json:"isDay"`
	Condition     Condition `json:"condition"`
	LastUpdated   string    `json:"lastUpdated"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

type Astro struct {
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
	Moonrise  string `json:"moonrise"`
	Moonset   string `json:"moonset"`
	MoonPhase string `json:"moonPhase"`
}

// HourlyReading is one forecast hour. LocalTime is the provider's
// wall-clock stamp at the location ("2006-01-02 15:04").
type HourlyReading struct {
	Time         time.Time `json:"time"`
	LocalTime    string    `json:"localTime"`
	TempC        float64   `json:"tempC"`
	FeelsLikeC   float64   `json:"feelsLikeC"`
	IsDay        bool      `json:"isDay"`
	Condition    Condition `json:"condition"`
	WindKph      float64   `json:"windKph"`
	WindDir      string    `json:"windDir"`
	Humidity     int       `json:"humidity"`
	ChanceOfRain int       `json:"chanceOfRain"`
	UV           float64   `json:"uv"`
}

type ForecastDay struct {
	Date          time.Time       `json:"date"`
	DateText      string          `json:"dateText"`
	MaxTempC      float64         `json:"maxTempC"`
	MinTempC      float64         `json:"minTempC"`
	AvgTempC      float64         `json:"avgTempC"`
	MaxWindKph    float64         `json:"maxWindKph"`
	TotalPrecipMm float64         `json:"totalPrecipMm"`
	AvgHumidity   float64         `json:"avgHumidity"`
	ChanceOfRain  int             `json:"chanceOfRain"`
	ChanceOfSnow  int             `json:"chanceOfSnow"`
	UV            float64         `json:"uv"`
	Condition     Condition       `json:"condition"`
	Astro         Astro           `json:"astro"`
	Hours         []HourlyReading `json:"hours"`
}

// Snapshot is the combined current + forecast result of one fetch.
type Snapshot struct {
	Current   CurrentReading `json:"current"`
	Days      []ForecastDay  `json:"days"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

const (
	MaxForecastDays = 7
	MaxHourlyPerDay = 24
)
