package fetch

import (
	"time"

	"github.com/lox/weatherdash/internal/models"
	"github.com/lox/weatherdash/internal/weatherapi"
)

// resolveLocation applies the remote name and country to the query. A saved
// Location keeps its identity and coordinates; free text gets a
// coordinate-derived ID.
func resolveLocation(q Query, name, country string, lat, lon float64) models.Location {
	if q.Location != nil {
		loc := *q.Location
		loc.Name = name
		loc.Country = country
		return loc
	}
	return models.Location{
		ID:      models.CoordinateQuery(lat, lon),
		Name:    name,
		Country: country,
		Lat:     lat,
		Lon:     lon,
	}
}

func buildSnapshot(cur *weatherapi.CurrentPayload, days []weatherapi.ForecastDayPayload, fetchedAt time.Time) models.Snapshot {
	snap := models.Snapshot{
		Current:   buildCurrent(cur),
		FetchedAt: fetchedAt,
	}

	if len(days) > models.MaxForecastDays {
		days = days[:models.MaxForecastDays]
	}
	snap.Days = make([]models.ForecastDay, 0, len(days))
	for _, d := range days {
		snap.Days = append(snap.Days, buildDay(d))
	}
	return snap
}

func buildCurrent(c *weatherapi.CurrentPayload) models.CurrentReading {
	r := models.CurrentReading{
		TempC:       c.TempC,
		FeelsLikeC:  c.FeelsLikeC,
		Humidity:    c.Humidity,
		WindKph:     c.WindKph,
		WindDegree:  c.WindDegree,
		WindDir:     c.WindDir,
		PressureMb:  c.PressureMb,
		VisKm:       c.VisKm,
		Cloud:       c.Cloud,
		UV:          c.UV,
		IsDay:       c.IsDay == 1,
		Condition:   condition(c.Condition),
		LastUpdated: c.LastUpdated,
	}
	if c.LastUpdatedEpoch > 0 {
		r.LastUpdatedAt = time.Unix(c.LastUpdatedEpoch, 0).UTC()
	}
	return r
}

func buildDay(d weatherapi.ForecastDayPayload) models.ForecastDay {
	day := models.ForecastDay{
		DateText:      d.Date,
		MaxTempC:      d.Day.MaxTempC,
		MinTempC:      d.Day.MinTempC,
		AvgTempC:      d.Day.AvgTempC,
		MaxWindKph:    d.Day.MaxWindKph,
		TotalPrecipMm: d.Day.TotalPrecipMm,
		AvgHumidity:   d.Day.AvgHumidity,
		ChanceOfRain:  d.Day.DailyChanceOfRain,
		ChanceOfSnow:  d.Day.DailyChanceOfSnow,
		UV:            d.Day.UV,
		Condition:     condition(d.Day.Condition),
		Astro: models.Astro{
			Sunrise:   d.Astro.Sunrise,
			Sunset:    d.Astro.Sunset,
			Moonrise:  d.Astro.Moonrise,
			Moonset:   d.Astro.Moonset,
			MoonPhase: d.Astro.MoonPhase,
		},
	}

	if t, err := time.Parse("2006-01-02", d.Date); err == nil {
		day.Date = t
	} else if d.DateEpoch > 0 {
		t := time.Unix(d.DateEpoch, 0).UTC()
		day.Date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	hours := d.Hour
	if len(hours) > models.MaxHourlyPerDay {
		hours = hours[:models.MaxHourlyPerDay]
	}
	day.Hours = make([]models.HourlyReading, 0, len(hours))
	for _, h := range hours {
		day.Hours = append(day.Hours, buildHour(h))
	}
	return day
}

func buildHour(h weatherapi.HourPayload) models.HourlyReading {
	r := models.HourlyReading{
		LocalTime:    h.Time,
		TempC:        h.TempC,
		FeelsLikeC:   h.FeelsLikeC,
		IsDay:        h.IsDay == 1,
		Condition:    condition(h.Condition),
		WindKph:      h.WindKph,
		WindDir:      h.WindDir,
		Humidity:     h.Humidity,
		ChanceOfRain: h.ChanceOfRain,
		UV:           h.UV,
	}
	switch {
	case h.TimeEpoch > 0:
		r.Time = time.Unix(h.TimeEpoch, 0).UTC()
	case h.Time != "":
		if t, err := time.Parse("2006-01-02 15:04", h.Time); err == nil {
			r.Time = t
		}
	}
	return r
}

func condition(c weatherapi.ConditionPayload) models.Condition {
	return models.Condition{Text: c.Text, Icon: c.Icon, Code: c.Code}
}
