package api

import (
	"time"

	"github.com/lox/weatherdash/internal/dashboard"
	"github.com/lox/weatherdash/internal/forecast"
	"github.com/lox/weatherdash/internal/models"
	"github.com/lox/weatherdash/internal/store"
)

// StateView is the controller state plus everything derived for display.
type StateView struct {
	Status    string           `json:"status"`
	Selected  models.Location  `json:"selected"`
	Message   string           `json:"message,omitempty"`
	Seq       uint64           `json:"seq"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Current   *CurrentView     `json:"current,omitempty"`
	Days      []DayView        `json:"days,omitempty"`
	Palette   forecast.Palette `json:"palette"`
}

type CurrentView struct {
	models.CurrentReading
	Category string `json:"category"`
	Emoji    string `json:"emoji"`
	UVLevel  string `json:"uvLevel"`
	UVColor  string `json:"uvColor"`
}

type DayView struct {
	Date         string     `json:"date"`
	Label        string     `json:"label"`
	ShortDate    string     `json:"shortDate"`
	MaxTempC     float64    `json:"maxTempC"`
	MinTempC     float64    `json:"minTempC"`
	ChanceOfRain int        `json:"chanceOfRain"`
	ChanceOfSnow int        `json:"chanceOfSnow"`
	MaxWindKph   float64    `json:"maxWindKph"`
	UV           float64    `json:"uv"`
	UVLevel      string     `json:"uvLevel"`
	Condition    string     `json:"condition"`
	Category     string     `json:"category"`
	Emoji        string     `json:"emoji"`
	Sunrise      string     `json:"sunrise"`
	Sunset       string     `json:"sunset"`
	Hours        []HourView `json:"hours,omitempty"`
}

type HourView struct {
	Time         string  `json:"time"`
	TempC        float64 `json:"tempC"`
	ChanceOfRain int     `json:"chanceOfRain"`
	Condition    string  `json:"condition"`
	Emoji        string  `json:"emoji"`
}

// IndexData is the page model for index.html.
type IndexData struct {
	State     StateView
	Locations []models.Location
	Filter    string
	Notice    string
}

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status           string                     `json:"status"`
	MigrationVersion int                        `json:"migration_version"`
	Dashboard        string                     `json:"dashboard"`
	Fetches          []store.FetchHealthSummary `json:"fetches"`
	Errors           []string                   `json:"errors,omitempty"`
}

type FetchRunView struct {
	ID                int64      `json:"id"`
	RequestID         string     `json:"requestId"`
	StartedAt         time.Time  `json:"startedAt"`
	FinishedAt        *time.Time `json:"finishedAt,omitempty"`
	Query             string     `json:"query"`
	LocationID        string     `json:"locationId,omitempty"`
	Success           bool       `json:"success"`
	Cached            bool       `json:"cached"`
	CurrentStatus     int64      `json:"currentStatus,omitempty"`
	ForecastStatus    int64      `json:"forecastStatus,omitempty"`
	ResponseSizeBytes int64      `json:"responseSizeBytes,omitempty"`
	DaysReturned      int64      `json:"daysReturned,omitempty"`
	Error             string     `json:"error,omitempty"`
}

func newFetchRunView(r store.FetchRun) FetchRunView {
	v := FetchRunView{
		ID:                r.ID,
		RequestID:         r.RequestID,
		StartedAt:         r.StartedAt,
		Query:             r.Query,
		LocationID:        r.LocationID.String,
		Success:           r.Success,
		Cached:            r.Cached,
		CurrentStatus:     r.CurrentStatus.Int64,
		ForecastStatus:    r.ForecastStatus.Int64,
		ResponseSizeBytes: r.ResponseSizeBytes.Int64,
		DaysReturned:      r.DaysReturned.Int64,
		Error:             r.ErrorMessage.String,
	}
	if r.FinishedAt.Valid {
		t := r.FinishedAt.Time
		v.FinishedAt = &t
	}
	return v
}

// maxHoursShown limits the hourly strip on the first day.
const maxHoursShown = 24

func (s *Server) stateView(st dashboard.State) StateView {
	v := StateView{
		Status:    st.Status.String(),
		Selected:  st.Selected,
		Message:   st.Message,
		Seq:       st.Seq,
		UpdatedAt: st.UpdatedAt,
		Palette:   forecast.DefaultPalette,
	}
	if st.Snapshot == nil {
		return v
	}

	snap := st.Snapshot
	cur := snap.Current
	category := forecast.Classify(cur.Condition.Text)
	local := localTime(cur, s.now())

	v.Current = &CurrentView{
		CurrentReading: cur,
		Category:       string(category),
		Emoji:          forecast.Emoji(category, cur.IsDay),
		UVLevel:        forecast.UVLevel(cur.UV),
		UVColor:        forecast.UVColor(cur.UV),
	}
	v.Palette = forecast.GetPalette(category, forecast.GetTimeOfDay(local), cur.IsDay)

	for i, d := range snap.Days {
		dc := forecast.Classify(d.Condition.Text)
		dv := DayView{
			Date:         d.DateText,
			Label:        forecast.DayLabel(d.Date, local),
			ShortDate:    forecast.ShortDate(d.Date),
			MaxTempC:     d.MaxTempC,
			MinTempC:     d.MinTempC,
			ChanceOfRain: d.ChanceOfRain,
			ChanceOfSnow: d.ChanceOfSnow,
			MaxWindKph:   d.MaxWindKph,
			UV:           d.UV,
			UVLevel:      forecast.UVLevel(d.UV),
			Condition:    d.Condition.Text,
			Category:     string(dc),
			Emoji:        forecast.Emoji(dc, true),
			Sunrise:      d.Astro.Sunrise,
			Sunset:       d.Astro.Sunset,
		}
		if i == 0 {
			for j, h := range d.Hours {
				if j == maxHoursShown {
					break
				}
				hc := forecast.Classify(h.Condition.Text)
				dv.Hours = append(dv.Hours, HourView{
					Time:         hourLabel(h),
					TempC:        h.TempC,
					ChanceOfRain: h.ChanceOfRain,
					Condition:    h.Condition.Text,
					Emoji:        forecast.Emoji(hc, h.IsDay),
				})
			}
		}
		v.Days = append(v.Days, dv)
	}
	return v
}

// localTime is the wall clock at the location, taken from the provider's
// local "last updated" stamp. Falls back to now.
func localTime(cur models.CurrentReading, now time.Time) time.Time {
	if t, err := time.Parse("2006-01-02 15:04", cur.LastUpdated); err == nil {
		return t
	}
	return now
}

func hourLabel(h models.HourlyReading) string {
	if t, err := time.Parse("2006-01-02 15:04", h.LocalTime); err == nil {
		return t.Format("15:04")
	}
	return h.Time.UTC().Format("15:04")
}
