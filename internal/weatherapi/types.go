package weatherapi

// Response shapes for the WeatherAPI.com v1 endpoints. Only the fields the
// dashboard reads are declared.

type LocationPayload struct {
	Name           string  `json:"name"`
	Region         string  `json:"region"`
	Country        string  `json:"country"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	TzID           string  `json:"tz_id"`
	LocaltimeEpoch int64   `json:"localtime_epoch"`
	Localtime      string  `json:"localtime"`
}

type ConditionPayload struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

type CurrentPayload struct {
	LastUpdatedEpoch int64            `json:"last_updated_epoch"`
	LastUpdated      string           `json:"last_updated"`
	TempC            float64          `json:"temp_c"`
	IsDay            int              `json:"is_day"`
	Condition        ConditionPayload `json:"condition"`
	WindKph          float64          `json:"wind_kph"`
	WindDegree       int              `json:"wind_degree"`
	WindDir          string           `json:"wind_dir"`
	PressureMb       float64          `json:"pressure_mb"`
	Humidity         int              `json:"humidity"`
	Cloud            int              `json:"cloud"`
	FeelsLikeC       float64          `json:"feelslike_c"`
	VisKm            float64          `json:"vis_km"`
	UV               float64          `json:"uv"`
}

type CurrentResponse struct {
	Location *LocationPayload `json:"location"`
	Current  *CurrentPayload  `json:"current"`
}

type DayPayload struct {
	MaxTempC          float64          `json:"maxtemp_c"`
	MinTempC          float64          `json:"mintemp_c"`
	AvgTempC          float64          `json:"avgtemp_c"`
	MaxWindKph        float64          `json:"maxwind_kph"`
	TotalPrecipMm     float64          `json:"totalprecip_mm"`
	AvgVisKm          float64          `json:"avgvis_km"`
	AvgHumidity       float64          `json:"avghumidity"`
	DailyChanceOfRain int              `json:"daily_chance_of_rain"`
	DailyChanceOfSnow int              `json:"daily_chance_of_snow"`
	Condition         ConditionPayload `json:"condition"`
	UV                float64          `json:"uv"`
}

type AstroPayload struct {
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
	Moonrise  string `json:"moonrise"`
	Moonset   string `json:"moonset"`
	MoonPhase string `json:"moon_phase"`
}

type HourPayload struct {
	TimeEpoch    int64            `json:"time_epoch"`
	Time         string           `json:"time"`
	TempC        float64          `json:"temp_c"`
	IsDay        int              `json:"is_day"`
	Condition    ConditionPayload `json:"condition"`
	WindKph      float64          `json:"wind_kph"`
	WindDir      string           `json:"wind_dir"`
	Humidity     int              `json:"humidity"`
	FeelsLikeC   float64          `json:"feelslike_c"`
	ChanceOfRain int              `json:"chance_of_rain"`
	UV           float64          `json:"uv"`
}

type ForecastDayPayload struct {
	Date      string        `json:"date"`
	DateEpoch int64         `json:"date_epoch"`
	Day       DayPayload    `json:"day"`
	Astro     AstroPayload  `json:"astro"`
	Hour      []HourPayload `json:"hour"`
}

type ForecastResponse struct {
	Location *LocationPayload `json:"location"`
	Current  *CurrentPayload  `json:"current"`
	Forecast *struct {
		ForecastDay []ForecastDayPayload `json:"forecastday"`
	} `json:"forecast"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
