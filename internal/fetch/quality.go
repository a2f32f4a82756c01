package fetch

import "github.com/lox/weatherdash/internal/models"

const (
	FlagTempOutOfRange     = "temp_out_of_range"
	FlagHumidityInvalid    = "humidity_invalid"
	FlagWindDirInvalid     = "wind_dir_invalid"
	FlagWindSpeedUnlikely  = "wind_speed_unlikely"
	FlagPressureOutOfRange = "pressure_out_of_range"
	FlagUVNegative         = "uv_negative"
	FlagCloudInvalid       = "cloud_invalid"
)

// QualityFlags lists implausible values in a current reading. Flagged
// readings are still shown; the flags only feed logs and metrics.
func QualityFlags(c models.CurrentReading) []string {
	var flags []string

	if c.TempC < -90 || c.TempC > 60 {
		flags = append(flags, FlagTempOutOfRange)
	}
	if c.Humidity < 0 || c.Humidity > 100 {
		flags = append(flags, FlagHumidityInvalid)
	}
	if c.WindDegree < 0 || c.WindDegree > 360 {
		flags = append(flags, FlagWindDirInvalid)
	}
	if c.WindKph < 0 || c.WindKph > 400 {
		flags = append(flags, FlagWindSpeedUnlikely)
	}
	// Zero means the provider omitted it.
	if c.PressureMb != 0 && (c.PressureMb < 850 || c.PressureMb > 1100) {
		flags = append(flags, FlagPressureOutOfRange)
	}
	if c.UV < 0 {
		flags = append(flags, FlagUVNegative)
	}
	if c.Cloud < 0 || c.Cloud > 100 {
		flags = append(flags, FlagCloudInvalid)
	}

	return flags
}
