package models

import (
	"time"
)

// TimestampLayout is the storage representation of a record's sampling
// instant, second precision, rendered in the configured timezone.
const TimestampLayout = "2006-01-02 15:04:05"

// WeatherRecord is one persisted observation: the forecast and actual
// values for a single sampling cycle plus the squared error computed at
// write time. Records are immutable once stored.
type WeatherRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	TempForecast float64   `json:"temp_forecast"`
	TempActual   float64   `json:"temp_actual"`
	TempMSE      float64   `json:"temp_mse"`
	WindForecast float64   `json:"wind_forecast"`
	WindActual   float64   `json:"wind_actual"`
	WindMSE      float64   `json:"wind_mse"`
}

// ForecastSeries is the Open-Meteo hourly forecast response. The three
// arrays are parallel: Time[i] is the hour bucket for Temperature2m[i]
// and WindSpeed10m[i].
type ForecastSeries struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Hourly    struct {
		Time          []string  `json:"time"`
		Temperature2m []float64 `json:"temperature_2m"`
		WindSpeed10m  []float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
}

// CurrentReading is the Open-Meteo current-conditions response.
type CurrentReading struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		Time          string  `json:"time"`
		Temperature2m float64 `json:"temperature_2m"`
		WindSpeed10m  float64 `json:"wind_speed_10m"`
	} `json:"current"`
}
