package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"forecast-verifier/internal/models"

	"go.uber.org/zap"
)

// OpenMeteoClient fetches the hourly forecast series and the current
// reading for one fixed coordinate pair. Coordinates and timezone are
// set at construction; they are startup configuration, not per-call
// input.
type OpenMeteoClient struct {
	*BaseClient
	baseURL   string
	latitude  float64
	longitude float64
	timezone  string
}

func NewOpenMeteoClient(baseURL string, latitude, longitude float64, timezone string, config ClientConfig, logger *zap.Logger) *OpenMeteoClient {
	baseClient := NewBaseClient("openmeteo", config, logger)
	return &OpenMeteoClient{
		BaseClient: baseClient,
		baseURL:    baseURL,
		latitude:   latitude,
		longitude:  longitude,
		timezone:   timezone,
	}
}

// FetchForecast returns the hourly temperature and wind forecast series
// for the configured point.
func (c *OpenMeteoClient) FetchForecast(ctx context.Context) (*models.ForecastSeries, error) {
	u := c.forecastURL(url.Values{"hourly": {"temperature_2m,wind_speed_10m"}})

	data, err := c.Get(ctx, "forecast", u)
	if err != nil {
		return nil, err
	}

	var series models.ForecastSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, &FetchError{Endpoint: "forecast", Err: fmt.Errorf("decode response: %w", err)}
	}

	return &series, nil
}

// FetchCurrent returns the instantaneous temperature and wind reading
// for the configured point.
func (c *OpenMeteoClient) FetchCurrent(ctx context.Context) (*models.CurrentReading, error) {
	u := c.forecastURL(url.Values{"current": {"temperature_2m,wind_speed_10m"}})

	data, err := c.Get(ctx, "current", u)
	if err != nil {
		return nil, err
	}

	var reading models.CurrentReading
	if err := json.Unmarshal(data, &reading); err != nil {
		return nil, &FetchError{Endpoint: "current", Err: fmt.Errorf("decode response: %w", err)}
	}

	return &reading, nil
}

func (c *OpenMeteoClient) forecastURL(extra url.Values) string {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", c.latitude))
	values.Set("longitude", fmt.Sprintf("%.4f", c.longitude))
	values.Set("timezone", c.timezone)
	for key, vals := range extra {
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	return fmt.Sprintf("%s/forecast?%s", c.baseURL, values.Encode())
}
