package openmeteo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

const defaultBaseURL = "https://api.open-meteo.com/v1"

// Config configures the Open-Meteo forecast client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// Location labels the report; Open-Meteo itself is coordinate-only.
	Location string
}

// Client reads hourly forecasts from Open-Meteo. It implements
// tiles.WeatherSource. No API key is needed.
type Client struct {
	baseURL  string
	location string
	client   *http.Client
}

// New builds an Open-Meteo client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, location: cfg.Location, client: httpClient}
}

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2M []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

// Forecast implements tiles.WeatherSource.
func (c *Client) Forecast(ctx context.Context, latitude, longitude float64) (tiles.WeatherReport, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", latitude))
	params.Set("longitude", fmt.Sprintf("%.4f", longitude))
	params.Set("current_weather", "true")
	params.Set("hourly", "temperature_2m")
	params.Set("forecast_days", "2")
	params.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+params.Encode(), nil)
	if err != nil {
		return tiles.WeatherReport{}, fmt.Errorf("openmeteo: build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return tiles.WeatherReport{}, &tiles.NetworkError{TileType: tiles.TypeWeather, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return tiles.WeatherReport{}, &tiles.UpstreamError{
			TileType: tiles.TypeWeather,
			Status:   resp.StatusCode,
			Message:  buf.String(),
		}
	}

	var decoded forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return tiles.WeatherReport{}, &tiles.UpstreamError{
			TileType: tiles.TypeWeather,
			Message:  fmt.Sprintf("decode response: %v", err),
		}
	}

	report := tiles.WeatherReport{
		Location:    c.location,
		Temperature: decoded.CurrentWeather.Temperature,
		Summary:     weatherCodeSummary(decoded.CurrentWeather.WeatherCode),
	}
	for i, stamp := range decoded.Hourly.Time {
		if i >= len(decoded.Hourly.Temperature2M) {
			break
		}
		when, err := time.Parse("2006-01-02T15:04", stamp)
		if err != nil {
			continue
		}
		report.Hourly = append(report.Hourly, tiles.ForecastPoint{
			Time:        when,
			Temperature: decoded.Hourly.Temperature2M[i],
		})
	}
	return report, nil
}

// weatherCodeSummary maps WMO weather interpretation codes to short labels.
func weatherCodeSummary(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code <= 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Showers"
	case code >= 85 && code <= 86:
		return "Snow showers"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
