// Package openmeteo fetches current conditions from the Open-Meteo
// forecast API for the weather screen.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mkobak/departure-board/errcode"
	"github.com/mkobak/departure-board/types"
	"github.com/mkobak/departure-board/x/strx"
)

const DefaultURL = "https://api.open-meteo.com/v1/forecast"

type Client struct {
	base string
	hc   *http.Client
	log  *slog.Logger
}

func New(base string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		base: strx.Coalesce(base, DefaultURL),
		hc:   &http.Client{Timeout: timeout},
		log:  log.With("client", "openmeteo"),
	}
}

type forecastResponse struct {
	Current struct {
		Time          string  `json:"time"`
		Temperature2M float64 `json:"temperature_2m"`
		WindSpeed10M  float64 `json:"wind_speed_10m"`
		WeatherCode   int     `json:"weather_code"`
	} `json:"current"`
}

func (c *Client) Current(ctx context.Context, screen types.WeatherScreen) (types.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", screen.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", screen.Longitude))
	q.Set("current", "temperature_2m,wind_speed_10m,weather_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"?"+q.Encode(), nil)
	if err != nil {
		return types.WeatherSnapshot{}, &errcode.E{C: errcode.FetchFailed, Op: "openmeteo.Current", Err: err}
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return types.WeatherSnapshot{}, &errcode.E{C: errcode.FetchFailed, Op: "openmeteo.Current", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return types.WeatherSnapshot{}, &errcode.E{C: errcode.FetchFailed, Op: "openmeteo.Current",
			Msg: fmt.Sprintf("forecast status %d", resp.StatusCode)}
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.WeatherSnapshot{}, &errcode.E{C: errcode.DecodeFailed, Op: "openmeteo.Current", Err: err}
	}

	observed, _ := time.Parse("2006-01-02T15:04", body.Current.Time)
	return types.WeatherSnapshot{
		TemperatureC: body.Current.Temperature2M,
		WindSpeedKMH: body.Current.WindSpeed10M,
		Code:         body.Current.WeatherCode,
		Description:  Describe(body.Current.WeatherCode),
		ObservedAt:   observed,
	}, nil
}

// Describe maps a WMO weather interpretation code to short board text.
func Describe(code int) string {
	switch {
	case code == 0:
		return "CLEAR"
	case code <= 2:
		return "PARTLY CLOUDY"
	case code == 3:
		return "OVERCAST"
	case code == 45 || code == 48:
		return "FOG"
	case code >= 51 && code <= 57:
		return "DRIZZLE"
	case code >= 61 && code <= 67:
		return "RAIN"
	case code >= 71 && code <= 77:
		return "SNOW"
	case code >= 80 && code <= 82:
		return "SHOWERS"
	case code == 85 || code == 86:
		return "SNOW SHOWERS"
	case code >= 95:
		return "THUNDERSTORM"
	default:
		return ""
	}
}
