// Package weather fetches the forecast shown on the dashboard.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	appLog "inkcal/internal/log"
)

const defaultBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

// Condition is one entry of the API "weather" array.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Hour is a current or hourly reading.
type Hour struct {
	Dt      int64       `json:"dt"`
	Temp    float64     `json:"temp"`
	Pop     float64     `json:"pop"`
	Weather []Condition `json:"weather"`
}

// Day is a daily forecast.
type Day struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	Pop     float64     `json:"pop"`
	Weather []Condition `json:"weather"`
}

// Forecast is the subset of the One Call response inkcal uses.
type Forecast struct {
	Current Hour   `json:"current"`
	Hourly  []Hour `json:"hourly"`
	Daily   []Day  `json:"daily"`
}

// Provider returns a forecast for a fixed location.
type Provider interface {
	Forecast(ctx context.Context) (Forecast, error)
}

// OWM is an OpenWeatherMap One Call client.
type OWM struct {
	APIKey string
	Lat    float64
	Lon    float64
	Units  string

	// BaseURL and Client default to the public endpoint and a client with a
	// 15s timeout.
	BaseURL string
	Client  *http.Client

	Log *appLog.Logger
}

// Forecast fetches current, hourly and daily conditions in one call.
func (o *OWM) Forecast(ctx context.Context) (Forecast, error) {
	if o.APIKey == "" {
		return Forecast{}, errors.New("weather: api key is not configured")
	}

	base := o.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(o.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(o.Lon, 'f', -1, 64))
	q.Set("exclude", "minutely,alerts")
	q.Set("appid", o.APIKey)
	if o.Units != "" {
		q.Set("units", o.Units)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("weather: build request: %w", err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("weather: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Forecast{}, fmt.Errorf("weather: unexpected status %d", resp.StatusCode)
	}

	var f Forecast
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return Forecast{}, fmt.Errorf("weather: decode: %w", err)
	}

	o.Log.Info("retrieved weather data",
		"hourly", len(f.Hourly),
		"daily", len(f.Daily),
		"took", time.Since(start).String(),
	)
	return f, nil
}
