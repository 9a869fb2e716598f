package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkobak/departure-board/types"
)

func TestCurrent(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = io.WriteString(w, `{"current":{
			"time":"2026-08-26T12:15",
			"temperature_2m":23.4,
			"wind_speed_10m":11.2,
			"weather_code":61
		}}`)
	}))
	defer srv.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(srv.URL, 5*time.Second, log)

	snap, err := c.Current(context.Background(), types.WeatherScreen{
		City: "Basel", Latitude: 47.5596, Longitude: 7.5886,
	})
	if err != nil {
		t.Fatal(err)
	}

	if snap.TemperatureC != 23.4 || snap.WindSpeedKMH != 11.2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Description != "RAIN" {
		t.Errorf("description = %q, want RAIN", snap.Description)
	}
	if snap.ObservedAt.Minute() != 15 {
		t.Errorf("observed at = %v", snap.ObservedAt)
	}

	q := got.URL.Query()
	if q.Get("latitude") != "47.5596" || q.Get("longitude") != "7.5886" {
		t.Errorf("coords = %s,%s", q.Get("latitude"), q.Get("longitude"))
	}
	if q.Get("current") == "" {
		t.Error("missing current fields parameter")
	}
}

func TestCurrent_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(srv.URL, 5*time.Second, log)

	if _, err := c.Current(context.Background(), types.WeatherScreen{City: "Basel"}); err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestDescribeCoversCommonCodes(t *testing.T) {
	cases := map[int]string{
		0: "CLEAR", 2: "PARTLY CLOUDY", 3: "OVERCAST",
		45: "FOG", 55: "DRIZZLE", 63: "RAIN", 73: "SNOW",
		81: "SHOWERS", 95: "THUNDERSTORM",
	}
	for code, want := range cases {
		if got := Describe(code); got != want {
			t.Errorf("Describe(%d) = %q, want %q", code, got, want)
		}
	}
}
