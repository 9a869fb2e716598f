package render

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mkobak/departure-board/config"
	"github.com/mkobak/departure-board/services/fetch"
	"github.com/mkobak/departure-board/services/nav"
	"github.com/mkobak/departure-board/types"
)

type stubNav struct{ snap nav.Snapshot }

func (s *stubNav) Snapshot() nav.Snapshot { return s.snap }

type stubCache struct{ caches map[string]*fetch.Cache }

func (s *stubCache) Snapshot(id string) *fetch.Cache { return s.caches[id] }

type countingSink struct {
	mu     sync.Mutex
	frames int
	last   *types.Frame
}

func (s *countingSink) Present(f *types.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	s.last = f
	return nil
}
func (s *countingSink) Close() error { return nil }

func stopScreen() types.Screen {
	return types.Screen{
		ID:   "s0",
		Kind: types.ScreenStop,
		Stop: &types.StopScreen{Stop: "Basel, Aeschenplatz", Limit: 8},
	}
}

func manyRows(n int) []types.Departure {
	rows := make([]types.Departure, n)
	for i := range rows {
		rows[i] = types.Departure{Category: "T", Number: "3", Destination: "Birsfelden Hard", Minutes: 3 + i}
	}
	return rows
}

func newLoop(navSrc NavSource, cache CacheSource) *Loop {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLoop(config.Default().Render, navSrc, cache, &countingSink{}, log)
}

func TestBuildFrame_EmptyCacheRendersEmptyState(t *testing.T) {
	l := newLoop(&stubNav{snap: nav.Snapshot{Screen: stopScreen()}}, &stubCache{})

	f := l.BuildFrame()
	if !f.Empty {
		t.Fatal("expected empty frame without cache")
	}
	if f.Bitmap == nil {
		t.Fatal("frame must still carry a rasterized bitmap")
	}
	if f.Header != "Aeschenplatz" {
		t.Errorf("header = %q", f.Header)
	}
}

func TestBuildFrame_PageWindowsCachedRows(t *testing.T) {
	cache := &stubCache{caches: map[string]*fetch.Cache{
		"s0": {Rows: manyRows(6)},
	}}

	l := newLoop(&stubNav{snap: nav.Snapshot{Screen: stopScreen(), Page: 0}}, cache)
	f := l.BuildFrame()
	if len(f.Rows) != 4 {
		t.Fatalf("page 0: %d rows, want capacity 4", len(f.Rows))
	}
	if f.Rows[0].Minutes != 3 {
		t.Errorf("page 0 starts at %d", f.Rows[0].Minutes)
	}

	l = newLoop(&stubNav{snap: nav.Snapshot{Screen: stopScreen(), Page: 1}}, cache)
	f = l.BuildFrame()
	if len(f.Rows) != 2 {
		t.Fatalf("page 1: %d rows, want remaining 2", len(f.Rows))
	}
	if f.Rows[0].Minutes != 7 {
		t.Errorf("page 1 starts at %d", f.Rows[0].Minutes)
	}
}

func TestBuildFrame_Weather(t *testing.T) {
	screen := types.Screen{
		ID: "w0", Kind: types.ScreenWeather,
		Weather: &types.WeatherScreen{City: "Basel"},
	}
	cache := &stubCache{caches: map[string]*fetch.Cache{
		"w0": {Weather: &types.WeatherSnapshot{TemperatureC: 19, Description: "CLEAR"}},
	}}

	l := newLoop(&stubNav{snap: nav.Snapshot{Screen: screen}}, cache)
	f := l.BuildFrame()
	if f.Weather == nil || f.Empty {
		t.Fatalf("weather frame: %+v", f)
	}
	if f.Header != "Basel" {
		t.Errorf("header = %q", f.Header)
	}
}

func TestRun_PresentsAtCadence(t *testing.T) {
	sink := &countingSink{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default().Render
	cfg.FPS = 100 // keep the test short
	l := NewLoop(cfg, &stubNav{snap: nav.Snapshot{Screen: stopScreen()}}, &stubCache{}, sink, log)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = l.Run(ctx)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.frames < 2 {
		t.Fatalf("presented %d frames, want several", sink.frames)
	}
	if sink.last == nil || sink.last.Bitmap == nil {
		t.Fatal("last frame missing bitmap")
	}
}
