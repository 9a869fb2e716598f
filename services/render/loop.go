package render

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkobak/departure-board/config"
	"github.com/mkobak/departure-board/services/fetch"
	"github.com/mkobak/departure-board/services/nav"
	"github.com/mkobak/departure-board/types"
	"github.com/mkobak/departure-board/x/timex"
)

// NavSource is the navigation snapshot the loop reads each tick.
type NavSource interface {
	Snapshot() nav.Snapshot
}

// CacheSource is the fetch cache the loop reads each tick.
type CacheSource interface {
	Snapshot(screenID string) *fetch.Cache
}

// Sink receives finished frames. Present must tolerate being called at
// the full render cadence.
type Sink interface {
	Present(*types.Frame) error
	Close() error
}

// Loop renders at a fixed cadence, independent of fetch completion:
// stale data is shown until something fresher lands, and a cleared
// cache renders as an explicit empty board.
type Loop struct {
	nav    NavSource
	cache  CacheSource
	sink   Sink
	layout *Layout
	fps    int
	log    *slog.Logger
	now    func() time.Time

	lastPresentErr time.Time
}

func NewLoop(cfg config.RenderConfig, navSrc NavSource, cache CacheSource, sink Sink, log *slog.Logger) *Loop {
	return &Loop{
		nav:    navSrc,
		cache:  cache,
		sink:   sink,
		layout: &Layout{Cols: cfg.Cols, Rows: cfg.Rows},
		fps:    cfg.FPS,
		log:    log.With("service", "render"),
		now:    time.Now,
	}
}

func (l *Loop) Run(ctx context.Context) error {
	tick := time.NewTicker(timex.PeriodFromHz(l.fps))
	defer tick.Stop()
	defer l.sink.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			frame := l.BuildFrame()
			if err := l.sink.Present(frame); err != nil {
				// The panel hiccuping at 30Hz would flood the log.
				if now := l.now(); now.Sub(l.lastPresentErr) > 5*time.Second {
					l.lastPresentErr = now
					l.log.Warn("present failed", "err", err)
				}
			}
		}
	}
}

// BuildFrame assembles one frame from the current navigation and
// cache snapshots.
func (l *Loop) BuildFrame() *types.Frame {
	snap := l.nav.Snapshot()
	cache := l.cache.Snapshot(snap.Screen.ID)

	f := &types.Frame{
		Clock: l.now().Format("15:04"),
		Page:  snap.Page,
	}

	switch snap.Screen.Kind {
	case types.ScreenWeather:
		f.Header = snap.Screen.Title()
		if cache == nil || cache.Weather == nil {
			f.Empty = true
		} else {
			f.Weather = cache.Weather
		}
	default:
		f.Header = headerStopName(snap.Screen.Title())
		if cache == nil {
			f.Empty = true
			break
		}
		f.Rows = l.pageRows(cache.Rows, snap.Screen, snap.Page)
	}

	f.Bitmap = l.layout.Rasterize(f)
	return f
}

// pageRows slices the cached departures to the page window and
// prepares them for drawing.
func (l *Loop) pageRows(rows []types.Departure, screen types.Screen, page int) []types.DisplayRow {
	capacity := l.layout.Capacity()
	start := page * capacity
	if start >= len(rows) {
		return nil
	}
	end := start + capacity
	if end > len(rows) {
		end = len(rows)
	}
	origin := ""
	if screen.Stop != nil {
		origin = screen.Stop.Stop
	}
	return l.layout.PrepareRows(rows[start:end], origin)
}
