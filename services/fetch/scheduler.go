// Package fetch schedules timetable and weather fetches off the
// render path: earliest-wins scheduling, at most one in-flight worker
// per screen, exponential backoff on failure.
package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/mkobak/departure-board/bus"
	"github.com/mkobak/departure-board/config"
	"github.com/mkobak/departure-board/errcode"
	"github.com/mkobak/departure-board/types"
	"github.com/mkobak/departure-board/x/timex"
)

// DepartureClient fetches the next departures for a stop screen.
type DepartureClient interface {
	Departures(ctx context.Context, screen types.StopScreen) ([]types.Departure, error)
}

// WeatherClient fetches current conditions for a weather screen.
type WeatherClient interface {
	Current(ctx context.Context, screen types.WeatherScreen) (types.WeatherSnapshot, error)
}

// Clients bundles the two fetch collaborators.
type Clients struct {
	Departures DepartureClient
	Weather    WeatherClient
}

// Gate gates fetching on wall-clock plausibility.
type Gate interface {
	Synced() bool
}

// Cache is one screen's last-known data, swapped in whole so readers
// never see a partial update. A nil cache means "no data yet".
type Cache struct {
	Rows        []types.Departure
	Weather     *types.WeatherSnapshot
	LastSuccess time.Time
}

type entry struct {
	screen types.Screen
	cache  atomic.Pointer[Cache]

	// Guarded by Scheduler.mu.
	inFlight bool
	next     time.Time     // zero = nothing scheduled
	backoff  time.Duration // delay to use on the next failure
}

type result struct {
	screenID string
	rows     []types.Departure
	weather  *types.WeatherSnapshot
	err      error
}

type Scheduler struct {
	cfg     config.FetchConfig
	clients Clients
	gate    Gate
	conn    *bus.Connection
	log     *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	order   []string

	wake    chan struct{}
	results chan result
}

func NewScheduler(cfg config.FetchConfig, screens []types.Screen, clients Clients, gate Gate, conn *bus.Connection, log *slog.Logger) *Scheduler {
	s := &Scheduler{
		cfg:     cfg,
		clients: clients,
		gate:    gate,
		conn:    conn,
		log:     log.With("service", "fetch"),
		now:     time.Now,
		entries: make(map[string]*entry, len(screens)),
		wake:    make(chan struct{}, 1),
		results: make(chan result, len(screens)),
	}
	for _, sc := range screens {
		s.entries[sc.ID] = &entry{screen: sc, backoff: s.floor()}
		s.order = append(s.order, sc.ID)
	}
	return s
}

// Schedule requests a fetch for the screen no later than delay from
// now. An already-sooner request wins. Safe from any goroutine.
func (s *Scheduler) Schedule(screenID string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[screenID]
	if !ok {
		s.log.Warn("schedule for unknown screen", "screen", screenID, "code", errcode.UnknownScreen)
		return
	}
	e.next = earliest(e.next, s.now().Add(delay))
	s.wakeLoop()
}

// Activate clears the screen's cache and schedules a fetch. Used on
// screen switch so the board shows an explicit empty state until the
// delayed fetch lands.
func (s *Scheduler) Activate(screenID string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[screenID]
	if !ok {
		s.log.Warn("activate for unknown screen", "screen", screenID, "code", errcode.UnknownScreen)
		return
	}
	e.cache.Store(nil)
	e.next = earliest(e.next, s.now().Add(delay))
	s.wakeLoop()
}

// Snapshot returns the screen's cache, or nil when no data is known.
// Non-blocking; called from the render loop every tick.
func (s *Scheduler) Snapshot(screenID string) *Cache {
	s.mu.Lock()
	e, ok := s.entries[screenID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return e.cache.Load()
}

// Run owns the scheduling loop: re-arm a timer for the earliest due
// entry, launch workers when it fires, fold results back in.
func (s *Scheduler) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		timex.Rearm(timer, s.untilNext())

		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
		case <-timer.C:
			s.tick(ctx)
		case r := <-s.results:
			s.onResult(r)
		}
	}
}

func (s *Scheduler) untilNext() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	best := time.Hour
	due := false
	for _, id := range s.order {
		e := s.entries[id]
		if e.inFlight || e.next.IsZero() {
			continue
		}
		d := e.next.Sub(now)
		if d <= 0 {
			due = true
		} else if d < best {
			best = d
		}
	}
	if due {
		if s.gate.Synced() {
			return 0
		}
		// Clock not plausible yet: check again shortly instead of
		// fetching with a corrupt "minutes until" base.
		return time.Second
	}
	return best
}

// tick launches one worker per due screen. Entries already in flight
// are skipped, which is what makes duplicate requests no-ops.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.gate.Synced() {
		return
	}
	now := s.now()

	s.mu.Lock()
	var launch []*entry
	for _, id := range s.order {
		e := s.entries[id]
		if e.inFlight || e.next.IsZero() || e.next.After(now) {
			continue
		}
		e.inFlight = true
		e.next = time.Time{}
		launch = append(launch, e)
	}
	s.mu.Unlock()

	for _, e := range launch {
		// Snapshot the screen now; navigation may move on while the
		// worker runs.
		go s.fetch(ctx, e.screen)
	}
}

func (s *Scheduler) fetch(ctx context.Context, screen types.Screen) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	r := result{screenID: screen.ID}
	switch screen.Kind {
	case types.ScreenStop:
		r.rows, r.err = s.clients.Departures.Departures(ctx, *screen.Stop)
	case types.ScreenWeather:
		var w types.WeatherSnapshot
		w, r.err = s.clients.Weather.Current(ctx, *screen.Weather)
		if r.err == nil {
			r.weather = &w
		}
	}

	// One buffer slot per screen and at most one worker per screen, so
	// this never blocks. A timed-out fetch must still land here: it is
	// what clears inFlight and arms the backoff. On shutdown the loop
	// stops draining and the result just sits in the buffer.
	s.results <- r
}

func (s *Scheduler) onResult(r result) {
	now := s.now()

	s.mu.Lock()
	e, ok := s.entries[r.screenID]
	if !ok {
		s.mu.Unlock()
		return
	}
	e.inFlight = false

	notice := types.FetchNotice{ScreenID: r.screenID, At: now}
	if r.err != nil {
		delay := e.backoff
		e.next = earliest(e.next, now.Add(delay))
		e.backoff = s.grow(delay)
		s.mu.Unlock()

		notice.Err = r.err.Error()
		s.log.Warn("fetch failed", "screen", r.screenID,
			"code", errcode.Of(r.err), "retry_in", delay, "err", r.err)
	} else {
		e.cache.Store(&Cache{Rows: r.rows, Weather: r.weather, LastSuccess: now})
		e.backoff = s.floor()
		e.next = earliest(e.next, now.Add(s.refresh()))
		s.mu.Unlock()

		s.log.Debug("fetch ok", "screen", r.screenID, "rows", len(r.rows))
	}

	s.conn.PublishPayload("fetch/"+r.screenID+"/result", notice)
}

func (s *Scheduler) grow(prev time.Duration) time.Duration {
	next := time.Duration(float64(prev) * s.cfg.BackoffGrowth)
	if next < s.floor() {
		next = s.floor()
	}
	if ceil := s.ceiling(); next > ceil {
		next = ceil
	}
	return next
}

func (s *Scheduler) floor() time.Duration {
	return time.Duration(s.cfg.BackoffFloorS) * time.Second
}
func (s *Scheduler) ceiling() time.Duration {
	return time.Duration(s.cfg.BackoffCeilingS) * time.Second
}
func (s *Scheduler) refresh() time.Duration {
	return time.Duration(s.cfg.RefreshIntervalS) * time.Second
}
func (s *Scheduler) timeout() time.Duration {
	if s.cfg.TimeoutS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.cfg.TimeoutS) * time.Second
}

func (s *Scheduler) wakeLoop() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func earliest(existing, candidate time.Time) time.Time {
	if existing.IsZero() || candidate.Before(existing) {
		return candidate
	}
	return existing
}
