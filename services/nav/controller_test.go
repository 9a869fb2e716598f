package nav

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mkobak/departure-board/bus"
	"github.com/mkobak/departure-board/config"
	"github.com/mkobak/departure-board/services/input"
	"github.com/mkobak/departure-board/types"
)

type schedCall struct {
	screenID string
	delay    time.Duration
	activate bool
}

type fakeSched struct {
	mu    sync.Mutex
	calls []schedCall
}

func (f *fakeSched) Schedule(id string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, schedCall{id, d, false})
}

func (f *fakeSched) Activate(id string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, schedCall{id, d, true})
}

func (f *fakeSched) last(t *testing.T) schedCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no scheduler calls recorded")
	}
	return f.calls[len(f.calls)-1]
}

func testScreens() []types.Screen {
	return []types.Screen{
		{ID: "s0", Kind: types.ScreenStop, Stop: &types.StopScreen{Stop: "Basel, Aeschenplatz", Limit: 8}},
		{ID: "s1", Kind: types.ScreenStop, Stop: &types.StopScreen{Stop: "Basel SBB", Limit: 8}},
		{ID: "s2", Kind: types.ScreenWeather, Weather: &types.WeatherScreen{City: "Basel"}},
	}
}

func newController(t *testing.T) (*Controller, *fakeSched) {
	t.Helper()
	b := bus.NewBus(16)
	sched := &fakeSched{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(config.Default().Nav, testScreens(), sched, b.NewConnection("nav"), log)
	return c, sched
}

func TestAlternation_PagesAndScreensStrictlyAlternate(t *testing.T) {
	c, _ := newController(t)
	at := time.Unix(1000, 0)

	type want struct {
		idx  int
		page int
	}
	// alternation_bit starts 0: toggle page, change screen, toggle
	// page, change screen, ...
	wants := []want{
		{0, 1}, // page toggle
		{1, 0}, // screen change, forced to page 0
		{1, 1}, // page toggle
		{2, 0}, // screen change
	}
	for i, w := range wants {
		c.onRotation(1, at)
		at = at.Add(time.Second)
		s := c.Snapshot()
		if s.ScreenIndex != w.idx || s.Page != w.page {
			t.Fatalf("rotation %d: screen=%d page=%d, want screen=%d page=%d",
				i, s.ScreenIndex, s.Page, w.idx, w.page)
		}
	}
}

func TestRotation_ButtonGuardDrops(t *testing.T) {
	c, _ := newController(t)
	at := time.Unix(1000, 0)

	c.onButton(at) // pages to 1
	// 100ms later, within the 250ms guard: dropped regardless of
	// rotation debounce state.
	c.onRotation(1, at.Add(100*time.Millisecond))

	if s := c.Snapshot(); s.ScreenIndex != 0 || s.Page != 1 {
		t.Fatalf("guarded rotation changed state: %+v", s)
	}
	// After the guard the rotation counts again.
	c.onRotation(1, at.Add(time.Second))
	if s := c.Snapshot(); s.Page != 0 {
		t.Fatalf("post-guard rotation ignored: %+v", s)
	}
}

func TestRotation_CooldownCoalescesBurst(t *testing.T) {
	c, _ := newController(t)
	at := time.Unix(1000, 0)

	// A burst of detents from one physical twist: only the first acts.
	c.onRotation(1, at)
	c.onRotation(1, at.Add(30*time.Millisecond))
	c.onRotation(1, at.Add(90*time.Millisecond))

	if s := c.Snapshot(); s.ScreenIndex != 0 || s.Page != 1 {
		t.Fatalf("burst not coalesced: %+v", s)
	}
}

func TestButton_IndependentOfAlternation(t *testing.T) {
	c, sched := newController(t)
	at := time.Unix(1000, 0)

	// Button pages without consuming the alternation turn.
	c.onButton(at)
	if s := c.Snapshot(); s.Page != 1 {
		t.Fatalf("button did not page: %+v", s)
	}
	// Next accepted rotation still performs the page toggle
	// (alternation bit untouched by the button).
	c.onRotation(1, at.Add(time.Second))
	if s := c.Snapshot(); s.ScreenIndex != 0 || s.Page != 0 {
		t.Fatalf("rotation after button: %+v", s)
	}
	if len(sched.calls) != 0 {
		t.Fatalf("no fetch should have been scheduled, got %v", sched.calls)
	}
}

func TestButton_MinIntervalRejectsDoubleFire(t *testing.T) {
	c, _ := newController(t)
	at := time.Unix(1000, 0)

	c.onButton(at)
	c.onButton(at.Add(50 * time.Millisecond))

	if s := c.Snapshot(); s.Page != 1 {
		t.Fatalf("double-fire paged twice: %+v", s)
	}
}

func TestScreenChange_ForcesFirstPageAndActivatesFetch(t *testing.T) {
	c, sched := newController(t)
	at := time.Unix(1000, 0)

	c.onRotation(1, at)               // page toggle
	c.onRotation(1, at.Add(time.Second)) // screen change

	s := c.Snapshot()
	if s.ScreenIndex != 1 || s.Page != 0 {
		t.Fatalf("after screen change: %+v", s)
	}
	call := sched.last(t)
	if !call.activate || call.screenID != "s1" {
		t.Fatalf("expected Activate(s1), got %+v", call)
	}
	wantDelay := time.Duration(config.Default().Nav.RotateFetchDelayMS) * time.Millisecond
	if call.delay != wantDelay {
		t.Fatalf("delay = %v, want %v", call.delay, wantDelay)
	}

	// Paging afterwards clears force_first_page.
	c.onButton(at.Add(2 * time.Second))
	if s := c.Snapshot(); s.Page != 1 {
		t.Fatalf("page after force-first clear: %+v", s)
	}
}

func TestScreenChange_NegativeDeltaWraps(t *testing.T) {
	c, sched := newController(t)
	at := time.Unix(1000, 0)

	c.onRotation(-1, at)               // page toggle (direction irrelevant)
	c.onRotation(-1, at.Add(time.Second)) // screen change backwards

	s := c.Snapshot()
	if s.ScreenIndex != 2 {
		t.Fatalf("backwards wrap: screen=%d, want 2", s.ScreenIndex)
	}
	if call := sched.last(t); call.screenID != "s2" {
		t.Fatalf("expected Activate(s2), got %+v", call)
	}
}

func TestRun_ConsumesBusEvents(t *testing.T) {
	b := bus.NewBus(16)
	sched := &fakeSched{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(config.Default().Nav, testScreens(), sched, b.NewConnection("nav"), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	// Initial fetch for the first screen.
	deadline := time.Now().Add(time.Second)
	for {
		sched.mu.Lock()
		n := len(sched.calls)
		sched.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("initial fetch never scheduled")
		}
		time.Sleep(5 * time.Millisecond)
	}

	pub := b.NewConnection("test")
	at := time.Unix(2000, 0)
	pub.PublishPayload(input.TopicEvents, types.ButtonPressEvent{At: at})

	deadline = time.Now().Add(time.Second)
	for c.Snapshot().Page != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("button press never applied: %+v", c.Snapshot())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
