// Package nav owns which screen and page the board shows. A single
// goroutine consumes input events from the bus and mutates the
// navigation state; everyone else reads atomic snapshots.
package nav

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/atomic"

	"github.com/mkobak/departure-board/bus"
	"github.com/mkobak/departure-board/config"
	"github.com/mkobak/departure-board/services/input"
	"github.com/mkobak/departure-board/types"
)

const TopicState = "nav/state"

// Scheduler is the slice of the fetch scheduler the controller needs.
type Scheduler interface {
	// Schedule requests a fetch for the screen no later than delay
	// from now (earlier wins if one is already pending).
	Schedule(screenID string, delay time.Duration)
	// Activate clears the screen's cache and schedules a fetch, used
	// when the user switches to it.
	Activate(screenID string, delay time.Duration)
}

// Snapshot is the render loop's view of the navigation state. Page is
// the effective page: 0 while the screen was just switched to.
type Snapshot struct {
	Screen      types.Screen
	ScreenIndex int
	Page        int
}

type Controller struct {
	conn    *bus.Connection
	cfg     config.NavConfig
	screens []types.Screen
	sched   Scheduler
	log     *slog.Logger

	snap atomic.Pointer[Snapshot]

	// Everything below is owned by the Run goroutine.
	idx        int
	page       int
	forceFirst bool
	altBit     uint8

	lastButton       time.Time // any press, accepted or not
	lastButtonAction time.Time
	lastRotAccept    time.Time
	lastRotAction    time.Time
}

func New(cfg config.NavConfig, screens []types.Screen, sched Scheduler, conn *bus.Connection, log *slog.Logger) *Controller {
	c := &Controller{
		conn:    conn,
		cfg:     cfg,
		screens: screens,
		sched:   sched,
		log:     log.With("service", "nav"),
	}
	c.storeSnapshot()
	return c
}

// Run consumes input events until ctx is done. It also kicks off the
// first fetch for the initial screen.
func (c *Controller) Run(ctx context.Context) error {
	sub := c.conn.Subscribe(input.TopicEvents)
	defer sub.Unsubscribe()

	c.publishState()
	c.sched.Schedule(c.screens[c.idx].ID, 0)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			switch ev := msg.Payload.(type) {
			case types.RotationEvent:
				c.onRotation(ev.Delta, ev.At)
			case types.ButtonPressEvent:
				c.onButton(ev.At)
			}
		}
	}
}

// Snapshot returns the current navigation state. Never nil.
func (c *Controller) Snapshot() Snapshot { return *c.snap.Load() }

// onRotation applies the three-level filter and then either pages or
// switches screens, strictly alternating between the two.
func (c *Controller) onRotation(delta int, at time.Time) {
	guard := time.Duration(c.cfg.ButtonRotationGuardMS) * time.Millisecond
	if !c.lastButton.IsZero() && at.Sub(c.lastButton) < guard {
		// Mechanical jitter from the click, not a twist.
		return
	}
	minIv := time.Duration(c.cfg.RotationMinIntervalMS) * time.Millisecond
	if !c.lastRotAccept.IsZero() && at.Sub(c.lastRotAccept) < minIv {
		return
	}
	cooldown := time.Duration(c.cfg.RotationActionCooldownMS) * time.Millisecond
	if !c.lastRotAction.IsZero() && at.Sub(c.lastRotAction) < cooldown {
		return
	}
	c.lastRotAccept, c.lastRotAction = at, at

	if c.altBit == 0 {
		c.togglePage()
	} else {
		c.changeScreen(delta)
	}
	c.altBit ^= 1
	c.publishState()
}

// onButton always records the press time (the rotation guard must see
// double-fires too), then pages unless pressed again too soon.
func (c *Controller) onButton(at time.Time) {
	c.lastButton = at

	minIv := time.Duration(c.cfg.ButtonMinIntervalMS) * time.Millisecond
	if !c.lastButtonAction.IsZero() && at.Sub(c.lastButtonAction) < minIv {
		return
	}
	c.lastButtonAction = at

	c.togglePage()
	c.publishState()
}

func (c *Controller) togglePage() {
	c.page ^= 1
	c.forceFirst = false
	c.log.Debug("page toggled", "screen", c.screens[c.idx].ID, "page", c.page)
}

func (c *Controller) changeScreen(delta int) {
	n := len(c.screens)
	step := 1
	if delta < 0 {
		step = n - 1
	}
	c.idx = (c.idx + step) % n
	c.page = 0
	c.forceFirst = true

	id := c.screens[c.idx].ID
	delay := time.Duration(c.cfg.RotateFetchDelayMS) * time.Millisecond
	c.sched.Activate(id, delay)
	c.log.Info("screen switched", "screen", id)
}

func (c *Controller) storeSnapshot() {
	page := c.page
	if c.forceFirst {
		page = 0
	}
	c.snap.Store(&Snapshot{
		Screen:      c.screens[c.idx],
		ScreenIndex: c.idx,
		Page:        page,
	})
}

func (c *Controller) publishState() {
	c.storeSnapshot()
	s := c.snap.Load()
	c.conn.PublishRetained(TopicState, types.NavState{ScreenID: s.Screen.ID, Page: s.Page})
}
