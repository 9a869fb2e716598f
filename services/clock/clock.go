// Package clock gates fetching on wall-clock plausibility. A Pi
// without an RTC boots near the epoch until NTP catches up, and
// "minutes until departure" computed against a 1970 clock is garbage.
package clock

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkobak/departure-board/bus"
	"github.com/mkobak/departure-board/types"
)

const TopicState = "clock/state"

// minValid is well before any build of this program but well after
// the epoch a cold Pi boots with.
var minValid = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Gate answers "is the wall clock plausible". Zero fields select the
// real clock and the default threshold.
type Gate struct {
	Now      func() time.Time
	MinValid time.Time
}

func (g *Gate) Synced() bool {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	min := g.MinValid
	if min.IsZero() {
		min = minValid
	}
	return now().After(min)
}

// Service watches the gate and publishes a retained state change once
// the clock becomes plausible. It exits after that: a synced clock
// does not go back.
type Service struct {
	gate *Gate
	conn *bus.Connection
	log  *slog.Logger

	pollInterval time.Duration
}

func NewService(gate *Gate, conn *bus.Connection, log *slog.Logger) *Service {
	return &Service{
		gate:         gate,
		conn:         conn,
		log:          log.With("service", "clock"),
		pollInterval: time.Second,
	}
}

func (s *Service) Run(ctx context.Context) error {
	if s.gate.Synced() {
		s.publish(true)
		return nil
	}
	s.publish(false)
	s.log.Info("waiting for wall clock sync")

	tick := time.NewTicker(s.pollInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if s.gate.Synced() {
				s.publish(true)
				s.log.Info("wall clock synced")
				return nil
			}
		}
	}
}

func (s *Service) publish(synced bool) {
	s.conn.PublishRetained(TopicState, types.ClockState{Synced: synced, At: time.Now()})
}
