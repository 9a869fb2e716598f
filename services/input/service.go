package input

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/atomic"

	"github.com/mkobak/departure-board/bus"
	"github.com/mkobak/departure-board/config"
	"github.com/mkobak/departure-board/drivers/gpio"
	"github.com/mkobak/departure-board/types"
)

const (
	TopicEvents = "input/events"
	TopicState  = "input/state"
)

type lineKind uint8

const (
	lineCLK lineKind = iota
	lineDT
	lineSW
)

// lineEvent is delivered from an edge handler to the service loop.
// Handlers must never block, so the queue send is non-blocking.
type lineEvent struct {
	kind  lineKind
	level bool
	at    time.Time
}

// Service owns the encoder lines and is the single writer of
// "input/events". One goroutine consumes edge events (or polls), runs
// the decoder and debouncer, and publishes detents and presses in
// arrival order.
type Service struct {
	cfg  config.EncoderConfig
	chip gpio.Chip
	conn *bus.Connection
	log  *slog.Logger

	dec *Decoder
	btn *Button

	evQ   chan lineEvent
	drops atomic.Uint32

	clk, dt, sw bool // last known levels

	lines []gpio.Line
}

func New(cfg config.EncoderConfig, chip gpio.Chip, conn *bus.Connection, log *slog.Logger) *Service {
	mode := Quadrature
	if cfg.Mode == "directionless" {
		mode = Directionless
	}
	return &Service{
		cfg:  cfg,
		chip: chip,
		conn: conn,
		log:  log.With("service", "input"),
		dec: NewDecoder(DecoderConfig{
			Mode:           mode,
			StepsPerDetent: cfg.StepsPerDetentValue(),
			Debounce:       time.Duration(cfg.DebounceMS) * time.Millisecond,
			Invert:         cfg.InvertDirection,
		}),
		btn: NewButton(time.Duration(cfg.ButtonDebounceMS) * time.Millisecond),
		evQ: make(chan lineEvent, 64),
	}
}

// Run requests the GPIO lines and processes input until ctx is done.
// If the hardware is absent the service reports that on "input/state"
// and returns nil: the board keeps running without controls.
func (s *Service) Run(ctx context.Context) error {
	defer s.closeLines()
	defer func() {
		if n := s.Drops(); n > 0 {
			s.log.Warn("edge events dropped", "count", n)
		}
	}()

	if err := s.request(); err != nil {
		s.log.Warn("encoder unavailable, running without controls", "err", err)
		s.conn.PublishRetained(TopicState, types.InputState{Available: false, Reason: err.Error()})
		return nil
	}
	s.conn.PublishRetained(TopicState, types.InputState{Available: true})
	s.log.Info("encoder ready",
		"mode", s.cfg.Mode, "clk", s.cfg.PinCLK, "dt", s.cfg.PinDT, "sw", s.cfg.PinSW,
		"polling", s.cfg.PollIntervalMS > 0)

	// Prime the decoders with the idle levels read at request() so the
	// first real edge counts as a transition, not as initialization.
	now := time.Now()
	s.dec.Sample(s.clk, s.dt, now)
	s.btn.Sample(s.sw, now)

	if s.cfg.PollIntervalMS > 0 {
		return s.pollLoop(ctx)
	}
	return s.eventLoop(ctx)
}

// Drops reports how many edge events were discarded because the queue
// was full.
func (s *Service) Drops() uint32 { return s.drops.Load() }

func (s *Service) request() error {
	polling := s.cfg.PollIntervalMS > 0

	req := func(offset int, kind lineKind) error {
		var handler func(gpio.Event)
		edge := gpio.EdgeNone
		if !polling {
			edge = gpio.EdgeBoth
			handler = func(ev gpio.Event) {
				// Called from the event reader; must not block.
				select {
				case s.evQ <- lineEvent{kind: kind, level: ev.Rising, at: ev.Time}:
				default:
					s.drops.Inc()
				}
			}
		}
		line, err := s.chip.RequestInput(offset, gpio.PullUp, edge, handler)
		if err != nil {
			return err
		}
		s.lines = append(s.lines, line)
		if v, err := line.Value(); err == nil {
			s.setLevel(kind, v)
		} else {
			s.setLevel(kind, true) // idle high under pull-up
		}
		return nil
	}

	if err := req(s.cfg.PinCLK, lineCLK); err != nil {
		return err
	}
	if s.cfg.Mode != "directionless" {
		if err := req(s.cfg.PinDT, lineDT); err != nil {
			return err
		}
	}
	return req(s.cfg.PinSW, lineSW)
}

func (s *Service) eventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.evQ:
			s.apply(ev.kind, ev.level, ev.at)
		}
	}
}

func (s *Service) pollLoop(ctx context.Context) error {
	tick := time.NewTicker(time.Duration(s.cfg.PollIntervalMS) * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			now := time.Now()
			for i, kind := range s.lineKinds() {
				v, err := s.lines[i].Value()
				if err != nil {
					s.log.Debug("line read failed", "kind", int(kind), "err", err)
					continue
				}
				s.apply(kind, v, now)
			}
		}
	}
}

func (s *Service) lineKinds() []lineKind {
	if s.cfg.Mode == "directionless" {
		return []lineKind{lineCLK, lineSW}
	}
	return []lineKind{lineCLK, lineDT, lineSW}
}

// apply updates the tracked level for one line and runs the decoders.
// All calls happen on the service goroutine, which keeps rotation and
// button events strictly ordered.
func (s *Service) apply(kind lineKind, level bool, now time.Time) {
	s.setLevel(kind, level)

	if kind == lineSW {
		if s.btn.Sample(level, now) {
			s.conn.PublishPayload(TopicEvents, types.ButtonPressEvent{At: now})
		}
		return
	}
	if delta := s.dec.Sample(s.clk, s.dt, now); delta != 0 {
		s.conn.PublishPayload(TopicEvents, types.RotationEvent{Delta: delta, At: now})
	}
}

func (s *Service) setLevel(kind lineKind, level bool) {
	switch kind {
	case lineCLK:
		s.clk = level
	case lineDT:
		s.dt = level
	case lineSW:
		s.sw = level
	}
}

func (s *Service) closeLines() {
	for _, l := range s.lines {
		_ = l.Close()
	}
	s.lines = nil
}
