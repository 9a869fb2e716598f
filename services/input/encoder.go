// Package input samples the rotary encoder and its push button and
// publishes detents and presses on the bus.
package input

import "time"

// Mode selects how rotation pulses are interpreted.
type Mode uint8

const (
	// Quadrature decodes direction from the CLK/DT Gray code.
	Quadrature Mode = iota
	// Directionless counts pulses on a single pin; every detent is
	// reported as forward.
	Directionless
)

// DecoderConfig tunes a Decoder.
type DecoderConfig struct {
	Mode Mode
	// Quadrature steps (or pulses) per physical detent.
	// <=0 selects the per-mode default: 4 quadrature steps, 1 pulse.
	StepsPerDetent int
	// Minimum spacing between accepted pulses in directionless mode.
	Debounce time.Duration
	// Invert flips the sign of emitted detents.
	Invert bool
}

// quadStep maps (previous<<2)|current Gray state to a movement step.
// Unlisted entries are either "no transition" (same state) or invalid
// two-bit jumps, which the caller treats as noise.
var quadStep = [16]int8{
	0b0001: +1, 0b0111: +1, 0b1110: +1, 0b1000: +1,
	0b0100: -1, 0b1101: -1, 0b1011: -1, 0b0010: -1,
}

// Decoder accumulates raw CLK/DT samples into whole detents. It is not
// safe for concurrent use; the input service owns it from one
// goroutine.
type Decoder struct {
	mode     Mode
	steps    int
	debounce time.Duration
	invert   bool

	movement  int
	state     uint8 // (clk<<1)|dt
	haveState bool

	lastCLK   bool
	haveCLK   bool
	lastPulse time.Time
}

func NewDecoder(cfg DecoderConfig) *Decoder {
	steps := cfg.StepsPerDetent
	if steps <= 0 {
		if cfg.Mode == Directionless {
			steps = 1
		} else {
			steps = 4
		}
	}
	return &Decoder{
		mode:     cfg.Mode,
		steps:    steps,
		debounce: cfg.Debounce,
		invert:   cfg.Invert,
	}
}

// Sample feeds one observation of the CLK and DT levels (DT is ignored
// in directionless mode). It returns +1 or -1 when accumulated
// movement crosses a detent boundary, 0 otherwise.
func (d *Decoder) Sample(clk, dt bool, now time.Time) int {
	if d.mode == Directionless {
		return d.samplePulse(clk, now)
	}
	return d.sampleQuadrature(clk, dt)
}

func (d *Decoder) sampleQuadrature(clk, dt bool) int {
	next := encode(clk, dt)
	if !d.haveState {
		d.state, d.haveState = next, true
		return 0
	}
	prev := d.state
	if next == prev {
		return 0
	}
	d.state = next

	step := quadStep[prev<<2|next]
	if step == 0 {
		// Both bits flipped between samples: contact bounce or a
		// missed sample. Resync rather than guess a direction.
		d.movement = 0
		return 0
	}
	d.movement += int(step)

	if d.movement >= d.steps {
		d.movement = 0
		return d.sign(+1)
	}
	if d.movement <= -d.steps {
		d.movement = 0
		return d.sign(-1)
	}
	return 0
}

func (d *Decoder) samplePulse(clk bool, now time.Time) int {
	if !d.haveCLK {
		d.lastCLK, d.haveCLK = clk, true
		return 0
	}
	rising := !d.lastCLK && clk
	d.lastCLK = clk
	if !rising {
		return 0
	}
	if d.debounce > 0 && !d.lastPulse.IsZero() && now.Sub(d.lastPulse) < d.debounce {
		return 0
	}
	d.lastPulse = now

	d.movement++
	if d.movement >= d.steps {
		d.movement = 0
		return d.sign(+1)
	}
	return 0
}

func (d *Decoder) sign(delta int) int {
	if d.invert {
		return -delta
	}
	return delta
}

func encode(clk, dt bool) uint8 {
	var s uint8
	if clk {
		s |= 0b10
	}
	if dt {
		s |= 0b01
	}
	return s
}
