// Package hub75 drives a directly-wired HUB75 RGB matrix by
// bit-banging its shift registers over GPIO. Text is drawn in amber
// (red+green) on black.
package hub75

import (
	"log/slog"
	"time"

	"github.com/mkobak/departure-board/config"
	"github.com/mkobak/departure-board/drivers/gpio"
	"github.com/mkobak/departure-board/errcode"
	"github.com/mkobak/departure-board/types"
	"github.com/mkobak/departure-board/x/mathx"
)

// Per-row dwell while output is enabled. Scaled by brightness.
const rowDwell = 120 * time.Microsecond

type Panel struct {
	cols, rows int
	scan       int // row pairs per scan
	dwell      time.Duration

	r1, g1, b1 gpio.Line
	r2, g2, b2 gpio.Line
	a, b, c    gpio.Line
	d, e       gpio.Line
	clk, lat   gpio.Line
	oe         gpio.Line

	all []gpio.Line
	log *slog.Logger
}

// Open requests every panel line as an output. brightness is a percent
// applied as per-row output-enable dwell.
func Open(chip gpio.Chip, cfg config.HUB75Config, cols, rows, brightness int, log *slog.Logger) (*Panel, error) {
	p := &Panel{
		cols:  cols,
		rows:  rows,
		scan:  rows / 2,
		dwell: rowDwell * time.Duration(mathx.Clamp(brightness, 1, 100)) / 100,
		log:   log.With("driver", "hub75"),
	}

	req := func(dst *gpio.Line, offset int) error {
		line, err := chip.RequestOutput(offset, false)
		if err != nil {
			return err
		}
		*dst = line
		p.all = append(p.all, line)
		return nil
	}

	for _, pin := range []struct {
		dst    *gpio.Line
		offset int
	}{
		{&p.r1, cfg.PinR1}, {&p.g1, cfg.PinG1}, {&p.b1, cfg.PinB1},
		{&p.r2, cfg.PinR2}, {&p.g2, cfg.PinG2}, {&p.b2, cfg.PinB2},
		{&p.a, cfg.PinA}, {&p.b, cfg.PinB}, {&p.c, cfg.PinC},
		{&p.d, cfg.PinD}, {&p.e, cfg.PinE},
		{&p.clk, cfg.PinCLK}, {&p.lat, cfg.PinLAT}, {&p.oe, cfg.PinOE},
	} {
		if err := req(pin.dst, pin.offset); err != nil {
			p.Close()
			return nil, &errcode.E{C: errcode.PanelUnavailable, Op: "hub75.Open", Err: err}
		}
	}

	// Blank until the first frame.
	_ = p.oe.SetValue(true)
	p.log.Info("panel ready", "cols", cols, "rows", rows, "scan", p.scan)
	return p, nil
}

// Present shifts one full scan of the frame's bitmap into the panel.
// Called once per render tick; the row dwell keeps the image visible
// between calls.
func (p *Panel) Present(f *types.Frame) error {
	if f.Bitmap == nil {
		return nil
	}
	bm := f.Bitmap

	for row := 0; row < p.scan; row++ {
		// Blank while shifting and addressing, against ghosting.
		if err := p.oe.SetValue(true); err != nil {
			return err
		}
		if err := p.setAddress(row); err != nil {
			return err
		}

		for x := 0; x < p.cols; x++ {
			top := bm.Get(x, row)
			bottom := bm.Get(x, row+p.scan)
			// Amber: red and green on, blue off.
			_ = p.r1.SetValue(top)
			_ = p.g1.SetValue(top)
			_ = p.b1.SetValue(false)
			_ = p.r2.SetValue(bottom)
			_ = p.g2.SetValue(bottom)
			_ = p.b2.SetValue(false)

			_ = p.clk.SetValue(true)
			_ = p.clk.SetValue(false)
		}

		_ = p.lat.SetValue(true)
		_ = p.lat.SetValue(false)
		if err := p.oe.SetValue(false); err != nil {
			return err
		}
		time.Sleep(p.dwell)
	}
	return p.oe.SetValue(true)
}

func (p *Panel) setAddress(row int) error {
	for i, line := range []gpio.Line{p.a, p.b, p.c, p.d, p.e} {
		if err := line.SetValue(row>>i&1 == 1); err != nil {
			return err
		}
	}
	return nil
}

func (p *Panel) Close() error {
	var firstErr error
	for _, line := range p.all {
		if line == nil {
			continue
		}
		if err := line.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.all = nil
	return firstErr
}
