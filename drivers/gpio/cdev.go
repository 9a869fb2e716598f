package gpio

import (
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/mkobak/departure-board/errcode"
)

// CdevChip is the production Chip backed by the Linux GPIO character
// device ("gpiochip0" on every Pi).
type CdevChip struct {
	name string
}

func OpenChip(name string) *CdevChip {
	return &CdevChip{name: name}
}

func (c *CdevChip) RequestInput(offset int, pull Pull, edge Edge, handler func(Event)) (Line, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	switch pull {
	case PullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case PullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	}
	if edge != EdgeNone && handler != nil {
		switch edge {
		case EdgeRising:
			opts = append(opts, gpiocdev.WithRisingEdge)
		case EdgeFalling:
			opts = append(opts, gpiocdev.WithFallingEdge)
		default:
			opts = append(opts, gpiocdev.WithBothEdges)
		}
		opts = append(opts, gpiocdev.WithEventHandler(func(ev gpiocdev.LineEvent) {
			handler(Event{
				Offset: ev.Offset,
				Rising: ev.Type == gpiocdev.LineEventRisingEdge,
				Time:   time.Now(),
			})
		}))
	}
	l, err := gpiocdev.RequestLine(c.name, offset, opts...)
	if err != nil {
		return nil, &errcode.E{C: errcode.PinUnavailable, Op: "gpio.RequestInput", Err: err}
	}
	return &cdevLine{l: l}, nil
}

func (c *CdevChip) RequestOutput(offset int, initial bool) (Line, error) {
	v := 0
	if initial {
		v = 1
	}
	l, err := gpiocdev.RequestLine(c.name, offset, gpiocdev.AsOutput(v))
	if err != nil {
		return nil, &errcode.E{C: errcode.PinUnavailable, Op: "gpio.RequestOutput", Err: err}
	}
	return &cdevLine{l: l}, nil
}

func (c *CdevChip) Close() error { return nil }

type cdevLine struct {
	l *gpiocdev.Line
}

func (p *cdevLine) Value() (bool, error) {
	v, err := p.l.Value()
	if err != nil {
		return false, &errcode.E{C: errcode.PinReadFailed, Op: "gpio.Value", Err: err}
	}
	return v != 0, nil
}

func (p *cdevLine) SetValue(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return p.l.SetValue(v)
}

func (p *cdevLine) Close() error { return p.l.Close() }
