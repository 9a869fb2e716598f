// Package console prints frames as text. It is the fallback sink when
// no panel hardware is available, and handy during development.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mkobak/departure-board/types"
)

type Sink struct {
	mu   sync.Mutex
	w    io.Writer
	last string
}

func New(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Present writes the frame as text. Identical consecutive frames are
// skipped so a 30 fps loop does not flood the terminal.
func (s *Sink) Present(f *types.Frame) error {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s  %s ==\n", f.Header, f.Clock)
	switch {
	case f.Empty:
		b.WriteString("(no data)\n")
	case f.Weather != nil:
		fmt.Fprintf(&b, "%d C  %s\n", int(f.Weather.TemperatureC+0.5), f.Weather.Description)
		fmt.Fprintf(&b, "WIND %d KM/H\n", int(f.Weather.WindSpeedKMH+0.5))
	default:
		for _, row := range f.Rows {
			fmt.Fprintf(&b, "%-4s %-18s %3d'\n", row.Ident, row.Destination, row.Minutes)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := b.String()
	if out == s.last {
		return nil
	}
	s.last = out
	_, err := io.WriteString(s.w, out)
	return err
}

func (s *Sink) Close() error { return nil }
