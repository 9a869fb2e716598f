// Command encoder-debug prints raw encoder edges, decoded detents and
// debounced button presses. Use it to find the right pins and to check
// whether a rotation needs invert_direction.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkobak/departure-board/drivers/gpio"
	"github.com/mkobak/departure-board/services/input"
)

func main() {
	var (
		chipName = flag.String("chip", "gpiochip0", "GPIO chip name")
		pinCLK   = flag.Int("clk", 17, "CLK line offset")
		pinDT    = flag.Int("dt", 27, "DT line offset")
		pinSW    = flag.Int("sw", 22, "switch line offset")
		mode     = flag.String("mode", "quadrature", "quadrature or directionless")
		invert   = flag.Bool("invert", false, "flip rotation direction")
		debounce = flag.Int("debounce", 4, "pulse debounce ms (directionless)")
	)
	flag.Parse()

	decMode := input.Quadrature
	if *mode == "directionless" {
		decMode = input.Directionless
	}
	dec := input.NewDecoder(input.DecoderConfig{
		Mode:     decMode,
		Debounce: time.Duration(*debounce) * time.Millisecond,
		Invert:   *invert,
	})
	btn := input.NewButton(120 * time.Millisecond)

	chip := gpio.OpenChip(*chipName)
	defer chip.Close()

	events := make(chan gpio.Event, 64)
	push := func(ev gpio.Event) {
		select {
		case events <- ev:
		default:
		}
	}
	lines := map[string]int{"CLK": *pinCLK, "DT": *pinDT, "SW": *pinSW}
	names := map[int]string{}
	levels := map[int]bool{}
	for name, offset := range lines {
		line, err := chip.RequestInput(offset, gpio.PullUp, gpio.EdgeBoth, push)
		if err != nil {
			fmt.Fprintf(os.Stderr, "request %s (offset %d): %v\n", name, offset, err)
			os.Exit(1)
		}
		defer line.Close()
		names[offset] = name
		if v, err := line.Value(); err == nil {
			levels[offset] = v
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("watching CLK=%d DT=%d SW=%d on %s, ctrl-c to quit\n",
		*pinCLK, *pinDT, *pinSW, *chipName)

	for {
		select {
		case <-stop:
			return
		case ev := <-events:
			levels[ev.Offset] = ev.Rising
			name := names[ev.Offset]
			edge := "fall"
			if ev.Rising {
				edge = "rise"
			}
			fmt.Printf("%s  %-3s %s  clk=%v dt=%v sw=%v\n",
				ev.Time.Format("15:04:05.000"), name, edge,
				levels[*pinCLK], levels[*pinDT], levels[*pinSW])

			switch ev.Offset {
			case *pinCLK, *pinDT:
				if d := dec.Sample(levels[*pinCLK], levels[*pinDT], ev.Time); d != 0 {
					dir := "CW  (+1)"
					if d < 0 {
						dir = "CCW (-1)"
					}
					fmt.Printf("    detent %s\n", dir)
				}
			case *pinSW:
				if btn.Sample(ev.Rising, ev.Time) {
					fmt.Println("    button press")
				}
			}
		}
	}
}
