// Command panel-fill lights every pixel of the panel for a few
// seconds. A quick smoke test for the wiring and the power budget.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mkobak/departure-board/config"
	"github.com/mkobak/departure-board/drivers/gpio"
	"github.com/mkobak/departure-board/drivers/hub75"
	"github.com/mkobak/departure-board/types"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to TOML config file")
		brightness = flag.Int("brightness", 0, "override: brightness percent")
		seconds    = flag.Int("seconds", 5, "how long to hold the fill")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *brightness > 0 {
		cfg.Panel.Brightness = *brightness
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	chip := gpio.OpenChip(cfg.Panel.HUB75.Chip)
	defer chip.Close()

	panel, err := hub75.Open(chip, cfg.Panel.HUB75, cfg.Render.Cols, cfg.Render.Rows, cfg.Panel.Brightness, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer panel.Close()

	bm := types.NewBitmap(cfg.Render.Cols, cfg.Render.Rows)
	for y := 0; y < bm.H; y++ {
		for x := 0; x < bm.W; x++ {
			bm.Set(x, y, true)
		}
	}
	frame := &types.Frame{Bitmap: bm}

	deadline := time.Now().Add(time.Duration(*seconds) * time.Second)
	for time.Now().Before(deadline) {
		if err := panel.Present(frame); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
