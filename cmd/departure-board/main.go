// Command departure-board runs the full board: rotary encoder input,
// departure and weather fetching, and the render loop driving the
// configured display.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mkobak/departure-board/bus"
	"github.com/mkobak/departure-board/clients/opendata"
	"github.com/mkobak/departure-board/clients/openmeteo"
	"github.com/mkobak/departure-board/config"
	"github.com/mkobak/departure-board/drivers/console"
	"github.com/mkobak/departure-board/drivers/gpio"
	"github.com/mkobak/departure-board/drivers/hub75"
	"github.com/mkobak/departure-board/drivers/oled"
	"github.com/mkobak/departure-board/services/clock"
	"github.com/mkobak/departure-board/services/fetch"
	"github.com/mkobak/departure-board/services/input"
	"github.com/mkobak/departure-board/services/nav"
	"github.com/mkobak/departure-board/services/render"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to TOML config file")
		stop       = flag.String("stop", "", "override: single stop screen for this station")
		dest       = flag.String("dest", "", "override: only departures towards this destination")
		limit      = flag.Int("limit", 0, "override: departures per stop screen")
		refresh    = flag.Int("refresh", 0, "override: refresh interval in seconds")
		driver     = flag.String("driver", "", "override: panel driver (hub75, oled, console)")
		brightness = flag.Int("brightness", 0, "override: HUB75 brightness percent")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *stop != "" {
		cfg.Screens = []config.ScreenConfig{{
			Type:        "stop",
			Stop:        *stop,
			Destination: *dest,
			Limit:       *limit,
		}}
	}
	if *limit > 0 && len(cfg.Screens) == 1 && cfg.Screens[0].Type == "stop" {
		cfg.Screens[0].Limit = *limit
	}
	if *refresh > 0 {
		cfg.Fetch.RefreshIntervalS = *refresh
	}
	if *driver != "" {
		cfg.Panel.Driver = *driver
	}
	if *brightness > 0 {
		cfg.Panel.Brightness = *brightness
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, logClose, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logClose()

	if err := run(cfg, log); err != nil {
		log.Error("exit", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b := bus.NewBus(16)
	screens := cfg.ScreenList()
	timeout := time.Duration(cfg.Fetch.TimeoutS) * time.Second

	clients := fetch.Clients{
		Departures: opendata.New(cfg.API.StationboardURL, timeout, log),
		Weather:    openmeteo.New(cfg.API.ForecastURL, timeout, log),
	}
	gate := &clock.Gate{}

	sched := fetch.NewScheduler(cfg.Fetch, screens, clients, gate, b.NewConnection("fetch"), log)
	navCtl := nav.New(cfg.Nav, screens, sched, b.NewConnection("nav"), log)
	clockSvc := clock.NewService(gate, b.NewConnection("clock"), log)

	encChip := gpio.OpenChip(cfg.Encoder.Chip)
	defer encChip.Close()
	inputSvc := input.New(cfg.Encoder, encChip, b.NewConnection("input"), log)

	sink, sinkCleanup := openSink(cfg, log)
	defer sinkCleanup()
	loop := render.NewLoop(cfg.Render, navCtl, sched, sink, log)

	var wg sync.WaitGroup
	for name, svc := range map[string]interface {
		Run(context.Context) error
	}{
		"clock": clockSvc,
		"input": inputSvc,
		"nav":   navCtl,
		"fetch": sched,
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Run(ctx); err != nil {
				log.Error("service stopped", "service", name, "err", err)
				cancel()
			}
		}()
	}

	log.Info("board up",
		"screens", len(screens),
		"driver", cfg.Panel.Driver,
		"fps", cfg.Render.FPS)

	err := loop.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// openSink opens the configured panel, falling back to the console when
// the hardware is unavailable. The board should still show departures
// in a terminal on a dev machine.
func openSink(cfg config.Config, log *slog.Logger) (render.Sink, func()) {
	switch cfg.Panel.Driver {
	case "hub75":
		chip := gpio.OpenChip(cfg.Panel.HUB75.Chip)
		panel, err := hub75.Open(chip, cfg.Panel.HUB75, cfg.Render.Cols, cfg.Render.Rows, cfg.Panel.Brightness, log)
		if err != nil {
			log.Warn("hub75 unavailable, falling back to console", "err", err)
			chip.Close()
			break
		}
		return panel, func() { chip.Close() }
	case "oled":
		disp, err := oled.Open(cfg.Panel.OLED, cfg.Render.Cols, cfg.Render.Rows, log)
		if err != nil {
			log.Warn("oled unavailable, falling back to console", "err", err)
			break
		}
		return disp, func() {}
	}
	return console.New(os.Stdout), func() {}
}

func newLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("log.level %q: %w", cfg.Level, err)
	}

	var w io.Writer = os.Stdout
	cleanup := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("log.file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		cleanup = func() { f.Close() }
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), cleanup, nil
}
