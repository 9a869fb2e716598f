// Package config loads the board configuration: compiled-in defaults,
// overlaid by an optional TOML file, overlaid by command-line flags
// (applied by the cmd packages).
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/mkobak/departure-board/types"
)

// -----------------------------------------------------------------------------
// Sections
// -----------------------------------------------------------------------------

type Config struct {
	Encoder EncoderConfig  `toml:"encoder"`
	Nav     NavConfig      `toml:"nav"`
	Fetch   FetchConfig    `toml:"fetch"`
	Render  RenderConfig   `toml:"render"`
	Panel   PanelConfig    `toml:"panel"`
	API     APIConfig      `toml:"api"`
	Log     LogConfig      `toml:"log"`
	Screens []ScreenConfig `toml:"screens"`
}

type EncoderConfig struct {
	// "quadrature" (CLK+DT) or "directionless" (single pulse pin).
	Mode string `toml:"mode"`
	Chip string `toml:"chip"`

	PinCLK int `toml:"pin_clk"`
	PinDT  int `toml:"pin_dt"`
	PinSW  int `toml:"pin_sw"`

	DebounceMS       int `toml:"debounce_ms"`
	ButtonDebounceMS int `toml:"button_debounce_ms"`
	// 0 = auto: 1 for directionless, 4 for quadrature.
	StepsPerDetent int `toml:"steps_per_detent"`
	// 0 = edge events; >0 forces a polling loop at this interval.
	PollIntervalMS  int  `toml:"poll_interval_ms"`
	InvertDirection bool `toml:"invert_direction"`
}

type NavConfig struct {
	RotationMinIntervalMS    int `toml:"rotation_min_interval_ms"`
	RotationActionCooldownMS int `toml:"rotation_action_cooldown_ms"`
	ButtonMinIntervalMS      int `toml:"button_min_interval_ms"`
	ButtonRotationGuardMS    int `toml:"button_rotation_guard_ms"`
	RotateFetchDelayMS       int `toml:"rotate_fetch_delay_ms"`
}

type FetchConfig struct {
	RefreshIntervalS int     `toml:"refresh_interval_s"`
	BackoffFloorS    int     `toml:"backoff_floor_s"`
	BackoffCeilingS  int     `toml:"backoff_ceiling_s"`
	BackoffGrowth    float64 `toml:"backoff_growth"`
	TimeoutS         int     `toml:"timeout_s"`
}

type RenderConfig struct {
	FPS  int `toml:"fps"`
	Cols int `toml:"cols"`
	Rows int `toml:"rows"`
}

type PanelConfig struct {
	// "hub75", "oled" or "console".
	Driver     string `toml:"driver"`
	Brightness int    `toml:"brightness"` // percent, HUB75 only

	HUB75 HUB75Config `toml:"hub75"`
	OLED  OLEDConfig  `toml:"oled"`
}

// HUB75Config holds the line offsets of a directly-wired HUB75 panel.
type HUB75Config struct {
	Chip string `toml:"chip"`

	PinR1 int `toml:"pin_r1"`
	PinG1 int `toml:"pin_g1"`
	PinB1 int `toml:"pin_b1"`
	PinR2 int `toml:"pin_r2"`
	PinG2 int `toml:"pin_g2"`
	PinB2 int `toml:"pin_b2"`

	PinA int `toml:"pin_a"`
	PinB int `toml:"pin_b"`
	PinC int `toml:"pin_c"`
	PinD int `toml:"pin_d"`
	PinE int `toml:"pin_e"`

	PinCLK int `toml:"pin_clk"`
	PinLAT int `toml:"pin_lat"`
	PinOE  int `toml:"pin_oe"`
}

type OLEDConfig struct {
	Bus string `toml:"bus"` // e.g. "1" or "/dev/i2c-1"
}

type APIConfig struct {
	StationboardURL string `toml:"stationboard_url"`
	ForecastURL     string `toml:"forecast_url"`
}

type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
	File  string `toml:"file"`  // empty = stdout only
}

type ScreenConfig struct {
	Type        string   `toml:"type"` // "stop" or "weather"
	Stop        string   `toml:"stop"`
	Destination string   `toml:"destination"`
	Transports  []string `toml:"transports"`
	Limit       int      `toml:"limit"`

	City      string  `toml:"city"`
	Latitude  float64 `toml:"latitude"`
	Longitude float64 `toml:"longitude"`
}

// -----------------------------------------------------------------------------
// Defaults & loading
// -----------------------------------------------------------------------------

// Default returns the compiled-in configuration: the tram stop the
// board was built for, on a 128x64 HUB75 panel.
func Default() Config {
	return Config{
		Encoder: EncoderConfig{
			Mode:             "quadrature",
			Chip:             "gpiochip0",
			PinCLK:           17,
			PinDT:            27,
			PinSW:            22,
			DebounceMS:       4,
			ButtonDebounceMS: 120,
		},
		Nav: NavConfig{
			RotationMinIntervalMS:    60,
			RotationActionCooldownMS: 180,
			ButtonMinIntervalMS:      200,
			ButtonRotationGuardMS:    250,
			RotateFetchDelayMS:       400,
		},
		Fetch: FetchConfig{
			RefreshIntervalS: 30,
			BackoffFloorS:    5,
			BackoffCeilingS:  60,
			BackoffGrowth:    1.5,
			TimeoutS:         10,
		},
		Render: RenderConfig{
			FPS:  30,
			Cols: 128,
			Rows: 64,
		},
		Panel: PanelConfig{
			Driver:     "hub75",
			Brightness: 40,
			HUB75: HUB75Config{
				Chip:  "gpiochip0",
				PinR1: 5, PinG1: 13, PinB1: 6,
				PinR2: 12, PinG2: 16, PinB2: 23,
				PinA: 24, PinB: 25, PinC: 8, PinD: 7, PinE: 20,
				PinCLK: 11, PinLAT: 4, PinOE: 18,
			},
			OLED: OLEDConfig{Bus: "1"},
		},
		API: APIConfig{
			StationboardURL: "https://transport.opendata.ch/v1/stationboard",
			ForecastURL:     "https://api.open-meteo.com/v1/forecast",
		},
		Log: LogConfig{Level: "info"},
		Screens: []ScreenConfig{
			{Type: "stop", Stop: "Basel, Aeschenplatz", Transports: []string{"tram"}, Limit: 4},
		},
	}
}

// Load overlays the TOML file at path onto the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	// A file that names screens replaces the default screen list.
	var probe struct {
		Screens []ScreenConfig `toml:"screens"`
	}
	if _, err := toml.Decode(string(raw), &probe); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if len(probe.Screens) > 0 {
		cfg.Screens = nil
	}
	if _, err := toml.Decode(string(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// -----------------------------------------------------------------------------
// Validation & conversion
// -----------------------------------------------------------------------------

func (c *Config) Validate() error {
	switch c.Encoder.Mode {
	case "quadrature", "directionless":
	default:
		return fmt.Errorf("encoder.mode %q: want quadrature or directionless", c.Encoder.Mode)
	}
	switch c.Panel.Driver {
	case "hub75", "oled", "console":
	default:
		return fmt.Errorf("panel.driver %q: want hub75, oled or console", c.Panel.Driver)
	}
	if c.Render.Cols <= 0 || c.Render.Rows <= 0 {
		return errors.New("render.cols and render.rows must be positive")
	}
	if c.Render.FPS <= 0 {
		return errors.New("render.fps must be positive")
	}
	if c.Fetch.BackoffGrowth < 1 {
		return errors.New("fetch.backoff_growth must be >= 1")
	}
	if len(c.Screens) == 0 {
		return errors.New("at least one screen must be configured")
	}
	for i, s := range c.Screens {
		switch s.Type {
		case "stop":
			if s.Stop == "" {
				return fmt.Errorf("screens[%d]: stop name required", i)
			}
		case "weather":
			if s.City == "" {
				return fmt.Errorf("screens[%d]: city required", i)
			}
		default:
			return fmt.Errorf("screens[%d]: type %q: want stop or weather", i, s.Type)
		}
	}
	return nil
}

// ScreenList converts the configured screens to their runtime form.
// IDs are "s0", "s1", ... in cycle order.
func (c *Config) ScreenList() []types.Screen {
	out := make([]types.Screen, 0, len(c.Screens))
	for i, s := range c.Screens {
		sc := types.Screen{ID: fmt.Sprintf("s%d", i)}
		switch s.Type {
		case "stop":
			limit := s.Limit
			if limit <= 0 {
				limit = 4
			}
			sc.Kind = types.ScreenStop
			sc.Stop = &types.StopScreen{
				Stop:        s.Stop,
				Destination: s.Destination,
				Transports:  s.Transports,
				Limit:       limit,
			}
		case "weather":
			sc.Kind = types.ScreenWeather
			sc.Weather = &types.WeatherScreen{
				City:      s.City,
				Latitude:  s.Latitude,
				Longitude: s.Longitude,
			}
		}
		out = append(out, sc)
	}
	return out
}

// StepsPerDetent resolves the auto default: one pulse per detent on a
// directionless encoder, four quadrature steps per detent otherwise.
func (e EncoderConfig) StepsPerDetentValue() int {
	if e.StepsPerDetent > 0 {
		return e.StepsPerDetent
	}
	if e.Mode == "directionless" {
		return 1
	}
	return 4
}
