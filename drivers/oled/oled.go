// Package oled presents frames on an SSD1306 I2C display, the small
// fallback panel for desk use.
package oled

import (
	"image"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/mkobak/departure-board/config"
	"github.com/mkobak/departure-board/errcode"
	"github.com/mkobak/departure-board/types"
)

type Display struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
	img *image1bit.VerticalLSB
	log *slog.Logger
}

func Open(cfg config.OLEDConfig, cols, rows int, log *slog.Logger) (*Display, error) {
	if _, err := host.Init(); err != nil {
		return nil, &errcode.E{C: errcode.PanelUnavailable, Op: "oled.Open", Err: err}
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, &errcode.E{C: errcode.PanelUnavailable, Op: "oled.Open", Err: err}
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.Opts{W: cols, H: rows})
	if err != nil {
		bus.Close()
		return nil, &errcode.E{C: errcode.PanelUnavailable, Op: "oled.Open", Err: err}
	}
	d := &Display{
		bus: bus,
		dev: dev,
		img: image1bit.NewVerticalLSB(image.Rect(0, 0, cols, rows)),
		log: log.With("driver", "oled"),
	}
	d.log.Info("display ready", "bus", cfg.Bus, "cols", cols, "rows", rows)
	return d, nil
}

func (d *Display) Present(f *types.Frame) error {
	if f.Bitmap == nil {
		return nil
	}
	bounds := d.img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d.img.SetBit(x, y, image1bit.Bit(f.Bitmap.Get(x, y)))
		}
	}
	if err := d.dev.Draw(bounds, d.img, image.Point{}); err != nil {
		return &errcode.E{C: errcode.PanelUnavailable, Op: "oled.Present", Err: err}
	}
	return nil
}

func (d *Display) Close() error {
	if err := d.dev.Halt(); err != nil {
		d.bus.Close()
		return err
	}
	return d.bus.Close()
}
