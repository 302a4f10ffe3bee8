package render

import (
	"fmt"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/screen1d"
	"periph.io/x/host/v3"
)

// StripRefresh is the LED strip refresh rate the SPI clock is derived from.
const StripRefresh = 30

// StripOpts configures OpenStrip.
type StripOpts struct {
	// Port is the spireg name; empty picks the first registered port.
	Port   string
	Pixels int
}

// OpenStrip drives an addressable LED strip over SPI. Without a SPI port it
// falls back to drawing the strip on the console.
func OpenStrip(o StripOpts, log zerolog.Logger) (*DrawerSink, error) {
	if o.Pixels < 1 {
		return nil, fmt.Errorf("strip: need at least one pixel, got %d", o.Pixels)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("strip: host init: %w", err)
	}
	p, err := spireg.Open(o.Port)
	if err != nil {
		log.Warn().Err(err).Msg("no SPI port, drawing strip on the console")
		return NewDrawerSink(screen1d.New(&screen1d.Opts{X: o.Pixels})), nil
	}
	d, err := newStrip(p, o.Pixels)
	if err != nil {
		p.Close()
		return nil, err
	}
	log.Info().Str("port", p.String()).Int("pixels", o.Pixels).Msg("LED strip opened")
	return NewDrawerSink(d), nil
}

func newStrip(p spi.Port, pixels int) (display.Drawer, error) {
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      ((StripRefresh * 3) + 100) * physic.KiloHertz,
	})
	if err != nil {
		return nil, fmt.Errorf("strip: %w", err)
	}
	if err := d.Halt(); err != nil {
		return nil, fmt.Errorf("strip: halt: %w", err)
	}
	return d, nil
}
