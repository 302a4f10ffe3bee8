package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"periph.io/x/conn/v3/display"
)

// Sink receives encoded frames. The image is reused by the renderer, so a
// sink that keeps it past Write must copy it.
type Sink interface {
	Write(frame *image.RGBA) error
	Close() error
}

// SinkFunc adapts a function to a Sink with a no-op Close.
type SinkFunc func(frame *image.RGBA) error

func (f SinkFunc) Write(frame *image.RGBA) error { return f(frame) }
func (f SinkFunc) Close() error                  { return nil }

// Multi fans a frame out to every sink. All sinks are written even when one
// fails; the errors are joined.
type Multi []Sink

func (m Multi) Write(frame *image.RGBA) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PNGSink writes every Nth frame to Dir as frame_000123.png.
type PNGSink struct {
	Dir   string
	Every int

	n uint64
}

func NewPNGSink(dir string, every int) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("png sink: %w", err)
	}
	if every < 1 {
		every = 1
	}
	return &PNGSink{Dir: dir, Every: every}, nil
}

func (p *PNGSink) Write(frame *image.RGBA) error {
	n := p.n
	p.n++
	if n%uint64(p.Every) != 0 {
		return nil
	}
	return WritePNG(filepath.Join(p.Dir, fmt.Sprintf("frame_%06d.png", n)), frame)
}

func (p *PNGSink) Close() error { return nil }

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// DrawerSink scales frames onto a periph display, such as an LED strip or a
// console line.
type DrawerSink struct {
	d      display.Drawer
	scaler draw.Scaler
	dst    *image.RGBA
}

func NewDrawerSink(d display.Drawer) *DrawerSink {
	return &DrawerSink{
		d:      d,
		scaler: draw.ApproxBiLinear,
		dst:    image.NewRGBA(d.Bounds()),
	}
}

func (s *DrawerSink) Write(frame *image.RGBA) error {
	s.scaler.Scale(s.dst, s.dst.Bounds(), frame, frame.Bounds(), draw.Src, nil)
	return s.d.Draw(s.d.Bounds(), s.dst, s.dst.Bounds().Min)
}

// Close blanks the display.
func (s *DrawerSink) Close() error { return s.d.Halt() }

func (s *DrawerSink) String() string { return s.d.String() }
