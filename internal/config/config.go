// Package config is the YAML configuration of the nightdrive service.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/nightdrive/internal/choreo"
	"github.com/coreman2200/nightdrive/internal/keyframe"
	"github.com/coreman2200/nightdrive/internal/render"
)

var ErrInvalid = errors.New("invalid config")

type Models struct {
	Car    string `yaml:"car,omitempty"`
	Police string `yaml:"police,omitempty"`
}

// ByTarget maps the vehicle models to their keyframe targets.
func (m Models) ByTarget() map[keyframe.Target]string {
	return map[keyframe.Target]string{
		keyframe.Car:    m.Car,
		keyframe.Police: m.Police,
	}
}

type Sinks struct {
	PNGDir   string `yaml:"png_dir,omitempty"`
	PNGEvery int    `yaml:"png_every,omitempty"`
	// Strip drives an LED strip over SPI (console fallback without one).
	Strip       bool   `yaml:"strip,omitempty"`
	StripPort   string `yaml:"strip_port,omitempty"`
	StripPixels int    `yaml:"strip_pixels,omitempty"`
	// FrameEveryMS throttles frames pushed to websocket clients.
	FrameEveryMS int `yaml:"frame_every_ms,omitempty"`
}

type Config struct {
	FPS                int     `yaml:"fps"`
	MaxDeltaS          float64 `yaml:"max_delta_s"`
	ForwardMultiplier  float64 `yaml:"forward_multiplier"`
	BackwardMultiplier float64 `yaml:"backward_multiplier"`

	Viewport render.Viewport      `yaml:"viewport"`
	Camera   choreo.CameraOptions `yaml:"camera"`
	Post     render.Post          `yaml:"post"`

	AssetsDir string `yaml:"assets_dir,omitempty"`
	// Keyframes is an optional keyframes.v1 file; the built-in tables are
	// used without one.
	Keyframes string `yaml:"keyframes,omitempty"`
	Models    Models `yaml:"models"`
	Marker    bool   `yaml:"marker,omitempty"`

	Listen   string `yaml:"listen"`
	Sinks    Sinks  `yaml:"sinks"`
	LogLevel string `yaml:"log_level"`
	Seed     int64  `yaml:"seed"`
}

func Default() *Config {
	p := choreo.DefaultPolicy()
	return &Config{
		FPS:                60,
		MaxDeltaS:          2,
		ForwardMultiplier:  p.Forward,
		BackwardMultiplier: p.Backward,
		Viewport:           render.Viewport{Width: 1280, Height: 720, PixelRatio: 1},
		Camera:             choreo.DefaultCamera(),
		Post:               render.DefaultPost(),
		AssetsDir:          "public",
		Models: Models{
			Car:    "models/car.glb",
			Police: "models/police.glb",
		},
		Listen: ":8080",
		Sinks: Sinks{
			PNGEvery:     60,
			StripPixels:  144,
			FrameEveryMS: 100,
		},
		LogLevel: "info",
		Seed:     1,
	}
}

// Load reads path over the defaults, so a partial file only overrides what
// it names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalid, c.FPS)
	case c.MaxDeltaS <= 0:
		return fmt.Errorf("%w: max_delta_s must be positive", ErrInvalid)
	case c.ForwardMultiplier <= 0 || c.BackwardMultiplier <= 0:
		return fmt.Errorf("%w: multipliers must be positive", ErrInvalid)
	case c.Camera.FOV <= 0 || c.Camera.FOV >= 180:
		return fmt.Errorf("%w: camera fov %g out of (0,180)", ErrInvalid, c.Camera.FOV)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("%w: camera needs 0 < near < far", ErrInvalid)
	case c.Sinks.Strip && c.Sinks.StripPixels <= 0:
		return fmt.Errorf("%w: strip_pixels must be positive", ErrInvalid)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	return nil
}

func (c *Config) Policy() choreo.Policy {
	return choreo.Policy{Forward: c.ForwardMultiplier, Backward: c.BackwardMultiplier}
}

// Level is the parsed log level, info when unset.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return l
}

// LoadKeyframes returns the configured tables, or the built-in ones.
func (c *Config) LoadKeyframes() (keyframe.Set, error) {
	if c.Keyframes == "" {
		return keyframe.Default(), nil
	}
	return keyframe.Load(c.Keyframes)
}
