// Package keyframe holds the authored per-slide poses for every animated
// target in the night-drive scene.
package keyframe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/coreman2200/nightdrive/internal/ease"
)

// ErrMisaligned is returned when tables in a Set disagree on slide count.
var ErrMisaligned = errors.New("keyframe tables misaligned")

// Target names an animated member of the scene.
type Target int

const (
	Camera Target = iota
	Car
	Police

	TargetCount
)

var targetNames = [TargetCount]string{"camera", "car", "police"}

func (t Target) String() string {
	if t < 0 || t >= TargetCount {
		return fmt.Sprintf("target(%d)", int(t))
	}
	return targetNames[t]
}

// ParseTarget is the inverse of String.
func ParseTarget(s string) (Target, error) {
	for i, n := range targetNames {
		if strings.EqualFold(n, s) {
			return Target(i), nil
		}
	}
	return 0, fmt.Errorf("unknown target %q", s)
}

// Targets lists every target in declaration order.
func Targets() []Target {
	out := make([]Target, TargetCount)
	for i := range out {
		out[i] = Target(i)
	}
	return out
}

// Timing shapes one tween: seconds of travel, seconds of wait before it, and
// the ease id.
type Timing struct {
	Duration float64 `yaml:"duration"`
	Delay    float64 `yaml:"delay,omitempty"`
	Ease     string  `yaml:"ease,omitempty"`
}

// Scaled returns t with duration and delay multiplied by m.
func (t Timing) Scaled(m float64) Timing {
	t.Duration *= m
	t.Delay *= m
	return t
}

// Keyframe is the pose a target settles into for one slide. Move drives the
// position tween and Turn drives the Y rotation tween.
type Keyframe struct {
	Position  mgl64.Vec3
	RotationY float64
	Move      Timing
	Turn      Timing
}

// Table is the ordered keyframe list of one target, indexed by slide.
type Table []Keyframe

// Set holds one table per target.
type Set [TargetCount]Table

// Len is the slide count. Validate guarantees every table agrees.
func (s *Set) Len() int {
	return len(s[Camera])
}

// At returns the keyframe of target for slide i.
func (s *Set) At(t Target, i int) (Keyframe, bool) {
	if t < 0 || t >= TargetCount || i < 0 || i >= len(s[t]) {
		return Keyframe{}, false
	}
	return s[t][i], true
}

// Validate checks that every table has the same non-zero length, timings are
// non-negative and every ease id parses.
func (s *Set) Validate() error {
	n := len(s[Camera])
	if n == 0 {
		return fmt.Errorf("%w: camera table is empty", ErrMisaligned)
	}
	for _, t := range Targets() {
		if len(s[t]) != n {
			return fmt.Errorf("%w: %s has %d slides, camera has %d", ErrMisaligned, t, len(s[t]), n)
		}
		for i, k := range s[t] {
			for _, tm := range []Timing{k.Move, k.Turn} {
				if tm.Duration < 0 || tm.Delay < 0 {
					return fmt.Errorf("%s slide %d: negative timing", t, i)
				}
				if _, err := ease.Parse(tm.Ease); err != nil {
					return fmt.Errorf("%s slide %d: %w", t, i, err)
				}
			}
		}
	}
	return nil
}
