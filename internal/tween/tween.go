// Package tween interpolates scalar properties of scene targets over frame
// time. A property has at most one owning tween: scheduling a new one on the
// same property takes it away from the older tween.
package tween

import (
	"github.com/coreman2200/nightdrive/internal/ease"
	"github.com/coreman2200/nightdrive/internal/scene"
)

// Target is the property bag a tween mutates. scene.Node implements it.
type Target interface {
	Get(p scene.Prop) float64
	Set(p scene.Prop, v float64)
	Alive() bool
}

// State of a Handle.
type State int

const (
	Scheduled State = iota
	Running
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

type track struct {
	from, to float64
}

// Handle is one in-flight animation over some properties of a target.
type Handle struct {
	s      *Scheduler
	target Target
	props  map[scene.Prop]track

	duration, delay float64
	curve           ease.Func
	elapsed         float64
	state           State
	onComplete      func()
}

func (h *Handle) State() State { return h.state }

// Done is true once the handle completed or was cancelled.
func (h *Handle) Done() bool { return h.state == Completed || h.state == Cancelled }

// Owns reports whether the handle still animates p.
func (h *Handle) Owns(p scene.Prop) bool {
	_, ok := h.props[p]
	return ok
}

// Elapsed is the frame time the handle has seen, delay included.
func (h *Handle) Elapsed() float64 { return h.elapsed }

// Cancel stops the handle where it is. onComplete never fires.
func (h *Handle) Cancel() {
	if h.Done() {
		return
	}
	h.state = Cancelled
	h.s.disown(h)
}

type key struct {
	t Target
	p scene.Prop
}

// Scheduler advances handles with frame deltas. Not safe for concurrent use.
type Scheduler struct {
	handles []*Handle
	owner   map[key]*Handle
}

func New() *Scheduler {
	return &Scheduler{owner: map[key]*Handle{}}
}

// Animate tweens the properties in dest from their current values, after
// waiting delay seconds, over duration seconds shaped by curve. onComplete,
// if set, fires once on the frame that reaches the end. Properties already
// owned by another handle are taken from it; a handle left with nothing to
// animate is cancelled.
func (s *Scheduler) Animate(t Target, dest map[scene.Prop]float64, duration, delay float64, curve ease.Func, onComplete func()) *Handle {
	if curve == nil {
		curve = ease.Linear
	}
	h := &Handle{
		s:          s,
		target:     t,
		props:      make(map[scene.Prop]track, len(dest)),
		duration:   duration,
		delay:      delay,
		curve:      curve,
		onComplete: onComplete,
	}
	if !t.Alive() {
		h.state = Cancelled
		return h
	}
	for p, v := range dest {
		k := key{t, p}
		if prev, ok := s.owner[k]; ok && prev != h {
			delete(prev.props, p)
			if len(prev.props) == 0 && !prev.Done() {
				prev.state = Cancelled
			}
		}
		s.owner[k] = h
		h.props[p] = track{from: t.Get(p), to: v}
	}
	s.handles = append(s.handles, h)
	return h
}

// Advance moves every live handle forward by dt seconds.
func (s *Scheduler) Advance(dt float64) {
	// onComplete may schedule or cancel; walk a snapshot.
	hs := append([]*Handle(nil), s.handles...)
	for _, h := range hs {
		if h.Done() {
			continue
		}
		if !h.target.Alive() {
			h.state = Cancelled
			s.disown(h)
			continue
		}
		h.elapsed += dt
		if h.elapsed < h.delay {
			continue
		}
		h.state = Running
		progress := 1.0
		if h.duration > 0 {
			progress = (h.elapsed - h.delay) / h.duration
		}
		if progress >= 1 {
			for p, tr := range h.props {
				h.target.Set(p, tr.to)
			}
			h.state = Completed
			s.disown(h)
			if h.onComplete != nil {
				h.onComplete()
			}
			continue
		}
		f := h.curve(progress)
		for p, tr := range h.props {
			h.target.Set(p, ease.Lerp(tr.from, tr.to, f))
		}
	}
	s.compact()
}

// CancelTarget cancels every handle animating t.
func (s *Scheduler) CancelTarget(t Target) {
	for _, h := range s.handles {
		if h.target == t {
			h.Cancel()
		}
	}
	s.compact()
}

// CancelAll cancels every handle.
func (s *Scheduler) CancelAll() {
	for _, h := range s.handles {
		h.Cancel()
	}
	s.handles = nil
}

// Active counts handles that are scheduled or running.
func (s *Scheduler) Active() int {
	n := 0
	for _, h := range s.handles {
		if !h.Done() {
			n++
		}
	}
	return n
}

// Owner returns the handle currently animating p on t, if any.
func (s *Scheduler) Owner(t Target, p scene.Prop) *Handle {
	return s.owner[key{t, p}]
}

func (s *Scheduler) disown(h *Handle) {
	for p := range h.props {
		k := key{h.target, p}
		if s.owner[k] == h {
			delete(s.owner, k)
		}
	}
}

func (s *Scheduler) compact() {
	live := s.handles[:0]
	for _, h := range s.handles {
		if !h.Done() {
			live = append(live, h)
		}
	}
	for i := len(live); i < len(s.handles); i++ {
		s.handles[i] = nil
	}
	s.handles = live
}
