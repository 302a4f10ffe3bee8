// Package clock drives a frame callback at a fixed rate and serializes work
// posted from other goroutines onto the same logical thread.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxDelta caps a single frame step, in seconds.
const DefaultMaxDelta = 2.0

const DefaultFPS = 60

// Frame receives the clamped seconds since the previous frame.
type Frame func(dt float64)

type state int

const (
	idle state = iota
	running
	stopped
)

type Option func(*Clock)

// WithMaxDelta overrides the per-frame clamp ceiling.
func WithMaxDelta(s float64) Option {
	return func(c *Clock) {
		if s > 0 {
			c.maxDelta = s
		}
	}
}

// Manual disables the ticker goroutine; frames only happen through Tick.
func Manual() Option {
	return func(c *Clock) { c.manual = true }
}

// WithNow replaces the wall clock used to measure frame deltas.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// Clock calls a Frame once per interval. Tasks handed to Post run on the
// frame goroutine, in order, right before the next frame.
type Clock struct {
	frame    Frame
	interval time.Duration
	maxDelta float64
	manual   bool
	now      func() time.Time

	mu    sync.Mutex
	state state
	tasks []func()
	quit  chan struct{}
	done  chan struct{}

	// tickMu is held for the whole of a frame so Stop can wait it out.
	tickMu sync.Mutex
	last   time.Time
	frames atomic.Uint64
}

func New(fps int, frame Frame, opts ...Option) *Clock {
	if fps <= 0 {
		fps = DefaultFPS
	}
	c := &Clock{
		frame:    frame,
		interval: time.Second / time.Duration(fps),
		maxDelta: DefaultMaxDelta,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Clamp bounds dt to [0,max].
func Clamp(dt, max float64) float64 {
	if dt < 0 {
		return 0
	}
	if dt > max {
		return max
	}
	return dt
}

// Start begins ticking. Calling it while running, or after Stop, does nothing.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != idle {
		return
	}
	c.state = running
	c.last = c.now()
	if c.manual {
		return
	}
	c.quit = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(c.quit, c.done)
}

func (c *Clock) loop(quit, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			t := c.now()
			dt := t.Sub(c.last).Seconds()
			c.last = t
			c.Tick(dt)
		}
	}
}

// Stop ends ticking and blocks until any frame in progress has returned. No
// frame or posted task runs after Stop returns; queued tasks are dropped. It
// must not be called from inside a frame or a posted task.
func (c *Clock) Stop() {
	c.mu.Lock()
	if c.state == stopped {
		c.mu.Unlock()
		return
	}
	c.state = stopped
	quit, done := c.quit, c.done
	c.tasks = nil
	c.mu.Unlock()

	if quit != nil {
		close(quit)
		<-done
	}
	// wait out a manual Tick in flight
	c.tickMu.Lock()
	c.tickMu.Unlock()
}

// Post queues fn for the frame goroutine. It reports false once the clock is
// stopped. Tasks posted before Start run with the first frame.
func (c *Clock) Post(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stopped {
		return false
	}
	c.tasks = append(c.tasks, fn)
	return true
}

// Tick runs queued tasks and then one frame with dt clamped. It does nothing
// unless the clock is running.
func (c *Clock) Tick(dt float64) {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()

	c.mu.Lock()
	if c.state != running {
		c.mu.Unlock()
		return
	}
	tasks := c.tasks
	c.tasks = nil
	c.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
	c.frames.Add(1)
	if c.frame != nil {
		c.frame(Clamp(dt, c.maxDelta))
	}
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == running
}

// Frames counts frames delivered so far.
func (c *Clock) Frames() uint64 { return c.frames.Load() }

// MaxDelta is the clamp ceiling in seconds.
func (c *Clock) MaxDelta() float64 { return c.maxDelta }
