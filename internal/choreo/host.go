package choreo

import (
	"sync"

	"github.com/coreman2200/nightdrive/internal/render"
)

// Host is the page the scene is shown on. Viewport and Hidden may be called
// from the engine loop; OnResize callbacks may arrive on any goroutine.
type Host interface {
	Viewport() render.Viewport
	Hidden() bool
	// OnResize subscribes fn to size changes and returns the unsubscribe.
	OnResize(fn func(render.Viewport)) (unsubscribe func())
}

// StaticHost is a Host driven by code: the CLI and tests set its size and
// visibility directly.
type StaticHost struct {
	mu     sync.Mutex
	vp     render.Viewport
	hidden bool
	next   int
	subs   map[int]func(render.Viewport)
}

func NewStaticHost(vp render.Viewport) *StaticHost {
	return &StaticHost{vp: vp, subs: map[int]func(render.Viewport){}}
}

func (h *StaticHost) Viewport() render.Viewport {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.vp
}

func (h *StaticHost) Hidden() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hidden
}

func (h *StaticHost) SetHidden(v bool) {
	h.mu.Lock()
	h.hidden = v
	h.mu.Unlock()
}

// SetViewport stores vp and notifies every subscriber.
func (h *StaticHost) SetViewport(vp render.Viewport) {
	h.mu.Lock()
	h.vp = vp
	fns := make([]func(render.Viewport), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(vp)
	}
}

func (h *StaticHost) OnResize(fn func(render.Viewport)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Listeners is the number of live resize subscriptions.
func (h *StaticHost) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
