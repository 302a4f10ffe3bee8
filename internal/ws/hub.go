// Package ws connects remote pages to the engine: they drive the slide,
// viewport and visibility over /control and watch frames and diagnostics.
package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	diag "github.com/coreman2200/nightdrive/internal/diagnostics"
	"github.com/coreman2200/nightdrive/internal/render"
)

const writeWait = 200 * time.Millisecond

// replyWait bounds how long a control reply waits for the engine loop.
const replyWait = time.Second

var (
	errNoEngine = errors.New("no engine attached")
	errStopped  = errors.New("engine stopped")
)

// Engine is the part of the choreography engine the hub drives.
type Engine interface {
	Post(fn func()) bool
	OnSlideChanged(i int) error
}

// Control is one message on /control. Absent fields are left alone.
type Control struct {
	Slide    *int             `json:"slide,omitempty"`
	Viewport *render.Viewport `json:"viewport,omitempty"`
	Hidden   *bool            `json:"hidden,omitempty"`
}

// Reply answers every control message.
type Reply struct {
	OK       bool            `json:"ok"`
	Error    string          `json:"error,omitempty"`
	Slide    int             `json:"slide"`
	Viewport render.Viewport `json:"viewport"`
	Hidden   bool            `json:"hidden"`
}

// Hub is the remote page as the engine sees it: a Host for size and
// visibility, a Sink for frames and a Reporter for diagnostics.
type Hub struct {
	log   zerolog.Logger
	every time.Duration

	mu     sync.RWMutex
	engine Engine
	vp     render.Viewport
	hidden bool
	slide  int
	next   int
	subs   map[int]func(render.Viewport)

	frameID     uint64
	lastEmit    time.Time
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool

	// serializes writes to frame and diag connections
	wmu sync.Mutex
	up  websocket.Upgrader
}

// NewHub starts with vp as the page size. Frames go out at most once per
// every; zero sends all of them.
func NewHub(vp render.Viewport, every time.Duration, log zerolog.Logger) *Hub {
	return &Hub{
		log:         log.With().Str("component", "ws").Logger(),
		every:       every,
		vp:          vp,
		subs:        map[int]func(render.Viewport){},
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		up:          websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Attach sets the engine control messages are forwarded to.
func (h *Hub) Attach(e Engine) {
	h.mu.Lock()
	h.engine = e
	h.mu.Unlock()
}

// Routes registers the hub's handlers on mux.
func (h *Hub) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/control", h.HandleControlWS)
	mux.HandleFunc("/frames", h.HandleFramesWS)
	mux.HandleFunc("/diag", h.HandleDiagWS)
	mux.HandleFunc("/health", h.HandleHealth)
}

func (h *Hub) Viewport() render.Viewport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.vp
}

func (h *Hub) Hidden() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hidden
}

func (h *Hub) OnResize(fn func(render.Viewport)) func() {
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

func (h *Hub) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Control
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.Debug().Err(err).Msg("bad control message")
			h.reply(conn, err)
			continue
		}
		h.reply(conn, h.Apply(msg))
	}
}

// Apply performs a control message. Visibility and size apply at once;
// a slide change runs on the engine loop and Apply waits for its result.
func (h *Hub) Apply(msg Control) error {
	if msg.Hidden != nil {
		h.mu.Lock()
		h.hidden = *msg.Hidden
		h.mu.Unlock()
		h.log.Debug().Bool("hidden", *msg.Hidden).Msg("visibility changed")
	}
	if msg.Viewport != nil {
		h.setViewport(*msg.Viewport)
	}
	if msg.Slide != nil {
		return h.changeSlide(*msg.Slide)
	}
	return nil
}

func (h *Hub) setViewport(vp render.Viewport) {
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

func (h *Hub) changeSlide(i int) error {
	h.mu.RLock()
	e := h.engine
	h.mu.RUnlock()
	if e == nil {
		return errNoEngine
	}
	done := make(chan error, 1)
	posted := e.Post(func() {
		err := e.OnSlideChanged(i)
		if err == nil {
			h.mu.Lock()
			h.slide = i
			h.mu.Unlock()
		}
		done <- err
	})
	if !posted {
		return errStopped
	}
	select {
	case err := <-done:
		return err
	case <-time.After(replyWait):
		// still queued; the change will apply when the loop gets to it
		return nil
	}
}

func (h *Hub) reply(conn *websocket.Conn, err error) {
	h.mu.RLock()
	rep := Reply{OK: err == nil, Slide: h.slide, Viewport: h.vp, Hidden: h.hidden}
	h.mu.RUnlock()
	if err != nil {
		rep.Error = err.Error()
	}
	b, _ := json.Marshal(rep)
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.clients)
}

func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.diagClients)
}

// register upgrades the request into set and drops the connection once the
// peer goes away.
func (h *Hub) register(w http.ResponseWriter, r *http.Request, set map[*websocket.Conn]bool) {
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	set[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(set, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	resp := map[string]any{
		"frame_id":     h.frameID,
		"uptime_s":     time.Since(h.startTime).Seconds(),
		"slide":        h.slide,
		"hidden":       h.hidden,
		"viewport":     h.vp,
		"clients":      len(h.clients),
		"diag_clients": len(h.diagClients),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Write sends the frame to /frames clients as a PNG binary message.
func (h *Hub) Write(frame *image.RGBA) error {
	h.mu.Lock()
	h.frameID++
	now := time.Now()
	if len(h.clients) == 0 || (h.every > 0 && h.lastEmit.Add(h.every).After(now)) {
		h.mu.Unlock()
		return nil
	}
	h.lastEmit = now
	h.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return err
	}
	h.broadcast(h.clients, websocket.BinaryMessage, buf.Bytes())
	return nil
}

// Report pushes d to /diag clients.
func (h *Hub) Report(d diag.Diagnostic) {
	b, err := json.Marshal(d)
	if err != nil {
		return
	}
	h.broadcast(h.diagClients, websocket.TextMessage, b)
}

func (h *Hub) broadcast(set map[*websocket.Conn]bool, kind int, b []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	h.wmu.Lock()
	defer h.wmu.Unlock()
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(kind, b); err != nil {
			h.log.Debug().Err(err).Msg("write to client")
		}
	}
}

// FrameID counts frames the hub has been given.
func (h *Hub) FrameID() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frameID
}

// Close disconnects every frame and diag client.
func (h *Hub) Close() error {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients)+len(h.diagClients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	for c := range h.diagClients {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
	return nil
}
