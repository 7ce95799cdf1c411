// Package stream broadcasts simulation frames to websocket clients.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/san-kum/nbodysim/internal/body"
)

const (
	writeWait         = 5 * time.Second
	defaultBufferSize = 16
)

type message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type BodyFrame struct {
	Name     string     `json:"name"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
}

type Frame struct {
	Time   float64     `json:"time"`
	Bodies []BodyFrame `json:"bodies"`
}

// Hello is sent once to each client on connect.
type Hello struct {
	Bodies []string   `json:"bodies"`
	Colors [][3]uint8 `json:"colors"`
	Radii  []float64  `json:"radii"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub fans frames out to every connected client. It implements sim.Observer
// and http.Handler. A client whose send buffer is full is dropped rather than
// stalling the simulation.
type Hub struct {
	sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *log.Logger
	hello    []byte

	every      int
	ticks      int
	bufferSize int
	closed     bool
}

type Option func(*Hub)

// WithEvery broadcasts only every n-th tick.
func WithEvery(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.every = n
		}
	}
}

func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

func NewHub(initial *body.Set, opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:     log.Default(),
		every:      1,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}

	hello := Hello{}
	for i := 0; i < initial.Len(); i++ {
		b := initial.At(i)
		hello.Bodies = append(hello.Bodies, b.Name)
		hello.Colors = append(hello.Colors, b.Display.Color)
		hello.Radii = append(hello.Radii, b.Radius)
	}
	h.hello, _ = json.Marshal(message{Type: "system", Data: hello})
	return h
}

func (h *Hub) Clients() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.bufferSize)}
	c.send <- h.hello

	h.Lock()
	if h.closed {
		h.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.Unlock()

	h.logger.Info("client connected", "remote", r.RemoteAddr, "clients", n)

	go h.write(c)
	go h.read(c)
}

// OnStep broadcasts the current state. It never fails the simulation.
func (h *Hub) OnStep(t float64, set *body.Set) error {
	h.ticks++
	if h.ticks%h.every != 0 {
		return nil
	}

	frame := Frame{Time: t, Bodies: make([]BodyFrame, set.Len())}
	for i := 0; i < set.Len(); i++ {
		b := set.At(i)
		frame.Bodies[i] = BodyFrame{Name: b.Name, Position: b.Position, Velocity: b.Velocity}
	}
	data, err := json.Marshal(message{Type: "frame", Data: frame})
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// Broadcast queues data for every client and drops the ones that cannot keep up.
func (h *Hub) Broadcast(data []byte) {
	var slow []*client

	h.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow client", "remote", c.conn.RemoteAddr())
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.Unlock()
	if ok {
		c.close()
	}
}

func (h *Hub) write(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// read discards client input and notices disconnects.
func (h *Hub) read(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.logger.Debug("client disconnected", "remote", c.conn.RemoteAddr(), "err", err)
			return
		}
	}
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.Unlock()

	for c := range clients {
		c.close()
	}
}
