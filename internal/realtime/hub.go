package realtime

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 4096
	defaultSendBuf = 64
)

// ClientFrame is the only message a client may send. Clients manage their
// own subscriptions; they cannot ask the server to broadcast anything.
type ClientFrame struct {
	Action string `json:"action"` // subscribe | unsubscribe
	Event  string `json:"event"`
}

// Hub serves the websocket endpoint and bridges connections to the bus.
type Hub struct {
	bus      *Bus
	log      *zap.Logger
	upgrader websocket.Upgrader
	sendBuf  int

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub accepts connections from allowedOrigins; "*" allows any origin.
// Requests without an Origin header (non-browser clients) are accepted.
func NewHub(bus *Bus, allowedOrigins []string, log *zap.Logger) *Hub {
	h := &Hub{
		bus:     bus,
		log:     log.Named("hub"),
		sendBuf: defaultSendBuf,
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return set[strings.ToLower(u.Scheme+"://"+u.Host)]
	}
}

// ServeHTTP upgrades the request and blocks until the connection ends.
// ?events=a,b limits the initial subscriptions; the default is all events.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.sendBuf),
		done: make(chan struct{}),
		subs: make(map[string]func()),
		addr: r.RemoteAddr,
	}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	initial := splitEvents(r.URL.Query().Get("events"))
	if len(initial) == 0 {
		initial = []string{AllEvents}
	}
	for _, name := range initial {
		c.subscribe(name)
	}
	h.log.Info("client connected", zap.String("remote", c.addr), zap.Strings("events", initial))

	go c.writePump()
	c.readPump()

	c.shutdown()
	h.unregister(c)
	h.log.Info("client disconnected", zap.String("remote", c.addr))
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Clients returns the number of open connections.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close sends a going-away frame to every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
		c.shutdown()
	}
}

func splitEvents(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	addr string

	mu   sync.Mutex
	subs map[string]func()

	done     chan struct{}
	doneOnce sync.Once
}

func (c *client) subscribe(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return
	default:
	}
	if _, ok := c.subs[name]; ok {
		return
	}
	// The bus hands AllEvents subscribers every event, so a named
	// subscription next to it would deliver twice.
	if _, all := c.subs[AllEvents]; all {
		return
	}
	if name == AllEvents {
		for n, stop := range c.subs {
			stop()
			delete(c.subs, n)
		}
	}
	c.subs[name] = c.hub.bus.Subscribe(name, c.enqueue)
}

func (c *client) unsubscribe(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stop, ok := c.subs[name]; ok {
		stop()
		delete(c.subs, name)
	}
}

// enqueue never blocks the publisher; a slow client loses events.
func (c *client) enqueue(ev Event) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- ev.Frame():
	default:
		c.hub.log.Warn("client send queue full, event dropped",
			zap.String("remote", c.addr), zap.String("event", ev.Name))
	}
}

func (c *client) shutdown() {
	c.doneOnce.Do(func() {
		c.mu.Lock()
		close(c.done)
		for name, stop := range c.subs {
			stop()
			delete(c.subs, name)
		}
		c.mu.Unlock()
		_ = c.conn.Close()
	})
}

func (c *client) readPump() {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read", zap.String("remote", c.addr), zap.Error(err))
			}
			return
		}
		var f ClientFrame
		if err := json.Unmarshal(msg, &f); err != nil || f.Event == "" {
			c.hub.log.Debug("ignoring client frame", zap.String("remote", c.addr), zap.ByteString("frame", msg))
			continue
		}
		switch f.Action {
		case "subscribe":
			c.subscribe(f.Event)
		case "unsubscribe":
			c.unsubscribe(f.Event)
		default:
			c.hub.log.Debug("ignoring client action", zap.String("remote", c.addr), zap.String("action", f.Action))
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.shutdown()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		}
	}
}
