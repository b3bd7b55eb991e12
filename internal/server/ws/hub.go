package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quickserve/dispatch/internal/domain/model"
)

const (
	writeWait  = 20 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Event is one message on the dispatcher feed.
type Event struct {
	Type    string          `json:"type"`
	OrderID string          `json:"order_id,omitempty"`
	Status  string          `json:"status,omitempty"`
	Lat     float64         `json:"lat,omitempty"`
	Lng     float64         `json:"lng,omitempty"`
	RiderID int64           `json:"rider_id,omitempty"`
	At      time.Time       `json:"at"`
	Order   json.RawMessage `json:"order,omitempty"`
}

// OrderEvent builds a status-change event.
func OrderEvent(order *model.DeliveryOrder) Event {
	return Event{
		Type:    "order_status",
		OrderID: order.ID,
		Status:  string(order.Status),
		At:      time.Now(),
	}
}

// PositionEvent builds a rider-position event.
func PositionEvent(pos model.Position) Event {
	return Event{
		Type:    "position",
		OrderID: pos.OrderID,
		RiderID: pos.RiderID,
		Lat:     pos.Lat,
		Lng:     pos.Lng,
		At:      pos.RecordedAt,
	}
}

// DispatchHub manages dispatcher console connections. Each console holds one
// connection; a reconnect replaces the previous one.
type DispatchHub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[int64]*websocket.Conn
	locks map[int64]*sync.Mutex
}

// NewDispatchHub constructs the hub.
func NewDispatchHub(logger *slog.Logger) *DispatchHub {
	return &DispatchHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[int64]*websocket.Conn),
		locks: make(map[int64]*sync.Mutex),
	}
}

// ServeWS upgrades the request for an authenticated console.
func (h *DispatchHub) ServeWS(w http.ResponseWriter, r *http.Request, consoleID int64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	if old, ok := h.conns[consoleID]; ok {
		_ = old.Close()
	}
	h.conns[consoleID] = conn
	if _, ok := h.locks[consoleID]; !ok {
		h.locks[consoleID] = &sync.Mutex{}
	}
	h.mu.Unlock()

	h.logger.Info("console connected", slog.Int64("console_id", consoleID))

	go h.pingLoop(consoleID, conn)
	go h.readLoop(consoleID, conn)
}

// ConnCount reports how many consoles are connected.
func (h *DispatchHub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends the event to all connected consoles.
func (h *DispatchHub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ws marshal failed", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	ids := make([]int64, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.safeWrite(id, func(conn *websocket.Conn) error {
			return conn.WriteMessage(websocket.TextMessage, data)
		})
	}
}

// Close terminates every connection, e.g. on shutdown.
func (h *DispatchHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		_ = conn.Close()
		delete(h.conns, id)
		delete(h.locks, id)
	}
}

func (h *DispatchHub) pingLoop(id int64, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		h.mu.RLock()
		alive := h.conns[id] == conn
		h.mu.RUnlock()
		if !alive {
			return
		}
		h.safeWrite(id, func(c *websocket.Conn) error {
			return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		})
	}
}

func (h *DispatchHub) readLoop(id int64, conn *websocket.Conn) {
	defer h.closeConn(id, conn)

	conn.SetReadLimit(16 << 10)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Consoles never send application messages; drain until close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (h *DispatchHub) closeConn(id int64, conn *websocket.Conn) {
	_ = conn.Close()
	h.mu.Lock()
	if current, ok := h.conns[id]; ok && current == conn {
		delete(h.conns, id)
		delete(h.locks, id)
	}
	h.mu.Unlock()
}

func (h *DispatchHub) safeWrite(id int64, fn func(*websocket.Conn) error) {
	h.mu.RLock()
	conn := h.conns[id]
	mu := h.locks[id]
	h.mu.RUnlock()
	if conn == nil || mu == nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := fn(conn); err != nil {
		h.logger.Warn("ws write failed", slog.Int64("console_id", id), slog.String("error", err.Error()))
		h.closeConn(id, conn)
	}
}
