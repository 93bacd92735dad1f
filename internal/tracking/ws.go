package tracking

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Faith-tech-code/safemove/internal/events"
	"github.com/Faith-tech-code/safemove/pkg/kafka"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// safeConn wraps a websocket.Conn with a write mutex.
// gorilla/websocket allows one concurrent writer; this enforces that.
type safeConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *safeConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *safeConn) readMessage() (int, []byte, error) {
	return c.ws.ReadMessage()
}

func (c *safeConn) close() { c.ws.Close() }

// TripCache mirrors the last known state of a trip so subscribers who
// connect late still get a snapshot. *redis.Client satisfies it.
type TripCache interface {
	CacheTrip(ctx context.Context, tripID string, data map[string]string) error
	GetCachedTrip(ctx context.Context, tripID string) (map[string]string, error)
}

// Hub manages WebSocket subscribers per trip and feeds them the trip
// events flowing through Kafka.
type Hub struct {
	mu    sync.RWMutex
	conns map[string][]*safeConn
	cache TripCache // may be nil
}

// NewHub creates a tracking hub. cache may be nil.
func NewHub(cache TripCache) *Hub {
	return &Hub{conns: make(map[string][]*safeConn), cache: cache}
}

// Routes returns a chi.Router for the /ws mount point.
func (h *Hub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/trips/{id}", h.HandleWS)
	return r
}

// StartConsumers subscribes the hub to trip events and relays them to
// the trip's WebSocket subscribers.
func (h *Hub) StartConsumers(ctx context.Context, k *kafka.Client) {
	k.Subscribe(ctx, kafka.TopicTripRequested, "tracking-group", func(data []byte) error {
		var ev events.TripRequestedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		h.Broadcast(ev.TripID, map[string]any{
			"type":    "trip.requested",
			"trip_id": ev.TripID,
			"mode":    ev.Mode,
			"fare":    ev.Fare,
			"status":  "pending",
		})
		h.cacheState(ctx, ev.TripID, map[string]string{
			"status": "pending",
			"mode":   ev.Mode,
			"fare":   strconv.FormatFloat(ev.Fare, 'f', -1, 64),
		})
		return nil
	})

	k.Subscribe(ctx, kafka.TopicTripCancelled, "tracking-group", func(data []byte) error {
		var ev events.TripCancelledEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		h.Broadcast(ev.TripID, map[string]any{
			"type":    "trip.cancelled",
			"trip_id": ev.TripID,
			"status":  "cancelled",
		})
		h.cacheState(ctx, ev.TripID, map[string]string{"status": "cancelled"})
		return nil
	})
}

// HandleWS upgrades the connection and subscribes it to a trip.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "id")
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	conn := &safeConn{ws: ws}

	h.mu.Lock()
	h.conns[tripID] = append(h.conns[tripID], conn)
	h.mu.Unlock()

	log.Printf("[ws] client connected to trip %s", tripID)

	// Late subscribers get the last known trip state up front.
	if h.cache != nil {
		if state, err := h.cache.GetCachedTrip(r.Context(), tripID); err == nil && len(state) > 0 {
			_ = conn.writeJSON(state)
		}
	}

	// Block until the client disconnects
	for {
		if _, _, err := conn.readMessage(); err != nil {
			break
		}
	}

	h.removeConn(tripID, conn)
	conn.close()
	log.Printf("[ws] client disconnected from trip %s", tripID)
}

// Broadcast pushes a payload to all subscribers of a trip. Safe for
// concurrent calls; each safeConn serialises its own writes.
func (h *Hub) Broadcast(tripID string, payload map[string]any) {
	// Copy under the lock; removeConn compacts the backing array.
	h.mu.RLock()
	conns := append([]*safeConn(nil), h.conns[tripID]...)
	h.mu.RUnlock()

	if payload["ts"] == nil {
		payload["ts"] = time.Now().Unix()
	}

	for _, c := range conns {
		if err := c.writeJSON(payload); err != nil {
			log.Printf("[ws] write error: %v", err)
		}
	}
}

func (h *Hub) cacheState(ctx context.Context, tripID string, state map[string]string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.CacheTrip(ctx, tripID, state); err != nil {
		log.Printf("[tracking] cache trip %s: %v", tripID, err)
	}
}

func (h *Hub) removeConn(tripID string, conn *safeConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[tripID]
	for i, c := range conns {
		if c == conn {
			h.conns[tripID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[tripID]) == 0 {
		delete(h.conns, tripID)
	}
}
