package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"byteme-assistant-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// clusterChannel carries cross-instance deliveries. Every instance
// subscribes and forwards messages for users it holds locally.
const clusterChannel = "cluster_events"

// instanceID marks messages this instance published so the subscriber
// loop can skip them. Local clients already got the message directly.
var instanceID = uuid.NewString()

// delivery is a message addressed to one user's connections.
type delivery struct {
	userID uuid.UUID
	data   []byte
}

type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Outbound messages waiting for the run loop to fan out.
	deliver chan delivery

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

// Run owns the client map. All registration, removal and channel closes
// happen here, so a Send channel is closed exactly once.
func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.removeClient(client)

		case d := <-h.deliver:
			h.deliverLocal(d)
		}
	}
}

// removeClient drops the client from the map and closes its channel.
// A client already removed (e.g. dropped for a full buffer before its
// readPump noticed) is skipped, which keeps the close idempotent.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
		h.logger.Info("Hub", "Client fully unregistered", map[string]interface{}{"user_id": client.UserID})
	}
}

func (h *Hub) deliverLocal(d delivery) {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[d.userID]...)
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- d.data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"user_id": d.userID})
			h.removeClient(client)
		}
	}
}

// Send pushes an event to every live connection the user has, on this
// instance and (via Redis) on any other. Implements the chat service's
// TraceDelivery.
func (h *Hub) Send(userID uuid.UUID, event string, payload interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": event,
		"data": payload,
	})

	select {
	case h.deliver <- delivery{userID: userID, data: data}:
	default:
		h.logger.Warn("Hub", "Delivery queue full, dropping message", map[string]interface{}{"user_id": userID})
	}

	// Other instances may hold connections for the same user.
	if h.rdb != nil {
		envelope, _ := json.Marshal(map[string]interface{}{
			"origin":         instanceID,
			"target_user_id": userID.String(),
			"message":        data,
		})
		h.rdb.Publish(context.Background(), clusterChannel, envelope)
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			Origin       string          `json:"origin"`
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}
		if payload.Origin == instanceID {
			continue
		}

		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}

		select {
		case h.deliver <- delivery{userID: uid, data: payload.Message}:
		default:
		}
	}
}
