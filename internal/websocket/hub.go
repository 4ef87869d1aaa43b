package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"intelliprep-notes-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel relays frames to users connected to other instances.
const ClusterChannel = "cluster_events"

type Hub struct {
	// UserId -> connections (multi-device)
	clients map[string][]*Client
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	handlers   map[MessageType]MessageHandler
	handlersMu sync.RWMutex

	// Redis connection for cross-instance delivery; nil on a single instance.
	rdb        *redis.Client
	instanceId string

	logger logger.ILogger
	now    func() time.Time
}

type clusterEnvelope struct {
	Origin       string          `json:"origin"`
	TargetUserId string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		handlers:   make(map[MessageType]MessageHandler),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
		now:        time.Now,
	}
}

// Handle routes inbound frames of msgType to handler.
func (h *Hub) Handle(msgType MessageType, handler MessageHandler) {
	h.handlersMu.Lock()
	h.handlers[msgType] = handler
	h.handlersMu.Unlock()
}

// Run owns client registration until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for userId, clients := range h.clients {
				for _, c := range clients {
					close(c.Send)
				}
				delete(h.clients, userId)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserId] = append(h.clients[client.UserId], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserId})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Register and Unregister are no-ops once Run has returned.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Send)
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.UserId]
	for i, c := range clients {
		if c != client {
			continue
		}
		h.clients[client.UserId] = append(clients[:i], clients[i+1:]...)
		close(client.Send)
		break
	}
	if len(h.clients[client.UserId]) == 0 {
		delete(h.clients, client.UserId)
		h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserId})
	}
}

// IsOnline reports whether userId has a connection on this instance.
func (h *Hub) IsOnline(userId string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userId]) > 0
}

// SendToUser delivers a typed frame to every connection of userId, here and,
// through Redis, on the other instances.
func (h *Hub) SendToUser(ctx context.Context, userId string, msgType MessageType, data interface{}) error {
	frame, err := encodeMessage(msgType, data, h.now())
	if err != nil {
		return fmt.Errorf("failed to encode %s frame: %w", msgType, err)
	}

	h.deliverLocal(userId, frame)

	if h.rdb != nil {
		payload, err := json.Marshal(clusterEnvelope{Origin: h.instanceId, TargetUserId: userId, Message: frame})
		if err != nil {
			return err
		}
		if err := h.rdb.Publish(ctx, ClusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to relay frame to cluster", map[string]interface{}{
				"user_id": userId,
				"error":   err.Error(),
			})
		}
	}
	return nil
}

func (h *Hub) deliverLocal(userId string, frame []byte) {
	// Send under the read lock so remove cannot close a channel mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userId] {
		select {
		case client.Send <- frame:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": userId})
			go h.Unregister(client)
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, client *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.reply(client, TypeError, map[string]string{"message": "invalid frame"})
		return
	}

	if msg.Type == TypePing {
		h.reply(client, TypePong, nil)
		return
	}

	h.handlersMu.RLock()
	handler, ok := h.handlers[msg.Type]
	h.handlersMu.RUnlock()
	if !ok {
		h.reply(client, TypeError, map[string]string{"message": "unsupported message type: " + string(msg.Type)})
		return
	}

	if err := handler.Handle(ctx, client.UserId, msg.Data); err != nil {
		h.logger.Warn("Hub", "Inbound frame rejected", map[string]interface{}{
			"user_id": client.UserId,
			"type":    msg.Type,
			"error":   err.Error(),
		})
		h.reply(client, TypeError, map[string]string{"message": err.Error()})
	}
}

func (h *Hub) reply(client *Client, msgType MessageType, data interface{}) {
	frame, err := encodeMessage(msgType, data, h.now())
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients[client.UserId] {
		if c != client {
			continue
		}
		select {
		case client.Send <- frame:
		default:
		}
		return
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var env clusterEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		// Our own publishes were already delivered locally.
		if env.Origin == h.instanceId {
			continue
		}
		h.deliverLocal(env.TargetUserId, env.Message)
	}
}
