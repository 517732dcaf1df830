// File: /services/live_hub.go
package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"squadrun-api/models"
)

// LiveHub fans live position updates out to session viewers. With Redis
// configured it also bridges updates across instances over pub/sub; without
// it the hub degrades to in-process fanout.
type LiveHub struct {
	redis   *redis.Client
	clients map[string]map[*LiveClient]struct{}
	mu      sync.RWMutex
}

type LiveClient struct {
	SessionID string
	Send      chan []byte
}

func NewLiveHub(redisClient *redis.Client) *LiveHub {
	h := &LiveHub{
		redis:   redisClient,
		clients: map[string]map[*LiveClient]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *LiveHub) Register(sessionID string) *LiveClient {
	client := &LiveClient{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*LiveClient]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	return client
}

func (h *LiveHub) Unregister(client *LiveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessionClients, ok := h.clients[client.SessionID]; ok {
		delete(sessionClients, client)
		if len(sessionClients) == 0 {
			delete(h.clients, client.SessionID)
		}
	}
	close(client.Send)
}

// BroadcastUpdate publishes one live update; slow viewers are skipped rather
// than blocking the caller
func (h *LiveHub) BroadcastUpdate(update models.LiveUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}
	h.broadcast(update.SessionID, payload)

	if h.redis != nil {
		if err := h.redis.Publish(context.Background(), liveChannel(update.SessionID), payload).Err(); err != nil {
			log.Warn().Err(err).Msg("redis publish error")
		}
	}
}

func (h *LiveHub) broadcast(sessionID string, payload []byte) {
	h.mu.RLock()
	clients := make([]*LiveClient, 0, len(h.clients[sessionID]))
	for client := range h.clients[sessionID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *LiveHub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "session:*:live")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.broadcast(sessionIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func liveChannel(sessionID string) string {
	return "session:" + sessionID + ":live"
}

func sessionIDFromChannel(ch string) string {
	// session:{id}:live
	const prefix = "session:"
	const suffix = ":live"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
