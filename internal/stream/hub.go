package stream

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"backend-territory/internal/territory"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "territory:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix
	sendBuffer     = 64
)

// Hub fans engine events out to the websocket clients watching a session.
// With Redis configured every payload goes through the pattern subscription
// so clients connected to other instances receive it too.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	pubsub  *redis.PubSub
	done    chan struct{}
}

type Client struct {
	SessionID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx := context.Background()
		pubsub := redisClient.PSubscribe(ctx, channelPattern)
		if _, err := pubsub.Receive(ctx); err != nil {
			log.Printf("redis subscribe error: %v", err)
			_ = pubsub.Close()
			h.redis = nil
			return h
		}
		h.pubsub = pubsub
		h.done = make(chan struct{})
		go h.subscribeRedis()
	}
	return h
}

// Close stops the Redis subscription. Registered clients are left alone.
func (h *Hub) Close() {
	if h.pubsub == nil {
		return
	}
	_ = h.pubsub.Close()
	<-h.done
}

func (h *Hub) Register(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*Client]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := sessionClients[client]; !ok {
		return
	}
	delete(sessionClients, client)
	if len(sessionClients) == 0 {
		delete(h.clients, client.SessionID)
	}
	close(client.Send)
}

// ClientCount reports how many local clients watch sessionID.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) Broadcast(sessionID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(sessionID), payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error: %v", err)
	}
	h.deliver(sessionID, payload)
}

// Publish encodes ev and broadcasts it to the session's watchers.
func (h *Hub) Publish(sessionID string, ev territory.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("encode event %s: %v", ev.Kind, err)
		return
	}
	h.Broadcast(sessionID, payload)
}

// Sink adapts the hub to an engine event sink bound to one session.
func (h *Hub) Sink(sessionID string) territory.EventSink {
	return territory.SinkFunc(func(ev territory.Event) {
		h.Publish(sessionID, ev)
	})
}

func (h *Hub) deliver(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// Slow clients drop messages instead of blocking the engine.
	for client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	defer close(h.done)

	for msg := range h.pubsub.Channel() {
		sessionID := sessionIDFromChannel(msg.Channel)
		if sessionID == "" {
			continue
		}
		h.deliver(sessionID, []byte(msg.Payload))
	}
}

func redisChannel(sessionID string) string {
	return channelPrefix + sessionID + channelSuffix
}

func sessionIDFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
