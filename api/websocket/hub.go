package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openalpha/perp-router/api/middleware"
	"github.com/openalpha/perp-router/api/store"
	"github.com/openalpha/perp-router/metrics"
)

// Channel prefixes
const (
	ChannelAll     = "requests"
	ChannelAccount = "account:"
	ChannelQueue   = "queue:"
)

// Hub maintains the set of active clients and fans records out to the
// channels they subscribed to
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients
	perIP    map[string]int

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest
	stopCh      chan struct{}
	stopOnce    sync.Once

	// limiter throttles subscriber commands, keyed by client id
	limiter *middleware.RateLimiter

	mu sync.RWMutex

	config *HubConfig
}

// HubConfig contains hub configuration
type HubConfig struct {
	MaxClientsPerIP  int
	MaxSubscriptions int
	MessageRateLimit int // commands per second per client, also the burst
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		MaxClientsPerIP:  10,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
}

// NewHub creates a new Hub
func NewHub(config *HubConfig) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		perIP:       make(map[string]int),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		stopCh:      make(chan struct{}),
		limiter: middleware.NewRateLimiter(&middleware.RateLimitConfig{
			RequestsPerSecond: float64(config.MessageRateLimit),
			Burst:             config.MessageRateLimit,
			BlockDuration:     time.Second,
			CleanupInterval:   time.Minute,
			BucketTTL:         10 * time.Minute,
		}),
		config: config,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case <-h.stopCh:
			return
		}
	}
}

// Stop stops the hub loop and the command limiter
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		h.limiter.Stop()
	})
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.perIP[client.ip]++
	metrics.GetCollector().RecordWSConnection(1)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for channel, clients := range h.channels {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}

	h.perIP[client.ip]--
	if h.perIP[client.ip] <= 0 {
		delete(h.perIP, client.ip)
	}

	client.close()
	metrics.GetCollector().RecordWSConnection(-1)
}

func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[req.Client]; !ok {
		return
	}
	if _, ok := h.channels[req.Channel]; !ok {
		h.channels[req.Channel] = make(map[*Client]bool)
	}
	h.channels[req.Channel][req.Client] = true

	req.Client.Send(mustMarshal(&WSMessage{Type: "subscribed", Channel: req.Channel}))
}

func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.channels[req.Channel]; ok {
		delete(clients, req.Client)
		if len(clients) == 0 {
			delete(h.channels, req.Channel)
		}
	}
	if _, ok := h.clients[req.Client]; ok {
		req.Client.Send(mustMarshal(&WSMessage{Type: "unsubscribed", Channel: req.Channel}))
	}
}

// BroadcastToChannel sends a message to all clients subscribed to a channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) int {
	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return 0
	}
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		return 0
	}

	for _, client := range clientList {
		client.Send(data)
	}
	metrics.GetCollector().RecordWSMessage(channelPrefix(channel))
	return len(clientList)
}

// BroadcastRecord publishes a record on the all-requests channel, the
// account channel and the queue channel
func (h *Hub) BroadcastRecord(rec *store.Record) {
	for _, channel := range []string{ChannelAll, ChannelAccount + rec.Account, ChannelQueue + rec.Queue} {
		h.BroadcastToChannel(channel, &WSMessage{Type: "record", Channel: channel, Data: rec})
	}
}

// ServeWS upgrades the request and registers the client
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	h.mu.RLock()
	full := h.perIP[ip] >= h.config.MaxClientsPerIP
	h.mu.RUnlock()
	if full {
		http.Error(w, "Too many connections from this IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := NewClient(h, conn, uuid.New().String(), ip)
	h.register <- client

	go client.writeOutbox()
	go client.readCommands()
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ChannelClientCount returns the number of clients in a channel
func (h *Hub) ChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// validChannel reports whether a channel name is one the hub publishes on
func validChannel(channel string) bool {
	switch {
	case channel == ChannelAll:
		return true
	case strings.HasPrefix(channel, ChannelAccount):
		return len(channel) > len(ChannelAccount)
	case strings.HasPrefix(channel, ChannelQueue):
		q := strings.TrimPrefix(channel, ChannelQueue)
		return q == "increase" || q == "decrease"
	}
	return false
}

func channelPrefix(channel string) string {
	if i := strings.IndexByte(channel, ':'); i >= 0 {
		return channel[:i]
	}
	return channel
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}

func mustMarshal(v interface{}) []byte {
	data, _ := json.Marshal(v)
	return data
}
