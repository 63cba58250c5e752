package websocket

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openalpha/perp-router/metrics"
)

// Connection timing. The heartbeat must fire before the peer deadline lapses.
const (
	writeTimeout      = 10 * time.Second
	peerTimeout       = time.Minute
	heartbeatInterval = peerTimeout * 9 / 10

	maxCommandSize = 4096
	outboxSize     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Command is a control message sent by a subscriber
type Command struct {
	Action  string `json:"action"`
	Channel string `json:"channel,omitempty"`
}

// commandHandlers maps command actions to their handlers
var commandHandlers = map[string]func(*Client, Command){
	"subscribe":     (*Client).subscribe,
	"unsubscribe":   (*Client).unsubscribe,
	"subscriptions": (*Client).listSubscriptions,
	"ping":          (*Client).pong,
}

// Client is one subscriber to the lifecycle stream
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	ip   string

	channelsMu sync.Mutex
	channels   map[string]struct{}

	outboxMu sync.Mutex
	outbox   chan []byte
	closed   bool
}

// NewClient wraps an upgraded connection
func NewClient(hub *Hub, conn *websocket.Conn, id, ip string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		id:       id,
		ip:       ip,
		channels: make(map[string]struct{}),
		outbox:   make(chan []byte, outboxSize),
	}
}

// ID returns the client ID
func (c *Client) ID() string {
	return c.id
}

// readCommands decodes commands until the connection fails, then leaves the hub
func (c *Client) readCommands() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopCh:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxCommandSize)
	c.extendPeerDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.extendPeerDeadline()
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if allowed, info := c.hub.limiter.Allow(c.id); !allowed {
			metrics.GetCollector().RecordRateLimitHit("ws")
			c.Send(mustMarshal(&WSMessage{
				Type: "error",
				Data: map[string]interface{}{
					"code":        "rate_limit_exceeded",
					"message":     "too many commands",
					"retry_after": info.RetryAfter,
				},
			}))
			continue
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.reject("invalid_message", "command is not valid JSON")
			continue
		}
		handle, ok := commandHandlers[cmd.Action]
		if !ok {
			c.reject("unknown_action", "unknown action "+cmd.Action)
			continue
		}
		handle(c, cmd)
	}
}

func (c *Client) extendPeerDeadline() {
	_ = c.conn.SetReadDeadline(time.Now().Add(peerTimeout))
}

// writeOutbox drains the outbox onto the connection and keeps it alive with
// pings. A closed outbox ends the connection with a close frame.
func (c *Client) writeOutbox() {
	heartbeat := time.NewTicker(heartbeatInterval)
	defer func() {
		heartbeat.Stop()
		c.conn.Close()
	}()

	for {
		var (
			frame   int
			payload []byte
		)
		select {
		case msg, ok := <-c.outbox:
			if !ok {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			frame, payload = websocket.TextMessage, msg
		case <-heartbeat.C:
			frame = websocket.PingMessage
		}
		if err := c.write(frame, payload); err != nil {
			return
		}
	}
}

func (c *Client) write(frame int, payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(frame, payload)
}

func (c *Client) subscribe(cmd Command) {
	if !validChannel(cmd.Channel) {
		c.reject("invalid_channel", "unknown channel "+cmd.Channel)
		return
	}

	c.channelsMu.Lock()
	_, already := c.channels[cmd.Channel]
	if !already && len(c.channels) >= c.hub.config.MaxSubscriptions {
		c.channelsMu.Unlock()
		c.reject("subscription_limit", "subscription limit reached")
		return
	}
	c.channels[cmd.Channel] = struct{}{}
	c.channelsMu.Unlock()

	c.hub.subscribe <- &SubscriptionRequest{Client: c, Channel: cmd.Channel}
}

func (c *Client) unsubscribe(cmd Command) {
	c.channelsMu.Lock()
	delete(c.channels, cmd.Channel)
	c.channelsMu.Unlock()

	c.hub.unsubscribe <- &SubscriptionRequest{Client: c, Channel: cmd.Channel}
}

func (c *Client) listSubscriptions(Command) {
	c.channelsMu.Lock()
	list := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		list = append(list, ch)
	}
	c.channelsMu.Unlock()
	sort.Strings(list)

	c.Send(mustMarshal(&WSMessage{Type: "subscriptions", Data: list}))
}

func (c *Client) pong(Command) {
	c.Send(mustMarshal(&WSMessage{Type: "pong", Data: map[string]int64{"timestamp": time.Now().UnixMilli()}}))
}

func (c *Client) reject(code, message string) {
	c.Send(mustMarshal(&WSMessage{
		Type: "error",
		Data: map[string]string{"code": code, "message": message},
	}))
}

// Send queues a message for the client; it is dropped when the outbox is full
func (c *Client) Send(message []byte) {
	c.outboxMu.Lock()
	defer c.outboxMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.outbox <- message:
	default:
		metrics.GetCollector().RecordWSDrop()
	}
}

func (c *Client) close() {
	c.outboxMu.Lock()
	defer c.outboxMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.outbox)
	}
}
