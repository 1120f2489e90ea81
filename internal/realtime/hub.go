// Package realtime pushes booking events to websocket clients. Events arrive over Redis
// Pub/Sub, so every API instance can serve listeners regardless of which instance emitted them.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/events"
	"github.com/redis/go-redis/v9"
)

const (
	TopicBookings = "bookings"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 32
)

// showtimeEvents are the only events forwarded to showtime topics, which anyone may subscribe to.
// Everything else, refund payee details included, stays on the admin bookings topic.
var showtimeEvents = map[string]bool{
	domain.EventSeatsLocked:   true,
	domain.EventSeatsReleased: true,
}

func ShowtimeTopic(showtimeID string) string {
	return "showtime:" + showtimeID
}

type Hub struct {
	client   redis.UniversalClient
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	topics map[string]map[*subscriber]struct{}
}

type subscriber struct {
	topic string
	send  chan []byte
	done  chan struct{}
	once  sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.done)
	})
}

func NewHub(client redis.UniversalClient, logger *slog.Logger) *Hub {
	return &Hub{
		client: client,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		topics: make(map[string]map[*subscriber]struct{}),
	}
}

// Run relays events from Redis until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	pubsub := h.client.PSubscribe(ctx, events.ChannelPattern)
	defer pubsub.Close()

	_, err := pubsub.Receive(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	h.logger.Info("realtime hub listening", "pattern", events.ChannelPattern)

	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			h.dispatch([]byte(msg.Payload))
		}
	}
}

func (h *Hub) dispatch(data []byte) {
	var env struct {
		Name    string `json:"name"`
		Payload struct {
			ShowtimeID string `json:"showtimeId"`
		} `json:"payload"`
	}

	err := json.Unmarshal(data, &env)
	if err != nil {
		h.logger.Warn("dropping malformed event", "error", err)
		return
	}

	h.Publish(TopicBookings, data)

	if env.Payload.ShowtimeID != "" && showtimeEvents[env.Name] {
		h.Publish(ShowtimeTopic(env.Payload.ShowtimeID), data)
	}
}

// Publish queues data for every subscriber of topic. Subscribers whose buffer is full are
// disconnected.
func (h *Hub) Publish(topic string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.topics[topic] {
		select {
		case sub.send <- data:
		default:
			h.logger.Warn("disconnecting slow websocket client", "topic", topic)
			sub.close()
		}
	}
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.topics[topic])
}

func (h *Hub) register(topic string) *subscriber {
	sub := &subscriber{
		topic: topic,
		send:  make(chan []byte, sendBufferSize),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*subscriber]struct{})
	}
	h.topics[topic][sub] = struct{}{}

	return sub
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.topics[sub.topic], sub)
	if len(h.topics[sub.topic]) == 0 {
		delete(h.topics, sub.topic)
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, subs := range h.topics {
		for sub := range subs {
			sub.close()
		}
	}
}

// Serve upgrades the request and streams topic events to the client until either side closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	sub := h.register(topic)

	go h.writePump(conn, sub)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Client messages are ignored; reading only detects disconnects and handles pongs.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	sub.close()
	return nil
}

func (h *Hub) writePump(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		h.unregister(sub)
		_ = conn.Close()
	}()

	for {
		select {
		case <-sub.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				sub.close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sub.close()
				return
			}
		}
	}
}
