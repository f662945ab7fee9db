package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// sseReplaySize is the number of recent notifications kept for
	// Last-Event-ID reconnection.
	sseReplaySize = 1000

	// sseKeepaliveInterval is how often a comment line is written to idle
	// streams.
	sseKeepaliveInterval = 15 * time.Second

	// sseClientBuffer is the per-client queue depth. Slow clients drop
	// notifications rather than block the ledger.
	sseClientBuffer = 64
)

// sseEvent is one notification as delivered to stream clients.
type sseEvent struct {
	ID    uint64 // sequence number, starts at 1
	Topic string
	Data  []byte // JSON payload
}

// sseHub fans notifications out to connected stream clients and remembers
// the most recent ones for replay.
type sseHub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}
	lastID  uint64
	replay  []sseEvent // ring, len <= sseReplaySize
	next    int        // write position in replay once it is full
}

// sseClient is a single connected stream consumer.
type sseClient struct {
	topics []string // NATS-style patterns; empty matches everything
	ch     chan *sseEvent
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

// broadcast assigns the next sequence number and delivers the notification
// to every matching client.
func (h *sseHub) broadcast(topic string, payload []byte) {
	h.mu.Lock()
	h.lastID++
	evt := sseEvent{ID: h.lastID, Topic: topic, Data: payload}
	if len(h.replay) < sseReplaySize {
		h.replay = append(h.replay, evt)
	} else {
		h.replay[h.next] = evt
		h.next = (h.next + 1) % sseReplaySize
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.matches(topic) {
			continue
		}
		select {
		case c.ch <- &evt:
		default:
		}
	}
}

// subscribe registers a client. Call unsubscribe when done.
func (h *sseHub) subscribe(topics []string) *sseClient {
	c := &sseClient{topics: topics, ch: make(chan *sseEvent, sseClientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// since returns buffered notifications with ID > lastID, oldest first.
func (h *sseHub) since(lastID uint64) []*sseEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*sseEvent
	n := len(h.replay)
	for i := range n {
		evt := &h.replay[(h.next+i)%n]
		if evt.ID > lastID {
			out = append(out, evt)
		}
	}
	return out
}

func (c *sseClient) matches(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, p := range c.topics {
		if matchTopicPattern(p, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic against a pattern where
// "*" matches one segment and a trailing ">" matches one or more.
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	pat := strings.Split(pattern, ".")
	top := strings.Split(topic, ".")
	for i, p := range pat {
		if p == ">" {
			return i < len(top)
		}
		if i >= len(top) || (p != "*" && p != top[i]) {
			return false
		}
	}
	return len(pat) == len(top)
}

// parseTopics splits the comma-separated topics query parameter.
func parseTopics(q string) []string {
	var topics []string
	for _, t := range strings.Split(q, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// handleNotificationStream handles GET /v1/notifications/stream.
func (s *LedgerServer) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	client := s.sseHub.subscribe(parseTopics(r.URL.Query().Get("topics")))
	defer s.sseHub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if lastID, err := strconv.ParseUint(v, 10, 64); err == nil {
			for _, evt := range s.sseHub.since(lastID) {
				if client.matches(evt.Topic) {
					writeSSEEvent(w, evt)
				}
			}
			flusher.Flush()
		}
	}

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}

// broadcastEvent marshals event and hands it to the hub.
func (s *LedgerServer) broadcastEvent(topic string, event any) {
	if s.sseHub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal notification for stream", "topic", topic, "error", err)
		return
	}
	s.sseHub.broadcast(topic, payload)
}
