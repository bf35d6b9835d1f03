package api

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProgressEvent is one progress update pushed to subscribers. The same shape
// the progress poll endpoint returns, delivered as an event.
type ProgressEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	TaskID    uuid.UUID `json:"task_id"`
	Status    string    `json:"status"`
	Phase     string    `json:"phase"`
	Progress  float64   `json:"progress"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// subscriber is one connected client listening to a group.
type subscriber struct {
	group   string
	channel chan ProgressEvent
}

// ProgressHub fans progress events out to subscribers addressed by group.
// Groups exist per session and per task. Delivery is best-effort and
// at-most-once per connection: events published before a subscriber joined
// are not replayed, and a slow subscriber's events are dropped rather than
// blocking the publisher.
type ProgressHub struct {
	mu         sync.RWMutex
	groups     map[string]map[chan ProgressEvent]bool
	register   chan subscriber
	unregister chan subscriber
	broadcast  chan broadcastItem
}

type broadcastItem struct {
	group string
	event ProgressEvent
}

// NewProgressHub creates a hub and starts its dispatch goroutine.
func NewProgressHub() *ProgressHub {
	hub := &ProgressHub{
		groups:     make(map[string]map[chan ProgressEvent]bool),
		register:   make(chan subscriber, 10),
		unregister: make(chan subscriber, 10),
		broadcast:  make(chan broadcastItem, 100),
	}
	go hub.run()
	return hub
}

// SessionGroup names the group carrying one session's updates.
func SessionGroup(sessionID uuid.UUID) string {
	return "session_" + sessionID.String()
}

// TaskGroup names the group carrying one task's updates.
func TaskGroup(taskID uuid.UUID) string {
	return "task_" + taskID.String()
}

func (h *ProgressHub) run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			if h.groups[sub.group] == nil {
				h.groups[sub.group] = make(map[chan ProgressEvent]bool)
			}
			h.groups[sub.group][sub.channel] = true
			log.Printf("[ProgressHub] Subscriber joined group %s (total: %d)",
				sub.group, len(h.groups[sub.group]))
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if subs, exists := h.groups[sub.group]; exists {
				delete(subs, sub.channel)
				close(sub.channel)
				if len(subs) == 0 {
					delete(h.groups, sub.group)
				}
			}
			h.mu.Unlock()

		case item := <-h.broadcast:
			h.mu.RLock()
			for ch := range h.groups[item.group] {
				select {
				case ch <- item.event:
				default:
					// Subscriber channel full; drop rather than block.
					log.Printf("[ProgressHub] Dropping event for slow subscriber in group %s", item.group)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish sends an event to the session group and the task group. Every
// subscriber of either group receives every update published while joined.
func (h *ProgressHub) Publish(event ProgressEvent) {
	event.Timestamp = time.Now().UTC()
	h.publishGroup(SessionGroup(event.SessionID), event)
	if event.TaskID != uuid.Nil {
		h.publishGroup(TaskGroup(event.TaskID), event)
	}
}

func (h *ProgressHub) publishGroup(group string, event ProgressEvent) {
	select {
	case h.broadcast <- broadcastItem{group: group, event: event}:
	default:
		log.Printf("[ProgressHub] Broadcast queue full, dropping event for group %s", group)
	}
}

// Subscribe joins a group and returns the event channel plus a leave func.
func (h *ProgressHub) Subscribe(group string) (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, 10)
	sub := subscriber{group: group, channel: ch}
	h.register <- sub
	return ch, func() {
		select {
		case h.unregister <- sub:
		default:
			// Hub overloaded; the dispatch goroutine will drop the
			// subscriber when its sends start failing.
		}
	}
}

// SubscriberCount returns the number of live subscribers in a group.
func (h *ProgressHub) SubscriberCount(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// StreamSSE serves a group's events over Server-Sent Events until the client
// disconnects.
func (h *ProgressHub) StreamSSE(c *gin.Context, group string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, leave := h.Subscribe(group)
	defer leave()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				log.Printf("[ProgressHub] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("progress", string(payload))
			return true

		case <-time.After(30 * time.Second):
			c.SSEvent("ping", `{"status":"alive"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}
