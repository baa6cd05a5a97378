package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ignite/contact-engine/internal/notify"
	"github.com/ignite/contact-engine/internal/pkg/logger"
)

// EventHub fans engine notifications out to SSE listeners. It implements
// notify.Notifier, so it is injected wherever the engine emits toasts or
// undo prompts. Slow listeners are dropped rather than back-pressuring the
// engine.
type EventHub struct {
	mu        sync.Mutex
	listeners map[chan notify.Event]struct{}
	closed    bool
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{listeners: make(map[chan notify.Event]struct{})}
}

func (h *EventHub) Success(msg string) {
	h.broadcast(notify.Event{Kind: "toast", Level: notify.LevelSuccess, Message: msg})
}

func (h *EventHub) Error(msg string) {
	h.broadcast(notify.Event{Kind: "toast", Level: notify.LevelError, Message: msg})
}

func (h *EventHub) Info(msg string) {
	h.broadcast(notify.Event{Kind: "toast", Level: notify.LevelInfo, Message: msg})
}

func (h *EventHub) UndoPrompt(pendingID int64, msg string, expiresAt time.Time) {
	h.broadcast(notify.Event{
		Kind:      "undo_prompt",
		Message:   msg,
		PendingID: pendingID,
		ExpiresAt: expiresAt,
	})
}

func (h *EventHub) broadcast(e notify.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.listeners {
		select {
		case ch <- e:
		default:
			// Listener is not draining; cut it loose.
			delete(h.listeners, ch)
			close(ch)
			logger.Warn("dropped slow event listener")
		}
	}
}

// ListenerCount reports connected SSE clients, for the health endpoint.
func (h *EventHub) ListenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Close disconnects every listener. Subsequent broadcasts are discarded.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.listeners {
		delete(h.listeners, ch)
		close(ch)
	}
}

func (h *EventHub) subscribe() (chan notify.Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	ch := make(chan notify.Event, 16)
	h.listeners[ch] = struct{}{}
	return ch, true
}

func (h *EventHub) unsubscribe(ch chan notify.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.listeners[ch]; ok {
		delete(h.listeners, ch)
		close(ch)
	}
}

// ServeHTTP streams events to one client as server-sent events.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch, ok := h.subscribe()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "server shutting down")
		return
	}
	defer h.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
			flusher.Flush()
		}
	}
}
