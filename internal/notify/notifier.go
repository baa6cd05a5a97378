// Package notify is the port through which the engine talks to the
// presentation layer: toast-style notifications plus the cancellable undo
// prompt for deferred deletions. The engine only ever calls the interface;
// the concrete sink (SSE hub, test recorder) is injected at wiring time.
package notify

import (
	"sync"
	"time"
)

// Level is the severity of a toast notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Event is one observable emission toward the presentation layer.
type Event struct {
	Kind      string    `json:"kind"` // "toast" or "undo_prompt"
	Level     Level     `json:"level,omitempty"`
	Message   string    `json:"message"`
	PendingID int64     `json:"pending_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Notifier receives engine events destined for the UI.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
	// UndoPrompt announces a pending deletion that can still be cancelled
	// until expiresAt.
	UndoPrompt(pendingID int64, msg string, expiresAt time.Time)
}

// Nop discards all events. Useful for wiring paths that have no UI.
type Nop struct{}

func (Nop) Success(string)                          {}
func (Nop) Error(string)                            {}
func (Nop) Info(string)                             {}
func (Nop) UndoPrompt(int64, string, time.Time)     {}

// Recorder captures events for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Success(msg string) { r.record(Event{Kind: "toast", Level: LevelSuccess, Message: msg}) }
func (r *Recorder) Error(msg string)   { r.record(Event{Kind: "toast", Level: LevelError, Message: msg}) }
func (r *Recorder) Info(msg string)    { r.record(Event{Kind: "toast", Level: LevelInfo, Message: msg}) }

func (r *Recorder) UndoPrompt(pendingID int64, msg string, expiresAt time.Time) {
	r.record(Event{Kind: "undo_prompt", Message: msg, PendingID: pendingID, ExpiresAt: expiresAt})
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
