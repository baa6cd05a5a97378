// Package api exposes the engine over HTTP: import wizard sessions, the
// visible contact collection, deferred deletion with undo, and a server-sent
// event stream for toasts and undo prompts.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/contact-engine/internal/archive"
	"github.com/ignite/contact-engine/internal/contacts"
	"github.com/ignite/contact-engine/internal/deletion"
	"github.com/ignite/contact-engine/internal/progress"
	"github.com/ignite/contact-engine/internal/store"
	"github.com/ignite/contact-engine/internal/workflow"
)

// Server is the API server.
type Server struct {
	handler http.Handler
	server  *http.Server

	imports  *workflow.Manager
	view     *contacts.View
	store    store.Store
	deleter  *deletion.Coordinator
	tracker  *progress.Tracker
	events   *EventHub
	archiver *archive.Uploader // nil when archiving is disabled

	maxUploadBytes int64
}

// Options carries the collaborators the server wires into its handlers.
// Archiver and Tracker may be nil.
type Options struct {
	Imports        *workflow.Manager
	View           *contacts.View
	Store          store.Store
	Deleter        *deletion.Coordinator
	Tracker        *progress.Tracker
	Events         *EventHub
	Archiver       *archive.Uploader
	MaxUploadBytes int64
	AllowedOrigins []string
}

// NewServer creates the API server and mounts all routes.
func NewServer(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Events == nil {
		opts.Events = NewEventHub()
	}

	s := &Server{
		imports:        opts.Imports,
		view:           opts.View,
		store:          opts.Store,
		deleter:        opts.Deleter,
		tracker:        opts.Tracker,
		events:         opts.Events,
		archiver:       opts.Archiver,
		maxUploadBytes: opts.MaxUploadBytes,
	}
	s.handler = s.routes(opts.AllowedOrigins)
	return s
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Read timeout is generous for spreadsheet and image uploads; write
		// timeout stays unset so the SSE stream can outlive slow imports.
		ReadTimeout:       2 * time.Minute,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.events.Close()
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// urlParam is a tiny indirection so handlers read uniformly.
func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
