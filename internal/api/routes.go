package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) routes(allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.events.ServeHTTP)

		r.Route("/imports", func(r chi.Router) {
			r.Post("/", s.handleStartImport)
			r.Post("/scan", s.handleStartScan)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Get("/progress", s.handleGetProgress)
				r.Post("/confirm", s.handleConfirm)
				r.Post("/conflicts/{index}/resolve", s.handleResolve)
				r.Post("/resolve-all", s.handleResolveAll)
				r.Post("/close", s.handleCloseSession)
				r.Delete("/", s.handleCancelSession)
			})
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", s.handleListContacts)
			r.Post("/", s.handleCreateContact)
			r.Put("/{id}", s.handleUpdateContact)
			r.Post("/delete", s.handleDeleteContacts)
			r.Post("/delete/{pendingID}/undo", s.handleUndoDelete)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"contacts":         s.view.Len(),
		"open_sessions":    s.imports.SessionCount(),
		"pending_deletes":  s.deleter.PendingCount(),
		"event_listeners":  s.events.ListenerCount(),
	})
}
