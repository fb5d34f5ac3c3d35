package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// defaultWSPath is the WebSocket route under /api/v1 when websocket.path is
// unset.
const defaultWSPath = "/ws"

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return defaultWSPath
	}
	return "/" + strings.TrimPrefix(s.wsCfg.Path, "/")
}

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/audit", s.handleListAuditLogs)

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", s.handleListRooms)
			r.Post("/", s.handleCreateRoom)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRoom)
				r.Patch("/", s.handleUpdateRoom)
				r.Delete("/", s.handleDeleteRoom)
				r.Get("/devices", s.handleRoomDevices)
			})
		})

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleCreateDevice)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Patch("/", s.handleUpdateDevice)
				r.Delete("/", s.handleDeleteDevice)
				r.Post("/rooms/{roomID}", s.handleLinkRoom)
				r.Delete("/rooms/{roomID}", s.handleUnlinkRoom)
			})
		})

		r.Route("/actions", func(r chi.Router) {
			r.Get("/", s.handleListActions)
			r.Post("/", s.handleCreateAction)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetAction)
				r.Patch("/", s.handleUpdateAction)
				r.Delete("/", s.handleDeleteAction)
			})
		})

		r.Route("/scenes", func(r chi.Router) {
			r.Get("/", s.handleListScenes)
			r.Post("/", s.handleCreateScene)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetScene)
				r.Patch("/", s.handleUpdateScene)
				r.Delete("/", s.handleDeleteScene)
				r.Post("/actions/{actionID}", s.handleAddSceneAction)
				r.Delete("/actions/{actionID}", s.handleRemoveSceneAction)
			})
		})

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}
