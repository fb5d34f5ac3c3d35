package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/device"
)

// createActionRequest is the body of POST /actions.
type createActionRequest struct {
	Description string `json:"description"`
	DeviceID    int64  `json:"device_id"`
}

// handleListActions returns actions ordered by id.
//
// Query parameters:
//   - device_id: only actions of this device
func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	var deviceID catalog.Optional[int64]
	if v := r.URL.Query().Get("device_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeBadRequest(w, "device_id must be an integer")
			return
		}
		deviceID = catalog.Some(id)
	}

	actions, err := s.actions.ListActions(r.Context(), deviceID)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": actions, "count": len(actions)})
}

// handleCreateAction creates an action owned by device_id.
func (s *Server) handleCreateAction(w http.ResponseWriter, r *http.Request) {
	var req createActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	action, err := s.actions.CreateAction(r.Context(), req.Description, req.DeviceID)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, action)
}

func (s *Server) handleGetAction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	action, err := s.actions.GetAction(r.Context(), id)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// handleUpdateAction changes the description and/or the owning device.
func (s *Server) handleUpdateAction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd device.ActionUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	action, err := s.actions.UpdateAction(r.Context(), id, upd)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// handleDeleteAction deletes an action and drops it from every scene.
func (s *Server) handleDeleteAction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.actions.DeleteAction(r.Context(), id); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
