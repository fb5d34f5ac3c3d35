package api

import (
	"net/http"

	"github.com/nerrad567/domotica-core/internal/location"
)

// createRoomRequest is the body of POST /rooms.
type createRoomRequest struct {
	Name string `json:"name"`
}

// handleListRooms returns all rooms ordered by id.
//
// Query parameters:
//   - name: case-insensitive substring filter
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.ListRooms(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

// handleCreateRoom creates a room.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	room, err := s.rooms.CreateRoom(r.Context(), req.Name)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// handleGetRoom returns a single room.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	room, err := s.rooms.GetRoom(r.Context(), id)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleUpdateRoom applies a partial update.
func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd location.RoomUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	room, err := s.rooms.UpdateRoom(r.Context(), id, upd)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleDeleteRoom deletes a room with no linked devices.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.rooms.DeleteRoom(r.Context(), id); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRoomDevices returns the room with the devices linked to it.
func (s *Server) handleRoomDevices(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	linked, err := s.rooms.GetLinkedDevices(r.Context(), id)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linked)
}
