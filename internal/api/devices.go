package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/domotica-core/internal/device"
)

// handleListDevices returns all devices ordered by id.
//
// Query parameters:
//   - include_rooms: embed each device's rooms (default true)
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	includeRooms := true
	if v := r.URL.Query().Get("include_rooms"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "include_rooms must be a boolean")
			return
		}
		includeRooms = parsed
	}

	devices, err := s.devices.ListDevices(r.Context(), includeRooms)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleCreateDevice creates a device linked to the rooms in room_ids.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var in device.DeviceCreate
	if !decodeJSON(w, r, &in) {
		return
	}

	dev, err := s.devices.CreateDevice(r.Context(), in)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dev)
}

// handleGetDevice returns a single device with its rooms.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	dev, err := s.devices.GetDevice(r.Context(), id)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleUpdateDevice applies a partial update. A room_ids field replaces
// the device's room set.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd device.DeviceUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	dev, err := s.devices.UpdateDevice(r.Context(), id, upd)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleDeleteDevice deletes a device together with its links and actions.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.devices.DeleteDevice(r.Context(), id); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLinkRoom(w http.ResponseWriter, r *http.Request) {
	s.changeRoomLink(w, r, true)
}

func (s *Server) handleUnlinkRoom(w http.ResponseWriter, r *http.Request) {
	s.changeRoomLink(w, r, false)
}

// changeRoomLink links or unlinks a room and responds with the device.
// Both directions are idempotent.
func (s *Server) changeRoomLink(w http.ResponseWriter, r *http.Request, link bool) {
	deviceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	roomID, ok := pathID(w, r, "roomID")
	if !ok {
		return
	}

	var (
		dev *device.Device
		err error
	)
	if link {
		dev, err = s.devices.LinkRoom(r.Context(), deviceID, roomID)
	} else {
		dev, err = s.devices.UnlinkRoom(r.Context(), deviceID, roomID)
	}
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}
