package api

import (
	"net/http"

	"github.com/nerrad567/domotica-core/internal/automation"
)

// handleListScenes returns scenes ordered by id, each with its actions.
//
// Query parameters:
//   - name: case-insensitive substring filter
func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.scenes.ListScenes(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenes": scenes, "count": len(scenes)})
}

// handleCreateScene creates a scene. Status defaults to inactive.
func (s *Server) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	var in automation.SceneCreate
	if !decodeJSON(w, r, &in) {
		return
	}

	scene, err := s.scenes.CreateScene(r.Context(), in)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, scene)
}

func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	scene, err := s.scenes.GetScene(r.Context(), id)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

// handleUpdateScene applies a partial update of name, activation_keyword
// and status.
func (s *Server) handleUpdateScene(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd automation.SceneUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	scene, err := s.scenes.UpdateScene(r.Context(), id, upd)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

// handleDeleteScene deletes a scene. Its actions are kept.
func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.scenes.DeleteScene(r.Context(), id); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSceneAction(w http.ResponseWriter, r *http.Request) {
	s.changeSceneAction(w, r, true)
}

func (s *Server) handleRemoveSceneAction(w http.ResponseWriter, r *http.Request) {
	s.changeSceneAction(w, r, false)
}

// changeSceneAction adds or removes an action and responds with the scene.
// Both directions are idempotent.
func (s *Server) changeSceneAction(w http.ResponseWriter, r *http.Request, add bool) {
	sceneID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	actionID, ok := pathID(w, r, "actionID")
	if !ok {
		return
	}

	var (
		scene *automation.Scene
		err   error
	)
	if add {
		scene, err = s.scenes.AddAction(r.Context(), sceneID, actionID)
	} else {
		scene, err = s.scenes.RemoveAction(r.Context(), sceneID, actionID)
	}
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}
