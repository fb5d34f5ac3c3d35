package automation

import (
	"context"
	"database/sql"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/device"
	"github.com/nerrad567/domotica-core/internal/infrastructure/database"
)

// Registry owns the scene lifecycle and scene-action membership.
type Registry struct {
	db       *sql.DB
	logger   catalog.Logger
	notifier catalog.Notifier
}

// NewRegistry creates a scene registry backed by db.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{
		db:       db,
		logger:   catalog.NopLogger{},
		notifier: catalog.NopNotifier{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger catalog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetNotifier sets the sink for committed change events.
func (r *Registry) SetNotifier(n catalog.Notifier) {
	if n != nil {
		r.notifier = n
	}
}

// CreateScene validates and stores a scene with no actions.
func (r *Registry) CreateScene(ctx context.Context, in SceneCreate) (*Scene, error) {
	if err := ValidateName(in.Name); err != nil {
		return nil, err
	}
	if in.ActivationKeyword != nil {
		if err := ValidateKeyword(*in.ActivationKeyword); err != nil {
			return nil, err
		}
	}
	status := in.Status
	if status == "" {
		status = StatusInactive
	}
	if err := ValidateStatus(status); err != nil {
		return nil, err
	}

	s := &Scene{
		Name:              in.Name,
		ActivationKeyword: normalizeKeyword(in.ActivationKeyword),
		Status:            status,
		Actions:           []device.Action{},
	}
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		taken, err := repo.NameTaken(ctx, in.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrSceneNameTaken
		}
		return repo.Create(ctx, s)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("scene created", "scene_id", s.ID, "name", s.Name)
	r.notifier.Notify(catalog.NewEvent(catalog.SceneCreated, s.ID, map[string]any{
		"name":   s.Name,
		"status": string(s.Status),
	}))
	return s, nil
}

// ListScenes returns scenes ordered by ID with their actions embedded,
// optionally filtered by a case-insensitive name substring.
func (r *Registry) ListScenes(ctx context.Context, nameFilter string) ([]Scene, error) {
	var scenes []Scene
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		var err error
		scenes, err = repo.List(ctx, nameFilter)
		if err != nil {
			return err
		}

		ids := make([]int64, len(scenes))
		for i := range scenes {
			ids[i] = scenes[i].ID
		}
		actions, err := repo.ActionsFor(ctx, ids)
		if err != nil {
			return err
		}
		for i := range scenes {
			scenes[i].Actions = actions[scenes[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scenes, nil
}

// GetScene returns a scene with its actions.
func (r *Registry) GetScene(ctx context.Context, id int64) (*Scene, error) {
	var s *Scene
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		s, err = loadScene(ctx, NewSQLiteRepository(tx), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateScene applies a partial update to name, activation keyword and
// status. Linked actions are not affected.
func (r *Registry) UpdateScene(ctx context.Context, id int64, upd SceneUpdate) (*Scene, error) {
	if name, ok := upd.Name.Get(); ok {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
	}
	if kw, ok := upd.ActivationKeyword.Get(); ok {
		if err := ValidateKeyword(kw); err != nil {
			return nil, err
		}
	}
	if status, ok := upd.Status.Get(); ok {
		if err := ValidateStatus(status); err != nil {
			return nil, err
		}
	}

	var s *Scene
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		var err error
		s, err = loadScene(ctx, repo, id)
		if err != nil || upd.IsEmpty() {
			return err
		}

		if name, ok := upd.Name.Get(); ok {
			taken, err := repo.NameTaken(ctx, name, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrSceneNameTaken
			}
			s.Name = name
		}
		if kw, ok := upd.ActivationKeyword.Get(); ok {
			s.ActivationKeyword = normalizeKeyword(&kw)
		}
		if status, ok := upd.Status.Get(); ok {
			s.Status = status
		}
		if err := repo.Update(ctx, s); err != nil {
			return err
		}

		s, err = loadScene(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return s, nil
	}

	r.logger.Info("scene updated", "scene_id", id, "name", s.Name, "status", s.Status)
	r.notifier.Notify(catalog.NewEvent(catalog.SceneUpdated, id, map[string]any{
		"name":   s.Name,
		"status": string(s.Status),
	}))
	return s, nil
}

// DeleteScene removes a scene and its action links. The actions remain.
func (r *Registry) DeleteScene(ctx context.Context, id int64) error {
	var name string
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		s, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		name = s.Name
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	r.logger.Info("scene deleted", "scene_id", id, "name", name)
	r.notifier.Notify(catalog.NewEvent(catalog.SceneDeleted, id, map[string]any{
		"name": name,
	}))
	return nil
}

// AddAction links an action to a scene and returns the scene. Adding an
// action that is already linked changes nothing.
func (r *Registry) AddAction(ctx context.Context, sceneID, actionID int64) (*Scene, error) {
	return r.changeMembership(ctx, sceneID, actionID, true)
}

// RemoveAction unlinks an action from a scene and returns the scene.
// Removing an action that is not linked changes nothing.
func (r *Registry) RemoveAction(ctx context.Context, sceneID, actionID int64) (*Scene, error) {
	return r.changeMembership(ctx, sceneID, actionID, false)
}

func (r *Registry) changeMembership(ctx context.Context, sceneID, actionID int64, add bool) (*Scene, error) {
	var s *Scene
	var changed bool
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		if _, err := repo.Get(ctx, sceneID); err != nil {
			return err
		}
		if _, err := device.NewSQLiteActionRepository(tx).Get(ctx, actionID); err != nil {
			return err
		}

		var err error
		if add {
			changed, err = repo.AddAction(ctx, sceneID, actionID)
		} else {
			changed, err = repo.RemoveAction(ctx, sceneID, actionID)
		}
		if err != nil {
			return err
		}
		if changed {
			if err := repo.Touch(ctx, sceneID); err != nil {
				return err
			}
		}

		s, err = loadScene(ctx, repo, sceneID)
		return err
	})
	if err != nil {
		return nil, err
	}

	typ := catalog.SceneActionAdded
	if !add {
		typ = catalog.SceneActionRemoved
	}
	r.logger.Debug("scene membership", "scene_id", sceneID, "action_id", actionID, "event", typ, "changed", changed)
	r.notifier.Notify(catalog.NewEvent(typ, sceneID, map[string]any{
		"action_id": actionID,
		"changed":   changed,
	}))
	return s, nil
}

// CountScenes returns the number of scenes.
func (r *Registry) CountScenes(ctx context.Context) (int, error) {
	return NewSQLiteRepository(r.db).Count(ctx)
}

func loadScene(ctx context.Context, repo *SQLiteRepository, id int64) (*Scene, error) {
	s, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	actions, err := repo.ActionsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	s.Actions = actions[id]
	return s, nil
}
