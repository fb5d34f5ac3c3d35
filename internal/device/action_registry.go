package device

import (
	"context"
	"database/sql"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/infrastructure/database"
)

// ActionRegistry owns the action lifecycle. Actions always belong to an
// existing device.
type ActionRegistry struct {
	db       *sql.DB
	logger   catalog.Logger
	notifier catalog.Notifier
}

// NewActionRegistry creates an action registry backed by db.
func NewActionRegistry(db *sql.DB) *ActionRegistry {
	return &ActionRegistry{
		db:       db,
		logger:   catalog.NopLogger{},
		notifier: catalog.NopNotifier{},
	}
}

// SetLogger sets the logger for the registry.
func (r *ActionRegistry) SetLogger(logger catalog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetNotifier sets the sink for committed change events.
func (r *ActionRegistry) SetNotifier(n catalog.Notifier) {
	if n != nil {
		r.notifier = n
	}
}

// CreateAction adds an action to a device. It fails with
// ErrInvalidDeviceReference when the device does not exist and with
// ErrActionExists when the device already has the description.
func (r *ActionRegistry) CreateAction(ctx context.Context, description string, deviceID int64) (*Action, error) {
	if err := ValidateDescription(description); err != nil {
		return nil, err
	}

	a := &Action{Description: description, DeviceID: deviceID}
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := requireDevice(ctx, tx, deviceID); err != nil {
			return err
		}
		repo := NewSQLiteActionRepository(tx)
		taken, err := repo.DescriptionTaken(ctx, deviceID, description, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrActionExists
		}
		return repo.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("action created", "action_id", a.ID, "device_id", deviceID)
	r.notifier.Notify(catalog.NewEvent(catalog.ActionCreated, a.ID, map[string]any{
		"description": a.Description,
		"device_id":   a.DeviceID,
	}))
	return a, nil
}

// ListActions returns actions ordered by ID, optionally only those of one
// device. Filtering by an unknown device returns an empty list.
func (r *ActionRegistry) ListActions(ctx context.Context, deviceID catalog.Optional[int64]) ([]Action, error) {
	return NewSQLiteActionRepository(r.db).List(ctx, deviceID)
}

// GetAction returns an action by ID.
func (r *ActionRegistry) GetAction(ctx context.Context, id int64) (*Action, error) {
	return NewSQLiteActionRepository(r.db).Get(ctx, id)
}

// UpdateAction applies a partial update. Uniqueness is checked against the
// device the action will belong to after the update. Moving an action to
// another device keeps its scene memberships.
func (r *ActionRegistry) UpdateAction(ctx context.Context, id int64, upd ActionUpdate) (*Action, error) {
	if desc, ok := upd.Description.Get(); ok {
		if err := ValidateDescription(desc); err != nil {
			return nil, err
		}
	}

	var a *Action
	var previousDevice int64
	changed := upd.Description.Set || upd.DeviceID.Set
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteActionRepository(tx)
		var err error
		a, err = repo.Get(ctx, id)
		if err != nil || !changed {
			return err
		}
		previousDevice = a.DeviceID

		if deviceID, ok := upd.DeviceID.Get(); ok {
			if err := requireDevice(ctx, tx, deviceID); err != nil {
				return err
			}
			a.DeviceID = deviceID
		}
		if desc, ok := upd.Description.Get(); ok {
			a.Description = desc
		}

		taken, err := repo.DescriptionTaken(ctx, a.DeviceID, a.Description, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrActionExists
		}
		if err := repo.Update(ctx, a); err != nil {
			return err
		}

		a, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return a, nil
	}

	details := map[string]any{
		"description": a.Description,
		"device_id":   a.DeviceID,
	}
	if a.DeviceID != previousDevice {
		details["previous_device_id"] = previousDevice
	}
	r.logger.Info("action updated", "action_id", id, "device_id", a.DeviceID)
	r.notifier.Notify(catalog.NewEvent(catalog.ActionUpdated, id, details))
	return a, nil
}

// DeleteAction removes an action and drops it from every scene. The owning
// device and the scenes themselves are untouched.
func (r *ActionRegistry) DeleteAction(ctx context.Context, id int64) error {
	var a *Action
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteActionRepository(tx)
		var err error
		a, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	r.logger.Info("action deleted", "action_id", id, "device_id", a.DeviceID)
	r.notifier.Notify(catalog.NewEvent(catalog.ActionDeleted, id, map[string]any{
		"description": a.Description,
		"device_id":   a.DeviceID,
	}))
	return nil
}

// CountActions returns the number of actions.
func (r *ActionRegistry) CountActions(ctx context.Context) (int, error) {
	return NewSQLiteActionRepository(r.db).Count(ctx)
}

// requireDevice maps a missing device to ErrInvalidDeviceReference.
func requireDevice(ctx context.Context, q database.Querier, deviceID int64) error {
	exists, err := NewSQLiteRepository(q).Exists(ctx, deviceID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrInvalidDeviceReference
	}
	return nil
}
