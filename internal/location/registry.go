package location

import (
	"context"
	"database/sql"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/infrastructure/database"
)

// Registry owns the room lifecycle. Every operation runs in its own
// transaction and change events are emitted only after commit.
type Registry struct {
	db       *sql.DB
	logger   catalog.Logger
	notifier catalog.Notifier
}

// NewRegistry creates a room registry backed by db.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{
		db:       db,
		logger:   catalog.NopLogger{},
		notifier: catalog.NopNotifier{},
	}
}

// SetLogger sets the logger for registry operations.
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

// CreateRoom validates and stores a new room.
func (r *Registry) CreateRoom(ctx context.Context, name string) (*Room, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	room := &Room{Name: name}
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		taken, err := repo.NameTaken(ctx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrRoomNameTaken
		}
		return repo.Create(ctx, room)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("room created", "room_id", room.ID, "name", room.Name)
	r.notifier.Notify(catalog.NewEvent(catalog.RoomCreated, room.ID, map[string]any{
		"name": room.Name,
	}))
	return room, nil
}

// ListRooms returns all rooms ordered by ID, optionally filtered by a
// case-insensitive name substring.
func (r *Registry) ListRooms(ctx context.Context, nameFilter string) ([]Room, error) {
	return NewSQLiteRepository(r.db).List(ctx, nameFilter)
}

// GetRoom returns a room by ID.
func (r *Registry) GetRoom(ctx context.Context, id int64) (*Room, error) {
	return NewSQLiteRepository(r.db).Get(ctx, id)
}

// UpdateRoom applies a partial update. An update with no fields set returns
// the room unchanged.
func (r *Registry) UpdateRoom(ctx context.Context, id int64, upd RoomUpdate) (*Room, error) {
	if name, ok := upd.Name.Get(); ok {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
	}

	var room *Room
	var changed bool
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		var err error
		room, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}

		name, ok := upd.Name.Get()
		if !ok {
			return nil
		}
		taken, err := repo.NameTaken(ctx, name, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrRoomNameTaken
		}
		room.Name = name
		if err := repo.Update(ctx, room); err != nil {
			return err
		}
		changed = true

		room, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		r.logger.Info("room updated", "room_id", id, "name", room.Name)
		r.notifier.Notify(catalog.NewEvent(catalog.RoomUpdated, id, map[string]any{
			"name": room.Name,
		}))
	}
	return room, nil
}

// DeleteRoom removes a room. A room with linked devices is refused with
// ErrRoomHasDevices and left untouched.
func (r *Registry) DeleteRoom(ctx context.Context, id int64) error {
	var name string
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		room, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		name = room.Name

		linked, err := repo.CountLinkedDevices(ctx, id)
		if err != nil {
			return err
		}
		if linked > 0 {
			return ErrRoomHasDevices
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	r.logger.Info("room deleted", "room_id", id, "name", name)
	r.notifier.Notify(catalog.NewEvent(catalog.RoomDeleted, id, map[string]any{
		"name": name,
	}))
	return nil
}

// GetLinkedDevices returns the room with a summary of every device linked to
// it. Both reads share one transaction.
func (r *Registry) GetLinkedDevices(ctx context.Context, id int64) (*RoomDevices, error) {
	var result *RoomDevices
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		room, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		devices, err := repo.ListLinkedDevices(ctx, id)
		if err != nil {
			return err
		}
		result = &RoomDevices{Room: *room, Devices: devices, Count: len(devices)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CountRooms returns the number of rooms.
func (r *Registry) CountRooms(ctx context.Context) (int, error) {
	return NewSQLiteRepository(r.db).Count(ctx)
}
