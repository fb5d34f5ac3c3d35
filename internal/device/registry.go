package device

import (
	"context"
	"database/sql"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/infrastructure/database"
	"github.com/nerrad567/domotica-core/internal/location"
)

// Registry owns the device lifecycle and the device-room links.
//
// Each operation runs in one transaction. Change events are emitted after
// the transaction commits.
type Registry struct {
	db       *sql.DB
	logger   catalog.Logger
	notifier catalog.Notifier
}

// NewRegistry creates a device registry backed by db.
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

// CreateDevice validates and stores a device, linking it to every room in
// in.RoomIDs. Duplicate room ids are ignored; an unknown room id fails the
// whole operation with ErrInvalidRoomReference and nothing is stored.
func (r *Registry) CreateDevice(ctx context.Context, in DeviceCreate) (*Device, error) {
	if err := ValidateName(in.Name); err != nil {
		return nil, err
	}
	if err := ValidateType(in.Type); err != nil {
		return nil, err
	}
	if err := validateRoomIDs(in.RoomIDs); err != nil {
		return nil, err
	}

	d := &Device{Name: in.Name, Type: in.Type, State: in.State}
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		taken, err := repo.NameTaken(ctx, in.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrDeviceNameTaken
		}

		rooms, err := resolveRooms(ctx, tx, catalog.DedupeIDs(in.RoomIDs))
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, d); err != nil {
			return err
		}
		for _, room := range rooms {
			if _, err := repo.LinkRoom(ctx, d.ID, room.ID); err != nil {
				return err
			}
		}
		d.Rooms = rooms
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("device created", "device_id", d.ID, "name", d.Name, "rooms", len(d.Rooms))
	r.notifier.Notify(catalog.NewEvent(catalog.DeviceCreated, d.ID, map[string]any{
		"name":     d.Name,
		"type":     d.Type,
		"room_ids": d.RoomIDs(),
	}))
	return d, nil
}

// ListDevices returns all devices ordered by ID. With includeRooms false
// every device is returned with an empty room set.
func (r *Registry) ListDevices(ctx context.Context, includeRooms bool) ([]Device, error) {
	var devices []Device
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		var err error
		devices, err = repo.List(ctx)
		if err != nil || !includeRooms {
			return err
		}

		ids := make([]int64, len(devices))
		for i := range devices {
			ids[i] = devices[i].ID
		}
		rooms, err := repo.RoomsFor(ctx, ids)
		if err != nil {
			return err
		}
		for i := range devices {
			devices[i].Rooms = rooms[devices[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// GetDevice returns a device with its rooms.
func (r *Registry) GetDevice(ctx context.Context, id int64) (*Device, error) {
	var d *Device
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		d, err = loadDevice(ctx, NewSQLiteRepository(tx), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDevice applies a partial update. When upd.RoomIDs is set the room
// set is replaced: rooms missing from the list are unlinked and new ones are
// linked, with the same validation as CreateDevice.
func (r *Registry) UpdateDevice(ctx context.Context, id int64, upd DeviceUpdate) (*Device, error) {
	if name, ok := upd.Name.Get(); ok {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
	}
	if typ, ok := upd.Type.Get(); ok {
		if err := ValidateType(typ); err != nil {
			return nil, err
		}
	}
	if ids, ok := upd.RoomIDs.Get(); ok {
		if err := validateRoomIDs(ids); err != nil {
			return nil, err
		}
	}

	var d *Device
	var added, removed []int64
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		var err error
		d, err = loadDevice(ctx, repo, id)
		if err != nil || upd.IsEmpty() {
			return err
		}

		if name, ok := upd.Name.Get(); ok {
			taken, err := repo.NameTaken(ctx, name, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrDeviceNameTaken
			}
			d.Name = name
		}
		if typ, ok := upd.Type.Get(); ok {
			d.Type = typ
		}
		if state, ok := upd.State.Get(); ok {
			d.State = state
		}
		if err := repo.Update(ctx, d); err != nil {
			return err
		}

		if ids, ok := upd.RoomIDs.Get(); ok {
			desired := catalog.DedupeIDs(ids)
			if _, err := resolveRooms(ctx, tx, desired); err != nil {
				return err
			}
			added, removed = catalog.DiffIDs(d.RoomIDs(), desired)
			for _, roomID := range added {
				if _, err := repo.LinkRoom(ctx, id, roomID); err != nil {
					return err
				}
			}
			for _, roomID := range removed {
				if _, err := repo.UnlinkRoom(ctx, id, roomID); err != nil {
					return err
				}
			}
		}

		d, err = loadDevice(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return d, nil
	}

	details := map[string]any{"fields": updatedFields(upd)}
	if upd.RoomIDs.Set {
		details["rooms_added"] = nonNil(added)
		details["rooms_removed"] = nonNil(removed)
	}
	r.logger.Info("device updated", "device_id", id, "fields", details["fields"])
	r.notifier.Notify(catalog.NewEvent(catalog.DeviceUpdated, id, details))
	return d, nil
}

// DeleteDevice removes a device together with its room links and its
// actions. The actions leave every scene that referenced them.
func (r *Registry) DeleteDevice(ctx context.Context, id int64) error {
	var name string
	var actions int
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		d, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		name = d.Name

		actions, err = repo.CountActions(ctx, id)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	r.logger.Info("device deleted", "device_id", id, "name", name, "actions_deleted", actions)
	r.notifier.Notify(catalog.NewEvent(catalog.DeviceDeleted, id, map[string]any{
		"name":            name,
		"actions_deleted": actions,
	}))
	return nil
}

// LinkRoom links a device to a room and returns the device. Linking an
// already linked pair changes nothing.
func (r *Registry) LinkRoom(ctx context.Context, deviceID, roomID int64) (*Device, error) {
	return r.changeLink(ctx, deviceID, roomID, true)
}

// UnlinkRoom removes a device-room link and returns the device. Unlinking a
// pair that is not linked changes nothing.
func (r *Registry) UnlinkRoom(ctx context.Context, deviceID, roomID int64) (*Device, error) {
	return r.changeLink(ctx, deviceID, roomID, false)
}

func (r *Registry) changeLink(ctx context.Context, deviceID, roomID int64, link bool) (*Device, error) {
	var d *Device
	var changed bool
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		repo := NewSQLiteRepository(tx)
		if _, err := repo.Get(ctx, deviceID); err != nil {
			return err
		}
		if _, err := location.NewSQLiteRepository(tx).Get(ctx, roomID); err != nil {
			return err
		}

		var err error
		if link {
			changed, err = repo.LinkRoom(ctx, deviceID, roomID)
		} else {
			changed, err = repo.UnlinkRoom(ctx, deviceID, roomID)
		}
		if err != nil {
			return err
		}
		if changed {
			if err := repo.Touch(ctx, deviceID); err != nil {
				return err
			}
		}

		d, err = loadDevice(ctx, repo, deviceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	typ, verb := catalog.DeviceLinked, "linked"
	if !link {
		typ, verb = catalog.DeviceUnlinked, "unlinked"
	}
	r.logger.Debug("device "+verb, "device_id", deviceID, "room_id", roomID, "changed", changed)
	r.notifier.Notify(catalog.NewEvent(typ, deviceID, map[string]any{
		"room_id": roomID,
		"changed": changed,
	}))
	return d, nil
}

// CountDevices returns the number of devices.
func (r *Registry) CountDevices(ctx context.Context) (int, error) {
	return NewSQLiteRepository(r.db).Count(ctx)
}

// loadDevice reads a device and its rooms through repo.
func loadDevice(ctx context.Context, repo *SQLiteRepository, id int64) (*Device, error) {
	d, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rooms, err := repo.RoomsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	d.Rooms = rooms[id]
	return d, nil
}

// resolveRooms fetches the rooms for a deduplicated id list. It fails with
// ErrInvalidRoomReference unless every id exists.
func resolveRooms(ctx context.Context, q database.Querier, ids []int64) ([]location.Room, error) {
	rooms, err := location.NewSQLiteRepository(q).ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(rooms) != len(ids) {
		return nil, ErrInvalidRoomReference
	}
	return rooms, nil
}

func updatedFields(upd DeviceUpdate) []string {
	var fields []string
	if upd.Name.Set {
		fields = append(fields, "name")
	}
	if upd.Type.Set {
		fields = append(fields, "type")
	}
	if upd.State.Set {
		fields = append(fields, "state")
	}
	if upd.RoomIDs.Set {
		fields = append(fields, "room_ids")
	}
	return fields
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
