package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/infrastructure/database"
	"github.com/nerrad567/domotica-core/internal/location"
)

// SQLiteRepository persists devices and their device_rooms links on a
// database.Querier.
type SQLiteRepository struct {
	q database.Querier
}

// NewSQLiteRepository creates a device repository running statements on q.
func NewSQLiteRepository(q database.Querier) *SQLiteRepository {
	return &SQLiteRepository{q: q}
}

const deviceColumns = `id, name, type, state, created_at, updated_at`

// Create inserts a device row. Room links are added separately.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	d.Name = catalog.Normalize(d.Name)
	d.Type = catalog.Normalize(d.Type)
	const query = `INSERT INTO devices (name, name_key, type, state) VALUES (?, ?, ?, ?)
		RETURNING id, created_at, updated_at`

	var createdAt, updatedAt string
	err := r.q.QueryRowContext(ctx, query, d.Name, catalog.Fold(d.Name), d.Type, d.State).
		Scan(&d.ID, &createdAt, &updatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDeviceNameTaken
		}
		return fmt.Errorf("inserting device: %w", err)
	}
	d.CreatedAt = database.ParseTime(createdAt)
	d.UpdatedAt = database.ParseTime(updatedAt)
	return nil
}

// Get returns a device without its rooms.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*Device, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("getting device %d: %w", id, err)
	}
	return d, nil
}

// List returns all devices ordered by ID, without rooms.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}
	return devices, nil
}

// Update writes the scalar fields of a device.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	d.Name = catalog.Normalize(d.Name)
	d.Type = catalog.Normalize(d.Type)
	const query = `UPDATE devices
		SET name = ?, name_key = ?, type = ?, state = ?,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`

	res, err := r.q.ExecContext(ctx, query, d.Name, catalog.Fold(d.Name), d.Type, d.State, d.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDeviceNameTaken
		}
		return fmt.Errorf("updating device %d: %w", d.ID, err)
	}
	return requireOneRow(res, ErrDeviceNotFound)
}

// Touch bumps updated_at, used when only the room set changed.
func (r *SQLiteRepository) Touch(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE devices SET updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("touching device %d: %w", id, err)
	}
	return requireOneRow(res, ErrDeviceNotFound)
}

// Delete removes a device. Its room links and actions go with it.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting device %d: %w", id, err)
	}
	return requireOneRow(res, ErrDeviceNotFound)
}

// Exists reports whether a device with the id exists.
func (r *SQLiteRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM devices WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking device %d: %w", id, err)
	}
	return exists, nil
}

// Count returns the number of devices.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting devices: %w", err)
	}
	return n, nil
}

// NameTaken reports whether a device other than excludeID has the folded name.
func (r *SQLiteRepository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM devices WHERE name_key = ? AND id <> ?)`,
		catalog.Fold(name), excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking device name: %w", err)
	}
	return exists, nil
}

// RoomsFor returns the rooms linked to each of ids, keyed by device id.
// Every requested id has an entry, possibly an empty slice; rooms are
// ordered by room ID.
func (r *SQLiteRepository) RoomsFor(ctx context.Context, ids []int64) (map[int64][]location.Room, error) {
	result := make(map[int64][]location.Room, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	for _, id := range ids {
		result[id] = []location.Room{}
	}

	in, args := database.InClause(ids)
	query := `SELECT dr.device_id, r.id, r.name, r.created_at, r.updated_at
		FROM device_rooms dr
		JOIN rooms r ON r.id = dr.room_id
		WHERE dr.device_id IN ` + in + `
		ORDER BY dr.device_id, r.id`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying device rooms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var deviceID int64
		var room location.Room
		var createdAt, updatedAt string
		if err := rows.Scan(&deviceID, &room.ID, &room.Name, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning device room: %w", err)
		}
		room.CreatedAt = database.ParseTime(createdAt)
		room.UpdatedAt = database.ParseTime(updatedAt)
		result[deviceID] = append(result[deviceID], room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rooms: %w", err)
	}
	return result, nil
}

// LinkRoom adds a link and reports whether a row was inserted. A missing device or room surfaces as
// ErrInvalidRoomReference through the foreign keys.
func (r *SQLiteRepository) LinkRoom(ctx context.Context, deviceID, roomID int64) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO device_rooms (device_id, room_id) VALUES (?, ?)`, deviceID, roomID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, ErrInvalidRoomReference
		}
		return false, fmt.Errorf("linking device %d to room %d: %w", deviceID, roomID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n > 0, nil
}

// UnlinkRoom removes a link and reports whether a row was deleted.
func (r *SQLiteRepository) UnlinkRoom(ctx context.Context, deviceID, roomID int64) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM device_rooms WHERE device_id = ? AND room_id = ?`, deviceID, roomID)
	if err != nil {
		return false, fmt.Errorf("unlinking device %d from room %d: %w", deviceID, roomID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n > 0, nil
}

// CountActions returns how many actions the device owns.
func (r *SQLiteRepository) CountActions(ctx context.Context, deviceID int64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions WHERE device_id = ?`, deviceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting actions of device %d: %w", deviceID, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*Device, error) {
	d := Device{Rooms: []location.Room{}}
	var createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.Name, &d.Type, &d.State, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.CreatedAt = database.ParseTime(createdAt)
	d.UpdatedAt = database.ParseTime(updatedAt)
	return &d, nil
}

// requireOneRow maps a zero-row UPDATE or DELETE to notFound.
func requireOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
