package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/infrastructure/database"
)

// SQLiteRepository persists rooms on a database.Querier, so it can be
// bound to the pool or to a single transaction.
type SQLiteRepository struct {
	q database.Querier
}

// NewSQLiteRepository creates a room repository running statements on q.
func NewSQLiteRepository(q database.Querier) *SQLiteRepository {
	return &SQLiteRepository{q: q}
}

const roomColumns = `id, name, created_at, updated_at`

// Create inserts a room and fills in its ID and timestamps. The name is
// stored normalized.
func (r *SQLiteRepository) Create(ctx context.Context, room *Room) error {
	room.Name = catalog.Normalize(room.Name)
	const query = `INSERT INTO rooms (name, name_key) VALUES (?, ?)
		RETURNING id, created_at, updated_at`

	var createdAt, updatedAt string
	err := r.q.QueryRowContext(ctx, query, room.Name, catalog.Fold(room.Name)).
		Scan(&room.ID, &createdAt, &updatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrRoomNameTaken
		}
		return fmt.Errorf("inserting room: %w", err)
	}
	room.CreatedAt = database.ParseTime(createdAt)
	room.UpdatedAt = database.ParseTime(updatedAt)
	return nil
}

// Get returns a single room by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*Room, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("getting room %d: %w", id, err)
	}
	return room, nil
}

// List returns rooms ordered by ID. A non-empty nameFilter keeps rooms whose
// name contains it, ignoring case.
func (r *SQLiteRepository) List(ctx context.Context, nameFilter string) ([]Room, error) {
	if catalog.Normalize(nameFilter) == "" {
		return r.queryRooms(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	}
	return r.queryRooms(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE name_key LIKE ? ESCAPE '\' ORDER BY id`,
		catalog.ContainsPattern(nameFilter),
	)
}

// ListByIDs returns the rooms among ids that exist, ordered by ID. Missing
// ids are silently skipped; callers compare lengths to detect them.
func (r *SQLiteRepository) ListByIDs(ctx context.Context, ids []int64) ([]Room, error) {
	if len(ids) == 0 {
		return []Room{}, nil
	}
	in, args := database.InClause(ids)
	return r.queryRooms(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id IN `+in+` ORDER BY id`, args...)
}

// Update renames a room.
func (r *SQLiteRepository) Update(ctx context.Context, room *Room) error {
	room.Name = catalog.Normalize(room.Name)
	const query = `UPDATE rooms
		SET name = ?, name_key = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`

	res, err := r.q.ExecContext(ctx, query, room.Name, catalog.Fold(room.Name), room.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrRoomNameTaken
		}
		return fmt.Errorf("updating room %d: %w", room.ID, err)
	}
	return requireOneRow(res)
}

// Delete removes a room. The schema refuses to delete a room that is still
// linked; that case is reported as ErrRoomHasDevices.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrRoomHasDevices
		}
		return fmt.Errorf("deleting room %d: %w", id, err)
	}
	return requireOneRow(res)
}

// Count returns the number of rooms.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rooms: %w", err)
	}
	return n, nil
}

// NameTaken reports whether a room other than excludeID has a name equal
// to name under case folding.
func (r *SQLiteRepository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM rooms WHERE name_key = ? AND id <> ?)`,
		catalog.Fold(name), excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking room name: %w", err)
	}
	return exists, nil
}

// CountLinkedDevices returns how many devices are linked to the room.
func (r *SQLiteRepository) CountLinkedDevices(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM device_rooms WHERE room_id = ?`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting devices in room %d: %w", id, err)
	}
	return n, nil
}

// ListLinkedDevices returns summaries of the devices linked to the room,
// ordered by device ID.
func (r *SQLiteRepository) ListLinkedDevices(ctx context.Context, id int64) ([]LinkedDevice, error) {
	const query = `SELECT d.id, d.name, d.type, d.state
		FROM device_rooms dr
		JOIN devices d ON d.id = dr.device_id
		WHERE dr.room_id = ?
		ORDER BY d.id`

	rows, err := r.q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying devices in room %d: %w", id, err)
	}
	defer rows.Close()

	devices := []LinkedDevice{}
	for rows.Next() {
		var d LinkedDevice
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.State); err != nil {
			return nil, fmt.Errorf("scanning linked device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating linked devices: %w", err)
	}
	return devices, nil
}

// queryRooms executes a query and returns the rooms it selects.
// The result is never nil.
func (r *SQLiteRepository) queryRooms(ctx context.Context, query string, args ...any) ([]Room, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	rooms := []Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		rooms = append(rooms, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room rows: %w", err)
	}
	return rooms, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*Room, error) {
	var room Room
	var createdAt, updatedAt string
	if err := row.Scan(&room.ID, &room.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	room.CreatedAt = database.ParseTime(createdAt)
	room.UpdatedAt = database.ParseTime(updatedAt)
	return &room, nil
}

// requireOneRow maps a zero-row UPDATE or DELETE to ErrRoomNotFound.
func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}
