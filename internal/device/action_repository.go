package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/infrastructure/database"
)

// SQLiteActionRepository persists actions on a database.Querier.
type SQLiteActionRepository struct {
	q database.Querier
}

// NewSQLiteActionRepository creates an action repository running
// statements on q.
func NewSQLiteActionRepository(q database.Querier) *SQLiteActionRepository {
	return &SQLiteActionRepository{q: q}
}

const actionColumns = `a.id, a.description, a.device_id, a.created_at, a.updated_at`

// Create inserts an action.
func (r *SQLiteActionRepository) Create(ctx context.Context, a *Action) error {
	a.Description = catalog.Normalize(a.Description)
	const query = `INSERT INTO actions (device_id, description, description_key) VALUES (?, ?, ?)
		RETURNING id, created_at, updated_at`

	var createdAt, updatedAt string
	err := r.q.QueryRowContext(ctx, query, a.DeviceID, a.Description, catalog.Fold(a.Description)).
		Scan(&a.ID, &createdAt, &updatedAt)
	if err != nil {
		return translateActionError(err, "inserting action")
	}
	a.CreatedAt = database.ParseTime(createdAt)
	a.UpdatedAt = database.ParseTime(updatedAt)
	return nil
}

// Get returns an action by ID.
func (r *SQLiteActionRepository) Get(ctx context.Context, id int64) (*Action, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM actions a WHERE a.id = ?`, id)
	a, err := scanAction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActionNotFound
		}
		return nil, fmt.Errorf("getting action %d: %w", id, err)
	}
	return a, nil
}

// List returns actions ordered by ID, restricted to one device when
// deviceID is set.
func (r *SQLiteActionRepository) List(ctx context.Context, deviceID catalog.Optional[int64]) ([]Action, error) {
	if id, ok := deviceID.Get(); ok {
		return r.queryActions(ctx,
			`SELECT `+actionColumns+` FROM actions a WHERE a.device_id = ? ORDER BY a.id`, id)
	}
	return r.queryActions(ctx, `SELECT `+actionColumns+` FROM actions a ORDER BY a.id`)
}

// Update writes an action's description and owning device.
func (r *SQLiteActionRepository) Update(ctx context.Context, a *Action) error {
	a.Description = catalog.Normalize(a.Description)
	const query = `UPDATE actions
		SET description = ?, description_key = ?, device_id = ?,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`

	res, err := r.q.ExecContext(ctx, query, a.Description, catalog.Fold(a.Description), a.DeviceID, a.ID)
	if err != nil {
		return translateActionError(err, fmt.Sprintf("updating action %d", a.ID))
	}
	return requireOneRow(res, ErrActionNotFound)
}

// Delete removes an action and its scene links.
func (r *SQLiteActionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM actions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting action %d: %w", id, err)
	}
	return requireOneRow(res, ErrActionNotFound)
}

// Count returns the number of actions.
func (r *SQLiteActionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting actions: %w", err)
	}
	return n, nil
}

// DescriptionTaken reports whether deviceID already owns an action other
// than excludeID whose description matches under case folding.
func (r *SQLiteActionRepository) DescriptionTaken(ctx context.Context, deviceID int64, desc string, excludeID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM actions WHERE device_id = ? AND description_key = ? AND id <> ?)`,
		deviceID, catalog.Fold(desc), excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking action description: %w", err)
	}
	return exists, nil
}

func (r *SQLiteActionRepository) queryActions(ctx context.Context, query string, args ...any) ([]Action, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	defer rows.Close()

	actions := []Action{}
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning action row: %w", err)
		}
		actions = append(actions, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating action rows: %w", err)
	}
	return actions, nil
}

func scanAction(row rowScanner) (*Action, error) {
	var a Action
	var createdAt, updatedAt string
	if err := row.Scan(&a.ID, &a.Description, &a.DeviceID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	a.CreatedAt = database.ParseTime(createdAt)
	a.UpdatedAt = database.ParseTime(updatedAt)
	return &a, nil
}

// translateActionError maps constraint failures on the actions table to
// domain errors.
func translateActionError(err error, op string) error {
	switch {
	case database.IsUniqueViolation(err):
		return ErrActionExists
	case database.IsForeignKeyViolation(err):
		return ErrInvalidDeviceReference
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
