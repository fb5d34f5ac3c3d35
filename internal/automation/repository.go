package automation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/device"
	"github.com/nerrad567/domotica-core/internal/infrastructure/database"
)

// SQLiteRepository persists scenes and their scene_actions links on a
// database.Querier.
type SQLiteRepository struct {
	q database.Querier
}

// NewSQLiteRepository creates a scene repository running statements on q.
func NewSQLiteRepository(q database.Querier) *SQLiteRepository {
	return &SQLiteRepository{q: q}
}

const sceneColumns = `id, name, activation_keyword, status, created_at, updated_at`

// Create inserts a scene without actions.
func (r *SQLiteRepository) Create(ctx context.Context, s *Scene) error {
	s.Name = catalog.Normalize(s.Name)
	const query = `INSERT INTO scenes (name, name_key, activation_keyword, status) VALUES (?, ?, ?, ?)
		RETURNING id, created_at, updated_at`

	var createdAt, updatedAt string
	err := r.q.QueryRowContext(ctx, query, s.Name, catalog.Fold(s.Name), s.ActivationKeyword, string(s.Status)).
		Scan(&s.ID, &createdAt, &updatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSceneNameTaken
		}
		return fmt.Errorf("inserting scene: %w", err)
	}
	s.CreatedAt = database.ParseTime(createdAt)
	s.UpdatedAt = database.ParseTime(updatedAt)
	return nil
}

// Get returns a scene without its actions.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*Scene, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+sceneColumns+` FROM scenes WHERE id = ?`, id)
	s, err := scanScene(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSceneNotFound
		}
		return nil, fmt.Errorf("getting scene %d: %w", id, err)
	}
	return s, nil
}

// List returns scenes ordered by ID, filtered by a case-insensitive name
// substring when nameFilter is non-empty.
func (r *SQLiteRepository) List(ctx context.Context, nameFilter string) ([]Scene, error) {
	query := `SELECT ` + sceneColumns + ` FROM scenes ORDER BY id`
	var args []any
	if catalog.Normalize(nameFilter) != "" {
		query = `SELECT ` + sceneColumns + ` FROM scenes WHERE name_key LIKE ? ESCAPE '\' ORDER BY id`
		args = append(args, catalog.ContainsPattern(nameFilter))
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scenes: %w", err)
	}
	defer rows.Close()

	scenes := []Scene{}
	for rows.Next() {
		s, err := scanScene(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scene row: %w", err)
		}
		scenes = append(scenes, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scene rows: %w", err)
	}
	return scenes, nil
}

// Update writes a scene's scalar fields.
func (r *SQLiteRepository) Update(ctx context.Context, s *Scene) error {
	s.Name = catalog.Normalize(s.Name)
	const query = `UPDATE scenes
		SET name = ?, name_key = ?, activation_keyword = ?, status = ?,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`

	res, err := r.q.ExecContext(ctx, query,
		s.Name, catalog.Fold(s.Name), s.ActivationKeyword, string(s.Status), s.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSceneNameTaken
		}
		return fmt.Errorf("updating scene %d: %w", s.ID, err)
	}
	return requireOneRow(res)
}

// Touch bumps updated_at after a membership change.
func (r *SQLiteRepository) Touch(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE scenes SET updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("touching scene %d: %w", id, err)
	}
	return requireOneRow(res)
}

// Delete removes a scene and its action links. Actions are kept.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting scene %d: %w", id, err)
	}
	return requireOneRow(res)
}

// Count returns the number of scenes.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting scenes: %w", err)
	}
	return n, nil
}

// NameTaken reports whether a scene other than excludeID has the folded name.
func (r *SQLiteRepository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM scenes WHERE name_key = ? AND id <> ?)`,
		catalog.Fold(name), excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking scene name: %w", err)
	}
	return exists, nil
}

// ActionsFor returns the linked actions of each scene id in insertion
// order. Every requested id has an entry.
func (r *SQLiteRepository) ActionsFor(ctx context.Context, ids []int64) (map[int64][]device.Action, error) {
	result := make(map[int64][]device.Action, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	for _, id := range ids {
		result[id] = []device.Action{}
	}

	in, args := database.InClause(ids)
	query := `SELECT sa.scene_id, a.id, a.description, a.device_id, a.created_at, a.updated_at
		FROM scene_actions sa
		JOIN actions a ON a.id = sa.action_id
		WHERE sa.scene_id IN ` + in + `
		ORDER BY sa.scene_id, sa.rowid`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scene actions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sceneID int64
		var a device.Action
		var createdAt, updatedAt string
		if err := rows.Scan(&sceneID, &a.ID, &a.Description, &a.DeviceID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning scene action: %w", err)
		}
		a.CreatedAt = database.ParseTime(createdAt)
		a.UpdatedAt = database.ParseTime(updatedAt)
		result[sceneID] = append(result[sceneID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scene actions: %w", err)
	}
	return result, nil
}

// AddAction links an action to a scene and reports whether a row was
// inserted.
func (r *SQLiteRepository) AddAction(ctx context.Context, sceneID, actionID int64) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO scene_actions (scene_id, action_id) VALUES (?, ?)`, sceneID, actionID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, fmt.Errorf("scene %d or action %d: %w", sceneID, actionID, catalog.ErrNotFound)
		}
		return false, fmt.Errorf("adding action %d to scene %d: %w", actionID, sceneID, err)
	}
	return affected(res)
}

// RemoveAction unlinks an action from a scene and reports whether a row was
// deleted.
func (r *SQLiteRepository) RemoveAction(ctx context.Context, sceneID, actionID int64) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM scene_actions WHERE scene_id = ? AND action_id = ?`, sceneID, actionID)
	if err != nil {
		return false, fmt.Errorf("removing action %d from scene %d: %w", actionID, sceneID, err)
	}
	return affected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScene(row rowScanner) (*Scene, error) {
	s := Scene{Actions: []device.Action{}}
	var keyword sql.NullString
	var status, createdAt, updatedAt string
	if err := row.Scan(&s.ID, &s.Name, &keyword, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if keyword.Valid {
		s.ActivationKeyword = &keyword.String
	}
	s.Status = Status(status)
	s.CreatedAt = database.ParseTime(createdAt)
	s.UpdatedAt = database.ParseTime(updatedAt)
	return &s, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n > 0, nil
}

func requireOneRow(res sql.Result) error {
	changed, err := affected(res)
	if err != nil {
		return err
	}
	if !changed {
		return ErrSceneNotFound
	}
	return nil
}
