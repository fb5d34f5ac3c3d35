package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func createParentChild(t *testing.T, db *DB) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		CREATE TABLE parents (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE) STRICT;
		CREATE TABLE children (
			id INTEGER PRIMARY KEY,
			parent_id INTEGER NOT NULL REFERENCES parents(id) ON DELETE CASCADE
		) STRICT;
	`)
	if err != nil {
		t.Fatalf("creating tables: %v", err)
	}
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

func TestWithTx_Commit(t *testing.T) {
	db := openTestDB(t)
	createParentChild(t, db)
	ctx := context.Background()

	err := WithTx(ctx, db.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO parents (name) VALUES (?)", "a")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
	if n := countRows(t, db, "parents"); n != 1 {
		t.Errorf("parents = %d, want 1", n)
	}
}

func TestWithTx_RollbackKeepsSentinel(t *testing.T) {
	db := openTestDB(t)
	createParentChild(t, db)
	ctx := context.Background()
	errAbort := errors.New("abort")

	err := WithTx(ctx, db.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO parents (name) VALUES (?)", "a"); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("WithTx() error = %v, want %v", err, errAbort)
	}
	if n := countRows(t, db, "parents"); n != 0 {
		t.Errorf("parents = %d after rollback, want 0", n)
	}
}

func TestConstraintDetection(t *testing.T) {
	db := openTestDB(t)
	createParentChild(t, db)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "INSERT INTO parents (id, name) VALUES (1, 'a')"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	_, err := db.ExecContext(ctx, "INSERT INTO parents (name) VALUES ('a')")
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}
	if IsForeignKeyViolation(err) {
		t.Errorf("IsForeignKeyViolation(%v) = true, want false", err)
	}

	_, err = db.ExecContext(ctx, "INSERT INTO children (parent_id) VALUES (99)")
	if !IsForeignKeyViolation(err) {
		t.Errorf("IsForeignKeyViolation(%v) = false, want true", err)
	}

	if IsUniqueViolation(errors.New("other")) || IsUniqueViolation(nil) {
		t.Error("IsUniqueViolation matched a non-sqlite error")
	}
}

func TestForeignKeyCascade(t *testing.T) {
	db := openTestDB(t)
	createParentChild(t, db)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `
		INSERT INTO parents (id, name) VALUES (1, 'a');
		INSERT INTO children (parent_id) VALUES (1), (1);
	`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM parents WHERE id = 1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := countRows(t, db, "children"); n != 0 {
		t.Errorf("children = %d after parent delete, want 0", n)
	}
}
