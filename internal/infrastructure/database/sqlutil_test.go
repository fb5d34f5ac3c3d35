package database

import (
	"context"
	"testing"
)

func TestInClause_BeyondHostParameterLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `CREATE TABLE items (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("creating table: %v", err)
	}
	if _, err := db.ExecContext(ctx, `WITH RECURSIVE seq(n) AS (
			SELECT 1 UNION ALL SELECT n + 1 FROM seq WHERE n < 40000
		) INSERT INTO items (id) SELECT n FROM seq`); err != nil {
		t.Fatalf("seeding items: %v", err)
	}

	// Every even id up to 80000; only the ones <= 40000 exist.
	ids := make([]int64, 0, 40000)
	for i := int64(2); i <= 80000; i += 2 {
		ids = append(ids, i)
	}

	in, args := InClause(ids)
	if len(args) != 1 {
		t.Fatalf("len(args) = %d, want 1", len(args))
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id IN `+in, args...).Scan(&n); err != nil {
		t.Fatalf("query error = %v", err)
	}
	if n != 20000 {
		t.Errorf("matched %d rows, want 20000", n)
	}
}

func TestInClause_Empty(t *testing.T) {
	db := openTestDB(t)

	in, args := InClause(nil)
	var n int
	if err := db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM (SELECT 1 AS id) WHERE id IN `+in, args...).Scan(&n); err != nil {
		t.Fatalf("query error = %v", err)
	}
	if n != 0 {
		t.Errorf("matched %d rows, want 0", n)
	}
}
