package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
)

func useMigrations(t *testing.T, files fstest.MapFS) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = origFS, origDir
	})
	MigrationsFS = files
	MigrationsDir = "sql"
}

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"sql/20260101_000000_create_users.up.sql": {
			Data: []byte("CREATE TABLE test_users (id INTEGER PRIMARY KEY, name TEXT NOT NULL) STRICT;"),
		},
		"sql/20260101_000000_create_users.down.sql": {
			Data: []byte("DROP TABLE test_users;"),
		},
		"sql/20260102_000000_add_pets.up.sql": {
			Data: []byte("CREATE TABLE test_pets (id INTEGER PRIMARY KEY) STRICT;"),
		},
		"sql/README.md": {Data: []byte("ignored")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	useMigrations(t, testMigrations())
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "test_users") || !tableExists(t, db, "test_pets") {
		t.Fatal("migrations did not create tables")
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d, want 2 and 0", len(applied), len(pending))
	}
	if applied[0].Version != "20260101_000000" {
		t.Errorf("first applied = %q, want 20260101_000000", applied[0].Version)
	}

	// Idempotent.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	useMigrations(t, testMigrations())
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Latest migration has no down file.
	err := db.MigrateDown(ctx)
	if !errors.Is(err, ErrNoDownMigration) {
		t.Fatalf("MigrateDown() error = %v, want ErrNoDownMigration", err)
	}
	if !tableExists(t, db, "test_pets") {
		t.Error("failed rollback must leave test_pets in place")
	}
}

func TestMigrateDown_RemovesLatest(t *testing.T) {
	files := testMigrations()
	delete(files, "sql/20260102_000000_add_pets.up.sql")
	useMigrations(t, files)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "test_users") {
		t.Error("test_users should have been dropped")
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 0 || len(pending) != 1 {
		t.Errorf("applied=%d pending=%d, want 0 and 1", len(applied), len(pending))
	}

	// Nothing left to roll back.
	if err := db.MigrateDown(ctx); err != nil {
		t.Errorf("MigrateDown() on empty history error = %v", err)
	}
}

func TestMigrateNoMigrations(t *testing.T) {
	origFS := MigrationsFS
	t.Cleanup(func() { MigrationsFS = origFS })
	MigrationsFS = nil

	db := openTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() with no migrations error = %v", err)
	}
}

func TestMigrate_FailureRollsBackThatMigration(t *testing.T) {
	useMigrations(t, fstest.MapFS{
		"sql/20260101_000000_ok.up.sql":     {Data: []byte("CREATE TABLE ok_table (id INTEGER PRIMARY KEY);")},
		"sql/20260102_000000_broken.up.sql": {Data: []byte("CREATE TABLE half (id INTEGER); SELECT * FROM missing_table;")},
	})
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err == nil {
		t.Fatal("Migrate() expected error for broken migration")
	}
	if !tableExists(t, db, "ok_table") {
		t.Error("earlier migration should stay applied")
	}
	if tableExists(t, db, "half") {
		t.Error("broken migration should be rolled back")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{"valid up", "20260118_120000_create_users.up.sql", "20260118_120000", true, true},
		{"valid down", "20260118_120000_create_users.down.sql", "20260118_120000", false, true},
		{"not sql", "readme.txt", "", false, false},
		{"missing direction", "20260118_120000_create_users.sql", "", false, false},
		{"invalid format", "invalid.up.sql", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && (version != tt.wantVersion || isUp != tt.wantIsUp) {
				t.Errorf("got (%q, %v), want (%q, %v)", version, isUp, tt.wantVersion, tt.wantIsUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20260118_120000_create_users.up.sql", "create_users"},
		{"20260118_120000_initial_schema.down.sql", "initial_schema"},
		{"20260118_120000_add_email_to_users.up.sql", "add_email_to_users"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extractMigrationName(tt.filename); got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
