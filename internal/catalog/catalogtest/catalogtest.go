// Package catalogtest provides helpers shared by the registry tests: a
// migrated scratch database and an event recorder.
package catalogtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/infrastructure/database"

	// Registers the catalog schema.
	_ "github.com/nerrad567/domotica-core/migrations"
)

// OpenDB opens a fresh database in a temp dir and applies every migration.
// The database is closed when the test ends.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "catalog.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db.DB
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

// Recorder is a catalog.Notifier that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []catalog.Event
}

// Notify implements catalog.Notifier.
func (r *Recorder) Notify(ev catalog.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []catalog.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]catalog.Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []catalog.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]catalog.EventType, len(r.events))
	for i, ev := range r.events {
		types[i] = ev.Type
	}
	return types
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
