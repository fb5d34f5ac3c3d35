// Package database provides SQLite connectivity for the domotica catalog.
//
// It manages:
//   - The connection, opened with WAL mode, a busy timeout and foreign keys on
//   - Embedded schema migrations tracked in schema_migrations
//   - Transaction scoping for registry operations (WithTx)
//   - Translation of SQLite constraint failures (IsUniqueViolation,
//     IsForeignKeyViolation)
//
// Foreign keys must be enabled on every connection: the catalog relies on
// ON DELETE CASCADE to remove join rows and a device's actions. The DSN built
// by Open sets _foreign_keys=on, and the pool is limited to one connection,
// which also serialises writers.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "./data/domotica.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations package and are named
// YYYYMMDD_HHMMSS_description.up.sql / .down.sql.
package database
