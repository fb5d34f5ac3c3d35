// Package migrations embeds the catalog schema migrations into the binary.
//
// Importing this package for its side effect registers the files with the
// database package:
//
//	import _ "github.com/nerrad567/domotica-core/migrations"
package migrations

import (
	"embed"

	"github.com/nerrad567/domotica-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
