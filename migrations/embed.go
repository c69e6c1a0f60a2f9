// Package migrations embeds the SQL schema migrations into the binary.
//
// Migrations follow the naming convention NNN_description.up.sql and
// NNN_description.down.sql, applied in version order at startup.
package migrations

import (
	"embed"

	"github.com/unrealfeathers/home-server/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
}
