package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered schema history; each file registers one step and
// bun names it after that file.
var Migrations = migrate.NewMigrations()
