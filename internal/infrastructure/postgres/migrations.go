package postgres

import "embed"

// Migrations holds the schema migrations applied at startup.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations holding the .sql files.
const MigrationsDir = "migrations"
