// Package appdb holds all the migrations for the application database
package appdb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection all numbered migration files register into.
var Migrations = migrate.NewMigrations()
