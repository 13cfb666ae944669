// Package migrations embeds the SQL schema migrations applied by cmd/migrate
// and by the integration test harness.
package migrations

import (
	"embed"
	"io/fs"
	"slices"
)

// FS holds the numbered golang-migrate files (NNNNNN_name.{up,down}.sql).
//
//go:embed *.sql
var FS embed.FS

// Up returns the names of the up migrations in application order.
func Up() ([]string, error) {
	names, err := fs.Glob(FS, "*.up.sql")
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}
