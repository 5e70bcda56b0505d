package migrations

import "embed"

// FS contiene los archivos SQL versionados para golang-migrate.
//
//go:embed *.sql
var FS embed.FS
