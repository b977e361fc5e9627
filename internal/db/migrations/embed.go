// Package migrations contiene el esquema SQL versionado.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
