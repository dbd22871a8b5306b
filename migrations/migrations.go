// Package migrations embeds the SQL applied by db.Migrator. clinic/ runs in
// every clinic schema, shared/ once in the shared schema.
package migrations

import "embed"

//go:embed clinic/*.sql shared/*.sql
var FS embed.FS

const (
	ClinicDir    = "clinic"
	SharedDir    = "shared"
	SharedSchema = "shared"
)
