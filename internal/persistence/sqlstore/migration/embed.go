package migration

import "embed"

// Files holds the schema migrations shipped with the binary.
//
//go:embed sql/*.sql
var Files embed.FS

// Dir is the directory inside Files that holds the migrations.
const Dir = "sql"
