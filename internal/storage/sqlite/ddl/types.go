// Package ddl contains SQLite-specific helpers for generating DDL.
//
// It maps logical column kinds into SQLite column types. The mapping is
// intentionally simple and biased toward affinities the driver round-trips
// without surprises.
package ddl

import "strings"

// MapType maps a logical type string (e.g., "bigint", "bool", "date") into a
// SQLite column type. size is ignored; SQLite does not enforce lengths.
//
// SQLite supports dynamic typing, so this mapping prefers canonical affinities:
//   - integer-ish types -> INTEGER
//   - boolean          -> INTEGER (0/1)
//   - date and time    -> TEXT (ISO-8601), so the driver hands back strings
//     instead of guessing at time.Time
//   - others           -> TEXT
func MapType(kind string, size int) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "INTEGER"
	case "bool", "boolean":
		return "INTEGER"
	case "float", "double", "real":
		return "REAL"
	case "numeric", "decimal":
		return "NUMERIC"
	case "date", "time", "timestamp", "datetime":
		return "TEXT"
	case "blob", "bytes":
		return "BLOB"
	default:
		return "TEXT"
	}
}
