// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"fmt"
	"strings"
)

// MapType normalizes a loosely-specified logical type into a Postgres SQL type.
//
//	"int"/"integer"/"bigint" -> BIGINT
//	"bool"/"boolean"         -> BOOLEAN
//	"date"                   -> DATE
//	"time"                   -> TIME
//	"timestamp"              -> TIMESTAMPTZ
//	"varchar" with size > 0  -> VARCHAR(size)
//	everything else          -> TEXT
func MapType(kind string, size int) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "time":
		return "TIME"
	case "timestamp", "timestamptz":
		return "TIMESTAMPTZ"
	case "varchar":
		if size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", size)
		}
		return "TEXT"
	default:
		return "TEXT"
	}
}
