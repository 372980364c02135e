// Package ddl contains MySQL-specific helpers for generating DDL.
package ddl

import (
	"fmt"
	"strings"
)

// MapType maps a logical type string into a MySQL column type. varchar
// without a size becomes TEXT.
func MapType(kind string, size int) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "TINYINT(1)"
	case "date":
		return "DATE"
	case "time":
		return "TIME"
	case "timestamp", "datetime":
		return "DATETIME"
	case "float", "double":
		return "DOUBLE"
	case "varchar":
		if size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", size)
		}
		return "TEXT"
	default:
		return "TEXT"
	}
}
