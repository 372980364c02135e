// Package ddl contains MSSQL-specific helpers for generating DDL.
//
// It maps logical column kinds into SQL Server types. The mapping is
// intentionally conservative and biased toward safe, widely-supported choices.
package ddl

import (
	"fmt"
	"strings"
)

// MapType maps a logical type string into a SQL Server column type.
//
// Unknown or empty kinds, and varchar without a size, fall back to
// NVARCHAR(MAX).
func MapType(kind string, size int) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BIT"
	case "date":
		return "DATE"
	case "time":
		return "TIME(0)"
	case "timestamp", "datetime", "timestamptz":
		return "DATETIME2"
	case "float", "double", "numeric", "decimal":
		return "DECIMAL(38, 10)"
	case "varchar":
		if size > 0 && size <= 4000 {
			return fmt.Sprintf("NVARCHAR(%d)", size)
		}
		return "NVARCHAR(MAX)"
	default:
		return "NVARCHAR(MAX)"
	}
}
