package storage

import "checkpost/internal/ddl"

// Dialect renders the backend-specific fragments of the report SQL and the
// stops table DDL. Expression arguments are SQL text, not values.
type Dialect interface {
	// Name is the storage kind, e.g. "postgres".
	Name() string

	// Placeholder returns the n-th (1-based) bind parameter marker.
	Placeholder(n int) string

	// Quote quotes one identifier.
	Quote(ident string) string

	// QuoteTable quotes a possibly schema-qualified table name.
	QuoteTable(name string) string

	// ColumnType maps a logical kind ("bigint", "date", "time", "bool",
	// "varchar") and size onto a column type.
	ColumnType(kind string, size int) string

	// CreateTableSQL renders a CREATE TABLE statement.
	CreateTableSQL(t ddl.TableDef) (string, error)

	// Encode converts a Go value (civil.Date, civil.Time, bool, int64,
	// string, nil) into a value the driver accepts for this backend.
	Encode(v any) any

	Year(expr string) string
	Month(expr string) string
	MonthName(expr string) string
	Hour(expr string) string
	// HourLabel renders a 12-hour clock label such as "7 AM".
	HourLabel(expr string) string

	// IsTrue renders a predicate that holds when a boolean column is true.
	IsTrue(expr string) string

	// Round rounds a numeric expression to places decimals.
	Round(expr string, places int) string

	// Limit returns the clause that caps an ordered query at n rows.
	Limit(n int) string
}
