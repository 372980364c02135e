package sqlite

import (
	"fmt"
	"strings"

	"github.com/golang-sql/civil"

	gddl "checkpost/internal/ddl"
	"checkpost/internal/storage"
	sqliteddl "checkpost/internal/storage/sqlite/ddl"
)

// Dialect is the SQLite flavour of storage.Dialect. Dates and times are
// stored as ISO-8601 TEXT and booleans as 0/1 integers.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string           { return "sqlite" }
func (Dialect) Placeholder(int) string { return "?" }
func (Dialect) Quote(id string) string { return sqliteddl.QuoteIdent(id) }

func (Dialect) QuoteTable(name string) string {
	return gddl.QuoteFQN(name, sqliteddl.QuoteIdent)
}

func (Dialect) ColumnType(kind string, size int) string { return sqliteddl.MapType(kind, size) }

func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) {
	return sqliteddl.BuildCreateTableSQL(t)
}

// Encode renders civil dates and times as text and booleans as 0/1.
func (Dialect) Encode(v any) any {
	switch x := v.(type) {
	case civil.Date:
		return x.String()
	case civil.Time:
		return fmt.Sprintf("%02d:%02d:%02d", x.Hour, x.Minute, x.Second)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}

func (Dialect) Year(expr string) string {
	return "CAST(strftime('%Y', " + expr + ") AS INTEGER)"
}

func (Dialect) Month(expr string) string {
	return "CAST(strftime('%m', " + expr + ") AS INTEGER)"
}

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

func (Dialect) MonthName(expr string) string {
	var sb strings.Builder
	sb.WriteString("CASE strftime('%m', ")
	sb.WriteString(expr)
	sb.WriteString(")")
	for i, m := range monthNames {
		fmt.Fprintf(&sb, " WHEN '%02d' THEN '%s'", i+1, m)
	}
	sb.WriteString(" END")
	return sb.String()
}

func (Dialect) Hour(expr string) string {
	return "CAST(strftime('%H', " + expr + ") AS INTEGER)"
}

func (d Dialect) HourLabel(expr string) string {
	h := d.Hour(expr)
	return "CASE WHEN " + h + " IS NULL THEN NULL" +
		" WHEN " + h + " = 0 THEN '12 AM'" +
		" WHEN " + h + " < 12 THEN " + h + " || ' AM'" +
		" WHEN " + h + " = 12 THEN '12 PM'" +
		" ELSE (" + h + " - 12) || ' PM' END"
}

func (Dialect) IsTrue(expr string) string { return expr + " = 1" }

func (Dialect) Round(expr string, places int) string {
	return fmt.Sprintf("ROUND(%s, %d)", expr, places)
}

func (Dialect) Limit(n int) string { return fmt.Sprintf(" LIMIT %d", n) }
