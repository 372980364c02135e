package mssql

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-sql/civil"

	gddl "checkpost/internal/ddl"
	"checkpost/internal/storage"
	msddl "checkpost/internal/storage/mssql/ddl"
)

// Dialect is the SQL Server flavour of storage.Dialect.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string                  { return "mssql" }
func (Dialect) Placeholder(n int) string      { return "@p" + strconv.Itoa(n) }
func (Dialect) Quote(id string) string        { return msddl.QuoteIdent(id) }
func (Dialect) QuoteTable(name string) string { return gddl.QuoteFQN(name, msddl.QuoteIdent) }

func (Dialect) ColumnType(kind string, size int) string { return msddl.MapType(kind, size) }

func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return msddl.BuildCreateTableSQL(t) }

// Encode converts civil values into time.Time, which both bulk copy and
// query parameters accept for DATE and TIME columns.
func (Dialect) Encode(v any) any {
	switch x := v.(type) {
	case civil.Date:
		return time.Date(x.Year, x.Month, x.Day, 0, 0, 0, 0, time.UTC)
	case civil.Time:
		return time.Date(1, time.January, 1, x.Hour, x.Minute, x.Second, x.Nanosecond, time.UTC)
	default:
		return v
	}
}

func (Dialect) Year(expr string) string      { return "YEAR(" + expr + ")" }
func (Dialect) Month(expr string) string     { return "MONTH(" + expr + ")" }
func (Dialect) MonthName(expr string) string { return "DATENAME(MONTH, " + expr + ")" }
func (Dialect) Hour(expr string) string      { return "DATEPART(HOUR, " + expr + ")" }

func (Dialect) HourLabel(expr string) string {
	return "FORMAT(CAST(" + expr + " AS datetime), 'h tt')"
}

func (Dialect) IsTrue(expr string) string { return expr + " = 1" }

func (Dialect) Round(expr string, places int) string {
	return fmt.Sprintf("ROUND(%s, %d)", expr, places)
}

// Limit requires the query to carry an ORDER BY.
func (Dialect) Limit(n int) string { return fmt.Sprintf(" OFFSET 0 ROWS FETCH NEXT %d ROWS ONLY", n) }
