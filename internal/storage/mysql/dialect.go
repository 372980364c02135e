package mysql

import (
	"fmt"

	"github.com/golang-sql/civil"

	gddl "checkpost/internal/ddl"
	"checkpost/internal/storage"
	myddl "checkpost/internal/storage/mysql/ddl"
)

// Dialect is the MySQL flavour of storage.Dialect. Dates and times travel
// as ISO strings; the connection does not use parseTime.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string                  { return "mysql" }
func (Dialect) Placeholder(int) string        { return "?" }
func (Dialect) Quote(id string) string        { return myddl.QuoteIdent(id) }
func (Dialect) QuoteTable(name string) string { return gddl.QuoteFQN(name, myddl.QuoteIdent) }

func (Dialect) ColumnType(kind string, size int) string { return myddl.MapType(kind, size) }

func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return myddl.BuildCreateTableSQL(t) }

func (Dialect) Encode(v any) any {
	switch x := v.(type) {
	case civil.Date:
		return x.String()
	case civil.Time:
		return fmt.Sprintf("%02d:%02d:%02d", x.Hour, x.Minute, x.Second)
	default:
		return v
	}
}

func (Dialect) Year(expr string) string      { return "YEAR(" + expr + ")" }
func (Dialect) Month(expr string) string     { return "MONTH(" + expr + ")" }
func (Dialect) MonthName(expr string) string { return "MONTHNAME(" + expr + ")" }
func (Dialect) Hour(expr string) string      { return "HOUR(" + expr + ")" }

func (Dialect) HourLabel(expr string) string { return "TIME_FORMAT(" + expr + ", '%l %p')" }

func (Dialect) IsTrue(expr string) string { return expr + " = 1" }

func (Dialect) Round(expr string, places int) string {
	return fmt.Sprintf("ROUND(%s, %d)", expr, places)
}

func (Dialect) Limit(n int) string { return fmt.Sprintf(" LIMIT %d", n) }
