package postgres

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-sql/civil"
	"github.com/jackc/pgx/v5/pgtype"

	gddl "checkpost/internal/ddl"
	"checkpost/internal/storage"
	pgddl "checkpost/internal/storage/postgres/ddl"
)

// Dialect is the Postgres flavour of storage.Dialect.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string             { return "postgres" }
func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (Dialect) Quote(id string) string   { return pgddl.QuoteIdent(id) }

func (Dialect) QuoteTable(name string) string { return gddl.QuoteFQN(name, pgddl.QuoteIdent) }

func (Dialect) ColumnType(kind string, size int) string { return pgddl.MapType(kind, size) }

func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return pgddl.BuildCreateTableSQL(t) }

// Encode converts civil values into pgtype values that COPY and query
// parameters encode natively.
func (Dialect) Encode(v any) any {
	switch x := v.(type) {
	case civil.Date:
		return pgtype.Date{Time: time.Date(x.Year, x.Month, x.Day, 0, 0, 0, 0, time.UTC), Valid: true}
	case civil.Time:
		us := int64(x.Hour)*3600e6 + int64(x.Minute)*60e6 + int64(x.Second)*1e6 + int64(x.Nanosecond)/1e3
		return pgtype.Time{Microseconds: us, Valid: true}
	default:
		return v
	}
}

func (Dialect) Year(expr string) string  { return "CAST(EXTRACT(YEAR FROM " + expr + ") AS INTEGER)" }
func (Dialect) Month(expr string) string { return "CAST(EXTRACT(MONTH FROM " + expr + ") AS INTEGER)" }
func (Dialect) MonthName(expr string) string {
	return "TRIM(TO_CHAR(" + expr + ", 'Month'))"
}
func (Dialect) Hour(expr string) string { return "CAST(EXTRACT(HOUR FROM " + expr + ") AS INTEGER)" }
func (Dialect) HourLabel(expr string) string {
	return "TO_CHAR(DATE '2000-01-01' + " + expr + ", 'FMHH12 AM')"
}
func (Dialect) IsTrue(expr string) string { return expr }

func (Dialect) Round(expr string, places int) string {
	return fmt.Sprintf("ROUND(CAST(%s AS numeric), %d)", expr, places)
}

func (Dialect) Limit(n int) string { return fmt.Sprintf(" LIMIT %d", n) }

// normalize converts pgx decoded values into the storage.ResultSet value set.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		if f, err := x.Float64Value(); err == nil && f.Valid {
			return f.Float64
		}
		return nil
	case pgtype.Time:
		if !x.Valid {
			return nil
		}
		secs := x.Microseconds / 1e6
		return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
	case pgtype.Date:
		if !x.Valid {
			return nil
		}
		return x.Time.Format("2006-01-02")
	default:
		return storage.Normalize(v)
	}
}
