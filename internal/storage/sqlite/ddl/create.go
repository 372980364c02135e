package ddl

import (
	"strings"

	gddl "checkpost/internal/ddl"
)

// Style renders SQLite CREATE TABLE statements:
//   - double-quoted identifiers ("table", "col"),
//   - CREATE TABLE IF NOT EXISTS,
//   - identity columns as INTEGER with a table-level PRIMARY KEY, which makes
//     them an alias for the rowid.
var Style = gddl.Style{
	Name:        "sqlite ddl",
	Quote:       QuoteIdent,
	Identity:    func(gddl.ColumnDef) string { return "INTEGER NOT NULL" },
	IfNotExists: true,
}

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, Style)
}

// QuoteIdent double-quotes id, escaping embedded quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
