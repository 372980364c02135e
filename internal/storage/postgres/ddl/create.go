package ddl

import (
	"strings"

	gddl "checkpost/internal/ddl"
)

// Style renders Postgres CREATE TABLE statements with double-quoted
// identifiers and identity columns as BIGINT GENERATED BY DEFAULT AS IDENTITY.
var Style = gddl.Style{
	Name:  "postgres ddl",
	Quote: QuoteIdent,
	Identity: func(gddl.ColumnDef) string {
		return "BIGINT GENERATED BY DEFAULT AS IDENTITY"
	},
	IfNotExists: true,
}

// BuildCreateTableSQL builds a Postgres CREATE TABLE statement for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, Style)
}

// QuoteIdent safely quotes a single identifier segment for Postgres.
func QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
