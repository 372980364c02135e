package ddl

import (
	"strings"

	gddl "checkpost/internal/ddl"
)

// Style renders MySQL CREATE TABLE statements with backtick identifiers and
// AUTO_INCREMENT surrogate keys.
var Style = gddl.Style{
	Name:  "mysql ddl",
	Quote: QuoteIdent,
	Identity: func(gddl.ColumnDef) string {
		return "BIGINT NOT NULL AUTO_INCREMENT"
	},
	IfNotExists: true,
}

// BuildCreateTableSQL returns a MySQL CREATE TABLE statement for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, Style)
}

// QuoteIdent backtick-quotes one identifier.
func QuoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }
