package ddl

import (
	"strings"

	gddl "checkpost/internal/ddl"
)

// Style renders T-SQL column lists with bracketed identifiers and
// IDENTITY(1,1) surrogate keys. T-SQL has no CREATE TABLE IF NOT EXISTS, so
// BuildCreateTableSQL adds an OBJECT_ID guard instead.
var Style = gddl.Style{
	Name:  "mssql ddl",
	Quote: QuoteIdent,
	Identity: func(gddl.ColumnDef) string {
		return "BIGINT IDENTITY(1,1) NOT NULL"
	},
}

// BuildCreateTableSQL returns a T-SQL script that creates t if it does not
// already exist:
//
//	IF OBJECT_ID(N'[schema].[table]', N'U') IS NULL
//	BEGIN
//	CREATE TABLE [schema].[table] (
//	  ...
//	);
//	END
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	create, err := gddl.Render(t, Style)
	if err != nil {
		return "", err
	}
	fqn := gddl.QuoteFQN(t.FQN, QuoteIdent)
	return "IF OBJECT_ID(N'" + strings.ReplaceAll(fqn, "'", "''") + "', N'U') IS NULL\nBEGIN\n" + create + "\nEND", nil
}

// QuoteIdent brackets a SQL Server identifier, escaping closing brackets.
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
