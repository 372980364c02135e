// Package ddl is a small backend-agnostic model for CREATE TABLE statements.
//
// Backends describe their dialect with a Style (identifier quoting, identity
// column syntax, IF NOT EXISTS support) and render through Render, so column
// validation and statement layout live in one place.
package ddl

import (
	"fmt"
	"strings"
)

// Style captures the dialect-specific parts of a CREATE TABLE statement.
type Style struct {
	// Name prefixes error messages, e.g. "sqlite ddl".
	Name string

	// Quote quotes one identifier segment. Nil emits identifiers verbatim.
	Quote func(string) string

	// Identity renders the type and constraint text of an identity column,
	// replacing "<SQLType> NOT NULL". Nil falls back to the plain rendering.
	Identity func(c ColumnDef) string

	// IfNotExists emits CREATE TABLE IF NOT EXISTS.
	IfNotExists bool
}

// BuildCreateTableSQL renders t with no quoting and no dialect extras.
func BuildCreateTableSQL(t TableDef) (string, error) {
	return Render(t, Style{Name: "ddl"})
}

// Render returns a CREATE TABLE statement for t in the given style:
//
//	CREATE TABLE [IF NOT EXISTS] <fqn> (
//	  <col> <type> [NOT NULL] [DEFAULT <expr>],
//	  ...,
//	  PRIMARY KEY (<pk-cols>)
//	);
func Render(t TableDef, s Style) (string, error) {
	name := s.Name
	if name == "" {
		name = "ddl"
	}
	quote := s.Quote
	if quote == nil {
		quote = func(id string) string { return id }
	}

	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		col := strings.TrimSpace(c.Name)
		if col == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", name, col)
		}

		var sb strings.Builder
		sb.WriteString(quote(col))
		sb.WriteByte(' ')
		if c.Identity && s.Identity != nil {
			sb.WriteString(s.Identity(c))
		} else {
			sb.WriteString(typ)
			if !c.Nullable {
				sb.WriteString(" NOT NULL")
			}
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quote(col))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	verb := "CREATE TABLE "
	if s.IfNotExists {
		verb = "CREATE TABLE IF NOT EXISTS "
	}
	return verb + QuoteFQN(fqn, quote) + " (\n  " + strings.Join(cols, ",\n  ") + "\n);", nil
}
