package ddl

import "strings"

// ColumnDef describes a single column of a table definition.
//
// SQLType is already dialect-specific (e.g. BIGINT, VARCHAR(100)). Default is
// emitted as raw SQL. Identity marks an auto-numbered surrogate key; how it
// renders is up to the dialect's Style.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Identity   bool
	Default    string
}

// TableDef holds a dotted table name and its ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// WithFQN returns a copy of t renamed to fqn. Columns are shared.
func (t TableDef) WithFQN(fqn string) TableDef {
	t.FQN = fqn
	return t
}

// Names returns the column names in order.
func (t TableDef) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// QuoteFQN quotes each dot-separated segment of name with quote, skipping
// empty segments.
func QuoteFQN(name string, quote func(string) string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}
