package report

import (
	"strings"

	"checkpost/internal/stops"
	"checkpost/internal/storage"
)

// query renders one statement. Filter values are only ever bound, so
// the SQL text is identical for every value of the same filter shape.
type query struct {
	d     storage.Dialect
	table string
	f     Filter
	args  []any
}

func newQuery(d storage.Dialect, table string, f Filter) *query {
	return &query{d: d, table: table, f: f}
}

// bind records v and returns its placeholder.
func (q *query) bind(v any) string {
	q.args = append(q.args, q.d.Encode(v))
	return q.d.Placeholder(len(q.args))
}

// c quotes a column name.
func (q *query) c(name string) string { return q.d.Quote(name) }

// isTrue renders a predicate on a boolean column.
func (q *query) isTrue(col string) string { return q.d.IsTrue(q.c(col)) }

// flag renders 1 when col is true and 0 otherwise, NULL included.
func (q *query) flag(col string) string {
	return "CASE WHEN " + q.isTrue(col) + " THEN 1 ELSE 0 END"
}

// flagOrNull renders 1.0/0.0 for true/false and NULL for NULL, for averages
// that exclude missing values.
func (q *query) flagOrNull(col string) string {
	return "CASE WHEN " + q.c(col) + " IS NULL THEN NULL WHEN " + q.isTrue(col) + " THEN 1.0 ELSE 0.0 END"
}

// pct renders ROUND(100.0 * num / NULLIF(den, 0), places).
func (q *query) pct(num, den string, places int) string {
	return q.d.Round("100.0 * "+num+" / NULLIF("+den+", 0)", places)
}

// from renders the row source aliased as src. With no filter it is the
// table itself; otherwise a filtered subquery. It must be called before any
// other bind so placeholders appear in argument order.
func (q *query) from() string {
	conds := q.conditions()
	if len(conds) == 0 {
		return q.d.QuoteTable(q.table) + " src"
	}
	return "(SELECT * FROM " + q.d.QuoteTable(q.table) + " WHERE " + strings.Join(conds, " AND ") + ") src"
}

func (q *query) conditions() []string {
	var conds []string
	if q.f.From != nil {
		conds = append(conds, q.c(stops.ColStopDate)+" >= "+q.bind(*q.f.From))
	}
	if q.f.To != nil {
		conds = append(conds, q.c(stops.ColStopDate)+" <= "+q.bind(*q.f.To))
	}
	if q.f.Gender != "" {
		conds = append(conds, q.c(stops.ColDriverGender)+" = "+q.bind(q.f.Gender))
	}
	if q.f.Violation != "" {
		conds = append(conds, q.c(stops.ColViolation)+" = "+q.bind(q.f.Violation))
	}
	if q.f.Searched != nil {
		conds = append(conds, q.c(stops.ColSearchConducted)+" = "+q.bind(*q.f.Searched))
	}
	if q.f.Country != "" {
		conds = append(conds, q.c(stops.ColCountryName)+" = "+q.bind(q.f.Country))
	}
	return conds
}
