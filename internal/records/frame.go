// Package records holds the parser-to-pipeline hand-off types.
package records

// Frame is a parsed table: a header plus loosely-typed positional rows.
//
// Cells are string, int64, float64, bool, time.Time or nil. Rows may be
// shorter than Header; missing trailing cells read as nil.
type Frame struct {
	Header []string
	Rows   [][]any
	// Lines holds the 1-based source line of each row when known.
	Lines []int
}

// Len returns the number of data rows.
func (f Frame) Len() int { return len(f.Rows) }

// Cell returns row[i][j], or nil when j is out of range.
func (f Frame) Cell(i, j int) any {
	row := f.Rows[i]
	if j < 0 || j >= len(row) {
		return nil
	}
	return row[j]
}
