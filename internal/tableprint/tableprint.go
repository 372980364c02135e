// Package tableprint renders query results as aligned plain-text tables.
// Widths are measured in terminal cells, so wide runes line up.
package tableprint

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/mattn/go-runewidth"
)

// Null is printed for nil cells.
const Null = "NULL"

// MaxCellWidth caps a column; longer cells are truncated with an ellipsis.
const MaxCellWidth = 40

// Write prints columns and rows to w. Numeric cells are right aligned.
func Write(w io.Writer, columns []string, rows [][]any) error {
	cells := make([][]string, len(rows))
	widths := make([]int, len(columns))
	numeric := make([]bool, len(columns))
	for j, c := range columns {
		widths[j] = runewidth.StringWidth(c)
		numeric[j] = true
	}
	seen := make([]bool, len(columns))

	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		for j := range columns {
			var v any
			if j < len(row) {
				v = row[j]
			}
			s, isNum := Format(v)
			if v != nil {
				seen[j] = true
				numeric[j] = numeric[j] && isNum
			}
			s = runewidth.Truncate(s, MaxCellWidth, "…")
			cells[i][j] = s
			if n := runewidth.StringWidth(s); n > widths[j] {
				widths[j] = n
			}
		}
	}
	for j := range numeric {
		numeric[j] = numeric[j] && seen[j]
	}

	bw := bufio.NewWriter(w)
	line := func(vals []string) {
		for j, s := range vals {
			if j > 0 {
				bw.WriteString("  ")
			}
			last := j == len(vals)-1
			switch {
			case numeric[j]:
				bw.WriteString(runewidth.FillLeft(s, widths[j]))
			case last:
				bw.WriteString(s)
			default:
				bw.WriteString(runewidth.FillRight(s, widths[j]))
			}
		}
		bw.WriteByte('\n')
	}

	line(columns)
	rule := make([]string, len(columns))
	for j, n := range widths {
		rule[j] = strings.Repeat("-", n)
	}
	line(rule)
	for _, r := range cells {
		line(r)
	}
	return bw.Flush()
}

// Format renders a single cell and reports whether it is numeric.
func Format(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return Null, false
	case string:
		return x, false
	case []byte:
		return string(x), false
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), false
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02"), false
		}
		return x.Format(time.RFC3339), false
	case civil.Date:
		return x.String(), false
	case civil.Time:
		return x.String(), false
	default:
		return fmt.Sprint(v), false
	}
}
