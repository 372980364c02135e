package report

import (
	"fmt"
	"sort"

	"checkpost/internal/stops"
)

// Bar is one bar of a chart. Width is Value scaled to the largest bar, in
// percent, for direct use in templates.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Width float64 `json:"width"`
}

// Segment is one stacked part of a GroupBar.
type Segment struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// GroupBar is a bar split into named segments.
type GroupBar struct {
	Label    string    `json:"label"`
	Total    int64     `json:"total"`
	Segments []Segment `json:"segments"`
}

// Bars extracts the chart series of r. It returns nil when r has no chart or
// the chart columns are missing. Rows with a non-numeric value are skipped.
func (r Result) Bars() []Bar {
	if r.Chart == nil {
		return nil
	}
	xi, yi := index(r.Columns, r.Chart.X), index(r.Columns, r.Chart.Y)
	if xi < 0 || yi < 0 {
		return nil
	}
	out := make([]Bar, 0, len(r.Rows))
	var top float64
	for _, row := range r.Rows {
		v, ok := asFloat(row[yi])
		if !ok {
			continue
		}
		if v > top {
			top = v
		}
		out = append(out, Bar{Label: label(row[xi]), Value: v})
	}
	for i := range out {
		if top > 0 {
			out[i].Width = 100 * out[i].Value / top
		}
	}
	return out
}

// ViolationsByGender counts browse rows per violation, split by driver
// gender. Bars are ordered by total descending, then label.
func (r Result) ViolationsByGender() []GroupBar {
	vi, gi := index(r.Columns, stops.ColViolation), index(r.Columns, stops.ColDriverGender)
	if vi < 0 || gi < 0 {
		return nil
	}
	groups := map[string]map[string]int64{}
	for _, row := range r.Rows {
		v, g := label(row[vi]), label(row[gi])
		if groups[v] == nil {
			groups[v] = map[string]int64{}
		}
		groups[v][g]++
	}
	out := make([]GroupBar, 0, len(groups))
	for v, byGender := range groups {
		gb := GroupBar{Label: v}
		for g, n := range byGender {
			gb.Total += n
			gb.Segments = append(gb.Segments, Segment{Name: g, Count: n})
		}
		sort.Slice(gb.Segments, func(i, j int) bool { return gb.Segments[i].Name < gb.Segments[j].Name })
		out = append(out, gb)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func index(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

func label(v any) string {
	if v == nil {
		return stops.Unknown
	}
	return fmt.Sprint(v)
}
