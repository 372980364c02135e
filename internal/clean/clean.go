// Package clean turns a parsed CSV frame into normalized stop records.
//
// Cleaning never fails on a malformed value: unparseable dates, times, ages
// and booleans become NULL, missing text becomes "Unknown". Every such
// recovery is counted in the Report so callers can surface data quality
// problems instead of silently losing them.
package clean

import (
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"checkpost/internal/records"
	"checkpost/internal/stops"
)

var (
	// ErrNoHeader is returned when the frame has no header columns.
	ErrNoHeader = errors.New("clean: input has no header")
	// ErrNoRows is returned when the frame has a header but no data rows.
	ErrNoRows = errors.New("clean: input has no data rows")
)

// Report describes how the input columns mapped onto the canonical schema and
// how many values needed recovery.
type Report struct {
	Rows int

	// Present lists canonical columns found in the input header.
	Present []string
	// Derived lists canonical columns computed from another input column
	// (driver_age from driver_age_raw, violation from violation_raw).
	Derived []string
	// Synthesized lists canonical columns absent from the input and filled
	// with "Unknown" or NULL.
	Synthesized []string
	// Ignored lists non-canonical input columns.
	Ignored []string
	// Duplicates lists header names that folded onto an earlier column.
	Duplicates []string

	BadDates           int
	BadTimes           int
	BadAges            int
	UnmatchedBools     map[string]int
	ViolationFallbacks int
	DurationRejects    int
	Filled             map[string]int
	Truncated          map[string]int
}

// Recovered returns the total number of values that were nulled or replaced
// because they could not be interpreted.
func (r Report) Recovered() int {
	n := r.BadDates + r.BadTimes + r.BadAges + r.DurationRejects
	for _, c := range r.UnmatchedBools {
		n += c
	}
	for _, c := range r.Truncated {
		n += c
	}
	return n
}

// LogFields renders the report as structured log fields.
func (r Report) LogFields() []zap.Field {
	return []zap.Field{
		zap.Int("rows", r.Rows),
		zap.Strings("present", r.Present),
		zap.Strings("derived", r.Derived),
		zap.Strings("synthesized", r.Synthesized),
		zap.Strings("ignored", r.Ignored),
		zap.Int("bad_dates", r.BadDates),
		zap.Int("bad_times", r.BadTimes),
		zap.Int("bad_ages", r.BadAges),
		zap.Any("unmatched_bools", r.UnmatchedBools),
		zap.Int("violation_fallbacks", r.ViolationFallbacks),
		zap.Int("duration_rejects", r.DurationRejects),
		zap.Any("truncated", r.Truncated),
	}
}

// Result is the output of Run.
type Result struct {
	Records []stops.Record
	Report  Report
}

// Run cleans every row of f.
func Run(f records.Frame) (Result, error) {
	if len(f.Header) == 0 {
		return Result{}, ErrNoHeader
	}
	if f.Len() == 0 {
		return Result{}, ErrNoRows
	}

	c := newCleaner(f.Header)
	out := make([]stops.Record, f.Len())
	for i := range f.Rows {
		out[i] = c.row(f, i)
	}
	c.rep.Rows = len(out)
	return Result{Records: out, Report: c.rep}, nil
}

type cleaner struct {
	idx    map[string]int
	title  cases.Caser
	rep    Report
	hasAge bool
	hasRaw bool
	hasVio bool
	hasVRw bool
}

func newCleaner(header []string) *cleaner {
	fold := cases.Fold()
	c := &cleaner{
		idx:   make(map[string]int, len(header)),
		title: cases.Title(language.Und),
		rep: Report{
			UnmatchedBools: map[string]int{},
			Filled:         map[string]int{},
			Truncated:      map[string]int{},
		},
	}
	for j, h := range header {
		name := strings.TrimSpace(fold.String(h))
		if _, dup := c.idx[name]; dup {
			c.rep.Duplicates = append(c.rep.Duplicates, name)
			continue
		}
		c.idx[name] = j
		if _, ok := stops.Lookup(name); !ok {
			c.rep.Ignored = append(c.rep.Ignored, name)
		}
	}

	_, c.hasAge = c.idx[stops.ColDriverAge]
	_, c.hasRaw = c.idx[stops.ColDriverAgeRaw]
	_, c.hasVio = c.idx[stops.ColViolation]
	_, c.hasVRw = c.idx[stops.ColViolationRaw]

	for _, col := range stops.Columns {
		switch _, ok := c.idx[col]; {
		case ok:
			c.rep.Present = append(c.rep.Present, col)
		case col == stops.ColDriverAge && c.hasRaw,
			col == stops.ColViolation && c.hasVRw:
			c.rep.Derived = append(c.rep.Derived, col)
		default:
			c.rep.Synthesized = append(c.rep.Synthesized, col)
		}
	}
	sort.Strings(c.rep.Ignored)
	return c
}

func (c *cleaner) cell(f records.Frame, i int, col string) any {
	j, ok := c.idx[col]
	if !ok {
		return nil
	}
	return f.Cell(i, j)
}

func (c *cleaner) row(f records.Frame, i int) stops.Record {
	var r stops.Record

	if v := c.cell(f, i, stops.ColStopDate); !missing(v) {
		if r.StopDate = parseDate(v); r.StopDate == nil {
			c.rep.BadDates++
		}
	}
	if v := c.cell(f, i, stops.ColStopTime); !missing(v) {
		if r.StopTime = parseTime(v); r.StopTime == nil {
			c.rep.BadTimes++
		}
	}

	r.DriverAgeRaw = c.age(c.cell(f, i, stops.ColDriverAgeRaw))
	switch {
	case c.hasAge:
		r.DriverAge = c.age(c.cell(f, i, stops.ColDriverAge))
	case c.hasRaw && r.DriverAgeRaw != nil:
		n := *r.DriverAgeRaw
		r.DriverAge = &n
	}

	r.SearchConducted = c.flag(f, i, stops.ColSearchConducted)
	r.IsArrested = c.flag(f, i, stops.ColIsArrested)
	r.DrugsRelatedStop = c.flag(f, i, stops.ColDrugsRelatedStop)

	rawViolation := c.cell(f, i, stops.ColViolationRaw)
	switch {
	case c.hasVio:
		r.Violation = c.text(stops.ColViolation, c.cell(f, i, stops.ColViolation))
	case c.hasVRw:
		r.Violation = c.fit(stops.ColViolation, c.derive(rawViolation))
	default:
		r.Violation = stops.Unknown
	}

	r.CountryName = c.text(stops.ColCountryName, c.cell(f, i, stops.ColCountryName))
	r.DriverGender = c.text(stops.ColDriverGender, c.cell(f, i, stops.ColDriverGender))
	r.DriverRace = c.text(stops.ColDriverRace, c.cell(f, i, stops.ColDriverRace))
	r.ViolationRaw = c.text(stops.ColViolationRaw, rawViolation)
	r.SearchType = c.text(stops.ColSearchType, c.cell(f, i, stops.ColSearchType))
	r.StopOutcome = c.text(stops.ColStopOutcome, c.cell(f, i, stops.ColStopOutcome))
	r.StopDuration = c.duration(c.cell(f, i, stops.ColStopDuration))
	r.VehicleNumber = c.text(stops.ColVehicleNumber, c.cell(f, i, stops.ColVehicleNumber))
	return r
}

func (c *cleaner) age(v any) *int64 {
	if missing(v) {
		return nil
	}
	n := parseAge(v)
	if n == nil {
		c.rep.BadAges++
	}
	return n
}

func (c *cleaner) flag(f records.Frame, i int, col string) *bool {
	v := c.cell(f, i, col)
	if missing(v) {
		return nil
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	b, ok := parseBool(v)
	if !ok {
		c.rep.UnmatchedBools[col]++
	}
	return b
}

// derive maps free-text violation descriptions onto categories. Rules are
// checked in order; the first match wins.
func (c *cleaner) derive(raw any) string {
	if missing(raw) {
		return stops.Unknown
	}
	s := text(raw)
	low := strings.ToLower(s)
	switch {
	case strings.Contains(low, "speed"):
		return "Speeding"
	case strings.Contains(low, "dui"), strings.Contains(low, "drunk"):
		return "DUI"
	case strings.Contains(low, "seat"):
		return "Seatbelt"
	case strings.Contains(low, "equipment"):
		return "Equipment"
	}
	c.rep.ViolationFallbacks++
	// Word boundaries follow Unicode rules, so "driver's license" becomes
	// "Driver's License" and digits do not start a new word.
	return c.title.String(s)
}

func (c *cleaner) text(col string, v any) string {
	if missing(v) {
		if _, ok := c.idx[col]; ok {
			c.rep.Filled[col]++
		}
		return stops.Unknown
	}
	return c.fit(col, text(v))
}

func (c *cleaner) duration(v any) string {
	s := c.text(stops.ColStopDuration, v)
	if s == stops.Unknown {
		return s
	}
	canon, ok := canonicalDuration(s)
	if !ok {
		c.rep.DurationRejects++
		return stops.Unknown
	}
	return canon
}

// fit truncates s to the column width.
func (c *cleaner) fit(col, s string) string {
	meta, _ := stops.Lookup(col)
	out, cut := truncate(s, meta.Size)
	if cut {
		c.rep.Truncated[col]++
	}
	return out
}
