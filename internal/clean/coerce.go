package clean

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"checkpost/internal/stops"
)

// dateLayouts are tried in order for stop_date.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// timeLayout is the only accepted stop_time form.
const timeLayout = "15:04:05"

// boolLookup is the fixed boolean mapping. Keys are matched exactly.
var boolLookup = map[string]bool{
	"True": true, "False": false,
	"true": true, "false": false,
	"TRUE": true, "FALSE": false,
	"1": true, "0": false,
	"y": true, "n": false,
}

// missing reports whether v is an absent cell.
func missing(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return true
	}
	return false
}

// parseDate returns nil when v is missing or matches no layout.
func parseDate(v any) *civil.Date {
	switch x := v.(type) {
	case time.Time:
		d := civil.DateOf(x)
		return &d
	case civil.Date:
		return &x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				d := civil.DateOf(t)
				return &d
			}
		}
	}
	return nil
}

// parseTime accepts HH:MM:SS only.
func parseTime(v any) *civil.Time {
	switch x := v.(type) {
	case time.Time:
		t := civil.TimeOf(x)
		return &t
	case civil.Time:
		return &x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		if t, err := time.Parse(timeLayout, s); err == nil {
			ct := civil.TimeOf(t)
			return &ct
		}
	}
	return nil
}

// parseAge coerces integers directly and rounds floats half away from zero,
// the way a MySQL INT column stores a float literal.
func parseAge(v any) *int64 {
	var f float64
	switch x := v.(type) {
	case int64:
		return &x
	case int:
		n := int64(x)
		return &n
	case float64:
		f = x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return &n
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = p
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	n := int64(math.Round(f))
	return &n
}

// parseBool maps v through boolLookup. ok is false for unmatched values.
func parseBool(v any) (b *bool, ok bool) {
	var out bool
	switch x := v.(type) {
	case bool:
		out = x
	case int64:
		if x != 0 && x != 1 {
			return nil, false
		}
		out = x == 1
	case int:
		if x != 0 && x != 1 {
			return nil, false
		}
		out = x == 1
	case float64:
		if x != 0 && x != 1 {
			return nil, false
		}
		out = x == 1
	case string:
		m, found := boolLookup[x]
		if !found {
			return nil, false
		}
		out = m
	default:
		return nil, false
	}
	return &out, true
}

// text renders a non-missing cell as trimmed text.
func text(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// truncate cuts s to at most n runes. n <= 0 disables the limit.
func truncate(s string, n int) (string, bool) {
	if n <= 0 || len(s) <= n {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s, false
	}
	return string(runes[:n]), true
}

// canonicalDuration maps case and spacing variants onto the bucket names.
func canonicalDuration(s string) (string, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch key {
	case "0-15min":
		return stops.Duration0to15, true
	case "16-30min":
		return stops.Duration16to30, true
	case "30+min":
		return stops.Duration30Plus, true
	}
	return "", false
}
