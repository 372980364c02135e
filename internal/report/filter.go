package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-sql/civil"
)

// ErrBadFilter wraps filter parse and range errors.
var ErrBadFilter = errors.New("report: bad filter")

// Filter holds the optional scalar parameters bound into every catalog query
// and into Browse. Zero values mean "no constraint".
type Filter struct {
	From, To  *civil.Date
	Gender    string
	Violation string
	Country   string
	Searched  *bool
}

// Param describes one accepted filter parameter.
type Param struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Params is the parameter schema shared by every catalog entry and Browse.
var Params = []Param{
	{Name: "from", Kind: "date"},
	{Name: "to", Kind: "date"},
	{Name: "gender", Kind: "string"},
	{Name: "violation", Kind: "string"},
	{Name: "searched", Kind: "bool"},
	{Name: "country", Kind: "string"},
}

// IsZero reports whether f constrains nothing.
func (f Filter) IsZero() bool {
	return f.From == nil && f.To == nil && f.Gender == "" && f.Violation == "" && f.Country == "" && f.Searched == nil
}

// Validate rejects inverted date ranges.
func (f Filter) Validate() error {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("%w: from %s is after to %s", ErrBadFilter, f.From, f.To)
	}
	return nil
}

// ParseFilter reads a Filter from string parameters keyed by Params names.
// Empty values leave a parameter unset. String parameters are matched
// literally, so a country named "All" can still be filtered on.
func ParseFilter(get func(string) string) (Filter, error) {
	var f Filter
	val := func(k string) string { return strings.TrimSpace(get(k)) }
	for _, k := range []string{"from", "to"} {
		v := val(k)
		if v == "" {
			continue
		}
		d, err := civil.ParseDate(v)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %s: %v", ErrBadFilter, k, err)
		}
		if k == "from" {
			f.From = &d
		} else {
			f.To = &d
		}
	}
	f.Gender = val("gender")
	f.Violation = val("violation")
	f.Country = val("country")
	switch v := strings.ToLower(val("searched")); v {
	case "", "all":
	case "true", "1", "yes":
		b := true
		f.Searched = &b
	case "false", "0", "no":
		b := false
		f.Searched = &b
	default:
		return Filter{}, fmt.Errorf("%w: searched: %q is not a boolean", ErrBadFilter, v)
	}
	return f, f.Validate()
}
