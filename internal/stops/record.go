package stops

import (
	"strconv"

	"github.com/golang-sql/civil"
)

// Record is one normalized traffic-stop observation. Nil pointers are SQL
// NULLs; text fields are never empty once cleaned.
type Record struct {
	StopDate         *civil.Date
	StopTime         *civil.Time
	CountryName      string
	DriverGender     string
	DriverAgeRaw     *int64
	DriverAge        *int64
	DriverRace       string
	ViolationRaw     string
	Violation        string
	SearchConducted  *bool
	SearchType       string
	StopOutcome      string
	IsArrested       *bool
	StopDuration     string
	DrugsRelatedStop *bool
	VehicleNumber    string
}

// Values returns the record's fields in Columns order. Nullable fields are
// returned as untyped nil or as civil.Date, civil.Time, int64 and bool;
// backends encode them for their driver.
func (r Record) Values() []any {
	return []any{
		dateVal(r.StopDate),
		timeVal(r.StopTime),
		r.CountryName,
		r.DriverGender,
		intVal(r.DriverAgeRaw),
		intVal(r.DriverAge),
		r.DriverRace,
		r.ViolationRaw,
		r.Violation,
		boolVal(r.SearchConducted),
		r.SearchType,
		r.StopOutcome,
		boolVal(r.IsArrested),
		r.StopDuration,
		boolVal(r.DrugsRelatedStop),
		r.VehicleNumber,
	}
}

// AppendCanonical appends a stable byte encoding of the record to dst. Two
// records encode identically iff all sixteen fields are equal.
func (r Record) AppendCanonical(dst []byte) []byte {
	for i, v := range r.Values() {
		if i > 0 {
			dst = append(dst, 0x1f)
		}
		switch x := v.(type) {
		case nil:
			dst = append(dst, 0x00)
		case string:
			dst = strconv.AppendQuote(dst, x)
		case int64:
			dst = strconv.AppendInt(dst, x, 10)
		case bool:
			dst = strconv.AppendBool(dst, x)
		case civil.Date:
			dst = append(dst, x.String()...)
		case civil.Time:
			dst = append(dst, x.String()...)
		}
	}
	return append(dst, 0x1e)
}

func dateVal(d *civil.Date) any {
	if d == nil {
		return nil
	}
	return *d
}

func timeVal(t *civil.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func intVal(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}

func boolVal(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
