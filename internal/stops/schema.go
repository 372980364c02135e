// Package stops defines the normalized traffic-stop record and the fixed
// relational schema it is persisted into.
//
// Columns is the single source of column order: the DDL, the bulk insert and
// the browse projection all iterate it, so a record's positional values
// always line up with the table.
package stops

import "checkpost/internal/ddl"

// Canonical column names.
const (
	ColID               = "id"
	ColStopDate         = "stop_date"
	ColStopTime         = "stop_time"
	ColCountryName      = "country_name"
	ColDriverGender     = "driver_gender"
	ColDriverAgeRaw     = "driver_age_raw"
	ColDriverAge        = "driver_age"
	ColDriverRace       = "driver_race"
	ColViolationRaw     = "violation_raw"
	ColViolation        = "violation"
	ColSearchConducted  = "search_conducted"
	ColSearchType       = "search_type"
	ColStopOutcome      = "stop_outcome"
	ColIsArrested       = "is_arrested"
	ColStopDuration     = "stop_duration"
	ColDrugsRelatedStop = "drugs_related_stop"
	ColVehicleNumber    = "vehicle_number"
)

// Kind is the logical type of a column. Backends map it onto SQL types.
type Kind string

const (
	KindInt  Kind = "bigint"
	KindDate Kind = "date"
	KindTime Kind = "time"
	KindBool Kind = "bool"
	KindText Kind = "varchar"
)

// Column describes one canonical column.
type Column struct {
	Name string
	Kind Kind
	// Size is the maximum length in characters for KindText columns.
	Size int
}

// Schema lists the canonical columns in persisted order (without the
// surrogate id).
var Schema = []Column{
	{Name: ColStopDate, Kind: KindDate},
	{Name: ColStopTime, Kind: KindTime},
	{Name: ColCountryName, Kind: KindText, Size: 100},
	{Name: ColDriverGender, Kind: KindText, Size: 20},
	{Name: ColDriverAgeRaw, Kind: KindInt},
	{Name: ColDriverAge, Kind: KindInt},
	{Name: ColDriverRace, Kind: KindText, Size: 50},
	{Name: ColViolationRaw, Kind: KindText, Size: 200},
	{Name: ColViolation, Kind: KindText, Size: 100},
	{Name: ColSearchConducted, Kind: KindBool},
	{Name: ColSearchType, Kind: KindText, Size: 100},
	{Name: ColStopOutcome, Kind: KindText, Size: 50},
	{Name: ColIsArrested, Kind: KindBool},
	{Name: ColStopDuration, Kind: KindText, Size: 50},
	{Name: ColDrugsRelatedStop, Kind: KindBool},
	{Name: ColVehicleNumber, Kind: KindText, Size: 30},
}

// Columns is the ordered list of canonical column names.
var Columns = func() []string {
	out := make([]string, len(Schema))
	for i, c := range Schema {
		out[i] = c.Name
	}
	return out
}()

var byName = func() map[string]Column {
	m := make(map[string]Column, len(Schema))
	for _, c := range Schema {
		m[c.Name] = c
	}
	return m
}()

// Lookup returns the canonical column with the given name.
func Lookup(name string) (Column, bool) {
	c, ok := byName[name]
	return c, ok
}

// Unknown is the fill value for missing text.
const Unknown = "Unknown"

// Stop duration buckets.
const (
	Duration0to15  = "0-15 Min"
	Duration16to30 = "16-30 Min"
	Duration30Plus = "30+ Min"
)

// Durations lists the valid stop_duration values besides Unknown.
var Durations = []string{Duration0to15, Duration16to30, Duration30Plus}

// ColumnTypeFunc maps a logical kind and size to a backend SQL type.
type ColumnTypeFunc func(kind Kind, size int) string

// TableDef returns the table definition for fqn: a surrogate identity id
// followed by Schema, typed through colType.
func TableDef(fqn string, colType ColumnTypeFunc) ddl.TableDef {
	cols := make([]ddl.ColumnDef, 0, len(Schema)+1)
	cols = append(cols, ddl.ColumnDef{
		Name:       ColID,
		SQLType:    colType(KindInt, 0),
		PrimaryKey: true,
		Identity:   true,
	})
	for _, c := range Schema {
		cols = append(cols, ddl.ColumnDef{
			Name:     c.Name,
			SQLType:  colType(c.Kind, c.Size),
			Nullable: true,
		})
	}
	return ddl.TableDef{FQN: fqn, Columns: cols}
}
