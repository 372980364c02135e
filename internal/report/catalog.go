package report

import (
	"fmt"
	"sort"

	"checkpost/internal/stops"
	"checkpost/internal/storage"
)

// Categories group catalog entries in menus.
const (
	CategoryVehicle     = "vehicle"
	CategoryDemographic = "demographic"
	CategoryTime        = "time"
	CategoryViolation   = "violation"
	CategoryLocation    = "location"
	CategoryComposite   = "composite"
)

// Policy constants shared by the catalog queries.
const (
	// MinSample is the smallest group the guarded entries report on.
	MinSample = 50
	// YoungDriverAge is the exclusive upper bound for "young" drivers.
	YoungDriverAge = 25
	// DayStartHour and NightStartHour split the clock into day and night.
	DayStartHour   = 6
	NightStartHour = 18

	AgeUnder20 = "Under 20"
	Age20to29  = "20-29"
	Age30to39  = "30-39"
	Age40Plus  = "40+"

	PeriodDay   = "Daytime (6AM-6PM)"
	PeriodNight = "Nighttime (6PM-6AM)"
)

// Chart names the category and value columns of a bar chart.
type Chart struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// Entry is one named report.
type Entry struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Columns  []string `json:"columns"`
	Chart    *Chart   `json:"chart,omitempty"`
	Params   []Param  `json:"params"`

	build func(q *query) string
}

// SQL renders e for d against table with f bound. It returns the statement
// and its positional arguments.
func (e Entry) SQL(d storage.Dialect, table string, f Filter) (string, []any) {
	q := newQuery(d, table, f)
	return e.build(q), q.args
}

// Catalog is the fixed, ordered set of reports.
type Catalog struct {
	entries []Entry
	byID    map[string]int
}

// NewCatalog returns the built-in catalog.
func NewCatalog() *Catalog {
	c := &Catalog{entries: entries(), byID: map[string]int{}}
	for i, e := range c.entries {
		if _, dup := c.byID[e.ID]; dup {
			panic(fmt.Sprintf("report: duplicate catalog id %q", e.ID))
		}
		c.entries[i].Params = Params
		c.byID[e.ID] = i
	}
	return c
}

// Entries returns the entries in menu order. The slice is a copy.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Lookup returns the entry for id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Categories returns the category names in menu order.
func (c *Catalog) Categories() []string {
	seen := map[string]int{}
	var out []string
	for i, e := range c.entries {
		if _, ok := seen[e.Category]; !ok {
			seen[e.Category] = i
			out = append(out, e.Category)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return seen[out[a]] < seen[out[b]] })
	return out
}

func entries() []Entry {
	return []Entry{
		{
			ID:       "top-drug-vehicles",
			Category: CategoryVehicle,
			Title:    "Top 10 vehicles in drug-related stops",
			Columns:  []string{"vehicle_number", "drug_stop_count"},
			build: func(q *query) string {
				src := q.from()
				return "SELECT " + q.c(stops.ColVehicleNumber) + " AS vehicle_number, COUNT(*) AS drug_stop_count" +
					" FROM " + src +
					" WHERE " + q.isTrue(stops.ColDrugsRelatedStop) +
					" GROUP BY " + q.c(stops.ColVehicleNumber) +
					" ORDER BY COUNT(*) DESC, " + q.c(stops.ColVehicleNumber) +
					q.d.Limit(10)
			},
		},
		{
			ID:       "most-searched-vehicles",
			Category: CategoryVehicle,
			Title:    "Most frequently searched vehicles",
			Columns:  []string{"vehicle_number", "searches"},
			build: func(q *query) string {
				src := q.from()
				return "SELECT " + q.c(stops.ColVehicleNumber) + " AS vehicle_number, COUNT(*) AS searches" +
					" FROM " + src +
					" WHERE " + q.isTrue(stops.ColSearchConducted) +
					" GROUP BY " + q.c(stops.ColVehicleNumber) +
					" ORDER BY COUNT(*) DESC, " + q.c(stops.ColVehicleNumber) +
					q.d.Limit(20)
			},
		},
		{
			ID:       "arrest-rate-by-age-group",
			Category: CategoryDemographic,
			Title:    "Arrest rate by driver age group",
			Columns:  []string{"age_group", "total_stops", "arrest_rate"},
			Chart:    &Chart{X: "age_group", Y: "arrest_rate"},
			build: func(q *query) string {
				src := q.from()
				age := q.c(stops.ColDriverAge)
				// A NULL age matches no WHEN and lands in the open-ended bucket.
				return "SELECT age_group, COUNT(*) AS total_stops, " +
					q.d.Round("AVG(flag) * 100", 2) + " AS arrest_rate" +
					" FROM (SELECT CASE WHEN " + age + " < 20 THEN '" + AgeUnder20 + "'" +
					" WHEN " + age + " < 30 THEN '" + Age20to29 + "'" +
					" WHEN " + age + " < 40 THEN '" + Age30to39 + "'" +
					" ELSE '" + Age40Plus + "' END AS age_group, " +
					q.flagOrNull(stops.ColIsArrested) + " AS flag FROM " + src + ") g" +
					" GROUP BY age_group" +
					" ORDER BY arrest_rate DESC, age_group"
			},
		},
		{
			ID:       "gender-by-country",
			Category: CategoryDemographic,
			Title:    "Driver gender distribution by country",
			Columns:  []string{"country_name", "driver_gender", "total_stops"},
			build: func(q *query) string {
				src := q.from()
				country, gender := q.c(stops.ColCountryName), q.c(stops.ColDriverGender)
				return "SELECT " + country + " AS country_name, " + gender + " AS driver_gender, COUNT(*) AS total_stops" +
					" FROM " + src +
					" GROUP BY " + country + ", " + gender +
					" ORDER BY " + country + ", " + gender
			},
		},
		{
			ID:       "search-rate-by-race-gender",
			Category: CategoryDemographic,
			Title:    "Search rate by race and gender",
			Columns:  []string{"driver_race", "driver_gender", "total_stops", "search_rate"},
			build: func(q *query) string {
				src := q.from()
				race, gender := q.c(stops.ColDriverRace), q.c(stops.ColDriverGender)
				return "SELECT " + race + " AS driver_race, " + gender + " AS driver_gender, COUNT(*) AS total_stops, " +
					q.d.Round("AVG("+q.flagOrNull(stops.ColSearchConducted)+") * 100", 2) + " AS search_rate" +
					" FROM " + src +
					" GROUP BY " + race + ", " + gender +
					" ORDER BY search_rate DESC, " + race + ", " + gender
			},
		},
		{
			ID:       "stops-by-hour",
			Category: CategoryTime,
			Title:    "Stops by hour of day",
			Columns:  []string{"hour_display", "stop_count"},
			build: func(q *query) string {
				src := q.from()
				t := q.c(stops.ColStopTime)
				return "SELECT hour_display, COUNT(*) AS stop_count" +
					" FROM (SELECT " + q.d.HourLabel(t) + " AS hour_display, " + q.d.Hour(t) + " AS stop_hour" +
					" FROM " + src + " WHERE " + t + " IS NOT NULL) h" +
					" GROUP BY hour_display" +
					" ORDER BY COUNT(*) DESC, MIN(stop_hour)"
			},
		},
		{
			ID:       "avg-duration-by-violation",
			Category: CategoryTime,
			Title:    "Average stop duration by violation",
			Columns:  []string{"violation", "avg_duration_minutes"},
			build: func(q *query) string {
				src := q.from()
				v, dur := q.c(stops.ColViolation), q.c(stops.ColStopDuration)
				minutes := "CASE " + dur +
					" WHEN '" + stops.Duration0to15 + "' THEN 7.5" +
					" WHEN '" + stops.Duration16to30 + "' THEN 23.0" +
					" WHEN '" + stops.Duration30Plus + "' THEN 45.0" +
					" ELSE NULL END"
				return "SELECT " + v + " AS violation, " + q.d.Round("AVG("+minutes+")", 2) + " AS avg_duration_minutes" +
					" FROM " + src +
					" GROUP BY " + v +
					" ORDER BY avg_duration_minutes DESC, " + v
			},
		},
		{
			ID:       "day-night-arrests",
			Category: CategoryTime,
			Title:    "Arrests by time of day",
			Columns:  []string{"period", "total_stops", "arrest_count", "arrest_rate"},
			Chart:    &Chart{X: "period", Y: "arrest_rate"},
			build: func(q *query) string {
				src := q.from()
				t := q.c(stops.ColStopTime)
				h := q.d.Hour(t)
				// A missing stop time counts as night.
				return "SELECT period, COUNT(*) AS total_stops, SUM(flag) AS arrest_count, " +
					q.pct("SUM(flag)", "COUNT(*)", 2) + " AS arrest_rate" +
					fmt.Sprintf(" FROM (SELECT CASE WHEN %s >= %d AND %s < %d THEN '%s'", h, DayStartHour, h, NightStartHour, PeriodDay) +
					" ELSE '" + PeriodNight + "' END AS period, " +
					q.flag(stops.ColIsArrested) + " AS flag FROM " + src + ") p" +
					" GROUP BY period" +
					" ORDER BY period"
			},
		},
		{
			ID:       "violations-search-arrest",
			Category: CategoryViolation,
			Title:    "Violations most associated with searches or arrests",
			Columns:  []string{"violation", "total_stops", "search_arrest_count", "risk_rate"},
			build: func(q *query) string {
				src := q.from()
				v := q.c(stops.ColViolation)
				either := "CASE WHEN " + q.isTrue(stops.ColSearchConducted) + " OR " + q.isTrue(stops.ColIsArrested) + " THEN 1 ELSE 0 END"
				return "SELECT " + v + " AS violation, COUNT(*) AS total_stops, SUM(" + either + ") AS search_arrest_count, " +
					q.pct("SUM("+either+")", "COUNT(*)", 2) + " AS risk_rate" +
					" FROM " + src +
					" WHERE " + v + " IS NOT NULL" +
					" GROUP BY " + v +
					" ORDER BY risk_rate DESC, " + v
			},
		},
		{
			ID:       "young-driver-violations",
			Category: CategoryViolation,
			Title:    fmt.Sprintf("Most common violations among drivers under %d", YoungDriverAge),
			Columns:  []string{"violation", "frequency"},
			Chart:    &Chart{X: "violation", Y: "frequency"},
			build: func(q *query) string {
				src := q.from()
				v := q.c(stops.ColViolation)
				return "SELECT " + v + " AS violation, COUNT(*) AS frequency" +
					" FROM " + src +
					fmt.Sprintf(" WHERE %s < %d", q.c(stops.ColDriverAge), YoungDriverAge) +
					" GROUP BY " + v +
					" ORDER BY COUNT(*) DESC, " + v
			},
		},
		{
			ID:       "low-incident-violations",
			Category: CategoryViolation,
			Title:    "Violations rarely leading to search or arrest",
			Columns:  []string{"violation", "total_stops", "incident_count", "incident_rate"},
			build: func(q *query) string {
				src := q.from()
				v := q.c(stops.ColViolation)
				either := "CASE WHEN " + q.isTrue(stops.ColSearchConducted) + " OR " + q.isTrue(stops.ColIsArrested) + " THEN 1 ELSE 0 END"
				return "SELECT " + v + " AS violation, COUNT(*) AS total_stops, SUM(" + either + ") AS incident_count, " +
					q.pct("SUM("+either+")", "COUNT(*)", 2) + " AS incident_rate" +
					" FROM " + src +
					" GROUP BY " + v +
					fmt.Sprintf(" HAVING COUNT(*) >= %d", MinSample) +
					" ORDER BY incident_rate ASC, " + v
			},
		},
		{
			ID:       "drug-rate-by-country",
			Category: CategoryLocation,
			Title:    "Drug-related stop rate by country",
			Columns:  []string{"country_name", "total_stops", "drug_stops", "drug_rate"},
			build: func(q *query) string {
				src := q.from()
				country, drug := q.c(stops.ColCountryName), q.flag(stops.ColDrugsRelatedStop)
				return "SELECT " + country + " AS country_name, COUNT(*) AS total_stops, SUM(" + drug + ") AS drug_stops, " +
					q.pct("SUM("+drug+")", "COUNT(*)", 2) + " AS drug_rate" +
					" FROM " + src +
					" GROUP BY " + country +
					" ORDER BY drug_rate DESC, " + country
			},
		},
		{
			ID:       "arrest-rate-by-country-violation",
			Category: CategoryLocation,
			Title:    "Arrest rate by country and violation",
			Columns:  []string{"country_name", "violation", "total_stops", "arrest_count", "arrest_rate"},
			build: func(q *query) string {
				src := q.from()
				country, v, arrest := q.c(stops.ColCountryName), q.c(stops.ColViolation), q.flag(stops.ColIsArrested)
				return "SELECT " + country + " AS country_name, " + v + " AS violation, COUNT(*) AS total_stops, SUM(" + arrest + ") AS arrest_count, " +
					q.pct("SUM("+arrest+")", "COUNT(*)", 2) + " AS arrest_rate" +
					" FROM " + src +
					" GROUP BY " + country + ", " + v +
					fmt.Sprintf(" HAVING COUNT(*) >= %d", MinSample) +
					" ORDER BY arrest_rate DESC, " + country + ", " + v
			},
		},
		{
			ID:       "searches-by-country",
			Category: CategoryLocation,
			Title:    "Searches conducted by country",
			Columns:  []string{"country_name", "search_count"},
			build: func(q *query) string {
				src := q.from()
				country := q.c(stops.ColCountryName)
				return "SELECT " + country + " AS country_name, COUNT(*) AS search_count" +
					" FROM " + src +
					" WHERE " + q.isTrue(stops.ColSearchConducted) +
					" GROUP BY " + country +
					" ORDER BY COUNT(*) DESC, " + country
			},
		},
		{
			ID:       "yearly-arrest-rank",
			Category: CategoryComposite,
			Title:    "Yearly arrests by country with rank",
			Columns:  []string{"stop_year", "country_name", "total_stops", "arrest_count", "arrest_rank"},
			build: func(q *query) string {
				src := q.from()
				date, country := q.c(stops.ColStopDate), q.c(stops.ColCountryName)
				return "SELECT stop_year, country_name, total_stops, arrest_count," +
					" RANK() OVER (PARTITION BY stop_year ORDER BY arrest_count DESC) AS arrest_rank" +
					" FROM (SELECT stop_year, country_name, COUNT(*) AS total_stops, SUM(flag) AS arrest_count" +
					" FROM (SELECT " + q.d.Year(date) + " AS stop_year, " + country + " AS country_name, " +
					q.flag(stops.ColIsArrested) + " AS flag FROM " + src +
					" WHERE " + date + " IS NOT NULL AND " + country + " IS NOT NULL) y" +
					" GROUP BY stop_year, country_name) a" +
					" ORDER BY stop_year DESC, arrest_rank ASC, country_name"
			},
		},
		{
			ID:       "violation-trends-age-race",
			Category: CategoryComposite,
			Title:    "Violation trends by age and race",
			Columns:  []string{"driver_age", "driver_race", "violation", "count"},
			build: func(q *query) string {
				src := q.from()
				age, race, v := q.c(stops.ColDriverAge), q.c(stops.ColDriverRace), q.c(stops.ColViolation)
				return "SELECT " + age + " AS driver_age, " + race + " AS driver_race, " + v + " AS violation, COUNT(*) AS " + q.c("count") +
					" FROM " + src +
					" WHERE " + age + " IS NOT NULL" +
					" GROUP BY " + age + ", " + race + ", " + v +
					" ORDER BY COUNT(*) DESC, " + age + ", " + race + ", " + v +
					q.d.Limit(100)
			},
		},
		{
			ID:       "monthly-share",
			Category: CategoryComposite,
			Title:    "Monthly stops as a share of the year",
			Columns:  []string{"year", "month_name", "total_stops", "pct_of_year"},
			build: func(q *query) string {
				src := q.from()
				date := q.c(stops.ColStopDate)
				return "SELECT stop_year AS " + q.c("year") + ", month_name, COUNT(*) AS total_stops, " +
					q.d.Round("100.0 * COUNT(*) / SUM(COUNT(*)) OVER (PARTITION BY stop_year)", 1) + " AS pct_of_year" +
					" FROM (SELECT " + q.d.Year(date) + " AS stop_year, " + q.d.Month(date) + " AS stop_month, " +
					q.d.MonthName(date) + " AS month_name FROM " + src + " WHERE " + date + " IS NOT NULL) m" +
					" GROUP BY stop_year, stop_month, month_name" +
					" ORDER BY stop_year DESC, stop_month ASC"
			},
		},
		{
			ID:       "high-search-arrest-violations",
			Category: CategoryComposite,
			Title:    "Violations with high search and arrest rates",
			Columns:  []string{"violation", "total_stops", "searches", "arrests", "search_rate", "arrest_rate"},
			build: func(q *query) string {
				src := q.from()
				v, search, arrest := q.c(stops.ColViolation), q.flag(stops.ColSearchConducted), q.flag(stops.ColIsArrested)
				return "SELECT " + v + " AS violation, COUNT(*) AS total_stops, SUM(" + search + ") AS searches, SUM(" + arrest + ") AS arrests, " +
					q.pct("SUM("+search+")", "COUNT(*)", 2) + " AS search_rate, " +
					q.pct("SUM("+arrest+")", "COUNT(*)", 2) + " AS arrest_rate" +
					" FROM " + src +
					" GROUP BY " + v +
					" ORDER BY search_rate DESC, arrest_rate DESC, " + v
			},
		},
		{
			ID:       "demographics-by-country",
			Category: CategoryComposite,
			Title:    "Driver demographics by country",
			Columns:  []string{"country_name", "stops", "avg_age", "male", "female"},
			build: func(q *query) string {
				src := q.from()
				country, gender := q.c(stops.ColCountryName), q.c(stops.ColDriverGender)
				return "SELECT " + country + " AS country_name, COUNT(*) AS stops, " +
					q.d.Round("AVG(1.0 * "+q.c(stops.ColDriverAge)+")", 1) + " AS avg_age, " +
					"SUM(CASE WHEN " + gender + " IN ('M', 'Male') THEN 1 ELSE 0 END) AS male, " +
					"SUM(CASE WHEN " + gender + " IN ('F', 'Female') THEN 1 ELSE 0 END) AS female" +
					" FROM " + src +
					" GROUP BY " + country +
					" ORDER BY COUNT(*) DESC, " + country
			},
		},
		{
			ID:       "top-arrest-violations",
			Category: CategoryComposite,
			Title:    "Top 5 violations by arrest rate",
			Columns:  []string{"violation", "total_stops", "arrests", "arrest_rate"},
			build: func(q *query) string {
				src := q.from()
				v, arrest := q.c(stops.ColViolation), q.flag(stops.ColIsArrested)
				return "SELECT " + v + " AS violation, COUNT(*) AS total_stops, SUM(" + arrest + ") AS arrests, " +
					q.pct("SUM("+arrest+")", "COUNT(*)", 2) + " AS arrest_rate" +
					" FROM " + src +
					" GROUP BY " + v +
					" ORDER BY arrest_rate DESC, " + v +
					q.d.Limit(5)
			},
		},
	}
}
