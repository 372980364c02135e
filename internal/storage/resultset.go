package storage

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// ResultSet is a fully materialized query result. Values are normalized to
// nil, string, int64, float64 or bool.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Column returns the index of name, or -1.
func (r *ResultSet) Column(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Normalize converts driver values into the ResultSet value set. Times with
// a zero date are rendered as clock times, midnight timestamps as dates.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil, string, int64, float64, bool:
		return x
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		switch {
		case x.Year() <= 1:
			return x.Format("15:04:05")
		case x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0:
			return x.Format("2006-01-02")
		default:
			return x.Format(time.RFC3339)
		}
	default:
		return x
	}
}

// numericTypes are database type names whose text values are parsed as
// numbers when a driver returns them as bytes.
var numericTypes = map[string]bool{
	"DECIMAL": true, "NUMERIC": true, "MONEY": true,
	"INT": true, "INTEGER": true, "BIGINT": true, "SMALLINT": true, "TINYINT": true, "MEDIUMINT": true,
	"FLOAT": true, "DOUBLE": true, "REAL": true,
	"UNSIGNED BIGINT": true, "UNSIGNED INT": true,
}

// ScanRows materializes database/sql rows. It closes rows.
func ScanRows(rows *sql.Rows) (*ResultSet, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	numeric := make([]bool, len(cols))
	for i, ct := range types {
		numeric[i] = numericTypes[strings.ToUpper(ct.DatabaseTypeName())]
	}

	rs := &ResultSet{Columns: cols}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out := make([]any, len(cols))
		for i, v := range raw {
			if b, ok := v.([]byte); ok && numeric[i] {
				out[i] = parseNumber(string(b))
				continue
			}
			out[i] = Normalize(v)
		}
		rs.Rows = append(rs.Rows, out)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

func parseNumber(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
