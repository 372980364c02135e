// Package report executes the fixed report catalog, the filtered browse
// query and the dashboard header metrics against a storage.Repository.
//
// Concurrency is bounded by a weighted semaphore sized like the driver pool.
// Callers either wait for a slot or get ErrPoolExhausted, depending on
// Options.FailFast.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"checkpost/internal/metrics"
	"checkpost/internal/stops"
	"checkpost/internal/storage"
)

var (
	// ErrUnknownReport is returned by Run for an id not in the catalog.
	ErrUnknownReport = errors.New("report: unknown report")
	// ErrPoolExhausted is returned in fail-fast mode when every slot is busy.
	ErrPoolExhausted = errors.New("report: connection pool exhausted")
	// ErrBadColumn is returned by Distinct for a column outside the whitelist.
	ErrBadColumn = errors.New("report: column not allowed")
)

// BrowseLimit caps the rows returned by Browse.
const BrowseLimit = 200

// DistinctColumns are the columns Distinct may list.
var DistinctColumns = []string{stops.ColViolation, stops.ColCountryName, stops.ColDriverGender}

// Options configures a Service.
type Options struct {
	// Table is the live stops table.
	Table string
	// PoolSize bounds concurrent queries. Zero means 5.
	PoolSize int
	// FailFast returns ErrPoolExhausted instead of waiting for a slot.
	FailFast bool
	// QueryTimeout bounds each query; zero disables.
	QueryTimeout time.Duration
	// Job labels metrics.
	Job string
}

// Result is the outcome of one report or browse call.
type Result struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Columns []string      `json:"columns"`
	Rows    [][]any       `json:"rows"`
	Chart   *Chart        `json:"chart,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Filter  Filter        `json:"-"`
}

// Len returns the row count.
func (r Result) Len() int { return len(r.Rows) }

// Summary holds the dashboard header metrics over the whole table.
type Summary struct {
	TotalStops   int64 `json:"total_stops"`
	TotalArrests int64 `json:"total_arrests"`
	// AvgAge is nil when no stop has an age.
	AvgAge *float64 `json:"avg_age"`
}

// Service runs reports. It owns repo and closes it in Close.
type Service struct {
	repo    storage.Repository
	opt     Options
	sem     *semaphore.Weighted
	catalog *Catalog
	log     *zap.Logger
}

// NewService returns a Service over repo.
func NewService(repo storage.Repository, opt Options, log *zap.Logger) *Service {
	if opt.PoolSize <= 0 {
		opt.PoolSize = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		opt:     opt,
		sem:     semaphore.NewWeighted(int64(opt.PoolSize)),
		catalog: NewCatalog(),
		log:     log.With(zap.String("table", opt.Table)),
	}
}

// Catalog returns the report catalog.
func (s *Service) Catalog() *Catalog { return s.catalog }

// Close releases the underlying repository.
func (s *Service) Close() { s.repo.Close() }

// Ping checks the sink with a trivial query.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.query(ctx, "ping", "SELECT 1")
	return err
}

// Run executes the catalog entry id with f bound. On failure it returns an
// empty Result and the error.
func (s *Service) Run(ctx context.Context, id string, f Filter) (Result, error) {
	e, ok := s.catalog.Lookup(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownReport, id)
	}
	if err := f.Validate(); err != nil {
		return Result{}, err
	}
	sql, args := e.SQL(s.repo.Dialect(), s.opt.Table, f)

	start := time.Now()
	rs, err := s.query(ctx, "report", sql, args...)
	if err != nil {
		s.log.Warn("report failed", zap.String("report", id), zap.Error(err))
		return Result{}, fmt.Errorf("report: %s: %w", id, err)
	}
	elapsed := time.Since(start)
	s.log.Debug("report", zap.String("report", id), zap.Int("rows", rs.Len()), zap.Duration("elapsed", elapsed))
	return Result{
		ID:      e.ID,
		Title:   e.Title,
		Columns: rs.Columns,
		Rows:    nonNil(rs.Rows),
		Chart:   e.Chart,
		Elapsed: elapsed,
		Filter:  f,
	}, nil
}

// Browse returns up to BrowseLimit raw stops matching f, most recent
// stop_date first, ties broken by id descending. Undated stops sort last.
func (s *Service) Browse(ctx context.Context, f Filter) (Result, error) {
	if err := f.Validate(); err != nil {
		return Result{}, err
	}
	sql, args := browseSQL(s.repo.Dialect(), s.opt.Table, f)

	start := time.Now()
	rs, err := s.query(ctx, "browse", sql, args...)
	if err != nil {
		s.log.Warn("browse failed", zap.Error(err))
		return Result{}, fmt.Errorf("report: browse: %w", err)
	}
	return Result{
		ID:      "browse",
		Title:   "Browse stops",
		Columns: rs.Columns,
		Rows:    nonNil(rs.Rows),
		Elapsed: time.Since(start),
		Filter:  f,
	}, nil
}

func browseSQL(d storage.Dialect, table string, f Filter) (string, []any) {
	q := newQuery(d, table, f)
	src := q.from()
	cols := make([]string, 0, len(stops.Columns)+1)
	cols = append(cols, q.c(stops.ColID))
	for _, c := range stops.Columns {
		cols = append(cols, q.c(c))
	}
	date, id := q.c(stops.ColStopDate), q.c(stops.ColID)
	sql := "SELECT " + strings.Join(cols, ", ") +
		" FROM " + src +
		" ORDER BY CASE WHEN " + date + " IS NULL THEN 1 ELSE 0 END, " + date + " DESC, " + id + " DESC" +
		d.Limit(BrowseLimit)
	return sql, q.args
}

// Summary returns total stops, total arrests and average driver age.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	d := s.repo.Dialect()
	arrested := d.IsTrue(d.Quote(stops.ColIsArrested))
	sql := "SELECT COUNT(*), SUM(CASE WHEN " + arrested + " THEN 1 ELSE 0 END), AVG(1.0 * " + d.Quote(stops.ColDriverAge) + ")" +
		" FROM " + d.QuoteTable(s.opt.Table)
	rs, err := s.query(ctx, "summary", sql)
	if err != nil {
		return Summary{}, fmt.Errorf("report: summary: %w", err)
	}
	if rs.Len() == 0 {
		return Summary{}, nil
	}
	row := rs.Rows[0]
	var out Summary
	out.TotalStops, _ = asInt(row[0])
	out.TotalArrests, _ = asInt(row[1])
	if avg, ok := asFloat(row[2]); ok {
		out.AvgAge = &avg
	}
	return out, nil
}

// Distinct lists the distinct non-null values of column, sorted. Only
// DistinctColumns are allowed.
func (s *Service) Distinct(ctx context.Context, column string) ([]string, error) {
	allowed := false
	for _, c := range DistinctColumns {
		if c == column {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %q", ErrBadColumn, column)
	}
	d := s.repo.Dialect()
	col := d.Quote(column)
	sql := "SELECT DISTINCT " + col + " FROM " + d.QuoteTable(s.opt.Table) +
		" WHERE " + col + " IS NOT NULL ORDER BY " + col
	rs, err := s.query(ctx, "distinct", sql)
	if err != nil {
		return nil, fmt.Errorf("report: distinct %s: %w", column, err)
	}
	out := make([]string, 0, rs.Len())
	for _, r := range rs.Rows {
		out = append(out, fmt.Sprint(r[0]))
	}
	return out, nil
}

// query runs one read inside a pool slot. The slot is released on every
// path out, panics included.
func (s *Service) query(ctx context.Context, step, sql string, args ...any) (rs *storage.ResultSet, err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(s.opt.Job, step, err, time.Since(start)) }()

	if s.opt.FailFast {
		if !s.sem.TryAcquire(1) {
			return nil, ErrPoolExhausted
		}
	} else if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for connection: %w", err)
	}
	defer s.sem.Release(1)

	if s.opt.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opt.QueryTimeout)
		defer cancel()
	}
	return s.repo.Query(ctx, sql, args...)
}

func nonNil(rows [][]any) [][]any {
	if rows == nil {
		return [][]any{}
	}
	return rows
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return int64(x), true
	case string:
		var n int64
		_, err := fmt.Sscan(x, &n)
		return n, err == nil
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case string:
		var f float64
		_, err := fmt.Sscan(x, &f)
		return f, err == nil
	}
	return 0, false
}
