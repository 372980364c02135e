// Package etl runs one load: open the source, parse the CSV, clean every
// row and hand the records to the loader.
//
// Rows the CSV reader cannot parse are skipped and counted; the first few
// messages are kept for the run summary. Anything else that fails aborts
// the run before the swap, so the live table is never half written.
package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"checkpost/internal/clean"
	"checkpost/internal/config"
	"checkpost/internal/datasource"
	"checkpost/internal/load"
	"checkpost/internal/metrics"
	csvparser "checkpost/internal/parser/csv"
	"checkpost/internal/records"
	"checkpost/internal/stops"
)

// parseErrorSamples caps the parse error messages kept per run.
const parseErrorSamples = 10

// ErrUnsupportedParser is returned for a parser kind other than csv.
var ErrUnsupportedParser = errors.New("etl: unsupported parser.kind")

// Loader persists cleaned records.
type Loader interface {
	Load(ctx context.Context, recs []stops.Record) load.Result
}

// Summary describes one run.
type Summary struct {
	Source string
	// Processed is the number of rows parsed successfully.
	Processed   int
	ParseErrors int
	// ParseSamples holds the first parse error messages.
	ParseSamples []string
	Clean        clean.Report
	Load         load.Result
	Duration     time.Duration
}

// LogFields renders s as structured log fields.
func (s Summary) LogFields() []zap.Field {
	return append([]zap.Field{
		zap.String("source", s.Source),
		zap.Int("processed", s.Processed),
		zap.Int("parse_errors", s.ParseErrors),
		zap.Int("recovered", s.Clean.Recovered()),
		zap.Duration("elapsed", s.Duration),
	}, s.Load.LogFields()...)
}

// Runner wires a source, the CSV parser and a loader.
type Runner struct {
	src    datasource.Source
	parser config.Parser
	loader Loader
	job    string
	log    *zap.Logger
}

// New returns a Runner.
func New(src datasource.Source, parser config.Parser, loader Loader, job string, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{src: src, parser: parser, loader: loader, job: job, log: log}
}

// Run executes the pipeline once. The returned Summary is populated as far
// as the run got, also on error.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{Source: r.src.String()}
	done := func(err error) (Summary, error) {
		sum.Duration = time.Since(start)
		return sum, err
	}

	if r.parser.Kind != "" && r.parser.Kind != "csv" {
		return done(fmt.Errorf("%w=%s", ErrUnsupportedParser, r.parser.Kind))
	}

	step := time.Now()
	rc, err := r.src.Open(ctx)
	metrics.RecordStep(r.job, "extract", err, time.Since(step))
	if err != nil {
		return done(fmt.Errorf("etl: open source: %w", err))
	}

	step = time.Now()
	agg := newErrAgg(parseErrorSamples)
	frame, err := csvparser.ReadFrame(ctx, rc, r.parser.Options, r.log, func(line int, err error) {
		agg.add(fmt.Sprintf("line=%d: %v", line, err))
	})
	metrics.RecordStep(r.job, "parse", err, time.Since(step))
	sum.ParseErrors, sum.ParseSamples = agg.snapshot()
	metrics.RecordRow(r.job, "parse_errors", int64(sum.ParseErrors))
	if err != nil {
		return done(fmt.Errorf("etl: parse: %w", err))
	}
	sum.Processed = frame.Len()
	metrics.RecordRow(r.job, "processed", int64(sum.Processed))
	r.logParseErrors(sum)

	recs, err := r.clean(frame, &sum)
	if err != nil {
		return done(err)
	}

	sum.Load = r.loader.Load(ctx, recs)
	if sum.Load.Err != nil {
		return done(sum.Load.Err)
	}
	return done(nil)
}

func (r *Runner) clean(frame records.Frame, sum *Summary) ([]stops.Record, error) {
	step := time.Now()
	res, err := clean.Run(frame)
	metrics.RecordStep(r.job, "clean", err, time.Since(step))
	if err != nil {
		return nil, fmt.Errorf("etl: clean: %w", err)
	}
	sum.Clean = res.Report
	metrics.RecordRow(r.job, "recovered", int64(res.Report.Recovered()))

	r.log.Info("cleaned", res.Report.LogFields()...)
	if n := len(res.Report.UnmatchedBools); n > 0 {
		r.log.Warn("unmatched boolean values nulled", zap.Any("by_column", res.Report.UnmatchedBools))
	}
	if n := res.Report.ViolationFallbacks; n > 0 {
		r.log.Warn("violations without a category rule", zap.Int("rows", n))
	}
	return res.Records, nil
}

func (r *Runner) logParseErrors(sum Summary) {
	if sum.ParseErrors == 0 {
		return
	}
	r.log.Warn("rows skipped by the csv reader",
		zap.Int("parse_errors", sum.ParseErrors),
		zap.Int("shown", len(sum.ParseSamples)))
	for i, s := range sum.ParseSamples {
		r.log.Warn("parse error", zap.Int("n", i+1), zap.String("detail", s))
	}
}
