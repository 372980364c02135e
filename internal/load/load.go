// Package load persists cleaned stop records. Every load builds a shadow
// table, fills it in batches and swaps it into place, so readers see either
// the previous table or the complete new one.
package load

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"checkpost/internal/metrics"
	"checkpost/internal/stops"
	"checkpost/internal/storage"
)

// ErrNoRecords is returned when Load is called with nothing to persist. The
// live table is left untouched.
var ErrNoRecords = errors.New("load: no records")

// ShadowSuffix names the staging table a load writes into.
const ShadowSuffix = "__next"

// Options configures a Loader.
type Options struct {
	// Table is the live stops table.
	Table string
	// BatchSize is the number of rows per CopyFrom call.
	BatchSize int
	// ChannelBuffer sizes the channel between the producer and the batcher.
	ChannelBuffer int
	// Job labels metrics.
	Job string
}

// Result summarizes one Load call.
type Result struct {
	RunID     string
	Table     string
	Attempted int64
	// Committed is the number of rows visible in Table after the swap; zero
	// when the load failed.
	Committed int64
	Batches   int64
	Duration  time.Duration
	// Fingerprint is an xxh3 hash over the canonical encoding of the records
	// in input order. Identical inputs give identical fingerprints.
	Fingerprint uint64
	Err         error
}

// LogFields renders r as structured log fields.
func (r Result) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("run_id", r.RunID),
		zap.String("table", r.Table),
		zap.Int64("attempted", r.Attempted),
		zap.Int64("committed", r.Committed),
		zap.Int64("batches", r.Batches),
		zap.Duration("duration", r.Duration),
		zap.String("fingerprint", fmt.Sprintf("%016x", r.Fingerprint)),
	}
}

// Loader writes records through a storage.Repository.
type Loader struct {
	repo storage.Repository
	opt  Options
	log  *zap.Logger
}

// New returns a Loader. Zero BatchSize defaults to 1000.
func New(repo storage.Repository, opt Options, log *zap.Logger) *Loader {
	if opt.BatchSize <= 0 {
		opt.BatchSize = 1000
	}
	if opt.ChannelBuffer < 0 {
		opt.ChannelBuffer = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{repo: repo, opt: opt, log: log}
}

// Load replaces the live table with recs. Any failure before the swap drops
// the shadow table and leaves the live table as it was.
func (l *Loader) Load(ctx context.Context, recs []stops.Record) Result {
	start := time.Now()
	res := Result{
		RunID:     uuid.NewString(),
		Table:     l.opt.Table,
		Attempted: int64(len(recs)),
	}
	log := l.log.With(zap.String("run_id", res.RunID), zap.String("table", l.opt.Table))

	finish := func(err error) Result {
		res.Err = err
		res.Duration = time.Since(start)
		if err != nil {
			res.Committed = 0
		}
		return res
	}
	if len(recs) == 0 {
		return finish(ErrNoRecords)
	}

	shadow := l.opt.Table + ShadowSuffix
	if err := l.prepare(ctx, shadow); err != nil {
		metrics.RecordStep(l.opt.Job, "load", err, time.Since(start))
		return finish(err)
	}

	loadStart := time.Now()
	inserted, batches, fp, err := l.fill(ctx, log, shadow, recs)
	res.Batches, res.Fingerprint = batches, fp
	metrics.RecordStep(l.opt.Job, "load", err, time.Since(loadStart))
	metrics.RecordBatches(l.opt.Job, batches)
	if err == nil && inserted != int64(len(recs)) {
		err = fmt.Errorf("load: inserted %d of %d rows", inserted, len(recs))
	}
	if err != nil {
		l.discard(ctx, log, shadow)
		return finish(fmt.Errorf("load: fill %s: %w", shadow, err))
	}

	swapStart := time.Now()
	err = l.repo.Swap(ctx, shadow, l.opt.Table)
	metrics.RecordStep(l.opt.Job, "swap", err, time.Since(swapStart))
	if err != nil {
		l.discard(ctx, log, shadow)
		return finish(fmt.Errorf("load: swap: %w", err))
	}

	res.Committed = inserted
	metrics.RecordRow(l.opt.Job, "inserted", inserted)
	return finish(nil)
}

// prepare drops any leftover shadow and creates a fresh one.
func (l *Loader) prepare(ctx context.Context, shadow string) error {
	if err := storage.DropTable(ctx, l.repo, shadow); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	d := l.repo.Dialect()
	td := stops.TableDef(shadow, func(k stops.Kind, size int) string {
		return d.ColumnType(string(k), size)
	})
	if err := storage.CreateTable(ctx, l.repo, td); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}

// fill streams recs into shadow. A producer encodes rows and hashes them
// while LoadBatches drains the channel.
func (l *Loader) fill(ctx context.Context, log *zap.Logger, shadow string, recs []stops.Record) (inserted, batches int64, fp uint64, err error) {
	d := l.repo.Dialect()
	rows := make(chan []any, l.opt.ChannelBuffer)
	h := xxh3.New()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		var buf []byte
		for _, r := range recs {
			buf = r.AppendCanonical(buf[:0])
			_, _ = h.Write(buf)

			vals := r.Values()
			for i, v := range vals {
				vals[i] = d.Encode(v)
			}
			select {
			case rows <- vals:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	g.Go(func() error {
		copyFn := func(ctx context.Context, columns []string, batch [][]any) (int64, error) {
			return l.repo.CopyFrom(ctx, shadow, columns, batch)
		}
		stats, err := storage.LoadBatches(gctx, log, stops.Columns, rows, l.opt.BatchSize, copyFn)
		inserted, batches = stats.Rows, stats.Batches
		return err
	})
	err = g.Wait()
	return inserted, batches, h.Sum64(), err
}

// discard drops the shadow after a failure. It runs even when ctx is done.
func (l *Loader) discard(ctx context.Context, log *zap.Logger, shadow string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := storage.DropTable(cctx, l.repo, shadow); err != nil {
		log.Warn("drop shadow failed", zap.String("shadow", shadow), zap.Error(err))
	}
}
