package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// CopyFn inserts one batch of rows aligned to columns and reports how many
// rows the backend accepted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// BatchStats summarizes a LoadBatches run. On error it covers the batches
// committed before the failure.
type BatchStats struct {
	Rows    int64
	Batches int64
	Elapsed time.Duration
}

var (
	errBatchSize = errors.New("storage: batch size must be > 0")
	errNoCopyFn  = errors.New("storage: copy function is nil")
)

// LoadBatches groups rows from in into batches of size and hands each batch
// to copyFn. It returns when in is closed and drained, on the first copy
// error, or when ctx is done.
//
// Each committed batch logs a debug line with the running total and the
// insert rate since the previous batch.
func LoadBatches(ctx context.Context, log *zap.Logger, columns []string, in <-chan []any, size int, copyFn CopyFn) (BatchStats, error) {
	if size <= 0 {
		return BatchStats{}, errBatchSize
	}
	if copyFn == nil {
		return BatchStats{}, errNoCopyFn
	}
	if log == nil {
		log = zap.NewNop()
	}

	p := progress{log: log, start: time.Now()}
	p.last = p.start
	pending := make([][]any, 0, size)

	commit := func() error {
		if len(pending) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, pending)
		pending = pending[:0]
		if err != nil {
			log.Warn("batch copy failed",
				zap.Int64("batch", p.stats.Batches+1),
				zap.Int64("committed_rows", p.stats.Rows),
				zap.Error(err))
			return err
		}
		p.committed(n)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return p.done(), ctx.Err()
		case row, ok := <-in:
			if !ok {
				err := commit()
				return p.done(), err
			}
			pending = append(pending, row)
			if len(pending) < size {
				continue
			}
			if err := commit(); err != nil {
				return p.done(), err
			}
		}
	}
}

type progress struct {
	log      *zap.Logger
	start    time.Time
	last     time.Time
	lastRows int64
	stats    BatchStats
}

func (p *progress) committed(n int64) {
	p.stats.Batches++
	p.stats.Rows += n

	now := time.Now()
	var rate float64
	if d := now.Sub(p.last); d > 0 {
		rate = float64(p.stats.Rows-p.lastRows) / d.Seconds()
	}
	p.log.Debug("batch committed",
		zap.Int64("batch", p.stats.Batches),
		zap.Int64("rows", n),
		zap.Int64("total_rows", p.stats.Rows),
		zap.Float64("rows_per_sec", rate),
		zap.Duration("elapsed", now.Sub(p.start).Truncate(time.Millisecond)))
	p.last, p.lastRows = now, p.stats.Rows
}

func (p *progress) done() BatchStats {
	p.stats.Elapsed = time.Since(p.start)
	return p.stats
}
