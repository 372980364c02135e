package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func feed(n int) <-chan []any {
	ch := make(chan []any, n)
	for i := 0; i < n; i++ {
		ch <- []any{int64(i), "Speeding"}
	}
	close(ch)
	return ch
}

func TestLoadBatches_Sizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rows, size  int
		wantBatches []int
	}{
		{name: "empty input", rows: 0, size: 3},
		{name: "exact multiple", rows: 6, size: 3, wantBatches: []int{3, 3}},
		{name: "remainder", rows: 7, size: 3, wantBatches: []int{3, 3, 1}},
		{name: "one per batch", rows: 3, size: 1, wantBatches: []int{1, 1, 1}},
		{name: "batch larger than input", rows: 2, size: 1000, wantBatches: []int{2}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got []int
			stats, err := LoadBatches(context.Background(), nil, []string{"n", "violation"}, feed(tt.rows), tt.size,
				func(_ context.Context, cols []string, rows [][]any) (int64, error) {
					assert.Equal(t, []string{"n", "violation"}, cols)
					got = append(got, len(rows))
					return int64(len(rows)), nil
				})
			require.NoError(t, err)
			assert.Equal(t, tt.wantBatches, got)
			assert.EqualValues(t, tt.rows, stats.Rows)
			assert.EqualValues(t, len(tt.wantBatches), stats.Batches)
		})
	}
}

func TestLoadBatches_StopsAtFirstCopyError(t *testing.T) {
	t.Parallel()

	boom := errors.New("constraint violated")
	calls := 0
	stats, err := LoadBatches(context.Background(), zap.NewNop(), nil, feed(9), 2,
		func(_ context.Context, _ []string, rows [][]any) (int64, error) {
			calls++
			if calls == 2 {
				return 0, boom
			}
			return int64(len(rows)), nil
		})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, BatchStats{Rows: 2, Batches: 1, Elapsed: stats.Elapsed}, stats)
}

func TestLoadBatches_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan []any)
	errCh := make(chan error, 1)
	go func() {
		_, err := LoadBatches(ctx, nil, nil, in, 10, func(context.Context, []string, [][]any) (int64, error) {
			return 0, nil
		})
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("LoadBatches ignored cancellation")
	}
}

func TestLoadBatches_LogsEachCommit(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	_, err := LoadBatches(context.Background(), zap.New(core), nil, feed(5), 2,
		func(_ context.Context, _ []string, rows [][]any) (int64, error) {
			return int64(len(rows)), nil
		})
	require.NoError(t, err)

	entries := logs.FilterMessage("batch committed").All()
	require.Len(t, entries, 3)
	last := entries[2].ContextMap()
	assert.EqualValues(t, 3, last["batch"])
	assert.EqualValues(t, 1, last["rows"])
	assert.EqualValues(t, 5, last["total_rows"])
}

func TestLoadBatches_InvalidArguments(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, []string, [][]any) (int64, error) { return 0, nil }
	_, err := LoadBatches(context.Background(), nil, nil, feed(0), 0, noop)
	assert.ErrorIs(t, err, errBatchSize)
	_, err = LoadBatches(context.Background(), nil, nil, feed(0), 5, nil)
	assert.ErrorIs(t, err, errNoCopyFn)
}
