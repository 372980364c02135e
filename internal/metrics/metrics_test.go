package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name   string
	value  float64
	labels Labels
}

// recorder is an in-memory Backend.
type recorder struct {
	mu       sync.Mutex
	counters []call
	hists    []call
	flushes  int
	flushErr error
}

func (r *recorder) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, call{name, delta, labels})
}

func (r *recorder) ObserveHistogram(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hists = append(r.hists, call{name, value, labels})
}

func (r *recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
	return r.flushErr
}

// install swaps in a recorder for the duration of the test. Tests using it
// must not run in parallel.
func install(t *testing.T) *recorder {
	t.Helper()
	prev := current()
	r := &recorder{}
	SetBackend(r)
	t.Cleanup(func() { SetBackend(prev) })
	return r
}

func TestRecordStep(t *testing.T) {
	r := install(t)

	RecordStep("checkpost", "clean", nil, 2*time.Second)
	RecordStep("checkpost", "swap", errors.New("rename failed"), 1500*time.Millisecond)

	require.Len(t, r.counters, 2)
	require.Len(t, r.hists, 2)

	assert.Equal(t, call{StepTotal, 1, Labels{"job": "checkpost", "step": "clean", "status": "success"}}, r.counters[0])
	assert.Equal(t, call{StepTotal, 1, Labels{"job": "checkpost", "step": "swap", "status": "failure"}}, r.counters[1])

	assert.Equal(t, StepDurationSeconds, r.hists[0].name)
	assert.InDelta(t, 2.0, r.hists[0].value, 1e-9)
	assert.InDelta(t, 1.5, r.hists[1].value, 1e-9)
	assert.Equal(t, "failure", r.hists[1].labels["status"])
}

func TestRecordRowAndBatches(t *testing.T) {
	r := install(t)

	RecordRow("checkpost", "processed", 3)
	RecordRow("checkpost", "parse_errors", 0)
	RecordRow("checkpost", "recovered", -1)
	RecordRow("checkpost", "inserted", 5)
	RecordBatches("checkpost", 2)
	RecordBatches("checkpost", 0)

	assert.Equal(t, []call{
		{RecordsTotal, 3, Labels{"job": "checkpost", "kind": "processed"}},
		{RecordsTotal, 5, Labels{"job": "checkpost", "kind": "inserted"}},
		{BatchesTotal, 2, Labels{"job": "checkpost"}},
	}, r.counters)
}

func TestSetBackendAndFlush(t *testing.T) {
	r := install(t)

	require.NoError(t, Flush())
	assert.Equal(t, 1, r.flushes)

	r.flushErr = errors.New("gateway down")
	assert.EqualError(t, Flush(), "gateway down")

	SetBackend(nil)
	assert.Same(t, r, current(), "nil keeps the installed backend")
}

func TestNopBackendByDefault(t *testing.T) {
	var b Backend = nopBackend{}
	b.IncCounter(StepTotal, 1, nil)
	b.ObserveHistogram(StepDurationSeconds, 1, nil)
	assert.NoError(t, b.Flush())
}

func TestRecordConcurrentWithSetBackend(t *testing.T) {
	prev := current()
	t.Cleanup(func() { SetBackend(prev) })

	r := &recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordStep("checkpost", "report", nil, time.Millisecond)
			}
		}()
	}
	SetBackend(r)
	wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.LessOrEqual(t, len(r.counters), 800)
}
