package etl

import "sync"

// errAgg counts error messages and keeps the first limit of them.
type errAgg struct {
	mu      sync.Mutex
	limit   int
	count   int
	first   []string
	buckets map[string]int
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit, buckets: make(map[string]int)}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	a.buckets[msg]++
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

// snapshot returns the total count and a copy of the kept messages.
func (a *errAgg) snapshot() (int, []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count, append([]string(nil), a.first...)
}
