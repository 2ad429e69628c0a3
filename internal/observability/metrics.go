package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics keeps in-memory request and error counters, keyed by
// path|method|status. Enough to see which CRM endpoints are hot and
// which error codes they produce; a nil receiver is a no-op so tests
// can skip wiring it.
type Metrics struct {
	mu       sync.Mutex
	requests map[string]int64
	errors   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[string]int64),
		errors:   make(map[string]int64),
	}
}

// RecordRequest counts one completed request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := counterKey(path, method, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key]++
}

// RecordError counts one request that ended in a domain error.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := counterKey(path, method, code)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[key]++
}

func counterKey(parts ...string) string {
	key := parts[0]
	for _, p := range parts[1:] {
		key += "|" + p
	}
	return key
}
