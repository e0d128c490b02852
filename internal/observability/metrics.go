package observability

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	requestMillis map[string]int64
	errorCount    map[string]int64
	startedAt     time.Time
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		requestMillis: make(map[string]int64),
		errorCount:    make(map[string]int64),
		startedAt:     time.Now(),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestMillis[key] += duration.Milliseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds int64            `json:"uptimeSeconds"`
	Requests      []CounterSample  `json:"requests"`
	Errors        []CounterSample  `json:"errors"`
	Totals        map[string]int64 `json:"totals"`
}

// CounterSample is one counter keyed by route, method and status or error code.
type CounterSample struct {
	Route       string `json:"route"`
	Method      string `json:"method"`
	Outcome     string `json:"outcome"`
	Count       int64  `json:"count"`
	TotalMillis int64  `json:"totalMillis,omitempty"`
}

// Snapshot copies the current counters in a stable order.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.startedAt).Seconds()),
		Requests:      samples(m.requestCount, m.requestMillis),
		Errors:        samples(m.errorCount, nil),
		Totals:        map[string]int64{"requests": 0, "errors": 0},
	}
	for _, sample := range snap.Requests {
		snap.Totals["requests"] += sample.Count
	}
	for _, sample := range snap.Errors {
		snap.Totals["errors"] += sample.Count
	}
	return snap
}

// Handler serves the snapshot as JSON.
func (m *Metrics) Handler(c *fiber.Ctx) error {
	return c.JSON(m.Snapshot())
}

func samples(counts, millis map[string]int64) []CounterSample {
	out := make([]CounterSample, 0, len(counts))
	for key := range counts {
		parts := strings.SplitN(key, "|", 3)
		for len(parts) < 3 {
			parts = append(parts, "")
		}
		out = append(out, CounterSample{
			Route:       parts[0],
			Method:      parts[1],
			Outcome:     parts[2],
			Count:       counts[key],
			TotalMillis: millis[key],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Outcome < b.Outcome
	})
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
