// Package telemetry collects local query metrics for ranking
// diagnostics. Nothing is reported externally.
package telemetry

import (
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/equiprank/equiprank/internal/taxonomy"
	"github.com/equiprank/equiprank/internal/textnorm"
)

// LatencyBucket is one histogram bucket of query latency.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// QueryEvent is one search query outcome for recording.
type QueryEvent struct {
	Query       string
	Category    taxonomy.Category
	ResultCount int
	Latency     time.Duration
	CacheHit    bool
	Fallback    bool
	Timestamp   time.Time
}

// IsZeroResult reports whether the query returned nothing.
func (e QueryEvent) IsZeroResult() bool {
	return e.ResultCount == 0
}

// TermCount is a query term and its frequency.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is an immutable view of the collected metrics.
type Snapshot struct {
	TotalQueries        int64                        `json:"total_queries"`
	ZeroResultCount     int64                        `json:"zero_result_count"`
	CacheHitCount       int64                        `json:"cache_hit_count"`
	FallbackCount       int64                        `json:"fallback_count"`
	CategoryCounts      map[taxonomy.Category]int64  `json:"category_counts"`
	LatencyDistribution map[LatencyBucket]int64      `json:"latency_distribution"`
	TopTerms            []TermCount                  `json:"top_terms"`
	ZeroResultQueries   []string                     `json:"zero_result_queries"`
	Since               time.Time                    `json:"since"`
}

// ZeroResultPercentage returns the share of zero-result queries.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

// CacheHitRate returns the share of queries served from cache.
func (s *Snapshot) CacheHitRate() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.CacheHitCount) / float64(s.TotalQueries)
}

// Config tunes the collector capacities.
type Config struct {
	TopTermsCapacity    int // Max distinct terms tracked (default 100)
	ZeroResultsCapacity int // Max zero-result queries kept (default 100)
}

// DefaultConfig returns the collector defaults.
func DefaultConfig() Config {
	return Config{
		TopTermsCapacity:    100,
		ZeroResultsCapacity: 100,
	}
}

// Metrics collects query telemetry. Safe for concurrent use.
type Metrics struct {
	mu sync.RWMutex

	totalQueries    int64
	zeroResultCount int64
	cacheHitCount   int64
	fallbackCount   int64

	categories  map[taxonomy.Category]int64
	latencies   map[LatencyBucket]int64
	topTerms    *lru.Cache[string, int64]
	zeroResults *CircularBuffer[string]
	startTime   time.Time
}

// New creates a metrics collector with default capacities.
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a metrics collector.
func NewWithConfig(cfg Config) *Metrics {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = 100
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = 100
	}

	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)
	return &Metrics{
		categories:  make(map[taxonomy.Category]int64),
		latencies:   make(map[LatencyBucket]int64),
		topTerms:    topTerms,
		zeroResults: NewCircularBuffer[string](cfg.ZeroResultsCapacity),
		startTime:   time.Now(),
	}
}

// Record captures one query outcome.
func (m *Metrics) Record(event QueryEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalQueries++
	m.categories[event.Category]++
	m.latencies[LatencyToBucket(event.Latency)]++

	if event.CacheHit {
		m.cacheHitCount++
	}
	if event.Fallback {
		m.fallbackCount++
	}
	if event.IsZeroResult() {
		m.zeroResults.Add(event.Query)
		m.zeroResultCount++
	}

	for _, term := range extractTerms(event.Query) {
		count, _ := m.topTerms.Get(term)
		m.topTerms.Add(term, count+1)
	}
}

// extractTerms returns the normalized query terms worth counting:
// minimum length 3, so Portuguese function words drop out.
func extractTerms(query string) []string {
	var terms []string
	for _, tok := range textnorm.Tokens(query) {
		if len(tok) >= 3 {
			terms = append(terms, tok)
		}
	}
	return terms
}

// Snapshot returns the current metrics.
func (m *Metrics) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	categories := make(map[taxonomy.Category]int64, len(m.categories))
	for k, v := range m.categories {
		categories[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	var topTerms []TermCount
	for _, key := range m.topTerms.Keys() {
		if count, ok := m.topTerms.Peek(key); ok {
			topTerms = append(topTerms, TermCount{Term: key, Count: count})
		}
	}
	sort.Slice(topTerms, func(i, j int) bool {
		if topTerms[i].Count != topTerms[j].Count {
			return topTerms[i].Count > topTerms[j].Count
		}
		return topTerms[i].Term < topTerms[j].Term
	})

	return &Snapshot{
		TotalQueries:        m.totalQueries,
		ZeroResultCount:     m.zeroResultCount,
		CacheHitCount:       m.cacheHitCount,
		FallbackCount:       m.fallbackCount,
		CategoryCounts:      categories,
		LatencyDistribution: latencies,
		TopTerms:            topTerms,
		ZeroResultQueries:   m.zeroResults.Items(),
		Since:               m.startTime,
	}
}
