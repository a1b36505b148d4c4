package telemetry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiprank/equiprank/internal/taxonomy"
)

func TestRecordAggregates(t *testing.T) {
	m := New()

	m.Record(QueryEvent{Query: "mop de limpeza", Category: taxonomy.CategoryMop, ResultCount: 5, Latency: 3 * time.Millisecond})
	m.Record(QueryEvent{Query: "mop industrial", Category: taxonomy.CategoryMop, ResultCount: 2, Latency: 60 * time.Millisecond, CacheHit: true})
	m.Record(QueryEvent{Query: "zzz inexistente", Category: taxonomy.CategoryUnknown, ResultCount: 0, Latency: 700 * time.Millisecond, Fallback: true})

	s := m.Snapshot()
	assert.Equal(t, int64(3), s.TotalQueries)
	assert.Equal(t, int64(1), s.ZeroResultCount)
	assert.Equal(t, int64(1), s.CacheHitCount)
	assert.Equal(t, int64(1), s.FallbackCount)
	assert.Equal(t, int64(2), s.CategoryCounts[taxonomy.CategoryMop])
	assert.Equal(t, int64(1), s.LatencyDistribution[BucketP10])
	assert.Equal(t, int64(1), s.LatencyDistribution[BucketP100])
	assert.Equal(t, int64(1), s.LatencyDistribution[BucketP1000])
	assert.Equal(t, []string{"zzz inexistente"}, s.ZeroResultQueries)
	assert.InDelta(t, 100.0/3, s.ZeroResultPercentage(), 0.01)
	assert.InDelta(t, 1.0/3, s.CacheHitRate(), 0.01)
}

func TestTopTermsOrdering(t *testing.T) {
	m := New()
	m.Record(QueryEvent{Query: "mop umido", ResultCount: 1})
	m.Record(QueryEvent{Query: "mop seco", ResultCount: 1})
	m.Record(QueryEvent{Query: "vassoura de nylon", ResultCount: 1})

	s := m.Snapshot()
	require.NotEmpty(t, s.TopTerms)
	assert.Equal(t, "mop", s.TopTerms[0].Term)
	assert.Equal(t, int64(2), s.TopTerms[0].Count)

	// Short function words never counted.
	for _, tc := range s.TopTerms {
		assert.GreaterOrEqual(t, len(tc.Term), 3)
	}
}

func TestLatencyToBucket(t *testing.T) {
	assert.Equal(t, BucketP10, LatencyToBucket(5*time.Millisecond))
	assert.Equal(t, BucketP50, LatencyToBucket(25*time.Millisecond))
	assert.Equal(t, BucketP100, LatencyToBucket(80*time.Millisecond))
	assert.Equal(t, BucketP500, LatencyToBucket(300*time.Millisecond))
	assert.Equal(t, BucketP1000, LatencyToBucket(2*time.Second))
}

func TestCircularBufferWraps(t *testing.T) {
	b := NewCircularBuffer[int](3)
	assert.Empty(t, b.Items())

	for i := 1; i <= 5; i++ {
		b.Add(i)
	}
	assert.Equal(t, 3, b.Size())
	assert.Equal(t, []int{3, 4, 5}, b.Items())

	b.Clear()
	assert.Zero(t, b.Size())
}

func TestCircularBufferPartialFill(t *testing.T) {
	b := NewCircularBuffer[string](4)
	b.Add("a")
	b.Add("b")
	assert.Equal(t, []string{"a", "b"}, b.Items())
}

func TestZeroResultBufferCapacity(t *testing.T) {
	m := NewWithConfig(Config{ZeroResultsCapacity: 2})
	for i := 0; i < 4; i++ {
		m.Record(QueryEvent{Query: fmt.Sprintf("consulta %d", i), ResultCount: 0})
	}

	s := m.Snapshot()
	assert.Equal(t, int64(4), s.ZeroResultCount)
	assert.Len(t, s.ZeroResultQueries, 2)
}
