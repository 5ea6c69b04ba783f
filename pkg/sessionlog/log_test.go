package sessionlog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hervehildenbrand/saferoute/pkg/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successResult() models.AnalysisResult {
	return models.AnalysisResult{
		Status: models.StatusSuccess,
		RiskAnalysis: &models.RiskAnalysis{
			RiskCombination:   "mid-low",
			PriorityLevel:     4,
			CombinedRiskScore: 75,
		},
		Recommendation: &models.Recommendation{IsRecommended: true, PriorityLevel: 4},
	}
}

func TestNewEntry_Success(t *testing.T) {
	at := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	e := NewEntry("s1", "Connaught Place", "Vivek Vihar", successResult(), at)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "s1", e.SessionID)
	assert.Equal(t, models.StatusSuccess, e.Status)
	assert.Equal(t, "mid-low", e.RiskCombination)
	assert.Equal(t, 4, e.PriorityLevel)
	assert.Equal(t, 75.0, e.CombinedRiskScore)
	assert.True(t, e.IsRecommended)
	assert.Empty(t, e.Message)
	assert.Equal(t, at, e.RecordedAt)
}

func TestNewEntry_Error(t *testing.T) {
	result := models.AnalysisResult{
		Status:  models.StatusError,
		Message: "Location(s) not found: Nowhere",
	}
	e := NewEntry("s1", "Nowhere", "Dwarka", result, time.Now())

	assert.Equal(t, models.StatusError, e.Status)
	assert.Equal(t, "Location(s) not found: Nowhere", e.Message)
	assert.Empty(t, e.RiskCombination)
	assert.False(t, e.IsRecommended)
}

func TestNewEntry_UniqueIDs(t *testing.T) {
	a := NewEntry("s1", "A", "B", successResult(), time.Now())
	b := NewEntry("s1", "A", "B", successResult(), time.Now())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMemoryLog(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog(0)

	for _, src := range []string{"A", "B", "C"} {
		require.NoError(t, l.Append(ctx, Entry{Source: src}))
	}

	entries, err := l.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "A", entries[0].Source)
	assert.Equal(t, "C", entries[2].Source)

	// Entries returns a copy
	entries[0].Source = "changed"
	again, _ := l.Entries(ctx)
	assert.Equal(t, "A", again[0].Source)

	assert.NoError(t, l.Close())
}

func TestMemoryLog_Capacity(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog(2)

	for _, src := range []string{"A", "B", "C", "D"} {
		require.NoError(t, l.Append(ctx, Entry{Source: src}))
	}

	entries, _ := l.Entries(ctx)
	require.Len(t, entries, 2)
	assert.Equal(t, "C", entries[0].Source)
	assert.Equal(t, "D", entries[1].Source)
	assert.Equal(t, uint64(2), l.Dropped())
	assert.Equal(t, 2, l.Len())
}

func TestMemoryLog_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Append(ctx, Entry{Source: "A"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, l.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "saferoute:session:abc:log", Key("abc"))
}

func TestEncodeDecodeEntries(t *testing.T) {
	at := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	in := []Entry{
		NewEntry("s1", "A", "B", successResult(), at),
	}

	values, err := encodeEntries(in)
	require.NoError(t, err)
	require.Len(t, values, 1)

	raw := []string{string(values[0].([]byte)), "not json"}
	out := decodeEntries(raw)
	require.Len(t, out, 1, "invalid values are skipped")
	assert.Equal(t, in[0], out[0])
}

func TestRedisLog_AppendAfterClose(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	l := NewRedisLog(client, "s1", 0)
	assert.Equal(t, DefaultTTL, l.ttl)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "close is idempotent")

	err := l.Append(context.Background(), Entry{Source: "A"})
	assert.Error(t, err)
}

func TestLogInterface(t *testing.T) {
	var _ Log = (*MemoryLog)(nil)
	var _ Log = (*RedisLog)(nil)
}
