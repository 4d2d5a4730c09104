package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/sendtime-optimizer/internal/analyzer"
)

func newTestCache(t *testing.T) (*AnalysisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, time.Minute), mr
}

func sampleResult(mode analyzer.Mode, f analyzer.Filters) *analyzer.AnalysisResult {
	return &analyzer.AnalysisResult{
		Primary: analyzer.TimeSlotBucket{DayOfWeek: "Tuesday", HourOfDay: 10, Score: 38},
		Ranked: []analyzer.TimeSlotBucket{
			{DayOfWeek: "Tuesday", HourOfDay: 10, Score: 38, SampleSize: 2},
		},
		RecordCount: 2,
		Filters:     f,
		Mode:        mode,
		GeneratedAt: time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC),
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	f := analyzer.Filters{BusinessUnit: "Retail"}

	miss, err := c.Get(ctx, analyzer.ModeHistorical, f)
	require.NoError(t, err)
	assert.Nil(t, miss)

	want := sampleResult(analyzer.ModeHistorical, f)
	require.NoError(t, c.Set(ctx, want))

	got, err := c.Get(ctx, analyzer.ModeHistorical, f)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Primary, got.Primary)
	assert.Equal(t, want.Ranked, got.Ranked)
	assert.Equal(t, want.RecordCount, got.RecordCount)
}

func TestCacheKeySeparatesModesAndFilters(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleResult(analyzer.ModeHistorical, analyzer.Filters{BusinessUnit: "Retail"})))

	other, err := c.Get(ctx, analyzer.ModeCombined, analyzer.Filters{BusinessUnit: "Retail"})
	require.NoError(t, err)
	assert.Nil(t, other)

	other, err = c.Get(ctx, analyzer.ModeHistorical, analyzer.Filters{BusinessUnit: "Media"})
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	f := analyzer.Filters{}

	require.NoError(t, c.Set(ctx, sampleResult(analyzer.ModeHistorical, f)))
	mr.FastForward(2 * time.Minute)

	got, err := c.Get(ctx, analyzer.ModeHistorical, f)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInvalidateDropsAllAnalysisKeys(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleResult(analyzer.ModeHistorical, analyzer.Filters{BusinessUnit: "Retail"})))
	require.NoError(t, c.Set(ctx, sampleResult(analyzer.ModeCombined, analyzer.Filters{})))

	require.NoError(t, c.Invalidate(ctx))

	got, err := c.Get(ctx, analyzer.ModeHistorical, analyzer.Filters{BusinessUnit: "Retail"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCorruptEntryTreatedAsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	f := analyzer.Filters{}

	mr.Set(Key(analyzer.ModeHistorical, f), "{not json")

	got, err := c.Get(ctx, analyzer.ModeHistorical, f)
	require.NoError(t, err)
	assert.Nil(t, got)
}
