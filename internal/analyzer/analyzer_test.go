package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(day string, hour int, open, click float64) EmailRecord {
	return EmailRecord{
		BusinessUnit:     "Unknown",
		OrganizationType: "Unknown",
		CampaignType:     "Unknown",
		SendTimestamp:    time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC),
		DayOfWeek:        day,
		HourOfDay:        hour,
		OpenRate:         open,
		ClickRate:        click,
	}
}

func basicRecords() []EmailRecord {
	return []EmailRecord{
		rec("Tuesday", 10, 40, 5),
		rec("Tuesday", 10, 60, 15),
		rec("Friday", 16, 10, 1),
	}
}

func TestAnalyze_HistoricalBasicRanking(t *testing.T) {
	a := New(nil)

	result, err := a.Analyze(basicRecords(), ModeHistorical, Filters{})
	require.NoError(t, err)
	require.Len(t, result.Ranked, 2)

	top := result.Ranked[0]
	assert.Equal(t, "Tuesday", top.DayOfWeek)
	assert.Equal(t, 10, top.HourOfDay)
	assert.Equal(t, 2, top.SampleSize)
	assert.Equal(t, 50.0, top.AvgOpenRate)
	assert.Equal(t, 10.0, top.AvgClickRate)
	assert.InDelta(t, 38.0, top.Score, 1e-9)

	second := result.Ranked[1]
	assert.Equal(t, "Friday", second.DayOfWeek)
	assert.Equal(t, 16, second.HourOfDay)
	assert.Equal(t, 1, second.SampleSize)
	assert.InDelta(t, 7.3, second.Score, 1e-9)

	assert.Equal(t, top, result.Primary)
	assert.Equal(t, second, result.Secondary)
	assert.True(t, result.Tertiary.IsSentinel())
}

func TestAnalyze_HistoricalEmptyInputFails(t *testing.T) {
	a := New(nil)

	_, err := a.Analyze(nil, ModeHistorical, Filters{})
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = a.Analyze([]EmailRecord{}, ModeHistorical, Filters{})
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestAnalyze_UnknownMode(t *testing.T) {
	a := New(nil)
	_, err := a.Analyze(basicRecords(), Mode("psychic"), Filters{})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestAnalyze_Determinism(t *testing.T) {
	a := New(nil)
	records := basicRecords()

	first, err := a.Analyze(records, ModeCombined, Filters{BusinessUnit: "Retail"})
	require.NoError(t, err)
	second, err := a.Analyze(records, ModeCombined, Filters{BusinessUnit: "Retail"})
	require.NoError(t, err)

	require.Equal(t, len(first.Ranked), len(second.Ranked))
	for i := range first.Ranked {
		assert.Equal(t, first.Ranked[i], second.Ranked[i])
	}
	assert.Equal(t, first.Primary, second.Primary)
}

func TestAnalyze_ScoreMonotonicity(t *testing.T) {
	a := New(nil)
	records := []EmailRecord{
		rec("Monday", 8, 20, 2),
		rec("Tuesday", 10, 55, 12),
		rec("Wednesday", 9, 33, 4),
		rec("Thursday", 15, 48, 9),
		rec("Friday", 16, 5, 0),
		rec("Tuesday", 10, 61, 14),
	}

	result, err := a.Analyze(records, ModeHistorical, Filters{})
	require.NoError(t, err)

	for i := 1; i < len(result.Ranked); i++ {
		assert.GreaterOrEqual(t, result.Ranked[i-1].Score, result.Ranked[i].Score)
	}
}

func TestAnalyze_SampleCoverage(t *testing.T) {
	a := New(nil)
	records := []EmailRecord{
		rec("Monday", 8, 20, 2),
		rec("Monday", 8, 25, 3),
		rec("Tuesday", 10, 55, 12),
		rec("Friday", 16, 5, 0),
	}

	result, err := a.Analyze(records, ModeHistorical, Filters{})
	require.NoError(t, err)

	total := 0
	for _, b := range result.Ranked {
		total += b.SampleSize
	}
	assert.Equal(t, len(records), total)
	assert.Equal(t, len(records), result.RecordCount)
}

func TestAnalyze_BestPracticesStability(t *testing.T) {
	a := New(nil)

	withRecords, err := a.Analyze(basicRecords(), ModeBestPractices, Filters{})
	require.NoError(t, err)
	empty, err := a.Analyze(nil, ModeBestPractices, Filters{})
	require.NoError(t, err)

	require.Len(t, withRecords.Ranked, len(DefaultBestPractices))
	require.Equal(t, withRecords.Ranked, empty.Ranked)

	for i, e := range DefaultBestPractices {
		b := withRecords.Ranked[i]
		assert.Equal(t, e.DayOfWeek, b.DayOfWeek)
		assert.Equal(t, e.HourOfDay, b.HourOfDay)
		assert.Equal(t, 0, b.SampleSize)
		assert.Equal(t, e.Score, b.AvgOpenRate)
		assert.InDelta(t, e.Score*0.3, b.AvgClickRate, 1e-9)
		assert.Equal(t, e.Score, b.Score)
	}
	assert.Zero(t, withRecords.RecordCount)
}

func TestAnalyze_CombinedFallbackOnEmptyInput(t *testing.T) {
	a := New(nil)

	combined, err := a.Analyze(nil, ModeCombined, Filters{CampaignType: "Promo"})
	require.NoError(t, err)
	best, err := a.Analyze(nil, ModeBestPractices, Filters{CampaignType: "Promo"})
	require.NoError(t, err)

	assert.Equal(t, best.Primary, combined.Primary)
	assert.Equal(t, best.Secondary, combined.Secondary)
	assert.Equal(t, best.Tertiary, combined.Tertiary)
	assert.Equal(t, best.Ranked, combined.Ranked)
	assert.Equal(t, ModeCombined, combined.Mode)
}

func TestAnalyze_CombinedBlendWithExactMatch(t *testing.T) {
	// Tuesday-10 historical bucket (score 38) coincides with the
	// best-practice entry at Tuesday-10 (score 95).
	a := New(nil)

	result, err := a.Analyze(basicRecords(), ModeCombined, Filters{})
	require.NoError(t, err)

	var tuesday *TimeSlotBucket
	for i := range result.Ranked {
		if result.Ranked[i].DayOfWeek == "Tuesday" && result.Ranked[i].HourOfDay == 10 {
			tuesday = &result.Ranked[i]
			break
		}
	}
	require.NotNil(t, tuesday)

	assert.InDelta(t, 38*0.6+95*0.4, tuesday.Score, 1e-9)       // 60.8
	assert.InDelta(t, 50*0.6+95*0.4, tuesday.AvgOpenRate, 1e-9) // 68
	assert.Equal(t, 2, tuesday.SampleSize)
}

func TestAnalyze_CombinedNoMatchInsertsScaledEntry(t *testing.T) {
	// Wednesday-9 (score 85) has no historical bucket in the basic dataset.
	a := New(nil)

	result, err := a.Analyze(basicRecords(), ModeCombined, Filters{})
	require.NoError(t, err)

	var wednesday *TimeSlotBucket
	for i := range result.Ranked {
		if result.Ranked[i].DayOfWeek == "Wednesday" && result.Ranked[i].HourOfDay == 9 {
			wednesday = &result.Ranked[i]
			break
		}
	}
	require.NotNil(t, wednesday)

	assert.InDelta(t, 85*0.4, wednesday.Score, 1e-9)
	assert.Equal(t, 0, wednesday.SampleSize)
}

func TestAnalyze_CombinedUnmatchedHistoricalKeepsRates(t *testing.T) {
	a := New(nil)

	result, err := a.Analyze(basicRecords(), ModeCombined, Filters{})
	require.NoError(t, err)

	var friday *TimeSlotBucket
	for i := range result.Ranked {
		if result.Ranked[i].DayOfWeek == "Friday" && result.Ranked[i].HourOfDay == 16 {
			friday = &result.Ranked[i]
			break
		}
	}
	require.NotNil(t, friday)

	// Score is scaled; the presented averages stay untouched for slots the
	// best-practice table does not cover.
	assert.InDelta(t, 7.3*0.6, friday.Score, 1e-9)
	assert.Equal(t, 10.0, friday.AvgOpenRate)
	assert.Equal(t, 1, friday.SampleSize)
}

func TestAnalyze_InjectedTable(t *testing.T) {
	table := []BestPracticeEntry{
		{DayOfWeek: "Saturday", HourOfDay: 7, Score: 50, Rationale: "weekend early birds"},
	}
	a := New(table)

	result, err := a.Analyze(nil, ModeBestPractices, Filters{})
	require.NoError(t, err)
	require.Len(t, result.Ranked, 1)
	assert.Equal(t, "Saturday", result.Primary.DayOfWeek)
	assert.True(t, result.Secondary.IsSentinel())
	assert.True(t, result.Tertiary.IsSentinel())
}

func TestAnalyze_MalformedKeyRecordsRejected(t *testing.T) {
	a := New(nil)
	records := append(basicRecords(),
		EmailRecord{DayOfWeek: "Someday", HourOfDay: 10, OpenRate: 99},
		EmailRecord{DayOfWeek: "Tuesday", HourOfDay: 24, OpenRate: 99},
		EmailRecord{DayOfWeek: "Tuesday", HourOfDay: -1, OpenRate: 99},
	)

	result, err := a.Analyze(records, ModeHistorical, Filters{})
	require.NoError(t, err)

	// The corrupt records must not reach any bucket.
	total := 0
	for _, b := range result.Ranked {
		total += b.SampleSize
		assert.LessOrEqual(t, b.AvgOpenRate, 50.0)
	}
	assert.Equal(t, 3, total)
}

func TestAnalyze_TieBreakKeepsEncounterOrder(t *testing.T) {
	a := New(nil)
	records := []EmailRecord{
		rec("Monday", 9, 30, 10),
		rec("Thursday", 11, 30, 10),
		rec("Friday", 13, 30, 10),
	}

	result, err := a.Analyze(records, ModeHistorical, Filters{})
	require.NoError(t, err)
	require.Len(t, result.Ranked, 3)

	assert.Equal(t, "Monday", result.Ranked[0].DayOfWeek)
	assert.Equal(t, "Thursday", result.Ranked[1].DayOfWeek)
	assert.Equal(t, "Friday", result.Ranked[2].DayOfWeek)
}

func TestAnalyze_DateRangeMetadata(t *testing.T) {
	a := New(nil)
	early := time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)
	late := time.Date(2026, 2, 10, 16, 0, 0, 0, time.UTC)

	r1 := rec("Tuesday", 10, 40, 5)
	r1.SendTimestamp = early
	r2 := rec("Tuesday", 16, 20, 2)
	r2.SendTimestamp = late

	result, err := a.Analyze([]EmailRecord{r2, r1}, ModeHistorical, Filters{})
	require.NoError(t, err)
	assert.Equal(t, early, result.DateFrom)
	assert.Equal(t, late, result.DateTo)
}

func TestAnalyze_FiltersEchoed(t *testing.T) {
	a := New(nil)
	f := Filters{BusinessUnit: "Retail", OrganizationType: FilterAll, CampaignType: "Newsletter"}

	result, err := a.Analyze(basicRecords(), ModeHistorical, f)
	require.NoError(t, err)
	assert.Equal(t, f, result.Filters)
}

func TestDeriveTimeSlot(t *testing.T) {
	r := EmailRecord{SendTimestamp: time.Date(2026, 3, 3, 14, 30, 0, 0, time.UTC)} // a Tuesday
	r.DeriveTimeSlot()
	assert.Equal(t, "Tuesday", r.DayOfWeek)
	assert.Equal(t, 14, r.HourOfDay)
}
