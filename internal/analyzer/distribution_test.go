package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeatmap_DayMajorHourMinorOrder(t *testing.T) {
	records := []EmailRecord{
		rec("Friday", 16, 10, 1),
		rec("Tuesday", 14, 30, 4),
		rec("Tuesday", 10, 40, 5),
		rec("Tuesday", 10, 60, 15),
		rec("Sunday", 20, 12, 2),
	}

	cells := Heatmap(records)
	require.Len(t, cells, 4)

	assert.Equal(t, HeatmapCell{DayOfWeek: "Sunday", HourOfDay: 20, AvgOpenRate: 12, Count: 1}, cells[0])
	assert.Equal(t, HeatmapCell{DayOfWeek: "Tuesday", HourOfDay: 10, AvgOpenRate: 50, Count: 2}, cells[1])
	assert.Equal(t, HeatmapCell{DayOfWeek: "Tuesday", HourOfDay: 14, AvgOpenRate: 30, Count: 1}, cells[2])
	assert.Equal(t, HeatmapCell{DayOfWeek: "Friday", HourOfDay: 16, AvgOpenRate: 10, Count: 1}, cells[3])
}

func TestHeatmap_Empty(t *testing.T) {
	assert.Empty(t, Heatmap(nil))
}

func TestDistributionByHour_CountsSumToRecordCount(t *testing.T) {
	records := []EmailRecord{
		rec("Tuesday", 10, 40, 5),
		rec("Wednesday", 10, 60, 15),
		rec("Friday", 16, 10, 1),
		rec("Friday", 16, 20, 3),
		rec("Monday", 8, 25, 2),
	}

	stats := DistributionByHour(records)
	total := 0
	for _, s := range stats {
		total += s.Count
	}
	assert.Equal(t, len(records), total)

	// Hours come back ascending with both slot samples folded together.
	require.Len(t, stats, 3)
	assert.Equal(t, 8, stats[0].Hour)
	assert.Equal(t, 10, stats[1].Hour)
	assert.Equal(t, 2, stats[1].Count)
	assert.Equal(t, 50.0, stats[1].AvgOpenRate)
	assert.Equal(t, 16, stats[2].Hour)
}

func TestDistributionByDay_SundayFirst(t *testing.T) {
	records := []EmailRecord{
		rec("Friday", 16, 10, 1),
		rec("Sunday", 9, 30, 3),
		rec("Tuesday", 10, 40, 5),
		rec("Tuesday", 14, 60, 15),
	}

	stats := DistributionByDay(records)
	require.Len(t, stats, 3)
	assert.Equal(t, "Sunday", stats[0].DayOfWeek)
	assert.Equal(t, "Tuesday", stats[1].DayOfWeek)
	assert.Equal(t, 2, stats[1].Count)
	assert.Equal(t, 50.0, stats[1].AvgOpenRate)
	assert.Equal(t, "Friday", stats[2].DayOfWeek)
}

func TestDistributions_IgnoreMalformedKeys(t *testing.T) {
	records := []EmailRecord{
		rec("Tuesday", 10, 40, 5),
		{DayOfWeek: "Blursday", HourOfDay: 10, OpenRate: 99},
		{DayOfWeek: "Tuesday", HourOfDay: 42, OpenRate: 99},
	}

	assert.Len(t, Heatmap(records), 1)
	assert.Len(t, DistributionByHour(records), 1)
	assert.Len(t, DistributionByDay(records), 1)
}
