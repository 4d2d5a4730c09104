package datanorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mappingFor(header []string) *ColumnMapping {
	return MapColumns(header)
}

func TestNormalizeRow_FullRow(t *testing.T) {
	m := mappingFor([]string{"business_unit", "org_type", "campaign_type", "send_date", "send_time", "open_rate", "click_rate"})
	require.NotNil(t, m)

	rec, err := NormalizeRow([]string{"Retail", "Nonprofit", "Newsletter", "2026-03-03", "10:30", "42.5%", "6.1"}, m)
	require.NoError(t, err)

	assert.Equal(t, "Retail", rec.BusinessUnit)
	assert.Equal(t, "Nonprofit", rec.OrganizationType)
	assert.Equal(t, "Newsletter", rec.CampaignType)
	assert.Equal(t, "Tuesday", rec.DayOfWeek)
	assert.Equal(t, 10, rec.HourOfDay)
	assert.Equal(t, 42.5, rec.OpenRate)
	assert.Equal(t, 6.1, rec.ClickRate)
}

func TestNormalizeRow_MissingCategoricalsDefaultToUnknown(t *testing.T) {
	m := mappingFor([]string{"send_date", "open_rate"})
	require.NotNil(t, m)

	rec, err := NormalizeRow([]string{"2026-03-03", "30"}, m)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", rec.BusinessUnit)
	assert.Equal(t, "Unknown", rec.OrganizationType)
	assert.Equal(t, "Unknown", rec.CampaignType)
	assert.Zero(t, rec.ClickRate)
	assert.Zero(t, rec.BounceRate)
}

func TestNormalizeRow_MiddayDefaultWhenTimeMissing(t *testing.T) {
	m := mappingFor([]string{"send_date", "send_time", "open_rate"})
	require.NotNil(t, m)

	rec, err := NormalizeRow([]string{"03/03/2026", "", "30"}, m)
	require.NoError(t, err)
	assert.Equal(t, 12, rec.HourOfDay)
	assert.Equal(t, "Tuesday", rec.DayOfWeek)
}

func TestNormalizeRow_TwelveHourClock(t *testing.T) {
	m := mappingFor([]string{"send_date", "send_time"})
	require.NotNil(t, m)

	rec, err := NormalizeRow([]string{"2026-03-06", "3:15 pm"}, m)
	require.NoError(t, err)
	assert.Equal(t, 15, rec.HourOfDay)
	assert.Equal(t, "Friday", rec.DayOfWeek)
}

func TestNormalizeRow_UnparseableDateRejected(t *testing.T) {
	m := mappingFor([]string{"send_date", "open_rate"})
	require.NotNil(t, m)

	_, err := NormalizeRow([]string{"sometime last week", "30"}, m)
	assert.Error(t, err)

	_, err = NormalizeRow([]string{"", "30"}, m)
	assert.Error(t, err)
}

func TestNormalizeRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"45", 45},
		{"45.5%", 45.5},
		{"0.45", 45},    // fraction-form export
		{"0.45%", 0.45}, // explicit sub-percent
		{"1", 1},
		{"150", 100},   // clamped
		{"-3", 0},      // clamped
		{"n/a", 0},     // unparseable
		{"1,234", 100}, // thousands separator, clamped
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeRate(tt.in), "normalizeRate(%q)", tt.in)
	}
}
