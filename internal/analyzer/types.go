package analyzer

import "time"

// Mode selects the analysis strategy.
type Mode string

const (
	ModeBestPractices Mode = "best-practices"
	ModeHistorical    Mode = "historical"
	ModeCombined      Mode = "combined"
)

// ValidMode reports whether m is one of the supported analysis modes.
func ValidMode(m Mode) bool {
	switch m {
	case ModeBestPractices, ModeHistorical, ModeCombined:
		return true
	}
	return false
}

// FilterAll is the wildcard sentinel meaning "no filter on this field".
const FilterAll = "All"

// Filters holds the categorical equality filters the caller applied before
// invoking the analyzer. The analyzer itself never filters; it only echoes
// these back into result metadata.
type Filters struct {
	BusinessUnit     string `json:"business_unit"`
	OrganizationType string `json:"organization_type"`
	CampaignType     string `json:"campaign_type"`
}

// EmailRecord is one normalized sent-campaign sample. Records are fully
// validated upstream (datanorm): rates clamped to [0,100], categoricals
// defaulted to "Unknown", and SendTimestamp always parseable.
type EmailRecord struct {
	BusinessUnit     string    `json:"business_unit"`
	OrganizationType string    `json:"organization_type"`
	CampaignType     string    `json:"campaign_type"`
	SendTimestamp    time.Time `json:"send_timestamp"`
	DayOfWeek        string    `json:"day_of_week"`
	HourOfDay        int       `json:"hour_of_day"`
	OpenRate         float64   `json:"open_rate"`
	ClickRate        float64   `json:"click_rate"`
	UnsubscribeRate  float64   `json:"unsubscribe_rate"`
	BounceRate       float64   `json:"bounce_rate"`
}

// DeriveTimeSlot fills DayOfWeek and HourOfDay from SendTimestamp.
func (r *EmailRecord) DeriveTimeSlot() {
	r.DayOfWeek = r.SendTimestamp.Weekday().String()
	r.HourOfDay = r.SendTimestamp.Hour()
}

// TimeSlotBucket is the aggregate of all records sharing a
// (day-of-week, hour-of-day) pair. Buckets are rebuilt from scratch on
// every analysis pass and never mutated afterwards.
type TimeSlotBucket struct {
	DayOfWeek   string  `json:"day_of_week"`
	HourOfDay   int     `json:"hour_of_day"`
	SampleSize  int     `json:"sample_size"`
	AvgOpenRate float64 `json:"avg_open_rate"`
	AvgClickRate float64 `json:"avg_click_rate"`
	Score       float64 `json:"score"`
	Rationale   string  `json:"rationale,omitempty"`
}

// SentinelDay marks a placeholder bucket returned when fewer than three
// ranked buckets exist. Callers must treat it as "no recommendation
// available", not as a valid slot.
const SentinelDay = "N/A"

// IsSentinel reports whether the bucket is a placeholder for a missing
// recommendation slot.
func (b TimeSlotBucket) IsSentinel() bool { return b.DayOfWeek == SentinelDay }

// BestPracticeEntry is a curated, non-data-derived recommended send time.
type BestPracticeEntry struct {
	DayOfWeek string  `json:"day_of_week"`
	HourOfDay int     `json:"hour_of_day"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// AnalysisResult is the output of one analysis pass: the top-3 ranked
// buckets plus the full ranked list and run metadata. Ephemeral; callers
// own any persistence.
type AnalysisResult struct {
	Primary     TimeSlotBucket   `json:"primary"`
	Secondary   TimeSlotBucket   `json:"secondary"`
	Tertiary    TimeSlotBucket   `json:"tertiary"`
	Ranked      []TimeSlotBucket `json:"ranked"`
	RecordCount int              `json:"record_count"`
	DateFrom    time.Time        `json:"date_from,omitempty"`
	DateTo      time.Time        `json:"date_to,omitempty"`
	Filters     Filters          `json:"filters"`
	Mode        Mode             `json:"mode"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// HeatmapCell is one non-empty (day, hour) cell of the 7x24 engagement grid.
type HeatmapCell struct {
	DayOfWeek   string  `json:"day_of_week"`
	HourOfDay   int     `json:"hour_of_day"`
	AvgOpenRate float64 `json:"avg_open_rate"`
	Count       int     `json:"count"`
}

// HourStat is the per-hour descriptive aggregation used for charting.
type HourStat struct {
	Hour         int     `json:"hour"`
	Count        int     `json:"count"`
	AvgOpenRate  float64 `json:"avg_open_rate"`
	AvgClickRate float64 `json:"avg_click_rate"`
}

// DayStat is the per-day descriptive aggregation used for charting.
type DayStat struct {
	DayOfWeek    string  `json:"day_of_week"`
	Count        int     `json:"count"`
	AvgOpenRate  float64 `json:"avg_open_rate"`
	AvgClickRate float64 `json:"avg_click_rate"`
}

// weekdays in calendar order, Sunday first (matches time.Weekday).
var weekdays = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

var weekdaySet = func() map[string]bool {
	m := make(map[string]bool, len(weekdays))
	for _, d := range weekdays {
		m[d] = true
	}
	return m
}()
