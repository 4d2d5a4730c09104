package datanorm

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/sendtime-optimizer/internal/analyzer"
)

// defaultCategory is substituted for absent categorical values.
const defaultCategory = "Unknown"

// middayHour is the assumed send hour when a report row carries a date but
// no time of day.
const middayHour = 12

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// NormalizeRow converts one mapped CSV row into an EmailRecord. Rows whose
// send date cannot be parsed are rejected; every record leaving this
// function has a valid (day-of-week, hour-of-day) pair.
func NormalizeRow(row []string, mapping *ColumnMapping) (analyzer.EmailRecord, error) {
	rec := analyzer.EmailRecord{
		BusinessUnit:     defaultCategory,
		OrganizationType: defaultCategory,
		CampaignType:     defaultCategory,
	}

	var dateVal, timeVal string
	for i, val := range row {
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		field, mapped := mapping.FieldMap[i]
		if !mapped {
			continue
		}
		switch field {
		case FieldBusinessUnit:
			rec.BusinessUnit = val
		case FieldOrganizationType:
			rec.OrganizationType = val
		case FieldCampaignType:
			rec.CampaignType = val
		case FieldSendDate:
			dateVal = val
		case FieldSendTime:
			timeVal = val
		case FieldOpenRate:
			rec.OpenRate = normalizeRate(val)
		case FieldClickRate:
			rec.ClickRate = normalizeRate(val)
		case FieldUnsubscribeRate:
			rec.UnsubscribeRate = normalizeRate(val)
		case FieldBounceRate:
			rec.BounceRate = normalizeRate(val)
		}
	}

	ts, err := parseSendTimestamp(dateVal, timeVal)
	if err != nil {
		return analyzer.EmailRecord{}, err
	}
	rec.SendTimestamp = ts
	rec.DeriveTimeSlot()

	return rec, nil
}

// parseSendTimestamp combines the date and optional time-of-day columns.
// A missing or unparseable time falls back to midday; a missing or
// unparseable date is an error.
func parseSendTimestamp(dateVal, timeVal string) (time.Time, error) {
	if dateVal == "" {
		return time.Time{}, fmt.Errorf("missing send date")
	}

	var day time.Time
	var err error
	for _, layout := range dateLayouts {
		day, err = time.Parse(layout, dateVal)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable send date %q", dateVal)
	}

	// A date layout that already carries a clock wins over the time column.
	if day.Hour() != 0 || day.Minute() != 0 || day.Second() != 0 {
		return day, nil
	}

	hour, minute := middayHour, 0
	if timeVal != "" {
		if t, ok := parseTimeOfDay(timeVal); ok {
			hour, minute = t.Hour(), t.Minute()
		}
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC), nil
}

func parseTimeOfDay(val string) (time.Time, bool) {
	val = strings.ToUpper(strings.TrimSpace(val))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeRate parses a percentage cell and clamps it to [0,100].
// Accepts "45%", "45.5", and fractional exports like "0.45" (treated as
// 45% — ESP exports that omit the percent sign and stay below 1.0 are
// fraction-form). Unparseable or negative values default to 0.
func normalizeRate(val string) float64 {
	val = strings.TrimSpace(val)
	hadPercent := strings.HasSuffix(val, "%")
	val = strings.TrimSpace(strings.TrimSuffix(val, "%"))

	f, err := strconv.ParseFloat(strings.ReplaceAll(val, ",", ""), 64)
	if err != nil {
		return 0
	}
	if !hadPercent && f > 0 && f < 1.0 {
		f *= 100
	}
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}
