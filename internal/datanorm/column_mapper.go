package datanorm

import "strings"

// CanonicalField is a normalized column name used across all report sources.
type CanonicalField string

const (
	FieldBusinessUnit     CanonicalField = "business_unit"
	FieldOrganizationType CanonicalField = "organization_type"
	FieldCampaignType     CanonicalField = "campaign_type"
	FieldSendDate         CanonicalField = "send_date"
	FieldSendTime         CanonicalField = "send_time"
	FieldOpenRate         CanonicalField = "open_rate"
	FieldClickRate        CanonicalField = "click_rate"
	FieldUnsubscribeRate  CanonicalField = "unsubscribe_rate"
	FieldBounceRate       CanonicalField = "bounce_rate"
)

// columnAliases maps lowercase header names to canonical fields.
// Campaign reports come from several ESP export formats; whenever multiple
// raw headers mean the same thing, they all map here.
var columnAliases = map[string]CanonicalField{
	// Business unit
	"business_unit": FieldBusinessUnit,
	"business unit": FieldBusinessUnit,
	"businessunit":  FieldBusinessUnit,
	"bu":            FieldBusinessUnit,
	"division":      FieldBusinessUnit,
	"brand":         FieldBusinessUnit,

	// Organization type
	"organization_type": FieldOrganizationType,
	"organization type": FieldOrganizationType,
	"org_type":          FieldOrganizationType,
	"org type":          FieldOrganizationType,
	"orgtype":           FieldOrganizationType,
	"audience_type":     FieldOrganizationType,

	// Campaign type
	"campaign_type": FieldCampaignType,
	"campaign type": FieldCampaignType,
	"campaigntype":  FieldCampaignType,
	"email_type":    FieldCampaignType,
	"mailing_type":  FieldCampaignType,

	// Send date
	"send_date":   FieldSendDate,
	"send date":   FieldSendDate,
	"senddate":    FieldSendDate,
	"sent_date":   FieldSendDate,
	"sent date":   FieldSendDate,
	"date_sent":   FieldSendDate,
	"date":        FieldSendDate,
	"deploy_date": FieldSendDate,

	// Send time
	"send_time":   FieldSendTime,
	"send time":   FieldSendTime,
	"sendtime":    FieldSendTime,
	"sent_time":   FieldSendTime,
	"time_sent":   FieldSendTime,
	"time":        FieldSendTime,
	"deploy_time": FieldSendTime,

	// Open rate
	"open_rate":        FieldOpenRate,
	"open rate":        FieldOpenRate,
	"openrate":         FieldOpenRate,
	"open_rate_pct":    FieldOpenRate,
	"opens_pct":        FieldOpenRate,
	"unique_open_rate": FieldOpenRate,

	// Click rate
	"click_rate":        FieldClickRate,
	"click rate":        FieldClickRate,
	"clickrate":         FieldClickRate,
	"ctr":               FieldClickRate,
	"click_rate_pct":    FieldClickRate,
	"unique_click_rate": FieldClickRate,

	// Unsubscribe rate
	"unsubscribe_rate": FieldUnsubscribeRate,
	"unsubscribe rate": FieldUnsubscribeRate,
	"unsub_rate":       FieldUnsubscribeRate,
	"unsubrate":        FieldUnsubscribeRate,

	// Bounce rate
	"bounce_rate": FieldBounceRate,
	"bounce rate": FieldBounceRate,
	"bouncerate":  FieldBounceRate,
}

// skipColumns carry no useful information for normalization.
var skipColumns = map[string]bool{
	"campaign_id":   true,
	"campaign_name": true,
	"subject":       true,
	"subject_line":  true,
	"from_name":     true,
	"from_email":    true,
	"list_id":       true,
	"sent_count":    true,
	"delivered":     true,
	"total_opens":   true,
	"total_clicks":  true,
	"notes":         true,
	"eof":           true,
}

// ShouldSkipColumn returns true if a column carries no useful normalized value.
func ShouldSkipColumn(headerName string) bool {
	return skipColumns[strings.ToLower(strings.TrimSpace(headerName))]
}

// ColumnMapping holds the resolved mapping from CSV column indices to
// canonical fields.
type ColumnMapping struct {
	SendDateIdx int
	FieldMap    map[int]CanonicalField // column index -> canonical field
	RawNames    []string               // original header names
}

// MapColumns takes a raw CSV header row and returns a resolved mapping.
// Returns nil if no send-date column is found: without a date there is no
// time slot to bucket on, so the file cannot be imported.
func MapColumns(header []string) *ColumnMapping {
	m := &ColumnMapping{
		SendDateIdx: -1,
		FieldMap:    make(map[int]CanonicalField, len(header)),
		RawNames:    header,
	}

	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(h))
		normalized = strings.Trim(normalized, "\"'")

		if field, ok := columnAliases[normalized]; ok {
			m.FieldMap[i] = field
			if field == FieldSendDate {
				m.SendDateIdx = i
			}
		}
	}

	// Fallback: any header containing "date" if no exact alias matched.
	if m.SendDateIdx < 0 {
		for i, h := range header {
			if _, taken := m.FieldMap[i]; taken {
				continue
			}
			if strings.Contains(strings.ToLower(h), "date") {
				m.FieldMap[i] = FieldSendDate
				m.SendDateIdx = i
				break
			}
		}
	}

	if m.SendDateIdx < 0 {
		return nil
	}

	return m
}
