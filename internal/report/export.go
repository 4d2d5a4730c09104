package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ignite/sendtime-optimizer/internal/analyzer"
)

// WriteCSV writes the ranked buckets as CSV, best slot first.
func WriteCSV(w io.Writer, result *analyzer.AnalysisResult) error {
	cw := csv.NewWriter(w)

	header := []string{"rank", "day_of_week", "hour_of_day", "sample_size", "avg_open_rate", "avg_click_rate", "score"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, b := range result.Ranked {
		row := []string{
			strconv.Itoa(i + 1),
			b.DayOfWeek,
			strconv.Itoa(b.HourOfDay),
			strconv.Itoa(b.SampleSize),
			strconv.FormatFloat(b.AvgOpenRate, 'f', 2, 64),
			strconv.FormatFloat(b.AvgClickRate, 'f', 2, 64),
			strconv.FormatFloat(b.Score, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full AnalysisResult as indented JSON.
func WriteJSON(w io.Writer, result *analyzer.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
