// Package analyzer implements the time-slot scoring engine: it buckets
// normalized email-campaign records by (day-of-week, hour-of-day), computes
// per-bucket engagement averages, and ranks buckets by a weighted composite
// score, optionally blended with a curated best-practice table.
//
// All operations are pure and deterministic: no I/O, no mutation of input,
// safe to call concurrently as long as callers do not share a records slice.
package analyzer

import (
	"errors"
	"sort"
	"time"

	"github.com/ignite/sendtime-optimizer/internal/pkg/logger"
)

// ErrEmptyDataset is returned when historical or combined analysis is
// requested with zero input records. Retrying without new data cannot
// succeed; callers should switch mode or relax filters.
var ErrEmptyDataset = errors.New("no data available for analysis")

// ErrUnknownMode is returned for a mode outside the supported set.
var ErrUnknownMode = errors.New("unknown analysis mode")

// Score weights. Open rate is the earlier, more reliable engagement signal;
// clicks are rarer and noisier, hence the lower weight.
const (
	openWeight  = 0.7
	clickWeight = 0.3
)

// Combined-mode blend. Historical data reflects the actual audience and
// dominates once available; the best-practice share smooths sparse-sample
// noise.
const (
	historicalBlend   = 0.6
	bestPracticeBlend = 0.4
)

// Analyzer scores and ranks time-slot buckets. The best-practice table is
// injected at construction rather than read from a package global so tests
// can substitute alternate reference tables.
type Analyzer struct {
	bestPractices []BestPracticeEntry
}

// New creates an Analyzer with the given best-practice table. A nil table
// falls back to DefaultBestPractices.
func New(bestPractices []BestPracticeEntry) *Analyzer {
	if bestPractices == nil {
		bestPractices = DefaultBestPractices
	}
	return &Analyzer{bestPractices: bestPractices}
}

// Analyze runs one analysis pass over records using the selected mode.
// records must already be filtered by the caller; filters are only echoed
// into the result metadata. Historical and combined mode require at least
// one record, except that combined falls back to best-practices on empty
// input instead of failing.
func (a *Analyzer) Analyze(records []EmailRecord, mode Mode, filters Filters) (*AnalysisResult, error) {
	var (
		ranked []TimeSlotBucket
		err    error
	)

	switch mode {
	case ModeBestPractices:
		ranked = a.bestPracticeBuckets()
	case ModeHistorical:
		ranked, err = a.historicalBuckets(records)
		if err != nil {
			return nil, err
		}
	case ModeCombined:
		ranked, err = a.combinedBuckets(records)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownMode
	}

	result := &AnalysisResult{
		Ranked:      ranked,
		RecordCount: len(records),
		Filters:     filters,
		Mode:        mode,
		GeneratedAt: time.Now().UTC(),
	}
	if mode == ModeBestPractices {
		// Best-practices ignores input entirely; no record-derived metadata.
		result.RecordCount = 0
	} else {
		result.DateFrom, result.DateTo = dateRange(records)
	}
	result.Primary, result.Secondary, result.Tertiary = rank(ranked)

	return result, nil
}

// bestPracticeBuckets expands the curated table into buckets. The table is
// already rank-ordered, so no re-sort is needed. The entry score doubles as
// a proxy open-rate value.
func (a *Analyzer) bestPracticeBuckets() []TimeSlotBucket {
	buckets := make([]TimeSlotBucket, 0, len(a.bestPractices))
	for _, e := range a.bestPractices {
		buckets = append(buckets, TimeSlotBucket{
			DayOfWeek:    e.DayOfWeek,
			HourOfDay:    e.HourOfDay,
			SampleSize:   0,
			AvgOpenRate:  e.Score,
			AvgClickRate: e.Score * bestPracticeClickFactor,
			Score:        e.Score,
			Rationale:    e.Rationale,
		})
	}
	return buckets
}

// slotKey identifies one bucket.
type slotKey struct {
	day  string
	hour int
}

// validSlot rejects records whose derived key falls outside the 7x24 grid.
// Such records cannot occur when the datanorm contract is honored, but a
// corrupt key must not silently poison a bucket.
func validSlot(r EmailRecord) bool {
	return weekdaySet[r.DayOfWeek] && r.HourOfDay >= 0 && r.HourOfDay <= 23
}

// historicalBuckets groups records by (day, hour), averages the engagement
// rates per bucket, scores, and sorts by score descending. The sort is
// stable; ties keep grouping-encounter order so identical input always
// yields identical output.
func (a *Analyzer) historicalBuckets(records []EmailRecord) ([]TimeSlotBucket, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	type agg struct {
		count    int
		openSum  float64
		clickSum float64
	}

	order := make([]slotKey, 0)
	groups := make(map[slotKey]*agg)

	for _, r := range records {
		if !validSlot(r) {
			logger.Warn("record rejected from aggregation: malformed bucket key",
				"day_of_week", r.DayOfWeek, "hour_of_day", r.HourOfDay)
			continue
		}
		k := slotKey{day: r.DayOfWeek, hour: r.HourOfDay}
		g, ok := groups[k]
		if !ok {
			g = &agg{}
			groups[k] = g
			order = append(order, k)
		}
		g.count++
		g.openSum += r.OpenRate
		g.clickSum += r.ClickRate
	}

	if len(order) == 0 {
		return nil, ErrEmptyDataset
	}

	buckets := make([]TimeSlotBucket, 0, len(order))
	for _, k := range order {
		g := groups[k]
		avgOpen := g.openSum / float64(g.count)
		avgClick := g.clickSum / float64(g.count)
		buckets = append(buckets, TimeSlotBucket{
			DayOfWeek:    k.day,
			HourOfDay:    k.hour,
			SampleSize:   g.count,
			AvgOpenRate:  avgOpen,
			AvgClickRate: avgClick,
			Score:        avgOpen*openWeight + avgClick*clickWeight,
		})
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Score > buckets[j].Score
	})

	return buckets, nil
}

// combinedBuckets blends the historical ranking with the best-practice table
// at fixed 60/40 weights. The same split is applied to the presented rates,
// not just the score, so the displayed averages stay consistent with the
// blended ranking. Empty input delegates entirely to best-practices.
func (a *Analyzer) combinedBuckets(records []EmailRecord) ([]TimeSlotBucket, error) {
	historical, err := a.historicalBuckets(records)
	if errors.Is(err, ErrEmptyDataset) {
		return a.bestPracticeBuckets(), nil
	}
	if err != nil {
		return nil, err
	}

	buckets := make([]TimeSlotBucket, len(historical))
	index := make(map[slotKey]int, len(historical))
	for i, b := range historical {
		b.Score *= historicalBlend
		buckets[i] = b
		index[slotKey{day: b.DayOfWeek, hour: b.HourOfDay}] = i
	}

	for _, e := range a.bestPractices {
		k := slotKey{day: e.DayOfWeek, hour: e.HourOfDay}
		if i, ok := index[k]; ok {
			b := &buckets[i]
			b.Score += e.Score * bestPracticeBlend
			b.AvgOpenRate = b.AvgOpenRate*historicalBlend + e.Score*bestPracticeBlend
			b.AvgClickRate = b.AvgClickRate*historicalBlend + e.Score*bestPracticeClickFactor*bestPracticeBlend
			b.Rationale = e.Rationale
			continue
		}
		buckets = append(buckets, TimeSlotBucket{
			DayOfWeek:    e.DayOfWeek,
			HourOfDay:    e.HourOfDay,
			SampleSize:   0,
			AvgOpenRate:  e.Score * bestPracticeBlend,
			AvgClickRate: e.Score * bestPracticeClickFactor * bestPracticeBlend,
			Score:        e.Score * bestPracticeBlend,
			Rationale:    e.Rationale,
		})
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Score > buckets[j].Score
	})

	return buckets, nil
}

// rank returns the first three buckets of the sorted list, padding missing
// slots with the sentinel bucket rather than failing.
func rank(buckets []TimeSlotBucket) (primary, secondary, tertiary TimeSlotBucket) {
	sentinel := TimeSlotBucket{DayOfWeek: SentinelDay}
	out := [3]TimeSlotBucket{sentinel, sentinel, sentinel}
	for i := 0; i < 3 && i < len(buckets); i++ {
		out[i] = buckets[i]
	}
	return out[0], out[1], out[2]
}

// dateRange returns the min and max send timestamps across records.
func dateRange(records []EmailRecord) (from, to time.Time) {
	for _, r := range records {
		if from.IsZero() || r.SendTimestamp.Before(from) {
			from = r.SendTimestamp
		}
		if to.IsZero() || r.SendTimestamp.After(to) {
			to = r.SendTimestamp
		}
	}
	return from, to
}
