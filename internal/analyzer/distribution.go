package analyzer

// Heatmap returns one cell per non-empty (day, hour) pair across the 7x24
// grid, in day-major, hour-minor order (Sunday first). Recomputed fresh on
// every call; independent of the scoring path.
func Heatmap(records []EmailRecord) []HeatmapCell {
	type agg struct {
		count   int
		openSum float64
	}
	grid := make(map[slotKey]*agg)
	for _, r := range records {
		if !validSlot(r) {
			continue
		}
		k := slotKey{day: r.DayOfWeek, hour: r.HourOfDay}
		g, ok := grid[k]
		if !ok {
			g = &agg{}
			grid[k] = g
		}
		g.count++
		g.openSum += r.OpenRate
	}

	cells := make([]HeatmapCell, 0, len(grid))
	for _, day := range weekdays {
		for hour := 0; hour < 24; hour++ {
			g, ok := grid[slotKey{day: day, hour: hour}]
			if !ok {
				continue
			}
			cells = append(cells, HeatmapCell{
				DayOfWeek:   day,
				HourOfDay:   hour,
				AvgOpenRate: g.openSum / float64(g.count),
				Count:       g.count,
			})
		}
	}
	return cells
}

// DistributionByHour aggregates record counts and average rates per hour of
// day. The sum of the returned counts equals the number of valid records.
func DistributionByHour(records []EmailRecord) []HourStat {
	counts := make([]int, 24)
	openSums := make([]float64, 24)
	clickSums := make([]float64, 24)
	for _, r := range records {
		if !validSlot(r) {
			continue
		}
		counts[r.HourOfDay]++
		openSums[r.HourOfDay] += r.OpenRate
		clickSums[r.HourOfDay] += r.ClickRate
	}

	stats := make([]HourStat, 0, 24)
	for h := 0; h < 24; h++ {
		if counts[h] == 0 {
			continue
		}
		stats = append(stats, HourStat{
			Hour:         h,
			Count:        counts[h],
			AvgOpenRate:  openSums[h] / float64(counts[h]),
			AvgClickRate: clickSums[h] / float64(counts[h]),
		})
	}
	return stats
}

// DistributionByDay aggregates record counts and average rates per weekday,
// Sunday first.
func DistributionByDay(records []EmailRecord) []DayStat {
	type agg struct {
		count    int
		openSum  float64
		clickSum float64
	}
	days := make(map[string]*agg, 7)
	for _, r := range records {
		if !validSlot(r) {
			continue
		}
		g, ok := days[r.DayOfWeek]
		if !ok {
			g = &agg{}
			days[r.DayOfWeek] = g
		}
		g.count++
		g.openSum += r.OpenRate
		g.clickSum += r.ClickRate
	}

	stats := make([]DayStat, 0, 7)
	for _, day := range weekdays {
		g, ok := days[day]
		if !ok {
			continue
		}
		stats = append(stats, DayStat{
			DayOfWeek:    day,
			Count:        g.count,
			AvgOpenRate:  g.openSum / float64(g.count),
			AvgClickRate: g.clickSum / float64(g.count),
		})
	}
	return stats
}
