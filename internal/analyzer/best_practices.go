package analyzer

// DefaultBestPractices is the curated industry-standard send-time table,
// ordered by descending score. The table is injected into the Analyzer at
// construction so tests can substitute alternates; treat it as read-only.
var DefaultBestPractices = []BestPracticeEntry{
	{DayOfWeek: "Tuesday", HourOfDay: 10, Score: 95,
		Rationale: "Mid-morning Tuesday consistently tops industry engagement studies"},
	{DayOfWeek: "Thursday", HourOfDay: 10, Score: 90,
		Rationale: "Late-week mid-morning, inbox attention before Friday wind-down"},
	{DayOfWeek: "Wednesday", HourOfDay: 9, Score: 85,
		Rationale: "Start of the mid-week workday, high open-to-click conversion"},
	{DayOfWeek: "Tuesday", HourOfDay: 14, Score: 80,
		Rationale: "Post-lunch Tuesday slot, second daily engagement peak"},
	{DayOfWeek: "Thursday", HourOfDay: 15, Score: 75,
		Rationale: "Afternoon Thursday, reliable for B2B audiences"},
}

// bestPracticeClickFactor models click-through as roughly 30% of open
// engagement when a best-practice entry is expanded into a bucket.
const bestPracticeClickFactor = 0.3
