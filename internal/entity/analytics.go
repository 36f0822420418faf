package entity

import "time"

// Period is a reporting window ending now.
type Period string

const (
	PeriodDay     Period = "24h"
	PeriodWeek    Period = "7d"
	PeriodMonth   Period = "30d"
	PeriodQuarter Period = "90d"

	DefaultPeriod = PeriodWeek
)

const (
	hoursPerDay = 24
	dateLayout  = "2006-01-02"
)

// ParsePeriod converts s into a Period. An empty string yields DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return DefaultPeriod, nil
	}

	p := Period(s)
	if p.Days() == 0 {
		return "", ErrInvalidPeriod
	}

	return p, nil
}

// Days returns the window length in days, or 0 for an unknown period.
func (p Period) Days() int {
	switch p {
	case PeriodDay:
		return 1
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	case PeriodQuarter:
		return 90
	default:
		return 0
	}
}

// Window returns the window length.
func (p Period) Window() time.Duration {
	return time.Duration(p.Days()) * hoursPerDay * time.Hour
}

// Range returns [now-window, now].
func (p Period) Range(now time.Time) (from, to time.Time) {
	return now.Add(-p.Window()), now
}

// DailyBucket is one calendar day of the time series.
type DailyBucket struct {
	Date           string // Date is the UTC day formatted as YYYY-MM-DD.
	Clicks         int64
	UniqueVisitors int64
}

// DayOf returns the UTC calendar day of t as YYYY-MM-DD.
func DayOf(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// BreakdownEntry is the number of events sharing one label.
type BreakdownEntry struct {
	Label string
	Count int64
}

// Summary holds the headline numbers of a link or dashboard.
type Summary struct {
	TotalClicks          int64
	TotalUniqueVisitors  int64
	PeriodClicks         int64
	PeriodUniqueVisitors int64
	AverageClicksPerDay  float64
}

// LinkAnalytics is the analytics report of one link over a period.
type LinkAnalytics struct {
	Link       *Link
	Period     Period
	From       time.Time
	To         time.Time
	Summary    Summary
	TimeSeries []DailyBucket
	Devices    []BreakdownEntry
	Browsers   []BreakdownEntry
	Countries  []BreakdownEntry
	Referrers  []BreakdownEntry
}

// Dashboard is the rollup of every link owned by one principal.
type Dashboard struct {
	OwnerID      string
	Period       Period
	From         time.Time
	To           time.Time
	TotalLinks   int
	ActiveLinks  int
	ExpiredLinks int
	Summary      Summary
	TopLinks     []Link
	RecentVisits []VisitEvent
}
