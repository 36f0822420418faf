package usecase

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	defaultTopLinks     = 5
	defaultRecentVisits = 10
)

// AnalyticsUseCase answers read-only reporting queries from persisted visit events.
type AnalyticsUseCase struct {
	links        linkRepository
	visits       visitRepository
	topLinks     int
	recentVisits int
	now          func() time.Time
}

// NewAnalyticsUseCase creates a new AnalyticsUseCase. Non-positive limits fall back to defaults.
func NewAnalyticsUseCase(links linkRepository, visits visitRepository, topLinks, recentVisits int) *AnalyticsUseCase {
	if topLinks <= 0 {
		topLinks = defaultTopLinks
	}
	if recentVisits <= 0 {
		recentVisits = defaultRecentVisits
	}

	return &AnalyticsUseCase{
		links:        links,
		visits:       visits,
		topLinks:     topLinks,
		recentVisits: recentVisits,
		now:          utcNow,
	}
}

// Summarize reports the analytics of one link over period.
// Owned links are visible to their owner only.
func (uc *AnalyticsUseCase) Summarize(ctx context.Context, linkID int64, callerID string, period entity.Period) (*entity.LinkAnalytics, error) {
	const op = "usecase.AnalyticsUseCase.Summarize"

	if period.Days() == 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidPeriod)
	}

	link, err := uc.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	if link.OwnerID != "" && !link.OwnedBy(callerID) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrForbidden)
	}

	from, to := period.Range(uc.now())

	events, err := uc.visits.ListByLink(ctx, linkID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list visits: %w", op, err)
	}

	summary := periodSummary(events, period.Days())
	summary.TotalClicks = link.ClickCount
	summary.TotalUniqueVisitors = link.UniqueVisitorCount

	return &entity.LinkAnalytics{
		Link:       link,
		Period:     period,
		From:       from,
		To:         to,
		Summary:    summary,
		TimeSeries: TimeSeries(events, from, to),
		Devices:    Breakdown(events, (*entity.VisitEvent).DeviceLabel),
		Browsers:   Breakdown(events, (*entity.VisitEvent).BrowserLabel),
		Countries:  Breakdown(events, (*entity.VisitEvent).CountryLabel),
		Referrers:  Breakdown(events, (*entity.VisitEvent).ReferrerLabel),
	}, nil
}

// Dashboard rolls up every link owned by ownerID.
func (uc *AnalyticsUseCase) Dashboard(ctx context.Context, ownerID string, period entity.Period) (*entity.Dashboard, error) {
	const op = "usecase.AnalyticsUseCase.Dashboard"

	if ownerID == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrUnauthenticated)
	}
	if period.Days() == 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidPeriod)
	}

	now := uc.now()
	from, to := period.Range(now)

	links, err := uc.links.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	events, err := uc.visits.ListByOwner(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list visits: %w", op, err)
	}

	recent, err := uc.visits.ListRecentByOwner(ctx, ownerID, uc.recentVisits)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list recent visits: %w", op, err)
	}

	d := &entity.Dashboard{
		OwnerID:      ownerID,
		Period:       period,
		From:         from,
		To:           to,
		TotalLinks:   len(links),
		Summary:      periodSummary(events, period.Days()),
		TopLinks:     TopLinks(links, uc.topLinks),
		RecentVisits: recent,
	}

	for i := range links {
		d.Summary.TotalClicks += links[i].ClickCount
		d.Summary.TotalUniqueVisitors += links[i].UniqueVisitorCount

		switch {
		case links[i].IsExpired(now):
			d.ExpiredLinks++
		case links[i].Active:
			d.ActiveLinks++
		}
	}

	return d, nil
}

// TimeSeries buckets events by UTC calendar day. Every day from the day of from to
// the day of to appears, including days without events.
func TimeSeries(events []entity.VisitEvent, from, to time.Time) []entity.DailyBucket {
	start := startOfDay(from)
	end := startOfDay(to)

	var buckets []entity.DailyBucket
	index := make(map[string]int)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := entity.DayOf(day)
		index[date] = len(buckets)
		buckets = append(buckets, entity.DailyBucket{Date: date})
	}

	for i := range events {
		e := &events[i]
		if e.VisitedAt.Before(from) || e.VisitedAt.After(to) {
			continue
		}

		j, ok := index[entity.DayOf(e.VisitedAt)]
		if !ok {
			continue
		}

		buckets[j].Clicks++
		if e.IsUnique {
			buckets[j].UniqueVisitors++
		}
	}

	return buckets
}

// Breakdown counts events per label, highest count first and ties by label.
func Breakdown(events []entity.VisitEvent, label func(*entity.VisitEvent) string) []entity.BreakdownEntry {
	counts := make(map[string]int64)
	for i := range events {
		counts[label(&events[i])]++
	}

	entries := make([]entity.BreakdownEntry, 0, len(counts))
	for l, c := range counts {
		entries = append(entries, entity.BreakdownEntry{Label: l, Count: c})
	}

	slices.SortFunc(entries, func(a, b entity.BreakdownEntry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})

	return entries
}

// TopLinks returns up to n links with the most clicks. Ties keep the lower id first.
func TopLinks(links []entity.Link, n int) []entity.Link {
	top := slices.Clone(links)

	slices.SortStableFunc(top, func(a, b entity.Link) int {
		if c := cmp.Compare(b.ClickCount, a.ClickCount); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if len(top) > n {
		top = top[:n]
	}

	return top
}

// periodSummary fills the period fields of a Summary from events inside the window.
func periodSummary(events []entity.VisitEvent, days int) entity.Summary {
	var s entity.Summary

	for i := range events {
		s.PeriodClicks++
		if events[i].IsUnique {
			s.PeriodUniqueVisitors++
		}
	}

	if days > 0 {
		s.AverageClicksPerDay = math.Round(float64(s.PeriodClicks)/float64(days)*100) / 100
	}

	return s
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
