package aggregate

import (
	"fmt"
	"sort"
	"time"

	"StarReport/internal/domain"
)

// DefaultFakeWindow is the account-age threshold under which a star is
// classified as likely automated.
const DefaultFakeWindow = 48 * time.Hour

// Aggregator buckets star events by calendar week and classifies each as
// real or fake from the age of the starring account.
type Aggregator struct {
	fakeWindow time.Duration
}

// NewAggregator builds an aggregator; fakeWindow <= 0 uses the default.
func NewAggregator(fakeWindow time.Duration) *Aggregator {
	if fakeWindow <= 0 {
		fakeWindow = DefaultFakeWindow
	}
	return &Aggregator{fakeWindow: fakeWindow}
}

// Aggregate joins events with their profiles and reduces them into week
// buckets ordered ascending by week start. Weeks with no events produce no
// row. An event whose user id is missing from profiles entirely is a
// contract violation and fails the run; an unresolved profile only counts
// toward the total.
//
// The classification boundary is exclusive on the fake side: an account
// exactly fakeWindow old at star time is real.
func (a *Aggregator) Aggregate(events []domain.StarEvent, profiles map[string]domain.UserProfile) ([]domain.WeekBucket, error) {
	byWeek := make(map[time.Time]*domain.WeekBucket)

	for _, event := range events {
		profile, ok := profiles[event.UserID]
		if !ok {
			return nil, fmt.Errorf("aggregate: user %q: %w", event.UserID, domain.ErrIntegrity)
		}

		week := weekStart(event.StarredAt)
		bucket, ok := byWeek[week]
		if !ok {
			bucket = &domain.WeekBucket{WeekStart: week}
			byWeek[week] = bucket
		}

		bucket.Total++
		if !profile.Resolved {
			continue
		}
		if event.StarredAt.Sub(profile.CreatedAt) < a.fakeWindow {
			bucket.Fake++
		} else {
			bucket.Real++
		}
	}

	buckets := make([]domain.WeekBucket, 0, len(byWeek))
	for _, bucket := range byWeek {
		buckets = append(buckets, *bucket)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].WeekStart.Before(buckets[j].WeekStart)
	})

	return buckets, nil
}

// weekStart truncates a timestamp to the Monday of its ISO week in UTC.
// Truncation goes through the weekday, never day-of-year arithmetic, so it
// cannot drift across year boundaries.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
