package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// PeriodFromDates builds an inclusive period from YYYY-MM-DD dates. An empty
// bound defaults to the corresponding edge of the UTC calendar month
// containing now. The end bound covers its whole day.
func PeriodFromDates(from, to string, now time.Time) (Period, error) {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := civil.DateOf(first)
	end := civil.DateOf(first.AddDate(0, 1, -1))

	if from != "" {
		d, err := civil.ParseDate(from)
		if err != nil {
			return Period{}, ValidationError("invalid from date %q, expected YYYY-MM-DD", from)
		}
		start = d
	}
	if to != "" {
		d, err := civil.ParseDate(to)
		if err != nil {
			return Period{}, ValidationError("invalid to date %q, expected YYYY-MM-DD", to)
		}
		end = d
	}

	p := Period{
		From: start.In(time.UTC),
		To:   end.AddDays(1).In(time.UTC).Add(-time.Nanosecond),
	}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}
