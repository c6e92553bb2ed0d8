package handlers

import (
	"net/url"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// ParsePeriod reads the "from" and "to" query parameters (YYYY-MM-DD, both
// inclusive). A missing bound defaults to the current calendar month.
func ParsePeriod(q url.Values, now time.Time) (domain.Period, error) {
	return domain.PeriodFromDates(q.Get("from"), q.Get("to"), now)
}
