package service

import (
	"time"

	"github.com/craftedby/marketplace/internal/apperr"
)

const dateLayout = "2006-01-02"

type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses inclusive calendar-day bounds from YYYY-MM-DD
// strings. Missing start defaults to 30 days ago, missing end to today.
func ParseDateRange(start, end string) (DateRange, error) {
	now := time.Now()

	startDate := now.AddDate(0, 0, -30)
	if start != "" {
		parsed, err := time.Parse(dateLayout, start)
		if err != nil {
			return DateRange{}, apperr.NewInvalidDateRange("invalid date format, use YYYY-MM-DD")
		}
		startDate = parsed
	}

	endDate := now
	if end != "" {
		parsed, err := time.Parse(dateLayout, end)
		if err != nil {
			return DateRange{}, apperr.NewInvalidDateRange("invalid date format, use YYYY-MM-DD")
		}
		endDate = parsed
	}

	startDate = startOfDay(startDate)
	endDate = endOfDay(endDate)

	if startDate.After(endDate) {
		return DateRange{}, apperr.NewInvalidDateRange("start date must be before end date")
	}

	return DateRange{Start: startDate, End: endDate}, nil
}

// ParseOptionalDateBounds parses optional inclusive day bounds; an empty
// string yields a nil bound.
func ParseOptionalDateBounds(start, end string) (*time.Time, *time.Time, error) {
	var startBound, endBound *time.Time

	if start != "" {
		parsed, err := time.Parse(dateLayout, start)
		if err != nil {
			return nil, nil, apperr.NewInvalidDateRange("invalid date format, use YYYY-MM-DD")
		}
		s := startOfDay(parsed)
		startBound = &s
	}

	if end != "" {
		parsed, err := time.Parse(dateLayout, end)
		if err != nil {
			return nil, nil, apperr.NewInvalidDateRange("invalid date format, use YYYY-MM-DD")
		}
		e := endOfDay(parsed)
		endBound = &e
	}

	if startBound != nil && endBound != nil && startBound.After(*endBound) {
		return nil, nil, apperr.NewInvalidDateRange("start date must be before end date")
	}

	return startBound, endBound, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
