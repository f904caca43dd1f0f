package utils

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// ParseJourneyDate validates an ISO journey date (YYYY-MM-DD).
func ParseJourneyDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid journey date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}
