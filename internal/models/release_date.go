package models

import (
	"fmt"
	"strings"
	"time"
)

var releaseDateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseReleaseDate accepts "2006-01-02" or "January 2, 2006" style dates.
func ParseReleaseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid release date %q: expected YYYY-MM-DD or Month D, YYYY", s)
}
