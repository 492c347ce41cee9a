package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var runTimePattern = regexp.MustCompile(`^(\d+):([0-5]\d):([0-5]\d)(?:\.(\d{1,3}))?$`)

// ParseRunTime converts "HH:MM:SS" or "HH:MM:SS.mmm" into milliseconds.
func ParseRunTime(s string) (int64, error) {
	m := runTimePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid run time %q: expected HH:MM:SS", s)
	}
	h, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run time %q: %w", s, err)
	}
	mins, _ := strconv.ParseInt(m[2], 10, 64)
	sec, _ := strconv.ParseInt(m[3], 10, 64)

	var ms int64
	if frac := m[4]; frac != "" {
		frac += strings.Repeat("0", 3-len(frac))
		ms, _ = strconv.ParseInt(frac, 10, 64)
	}
	return ((h*60+mins)*60+sec)*1000 + ms, nil
}

// FormatRunTime renders milliseconds as "HH:MM:SS", appending ".mmm" when
// the run has a sub-second part.
func FormatRunTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	frac := ms % 1000
	if frac == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, frac)
}
