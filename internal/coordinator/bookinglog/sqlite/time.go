package sqlite

import (
	"fmt"
	"time"
)

// timeNow is a variable so tests can freeze the clock.
var timeNow = time.Now

// formatTime renders timestamps the way we store them: RFC3339 TEXT in UTC.
// SQLite has no native datetime type.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999999Z")
}

// parseRFC3339 parses the timestamp strings stored in SQLite.
func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
