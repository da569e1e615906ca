package event

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order by ParseTimestamp
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses the ISO-8601 variants sources emit.
// Returns time.Time{} (zero value) if parsing fails.
// Values without a zone are read as UTC.
func ParseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Start returns the parsed start date, or the zero time if unknown
func (r *Record) Start() time.Time {
	return ParseTimestamp(r.StartDate)
}

// IsPast checks if an event's start has passed.
// Returns false if the date cannot be parsed (safer default).
func (r *Record) IsPast(now time.Time) bool {
	start := r.Start()
	if start.IsZero() {
		return false
	}
	return start.Before(now)
}

// IsUpcoming checks if an event starts after now.
// Returns true if the date cannot be parsed, so undated events stay listed.
func (r *Record) IsUpcoming(now time.Time) bool {
	start := r.Start()
	if start.IsZero() {
		return true
	}
	return start.After(now)
}
