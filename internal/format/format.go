// Package format renders API values for terminal output.
package format

import (
	"strconv"
	"time"
)

// Placeholder stands in for missing values.
const Placeholder = "—"

// Stat prints a server-computed statistic with three decimals.
func Stat(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}

// Timestamp prints an RFC 3339 timestamp in loc as "2006-01-02 15:04".
// Empty or unparseable input prints the placeholder.
func Timestamp(raw *string, loc *time.Location) string {
	if raw == nil || *raw == "" {
		return Placeholder
	}
	t, err := time.Parse(time.RFC3339Nano, *raw)
	if err != nil {
		return Placeholder
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("2006-01-02 15:04")
}
