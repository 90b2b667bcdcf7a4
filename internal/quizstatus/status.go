// Package quizstatus derives a quiz's lifecycle state from its schedule.
package quizstatus

import (
	"strings"
	"time"

	"github.com/stemsi/exstem-console/internal/model"
)

// Key identifies a lifecycle state.
type Key string

const (
	Draft     Key = "draft"
	Scheduled Key = "scheduled"
	Published Key = "published"
	Closed    Key = "closed"
)

// Status is the display form of a lifecycle state.
type Status struct {
	Key   Key    `json:"key"`
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

var statuses = map[Key]Status{
	Draft:     {Key: Draft, Label: "Draft", Tone: "neutral"},
	Scheduled: {Key: Scheduled, Label: "Scheduled", Tone: "info"},
	Published: {Key: Published, Label: "Published", Tone: "success"},
	Closed:    {Key: Closed, Label: "Closed", Tone: "muted"},
}

// Lookup returns the static display entry for key.
func Lookup(key Key) (Status, bool) {
	s, ok := statuses[key]
	return s, ok
}

// Editable reports whether slots may still be changed.
func (s Status) Editable() bool {
	return s.Key == Draft || s.Key == Scheduled
}

// AcceptsAttempts reports whether students may start attempts.
func (s Status) AcceptsAttempts() bool {
	return s.Key == Published
}

// Resolve maps a raw schedule to a status. Rules apply in order:
//  1. no parseable start: draft
//  2. start and end both present: closed, whatever their values
//  3. start strictly after now: scheduled
//  4. otherwise: published
//
// Unparseable values count as absent.
func Resolve(start, end string, now time.Time) Status {
	startAt, hasStart := parseTime(start)
	_, hasEnd := parseTime(end)

	switch {
	case !hasStart:
		return statuses[Draft]
	case hasEnd:
		// TODO: an end time in the future should probably not close the quiz; confirm with the API owners before changing.
		return statuses[Closed]
	case startAt.After(now):
		return statuses[Scheduled]
	default:
		return statuses[Published]
	}
}

// Resolver evaluates quizzes against a clock.
type Resolver struct {
	Now func() time.Time
}

// ForQuiz resolves q at the resolver's current time.
func (r Resolver) ForQuiz(q model.Quiz) Status {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	start, end := q.Window()
	return Resolve(start, end, now())
}

var layouts = []struct {
	layout string
	loc    *time.Location
}{
	{time.RFC3339Nano, nil},
	{"2006-01-02T15:04:05.999999999", time.Local},
	{"2006-01-02T15:04", time.Local},
	{"2006-01-02 15:04:05.999999999Z07:00", nil},
	{"2006-01-02 15:04:05.999999999", time.Local},
	{"2006-01-02", time.UTC},
}

func parseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, l := range layouts {
		var (
			t   time.Time
			err error
		)
		if l.loc == nil {
			t, err = time.Parse(l.layout, raw)
		} else {
			t, err = time.ParseInLocation(l.layout, raw, l.loc)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
