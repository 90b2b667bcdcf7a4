package quizstatus

import (
	"testing"
	"time"

	"github.com/stemsi/exstem-console/internal/model"
)

func strPtr(s string) *string { return &s }

func TestResolveTable(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		start, end string
		want       Key
	}{
		{"no schedule", "", "", Draft},
		{"future start", "2099-01-01T00:00:00Z", "", Scheduled},
		{"past start", "2020-01-01T00:00:00Z", "", Published},
		{"start and end", "2020-01-01T00:00:00Z", "2020-02-01T00:00:00Z", Closed},
		{"end in the future still closes", "2020-01-01T00:00:00Z", "2099-01-01T00:00:00Z", Closed},
		{"end before start still closes", "2099-01-01T00:00:00Z", "2020-01-01T00:00:00Z", Closed},
		{"start exactly now", "2030-06-01T12:00:00Z", "", Published},
		{"end without start", "", "2020-01-01T00:00:00Z", Draft},
		{"unparseable start", "next tuesday", "", Draft},
		{"unparseable end ignored", "2020-01-01T00:00:00Z", "soon", Published},
		{"date only", "2099-12-31", "", Scheduled},
		{"space separated", "2020-01-01 08:30:00", "", Published},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.start, tc.end, now)
			if got.Key != tc.want {
				t.Fatalf("Resolve(%q, %q) = %s, want %s", tc.start, tc.end, got.Key, tc.want)
			}
			want, _ := Lookup(tc.want)
			if got != want {
				t.Fatalf("expected table entry %+v, got %+v", want, got)
			}
		})
	}
}

func TestResolverForQuiz(t *testing.T) {
	r := Resolver{Now: func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }}

	if got := r.ForQuiz(model.Quiz{}); got.Key != Draft {
		t.Fatalf("expected draft for nil schedule, got %s", got.Key)
	}
	q := model.Quiz{StartTime: strPtr("2025-03-01T09:00:00Z")}
	if got := r.ForQuiz(q); got.Key != Scheduled || !got.Editable() || got.AcceptsAttempts() {
		t.Fatalf("unexpected status %+v", got)
	}
	q.StartTime = strPtr("2024-03-01T09:00:00Z")
	if got := r.ForQuiz(q); got.Key != Published || got.Editable() || !got.AcceptsAttempts() {
		t.Fatalf("unexpected status %+v", got)
	}
}

func TestEveryKeyHasDisplayEntry(t *testing.T) {
	for _, k := range []Key{Draft, Scheduled, Published, Closed} {
		s, ok := Lookup(k)
		if !ok || s.Label == "" || s.Tone == "" {
			t.Fatalf("missing display entry for %s", k)
		}
	}
}
