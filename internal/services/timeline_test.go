package services

import (
	"testing"
	"time"

	"conference-agenda-sync/internal/models"
)

func timelineItem(date *time.Time, name, speaker, start, end string) TimelineItem {
	return TimelineItem{
		SubEvent: models.SubEvent{
			Name:           name,
			Speaker:        speaker,
			StartTimeToken: start,
			EndTimeToken:   end,
		},
		EventTitle:    "DevConf",
		EventLocation: "Hall 1",
		EventDate:     date,
	}
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestAssembleTimeline_InclusiveOverlapGrouping(t *testing.T) {
	date := datePtr(2026, time.September, 10)
	items := []TimelineItem{
		timelineItem(date, "First", "A", "9:00am", "10:00am"),
		timelineItem(date, "Second", "B", "9:30am", "11:00am"),
		timelineItem(date, "Third", "C", "11:00am", "12:00pm"),
	}

	days := AssembleTimeline(items)
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}

	// Second extends the running end to 11:00; Third starts exactly at
	// 11:00, and touching intervals overlap, so all three share one group.
	if len(days[0].Groups) != 1 {
		t.Fatalf("expected a single overlap group, got %d", len(days[0].Groups))
	}
	if len(days[0].Groups[0]) != 3 {
		t.Errorf("expected 3 items in the group, got %d", len(days[0].Groups[0]))
	}
}

func TestAssembleTimeline_DisjointIntervalsSplit(t *testing.T) {
	date := datePtr(2026, time.September, 10)
	items := []TimelineItem{
		timelineItem(date, "Morning", "A", "9:00am", "10:00am"),
		timelineItem(date, "Late morning", "B", "10:30am", "11:00am"),
	}

	days := AssembleTimeline(items)
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	if len(days[0].Groups) != 2 {
		t.Fatalf("expected 2 groups for disjoint intervals, got %d", len(days[0].Groups))
	}
}

func TestAssembleTimeline_UnknownDateBucket(t *testing.T) {
	items := []TimelineItem{
		timelineItem(nil, "Floating session", "A", "9am", "10am"),
		timelineItem(datePtr(2026, time.September, 10), "Dated session", "B", "9am", "10am"),
	}

	days := AssembleTimeline(items)
	if len(days) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(days))
	}

	// Lexicographic order: "2026-09-10" < "unknown".
	if days[0].Date != "2026-09-10" || days[1].Date != unknownDateKey {
		t.Errorf("expected [2026-09-10 unknown], got [%s %s]", days[0].Date, days[1].Date)
	}
	if len(days[1].Groups) != 1 || days[1].Groups[0][0].SubEvent.Name != "Floating session" {
		t.Errorf("expected the undated item preserved in the unknown bucket")
	}
}

func TestAssembleTimeline_DeduplicatesByDisplayFingerprint(t *testing.T) {
	date := datePtr(2026, time.September, 10)
	items := []TimelineItem{
		timelineItem(date, "Keynote", "Ada Lovelace", "9am", "10am"),
		timelineItem(date, "  KEYNOTE ", " ada lovelace", "9am", "10am"),
	}

	days := AssembleTimeline(items)
	if len(days) != 1 || len(days[0].Groups) != 1 || len(days[0].Groups[0]) != 1 {
		t.Fatalf("expected the case-variant duplicate to collapse, got %+v", days)
	}
	if days[0].Groups[0][0].SubEvent.Name != "Keynote" {
		t.Errorf("expected the first occurrence to win, got %q", days[0].Groups[0][0].SubEvent.Name)
	}
}

func TestAssembleTimeline_DifferentNamesSurvive(t *testing.T) {
	// Unlike the extraction-side dedup, the display fingerprint includes the
	// name, so same-slot sessions with different names both survive.
	date := datePtr(2026, time.September, 10)
	items := []TimelineItem{
		timelineItem(date, "Workshop A", "Ada Lovelace", "1pm", "2pm"),
		timelineItem(date, "Workshop B", "Ada Lovelace", "1pm", "2pm"),
	}

	days := AssembleTimeline(items)
	total := 0
	for _, g := range days[0].Groups {
		total += len(g)
	}
	if total != 2 {
		t.Errorf("expected both same-slot sessions to survive, got %d", total)
	}
}

func TestAssembleTimeline_NoStartItemsOpenOwnGroups(t *testing.T) {
	date := datePtr(2026, time.September, 10)
	items := []TimelineItem{
		timelineItem(date, "Timed", "C", "9am", "10am"),
		timelineItem(date, "Floating one", "A", "", ""),
		timelineItem(date, "Floating two", "B", "", ""),
	}

	days := AssembleTimeline(items)
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}

	// No-start items sort first (stable). The first opens a group with an
	// undefined running end; the second cannot overlap it and opens its own;
	// the timed item cannot compare against an undefined end either.
	groups := days[0].Groups
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0][0].SubEvent.Name != "Floating one" || groups[1][0].SubEvent.Name != "Floating two" {
		t.Errorf("expected no-start items first in original order, got %q then %q",
			groups[0][0].SubEvent.Name, groups[1][0].SubEvent.Name)
	}
	if groups[2][0].SubEvent.Name != "Timed" {
		t.Errorf("expected the timed item last, got %q", groups[2][0].SubEvent.Name)
	}
}

func TestResolveInstant(t *testing.T) {
	date := datePtr(2026, time.September, 10)

	testCases := []struct {
		name     string
		token    string
		wantHour int
		wantMin  int
		wantNil  bool
	}{
		{name: "Bare 12h token", token: "9am", wantHour: 9},
		{name: "12h with minutes", token: "4:30pm", wantHour: 16, wantMin: 30},
		{name: "Upper case with space", token: "4:30 PM", wantHour: 16, wantMin: 30},
		{name: "24h fallback", token: "14:05", wantHour: 14, wantMin: 5},
		{name: "Empty token", token: "", wantNil: true},
		{name: "Unparseable token", token: "after lunch", wantNil: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolveInstant(date, tc.token)
			if tc.wantNil {
				if got != nil {
					t.Errorf("expected nil instant, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected an instant, got nil")
			}
			if got.Hour() != tc.wantHour || got.Minute() != tc.wantMin {
				t.Errorf("expected %02d:%02d, got %02d:%02d", tc.wantHour, tc.wantMin, got.Hour(), got.Minute())
			}
			if got.Year() != 2026 || got.Day() != 10 {
				t.Errorf("expected the parent date to carry over, got %v", got)
			}
		})
	}

	if got := resolveInstant(nil, "9am"); got != nil {
		t.Errorf("expected nil instant without a parent date, got %v", got)
	}
}
