package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"conference-agenda-sync/internal/models"
)

// TimelineItem is one sub-event with the parent context the display side
// needs: the parent event's title, location, and date-only start.
type TimelineItem struct {
	SubEvent      models.SubEvent
	EventTitle    string
	EventLocation string
	EventDate     *time.Time
}

// TimelineDay is one date bucket of the assembled timeline. Groups are the
// greedy overlap partitions, in start order.
type TimelineDay struct {
	Date   string
	Groups [][]TimelineItem
}

const unknownDateKey = "unknown"

// AssembleTimeline deduplicates sub-events by display fingerprint, buckets
// them by parent date, and greedily groups temporally-overlapping items
// within each bucket. Pure and deterministic.
//
// The dedup fingerprint here is wider than the server-side candidate
// fingerprint (it includes the name and parent context); the two passes
// serve different stages and are intentionally separate.
func AssembleTimeline(items []TimelineItem) []TimelineDay {
	buckets := make(map[string][]TimelineItem)
	seen := make(map[string]struct{})

	for _, item := range items {
		key := dateKey(item.EventDate)
		fp := timelineFingerprint(item, key)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		buckets[key] = append(buckets[key], item)
	}

	// Plain lexicographic order: "unknown" sorts wherever string comparison
	// puts it, with no special placement.
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	days := make([]TimelineDay, 0, len(keys))
	for _, key := range keys {
		days = append(days, TimelineDay{
			Date:   key,
			Groups: groupOverlapping(buckets[key]),
		})
	}
	return days
}

// groupOverlapping stable-sorts a bucket by start instant (undefined starts
// first) and partitions it greedily: an item joins the running group when
// its start is at or before the group's running end (touching intervals
// overlap), extending the running end to the later of the two. The overlap
// comparison requires both instants, so an item with no start never joins an
// existing group — once it is not first, it opens its own.
func groupOverlapping(items []TimelineItem) [][]TimelineItem {
	sorted := make([]TimelineItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		si := startInstant(sorted[i])
		sj := startInstant(sorted[j])
		if si == nil {
			return sj != nil
		}
		if sj == nil {
			return false
		}
		return si.Before(*sj)
	})

	var groups [][]TimelineItem
	var current []TimelineItem
	var runningEnd *time.Time

	for _, item := range sorted {
		start := startInstant(item)
		end := endInstant(item)
		effectiveEnd := end
		if effectiveEnd == nil {
			effectiveEnd = start
		}

		if current == nil {
			current = []TimelineItem{item}
			runningEnd = effectiveEnd
			continue
		}

		if start != nil && runningEnd != nil && !start.After(*runningEnd) {
			current = append(current, item)
			if effectiveEnd != nil && effectiveEnd.After(*runningEnd) {
				runningEnd = effectiveEnd
			}
			continue
		}

		groups = append(groups, current)
		current = []TimelineItem{item}
		runningEnd = effectiveEnd
	}
	if current != nil {
		groups = append(groups, current)
	}
	return groups
}

// timelineFingerprint is the display-side dedup key: parent date key plus
// the lower-trimmed name, speaker, parent title, parent location, and the
// resolved start/end instants (or placeholders when undefined).
func timelineFingerprint(item TimelineItem, dateKey string) string {
	start := unknownInstantKey(startInstant(item), "nostart")
	end := unknownInstantKey(endInstant(item), "noend")
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		dateKey,
		lowerTrim(item.SubEvent.Name),
		lowerTrim(item.SubEvent.Speaker),
		lowerTrim(item.EventTitle),
		lowerTrim(item.EventLocation),
		start,
		end,
	)
}

func unknownInstantKey(t *time.Time, placeholder string) string {
	if t == nil {
		return placeholder
	}
	return t.Format(time.RFC3339)
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func dateKey(date *time.Time) string {
	if date == nil || date.IsZero() {
		return unknownDateKey
	}
	return date.Format("2006-01-02")
}

func startInstant(item TimelineItem) *time.Time {
	return resolveInstant(item.EventDate, item.SubEvent.StartTimeToken)
}

func endInstant(item TimelineItem) *time.Time {
	return resolveInstant(item.EventDate, item.SubEvent.EndTimeToken)
}

// timeTokenLayouts are tried against the lower-cased token; they cover the
// bare 12-hour tokens the extractor emits plus 24-hour fallbacks.
var timeTokenLayouts = []string{
	"3pm",
	"3:04pm",
	"3 pm",
	"3:04 pm",
	"15:04",
	"15:04:05",
}

// resolveInstant combines the parent's date with a free-text time token.
// Tokens are stored unparsed at rest; this resolution exists only for
// display-side ordering. No parent date or no parseable token means no
// instant.
func resolveInstant(date *time.Time, token string) *time.Time {
	if date == nil || date.IsZero() {
		return nil
	}
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return nil
	}

	for _, layout := range timeTokenLayouts {
		parsed, err := time.Parse(layout, token)
		if err != nil {
			continue
		}
		instant := time.Date(date.Year(), date.Month(), date.Day(),
			parsed.Hour(), parsed.Minute(), parsed.Second(), 0, date.Location())
		return &instant
	}
	return nil
}
