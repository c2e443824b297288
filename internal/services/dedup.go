package services

import (
	"conference-agenda-sync/internal/models"
)

// DeduplicateCandidates removes duplicate extraction candidates, keeping the
// first occurrence of each (speaker, startTime, endTime) fingerprint. The
// key is deliberately narrower than the display-side timeline fingerprint:
// two different-titled sessions sharing one speaker and time slot collapse
// here. The two passes serve different pipeline stages and are not unified.
func DeduplicateCandidates(candidates []models.ExtractionCandidate) []models.ExtractionCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.ExtractionCandidate, 0, len(candidates))
	for _, c := range candidates {
		fp := models.CandidateFingerprint(c)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, c)
	}
	return out
}

// MergeChunkSchedules combines per-chunk schedules, in chunk order, into one.
// Candidate lists are concatenated then deduplicated. The location is taken
// from the first surviving schedule verbatim — first-chunk-wins is an
// arbitrary but deterministic priority rule, not a quality heuristic, and it
// holds even when the first chunk reported no location.
func MergeChunkSchedules(schedules []*models.ExtractedSchedule) *models.ExtractedSchedule {
	merged := &models.ExtractedSchedule{SubEvents: []models.ExtractionCandidate{}}

	locationSet := false
	for _, s := range schedules {
		if s == nil {
			continue
		}
		if !locationSet {
			merged.Location = s.Location
			locationSet = true
		}
		merged.SubEvents = append(merged.SubEvents, s.SubEvents...)
	}

	merged.SubEvents = DeduplicateCandidates(merged.SubEvents)
	return merged
}
