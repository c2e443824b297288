package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// httpURLPattern matches the first absolute HTTP(S) URL in free text. This
// is deliberately a first-match extraction, not a full URL-list scan.
var httpURLPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// FirstHTTPURL returns the first HTTP(S) URL appearing in text, or "" when
// none is present.
func FirstHTTPURL(text string) string {
	return httpURLPattern.FindString(text)
}

// IsValidURL performs basic URL validation.
func IsValidURL(url string) bool {
	if url == "" {
		return false
	}
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// CandidateFingerprint derives the server-side dedup key for an extraction
// candidate: the lower-cased, trimmed (speaker, start, end) tuple. It is an
// equality key for best-effort dedup, never a storage identity.
func CandidateFingerprint(c ExtractionCandidate) string {
	return fmt.Sprintf("%s|%s|%s",
		strings.ToLower(strings.TrimSpace(c.Speaker)),
		strings.ToLower(strings.TrimSpace(c.StartTime)),
		strings.ToLower(strings.TrimSpace(c.EndTime)),
	)
}

// GenerateEnrichmentRunID creates a short stable ID for one enrichment run,
// used for log correlation and archive keys.
func GenerateEnrichmentRunID(eventID string, timestamp time.Time) string {
	input := fmt.Sprintf("%s|%d", eventID, timestamp.UnixNano())
	hash := sha256.Sum256([]byte(input))
	return "enr_" + hex.EncodeToString(hash[:])[:8]
}
