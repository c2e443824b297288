package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EnrichmentStatus is the per-event outcome of the last enrichment attempt.
type EnrichmentStatus string

const (
	EnrichmentSucceeded EnrichmentStatus = "succeeded"
	EnrichmentFailed    EnrichmentStatus = "failed"
)

// EventEnrichmentRecord captures one event's most recent enrichment outcome.
type EventEnrichmentRecord struct {
	EventID           uuid.UUID        `json:"event_id"`
	Status            EnrichmentStatus `json:"status"`
	Error             string           `json:"error,omitempty"`
	SubEventsInserted int              `json:"sub_events_inserted"`
	ChunksFailed      int              `json:"chunks_failed"`
	CompletedAt       time.Time        `json:"completed_at"`
}

// EnrichmentMetrics is the side-channel for per-event enrichment status.
// The orchestrator's top-level result deliberately collapses enrichment
// outcomes into a single success flag; callers that need to know which
// events degraded inspect this instead.
type EnrichmentMetrics struct {
	mu                    sync.RWMutex
	totalEnrichments      int64
	successfulEnrichments int64
	failedEnrichments     int64
	subEventsInserted     int64
	perEvent              map[uuid.UUID]EventEnrichmentRecord
	lastUpdated           time.Time
}

func NewEnrichmentMetrics() *EnrichmentMetrics {
	return &EnrichmentMetrics{
		perEvent: make(map[uuid.UUID]EventEnrichmentRecord),
	}
}

// RecordEnrichment records the outcome of one enrichment attempt.
func (m *EnrichmentMetrics) RecordEnrichment(eventID uuid.UUID, err error, subEventsInserted, chunksFailed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := EventEnrichmentRecord{
		EventID:           eventID,
		Status:            EnrichmentSucceeded,
		SubEventsInserted: subEventsInserted,
		ChunksFailed:      chunksFailed,
		CompletedAt:       time.Now(),
	}

	m.totalEnrichments++
	if err != nil {
		m.failedEnrichments++
		record.Status = EnrichmentFailed
		record.Error = err.Error()
	} else {
		m.successfulEnrichments++
		m.subEventsInserted += int64(subEventsInserted)
	}

	m.perEvent[eventID] = record
	m.lastUpdated = time.Now()
}

// MetricsSnapshot is a copy of the current counters, safe to inspect without
// holding the lock.
type MetricsSnapshot struct {
	TotalEnrichments      int64                               `json:"total_enrichments"`
	SuccessfulEnrichments int64                               `json:"successful_enrichments"`
	FailedEnrichments     int64                               `json:"failed_enrichments"`
	SubEventsInserted     int64                               `json:"sub_events_inserted"`
	PerEvent              map[uuid.UUID]EventEnrichmentRecord `json:"per_event"`
	LastUpdated           time.Time                           `json:"last_updated"`
}

// Snapshot returns a copy of the current metrics state.
func (m *EnrichmentMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	perEvent := make(map[uuid.UUID]EventEnrichmentRecord, len(m.perEvent))
	for id, rec := range m.perEvent {
		perEvent[id] = rec
	}

	return MetricsSnapshot{
		TotalEnrichments:      m.totalEnrichments,
		SuccessfulEnrichments: m.successfulEnrichments,
		FailedEnrichments:     m.failedEnrichments,
		SubEventsInserted:     m.subEventsInserted,
		PerEvent:              perEvent,
		LastUpdated:           m.lastUpdated,
	}
}
