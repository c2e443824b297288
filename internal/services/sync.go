package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"

	"conference-agenda-sync/internal/models"
)

// DefaultSyncWindow is the look-ahead used when the caller supplies no
// explicit time window.
const DefaultSyncWindow = 30 * 24 * time.Hour

// Enricher runs the enrichment pipeline for one event. Satisfied by
// EnrichmentPipeline; faked in tests.
type Enricher interface {
	EnrichEvent(ctx context.Context, eventID uuid.UUID, url string) error
}

// SyncResult is the orchestrator's collapsed top-level outcome. It reports
// the window covered and the counts, never per-event enrichment status —
// that lives in EnrichmentMetrics.
type SyncResult struct {
	Message        string `json:"message"`
	EventsSynced   int    `json:"events_synced"`
	EnrichmentsRun int    `json:"enrichments_run"`
}

// Syncer drives one calendar sync pass: token check and refresh, window
// fetch, per-event upsert, and conditional enrichment. Events are processed
// strictly one at a time; there is no fan-out and no retry.
type Syncer struct {
	store      Store
	provider   CalendarProvider
	refresher  TokenRefresher
	enricher   Enricher
	maxResults int64
	logger     *zap.Logger
	now        func() time.Time
}

func NewSyncer(store Store, provider CalendarProvider, refresher TokenRefresher, enricher Enricher, maxResults int64, logger *zap.Logger) *Syncer {
	if maxResults <= 0 {
		maxResults = 250
	}
	return &Syncer{
		store:      store,
		provider:   provider,
		refresher:  refresher,
		enricher:   enricher,
		maxResults: maxResults,
		logger:     logger,
		now:        time.Now,
	}
}

// pendingEnrichment queues one upserted event whose external link was new or
// changed during this pass.
type pendingEnrichment struct {
	eventID uuid.UUID
	url     string
}

// SyncUserCalendar syncs the user's provider events in [timeMin, timeMax]
// (defaults: [now, now+30d]) into the store and enriches events whose
// external link is new or changed. Token and window failures abort the sync;
// enrichment failures are logged and absorbed — the sync still succeeds.
func (s *Syncer) SyncUserCalendar(ctx context.Context, userID uuid.UUID, timeMin, timeMax *time.Time) (*SyncResult, error) {
	accessToken, err := s.ensureAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	min := s.now()
	if timeMin != nil {
		min = *timeMin
	}
	max := min.Add(DefaultSyncWindow)
	if timeMax != nil {
		max = *timeMax
	}

	items, err := s.provider.ListEvents(ctx, accessToken, min, max, s.maxResults)
	if err != nil {
		return nil, err
	}

	eventsSynced := 0
	var pending []pendingEnrichment
	for _, item := range items {
		eventID, url, changed, ok := s.upsertProviderEvent(ctx, userID, item)
		if !ok {
			continue
		}
		eventsSynced++
		if changed && url != "" {
			pending = append(pending, pendingEnrichment{eventID: eventID, url: url})
		}
	}

	enrichmentsRun := 0
	for _, p := range pending {
		enrichmentsRun++
		if err := s.enricher.EnrichEvent(ctx, p.eventID, p.url); err != nil {
			// Absorbed: the calendar-level sync still succeeds. Per-event
			// status is recorded in EnrichmentMetrics by the pipeline.
			s.logger.Error("enrichment failed",
				zap.String("event_id", p.eventID.String()),
				zap.String("url", p.url),
				zap.Error(err))
		}
	}

	result := &SyncResult{
		Message: fmt.Sprintf("Synced calendar events from %s to %s",
			min.Format("2006-01-02"), max.Format("2006-01-02")),
		EventsSynced:   eventsSynced,
		EnrichmentsRun: enrichmentsRun,
	}
	s.logger.Info("sync finished",
		zap.String("user_id", userID.String()),
		zap.Int("events_synced", eventsSynced),
		zap.Int("enrichments_run", enrichmentsRun))
	return result, nil
}

// ensureAccessToken loads the user's credential and refreshes it when the
// stored expiry has passed. A missing profile, an absent token, or a failed
// refresh all abort the sync — nothing downstream can run without a token.
func (s *Syncer) ensureAccessToken(ctx context.Context, userID uuid.UUID) (string, error) {
	cred, err := s.store.GetCredential(ctx, userID)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", ErrNoProfile
	}
	if cred.AccessToken == "" {
		return "", ErrNoToken
	}

	if cred.TokenExpiry.After(s.now()) {
		return cred.AccessToken, nil
	}

	token, err := s.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", err
	}

	cred.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		cred.RefreshToken = token.RefreshToken
	}
	cred.TokenExpiry = token.Expiry
	if err := s.store.SaveCredential(ctx, cred); err != nil {
		// The fresh token is in hand; a failed persist only means the next
		// run refreshes again.
		s.logger.Warn("failed to persist refreshed credential",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	return token.AccessToken, nil
}

// upsertProviderEvent inserts or updates one provider event keyed by
// (userID, providerEventID) and reports whether its external link is new or
// changed. Events lacking an id or title are skipped silently (malformed
// upstream data); ok is false when nothing was written.
func (s *Syncer) upsertProviderEvent(ctx context.Context, userID uuid.UUID, item *calendar.Event) (eventID uuid.UUID, url string, changed bool, ok bool) {
	if item == nil || item.Id == "" || item.Summary == "" {
		return uuid.Nil, "", false, false
	}

	startDate := providerStartDate(item)
	link := models.FirstHTTPURL(item.Description)
	var linkPtr *string
	if link != "" {
		linkPtr = &link
	}

	existing, err := s.store.GetEventByProviderID(ctx, userID, item.Id)
	if err != nil {
		s.logger.Error("failed to look up event during upsert",
			zap.String("provider_event_id", item.Id),
			zap.Error(err))
		return uuid.Nil, "", false, false
	}

	if existing == nil {
		event := &models.Event{
			UserID:          userID,
			ProviderEventID: item.Id,
			Title:           item.Summary,
			StartDate:       startDate,
			Location:        item.Location,
			ExternalLink:    linkPtr,
		}
		if err := s.store.CreateEvent(ctx, event); err != nil {
			s.logger.Error("failed to insert event",
				zap.String("provider_event_id", item.Id),
				zap.Error(err))
			return uuid.Nil, "", false, false
		}
		// A new insert with a non-empty link counts as "changed".
		return event.ID, link, linkPtr != nil, true
	}

	changed = !equalLinks(existing.ExternalLink, linkPtr)
	existing.Title = item.Summary
	existing.StartDate = startDate
	existing.Location = item.Location
	existing.ExternalLink = linkPtr
	if err := s.store.UpdateEvent(ctx, existing); err != nil {
		s.logger.Error("failed to update event",
			zap.String("provider_event_id", item.Id),
			zap.Error(err))
		return uuid.Nil, "", false, false
	}
	return existing.ID, link, changed, true
}

// providerStartDate derives the date-only start value: a timestamp is
// truncated to midnight in its own location, a bare date is used directly,
// and a missing start yields the zero time.
func providerStartDate(item *calendar.Event) time.Time {
	if item.Start == nil {
		return time.Time{}
	}
	if item.Start.DateTime != "" {
		t, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return time.Time{}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	if item.Start.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", item.Start.Date, time.Local)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	return time.Time{}
}

func equalLinks(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
