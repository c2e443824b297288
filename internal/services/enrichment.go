package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"conference-agenda-sync/internal/models"
)

// textFetcher and scheduleExtractor are the pipeline's two I/O seams,
// satisfied by PageFetcher and ScheduleExtractor and faked in tests.
type textFetcher interface {
	FetchText(ctx context.Context, url string, timeout time.Duration) (string, error)
}

type scheduleExtractor interface {
	ExtractSchedule(ctx context.Context, eventID uuid.UUID, chunk string, chunkIndex int) (*models.ExtractedSchedule, error)
}

// EnrichmentPipeline runs scrape -> chunk -> extract -> dedup/merge ->
// persist for one event. Stages fail independently: a bad chunk or a failed
// row insert degrades the result instead of aborting it. Only a failed fetch
// (or every chunk failing) surfaces as an error to the caller.
type EnrichmentPipeline struct {
	fetcher       textFetcher
	extractor     scheduleExtractor
	store         Store
	archiver      ContentArchiver
	metrics       *EnrichmentMetrics
	fetchTimeout  time.Duration
	maxChunkChars int
	logger        *zap.Logger
}

// NewEnrichmentPipeline wires the pipeline. archiver may be nil (disabled).
func NewEnrichmentPipeline(
	fetcher textFetcher,
	extractor scheduleExtractor,
	store Store,
	archiver ContentArchiver,
	metrics *EnrichmentMetrics,
	fetchTimeout time.Duration,
	maxChunkChars int,
	logger *zap.Logger,
) *EnrichmentPipeline {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	return &EnrichmentPipeline{
		fetcher:       fetcher,
		extractor:     extractor,
		store:         store,
		archiver:      archiver,
		metrics:       metrics,
		fetchTimeout:  fetchTimeout,
		maxChunkChars: maxChunkChars,
		logger:        logger,
	}
}

// EnrichEvent fetches the event's linked page, extracts its schedule, and
// persists the merged sub-events under the event.
func (p *EnrichmentPipeline) EnrichEvent(ctx context.Context, eventID uuid.UUID, url string) error {
	content, err := p.fetcher.FetchText(ctx, url, p.fetchTimeout)
	if err != nil {
		p.metrics.RecordEnrichment(eventID, err, 0, 0)
		return fmt.Errorf("failed to fetch linked page: %w", err)
	}

	if p.archiver != nil {
		if key, err := p.archiver.ArchivePage(ctx, eventID, content); err != nil {
			p.logger.Warn("failed to archive raw page",
				zap.String("event_id", eventID.String()),
				zap.Error(err))
		} else {
			p.logger.Debug("archived raw page",
				zap.String("event_id", eventID.String()),
				zap.String("key", key))
		}
	}

	schedules, chunksFailed := p.extractAll(ctx, eventID, content)
	if len(schedules) == 0 && chunksFailed > 0 {
		err := fmt.Errorf("all %d chunks failed extraction", chunksFailed)
		p.metrics.RecordEnrichment(eventID, err, 0, chunksFailed)
		return err
	}

	merged := MergeChunkSchedules(schedules)

	inserted, err := p.persistSchedule(ctx, eventID, merged)
	if err != nil {
		p.metrics.RecordEnrichment(eventID, err, inserted, chunksFailed)
		return err
	}

	p.metrics.RecordEnrichment(eventID, nil, inserted, chunksFailed)
	p.logger.Info("enriched event",
		zap.String("event_id", eventID.String()),
		zap.Int("sub_events_inserted", inserted),
		zap.Int("chunks_failed", chunksFailed))
	return nil
}

// extractAll invokes the extractor once per chunk. Inputs at or below the
// chunk threshold go through in a single call with chunk index 1. A failed
// chunk is logged and skipped; its siblings still run.
func (p *EnrichmentPipeline) extractAll(ctx context.Context, eventID uuid.UUID, content string) ([]*models.ExtractedSchedule, int) {
	chunks := []string{content}
	if len([]rune(content)) > p.maxChunkChars {
		chunks = ChunkText(content, p.maxChunkChars)
	}

	var schedules []*models.ExtractedSchedule
	chunksFailed := 0
	for i, chunk := range chunks {
		schedule, err := p.extractor.ExtractSchedule(ctx, eventID, chunk, i+1)
		if err != nil {
			chunksFailed++
			p.logger.Warn("chunk extraction failed",
				zap.String("event_id", eventID.String()),
				zap.Int("chunk_index", i+1),
				zap.Error(err))
			continue
		}
		schedules = append(schedules, schedule)
	}
	return schedules, chunksFailed
}

// persistSchedule writes the merged schedule under the parent event: a
// recovered location overwrites the parent's, then each surviving candidate
// becomes a new SubEvent row. Inserts are append-only; row failures are
// logged and skipped.
func (p *EnrichmentPipeline) persistSchedule(ctx context.Context, eventID uuid.UUID, merged *models.ExtractedSchedule) (int, error) {
	event, err := p.store.GetEventByID(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to load event for enrichment: %w", err)
	}
	if event == nil {
		return 0, fmt.Errorf("event %s not found", eventID)
	}

	parentLocation := event.Location
	if strings.TrimSpace(merged.Location) != "" {
		parentLocation = merged.Location
		if err := p.store.UpdateEventLocation(ctx, eventID, merged.Location); err != nil {
			p.logger.Warn("failed to update event location",
				zap.String("event_id", eventID.String()),
				zap.Error(err))
		}
	}

	inserted := 0
	for _, candidate := range merged.SubEvents {
		subEvent := &models.SubEvent{
			EventID:         eventID,
			Name:            candidate.Title,
			StartTimeToken:  candidate.StartTime,
			EndTimeToken:    candidate.EndTime,
			Speaker:         candidate.Speaker,
			SpeakerPosition: candidate.SpeakerPosition,
			SpeakerCompany:  candidate.SpeakerCompany,
			Location:        joinLocations(parentLocation, candidate.Location),
		}
		if err := p.store.InsertSubEvent(ctx, subEvent); err != nil {
			p.logger.Warn("failed to insert sub-event",
				zap.String("event_id", eventID.String()),
				zap.String("name", candidate.Title),
				zap.Error(err))
			continue
		}
		inserted++
	}
	return inserted, nil
}

// joinLocations combines the parent event's location with a sub-event's own.
// Both present and distinct join with " -- "; one present wins outright;
// neither yields nil (stored absence).
func joinLocations(parent, child string) *string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)

	switch {
	case parent != "" && child != "" && parent != child:
		joined := parent + " -- " + child
		return &joined
	case parent != "":
		return &parent
	case child != "":
		return &child
	default:
		return nil
	}
}
