package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"conference-agenda-sync/internal/config"
	"conference-agenda-sync/internal/models"
)

// chatCompleter is the one method of the OpenAI client the extractor uses.
// *openai.Client satisfies it; tests substitute a fake.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ScheduleExtractor turns one chunk of scraped page text into a typed
// schedule via an LLM. The model is untrusted output: schema conformance is
// enforced entirely after the fact, never assumed.
type ScheduleExtractor struct {
	client      chatCompleter
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewScheduleExtractor creates an extractor from injected configuration.
func NewScheduleExtractor(cfg config.OpenAIConfig, logger *zap.Logger) *ScheduleExtractor {
	return &ScheduleExtractor{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

// ExtractSchedule sends one chunk to the model and parses the reply into a
// schedule. A reply that is not valid JSON after fence stripping yields
// *ExtractionParseError; the caller absorbs that per-chunk, so a bad chunk
// never aborts its siblings.
func (e *ScheduleExtractor) ExtractSchedule(ctx context.Context, eventID uuid.UUID, chunk string, chunkIndex int) (*models.ExtractedSchedule, error) {
	if chunk == "" {
		return nil, fmt.Errorf("chunk cannot be empty")
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: e.buildSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: e.buildUserPrompt(chunk, chunkIndex),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices from model")
	}

	cleaned := cleanJSONResponse(resp.Choices[0].Message.Content)

	var schedule models.ExtractedSchedule
	if err := json.Unmarshal([]byte(cleaned), &schedule); err != nil {
		return nil, &ExtractionParseError{ChunkIndex: chunkIndex, Raw: cleaned, Err: err}
	}
	schedule.Normalize(chunkIndex)

	e.logger.Debug("extracted schedule chunk",
		zap.String("event_id", eventID.String()),
		zap.Int("chunk_index", chunkIndex),
		zap.Int("candidates", len(schedule.SubEvents)),
		zap.Int("tokens_used", resp.Usage.TotalTokens),
	)

	return &schedule, nil
}

// buildSystemPrompt pins the output contract: JSON only, fixed schema, bare
// 12-hour time tokens with no date or timezone.
func (e *ScheduleExtractor) buildSystemPrompt() string {
	return `You are an expert at extracting conference and event agendas from web page text.

Your task is to analyze the provided page content and extract the sessions, talks, and sub-events it describes, plus the overall venue or location of the event if one is stated.

OUTPUT FORMAT:
Return ONLY a JSON object with this exact structure and nothing else — no markdown, no code fences, no commentary:
{
  "location": "overall venue or location of the event, or null if not stated",
  "subEvents": [
    {
      "title": "session or talk title",
      "startTime": "9am",
      "endTime": "4:30pm",
      "speaker": "speaker full name",
      "speakerPosition": "speaker job title",
      "speakerCompany": "speaker company or organization",
      "location": "room, stage, or booth for this session"
    }
  ]
}

EXTRACTION RULES:
- startTime and endTime must be bare 12-hour clock tokens like "9am" or "4:30pm" — never include a date or timezone.
- Use an empty string for any field the content does not state. Do not invent details.
- Extract every distinct session you can find; a page may describe dozens.
- A keynote, workshop, panel, or break with a time is a sub-event.
- If the page describes no sessions at all, return {"location": null, "subEvents": []}.`
}

// buildUserPrompt wraps one chunk of page text for the model.
func (e *ScheduleExtractor) buildUserPrompt(chunk string, chunkIndex int) string {
	return fmt.Sprintf(`Extract the event schedule from the following page text (segment %d).

Content to analyze:
%s

Return the schedule as JSON following the schema from the system prompt.`, chunkIndex, chunk)
}

// cleanJSONResponse strips markdown code fences the model may wrap around
// its reply despite being told not to.
func cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	}
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSuffix(cleaned, "```")
	}

	return strings.TrimSpace(cleaned)
}
