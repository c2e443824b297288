package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// fakeCompleter returns canned completion content, or an error.
type fakeCompleter struct {
	content  string
	err      error
	requests []openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func newTestExtractor(completer chatCompleter) *ScheduleExtractor {
	return &ScheduleExtractor{
		client:      completer,
		model:       "gpt-4o-mini",
		temperature: 0.7,
		maxTokens:   4000,
		logger:      zap.NewNop(),
	}
}

func TestCleanJSONResponse(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Clean JSON",
			input:    `{"location": null, "subEvents": []}`,
			expected: `{"location": null, "subEvents": []}`,
		},
		{
			name:     "JSON with json code fence",
			input:    "```json\n{\"subEvents\": []}\n```",
			expected: `{"subEvents": []}`,
		},
		{
			name:     "JSON with bare fence",
			input:    "```\n{\"subEvents\": []}\n```",
			expected: `{"subEvents": []}`,
		},
		{
			name:     "Extra whitespace",
			input:    "  \n  {\"subEvents\": []}  \n  ",
			expected: `{"subEvents": []}`,
		},
		{
			name:     "Plain refusal text untouched",
			input:    "I'm unable to extract a schedule from this content.",
			expected: "I'm unable to extract a schedule from this content.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanJSONResponse(tc.input); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestExtractSchedule_ParsesFencedJSON(t *testing.T) {
	completer := &fakeCompleter{
		content: "```json\n{\"location\": \"Moscone Center\", \"subEvents\": [{\"title\": \"Opening Keynote\", \"startTime\": \"9am\", \"endTime\": \"10am\", \"speaker\": \"Ada Lovelace\"}]}\n```",
	}
	extractor := newTestExtractor(completer)

	schedule, err := extractor.ExtractSchedule(context.Background(), uuid.New(), "page text", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schedule.Location != "Moscone Center" {
		t.Errorf("expected location 'Moscone Center', got %q", schedule.Location)
	}
	if len(schedule.SubEvents) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(schedule.SubEvents))
	}
	if schedule.SubEvents[0].Title != "Opening Keynote" {
		t.Errorf("expected title 'Opening Keynote', got %q", schedule.SubEvents[0].Title)
	}
	if schedule.SubEvents[0].ChunkIndex != 1 {
		t.Errorf("expected chunk index 1, got %d", schedule.SubEvents[0].ChunkIndex)
	}
}

func TestExtractSchedule_GarbageYieldsParseError(t *testing.T) {
	completer := &fakeCompleter{content: "I could not find any schedule on this page."}
	extractor := newTestExtractor(completer)

	_, err := extractor.ExtractSchedule(context.Background(), uuid.New(), "page text", 3)
	if err == nil {
		t.Fatal("expected an error for non-JSON output")
	}

	var parseErr *ExtractionParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ExtractionParseError, got %T: %v", err, err)
	}
	if parseErr.ChunkIndex != 3 {
		t.Errorf("expected chunk index 3 on the error, got %d", parseErr.ChunkIndex)
	}
	if parseErr.Raw == "" {
		t.Error("expected raw model output to be carried on the error")
	}
}

func TestExtractSchedule_DefaultsMissingFields(t *testing.T) {
	// The model omitted subEvents entirely and gave a null location.
	completer := &fakeCompleter{content: `{"location": null}`}
	extractor := newTestExtractor(completer)

	schedule, err := extractor.ExtractSchedule(context.Background(), uuid.New(), "page text", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schedule.Location != "" {
		t.Errorf("expected empty location for null, got %q", schedule.Location)
	}
	if schedule.SubEvents == nil {
		t.Error("expected empty slice for missing subEvents, got nil")
	}
	if len(schedule.SubEvents) != 0 {
		t.Errorf("expected no candidates, got %d", len(schedule.SubEvents))
	}
}

func TestExtractSchedule_RequestShape(t *testing.T) {
	completer := &fakeCompleter{content: `{"subEvents": []}`}
	extractor := newTestExtractor(completer)

	if _, err := extractor.ExtractSchedule(context.Background(), uuid.New(), "page text", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(completer.requests) != 1 {
		t.Fatalf("expected exactly one completion request, got %d", len(completer.requests))
	}

	req := completer.requests[0]
	if req.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", req.Temperature)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("expected first message to be the system prompt")
	}
	if req.Messages[1].Role != openai.ChatMessageRoleUser {
		t.Errorf("expected second message to be the user prompt")
	}
}

func TestExtractSchedule_EmptyChunkRejected(t *testing.T) {
	extractor := newTestExtractor(&fakeCompleter{content: `{}`})
	if _, err := extractor.ExtractSchedule(context.Background(), uuid.New(), "", 1); err == nil {
		t.Fatal("expected an error for an empty chunk")
	}
}
