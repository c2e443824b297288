package models

// ExtractionCandidate is the model's proposed sub-event before merge and
// insert. It mirrors SubEvent's fields; every field defaults to empty when
// the model omits it, so downstream code never sees an undefined shape.
type ExtractionCandidate struct {
	Title           string `json:"title"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Speaker         string `json:"speaker"`
	SpeakerPosition string `json:"speakerPosition"`
	SpeakerCompany  string `json:"speakerCompany"`
	Location        string `json:"location"`
	// ChunkIndex records which text chunk produced this candidate. It is
	// diagnostic only and never persisted.
	ChunkIndex int `json:"-"`
}

// ExtractedSchedule is the typed result of one extraction call: a location
// hint for the parent event plus the candidate sub-events found in the chunk.
type ExtractedSchedule struct {
	Location  string                `json:"location"`
	SubEvents []ExtractionCandidate `json:"subEvents"`
}

// Normalize gives the schedule a defined shape after JSON parsing: a nil
// candidate list becomes empty and every candidate is stamped with the chunk
// it came from. Field values are kept verbatim.
func (s *ExtractedSchedule) Normalize(chunkIndex int) {
	if s.SubEvents == nil {
		s.SubEvents = []ExtractionCandidate{}
	}
	for i := range s.SubEvents {
		s.SubEvents[i].ChunkIndex = chunkIndex
	}
}
