package services

// DefaultMaxChunkChars is the practical input ceiling for one extraction
// call. Pages longer than this are split before hitting the model.
const DefaultMaxChunkChars = 100000

// ChunkText splits text into ordered, non-overlapping segments of at most
// maxChars characters each. Concatenating the result reconstructs the input
// exactly; every chunk except possibly the last has exactly maxChars
// characters. Boundaries are counted in runes so a chunk never splits a
// UTF-8 sequence. maxChars <= 0 returns the input as a single chunk.
func ChunkText(text string, maxChars int) []string {
	if text == "" {
		return []string{}
	}
	if maxChars <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+maxChars-1)/maxChars)
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
