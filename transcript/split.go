package transcript

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the target chunk length in characters.
const DefaultChunkSize = 2000

// chunkOverflow lets a chunk run past the target before it is closed.
const chunkOverflow = 1.2

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// Chunk is a bounded-size, sentence-aligned slice of a transcript.
// Indices are assigned in transcript order before any embedding work
// begins. Start and end times stay zero: caption timing is not carried
// through normalization.
type Chunk struct {
	Text      string
	Index     int
	StartTime float64
	EndTime   float64
}

// Split divides a cleaned transcript into chunks of roughly targetSize
// characters. Sentences are accumulated greedily and joined with ". ";
// a chunk closes when adding the next sentence would push it past
// targetSize × 1.2. A single sentence longer than the target is kept
// whole, so a chunk can exceed the limit. An empty transcript yields no
// chunks.
func Split(cleaned string, targetSize int) []Chunk {
	if targetSize <= 0 {
		targetSize = DefaultChunkSize
	}
	limit := float64(targetSize) * chunkOverflow

	var sentences []string
	for _, s := range sentenceBoundary.Split(cleaned, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	var chunks []Chunk
	var current string

	for _, sentence := range sentences {
		switch {
		case current == "":
			current = sentence
		case float64(len(current)+len(sentence)+2) > limit:
			chunks = append(chunks, Chunk{Text: current, Index: len(chunks)})
			current = sentence
		default:
			current += ". " + sentence
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, Chunk{Text: current, Index: len(chunks)})
	}

	return chunks
}
