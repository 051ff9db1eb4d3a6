// Package chunk splits an oversized document body into overlapping,
// fixed-size windows so each unit stays within an encoder's context limit
// while preserving enough surrounding text at each boundary for retrieval
// to still find it.
package chunk

import "fmt"

// Chunk is either the entire cleaned body (single-chunk case) or one
// sliding window of it.
type Chunk struct {
	Content     string
	ChunkIndex  int
	ChunkTotal  int
	StartOffset int
	EndOffset   int
	IsChunk     bool
}

// Split divides content into chunks according to the sliding-window rule:
// below threshold, the whole document is one chunk; at or above it, windows of
// chunkSize characters advance by (chunkSize - chunkOverlap) characters
// each step, and a final window shorter than half the chunk size is
// absorbed into its predecessor rather than left as its own tiny chunk.
//
// Every character of content is covered by at least one chunk, and
// adjacent chunks overlap by exactly chunkOverlap characters except where
// the tail-absorption rule fires.
func Split(content string, chunkSize, chunkOverlap, threshold int) ([]Chunk, error) {
	if content == "" {
		return nil, nil
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk: overlap (%d) must be less than chunk size (%d)", chunkOverlap, chunkSize)
	}

	length := len(content)
	if length < threshold {
		return []Chunk{{
			Content:     content,
			ChunkIndex:  0,
			ChunkTotal:  1,
			StartOffset: 0,
			EndOffset:   length,
			IsChunk:     false,
		}}, nil
	}

	step := chunkSize - chunkOverlap
	var chunks []Chunk

	start := 0
	for start < length {
		end := start + chunkSize
		if end > length {
			end = length
		}

		if len(chunks) > 0 && (length-start) < chunkSize/2 {
			// Tiny tail: fold it into the previous chunk instead of
			// emitting a chunk shorter than half the target size.
			prev := &chunks[len(chunks)-1]
			prev.Content = content[prev.StartOffset:length]
			prev.EndOffset = length
			break
		}

		chunks = append(chunks, Chunk{
			Content:     content[start:end],
			ChunkIndex:  len(chunks),
			StartOffset: start,
			EndOffset:   end,
			IsChunk:     true,
		})

		start += step
	}

	total := len(chunks)
	for i := range chunks {
		chunks[i].ChunkTotal = total
	}
	return chunks, nil
}
