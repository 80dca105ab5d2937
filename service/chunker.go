package service

import (
	"fmt"

	"github.com/legalpt/legal-rag-be/types"
)

// Chunker splits raw text into fixed-size overlapping character windows.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window parameters once. Overlap must stay below
// size, otherwise the advance step would not be strictly positive.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", types.ErrInvalidParameter, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, size), got %d", types.ErrInvalidParameter, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split emits windows [offset, offset+size) advancing by size-overlap,
// clipping the last window to the text length. Empty text yields no chunks;
// text shorter than one window yields exactly one chunk.
func (c *Chunker) Split(text string) []types.TextChunk {
	var chunks []types.TextChunk
	textLen := len(text)

	for start := 0; start < textLen; start += c.size - c.overlap {
		end := start + c.size
		if end > textLen {
			end = textLen
		}
		chunks = append(chunks, types.TextChunk{
			Text:      text[start:end],
			Start:     start,
			End:       end,
			Index:     len(chunks),
			ChunkType: "character",
		})
		if end == textLen {
			break
		}
	}
	return chunks
}
