package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalpt/legal-rag-be/types"
)

func TestNewChunkerInvalidParams(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap above size", 10, 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewChunker(tc.size, tc.overlap)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidParameter)
		})
	}
}

func TestSplitExample(t *testing.T) {
	c, err := NewChunker(4, 1)
	require.NoError(t, err)

	chunks := c.Split("ABCDEFGHIJ")
	require.Len(t, chunks, 3)

	assert.Equal(t, "ABCD", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 4, chunks[0].End)

	assert.Equal(t, "DEFG", chunks[1].Text)
	assert.Equal(t, 3, chunks[1].Start)
	assert.Equal(t, 7, chunks[1].End)

	assert.Equal(t, "GHIJ", chunks[2].Text)
	assert.Equal(t, 6, chunks[2].Start)
	assert.Equal(t, 10, chunks[2].End)
}

func TestSplitEmptyText(t *testing.T) {
	c, err := NewChunker(100, 10)
	require.NoError(t, err)
	assert.Empty(t, c.Split(""))
}

func TestSplitShortText(t *testing.T) {
	c, err := NewChunker(100, 10)
	require.NoError(t, err)

	chunks := c.Split("short")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 5, chunks[0].End)
}

// Every valid (size, overlap) pair must cover [0, len(text)) without gaps
// and with strictly increasing offsets.
func TestSplitFullCoverage(t *testing.T) {
	text := strings.Repeat("abcdefghij", 37)

	for size := 1; size <= 50; size += 7 {
		for overlap := 0; overlap < size; overlap += 3 {
			c, err := NewChunker(size, overlap)
			require.NoError(t, err)

			chunks := c.Split(text)
			require.NotEmpty(t, chunks)

			assert.Equal(t, 0, chunks[0].Start)
			assert.Equal(t, len(text), chunks[len(chunks)-1].End)

			covered := chunks[0].End
			for i := 1; i < len(chunks); i++ {
				assert.Greater(t, chunks[i].Start, chunks[i-1].Start, "offsets must increase")
				assert.LessOrEqual(t, chunks[i].Start, covered, "no gap before chunk %d", i)
				assert.Equal(t, chunks[i-1].End-chunks[i].Start, overlap, "adjacent overlap")
				if chunks[i].End > covered {
					covered = chunks[i].End
				}
			}
			assert.Equal(t, len(text), covered)

			for i, ch := range chunks {
				assert.Equal(t, i, ch.Index)
				assert.Equal(t, text[ch.Start:ch.End], ch.Text)
			}
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	c, err := NewChunker(13, 4)
	require.NoError(t, err)

	text := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	first := c.Split(text)
	second := c.Split(text)
	assert.Equal(t, first, second)
}
