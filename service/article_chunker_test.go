package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLaw = `ASSEMBLEIA DA REPÚBLICA

Lei n.º 23/2023
de 15 de maio

Regime Jurídico das Sociedades Comerciais

A Assembleia da República decreta, nos termos da alínea c) do artigo 161.º da Constituição, o seguinte:

CAPÍTULO I

Artigo 1.º
Objeto

A presente lei estabelece o regime jurídico aplicável às sociedades comerciais, regulando a sua constituição, funcionamento, modificação e extinção.

Artigo 2.º
Tipos de sociedades

1 - As sociedades comerciais devem adotar um dos seguintes tipos:
a) Sociedade em nome coletivo;
b) Sociedade por quotas;
c) Sociedade anónima.

2 - As sociedades que não adotem um dos tipos referidos no número anterior são nulas.

Artigo 3.º
Capacidade

As sociedades comerciais gozam de personalidade jurídica e têm capacidade de direitos e obrigações necessária ou conveniente à prossecução do seu objeto.
`

func TestArticleChunkerSplitsByArticle(t *testing.T) {
	c, err := NewArticleChunker(400, 50)
	require.NoError(t, err)

	chunks := c.Split(sampleLaw)
	require.NotEmpty(t, chunks)

	var articleNumbers []string
	for _, ch := range chunks {
		if ch.ChunkType == "articles" {
			articleNumbers = append(articleNumbers, ch.Articles...)
		}
	}
	assert.Equal(t, []string{"Artigo 1.º", "Artigo 2.º", "Artigo 3.º"}, articleNumbers)

	// Each article chunk carries heading, title and body.
	found := false
	for _, ch := range chunks {
		if len(ch.Articles) > 0 && ch.Articles[0] == "Artigo 2.º" {
			found = true
			assert.Contains(t, ch.Text, "Tipos de sociedades")
			assert.Contains(t, ch.Text, "Sociedade anónima")
		}
	}
	assert.True(t, found)
}

func TestArticleChunkerKeepsPreamble(t *testing.T) {
	c, err := NewArticleChunker(1000, 100)
	require.NoError(t, err)

	chunks := c.Split(sampleLaw)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "preamble", chunks[0].ChunkType)
	assert.Contains(t, chunks[0].Text, "ASSEMBLEIA DA REPÚBLICA")
}

func TestArticleChunkerOffsetsIncrease(t *testing.T) {
	c, err := NewArticleChunker(300, 30)
	require.NoError(t, err)

	chunks := c.Split(sampleLaw)
	for i := 1; i < len(chunks); i++ {
		assert.Greater(t, chunks[i].Start, chunks[i-1].Start)
		assert.Greater(t, chunks[i].End, chunks[i].Start)
	}
}

func TestArticleChunkerPacksSmallArticles(t *testing.T) {
	c, err := NewArticleChunker(4000, 100)
	require.NoError(t, err)

	chunks := c.Split(sampleLaw)
	// With a generous budget all three articles fit in one chunk.
	var articleChunks int
	for _, ch := range chunks {
		if ch.ChunkType == "articles" {
			articleChunks++
			assert.Len(t, ch.Articles, 3)
		}
	}
	assert.Equal(t, 1, articleChunks)
}

func TestArticleChunkerScrapedHeadingFormat(t *testing.T) {
	text := "=== DOCUMENTO ===\n" + strings.Repeat("Texto introdutório relevante sobre o diploma em causa. ", 6) +
		"\n\n=== ARTIGO 1.º ===\nÂmbito\nEste artigo define o âmbito.\n\n=== ARTIGO 2.º ===\nVigência\nEntra em vigor no dia seguinte.\n"

	c, err := NewArticleChunker(500, 50)
	require.NoError(t, err)

	chunks := c.Split(text)
	var numbers []string
	for _, ch := range chunks {
		numbers = append(numbers, ch.Articles...)
	}
	assert.Equal(t, []string{"ARTIGO 1.º", "ARTIGO 2.º"}, numbers)
}

func TestArticleChunkerFallsBackWithoutArticles(t *testing.T) {
	c, err := NewArticleChunker(50, 10)
	require.NoError(t, err)

	text := strings.Repeat("plain prose without any legal structure ", 10)
	chunks := c.Split(text)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.Equal(t, "character", ch.ChunkType)
		assert.Empty(t, ch.Articles)
	}
}
