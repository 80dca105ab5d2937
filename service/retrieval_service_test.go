package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/database"
	"github.com/legalpt/legal-rag-be/types"
)

type stubTranslator struct {
	called bool
	result string
}

func (t *stubTranslator) ToPortuguese(ctx context.Context, text, sourceLang string) string {
	t.called = true
	if t.result != "" {
		return t.result
	}
	return text
}

func seedCorpus(t *testing.T, store *database.MemoryStore, embedder EmbeddingService) {
	t.Helper()
	ctx := context.Background()
	docs := []struct {
		title, url, docType, chunkText string
	}{
		{"Lei do Arrendamento", "https://dre.pt/arrendamento", types.DocumentTypeLei,
			"O contrato de arrendamento urbano celebra-se por escrito"},
		{"Código do Trabalho", "https://dre.pt/trabalho", types.DocumentTypeLei,
			"O período normal de trabalho não pode exceder oito horas por dia"},
		{"Portaria das Taxas", "https://dre.pt/taxas", types.DocumentTypePortaria,
			"As taxas devidas pela emissão de certidões são fixadas em anexo"},
	}
	for _, d := range docs {
		id, err := store.UpsertDocument(ctx, &types.Document{
			Title: d.title, URL: d.url, DocumentType: d.docType,
		})
		require.NoError(t, err)
		vec, err := embedder.Embed(ctx, d.chunkText)
		require.NoError(t, err)
		require.NoError(t, store.ReplaceChunks(ctx, id, []types.DocumentChunk{
			{Text: d.chunkText, Embedding: vec},
		}))
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := NewRetrievalService(database.NewMemoryStore(), &stubEmbedder{dimension: 4}, nil,
		config.RAGConfig{TopK: 5})

	_, err := svc.Search(context.Background(), &types.QueryRequest{Query: "   "})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestSearchRejectsUnknownSearchType(t *testing.T) {
	svc := NewRetrievalService(database.NewMemoryStore(), &stubEmbedder{dimension: 4}, nil,
		config.RAGConfig{TopK: 5})

	_, err := svc.Search(context.Background(), &types.QueryRequest{
		Query: "arrendamento", SearchType: "semantic",
	})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestSearchEmptyStoreReturnsNoHits(t *testing.T) {
	svc := NewRetrievalService(database.NewMemoryStore(), &stubEmbedder{dimension: 4}, nil,
		config.RAGConfig{TopK: 5})

	hits, err := svc.Search(context.Background(), &types.QueryRequest{Query: "arrendamento"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchVectorReturnsRankedHits(t *testing.T) {
	store := database.NewMemoryStore()
	embedder := &stubEmbedder{dimension: 4}
	seedCorpus(t, store, embedder)
	svc := NewRetrievalService(store, embedder, nil, config.RAGConfig{TopK: 2})

	hits, err := svc.Search(context.Background(), &types.QueryRequest{Query: "arrendamento urbano"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
	}
	assert.NotEmpty(t, hits[0].Document.Title)
}

func TestSearchTranslatesEnglishQueries(t *testing.T) {
	store := database.NewMemoryStore()
	embedder := &stubEmbedder{dimension: 4}
	seedCorpus(t, store, embedder)
	translator := &stubTranslator{result: "contrato de arrendamento"}
	svc := NewRetrievalService(store, embedder, translator, config.RAGConfig{TopK: 3})

	_, err := svc.Search(context.Background(), &types.QueryRequest{
		Query: "rental contract", Language: "en",
	})
	require.NoError(t, err)
	assert.True(t, translator.called)
}

func TestSearchPortugueseQueriesSkipTranslation(t *testing.T) {
	store := database.NewMemoryStore()
	embedder := &stubEmbedder{dimension: 4}
	seedCorpus(t, store, embedder)
	translator := &stubTranslator{}
	svc := NewRetrievalService(store, embedder, translator, config.RAGConfig{TopK: 3})

	_, err := svc.Search(context.Background(), &types.QueryRequest{
		Query: "contrato de arrendamento", Language: "pt",
	})
	require.NoError(t, err)
	assert.False(t, translator.called)
}

func TestSearchHybridDeduplicatesAcrossRankings(t *testing.T) {
	store := database.NewMemoryStore()
	embedder := &stubEmbedder{dimension: 4}
	seedCorpus(t, store, embedder)
	svc := NewRetrievalService(store, embedder, nil, config.RAGConfig{TopK: 5})

	hits, err := svc.Search(context.Background(), &types.QueryRequest{
		Query: "arrendamento urbano", SearchType: SearchTypeHybrid,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	seen := make(map[string]bool)
	for _, hit := range hits {
		key := chunkKey(&hit.Chunk)
		assert.False(t, seen[key], "duplicate chunk %s in hybrid results", key)
		seen[key] = true
	}
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
	}
}

func TestSearchAppliesFilter(t *testing.T) {
	store := database.NewMemoryStore()
	embedder := &stubEmbedder{dimension: 4}
	seedCorpus(t, store, embedder)
	svc := NewRetrievalService(store, embedder, nil, config.RAGConfig{TopK: 5})

	hits, err := svc.Search(context.Background(), &types.QueryRequest{
		Query:  "taxas",
		Filter: &types.SearchFilter{DocumentType: types.DocumentTypePortaria},
	})
	require.NoError(t, err)
	for _, hit := range hits {
		assert.Equal(t, types.DocumentTypePortaria, hit.Document.DocumentType)
	}
}
