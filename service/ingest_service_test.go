package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/database"
	"github.com/legalpt/legal-rag-be/types"
)

// stubEmbedder produces deterministic unit vectors keyed on text length.
type stubEmbedder struct {
	dimension int
	err       error
	calls     int
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dimension)
		v[len(text)%e.dimension] = 1
		vectors[i] = v
	}
	return vectors, nil
}

func (e *stubEmbedder) Dimension() int { return e.dimension }

func newTestIngestService(t *testing.T, store database.DocumentStore, embedder EmbeddingService) *IngestService {
	t.Helper()
	svc, err := NewIngestService(store, embedder, config.IngestConfig{
		ChunkSize:        100,
		ChunkOverlap:     20,
		MinContentLength: 30,
		Workers:          2,
	})
	require.NoError(t, err)
	return svc
}

func TestIngestStoresDocumentAndChunks(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestIngestService(t, store, &stubEmbedder{dimension: 4})

	result := svc.Ingest(context.Background(), types.IngestRequest{
		Document: types.ScrapedDocument{
			Title:        "Despacho n.º 10/2024",
			URL:          "https://dre.pt/despacho-10-2024",
			DocumentType: "despacho",
			FullText:     strings.Repeat("texto do despacho sobre procedimento administrativo. ", 10),
		},
	})

	assert.Equal(t, types.IngestStatusIngested, result.Status)
	assert.NotEmpty(t, result.DocumentID)
	assert.Greater(t, result.ChunksCreated, 1)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalDocuments)
	assert.Equal(t, int64(result.ChunksCreated), stats.TotalChunks)

	doc, err := store.GetDocument(context.Background(), result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, types.DocumentTypeDespacho, doc.DocumentType)
	assert.Equal(t, types.DocumentSourceScraper, doc.Source)
}

func TestIngestSkipsEmptyContent(t *testing.T) {
	store := database.NewMemoryStore()
	embedder := &stubEmbedder{dimension: 4}
	svc := newTestIngestService(t, store, embedder)

	result := svc.Ingest(context.Background(), types.IngestRequest{
		Document: types.ScrapedDocument{
			Title:    "vazio",
			URL:      "https://dre.pt/vazio",
			FullText: "   \n\t  ",
		},
	})

	assert.Equal(t, types.IngestStatusSkipped, result.Status)
	assert.Equal(t, types.SkipReasonEmptyContent, result.Reason)
	assert.Zero(t, embedder.calls)
}

func TestIngestSkipsShortContent(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestIngestService(t, store, &stubEmbedder{dimension: 4})

	result := svc.Ingest(context.Background(), types.IngestRequest{
		Document: types.ScrapedDocument{
			Title:    "curto",
			URL:      "https://dre.pt/curto",
			FullText: "muito curto",
		},
	})

	assert.Equal(t, types.IngestStatusSkipped, result.Status)
	assert.Equal(t, types.SkipReasonTooShort, result.Reason)
}

func TestIngestSkipsDuplicateUnlessForced(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestIngestService(t, store, &stubEmbedder{dimension: 4})

	doc := types.ScrapedDocument{
		Title:        "Portaria n.º 5/2023",
		URL:          "https://dre.pt/portaria-5-2023",
		DocumentType: "portaria",
		FullText:     strings.Repeat("disposições sobre taxas e emolumentos. ", 10),
	}

	first := svc.Ingest(context.Background(), types.IngestRequest{Document: doc})
	require.Equal(t, types.IngestStatusIngested, first.Status)

	second := svc.Ingest(context.Background(), types.IngestRequest{Document: doc})
	assert.Equal(t, types.IngestStatusSkipped, second.Status)
	assert.Equal(t, types.SkipReasonDuplicate, second.Reason)
	assert.Equal(t, first.DocumentID, second.DocumentID)

	forced := svc.Ingest(context.Background(), types.IngestRequest{Document: doc, Force: true})
	assert.Equal(t, types.IngestStatusIngested, forced.Status)
	assert.Equal(t, first.DocumentID, forced.DocumentID)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalDocuments)
}

func TestIngestReportsEmbeddingFailure(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestIngestService(t, store, &stubEmbedder{
		dimension: 4,
		err:       types.ErrUpstreamUnavailable,
	})

	result := svc.Ingest(context.Background(), types.IngestRequest{
		Document: types.ScrapedDocument{
			Title:    "falha",
			URL:      "https://dre.pt/falha",
			FullText: strings.Repeat("conteúdo suficiente para passar o mínimo. ", 5),
		},
	})

	assert.Equal(t, types.IngestStatusFailed, result.Status)
	assert.Contains(t, result.Reason, "unavailable")

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDocuments)
}

func TestIngestUsesArticleChunkingForLaws(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestIngestService(t, store, &stubEmbedder{dimension: 4})

	text := "Preâmbulo da presente lei com enquadramento geral do diploma.\n\n" +
		"Artigo 1.º - Objeto\nA presente lei estabelece o regime aplicável.\n\n" +
		"Artigo 2.º - Âmbito\nAplica-se a todo o território nacional.\n"

	result := svc.Ingest(context.Background(), types.IngestRequest{
		Document: types.ScrapedDocument{
			Title:        "Lei n.º 1/2024",
			URL:          "https://dre.pt/lei-1-2024",
			DocumentType: "lei",
			FullText:     text,
		},
	})
	require.Equal(t, types.IngestStatusIngested, result.Status)

	hits, err := store.TextSearch(context.Background(), "artigo", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	foundArticles := false
	for _, hit := range hits {
		if hit.Chunk.Metadata["articles"] != "" {
			foundArticles = true
		}
	}
	assert.True(t, foundArticles)
}

func TestReprocessReplacesChunks(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestIngestService(t, store, &stubEmbedder{dimension: 4})

	first := svc.Ingest(context.Background(), types.IngestRequest{
		Document: types.ScrapedDocument{
			Title:        "Aviso n.º 3/2024",
			URL:          "https://dre.pt/aviso-3-2024",
			DocumentType: "aviso",
			FullText:     strings.Repeat("texto do aviso sobre consulta pública. ", 8),
		},
	})
	require.Equal(t, types.IngestStatusIngested, first.Status)

	result, err := svc.Reprocess(context.Background(), first.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, types.IngestStatusIngested, result.Status)
	assert.Equal(t, first.DocumentID, result.DocumentID)
	assert.Equal(t, first.ChunksCreated, result.ChunksCreated)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(result.ChunksCreated), stats.TotalChunks)
}

func TestReprocessUnknownDocument(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestIngestService(t, store, &stubEmbedder{dimension: 4})

	_, err := svc.Reprocess(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestIngestBatchKeepsOrderAndIsolatesFailures(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestIngestService(t, store, &stubEmbedder{dimension: 4})

	docs := []types.ScrapedDocument{
		{Title: "a", URL: "https://dre.pt/a", FullText: strings.Repeat("conteúdo válido a. ", 5)},
		{Title: "b", URL: "https://dre.pt/b", FullText: ""},
		{Title: "c", URL: "https://dre.pt/c", FullText: strings.Repeat("conteúdo válido c. ", 5)},
	}

	results := svc.IngestBatch(context.Background(), types.BatchIngestRequest{Documents: docs})
	require.Len(t, results, 3)
	assert.Equal(t, "https://dre.pt/a", results[0].URL)
	assert.Equal(t, types.IngestStatusIngested, results[0].Status)
	assert.Equal(t, types.IngestStatusSkipped, results[1].Status)
	assert.Equal(t, types.IngestStatusIngested, results[2].Status)
}
