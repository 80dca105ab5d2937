package service

import (
	"context"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/database"
	"github.com/legalpt/legal-rag-be/types"
)

// IngestService turns scraped documents into embedded chunks. Legal
// diplomas with article structure are split on article boundaries; other
// documents fall back to fixed character windows.
type IngestService struct {
	store            database.DocumentStore
	embedder         EmbeddingService
	chunker          *Chunker
	articleChunker   *ArticleChunker
	minContentLength int
	workers          int
}

func NewIngestService(store database.DocumentStore, embedder EmbeddingService, cfg config.IngestConfig) (*IngestService, error) {
	chunker, err := NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	articleChunker, err := NewArticleChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &IngestService{
		store:            store,
		embedder:         embedder,
		chunker:          chunker,
		articleChunker:   articleChunker,
		minContentLength: cfg.MinContentLength,
		workers:          workers,
	}, nil
}

// Ingest processes one document end to end. Every outcome, including
// embedding or store failures, is reported through the result status so
// batch callers can keep going.
func (s *IngestService) Ingest(ctx context.Context, req types.IngestRequest) *types.IngestResult {
	doc := req.Document
	result := &types.IngestResult{URL: doc.URL}

	text := strings.TrimSpace(doc.FullText)
	if text == "" {
		result.Status = types.IngestStatusSkipped
		result.Reason = types.SkipReasonEmptyContent
		return result
	}
	if len(text) < s.minContentLength {
		result.Status = types.IngestStatusSkipped
		result.Reason = types.SkipReasonTooShort
		return result
	}

	if doc.URL != "" && !req.Force {
		refs, err := s.store.ExistsByURL(ctx, []string{doc.URL})
		if err != nil {
			result.Status = types.IngestStatusFailed
			result.Reason = err.Error()
			return result
		}
		if ref := refs[doc.URL]; ref.Exists {
			result.Status = types.IngestStatusSkipped
			result.Reason = types.SkipReasonDuplicate
			result.DocumentID = ref.DocumentID
			return result
		}
	}

	chunks := s.splitDocument(&doc, text)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		result.Status = types.IngestStatusFailed
		result.Reason = err.Error()
		return result
	}

	docModel := &types.Document{
		Title:           doc.Title,
		Text:            text,
		Source:          types.DocumentSourceScraper,
		DocumentType:    normalizeDocumentType(doc.DocumentType),
		DocumentNumber:  doc.DocumentNumber,
		PublicationDate: doc.PublicationDate,
		URL:             doc.URL,
		IssuingBody:     doc.IssuingBody,
		Description:     doc.Description,
	}
	documentID, err := s.store.UpsertDocument(ctx, docModel)
	if err != nil {
		result.Status = types.IngestStatusFailed
		result.Reason = err.Error()
		return result
	}

	stored := s.buildChunks(documentID, docModel.DocumentType, docModel.PublicationDate, chunks, vectors)
	if err := s.store.ReplaceChunks(ctx, documentID, stored); err != nil {
		result.Status = types.IngestStatusFailed
		result.Reason = err.Error()
		return result
	}

	log.Printf("ingested %q: %d chunks", doc.Title, len(stored))
	result.Status = types.IngestStatusIngested
	result.DocumentID = documentID
	result.ChunksCreated = len(stored)
	return result
}

// IngestBatch runs ingestion over a worker pool. Results keep the input
// order; one failed document never aborts the rest.
func (s *IngestService) IngestBatch(ctx context.Context, req types.BatchIngestRequest) []types.IngestResult {
	results := make([]types.IngestResult, len(req.Documents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, doc := range req.Documents {
		g.Go(func() error {
			results[i] = *s.Ingest(gctx, types.IngestRequest{Document: doc, Force: req.Force})
			return nil
		})
	}
	g.Wait()
	return results
}

func (s *IngestService) buildChunks(documentID, documentType, publicationDate string, chunks []types.TextChunk, vectors [][]float32) []types.DocumentChunk {
	stored := make([]types.DocumentChunk, len(chunks))
	for i, c := range chunks {
		metadata := map[string]string{
			"document_type": documentType,
			"chunk_type":    c.ChunkType,
		}
		if publicationDate != "" {
			metadata["publication_date"] = publicationDate
		}
		if len(c.Articles) > 0 {
			metadata["articles"] = strings.Join(c.Articles, ",")
		}
		stored[i] = types.DocumentChunk{
			DocumentID: documentID,
			Text:       c.Text,
			ChunkIndex: c.Index,
			StartChar:  c.Start,
			EndChar:    c.End,
			Embedding:  vectors[i],
			Metadata:   metadata,
		}
	}
	return stored
}

// Reprocess re-chunks and re-embeds a stored document from its stored
// text, picking up chunker or embedding configuration changes.
func (s *IngestService) Reprocess(ctx context.Context, documentID string) (*types.IngestResult, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	result := &types.IngestResult{URL: doc.URL, DocumentID: documentID}

	scraped := types.ScrapedDocument{DocumentType: doc.DocumentType}
	chunks := s.splitDocument(&scraped, doc.Text)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	stored := s.buildChunks(documentID, doc.DocumentType, doc.PublicationDate, chunks, vectors)
	if err := s.store.ReplaceChunks(ctx, documentID, stored); err != nil {
		return nil, err
	}

	log.Printf("reprocessed %q: %d chunks", doc.Title, len(stored))
	result.Status = types.IngestStatusIngested
	result.ChunksCreated = len(stored)
	return result, nil
}

func (s *IngestService) splitDocument(doc *types.ScrapedDocument, text string) []types.TextChunk {
	if types.ArticleStructuredTypes[normalizeDocumentType(doc.DocumentType)] {
		return s.articleChunker.Split(text)
	}
	return s.chunker.Split(text)
}

// normalizeDocumentType maps free-form scraped type labels onto the known
// constants, defaulting to "other".
func normalizeDocumentType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "-", "_")
	t = strings.ReplaceAll(t, " ", "_")
	switch t {
	case types.DocumentTypeLei, types.DocumentTypeDecretoLei, types.DocumentTypeDecreto,
		types.DocumentTypePortaria, types.DocumentTypeDespacho, types.DocumentTypeResolucao,
		types.DocumentTypeRegulamento, types.DocumentTypeAviso, types.DocumentTypeDeliberacao,
		types.DocumentTypeContract:
		return t
	case "decreto_lei_n", "dl":
		return types.DocumentTypeDecretoLei
	default:
		return types.DocumentTypeOther
	}
}
