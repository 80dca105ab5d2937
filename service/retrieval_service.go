package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/database"
	"github.com/legalpt/legal-rag-be/types"
)

const (
	SearchTypeVector = "vector"
	SearchTypeText   = "text"
	SearchTypeHybrid = "hybrid"
)

// Hybrid search blends both rankings; vector similarity dominates.
const (
	hybridVectorWeight = 0.7
	hybridTextWeight   = 0.3
)

// RetrievalService embeds a query and finds the most similar chunks.
type RetrievalService struct {
	store      database.DocumentStore
	embedder   EmbeddingService
	translator TranslationService
	topK       int
}

func NewRetrievalService(store database.DocumentStore, embedder EmbeddingService, translator TranslationService, cfg config.RAGConfig) *RetrievalService {
	return &RetrievalService{
		store:      store,
		embedder:   embedder,
		translator: translator,
		topK:       cfg.TopK,
	}
}

// Search runs the requested search type. An empty result is a valid
// outcome, not an error.
func (s *RetrievalService) Search(ctx context.Context, req *types.QueryRequest) ([]types.ScoredChunk, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", types.ErrInvalidInput)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	// The corpus is Portuguese; foreign-language queries are translated
	// before embedding so they land in the same vector space.
	if req.Language != "" && req.Language != "pt" && s.translator != nil {
		query = s.translator.ToPortuguese(ctx, query, req.Language)
	}

	switch req.SearchType {
	case "", SearchTypeVector:
		return s.vectorSearch(ctx, query, topK, req.Filter)
	case SearchTypeText:
		return s.store.TextSearch(ctx, query, topK)
	case SearchTypeHybrid:
		return s.hybridSearch(ctx, query, topK, req.Filter)
	default:
		return nil, fmt.Errorf("%w: unknown search type %q", types.ErrInvalidInput, req.SearchType)
	}
}

func (s *RetrievalService) vectorSearch(ctx context.Context, query string, topK int, filter *types.SearchFilter) ([]types.ScoredChunk, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.store.SimilaritySearch(ctx, vector, topK, filter)
}

// hybridSearch merges vector and text rankings with a weighted sum of
// normalized scores. Chunks found by both searches rank highest.
func (s *RetrievalService) hybridSearch(ctx context.Context, query string, topK int, filter *types.SearchFilter) ([]types.ScoredChunk, error) {
	vectorHits, err := s.vectorSearch(ctx, query, topK, filter)
	if err != nil {
		return nil, err
	}
	textHits, err := s.store.TextSearch(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	type merged struct {
		hit   types.ScoredChunk
		score float64
		order int
	}
	combined := make(map[string]*merged)
	order := 0

	for _, hit := range vectorHits {
		key := chunkKey(&hit.Chunk)
		combined[key] = &merged{hit: hit, score: hybridVectorWeight * hit.Score, order: order}
		order++
	}
	for rank, hit := range textHits {
		// Text scores are unbounded; rank position normalizes them.
		normalized := 1.0 - float64(rank)/float64(len(textHits))
		key := chunkKey(&hit.Chunk)
		if existing, ok := combined[key]; ok {
			existing.score += hybridTextWeight * normalized
			continue
		}
		combined[key] = &merged{hit: hit, score: hybridTextWeight * normalized, order: order}
		order++
	}

	entries := make([]*merged, 0, len(combined))
	for _, m := range combined {
		entries = append(entries, m)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].order < entries[j].order
	})

	results := make([]types.ScoredChunk, 0, topK)
	for _, m := range entries {
		if len(results) == topK {
			break
		}
		m.hit.Score = m.score
		results = append(results, m.hit)
	}
	return results, nil
}

func chunkKey(c *types.DocumentChunk) string {
	if c.ID != "" {
		return c.ID
	}
	return fmt.Sprintf("%s#%d", c.DocumentID, c.ChunkIndex)
}
