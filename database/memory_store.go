package database

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legalpt/legal-rag-be/types"
)

// MemoryStore is an in-process DocumentStore used by tests and local
// development without an Atlas or Weaviate cluster. Similarity is exact
// cosine over all stored chunks.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]types.Document
	chunks  []types.DocumentChunk
	queries []types.QueryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]types.Document),
	}
}

func (s *MemoryStore) UpsertDocument(ctx context.Context, doc *types.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if doc.URL != "" {
		for id, existing := range s.docs {
			if existing.URL == doc.URL {
				updated := *doc
				updated.ID = id
				updated.CreatedAt = existing.CreatedAt
				updated.UpdatedAt = now
				s.docs[id] = updated
				return id, nil
			}
		}
	}

	id := uuid.NewString()
	stored := *doc
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.docs[id] = stored
	return id, nil
}

func (s *MemoryStore) ReplaceChunks(ctx context.Context, documentID string, chunks []types.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	s.chunks = kept

	now := time.Now()
	for _, c := range chunks {
		c.ID = uuid.NewString()
		c.DocumentID = documentID
		c.CreatedAt = now
		s.chunks = append(s.chunks, c)
	}
	return nil
}

func (s *MemoryStore) SimilaritySearch(ctx context.Context, vector []float32, topK int, filter *types.SearchFilter) ([]types.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []types.ScoredChunk
	for _, c := range s.chunks {
		doc, ok := s.docs[c.DocumentID]
		if !ok {
			continue
		}
		if !matchesFilter(&doc, filter) {
			continue
		}
		score, err := cosineSimilarity(vector, c.Embedding)
		if err != nil {
			return nil, err
		}
		hits = append(hits, types.ScoredChunk{Chunk: c, Document: doc, Score: score})
	}

	// Stable keeps insertion order for equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func matchesFilter(doc *types.Document, filter *types.SearchFilter) bool {
	if filter == nil {
		return true
	}
	if filter.DocumentType != "" && doc.DocumentType != filter.DocumentType {
		return false
	}
	if filter.DateFrom != "" && doc.PublicationDate < filter.DateFrom {
		return false
	}
	if filter.DateTo != "" && doc.PublicationDate > filter.DateTo {
		return false
	}
	return true
}

func (s *MemoryStore) TextSearch(ctx context.Context, query string, topK int) ([]types.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	var hits []types.ScoredChunk
	for _, c := range s.chunks {
		doc, ok := s.docs[c.DocumentID]
		if !ok {
			continue
		}
		text := strings.ToLower(c.Text)
		var score float64
		for _, term := range terms {
			score += float64(strings.Count(text, term))
		}
		if score > 0 {
			hits = append(hits, types.ScoredChunk{Chunk: c, Document: doc, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *MemoryStore) ExistsByURL(ctx context.Context, urls []string) (map[string]types.DocumentRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make(map[string]types.DocumentRef, len(urls))
	for _, u := range urls {
		ref := types.DocumentRef{}
		for id, doc := range s.docs {
			if doc.URL == u {
				ref.Exists = true
				ref.DocumentID = id
				for _, c := range s.chunks {
					if c.DocumentID == id {
						ref.ChunkCount++
					}
				}
				break
			}
		}
		refs[u] = ref
	}
	return refs, nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", types.ErrNotFound, id)
	}
	return &doc, nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: document %s", types.ErrNotFound, id)
	}
	delete(s.docs, id)
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.DocumentID != id {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return nil
}

func (s *MemoryStore) LogQuery(ctx context.Context, rec *types.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logged := *rec
	if logged.ID == "" {
		logged.ID = uuid.NewString()
	}
	s.queries = append(s.queries, logged)
	return nil
}

// Queries returns logged query records, oldest first.
func (s *MemoryStore) Queries() []types.QueryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.QueryRecord, len(s.queries))
	copy(out, s.queries)
	return out
}

func (s *MemoryStore) Stats(ctx context.Context) (*types.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &types.StoreStats{
		TotalDocuments: int64(len(s.docs)),
		TotalChunks:    int64(len(s.chunks)),
	}, nil
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vector dimensions differ (%d vs %d)",
			types.ErrInvalidParameter, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
