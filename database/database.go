package database

import (
	"context"

	"github.com/legalpt/legal-rag-be/types"
)

// DocumentStore is the persistence boundary for documents, their embedded
// chunks and the query log. Implementations: MongoStore (Atlas vector
// search), WeaviateStore and MemoryStore.
type DocumentStore interface {
	// UpsertDocument creates or overwrites a document, idempotent keyed by
	// source URL: a second call with the same URL overwrites content fields
	// and returns the existing id.
	UpsertDocument(ctx context.Context, doc *types.Document) (string, error)

	// ReplaceChunks deletes every chunk owned by documentID and inserts the
	// new set. The delete-then-insert window is not atomic; a crash in
	// between leaves the document temporarily under-indexed until the next
	// re-ingestion.
	ReplaceChunks(ctx context.Context, documentID string, chunks []types.DocumentChunk) error

	// SimilaritySearch returns the topK closest chunks by cosine
	// similarity, scores non-increasing, ties kept in insertion order.
	// Each hit carries its parent document for citation.
	SimilaritySearch(ctx context.Context, vector []float32, topK int, filter *types.SearchFilter) ([]types.ScoredChunk, error)

	// TextSearch ranks documents by keyword relevance, used by hybrid search.
	TextSearch(ctx context.Context, query string, topK int) ([]types.ScoredChunk, error)

	// ExistsByURL reports, per URL, whether a document is already stored
	// and how many chunks it owns.
	ExistsByURL(ctx context.Context, urls []string) (map[string]types.DocumentRef, error)

	GetDocument(ctx context.Context, id string) (*types.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// LogQuery appends a query record. Best effort: callers treat a log
	// failure as non-fatal.
	LogQuery(ctx context.Context, rec *types.QueryRecord) error

	Stats(ctx context.Context) (*types.StoreStats, error)
}
