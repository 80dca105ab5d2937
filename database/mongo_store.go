package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/types"
)

const insertBatchSize = 200

// MongoStore implements DocumentStore on MongoDB Atlas. Vector similarity
// runs through the $vectorSearch aggregation stage against an Atlas Search
// index (cosine metric); the index itself must be created in Atlas, see the
// setup-db command.
type MongoStore struct {
	documents   *mongo.Collection
	vectors     *mongo.Collection
	queries     *mongo.Collection
	vectorIndex string
}

func NewMongoStore(client *mongo.Client, cfg config.MongoConfig) *MongoStore {
	db := client.Database(cfg.Database)
	return &MongoStore{
		documents:   db.Collection(cfg.DocumentsCollection),
		vectors:     db.Collection(cfg.VectorsCollection),
		queries:     db.Collection(cfg.QueriesCollection),
		vectorIndex: cfg.VectorIndex,
	}
}

// EnsureIndexes creates the regular (non-vector) indexes used by text
// search and duplicate lookups.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	docIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}},
		{Keys: bson.D{{Key: "document_type", Value: 1}}},
		{Keys: bson.D{{Key: "publication_date", Value: 1}}},
		{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "text", Value: "text"}}},
	}
	if _, err := s.documents.Indexes().CreateMany(ctx, docIndexes); err != nil {
		return fmt.Errorf("failed to create document indexes: %w", err)
	}

	vecIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "document_id", Value: 1}}},
		{Keys: bson.D{{Key: "chunk_index", Value: 1}}},
	}
	if _, err := s.vectors.Indexes().CreateMany(ctx, vecIndexes); err != nil {
		return fmt.Errorf("failed to create vector indexes: %w", err)
	}

	queryIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	}
	if _, err := s.queries.Indexes().CreateMany(ctx, queryIndexes); err != nil {
		return fmt.Errorf("failed to create query indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) UpsertDocument(ctx context.Context, doc *types.Document) (string, error) {
	now := time.Now()
	if doc.URL == "" {
		doc.CreatedAt = now
		doc.UpdatedAt = now
		res, err := s.documents.InsertOne(ctx, doc)
		if err != nil {
			return "", fmt.Errorf("%w: insert document: %v", types.ErrUpstreamUnavailable, err)
		}
		return objectIDHex(res.InsertedID), nil
	}

	update := bson.M{
		"$set": bson.M{
			"title":            doc.Title,
			"text":             doc.Text,
			"source":           doc.Source,
			"document_type":    doc.DocumentType,
			"document_number":  doc.DocumentNumber,
			"publication_date": doc.PublicationDate,
			"url":              doc.URL,
			"issuing_body":     doc.IssuingBody,
			"description":      doc.Description,
			"metadata":         doc.Metadata,
			"updated_at":       now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"_id": 1})

	var out struct {
		ID string `bson:"_id"`
	}
	err := s.documents.FindOneAndUpdate(ctx, bson.M{"url": doc.URL}, update, opts).Decode(&out)
	if err != nil {
		return "", fmt.Errorf("%w: upsert document: %v", types.ErrUpstreamUnavailable, err)
	}
	return out.ID, nil
}

func (s *MongoStore) ReplaceChunks(ctx context.Context, documentID string, chunks []types.DocumentChunk) error {
	if _, err := s.vectors.DeleteMany(ctx, bson.M{"document_id": documentID}); err != nil {
		return fmt.Errorf("%w: delete chunks for %s: %v", types.ErrUpstreamUnavailable, documentID, err)
	}
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(chunks))
	for i := range chunks {
		chunks[i].DocumentID = documentID
		chunks[i].CreatedAt = now
		docs = append(docs, chunks[i])
	}
	for start := 0; start < len(docs); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		if _, err := s.vectors.InsertMany(ctx, docs[start:end]); err != nil {
			return fmt.Errorf("%w: insert chunks %d-%d for %s: %v",
				types.ErrUpstreamUnavailable, start, end, documentID, err)
		}
	}
	return nil
}

func (s *MongoStore) SimilaritySearch(ctx context.Context, vector []float32, topK int, filter *types.SearchFilter) ([]types.ScoredChunk, error) {
	search := bson.M{
		"index":         s.vectorIndex,
		"path":          "embedding",
		"queryVector":   vector,
		"numCandidates": topK * 10,
		"limit":         topK,
	}
	if f := buildVectorFilter(filter); f != nil {
		search["filter"] = f
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: search}},
		bson.D{{Key: "$project", Value: bson.M{
			"_id":         1,
			"document_id": 1,
			"text":        1,
			"chunk_index": 1,
			"start_char":  1,
			"end_char":    1,
			"metadata":    1,
			"score":       bson.M{"$meta": "vectorSearchScore"},
		}}},
	}

	cursor, err := s.vectors.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", types.ErrUpstreamUnavailable, err)
	}
	defer cursor.Close(ctx)

	var results []types.ScoredChunk
	docCache := make(map[string]*types.Document)
	for cursor.Next(ctx) {
		var hit struct {
			types.DocumentChunk `bson:",inline"`
			Score               float64 `bson:"score"`
		}
		if err := cursor.Decode(&hit); err != nil {
			return nil, fmt.Errorf("decode search hit: %w", err)
		}

		doc, ok := docCache[hit.DocumentID]
		if !ok {
			doc, err = s.GetDocument(ctx, hit.DocumentID)
			if err != nil {
				// Orphaned chunk from an interrupted re-ingestion; skip it.
				log.Printf("skipping chunk with missing document %s: %v", hit.DocumentID, err)
				continue
			}
			docCache[hit.DocumentID] = doc
		}

		results = append(results, types.ScoredChunk{
			Chunk:    hit.DocumentChunk,
			Document: *doc,
			Score:    hit.Score,
		})
	}
	return results, cursor.Err()
}

// buildVectorFilter translates the API filter into an Atlas $vectorSearch
// pre-filter over the denormalized chunk metadata.
func buildVectorFilter(filter *types.SearchFilter) bson.M {
	if filter == nil {
		return nil
	}
	f := bson.M{}
	if filter.DocumentType != "" {
		f["metadata.document_type"] = filter.DocumentType
	}
	dateRange := bson.M{}
	if filter.DateFrom != "" {
		dateRange["$gte"] = filter.DateFrom
	}
	if filter.DateTo != "" {
		dateRange["$lte"] = filter.DateTo
	}
	if len(dateRange) > 0 {
		f["metadata.publication_date"] = dateRange
	}
	if len(f) == 0 {
		return nil
	}
	return f
}

func (s *MongoStore) TextSearch(ctx context.Context, query string, topK int) ([]types.ScoredChunk, error) {
	filter := bson.M{"$text": bson.M{"$search": query}}
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}, "title": 1, "text": 1,
			"source": 1, "document_type": 1, "document_number": 1, "publication_date": 1,
			"url": 1, "issuing_body": 1, "description": 1, "metadata": 1,
			"created_at": 1, "updated_at": 1}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(int64(topK))

	cursor, err := s.documents.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: text search: %v", types.ErrUpstreamUnavailable, err)
	}
	defer cursor.Close(ctx)

	var results []types.ScoredChunk
	for cursor.Next(ctx) {
		var hit struct {
			types.Document `bson:",inline"`
			Score          float64 `bson:"score"`
		}
		if err := cursor.Decode(&hit); err != nil {
			return nil, fmt.Errorf("decode text hit: %w", err)
		}
		results = append(results, types.ScoredChunk{
			Chunk: types.DocumentChunk{
				DocumentID: hit.Document.ID,
				Text:       hit.Document.Text,
			},
			Document: hit.Document,
			Score:    hit.Score,
		})
	}
	return results, cursor.Err()
}

func (s *MongoStore) ExistsByURL(ctx context.Context, urls []string) (map[string]types.DocumentRef, error) {
	refs := make(map[string]types.DocumentRef, len(urls))
	for _, u := range urls {
		refs[u] = types.DocumentRef{}
	}
	if len(urls) == 0 {
		return refs, nil
	}

	cursor, err := s.documents.Find(ctx,
		bson.M{"url": bson.M{"$in": urls}},
		options.Find().SetProjection(bson.M{"_id": 1, "url": 1}))
	if err != nil {
		return nil, fmt.Errorf("%w: lookup by url: %v", types.ErrUpstreamUnavailable, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID  string `bson:"_id"`
			URL string `bson:"url"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		count, err := s.vectors.CountDocuments(ctx, bson.M{"document_id": doc.ID})
		if err != nil {
			return nil, fmt.Errorf("%w: count chunks: %v", types.ErrUpstreamUnavailable, err)
		}
		refs[doc.URL] = types.DocumentRef{Exists: true, DocumentID: doc.ID, ChunkCount: count}
	}
	return refs, cursor.Err()
}

func (s *MongoStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	var doc types.Document
	err := s.documents.FindOne(ctx, idFilter(id)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: document %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get document %s: %v", types.ErrUpstreamUnavailable, id, err)
	}
	return &doc, nil
}

func (s *MongoStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.documents.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("%w: delete document %s: %v", types.ErrUpstreamUnavailable, id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: document %s", types.ErrNotFound, id)
	}
	if _, err := s.vectors.DeleteMany(ctx, bson.M{"document_id": id}); err != nil {
		return fmt.Errorf("%w: delete chunks for %s: %v", types.ErrUpstreamUnavailable, id, err)
	}
	return nil
}

func (s *MongoStore) LogQuery(ctx context.Context, rec *types.QueryRecord) error {
	_, err := s.queries.InsertOne(ctx, rec)
	return err
}

func (s *MongoStore) Stats(ctx context.Context) (*types.StoreStats, error) {
	docCount, err := s.documents.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: count documents: %v", types.ErrUpstreamUnavailable, err)
	}
	chunkCount, err := s.vectors.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: count chunks: %v", types.ErrUpstreamUnavailable, err)
	}
	return &types.StoreStats{TotalDocuments: docCount, TotalChunks: chunkCount}, nil
}

// VectorIndexDefinition is the Atlas Search index that must be created
// manually for the vectors collection (Atlas UI or atlas CLI).
func VectorIndexDefinition(dimensions int) string {
	return fmt.Sprintf(`{
  "fields": [
    {
      "type": "vector",
      "path": "embedding",
      "numDimensions": %d,
      "similarity": "cosine"
    },
    {"type": "filter", "path": "metadata.document_type"},
    {"type": "filter", "path": "metadata.publication_date"}
  ]
}`, dimensions)
}

// idFilter queries by ObjectID when the id parses as one, otherwise by the
// raw string (imported fixtures use plain string ids).
func idFilter(id string) bson.M {
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}

func objectIDHex(v interface{}) string {
	if oid, ok := v.(bson.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprintf("%v", v)
}
