package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/types"
)

var (
	DOCUMENT_CLASS = "LegalDocument"
	CHUNK_CLASS    = "LegalChunk"
	QUERY_CLASS    = "LegalQuery"

	DOCUMENT_CLASS_OBJECT = &models.Class{
		Class: DOCUMENT_CLASS,
		Properties: []*models.Property{
			{Name: "title", DataType: []string{"text"}},
			{Name: "text", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
			{Name: "documentType", DataType: []string{"text"}},
			{Name: "documentNumber", DataType: []string{"text"}},
			{Name: "publicationDate", DataType: []string{"text"}},
			{Name: "url", DataType: []string{"text"}},
			{Name: "issuingBody", DataType: []string{"text"}},
			{Name: "description", DataType: []string{"text"}},
			{Name: "createdAt", DataType: []string{"int"}},
			{Name: "updatedAt", DataType: []string{"int"}},
		},
		Vectorizer: "none",
	}

	CHUNK_CLASS_OBJECT = &models.Class{
		Class: CHUNK_CLASS,
		Properties: []*models.Property{
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "text", DataType: []string{"text"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "startChar", DataType: []string{"int"}},
			{Name: "endChar", DataType: []string{"int"}},
			{Name: "documentType", DataType: []string{"text"}},
			{Name: "publicationDate", DataType: []string{"text"}},
		},
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
	}

	QUERY_CLASS_OBJECT = &models.Class{
		Class: QUERY_CLASS,
		Properties: []*models.Property{
			{Name: "query", DataType: []string{"text"}},
			{Name: "language", DataType: []string{"text"}},
			{Name: "answer", DataType: []string{"text"}},
			{Name: "numResults", DataType: []string{"int"}},
			{Name: "timestamp", DataType: []string{"int"}},
		},
		Vectorizer: "none",
	}
)

// WeaviateStore implements DocumentStore on a Weaviate cluster. Documents
// and chunks live in separate classes; chunks carry denormalized filter
// fields so similarity search never needs a join.
type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(cfg config.WeaviateConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	clientCfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		clientCfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
	}
	client, err := weaviate.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %v", err)
	}
	existing := make(map[string]bool)
	for _, class := range schema.Classes {
		existing[class.Class] = true
	}
	for _, class := range []*models.Class{DOCUMENT_CLASS_OBJECT, CHUNK_CLASS_OBJECT, QUERY_CLASS_OBJECT} {
		if existing[class.Class] {
			continue
		}
		if err := client.Schema().ClassCreator().WithClass(class).Do(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to create %s class: %v", class.Class, err)
		}
	}
	return &WeaviateStore{client: client}, nil
}

func (s *WeaviateStore) UpsertDocument(ctx context.Context, doc *types.Document) (string, error) {
	now := time.Now()
	properties := map[string]interface{}{
		"title":           doc.Title,
		"text":            doc.Text,
		"source":          doc.Source,
		"documentType":    doc.DocumentType,
		"documentNumber":  doc.DocumentNumber,
		"publicationDate": doc.PublicationDate,
		"url":             doc.URL,
		"issuingBody":     doc.IssuingBody,
		"description":     doc.Description,
		"updatedAt":       now.Unix(),
	}

	if doc.URL != "" {
		refs, err := s.ExistsByURL(ctx, []string{doc.URL})
		if err != nil {
			return "", err
		}
		if ref := refs[doc.URL]; ref.Exists {
			err := s.client.Data().Updater().
				WithClassName(DOCUMENT_CLASS).
				WithID(ref.DocumentID).
				WithProperties(properties).
				Do(ctx)
			if err != nil {
				return "", fmt.Errorf("%w: update document: %v", types.ErrUpstreamUnavailable, err)
			}
			return ref.DocumentID, nil
		}
	}

	properties["createdAt"] = now.Unix()
	res, err := s.client.Data().Creator().
		WithClassName(DOCUMENT_CLASS).
		WithProperties(properties).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: create document: %v", types.ErrUpstreamUnavailable, err)
	}
	return string(res.Object.ID), nil
}

func (s *WeaviateStore) ReplaceChunks(ctx context.Context, documentID string, chunks []types.DocumentChunk) error {
	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueString(documentID)
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(CHUNK_CLASS).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete chunks for %s: %v", types.ErrUpstreamUnavailable, documentID, err)
	}
	if len(chunks) == 0 {
		return nil
	}

	doc, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	total := len(chunks)
	for i := 0; i < total; i += insertBatchSize {
		end := i + insertBatchSize
		if end > total {
			end = total
		}
		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			batcher = batcher.WithObjects(&models.Object{
				Class: CHUNK_CLASS,
				Properties: map[string]interface{}{
					"documentId":      documentID,
					"text":            chunks[j].Text,
					"chunkIndex":      chunks[j].ChunkIndex,
					"startChar":       chunks[j].StartChar,
					"endChar":         chunks[j].EndChar,
					"documentType":    doc.DocumentType,
					"publicationDate": doc.PublicationDate,
				},
				Vector: chunks[j].Embedding,
			})
		}
		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("%w: insert chunks %d-%d for %s: %v",
				types.ErrUpstreamUnavailable, i, end, documentID, err)
		}
	}
	return nil
}

func (s *WeaviateStore) SimilaritySearch(ctx context.Context, vector []float32, topK int, filter *types.SearchFilter) ([]types.ScoredChunk, error) {
	fields := []graphql.Field{
		{Name: "documentId"},
		{Name: "text"},
		{Name: "chunkIndex"},
		{Name: "startChar"},
		{Name: "endChar"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}, {Name: "id"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(topK)
	if where := buildChunkFilter(filter); where != nil {
		getBuilder = getBuilder.WithWhere(where)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", types.ErrUpstreamUnavailable, err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("%w: vector search: %s", types.ErrUpstreamUnavailable, result.Errors[0].Message)
	}

	var results []types.ScoredChunk
	docCache := make(map[string]*types.Document)
	if data, ok := result.Data["Get"].(map[string]interface{})[CHUNK_CLASS].([]interface{}); ok {
		for _, item := range data {
			props, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			chunk := types.DocumentChunk{
				DocumentID: asString(props["documentId"]),
				Text:       asString(props["text"]),
				ChunkIndex: asInt(props["chunkIndex"]),
				StartChar:  asInt(props["startChar"]),
				EndChar:    asInt(props["endChar"]),
			}
			var score float64
			if additional, ok := props["_additional"].(map[string]interface{}); ok {
				chunk.ID = asString(additional["id"])
				if dist, ok := additional["distance"].(float64); ok {
					// Cosine distance in [0,2]; score mirrors Atlas semantics.
					score = 1 - dist
				}
			}

			doc, ok := docCache[chunk.DocumentID]
			if !ok {
				doc, err = s.GetDocument(ctx, chunk.DocumentID)
				if err != nil {
					continue
				}
				docCache[chunk.DocumentID] = doc
			}
			results = append(results, types.ScoredChunk{Chunk: chunk, Document: *doc, Score: score})
		}
	}
	return results, nil
}

func buildChunkFilter(filter *types.SearchFilter) *filters.WhereBuilder {
	if filter == nil {
		return nil
	}
	var operands []*filters.WhereBuilder
	if filter.DocumentType != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"documentType"}).
			WithOperator(filters.Equal).
			WithValueString(filter.DocumentType))
	}
	if filter.DateFrom != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"publicationDate"}).
			WithOperator(filters.GreaterThanEqual).
			WithValueString(filter.DateFrom))
	}
	if filter.DateTo != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"publicationDate"}).
			WithOperator(filters.LessThanEqual).
			WithValueString(filter.DateTo))
	}
	if len(operands) == 0 {
		return nil
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}

func (s *WeaviateStore) TextSearch(ctx context.Context, query string, topK int) ([]types.ScoredChunk, error) {
	fields := []graphql.Field{
		{Name: "documentId"},
		{Name: "text"},
		{Name: "chunkIndex"},
		{Name: "startChar"},
		{Name: "endChar"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "score"}, {Name: "id"}}},
	}
	bm25 := s.client.GraphQL().Bm25ArgBuilder().
		WithQuery(query).
		WithProperties("text")

	result, err := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(fields...).
		WithBM25(bm25).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: text search: %v", types.ErrUpstreamUnavailable, err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("%w: text search: %s", types.ErrUpstreamUnavailable, result.Errors[0].Message)
	}

	var results []types.ScoredChunk
	docCache := make(map[string]*types.Document)
	if data, ok := result.Data["Get"].(map[string]interface{})[CHUNK_CLASS].([]interface{}); ok {
		for _, item := range data {
			props, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			chunk := types.DocumentChunk{
				DocumentID: asString(props["documentId"]),
				Text:       asString(props["text"]),
				ChunkIndex: asInt(props["chunkIndex"]),
				StartChar:  asInt(props["startChar"]),
				EndChar:    asInt(props["endChar"]),
			}
			var score float64
			if additional, ok := props["_additional"].(map[string]interface{}); ok {
				chunk.ID = asString(additional["id"])
				// bm25 scores come back as strings
				if raw, ok := additional["score"].(string); ok {
					score, _ = strconv.ParseFloat(raw, 64)
				}
			}
			doc, ok := docCache[chunk.DocumentID]
			if !ok {
				doc, err = s.GetDocument(ctx, chunk.DocumentID)
				if err != nil {
					continue
				}
				docCache[chunk.DocumentID] = doc
			}
			results = append(results, types.ScoredChunk{Chunk: chunk, Document: *doc, Score: score})
		}
	}
	return results, nil
}

func (s *WeaviateStore) ExistsByURL(ctx context.Context, urls []string) (map[string]types.DocumentRef, error) {
	refs := make(map[string]types.DocumentRef, len(urls))
	for _, u := range urls {
		where := filters.Where().
			WithPath([]string{"url"}).
			WithOperator(filters.Equal).
			WithValueString(u)
		result, err := s.client.GraphQL().Get().
			WithClassName(DOCUMENT_CLASS).
			WithFields(graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "id"}}}).
			WithWhere(where).
			WithLimit(1).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: lookup by url: %v", types.ErrUpstreamUnavailable, err)
		}

		ref := types.DocumentRef{}
		if data, ok := result.Data["Get"].(map[string]interface{})[DOCUMENT_CLASS].([]interface{}); ok && len(data) > 0 {
			if props, ok := data[0].(map[string]interface{}); ok {
				if additional, ok := props["_additional"].(map[string]interface{}); ok {
					ref.Exists = true
					ref.DocumentID = asString(additional["id"])
				}
			}
		}
		if ref.Exists {
			count, err := s.countChunks(ctx, ref.DocumentID)
			if err != nil {
				return nil, err
			}
			ref.ChunkCount = count
		}
		refs[u] = ref
	}
	return refs, nil
}

func (s *WeaviateStore) countChunks(ctx context.Context, documentID string) (int64, error) {
	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueString(documentID)
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(CHUNK_CLASS).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count chunks: %v", types.ErrUpstreamUnavailable, err)
	}
	return parseAggregateCount(result.Data, CHUNK_CLASS), nil
}

func (s *WeaviateStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	objects, err := s.client.Data().ObjectsGetter().
		WithClassName(DOCUMENT_CLASS).
		WithID(id).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get document %s: %v", types.ErrUpstreamUnavailable, id, err)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: document %s", types.ErrNotFound, id)
	}
	props, ok := objects[0].Properties.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: document %s", types.ErrNotFound, id)
	}
	return &types.Document{
		ID:              id,
		Title:           asString(props["title"]),
		Text:            asString(props["text"]),
		Source:          asString(props["source"]),
		DocumentType:    asString(props["documentType"]),
		DocumentNumber:  asString(props["documentNumber"]),
		PublicationDate: asString(props["publicationDate"]),
		URL:             asString(props["url"]),
		IssuingBody:     asString(props["issuingBody"]),
		Description:     asString(props["description"]),
		CreatedAt:       time.Unix(int64(asInt(props["createdAt"])), 0),
		UpdatedAt:       time.Unix(int64(asInt(props["updatedAt"])), 0),
	}, nil
}

func (s *WeaviateStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.GetDocument(ctx, id); err != nil {
		return err
	}
	if err := s.ReplaceChunks(ctx, id, nil); err != nil {
		return err
	}
	err := s.client.Data().Deleter().
		WithClassName(DOCUMENT_CLASS).
		WithID(id).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete document %s: %v", types.ErrUpstreamUnavailable, id, err)
	}
	return nil
}

func (s *WeaviateStore) LogQuery(ctx context.Context, rec *types.QueryRecord) error {
	_, err := s.client.Data().Creator().
		WithClassName(QUERY_CLASS).
		WithProperties(map[string]interface{}{
			"query":      rec.Query,
			"language":   rec.Language,
			"answer":     rec.Answer,
			"numResults": len(rec.ChunkIDs),
			"timestamp":  rec.Timestamp.Unix(),
		}).
		Do(ctx)
	return err
}

func (s *WeaviateStore) Stats(ctx context.Context) (*types.StoreStats, error) {
	stats := &types.StoreStats{}
	for _, target := range []struct {
		class string
		dst   *int64
	}{
		{DOCUMENT_CLASS, &stats.TotalDocuments},
		{CHUNK_CLASS, &stats.TotalChunks},
	} {
		result, err := s.client.GraphQL().Aggregate().
			WithClassName(target.class).
			WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: aggregate %s: %v", types.ErrUpstreamUnavailable, target.class, err)
		}
		*target.dst = parseAggregateCount(result.Data, target.class)
	}
	return stats, nil
}

func parseAggregateCount(data map[string]models.JSONObject, class string) int64 {
	agg, ok := data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0
	}
	items, ok := agg[class].([]interface{})
	if !ok || len(items) == 0 {
		return 0
	}
	props, ok := items[0].(map[string]interface{})
	if !ok {
		return 0
	}
	meta, ok := props["meta"].(map[string]interface{})
	if !ok {
		return 0
	}
	count, _ := meta["count"].(float64)
	return int64(count)
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}
