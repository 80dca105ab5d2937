/*
Copyright © 2025 legalpt
*/
package cmd

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/database"
	"github.com/legalpt/legal-rag-be/service"
)

// storeDeps holds the document store plus the Mongo client when the
// backend runs on Mongo; the client is nil for other backends.
type storeDeps struct {
	store       database.DocumentStore
	mongoClient *mongo.Client
}

func buildStore(ctx context.Context, cfg *config.Config) (*storeDeps, error) {
	switch cfg.Store.Backend {
	case "mongo":
		client, err := database.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		return &storeDeps{
			store:       database.NewMongoStore(client, cfg.Mongo),
			mongoClient: client,
		}, nil
	case "weaviate":
		store, err := database.NewWeaviateStore(cfg.Store.Weaviate)
		if err != nil {
			return nil, fmt.Errorf("connect to weaviate: %w", err)
		}
		return &storeDeps{store: store}, nil
	case "memory":
		return &storeDeps{store: database.NewMemoryStore()}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildIngestService(ctx context.Context, cfg *config.Config, store database.DocumentStore) (*service.IngestService, error) {
	embedder, err := service.NewEmbeddingService(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedding service: %w", err)
	}
	return service.NewIngestService(store, embedder, cfg.Ingest)
}
