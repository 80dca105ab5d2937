/*
Copyright © 2025 legalpt
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/database"
)

// setupDbCmd represents the setup-db command
var setupDbCmd = &cobra.Command{
	Use:   "setup-db",
	Short: "Create database indexes",
	Long: `Creates the regular MongoDB indexes the service relies on and
prints the Atlas vector search index definition, which has to be created
through the Atlas UI or CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Store.Backend != "mongo" {
			log.Fatalf("setup-db only applies to the mongo backend, configured backend is %q", cfg.Store.Backend)
		}

		ctx := context.Background()
		client, err := database.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer client.Disconnect(ctx)

		store := database.NewMongoStore(client, cfg.Mongo)
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		log.Println("Indexes created")

		fmt.Printf("\nCreate the Atlas search index %q on collection %q with this definition:\n\n%s\n",
			cfg.Mongo.VectorIndex, cfg.Mongo.VectorsCollection,
			database.VectorIndexDefinition(cfg.Embedding.Dimensions))
	},
}

func init() {
	rootCmd.AddCommand(setupDbCmd)
}
