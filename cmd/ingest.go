/*
Copyright © 2025 legalpt
*/
package cmd

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/types"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest documents from a JSON file",
	Long: `Reads a JSON array of scraped documents from a file and ingests
them into the store. Useful for re-processing saved scraper output.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		force, _ := cmd.Flags().GetBool("force")

		raw, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Failed to read %s: %v", args[0], err)
		}
		var docs []types.ScrapedDocument
		if err := json.Unmarshal(raw, &docs); err != nil {
			log.Fatalf("Failed to parse %s: %v", args[0], err)
		}
		if len(docs) == 0 {
			log.Fatal("No documents in file")
		}
		log.Printf("Ingesting %d documents from %s", len(docs), args[0])

		ctx := context.Background()
		deps, err := buildStore(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		ingestService, err := buildIngestService(ctx, cfg, deps.store)
		if err != nil {
			log.Fatalf("Failed to create ingest service: %v", err)
		}

		results := ingestService.IngestBatch(ctx, types.BatchIngestRequest{
			Documents: docs,
			Force:     force,
		})
		reportResults(results)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().Bool("force", false, "Re-ingest documents whose URL already exists")
}
