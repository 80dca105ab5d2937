/*
Copyright © 2025 legalpt
*/
package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/scraper"
	"github.com/legalpt/legal-rag-be/types"
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape recent documents and ingest them",
	Long: `Runs the configured Browse AI robot against Diário da República,
waits for the captured documents and ingests them into the store.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		robotID, _ := cmd.Flags().GetString("robot-id")
		if robotID == "" {
			robotID = cfg.Scraper.RobotID
		}
		if robotID == "" {
			log.Fatal("No robot id configured; pass --robot-id or set scraper.robot_id")
		}
		daysBack, _ := cmd.Flags().GetInt("days-back")
		maxDocuments, _ := cmd.Flags().GetInt("max-documents")
		force, _ := cmd.Flags().GetBool("force")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		ctx := context.Background()
		client, err := scraper.NewBrowseAIClient(cfg.Scraper)
		if err != nil {
			log.Fatalf("Failed to create scraper client: %v", err)
		}

		docs, err := client.ScrapeRecentDocuments(ctx, robotID, daysBack, maxDocuments)
		if err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		log.Printf("Scraped %d documents", len(docs))

		if dryRun {
			for _, doc := range docs {
				log.Printf("  [%s] %s (%s)", doc.DocumentType, doc.Title, doc.URL)
			}
			return
		}

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

func reportResults(results []types.IngestResult) {
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Status]++
		if r.Status == types.IngestStatusFailed {
			log.Printf("  failed %s: %s", r.URL, r.Reason)
		}
	}
	log.Printf("Done: %d ingested, %d skipped, %d failed",
		counts[types.IngestStatusIngested],
		counts[types.IngestStatusSkipped],
		counts[types.IngestStatusFailed])
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().String("robot-id", "", "Browse AI robot id")
	scrapeCmd.Flags().Int("days-back", 7, "How many days to look back")
	scrapeCmd.Flags().Int("max-documents", 100, "Maximum number of documents to scrape")
	scrapeCmd.Flags().Bool("force", false, "Re-ingest documents whose URL already exists")
	scrapeCmd.Flags().Bool("dry-run", false, "List scraped documents without ingesting")
}
