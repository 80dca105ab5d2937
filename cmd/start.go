/*
Copyright © 2025 legalpt
*/
package cmd

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/handler"
	"github.com/legalpt/legal-rag-be/middleware"
	"github.com/legalpt/legal-rag-be/repository"
	"github.com/legalpt/legal-rag-be/scraper"
	"github.com/legalpt/legal-rag-be/service"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the retrieval API server",
	Long:  `Starts the HTTP server that answers legal questions and manages document ingestion`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		ctx := context.Background()

		deps, err := buildStore(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}

		embedder, err := service.NewEmbeddingService(ctx, cfg.Embedding)
		if err != nil {
			log.Fatalf("Failed to create embedding service: %v", err)
		}
		translator, err := service.NewTranslationService(cfg.LLM.TranslateAPIKey)
		if err != nil {
			log.Fatalf("Failed to create translation service: %v", err)
		}
		aiService, err := service.NewAIService(cfg.LLM)
		if err != nil {
			log.Fatalf("Failed to create AI service: %v", err)
		}

		ingestService, err := service.NewIngestService(deps.store, embedder, cfg.Ingest)
		if err != nil {
			log.Fatalf("Failed to create ingest service: %v", err)
		}
		retrievalService := service.NewRetrievalService(deps.store, embedder, translator, cfg.RAG)
		answerService := service.NewAnswerService(deps.store, retrievalService, aiService, cfg.RAG)
		wsService := service.NewWebSocketService(answerService)

		var browseAI *scraper.BrowseAIClient
		if cfg.Scraper.BrowseAIAPIKey != "" {
			browseAI, err = scraper.NewBrowseAIClient(cfg.Scraper)
			if err != nil {
				log.Fatalf("Failed to create scraper client: %v", err)
			}
		}

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		queryHandler := handler.NewQueryHandler(answerService, retrievalService)
		ingestHandler := handler.NewIngestHandler(ingestService, browseAI, cfg.Scraper.RobotID)
		documentHandler := handler.NewDocumentHandler(deps.store, answerService)

		// Setup Gin router
		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		router.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})
		router.GET("/ws/query", func(c *gin.Context) {
			wsService.HandleQuery(c.Writer, c.Request)
		})

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/query", queryHandler.HandleQuery)
			apiV1.POST("/search", queryHandler.HandleSearch)
			apiV1.GET("/document/:id", documentHandler.HandleGetDocument)
			apiV1.GET("/stats", documentHandler.HandleStats)
		}

		// Login needs the users collection, which lives in Mongo.
		if deps.mongoClient != nil {
			userRepo := repository.NewUserRepo(
				deps.mongoClient.Database(cfg.Mongo.Database).Collection(cfg.Mongo.UsersCollection))
			loginHandler := handler.NewLoginHandler(userRepo)
			apiV1.POST("/login", loginHandler.HandleLogin)
		}

		// Admin routes - require admin authentication
		adminRoutes := router.Group("/admin/api/v1")
		adminRoutes.Use(middleware.AdminAuth())
		{
			adminRoutes.POST("/ingest", ingestHandler.HandleIngest)
			adminRoutes.POST("/ingest/batch", ingestHandler.HandleIngestBatch)
			adminRoutes.POST("/scrape", ingestHandler.HandleScrape)
			adminRoutes.POST("/document/:id/reprocess", ingestHandler.HandleReprocess)
			adminRoutes.POST("/analyze-contract", documentHandler.HandleAnalyzeContract)
			adminRoutes.DELETE("/document/:id", documentHandler.HandleDeleteDocument)
		}

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
