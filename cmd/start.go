/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tieubaoca/docflow/handler"
	"github.com/tieubaoca/docflow/service"
)

// startServerCmd represents the startServer command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingestion server",
	Long: `Starts the watching pipeline and the HTTP API that controls it:
upload, tracking, pipeline lifecycle, document listing, folder status,
metrics and log streaming.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		logHub := service.NewLogHub()
		logHub.Attach()

		a, err := buildApp(ctx)
		if err != nil {
			log.Fatalf("Failed to build pipeline: %v", err)
		}
		defer a.Close()

		if err := a.controller.Start(ctx); err != nil {
			log.Fatalf("Failed to start pipeline: %v", err)
		}
		defer a.controller.Stop()

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		uploadHandler := handler.NewUploadHandler(a.stages, a.loaders, a.tracking, a.cfg.MaxUploadSize)
		pipelineHandler := handler.NewPipelineHandler(a.controller, a.ingest)
		documentHandler := handler.NewDocumentHandler(a.store, a.ingest)
		logsHandler := handler.NewLogsHandler(logHub)

		// Setup Gin router
		router := gin.Default()

		// Apply global middleware
		router.Use(corsHandler.CorsMiddleware)

		router.GET("/metrics", gin.WrapH(promhttp.Handler()))

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/upload", uploadHandler.UploadDocumentHandler)
			apiV1.GET("/upload/status/:tracking_id", uploadHandler.UploadStatusHandler)

			apiV1.GET("/documents", documentHandler.ListDocumentsHandler)
			apiV1.GET("/documents/:id", documentHandler.GetDocumentHandler)
			apiV1.DELETE("/documents/:id", documentHandler.DeleteDocumentHandler)

			apiV1.GET("/folders", documentHandler.ListFolderStatusesHandler)
			apiV1.GET("/folders/status", documentHandler.GetFolderStatusHandler)

			apiV1.POST("/pipeline/start", pipelineHandler.StartHandler)
			apiV1.POST("/pipeline/stop", pipelineHandler.StopHandler)
			apiV1.POST("/pipeline/restart", pipelineHandler.RestartHandler)
			apiV1.GET("/pipeline/status", pipelineHandler.StatusHandler)
			apiV1.POST("/pipeline/rebuild-index", pipelineHandler.RebuildIndexHandler)

			apiV1.GET("/logs/stream", logsHandler.StreamHandler)
		}

		log.Printf("Starting server on port %s...\n", a.cfg.Port)
		if err := router.Run(":" + a.cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
