// Command api runs the resume matching HTTP server.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/hafizadha/mrgreedy/internal/ai/gemini"
	"github.com/hafizadha/mrgreedy/internal/config"
	"github.com/hafizadha/mrgreedy/internal/database"
	"github.com/hafizadha/mrgreedy/internal/logger"
	"github.com/hafizadha/mrgreedy/internal/server"
	"github.com/hafizadha/mrgreedy/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.JSONLog, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.FromConfig(cfg)
	if err != nil {
		zlog.Fatal("Database failed to initialize", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zlog.Warn("Failed to close database", zap.Error(err))
		}
	}()

	ctx := context.Background()

	var blobs storage.BlobStore
	if cfg.BucketName != "" {
		gcs, err := storage.NewCloudStorageClient(ctx, cfg.BucketName)
		if err != nil {
			zlog.Fatal("Cloud storage failed to initialize", zap.Error(err))
		}
		defer func() {
			if err := gcs.Close(); err != nil {
				zlog.Warn("Failed to close storage client", zap.Error(err))
			}
		}()
		blobs = gcs
	} else {
		zlog.Warn("BUCKET_NAME not set, resumes are stored in process memory only")
		blobs = storage.NewMemoryStore()
	}

	ai, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbeddingModel)
	if err != nil {
		zlog.Fatal("Gemini client failed to initialize", zap.Error(err))
	}

	srv := server.New(cfg, db, blobs, ai, ai, zlog).HTTPServer()

	zlog.Info("Server listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil {
		zlog.Fatal("Server stopped", zap.Error(err))
	}
}
