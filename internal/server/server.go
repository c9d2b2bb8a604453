// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hafizadha/mrgreedy/internal/ai"
	"github.com/hafizadha/mrgreedy/internal/config"
	"github.com/hafizadha/mrgreedy/internal/database"
	"github.com/hafizadha/mrgreedy/internal/parser"
	"github.com/hafizadha/mrgreedy/internal/pipeline"
	"github.com/hafizadha/mrgreedy/internal/similarity"
	"github.com/hafizadha/mrgreedy/internal/storage"
)

// Server wires the matching pipeline and its collaborators behind the HTTP
// surface.
type Server struct {
	cfg    *config.Config
	db     *database.DBinstanceStruct
	blobs  storage.BlobStore
	gen    ai.Generator
	logger *zap.Logger

	parser   *parser.Parser
	pipeline *pipeline.Pipeline
}

// New constructs a Server from its external collaborators. The parser,
// similarity engine, and pipeline are built here so main only wires clients.
func New(cfg *config.Config, db *database.DBinstanceStruct, blobs storage.BlobStore, gen ai.Generator, emb ai.Embedder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := parser.New(gen, logger)
	engine := similarity.NewEngine(emb)

	return &Server{
		cfg:    cfg,
		db:     db,
		blobs:  blobs,
		gen:    gen,
		logger: logger,
		parser: p,
		pipeline: pipeline.New(db, blobs, p, engine, logger, pipeline.Timeouts{
			LLM:     cfg.LLMTimeout,
			Embed:   cfg.EmbedTimeout,
			Storage: cfg.StorageTimeout,
		}),
	}
}

// HTTPServer returns the configured http.Server ready to listen.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
