package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"docledger/app/api"
	"docledger/app/middleware"
	"docledger/config"
	"docledger/ledger"
	"docledger/metrics"
	"docledger/model"
	"docledger/queue"
	"docledger/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP app is built from.
type Deps struct {
	Store     store.DBStorer
	Publisher queue.JobPublisher
	Embedder  model.Embedder
	Tokens    model.TokenCounter
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

type Server struct {
	cfg       *config.Config
	logger    *slog.Logger

	mu        sync.Mutex
	app       *fiber.App
	store     *store.PostgresStore
	publisher *queue.Publisher
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// NewApp registers every route on a fresh fiber app.
func NewApp(cfg *config.Config, d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: api.ErrorHandler,
		BodyLimit:    cfg.MaxUploadBytes() + 1<<20,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})
	app.Use(middleware.RequestLogger(slog.Default(), d.Metrics))

	var (
		svc             = ledger.NewService(d.Store, d.Publisher, d.Metrics)
		checkHandler    = api.NewCheckHandler(d.Store)
		documentHandler = api.NewDocumentHandler(svc)
		searchHandler   = api.NewSearchHandler(d.Store, d.Embedder, d.Tokens, cfg.SearchMaxTokens)
		graphHandler    = api.NewGraphHandler(d.Store)
		feedbackHandler = api.NewFeedbackHandler(d.Store)
		check           = app.Group("/check")
		apiv1           = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	apiv1.Post("/documents", documentHandler.HandleIngest)
	apiv1.Get("/documents/:id", documentHandler.HandleGetDocument)
	apiv1.Post("/documents/:id/versions", documentHandler.HandleReprocess)
	apiv1.Get("/documents/:id/versions/:number", documentHandler.HandleGetVersion)
	apiv1.Get("/documents/:id/diff", documentHandler.HandleDiff)
	apiv1.Get("/documents/:id/graph", graphHandler.HandleGraph)
	apiv1.Post("/search", searchHandler.HandleSearch)
	apiv1.Post("/feedback", feedbackHandler.HandleFeedback)

	return app
}

// Run connects to Postgres and RabbitMQ and serves until Stop is called.
func (s *Server) Run(ctx context.Context) error {
	pool, err := store.NewPostgresStore(ctx, s.cfg.ConnString(), s.cfg.EmbeddingDim)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	s.mu.Lock()
	s.store = pool
	s.mu.Unlock()

	if err := pool.Init(ctx); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	publisher, err := queue.NewPublisher(s.cfg.RabbitMQURL, s.cfg.IngestionQueue)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.publisher = publisher
	s.mu.Unlock()

	embedder, err := model.NewEmbedder(model.EmbedderConfig{
		Provider: s.cfg.EmbeddingProvider,
		URL:      s.cfg.EmbeddingURL,
		Model:    s.cfg.EmbeddingModel,
		APIKey:   s.cfg.OpenAIAPIKey,
		Dim:      s.cfg.EmbeddingDim,
	})
	if err != nil {
		return err
	}

	app := NewApp(s.cfg, Deps{
		Store:     pool,
		Publisher: publisher,
		Embedder:  embedder,
		Tokens:    model.NewTiktokenCounter(),
		Metrics:   metrics.New(prometheus.DefaultRegisterer),
		Gatherer:  prometheus.DefaultGatherer,
	})
	s.mu.Lock()
	s.app = app
	s.mu.Unlock()

	s.logger.Info("server listening", "addr", s.cfg.ServerAddr)
	if err := app.Listen(s.cfg.ServerAddr); err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.ServerAddr, err)
	}
	return nil
}

func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.app != nil {
		if err := s.app.ShutdownWithTimeout(10 * time.Second); err != nil {
			s.logger.Error("error shutting down http server", "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Error("error closing rabbitmq connection", "error", err)
		}
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	s.logger.Info("server stopped")
}
