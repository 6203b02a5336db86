package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moskvinegor321/Project-analyzer/internal/config"
	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/core/analysis_engine"
	db "github.com/moskvinegor321/Project-analyzer/internal/core/database"
	"github.com/moskvinegor321/Project-analyzer/internal/core/ingestion_engine"
	"github.com/moskvinegor321/Project-analyzer/internal/core/llm"
	"github.com/moskvinegor321/Project-analyzer/internal/core/notion"
	objectclient "github.com/moskvinegor321/Project-analyzer/internal/core/object-client"
	"github.com/moskvinegor321/Project-analyzer/internal/core/telegram"
	"github.com/moskvinegor321/Project-analyzer/internal/services"
)

const purgeInterval = time.Hour

type App struct {
	KV      core.KVStore
	Server  *Server
	closers []func() error
}

// NewApp wires every collaborator. ctx bounds background work such as the KV purger.
func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{}

	kv, err := a.newKVStore(ctx, appCtx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.KV = kv

	objClient := objectclient.New(appCtx, cfg, log)
	log.Info("object client initialized", "provider", cfg.BlobProvider)

	llmProvider, closeLLM := llm.New(appCtx, cfg, log)
	a.closers = append(a.closers, closeLLM)

	guard := analysis_engine.BudgetGuard{
		MaxInputTokens:   cfg.MaxInputTokens,
		MaxOutputTokens:  cfg.MaxOutputTokens,
		CostSoftLimitUSD: cfg.CostSoftLimitUSD,
	}
	reasoner := analysis_engine.NewReasoner(llmProvider, guard, cfg.AITimeout, log)

	docs := ingestion_engine.NewDocumentationFetcher(kv, cfg.AllowedDocDomains, cfg.HTTPTimeout, log)
	publisher := services.NewNotionPublisher(
		notion.NewClient(cfg.NotionAPIURL, cfg.NotionToken, cfg.NotionDatabaseID, cfg.HTTPTimeout),
		notion.NewPropertyBuilder(cfg.NotionPropertyMap),
	)
	notifier := telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramBotToken, cfg.TelegramChannelID, cfg.TelegramThreadID, cfg.HTTPTimeout)

	analyzeSvc := services.NewAnalyzeService(services.AnalyzeDeps{
		KV:        kv,
		Objects:   objClient,
		Extractor: ingestion_engine.NewDocconvExtractor(cfg.PDFMaxPages, log),
		Pages:     ingestion_engine.NewPDFPageInspector(objClient, cfg.PDFMaxPages, cfg.PDFRenderWidth, log),
		Docs:      docs,
		Reasoner:  reasoner,
		Notion:    publisher,
		Notifier:  notifier,
	}, services.AnalyzeOptions{
		MaxImages:       cfg.MaxImages,
		MaxDiagramPages: cfg.PDFMaxDiagramPages,
		DocSummaryChars: cfg.DocSummaryChars,
	}, log)

	reviewSvc := services.NewReviewService(kv, publisher, notifier, services.ReviewOptions{
		Reviewers:          cfg.TelegramReviewers,
		NeedsInfoOnComment: cfg.NeedsInfoOnComment,
	}, log)

	server, err := NewServer(cfg, log, Handlers{
		Analyze:   analyzeSvc,
		Reviews:   reviewSvc,
		Docs:      docs,
		Publisher: publisher,
		Notifier:  notifier,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Server = server

	return a, nil
}

// newKVStore uses Postgres when DATABASE_URL is set and an in-process store otherwise.
func (a *App) newKVStore(ctx, appCtx context.Context, cfg *config.Config, log *slog.Logger) (core.KVStore, error) {
	if cfg.DatabaseURL == "" {
		mem, err := db.NewMemoryStore(cfg.MemoryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("memory store: %w", err)
		}
		log.Warn("DATABASE_URL not set, review records are kept in memory only")
		return mem, nil
	}

	pg, err := db.NewPostgresStore(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: %w", err)
	}
	log.Info("database initialized and ready")
	a.closers = append(a.closers, pg.Close)
	go pg.RunPurger(ctx, purgeInterval, log.With("component", "kv-purger"))
	return pg, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
