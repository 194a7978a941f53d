package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"researchlens/internal/config"
	"researchlens/internal/infrastructure/arxiv"
	"researchlens/internal/infrastructure/llm"
	"researchlens/internal/infrastructure/storage"
	"researchlens/internal/infrastructure/tavily"
	"researchlens/internal/infrastructure/websearch"
	"researchlens/internal/logging"
	"researchlens/internal/ports"
	"researchlens/internal/server"
	"researchlens/internal/usecase"
)

// Application wires configs to the agent, storage, and the HTTP server.
// All clients are constructed once here and injected; nothing is a
// module-level singleton.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	server *http.Server
	db     *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	paperSource := arxiv.NewClient(cfg.Providers.Arxiv, nil,
		baseLogger.With("component", "source.arxiv"))

	var articleSource ports.ArticleSource
	tavilyClient := tavily.NewClient(cfg.Providers.Tavily, nil,
		baseLogger.With("component", "source.tavily"))
	if tavilyClient.Available() {
		articleSource = tavilyClient
	} else {
		baseLogger.Info("tavily api key absent, using keyless web search fallback")
		articleSource = websearch.NewDuckDuckGo(nil, cfg.Providers.Tavily.MaxResults,
			baseLogger.With("component", "source.websearch"))
	}

	model := llm.NewGeminiClient(cfg.Gemini)

	agent := usecase.NewAgent(usecase.AgentDeps{
		Papers:            paperSource,
		Articles:          articleSource,
		PaperSummarizer:   usecase.NewPaperSummarizer(model, 0, baseLogger.With("component", "summarizer.paper")),
		ArticleSummarizer: usecase.NewArticleSummarizer(model, baseLogger.With("component", "summarizer.article")),
		Executive:         usecase.NewExecutiveSummarizer(model, baseLogger.With("component", "summarizer.executive")),
		Categories:        cfg.Providers.Arxiv.DefaultCategories,
		Logger:            baseLogger.With("component", "agent"),
	})

	var (
		db      *sql.DB
		history ports.HistoryRepository
	)
	if cfg.Database.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		history = storage.NewHistoryRepository(db)
	} else {
		baseLogger.Info("database dsn absent, history persistence disabled")
	}

	srv := server.New(agent, model, articleSource, history,
		baseLogger.With("component", "server"))

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      srv.Routes(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
	}, nil
}

// Run serves HTTP until the context is canceled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.server.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}
