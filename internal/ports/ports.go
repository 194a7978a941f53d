package ports

import (
	"context"

	"researchlens/internal/domain"
)

// PaperSource pulls recent academic papers matching a topic.
type PaperSource interface {
	Fetch(ctx context.Context, topic, keywords string, categories []string, windowDays int) ([]domain.Paper, error)
}

// ArticleSource pulls news-like articles matching a topic.
type ArticleSource interface {
	Fetch(ctx context.Context, topic string, windowDays int, keywords string) ([]domain.Article, error)
	// Available reports whether the provider is configured well enough to
	// attempt a fetch. Used by readiness checks and provider selection.
	Available() bool
}

// ChatModel generates text and structured JSON from prompts.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, out any) error
	// TestConnection verifies credentials with a minimal round trip.
	TestConnection(ctx context.Context) error
}

// OwnerKey identifies who a history entry belongs to: a registered user or
// an anonymous session. Exactly one side is expected to be set.
type OwnerKey struct {
	UserID    string
	SessionID string
}

// HistoryRepository persists completed digests outside the pipeline. The
// orchestrator never touches it; the HTTP layer saves best-effort.
type HistoryRepository interface {
	Save(ctx context.Context, entry domain.HistoryEntry) error
	ListRecent(ctx context.Context, owner OwnerKey, limit int) ([]domain.HistoryEntry, error)
}
