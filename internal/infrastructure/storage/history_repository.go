package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"researchlens/internal/domain"
	"researchlens/internal/ports"
)

// HistoryRepository persists completed digests into Postgres for the history
// view. The pipeline itself never touches this; callers save best-effort.
type HistoryRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository wires a sql.DB implementation.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Save inserts one history row. The full digest is stored as JSON alongside
// the denormalized counts used by the list view.
func (r *HistoryRepository) Save(ctx context.Context, entry domain.HistoryEntry) error {
	if r.db == nil {
		return nil
	}

	var result []byte
	if entry.Result != nil {
		var err error
		result, err = json.Marshal(entry.Result)
		if err != nil {
			return fmt.Errorf("marshal digest: %w", err)
		}
	}

	query, args, err := r.builder.
		Insert("search_history").
		Columns("id", "user_id", "session_id", "topic", "keywords",
			"timeframe_days", "paper_count", "article_count", "results", "created_at").
		Values(entry.ID, nullable(entry.UserID), nullable(entry.SessionID),
			entry.Topic, nullable(entry.Keywords), entry.TimeframeDays,
			entry.PaperCount, entry.ArticleCount, result, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries for a user or anonymous session,
// without the stored digest payloads.
func (r *HistoryRepository) ListRecent(ctx context.Context, owner ports.OwnerKey, limit int) ([]domain.HistoryEntry, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	q := r.builder.
		Select("id", "topic", "keywords", "timeframe_days",
			"paper_count", "article_count", "created_at").
		From("search_history").
		OrderBy("created_at DESC").
		Limit(uint64(limit))

	switch {
	case owner.UserID != "":
		q = q.Where(sq.Eq{"user_id": owner.UserID})
	case owner.SessionID != "":
		q = q.Where(sq.Eq{"session_id": owner.SessionID})
	default:
		return nil, nil
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			entry    domain.HistoryEntry
			keywords sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Topic, &keywords, &entry.TimeframeDays,
			&entry.PaperCount, &entry.ArticleCount, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entry.Keywords = keywords.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return entries, nil
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
