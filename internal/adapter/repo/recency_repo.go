package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"composer/internal/domain"
	"composer/internal/recency"
)

// RecencyRepositoryPG implements recency.Repository using PostgreSQL.
type RecencyRepositoryPG struct {
	pool *pgxpool.Pool
}

var _ recency.Repository = (*RecencyRepositoryPG)(nil)

// NewRecencyRepository constructs a new recency repository instance.
func NewRecencyRepository(pool *pgxpool.Pool) *RecencyRepositoryPG {
	return &RecencyRepositoryPG{pool: pool}
}

// EnsureSchema creates the backing tables when they do not exist yet.
func (r *RecencyRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS generation_history (
    id              TEXT PRIMARY KEY,
    kind            TEXT NOT NULL,
    url             TEXT NOT NULL DEFAULT '',
    mime            TEXT NOT NULL DEFAULT '',
    data            BYTEA,
    width           INT NOT NULL DEFAULT 0,
    height          INT NOT NULL DEFAULT 0,
    prompt          TEXT NOT NULL,
    negative_prompt TEXT NOT NULL DEFAULT '',
    aspect_ratio    TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS recent_prompts (
    category TEXT NOT NULL,
    position INT NOT NULL,
    prompt   TEXT NOT NULL,
    PRIMARY KEY (category, position)
);
`)
	return err
}

// LoadHistory returns up to limit entries, newest first.
func (r *RecencyRepositoryPG) LoadHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, kind, url, mime, data, width, height, prompt, negative_prompt, aspect_ratio, created_at
FROM generation_history
ORDER BY created_at DESC
LIMIT $1;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			entry domain.HistoryEntry
			kind  string
		)
		if err := rows.Scan(&entry.ID, &kind, &entry.Image.URL, &entry.Image.MIME, &entry.Image.Data, &entry.Image.Width, &entry.Image.Height, &entry.Prompt, &entry.NegativePrompt, &entry.AspectRatio, &entry.CreatedAt); err != nil {
			return nil, err
		}
		mode, ok := domain.ParseGenerationMode(kind)
		if !ok {
			mode = domain.ModeDirect
		}
		entry.Kind = mode
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveHistoryEntry persists one entry.
func (r *RecencyRepositoryPG) SaveHistoryEntry(ctx context.Context, entry domain.HistoryEntry) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO generation_history (id, kind, url, mime, data, width, height, prompt, negative_prompt, aspect_ratio, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING;
`, entry.ID, string(entry.Kind), entry.Image.URL, entry.Image.MIME, entry.Image.Data, entry.Image.Width, entry.Image.Height, entry.Prompt, entry.NegativePrompt, entry.AspectRatio, entry.CreatedAt)
	return err
}

// DeleteHistoryEntry removes one entry by id.
func (r *RecencyRepositoryPG) DeleteHistoryEntry(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM generation_history WHERE id = $1;`, id)
	return err
}

// ClearHistory removes every entry.
func (r *RecencyRepositoryPG) ClearHistory(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM generation_history;`)
	return err
}

// LoadRecentPrompts returns every category's prompt list, most recent first.
func (r *RecencyRepositoryPG) LoadRecentPrompts(ctx context.Context) (map[domain.PromptCategory][]string, error) {
	rows, err := r.pool.Query(ctx, `
SELECT category, prompt
FROM recent_prompts
ORDER BY category, position ASC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.PromptCategory][]string)
	for rows.Next() {
		var category, prompt string
		if err := rows.Scan(&category, &prompt); err != nil {
			return nil, err
		}
		cat, ok := domain.ParsePromptCategory(category)
		if !ok {
			continue
		}
		out[cat] = append(out[cat], prompt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveRecentPrompts replaces one category's list atomically.
func (r *RecencyRepositoryPG) SaveRecentPrompts(ctx context.Context, category domain.PromptCategory, prompts []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM recent_prompts WHERE category = $1;`, string(category)); err != nil {
		return err
	}
	for i, prompt := range prompts {
		if _, err := tx.Exec(ctx, `
INSERT INTO recent_prompts (category, position, prompt)
VALUES ($1, $2, $3);
`, string(category), i, prompt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
