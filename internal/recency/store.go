// Package recency owns the bounded, newest-first collections shared by every
// generation mode: the history of successful generations and the per-category
// recent-prompt lists. All mutation goes through the Store so concurrent
// sessions see atomic read-modify-write updates.
package recency

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"composer/internal/domain"
)

const (
	DefaultHistoryCap = 50
	DefaultPromptCap  = 10
)

// Repository persists the store across restarts. Implementations may be nil;
// the store then runs memory-only. Persistence failures are logged and never
// surfaced to callers because durability is best effort.
type Repository interface {
	LoadHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
	SaveHistoryEntry(ctx context.Context, entry domain.HistoryEntry) error
	DeleteHistoryEntry(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) error
	LoadRecentPrompts(ctx context.Context) (map[domain.PromptCategory][]string, error)
	SaveRecentPrompts(ctx context.Context, category domain.PromptCategory, prompts []string) error
}

// Store is the in-process recency service.
type Store struct {
	mu      sync.Mutex
	history []domain.HistoryEntry
	prompts map[domain.PromptCategory][]string

	historyCap int
	promptCap  int
	repo       Repository
	logger     zerolog.Logger
}

// Options configures a Store. Zero caps fall back to the defaults.
type Options struct {
	HistoryCap int
	PromptCap  int
	Repo       Repository
	Logger     zerolog.Logger
}

// NewStore constructs an empty store.
func NewStore(opts Options) *Store {
	historyCap := opts.HistoryCap
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	promptCap := opts.PromptCap
	if promptCap <= 0 {
		promptCap = DefaultPromptCap
	}
	return &Store{
		prompts:    make(map[domain.PromptCategory][]string),
		historyCap: historyCap,
		promptCap:  promptCap,
		repo:       opts.Repo,
		logger:     opts.Logger,
	}
}

// Load hydrates the store from the repository. Without a repository it is a
// no-op, so startup never depends on the database being reachable.
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	history, err := s.repo.LoadHistory(ctx, s.historyCap)
	if err != nil {
		return err
	}
	prompts, err := s.repo.LoadRecentPrompts(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = truncateHistory(history, s.historyCap)
	for category, list := range prompts {
		if len(list) > s.promptCap {
			list = list[:s.promptCap]
		}
		s.prompts[category] = list
	}
	return nil
}

// AppendHistory prepends the entries (newest first) and truncates to the cap.
func (s *Store) AppendHistory(ctx context.Context, entries ...domain.HistoryEntry) {
	if len(entries) == 0 {
		return
	}

	s.mu.Lock()
	next := make([]domain.HistoryEntry, 0, len(entries)+len(s.history))
	next = append(next, entries...)
	next = append(next, s.history...)
	s.history = truncateHistory(next, s.historyCap)
	s.mu.Unlock()

	if s.repo != nil {
		for _, entry := range entries {
			if err := s.repo.SaveHistoryEntry(ctx, entry); err != nil {
				s.logger.Warn().Err(err).Str("entry_id", entry.ID).Msg("recency: persist history entry failed")
			}
		}
	}
}

// History returns a copy of the entries, newest first.
func (s *Store) History() []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// DeleteHistory removes one entry by id.
func (s *Store) DeleteHistory(ctx context.Context, id string) error {
	s.mu.Lock()
	found := false
	next := s.history[:0]
	for _, entry := range s.history {
		if entry.ID == id {
			found = true
			continue
		}
		next = append(next, entry)
	}
	s.history = next
	s.mu.Unlock()

	if !found {
		return domain.ErrHistoryEntryNotFound
	}
	if s.repo != nil {
		if err := s.repo.DeleteHistoryEntry(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("entry_id", id).Msg("recency: delete history entry failed")
		}
	}
	return nil
}

// ClearHistory empties the collection.
func (s *Store) ClearHistory(ctx context.Context) {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.ClearHistory(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("recency: clear history failed")
		}
	}
}

// RecordPrompt inserts a prompt at the front of its category list, removing
// any previous occurrence of the exact same string so resubmitting moves it
// to the front instead of duplicating it.
func (s *Store) RecordPrompt(ctx context.Context, category domain.PromptCategory, prompt string) {
	if prompt == "" {
		return
	}

	s.mu.Lock()
	existing := s.prompts[category]
	next := make([]string, 0, len(existing)+1)
	next = append(next, prompt)
	for _, p := range existing {
		if p == prompt {
			continue
		}
		next = append(next, p)
	}
	if len(next) > s.promptCap {
		next = next[:s.promptCap]
	}
	s.prompts[category] = next
	snapshot := make([]string, len(next))
	copy(snapshot, next)
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.SaveRecentPrompts(ctx, category, snapshot); err != nil {
			s.logger.Warn().Err(err).Str("category", string(category)).Msg("recency: persist recent prompts failed")
		}
	}
}

// RecentPrompts returns a copy of the category's list, newest first.
func (s *Store) RecentPrompts(category domain.PromptCategory) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.prompts[category]
	out := make([]string, len(existing))
	copy(out, existing)
	return out
}

func truncateHistory(entries []domain.HistoryEntry, limit int) []domain.HistoryEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
