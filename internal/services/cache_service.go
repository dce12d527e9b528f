package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aluque/mailpilot/internal/db"
)

// CacheServiceImpl implements CacheService over the SQLite store.
// Lookups never fail: a read error counts as a miss and the summary is
// regenerated.
type CacheServiceImpl struct {
	store  *db.CacheStore
	logger *log.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(store *db.CacheStore) *CacheServiceImpl {
	return &CacheServiceImpl{
		store: store,
	}
}

// SetLogger sets the logger for debug output
func (s *CacheServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

func (s *CacheServiceImpl) GetSummary(ctx context.Context, accountEmail, messageID string) (string, bool) {
	if s.store == nil || strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(messageID) == "" {
		return "", false
	}

	summary, found, err := s.store.LoadAISummary(ctx, accountEmail, messageID)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("cache: failed to load summary for %s: %v", messageID, err)
		}
		return "", false
	}
	return summary, found
}

func (s *CacheServiceImpl) SaveSummary(ctx context.Context, accountEmail, messageID, summary string) error {
	if s.store == nil {
		return ErrCacheUnavailable
	}
	if strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(messageID) == "" || strings.TrimSpace(summary) == "" {
		return fmt.Errorf("accountEmail, messageID, and summary cannot be empty: %w", ErrInvalidInput)
	}

	if err := s.store.SaveAISummary(ctx, accountEmail, messageID, summary, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save summary to cache: %w", err)
	}
	return nil
}

func (s *CacheServiceImpl) InvalidateSummary(ctx context.Context, accountEmail, messageID string) error {
	if s.store == nil {
		return ErrCacheUnavailable
	}
	if strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(messageID) == "" {
		return fmt.Errorf("accountEmail and messageID cannot be empty: %w", ErrInvalidInput)
	}

	if err := s.store.DeleteAISummary(ctx, accountEmail, messageID); err != nil {
		return fmt.Errorf("failed to invalidate summary: %w", err)
	}
	return nil
}

func (s *CacheServiceImpl) GetThreadSummary(ctx context.Context, accountEmail, threadID string) (string, bool) {
	if s.store == nil || strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(threadID) == "" {
		return "", false
	}

	summary, found, err := s.store.LoadThreadSummary(ctx, accountEmail, threadID)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("cache: failed to load thread summary for %s: %v", threadID, err)
		}
		return "", false
	}
	return summary, found
}

func (s *CacheServiceImpl) SaveThreadSummary(ctx context.Context, accountEmail, threadID, summary string) error {
	if s.store == nil {
		return ErrCacheUnavailable
	}
	if strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(threadID) == "" || strings.TrimSpace(summary) == "" {
		return fmt.Errorf("accountEmail, threadID, and summary cannot be empty: %w", ErrInvalidInput)
	}

	if err := s.store.SaveThreadSummary(ctx, accountEmail, threadID, summary, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save thread summary to cache: %w", err)
	}
	return nil
}

func (s *CacheServiceImpl) ClearAccount(ctx context.Context, accountEmail string) error {
	if s.store == nil {
		return ErrCacheUnavailable
	}
	if strings.TrimSpace(accountEmail) == "" {
		return fmt.Errorf("accountEmail cannot be empty: %w", ErrInvalidInput)
	}

	if err := s.store.ClearAccount(ctx, accountEmail); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
