package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aluque/mailpilot/internal/gmail"
	"github.com/aluque/mailpilot/internal/llm"
	"github.com/aluque/mailpilot/internal/render"
)

const (
	// summaryInputLimit caps the plain text sent to the summarizer
	summaryInputLimit = 2000
	// minSummarizableRunes is the shortest body worth summarizing
	minSummarizableRunes = 30
	// assistantBodyLimit caps per-email body text sent to the assistant
	assistantBodyLimit = 500

	summaryTooShort = "Email is too short to summarize."
	summaryFallback = "No summary available."
)

// AIServiceImpl implements AI-assisted features on top of the llm
// client, with a persistent summary cache in front of the summarizer
type AIServiceImpl struct {
	client *llm.Client
	cache  CacheService
	logger *log.Logger
}

// NewAIService creates an AI service. client may be nil when the AI
// endpoint is disabled; cache may be nil to skip caching.
func NewAIService(client *llm.Client, cache CacheService) *AIServiceImpl {
	return &AIServiceImpl{client: client, cache: cache}
}

// SetLogger sets the logger for debug output
func (s *AIServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// SummarizeEmail generates a summary of one email body. Bodies shorter
// than 30 characters of plain text get a canned message without calling
// the service; a well-formed but empty response degrades to a static
// fallback rather than an error.
func (s *AIServiceImpl) SummarizeEmail(ctx context.Context, email *gmail.Email, opts SummaryOptions) (*SummaryResult, error) {
	if s.client == nil {
		return nil, ErrAINotConfigured
	}
	if email == nil || email.ID == "" {
		return nil, fmt.Errorf("email cannot be empty: %w", ErrInvalidInput)
	}

	if opts.UseCache && !opts.ForceRegenerate && s.cache != nil {
		if summary, ok := s.cache.GetSummary(ctx, opts.AccountEmail, email.ID); ok {
			return &SummaryResult{Summary: summary, FromCache: true}, nil
		}
	}

	text := strings.TrimSpace(render.HTMLToText(email.Body))
	if len([]rune(text)) < minSummarizableRunes {
		return &SummaryResult{Summary: summaryTooShort}, nil
	}
	text = render.Truncate(text, summaryInputLimit)

	start := time.Now()
	summary, err := s.client.Summarize(ctx, text, opts.Detail)
	if err != nil {
		if errors.Is(err, llm.ErrNoContent) {
			return &SummaryResult{Summary: summaryFallback, Duration: time.Since(start)}, nil
		}
		return nil, fmt.Errorf("failed to summarize email %s: %w", email.ID, err)
	}

	if opts.UseCache && s.cache != nil {
		if err := s.cache.SaveSummary(ctx, opts.AccountEmail, email.ID, summary); err != nil && s.logger != nil {
			s.logger.Printf("ai: failed to cache summary for %s: %v", email.ID, err)
		}
	}

	return &SummaryResult{Summary: summary, Duration: time.Since(start)}, nil
}

// SuggestReplies returns reply suggestions for an email in the given tone
func (s *AIServiceImpl) SuggestReplies(ctx context.Context, email *gmail.Email, tone string) ([]string, error) {
	if s.client == nil {
		return nil, ErrAINotConfigured
	}
	if email == nil {
		return nil, fmt.Errorf("email cannot be empty: %w", ErrInvalidInput)
	}

	text := render.Truncate(render.HTMLToText(email.Body), summaryInputLimit)
	replies, err := s.client.SmartReplies(ctx, text, tone)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest replies for %s: %w", email.ID, err)
	}
	return replies, nil
}

// CorrectReply rewrites a draft reply in the given tone
func (s *AIServiceImpl) CorrectReply(ctx context.Context, draft, tone string) (string, error) {
	if s.client == nil {
		return "", ErrAINotConfigured
	}
	if strings.TrimSpace(draft) == "" {
		return "", fmt.Errorf("draft cannot be empty: %w", ErrInvalidInput)
	}

	corrected, err := s.client.CorrectReply(ctx, draft, tone)
	if err != nil {
		return "", fmt.Errorf("failed to correct reply: %w", err)
	}
	if corrected == "" {
		return draft, nil
	}
	return corrected, nil
}

// AssistantSearch runs a natural-language query over the loaded emails
func (s *AIServiceImpl) AssistantSearch(ctx context.Context, query string, emails []*gmail.Email) (*AssistantAnswer, error) {
	if s.client == nil {
		return nil, ErrAINotConfigured
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty: %w", ErrInvalidInput)
	}

	payload := make([]llm.AssistantEmail, 0, len(emails))
	for _, e := range emails {
		payload = append(payload, llm.AssistantEmail{
			ID:      e.ID,
			Subject: e.Subject,
			Body:    render.Truncate(render.HTMLToText(e.Body), assistantBodyLimit),
		})
	}

	res, err := s.client.AssistantSearch(ctx, query, payload)
	if err != nil {
		return nil, fmt.Errorf("assistant query failed: %w", err)
	}

	answer := &AssistantAnswer{Answer: res.Result}
	for _, m := range res.Emails {
		answer.Matches = append(answer.Matches, AssistantMatch{
			ID:      m.ID,
			Subject: m.Subject,
			Snippet: m.Snippet,
		})
	}
	return answer, nil
}

// SummarizeAttachment summarizes one attachment's content
func (s *AIServiceImpl) SummarizeAttachment(ctx context.Context, att gmail.Attachment) (string, error) {
	if s.client == nil {
		return "", ErrAINotConfigured
	}
	if att.Data == "" {
		return "", fmt.Errorf("attachment %s has no data: %w", att.Filename, ErrInvalidInput)
	}

	summary, err := s.client.SummarizeAttachment(ctx, llm.AttachmentPayload{
		Name:    att.Filename,
		Type:    att.MimeType,
		Content: att.Data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to summarize attachment %s: %w", att.Filename, err)
	}
	if summary == "" {
		return summaryFallback, nil
	}
	return summary, nil
}

// IsAvailable reports whether the AI service answers at all
func (s *AIServiceImpl) IsAvailable(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	return s.client.IsAvailable(ctx)
}
