package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/aluque/mailpilot/internal/gmail"
	"github.com/aluque/mailpilot/internal/llm"
	"github.com/aluque/mailpilot/internal/render"
)

// threadBodyLimit caps how much of each message body is sent to the AI
// service when summarizing a conversation
const threadBodyLimit = 1500

// ThreadServiceImpl groups loaded emails into conversations
type ThreadServiceImpl struct {
	aiClient *llm.Client
	cache    CacheService
	logger   *log.Logger
}

// NewThreadService creates a thread service. aiClient and cache may be
// nil; thread summaries are then unavailable or uncached.
func NewThreadService(aiClient *llm.Client, cache CacheService) *ThreadServiceImpl {
	return &ThreadServiceImpl{aiClient: aiClient, cache: cache}
}

// SetLogger sets the logger for debug output
func (s *ThreadServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// GroupByThread buckets emails by thread ID and sorts each bucket by
// date ascending. Emails with unparseable dates sort first, keeping
// their relative load order. An email without a thread ID forms a
// singleton thread keyed by its own ID.
func (s *ThreadServiceImpl) GroupByThread(emails []*gmail.Email) map[string][]*gmail.Email {
	threads := make(map[string][]*gmail.Email)
	for _, e := range emails {
		key := e.ThreadID
		if key == "" {
			key = e.ID
		}
		threads[key] = append(threads[key], e)
	}

	for _, thread := range threads {
		sortThread(thread)
	}
	return threads
}

func sortThread(thread []*gmail.Email) {
	dates := make([]time.Time, len(thread))
	for i, e := range thread {
		// Zero time for unparseable dates; SliceStable keeps their
		// original order among themselves
		dates[i], _ = gmail.ParseDate(e.Date)
	}
	sort.SliceStable(thread, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}

// ThreadEmails returns the date-sorted conversation for one thread ID
func (s *ThreadServiceImpl) ThreadEmails(emails []*gmail.Email, threadID string) []*gmail.Email {
	var thread []*gmail.Email
	for _, e := range emails {
		key := e.ThreadID
		if key == "" {
			key = e.ID
		}
		if key == threadID {
			thread = append(thread, e)
		}
	}
	sortThread(thread)
	return thread
}

// ThreadAttachments flattens the attachments of a whole conversation
// in date order
func (s *ThreadServiceImpl) ThreadAttachments(emails []*gmail.Email, threadID string) []gmail.Attachment {
	var out []gmail.Attachment
	for _, e := range s.ThreadEmails(emails, threadID) {
		out = append(out, e.Attachments...)
	}
	return out
}

// SummarizeThread asks the AI service for a conversation summary,
// serving and filling the thread summary cache
func (s *ThreadServiceImpl) SummarizeThread(ctx context.Context, accountEmail, threadID string, thread []*gmail.Email, opts SummaryOptions) (*SummaryResult, error) {
	if s.aiClient == nil {
		return nil, ErrAINotConfigured
	}
	if threadID == "" {
		return nil, fmt.Errorf("thread ID cannot be empty: %w", ErrInvalidInput)
	}
	if len(thread) == 0 {
		return nil, fmt.Errorf("thread %s has no messages: %w", threadID, ErrInvalidInput)
	}

	if opts.UseCache && !opts.ForceRegenerate && s.cache != nil {
		if summary, ok := s.cache.GetThreadSummary(ctx, accountEmail, threadID); ok {
			return &SummaryResult{Summary: summary, FromCache: true}, nil
		}
	}

	messages := make([]llm.ThreadMessage, 0, len(thread))
	for _, e := range thread {
		messages = append(messages, llm.ThreadMessage{
			Subject: e.Subject,
			Body:    render.Truncate(render.HTMLToText(e.Body), threadBodyLimit),
			Date:    e.Date,
		})
	}

	start := time.Now()
	summary, err := s.aiClient.SummarizeThread(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize thread %s: %w", threadID, err)
	}

	if opts.UseCache && s.cache != nil {
		if err := s.cache.SaveThreadSummary(ctx, accountEmail, threadID, summary); err != nil && s.logger != nil {
			s.logger.Printf("thread: failed to cache summary for %s: %v", threadID, err)
		}
	}

	return &SummaryResult{Summary: summary, Duration: time.Since(start)}, nil
}
