package services

import (
	"context"
	"time"

	"github.com/aluque/mailpilot/internal/gmail"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

// MessageRepository handles remote message data operations
type MessageRepository interface {
	ListMessageIDs(ctx context.Context, maxResults int64, pageToken string) ([]string, string, error)
	GetMessage(ctx context.Context, id string) (*gmail_v1.Message, error)
	GetAttachmentData(ctx context.Context, messageID, attachmentID string) (string, error)
	UpdateMessage(ctx context.Context, id string, updates MessageUpdates) error
}

// FetchService loads pages of emails from the remote account into the store
type FetchService interface {
	Refresh(ctx context.Context) (*FetchResult, error)
	LoadMore(ctx context.Context) (*FetchResult, error)
	AllLoaded() bool
}

// Categorizer assigns exactly one category to an email
type Categorizer interface {
	Categorize(ctx context.Context, email *gmail.Email) string
}

// ThreadService groups emails into conversations
type ThreadService interface {
	GroupByThread(emails []*gmail.Email) map[string][]*gmail.Email
	ThreadEmails(emails []*gmail.Email, threadID string) []*gmail.Email
	ThreadAttachments(emails []*gmail.Email, threadID string) []gmail.Attachment
	SummarizeThread(ctx context.Context, accountEmail, threadID string, thread []*gmail.Email, opts SummaryOptions) (*SummaryResult, error)
}

// ViewService derives the visible email list for a tab, label or search
type ViewService interface {
	SelectView(emails []*gmail.Email, labels []*gmail_v1.Label, activeTab string) []*gmail.Email
	Search(emails []*gmail.Email, query string) []*gmail.Email
	NextSelection(view []*gmail.Email, removedID string) string
	TabCounts(emails []*gmail.Email, labels []*gmail_v1.Label) map[string]int
}

// MutationService applies state changes to individual emails
type MutationService interface {
	ToggleStar(ctx context.Context, messageID string) error
	TogglePriority(ctx context.Context, messageID string) error
	MarkAsRead(ctx context.Context, messageID string) error
	MarkAsUnread(ctx context.Context, messageID string) error
	ApplyLabel(ctx context.Context, messageID, labelID string) error
	RemoveLabel(ctx context.Context, messageID, labelID string) error
	ArchiveMessage(ctx context.Context, messageID string) error
	TrashMessage(ctx context.Context, messageID string) error
	MarkAsSpam(ctx context.Context, messageID string) error
	SendMessage(ctx context.Context, from, to, subject, body string, cc []string) error
	ReplyToMessage(ctx context.Context, originalID, replyBody string, cc []string) error
}

// LabelService handles label taxonomy operations
type LabelService interface {
	ListLabels(ctx context.Context) ([]*gmail_v1.Label, error)
	CreateLabel(ctx context.Context, name string) (*gmail_v1.Label, error)
	RenameLabel(ctx context.Context, labelID, newName string) (*gmail_v1.Label, error)
	DeleteLabel(ctx context.Context, labelID string) error
}

// AIService handles AI-assisted features
type AIService interface {
	SummarizeEmail(ctx context.Context, email *gmail.Email, opts SummaryOptions) (*SummaryResult, error)
	SuggestReplies(ctx context.Context, email *gmail.Email, tone string) ([]string, error)
	CorrectReply(ctx context.Context, draft, tone string) (string, error)
	AssistantSearch(ctx context.Context, query string, emails []*gmail.Email) (*AssistantAnswer, error)
	SummarizeAttachment(ctx context.Context, att gmail.Attachment) (string, error)
	IsAvailable(ctx context.Context) bool
}

// CacheService handles persistent caching of AI results
type CacheService interface {
	GetSummary(ctx context.Context, accountEmail, messageID string) (string, bool)
	SaveSummary(ctx context.Context, accountEmail, messageID, summary string) error
	InvalidateSummary(ctx context.Context, accountEmail, messageID string) error
	GetThreadSummary(ctx context.Context, accountEmail, threadID string) (string, bool)
	SaveThreadSummary(ctx context.Context, accountEmail, threadID, summary string) error
	ClearAccount(ctx context.Context, accountEmail string) error
}

// MessageUpdates describes label changes to apply to a message
type MessageUpdates struct {
	AddLabels    []string
	RemoveLabels []string
}

// FetchResult is the outcome of one committed page fetch
type FetchResult struct {
	Emails        []*gmail.Email
	NextPageToken string
	Appended      bool
}

// SummaryOptions controls summary generation
type SummaryOptions struct {
	AccountEmail    string
	Detail          string // "short" or "detailed"
	UseCache        bool
	ForceRegenerate bool
}

// SummaryResult holds a generated summary
type SummaryResult struct {
	Summary   string
	FromCache bool
	Duration  time.Duration
}

// AssistantAnswer is the outcome of a natural-language assistant query.
// It carries either matched emails or a free-text answer.
type AssistantAnswer struct {
	Matches []AssistantMatch
	Answer  string
}

// AssistantMatch references one email picked out by the assistant
type AssistantMatch struct {
	ID      string
	Subject string
	Snippet string
}
