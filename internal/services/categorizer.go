package services

import (
	"context"
	"log"
	"strings"

	"github.com/aluque/mailpilot/internal/gmail"
	"github.com/aluque/mailpilot/internal/llm"
	"github.com/aluque/mailpilot/internal/render"
)

// The closed set of categories an email can carry
const (
	CategoryWork       = "Work"
	CategoryPersonal   = "Personal"
	CategoryFinance    = "Finance"
	CategoryPromotions = "Promotions"
	CategoryMeetings   = "Meetings"
	CategoryOther      = "Other"
)

// KnownCategories lists every valid category in display order
var KnownCategories = []string{
	CategoryWork,
	CategoryPersonal,
	CategoryFinance,
	CategoryPromotions,
	CategoryMeetings,
	CategoryOther,
}

// IsKnownCategory reports whether name is one of the six categories
func IsKnownCategory(name string) bool {
	for _, c := range KnownCategories {
		if c == name {
			return true
		}
	}
	return false
}

// categorizeInputLimit caps the body text sent to the classifier
const categorizeInputLimit = 2000

// CategorizerImpl asks the AI service for a category and falls back to
// keyword rules when the service is unavailable or answers garbage.
// Categorize never fails: every email ends up with a valid category.
type CategorizerImpl struct {
	aiClient *llm.Client
	logger   *log.Logger
}

// NewCategorizer creates a categorizer. aiClient may be nil, in which
// case only the keyword fallback runs.
func NewCategorizer(aiClient *llm.Client) *CategorizerImpl {
	return &CategorizerImpl{aiClient: aiClient}
}

// SetLogger sets the logger for debug output
func (c *CategorizerImpl) SetLogger(logger *log.Logger) {
	c.logger = logger
}

func (c *CategorizerImpl) Categorize(ctx context.Context, email *gmail.Email) string {
	if email == nil {
		return CategoryOther
	}

	if c.aiClient != nil {
		body := render.Truncate(render.HTMLToText(email.Body), categorizeInputLimit)
		category, err := c.aiClient.Categorize(ctx, email.Subject, body)
		if err == nil && IsKnownCategory(category) {
			return category
		}
		if c.logger != nil {
			c.logger.Printf("categorizer: falling back to keyword rules for %s: category=%q err=%v",
				email.ID, category, err)
		}
	}

	return FallbackCategory(email.From, email.Subject)
}

// FallbackCategory applies keyword rules over sender and subject. Each
// keyword is scoped to one field; the body never participates. Rules
// are checked in order; the first hit wins.
func FallbackCategory(from, subject string) string {
	from = strings.ToLower(from)
	subject = strings.ToLower(subject)

	switch {
	case strings.Contains(from, "bank") || containsAny(subject, "invoice", "payment"):
		return CategoryFinance
	case strings.Contains(from, "linkedin") || containsAny(subject, "job", "career"):
		return CategoryWork
	case strings.Contains(from, "newsletter") || containsAny(subject, "promo", "sale"):
		return CategoryPromotions
	case containsAny(from, "family", "mom", "dad") || strings.Contains(subject, "birthday"):
		return CategoryPersonal
	case containsAny(subject, "meeting", "calendar"):
		return CategoryMeetings
	default:
		return CategoryOther
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
