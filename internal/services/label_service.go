package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aluque/mailpilot/internal/gmail"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

// systemLabelIDs are reserved Gmail labels that cannot be renamed or
// deleted
var systemLabelIDs = map[string]bool{
	"INBOX": true, "SENT": true, "TRASH": true, "SPAM": true,
	"DRAFT": true, "STARRED": true, "UNREAD": true, "IMPORTANT": true,
	"CHAT": true,
}

func isSystemLabel(labelID string) bool {
	return systemLabelIDs[labelID] || strings.HasPrefix(labelID, "CATEGORY_")
}

// LabelServiceImpl implements label taxonomy operations
type LabelServiceImpl struct {
	gmailClient *gmail.Client
}

// NewLabelService creates a new label service
func NewLabelService(gmailClient *gmail.Client) *LabelServiceImpl {
	return &LabelServiceImpl{gmailClient: gmailClient}
}

func (s *LabelServiceImpl) ListLabels(ctx context.Context) ([]*gmail_v1.Label, error) {
	if s.gmailClient == nil {
		return nil, ErrNotAuthenticated
	}

	labels, err := s.gmailClient.ListLabels()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}

func (s *LabelServiceImpl) CreateLabel(ctx context.Context, name string) (*gmail_v1.Label, error) {
	if s.gmailClient == nil {
		return nil, ErrNotAuthenticated
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("label name cannot be empty: %w", ErrInvalidInput)
	}

	label, err := s.gmailClient.CreateLabel(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create label %q: %w", name, err)
	}
	return label, nil
}

func (s *LabelServiceImpl) RenameLabel(ctx context.Context, labelID, newName string) (*gmail_v1.Label, error) {
	if s.gmailClient == nil {
		return nil, ErrNotAuthenticated
	}
	if labelID == "" {
		return nil, fmt.Errorf("label ID cannot be empty: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(newName) == "" {
		return nil, fmt.Errorf("label name cannot be empty: %w", ErrInvalidInput)
	}
	if isSystemLabel(labelID) {
		return nil, fmt.Errorf("label %s: %w", labelID, ErrSystemLabel)
	}

	label, err := s.gmailClient.RenameLabel(labelID, newName)
	if err != nil {
		return nil, fmt.Errorf("failed to rename label %s: %w", labelID, err)
	}
	return label, nil
}

func (s *LabelServiceImpl) DeleteLabel(ctx context.Context, labelID string) error {
	if s.gmailClient == nil {
		return ErrNotAuthenticated
	}
	if labelID == "" {
		return fmt.Errorf("label ID cannot be empty: %w", ErrInvalidInput)
	}
	if isSystemLabel(labelID) {
		return fmt.Errorf("label %s: %w", labelID, ErrSystemLabel)
	}

	if err := s.gmailClient.DeleteLabel(labelID); err != nil {
		return fmt.Errorf("failed to delete label %s: %w", labelID, err)
	}
	return nil
}
