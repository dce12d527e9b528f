package services

import (
	"context"
	"fmt"
	"log"

	"github.com/aluque/mailpilot/internal/gmail"
)

// MutationServiceImpl applies state changes to emails. Label mutations
// go to the remote account first and patch the store only after the
// remote call succeeds, so a failure leaves local state untouched.
// Star, priority and read state are client-side flags and never leave
// the machine.
type MutationServiceImpl struct {
	repo        MessageRepository
	gmailClient *gmail.Client
	store       *EmailStore
	logger      *log.Logger
}

// NewMutationService creates a new mutation service
func NewMutationService(repo MessageRepository, gmailClient *gmail.Client, store *EmailStore) *MutationServiceImpl {
	return &MutationServiceImpl{
		repo:        repo,
		gmailClient: gmailClient,
		store:       store,
	}
}

// SetLogger sets the logger for debug output
func (s *MutationServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

func (s *MutationServiceImpl) ToggleStar(ctx context.Context, messageID string) error {
	if messageID == "" {
		return fmt.Errorf("message ID cannot be empty: %w", ErrInvalidInput)
	}
	if !s.store.Patch(messageID, func(e *gmail.Email) { e.Starred = !e.Starred }) {
		return ErrMessageNotFound
	}
	return nil
}

func (s *MutationServiceImpl) TogglePriority(ctx context.Context, messageID string) error {
	if messageID == "" {
		return fmt.Errorf("message ID cannot be empty: %w", ErrInvalidInput)
	}
	if !s.store.Patch(messageID, func(e *gmail.Email) { e.Priority = !e.Priority }) {
		return ErrMessageNotFound
	}
	return nil
}

func (s *MutationServiceImpl) MarkAsRead(ctx context.Context, messageID string) error {
	return s.setUnread(messageID, false)
}

func (s *MutationServiceImpl) MarkAsUnread(ctx context.Context, messageID string) error {
	return s.setUnread(messageID, true)
}

func (s *MutationServiceImpl) setUnread(messageID string, unread bool) error {
	if messageID == "" {
		return fmt.Errorf("message ID cannot be empty: %w", ErrInvalidInput)
	}
	if !s.store.Patch(messageID, func(e *gmail.Email) { e.Unread = unread }) {
		return ErrMessageNotFound
	}
	return nil
}

func (s *MutationServiceImpl) ApplyLabel(ctx context.Context, messageID, labelID string) error {
	if labelID == "" {
		return fmt.Errorf("label ID cannot be empty: %w", ErrInvalidInput)
	}
	return s.modify(ctx, messageID, MessageUpdates{AddLabels: []string{labelID}})
}

func (s *MutationServiceImpl) RemoveLabel(ctx context.Context, messageID, labelID string) error {
	if labelID == "" {
		return fmt.Errorf("label ID cannot be empty: %w", ErrInvalidInput)
	}
	return s.modify(ctx, messageID, MessageUpdates{RemoveLabels: []string{labelID}})
}

func (s *MutationServiceImpl) ArchiveMessage(ctx context.Context, messageID string) error {
	return s.modify(ctx, messageID, MessageUpdates{RemoveLabels: []string{"INBOX"}})
}

func (s *MutationServiceImpl) TrashMessage(ctx context.Context, messageID string) error {
	return s.modify(ctx, messageID, MessageUpdates{
		AddLabels:    []string{"TRASH"},
		RemoveLabels: []string{"INBOX"},
	})
}

func (s *MutationServiceImpl) MarkAsSpam(ctx context.Context, messageID string) error {
	return s.modify(ctx, messageID, MessageUpdates{
		AddLabels:    []string{"SPAM"},
		RemoveLabels: []string{"INBOX"},
	})
}

// modify pushes the label change to the remote account, then mirrors it
// into the store. The email may have left the store while the remote
// call ran; that is not an error, the next fetch reconciles it.
func (s *MutationServiceImpl) modify(ctx context.Context, messageID string, updates MessageUpdates) error {
	if messageID == "" {
		return fmt.Errorf("message ID cannot be empty: %w", ErrInvalidInput)
	}
	if s.repo == nil {
		return ErrNotAuthenticated
	}

	if err := s.repo.UpdateMessage(ctx, messageID, updates); err != nil {
		return fmt.Errorf("failed to update message %s: %w", messageID, err)
	}

	patched := s.store.Patch(messageID, func(e *gmail.Email) {
		for _, id := range updates.AddLabels {
			e.AddLabel(id)
		}
		for _, id := range updates.RemoveLabels {
			e.RemoveLabel(id)
		}
	})
	if !patched && s.logger != nil {
		s.logger.Printf("mutation: message %s updated remotely but no longer loaded", messageID)
	}
	return nil
}

func (s *MutationServiceImpl) SendMessage(ctx context.Context, from, to, subject, body string, cc []string) error {
	if s.gmailClient == nil {
		return ErrNotAuthenticated
	}
	if to == "" {
		return fmt.Errorf("recipient cannot be empty: %w", ErrInvalidInput)
	}
	if subject == "" && body == "" {
		return fmt.Errorf("subject and body cannot both be empty: %w", ErrInvalidInput)
	}

	if _, err := s.gmailClient.SendMessage(from, to, subject, body, cc); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (s *MutationServiceImpl) ReplyToMessage(ctx context.Context, originalID, replyBody string, cc []string) error {
	if s.gmailClient == nil {
		return ErrNotAuthenticated
	}
	if originalID == "" {
		return fmt.Errorf("message ID cannot be empty: %w", ErrInvalidInput)
	}
	if replyBody == "" {
		return fmt.Errorf("reply body cannot be empty: %w", ErrInvalidInput)
	}

	if _, err := s.gmailClient.ReplyMessage(originalID, replyBody, cc); err != nil {
		return fmt.Errorf("failed to reply to message %s: %w", originalID, err)
	}
	return nil
}
