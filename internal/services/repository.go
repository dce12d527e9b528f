package services

import (
	"context"
	"fmt"

	"github.com/aluque/mailpilot/internal/gmail"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

// MessageRepositoryImpl implements MessageRepository over the Gmail client
type MessageRepositoryImpl struct {
	gmailClient *gmail.Client
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(gmailClient *gmail.Client) *MessageRepositoryImpl {
	return &MessageRepositoryImpl{
		gmailClient: gmailClient,
	}
}

func (r *MessageRepositoryImpl) ListMessageIDs(ctx context.Context, maxResults int64, pageToken string) ([]string, string, error) {
	ids, nextToken, err := r.gmailClient.ListMessageIDs(maxResults, pageToken)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list messages: %w", err)
	}
	return ids, nextToken, nil
}

func (r *MessageRepositoryImpl) GetMessage(ctx context.Context, id string) (*gmail_v1.Message, error) {
	if id == "" {
		return nil, fmt.Errorf("message ID cannot be empty")
	}

	msg, err := r.gmailClient.GetMessage(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

func (r *MessageRepositoryImpl) GetAttachmentData(ctx context.Context, messageID, attachmentID string) (string, error) {
	if messageID == "" {
		return "", fmt.Errorf("message ID cannot be empty")
	}
	if attachmentID == "" {
		return "", fmt.Errorf("attachment ID cannot be empty")
	}

	data, err := r.gmailClient.GetAttachmentData(messageID, attachmentID)
	if err != nil {
		return "", fmt.Errorf("failed to get attachment %s of message %s: %w", attachmentID, messageID, err)
	}
	return data, nil
}

func (r *MessageRepositoryImpl) UpdateMessage(ctx context.Context, id string, updates MessageUpdates) error {
	if id == "" {
		return fmt.Errorf("message ID cannot be empty")
	}
	if len(updates.AddLabels) == 0 && len(updates.RemoveLabels) == 0 {
		return nil
	}

	if err := r.gmailClient.ModifyMessage(id, updates.AddLabels, updates.RemoveLabels); err != nil {
		return fmt.Errorf("failed to update message %s: %w", id, err)
	}
	return nil
}
