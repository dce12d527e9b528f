package gmail

import (
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
)

// Client wraps the gmail.Service and provides convenience methods
type Client struct {
	Service *gmail.Service
}

// NewClient creates a new Gmail client
func NewClient(service *gmail.Service) *Client {
	return &Client{Service: service}
}

// ListMessageIDs returns one page of message IDs and the nextPageToken.
// An empty nextPageToken means the listing is exhausted.
func (c *Client) ListMessageIDs(maxResults int64, pageToken string) ([]string, string, error) {
	user := "me"
	call := c.Service.Users.Messages.List(user)
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	res, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	return ids, res.NextPageToken, nil
}

// GetMessage retrieves a specific message by ID in full format
func (c *Client) GetMessage(id string) (*gmail.Message, error) {
	user := "me"
	msg, err := c.Service.Users.Messages.Get(user, id).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return msg, nil
}

// GetAttachmentData downloads the body of a single attachment and returns it
// as base64url content, exactly as the API delivers it.
func (c *Client) GetAttachmentData(messageID, attachmentID string) (string, error) {
	user := "me"
	att, err := c.Service.Users.Messages.Attachments.Get(user, messageID, attachmentID).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get attachment: %w", err)
	}

	return att.Data, nil
}

// ModifyMessage adds and removes label IDs on a message in a single call.
// Adding an already-present label is a no-op on the remote side.
func (c *Client) ModifyMessage(messageID string, addLabelIDs, removeLabelIDs []string) error {
	user := "me"
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    addLabelIDs,
		RemoveLabelIds: removeLabelIDs,
	}

	_, err := c.Service.Users.Messages.Modify(user, messageID, req).Do()
	if err != nil {
		return fmt.Errorf("failed to modify message: %w", err)
	}

	return nil
}

// SendMessage sends a plain-text message and returns the new message ID
func (c *Client) SendMessage(from, to, subject, body string, cc []string) (string, error) {
	raw := buildRawMessage(from, to, subject, body, cc)

	message := &gmail.Message{Raw: raw}

	user := "me"
	sentMsg, err := c.Service.Users.Messages.Send(user, message).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return sentMsg.Id, nil
}

// ReplyMessage sends a reply to an existing message, prefixing the subject
func (c *Client) ReplyMessage(originalMsgID, replyBody string, cc []string) (string, error) {
	originalMsg, err := c.GetMessage(originalMsgID)
	if err != nil {
		return "", err
	}

	subject := ExtractHeader(originalMsg, "Subject")
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	from := ExtractHeader(originalMsg, "From")

	return c.SendMessage("me", from, subject, replyBody, cc)
}

// buildRawMessage assembles an RFC 2822 message and base64url-encodes it
func buildRawMessage(from, to, subject, body string, cc []string) string {
	msg := &mail.Message{
		Header: mail.Header{
			"From":    []string{from},
			"To":      []string{to},
			"Subject": []string{subject},
		},
		Body: strings.NewReader(body),
	}

	if len(cc) > 0 {
		msg.Header["Cc"] = cc
	}

	var sb strings.Builder
	for k, v := range msg.Header {
		sb.WriteString(fmt.Sprintf("%s: %s\r\n", k, strings.Join(v, ", ")))
	}
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	return base64.URLEncoding.EncodeToString([]byte(sb.String()))
}

// ActiveAccountEmail returns the email address of the authenticated account
func (c *Client) ActiveAccountEmail() (string, error) {
	profile, err := c.Service.Users.GetProfile("me").Do()
	if err != nil {
		return "", fmt.Errorf("failed to get profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// ListLabels returns all labels
func (c *Client) ListLabels() ([]*gmail.Label, error) {
	user := "me"
	res, err := c.Service.Users.Labels.List(user).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	return res.Labels, nil
}

// CreateLabel creates a new user label
func (c *Client) CreateLabel(name string) (*gmail.Label, error) {
	user := "me"
	label := &gmail.Label{
		Name: name,
	}

	createdLabel, err := c.Service.Users.Labels.Create(user, label).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create label: %w", err)
	}

	return createdLabel, nil
}

// RenameLabel renames an existing label
func (c *Client) RenameLabel(labelID, newName string) (*gmail.Label, error) {
	user := "me"
	label := &gmail.Label{
		Name: newName,
	}

	updatedLabel, err := c.Service.Users.Labels.Patch(user, labelID, label).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to rename label: %w", err)
	}

	return updatedLabel, nil
}

// DeleteLabel deletes a label by ID
func (c *Client) DeleteLabel(labelID string) error {
	user := "me"
	if err := c.Service.Users.Labels.Delete(user, labelID).Do(); err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}

	return nil
}

// ExtractHeader extracts a header value from a message payload
func ExtractHeader(msg *gmail.Message, name string) string {
	if msg.Payload == nil || msg.Payload.Headers == nil {
		return ""
	}

	for _, header := range msg.Payload.Headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}

	return ""
}

// ExtractLabels returns the label IDs of a message, never nil
func ExtractLabels(msg *gmail.Message) []string {
	if msg.LabelIds == nil {
		return []string{}
	}
	return msg.LabelIds
}

// dateLayouts are tried in order when parsing Date headers. Senders are not
// uniformly RFC-compliant, so the ladder is deliberately forgiving.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

// ParseDate parses a Date header value tolerantly. The second return value is
// false when no layout matched; callers decide how unparseable dates sort.
func ParseDate(dateStr string) (time.Time, bool) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
