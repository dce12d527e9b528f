// Package llm is the HTTP client for the locally hosted AI microservice. The
// service is an opaque text-in/text-out collaborator; every call is a JSON
// POST with an explicit timeout, and a timeout is treated like any other
// remote failure.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every request to the AI service.
const DefaultTimeout = 30 * time.Second

// ErrNoContent marks a response that arrived but carried nothing usable.
// Callers can distinguish it from transport failures and degrade to a
// local fallback instead of surfacing an error.
var ErrNoContent = errors.New("ai service returned no content")

// Client talks to the AI microservice
type Client struct {
	BaseURL string
	Timeout time.Duration

	httpClient *http.Client
}

// NewClient creates a new AI service client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AssistantEmail is the minimal email shape sent to the assistant endpoint
type AssistantEmail struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// AssistantMatch is one email reference returned by the assistant
type AssistantMatch struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
}

// AssistantResult holds either matched emails or a free-text answer
type AssistantResult struct {
	Emails []AssistantMatch `json:"emails"`
	Result string           `json:"result"`
}

// ThreadMessage is one message of a conversation sent for thread summarization
type ThreadMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Date    string `json:"date"`
}

// AttachmentPayload describes an attachment sent for summarization
type AttachmentPayload struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Categorize asks the classifier for a category. An empty category in a
// well-formed response is returned as an error so callers fall back locally.
func (c *Client) Categorize(ctx context.Context, subject, body string) (string, error) {
	req := struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}{Subject: subject, Body: body}

	var resp struct {
		Category string `json:"category"`
	}
	if err := c.postJSON(ctx, "/api/categorize", req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Category) == "" {
		return "", fmt.Errorf("categorize: %w", ErrNoContent)
	}

	return resp.Category, nil
}

// Summarize generates a summary of the given text at the requested detail
// level ("short" or "detailed")
func (c *Client) Summarize(ctx context.Context, text, detail string) (string, error) {
	req := struct {
		Text   string `json:"text"`
		Detail string `json:"detail"`
	}{Text: text, Detail: detail}

	var resp struct {
		Summary string `json:"summary"`
		Error   string `json:"error"`
	}
	if err := c.postJSON(ctx, "/summarize", req, &resp); err != nil {
		return "", err
	}
	if resp.Summary == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("summarizer error %q: %w", resp.Error, ErrNoContent)
		}
		return "", fmt.Errorf("summarize: %w", ErrNoContent)
	}

	return resp.Summary, nil
}

// SmartReplies returns suggested replies for an email in the given tone
func (c *Client) SmartReplies(ctx context.Context, text, tone string) ([]string, error) {
	req := struct {
		Text string `json:"text"`
		Tone string `json:"tone"`
	}{Text: text, Tone: tone}

	var resp struct {
		Replies []string `json:"replies"`
	}
	if err := c.postJSON(ctx, "/api/smart-reply", req, &resp); err != nil {
		return nil, err
	}

	return resp.Replies, nil
}

// CorrectReply rewrites a draft reply in the given tone
func (c *Client) CorrectReply(ctx context.Context, text, tone string) (string, error) {
	req := struct {
		Text string `json:"text"`
		Tone string `json:"tone"`
	}{Text: text, Tone: tone}

	var resp struct {
		Corrected string `json:"corrected"`
	}
	if err := c.postJSON(ctx, "/api/correct-reply", req, &resp); err != nil {
		return "", err
	}

	return resp.Corrected, nil
}

// AssistantSearch runs a natural-language query over the provided emails
func (c *Client) AssistantSearch(ctx context.Context, query string, emails []AssistantEmail) (*AssistantResult, error) {
	req := struct {
		Query  string           `json:"query"`
		Emails []AssistantEmail `json:"emails"`
	}{Query: query, Emails: emails}

	var resp AssistantResult
	if err := c.postJSON(ctx, "/api/ai-assistant", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// SummarizeThread summarizes a whole conversation
func (c *Client) SummarizeThread(ctx context.Context, messages []ThreadMessage) (string, error) {
	req := struct {
		Emails []ThreadMessage `json:"emails"`
	}{Emails: messages}

	var resp struct {
		Summary string `json:"summary"`
	}
	if err := c.postJSON(ctx, "/api/summarize-thread", req, &resp); err != nil {
		return "", err
	}
	if resp.Summary == "" {
		return "", fmt.Errorf("summarize thread: %w", ErrNoContent)
	}

	return resp.Summary, nil
}

// SummarizeAttachment summarizes a single attachment's content
func (c *Client) SummarizeAttachment(ctx context.Context, att AttachmentPayload) (string, error) {
	req := struct {
		Attachment AttachmentPayload `json:"attachment"`
	}{Attachment: att}

	var resp struct {
		Summary string `json:"summary"`
	}
	if err := c.postJSON(ctx, "/api/summarize-attachment", req, &resp); err != nil {
		return "", err
	}

	return resp.Summary, nil
}

// IsAvailable checks whether the AI service answers at all
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody, respOut interface{}) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to AI service failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("AI service returned status %s", resp.Status)
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(respOut); err != nil {
		return fmt.Errorf("failed to decode AI service response: %w", err)
	}

	return nil
}
