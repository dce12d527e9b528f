package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/aluque/mailpilot/internal/gmail"
	"github.com/stretchr/testify/mock"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

// MockMessageRepository implements MessageRepository for testing
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) ListMessageIDs(ctx context.Context, maxResults int64, pageToken string) ([]string, string, error) {
	args := m.Called(ctx, maxResults, pageToken)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]string), args.String(1), args.Error(2)
}

func (m *MockMessageRepository) GetMessage(ctx context.Context, id string) (*gmail_v1.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gmail_v1.Message), args.Error(1)
}

func (m *MockMessageRepository) GetAttachmentData(ctx context.Context, messageID, attachmentID string) (string, error) {
	args := m.Called(ctx, messageID, attachmentID)
	return args.String(0), args.Error(1)
}

func (m *MockMessageRepository) UpdateMessage(ctx context.Context, id string, updates MessageUpdates) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

// fakePage is one scripted page of the remote listing
type fakePage struct {
	ids  []string
	next string
}

// fakeRepo is a scriptable in-memory MessageRepository. Pages are keyed
// by page token; messages not explicitly registered are synthesized.
type fakeRepo struct {
	mu        sync.Mutex
	pages     map[string]fakePage
	messages  map[string]*gmail_v1.Message
	msgErr    map[string]error
	attData   map[string]string // "msgID/attID" -> base64url data
	attErr    map[string]error
	updates   []fakeUpdate
	listErr   error
	updateErr error
}

type fakeUpdate struct {
	id      string
	updates MessageUpdates
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		pages:    make(map[string]fakePage),
		messages: make(map[string]*gmail_v1.Message),
		msgErr:   make(map[string]error),
		attData:  make(map[string]string),
		attErr:   make(map[string]error),
	}
}

func (f *fakeRepo) ListMessageIDs(ctx context.Context, maxResults int64, pageToken string) ([]string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	page, ok := f.pages[pageToken]
	if !ok {
		return nil, "", fmt.Errorf("unknown page token %q", pageToken)
	}
	return page.ids, page.next, nil
}

func (f *fakeRepo) GetMessage(ctx context.Context, id string) (*gmail_v1.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.msgErr[id]; err != nil {
		return nil, err
	}
	if msg, ok := f.messages[id]; ok {
		return msg, nil
	}
	return synthMessage(id), nil
}

func (f *fakeRepo) GetAttachmentData(ctx context.Context, messageID, attachmentID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := messageID + "/" + attachmentID
	if err := f.attErr[key]; err != nil {
		return "", err
	}
	return f.attData[key], nil
}

func (f *fakeRepo) UpdateMessage(ctx context.Context, id string, updates MessageUpdates) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, fakeUpdate{id: id, updates: updates})
	return nil
}

// synthMessage builds a plausible full message for an unregistered ID
func synthMessage(id string) *gmail_v1.Message {
	return &gmail_v1.Message{
		Id:       id,
		ThreadId: "thread-" + id,
		LabelIds: []string{"INBOX", "UNREAD"},
		Payload: &gmail_v1.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail_v1.MessagePartHeader{
				{Name: "From", Value: "sender@example.com"},
				{Name: "Subject", Value: "Message " + id},
				{Name: "Date", Value: "Mon, 02 Jan 2006 15:04:05 -0700"},
			},
			Body: &gmail_v1.MessagePartBody{
				Data: base64.RawURLEncoding.EncodeToString([]byte("body of " + id)),
			},
		},
	}
}

// fakeCache is an in-memory CacheService
type fakeCache struct {
	mu        sync.Mutex
	summaries map[string]string
	threads   map[string]string
	saveErr   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		summaries: make(map[string]string),
		threads:   make(map[string]string),
	}
}

func (c *fakeCache) GetSummary(ctx context.Context, accountEmail, messageID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.summaries[accountEmail+"/"+messageID]
	return s, ok
}

func (c *fakeCache) SaveSummary(ctx context.Context, accountEmail, messageID, summary string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	c.summaries[accountEmail+"/"+messageID] = summary
	return nil
}

func (c *fakeCache) InvalidateSummary(ctx context.Context, accountEmail, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.summaries, accountEmail+"/"+messageID)
	return nil
}

func (c *fakeCache) GetThreadSummary(ctx context.Context, accountEmail, threadID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.threads[accountEmail+"/"+threadID]
	return s, ok
}

func (c *fakeCache) SaveThreadSummary(ctx context.Context, accountEmail, threadID, summary string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	c.threads[accountEmail+"/"+threadID] = summary
	return nil
}

func (c *fakeCache) ClearAccount(ctx context.Context, accountEmail string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.summaries {
		if len(k) > len(accountEmail) && k[:len(accountEmail)+1] == accountEmail+"/" {
			delete(c.summaries, k)
		}
	}
	for k := range c.threads {
		if len(k) > len(accountEmail) && k[:len(accountEmail)+1] == accountEmail+"/" {
			delete(c.threads, k)
		}
	}
	return nil
}

// testEmail builds a minimal loaded email for store and view tests
func testEmail(id string, labels ...string) *gmail.Email {
	return &gmail.Email{
		ID:       id,
		ThreadID: "thread-" + id,
		From:     "sender@example.com",
		Subject:  "Message " + id,
		Labels:   labels,
		Category: CategoryOther,
	}
}
