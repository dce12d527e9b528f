package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pageIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%02d", prefix, i)
	}
	return ids
}

func newFetchService(repo MessageRepository) (*FetchServiceImpl, *EmailStore) {
	store := NewEmailStore()
	svc := NewFetchService(repo, NewCategorizer(nil), store, FetchOptions{MaxWorkers: 4})
	return svc, store
}

func TestFetchService_RefreshLoadsFirstPage(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[""] = fakePage{ids: []string{"a", "b", "c"}, next: "t2"}
	svc, store := newFetchService(repo)

	res, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "t2", res.NextPageToken)
	assert.False(t, res.Appended)
	assert.False(t, svc.AllLoaded())

	snap := store.Snapshot()
	require.Len(t, snap, 3)
	// Listing order survives the concurrent hydration
	assert.Equal(t, "a", snap[0].ID)
	assert.Equal(t, "b", snap[1].ID)
	assert.Equal(t, "c", snap[2].ID)

	assert.Equal(t, "sender@example.com", snap[0].From)
	assert.Equal(t, "body of a", snap[0].Body)
	assert.True(t, snap[0].Unread)
	assert.False(t, snap[0].Starred)
	assert.Equal(t, CategoryOther, snap[0].Category)
}

func TestFetchService_ResultIsIsolatedFromStore(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[""] = fakePage{ids: []string{"a"}}
	svc, store := newFetchService(repo)

	res, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Emails, 1)

	// Mutating the returned page must not reach the store
	res.Emails[0].Subject = "tampered"
	res.Emails[0].Labels[0] = "TAMPERED"

	stored, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Message a", stored.Subject)
	assert.Equal(t, []string{"INBOX", "UNREAD"}, stored.Labels)
}

func TestFetchService_LoadMoreAppendsNextPage(t *testing.T) {
	repo := newFakeRepo()
	first := pageIDs("first", 20)
	second := pageIDs("second", 15)
	repo.pages[""] = fakePage{ids: first, next: "t2"}
	repo.pages["t2"] = fakePage{ids: second, next: ""}
	svc, store := newFetchService(repo)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 20, store.Len())

	res, err := svc.LoadMore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Appended)
	assert.True(t, svc.AllLoaded())

	snap := store.Snapshot()
	require.Len(t, snap, 35)
	for i, id := range append(first, second...) {
		assert.Equal(t, id, snap[i].ID)
	}

	// Listing exhausted, further loads are no-ops
	res, err = svc.LoadMore(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 35, store.Len())
}

func TestFetchService_LoadMoreBeforeRefresh(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[""] = fakePage{ids: []string{"a"}, next: ""}
	svc, store := newFetchService(repo)

	res, err := svc.LoadMore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Appended)
	assert.Equal(t, 1, store.Len())
	assert.True(t, svc.AllLoaded())
}

func TestFetchService_NilRepoIsNoOp(t *testing.T) {
	svc, store := newFetchService(nil)

	res, err := svc.Refresh(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 0, store.Len())
}

func TestFetchService_MessageFailureAbortsPage(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[""] = fakePage{ids: []string{"good"}, next: ""}
	svc, store := newFetchService(repo)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	// One broken message on the next refresh keeps the old page intact
	repo.mu.Lock()
	repo.pages[""] = fakePage{ids: []string{"good", "broken"}, next: ""}
	repo.msgErr["broken"] = errors.New("backend exploded")
	repo.mu.Unlock()

	_, err = svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	snap := store.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "good", snap[0].ID)
}

func TestFetchService_AttachmentFailureDegrades(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[""] = fakePage{ids: []string{"m1"}, next: ""}
	repo.messages["m1"] = &gmail_v1.Message{
		Id:       "m1",
		ThreadId: "thread-m1",
		LabelIds: []string{"INBOX"},
		Payload: &gmail_v1.MessagePart{
			MimeType: "multipart/mixed",
			Headers: []*gmail_v1.MessagePartHeader{
				{Name: "From", Value: "sender@example.com"},
				{Name: "Date", Value: "Mon, 02 Jan 2006 15:04:05 -0700"},
			},
			Parts: []*gmail_v1.MessagePart{
				{
					MimeType: "text/plain",
					Body: &gmail_v1.MessagePartBody{
						Data: base64.RawURLEncoding.EncodeToString([]byte("see attached")),
					},
				},
				{
					MimeType: "application/pdf",
					Filename: "report.pdf",
					Body:     &gmail_v1.MessagePartBody{AttachmentId: "att-1", Size: 1234},
				},
				{
					MimeType: "image/png",
					Filename: "chart.png",
					Body:     &gmail_v1.MessagePartBody{AttachmentId: "att-2", Size: 99},
				},
			},
		},
	}
	repo.attErr["m1/att-1"] = errors.New("attachment gone")
	repo.attData["m1/att-2"] = "cGl4ZWxz"
	svc, store := newFetchService(repo)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	email, ok := store.Get("m1")
	require.True(t, ok)
	require.Len(t, email.Attachments, 2)
	// Failed attachment keeps its metadata but carries no data
	assert.Equal(t, "report.pdf", email.Attachments[0].Filename)
	assert.Empty(t, email.Attachments[0].Data)
	assert.Equal(t, "cGl4ZWxz", email.Attachments[1].Data)

	// Missing Subject header gets the placeholder
	assert.Equal(t, "(No Subject)", email.Subject)
}

func TestFetchService_CategorizerRuns(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[""] = fakePage{ids: []string{"m1"}, next: ""}
	repo.messages["m1"] = &gmail_v1.Message{
		Id:       "m1",
		ThreadId: "thread-m1",
		LabelIds: []string{"INBOX"},
		Payload: &gmail_v1.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail_v1.MessagePartHeader{
				{Name: "From", Value: "billing@bank.example.com"},
				{Name: "Subject", Value: "Your invoice is ready"},
			},
			Body: &gmail_v1.MessagePartBody{
				Data: base64.RawURLEncoding.EncodeToString([]byte("amount due")),
			},
		},
	}
	svc, store := newFetchService(repo)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	email, ok := store.Get("m1")
	require.True(t, ok)
	assert.Equal(t, CategoryFinance, email.Category)
}

// gatedRepo blocks ListMessageIDs until released so tests can observe a
// fetch mid-flight
type gatedRepo struct {
	*fakeRepo
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRepo) ListMessageIDs(ctx context.Context, maxResults int64, pageToken string) ([]string, string, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.fakeRepo.ListMessageIDs(ctx, maxResults, pageToken)
}

func TestFetchService_SecondFetchWhileInFlight(t *testing.T) {
	inner := newFakeRepo()
	inner.pages[""] = fakePage{ids: []string{"a"}, next: ""}
	repo := &gatedRepo{fakeRepo: inner, entered: make(chan struct{}), release: make(chan struct{})}
	svc, _ := newFetchService(repo)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background())
		done <- err
	}()

	<-repo.entered
	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrFetchInFlight)

	close(repo.release)
	require.NoError(t, <-done)
}

func TestFetchService_ResetDiscardsInFlightFetch(t *testing.T) {
	inner := newFakeRepo()
	inner.pages[""] = fakePage{ids: []string{"a"}, next: ""}
	repo := &gatedRepo{fakeRepo: inner, entered: make(chan struct{}), release: make(chan struct{})}
	svc, store := newFetchService(repo)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background())
		done <- err
	}()

	<-repo.entered
	svc.Reset()
	close(repo.release)

	assert.ErrorIs(t, <-done, ErrStaleFetch)
	assert.Equal(t, 0, store.Len())
}
