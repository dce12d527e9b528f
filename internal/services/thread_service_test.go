package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aluque/mailpilot/internal/gmail"
	"github.com/aluque/mailpilot/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threadEmail(id, threadID, date string) *gmail.Email {
	e := testEmail(id)
	e.ThreadID = threadID
	e.Date = date
	return e
}

func TestGroupByThread_SortsByDateAscending(t *testing.T) {
	svc := NewThreadService(nil, nil)

	// Load order is newest first, the thread must read oldest first
	emails := []*gmail.Email{
		threadEmail("third", "t1", "Wed, 03 Mar 2021 10:00:00 +0000"),
		threadEmail("first", "t1", "Mon, 01 Mar 2021 10:00:00 +0000"),
		threadEmail("second", "t1", "Tue, 02 Mar 2021 10:00:00 +0000"),
		threadEmail("solo", "t2", "Mon, 01 Mar 2021 09:00:00 +0000"),
	}

	threads := svc.GroupByThread(emails)
	require.Len(t, threads, 2)

	t1 := threads["t1"]
	require.Len(t, t1, 3)
	assert.Equal(t, "first", t1[0].ID)
	assert.Equal(t, "second", t1[1].ID)
	assert.Equal(t, "third", t1[2].ID)

	require.Len(t, threads["t2"], 1)
}

func TestGroupByThread_UnparseableDatesSortFirstStably(t *testing.T) {
	svc := NewThreadService(nil, nil)

	emails := []*gmail.Email{
		threadEmail("dated", "t1", "Tue, 02 Mar 2021 10:00:00 +0000"),
		threadEmail("garbled-a", "t1", "not a date"),
		threadEmail("garbled-b", "t1", ""),
	}

	t1 := svc.GroupByThread(emails)["t1"]
	require.Len(t, t1, 3)
	assert.Equal(t, "garbled-a", t1[0].ID)
	assert.Equal(t, "garbled-b", t1[1].ID)
	assert.Equal(t, "dated", t1[2].ID)
}

func TestGroupByThread_MissingThreadIDMakesSingleton(t *testing.T) {
	svc := NewThreadService(nil, nil)

	emails := []*gmail.Email{
		threadEmail("orphan", "", "Mon, 01 Mar 2021 10:00:00 +0000"),
		threadEmail("member", "t1", "Mon, 01 Mar 2021 10:00:00 +0000"),
	}

	threads := svc.GroupByThread(emails)
	require.Len(t, threads, 2)
	assert.Len(t, threads["orphan"], 1)
	assert.Len(t, threads["t1"], 1)
}

func TestThreadEmails(t *testing.T) {
	svc := NewThreadService(nil, nil)
	emails := []*gmail.Email{
		threadEmail("b", "t1", "Tue, 02 Mar 2021 10:00:00 +0000"),
		threadEmail("a", "t1", "Mon, 01 Mar 2021 10:00:00 +0000"),
		threadEmail("x", "t2", "Mon, 01 Mar 2021 10:00:00 +0000"),
	}

	thread := svc.ThreadEmails(emails, "t1")
	require.Len(t, thread, 2)
	assert.Equal(t, "a", thread[0].ID)
	assert.Equal(t, "b", thread[1].ID)

	assert.Empty(t, svc.ThreadEmails(emails, "t9"))
}

func TestThreadAttachments(t *testing.T) {
	svc := NewThreadService(nil, nil)

	older := threadEmail("a", "t1", "Mon, 01 Mar 2021 10:00:00 +0000")
	older.Attachments = []gmail.Attachment{{Filename: "one.pdf"}}
	newer := threadEmail("b", "t1", "Tue, 02 Mar 2021 10:00:00 +0000")
	newer.Attachments = []gmail.Attachment{{Filename: "two.pdf"}, {Filename: "three.png"}}

	// Attachments come back in conversation order regardless of load order
	atts := svc.ThreadAttachments([]*gmail.Email{newer, older}, "t1")
	require.Len(t, atts, 3)
	assert.Equal(t, "one.pdf", atts[0].Filename)
	assert.Equal(t, "two.pdf", atts[1].Filename)
	assert.Equal(t, "three.png", atts[2].Filename)
}

func TestSummarizeThread(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Emails []llm.ThreadMessage `json:"emails"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Emails, 2)
		_ = json.NewEncoder(w).Encode(map[string]string{"summary": "they agreed on Tuesday"})
	}))
	defer srv.Close()

	cache := newFakeCache()
	svc := NewThreadService(llm.NewClient(srv.URL, time.Second), cache)

	thread := []*gmail.Email{
		threadEmail("a", "t1", "Mon, 01 Mar 2021 10:00:00 +0000"),
		threadEmail("b", "t1", "Tue, 02 Mar 2021 10:00:00 +0000"),
	}
	opts := SummaryOptions{AccountEmail: "user@example.com", UseCache: true}

	res, err := svc.SummarizeThread(context.Background(), "user@example.com", "t1", thread, opts)
	require.NoError(t, err)
	assert.Equal(t, "they agreed on Tuesday", res.Summary)
	assert.False(t, res.FromCache)
	assert.Equal(t, int32(1), calls.Load())

	// Second call is served from cache
	res, err = svc.SummarizeThread(context.Background(), "user@example.com", "t1", thread, opts)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, int32(1), calls.Load())

	// Forcing regeneration hits the service again
	opts.ForceRegenerate = true
	res, err = svc.SummarizeThread(context.Background(), "user@example.com", "t1", thread, opts)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSummarizeThread_Errors(t *testing.T) {
	svc := NewThreadService(nil, nil)
	thread := []*gmail.Email{threadEmail("a", "t1", "")}

	_, err := svc.SummarizeThread(context.Background(), "user@example.com", "t1", thread, SummaryOptions{})
	assert.ErrorIs(t, err, ErrAINotConfigured)

	svc = NewThreadService(llm.NewClient("http://127.0.0.1:0", time.Second), nil)
	_, err = svc.SummarizeThread(context.Background(), "user@example.com", "", thread, SummaryOptions{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SummarizeThread(context.Background(), "user@example.com", "t1", nil, SummaryOptions{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
