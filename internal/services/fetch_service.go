package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/aluque/mailpilot/internal/gmail"
)

const (
	defaultPageSize   = 50
	defaultMaxWorkers = 10
)

// noSubjectPlaceholder replaces a missing Subject header
const noSubjectPlaceholder = "(No Subject)"

// FetchOptions configures the fetch pipeline
type FetchOptions struct {
	PageSize   int64
	MaxWorkers int
	BodyPolicy gmail.BodyPolicy
}

// FetchServiceImpl loads pages of messages, hydrates them concurrently
// and commits whole pages to the store. Only one fetch runs at a time.
type FetchServiceImpl struct {
	repo        MessageRepository
	categorizer Categorizer
	store       *EmailStore
	pageSize    int64
	maxWorkers  int
	bodyPolicy  gmail.BodyPolicy
	logger      *log.Logger

	mu            sync.Mutex
	inFlight      bool
	started       bool
	allLoaded     bool
	nextPageToken string
}

// NewFetchService creates a fetch service. repo may be nil when the
// account is not authenticated; every fetch is then a quiet no-op.
func NewFetchService(repo MessageRepository, categorizer Categorizer, store *EmailStore, opts FetchOptions) *FetchServiceImpl {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = defaultMaxWorkers
	}
	return &FetchServiceImpl{
		repo:        repo,
		categorizer: categorizer,
		store:       store,
		pageSize:    opts.PageSize,
		maxWorkers:  opts.MaxWorkers,
		bodyPolicy:  opts.BodyPolicy,
	}
}

// SetLogger sets the logger for debug output
func (s *FetchServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Refresh loads the first page and replaces the store contents
func (s *FetchServiceImpl) Refresh(ctx context.Context) (*FetchResult, error) {
	return s.fetchPage(ctx, "", false)
}

// LoadMore appends the next page. Before the first Refresh it behaves
// like Refresh; once the listing is exhausted it is a no-op.
func (s *FetchServiceImpl) LoadMore(ctx context.Context) (*FetchResult, error) {
	s.mu.Lock()
	started, allLoaded, token := s.started, s.allLoaded, s.nextPageToken
	s.mu.Unlock()

	if !started {
		return s.fetchPage(ctx, "", false)
	}
	if allLoaded {
		return nil, nil
	}
	return s.fetchPage(ctx, token, true)
}

// AllLoaded reports whether the remote listing has been exhausted
func (s *FetchServiceImpl) AllLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && s.allLoaded
}

// Reset clears the store and pagination state. Fetches already in
// flight will fail to commit their page.
func (s *FetchServiceImpl) Reset() {
	s.store.Reset()
	s.mu.Lock()
	s.started = false
	s.allLoaded = false
	s.nextPageToken = ""
	s.mu.Unlock()
}

func (s *FetchServiceImpl) fetchPage(ctx context.Context, pageToken string, appendPage bool) (*FetchResult, error) {
	if s.repo == nil {
		return nil, nil
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrFetchInFlight
	}
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	generation := s.store.Generation()

	ids, nextToken, err := s.repo.ListMessageIDs(ctx, s.pageSize, pageToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list message page: %w", err)
	}

	emails, err := s.hydrateAll(ctx, ids)
	if err != nil {
		// One failed message aborts the whole page; the store keeps
		// its previous contents.
		return nil, err
	}

	var committed bool
	if appendPage {
		committed = s.store.CompareAndAppend(generation, emails)
	} else {
		committed = s.store.CompareAndReplace(generation, emails)
	}
	if !committed {
		if s.logger != nil {
			s.logger.Printf("fetch: discarding %d emails from generation %d", len(emails), generation)
		}
		return nil, ErrStaleFetch
	}

	s.mu.Lock()
	s.started = true
	s.nextPageToken = nextToken
	s.allLoaded = nextToken == ""
	s.mu.Unlock()

	// The store owns the fetched emails; callers get clones
	cloned := make([]*gmail.Email, len(emails))
	for i, e := range emails {
		cloned[i] = e.Clone()
	}

	return &FetchResult{
		Emails:        cloned,
		NextPageToken: nextToken,
		Appended:      appendPage,
	}, nil
}

// hydrateAll fetches full messages concurrently, bounded by maxWorkers,
// and preserves the listing order in the result
func (s *FetchServiceImpl) hydrateAll(ctx context.Context, ids []string) ([]*gmail.Email, error) {
	emails := make([]*gmail.Email, len(ids))
	errs := make([]error, len(ids))

	sem := make(chan struct{}, s.maxWorkers)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			emails[i], errs[i] = s.hydrateOne(ctx, id)
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to fetch message %s: %w", ids[i], err)
		}
	}
	return emails, nil
}

func (s *FetchServiceImpl) hydrateOne(ctx context.Context, id string) (*gmail.Email, error) {
	msg, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	body, attachments := gmail.DecodePayload(msg.Payload, s.bodyPolicy)
	for i := range attachments {
		data, err := s.repo.GetAttachmentData(ctx, msg.Id, attachments[i].AttachmentID)
		if err != nil {
			// A missing attachment body degrades to metadata only
			if s.logger != nil {
				s.logger.Printf("fetch: attachment %s of message %s unavailable: %v",
					attachments[i].AttachmentID, msg.Id, err)
			}
			continue
		}
		attachments[i].Data = data
	}

	subject := gmail.ExtractHeader(msg, "Subject")
	if subject == "" {
		subject = noSubjectPlaceholder
	}
	labels := gmail.ExtractLabels(msg)

	email := &gmail.Email{
		ID:          msg.Id,
		ThreadID:    msg.ThreadId,
		From:        gmail.ExtractHeader(msg, "From"),
		Subject:     subject,
		Date:        gmail.ExtractHeader(msg, "Date"),
		Body:        body,
		Attachments: attachments,
		Labels:      labels,
		Unread:      containsLabel(labels, "UNREAD"),
		Starred:     containsLabel(labels, "STARRED"),
	}
	if s.categorizer != nil {
		email.Category = s.categorizer.Categorize(ctx, email)
	} else {
		email.Category = CategoryOther
	}
	return email, nil
}

func containsLabel(labels []string, id string) bool {
	for _, l := range labels {
		if l == id {
			return true
		}
	}
	return false
}
