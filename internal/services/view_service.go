package services

import (
	"strings"

	"github.com/aluque/mailpilot/internal/gmail"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

// Built-in tab names
const (
	TabInbox    = "Inbox"
	TabSent     = "Sent"
	TabStarred  = "Starred"
	TabPriority = "Priority"
	TabMarked   = "Marked"
	TabArchive  = "Archive"
	TabTrash    = "Trash"
	TabSpam     = "Spam"
)

// BuiltinTabs lists the fixed tabs in display order. Category tabs and
// user label tabs follow them.
var BuiltinTabs = []string{
	TabInbox, TabSent, TabStarred, TabPriority,
	TabMarked, TabArchive, TabTrash, TabSpam,
}

// ViewServiceImpl derives visible email lists. It is stateless: every
// call is a pure function of its inputs, so a view is recomputed from
// the store snapshot after each mutation.
type ViewServiceImpl struct{}

// NewViewService creates a new view service
func NewViewService() *ViewServiceImpl {
	return &ViewServiceImpl{}
}

// SelectView filters emails for the active tab, preserving load order.
// Tab resolution order: exact remote label ID, built-in tabs, category
// tabs, then user labels matched by name. Unknown tabs show everything.
func (s *ViewServiceImpl) SelectView(emails []*gmail.Email, labels []*gmail_v1.Label, activeTab string) []*gmail.Email {
	match := s.tabPredicate(labels, activeTab)

	out := make([]*gmail.Email, 0, len(emails))
	for _, e := range emails {
		if match(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *ViewServiceImpl) tabPredicate(labels []*gmail_v1.Label, activeTab string) func(*gmail.Email) bool {
	// An exact remote label ID outranks every built-in tab name
	for _, label := range labels {
		if label.Id == activeTab {
			id := label.Id
			return func(e *gmail.Email) bool { return e.HasLabel(id) }
		}
	}

	switch activeTab {
	case TabInbox:
		return func(e *gmail.Email) bool { return e.HasLabel("INBOX") }
	case TabSent:
		return func(e *gmail.Email) bool { return e.HasLabel("SENT") }
	case TabStarred:
		return func(e *gmail.Email) bool { return e.Starred }
	case TabPriority:
		return func(e *gmail.Email) bool { return e.Priority }
	case TabMarked:
		return func(e *gmail.Email) bool { return e.Starred || e.Priority }
	case TabArchive:
		return func(e *gmail.Email) bool {
			return !e.HasLabel("INBOX") && !e.HasLabel("SENT") &&
				!e.HasLabel("TRASH") && !e.HasLabel("SPAM")
		}
	case TabTrash:
		return func(e *gmail.Email) bool { return e.HasLabel("TRASH") }
	case TabSpam:
		return func(e *gmail.Email) bool { return e.HasLabel("SPAM") }
	}

	if IsKnownCategory(activeTab) {
		return func(e *gmail.Email) bool { return e.Category == activeTab }
	}

	for _, label := range labels {
		if label.Name == activeTab {
			id := label.Id
			return func(e *gmail.Email) bool { return e.HasLabel(id) }
		}
	}

	return func(*gmail.Email) bool { return true }
}

// Search filters emails by case-insensitive substring match over
// sender, subject and body. A blank query returns everything.
func (s *ViewServiceImpl) Search(emails []*gmail.Email, query string) []*gmail.Email {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return emails
	}

	out := make([]*gmail.Email, 0, len(emails))
	for _, e := range emails {
		if strings.Contains(strings.ToLower(e.From), query) ||
			strings.Contains(strings.ToLower(e.Subject), query) ||
			strings.Contains(strings.ToLower(e.Body), query) {
			out = append(out, e)
		}
	}
	return out
}

// NextSelection picks the email to select after removedID leaves the
// view: the next one in view order, else the previous one, else none
func (s *ViewServiceImpl) NextSelection(view []*gmail.Email, removedID string) string {
	for i, e := range view {
		if e.ID != removedID {
			continue
		}
		if i+1 < len(view) {
			return view[i+1].ID
		}
		if i > 0 {
			return view[i-1].ID
		}
		return ""
	}
	return ""
}

// TabCounts computes the badge count of every tab: the built-ins, the
// six categories, and each user label keyed by label ID
func (s *ViewServiceImpl) TabCounts(emails []*gmail.Email, labels []*gmail_v1.Label) map[string]int {
	counts := make(map[string]int, len(BuiltinTabs)+len(KnownCategories)+len(labels))

	tabs := make([]string, 0, len(BuiltinTabs)+len(KnownCategories)+len(labels))
	tabs = append(tabs, BuiltinTabs...)
	tabs = append(tabs, KnownCategories...)
	for _, label := range labels {
		tabs = append(tabs, label.Id)
	}

	for _, tab := range tabs {
		match := s.tabPredicate(labels, tab)
		n := 0
		for _, e := range emails {
			if match(e) {
				n++
			}
		}
		counts[tab] = n
	}
	return counts
}
