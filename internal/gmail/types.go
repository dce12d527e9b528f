package gmail

// Attachment describes one attachment part of a message. Data is empty until
// the attachment bytes are fetched in a second round-trip; it holds base64url
// content exactly as returned by the attachments endpoint.
type Attachment struct {
	Filename     string
	MimeType     string
	AttachmentID string
	Size         int64
	Data         string
}

// Email is the canonical in-memory unit of mail: headers, a single rendered
// body, attachment descriptors, and the label set that drives folder
// membership. Starred mirrors the STARRED label but is tracked as a local
// optimistic flag; Priority and Unread are local-only.
type Email struct {
	ID          string
	ThreadID    string
	From        string
	Subject     string
	Date        string
	Body        string
	Attachments []Attachment
	Labels      []string
	Starred     bool
	Priority    bool
	Unread      bool
	Category    string
}

// HasLabel reports whether the email carries the given label ID.
func (e *Email) HasLabel(labelID string) bool {
	for _, l := range e.Labels {
		if l == labelID {
			return true
		}
	}
	return false
}

// AddLabel appends labelID if not already present.
func (e *Email) AddLabel(labelID string) {
	if !e.HasLabel(labelID) {
		e.Labels = append(e.Labels, labelID)
	}
}

// RemoveLabel drops labelID from the label set if present.
func (e *Email) RemoveLabel(labelID string) {
	out := e.Labels[:0]
	for _, l := range e.Labels {
		if l != labelID {
			out = append(out, l)
		}
	}
	e.Labels = out
}

// Clone returns a deep copy so readers never alias writer-owned state.
func (e *Email) Clone() *Email {
	c := *e
	c.Labels = append([]string(nil), e.Labels...)
	c.Attachments = append([]Attachment(nil), e.Attachments...)
	return &c
}
