package gmail

import (
	"encoding/base64"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"google.golang.org/api/gmail/v1"
)

// BodyPolicy resolves the ambiguity of multipart/alternative messages that
// carry more than one renderable body part.
type BodyPolicy int

const (
	// BodyPreferHTML keeps the last text/html part when any exists,
	// otherwise the last text/plain part. This is the default.
	BodyPreferHTML BodyPolicy = iota
	// BodyLastWins keeps whichever qualifying part the pre-order walk
	// visited last, regardless of MIME type.
	BodyLastWins
)

// htmlPolicy sanitizes HTML bodies so they are safe to hand to a renderer.
var htmlPolicy = bluemonday.UGCPolicy()

// DecodePayload flattens a message payload tree into a single rendered body
// and a flat list of attachment descriptors.
//
// The walk is depth-first, pre-order over Parts. Any part carrying both a
// filename and an attachment ID is recorded as an attachment regardless of
// its MIME type; it never contributes to the body. Parts whose MIME type is
// exactly text/plain or text/html with inline data contribute body
// candidates, resolved per policy.
func DecodePayload(payload *gmail.MessagePart, policy BodyPolicy) (string, []Attachment) {
	if payload == nil {
		return "", []Attachment{}
	}

	w := &payloadWalker{policy: policy, attachments: []Attachment{}}
	w.walk(payload)

	body := w.lastBody
	if policy == BodyPreferHTML {
		if w.htmlSeen {
			body = w.htmlBody
		} else {
			body = w.plainBody
		}
	}

	return body, w.attachments
}

type payloadWalker struct {
	policy      BodyPolicy
	attachments []Attachment

	lastBody  string
	plainBody string
	htmlBody  string
	htmlSeen  bool
}

func (w *payloadWalker) walk(part *gmail.MessagePart) {
	if part == nil {
		return
	}

	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		w.attachments = append(w.attachments, Attachment{
			Filename:     part.Filename,
			MimeType:     part.MimeType,
			AttachmentID: part.Body.AttachmentId,
			Size:         part.Body.Size,
		})
	} else if part.Body != nil && part.Body.Data != "" {
		switch part.MimeType {
		case "text/plain":
			text := decodeBase64URLText(part.Body.Data)
			w.lastBody = text
			w.plainBody = text
		case "text/html":
			text := htmlPolicy.Sanitize(decodeBase64URLText(part.Body.Data))
			w.lastBody = text
			w.htmlBody = text
			w.htmlSeen = true
		}
	}

	for _, p := range part.Parts {
		w.walk(p)
	}
}

// decodeBase64URLText decodes base64url content (`-`→`+`, `_`→`/`, then
// standard base64) into UTF-8 text. A decode failure degrades to returning
// the raw input rather than failing the whole message.
func decodeBase64URLText(data string) string {
	translated := strings.NewReplacer("-", "+", "_", "/").Replace(data)
	if pad := len(translated) % 4; pad != 0 {
		translated += strings.Repeat("=", 4-pad)
	}

	decoded, err := base64.StdEncoding.DecodeString(translated)
	if err != nil {
		return data
	}

	return string(decoded)
}
