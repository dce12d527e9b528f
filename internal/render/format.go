// Package render flattens email bodies into plain text suitable for the AI
// service and for terminal output.
package render

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var multiSpace = regexp.MustCompile(`[ \t]{2,}`)
var multiNewline = regexp.MustCompile(`\n{3,}`)

// skippedElements are containers whose text content is never part of the
// readable body.
var skippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
}

// blockElements force a line break when closed so flattened text keeps
// paragraph structure.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "table": true, "ul": true, "ol": true,
}

// HTMLToText strips markup from an HTML body and returns readable text.
// Input that fails to tokenize degrades to being returned as-is.
func HTMLToText(input string) string {
	if !strings.Contains(input, "<") {
		return strings.TrimSpace(input)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(input))
	var sb strings.Builder
	var skipDepth int

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF is the normal end; anything else means partial input,
			// keep whatever text was collected
			return collapseWhitespace(sb.String())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skippedElements[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skippedElements[tag] && skipDepth > 0 {
				skipDepth--
			}
			if blockElements[tag] && skipDepth == 0 {
				sb.WriteString("\n")
			}
		case html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "br" && skipDepth == 0 {
				sb.WriteString("\n")
			}
		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(tokenizer.Text())
			}
		}
	}
}

func collapseWhitespace(s string) string {
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewline.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Truncate cuts text to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
