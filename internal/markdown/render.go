// Package markdown renders the assistant's free-text summaries into safe
// display markup. It supports a deliberately small dialect: ^^highlight^^
// spans, **bold**, "* " list items and paragraphs.
package markdown

import (
	"html"
	"regexp"
	"strings"
)

var (
	highlightRe = regexp.MustCompile(`\^\^(.*?)\^\^`)
	boldRe      = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// Render converts summary text to HTML. Input is escaped first, so raw
// markup in the source text cannot reach the page. Inline transforms run
// before block segmentation; unterminated delimiters are left literal.
func Render(text string) string {
	s := html.EscapeString(text)

	// Inline elements. The patterns do not cross line boundaries.
	s = highlightRe.ReplaceAllString(s, "<mark>$1</mark>")
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")

	// Block elements: contiguous list items share one container, any other
	// non-empty line becomes its own paragraph.
	var b strings.Builder
	inList := false
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "* ") {
			if !inList {
				b.WriteString("<ul>")
				inList = true
			}
			b.WriteString("<li>")
			b.WriteString(trimmed[2:])
			b.WriteString("</li>")
			continue
		}
		if inList {
			b.WriteString("</ul>")
			inList = false
		}
		if trimmed != "" {
			b.WriteString("<p>")
			b.WriteString(trimmed)
			b.WriteString("</p>")
		}
	}
	if inList {
		b.WriteString("</ul>")
	}

	return b.String()
}
