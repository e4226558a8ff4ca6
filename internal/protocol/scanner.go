package protocol

import "strings"

// Section labels of the reply protocol, in the fixed order the backend is
// instructed to emit them.
const (
	LabelSummary    = "### SUMMARY"
	LabelRecordData = "### RECORD DATA"
	LabelToolIntent = "### TOOL INTENT"
)

var labelOrder = []string{LabelSummary, LabelRecordData, LabelToolIntent}

type section struct {
	label string
	body  string
}

// scanSections splits a raw reply into labeled sections. A label opens a
// section only when it stands alone on a line AND appears later in the
// fixed label order than the section currently open; anything else is body
// text. This keeps boundaries unambiguous even when the free-text content
// itself contains section-like substrings.
func scanSections(raw string) []section {
	lines := strings.Split(raw, "\n")

	var out []section
	current := -1 // index into labelOrder of the open section
	var body strings.Builder

	flush := func() {
		if current >= 0 {
			out = append(out, section{label: labelOrder[current], body: body.String()})
		}
		body.Reset()
	}

	for _, line := range lines {
		if idx, ok := matchLabel(line); ok && idx > current {
			flush()
			current = idx
			continue
		}
		if current >= 0 {
			if body.Len() > 0 {
				body.WriteString("\n")
			}
			body.WriteString(line)
		}
	}
	flush()

	return out
}

func matchLabel(line string) (int, bool) {
	trimmed := strings.TrimSpace(line)
	for i, label := range labelOrder {
		if trimmed == label {
			return i, true
		}
	}
	return 0, false
}
