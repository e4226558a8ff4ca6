// Package protocol parses the labeled-section replies produced by the
// generative backend. Parsing never fails past this boundary: malformed
// payloads degrade to documented sentinel values so a turn is never lost.
package protocol

import (
	"encoding/json"
	"strings"
)

// ErrorKind classifies a degraded parse. It is diagnostic, not fatal;
// callers render whatever the Reply carries.
type ErrorKind string

const (
	// KindMalformedRecordJSON: the RECORD DATA section was present but its
	// body was not valid JSON. The sentinel error document is substituted.
	KindMalformedRecordJSON ErrorKind = "malformed_record_json"
	// KindMalformedToolIntentJSON: the TOOL INTENT body was not valid JSON.
	// Tool intents are advisory, so the payload is simply dropped.
	KindMalformedToolIntentJSON ErrorKind = "malformed_tool_intent_json"
	// KindUnstructuredReply: no recognizable section labels; the whole text
	// is treated as the summary. Valid degraded output, not a failure.
	KindUnstructuredReply ErrorKind = "unstructured_reply"
)

// ErrorDocument is substituted for RecordData when the RECORD DATA body
// cannot be parsed. Callers must not treat non-nil RecordData as proof of a
// successful parse; the embedded error key signals failure.
var ErrorDocument = json.RawMessage(`{"error":"Failed to parse record JSON"}`)

// Reply is the structured result of parsing one raw backend reply.
type Reply struct {
	Summary    string
	RecordData json.RawMessage
	ToolIntent json.RawMessage
	Err        ErrorKind // empty when the reply parsed cleanly
}

// Parse extracts the summary, record document and tool intent from a raw
// reply. No section is required; a reply may legitimately contain only a
// summary (the greeting turn does).
func Parse(raw string) Reply {
	var r Reply
	var haveSummary, haveRecord bool

	for _, sec := range scanSections(raw) {
		switch sec.label {
		case LabelSummary:
			haveSummary = true
			r.Summary = strings.TrimSpace(sec.body)
		case LabelRecordData:
			haveRecord = true
			if data, ok := fencedJSON(sec.body); ok {
				r.RecordData = data
			} else {
				r.RecordData = ErrorDocument
				r.Err = KindMalformedRecordJSON
			}
		case LabelToolIntent:
			if data, ok := fencedJSON(sec.body); ok {
				r.ToolIntent = data
			} else if r.Err == "" {
				r.Err = KindMalformedToolIntentJSON
			}
		}
	}

	// Full fallback: the backend produced unstructured prose.
	if !haveSummary && !haveRecord {
		r.Summary = raw
		r.Err = KindUnstructuredReply
	}

	return r
}

// HasErrorMarker reports whether a structured payload is the sentinel error
// document (or any document carrying an error key).
func HasErrorMarker(data json.RawMessage) bool {
	if len(data) == 0 {
		return false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, ok := probe["error"]
	return ok
}

// fencedJSON extracts the single ```json fenced block from a section body
// and validates it.
func fencedJSON(body string) (json.RawMessage, bool) {
	const open = "```json"
	start := strings.Index(body, open)
	if start < 0 {
		return nil, false
	}
	rest := body[start+len(open):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return nil, false
	}

	payload := strings.TrimSpace(rest[:end])
	if payload == "" || !json.Valid([]byte(payload)) {
		return nil, false
	}
	return json.RawMessage(payload), true
}
