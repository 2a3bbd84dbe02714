package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ViolationUnparseable is the single violation reported when no well-formed
// JSON block could be extracted from a response.
const ViolationUnparseable = "unparseable"

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON pulls the first well-formed JSON block out of text that may be
// wrapped in incidental formatting noise (leading prose, code fences,
// trailing commentary). Returns false when no valid block exists.
func ExtractJSON(text string) (json.RawMessage, bool) {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return nil, false
	}
	end := strings.LastIndexAny(text, "]}")
	if end < start {
		return nil, false
	}

	block := []byte(text[start : end+1])
	if !json.Valid(block) {
		return nil, false
	}
	return block, true
}

// Validate checks a raw response against a constraint. It returns the
// extracted JSON payload and an ordered list of violations; an empty list
// means the document is valid. Any violation invalidates the whole document.
func Validate(raw string, c Constraint) (json.RawMessage, []string) {
	payload, ok := ExtractJSON(raw)
	if !ok {
		return nil, []string{ViolationUnparseable}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(c.JSONSchema()),
		gojsonschema.NewBytesLoader(payload),
	)
	if err != nil {
		return nil, []string{ViolationUnparseable}
	}

	if result.Valid() {
		return payload, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return payload, violations
}
