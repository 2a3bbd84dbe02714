package generation

import "encoding/json"

// StageKind identifies one of the three pipeline stages.
type StageKind string

const (
	StageProfile  StageKind = "profile"
	StageBilling  StageKind = "billing"
	StageAnalysis StageKind = "analysis"
)

// String returns the string representation of the stage kind.
func (s StageKind) String() string { return string(s) }

// Origin tags the provenance of a generated document.
type Origin string

const (
	OriginAI       Origin = "ai"
	OriginFallback Origin = "fallback"
)

// Request describes one constrained-generation task. Immutable once built.
type Request struct {
	Stage      StageKind
	Prompt     string
	MaxTokens  int
	Constraint Constraint
}

// Attempt records a single try against the inference gateway.
// Retained for diagnostics only; attempts are not persisted.
type Attempt struct {
	Number          int      `json:"attempt_number"`
	RawResponse     string   `json:"raw_response,omitempty"`
	ClassifiedError string   `json:"classified_error,omitempty"`
	Violations      []string `json:"validation_violations,omitempty"`
}

// Result is the terminal, immutable outcome of a stage. The payload is
// guaranteed to satisfy the request's constraint; the origin must always be
// reported downstream.
type Result struct {
	Stage    StageKind
	Payload  json.RawMessage
	Origin   Origin
	Attempts []Attempt
}
