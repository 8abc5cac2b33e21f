package models

import "encoding/json"

// Well-known payload keys the engine treats specially.
const (
	// KeyExtensions is the data field reserved for schema-free extras.
	KeyExtensions = "extensions"
	// KeyInsights is the extensions field holding overflow insights.
	KeyInsights = "insights"
	// KeyRationale is the data field mirroring meta.explain on success.
	KeyRationale = "rationale"
	// KeyChanges is the data field aggregated by the max_changes_risk rule.
	KeyChanges = "changes"
	// KeyIssues is the data field aggregated by the max_issues_risk rule.
	KeyIssues = "issues"
)

// MaxExplainLength is the hard cap on meta.explain, in code points.
const MaxExplainLength = 280

// Meta carries the self-assessment every envelope must include.
type Meta struct {
	// Confidence is the model's confidence in the result, in [0,1].
	Confidence float64 `json:"confidence"`
	// Risk is the overall risk level: a known literal, or a custom
	// value under the extensible enum strategy.
	Risk EnumValue `json:"risk"`
	// Explain is a short human-readable justification, at most 280 code points.
	Explain string `json:"explain"`
	// TraceID identifies the engine invocation that produced this envelope.
	TraceID string `json:"traceId,omitempty"`
	// Task is the name of the task that produced this envelope.
	Task string `json:"task,omitempty"`
	// Repaired is true if the repair pass modified the response.
	Repaired bool `json:"repaired,omitempty"`
}

// ErrorRecord describes a failure in a canonical error envelope.
// Immutable once built.
type ErrorRecord struct {
	// Code is the taxonomy identifier (e.g. E3001).
	Code string `json:"code"`
	// Message is a human-readable description of the failure.
	Message string `json:"message"`
	// Recoverable indicates whether a retry could plausibly succeed.
	Recoverable bool `json:"recoverable"`
	// Suggestion optionally tells the caller what to try instead.
	Suggestion string `json:"suggestion,omitempty"`
}

// Insight is a recoverable observation outside the main payload schema,
// collected under data.extensions.insights.
type Insight struct {
	// Text is the observation itself.
	Text string `json:"text"`
	// SuggestedMapping names the schema field the observation relates to.
	SuggestedMapping string `json:"suggestedMapping,omitempty"`
	// Evidence optionally cites where the observation came from.
	Evidence string `json:"evidence,omitempty"`
}

// Envelope is the fixed wrapper shape returned by every invocation.
// Exactly one of Data or Error is present, determined by OK. PartialData
// may accompany a failure only when the task allows partial payloads.
type Envelope struct {
	// OK is true when the task produced a valid result.
	OK bool `json:"ok"`
	// Meta is the required self-assessment block.
	Meta Meta `json:"meta"`
	// Data is the validated payload, present only when OK is true.
	Data map[string]any `json:"data,omitempty"`
	// Error describes the failure, present only when OK is false.
	Error *ErrorRecord `json:"error,omitempty"`
	// PartialData is the best-effort payload accompanying a failure.
	PartialData map[string]any `json:"partialData,omitempty"`
}

// EnvelopeFromMap converts a raw parsed response into a typed Envelope.
// It assumes the map has already passed envelope validation.
func EnvelopeFromMap(m map[string]any) (Envelope, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return Envelope{}, err
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
