// Package taxonomy defines the layered error-code registry and builds
// canonical error envelopes from failure conditions.
package taxonomy

import "fmt"

// Layer identifies which stage of the pipeline a code belongs to.
type Layer string

const (
	// LayerInput covers malformed or incomplete caller input (E1xxx).
	LayerInput Layer = "input"
	// LayerProcessing covers engine-side processing failures (E2xxx).
	LayerProcessing Layer = "processing"
	// LayerOutput covers contract violations in the response (E3xxx).
	LayerOutput Layer = "output"
	// LayerRuntime covers provider and composition failures (E4xxx).
	LayerRuntime Layer = "runtime"
)

// Taxonomy codes. Recoverability is a static property of each entry,
// not computed per call.
const (
	// CodeParseError: no JSON value could be extracted from the raw response.
	CodeParseError = "E1000"
	// CodeMalformedInput: the task definition or caller input was invalid.
	CodeMalformedInput = "E1001"
	// CodeMissingInput: a required input field was absent.
	CodeMissingInput = "E1002"
	// CodeLowConfidence: reported confidence fell below the task threshold.
	CodeLowConfidence = "E2001"
	// CodeTimeout: the caller's timeout budget was exceeded.
	CodeTimeout = "E2004"
	// CodeSchemaViolation: the envelope or payload violated its contract.
	CodeSchemaViolation = "E3001"
	// CodeOverflowViolation: the insight sidecar broke its bounds.
	CodeOverflowViolation = "E3004"
	// CodeProviderUnavailable: the execution function failed outright.
	CodeProviderUnavailable = "E4001"
	// CodeCircularCall: a task called itself, directly or transitively.
	CodeCircularCall = "E4004"
	// CodeMaxDepthExceeded: the composition tree went deeper than allowed.
	CodeMaxDepthExceeded = "E4005"
)

// Entry describes one taxonomy code.
type Entry struct {
	// Code is the stable identifier (e.g. E3001).
	Code string
	// Layer is the pipeline stage the code belongs to.
	Layer Layer
	// Message is the default human-readable description.
	Message string
	// Recoverable indicates whether a retry could plausibly succeed.
	Recoverable bool
	// Suggestion is the default remediation hint, if any.
	Suggestion string
}

var registry = map[string]Entry{
	CodeParseError: {
		Code:        CodeParseError,
		Layer:       LayerInput,
		Message:     "no JSON value found in response",
		Recoverable: false,
		Suggestion:  "ensure the model emits a single JSON object, optionally fenced",
	},
	CodeMalformedInput: {
		Code:        CodeMalformedInput,
		Layer:       LayerInput,
		Message:     "malformed input",
		Recoverable: true,
	},
	CodeMissingInput: {
		Code:        CodeMissingInput,
		Layer:       LayerInput,
		Message:     "required input field missing",
		Recoverable: true,
	},
	CodeLowConfidence: {
		Code:        CodeLowConfidence,
		Layer:       LayerProcessing,
		Message:     "confidence below task threshold",
		Recoverable: true,
		Suggestion:  "retry with a narrower prompt or lower the threshold",
	},
	CodeTimeout: {
		Code:        CodeTimeout,
		Layer:       LayerProcessing,
		Message:     "call budget exceeded",
		Recoverable: true,
	},
	CodeSchemaViolation: {
		Code:        CodeSchemaViolation,
		Layer:       LayerOutput,
		Message:     "response violates the task contract",
		Recoverable: false,
	},
	CodeOverflowViolation: {
		Code:        CodeOverflowViolation,
		Layer:       LayerOutput,
		Message:     "insight overflow limits violated",
		Recoverable: false,
	},
	CodeProviderUnavailable: {
		Code:        CodeProviderUnavailable,
		Layer:       LayerRuntime,
		Message:     "provider call failed",
		Recoverable: true,
		Suggestion:  "retry once the provider is reachable",
	},
	CodeCircularCall: {
		Code:        CodeCircularCall,
		Layer:       LayerRuntime,
		Message:     "circular task dependency detected",
		Recoverable: false,
	},
	CodeMaxDepthExceeded: {
		Code:        CodeMaxDepthExceeded,
		Layer:       LayerRuntime,
		Message:     "maximum composition depth exceeded",
		Recoverable: false,
	},
}

// Lookup returns the registry entry for a code.
func Lookup(code string) (Entry, error) {
	e, ok := registry[code]
	if !ok {
		return Entry{}, fmt.Errorf("unknown taxonomy code %q", code)
	}
	return e, nil
}

// Known returns true if the code exists in the registry.
func Known(code string) bool {
	_, ok := registry[code]
	return ok
}
