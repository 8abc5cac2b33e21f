package taxonomy

import (
	"strings"
	"unicode/utf8"

	"github.com/kestrelworks/warden/pkg/models"
)

// Failure is an internal failure condition on its way to becoming a
// canonical error envelope.
type Failure struct {
	// Code is the taxonomy code.
	Code string
	// Detail is extra context appended to the entry's default message.
	Detail string
	// Suggestion overrides the entry's default suggestion when set.
	Suggestion string
	// PartialData is the best-effort payload, kept only if the task
	// allows partial failure payloads.
	PartialData map[string]any
}

// NewFailure builds a failure condition for a taxonomy code.
func NewFailure(code, detail string) *Failure {
	return &Failure{Code: code, Detail: detail}
}

// Build converts the failure into a canonical error envelope. Unknown
// codes fall back to a schema-violation entry rather than panicking;
// callers always receive a value.
func (f *Failure) Build(def *models.TaskDefinition) models.Envelope {
	entry, ok := registry[f.Code]
	if !ok {
		entry = registry[CodeSchemaViolation]
		entry.Code = f.Code
	}

	message := entry.Message
	if f.Detail != "" {
		message = entry.Message + ": " + f.Detail
	}
	suggestion := f.Suggestion
	if suggestion == "" {
		suggestion = entry.Suggestion
	}

	risk := models.RiskHigh
	if entry.Layer == LayerProcessing && entry.Recoverable {
		// Low-severity, retryable processing errors are not high risk.
		risk = models.RiskMedium
	}

	env := models.Envelope{
		OK: false,
		Meta: models.Meta{
			Confidence: 0.0,
			Risk:       models.KnownEnum(string(risk)),
			Explain:    Truncate(message, models.MaxExplainLength),
		},
		Error: &models.ErrorRecord{
			Code:        entry.Code,
			Message:     message,
			Recoverable: entry.Recoverable,
			Suggestion:  suggestion,
		},
	}

	if def != nil && def.PartialAllowed && len(f.PartialData) > 0 {
		env.PartialData = f.PartialData
	}
	return env
}

// Truncate shortens s to at most limit code points, replacing the tail
// with an ellipsis marker when it has to cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-3]) + "..."
}
