package taxonomy

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kestrelworks/warden/pkg/models"
)

func TestRecoverability(t *testing.T) {
	tests := []struct {
		code        string
		recoverable bool
	}{
		{CodeParseError, false},
		{CodeSchemaViolation, false},
		{CodeOverflowViolation, false},
		{CodeCircularCall, false},
		{CodeMaxDepthExceeded, false},
		{CodeProviderUnavailable, true},
		{CodeTimeout, true},
		{CodeLowConfidence, true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			entry, err := Lookup(tt.code)
			if err != nil {
				t.Fatalf("Lookup(%s): %v", tt.code, err)
			}
			if entry.Recoverable != tt.recoverable {
				t.Errorf("Recoverable = %v, want %v", entry.Recoverable, tt.recoverable)
			}
		})
	}
}

func TestLayerPrefixes(t *testing.T) {
	prefixes := map[Layer]string{
		LayerInput:      "E1",
		LayerProcessing: "E2",
		LayerOutput:     "E3",
		LayerRuntime:    "E4",
	}
	for code, entry := range registry {
		if !strings.HasPrefix(code, prefixes[entry.Layer]) {
			t.Errorf("code %s has layer %s, want prefix %s", code, entry.Layer, prefixes[entry.Layer])
		}
	}
}

func TestKnown(t *testing.T) {
	if !Known(CodeSchemaViolation) {
		t.Error("E3001 should be known")
	}
	if Known("E9999") {
		t.Error("E9999 should not be known")
	}
}

func TestBuild_Shape(t *testing.T) {
	env := NewFailure(CodeSchemaViolation, "missing summary").Build(nil)
	if env.OK {
		t.Error("error envelope must have ok=false")
	}
	if env.Meta.Confidence != 0.0 {
		t.Errorf("confidence = %v, want 0", env.Meta.Confidence)
	}
	if env.Meta.Risk.Known != string(models.RiskHigh) {
		t.Errorf("risk = %v, want high", env.Meta.Risk)
	}
	if env.Error == nil {
		t.Fatal("error object missing")
	}
	if env.Error.Code != CodeSchemaViolation {
		t.Errorf("code = %s, want %s", env.Error.Code, CodeSchemaViolation)
	}
	if !strings.Contains(env.Error.Message, "missing summary") {
		t.Errorf("message = %q, want detail appended", env.Error.Message)
	}
	if env.Error.Recoverable {
		t.Error("schema violations are not recoverable")
	}
}

func TestBuild_RecoverableProcessingIsMediumRisk(t *testing.T) {
	env := NewFailure(CodeTimeout, "").Build(nil)
	if env.Meta.Risk.Known != string(models.RiskMedium) {
		t.Errorf("risk = %v, want medium for a retryable processing error", env.Meta.Risk)
	}
}

func TestBuild_ExplainCapped(t *testing.T) {
	env := NewFailure(CodeSchemaViolation, strings.Repeat("v", 500)).Build(nil)
	if n := utf8.RuneCountInString(env.Meta.Explain); n > models.MaxExplainLength {
		t.Errorf("explain is %d code points, max %d", n, models.MaxExplainLength)
	}
}

func TestBuild_PartialDataGatedByTask(t *testing.T) {
	f := NewFailure(CodeSchemaViolation, "d")
	f.PartialData = map[string]any{"summary": "partial"}

	if env := f.Build(&models.TaskDefinition{PartialAllowed: false}); env.PartialData != nil {
		t.Error("partialData must be dropped when the task forbids it")
	}
	if env := f.Build(&models.TaskDefinition{PartialAllowed: true}); env.PartialData == nil {
		t.Error("partialData should survive when the task allows it")
	}
	if env := f.Build(nil); env.PartialData != nil {
		t.Error("partialData must be dropped without a task definition")
	}
}

func TestBuild_UnknownCodeFallsBack(t *testing.T) {
	env := NewFailure("E7777", "novel failure").Build(nil)
	if env.Error.Code != "E7777" {
		t.Errorf("code = %s, want original code preserved", env.Error.Code)
	}
	if env.OK {
		t.Error("fallback envelope must still have ok=false")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		limit   int
		wantLen int
	}{
		{"short untouched", "hello", 280, 5},
		{"exact limit untouched", strings.Repeat("a", 280), 280, 280},
		{"over limit cut to limit", strings.Repeat("a", 300), 280, 280},
		{"multibyte counted as code points", strings.Repeat("é", 300), 280, 280},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.limit)
			if n := utf8.RuneCountInString(got); n != tt.wantLen {
				t.Errorf("len = %d, want %d", n, tt.wantLen)
			}
			if utf8.RuneCountInString(tt.in) > tt.limit && !strings.HasSuffix(got, "...") {
				t.Errorf("truncated value %q should end with ellipsis", got)
			}
		})
	}
}
