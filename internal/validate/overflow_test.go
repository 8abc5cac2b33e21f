package validate

import (
	"strings"
	"testing"

	"github.com/kestrelworks/warden/internal/taxonomy"
	"github.com/kestrelworks/warden/pkg/models"
)

func insightData(insights ...map[string]any) map[string]any {
	list := make([]any, 0, len(insights))
	for _, i := range insights {
		list = append(list, i)
	}
	return map[string]any{
		"summary":    "s",
		"extensions": map[string]any{"insights": list},
	}
}

func TestCheckOverflow(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		cfg      models.OverflowConfig
		fragment string
	}{
		{
			"no insights no config ok",
			map[string]any{"summary": "s"},
			models.OverflowConfig{},
			"",
		},
		{
			"within limit ok",
			insightData(map[string]any{"text": "found a thing"}),
			models.OverflowConfig{Enabled: true, MaxItems: 5},
			"",
		},
		{
			"insights while disabled",
			insightData(map[string]any{"text": "t"}),
			models.OverflowConfig{},
			"overflow is disabled",
		},
		{
			"over the limit",
			insightData(
				map[string]any{"text": "a"},
				map[string]any{"text": "b"},
				map[string]any{"text": "c"},
			),
			models.OverflowConfig{Enabled: true, MaxItems: 2},
			"max 2",
		},
		{
			"insight without text",
			insightData(map[string]any{"evidence": "only"}),
			models.OverflowConfig{Enabled: true, MaxItems: 5},
			"has no text",
		},
		{
			"mapping required but absent",
			insightData(map[string]any{"text": "t"}),
			models.OverflowConfig{Enabled: true, MaxItems: 5, RequireSuggestedMapping: true},
			"has no suggestedMapping",
		},
		{
			"mapping required and present",
			insightData(map[string]any{"text": "t", "suggestedMapping": "data.notes"}),
			models.OverflowConfig{Enabled: true, MaxItems: 5, RequireSuggestedMapping: true},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := checkOverflow(tt.data, tt.cfg)
			if tt.fragment == "" {
				if len(violations) != 0 {
					t.Errorf("checkOverflow() = %v, want none", violations)
				}
				return
			}
			if len(violations) == 0 {
				t.Fatal("checkOverflow() passed, want violation")
			}
			if !strings.Contains(strings.Join(violations, "; "), tt.fragment) {
				t.Errorf("violations %v, want fragment %q", violations, tt.fragment)
			}
		})
	}
}

func TestValidate_OverflowClass(t *testing.T) {
	def := testDefinition(models.TierExec)
	def.Overflow = &models.OverflowConfig{Enabled: true, MaxItems: 1}

	env := validEnvelope()
	env["data"] = insightData(
		map[string]any{"text": "a"},
		map[string]any{"text": "b"},
	)

	v := newTestValidator(t, def)
	f := v.Validate(env)
	if f == nil {
		t.Fatal("Validate() passed, want overflow failure")
	}
	if f.Class != RuleOverflow {
		t.Errorf("Class = %s, want %s", f.Class, RuleOverflow)
	}
	if f.Code != taxonomy.CodeOverflowViolation {
		t.Errorf("Code = %s, want %s", f.Code, taxonomy.CodeOverflowViolation)
	}
	if f.PartialData == nil {
		t.Error("overflow failure should capture the payload")
	}
}
