package risk

import (
	"testing"

	"github.com/kestrelworks/warden/pkg/models"
)

func changes(risks ...string) map[string]any {
	items := make([]any, 0, len(risks))
	for _, r := range risks {
		items = append(items, map[string]any{"risk": r})
	}
	return map[string]any{"changes": items}
}

func TestAggregate_MaxChangesRisk(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"max wins", changes("low", "high", "none"), "high"},
		{"single entry", changes("low"), "low"},
		{"none only", changes("none"), "none"},
		{"empty array defaults medium", map[string]any{"changes": []any{}}, "medium"},
		{"absent array defaults medium", map[string]any{}, "medium"},
		{"unknown literals do not rank", changes("critical", "low"), "low"},
		{"all entries invalid defaults medium", changes("critical", "severe"), "medium"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.data, models.RiskRuleMaxChanges, models.KnownEnum("low"))
			if got.Known != tt.want {
				t.Errorf("Aggregate() = %q, want %q", got.Known, tt.want)
			}
		})
	}
}

func TestAggregate_MaxIssuesRisk(t *testing.T) {
	data := map[string]any{"issues": []any{
		map[string]any{"risk": "medium"},
		map[string]any{"risk": "none"},
	}}
	if got := Aggregate(data, models.RiskRuleMaxIssues, models.KnownEnum("high")); got.Known != "medium" {
		t.Errorf("Aggregate() = %q, want %q", got.Known, "medium")
	}

	// Empty issues default to low, not medium.
	empty := map[string]any{"issues": []any{}}
	if got := Aggregate(empty, models.RiskRuleMaxIssues, models.KnownEnum("high")); got.Known != "low" {
		t.Errorf("Aggregate() = %q, want %q", got.Known, "low")
	}
}

func TestAggregate_OverwritesModelRisk(t *testing.T) {
	// Aggregation is authoritative: a model-declared high is replaced by
	// what the payload actually supports.
	got := Aggregate(changes("low"), models.RiskRuleMaxChanges, models.KnownEnum("high"))
	if got.Known != "low" {
		t.Errorf("Aggregate() = %q, want payload-derived %q", got.Known, "low")
	}
}

func TestAggregate_ExplicitTrustsModel(t *testing.T) {
	current := models.KnownEnum("high")
	got := Aggregate(changes("low"), models.RiskRuleExplicit, current)
	if got.Known != "high" {
		t.Errorf("Aggregate() = %q, want model-declared %q", got.Known, "high")
	}

	custom := models.EnumValue{Custom: &models.CustomValue{Custom: "regulatory", Reason: "audit"}}
	if got := Aggregate(changes("low"), models.RiskRuleExplicit, custom); !got.IsCustom() {
		t.Error("explicit rule should preserve a custom risk value")
	}
}

func TestAggregate_SkipsMalformedEntries(t *testing.T) {
	data := map[string]any{"changes": []any{
		"not an object",
		map[string]any{"risk": 3},
		map[string]any{"risk": "medium"},
	}}
	if got := Aggregate(data, models.RiskRuleMaxChanges, models.KnownEnum("none")); got.Known != "medium" {
		t.Errorf("Aggregate() = %q, want %q", got.Known, "medium")
	}
}
