// Package risk derives a single top-level risk level from the
// finer-grained risk annotations inside a validated payload.
package risk

import "github.com/kestrelworks/warden/pkg/models"

// Defaults when the aggregated array is empty or absent.
const (
	// DefaultChangesRisk applies under max_changes_risk.
	DefaultChangesRisk = models.RiskMedium
	// DefaultIssuesRisk applies under max_issues_risk.
	DefaultIssuesRisk = models.RiskLow
)

// Aggregate computes meta.risk for a success envelope. It runs only
// after validation passes and is the one step allowed to overwrite a
// model-provided risk, and only when the rule is not explicit.
func Aggregate(data map[string]any, rule models.RiskRule, current models.EnumValue) models.EnumValue {
	switch rule {
	case models.RiskRuleExplicit:
		return current
	case models.RiskRuleMaxIssues:
		return models.KnownEnum(string(maxRiskIn(data, models.KeyIssues, DefaultIssuesRisk)))
	default:
		return models.KnownEnum(string(maxRiskIn(data, models.KeyChanges, DefaultChangesRisk)))
	}
}

// maxRiskIn returns the maximum severity across data[key][*].risk using
// the fixed ordering none < low < medium < high. Entries that are not
// one of the four literals do not rank. An empty or absent array yields
// the rule's default.
func maxRiskIn(data map[string]any, key string, empty models.Risk) models.Risk {
	items, ok := data[key].([]any)
	if !ok || len(items) == 0 {
		return empty
	}

	found := false
	max := models.RiskNone
	for _, raw := range items {
		item, isMap := raw.(map[string]any)
		if !isMap {
			continue
		}
		r, isStr := item["risk"].(string)
		if !isStr || !models.Risk(r).Valid() {
			continue
		}
		found = true
		max = models.MaxRisk(max, models.Risk(r))
	}
	if !found {
		return empty
	}
	return max
}
