package validate

import (
	"fmt"

	"github.com/kestrelworks/warden/pkg/models"
)

// checkOverflow enforces the recoverable-insight sidecar limits on
// data.extensions.insights. Violations are never auto-repaired:
// truncating the array would discard information silently.
func checkOverflow(data map[string]any, cfg models.OverflowConfig) []string {
	insights := insightList(data)
	if len(insights) == 0 {
		return nil
	}

	if !cfg.Enabled {
		return []string{"extensions.insights present but overflow is disabled for this task"}
	}

	var violations []string
	if len(insights) > cfg.MaxItems {
		violations = append(violations,
			fmt.Sprintf("extensions.insights has %d items, max %d", len(insights), cfg.MaxItems))
	}

	for i, raw := range insights {
		item, ok := raw.(map[string]any)
		if !ok {
			violations = append(violations,
				fmt.Sprintf("extensions.insights[%d] is not an object", i))
			continue
		}
		text, _ := item["text"].(string)
		if text == "" {
			violations = append(violations,
				fmt.Sprintf("extensions.insights[%d] has no text", i))
		}
		if cfg.RequireSuggestedMapping {
			mapping, _ := item["suggestedMapping"].(string)
			if mapping == "" {
				violations = append(violations,
					fmt.Sprintf("extensions.insights[%d] has no suggestedMapping", i))
			}
		}
	}
	return violations
}

// insightList extracts the raw insight array from a payload, if any.
func insightList(data map[string]any) []any {
	ext, ok := data[models.KeyExtensions].(map[string]any)
	if !ok {
		return nil
	}
	list, ok := ext[models.KeyInsights].([]any)
	if !ok {
		return nil
	}
	return list
}
