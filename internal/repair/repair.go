// Package repair applies lossless, semantics-preserving fixes to an
// envelope that failed validation. Every default lives in one enumerated
// rule table so idempotence and the no-invented-enums invariant stay
// mechanically checkable. Repair never fixes enum rejections and never
// adds fields absent from the task's data schema.
package repair

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/kestrelworks/warden/internal/taxonomy"
	"github.com/kestrelworks/warden/pkg/models"
)

// DefaultConfidence fills a missing meta.confidence.
const DefaultConfidence = 0.5

// DefaultRisk fills a missing meta.risk.
const DefaultRisk = models.RiskMedium

// FallbackExplain fills meta.explain when no rationale exists to derive it from.
const FallbackExplain = "No explanation provided"

// derivedExplainLimit caps an explain derived from data.rationale.
const derivedExplainLimit = 200

// Rule is one entry in the repair table. Apply mutates the working copy
// and reports whether it changed anything.
type Rule struct {
	// Name identifies the rule in repair logs and envelopes.
	Name string
	// Apply performs the fix on the working copy.
	Apply func(env map[string]any, def *models.TaskDefinition) bool
}

// Table is the complete, ordered set of repairs. Nothing outside this
// table may modify a response.
var Table = []Rule{
	{Name: "trim_string_fields", Apply: trimStringFields},
	{Name: "fill_confidence", Apply: fillConfidence},
	{Name: "clamp_confidence", Apply: clampConfidence},
	{Name: "fill_risk", Apply: fillRisk},
	{Name: "fill_explain", Apply: fillExplain},
	{Name: "truncate_explain", Apply: truncateExplain},
	{Name: "backfill_rationale", Apply: backfillRationale},
}

// Run applies the repair table to a copy of the raw envelope and returns
// the repaired copy plus the names of the rules that changed it. The
// input is never mutated, and Run is idempotent: repairing an
// already-repaired envelope applies no rules.
func Run(raw map[string]any, def *models.TaskDefinition) (map[string]any, []string) {
	env := deepCopy(raw)
	var applied []string
	for _, rule := range Table {
		if rule.Apply(env, def) {
			applied = append(applied, rule.Name)
		}
	}
	return env, applied
}

// deepCopy clones an envelope map via a JSON round trip.
func deepCopy(m map[string]any) map[string]any {
	raw, err := json.Marshal(m)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// metaOf returns the meta object, creating it if absent.
func metaOf(env map[string]any) map[string]any {
	if meta, ok := env["meta"].(map[string]any); ok {
		return meta
	}
	meta := map[string]any{}
	env["meta"] = meta
	return meta
}

func fillConfidence(env map[string]any, _ *models.TaskDefinition) bool {
	meta := metaOf(env)
	if _, present := meta["confidence"]; present {
		return false
	}
	meta["confidence"] = DefaultConfidence
	return true
}

func clampConfidence(env map[string]any, _ *models.TaskDefinition) bool {
	meta := metaOf(env)
	c, ok := meta["confidence"].(float64)
	if !ok {
		return false
	}
	switch {
	case c < 0:
		meta["confidence"] = 0.0
	case c > 1:
		meta["confidence"] = 1.0
	default:
		return false
	}
	return true
}

func fillRisk(env map[string]any, _ *models.TaskDefinition) bool {
	meta := metaOf(env)
	if _, present := meta["risk"]; present {
		return false
	}
	meta["risk"] = string(DefaultRisk)
	return true
}

func fillExplain(env map[string]any, _ *models.TaskDefinition) bool {
	meta := metaOf(env)
	if _, present := meta["explain"]; present {
		return false
	}
	if data, ok := env["data"].(map[string]any); ok {
		if rationale, ok := data[models.KeyRationale].(string); ok && rationale != "" {
			meta["explain"] = taxonomy.Truncate(rationale, derivedExplainLimit)
			return true
		}
	}
	meta["explain"] = FallbackExplain
	return true
}

func truncateExplain(env map[string]any, _ *models.TaskDefinition) bool {
	meta := metaOf(env)
	s, ok := meta["explain"].(string)
	if !ok || utf8.RuneCountInString(s) <= models.MaxExplainLength {
		return false
	}
	meta["explain"] = taxonomy.Truncate(s, models.MaxExplainLength)
	return true
}

// backfillRationale mirrors meta.explain into data.rationale on success
// envelopes, but only when the data schema actually declares a rationale
// field. Repair must not add undeclared fields.
func backfillRationale(env map[string]any, def *models.TaskDefinition) bool {
	ok, _ := env["ok"].(bool)
	if !ok {
		return false
	}
	if def == nil || !def.Schemas.Data.HasField(models.KeyRationale) {
		return false
	}
	data, isMap := env["data"].(map[string]any)
	if !isMap {
		return false
	}
	if _, present := data[models.KeyRationale]; present {
		return false
	}
	meta := metaOf(env)
	explain, _ := meta["explain"].(string)
	if explain == "" {
		return false
	}
	data[models.KeyRationale] = explain
	return true
}

// trimStringFields removes leading and trailing whitespace from string
// values in meta.explain and throughout data. Enum-typed fields are left
// untouched: repair must never nudge an enum value into validity.
func trimStringFields(env map[string]any, def *models.TaskDefinition) bool {
	changed := false

	meta := metaOf(env)
	if s, ok := meta["explain"].(string); ok {
		if trimmed := strings.TrimSpace(s); trimmed != s {
			meta["explain"] = trimmed
			changed = true
		}
	}

	if data, ok := env["data"].(map[string]any); ok {
		var schema *models.Schema
		if def != nil {
			schema = def.Schemas.Data
		}
		if trimObject(data, fieldsOf(schema)) {
			changed = true
		}
	}
	return changed
}

// fieldsOf returns a schema's field map, or nil.
func fieldsOf(s *models.Schema) map[string]*models.Field {
	if s == nil {
		return nil
	}
	return s.Fields
}

// trimObject trims string members of obj in place, skipping members whose
// field description declares an enum.
func trimObject(obj map[string]any, fields map[string]*models.Field) bool {
	changed := false
	for name, val := range obj {
		field := fields[name]
		if field != nil && len(field.Enum) > 0 {
			continue
		}
		switch v := val.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != v {
				obj[name] = trimmed
				changed = true
			}
		case map[string]any:
			var sub map[string]*models.Field
			if field != nil {
				sub = field.Fields
			}
			if trimObject(v, sub) {
				changed = true
			}
		case []any:
			var item *models.Field
			if field != nil {
				item = field.Items
			}
			if trimArray(v, item) {
				changed = true
			}
		}
	}
	return changed
}

// trimArray trims string elements of arr in place, skipping arrays whose
// item description declares an enum.
func trimArray(arr []any, item *models.Field) bool {
	if item != nil && len(item.Enum) > 0 {
		return false
	}
	changed := false
	for i, val := range arr {
		switch v := val.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != v {
				arr[i] = trimmed
				changed = true
			}
		case map[string]any:
			var sub map[string]*models.Field
			if item != nil {
				sub = item.Fields
			}
			if trimObject(v, sub) {
				changed = true
			}
		}
	}
	return changed
}
