// Package validate checks raw LLM responses against the two-layer
// contract: the fixed envelope wrapper plus the task's payload schema.
package validate

import (
	"fmt"
	"unicode/utf8"

	"github.com/kestrelworks/warden/internal/policy"
	"github.com/kestrelworks/warden/internal/taxonomy"
	"github.com/kestrelworks/warden/pkg/models"
)

// RuleClass identifies which validation rule class failed. Validation
// short-circuits on the first failing class but accumulates all
// violations within that class.
type RuleClass string

const (
	// RuleShape covers the ok/data/error/partialData exclusivity rule.
	RuleShape RuleClass = "shape"
	// RuleMeta covers the confidence/risk/explain contracts.
	RuleMeta RuleClass = "meta"
	// RulePayload covers the data schema on the success path.
	RulePayload RuleClass = "payload"
	// RuleOverflow covers the insight sidecar limits.
	RuleOverflow RuleClass = "overflow"
	// RuleErrorObject covers the error object on the failure path.
	RuleErrorObject RuleClass = "error_object"
)

// Failure reports a failed validation: the violated rule class, every
// violation within it, and the best-available partial payload.
type Failure struct {
	// Class is the rule class that failed.
	Class RuleClass
	// Code is the taxonomy code for this class of violation.
	Code string
	// Violations lists every violation found within the class.
	Violations []string
	// PartialData is the attempted payload, for downstream repair.
	PartialData map[string]any
}

// Detail joins the violations into a single diagnostic string.
func (f *Failure) Detail() string {
	detail := ""
	for i, v := range f.Violations {
		if i > 0 {
			detail += "; "
		}
		detail += v
	}
	return detail
}

// Validator checks envelope maps against one task's effective policy.
type Validator struct {
	def   *models.TaskDefinition
	pol   policy.Policy
	warnf func(format string, args ...any)
}

// New creates a validator for a task definition and its resolved policy.
func New(def *models.TaskDefinition, pol policy.Policy) *Validator {
	return &Validator{def: def, pol: pol, warnf: func(string, ...any) {}}
}

// SetWarnLog sets the sink for soft warnings (e.g. unrecognized error
// codes). No-op sink by default.
func (v *Validator) SetWarnLog(fn func(format string, args ...any)) {
	if fn != nil {
		v.warnf = fn
	}
}

// Validate checks a raw envelope map. It returns nil on pass, or a
// Failure for the first rule class that was violated.
func (v *Validator) Validate(raw map[string]any) *Failure {
	if f := v.checkShape(raw); f != nil {
		return f
	}
	if f := v.checkMeta(raw); f != nil {
		return f
	}

	ok, _ := raw["ok"].(bool)
	if ok {
		data, _ := raw["data"].(map[string]any)
		if f := v.checkPayload(data); f != nil {
			return f
		}
		if violations := checkOverflow(data, v.pol.Overflow); len(violations) > 0 {
			return &Failure{
				Class:       RuleOverflow,
				Code:        taxonomy.CodeOverflowViolation,
				Violations:  violations,
				PartialData: data,
			}
		}
		return nil
	}
	return v.checkErrorObject(raw)
}

// checkShape enforces the exclusivity rule: ok=true means data present
// and error/partialData absent; ok=false means error present, data
// absent, and partialData only when the task allows it.
func (v *Validator) checkShape(raw map[string]any) *Failure {
	var violations []string

	okVal, present := raw["ok"]
	ok, isBool := okVal.(bool)
	if !present || !isBool {
		violations = append(violations, "ok must be present and boolean")
		return &Failure{Class: RuleShape, Code: taxonomy.CodeSchemaViolation, Violations: violations}
	}

	_, hasData := raw["data"]
	_, hasError := raw["error"]
	_, hasPartial := raw["partialData"]

	if ok {
		if !hasData {
			violations = append(violations, "ok=true requires data")
		} else if _, isMap := raw["data"].(map[string]any); !isMap {
			violations = append(violations, "data must be an object")
		}
		if hasError {
			violations = append(violations, "ok=true forbids error")
		}
		if hasPartial {
			violations = append(violations, "ok=true forbids partialData")
		}
	} else {
		if !hasError {
			violations = append(violations, "ok=false requires error")
		}
		if hasData {
			violations = append(violations, "ok=false forbids data")
		}
		if hasPartial && !v.pol.PartialAllowed {
			violations = append(violations, "partialData not allowed for this task")
		}
	}

	if len(violations) > 0 {
		return &Failure{Class: RuleShape, Code: taxonomy.CodeSchemaViolation, Violations: violations}
	}
	return nil
}

// checkMeta enforces the meta contracts: confidence numeric in [0,1],
// risk a known literal (or well-formed custom object under extensible
// enums), explain a string of at most 280 code points.
func (v *Validator) checkMeta(raw map[string]any) *Failure {
	var violations []string

	partial, _ := raw["data"].(map[string]any)

	meta, ok := raw["meta"].(map[string]any)
	if !ok {
		violations = append(violations, "meta must be present and an object")
		return &Failure{Class: RuleMeta, Code: taxonomy.CodeSchemaViolation, Violations: violations, PartialData: partial}
	}

	conf, present := meta["confidence"]
	if !present {
		violations = append(violations, "meta.confidence missing")
	} else if c, isNum := conf.(float64); !isNum {
		violations = append(violations, fmt.Sprintf("meta.confidence must be numeric, got %T", conf))
	} else if c < 0 || c > 1 {
		violations = append(violations, fmt.Sprintf("meta.confidence %v outside [0,1]", c))
	}

	risk, present := meta["risk"]
	if !present {
		violations = append(violations, "meta.risk missing")
	} else if err := CheckEnum(risk, riskLiterals, v.pol.EnumStrategy); err != nil {
		violations = append(violations, fmt.Sprintf("meta.risk: %v", err))
	}

	explain, present := meta["explain"]
	if !present {
		violations = append(violations, "meta.explain missing")
	} else if s, isStr := explain.(string); !isStr {
		violations = append(violations, fmt.Sprintf("meta.explain must be a string, got %T", explain))
	} else if n := utf8.RuneCountInString(s); n > models.MaxExplainLength {
		violations = append(violations, fmt.Sprintf("meta.explain is %d code points, max %d", n, models.MaxExplainLength))
	}

	if len(violations) > 0 {
		return &Failure{Class: RuleMeta, Code: taxonomy.CodeSchemaViolation, Violations: violations, PartialData: partial}
	}
	return nil
}

var riskLiterals = []string{
	string(models.RiskNone),
	string(models.RiskLow),
	string(models.RiskMedium),
	string(models.RiskHigh),
}

// checkPayload validates data against the task's data schema under the
// resolved strictness. The attempted payload is captured for repair.
func (v *Validator) checkPayload(data map[string]any) *Failure {
	violations := checkSchema(data, v.def.Schemas.Data, v.pol.Strictness, v.pol.EnumStrategy)
	if len(violations) > 0 {
		return &Failure{
			Class:       RulePayload,
			Code:        taxonomy.CodeSchemaViolation,
			Violations:  violations,
			PartialData: data,
		}
	}
	return nil
}

// checkErrorObject validates the error object on the failure path.
// An unrecognized error code is accepted for forward compatibility and
// logged as a soft warning.
func (v *Validator) checkErrorObject(raw map[string]any) *Failure {
	var violations []string

	errObj, ok := raw["error"].(map[string]any)
	if !ok {
		violations = append(violations, "error must be an object")
		return &Failure{Class: RuleErrorObject, Code: taxonomy.CodeSchemaViolation, Violations: violations}
	}

	code, hasCode := errObj["code"].(string)
	if !hasCode || code == "" {
		violations = append(violations, "error.code must be a non-empty string")
	}
	if msg, hasMsg := errObj["message"].(string); !hasMsg || msg == "" {
		violations = append(violations, "error.message must be a non-empty string")
	}

	if len(violations) > 0 {
		return &Failure{Class: RuleErrorObject, Code: taxonomy.CodeSchemaViolation, Violations: violations}
	}

	if hasCode && !taxonomy.Known(code) {
		v.warnf("unrecognized error code %q accepted", code)
	}
	return nil
}
