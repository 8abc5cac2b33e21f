// Package engine runs the leaf validation pipeline: parse, validate,
// repair, re-validate, aggregate risk. Every failure becomes a canonical
// error envelope; callers always receive a value, never a raw fault.
package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/kestrelworks/warden/internal/parse"
	"github.com/kestrelworks/warden/internal/policy"
	"github.com/kestrelworks/warden/internal/repair"
	"github.com/kestrelworks/warden/internal/risk"
	"github.com/kestrelworks/warden/internal/taxonomy"
	"github.com/kestrelworks/warden/internal/validate"
	"github.com/kestrelworks/warden/pkg/models"
)

// Engine validates raw LLM responses against task contracts.
type Engine struct {
	debugf func(format string, args ...any)
}

// New creates an engine with a no-op debug log.
func New() *Engine {
	return &Engine{debugf: func(string, ...any) {}}
}

// SetDebugLog sets the debug logging function.
func (e *Engine) SetDebugLog(fn func(format string, args ...any)) {
	if fn != nil {
		e.debugf = fn
	}
}

// Process pipes a raw response through the full leaf pipeline for one
// task and returns a validated envelope or a canonical error envelope.
func (e *Engine) Process(ctx context.Context, rawText string, def *models.TaskDefinition) models.Envelope {
	traceID := uuid.New().String()[:8]

	env := e.process(ctx, rawText, def)
	env.Meta.TraceID = traceID
	if def != nil {
		env.Meta.Task = def.Name
	}
	return env
}

func (e *Engine) process(ctx context.Context, rawText string, def *models.TaskDefinition) models.Envelope {
	if err := ctx.Err(); err != nil {
		return taxonomy.NewFailure(taxonomy.CodeTimeout, err.Error()).Build(def)
	}

	pol, err := policy.Resolve(def)
	if err != nil {
		return taxonomy.NewFailure(taxonomy.CodeMalformedInput, err.Error()).Build(def)
	}

	raw, err := parse.Response(rawText)
	if err != nil {
		e.debugf("[engine] parse failed: %v", err)
		return taxonomy.NewFailure(taxonomy.CodeParseError, "").Build(def)
	}

	v := validate.New(def, pol)
	v.SetWarnLog(e.debugf)

	repaired := false
	failure := v.Validate(raw)
	if failure != nil {
		if !repairable(failure.Class) {
			e.debugf("[engine] task=%s class=%s violations=%v", def.Name, failure.Class, failure.Violations)
			return e.fail(def, failure)
		}

		// Exactly one repair pass, then re-validate.
		fixed, applied := repair.Run(raw, def)
		e.debugf("[engine] task=%s repair applied=%v", def.Name, applied)
		failure = v.Validate(fixed)
		if failure != nil {
			return e.fail(def, failure)
		}
		raw = fixed
		repaired = len(applied) > 0
	}

	env, err := models.EnvelopeFromMap(raw)
	if err != nil {
		return taxonomy.NewFailure(taxonomy.CodeSchemaViolation, err.Error()).Build(def)
	}

	// Success-path finalization only: a validated failure envelope is the
	// model's own verdict and passes through with its meta untouched.
	if env.OK {
		if pol.MinConfidence > 0 && env.Meta.Confidence < pol.MinConfidence {
			f := taxonomy.NewFailure(taxonomy.CodeLowConfidence, "")
			f.PartialData = env.Data
			return f.Build(def)
		}
		env.Meta.Risk = risk.Aggregate(env.Data, pol.RiskRule, env.Meta.Risk)
	}
	env.Meta.Repaired = repaired

	if err := ctx.Err(); err != nil {
		return taxonomy.NewFailure(taxonomy.CodeTimeout, err.Error()).Build(def)
	}
	return env
}

// repairable reports whether a rule class may attempt the single repair
// pass. Shape and error-object failures are structurally unrecoverable,
// and overflow violations are never auto-repaired.
func repairable(class validate.RuleClass) bool {
	return class == validate.RuleMeta || class == validate.RulePayload
}

// fail converts a validation failure into its error envelope, carrying
// the best-effort payload when the task allows partial failures.
func (e *Engine) fail(def *models.TaskDefinition, failure *validate.Failure) models.Envelope {
	f := taxonomy.NewFailure(failure.Code, failure.Detail())
	f.PartialData = failure.PartialData
	return f.Build(def)
}
