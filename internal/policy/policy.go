// Package policy resolves the effective validation policy for a task from
// its tier defaults and explicit overrides.
package policy

import (
	"fmt"

	"github.com/kestrelworks/warden/pkg/models"
)

// Policy is the effective strictness configuration for one invocation.
type Policy struct {
	// Strictness controls payload schema enforcement.
	Strictness models.Strictness
	// Overflow bounds the insight sidecar.
	Overflow models.OverflowConfig
	// EnumStrategy controls enum-typed value validation.
	EnumStrategy models.EnumStrategy
	// RiskRule selects success-path risk aggregation.
	RiskRule models.RiskRule
	// PartialAllowed permits partialData alongside failures.
	PartialAllowed bool
	// MinConfidence fails responses below this confidence when > 0.
	MinConfidence float64
	// ContextMode controls sibling visibility during composition.
	ContextMode models.ContextMode
}

// tierDefaults holds the baseline policy per tier. Explicit task-level
// settings always win over these.
var tierDefaults = map[models.Tier]Policy{
	models.TierExec: {
		Strictness:   models.StrictnessHigh,
		Overflow:     models.OverflowConfig{Enabled: false},
		EnumStrategy: models.EnumStrict,
	},
	models.TierDecision: {
		Strictness:   models.StrictnessMedium,
		Overflow:     models.OverflowConfig{Enabled: true, MaxItems: 5},
		EnumStrategy: models.EnumExtensible,
	},
	models.TierExploration: {
		Strictness:   models.StrictnessLow,
		Overflow:     models.OverflowConfig{Enabled: true, MaxItems: 20},
		EnumStrategy: models.EnumExtensible,
	},
}

// Resolve computes the effective policy for a task definition. It is a
// pure function and fails closed: an unrecognized tier is an error, never
// a silent default.
func Resolve(def *models.TaskDefinition) (Policy, error) {
	if def == nil {
		return Policy{}, fmt.Errorf("nil task definition")
	}
	base, ok := tierDefaults[def.Tier]
	if !ok {
		return Policy{}, fmt.Errorf("task %q: unrecognized tier %q", def.Name, def.Tier)
	}

	p := base
	if def.SchemaStrictness != "" {
		p.Strictness = def.SchemaStrictness
	}
	if def.EnumStrategy != "" {
		p.EnumStrategy = def.EnumStrategy
	}
	if def.Overflow != nil {
		p.Overflow = *def.Overflow
	}

	p.RiskRule = def.RiskRule
	if p.RiskRule == "" {
		p.RiskRule = models.RiskRuleMaxChanges
	}
	p.PartialAllowed = def.PartialAllowed
	p.MinConfidence = def.MinConfidence
	p.ContextMode = def.ContextMode
	if p.ContextMode == "" {
		p.ContextMode = models.ContextFork
	}
	return p, nil
}
