package models

import "fmt"

// EnumStrategy controls how enum-typed values are validated.
type EnumStrategy string

const (
	// EnumStrict accepts declared literals only.
	EnumStrict EnumStrategy = "strict"
	// EnumExtensible additionally accepts {custom, reason} objects.
	EnumExtensible EnumStrategy = "extensible"
)

// Valid returns true if the strategy is a known value.
func (s EnumStrategy) Valid() bool {
	return s == EnumStrict || s == EnumExtensible
}

// RiskRule selects how meta.risk is derived on the success path.
type RiskRule string

const (
	// RiskRuleMaxChanges takes the maximum risk across data.changes.
	RiskRuleMaxChanges RiskRule = "max_changes_risk"
	// RiskRuleMaxIssues takes the maximum risk across data.issues.
	RiskRuleMaxIssues RiskRule = "max_issues_risk"
	// RiskRuleExplicit trusts the risk the model reported.
	RiskRuleExplicit RiskRule = "explicit"
)

// Valid returns true if the rule is a known value.
func (r RiskRule) Valid() bool {
	switch r {
	case RiskRuleMaxChanges, RiskRuleMaxIssues, RiskRuleExplicit:
		return true
	default:
		return false
	}
}

// ContextMode controls what state a composed child call inherits.
type ContextMode string

const (
	// ContextFork isolates the child: it sees only its own declared input.
	ContextFork ContextMode = "fork"
	// ContextMain makes a child's successful result visible to siblings
	// scheduled after it within the same parent expansion.
	ContextMain ContextMode = "main"
)

// Valid returns true if the mode is a known value.
func (m ContextMode) Valid() bool {
	return m == ContextFork || m == ContextMain
}

// OverflowConfig bounds the recoverable-insight sidecar.
type OverflowConfig struct {
	// Enabled allows data.extensions.insights to be non-empty.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// MaxItems caps the number of insights.
	MaxItems int `yaml:"max_items" json:"max_items"`
	// RequireSuggestedMapping demands a suggestedMapping on every insight.
	RequireSuggestedMapping bool `yaml:"require_suggested_mapping" json:"require_suggested_mapping"`
}

// Field type names accepted in section schemas.
const (
	FieldString  = "string"
	FieldNumber  = "number"
	FieldInteger = "integer"
	FieldBoolean = "boolean"
	FieldArray   = "array"
	FieldObject  = "object"
	FieldAny     = "any"
)

// Field describes a single schema field.
type Field struct {
	// Type is one of the Field* type names. Empty means any.
	Type string `yaml:"type" json:"type,omitempty"`
	// Enum restricts a string field to declared literals.
	Enum []string `yaml:"enum" json:"enum,omitempty"`
	// Items describes array elements when Type is array.
	Items *Field `yaml:"items" json:"items,omitempty"`
	// Fields describes object members when Type is object.
	Fields map[string]*Field `yaml:"fields" json:"fields,omitempty"`
	// Required lists object members that must be present.
	Required []string `yaml:"required" json:"required,omitempty"`
}

// Validate checks the field description for load-time mistakes.
func (f *Field) Validate() error {
	switch f.Type {
	case "", FieldString, FieldNumber, FieldInteger, FieldBoolean, FieldArray, FieldObject, FieldAny:
	default:
		return fmt.Errorf("unknown field type %q", f.Type)
	}
	if len(f.Enum) > 0 && f.Type != "" && f.Type != FieldString {
		return fmt.Errorf("enum only applies to string fields, got type %q", f.Type)
	}
	if f.Items != nil {
		if err := f.Items.Validate(); err != nil {
			return fmt.Errorf("items: %w", err)
		}
	}
	for name, sub := range f.Fields {
		if sub == nil {
			return fmt.Errorf("field %q has no description", name)
		}
		if err := sub.Validate(); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	for _, name := range f.Required {
		if _, ok := f.Fields[name]; !ok && len(f.Fields) > 0 {
			return fmt.Errorf("required field %q is not declared", name)
		}
	}
	return nil
}

// Schema describes one envelope section (meta, input, data or error).
type Schema struct {
	// Required lists top-level fields that must be present.
	Required []string `yaml:"required" json:"required,omitempty"`
	// Fields maps top-level field names to their descriptions.
	Fields map[string]*Field `yaml:"fields" json:"fields,omitempty"`
}

// HasField returns true if the schema declares the named top-level field.
func (s *Schema) HasField(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Fields[name]
	return ok
}

// Validate checks the schema for load-time mistakes.
func (s *Schema) Validate() error {
	if s == nil {
		return nil
	}
	for name, f := range s.Fields {
		if f == nil {
			return fmt.Errorf("field %q has no description", name)
		}
		if err := f.Validate(); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	for _, name := range s.Required {
		if _, ok := s.Fields[name]; !ok && len(s.Fields) > 0 {
			return fmt.Errorf("required field %q is not declared", name)
		}
	}
	return nil
}

// Schemas groups the per-section schemas of a task definition.
type Schemas struct {
	Meta  *Schema `yaml:"meta" json:"meta,omitempty"`
	Input *Schema `yaml:"input" json:"input,omitempty"`
	Data  *Schema `yaml:"data" json:"data,omitempty"`
	Error *Schema `yaml:"error" json:"error,omitempty"`
}

// TaskDefinition is the immutable description of a task, constructed once
// by the loader and read-only for the lifetime of an invocation.
type TaskDefinition struct {
	// Name is the unique task identifier used in nested-call directives.
	Name string `yaml:"name" json:"name"`
	// Tier is the declared strictness class.
	Tier Tier `yaml:"tier" json:"tier"`
	// Prompt is the task's prompt template.
	Prompt string `yaml:"prompt" json:"prompt,omitempty"`
	// SchemaStrictness overrides the tier's default strictness when set.
	SchemaStrictness Strictness `yaml:"schema_strictness" json:"schema_strictness,omitempty"`
	// EnumStrategy overrides the tier's default enum strategy when set.
	EnumStrategy EnumStrategy `yaml:"enum_strategy" json:"enum_strategy,omitempty"`
	// RiskRule selects risk aggregation; empty means max_changes_risk.
	RiskRule RiskRule `yaml:"risk_rule" json:"risk_rule,omitempty"`
	// Overflow overrides the tier's default overflow config when set.
	Overflow *OverflowConfig `yaml:"overflow" json:"overflow,omitempty"`
	// PartialAllowed permits partialData alongside failures.
	PartialAllowed bool `yaml:"partial_allowed" json:"partial_allowed,omitempty"`
	// MinConfidence fails responses below this confidence when > 0.
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence,omitempty"`
	// ContextMode controls sibling visibility during composition.
	ContextMode ContextMode `yaml:"context_mode" json:"context_mode,omitempty"`
	// Schemas holds the per-section payload schemas.
	Schemas Schemas `yaml:"schemas" json:"schemas"`
}

// Validate checks the definition for load-time mistakes. It fails closed:
// an unrecognized tier or malformed schema is an error, never a default.
func (d *TaskDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("task definition has no name")
	}
	if !d.Tier.Valid() {
		return fmt.Errorf("task %q: unrecognized tier %q", d.Name, d.Tier)
	}
	if d.SchemaStrictness != "" && !d.SchemaStrictness.Valid() {
		return fmt.Errorf("task %q: unrecognized schema_strictness %q", d.Name, d.SchemaStrictness)
	}
	if d.EnumStrategy != "" && !d.EnumStrategy.Valid() {
		return fmt.Errorf("task %q: unrecognized enum_strategy %q", d.Name, d.EnumStrategy)
	}
	if d.RiskRule != "" && !d.RiskRule.Valid() {
		return fmt.Errorf("task %q: unrecognized risk_rule %q", d.Name, d.RiskRule)
	}
	if d.ContextMode != "" && !d.ContextMode.Valid() {
		return fmt.Errorf("task %q: unrecognized context_mode %q", d.Name, d.ContextMode)
	}
	if d.MinConfidence < 0 || d.MinConfidence > 1 {
		return fmt.Errorf("task %q: min_confidence %v outside [0,1]", d.Name, d.MinConfidence)
	}
	if d.Overflow != nil && d.Overflow.Enabled && d.Overflow.MaxItems <= 0 {
		return fmt.Errorf("task %q: overflow enabled with max_items %d", d.Name, d.Overflow.MaxItems)
	}
	for section, s := range map[string]*Schema{
		"meta":  d.Schemas.Meta,
		"input": d.Schemas.Input,
		"data":  d.Schemas.Data,
		"error": d.Schemas.Error,
	} {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("task %q: %s schema: %w", d.Name, section, err)
		}
	}
	return nil
}
