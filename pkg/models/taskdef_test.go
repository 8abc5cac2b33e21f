package models

import (
	"strings"
	"testing"
)

func validDefinition() *TaskDefinition {
	return &TaskDefinition{
		Name: "review-diff",
		Tier: TierDecision,
		Schemas: Schemas{
			Data: &Schema{
				Required: []string{"summary"},
				Fields: map[string]*Field{
					"summary": {Type: FieldString},
					"changes": {Type: FieldArray, Items: &Field{
						Type:     FieldObject,
						Fields:   map[string]*Field{"risk": {Type: FieldString, Enum: []string{"none", "low", "medium", "high"}}},
						Required: []string{"risk"},
					}},
				},
			},
		},
	}
}

func TestTaskDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *TaskDefinition)
		wantErr string
	}{
		{"valid definition", func(d *TaskDefinition) {}, ""},
		{"missing name", func(d *TaskDefinition) { d.Name = "" }, "no name"},
		{"unknown tier fails closed", func(d *TaskDefinition) { d.Tier = "builder" }, "unrecognized tier"},
		{"bad strictness", func(d *TaskDefinition) { d.SchemaStrictness = "extreme" }, "schema_strictness"},
		{"bad enum strategy", func(d *TaskDefinition) { d.EnumStrategy = "loose" }, "enum_strategy"},
		{"bad risk rule", func(d *TaskDefinition) { d.RiskRule = "sum" }, "risk_rule"},
		{"bad context mode", func(d *TaskDefinition) { d.ContextMode = "shared" }, "context_mode"},
		{"min confidence out of range", func(d *TaskDefinition) { d.MinConfidence = 1.5 }, "min_confidence"},
		{"overflow enabled without limit", func(d *TaskDefinition) {
			d.Overflow = &OverflowConfig{Enabled: true}
		}, "max_items"},
		{"undeclared required field", func(d *TaskDefinition) {
			d.Schemas.Data.Required = []string{"missing"}
		}, "required field"},
		{"enum on non-string field", func(d *TaskDefinition) {
			d.Schemas.Data.Fields["summary"] = &Field{Type: FieldNumber, Enum: []string{"a"}}
		}, "enum only applies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(def)
			err := def.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSchema_HasField(t *testing.T) {
	def := validDefinition()
	if !def.Schemas.Data.HasField("summary") {
		t.Error("summary should be declared")
	}
	if def.Schemas.Data.HasField("rationale") {
		t.Error("rationale is not declared")
	}

	var nilSchema *Schema
	if nilSchema.HasField("anything") {
		t.Error("nil schema declares nothing")
	}
}
