package validate

import (
	"fmt"
	"math"

	"github.com/kestrelworks/warden/pkg/models"
)

// checkSchema validates a payload map against a section schema under the
// given strictness. Required fields are enforced at every strictness
// level; only unknown-field rejection is relaxed below high. The
// extensions field is always tolerated at the top level.
func checkSchema(data map[string]any, schema *models.Schema, strictness models.Strictness, strategy models.EnumStrategy) []string {
	if schema == nil {
		return nil
	}

	var violations []string
	for _, name := range schema.Required {
		if _, ok := data[name]; !ok {
			violations = append(violations, fmt.Sprintf("required field %q missing", name))
		}
	}

	if strictness == models.StrictnessHigh && len(schema.Fields) > 0 {
		for name := range data {
			if name == models.KeyExtensions {
				continue
			}
			if _, ok := schema.Fields[name]; !ok {
				violations = append(violations, fmt.Sprintf("unknown field %q", name))
			}
		}
	}

	for name, field := range schema.Fields {
		val, ok := data[name]
		if !ok {
			continue
		}
		violations = append(violations, checkField(name, val, field, strategy)...)
	}
	return violations
}

// checkField validates a single value against its field description.
func checkField(path string, val any, field *models.Field, strategy models.EnumStrategy) []string {
	if field == nil || field.Type == models.FieldAny {
		return nil
	}

	if len(field.Enum) > 0 {
		if err := CheckEnum(val, field.Enum, strategy); err != nil {
			return []string{fmt.Sprintf("%s: %v", path, err)}
		}
		return nil
	}

	switch field.Type {
	case "", models.FieldAny:
		return nil
	case models.FieldString:
		if _, ok := val.(string); !ok {
			return []string{fmt.Sprintf("%s: expected string, got %T", path, val)}
		}
	case models.FieldNumber:
		if _, ok := val.(float64); !ok {
			return []string{fmt.Sprintf("%s: expected number, got %T", path, val)}
		}
	case models.FieldInteger:
		f, ok := val.(float64)
		if !ok || f != math.Trunc(f) {
			return []string{fmt.Sprintf("%s: expected integer, got %v", path, val)}
		}
	case models.FieldBoolean:
		if _, ok := val.(bool); !ok {
			return []string{fmt.Sprintf("%s: expected boolean, got %T", path, val)}
		}
	case models.FieldArray:
		items, ok := val.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected array, got %T", path, val)}
		}
		if field.Items == nil {
			return nil
		}
		var violations []string
		for i, item := range items {
			violations = append(violations,
				checkField(fmt.Sprintf("%s[%d]", path, i), item, field.Items, strategy)...)
		}
		return violations
	case models.FieldObject:
		obj, ok := val.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected object, got %T", path, val)}
		}
		var violations []string
		for _, name := range field.Required {
			if _, present := obj[name]; !present {
				violations = append(violations,
					fmt.Sprintf("%s: required field %q missing", path, name))
			}
		}
		for name, sub := range field.Fields {
			v, present := obj[name]
			if !present {
				continue
			}
			violations = append(violations,
				checkField(path+"."+name, v, sub, strategy)...)
		}
		return violations
	}
	return nil
}
