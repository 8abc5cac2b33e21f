package validate

import (
	"encoding/json"
	"fmt"

	"github.com/kestrelworks/warden/pkg/models"
)

// CheckEnum validates a single enum-typed value against the declared
// literal set under the given strategy. Under strict, the value must be
// exactly one of the literals. Under extensible, a {custom, reason}
// object with a 1-32 code point custom string is also accepted. Enum
// rejections are hard validation failures and are never auto-repaired.
func CheckEnum(value any, allowed []string, strategy models.EnumStrategy) error {
	ev, err := decodeEnumValue(value)
	if err != nil {
		return err
	}

	if !ev.IsCustom() {
		for _, lit := range allowed {
			if ev.Known == lit {
				return nil
			}
		}
		return fmt.Errorf("value %q is not one of %v", ev.Known, allowed)
	}

	if strategy != models.EnumExtensible {
		return fmt.Errorf("custom value %q not allowed under strict enums", ev.Custom.Custom)
	}
	if err := ev.Custom.Valid(); err != nil {
		return err
	}
	return nil
}

// decodeEnumValue converts a raw JSON value into the tagged variant.
func decodeEnumValue(value any) (models.EnumValue, error) {
	switch v := value.(type) {
	case string:
		return models.KnownEnum(v), nil
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return models.EnumValue{}, err
		}
		var c models.CustomValue
		if err := json.Unmarshal(raw, &c); err != nil {
			return models.EnumValue{}, fmt.Errorf("malformed custom enum object: %w", err)
		}
		if _, ok := v["custom"]; !ok {
			return models.EnumValue{}, fmt.Errorf("custom enum object missing %q key", "custom")
		}
		if _, ok := v["reason"]; !ok {
			return models.EnumValue{}, fmt.Errorf("custom enum object missing %q key", "reason")
		}
		return models.EnumValue{Custom: &c}, nil
	default:
		return models.EnumValue{}, fmt.Errorf("enum value must be a string or a {custom, reason} object, got %T", value)
	}
}
