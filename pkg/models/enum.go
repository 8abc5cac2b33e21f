package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// CustomValue carries an out-of-vocabulary enum value with its justification.
// Only accepted for fields validated under the extensible enum strategy.
type CustomValue struct {
	// Custom is the proposed value, 1-32 code points.
	Custom string `json:"custom"`
	// Reason explains why no declared literal fits.
	Reason string `json:"reason"`
}

// Valid returns an error if the custom value is malformed.
func (c CustomValue) Valid() error {
	n := utf8.RuneCountInString(c.Custom)
	if n == 0 {
		return errors.New("custom value is empty")
	}
	if n > 32 {
		return fmt.Errorf("custom value is %d code points, max 32", n)
	}
	return nil
}

// EnumValue is a tagged variant: either a declared literal or a custom
// value-with-reason object. Exactly one of Known or Custom is set.
type EnumValue struct {
	Known  string
	Custom *CustomValue
}

// KnownEnum builds an EnumValue holding a declared literal.
func KnownEnum(literal string) EnumValue {
	return EnumValue{Known: literal}
}

// IsCustom returns true if the value is a custom object rather than a literal.
func (e EnumValue) IsCustom() bool {
	return e.Custom != nil
}

// String returns the literal, or the custom text for custom values.
func (e EnumValue) String() string {
	if e.Custom != nil {
		return e.Custom.Custom
	}
	return e.Known
}

// MarshalJSON serializes a literal as a JSON string and a custom value as
// its object form.
func (e EnumValue) MarshalJSON() ([]byte, error) {
	if e.Custom != nil {
		return json.Marshal(e.Custom)
	}
	return json.Marshal(e.Known)
}

// UnmarshalJSON accepts either a JSON string or a {custom, reason} object.
func (e *EnumValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Known = s
		e.Custom = nil
		return nil
	}

	var c CustomValue
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("enum value must be a string or a {custom, reason} object: %w", err)
	}
	e.Known = ""
	e.Custom = &c
	return nil
}
