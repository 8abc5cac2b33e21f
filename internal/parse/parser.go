// Package parse extracts a JSON envelope from raw LLM response text.
package parse

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON indicates no JSON object could be extracted from the response.
var ErrNoJSON = errors.New("no JSON object found in response")

// fencePattern matches the contents of a markdown code block: ```json { ... } ```
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")

// Response parses raw LLM text into an envelope map. It attempts, in
// order: the whole text as JSON, then the contents of a fenced code
// block. First success wins.
func Response(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrNoJSON
	}

	if m, err := decodeObject(trimmed); err == nil {
		return m, nil
	}

	for _, match := range fencePattern.FindAllStringSubmatch(trimmed, -1) {
		if m, err := decodeObject(strings.TrimSpace(match[1])); err == nil {
			return m, nil
		}
	}

	return nil, ErrNoJSON
}

// decodeObject parses s as a single JSON object.
func decodeObject(s string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("JSON value is null")
	}
	return m, nil
}
