package parse

import (
	"errors"
	"testing"
)

func TestResponse_WholeTextJSON(t *testing.T) {
	m, err := Response(`{"ok": true, "meta": {"confidence": 0.9}}`)
	if err != nil {
		t.Fatalf("Response() error: %v", err)
	}
	if ok, _ := m["ok"].(bool); !ok {
		t.Errorf("ok = %v, want true", m["ok"])
	}
}

func TestResponse_FencedBlock(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "Here is the result:\n```json\n{\"ok\": true, \"meta\": {}}\n```\nDone."},
		{"bare fence", "```\n{\"ok\": true, \"meta\": {}}\n```"},
		{"fence with trailing prose", "```json\n{\"ok\": true, \"meta\": {}}\n```\nHope that helps!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Response(tt.raw)
			if err != nil {
				t.Fatalf("Response() error: %v", err)
			}
			if ok, _ := m["ok"].(bool); !ok {
				t.Errorf("ok = %v, want true", m["ok"])
			}
		})
	}
}

func TestResponse_WholeTextWinsOverFence(t *testing.T) {
	// The whole text is valid JSON; the fenced attempt must not run.
	m, err := Response("{\"ok\": true, \"meta\": {\"explain\": \"contains ```json inside\"}}")
	if err != nil {
		t.Fatalf("Response() error: %v", err)
	}
	if _, present := m["meta"]; !present {
		t.Error("meta missing from whole-text parse")
	}
}

func TestResponse_SkipsNonJSONFences(t *testing.T) {
	raw := "```\nnot json at all\n```\n```json\n{\"ok\": false, \"meta\": {}, \"error\": {}}\n```"
	m, err := Response(raw)
	if err != nil {
		t.Fatalf("Response() error: %v", err)
	}
	if ok, isBool := m["ok"].(bool); !isBool || ok {
		t.Errorf("ok = %v, want false", m["ok"])
	}
}

func TestResponse_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t"},
		{"prose only", "I could not produce a result."},
		{"json array", `[1, 2, 3]`},
		{"null", `null`},
		{"fence with prose", "```\nstill not json\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Response(tt.raw)
			if !errors.Is(err, ErrNoJSON) {
				t.Errorf("Response(%q) error = %v, want ErrNoJSON", tt.raw, err)
			}
		})
	}
}
