package compose

import (
	"regexp"
	"strings"
)

// Directive is one nested-call reference extracted from a prompt.
type Directive struct {
	// Task is the referenced task name.
	Task string
	// Args is the raw argument text between the parentheses.
	Args string
}

// maxDirectives bounds how many calls one prompt may make; directives
// past this are ignored.
const maxDirectives = 32

// directivePattern matches name(args) call directives. This is a bounded
// lexical scan, not a general parser: arguments may not contain
// parentheses or newlines.
var directivePattern = regexp.MustCompile(`([A-Za-z][A-Za-z0-9_-]*)\(([^()\n]*)\)`)

// ScanDirectives extracts nested-call directives from prompt text.
// Only matches whose name the resolver knows are treated as calls;
// everything else is prose and skipped. The bound counts directives,
// not lexical matches, so prose cannot crowd out a real call.
func ScanDirectives(prompt string, known func(name string) bool) []Directive {
	matches := directivePattern.FindAllStringSubmatch(prompt, -1)
	var out []Directive
	for _, m := range matches {
		name := m[1]
		if !known(name) {
			continue
		}
		out = append(out, Directive{Task: name, Args: strings.TrimSpace(m[2])})
		if len(out) == maxDirectives {
			break
		}
	}
	return out
}

// RenderPrompt substitutes $ARGUMENTS in a prompt template. Bounded
// string substitution, not a template language.
func RenderPrompt(prompt, arguments string) string {
	return strings.ReplaceAll(prompt, "$ARGUMENTS", arguments)
}
