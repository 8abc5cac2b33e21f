package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kestrelworks/warden/internal/engine"
	"github.com/kestrelworks/warden/internal/taxonomy"
	"github.com/kestrelworks/warden/pkg/models"
)

type mapResolver map[string]*models.TaskDefinition

func (m mapResolver) Resolve(name string) (*models.TaskDefinition, bool) {
	def, ok := m[name]
	return def, ok
}

func composeTask(name, prompt string, mode models.ContextMode) *models.TaskDefinition {
	return &models.TaskDefinition{
		Name:        name,
		Tier:        models.TierExploration,
		Prompt:      prompt,
		ContextMode: mode,
		Schemas: models.Schemas{
			Data: &models.Schema{
				Required: []string{"summary"},
				Fields:   map[string]*models.Field{"summary": {Type: models.FieldString}},
			},
		},
	}
}

// recorder captures the input each task's exec call received.
type recorder struct {
	mu     sync.Mutex
	inputs map[string]map[string]any
	calls  []string
}

func newRecorder() *recorder {
	return &recorder{inputs: map[string]map[string]any{}}
}

func (r *recorder) exec(_ context.Context, def *models.TaskDefinition, input map[string]any) (string, error) {
	r.mu.Lock()
	r.inputs[def.Name] = input
	r.calls = append(r.calls, def.Name)
	r.mu.Unlock()
	return fmt.Sprintf(`{"ok": true, "meta": {"confidence": 0.9, "risk": "low", "explain": "done"}, "data": {"summary": %q}}`, def.Name), nil
}

func (r *recorder) inputFor(task string) map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputs[task]
}

func childEnvelope(t *testing.T, input map[string]any, task string) models.Envelope {
	t.Helper()
	children, ok := input["children"].(map[string]models.Envelope)
	if !ok {
		t.Fatalf("children missing from input %v", input)
	}
	env, ok := children[task]
	if !ok {
		t.Fatalf("child %s missing from %v", task, children)
	}
	return env
}

func TestCompose_LeafTask(t *testing.T) {
	rec := newRecorder()
	o := New(engine.New(), mapResolver{}, rec.exec, Budget{})

	env := o.Compose(context.Background(), composeTask("leaf", "Summarize $ARGUMENTS", models.ContextFork), nil)
	if !env.OK {
		t.Fatalf("ok = false, error = %+v", env.Error)
	}
	if env.Data["summary"] != "leaf" {
		t.Errorf("summary = %v, want leaf", env.Data["summary"])
	}
}

func TestCompose_ExpandsChildren(t *testing.T) {
	resolver := mapResolver{
		"child-a": composeTask("child-a", "do a", models.ContextFork),
		"child-b": composeTask("child-b", "do b", models.ContextFork),
	}
	root := composeTask("root", "First child-a(x), then child-b(y).", models.ContextFork)

	rec := newRecorder()
	o := New(engine.New(), resolver, rec.exec, Budget{})
	env := o.Compose(context.Background(), root, nil)
	if !env.OK {
		t.Fatalf("ok = false, error = %+v", env.Error)
	}

	rootInput := rec.inputFor("root")
	for _, task := range []string{"child-a", "child-b"} {
		child := childEnvelope(t, rootInput, task)
		if !child.OK {
			t.Errorf("child %s failed: %+v", task, child.Error)
		}
	}
	if got := rec.inputFor("child-a")["arguments"]; got != "x" {
		t.Errorf("child-a arguments = %v, want x", got)
	}
}

func TestCompose_DoesNotMutateCallerInput(t *testing.T) {
	resolver := mapResolver{"child": composeTask("child", "do it", models.ContextFork)}
	root := composeTask("root", "run child(x)", models.ContextFork)

	rec := newRecorder()
	o := New(engine.New(), resolver, rec.exec, Budget{})

	input := map[string]any{"arguments": "original"}
	if env := o.Compose(context.Background(), root, input); !env.OK {
		t.Fatalf("ok = false, error = %+v", env.Error)
	}

	if _, present := input["children"]; present {
		t.Error("caller's input map gained a children key")
	}
	if len(input) != 1 || input["arguments"] != "original" {
		t.Errorf("caller's input map changed: %v", input)
	}
}

func TestCompose_DepthLimit(t *testing.T) {
	resolver := mapResolver{
		"mid":  composeTask("mid", "go deeper deep(x)", models.ContextFork),
		"deep": composeTask("deep", "bottom", models.ContextFork),
	}
	root := composeTask("root", "start mid(x)", models.ContextFork)

	rec := newRecorder()
	o := New(engine.New(), resolver, rec.exec, Budget{MaxDepth: 1})
	if env := o.Compose(context.Background(), root, nil); !env.OK {
		t.Fatalf("root should still complete, error = %+v", env.Error)
	}

	// mid sits at depth 1; its child deep would be depth 2.
	rejected := childEnvelope(t, rec.inputFor("mid"), "deep")
	if rejected.OK {
		t.Fatal("deep should have been rejected")
	}
	if rejected.Error.Code != taxonomy.CodeMaxDepthExceeded {
		t.Errorf("code = %s, want %s", rejected.Error.Code, taxonomy.CodeMaxDepthExceeded)
	}
	if rejected.Error.Recoverable {
		t.Error("depth rejection is not recoverable")
	}
	if rec.inputFor("deep") != nil {
		t.Error("rejected subtree must never execute")
	}
}

func TestCompose_CycleDetection(t *testing.T) {
	resolver := mapResolver{}
	resolver["ping"] = composeTask("ping", "call pong(x)", models.ContextFork)
	resolver["pong"] = composeTask("pong", "call ping(y)", models.ContextFork)

	rec := newRecorder()
	o := New(engine.New(), resolver, rec.exec, Budget{})
	if env := o.Compose(context.Background(), resolver["ping"], nil); !env.OK {
		t.Fatalf("root should still complete, error = %+v", env.Error)
	}

	// ping -> pong -> ping closes the cycle at pong's expansion.
	rejected := childEnvelope(t, rec.inputFor("pong"), "ping")
	if rejected.OK {
		t.Fatal("transitive self-call should have been rejected")
	}
	if rejected.Error.Code != taxonomy.CodeCircularCall {
		t.Errorf("code = %s, want %s", rejected.Error.Code, taxonomy.CodeCircularCall)
	}
}

func TestCompose_DiamondIsNotACycle(t *testing.T) {
	// Two sibling branches both call shared; ancestor sets are branch
	// local, so neither branch sees the other's visit.
	resolver := mapResolver{
		"left":   composeTask("left", "use shared(l)", models.ContextFork),
		"right":  composeTask("right", "use shared(r)", models.ContextFork),
		"shared": composeTask("shared", "common work", models.ContextFork),
	}
	root := composeTask("root", "left(1) right(2)", models.ContextFork)

	rec := newRecorder()
	o := New(engine.New(), resolver, rec.exec, Budget{})
	if env := o.Compose(context.Background(), root, nil); !env.OK {
		t.Fatalf("ok = false, error = %+v", env.Error)
	}
	for _, branch := range []string{"left", "right"} {
		shared := childEnvelope(t, rec.inputFor(branch), "shared")
		if !shared.OK {
			t.Errorf("shared under %s failed: %+v", branch, shared.Error)
		}
	}
}

func TestCompose_MainModeSiblingsSeeEarlierResults(t *testing.T) {
	resolver := mapResolver{
		"first":  composeTask("first", "gather", models.ContextMain),
		"second": composeTask("second", "refine", models.ContextMain),
	}
	root := composeTask("root", "first(a) second(b)", models.ContextFork)

	rec := newRecorder()
	o := New(engine.New(), resolver, rec.exec, Budget{})
	if env := o.Compose(context.Background(), root, nil); !env.OK {
		t.Fatalf("ok = false, error = %+v", env.Error)
	}

	if _, present := rec.inputFor("first")["siblings"]; present {
		t.Error("first sibling should start with no shared context")
	}
	siblings, ok := rec.inputFor("second")["siblings"].(map[string]any)
	if !ok {
		t.Fatal("second sibling should see shared context")
	}
	if _, present := siblings["first"]; !present {
		t.Errorf("siblings = %v, want first's result", siblings)
	}
}

func TestCompose_ProviderError(t *testing.T) {
	exec := func(context.Context, *models.TaskDefinition, map[string]any) (string, error) {
		return "", errors.New("connection refused")
	}
	o := New(engine.New(), mapResolver{}, exec, Budget{})

	env := o.Compose(context.Background(), composeTask("leaf", "p", models.ContextFork), nil)
	if env.OK {
		t.Fatal("ok = true, want provider failure")
	}
	if env.Error.Code != taxonomy.CodeProviderUnavailable {
		t.Errorf("code = %s, want %s", env.Error.Code, taxonomy.CodeProviderUnavailable)
	}
	if !env.Error.Recoverable {
		t.Error("provider failures are recoverable")
	}
}

func TestCompose_TimeoutBudget(t *testing.T) {
	exec := func(ctx context.Context, _ *models.TaskDefinition, _ map[string]any) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	o := New(engine.New(), mapResolver{}, exec, Budget{Timeout: 10 * time.Millisecond})

	env := o.Compose(context.Background(), composeTask("leaf", "p", models.ContextFork), nil)
	if env.OK {
		t.Fatal("ok = true, want timeout")
	}
	if env.Error.Code != taxonomy.CodeTimeout {
		t.Errorf("code = %s, want %s", env.Error.Code, taxonomy.CodeTimeout)
	}
}

func TestCompose_TimeoutDiscardsCompletedChildren(t *testing.T) {
	resolver := mapResolver{"slow": composeTask("slow", "wait", models.ContextFork)}
	root := composeTask("root", "slow(x)", models.ContextFork)

	var rootRan bool
	exec := func(ctx context.Context, def *models.TaskDefinition, _ map[string]any) (string, error) {
		if def.Name == "root" {
			rootRan = true
		}
		<-ctx.Done()
		return "", ctx.Err()
	}

	o := New(engine.New(), resolver, exec, Budget{Timeout: 10 * time.Millisecond})
	env := o.Compose(context.Background(), root, nil)
	if env.OK {
		t.Fatal("ok = true, want timeout at the join point")
	}
	if env.Error.Code != taxonomy.CodeTimeout {
		t.Errorf("code = %s, want %s", env.Error.Code, taxonomy.CodeTimeout)
	}
	if rootRan {
		t.Error("parent must not run after the timeout boundary")
	}
	if env.PartialData != nil {
		t.Error("no partial composition across the timeout boundary")
	}
}

func TestCompose_NilDefinition(t *testing.T) {
	o := New(engine.New(), mapResolver{}, newRecorder().exec, Budget{})
	env := o.Compose(context.Background(), nil, nil)
	if env.OK {
		t.Fatal("ok = true, want failure for nil definition")
	}
	if env.Error.Code != taxonomy.CodeMalformedInput {
		t.Errorf("code = %s, want %s", env.Error.Code, taxonomy.CodeMalformedInput)
	}
}

func TestScanDirectives(t *testing.T) {
	known := func(name string) bool {
		return name == "review-diff" || name == "summarize"
	}

	tests := []struct {
		name   string
		prompt string
		want   []Directive
	}{
		{"single call", "Run review-diff(HEAD~1) on the branch.", []Directive{{Task: "review-diff", Args: "HEAD~1"}}},
		{"multiple calls", "summarize(a) then review-diff(b)", []Directive{{Task: "summarize", Args: "a"}, {Task: "review-diff", Args: "b"}}},
		{"unknown names are prose", "call helper(x) and summarize(y)", []Directive{{Task: "summarize", Args: "y"}}},
		{"args trimmed", "summarize(  padded  )", []Directive{{Task: "summarize", Args: "padded"}}},
		{"empty args", "summarize()", []Directive{{Task: "summarize", Args: ""}}},
		{"no calls", "plain prose with (parenthetical remarks)", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScanDirectives(tt.prompt, known)
			if len(got) != len(tt.want) {
				t.Fatalf("ScanDirectives() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("directive %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScanDirectives_ProseCannotCrowdOutCalls(t *testing.T) {
	known := func(name string) bool { return name == "summarize" }

	// Dozens of parenthesized prose matches ahead of the one real call.
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "aside%d(noise) ", i)
	}
	sb.WriteString("summarize(payload)")

	got := ScanDirectives(sb.String(), known)
	if len(got) != 1 || got[0].Task != "summarize" {
		t.Errorf("ScanDirectives() = %v, want the trailing summarize call", got)
	}
}

func TestScanDirectives_BoundsDirectiveCount(t *testing.T) {
	known := func(string) bool { return true }

	var sb strings.Builder
	for i := 0; i < maxDirectives+5; i++ {
		fmt.Fprintf(&sb, "task%d(x) ", i)
	}

	if got := ScanDirectives(sb.String(), known); len(got) != maxDirectives {
		t.Errorf("len = %d, want cap %d", len(got), maxDirectives)
	}
}

func TestRenderPrompt(t *testing.T) {
	got := RenderPrompt("Review $ARGUMENTS carefully.", "HEAD~3")
	if got != "Review HEAD~3 carefully." {
		t.Errorf("RenderPrompt() = %q", got)
	}
	if plain := RenderPrompt("no placeholder", "x"); plain != "no placeholder" {
		t.Errorf("RenderPrompt() = %q, want unchanged", plain)
	}
}

func TestCallNode(t *testing.T) {
	root := newRootNode("a")
	if root.Depth != 0 || root.OnPath("a") {
		t.Errorf("root = %+v, want depth 0 with empty path", root)
	}

	b := root.Child("b")
	if b.Depth != 1 {
		t.Errorf("Depth = %d, want 1", b.Depth)
	}
	if !b.OnPath("a") {
		t.Error("a should be on b's path")
	}
	if b.OnPath("b") {
		t.Error("a node is not its own ancestor")
	}

	// Sibling ancestor sets are independent copies.
	c := root.Child("c")
	cb := c.Child("b")
	if !cb.OnPath("c") || cb.OnPath("b") {
		t.Errorf("cb path wrong: %+v", cb.Ancestors)
	}
	if b.OnPath("c") {
		t.Error("sibling branch leaked into b's ancestors")
	}
}
