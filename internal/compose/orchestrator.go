// Package compose drives composite task execution: it expands
// nested-call directives, runs each child through the full leaf pipeline
// recursively under depth and cycle limits, and folds child results back
// into the parent's execution context.
package compose

import (
	"context"
	"sync"
	"time"

	"github.com/kestrelworks/warden/internal/engine"
	"github.com/kestrelworks/warden/internal/policy"
	"github.com/kestrelworks/warden/internal/taxonomy"
	"github.com/kestrelworks/warden/pkg/models"
)

// DefaultMaxDepth is the default composition depth limit.
const DefaultMaxDepth = 5

// ExecFunc runs a task's prompt against the provider and returns the raw
// response text. The engine performs no I/O itself; this is the only
// injection point for it.
type ExecFunc func(ctx context.Context, def *models.TaskDefinition, input map[string]any) (string, error)

// Resolver looks task definitions up by name for directive expansion.
type Resolver interface {
	Resolve(name string) (*models.TaskDefinition, bool)
}

// Budget bounds a whole composition call tree.
type Budget struct {
	// MaxDepth is the deepest allowed call node; 0 means DefaultMaxDepth.
	MaxDepth int
	// Timeout covers the entire tree; 0 means no limit.
	Timeout time.Duration
}

// Orchestrator executes composite tasks.
type Orchestrator struct {
	engine   *engine.Engine
	resolver Resolver
	exec     ExecFunc
	budget   Budget
	logger   *DebugLogger
}

// New creates an orchestrator. The resolver supplies child definitions
// and exec performs the actual LLM calls.
func New(eng *engine.Engine, resolver Resolver, exec ExecFunc, budget Budget) *Orchestrator {
	if budget.MaxDepth <= 0 {
		budget.MaxDepth = DefaultMaxDepth
	}
	return &Orchestrator{
		engine:   eng,
		resolver: resolver,
		exec:     exec,
		budget:   budget,
		logger:   &DebugLogger{},
	}
}

// SetLogger sets the debug logger for composition runs.
func (o *Orchestrator) SetLogger(l *DebugLogger) {
	if l != nil {
		o.logger = l
	}
}

// Compose executes a root task, recursively expanding its nested calls,
// and returns its final envelope. Exceeding the timeout budget surfaces
// as a timeout error at whichever node was active; completed child
// results are discarded across that boundary.
func (o *Orchestrator) Compose(ctx context.Context, root *models.TaskDefinition, input map[string]any) models.Envelope {
	if root == nil {
		return taxonomy.NewFailure(taxonomy.CodeMalformedInput, "nil task definition").Build(nil)
	}
	if o.budget.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.budget.Timeout)
		defer cancel()
	}
	return o.run(ctx, newRootNode(root.Name), root, input)
}

// run executes one call node through the invocation state machine:
// Pending -> Expanding -> ChildrenRunning -> ParentRunning -> Done/Failed.
func (o *Orchestrator) run(ctx context.Context, node *CallNode, def *models.TaskDefinition, input map[string]any) models.Envelope {
	state := StatePending
	transition := func(next State) {
		o.logger.Log("[%s] task=%s depth=%d %s -> %s", node.ID, node.Task, node.Depth, state, next)
		state = next
	}

	transition(StateExpanding)
	directives := ScanDirectives(def.Prompt, func(name string) bool {
		_, ok := o.resolver.Resolve(name)
		return ok
	})

	if len(directives) > 0 {
		transition(StateChildrenRunning)
		children := o.runChildren(ctx, node, directives)

		if err := ctx.Err(); err != nil {
			// Join point crossed the timeout boundary: discard the
			// completed child results, no partial composition.
			transition(StateFailed)
			return taxonomy.NewFailure(taxonomy.CodeTimeout, err.Error()).Build(def)
		}

		// The caller's map stays untouched.
		merged := make(map[string]any, len(input)+1)
		for k, v := range input {
			merged[k] = v
		}
		merged["children"] = children
		input = merged
	}

	transition(StateParentRunning)
	env := o.runLeaf(ctx, def, input)
	if env.OK {
		transition(StateDone)
	} else {
		transition(StateFailed)
	}
	return env
}

// runChildren executes every directive's subtree and returns the child
// envelopes keyed by task name. Children whose context mode is fork are
// independent and run in parallel; if any child runs in main mode the
// whole expansion runs sequentially so earlier results are visible to
// later-scheduled siblings.
func (o *Orchestrator) runChildren(ctx context.Context, parent *CallNode, directives []Directive) map[string]models.Envelope {
	results := make(map[string]models.Envelope, len(directives))

	if o.allFork(directives) {
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, d := range directives {
			wg.Add(1)
			go func(d Directive) {
				defer wg.Done()
				env := o.runChild(ctx, parent, d, nil)
				mu.Lock()
				results[d.Task] = env
				mu.Unlock()
			}(d)
		}
		wg.Wait()
		return results
	}

	shared := map[string]any{}
	for _, d := range directives {
		env := o.runChild(ctx, parent, d, shared)
		results[d.Task] = env

		def, ok := o.resolver.Resolve(d.Task)
		if ok && env.OK && o.contextMode(def) == models.ContextMain {
			shared[d.Task] = env
		}
	}
	return results
}

// runChild guards one nested call against the depth and cycle limits and
// then recurses into the full pipeline for its subtree.
func (o *Orchestrator) runChild(ctx context.Context, parent *CallNode, d Directive, shared map[string]any) models.Envelope {
	def, ok := o.resolver.Resolve(d.Task)
	if !ok {
		return taxonomy.NewFailure(taxonomy.CodeMalformedInput, "unknown task "+d.Task).Build(nil)
	}

	node := parent.Child(d.Task)
	if f := o.guard(node); f != nil {
		o.logger.Log("[%s] task=%s depth=%d rejected: %s", node.ID, node.Task, node.Depth, f.Code)
		return f.Build(def)
	}

	input := map[string]any{"arguments": d.Args}
	if len(shared) > 0 && o.contextMode(def) == models.ContextMain {
		siblings := make(map[string]any, len(shared))
		for name, env := range shared {
			siblings[name] = env
		}
		input["siblings"] = siblings
	}

	return o.run(ctx, node, def, input)
}

// guard rejects a call node that exceeds the depth budget or closes a
// cycle. Both conditions are fatal for the subtree and never retried.
func (o *Orchestrator) guard(node *CallNode) *taxonomy.Failure {
	if node.Depth > o.budget.MaxDepth {
		return taxonomy.NewFailure(taxonomy.CodeMaxDepthExceeded, node.Task)
	}
	if node.OnPath(node.Task) {
		return taxonomy.NewFailure(taxonomy.CodeCircularCall, node.Task)
	}
	return nil
}

// runLeaf executes one task's prompt and validates the response.
func (o *Orchestrator) runLeaf(ctx context.Context, def *models.TaskDefinition, input map[string]any) models.Envelope {
	raw, err := o.exec(ctx, def, input)
	if err != nil {
		if ctx.Err() != nil {
			return taxonomy.NewFailure(taxonomy.CodeTimeout, ctx.Err().Error()).Build(def)
		}
		return taxonomy.NewFailure(taxonomy.CodeProviderUnavailable, err.Error()).Build(def)
	}
	return o.engine.Process(ctx, raw, def)
}

// allFork reports whether every directive's task runs in fork mode.
func (o *Orchestrator) allFork(directives []Directive) bool {
	for _, d := range directives {
		def, ok := o.resolver.Resolve(d.Task)
		if !ok {
			continue
		}
		if o.contextMode(def) == models.ContextMain {
			return false
		}
	}
	return true
}

// contextMode resolves a task's effective context mode.
func (o *Orchestrator) contextMode(def *models.TaskDefinition) models.ContextMode {
	pol, err := policy.Resolve(def)
	if err != nil {
		return models.ContextFork
	}
	return pol.ContextMode
}
