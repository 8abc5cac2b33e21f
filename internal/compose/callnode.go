package compose

import "github.com/google/uuid"

// CallNode is the ephemeral per-edge state of one composition call.
// The ancestor set is path-local: it is copied at every fan-out point
// and never shared across sibling branches, so two branches calling the
// same task independently do not falsely trigger cycle detection.
type CallNode struct {
	// ID identifies the node in debug logs.
	ID string
	// Task is the task name this node executes.
	Task string
	// Depth is the node's depth in the call tree; the root is 0.
	Depth int
	// Ancestors holds the task names on the path from the root to the
	// parent of this node.
	Ancestors map[string]struct{}
}

// newRootNode creates the call node for the root task.
func newRootNode(task string) *CallNode {
	return &CallNode{
		ID:        uuid.New().String()[:8],
		Task:      task,
		Depth:     0,
		Ancestors: map[string]struct{}{},
	}
}

// Child creates the node for a nested call, with depth+1 and a fresh
// copy of the ancestor set extended by this node's task.
func (n *CallNode) Child(task string) *CallNode {
	ancestors := make(map[string]struct{}, len(n.Ancestors)+1)
	for name := range n.Ancestors {
		ancestors[name] = struct{}{}
	}
	ancestors[n.Task] = struct{}{}

	return &CallNode{
		ID:        uuid.New().String()[:8],
		Task:      task,
		Depth:     n.Depth + 1,
		Ancestors: ancestors,
	}
}

// OnPath returns true if the task name already appears on this node's
// root-to-parent path, i.e. executing it would close a cycle.
func (n *CallNode) OnPath(task string) bool {
	_, ok := n.Ancestors[task]
	return ok
}
