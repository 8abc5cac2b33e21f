package compose

// State tracks where one composition invocation is in its lifecycle.
type State int

const (
	// StatePending means the invocation has not started.
	StatePending State = iota
	// StateExpanding means nested-call directives are being extracted.
	StateExpanding
	// StateChildrenRunning means child subtrees are executing.
	StateChildrenRunning
	// StateParentRunning means the parent's own leaf pipeline is executing.
	StateParentRunning
	// StateDone means the invocation produced a success envelope.
	StateDone
	// StateFailed means the invocation produced an error envelope.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateExpanding:
		return "expanding"
	case StateChildrenRunning:
		return "children_running"
	case StateParentRunning:
		return "parent_running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
