package models

import "time"

// TaskStatus represents the current state of a task node.
type TaskStatus string

const (
	// TaskStatusQueued indicates the task has been created but not started.
	TaskStatusQueued TaskStatus = "queued"
	// TaskStatusClassifying indicates the task is being routed to a tier.
	TaskStatusClassifying TaskStatus = "classifying"
	// TaskStatusInProgress indicates the execution loop is running.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCheckpoint indicates the task is suspended awaiting approval.
	TaskStatusCheckpoint TaskStatus = "checkpoint"
	// TaskStatusCompleted indicates the task finished with a result.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task terminated with an error.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusStalled indicates the task was halted by a resource limit.
	TaskStatusStalled TaskStatus = "stalled"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusQueued, TaskStatusClassifying, TaskStatusInProgress,
		TaskStatusCheckpoint, TaskStatusCompleted, TaskStatusFailed, TaskStatusStalled:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a final state. A checkpointed
// task is suspended, not terminal: it can still be resumed.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusStalled:
		return true
	default:
		return false
	}
}

// Role determines how a task node uses the execution loop.
type Role string

const (
	// RolePlanner decomposes work by delegating subtasks.
	RolePlanner Role = "planner"
	// RoleWorker executes work directly with its own tools.
	RoleWorker Role = "worker"
)

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	return r == RolePlanner || r == RoleWorker
}

// Task is one node in the delegation tree. Roots are user-submitted;
// children are spawned by the delegation tool. Rows are never deleted:
// terminal and suspended tasks form the audit trail.
type Task struct {
	// ID is the unique identifier, orderable by creation time.
	ID string `json:"id"`
	// ParentID is the spawning task's ID; empty for roots.
	ParentID string `json:"parent_id,omitempty"`
	// Depth is 0 for roots; child depth is parent depth + 1.
	Depth int `json:"depth"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Description is the natural-language task statement.
	Description string `json:"description"`
	// Role is decided once at creation and never changes.
	Role Role `json:"role"`
	// Tier is the reasoning tier selected for this task.
	Tier Tier `json:"tier,omitempty"`
	// Model is the concrete model id picked for the tier.
	Model string `json:"model,omitempty"`
	// Budget is the USD ceiling assigned at creation.
	Budget float64 `json:"budget"`
	// TokenCost is USD spent so far, including cascaded child costs.
	TokenCost float64 `json:"token_cost"`
	// InputTokens is the total input tokens billed to this task.
	InputTokens int64 `json:"input_tokens"`
	// OutputTokens is the total output tokens billed to this task.
	OutputTokens int64 `json:"output_tokens"`
	// StepCount is the number of loop iterations taken so far.
	StepCount int `json:"step_count"`
	// MaxSteps is the loop iteration ceiling for this task's depth.
	MaxSteps int `json:"max_steps"`
	// Result holds the final text for completed tasks.
	Result string `json:"result,omitempty"`
	// Error holds the failure reason for failed/stalled tasks.
	Error string `json:"error,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the task was last mutated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Remaining returns the unspent portion of the task's budget,
// floored at zero.
func (t *Task) Remaining() float64 {
	r := t.Budget - t.TokenCost
	if r < 0 {
		return 0
	}
	return r
}

// CostLogEntry is an immutable record of one reasoning-service call.
// Entries are append-only and are the source of truth for daily and
// monthly spend aggregates.
type CostLogEntry struct {
	ID           int64     `json:"id"`
	TaskID       string    `json:"task_id"`
	Model        string    `json:"model"`
	Tier         Tier      `json:"tier"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	Timestamp    time.Time `json:"timestamp"`
}

// SessionMemory is a post-hoc summary of a completed root task, injected
// into later tasks for situational context. Written once, never mutated.
type SessionMemory struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Summary   string    `json:"summary"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
