package engine

import (
	"strings"
	"sync"
	"time"

	"github.com/stewardbot/steward/internal/llm"
)

// CheckpointReason categorizes why a node suspended, so the surface layer
// can render plan approvals differently from uncertainty pauses.
type CheckpointReason string

const (
	// ReasonPlanReady means a planner produced its first plan and wants
	// approval before any subtask spends money.
	ReasonPlanReady CheckpointReason = "plan-ready"
	// ReasonUncertainty means the node hedged and wants redirection.
	ReasonUncertainty CheckpointReason = "uncertainty"
	// ReasonApproachingLimit means the node is near its step ceiling.
	ReasonApproachingLimit CheckpointReason = "approaching-limit"
)

// PendingCheckpoint holds the suspended state of a checkpointed node. The
// conversation is also persisted on the task row, so a checkpoint created
// before a restart is still resumable from storage.
type PendingCheckpoint struct {
	TaskID       string
	Reason       CheckpointReason
	Conversation []llm.Message
	Budget       float64
	CreatedAt    time.Time
}

// checkpointRegistry is the process-scoped map of suspended nodes. A node
// in checkpoint status has at most one entry; entries are removed on
// resume or rejection.
type checkpointRegistry struct {
	mu      sync.Mutex
	pending map[string]*PendingCheckpoint
}

func newCheckpointRegistry() *checkpointRegistry {
	return &checkpointRegistry{pending: make(map[string]*PendingCheckpoint)}
}

func (r *checkpointRegistry) put(pc *PendingCheckpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[pc.TaskID] = pc
}

// take removes and returns the entry for a task, if present.
func (r *checkpointRegistry) take(taskID string) (*PendingCheckpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pc, ok := r.pending[taskID]
	if ok {
		delete(r.pending, taskID)
	}
	return pc, ok
}

// UncertaintyDetector decides whether a response text warrants handing
// control back to the operator. Pluggable so the phrase heuristic can be
// replaced without touching the loop.
type UncertaintyDetector func(text string) bool

// uncertaintyMarkers are hedging phrases that suggest the node wants a
// decision it should not make alone.
var uncertaintyMarkers = []string{
	"i'm not sure",
	"i'm unsure",
	"this could go either way",
	"do you want me to",
	"should i proceed",
	"before i continue",
	"a few options",
	"which approach",
	"let me know if",
	"would you prefer",
}

// DefaultUncertaintyDetector matches the built-in hedging phrase list.
func DefaultUncertaintyDetector(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range uncertaintyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
