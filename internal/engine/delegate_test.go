package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stewardbot/steward/internal/llm"
	"github.com/stewardbot/steward/pkg/models"
)

func createParent(t *testing.T, db interface {
	CreateTask(*models.Task) error
}, depth int, budget, spent float64) *models.Task {
	t.Helper()
	parent := &models.Task{
		Depth:       depth,
		Description: "parent task",
		Role:        models.RolePlanner,
		Status:      models.TaskStatusInProgress,
		Budget:      budget,
		TokenCost:   spent,
		MaxSteps:    10,
	}
	if err := db.CreateTask(parent); err != nil {
		t.Fatalf("create parent: %v", err)
	}
	return parent
}

func rawDelegate(description string, budget float64) json.RawMessage {
	input, _ := json.Marshal(delegateInput{
		TaskDescription: description,
		ExpectedOutput:  "a result",
		BudgetUSD:       budget,
	})
	return input
}

func TestDelegateSpawnsChild(t *testing.T) {
	reasoner := &scriptedReasoner{responses: []*llm.Response{
		textResponse("child result text"),
	}}
	notifier := &recordingNotifier{}
	eng, db, _ := setupEngine(t, reasoner, WithNotifier(notifier))
	parent := createParent(t, db, 0, 5.0, 0)

	result := eng.delegate(context.Background(), parent, rawDelegate("Summarize chapter 1", 0.10))

	if strings.HasPrefix(result, "Error") {
		t.Fatalf("delegate failed: %s", result)
	}
	if !strings.Contains(result, "child result text") {
		t.Errorf("result %q should carry the child's output", result)
	}
	// Completed children report without a status prefix.
	if strings.Contains(result, "[completed]") {
		t.Errorf("result %q should not carry a status prefix", result)
	}

	children, err := db.ListChildren(parent.ID)
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(children) != 1 {
		t.Fatalf("children = %d, want 1", len(children))
	}
	child := children[0]
	if child.Depth != parent.Depth+1 {
		t.Errorf("child depth = %d, want %d", child.Depth, parent.Depth+1)
	}
	if child.Role != models.RoleWorker {
		t.Errorf("child role = %s, want worker", child.Role)
	}
	if child.Budget != 0.10 {
		t.Errorf("child budget = %.2f, want 0.10", child.Budget)
	}
	if child.MaxSteps >= parent.MaxSteps {
		t.Errorf("child step ceiling %d should be below the parent's %d", child.MaxSteps, parent.MaxSteps)
	}

	// The child's terminal cost cascaded to the parent exactly once.
	got, _ := db.GetTask(parent.ID)
	if got.TokenCost != child.TokenCost {
		t.Errorf("parent cost = %.6f, want the child's %.6f", got.TokenCost, child.TokenCost)
	}

	if len(notifier.events) != 1 || notifier.events[0] != "subtask_completed" {
		t.Errorf("events = %v, want [subtask_completed]", notifier.events)
	}
}

func TestDelegateBudgetClampedToRemaining(t *testing.T) {
	reasoner := &scriptedReasoner{responses: []*llm.Response{
		textResponse("child done"),
	}}
	eng, db, _ := setupEngine(t, reasoner)
	// $0.30 left of a $1.00 budget.
	parent := createParent(t, db, 0, 1.00, 0.70)

	result := eng.delegate(context.Background(), parent, rawDelegate("small subtask", 2.00))
	if strings.HasPrefix(result, "Error") {
		t.Fatalf("delegate failed: %s", result)
	}

	children, _ := db.ListChildren(parent.ID)
	if len(children) != 1 {
		t.Fatalf("children = %d, want 1", len(children))
	}
	if got := children[0].Budget; got > 0.30+1e-9 {
		t.Errorf("child budget = %.4f, want clamped to 0.30", got)
	}
}

func TestDelegateRejectsWhenBudgetExhausted(t *testing.T) {
	eng, db, _ := setupEngine(t, &scriptedReasoner{})
	// Less than the minimum subtask budget remains.
	parent := createParent(t, db, 0, 1.00, 0.995)

	result := eng.delegate(context.Background(), parent, rawDelegate("anything", 0.50))
	if !strings.HasPrefix(result, "Error") {
		t.Fatalf("delegate should reject, got %q", result)
	}
	if !strings.Contains(result, "budget") {
		t.Errorf("rejection %q should explain the budget problem", result)
	}

	children, _ := db.ListChildren(parent.ID)
	if len(children) != 0 {
		t.Errorf("rejection must not create a child row, got %d", len(children))
	}
}

func TestDelegateRejectsDepthLimit(t *testing.T) {
	eng, db, _ := setupEngine(t, &scriptedReasoner{})
	cfg := eng.cfg
	parent := createParent(t, db, cfg.Limits.MaxDelegationDepth, 1.00, 0)

	result := eng.delegate(context.Background(), parent, rawDelegate("too deep", 0.10))
	if !strings.Contains(result, "depth") {
		t.Fatalf("want a depth rejection, got %q", result)
	}

	children, _ := db.ListChildren(parent.ID)
	if len(children) != 0 {
		t.Errorf("depth rejection must not create a child row, got %d", len(children))
	}
}

func TestDelegateRejectsFanOutLimit(t *testing.T) {
	eng, db, _ := setupEngine(t, &scriptedReasoner{})
	parent := createParent(t, db, 0, 5.00, 0)

	limit := eng.cfg.Limits.MaxSubtasksPerTask
	for i := 0; i < limit; i++ {
		child := &models.Task{
			ParentID:    parent.ID,
			Depth:       1,
			Description: fmt.Sprintf("child %d", i),
			Role:        models.RoleWorker,
			Status:      models.TaskStatusCompleted,
			Budget:      0.01,
			MaxSteps:    6,
		}
		if err := db.CreateTask(child); err != nil {
			t.Fatalf("create child %d: %v", i, err)
		}
	}

	result := eng.delegate(context.Background(), parent, rawDelegate("one too many", 0.10))
	if !strings.Contains(result, "subtask limit") {
		t.Fatalf("want a fan-out rejection, got %q", result)
	}

	n, _ := db.CountChildren(parent.ID)
	if n != limit {
		t.Errorf("children = %d, want exactly %d", n, limit)
	}
}

func TestDelegateFailedChildReportsStatus(t *testing.T) {
	// The child's only call faults, so it terminates failed; the parent
	// sees a status-prefixed summary, not a Go error.
	eng, db, _ := setupEngine(t, &scriptedReasoner{})
	parent := createParent(t, db, 0, 5.00, 0)

	result := eng.delegate(context.Background(), parent, rawDelegate("doomed subtask", 0.10))
	if !strings.HasPrefix(result, "[failed]") {
		t.Errorf("result %q should carry a [failed] prefix", result)
	}
}

func TestDelegateTruncatesLongChildResult(t *testing.T) {
	long := strings.Repeat("verbose output ", 100)
	reasoner := &scriptedReasoner{responses: []*llm.Response{textResponse(long)}}
	eng, db, _ := setupEngine(t, reasoner)
	parent := createParent(t, db, 0, 5.00, 0)

	result := eng.delegate(context.Background(), parent, rawDelegate("chatty subtask", 0.10))
	if len(result) > maxChildSummary+100 {
		t.Errorf("summary is %d chars, want bounded near %d", len(result), maxChildSummary)
	}
	if !strings.Contains(result, "truncated") {
		t.Error("truncated summary should carry a truncation marker")
	}
}
