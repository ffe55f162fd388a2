package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/stewardbot/steward/pkg/models"
)

// delegateInput is the delegation tool's argument payload.
type delegateInput struct {
	TaskDescription string   `json:"task_description"`
	ExpectedOutput  string   `json:"expected_output"`
	BudgetUSD       float64  `json:"budget_usd"`
	ContextFiles    []string `json:"context_files,omitempty"`
}

// delegate handles a delegate_task tool call from a running node. All
// validation failures come back as error strings, not Go faults: the
// reasoning service must see them and adapt its plan.
func (e *Engine) delegate(ctx context.Context, parent *models.Task, input json.RawMessage) string {
	var spec delegateInput
	if err := json.Unmarshal(input, &spec); err != nil {
		return fmt.Sprintf("Error: invalid delegation request: %v", err)
	}
	if spec.TaskDescription == "" {
		return "Error: task_description is required."
	}

	childDepth := parent.Depth + 1
	if childDepth > e.cfg.Limits.MaxDelegationDepth {
		return fmt.Sprintf("Error: max delegation depth (%d) reached. Execute directly instead.",
			e.cfg.Limits.MaxDelegationDepth)
	}

	count, err := e.store.CountChildren(parent.ID)
	if err != nil {
		return fmt.Sprintf("Error: could not check subtask count: %v", err)
	}
	if count >= e.cfg.Limits.MaxSubtasksPerTask {
		return fmt.Sprintf("Error: max subtask limit (%d) reached for this task.",
			e.cfg.Limits.MaxSubtasksPerTask)
	}

	// The parent's remaining budget is read fresh: earlier siblings have
	// already cascaded their spend into it.
	fresh, err := e.store.GetTask(parent.ID)
	if err != nil {
		return fmt.Sprintf("Error: could not read parent task: %v", err)
	}
	remaining := fresh.Remaining()

	budget := spec.BudgetUSD
	if budget < e.cfg.Budgets.MinSubtask {
		budget = e.cfg.Budgets.MinSubtask
	}
	if budget > e.cfg.Budgets.MaxSubtask {
		budget = e.cfg.Budgets.MaxSubtask
	}
	if budget > remaining {
		budget = remaining
	}
	if budget < e.cfg.Budgets.MinSubtask {
		return fmt.Sprintf("Error: insufficient budget remaining ($%.4f).", remaining)
	}

	description := spec.TaskDescription
	if spec.ExpectedOutput != "" {
		description = fmt.Sprintf("%s\n\nExpected output: %s", description, spec.ExpectedOutput)
	}

	child := &models.Task{
		ParentID:    parent.ID,
		Depth:       childDepth,
		Description: description,
		Role:        models.RoleWorker,
		Budget:      budget,
		MaxSteps:    e.cfg.MaxStepsForDepth(childDepth),
	}
	if err := e.store.CreateTask(child); err != nil {
		return fmt.Sprintf("Error: could not create subtask: %v", err)
	}

	outcome := e.runNode(ctx, child, nodeParams{contextFiles: spec.ContextFiles})

	// Cascade the child's terminal cost up the ancestor chain, exactly
	// once, before the parent sees the result. A parent never reads a
	// child's output without having accounted its cost.
	childCost := 0.0
	if done, err := e.store.GetTask(child.ID); err == nil {
		childCost = done.TokenCost
	}
	if _, err := e.store.CascadeCost(parent.ID, childCost); err != nil {
		log.Printf("engine: cost cascade failed for subtask %s: %v", child.ID, err)
	}

	e.notifier.Notify("subtask_completed", map[string]any{
		"task_id":     child.ID,
		"description": head(spec.TaskDescription, 100),
		"cost":        childCost,
		"status":      string(outcome.Status),
	})

	response := outcome.Text
	if response == "" {
		response = "(no output)"
	}
	response = truncate(response, maxChildSummary)

	statusPrefix := ""
	if outcome.Status != models.TaskStatusCompleted {
		statusPrefix = fmt.Sprintf("[%s] ", outcome.Status)
	}
	return fmt.Sprintf("%sSubtask result ($%.4f):\n%s", statusPrefix, childCost, response)
}
