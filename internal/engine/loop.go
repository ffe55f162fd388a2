package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stewardbot/steward/internal/classify"
	"github.com/stewardbot/steward/internal/llm"
	"github.com/stewardbot/steward/pkg/models"
)

// nodeParams carries the per-invocation inputs of the execution loop that
// are not part of the task record.
type nodeParams struct {
	// conversation is the preserved history of a resumed checkpoint; nil
	// for fresh nodes.
	conversation []llm.Message
	// guidance is an optional operator message injected on resume.
	guidance string
	// contextFiles are workspace paths injected into a freshly delegated
	// child's first turn.
	contextFiles []string
	// forcedTier bypasses classification when set.
	forcedTier models.Tier
	// resumed disables the planner first-response rule, which applies
	// only to a fresh planner run.
	resumed bool
}

// runNode is the single entry point for executing any node, root or
// delegated. It is also the single fault boundary: any unexpected error
// inside the loop terminates the node as failed, with no retries.
func (e *Engine) runNode(ctx context.Context, task *models.Task, p nodeParams) *Outcome {
	out, err := e.runLoop(ctx, task, p)
	if err != nil {
		msg := err.Error()
		if serr := e.store.SetTaskStatus(task.ID, models.TaskStatusFailed, msg); serr != nil {
			log.Printf("engine: failed to mark task %s failed: %v", task.ID, serr)
		}
		return &Outcome{
			TaskID: task.ID,
			Status: models.TaskStatusFailed,
			Text:   "Task failed: " + msg,
		}
	}
	return out
}

// runLoop drives the bounded call/tool cycle for one node.
func (e *Engine) runLoop(ctx context.Context, task *models.Task, p nodeParams) (*Outcome, error) {
	if err := e.store.SetTaskStatus(task.ID, models.TaskStatusClassifying, ""); err != nil {
		return nil, err
	}

	var cls classify.Classification
	switch {
	case task.Role == models.RolePlanner:
		cls = classify.Fixed(e.cfg, models.TierPlanner)
	case p.forcedTier != "":
		cls = classify.Fixed(e.cfg, p.forcedTier)
	case task.Tier != "":
		// A resumed task keeps the tier it was classified into.
		cls = classify.Fixed(e.cfg, task.Tier)
	default:
		cls = e.classifier.Classify(ctx, task.Description)
	}
	task.Tier = cls.Tier
	task.Model = cls.Model
	task.Status = models.TaskStatusInProgress
	if err := e.store.UpdateTask(task); err != nil {
		return nil, err
	}

	conversation := p.conversation
	if conversation == nil {
		conversation = e.initialConversation(task, p.contextFiles)
	} else {
		conversation = e.resumeConversation(ctx, task, conversation, p.guidance)
	}

	system := systemPromptFor(task.Role, task.Depth)
	toolset := llm.Toolset(task.Depth < e.cfg.Limits.MaxDelegationDepth)
	firstResponse := !p.resumed
	finalText := ""

	for task.StepCount < task.MaxSteps {
		task.StepCount++
		if err := e.store.UpdateTask(task); err != nil {
			return nil, err
		}

		// Guards run before every call; they are safety nets independent
		// of per-call accounting.
		fresh, err := e.store.GetTask(task.ID)
		if err != nil {
			return nil, err
		}
		if fresh.TokenCost > fresh.Budget {
			return e.stall(task, "budget exceeded", fmt.Sprintf(
				"Task halted: budget ($%.2f) exceeded, spent $%.4f so far.",
				fresh.Budget, fresh.TokenCost))
		}
		daily, err := e.store.DailyCost(time.Now())
		if err != nil {
			return nil, err
		}
		if daily > e.cfg.Budgets.DailyCeiling {
			return e.stall(task, "daily limit exceeded", fmt.Sprintf(
				"Daily budget ceiling ($%.2f) reached: $%.4f spent today.",
				e.cfg.Budgets.DailyCeiling, daily))
		}
		if e.stop != nil && e.stop.ShouldStop() {
			return e.stall(task, "stop signal", "Halted by operator stop signal.")
		}

		resp, err := e.reasoner.Invoke(ctx, llm.Request{
			Model:     task.Model,
			System:    system,
			MaxTokens: cls.MaxOutputTokens,
			Messages:  conversation,
			Tools:     toolset,
		})
		if err != nil {
			return nil, err
		}

		callCost := e.pricing.Cost(task.Model, resp.InputTokens, resp.OutputTokens)
		if err := e.store.AppendCostLog(&models.CostLogEntry{
			TaskID:       task.ID,
			Model:        task.Model,
			Tier:         task.Tier,
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
			CostUSD:      callCost,
		}); err != nil {
			return nil, err
		}

		if text := resp.Text(); text != "" {
			finalText = text
		}
		toolReqs := resp.ToolRequests()

		// A planner's first plan is never executed unapproved: if it is
		// about to start delegating, hand control back first.
		if firstResponse && task.Role == models.RolePlanner && len(toolReqs) > 0 {
			conversation = append(conversation, resp.AssistantMessage())
			return e.suspend(task, conversation, ReasonPlanReady, finalText)
		}
		firstResponse = false

		if resp.EndTurn || len(toolReqs) == 0 {
			break
		}

		conversation = append(conversation, resp.AssistantMessage())
		conversation = append(conversation, llm.ToolResults(e.executeTools(ctx, task, toolReqs)))

		if task.Depth == 0 && task.Role == models.RoleWorker &&
			finalText != "" && e.uncertain(finalText) {
			return e.suspend(task, conversation, ReasonUncertainty, finalText)
		}
	}

	// Falling out of the loop is best-effort completion, whether the
	// service signaled end_turn or the step ceiling ran out.
	task.Status = models.TaskStatusCompleted
	task.Result = truncate(finalText, maxResultStored)
	if err := e.store.UpdateTask(task); err != nil {
		return nil, err
	}
	if task.Depth == 0 {
		e.saveMemory(task, finalText)
	}
	return &Outcome{TaskID: task.ID, Status: models.TaskStatusCompleted, Text: finalText}, nil
}

// initialConversation assembles the first turn for a fresh node: injected
// memories for depth-0 workers, injected context files for delegated
// children, the bare description otherwise.
func (e *Engine) initialConversation(task *models.Task, contextFiles []string) []llm.Message {
	var conversation []llm.Message

	if task.Depth == 0 && task.Role == models.RoleWorker {
		memories, err := e.store.SearchMemories(extractKeywords(task.Description), maxMemoriesInjected)
		if err != nil {
			log.Printf("engine: memory search failed for task %s: %v", task.ID, err)
		}
		if len(memories) > 0 {
			conversation = append(conversation,
				llm.UserText(formatMemories(memories)),
				llm.AssistantText("Understood, I'll keep that context in mind."))
		}
	}

	if task.Depth > 0 && len(contextFiles) > 0 {
		for _, path := range contextFiles {
			content, err := e.tools.ReadFile(path)
			if err != nil {
				content = fmt.Sprintf("(could not read %s: %v)", path, err)
			}
			conversation = append(conversation,
				llm.UserText(fmt.Sprintf("Contents of %s:\n%s", path, content)))
		}
	}

	return append(conversation, llm.UserText(task.Description))
}

// resumeConversation prepares a restored checkpoint for the next call.
// If the node suspended mid-step with unexecuted tool requests (a
// plan-ready checkpoint), those run first; approval is what releases the
// plan. Operator guidance rides along on the last user turn.
func (e *Engine) resumeConversation(ctx context.Context, task *models.Task, conversation []llm.Message, guidance string) []llm.Message {
	if n := len(conversation); n > 0 && conversation[n-1].Role == llm.RoleAssistant {
		if reqs := pendingToolRequests(conversation[n-1]); len(reqs) > 0 {
			conversation = append(conversation, llm.ToolResults(e.executeTools(ctx, task, reqs)))
		}
	}
	if guidance != "" {
		if n := len(conversation); n > 0 && conversation[n-1].Role == llm.RoleUser {
			conversation[n-1].Blocks = append(conversation[n-1].Blocks,
				llm.Block{Type: llm.BlockText, Text: guidance})
		} else {
			conversation = append(conversation, llm.UserText(guidance))
		}
	}
	return conversation
}

// pendingToolRequests returns the unanswered tool_use blocks of an
// assistant turn.
func pendingToolRequests(m llm.Message) []llm.Block {
	var reqs []llm.Block
	for _, b := range m.Blocks {
		if b.Type == llm.BlockToolUse {
			reqs = append(reqs, b)
		}
	}
	return reqs
}

// executeTools runs tool requests sequentially in request order. The
// delegation tool routes back into the engine; everything else goes to
// the tool runner. Results never carry Go errors.
func (e *Engine) executeTools(ctx context.Context, task *models.Task, reqs []llm.Block) []llm.Block {
	results := make([]llm.Block, 0, len(reqs))
	for _, req := range reqs {
		var result string
		if req.Name == llm.DelegateToolName {
			result = e.delegate(ctx, task, req.Input)
		} else {
			result = e.tools.Execute(ctx, req.Name, req.Input)
		}
		results = append(results, llm.Block{
			Type:    llm.BlockToolResult,
			ID:      req.ID,
			Content: result,
		})
	}
	return results
}

// stall terminates a node on a resource limit. Recovery is human
// re-submission with a fresh budget, never an automatic retry.
func (e *Engine) stall(task *models.Task, reason, text string) (*Outcome, error) {
	if err := e.store.SetTaskStatus(task.ID, models.TaskStatusStalled, reason); err != nil {
		return nil, err
	}
	return &Outcome{TaskID: task.ID, Status: models.TaskStatusStalled, Text: text}, nil
}

// suspend parks a node in checkpoint status with its conversation
// preserved both in process and on the task row.
func (e *Engine) suspend(task *models.Task, conversation []llm.Message, reason CheckpointReason, text string) (*Outcome, error) {
	snapshot, err := llm.MarshalConversation(conversation)
	if err != nil {
		return nil, fmt.Errorf("snapshot conversation: %w", err)
	}
	if err := e.store.SaveConversation(task.ID, snapshot); err != nil {
		return nil, err
	}
	if err := e.store.SetTaskStatus(task.ID, models.TaskStatusCheckpoint, ""); err != nil {
		return nil, err
	}
	e.checkpoints.put(&PendingCheckpoint{
		TaskID:       task.ID,
		Reason:       reason,
		Conversation: conversation,
		Budget:       task.Budget,
		CreatedAt:    time.Now(),
	})
	return &Outcome{
		TaskID: task.ID,
		Status: models.TaskStatusCheckpoint,
		Text:   text,
		Reason: reason,
	}, nil
}

// saveMemory records a completed root task's summary for future context
// injection. Memory is best-effort: a failure never fails the task.
func (e *Engine) saveMemory(task *models.Task, finalText string) {
	result := finalText
	if result == "" {
		result = "No text output"
	}
	m := &models.SessionMemory{
		TaskID:  task.ID,
		Summary: fmt.Sprintf("%s: %s", truncate(task.Description, 200), truncate(result, 300)),
		Tags:    extractKeywords(task.Description),
	}
	if err := e.store.SaveSessionMemory(m); err != nil {
		log.Printf("engine: failed to save session memory for task %s: %v", task.ID, err)
	}
}
