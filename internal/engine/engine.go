// Package engine implements the delegation and execution core: task-tree
// creation, per-node budget and step enforcement, the call/tool loop,
// checkpoint semantics, cost cascading, and crash recovery.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/stewardbot/steward/internal/classify"
	"github.com/stewardbot/steward/internal/config"
	"github.com/stewardbot/steward/internal/cost"
	"github.com/stewardbot/steward/internal/llm"
	"github.com/stewardbot/steward/internal/store"
	"github.com/stewardbot/steward/pkg/models"
)

// ErrNoCheckpoint is returned when a resume or rejection targets a task
// that has no live checkpoint.
var ErrNoCheckpoint = errors.New("task has no pending checkpoint")

// Reasoner is the reasoning capability the loop invokes. The engine never
// retries faults: a failed call terminates the node.
type Reasoner interface {
	Invoke(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// ToolRunner executes tool requests. Execute must never fail past the
// boundary: faults come back as result strings the reasoning service can
// see and react to.
type ToolRunner interface {
	Execute(ctx context.Context, name string, input json.RawMessage) string
	ReadFile(path string) (string, error)
}

// Notifier receives fire-and-forget progress events. Failures are the
// notifier's problem, never the engine's.
type Notifier interface {
	Notify(event string, payload map[string]any)
}

// StopCheck reports an operator-requested halt. Loops consult it at each
// step boundary.
type StopCheck interface {
	ShouldStop() bool
}

// logNotifier is the default notification sink.
type logNotifier struct{}

func (logNotifier) Notify(event string, payload map[string]any) {
	log.Printf("engine: %s %v", event, payload)
}

// Outcome is the terminal or suspended result of running a node.
type Outcome struct {
	TaskID string
	Status models.TaskStatus
	// Text is the final response, or the reason text for non-completed
	// outcomes.
	Text string
	// Reason is set only for checkpoint outcomes.
	Reason CheckpointReason
}

// Engine drives the delegation tree. One Engine serves all root tasks;
// delegated children re-enter it recursively through the delegation tool.
type Engine struct {
	cfg        *config.Config
	store      store.Store
	reasoner   Reasoner
	tools      ToolRunner
	classifier classify.Classifier
	pricing    cost.Table

	notifier    Notifier
	uncertain   UncertaintyDetector
	stop        StopCheck
	checkpoints *checkpointRegistry
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier replaces the default logging notification sink.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithUncertaintyDetector replaces the hedging-phrase heuristic.
func WithUncertaintyDetector(d UncertaintyDetector) Option {
	return func(e *Engine) { e.uncertain = d }
}

// WithStopCheck wires an operator stop signal into the loop guards.
func WithStopCheck(s StopCheck) Option {
	return func(e *Engine) { e.stop = s }
}

// WithPricing replaces the built-in pricing table.
func WithPricing(t cost.Table) Option {
	return func(e *Engine) { e.pricing = t }
}

// New creates an Engine.
func New(cfg *config.Config, st store.Store, reasoner Reasoner, tools ToolRunner, classifier classify.Classifier, opts ...Option) *Engine {
	e := &Engine{
		cfg:         cfg,
		store:       st,
		reasoner:    reasoner,
		tools:       tools,
		classifier:  classifier,
		pricing:     cost.DefaultTable(),
		notifier:    logNotifier{},
		uncertain:   DefaultUncertaintyDetector,
		checkpoints: newCheckpointRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit creates a root task from a natural-language request and runs it
// to a terminal or suspended outcome. A leading "$N " price tag sets the
// budget; a "!fast "/"!deep " marker forces the tier.
func (e *Engine) Submit(ctx context.Context, description string) (*Outcome, error) {
	budget, description := ParseBudget(description,
		e.cfg.Budgets.DefaultTask, e.cfg.Budgets.MinSubtask, e.cfg.Budgets.MaxTask)
	forcedTier, description, _ := classify.Override(description)
	if description == "" {
		return nil, errors.New("empty task description")
	}

	role := models.RoleWorker
	if budget > e.cfg.Budgets.PlannerThreshold ||
		len(description) > e.cfg.Budgets.PlannerLength ||
		hasDecompositionSignal(description) {
		role = models.RolePlanner
	}

	task := &models.Task{
		Depth:       0,
		Description: description,
		Role:        role,
		Budget:      budget,
		MaxSteps:    e.cfg.MaxStepsForDepth(0),
	}
	if err := e.store.CreateTask(task); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	return e.runNode(ctx, task, nodeParams{forcedTier: forcedTier}), nil
}

// Resume continues a checkpointed task from its preserved conversation.
// Optional guidance is injected as an operator turn. The conversation is
// taken from the in-process registry, or recovered from the stored
// snapshot when the checkpoint predates a restart.
func (e *Engine) Resume(ctx context.Context, taskID, guidance string) (*Outcome, error) {
	task, err := e.store.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	if task.Status != models.TaskStatusCheckpoint {
		return nil, ErrNoCheckpoint
	}

	conversation, err := e.checkpointConversation(taskID)
	if err != nil {
		return nil, err
	}

	return e.runNode(ctx, task, nodeParams{
		conversation: conversation,
		guidance:     guidance,
		resumed:      true,
	}), nil
}

// Reject terminates a checkpointed task. The transition is final: the
// pending entry is removed, so a second rejection or approval reports
// ErrNoCheckpoint rather than double-transitioning.
func (e *Engine) Reject(taskID string) error {
	task, err := e.store.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("reject: %w", err)
	}
	if task.Status != models.TaskStatusCheckpoint {
		return ErrNoCheckpoint
	}

	e.checkpoints.take(taskID)
	if err := e.store.SetTaskStatus(taskID, models.TaskStatusFailed, "plan rejected by operator"); err != nil {
		return fmt.Errorf("reject: %w", err)
	}
	return nil
}

// RecoverInterrupted fails every task stranded in_progress by a crash and
// returns the swept rows. Run once at process start.
func (e *Engine) RecoverInterrupted() ([]models.Task, error) {
	return e.store.SweepInterrupted()
}

// checkpointConversation fetches the suspended conversation from the
// registry, falling back to the snapshot persisted on the task row.
func (e *Engine) checkpointConversation(taskID string) ([]llm.Message, error) {
	if pc, ok := e.checkpoints.take(taskID); ok {
		return pc.Conversation, nil
	}

	snapshot, err := e.store.GetConversation(taskID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if snapshot == "" {
		return nil, ErrNoCheckpoint
	}
	conversation, err := llm.UnmarshalConversation(snapshot)
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint conversation: %w", err)
	}
	return conversation, nil
}
