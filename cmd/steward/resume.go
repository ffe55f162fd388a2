package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stewardbot/steward/internal/engine"
	"github.com/stewardbot/steward/pkg/models"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <task-id> [guidance...]",
	Short: "Approve a checkpointed task and continue it",
	Long: `Resume a task paused at a checkpoint. For a plan-ready checkpoint this
approves the plan and releases its delegations; for an uncertainty
checkpoint any extra arguments are passed to the task as guidance.

The conversation continues exactly where it paused, even across a
process restart.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResume,
}

func runResume(cmd *cobra.Command, args []string) error {
	taskID := args[0]
	guidance := strings.Join(args[1:], " ")

	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	eng, cleanup, err := buildEngine(cfg, db)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := eng.Resume(cmd.Context(), taskID, guidance)
	if errors.Is(err, engine.ErrNoCheckpoint) {
		return fmt.Errorf("task %s has no pending checkpoint", taskID)
	}
	if err != nil {
		return err
	}
	printOutcome(out)
	return nil
}

var rejectCmd = &cobra.Command{
	Use:   "reject <task-id>",
	Short: "Reject a checkpointed task",
	Long: `Reject a task paused at a checkpoint. The task fails permanently; no
subtask is started and the checkpoint cannot be approved afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runReject,
}

func runReject(cmd *cobra.Command, args []string) error {
	taskID := args[0]

	// Rejection is a pure store transition; it needs no API client.
	_, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	task, err := db.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("task %s: %w", taskID, err)
	}
	if task.Status != models.TaskStatusCheckpoint {
		return fmt.Errorf("task %s has no pending checkpoint", taskID)
	}
	if err := db.SetTaskStatus(taskID, models.TaskStatusFailed, "plan rejected by operator"); err != nil {
		return err
	}
	color.Yellow("Task %s rejected and cancelled.", taskID)
	return nil
}
