package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/stewardbot/steward/internal/classify"
	"github.com/stewardbot/steward/internal/config"
	"github.com/stewardbot/steward/internal/engine"
	"github.com/stewardbot/steward/internal/llm"
	"github.com/stewardbot/steward/internal/store"
	"github.com/stewardbot/steward/pkg/models"
)

// openStore loads configuration and opens the migrated task database.
func openStore() (*config.Config, *store.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return cfg, db, nil
}

// buildEngine wires the full engine: API client, tool executor, classifier
// and the stop-signal watcher. The returned cleanup closes the watcher.
func buildEngine(cfg *config.Config, db *store.DB) (*engine.Engine, func(), error) {
	client, err := llm.NewClient(llm.ClientConfig{
		APIKey:     cfg.Anthropic.APIKey,
		UseBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:  cfg.Anthropic.AWSRegion,
		AWSProfile: cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, nil, err
	}

	executor := llm.NewExecutor(cfg.Tools.WorkDir,
		time.Duration(cfg.Tools.ScriptTimeoutSeconds)*time.Second)

	signals, err := llm.NewSignalWatcher(cfg.SignalsDir())
	if err != nil {
		return nil, nil, fmt.Errorf("start signal watcher: %w", err)
	}

	eng := engine.New(cfg, db, client, executor, classify.NewRouter(cfg, client),
		engine.WithStopCheck(signals),
		engine.WithNotifier(consoleNotifier{}),
	)
	cleanup := func() { signals.Close() }
	return eng, cleanup, nil
}

// consoleNotifier prints subtask progress as it happens.
type consoleNotifier struct{}

func (consoleNotifier) Notify(event string, payload map[string]any) {
	if event != "subtask_completed" {
		return
	}
	status, _ := payload["status"].(string)
	desc, _ := payload["description"].(string)
	cost, _ := payload["cost"].(float64)

	marker := color.GreenString("done")
	switch models.TaskStatus(status) {
	case models.TaskStatusFailed:
		marker = color.RedString("failed")
	case models.TaskStatusStalled:
		marker = color.YellowString("stalled")
	}
	fmt.Printf("  > subtask %s: %s ($%.4f)\n", marker, desc, cost)
}

// printOutcome renders a terminal or suspended outcome for the operator.
func printOutcome(out *engine.Outcome) {
	switch out.Status {
	case models.TaskStatusCompleted:
		color.Green("Task %s completed.", out.TaskID)
		if out.Text != "" {
			fmt.Println()
			fmt.Println(out.Text)
		}
	case models.TaskStatusCheckpoint:
		color.Yellow("Task %s paused (%s).", out.TaskID, out.Reason)
		if out.Text != "" {
			fmt.Println()
			fmt.Println(out.Text)
		}
		fmt.Println()
		if out.Reason == engine.ReasonPlanReady {
			fmt.Printf("Approve with 'steward resume %s' or cancel with 'steward reject %s'.\n",
				out.TaskID, out.TaskID)
		} else {
			fmt.Printf("Continue with 'steward resume %s [guidance]' or cancel with 'steward reject %s'.\n",
				out.TaskID, out.TaskID)
		}
	case models.TaskStatusStalled:
		color.Yellow("Task %s stalled.", out.TaskID)
		fmt.Println(out.Text)
	case models.TaskStatusFailed:
		color.Red("Task %s failed.", out.TaskID)
		fmt.Println(out.Text)
	}
}
