package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <task...>",
	Short: "Submit a task and run it to completion or a checkpoint",
	Long: `Submit a natural-language task. A leading "$N " sets the budget; a
"!fast " or "!deep " marker forces the model tier. Broad or expensive
requests are classified as planners: they propose a delegation plan and
pause for approval before any subtask runs.

Examples:
  steward run 'summarize chapter 3'
  steward run '$0.50 fix the typos in the abstract'
  steward run '$5 go through all chapters and run experiments'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")

	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	// Fail tasks stranded by an earlier crash before starting new work.
	eng, cleanup, err := buildEngine(cfg, db)
	if err != nil {
		return err
	}
	defer cleanup()

	swept, err := eng.RecoverInterrupted()
	if err != nil {
		return fmt.Errorf("recovery sweep: %w", err)
	}
	for _, t := range swept {
		color.Yellow("recovered interrupted task %s: %.60s", t.ID, t.Description)
	}

	out, err := eng.Submit(cmd.Context(), description)
	if err != nil {
		return err
	}
	printOutcome(out)
	return nil
}
