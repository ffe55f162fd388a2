package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Budget-bounded task orchestration engine",
	Long: `Steward accepts natural-language tasks, decides whether to execute them
directly or decompose them into a tree of delegated subtasks, and drives
each node through a budget- and step-bounded loop against the Anthropic
API. Costs are tracked per node and cascaded up the tree; planners pause
at a checkpoint for approval before any subtask spends money.

Budget prefix: "$N <task>" sets the root budget (default $1.00).
  steward run '$5 go through all chapters and run experiments'

Tier override: "!fast <task>" or "!deep <task>" forces the model tier.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(costCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(versionCmd)
}
