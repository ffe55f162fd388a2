package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stewardbot/steward/pkg/models"
)

var tasksHeartbeat bool

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show active tasks as a tree",
	Long: `List queued, running and checkpointed tasks, indented by delegation
depth. Roots show their budget; children show their spend.

With --heartbeat, also record a queue/spend snapshot in the database.`,
	RunE: runTasks,
}

func init() {
	tasksCmd.Flags().BoolVar(&tasksHeartbeat, "heartbeat", false, "Record a heartbeat snapshot")
}

func runTasks(cmd *cobra.Command, args []string) error {
	_, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	active, err := db.ListActiveTasks()
	if err != nil {
		return err
	}

	if tasksHeartbeat {
		queued, inProgress := 0, 0
		for _, t := range active {
			switch t.Status {
			case models.TaskStatusQueued:
				queued++
			case models.TaskStatusInProgress, models.TaskStatusClassifying:
				inProgress++
			}
		}
		daily, err := db.DailyCost(time.Now())
		if err != nil {
			return err
		}
		if err := db.LogHeartbeat(queued, inProgress, daily); err != nil {
			return err
		}
		fmt.Printf("Heartbeat: queue %d, active %d, today $%.4f\n", queued, inProgress, daily)
	}

	if len(active) == 0 {
		fmt.Println("No active tasks.")
		return nil
	}

	color.New(color.Bold).Println("Active Tasks")
	for _, t := range active {
		indent := strings.Repeat("  ", t.Depth)
		amount := fmt.Sprintf("$%.2f", t.Budget)
		if t.Depth > 0 {
			amount = fmt.Sprintf("$%.4f", t.TokenCost)
		}
		fmt.Printf("%s%s [%s] %s %.60s\n", indent, t.ID, statusColored(t.Status), amount, t.Description)
	}
	return nil
}

func statusColored(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusInProgress, models.TaskStatusClassifying:
		return color.CyanString(string(s))
	case models.TaskStatusCheckpoint:
		return color.YellowString(string(s))
	default:
		return string(s)
	}
}
