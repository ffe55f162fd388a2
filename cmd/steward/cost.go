package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stewardbot/steward/pkg/models"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Show daily and monthly spend plus active task budgets",
	RunE:  runCost,
}

func runCost(cmd *cobra.Command, args []string) error {
	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	now := time.Now()
	daily, err := db.DailyCost(now)
	if err != nil {
		return err
	}
	monthly, err := db.MonthlyCost(now)
	if err != nil {
		return err
	}

	color.New(color.Bold).Println("Cost Report")
	fmt.Printf("  Today:      $%.4f / $%.2f\n", daily, cfg.Budgets.DailyCeiling)
	fmt.Printf("  This month: $%.4f\n", monthly)
	if daily > cfg.Budgets.DailyCeiling {
		color.Yellow("  Daily ceiling reached; new tasks will stall.")
	}

	active, err := db.ListActiveTasks()
	if err != nil {
		return err
	}

	queued, inProgress := 0, 0
	for _, t := range active {
		switch t.Status {
		case models.TaskStatusQueued:
			queued++
		case models.TaskStatusInProgress, models.TaskStatusClassifying:
			inProgress++
		}
	}
	fmt.Printf("  Queued:     %d\n", queued)
	fmt.Printf("  Running:    %d\n", inProgress)

	var printedHeader bool
	for _, t := range active {
		if t.ParentID != "" {
			continue
		}
		if !printedHeader {
			fmt.Println()
			color.New(color.Bold).Println("Active task budgets")
			printedHeader = true
		}
		fmt.Printf("  %s  $%.4f / $%.2f  %.50s\n", t.ID, t.TokenCost, t.Budget, t.Description)
	}
	return nil
}
