package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Fail tasks left running by a crash",
	Long: `Scan for tasks stranded in in_progress status. A task can only be in
that state while a process is actually driving it, so after a crash
every such row is marked failed with a fixed diagnostic.

The run command performs this sweep automatically on startup.`,
	RunE: runRecover,
}

func runRecover(cmd *cobra.Command, args []string) error {
	_, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	swept, err := db.SweepInterrupted()
	if err != nil {
		return err
	}
	if len(swept) == 0 {
		fmt.Println("No interrupted tasks found.")
		return nil
	}
	for _, t := range swept {
		color.Yellow("recovered %s: %.60s", t.ID, t.Description)
	}
	fmt.Printf("Recovered %d interrupted task(s).\n", len(swept))
	return nil
}
