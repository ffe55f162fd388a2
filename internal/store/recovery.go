package store

import (
	"fmt"
	"log"

	"github.com/stewardbot/steward/pkg/models"
)

// InterruptedDiagnostic is the error recorded on tasks found in_progress
// at startup. A task can only be in that state mid-crash, so the message
// is fixed to keep the audit trail greppable.
const InterruptedDiagnostic = "interrupted by restart"

// SweepInterrupted finds tasks stranded in in_progress by a crash and
// marks them failed. Returns the tasks that were swept so the caller can
// surface them to the operator.
func (db *DB) SweepInterrupted() ([]models.Task, error) {
	stuck, err := db.ListInterrupted()
	if err != nil {
		return nil, fmt.Errorf("sweep interrupted: %w", err)
	}

	for i := range stuck {
		if err := db.SetTaskStatus(stuck[i].ID, models.TaskStatusFailed, InterruptedDiagnostic); err != nil {
			return nil, fmt.Errorf("sweep interrupted: fail task %s: %w", stuck[i].ID, err)
		}
		stuck[i].Status = models.TaskStatusFailed
		stuck[i].Error = InterruptedDiagnostic
		log.Printf("recovered interrupted task %s: %.80s", stuck[i].ID, stuck[i].Description)
	}

	return stuck, nil
}
