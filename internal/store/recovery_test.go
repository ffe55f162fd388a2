package store

import (
	"testing"

	"github.com/stewardbot/steward/pkg/models"
)

func TestSweepInterrupted(t *testing.T) {
	db := setupTestDB(t)

	stuck := createTestTask(t, db, func(c *models.Task) {
		c.Status = models.TaskStatusInProgress
	})
	fine := createTestTask(t, db, func(c *models.Task) {
		c.Status = models.TaskStatusCompleted
	})
	suspended := createTestTask(t, db, func(c *models.Task) {
		c.Status = models.TaskStatusCheckpoint
	})

	swept, err := db.SweepInterrupted()
	if err != nil {
		t.Fatalf("SweepInterrupted failed: %v", err)
	}
	if len(swept) != 1 || swept[0].ID != stuck.ID {
		t.Fatalf("swept = %+v, want just %s", swept, stuck.ID)
	}

	got, _ := db.GetTask(stuck.ID)
	if got.Status != models.TaskStatusFailed {
		t.Errorf("stuck task status = %q, want failed", got.Status)
	}
	if got.Error != InterruptedDiagnostic {
		t.Errorf("stuck task error = %q, want %q", got.Error, InterruptedDiagnostic)
	}

	// Terminal and suspended tasks are untouched.
	if got, _ := db.GetTask(fine.ID); got.Status != models.TaskStatusCompleted {
		t.Errorf("completed task was modified: %q", got.Status)
	}
	if got, _ := db.GetTask(suspended.ID); got.Status != models.TaskStatusCheckpoint {
		t.Errorf("checkpointed task was modified: %q", got.Status)
	}

	// A second sweep finds nothing.
	swept, err = db.SweepInterrupted()
	if err != nil {
		t.Fatalf("second SweepInterrupted failed: %v", err)
	}
	if len(swept) != 0 {
		t.Errorf("second sweep = %+v, want empty", swept)
	}
}
