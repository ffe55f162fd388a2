package store

import (
	"io"
	"time"

	"github.com/stewardbot/steward/pkg/models"
)

// TaskStore handles task-tree persistence.
type TaskStore interface {
	CreateTask(t *models.Task) error
	GetTask(id string) (*models.Task, error)
	UpdateTask(t *models.Task) error
	SetTaskStatus(id string, status models.TaskStatus, errMsg string) error
	ListActiveTasks() ([]models.Task, error)
	ListInterrupted() ([]models.Task, error)
	ListChildren(parentID string) ([]models.Task, error)
	CountChildren(parentID string) (int, error)
	CascadeCost(parentID string, delta float64) (int, error)
	SaveConversation(id string, conversationJSON string) error
	GetConversation(id string) (string, error)
}

// CostStore handles the append-only cost log and its aggregates.
type CostStore interface {
	AppendCostLog(e *models.CostLogEntry) error
	DailyCost(now time.Time) (float64, error)
	MonthlyCost(now time.Time) (float64, error)
}

// MemoryStore handles session and long-term memory persistence.
type MemoryStore interface {
	SaveSessionMemory(m *models.SessionMemory) error
	RecentSessionMemories(limit int) ([]models.SessionMemory, error)
	SearchMemories(keywords []string, limit int) ([]models.SessionMemory, error)
}

// Sweeper handles crash recovery.
type Sweeper interface {
	SweepInterrupted() ([]models.Task, error)
}

// Store is the full repository contract the engine depends on. The
// composition keeps fakes small: tests implement only the slice they use.
type Store interface {
	io.Closer
	TaskStore
	CostStore
	MemoryStore
	Sweeper
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store       = (*DB)(nil)
	_ TaskStore   = (*DB)(nil)
	_ CostStore   = (*DB)(nil)
	_ MemoryStore = (*DB)(nil)
	_ Sweeper     = (*DB)(nil)
)
