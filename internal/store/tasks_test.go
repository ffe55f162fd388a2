package store

import (
	"errors"
	"testing"

	"github.com/stewardbot/steward/pkg/models"
)

// createTestTask inserts a task with sensible defaults and returns it.
func createTestTask(t *testing.T, db *DB, mutate func(*models.Task)) *models.Task {
	t.Helper()
	task := &models.Task{
		Description: "test task",
		Role:        models.RoleWorker,
		Budget:      1.00,
		MaxSteps:    10,
	}
	if mutate != nil {
		mutate(task)
	}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	return task
}

func TestCreateAndGetTask(t *testing.T) {
	db := setupTestDB(t)

	task := createTestTask(t, db, nil)
	if task.ID == "" {
		t.Fatal("CreateTask should assign an id")
	}
	if task.Status != models.TaskStatusQueued {
		t.Errorf("new task status = %q, want queued", task.Status)
	}

	got, err := db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Description != "test task" || got.Budget != 1.00 || got.Depth != 0 {
		t.Errorf("round-tripped task differs: %+v", got)
	}
	if got.ParentID != "" {
		t.Errorf("root task parent = %q, want empty", got.ParentID)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetTask("t_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask for missing id = %v, want ErrNotFound", err)
	}
}

func TestUpdateTask(t *testing.T) {
	db := setupTestDB(t)
	task := createTestTask(t, db, nil)

	task.Status = models.TaskStatusCompleted
	task.Result = "done"
	task.StepCount = 3
	task.Tier = models.TierStandard
	task.Model = "claude-sonnet-4-5-20250929"
	if err := db.UpdateTask(task); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	got, err := db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Status != models.TaskStatusCompleted || got.Result != "done" || got.StepCount != 3 {
		t.Errorf("updated task differs: %+v", got)
	}
	if got.Tier != models.TierStandard {
		t.Errorf("tier = %q, want standard", got.Tier)
	}
}

func TestUpdateTask_NotFound(t *testing.T) {
	db := setupTestDB(t)
	task := &models.Task{ID: "t_missing", Status: models.TaskStatusQueued}
	if err := db.UpdateTask(task); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTask for missing id = %v, want ErrNotFound", err)
	}
}

func TestSetTaskStatus(t *testing.T) {
	db := setupTestDB(t)
	task := createTestTask(t, db, nil)

	if err := db.SetTaskStatus(task.ID, models.TaskStatusFailed, "boom"); err != nil {
		t.Fatalf("SetTaskStatus failed: %v", err)
	}

	got, _ := db.GetTask(task.ID)
	if got.Status != models.TaskStatusFailed || got.Error != "boom" {
		t.Errorf("task after SetTaskStatus: %+v", got)
	}
}

func TestAddTaskCost(t *testing.T) {
	db := setupTestDB(t)
	task := createTestTask(t, db, nil)

	if err := db.AddTaskCost(task.ID, 0.10, 1000, 500); err != nil {
		t.Fatalf("AddTaskCost failed: %v", err)
	}
	if err := db.AddTaskCost(task.ID, 0.05, 200, 100); err != nil {
		t.Fatalf("AddTaskCost failed: %v", err)
	}

	got, _ := db.GetTask(task.ID)
	if got.TokenCost < 0.149 || got.TokenCost > 0.151 {
		t.Errorf("TokenCost = %v, want 0.15", got.TokenCost)
	}
	if got.InputTokens != 1200 || got.OutputTokens != 600 {
		t.Errorf("tokens = %d/%d, want 1200/600", got.InputTokens, got.OutputTokens)
	}
}

func TestListChildrenAndCount(t *testing.T) {
	db := setupTestDB(t)
	parent := createTestTask(t, db, nil)

	for i := 0; i < 3; i++ {
		createTestTask(t, db, func(c *models.Task) {
			c.ParentID = parent.ID
			c.Depth = 1
		})
	}

	children, err := db.ListChildren(parent.ID)
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("len(children) = %d, want 3", len(children))
	}
	for _, c := range children {
		if c.Depth != 1 || c.ParentID != parent.ID {
			t.Errorf("child %s depth/parent wrong: %+v", c.ID, c)
		}
	}

	n, err := db.CountChildren(parent.ID)
	if err != nil {
		t.Fatalf("CountChildren failed: %v", err)
	}
	if n != 3 {
		t.Errorf("CountChildren = %d, want 3", n)
	}
}

func TestCascadeCost(t *testing.T) {
	db := setupTestDB(t)

	// Build a three-level chain: root -> mid -> leaf.
	root := createTestTask(t, db, nil)
	mid := createTestTask(t, db, func(c *models.Task) {
		c.ParentID = root.ID
		c.Depth = 1
	})
	leaf := createTestTask(t, db, func(c *models.Task) {
		c.ParentID = mid.ID
		c.Depth = 2
	})

	// Cascade the leaf's terminal cost to its ancestors.
	updated, err := db.CascadeCost(mid.ID, 0.20)
	if err != nil {
		t.Fatalf("CascadeCost failed: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d ancestors, want 2", updated)
	}

	gotMid, _ := db.GetTask(mid.ID)
	gotRoot, _ := db.GetTask(root.ID)
	gotLeaf, _ := db.GetTask(leaf.ID)

	if gotMid.TokenCost != 0.20 {
		t.Errorf("mid TokenCost = %v, want 0.20", gotMid.TokenCost)
	}
	if gotRoot.TokenCost != 0.20 {
		t.Errorf("root TokenCost = %v, want 0.20", gotRoot.TokenCost)
	}
	if gotLeaf.TokenCost != 0 {
		t.Errorf("leaf TokenCost = %v, want 0 (cascade starts at parent)", gotLeaf.TokenCost)
	}
}

func TestCascadeCost_MissingParent(t *testing.T) {
	db := setupTestDB(t)

	updated, err := db.CascadeCost("t_missing", 0.10)
	if err != nil {
		t.Fatalf("CascadeCost failed: %v", err)
	}
	if updated != 0 {
		t.Errorf("updated = %d, want 0 for missing chain", updated)
	}
}

func TestListActiveTasks(t *testing.T) {
	db := setupTestDB(t)

	active := createTestTask(t, db, nil)
	createTestTask(t, db, func(c *models.Task) { c.Status = models.TaskStatusCompleted })
	checkpointed := createTestTask(t, db, func(c *models.Task) { c.Status = models.TaskStatusCheckpoint })

	tasks, err := db.ListActiveTasks()
	if err != nil {
		t.Fatalf("ListActiveTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len(active) = %d, want 2", len(tasks))
	}
	if tasks[0].ID != active.ID || tasks[1].ID != checkpointed.ID {
		t.Errorf("active tasks out of order: %s, %s", tasks[0].ID, tasks[1].ID)
	}
}

func TestSaveAndGetConversation(t *testing.T) {
	db := setupTestDB(t)
	task := createTestTask(t, db, nil)

	snapshot := `[{"role":"user","blocks":[{"type":"text","text":"hi"}]}]`
	if err := db.SaveConversation(task.ID, snapshot); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := db.GetConversation(task.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got != snapshot {
		t.Errorf("conversation = %q, want %q", got, snapshot)
	}
}

func TestGetConversation_Empty(t *testing.T) {
	db := setupTestDB(t)
	task := createTestTask(t, db, nil)

	got, err := db.GetConversation(task.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got != "" {
		t.Errorf("conversation = %q, want empty", got)
	}

	if _, err := db.GetConversation("t_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConversation for missing id = %v, want ErrNotFound", err)
	}
}
