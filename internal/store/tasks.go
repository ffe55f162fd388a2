package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stewardbot/steward/pkg/models"
)

const taskColumns = `id, parent_id, depth, status, description, role, tier, model,
	budget, token_cost, input_tokens, output_tokens, step_count, max_steps,
	result, error, created_at, updated_at`

// CreateTask inserts a new task row. ID, CreatedAt and UpdatedAt are
// filled in if unset.
func (db *DB) CreateTask(t *models.Task) error {
	if t.ID == "" {
		t.ID = NewTaskID()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = models.TaskStatusQueued
	}

	_, err := db.Exec(`
		INSERT INTO tasks (id, parent_id, depth, status, description, role, tier, model,
			budget, token_cost, input_tokens, output_tokens, step_count, max_steps,
			result, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, nullString(t.ParentID), t.Depth, string(t.Status), t.Description,
		string(t.Role), string(t.Tier), t.Model,
		t.Budget, t.TokenCost, t.InputTokens, t.OutputTokens, t.StepCount, t.MaxSteps,
		t.Result, t.Error, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by id. Returns ErrNotFound if missing.
func (db *DB) GetTask(id string) (*models.Task, error) {
	row := db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask writes a task's mutable fields back to its row.
func (db *DB) UpdateTask(t *models.Task) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := db.Exec(`
		UPDATE tasks SET status = ?, tier = ?, model = ?, budget = ?,
			step_count = ?, max_steps = ?, result = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, string(t.Status), string(t.Tier), t.Model, t.Budget,
		t.StepCount, t.MaxSteps, t.Result, t.Error, formatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTaskStatus updates only a task's status and error message.
func (db *DB) SetTaskStatus(id string, status models.TaskStatus, errMsg string) error {
	res, err := db.Exec(`
		UPDATE tasks SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, string(status), errMsg, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set task status: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddTaskCost atomically adds one call's cost and token counts to a
// task's running totals.
func (db *DB) AddTaskCost(id string, costUSD float64, inputTokens, outputTokens int64) error {
	_, err := db.Exec(`
		UPDATE tasks SET
			token_cost = token_cost + ?,
			input_tokens = input_tokens + ?,
			output_tokens = output_tokens + ?,
			updated_at = ?
		WHERE id = ?
	`, costUSD, inputTokens, outputTokens, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("add task cost: %w", err)
	}
	return nil
}

// CascadeCost adds delta to every ancestor in the chain starting at
// parentID, walking parent links one single-row update at a time. This
// tolerates arbitrarily deep trees without a multi-row transaction.
// Returns the number of ancestors updated.
func (db *DB) CascadeCost(parentID string, delta float64) (int, error) {
	updated := 0
	id := parentID
	for id != "" {
		var next sql.NullString
		row := db.QueryRow(`SELECT parent_id FROM tasks WHERE id = ?`, id)
		if err := row.Scan(&next); err != nil {
			if err == sql.ErrNoRows {
				break
			}
			return updated, fmt.Errorf("cascade cost: read parent of %s: %w", id, err)
		}

		if _, err := db.Exec(`
			UPDATE tasks SET token_cost = token_cost + ?, updated_at = ? WHERE id = ?
		`, delta, formatTime(time.Now()), id); err != nil {
			return updated, fmt.Errorf("cascade cost: update %s: %w", id, err)
		}
		updated++

		if !next.Valid {
			break
		}
		id = next.String
	}
	return updated, nil
}

// ListActiveTasks returns tasks that are neither terminal nor suspended,
// plus checkpointed tasks, ordered by creation. These are the rows an
// operator cares about in a status view.
func (db *DB) ListActiveTasks() ([]models.Task, error) {
	rows, err := db.Query(`
		SELECT ` + taskColumns + ` FROM tasks
		WHERE status IN ('queued', 'classifying', 'in_progress', 'checkpoint')
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListInterrupted returns tasks stuck in in_progress. Only a crash leaves
// rows in this state.
func (db *DB) ListInterrupted() ([]models.Task, error) {
	rows, err := db.Query(`
		SELECT ` + taskColumns + ` FROM tasks WHERE status = 'in_progress' ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list interrupted tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListChildren returns the direct children of a parent task, ordered by
// creation.
func (db *DB) ListChildren(parentID string) ([]models.Task, error) {
	rows, err := db.Query(`
		SELECT `+taskColumns+` FROM tasks WHERE parent_id = ? ORDER BY created_at, id
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// CountChildren returns the number of direct children of a parent task.
func (db *DB) CountChildren(parentID string) (int, error) {
	var n int
	row := db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE parent_id = ?`, parentID)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return n, nil
}

// SaveConversation persists a checkpoint's conversation snapshot as JSON
// on the task row so a suspended task survives a process restart.
func (db *DB) SaveConversation(id string, conversationJSON string) error {
	res, err := db.Exec(`
		UPDATE tasks SET conversation = ?, updated_at = ? WHERE id = ?
	`, conversationJSON, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetConversation returns the stored conversation snapshot for a task, or
// an empty string if none was saved.
func (db *DB) GetConversation(id string) (string, error) {
	var conv sql.NullString
	row := db.QueryRow(`SELECT conversation FROM tasks WHERE id = ?`, id)
	if err := row.Scan(&conv); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get conversation: %w", err)
	}
	return conv.String, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (*models.Task, error) {
	var t models.Task
	var parentID, tier, model, result, errMsg sql.NullString
	var createdAt, updatedAt string

	err := r.Scan(&t.ID, &parentID, &t.Depth, &t.Status, &t.Description, &t.Role,
		&tier, &model, &t.Budget, &t.TokenCost, &t.InputTokens, &t.OutputTokens,
		&t.StepCount, &t.MaxSteps, &result, &errMsg, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.ParentID = parentID.String
	t.Tier = models.Tier(tier.String)
	t.Model = model.String
	t.Result = result.String
	t.Error = errMsg.String
	t.CreatedAt, _ = parseTime(createdAt)
	t.UpdatedAt, _ = parseTime(updatedAt)
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
