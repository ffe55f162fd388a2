package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/stewardbot/steward/pkg/models"
)

// SaveSessionMemory stores the post-hoc summary of a completed root task.
// Saving again for the same task replaces the earlier row, so a resumed
// task that completes twice keeps only the final summary.
func (db *DB) SaveSessionMemory(m *models.SessionMemory) error {
	if m.ID == "" {
		m.ID = "sm_" + m.TaskID
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(`
		INSERT OR REPLACE INTO memory_session (id, task_id, summary, tags, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.TaskID, m.Summary, strings.Join(m.Tags, ","), formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("save session memory: %w", err)
	}
	return nil
}

// RecentSessionMemories returns the newest session memories, newest first.
func (db *DB) RecentSessionMemories(limit int) ([]models.SessionMemory, error) {
	rows, err := db.Query(`
		SELECT id, task_id, summary, tags, created_at
		FROM memory_session ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent session memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// SearchMemories returns session and long-term memories whose tags match
// any of the keywords, newest first, capped at limit.
func (db *DB) SearchMemories(keywords []string, limit int) ([]models.SessionMemory, error) {
	if len(keywords) == 0 || limit <= 0 {
		return nil, nil
	}

	conditions := make([]string, len(keywords))
	args := make([]any, 0, len(keywords)+1)
	for i, kw := range keywords {
		conditions[i] = "tags LIKE ?"
		args = append(args, "%"+kw+"%")
	}
	args = append(args, limit)
	where := strings.Join(conditions, " OR ")

	var results []models.SessionMemory
	queries := []string{
		`SELECT id, task_id, summary, tags, created_at FROM memory_session
			WHERE ` + where + ` ORDER BY created_at DESC LIMIT ?`,
		`SELECT id, '' AS task_id, summary, tags, created_at FROM memory_long_term
			WHERE ` + where + ` ORDER BY created_at DESC LIMIT ?`,
	}
	for _, query := range queries {
		rows, err := db.Query(query, args...)
		if err != nil {
			return nil, fmt.Errorf("search memories: %w", err)
		}
		found, err := scanMemories(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		results = append(results, found...)
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SaveLongTermMemory stores a distilled cross-session summary.
func (db *DB) SaveLongTermMemory(id, sessionDate, summary string, tags []string) error {
	if id == "" {
		id = "lt_" + NewTaskID()[2:]
	}
	_, err := db.Exec(`
		INSERT OR REPLACE INTO memory_long_term (id, session_date, summary, tags, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, sessionDate, summary, strings.Join(tags, ","), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save long-term memory: %w", err)
	}
	return nil
}

// LogHeartbeat records a periodic snapshot of queue depth and daily spend.
func (db *DB) LogHeartbeat(tasksQueued, tasksActive int, budgetToday float64) error {
	_, err := db.Exec(`
		INSERT INTO heartbeats (timestamp, tasks_queued, tasks_active, budget_used_today)
		VALUES (?, ?, ?, ?)
	`, formatTime(time.Now()), tasksQueued, tasksActive, budgetToday)
	if err != nil {
		return fmt.Errorf("log heartbeat: %w", err)
	}
	return nil
}

type memoryRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMemories(rows memoryRows) ([]models.SessionMemory, error) {
	var memories []models.SessionMemory
	for rows.Next() {
		var m models.SessionMemory
		var tags, createdAt string
		if err := rows.Scan(&m.ID, &m.TaskID, &m.Summary, &tags, &createdAt); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		if tags != "" {
			m.Tags = strings.Split(tags, ",")
		}
		m.CreatedAt, _ = parseTime(createdAt)
		memories = append(memories, m)
	}
	return memories, rows.Err()
}
