package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stewardbot/steward/pkg/models"
)

// AppendCostLog records one reasoning-service call and atomically adds
// its cost and token counts to the owning task's running totals. The
// two writes share a transaction so the log and the task totals cannot
// drift apart.
func (db *DB) AppendCostLog(e *models.CostLogEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	return db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO cost_log (timestamp, task_id, model, tier, input_tokens, output_tokens, cost_usd)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, formatTime(e.Timestamp), e.TaskID, e.Model, string(e.Tier),
			e.InputTokens, e.OutputTokens, e.CostUSD)
		if err != nil {
			return fmt.Errorf("append cost log: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			e.ID = id
		}

		if e.TaskID != "" {
			_, err = tx.Exec(`
				UPDATE tasks SET
					token_cost = token_cost + ?,
					input_tokens = input_tokens + ?,
					output_tokens = output_tokens + ?,
					updated_at = ?
				WHERE id = ?
			`, e.CostUSD, e.InputTokens, e.OutputTokens, formatTime(time.Now()), e.TaskID)
			if err != nil {
				return fmt.Errorf("update task totals: %w", err)
			}
		}
		return nil
	})
}

// DailyCost returns the total spend for the UTC day containing now.
func (db *DB) DailyCost(now time.Time) (float64, error) {
	day := now.UTC().Format("2006-01-02")
	return db.sumCostLike(day + "%")
}

// MonthlyCost returns the total spend for the UTC month containing now.
func (db *DB) MonthlyCost(now time.Time) (float64, error) {
	month := now.UTC().Format("2006-01")
	return db.sumCostLike(month + "%")
}

func (db *DB) sumCostLike(pattern string) (float64, error) {
	var total float64
	row := db.QueryRow(`
		SELECT COALESCE(SUM(cost_usd), 0) FROM cost_log WHERE timestamp LIKE ?
	`, pattern)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("aggregate cost: %w", err)
	}
	return total, nil
}

// CostLogForTask returns the cost log entries for one task, oldest first.
func (db *DB) CostLogForTask(taskID string) ([]models.CostLogEntry, error) {
	rows, err := db.Query(`
		SELECT id, timestamp, task_id, model, tier, input_tokens, output_tokens, cost_usd
		FROM cost_log WHERE task_id = ? ORDER BY id
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("cost log for task: %w", err)
	}
	defer rows.Close()

	var entries []models.CostLogEntry
	for rows.Next() {
		var e models.CostLogEntry
		var ts string
		var tier sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.TaskID, &e.Model, &tier,
			&e.InputTokens, &e.OutputTokens, &e.CostUSD); err != nil {
			return nil, fmt.Errorf("scan cost log entry: %w", err)
		}
		e.Tier = models.Tier(tier.String)
		e.Timestamp, _ = parseTime(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
