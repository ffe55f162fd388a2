package store

import (
	"testing"
	"time"

	"github.com/stewardbot/steward/pkg/models"
)

func TestSaveAndRecentSessionMemories(t *testing.T) {
	db := setupTestDB(t)

	for i, summary := range []string{"first", "second", "third"} {
		m := &models.SessionMemory{
			TaskID:    NewTaskID(),
			Summary:   summary,
			Tags:      []string{"thesis", "chapter"},
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := db.SaveSessionMemory(m); err != nil {
			t.Fatalf("SaveSessionMemory failed: %v", err)
		}
	}

	recent, err := db.RecentSessionMemories(2)
	if err != nil {
		t.Fatalf("RecentSessionMemories failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	if recent[0].Summary != "third" || recent[1].Summary != "second" {
		t.Errorf("recent memories out of order: %q, %q", recent[0].Summary, recent[1].Summary)
	}
	if len(recent[0].Tags) != 2 {
		t.Errorf("tags = %v, want 2 entries", recent[0].Tags)
	}
}

func TestSaveSessionMemory_ReplacesByTask(t *testing.T) {
	db := setupTestDB(t)
	taskID := NewTaskID()

	first := &models.SessionMemory{TaskID: taskID, Summary: "draft"}
	if err := db.SaveSessionMemory(first); err != nil {
		t.Fatalf("SaveSessionMemory failed: %v", err)
	}
	second := &models.SessionMemory{TaskID: taskID, Summary: "final"}
	if err := db.SaveSessionMemory(second); err != nil {
		t.Fatalf("SaveSessionMemory failed: %v", err)
	}

	recent, _ := db.RecentSessionMemories(10)
	if len(recent) != 1 {
		t.Fatalf("len(recent) = %d, want 1 (replaced)", len(recent))
	}
	if recent[0].Summary != "final" {
		t.Errorf("summary = %q, want final", recent[0].Summary)
	}
}

func TestSearchMemories(t *testing.T) {
	db := setupTestDB(t)

	m := &models.SessionMemory{
		TaskID:  NewTaskID(),
		Summary: "analyzed fft results",
		Tags:    []string{"fft", "analysis"},
	}
	if err := db.SaveSessionMemory(m); err != nil {
		t.Fatalf("SaveSessionMemory failed: %v", err)
	}
	if err := db.SaveLongTermMemory("", "2026-08-01", "thesis outline decisions", []string{"outline"}); err != nil {
		t.Fatalf("SaveLongTermMemory failed: %v", err)
	}

	found, err := db.SearchMemories([]string{"fft"}, 3)
	if err != nil {
		t.Fatalf("SearchMemories failed: %v", err)
	}
	if len(found) != 1 || found[0].Summary != "analyzed fft results" {
		t.Errorf("SearchMemories(fft) = %+v", found)
	}

	// Long-term memories match too.
	found, err = db.SearchMemories([]string{"outline"}, 3)
	if err != nil {
		t.Fatalf("SearchMemories failed: %v", err)
	}
	if len(found) != 1 || found[0].Summary != "thesis outline decisions" {
		t.Errorf("SearchMemories(outline) = %+v", found)
	}

	// No keywords, no results.
	found, err = db.SearchMemories(nil, 3)
	if err != nil {
		t.Fatalf("SearchMemories failed: %v", err)
	}
	if found != nil {
		t.Errorf("SearchMemories(nil) = %+v, want nil", found)
	}
}

func TestLogHeartbeat(t *testing.T) {
	db := setupTestDB(t)

	if err := db.LogHeartbeat(2, 1, 0.75); err != nil {
		t.Fatalf("LogHeartbeat failed: %v", err)
	}

	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM heartbeats")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count heartbeats: %v", err)
	}
	if count != 1 {
		t.Errorf("heartbeat count = %d, want 1", count)
	}
}
