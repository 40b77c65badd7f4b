package keyed

import (
	"KeyFold/internal/engine/impl/keyed/statistic"
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGobWriter_Write(t *testing.T) {
	// 1. Create sample snapshot data
	testStats := make(map[string]*statistic.Stat)
	testStats["test-key"] = &statistic.Stat{Key: "test-key", Count: 3, Sum: 3}

	snapshotData := statistic.SnapshotData{
		TaskName: "test_task",
		Shards: []*statistic.Shard{
			{
				Stats: testStats,
			},
			{
				Stats: make(map[string]*statistic.Stat), // An empty shard
			},
		},
	}

	// 2. Create a temporary directory
	tmpDir, err := os.MkdirTemp("", "gob_writer_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// 3. Write the snapshot
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	writer := NewGobWriter(tmpDir, time.Minute)
	if err := writer.Write(snapshotData, timestamp); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	taskDir := filepath.Join(tmpDir, timestamp, "test_task")

	// Check for summary.json
	summaryPath := filepath.Join(taskDir, "summary.json")
	if _, err := os.Stat(summaryPath); os.IsNotExist(err) {
		t.Fatalf("summary.json was not created")
	}

	// Check for shard data file
	shardPath := filepath.Join(taskDir, "shard_0.dat")
	if _, err := os.Stat(shardPath); os.IsNotExist(err) {
		t.Fatalf("shard_0.dat was not created")
	}

	// Check that empty shard was not written
	emptyShardPath := filepath.Join(taskDir, "shard_1.dat")
	if _, err := os.Stat(emptyShardPath); !os.IsNotExist(err) {
		t.Fatalf("shard_1.dat (empty) should not have been created")
	}

	// 4. Verify summary content
	summaryBytes, err := os.ReadFile(summaryPath)
	if err != nil {
		t.Fatalf("Failed to read summary.json: %v", err)
	}
	var summary SummaryData
	if err := json.Unmarshal(summaryBytes, &summary); err != nil {
		t.Fatalf("Failed to unmarshal summary.json: %v", err)
	}
	if summary.TotalKeys != 1 {
		t.Errorf("Expected TotalKeys to be 1, got %d", summary.TotalKeys)
	}
	if summary.TotalRecords != 3 {
		t.Errorf("Expected TotalRecords to be 3, got %d", summary.TotalRecords)
	}
	if summary.TaskName != "test_task" {
		t.Errorf("Expected TaskName to be 'test_task', got '%s'", summary.TaskName)
	}

	// 5. Verify gob file content
	gobFile, err := os.Open(shardPath)
	if err != nil {
		t.Fatalf("Failed to open shard_0.dat: %v", err)
	}
	defer gobFile.Close()

	var decodedStats map[string]*statistic.Stat
	decoder := gob.NewDecoder(gobFile)
	if err := decoder.Decode(&decodedStats); err != nil {
		t.Fatalf("Failed to decode gob file: %v", err)
	}

	if len(decodedStats) != 1 {
		t.Fatalf("Expected 1 stat in decoded map, got %d", len(decodedStats))
	}
	if stat, ok := decodedStats["test-key"]; !ok || stat.Count != 3 || stat.Sum != 3 {
		t.Errorf("Decoded stat content does not match expected content. Got: %+v", stat)
	}
}

func TestGobWriter_RejectsWrongPayload(t *testing.T) {
	writer := NewGobWriter(t.TempDir(), time.Minute)
	if err := writer.Write("not a snapshot", "ts"); err == nil {
		t.Fatal("Expected error for invalid payload type, got nil")
	}
}
