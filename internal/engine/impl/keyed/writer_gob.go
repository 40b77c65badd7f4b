package keyed

import (
	"KeyFold/internal/engine/impl/keyed/statistic"
	"KeyFold/internal/model"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func init() {
	// Register the concrete type of Stat for gob encoding/decoding.
	gob.Register(&statistic.Stat{})
}

// SummaryData holds the metadata for a snapshot, internal to the writer.
type SummaryData struct {
	TaskName     string  `json:"task_name"`
	TotalKeys    int     `json:"total_keys"`
	TotalRecords uint64  `json:"total_records"`
	TotalSum     float64 `json:"total_sum"`
	Shards       int     `json:"shards"`
	Timestamp    string  `json:"timestamp"`
}

// GobWriter handles writing keyed task snapshot data to disk in gob format.
// It implements the model.Writer interface.
type GobWriter struct {
	rootPath string
	interval time.Duration
}

// NewGobWriter creates a new writer for keyed aggregation data.
func NewGobWriter(rootPath string, interval time.Duration) model.Writer {
	return &GobWriter{rootPath: rootPath, interval: interval}
}

// GetInterval returns the configured snapshot interval for this writer.
func (w *GobWriter) GetInterval() time.Duration {
	return w.interval
}

// Write serializes and writes the data from a single keyed task snapshot to disk.
// It expects the payload to be of type statistic.SnapshotData.
func (w *GobWriter) Write(payload interface{}, timestamp string) error {
	snapshot, ok := payload.(statistic.SnapshotData)
	if !ok {
		return fmt.Errorf("invalid payload type for GobWriter: expected statistic.SnapshotData, got %T", payload)
	}

	// 1. Create timestamped directory, with a subdirectory per task to
	// avoid file name collisions.
	snapshotDir := filepath.Join(w.rootPath, timestamp)
	taskDir := filepath.Join(snapshotDir, snapshot.TaskName)
	if err := os.MkdirAll(taskDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	totalKeys := 0
	totalRecords, totalSum := uint64(0), float64(0)
	// 2. Write each non-empty shard's map to a .dat file
	for i, shard := range snapshot.Shards {
		if len(shard.Stats) == 0 {
			continue
		}
		totalKeys += len(shard.Stats)
		for _, stat := range shard.Stats {
			totalRecords += stat.Count
			totalSum += stat.Sum
		}

		fileName := fmt.Sprintf("shard_%d.dat", i)
		filePath := filepath.Join(taskDir, fileName)

		file, err := os.Create(filePath)
		if err != nil {
			return fmt.Errorf("failed to create snapshot file '%s': %w", filePath, err)
		}
		defer file.Close()

		encoder := gob.NewEncoder(file)
		if err := encoder.Encode(shard.Stats); err != nil {
			return fmt.Errorf("failed to encode stats to gob for file '%s': %w", filePath, err)
		}
	}

	// 3. Write summary file if there were any keys
	if totalKeys > 0 {
		summary := SummaryData{
			TaskName:     snapshot.TaskName,
			TotalKeys:    totalKeys,
			TotalRecords: totalRecords,
			TotalSum:     totalSum,
			Shards:       len(snapshot.Shards),
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		}
		summaryFilePath := filepath.Join(taskDir, "summary.json")
		summaryFile, err := os.Create(summaryFilePath)
		if err != nil {
			return fmt.Errorf("failed to create summary file: %w", err)
		}
		defer summaryFile.Close()

		jsonEncoder := json.NewEncoder(summaryFile)
		jsonEncoder.SetIndent("", "  ")
		if err := jsonEncoder.Encode(summary); err != nil {
			return fmt.Errorf("failed to encode summary to json: %w", err)
		}
	}

	return nil
}
