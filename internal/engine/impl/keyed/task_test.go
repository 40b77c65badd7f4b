package keyed

import (
	"KeyFold/internal/config"
	"KeyFold/internal/engine/impl/keyed/statistic"
	"KeyFold/internal/model"
	"strings"
	"sync"
	"testing"
	"time"
)

func feedWords(task model.Task, words ...string) {
	now := time.Now()
	for _, w := range words {
		task.ProcessEvent(&model.Event{Key: w, Value: 1, Timestamp: now})
	}
}

func mergedStats(t *testing.T, task model.Task) map[string]*statistic.Stat {
	t.Helper()
	merged, ok := task.Merged().(map[string]*statistic.Stat)
	if !ok {
		t.Fatalf("Merged returned unexpected type %T", task.Merged())
	}
	return merged
}

func TestTask_WordCount(t *testing.T) {
	task := New("word_count", 8)
	feedWords(task, "hello", "world", "hello", "pyspark", "hello")

	merged := mergedStats(t, task)

	expected := map[string]uint64{"hello": 3, "world": 1, "pyspark": 1}
	if len(merged) != len(expected) {
		t.Fatalf("Expected %d keys, got %d", len(expected), len(merged))
	}
	for key, count := range expected {
		stat, ok := merged[key]
		if !ok {
			t.Fatalf("Missing key '%s' in merged result", key)
		}
		if stat.Count != count {
			t.Errorf("Key '%s': expected count %d, got %d", key, count, stat.Count)
		}
		if stat.Sum != float64(count) {
			t.Errorf("Key '%s': expected sum %v, got %v", key, float64(count), stat.Sum)
		}
	}
}

func TestTask_ConcurrentProcessing(t *testing.T) {
	task := New("concurrent", 32)

	const workers = 16
	const perWorker = 1000

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			now := time.Now()
			for j := 0; j < perWorker; j++ {
				task.ProcessEvent(&model.Event{Key: "x", Value: 1, Timestamp: now})
			}
		}()
	}
	wg.Wait()

	stat, ok := task.(*Task).Lookup("x")
	if !ok {
		t.Fatal("Key 'x' not found after concurrent processing")
	}
	if stat.Count != workers*perWorker {
		t.Errorf("Expected count %d, got %d", workers*perWorker, stat.Count)
	}
}

func TestTask_StatExtents(t *testing.T) {
	task := New("extents", 4)
	base := time.Now()

	values := []float64{5, 3, 9, -1, 4}
	for i, v := range values {
		task.ProcessEvent(&model.Event{Key: "k", Value: v, Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	stat, ok := task.(*Task).Lookup("k")
	if !ok {
		t.Fatal("Key 'k' not found")
	}
	if stat.Min != -1 || stat.Max != 9 {
		t.Errorf("Expected extent [-1, 9], got [%v, %v]", stat.Min, stat.Max)
	}
	if stat.Sum != 20 || stat.Count != 5 {
		t.Errorf("Expected sum 20 count 5, got sum %v count %d", stat.Sum, stat.Count)
	}
	if got := stat.Mean(); got != 4 {
		t.Errorf("Expected mean 4, got %v", got)
	}
	if !stat.First.Equal(base) {
		t.Errorf("Expected first seen %v, got %v", base, stat.First)
	}
	if !stat.Last.Equal(base.Add(4 * time.Second)) {
		t.Errorf("Expected last seen %v, got %v", base.Add(4*time.Second), stat.Last)
	}
}

func TestTask_SnapshotIsIndependent(t *testing.T) {
	task := New("snapshot", 4)
	feedWords(task, "a", "a", "b")

	snapshot, ok := task.Snapshot().(statistic.SnapshotData)
	if !ok {
		t.Fatalf("Snapshot returned unexpected type %T", task.Snapshot())
	}

	// Mutating the task after the snapshot must not change the snapshot.
	feedWords(task, "a", "a", "a")

	var snapCount uint64
	for _, shard := range snapshot.Shards {
		if stat, ok := shard.Stats["a"]; ok {
			snapCount = stat.Count
		}
	}
	if snapCount != 2 {
		t.Errorf("Expected snapshot count 2 for 'a', got %d", snapCount)
	}
}

func TestTask_Reset(t *testing.T) {
	task := New("reset", 4)
	feedWords(task, "a", "b", "c")

	task.Reset()

	merged := mergedStats(t, task)
	if len(merged) != 0 {
		t.Errorf("Expected empty state after reset, got %d keys", len(merged))
	}
}

func TestTask_EmptyInput(t *testing.T) {
	task := New("empty", 4)

	merged := mergedStats(t, task)
	if len(merged) != 0 {
		t.Errorf("Expected empty result for empty input, got %d keys", len(merged))
	}
}

func TestTask_DropsEmptyKey(t *testing.T) {
	task := New("empty_key", 4)
	task.ProcessEvent(&model.Event{Key: "", Value: 1, Timestamp: time.Now()})

	merged := mergedStats(t, task)
	if len(merged) != 0 {
		t.Errorf("Expected empty-key event to be dropped, got %d keys", len(merged))
	}
}

func TestTask_AlerterMsg(t *testing.T) {
	task := New("alert_task", 4)
	feedWords(task, "a", "b", "a")

	rules := []config.AlerterRule{
		{Name: "records high", TaskName: "alert_task", Metric: "total_records", Operator: ">", Threshold: 2},
		{Name: "keys low", TaskName: "alert_task", Metric: "distinct_keys", Operator: ">", Threshold: 100},
		{Name: "other task", TaskName: "another", Metric: "total_records", Operator: ">", Threshold: 0},
	}

	msg := task.AlerterMsg(rules)
	if !strings.Contains(msg, "records high") {
		t.Errorf("Expected triggered rule 'records high' in message, got: %s", msg)
	}
	if strings.Contains(msg, "keys low") {
		t.Errorf("Rule 'keys low' should not have triggered, got: %s", msg)
	}
	if strings.Contains(msg, "other task") {
		t.Errorf("Rule for another task should be ignored, got: %s", msg)
	}
}
