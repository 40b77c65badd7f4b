package keyed

import (
	"KeyFold/internal/config"
	"KeyFold/internal/engine/impl/keyed/statistic"
	"KeyFold/internal/factory"
	"KeyFold/internal/model"
	"KeyFold/pkg/fold"
	"fmt"
	"hash/fnv"
	"log"
	"strings"
	"sync"
	"time"
)

// --- Factory Registration ---

func init() {
	factory.RegisterAggregator("keyed", func(cfg *config.Config) (*factory.TaskGroup, error) {
		keyedCfg := cfg.Aggregator.Keyed

		// Create all enabled writers for this aggregator group
		writers := make([]model.Writer, 0, len(keyedCfg.Writers))
		for _, writerDef := range keyedCfg.Writers {
			if !writerDef.Enabled {
				continue
			}

			interval, err := time.ParseDuration(writerDef.SnapshotInterval)
			if err != nil {
				log.Printf("Warning: invalid snapshot_interval for writer type '%s': %v, skipping.", writerDef.Type, err)
				continue
			}

			var writer model.Writer
			switch writerDef.Type {
			case "gob":
				writer = NewGobWriter(writerDef.Gob.RootPath, interval)
			case "clickhouse":
				writer, err = NewClickHouseWriter(writerDef.ClickHouse, interval)
				if err != nil {
					log.Printf("Warning: failed to create writer type '%s': %v, skipping.", writerDef.Type, err)
					continue
				}
			default:
				log.Printf("Warning: unknown writer type '%s' in config, skipping.", writerDef.Type)
				continue
			}
			writers = append(writers, writer)
		}

		// Create all tasks for this aggregator group
		tasks := make([]model.Task, len(keyedCfg.Tasks))
		for i, taskCfg := range keyedCfg.Tasks {
			tasks[i] = New(taskCfg.Name, taskCfg.NumShards)
		}

		return &factory.TaskGroup{Tasks: tasks, Writers: writers}, nil
	})
}

// --- Task Implementation ---

const defaultShardCount = 256

// Task performs exact keyed aggregation using a sharded map, folding each
// shard with the statistic combiner. It implements the model.Task interface.
type Task struct {
	name       string
	combiner   fold.Combiner[*model.Event, *statistic.Stat]
	shards     []*statistic.Shard
	shardCount uint32
}

// New creates a new keyed aggregation task.
func New(name string, numShards uint32) model.Task {
	if numShards <= 0 || numShards >= 32768 {
		numShards = defaultShardCount
	}
	log.Printf("Creating KeyedTask '%s' with %d shards", name, numShards)
	task := &Task{
		name:       name,
		combiner:   statistic.Combiner(),
		shards:     make([]*statistic.Shard, numShards),
		shardCount: numShards,
	}
	for i := 0; i < int(numShards); i++ {
		task.shards[i] = &statistic.Shard{
			Stats: make(map[string]*statistic.Stat),
		}
	}
	return task
}

// Name returns the name of the task.
func (t *Task) Name() string {
	return t.name
}

// ProcessEvent folds a single event into the accumulator of its key,
// seeding the accumulator if the key has not been seen this period.
func (t *Task) ProcessEvent(event *model.Event) {
	if event.Key == "" {
		log.Printf("Dropping event with empty key in task '%s'", t.name)
		return
	}

	shard := t.getShard(event.Key)
	shard.Mu.Lock()
	defer shard.Mu.Unlock()

	if stat, ok := shard.Stats[event.Key]; ok {
		shard.Stats[event.Key] = t.combiner.MergeValue(stat, event)
	} else {
		shard.Stats[event.Key] = t.combiner.Seed(event)
	}
}

// Snapshot returns a deep copy of the current aggregated data.
// Concurrent writes are safe; the snapshot reflects a consistent per-shard
// state at the moment of the call.
func (t *Task) Snapshot() interface{} {
	snapshotShards := make([]*statistic.Shard, t.shardCount)
	var wg sync.WaitGroup
	wg.Add(int(t.shardCount))

	for i := 0; i < int(t.shardCount); i++ {
		go func(i int) {
			defer wg.Done()

			shard := t.shards[i]

			shard.Mu.RLock()
			copiedStats := make(map[string]*statistic.Stat, len(shard.Stats))
			for k, v := range shard.Stats {
				statCopy := *v
				copiedStats[k] = &statCopy
			}
			shard.Mu.RUnlock()

			snapshotShards[i] = &statistic.Shard{
				Stats: copiedStats,
			}
		}(i)
	}

	wg.Wait()

	return statistic.SnapshotData{
		TaskName: t.name,
		Shards:   snapshotShards,
	}
}

// Merged collapses the current state into a single map of per-key
// accumulators. Shard copies are combined with the merge-across-groups
// function, so the result is unaffected by how keys were sharded.
func (t *Task) Merged() interface{} {
	snapshot := t.Snapshot().(statistic.SnapshotData)

	var merged map[string]*statistic.Stat
	for _, shard := range snapshot.Shards {
		merged = fold.Merge(merged, shard.Stats, t.combiner.MergeAcc)
	}
	if merged == nil {
		merged = make(map[string]*statistic.Stat)
	}
	return merged
}

// Lookup returns a copy of the current accumulator for a key, if present.
func (t *Task) Lookup(key string) (statistic.Stat, bool) {
	shard := t.getShard(key)
	shard.Mu.RLock()
	defer shard.Mu.RUnlock()
	if stat, ok := shard.Stats[key]; ok {
		return *stat, true
	}
	return statistic.Stat{}, false
}

// Reset clears the internal state of the task, preparing for a new measurement period.
func (t *Task) Reset() {
	var wait sync.WaitGroup
	wait.Add(int(t.shardCount))

	for i := 0; i < int(t.shardCount); i++ {
		go func(i int) {
			defer wait.Done()
			shard := t.shards[i]
			shard.Mu.Lock()
			shard.Stats = make(map[string]*statistic.Stat)
			shard.Mu.Unlock()
		}(i)
	}

	wait.Wait()
}

// AlerterMsg evaluates rules against the task's aggregated data and returns an HTML string if triggered.
func (t *Task) AlerterMsg(rules []config.AlerterRule) string {
	merged, ok := t.Merged().(map[string]*statistic.Stat)
	if !ok {
		log.Printf("ERROR: AlerterMsg in keyed task received unexpected merged type: %T", t.Merged())
		return ""
	}

	var totalRecords uint64
	var totalSum float64
	for _, stat := range merged {
		totalRecords += stat.Count
		totalSum += stat.Sum
	}
	keyCount := len(merged)

	var triggeredMessages []string

	for _, rule := range rules {
		if rule.TaskName != t.name {
			continue
		}

		var triggered bool
		var currentValue float64
		var unit string

		switch rule.Metric {
		case "total_records":
			currentValue = float64(totalRecords)
			unit = "records"
			if check(currentValue, rule.Threshold, rule.Operator) {
				triggered = true
			}
		case "total_sum":
			currentValue = totalSum
			unit = "sum"
			if check(currentValue, rule.Threshold, rule.Operator) {
				triggered = true
			}
		case "distinct_keys":
			currentValue = float64(keyCount)
			unit = "keys"
			if check(currentValue, rule.Threshold, rule.Operator) {
				triggered = true
			}
		}

		if triggered {
			msg := fmt.Sprintf("<h3>Alert: %s</h3>"+
				"<ul>"+
				"<li><b>Task:</b> <code>%s</code></li>"+
				"<li><b>Metric:</b> <code>%s</code></li>"+
				"<li><b>Condition:</b> <code>%s %.2f</code></li>"+
				"<li><b>Observed Value:</b> <code>%.0f %s</code></li>"+
				"</ul>",
				rule.Name, rule.TaskName, rule.Metric, rule.Operator, rule.Threshold, currentValue, unit)
			triggeredMessages = append(triggeredMessages, msg)
		}
	}

	return strings.Join(triggeredMessages, "<br><hr><br>")
}

// check compares a value against a threshold based on an operator.
func check(value, threshold float64, operator string) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case "=":
		return value == threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	default:
		log.Printf("Warning: unknown operator '%s' in alerter rule", operator)
		return false
	}
}

// getShard returns the appropriate shard for a given key.
func (t *Task) getShard(key string) *statistic.Shard {
	hasher := fnv.New32a()
	hasher.Write([]byte(key))
	return t.shards[hasher.Sum32()%t.shardCount]
}
