package statistic

import (
	"sync"
	"time"

	"KeyFold/internal/model"
	"KeyFold/pkg/fold"
)

// Stat is the per-key accumulator tracked by a keyed task.
type Stat struct {
	Key   string
	Count uint64
	Sum   float64
	Min   float64
	Max   float64
	First time.Time
	Last  time.Time
}

// Mean returns the running average for this key.
func (s *Stat) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Combiner returns the three-function combiner that folds events into Stats.
// MergeAcc merges into its first argument and returns it, so it must only be
// applied to accumulators the caller owns (fresh seeds or snapshot copies).
func Combiner() fold.Combiner[*model.Event, *Stat] {
	return fold.Combiner[*model.Event, *Stat]{
		Seed: func(ev *model.Event) *Stat {
			return &Stat{
				Key:   ev.Key,
				Count: 1,
				Sum:   ev.Value,
				Min:   ev.Value,
				Max:   ev.Value,
				First: ev.Timestamp,
				Last:  ev.Timestamp,
			}
		},
		MergeValue: func(s *Stat, ev *model.Event) *Stat {
			s.Count++
			s.Sum += ev.Value
			if ev.Value < s.Min {
				s.Min = ev.Value
			}
			if ev.Value > s.Max {
				s.Max = ev.Value
			}
			if ev.Timestamp.Before(s.First) {
				s.First = ev.Timestamp
			}
			if ev.Timestamp.After(s.Last) {
				s.Last = ev.Timestamp
			}
			return s
		},
		MergeAcc: func(a, b *Stat) *Stat {
			a.Count += b.Count
			a.Sum += b.Sum
			if b.Min < a.Min {
				a.Min = b.Min
			}
			if b.Max > a.Max {
				a.Max = b.Max
			}
			if b.First.Before(a.First) {
				a.First = b.First
			}
			if b.Last.After(a.Last) {
				a.Last = b.Last
			}
			return a
		},
	}
}

// Shard is a part of a sharded map, containing its own map and a mutex.
type Shard struct {
	Stats map[string]*Stat
	Mu    sync.RWMutex
}

// SnapshotData represents the full snapshot for a single keyed task.
// This is the data structure returned by the Snapshot() method.
type SnapshotData struct {
	TaskName string
	Shards   []*Shard
}
