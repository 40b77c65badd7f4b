package fold

// Number covers the value types the stock combiners operate on.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sum is a combiner that adds values, the reduceByKey((a, b) => a + b)
// pattern. The accumulator is the running total itself.
func Sum[N Number]() Combiner[N, N] {
	add := func(a, b N) N { return a + b }
	return Combiner[N, N]{
		Seed:       func(v N) N { return v },
		MergeValue: add,
		MergeAcc:   add,
	}
}

// Count counts occurrences per key, ignoring the value.
func Count[V any]() Combiner[V, uint64] {
	return Combiner[V, uint64]{
		Seed:       func(V) uint64 { return 1 },
		MergeValue: func(a uint64, _ V) uint64 { return a + 1 },
		MergeAcc:   func(a, b uint64) uint64 { return a + b },
	}
}

// MeanAcc is the running (sum, count) accumulator behind Mean.
type MeanAcc struct {
	Sum   float64
	Count uint64
}

// Mean returns the deferred average: Value() finishes every accumulator.
func (a MeanAcc) Value() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / float64(a.Count)
}

// Mean accumulates a per-key average. Finalize the result with MeanAcc.Value.
func Mean() Combiner[float64, MeanAcc] {
	return Combiner[float64, MeanAcc]{
		Seed: func(v float64) MeanAcc { return MeanAcc{Sum: v, Count: 1} },
		MergeValue: func(a MeanAcc, v float64) MeanAcc {
			return MeanAcc{Sum: a.Sum + v, Count: a.Count + 1}
		},
		MergeAcc: func(a, b MeanAcc) MeanAcc {
			return MeanAcc{Sum: a.Sum + b.Sum, Count: a.Count + b.Count}
		},
	}
}

// Extent is the running minimum and maximum tracked by MinMax.
type Extent[N Number] struct {
	Min N
	Max N
}

// MinMax tracks the smallest and largest value seen per key.
func MinMax[N Number]() Combiner[N, Extent[N]] {
	return Combiner[N, Extent[N]]{
		Seed: func(v N) Extent[N] { return Extent[N]{Min: v, Max: v} },
		MergeValue: func(a Extent[N], v N) Extent[N] {
			return a.merge(Extent[N]{Min: v, Max: v})
		},
		MergeAcc: func(a, b Extent[N]) Extent[N] { return a.merge(b) },
	}
}

func (a Extent[N]) merge(b Extent[N]) Extent[N] {
	if b.Min < a.Min {
		a.Min = b.Min
	}
	if b.Max > a.Max {
		a.Max = b.Max
	}
	return a
}
