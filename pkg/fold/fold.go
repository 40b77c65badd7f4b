// Package fold implements key-grouped aggregation: one combined value per
// distinct key from a stream of key/value records, driven by a three-function
// combiner (seed, merge-within-group, merge-across-groups).
package fold

import (
	"errors"
	"iter"
)

// ErrInvalidCombiner is returned when a combiner is missing a function the
// requested operation needs.
var ErrInvalidCombiner = errors.New("fold: combiner missing seed or merge function")

// Record is a single keyed input element.
type Record[K comparable, V any] struct {
	Key   K
	Value V
}

// Combiner bundles the three aggregation functions.
//
// Seed converts the first value observed for a key into an accumulator.
// MergeValue folds each subsequent value for that key into the accumulator.
// MergeAcc combines two accumulators for the same key; it must be associative
// and commutative, so that results are independent of how the input was
// partitioned. A sequential Aggregate never calls MergeAcc, but Merge and
// AggregateParallel require it.
type Combiner[V, A any] struct {
	Seed       func(V) A
	MergeValue func(A, V) A
	MergeAcc   func(A, A) A
}

func (c Combiner[V, A]) validate(needMergeAcc bool) error {
	if c.Seed == nil || c.MergeValue == nil {
		return ErrInvalidCombiner
	}
	if needMergeAcc && c.MergeAcc == nil {
		return ErrInvalidCombiner
	}
	return nil
}

// Aggregate folds records into one accumulator per distinct key with a single
// left-to-right pass. An empty or nil input yields an empty, non-nil map.
// Panics raised by the combiner functions propagate to the caller unmodified.
func Aggregate[K comparable, V, A any](records []Record[K, V], c Combiner[V, A]) (map[K]A, error) {
	if err := c.validate(false); err != nil {
		return nil, err
	}
	accs := make(map[K]A, len(records))
	for _, r := range records {
		if acc, ok := accs[r.Key]; ok {
			accs[r.Key] = c.MergeValue(acc, r.Value)
		} else {
			accs[r.Key] = c.Seed(r.Value)
		}
	}
	return accs, nil
}

// AggregateSeq is Aggregate over an arbitrary key/value sequence.
func AggregateSeq[K comparable, V, A any](seq iter.Seq2[K, V], c Combiner[V, A]) (map[K]A, error) {
	if err := c.validate(false); err != nil {
		return nil, err
	}
	accs := make(map[K]A)
	for k, v := range seq {
		if acc, ok := accs[k]; ok {
			accs[k] = c.MergeValue(acc, v)
		} else {
			accs[k] = c.Seed(v)
		}
	}
	return accs, nil
}

// Merge folds src into dst using mergeAcc and returns dst. Keys present only
// in src are copied over as-is. A nil dst is allocated first, so partial
// results can be reduced with `acc = Merge(acc, part, f)`.
func Merge[K comparable, A any](dst, src map[K]A, mergeAcc func(A, A) A) map[K]A {
	if dst == nil {
		dst = make(map[K]A, len(src))
	}
	for k, a := range src {
		if existing, ok := dst[k]; ok {
			dst[k] = mergeAcc(existing, a)
		} else {
			dst[k] = a
		}
	}
	return dst
}

// Finalize applies a finishing transform to every accumulator, e.g. turning a
// (sum, count) pair into an average. The input map is left untouched.
func Finalize[K comparable, A, R any](accs map[K]A, finish func(A) R) map[K]R {
	out := make(map[K]R, len(accs))
	for k, a := range accs {
		out[k] = finish(a)
	}
	return out
}
