package fold

import (
	"runtime"
	"sync"
)

// AggregateParallel partitions records, folds each partition independently
// with Seed/MergeValue, then combines the partial maps with MergeAcc. Because
// MergeAcc is associative and commutative the result is identical to a
// sequential Aggregate regardless of partitioning. workers <= 0 defaults to
// runtime.GOMAXPROCS(0); a single worker falls through to Aggregate.
func AggregateParallel[K comparable, V, A any](records []Record[K, V], c Combiner[V, A], workers int) (map[K]A, error) {
	if err := c.validate(true); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || len(records) < 2 {
		return Aggregate(records, c)
	}
	if workers > len(records) {
		workers = len(records)
	}

	partials := make(chan map[K]A, workers)
	chunk := (len(records) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(records); start += chunk {
		end := min(start+chunk, len(records))
		wg.Add(1)
		go func(part []Record[K, V]) {
			defer wg.Done()
			local, _ := Aggregate(part, c)
			partials <- local
		}(records[start:end])
	}

	go func() {
		wg.Wait()
		close(partials)
	}()

	var accs map[K]A
	for part := range partials {
		accs = Merge(accs, part, c.MergeAcc)
	}
	if accs == nil {
		accs = make(map[K]A)
	}
	return accs, nil
}
