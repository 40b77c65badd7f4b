package fold

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateParallelMatchesSequential(t *testing.T) {
	records := make([]Record[string, int], 0, 5000)
	for i := 0; i < 5000; i++ {
		records = append(records, Record[string, int]{
			Key:   fmt.Sprintf("key-%d", i%37),
			Value: i % 5,
		})
	}

	want, err := Aggregate(records, Sum[int]())
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 2, 7, 64} {
		got, err := AggregateParallel(records, Sum[int](), workers)
		require.NoError(t, err, "workers=%d", workers)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestAggregateParallelRequiresMergeAcc(t *testing.T) {
	c := Combiner[int, int]{
		Seed:       func(v int) int { return v },
		MergeValue: func(a, v int) int { return a + v },
	}

	_, err := AggregateParallel(wordRecords("a", "b"), c, 4)
	assert.ErrorIs(t, err, ErrInvalidCombiner)
}

func TestAggregateParallelEmptyInput(t *testing.T) {
	result, err := AggregateParallel[string](nil, Sum[int](), 8)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result)
}

func TestAggregateParallelMeanFinalize(t *testing.T) {
	records := []Record[string, float64]{
		{Key: "h", Value: 5}, {Key: "h", Value: 3}, {Key: "w", Value: 5},
	}

	accs, err := AggregateParallel(records, Mean(), 3)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"h": 4.0, "w": 5.0}, Finalize(accs, MeanAcc.Value))
}
