package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/tikiload/pkg/tikiload"
)

func TestAccumulatorBatching(t *testing.T) {
	acc := NewAccumulator(2)

	// Five rows at size 2 must yield batches of 2, 2, 1.
	var batches [][]tikiload.Product
	for id := int64(1); id <= 5; id++ {
		if batch := acc.Add(tikiload.Product{ID: id}); batch != nil {
			batches = append(batches, batch)
		}
	}
	if batch := acc.Flush(); batch != nil {
		batches = append(batches, batch)
	}

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)

	// Every row appears exactly once, in insertion order.
	var ids []int64
	for _, batch := range batches {
		for _, p := range batch {
			ids = append(ids, p.ID)
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
}

func TestAccumulatorFlushEmpty(t *testing.T) {
	acc := NewAccumulator(10)
	assert.Nil(t, acc.Flush())
	assert.Zero(t, acc.Pending())
}

func TestAccumulatorExactMultiple(t *testing.T) {
	acc := NewAccumulator(3)

	var full [][]tikiload.Product
	for id := int64(1); id <= 6; id++ {
		if batch := acc.Add(tikiload.Product{ID: id}); batch != nil {
			full = append(full, batch)
		}
	}

	assert.Len(t, full, 2)
	assert.Nil(t, acc.Flush(), "no partial batch left after an exact multiple")
}

func TestAccumulatorPending(t *testing.T) {
	acc := NewAccumulator(3)
	acc.Add(tikiload.Product{ID: 1})
	acc.Add(tikiload.Product{ID: 2})
	assert.Equal(t, 2, acc.Pending())

	acc.Add(tikiload.Product{ID: 3})
	assert.Zero(t, acc.Pending(), "full batch was handed out")
}

func TestAccumulatorNonPositiveSizeUsesDefault(t *testing.T) {
	for _, size := range []int{0, -5} {
		acc := NewAccumulator(size)
		assert.Equal(t, tikiload.DefaultBatchSize, acc.size)
	}
}
