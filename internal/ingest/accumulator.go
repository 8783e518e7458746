package ingest

import "github.com/vvka-141/tikiload/pkg/tikiload"

// Accumulator groups normalized rows into batches of at most size rows.
// Batches may span file boundaries; every row added appears in exactly one
// batch. Single-pass and not restartable: create a fresh Accumulator per run.
//
// Thread-Safety: NOT safe for concurrent use. The pipeline is sequential.
type Accumulator struct {
	size int
	buf  []tikiload.Product
}

// NewAccumulator creates an Accumulator producing batches of at most size
// rows. A non-positive size falls back to tikiload.DefaultBatchSize.
func NewAccumulator(size int) *Accumulator {
	if size <= 0 {
		size = tikiload.DefaultBatchSize
	}
	return &Accumulator{
		size: size,
		buf:  make([]tikiload.Product, 0, size),
	}
}

// Add appends one row. When the row fills the current batch, the full batch
// is returned and an empty one started; otherwise Add returns nil.
func (a *Accumulator) Add(p tikiload.Product) []tikiload.Product {
	a.buf = append(a.buf, p)
	if len(a.buf) < a.size {
		return nil
	}
	batch := a.buf
	a.buf = make([]tikiload.Product, 0, a.size)
	return batch
}

// Flush drains the remaining partial batch, or returns nil when empty.
// The final batch of a run may be smaller than size; it still flushes.
func (a *Accumulator) Flush() []tikiload.Product {
	if len(a.buf) == 0 {
		return nil
	}
	batch := a.buf
	a.buf = make([]tikiload.Product, 0, a.size)
	return batch
}

// Pending returns the number of rows waiting in the current partial batch.
func (a *Accumulator) Pending() int {
	return len(a.buf)
}
