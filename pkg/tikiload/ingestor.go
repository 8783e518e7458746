package tikiload

import "context"

// Ingestor is the main interface for executing ingestion runs.
// Implementations handle the full workflow: input file discovery, record
// normalization, batching, and transactional application to the store.
type Ingestor interface {
	// Ingest executes one run using the provided configuration and returns
	// the run summary. A non-nil summary may accompany an error when the
	// run aborted partway: counts in it reflect work already committed.
	Ingest(ctx context.Context, config IngestConfig) (*RunSummary, error)
}
