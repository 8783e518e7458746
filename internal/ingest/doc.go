// Package ingest implements the ingestion pipeline: decoding raw JSON
// product files, normalizing records into typed rows, grouping rows into
// bounded batches, and coordinating their transactional application to
// the store.
//
// The pipeline is strictly sequential: files are processed in discovery
// order and every row flows through exactly one batch. Record-level and
// file-level failures are recovered locally and counted; batch-level
// failures abort the run.
package ingest
