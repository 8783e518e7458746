package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/tikiload/internal/files"
	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// mockStore records every applied batch and can be told to fail on the
// n-th UpsertBatch call.
type mockStore struct {
	batches       [][]tikiload.Product
	schemaCalls   int
	schemaErr     error
	failOnBatch   int // 1-based; 0 means never fail
	imagesPerRow  int
	normalizeSeen []bool
}

func (m *mockStore) EnsureSchema(ctx context.Context, normalizeImages bool) error {
	m.schemaCalls++
	return m.schemaErr
}

func (m *mockStore) UpsertBatch(ctx context.Context, batch []tikiload.Product, normalizeImages bool) (int, error) {
	call := len(m.batches) + 1
	if m.failOnBatch != 0 && call == m.failOnBatch {
		ids := make([]int64, len(batch))
		for i, p := range batch {
			ids[i] = p.ID
		}
		return 0, &tikiload.BatchError{ProductIDs: ids, Err: fmt.Errorf("simulated failure")}
	}
	m.batches = append(m.batches, batch)
	m.normalizeSeen = append(m.normalizeSeen, normalizeImages)
	return len(batch) * m.imagesPerRow, nil
}

func (m *mockStore) appliedIDs() []int64 {
	var ids []int64
	for _, batch := range m.batches {
		for _, p := range batch {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// mockWalker returns a fixed file list.
type mockWalker struct {
	inputs []files.InputFile
	err    error
}

func (m *mockWalker) Discover(dataPath string) ([]files.InputFile, error) {
	return m.inputs, m.err
}

// mockConnector hands out a lazy pool; no connection is established until
// something queries it, which these tests never do.
type mockConnector struct {
	err error
}

func (m *mockConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	if m.err != nil {
		return nil, m.err
	}
	return pgxpool.New(ctx, "host=localhost")
}

func mockConnectorFactory(connector *mockConnector) func(*tikiload.ConnectionConfig) (tikiload.Connector, error) {
	return func(*tikiload.ConnectionConfig) (tikiload.Connector, error) {
		return connector, nil
	}
}

// mockLogger captures log lines per level.
type mockLogger struct {
	verbose, info, warns, errors []string
}

func (m *mockLogger) Verbose(format string, args ...interface{}) {
	m.verbose = append(m.verbose, fmt.Sprintf(format, args...))
}

func (m *mockLogger) Info(format string, args ...interface{}) {
	m.info = append(m.info, fmt.Sprintf(format, args...))
}

func (m *mockLogger) Warn(format string, args ...interface{}) {
	m.warns = append(m.warns, fmt.Sprintf(format, args...))
}

func (m *mockLogger) Error(format string, args ...interface{}) {
	m.errors = append(m.errors, fmt.Sprintf(format, args...))
}
