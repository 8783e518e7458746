package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/tikiload/internal/db"
	"github.com/vvka-141/tikiload/internal/files"
	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// Store abstracts the upsert executor so the coordinator can be unit tested
// without a database.
type Store interface {
	// EnsureSchema creates the product table (and, when normalizeImages is
	// set, the child image table) if absent.
	EnsureSchema(ctx context.Context, normalizeImages bool) error

	// UpsertBatch atomically applies one batch of product rows, returning
	// the number of image rows written.
	UpsertBatch(ctx context.Context, batch []tikiload.Product, normalizeImages bool) (int, error)
}

// Walker abstracts input file discovery.
type Walker interface {
	Discover(dataPath string) ([]files.InputFile, error)
}

// StoreFactory builds a Store on top of an established connection pool.
type StoreFactory func(pool *pgxpool.Pool) Store

// Service implements the tikiload.Ingestor interface: it owns the
// end-to-end run sequence of discover, decode, normalize, batch, execute,
// and summarize.
//
// Thread-Safety: NOT safe for concurrent Ingest() calls on the same
// instance. Create separate instances for concurrent runs.
type Service struct {
	connectorFactory func(*tikiload.ConnectionConfig) (tikiload.Connector, error)
	walker           Walker
	storeFactory     StoreFactory
	logger           tikiload.Logger

	// readFile is swappable for tests; defaults to os.ReadFile.
	readFile func(string) ([]byte, error)
	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewService creates a new Service with all dependencies injected.
// Panics on nil dependencies: those are programmer errors that should fail
// loudly at startup, not surface as nil dereferences mid-run.
func NewService(
	connectorFactory func(*tikiload.ConnectionConfig) (tikiload.Connector, error),
	walker Walker,
	storeFactory StoreFactory,
	logger tikiload.Logger,
) *Service {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if walker == nil {
		panic("walker cannot be nil")
	}
	if storeFactory == nil {
		panic("storeFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &Service{
		connectorFactory: connectorFactory,
		walker:           walker,
		storeFactory:     storeFactory,
		logger:           logger,
		readFile:         os.ReadFile,
		now:              time.Now,
	}
}

// Ingest executes one run. On a batch failure the run aborts immediately:
// prior batches stay committed and the returned summary reflects them.
func (s *Service) Ingest(ctx context.Context, config tikiload.IngestConfig) (*tikiload.RunSummary, error) {
	start := s.now()
	summary := &tikiload.RunSummary{RunID: uuid.New()}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	batchSize := config.BatchSize
	if batchSize == 0 {
		batchSize = tikiload.DefaultBatchSize
	}

	connConfig, err := s.resolveConnection(config)
	if err != nil {
		return nil, err
	}

	inputs, err := s.walker.Discover(config.DataPath)
	if err != nil {
		return nil, err
	}
	summary.FilesFound = len(inputs)
	s.logger.Info("Found %d file(s) from %s", len(inputs), config.DataPath)
	s.logger.Verbose("Run %s: batch size %d, normalize images: %v",
		summary.RunID, batchSize, config.NormalizeImages)

	connector, err := s.connectorFactory(connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	if closer, ok := connector.(io.Closer); ok {
		defer closer.Close()
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tikiload.ErrConnectionFailed, err)
	}
	defer pool.Close()

	store := s.storeFactory(pool)
	if err := store.EnsureSchema(ctx, config.NormalizeImages); err != nil {
		return nil, err
	}

	acc := NewAccumulator(batchSize)

	for _, input := range inputs {
		if err := s.processFile(ctx, input, acc, store, config.NormalizeImages, summary); err != nil {
			summary.Duration = s.now().Sub(start)
			return summary, err
		}
	}

	// Last batch of the run may be partial; it still flushes.
	if batch := acc.Flush(); batch != nil {
		if err := s.applyBatch(ctx, store, batch, config.NormalizeImages, summary); err != nil {
			summary.Duration = s.now().Sub(start)
			return summary, err
		}
	}

	summary.Duration = s.now().Sub(start)
	s.logger.Info("Done. products=%d, images=%d", summary.ProductsUpserted, summary.ImagesUpserted)
	return summary, nil
}

// processFile decodes and normalizes one file, feeding rows through the
// accumulator. File-level and record-level failures are recovered here;
// batch failures propagate and abort the run.
func (s *Service) processFile(
	ctx context.Context,
	input files.InputFile,
	acc *Accumulator,
	store Store,
	normalizeImages bool,
	summary *tikiload.RunSummary,
) error {
	data, err := s.readFile(input.Path)
	if err != nil {
		s.logger.Warn("%s: unreadable, skipping: %v", input.Name, err)
		summary.MalformedFiles++
		return nil
	}

	records, err := DecodeRecords(data, input.Name)
	if err != nil {
		var malformed *tikiload.MalformedFileError
		if errors.As(err, &malformed) {
			s.logger.Warn("%s", malformed.Error())
			summary.MalformedFiles++
			return nil
		}
		return err
	}

	summary.ProductsSeen += len(records)
	badItems := 0

	for i, raw := range records {
		product, err := Normalize(raw, input.Name, i, s.now())
		if err != nil {
			badItems++
			summary.MalformedRecords++
			s.logger.Verbose("%v", err)
			continue
		}

		if batch := acc.Add(product); batch != nil {
			if err := s.applyBatch(ctx, store, batch, normalizeImages, summary); err != nil {
				return err
			}
		}
	}

	if badItems > 0 {
		s.logger.Warn("%s: skipped %d item(s) with missing/invalid fields", input.Name, badItems)
	}

	summary.FilesLoaded++
	s.logger.Verbose("Parsed %d record(s) from %s", len(records), input.Name)
	return nil
}

func (s *Service) applyBatch(
	ctx context.Context,
	store Store,
	batch []tikiload.Product,
	normalizeImages bool,
	summary *tikiload.RunSummary,
) error {
	images, err := store.UpsertBatch(ctx, batch, normalizeImages)
	if err != nil {
		return err
	}
	summary.ProductsUpserted += len(batch)
	summary.ImagesUpserted += images
	s.logger.Verbose("Applied batch of %d product(s), %d image(s)", len(batch), images)
	return nil
}

// resolveConnection parses the connection string and applies the run's
// authentication settings on top of it.
func (s *Service) resolveConnection(config tikiload.IngestConfig) (*tikiload.ConnectionConfig, error) {
	connConfig, err := db.ParseConnectionString(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if connConfig.AppName == "" {
		connConfig.AppName = "tikiload"
	}

	connConfig.AuthMethod = config.AuthMethod
	connConfig.AzureTenantID = config.AzureTenantID
	connConfig.AzureClientID = config.AzureClientID
	connConfig.AzureClientSecret = config.AzureClientSecret
	connConfig.AWSRegion = config.AWSRegion
	connConfig.GoogleInstance = config.GoogleInstance

	return connConfig, nil
}

// Verify Service implements the interface at compile time
var _ tikiload.Ingestor = (*Service)(nil)
