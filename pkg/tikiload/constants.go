package tikiload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Ingestion completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or no input files
	ExitConnectionError = 11 // Failed to connect to database
	ExitExecutionFailed = 13 // Batch upsert or schema creation failed
)

const (
	// DefaultBatchSize is the number of product rows applied per transaction
	// when --batch-size is not specified.
	DefaultBatchSize = 1000

	// DefaultPort is the standard PostgreSQL server port.
	DefaultPort = 5432

	// DefaultRetryInitialDelay is the default initial delay before the first
	// connection retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// ProductFilePattern is the glob matched against file names when the
	// input path is a directory.
	ProductFilePattern = "products_*.json"

	// ProductsTable is the primary product table.
	ProductsTable = "tiki_products"

	// ProductImagesTable is the normalized child table, created only when
	// image normalization is enabled.
	ProductImagesTable = "tiki_product_images"
)
