package tikiload

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Product is one normalized catalog item, ready to be applied to the store.
// Optional attributes are pointers so that absence survives the trip into
// the database as NULL rather than a zero value.
type Product struct {
	// ID is the unique product identity (primary key in the store).
	ID int64

	Name        *string
	URLKey      *string
	Description *string

	// Price is the decimal price. Nil when the source record omits it;
	// never negative.
	Price *float64

	// Images is the product's ordered image URL list, coerced to strings.
	// Always written to the store as a JSONB document; additionally
	// materialized into ProductImage rows when normalization is enabled.
	Images []string

	// SourceFile is the base name of the originating file. Provenance,
	// not business data.
	SourceFile string

	// IngestedAt is the processing time, not the source's own timestamp.
	IngestedAt time.Time
}

// ProductImage is one row of the normalized child table: a single image
// belonging to a single product, with explicit display order.
type ProductImage struct {
	ProductID int64
	Position  int // zero-based index within the product's image list
	URL       string
}

// IngestConfig contains all parameters needed for one ingestion run.
type IngestConfig struct {
	// DataPath is a directory containing products_*.json files, or a single
	// explicitly named JSON file.
	DataPath string

	// ConnectionString is the PostgreSQL connection string for the target
	// database (keyword/value or URI format).
	ConnectionString string

	// BatchSize is the maximum number of product rows per transaction.
	// Zero means DefaultBatchSize.
	BatchSize int

	// NormalizeImages enables the tiki_product_images child table and its
	// per-product reconciliation.
	NormalizeImages bool

	// Timeout is the global deadline for the entire run. Zero means no
	// run-level deadline.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (AuthMethodAzureEntraID).
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is the RDS region (AuthMethodAWSIAM).
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name in
	// project:region:instance format (AuthMethodGoogleIAM).
	GoogleInstance string
}

// Validate checks if the IngestConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *IngestConfig) Validate() error {
	var errs []error

	if c.DataPath == "" {
		errs = append(errs, fmt.Errorf("DataPath is required: %w", ErrInvalidConfig))
	}

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch size cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// RunSummary is the externally observable result of one ingestion run.
type RunSummary struct {
	// RunID uniquely identifies this run in logs.
	RunID uuid.UUID

	FilesFound  int // input files discovered
	FilesLoaded int // files fully parsed and applied

	ProductsSeen     int // records attempted (valid JSON, before validation)
	ProductsUpserted int // rows applied to tiki_products
	ImagesUpserted   int // rows applied to tiki_product_images

	MalformedRecords int // records skipped for missing/invalid fields
	MalformedFiles   int // files skipped for JSON syntax errors

	Duration time.Duration
}

// ConnectionConfig represents resolved connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// AppName is reported to the server as application_name.
	AppName string

	// Azure Entra ID authentication parameters (AuthMethodAzureEntraID).
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, the DefaultAzureCredential chain is used.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is the RDS region (AuthMethodAWSIAM).
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name
	// (AuthMethodGoogleIAM).
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
