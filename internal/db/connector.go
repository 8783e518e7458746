package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/tikiload/internal/retry"
	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// Pool sizing. The pipeline applies batches sequentially on a single
// connection at a time, so the pool stays small; idle time is long enough
// to survive the gaps between large file decodes without reconnecting.
const (
	poolMaxConns    = 3
	poolMinConns    = 1
	poolMaxConnIdle = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = poolMaxConns
	poolConfig.MinConns = poolMinConns
	poolConfig.MaxConnIdleTime = poolMaxConnIdle
}

func newRetryExecutor() *retry.Executor {
	classifier := retry.NewPostgreSQLErrorClassifier()
	strategy := retry.NewExponentialBackoff(tikiload.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(tikiload.DefaultRetryInitialDelay),
		retry.WithMaxDelay(tikiload.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(classifier, strategy)
}

// openPool parses connStr, builds a health-checked pool, and pings it once.
// Failures come back wrapped with actionable guidance. Shared by the
// standard and token-based connectors, which differ only in how the
// password lands in connStr.
func openPool(ctx context.Context, connStr string, cfg *tikiload.ConnectionConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	configurePool(poolConfig)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
	}

	return pool, nil
}

// StandardConnector implements the Connector interface for username/password
// authentication, retrying transient failures.
type StandardConnector struct {
	config        *tikiload.ConnectionConfig
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *tikiload.ConnectionConfig) *StandardConnector {
	return &StandardConnector{
		config:        config,
		retryExecutor: newRetryExecutor(),
	}
}

// Connect establishes a connection pool with automatic retry.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	connStr := BuildConnectionString(c.config)

	var pool *pgxpool.Pool
	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		p, err := openPool(ctx, connStr, c.config)
		if err != nil {
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// NewConnector picks the Connector implementation for the configured
// authentication method.
func NewConnector(config *tikiload.ConnectionConfig) (tikiload.Connector, error) {
	switch config.AuthMethod {
	case tikiload.AuthMethodStandard:
		return NewStandardConnector(config), nil
	case tikiload.AuthMethodAWSIAM:
		provider, err := NewAWSIAMTokenProvider(config.Host, config.Port, config.AWSRegion, config.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
		}
		return NewTokenBasedConnector(config, provider, "AWS IAM"), nil
	case tikiload.AuthMethodGoogleIAM:
		return NewGoogleCloudSQLConnector(config)
	case tikiload.AuthMethodAzureEntraID:
		provider, err := newAzureTokenProvider(config)
		if err != nil {
			return nil, err
		}
		return NewTokenBasedConnector(config, provider, "Azure"), nil
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, tikiload.ErrUnsupportedAuthMethod)
	}
}

// newAzureTokenProvider picks Service Principal auth when the full
// credential triple is present, otherwise the DefaultAzureCredential chain
// (environment, workload identity, managed identity, Azure CLI).
func newAzureTokenProvider(config *tikiload.ConnectionConfig) (TokenProvider, error) {
	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		provider, err := NewAzureServicePrincipalProvider(
			config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
		return provider, nil
	}

	provider, err := NewAzureDefaultCredentialProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
	}
	return provider, nil
}

// connHint maps substrings of a raw connection error to operator guidance.
type connHint struct {
	patterns []string
	render   func(host string, port int, database string) string
}

var connHints = []connHint{
	{
		patterns: []string{"connection refused", "actively refused"},
		render: func(host string, port int, _ string) string {
			return fmt.Sprintf(`connection refused to %s:%d

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection`, host, port, host, port)
		},
	},
	{
		patterns: []string{"no such host", "no host"},
		render: func(host string, _ int, _ string) string {
			return fmt.Sprintf(`cannot resolve host %q

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable
  - Network connection issue`, host)
		},
	},
	{
		patterns: []string{"password authentication failed"},
		render: func(_ string, _ int, database string) string {
			return fmt.Sprintf(`password authentication failed for database %q

Possible causes:
  - Wrong password (check $PGPASSWORD or ~/.pgpass)
  - Wrong username
  - User does not have access to the database`, database)
		},
	},
	{
		patterns: []string{"does not exist"},
		render: func(_ string, _ int, database string) string {
			return fmt.Sprintf(`database %q does not exist

To create it:
  createdb %s`, database, database)
		},
	},
	{
		patterns: []string{"timeout", "timed out"},
		render: func(host string, port int, _ string) string {
			return fmt.Sprintf(`connection timed out to %s:%d

Possible causes:
  - Server is overloaded or unresponsive
  - Network latency or packet loss
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)`, host, port)
		},
	},
	{
		patterns: []string{"ssl", "tls"},
		render: func(_ string, _ int, _ string) string {
			return `SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)`
		},
	},
}

// wrapConnectionError attaches operator guidance to a raw pgx connection
// error. The original error always stays unwrappable.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())

	for _, hint := range connHints {
		for _, pattern := range hint.patterns {
			if strings.Contains(errStr, pattern) {
				return fmt.Errorf("%s\n\nOriginal error: %w", hint.render(host, port, database), err)
			}
		}
	}
	return fmt.Errorf("failed to connect to database: %w", err)
}
