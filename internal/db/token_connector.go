package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/tikiload/internal/retry"
	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// tokenExpiryWarning is how close to expiry a freshly acquired token has to
// be before a warning is printed. A token this short-lived may not survive
// the whole run.
const tokenExpiryWarning = 5 * time.Minute

// TokenProvider acquires short-lived authentication tokens used as the
// PostgreSQL password for cloud IAM authentication.
type TokenProvider interface {
	// GetToken returns a token and its expiry time.
	GetToken(ctx context.Context) (string, time.Time, error)
}

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
type TokenBasedConnector struct {
	config        *tikiload.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for
// authentication. providerName is used in error/warning messages
// (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *tikiload.ConnectionConfig, tokenProvider TokenProvider, providerName string) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: newRetryExecutor(),
		providerName:  providerName,
	}
}

// Connect acquires a token and establishes a connection pool, retrying
// transient failures. Each attempt acquires its own fresh token, so an
// expired token is never retried verbatim.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
		}
		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			fmt.Fprintf(os.Stderr, "Warning: %s token expires in %v\n",
				c.providerName, remaining.Round(time.Second))
		}

		// The token rides in as the password of an otherwise unchanged config.
		withToken := *c.config
		withToken.Password = token

		p, err := openPool(ctx, BuildConnectionString(&withToken), c.config)
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
