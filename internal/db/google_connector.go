package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// GoogleCloudSQLConnector implements the Connector interface for Google
// Cloud SQL IAM authentication. TCP never leaves the process: the Cloud SQL
// Go Connector dials the instance by its connection name and handles
// authentication and TLS itself.
//
// Implements io.Closer; Close must run after the pool from Connect is
// closed, to release the dialer.
type GoogleCloudSQLConnector struct {
	config *tikiload.ConnectionConfig
	dialer *cloudsqlconn.Dialer
}

// NewGoogleCloudSQLConnector validates the Cloud SQL configuration.
// GoogleInstance must carry the instance connection name
// (project:region:instance) and Username the IAM database user.
func NewGoogleCloudSQLConnector(config *tikiload.ConnectionConfig) (*GoogleCloudSQLConnector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance)")
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U)")
	}
	return &GoogleCloudSQLConnector{config: config}, nil
}

// Connect establishes a connection pool through the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w", err)
	}

	// The instance name stands in for the host; sslmode stays off because
	// the dialer runs its own TLS to the instance.
	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable",
		c.config.GoogleInstance, c.config.Username, c.config.Database)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, c.config.GoogleInstance)
	}
	configurePool(poolConfig)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		dialer.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c.dialer = dialer
	return pool, nil
}

// Close releases the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.dialer != nil {
		c.dialer.Close()
		c.dialer = nil
	}
	return nil
}
