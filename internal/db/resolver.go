package db

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/vvka-141/tikiload/internal/config"
	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// GranularConnFlags represents individual connection CLI flags.
// These follow PostgreSQL client conventions (psql, pg_dump).
//
// Note: password is deliberately absent. For security, password comes from:
//  1. $PGPASSWORD environment variable
//  2. Connection string with embedded password
//  3. Interactive prompt
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// CloudAuthFlags represents the cloud authentication CLI flags. At most one
// provider may be selected.
//
// Note: the Azure client secret is NOT a CLI flag for security reasons.
// Use the AZURE_CLIENT_SECRET environment variable instead.
type CloudAuthFlags struct {
	Azure         bool
	AzureTenantID string // Overrides AZURE_TENANT_ID
	AzureClientID string // Overrides AZURE_CLIENT_ID

	AWSIAM    bool
	AWSRegion string // Overrides AWS_REGION

	GoogleInstance string // project:region:instance, implies Google IAM
}

// EnvVars holds the environment variables consulted during connection
// resolution, following standard PostgreSQL client and cloud SDK conventions.
type EnvVars struct {
	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
	PGSSLMODE  string

	DatabaseURL string // Full connection string (Heroku/Rails convention)

	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
	AWSRegion         string
}

// LoadFromEnvironment loads the connection-related environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:            os.Getenv("PGHOST"),
		PGPORT:            os.Getenv("PGPORT"),
		PGUSER:            os.Getenv("PGUSER"),
		PGPASSWORD:        os.Getenv("PGPASSWORD"),
		PGDATABASE:        os.Getenv("PGDATABASE"),
		PGSSLMODE:         os.Getenv("PGSSLMODE"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AzureTenantID:     os.Getenv("AZURE_TENANT_ID"),
		AzureClientID:     os.Getenv("AZURE_CLIENT_ID"),
		AzureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
		AWSRegion:         os.Getenv("AWS_REGION"),
	}
}

// ResolveConnectionParams resolves connection parameters using
// PostgreSQL-standard precedence:
//
//	CLI flag > environment variable > tikiload.yaml > default
//
// A full connection string (flag or $DATABASE_URL) supplies the baseline;
// granular flags then override its individual fields. yamlConn may be nil
// when no project config exists.
func ResolveConnectionParams(
	connString string,
	flags *GranularConnFlags,
	cloud *CloudAuthFlags,
	env *EnvVars,
	yamlConn *config.ConnectionConfig,
) (*tikiload.ConnectionConfig, error) {
	if connString == "" {
		connString = env.DatabaseURL
	}

	var connConfig *tikiload.ConnectionConfig
	if connString != "" {
		parsed, err := ParseConnectionString(connString)
		if err != nil {
			return nil, err
		}
		connConfig = parsed
		if connConfig.Password == "" {
			connConfig.Password = env.PGPASSWORD
		}
	} else {
		connConfig = &tikiload.ConnectionConfig{Port: tikiload.DefaultPort}
		applyYAML(connConfig, yamlConn)
		applyEnvironment(connConfig, env)
	}

	applyFlags(connConfig, flags)
	fillDefaults(connConfig)

	if err := applyCloudAuth(connConfig, cloud, env, yamlConn); err != nil {
		return nil, err
	}

	return connConfig, nil
}

func applyYAML(c *tikiload.ConnectionConfig, yamlConn *config.ConnectionConfig) {
	if yamlConn == nil {
		return
	}
	if yamlConn.Host != "" {
		c.Host = yamlConn.Host
	}
	if yamlConn.Port != 0 {
		c.Port = yamlConn.Port
	}
	if yamlConn.Username != "" {
		c.Username = yamlConn.Username
	}
	if yamlConn.Database != "" {
		c.Database = yamlConn.Database
	}
	if yamlConn.SSLMode != "" {
		c.SSLMode = yamlConn.SSLMode
	}
}

func applyEnvironment(c *tikiload.ConnectionConfig, env *EnvVars) {
	if env.PGHOST != "" {
		c.Host = env.PGHOST
	}
	if env.PGPORT != "" {
		if port, err := strconv.Atoi(env.PGPORT); err == nil {
			c.Port = port
		}
	}
	if env.PGUSER != "" {
		c.Username = env.PGUSER
	}
	if env.PGDATABASE != "" {
		c.Database = env.PGDATABASE
	}
	if env.PGSSLMODE != "" {
		c.SSLMode = env.PGSSLMODE
	}
	if env.PGPASSWORD != "" {
		c.Password = env.PGPASSWORD
	}
}

func applyFlags(c *tikiload.ConnectionConfig, flags *GranularConnFlags) {
	if flags == nil {
		return
	}
	if flags.Host != "" {
		c.Host = flags.Host
	}
	if flags.Port != 0 {
		c.Port = flags.Port
	}
	if flags.Username != "" {
		c.Username = flags.Username
	}
	if flags.Database != "" {
		c.Database = flags.Database
	}
	if flags.SSLMode != "" {
		c.SSLMode = flags.SSLMode
	}
}

func fillDefaults(c *tikiload.ConnectionConfig) {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = tikiload.DefaultPort
	}
	if c.Username == "" {
		if u, err := user.Current(); err == nil {
			c.Username = u.Username
		} else {
			c.Username = "postgres"
		}
	}
	if c.Database == "" {
		c.Database = "postgres"
	}
}

// applyCloudAuth selects the authentication method and its parameters.
// Selecting more than one cloud provider is a configuration error.
func applyCloudAuth(
	c *tikiload.ConnectionConfig,
	cloud *CloudAuthFlags,
	env *EnvVars,
	yamlConn *config.ConnectionConfig,
) error {
	if cloud == nil {
		cloud = &CloudAuthFlags{}
	}

	azure := cloud.Azure
	aws := cloud.AWSIAM
	google := cloud.GoogleInstance != ""

	// tikiload.yaml can pin the auth method; flags override.
	if !azure && !aws && !google && yamlConn != nil {
		switch yamlConn.AuthMethod {
		case "", "standard":
		case "azure":
			azure = true
		case "aws_iam":
			aws = true
		case "google_iam":
			google = true
			if cloud.GoogleInstance == "" {
				cloud.GoogleInstance = yamlConn.GoogleInstance
			}
		default:
			return fmt.Errorf("%w: unknown auth_method %q in %s (expected standard, azure, aws_iam, or google_iam)",
				tikiload.ErrInvalidConfig, yamlConn.AuthMethod, config.ConfigFileName)
		}
	}

	selected := 0
	for _, on := range []bool{azure, aws, google} {
		if on {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("%w: --azure, --aws-iam, and --google-instance are mutually exclusive",
			tikiload.ErrInvalidConfig)
	}

	switch {
	case azure:
		c.AuthMethod = tikiload.AuthMethodAzureEntraID
		c.AzureTenantID = firstNonEmpty(cloud.AzureTenantID, env.AzureTenantID, yamlValue(yamlConn, func(y *config.ConnectionConfig) string { return y.AzureTenantID }))
		c.AzureClientID = firstNonEmpty(cloud.AzureClientID, env.AzureClientID, yamlValue(yamlConn, func(y *config.ConnectionConfig) string { return y.AzureClientID }))
		c.AzureClientSecret = env.AzureClientSecret
	case aws:
		c.AuthMethod = tikiload.AuthMethodAWSIAM
		c.AWSRegion = firstNonEmpty(cloud.AWSRegion, env.AWSRegion, yamlValue(yamlConn, func(y *config.ConnectionConfig) string { return y.AWSRegion }))
	case google:
		c.AuthMethod = tikiload.AuthMethodGoogleIAM
		c.GoogleInstance = cloud.GoogleInstance
		if c.GoogleInstance == "" {
			return fmt.Errorf("%w: google IAM authentication requires an instance connection name (project:region:instance)",
				tikiload.ErrInvalidConfig)
		}
	default:
		c.AuthMethod = tikiload.AuthMethodStandard
	}

	return nil
}

func yamlValue(yamlConn *config.ConnectionConfig, get func(*config.ConnectionConfig) string) string {
	if yamlConn == nil {
		return ""
	}
	return get(yamlConn)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
