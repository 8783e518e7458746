package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/tikiload/internal/config"
	"github.com/vvka-141/tikiload/pkg/tikiload"
)

func resolve(t *testing.T, connString string, flags *GranularConnFlags, cloud *CloudAuthFlags, env *EnvVars, yamlConn *config.ConnectionConfig) *tikiload.ConnectionConfig {
	t.Helper()
	if env == nil {
		env = &EnvVars{}
	}
	cfg, err := ResolveConnectionParams(connString, flags, cloud, env, yamlConn)
	require.NoError(t, err)
	return cfg
}

func TestResolveConnectionParamsDefaults(t *testing.T) {
	cfg := resolve(t, "", nil, nil, nil, nil)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, tikiload.DefaultPort, cfg.Port)
	assert.Equal(t, "postgres", cfg.Database)
	assert.NotEmpty(t, cfg.Username, "falls back to the current OS user")
	assert.Equal(t, tikiload.AuthMethodStandard, cfg.AuthMethod)
}

func TestResolveConnectionParamsPrecedence(t *testing.T) {
	yamlConn := &config.ConnectionConfig{Host: "yaml-host", Port: 1111, Database: "yaml-db", Username: "yaml-user"}
	env := &EnvVars{PGHOST: "env-host", PGPORT: "2222"}
	flags := &GranularConnFlags{Host: "flag-host"}

	cfg := resolve(t, "", flags, nil, env, yamlConn)

	// flag > env > yaml for host; env > yaml for port; yaml fills the rest.
	assert.Equal(t, "flag-host", cfg.Host)
	assert.Equal(t, 2222, cfg.Port)
	assert.Equal(t, "yaml-db", cfg.Database)
	assert.Equal(t, "yaml-user", cfg.Username)
}

func TestResolveConnectionParamsConnectionString(t *testing.T) {
	t.Run("connection string supplies baseline", func(t *testing.T) {
		cfg := resolve(t, "postgresql://loader:pw@db:5433/catalog", nil, nil, nil, nil)

		assert.Equal(t, "db", cfg.Host)
		assert.Equal(t, 5433, cfg.Port)
		assert.Equal(t, "loader", cfg.Username)
		assert.Equal(t, "pw", cfg.Password)
		assert.Equal(t, "catalog", cfg.Database)
	})

	t.Run("granular flags override connection string fields", func(t *testing.T) {
		flags := &GranularConnFlags{Database: "other"}
		cfg := resolve(t, "postgresql://loader@db/catalog", flags, nil, nil, nil)

		assert.Equal(t, "other", cfg.Database)
		assert.Equal(t, "db", cfg.Host)
	})

	t.Run("DATABASE_URL used when no flag", func(t *testing.T) {
		env := &EnvVars{DatabaseURL: "postgresql://env-user@env-host/env-db"}
		cfg := resolve(t, "", nil, nil, env, nil)

		assert.Equal(t, "env-host", cfg.Host)
		assert.Equal(t, "env-db", cfg.Database)
	})

	t.Run("PGPASSWORD fills missing password", func(t *testing.T) {
		env := &EnvVars{PGPASSWORD: "hunter2"}
		cfg := resolve(t, "postgresql://loader@db/catalog", nil, nil, env, nil)

		assert.Equal(t, "hunter2", cfg.Password)
	})
}

func TestResolveConnectionParamsCloudAuth(t *testing.T) {
	t.Run("azure flags", func(t *testing.T) {
		cloud := &CloudAuthFlags{Azure: true, AzureTenantID: "tenant", AzureClientID: "client"}
		env := &EnvVars{AzureClientSecret: "secret"}

		cfg := resolve(t, "", nil, cloud, env, nil)

		assert.Equal(t, tikiload.AuthMethodAzureEntraID, cfg.AuthMethod)
		assert.Equal(t, "tenant", cfg.AzureTenantID)
		assert.Equal(t, "client", cfg.AzureClientID)
		assert.Equal(t, "secret", cfg.AzureClientSecret)
	})

	t.Run("azure env fallback", func(t *testing.T) {
		cloud := &CloudAuthFlags{Azure: true}
		env := &EnvVars{AzureTenantID: "env-tenant", AzureClientID: "env-client"}

		cfg := resolve(t, "", nil, cloud, env, nil)

		assert.Equal(t, "env-tenant", cfg.AzureTenantID)
		assert.Equal(t, "env-client", cfg.AzureClientID)
	})

	t.Run("aws region from env", func(t *testing.T) {
		cloud := &CloudAuthFlags{AWSIAM: true}
		env := &EnvVars{AWSRegion: "ap-southeast-1"}

		cfg := resolve(t, "", nil, cloud, env, nil)

		assert.Equal(t, tikiload.AuthMethodAWSIAM, cfg.AuthMethod)
		assert.Equal(t, "ap-southeast-1", cfg.AWSRegion)
	})

	t.Run("google instance flag", func(t *testing.T) {
		cloud := &CloudAuthFlags{GoogleInstance: "proj:region:db"}

		cfg := resolve(t, "", nil, cloud, nil, nil)

		assert.Equal(t, tikiload.AuthMethodGoogleIAM, cfg.AuthMethod)
		assert.Equal(t, "proj:region:db", cfg.GoogleInstance)
	})

	t.Run("mutually exclusive providers rejected", func(t *testing.T) {
		cloud := &CloudAuthFlags{Azure: true, AWSIAM: true}

		_, err := ResolveConnectionParams("", nil, cloud, &EnvVars{}, nil)

		assert.ErrorIs(t, err, tikiload.ErrInvalidConfig)
	})

	t.Run("yaml auth method", func(t *testing.T) {
		yamlConn := &config.ConnectionConfig{AuthMethod: "aws_iam", AWSRegion: "us-east-1"}

		cfg := resolve(t, "", nil, nil, nil, yamlConn)

		assert.Equal(t, tikiload.AuthMethodAWSIAM, cfg.AuthMethod)
		assert.Equal(t, "us-east-1", cfg.AWSRegion)
	})

	t.Run("unknown yaml auth method rejected", func(t *testing.T) {
		yamlConn := &config.ConnectionConfig{AuthMethod: "kerberos"}

		_, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, yamlConn)

		assert.ErrorIs(t, err, tikiload.ErrInvalidConfig)
	})
}
