package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/vvka-141/tikiload/internal/config"
	"github.com/vvka-141/tikiload/internal/db"
	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// resolveConnection resolves connection parameters from the load command's
// flags, the environment, and the optional project config, in that
// precedence order.
func resolveConnection(yamlConn *config.ConnectionConfig, verbose bool) (*tikiload.ConnectionConfig, error) {
	granularFlags := &db.GranularConnFlags{
		Host:     loadFlags.host,
		Port:     loadFlags.port,
		Username: loadFlags.username,
		Database: loadFlags.database,
		SSLMode:  loadFlags.sslMode,
	}

	cloudFlags := &db.CloudAuthFlags{
		Azure:          loadFlags.azure,
		AzureTenantID:  loadFlags.azureTenantID,
		AzureClientID:  loadFlags.azureClientID,
		AWSIAM:         loadFlags.awsIAM,
		AWSRegion:      loadFlags.awsRegion,
		GoogleInstance: loadFlags.googleInstance,
	}

	connConfig, err := db.ResolveConnectionParams(
		loadFlags.connection,
		granularFlags,
		cloudFlags,
		db.LoadFromEnvironment(),
		yamlConn,
	)
	if err != nil {
		return nil, err
	}

	if verbose && loadFlags.connection != "" && loadFlags.database != "" {
		fmt.Fprintf(os.Stderr, "[VERBOSE] Using --database flag (%s) on top of connection string\n",
			loadFlags.database)
	}

	return connConfig, nil
}

// promptPassword asks for the user's password on the terminal. When stdin
// is not a TTY (CI, pipes) it returns an empty password and lets the server
// decide: trust and peer auth setups need none.
func promptPassword(username string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}

	fmt.Fprintf(os.Stderr, "Password for user %s: ", username)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
