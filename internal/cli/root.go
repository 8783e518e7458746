package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = `  _   _ _    _ _                 _
 | |_(_) | _(_) | ___   __ _  __| |
 | __| | |/ / | |/ _ \ / _` + "`" + ` |/ _` + "`" + ` |
 | |_| |   <| | | (_) | (_| | (_| |
  \__|_|_|\_\_|_|\___/ \__,_|\__,_|`

var rootCmd = &cobra.Command{
	Use:   "tikiload",
	Short: "Batched JSON-to-PostgreSQL product loader",
	Long: asciiLogo + `

tikiload ingests product catalog files (JSON arrays or NDJSON) into
PostgreSQL: records are validated, normalized, and applied in batched
upsert transactions, with an optional normalized image table kept in
sync per product.

Re-running over the same files is safe: rows conflict on product id and
are overwritten, never duplicated.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or no input files
  11 - Database connection failed
  13 - Schema creation or batch upsert failed`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for tikiload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
