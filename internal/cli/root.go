package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sdwload",
	Short: "Load retail CSV data into the sales data warehouse",
	Long: `sdwload reads flat CSV files, coerces every field to its column type and
inserts the rows into the retail SDW dimension and staging tables.

Each dimension dataset loads in its own transaction. The staging datasets
share one transaction: either all three land or none does.

Tables must already exist; sdwload never creates or alters them.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or unknown dataset
  11 - Database connection failed
  12 - Source file missing or malformed
  13 - Field could not be coerced to its column type
  14 - Duplicate key or other constraint violation
  15 - Commit rejected by the database`,
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
