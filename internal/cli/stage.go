package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retail-sdw/sdwload/internal/datasets"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Load the staging tables in a single transaction",
	Long: `Stage loads customers_raw.csv, products_raw.csv and sales_raw.csv into
staging_customers, staging_products and staging_sales over one connection and
commits once at the end. Any failure leaves all three tables untouched.

Examples:
  sdwload stage --connection "mysql://root@localhost:3306/retail_sdw"
  sdwload stage --driver sqlite -d ./retail_sdw.db --data-dir ./data`,
	Args: cobra.NoArgs,
	RunE: runStage,
}

var stageFlags runFlags

func init() {
	rootCmd.AddCommand(stageCmd)
	addRunFlags(stageCmd, &stageFlags)
}

func runStage(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	config, err := buildLoadConfig(cmd, &stageFlags, registry.Names(datasets.GroupStaging), verbose)
	if err != nil {
		return err
	}

	svc := newLoadService(verbose)
	return runWithSignals(config.Timeout, func(ctx context.Context) error {
		results, err := svc.Stage(ctx, config)
		if verbose {
			printResults(results)
		}
		if err != nil {
			return fmt.Errorf("staging failed: %w", err)
		}
		return nil
	})
}
