package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retail-sdw/sdwload/internal/datasets"
)

var loadCmd = &cobra.Command{
	Use:   "load [dataset...]",
	Short: "Load dimension datasets, each in its own transaction",
	Long: `Load reads each dataset's source, coerces every row and inserts it into the
dataset's table. Every dataset uses its own connection and commits on its own;
the first failure rolls back the dataset in progress and stops the run.

Datasets (default: customers products cities):
  customers  customers_raw.csv -> dim_customer
  products   products_raw.csv  -> dim_product
  cities     fixed list        -> dim_city

Examples:
  # Load all dimensions into the local MySQL warehouse
  sdwload load --connection "mysql://root@localhost:3306/retail_sdw"

  # Load only customers from another directory
  sdwload load customers --data-dir ./exports -d retail_sdw

  # Check the sources without touching the database
  sdwload load --dry-run`,
	Args:              RequireDatasetNames(datasets.GroupDimension),
	ValidArgsFunction: completeDimensionNames,
	RunE:              runLoad,
}

var loadFlags runFlags

func init() {
	rootCmd.AddCommand(loadCmd)
	addRunFlags(loadCmd, &loadFlags)
}

func runLoad(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	names := args
	if len(names) == 0 {
		names = registry.Names(datasets.GroupDimension)
	}

	config, err := buildLoadConfig(cmd, &loadFlags, names, verbose)
	if err != nil {
		return err
	}

	svc := newLoadService(verbose)
	return runWithSignals(config.Timeout, func(ctx context.Context) error {
		results, err := svc.Load(ctx, config)
		if verbose {
			printResults(results)
		}
		if err != nil {
			return fmt.Errorf("load failed: %w", err)
		}
		return nil
	})
}
