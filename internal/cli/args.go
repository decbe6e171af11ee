package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/retail-sdw/sdwload/internal/datasets"
	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// RequireDatasetNames validates that every argument names a dataset of
// group, at most once. No arguments means the whole group.
func RequireDatasetNames(group datasets.Group) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		available := registry.Names(group)
		seen := make(map[string]bool, len(args))

		for _, name := range args {
			if seen[name] {
				return fmt.Errorf("dataset %q given more than once: %w", name, sdwload.ErrUsage)
			}
			seen[name] = true

			if !slices.Contains(available, name) {
				return fmt.Errorf(`%w: %q

Usage: %s

Available datasets: %s

Use 'sdwload datasets' to see every dataset.`,
					sdwload.ErrUnknownDataset, name, cmd.UseLine(), strings.Join(available, ", "))
			}
		}
		return nil
	}
}
