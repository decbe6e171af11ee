package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/retail-sdw/sdwload/internal/datasets"
)

// sslModes contains valid SSL modes for shell completion.
var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// drivers contains the supported driver names for shell completion.
var drivers = []string{"postgres", "mysql", "sqlite", "sqlserver"}

// completeSSLModes provides shell completion for SSL mode flag values.
func completeSSLModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(sslModes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeDrivers provides shell completion for the --driver flag.
func completeDrivers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(drivers, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeDimensionNames completes dataset arguments of the load command,
// skipping names already given.
func completeDimensionNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	given := make(map[string]bool, len(args))
	for _, a := range args {
		given[a] = true
	}

	var candidates []string
	for _, name := range registry.Names(datasets.GroupDimension) {
		if !given[name] {
			candidates = append(candidates, name)
		}
	}
	return filterPrefix(candidates, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func filterPrefix(values []string, prefix string) []string {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			matches = append(matches, v)
		}
	}
	return matches
}
