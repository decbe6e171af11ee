package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/retail-sdw/sdwload/internal/datasets"
	"github.com/retail-sdw/sdwload/internal/tui"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets that can be loaded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeDatasets(cmd.OutOrStdout(), registry)
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}

func writeDatasets(w io.Writer, r *datasets.Registry) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tui.MutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tui.HeaderStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("DATASET", "GROUP", "TABLE", "SOURCE", "COLUMNS")

	for _, d := range r.All() {
		src := d.Source
		if d.Inline() {
			src = fmt.Sprintf("(%d inline rows)", len(d.Records))
		}
		t.Row(d.Name, string(d.Group), d.Table, src, strings.ReplaceAll(d.Schema.String(), ", ", "\n"))
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
