package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dukerupert/habitloop/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download all habits as csv, json, yaml or xlsx",
	Long: `Download all habits. Without --out the server's filename is used
(habits_export_<date>.<ext>); --out - writes to stdout.

EXAMPLES:

  habitctl export
  habitctl export --format xlsx
  habitctl export --format yaml --out - | less`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		data, filename, err := api.Export(cmd.Context(), string(format))
		if err != nil {
			return explain(err)
		}

		if exportOut == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		path := exportOut
		if path == "" {
			path = filename
		}
		if path == "" {
			path = "habits_export." + string(format)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		color.Green("✓ Exported to %s", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "csv, json, yaml or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, - for stdout")
	rootCmd.AddCommand(exportCmd)
}
