package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/striderun/strider/internal/export"
	"github.com/striderun/strider/internal/logging"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <path> <output>",
	Short: "Export decoded track points to CSV or parquet",
	Long: `Export decodes activity data and writes one row per track point with
per-run segment and cumulative distances.

The input path may be a Strava export archive (.zip) or a directory of
activity files. The output format is chosen with --format.
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := loadPoints(args[0])
		if err != nil {
			return err
		}

		out, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("creating %s: %w", args[1], err)
		}

		switch exportFormat {
		case "csv":
			err = export.WriteCSV(out, points)
		case "parquet":
			err = export.WriteParquet(out, points)
		default:
			out.Close()
			return fmt.Errorf("unsupported format %q: expected csv or parquet", exportFormat)
		}
		if err != nil {
			out.Close()
			return err
		}

		logging.Info("export written",
			"output", args[1],
			"format", exportFormat,
			"points", len(points))
		return out.Close()
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format (csv or parquet)")
	rootCmd.AddCommand(exportCmd)
}
