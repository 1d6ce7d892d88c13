package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/striderun/strider/internal/activity"
	"github.com/striderun/strider/internal/analysis"
	"github.com/striderun/strider/internal/archive"
	"github.com/striderun/strider/internal/export"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Analyze activity data offline",
	Long: `Analyze runs the metrics pipeline against local data without the server.

The path may be a Strava export archive (.zip), a directory containing
activity files (.gpx, .fit, .fit.gz), or a CSV previously produced by the
export subcommand.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := loadPoints(args[0])
		if err != nil {
			return err
		}

		result := analysis.Analyze(points)

		if analyzeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printResult(cmd, result)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the full result as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

// loadPoints reads track points from an archive, a directory, or an exported
// CSV, chosen by inspecting the path.
func loadPoints(path string) ([]activity.TrackPoint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", path, err)
	}
	if info.IsDir() {
		return archive.FromDir(path)
	}

	switch {
	case strings.HasSuffix(strings.ToLower(path), ".zip"):
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return archive.Extract(data)
	case strings.HasSuffix(strings.ToLower(path), ".csv"):
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		return export.ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported input %s: expected a directory, .zip, or .csv", path)
	}
}

func printResult(cmd *cobra.Command, result *analysis.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Metrics:")
	for _, m := range result.Metrics {
		fmt.Fprintf(out, "  %-32s %v\n", m.Name, m.Value)
	}

	fmt.Fprintln(out, "\nHeart-rate zones (% of time):")
	zones := make([]string, 0, len(result.ZonePct))
	for zone := range result.ZonePct {
		zones = append(zones, zone)
	}
	sort.Strings(zones)
	for _, zone := range zones {
		fmt.Fprintf(out, "  %-8s %6.2f\n", zone, result.ZonePct[zone])
	}

	fmt.Fprintf(out, "\nRuns (%d):\n", len(result.Runs))
	for _, run := range result.Runs {
		pace := "—"
		if run.PaceMinKm != nil {
			pace = fmt.Sprintf("%.2f min/km", *run.PaceMinKm)
		}
		fmt.Fprintf(out, "  %-12s %s  %7.2f km  %8.0f s  %s\n",
			run.RunID, run.Date, run.DistanceKm, run.DurationSec, pace)
	}
}
