package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/striderun/strider/internal/logging"
)

var (
	verbosity     int
	dbPath        string
	listenAddr    string
	cacheSize     int
	retention     time.Duration
	pruneInterval time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "strider",
	Short: "Strider - running analytics for Strava export archives",
	Long: `Strider turns a Strava export archive into running metrics.

The server mode accepts archive uploads over HTTP, computes per-run and
aggregate metrics (distance, pace, aerobic share, heart-rate zones), and
stores each result under a session ID for later retrieval. Results for
identical archives are memoized, so re-uploads are instant.

The analyze and export subcommands run the same pipeline offline against
an archive, a directory of activity files, or a previously exported CSV.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set up logging based on verbosity before any command runs
		logging.Setup(logging.Level(verbosity))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		rtCfg := &RuntimeConfig{
			DBPath:        dbPath,
			ListenAddr:    listenAddr,
			CacheSize:     cacheSize,
			Retention:     retention,
			PruneInterval: pruneInterval,
		}
		return Run(rtCfg)
	},
}

func init() {
	// Logging verbosity
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v for debug, -vv for trace with decoded payloads)")

	// Runtime settings as CLI flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "strider_sessions.db", "path to SQLite database file")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "addr", ":8080", "HTTP listen address")
	rootCmd.PersistentFlags().IntVar(&cacheSize, "cache-size", 32, "number of memoized analysis results")
	rootCmd.PersistentFlags().DurationVar(&retention, "retention", 7*24*time.Hour, "how long stored sessions are kept")
	rootCmd.PersistentFlags().DurationVar(&pruneInterval, "prune-interval", time.Hour, "interval between session pruning passes")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
