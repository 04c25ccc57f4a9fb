// Command crisisctl drives the crisis analyzer from a terminal: classify a
// report, run a live analysis against the backend, play a walkthrough, or
// dump the map overlay for an evacuation step.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rahul4469/crisis-analyzer/internal/logging"
	"github.com/rahul4469/crisis-analyzer/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	backendURL string
	logLevel   string
	output     string

	logger = zap.NewNop()
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crisisctl",
		Short: "Crisis analyzer command line",
		Long: `crisisctl classifies emergency reports, runs live analyses against
the analysis backend and replays the canned walkthroughs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logLevel, "console")
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	defaultBackend := os.Getenv("BACKEND_URL")
	if defaultBackend == "" {
		defaultBackend = services.DefaultBackendURL
	}

	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", defaultBackend, "Analysis backend base URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "Output format (json or yaml)")

	rootCmd.AddCommand(
		newClassifyCmd(),
		newAnalyzeCmd(),
		newScenarioCmd(),
		newOverlayCmd(),
	)
	return rootCmd
}

func checkOutput() error {
	if output != "json" && output != "yaml" {
		return fmt.Errorf("unknown output format %q", output)
	}
	return nil
}
