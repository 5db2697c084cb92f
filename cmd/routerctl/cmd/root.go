package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/hashrouter/internal/config"
	"github.com/nfrund/hashrouter/internal/logging"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "routerctl",
	Short: "Hash router tool",
	Long: `routerctl works with hash-fragment routes: it encodes and decodes hashes,
simulates navigation through the example application and serves browser tabs
over websockets.

Use "routerctl [command] --help" for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.New()
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		cfg = c
		logger = logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)
		return nil
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
}
