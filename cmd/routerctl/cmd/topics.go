package cmd

import (
	"github.com/spf13/cobra"

	// Registers the engine's event topics.
	_ "github.com/nfrund/hashrouter/internal/app"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore the event bus topics",
	Long: `The topics command lists and inspects the topics routing engines publish on
the event bus: route changes, state persistence requests and alerts.

Available subcommands:
  list      List all registered topics with optional filtering
  get       Get detailed information about a specific topic
  validate  Validate a topic name and definition

Examples:
  routerctl topics list
  routerctl topics list --scope framework --format json
  routerctl topics get routing.route.changed
  routerctl topics validate routing.alert`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
