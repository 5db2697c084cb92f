package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/hashrouter/cmd/routerctl/internal/topics"
	"github.com/nfrund/hashrouter/internal/topicmgr"
)

var getOutputFormat string

var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Get detailed information about a specific topic",
	Long: `Get shows name, scope, module, description, pattern, example and metadata
of one registered topic.

Examples:
  routerctl topics get routing.route.changed
  routerctl topics get routing.alert --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := topicmgr.Default().Lookup(args[0])
		if err != nil {
			return fmt.Errorf("%w (use 'routerctl topics list' to see all available topics)", err)
		}
		return topics.DisplayTopicDetails(cmd.OutOrStdout(), topic, getOutputFormat)
	},
}

var topicsValidateCmd = &cobra.Command{
	Use:   "validate <topic-name>",
	Short: "Validate a topic name and its registered definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := topicmgr.NewValidator()
		if err := v.ValidateName(args[0]); err != nil {
			return fmt.Errorf("topic name validation failed: %w", err)
		}
		topic, err := topicmgr.Default().Lookup(args[0])
		if err != nil {
			return err
		}
		if err := v.ValidateDefinition(topic); err != nil {
			return fmt.Errorf("topic validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Topic '%s' is valid\n", topic.Name())
		fmt.Fprintf(out, "   Scope: %s\n", topic.Scope())
		return nil
	},
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd, topicsValidateCmd)

	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json)")
}
