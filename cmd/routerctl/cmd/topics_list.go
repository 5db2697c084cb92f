package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/hashrouter/cmd/routerctl/internal/topics"
	"github.com/nfrund/hashrouter/internal/topicmgr"
)

var (
	listOutputFormat string
	listModuleFilter string
	listScopeFilter  string
)

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	Long: `List all topics registered on the event bus, in table or JSON format.

Examples:
  routerctl topics list
  routerctl topics list --format json
  routerctl topics list --scope framework
  routerctl topics list --module items

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format with metadata`,
	RunE: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) error {
	if listOutputFormat != "table" && listOutputFormat != "json" {
		return fmt.Errorf("unsupported output format %q, use table or json", listOutputFormat)
	}

	manager := topicmgr.Default()
	var scope topicmgr.TopicScope
	if listScopeFilter != "" {
		scope = parseScope(listScopeFilter)
		if scope == "" {
			return fmt.Errorf("invalid scope %q, valid scopes: framework, module", listScopeFilter)
		}
	}

	var topicList []topicmgr.Topic
	switch {
	case listModuleFilter != "":
		for _, topic := range manager.ListByModule(listModuleFilter) {
			if scope == "" || topic.Scope() == scope {
				topicList = append(topicList, topic)
			}
		}
	case scope != "":
		topicList = manager.ListByScope(scope)
	default:
		topicList = manager.List()
	}

	out := cmd.OutOrStdout()
	if len(topicList) == 0 && listOutputFormat == "table" {
		var filters []string
		if listModuleFilter != "" {
			filters = append(filters, fmt.Sprintf("module '%s'", listModuleFilter))
		}
		if listScopeFilter != "" {
			filters = append(filters, fmt.Sprintf("scope '%s'", listScopeFilter))
		}
		message := "No topics found"
		if len(filters) > 0 {
			message += " matching: " + strings.Join(filters, ", ")
		}
		fmt.Fprintln(out, message)
		return nil
	}

	if listOutputFormat == "json" {
		return topics.DisplayTopicsJSON(out, topicList)
	}
	return topics.DisplayTopicsTable(out, topicList)
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(scopeStr string) topicmgr.TopicScope {
	switch strings.ToLower(scopeStr) {
	case "framework":
		return topicmgr.ScopeFramework
	case "module":
		return topicmgr.ScopeModule
	default:
		return ""
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listModuleFilter, "module", "m", "", "Filter topics by module name")
	topicsListCmd.Flags().StringVarP(&listScopeFilter, "scope", "s", "", "Filter topics by scope (framework, module)")
}
