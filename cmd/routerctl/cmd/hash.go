package cmd

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nfrund/hashrouter/internal/hashcodec"
	"github.com/nfrund/hashrouter/internal/routing"
)

var (
	encodeURI    bool
	decodeFormat string
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Encode, decode and normalize location hashes",
	Long: `The hash command converts between routes and location hashes.

Examples:
  routerctl hash encode /items page=2 "q=a b"     # #/items?page=2&q=a b
  routerctl hash encode /items "q=a b" --uri      # #/items?q=a+b
  routerctl hash decode '#//items/?q=a%20b'
  routerctl hash normalize '#items/?b=2&a=1'      # #/items?a=1&b=2`,
}

var hashEncodeCmd = &cobra.Command{
	Use:   "encode <path> [key=value...]",
	Short: "Build a hash from a path and state",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := parseState(args[1:])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hashcodec.Encode(args[0], state, encodeURI))
		return nil
	},
}

var hashDecodeCmd = &cobra.Command{
	Use:   "decode <hash>",
	Short: "Show the route a hash decodes to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route := routing.Decode(args[0])
		out := cmd.OutOrStdout()

		switch decodeFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Path      string            `json:"path"`
				Params    string            `json:"params,omitempty"`
				State     map[string]string `json:"state,omitempty"`
				Canonical string            `json:"canonical"`
			}{route.Path, route.Params, route.State, route.Hash()})
		case "table":
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Path:\t%s\n", route.Path)
			fmt.Fprintf(w, "Params:\t%s\n", route.Params)
			fmt.Fprintf(w, "Canonical:\t%s\n", route.Hash())
			keys := make([]string, 0, len(route.State))
			for k := range route.State {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "State %s:\t%s\n", k, route.State[k])
			}
			return w.Flush()
		default:
			return fmt.Errorf("unsupported output format %q, use table or json", decodeFormat)
		}
	},
}

var hashNormalizeCmd = &cobra.Command{
	Use:   "normalize <hash>",
	Short: "Print the canonical form of a hash",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), hashcodec.Canonical(args[0]))
	},
}

// parseState turns key=value arguments into a state.
func parseState(pairs []string) (hashcodec.State, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	state := hashcodec.State{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("state %q: expected key=value", pair)
		}
		state[k] = v
	}
	return state, nil
}

func init() {
	rootCmd.AddCommand(hashCmd)
	hashCmd.AddCommand(hashEncodeCmd, hashDecodeCmd, hashNormalizeCmd)

	hashEncodeCmd.Flags().BoolVar(&encodeURI, "uri", false, "Percent-encode the query instead of the readable form")
	hashDecodeCmd.Flags().StringVarP(&decodeFormat, "format", "f", "table", "Output format (table, json)")
}
