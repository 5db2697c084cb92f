package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/hashrouter/internal/app"
	"github.com/nfrund/hashrouter/internal/browser"
	"github.com/nfrund/hashrouter/internal/routing"
)

var (
	simulateStart     string
	simulateNoHistory bool
	simulateReplace   bool
	simulateTimeout   time.Duration
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [step...]",
	Short: "Navigate the example application in an in-memory window",
	Long: `Simulate runs the router against an in-memory browser window and prints
where every step lands once the window has settled.

A step is one of:
  back        go back one history entry
  forward     go forward one history entry
  #<hash>     assign the location hash, like typing it in the address bar
  <path>      navigate through the route manager, relative paths resolve
              against the current route

Examples:
  routerctl simulate --start '#/products'
  routerctl simulate /items items/3 back '#/nowhere'
  routerctl simulate --no-history /home`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := simulateStart
		if start == "" {
			start = cfg.InitialHash
		}

		var opts []browser.Option
		if simulateNoHistory {
			opts = append(opts, browser.WithoutHistory())
		}
		win := browser.NewMemoryWindow(start, opts...)

		container := app.NewContainer(cfg, logger, afero.NewOsFs())
		defer func() {
			if report := container.Shutdown(); report != nil && !report.Succeed {
				logger.Warn("Container shutdown incomplete", "error", report.Error())
			}
		}()

		engine, err := app.NewEngine(container, win)
		if err != nil {
			return err
		}
		defer engine.Close()

		quiet := settleQuiet()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STEP\tHASH\tKIND\tKEY\tTITLE")
		fmt.Fprintln(w, "----\t----\t----\t---\t-----")

		if err := settleAndPrint(cmd.Context(), w, engine, win, "start", quiet); err != nil {
			return err
		}
		for _, step := range args {
			if err := applyStep(engine, win, step); err != nil {
				return err
			}
			if err := settleAndPrint(cmd.Context(), w, engine, win, step, quiet); err != nil {
				return err
			}
		}
		return w.Flush()
	},
}

// settleQuiet is long enough for every debounced update to fire.
func settleQuiet() time.Duration {
	r := cfg.Router
	return max(r.LoadDebounce, r.TitleDebounce, r.StateDebounce) + 20*time.Millisecond
}

func applyStep(engine *app.Engine, win *browser.MemoryWindow, step string) error {
	switch {
	case step == "back":
		if !win.Back() {
			return fmt.Errorf("step %q: no history entry to go back to", step)
		}
	case step == "forward":
		if !win.Forward() {
			return fmt.Errorf("step %q: no history entry to go forward to", step)
		}
	case strings.HasPrefix(step, "#"):
		win.SetHash(step)
	case step == "":
		return fmt.Errorf("empty step")
	default:
		var opts []routing.NavOption
		if simulateReplace {
			opts = append(opts, routing.Replace())
		}
		engine.NavTo(step, nil, opts...)
	}
	return nil
}

func settleAndPrint(ctx context.Context, w io.Writer, engine *app.Engine, win *browser.MemoryWindow, step string, quiet time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, simulateTimeout)
	defer cancel()
	if err := engine.Settle(ctx, quiet); err != nil {
		return fmt.Errorf("step %q did not settle: %w", step, err)
	}

	kind, key := "-", "-"
	if l := engine.Component(); l != nil {
		kind, key = l.Kind.String(), l.Key
	}
	_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", step, win.Hash(), kind, key, win.Title())
	return err
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateStart, "start", "", "Initial location hash (defaults to INITIAL_HASH)")
	simulateCmd.Flags().BoolVar(&simulateNoHistory, "no-history", false, "Simulate a browser without the History API")
	simulateCmd.Flags().BoolVar(&simulateReplace, "replace", false, "Replace history entries instead of pushing them for path steps")
	simulateCmd.Flags().DurationVar(&simulateTimeout, "timeout", 5*time.Second, "Maximum time to wait for each step to settle")
}
