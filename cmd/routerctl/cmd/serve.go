package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/hashrouter/internal/app"
	"github.com/nfrund/hashrouter/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the routing API and browser tabs over websockets",
	Long: `Serve starts the HTTP server. Browser tabs connect to /ws and get their
own routing engine driven by the example application; /api exposes the hash
codec and the routing map, /metrics the Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		container := app.NewContainer(cfg, logger, afero.NewOsFs())
		defer func() {
			if report := container.Shutdown(); report != nil && !report.Succeed {
				logger.Error("Container shutdown failed", "error", report.Error())
			}
		}()

		s, err := server.New(container)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return s.Start(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to HTTP_ADDR)")
}
