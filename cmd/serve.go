// =============================================================================
// Billing Note Emitter - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which starts the HTTP front-end.
// The server stops gracefully on SIGINT or SIGTERM.
//
// COMMAND USAGE:
//   emissor serve [--addr :8080]
//
// =============================================================================

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hube-energy/emissor/internal/server"
)

var serveAddr string

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP front-end",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			app.cfg.Server.Addr = serveAddr
		}

		renderer, err := newRenderer()
		if err != nil {
			return err
		}
		defer renderer.Close()

		ctx, stop := signalContext()
		defer stop()

		return server.New(app.cfg, app.registry, renderer, app.log, Version).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr from config)")
}
