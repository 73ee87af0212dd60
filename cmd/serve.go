package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/bindcfg/internal/registry"
	"github.com/conneroisu/bindcfg/internal/server"
	"github.com/conneroisu/bindcfg/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sync server",
	Long: `Start the HTTP/WebSocket sync server. The configured profile is
loaded at startup, every publish is broadcast to connected clients, and
profile files edited on disk are reloaded automatically.

Examples:
  bindcfg serve                       # Serve the default profile
  bindcfg serve --profile userdialog  # Serve a specific profile
  bindcfg serve --port 9000           # Override the listen port`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 7710, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("no-reload", false, "Disable reloading profiles changed on disk")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.broker.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the configured profile before anything subscribes over the
	// wire, mirroring the load-on-start of the desktop dialog.
	if err := a.bridge.Load(ctx, a.cfg.Storage.Profile); err != nil {
		return err
	}

	noReload, _ := cmd.Flags().GetBool("no-reload")
	if a.cfg.Sync.AutoReload && !noReload {
		reloader, err := watcher.NewReloader(a.bridge, time.Duration(a.cfg.Sync.DebounceMS)*time.Millisecond, a.logger)
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(a.bridge.Dir()); statErr == nil {
			if err := reloader.Start(ctx); err != nil {
				return err
			}
			defer reloader.Stop()
		} else {
			a.logger.Info(ctx, "configs directory absent, reload disabled until first save", "dir", a.bridge.Dir())
		}
	}

	srv := server.New(a.cfg, a.broker, a.bridge, registry.NewBindingRegistry(), a.logger)
	return srv.Start(ctx)
}
