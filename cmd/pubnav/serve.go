package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/pubnav"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server. PUBNAV_SESSION_SECRET must be set unless the
config file carries session_secret.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "rebuild the site when content changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveWatch {
		cfg.Watch = true
	}
	if cfg.SessionSecret == "" {
		return errors.New("PUBNAV_SESSION_SECRET is not set")
	}

	logger := newLogger(cmd)
	app := pubnav.New(cfg, pubnav.ViewFuncs{}, pubnav.WithLogger(logger))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		app.Close()
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}
