package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eringen/pubnav"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configPath    string
	contentDir    string
	redirectsFile string
	development   bool
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "pubnav",
	Short: "Serve and inspect a markdown content site",
	Long: `pubnav serves a markdown content site with server-tracked navigation.

Routes come from files under the content directory; redirects come from a
YAML or TOML rules file plus the aliases declared in page headers.`,
	SilenceUsage: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "pubnav.yaml", "site configuration file")
	f.StringVar(&contentDir, "content", "", "content directory (overrides config)")
	f.StringVar(&redirectsFile, "redirects", "", "redirect rules file (overrides config)")
	f.BoolVar(&development, "dev", false, "include development-only content")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when present and applies flag and
// environment overrides. Relative paths in the file resolve against the
// file's directory.
func loadConfig() (pubnav.SiteConfig, error) {
	var cfg pubnav.SiteConfig
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = pubnav.LoadConfigFile(configPath)
		if err != nil {
			return cfg, err
		}
		base := filepath.Dir(configPath)
		for _, p := range []*string{&cfg.ContentDir, &cfg.RedirectsFile, &cfg.StaticDir, &cfg.DatabasePath} {
			if !filepath.IsAbs(*p) {
				*p = filepath.Join(base, *p)
			}
		}
	} else if rootCmd.PersistentFlags().Changed("config") {
		return cfg, fmt.Errorf("config file: %w", err)
	}

	if contentDir != "" {
		cfg.ContentDir = contentDir
	}
	if redirectsFile != "" {
		cfg.RedirectsFile = redirectsFile
	}
	if development {
		cfg.Development = true
	}
	cfg.SessionSecret = pubnav.EnvOr("PUBNAV_SESSION_SECRET", cfg.SessionSecret)
	cfg.URL = pubnav.EnvOr("PUBNAV_URL", cfg.URL)
	return cfg, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
