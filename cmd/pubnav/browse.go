package main

import (
	"github.com/spf13/cobra"

	"github.com/eringen/pubnav"
	"github.com/eringen/pubnav/tui"
)

var browseDepth int

var browseCmd = &cobra.Command{
	Use:   "browse [path]",
	Short: "Browse the site in the terminal",
	Long: `Open the site in an interactive terminal browser. History and scroll
restoration behave as they do in a web browser.

Controls:
  ↑/k, ↓/j   - Scroll
  tab        - Select next link
  enter      - Follow selected link
  o          - Open a path
  H / L      - Back / Forward
  q          - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().IntVar(&browseDepth, "depth", 0, "history depth (defaults to config)")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Log output would corrupt the alternate screen.
	logger := newLogger(cmd)
	if !verbose {
		logger = discardLogger()
	}
	site, err := pubnav.BuildSite(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	start := "/"
	if len(args) == 1 {
		start = args[0]
	}
	depth := browseDepth
	if depth <= 0 {
		depth = cfg.HistoryDepth
	}

	tc := tui.Config{
		Registry:  site.Registry,
		Redirects: site.Redirects,
		Content:   site.Content,
		Depth:     depth,
		Start:     start,
		Logger:    logger,
	}
	if cfg.DatabasePath != "" {
		if store, err := pubnav.NewStore(cfg.DatabasePath); err == nil {
			defer store.Close()
			tc.Reporter = store
		} else {
			cmd.PrintErrf("misses will not be recorded: %v\n", err)
		}
	}
	return tui.Run(cmd.Context(), tc)
}
