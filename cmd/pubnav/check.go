package main

import (
	"github.com/spf13/cobra"

	"github.com/eringen/pubnav"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate content and redirects",
	Long: `Build the route registry and redirect table exactly as the server
would and report the first problem found: a malformed header, a duplicate
route, a redirect loop or a redirect to an unknown route.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	site, err := pubnav.BuildSite(cmd.Context(), cfg, newLogger(cmd))
	if err != nil {
		return err
	}
	cmd.Printf("ok: %d routes, %d redirects\n", site.Registry.Len(), site.Redirects.Len())
	return nil
}
