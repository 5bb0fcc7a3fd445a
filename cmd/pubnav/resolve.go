package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/pubnav"
	"github.com/eringen/pubnav/registry"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>...",
	Short: "Show where paths resolve",
	Long: `Run each path through the redirect table and the route registry and
print the outcome: the route it lands on, the external URL it leaves for,
or the not-found page.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	site, err := pubnav.BuildSite(cmd.Context(), cfg, newLogger(cmd))
	if err != nil {
		return err
	}

	for _, raw := range args {
		cmd.Println(describeResolution(site, raw))
	}
	return nil
}

func describeResolution(site *pubnav.Site, raw string) string {
	p, frag := registry.SplitFragment(raw)
	res, err := site.Redirects.Resolve(p)
	if err != nil {
		return fmt.Sprintf("%s -> error: %v", raw, err)
	}
	via := ""
	if res.Matched {
		via = fmt.Sprintf(" (%d, %d hop", res.Intent.StatusCode(), res.Hops)
		if res.Hops != 1 {
			via += "s"
		}
		via += ")"
	}
	if res.External {
		return fmt.Sprintf("%s -> %s external%s", raw, res.Path, via)
	}
	target := res.Path
	if frag != "" {
		target += "#" + frag
	}
	d, ok := site.Registry.Lookup(res.Path)
	if !ok {
		return fmt.Sprintf("%s -> %s not found%s", raw, target, via)
	}
	return fmt.Sprintf("%s -> %s %q%s", raw, target, d.Metadata.Title, via)
}
