package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eringen/pubnav"
	"github.com/eringen/pubnav/registry"
)

var routesJSON bool

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List registered routes",
	Args:  cobra.NoArgs,
	RunE:  runRoutes,
}

func init() {
	routesCmd.Flags().BoolVar(&routesJSON, "json", false, "output routes as JSON")
	rootCmd.AddCommand(routesCmd)
}

type routeJSON struct {
	Path    string   `json:"path"`
	Title   string   `json:"title"`
	Type    string   `json:"type"`
	Date    string   `json:"date,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Source  string   `json:"source"`
	Aliases []string `json:"aliases,omitempty"`
}

func runRoutes(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	site, err := pubnav.BuildSite(cmd.Context(), cfg, newLogger(cmd))
	if err != nil {
		return err
	}

	routes := site.Registry.Routes()
	if routesJSON {
		out := make([]routeJSON, 0, len(routes))
		for _, d := range routes {
			out = append(out, toRouteJSON(d))
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal routes: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tTYPE\tDATE\tTITLE\tSOURCE")
	for _, d := range routes {
		r := toRouteJSON(d)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Path, r.Type, r.Date, r.Title, r.Source)
	}
	return w.Flush()
}

func toRouteJSON(d registry.Descriptor) routeJSON {
	r := routeJSON{
		Path:    d.Path,
		Title:   d.Metadata.Title,
		Type:    d.Metadata.Type,
		Tags:    d.Metadata.Tags,
		Source:  d.Source,
		Aliases: d.Metadata.Aliases,
	}
	if d.Metadata.HasDate() {
		r.Date = d.Metadata.Date.Format("2006-01-02")
	}
	return r
}
