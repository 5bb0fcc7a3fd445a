package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eringen/pubnav"
)

var (
	missesLimit int
	missesClear bool
	missesViews bool
)

var missesCmd = &cobra.Command{
	Use:   "misses",
	Short: "List requested paths that fell back to the not-found page",
	Args:  cobra.NoArgs,
	RunE:  runMisses,
}

func init() {
	missesCmd.Flags().IntVarP(&missesLimit, "limit", "n", 50, "maximum number of rows")
	missesCmd.Flags().BoolVar(&missesClear, "clear", false, "delete all recorded misses")
	missesCmd.Flags().BoolVar(&missesViews, "views", false, "list route views instead")
	rootCmd.AddCommand(missesCmd)
}

func runMisses(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "data/pubnav.db"
	}
	store, err := pubnav.NewStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := cmd.Context()

	if missesClear {
		if err := store.ClearMisses(ctx); err != nil {
			return err
		}
		cmd.Println("Cleared.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if missesViews {
		views, err := store.ListViews(ctx, missesLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "PATH\tHITS\tLAST SEEN")
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%d\t%s\n", v.Path, v.Hits, v.LastSeen.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	}

	misses, err := store.ListMisses(ctx, missesLimit)
	if err != nil {
		return err
	}
	if len(misses) == 0 {
		cmd.Println("No misses recorded.")
		return nil
	}
	fmt.Fprintln(w, "PATH\tRESOLVED\tHITS\tLAST SEEN\tREASON")
	for _, m := range misses {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", m.Path, m.Resolved, m.Hits, m.LastSeen.Format("2006-01-02 15:04"), m.Reason)
	}
	return w.Flush()
}
