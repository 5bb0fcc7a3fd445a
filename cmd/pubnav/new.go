package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/pubnav/scaffold"
)

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new content site",
	Args:  cobra.ExactArgs(1),
	RunE:  runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	data := scaffold.NewData(args[0], time.Now())
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Creating new pubnav site: %s\n\n", data.ProjectName)
	if err := scaffold.Generate(data.ProjectName, data, out); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Done! Next steps:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  cd %s\n", data.ProjectName)
	fmt.Fprintln(out, "  cp .env.example .env")
	fmt.Fprintln(out, "  pubnav check")
	fmt.Fprintln(out, "  pubnav serve --watch")
	return nil
}
