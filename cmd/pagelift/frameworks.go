package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift/config"
)

func newFrameworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks",
		Short: "List the supported framework presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDETECTED BY\tBUILD COMMAND\tOUTPUT")
			for _, f := range config.Frameworks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Name, f.Dependency, f.BuildCommand, f.OutputDir)
			}
			return w.Flush()
		},
	}
}
