package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Run:   runStats,
	})
}

func runStats(cmd *cobra.Command, args []string) {
	e, _ := openEngine(cmd)
	defer e.Close()

	printJSON(cmd, e.Statistics())
}
