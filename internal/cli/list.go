package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories",
		Run:   runList,
	}

	cmd.Flags().StringP("type", "t", "", "Filter by type")
	cmd.Flags().IntP("limit", "l", 0, "Max results (0 for all)")
	cmd.Flags().Bool("ids-only", false, "Only output id and type")

	RootCmd.AddCommand(cmd)

	RootCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one memory without touching its access count",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	})
}

func runList(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")
	memType := parseType(typ)

	e, _ := openEngine(cmd)
	defer e.Close()

	memories := e.Memories()
	filtered := memories[:0]
	for _, m := range memories {
		if memType == "" || m.Type == memType {
			filtered = append(filtered, m)
		}
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	if idsOnly {
		for _, m := range filtered {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", m.ID, m.Type)
		}
		return
	}
	printJSON(cmd, filtered)
}

func runGet(cmd *cobra.Command, args []string) {
	id := parseID(args[0])

	e, _ := openEngine(cmd)
	defer e.Close()

	m, err := e.Get(id)
	if err != nil {
		exitErr("get", err)
	}
	printJSON(cmd, m)
}
