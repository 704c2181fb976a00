package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/dynamic-memory/internal/engine"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update <id> [text]",
		Short: "Update a memory with new information",
		Long:  "Merge, replace or refine a memory's content. Every update appends a history entry.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runUpdate,
	}

	cmd.Flags().StringP("mode", "m", "merge", "Update mode: merge, replace, refine")

	RootCmd.AddCommand(cmd)

	RootCmd.AddCommand(&cobra.Command{
		Use:   "reclassify <id>",
		Short: "Re-run classification on a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runReclassify,
	})
}

func runUpdate(cmd *cobra.Command, args []string) {
	modeStr, _ := cmd.Flags().GetString("mode")
	id := parseID(args[0])

	mode, ok := engine.ParseMode(modeStr)
	if !ok {
		exitErr("update", fmt.Errorf("unknown mode %q (merge, replace, refine)", modeStr))
	}
	text := readContent(args[1:])
	if text == "" {
		exitErr("update", fmt.Errorf("new information is required (positional arg or stdin)"))
	}

	e, _ := openEngine(cmd)
	defer e.Close()

	m, err := e.Update(cmd.Context(), id, text, mode)
	if err != nil {
		exitErr("update", err)
	}
	printJSON(cmd, m)
}

func runReclassify(cmd *cobra.Command, args []string) {
	id := parseID(args[0])

	e, _ := openEngine(cmd)
	defer e.Close()

	m, err := e.Reclassify(cmd.Context(), id)
	if err != nil {
		exitErr("reclassify", err)
	}
	printJSON(cmd, m)
}
