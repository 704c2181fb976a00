package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/dynamic-memory/internal/engine"
)

func init() {
	cmd := &cobra.Command{
		Use:   "forget [id]",
		Short: "Forget a memory or apply a forgetting strategy",
		Long: "Remove one memory by id, or every memory a strategy selects. " +
			"Strategies: low_importance, old_unused. Prints the removed records.",
		Args: cobra.MaximumNArgs(1),
		Run:  runForget,
	}

	cmd.Flags().StringP("strategy", "s", "", "Forgetting strategy")

	RootCmd.AddCommand(cmd)
}

func runForget(cmd *cobra.Command, args []string) {
	strategy, _ := cmd.Flags().GetString("strategy")

	var req engine.ForgetRequest
	if len(args) == 1 {
		id := parseID(args[0])
		req.ID = &id
	}
	req.Strategy = strings.TrimSpace(strategy)

	e, _ := openEngine(cmd)
	defer e.Close()

	removed, err := e.Forget(cmd.Context(), req)
	if err != nil {
		exitErr("forget", err)
	}
	printJSON(cmd, removed)
}
