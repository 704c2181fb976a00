package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "store [text]",
		Short: "Store a memory",
		Long:  "Classify, restate and score text, then store it. Text can be a positional arg or piped via stdin.",
		Run:   runStore,
	}

	cmd.Flags().StringToStringP("context", "c", nil, "Caller context as key=value pairs (e.g. goal=ship)")

	RootCmd.AddCommand(cmd)
}

func runStore(cmd *cobra.Command, args []string) {
	memCtx, _ := cmd.Flags().GetStringToString("context")

	text := readContent(args)
	if text == "" {
		exitErr("store", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	e, _ := openEngine(cmd)
	defer e.Close()

	m, err := e.Store(cmd.Context(), text, memCtx)
	if err != nil {
		exitErr("store", err)
	}
	printJSON(cmd, m)
}
