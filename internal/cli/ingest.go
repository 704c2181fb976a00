package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Store every sentence of a text",
		Long:  "Split text into sentences and store each as its own memory. Reads the file argument or stdin.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runIngest,
	}

	cmd.Flags().StringToStringP("context", "c", nil, "Caller context applied to every sentence")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	memCtx, _ := cmd.Flags().GetStringToString("context")

	var text string
	if len(args) == 1 {
		b, err := os.ReadFile(args[0])
		if err != nil {
			exitErr("read file", err)
		}
		text = string(b)
	} else {
		text = readContent(nil)
	}
	if text == "" {
		exitErr("ingest", fmt.Errorf("text is required (file arg or stdin)"))
	}

	e, _ := openEngine(cmd)
	defer e.Close()

	stored, err := e.Ingest(cmd.Context(), text, memCtx)
	if err != nil {
		printJSON(cmd, stored)
		exitErr("ingest", err)
	}
	printJSON(cmd, stored)
}
