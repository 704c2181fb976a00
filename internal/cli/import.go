package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/dynamic-memory/internal/export"
	"github.com/rcliao/dynamic-memory/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import memories from JSON",
		Long: "Import memories from a file or stdin. Accepts a JSON array of memories or the " +
			"structured export view. Records get fresh ids; every other field is kept.",
		Args: cobra.MaximumNArgs(1),
		Run:  runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	memories, err := decodeMemories(data)
	if err != nil {
		exitErr("parse json", err)
	}

	e, _ := openEngine(cmd)
	defer e.Close()

	imported, err := e.Import(cmd.Context(), memories)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d}`+"\n", len(imported))
}

func decodeMemories(data []byte) ([]model.Memory, error) {
	var memories []model.Memory
	if err := json.Unmarshal(data, &memories); err == nil {
		return memories, nil
	}
	var structured export.Structured
	if err := json.Unmarshal(data, &structured); err != nil {
		return nil, err
	}
	return structured.Memories, nil
}
