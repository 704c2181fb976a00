package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/dynamic-memory/internal/export"
)

func init() {
	views := make([]string, 0, len(export.Views()))
	for _, v := range export.Views() {
		views = append(views, string(v))
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the store as a derived view",
		Long:  "Export every memory as one of: " + strings.Join(views, ", ") + ".",
		Run:   runExport,
	}

	cmd.Flags().String("view", string(export.ViewStructured), "View to produce")
	cmd.Flags().StringP("format", "f", string(export.FormatJSON), "Encoding for non-text views: json or yaml")
	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	view, _ := cmd.Flags().GetString("view")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	e, _ := openEngine(cmd)
	defer e.Close()

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			exitErr("export", err)
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(w, export.View(view), export.Format(format), e.Memories()); err != nil {
		exitErr("export", err)
	}
	if output != "" {
		fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"path":%q}`+"\n", output)
	}
}
