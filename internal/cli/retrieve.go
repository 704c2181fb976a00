package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "retrieve [query]",
		Short: "Retrieve memories by composite relevance",
		Long: "Rank memories by 0.5*relevance + 0.3*importance + 0.2*access frequency and return the top k. " +
			"Returned memories have their access count and last-accessed time updated.",
		Args: cobra.MinimumNArgs(1),
		Run:  runRetrieve,
	}

	cmd.Flags().IntP("top-k", "k", 0, "Max results (default: retrieval.default_top_k)")
	cmd.Flags().StringP("type", "t", "", "Filter by type: episodic, semantic, procedural, unknown")
	cmd.Flags().Bool("scores", false, "Show score breakdown for every candidate without touching access counts")

	RootCmd.AddCommand(cmd)
}

func runRetrieve(cmd *cobra.Command, args []string) {
	topK, _ := cmd.Flags().GetInt("top-k")
	typ, _ := cmd.Flags().GetString("type")
	scores, _ := cmd.Flags().GetBool("scores")
	query := strings.Join(args, " ")
	memType := parseType(typ)

	e, cfg := openEngine(cmd)
	defer e.Close()

	if scores {
		ranked, err := e.Rank(cmd.Context(), query, memType)
		if err != nil {
			exitErr("retrieve", err)
		}
		printJSON(cmd, ranked)
		return
	}

	if !cmd.Flags().Changed("top-k") {
		topK = cfg.Retrieval.DefaultTopK
	}
	memories, err := e.Retrieve(cmd.Context(), query, topK, memType)
	if err != nil {
		exitErr("retrieve", err)
	}
	printJSON(cmd, memories)
}
