// Package cli implements the dynamic-memory CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/dynamic-memory/internal/config"
	"github.com/rcliao/dynamic-memory/internal/engine"
	"github.com/rcliao/dynamic-memory/internal/llm"
	"github.com/rcliao/dynamic-memory/internal/logging"
	"github.com/rcliao/dynamic-memory/internal/model"
	"github.com/rcliao/dynamic-memory/internal/policy"
	"github.com/rcliao/dynamic-memory/internal/prompt"
	"github.com/rcliao/dynamic-memory/internal/store"
)

var (
	configPath   string
	dbPath       string
	backendFlag  string
	providerFlag string
	debugFlag    bool
)

var (
	osExit = os.Exit

	// opened is closed by exitErr, which bypasses the commands' deferred Close.
	opened *engine.Engine
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "dynamic-memory",
	Short: "LLM-driven memory with attention-weighted retrieval and forgetting",
	Long: "Store free text as typed memories, retrieve them by composite relevance, " +
		"update them with an audit trail and forget them by policy. Output is JSON.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			logging.SetDebug(true)
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $DYNMEM_CONFIG)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Store path (default: ~/.dynamic-memory/memories.json)")
	RootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Storage backend: json or sqlite")
	RootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "LLM provider: "+strings.Join(llm.KnownProviders(), ", "))
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Debug logging on stderr")
}

// loadConfig layers CLI flags over the file and environment configuration.
func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("config", err)
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if backendFlag != "" {
		cfg.Storage.Backend = backendFlag
	}
	if providerFlag != "" {
		cfg.LLM.Provider = providerFlag
	}
	if err := cfg.Validate(); err != nil {
		exitErr("config", err)
	}
	if cfg.Log.Debug {
		logging.SetDebug(true)
	}
	return cfg
}

func openPersister(cfg config.Config) (store.Persister, error) {
	if cfg.Storage.Backend == config.BackendSQLite {
		return store.NewSQLite(cfg.Storage.Path)
	}
	return store.NewFile(cfg.Storage.Path), nil
}

// openEngine wires the configured store, provider, prompts and policies.
func openEngine(cmd *cobra.Command) (*engine.Engine, config.Config) {
	cfg := loadConfig()

	p, err := openPersister(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	st, err := store.Open(cmd.Context(), p)
	if err != nil {
		exitErr("open store", err)
	}

	gen, err := llm.New(llm.Config{
		Provider:       cfg.LLM.Provider,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Timeout:        cfg.LLM.Timeout,
		MaxFailures:    cfg.LLM.MaxFailures,
		BreakerTimeout: cfg.LLM.BreakerTimeout,
	})
	if err != nil {
		exitErr("llm", err)
	}

	genOpts := llm.Options{Temperature: cfg.LLM.Temperature, MaxTokens: cfg.LLM.MaxTokens}
	learner := prompt.NewLearner(gen, prompt.WithAttempts(cfg.Prompts.Attempts), prompt.WithOptions(genOpts))
	if cfg.Prompts.File != "" {
		if err := prompt.Load(cfg.Prompts.File, learner); err != nil {
			exitErr("load prompts", err)
		}
	}

	policies := policy.NewRegistry(
		policy.LowImportance{Threshold: cfg.Forgetting.ImportanceThreshold},
		policy.OldUnused{Retention: cfg.Forgetting.Retention, MinAccessCount: cfg.Forgetting.MinAccessCount},
	)

	e := engine.New(st, gen,
		engine.WithLearner(learner),
		engine.WithPolicies(policies),
		engine.WithGenerateOptions(genOpts),
		engine.WithBatchRelevance(cfg.Retrieval.Batch),
		engine.WithConcurrency(cfg.Retrieval.Concurrency),
	)
	opened = e
	return e, cfg
}

// readContent takes text from positional args, falling back to piped stdin.
func readContent(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if stat != nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return string(b)
	}
	return ""
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		exitErr("parse id", fmt.Errorf("invalid memory id %q", s))
	}
	return id
}

func parseType(s string) model.Type {
	if s == "" {
		return ""
	}
	t, ok := model.ParseType(s)
	if !ok && t != model.TypeUnknown {
		exitErr("parse type", fmt.Errorf("unknown memory type %q", s))
	}
	return t
}

func printJSON(cmd *cobra.Command, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

// exitErr reports err, releases the open engine and flushes pending log
// lines before exiting with status 1.
func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	if opened != nil {
		opened.Close()
		opened = nil
	}
	logging.Flush()
	osExit(1)
}
