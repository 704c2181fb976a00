package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/dynamic-memory/internal/prompt"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect and optimize prompt templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List prompt tasks and their placeholders",
		Run:   runPromptsList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <task>",
		Short: "Print a task's current template",
		Args:  cobra.ExactArgs(1),
		Run:   runPromptsShow,
	})

	optimize := &cobra.Command{
		Use:   "optimize <task>",
		Short: "Ask the model for a better template from examples",
		Long: "Propose an improved template from input/expected_output examples (YAML or JSON list). " +
			"An accepted proposal is saved to the configured prompts file.",
		Args: cobra.ExactArgs(1),
		Run:  runPromptsOptimize,
	}
	optimize.Flags().StringP("examples", "e", "", "Examples file (required)")
	optimize.Flags().String("feedback", "", "What is wrong with the current output")
	optimize.MarkFlagRequired("examples")
	cmd.AddCommand(optimize)

	cmd.AddCommand(&cobra.Command{
		Use:   "export <path>",
		Short: "Write the current template set and revision log as YAML",
		Args:  cobra.ExactArgs(1),
		Run:   runPromptsExport,
	})

	RootCmd.AddCommand(cmd)
}

type taskInfo struct {
	Task         prompt.Task `json:"task"`
	Placeholders []string    `json:"placeholders"`
}

func runPromptsList(cmd *cobra.Command, args []string) {
	e, _ := openEngine(cmd)
	defer e.Close()

	l := e.Learner()
	var out []taskInfo
	for _, task := range l.Tasks() {
		tmpl, _ := l.Template(task)
		out = append(out, taskInfo{Task: task, Placeholders: prompt.Placeholders(tmpl)})
	}
	printJSON(cmd, out)
}

func runPromptsShow(cmd *cobra.Command, args []string) {
	e, _ := openEngine(cmd)
	defer e.Close()

	tmpl, err := e.Learner().Template(prompt.Task(args[0]))
	if err != nil {
		exitErr("show", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tmpl)
}

func runPromptsOptimize(cmd *cobra.Command, args []string) {
	examplesPath, _ := cmd.Flags().GetString("examples")
	feedback, _ := cmd.Flags().GetString("feedback")
	task := prompt.Task(args[0])

	data, err := os.ReadFile(examplesPath)
	if err != nil {
		exitErr("read examples", err)
	}
	// YAML is a superset of JSON, so one decoder covers both.
	var examples []prompt.Example
	if err := yaml.Unmarshal(data, &examples); err != nil {
		exitErr("parse examples", err)
	}

	e, cfg := openEngine(cmd)
	defer e.Close()

	tmpl, err := e.Learner().Optimize(cmd.Context(), task, examples, feedback)
	if err != nil {
		exitErr("optimize", err)
	}

	saved := ""
	if cfg.Prompts.File != "" {
		if err := prompt.SaveFile(cfg.Prompts.File, e.Learner()); err != nil {
			exitErr("save prompts", err)
		}
		saved = cfg.Prompts.File
	}
	printJSON(cmd, map[string]string{"task": string(task), "template": tmpl, "saved_to": saved})
}

func runPromptsExport(cmd *cobra.Command, args []string) {
	e, _ := openEngine(cmd)
	defer e.Close()

	if err := prompt.SaveFile(args[0], e.Learner()); err != nil {
		exitErr("export prompts", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"path":%q}`+"\n", args[0])
}
