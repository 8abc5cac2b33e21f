package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kestrelworks/warden/internal/config"
	"github.com/kestrelworks/warden/internal/engine"
	"github.com/kestrelworks/warden/internal/taskdef"
)

var validateTasksDir string

var validateCmd = &cobra.Command{
	Use:   "validate <task> [response-file]",
	Short: "Validate a raw LLM response against a task contract",
	Long: `Pipe a raw LLM response through the leaf pipeline for one task.

Reads the response from the given file, or from stdin when no file is
given. Prints the resulting envelope as JSON on stdout; the process exits
non-zero when the envelope reports a failure.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		dir := validateTasksDir
		if dir == "" {
			dir = cfg.Tasks.Dir
		}
		registry, err := taskdef.LoadDir(dir)
		if err != nil {
			return fmt.Errorf("load task definitions: %w", err)
		}
		def, ok := registry.Resolve(args[0])
		if !ok {
			return fmt.Errorf("unknown task %q (looked in %s)", args[0], dir)
		}

		var raw []byte
		if len(args) == 2 {
			raw, err = os.ReadFile(args[1])
		} else {
			raw, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		env := engine.New().Process(context.Background(), string(raw), def)

		out, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return fmt.Errorf("encode envelope: %w", err)
		}
		fmt.Println(string(out))

		if env.OK {
			color.Green("PASS %s (risk=%s confidence=%.2f)", def.Name, env.Meta.Risk, env.Meta.Confidence)
			return nil
		}
		color.Red("FAIL %s [%s] %s", def.Name, env.Error.Code, env.Error.Message)
		os.Exit(1)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateTasksDir, "tasks", "", "Task definition directory (overrides config)")
}
