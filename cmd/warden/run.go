package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kestrelworks/warden/internal/compose"
	"github.com/kestrelworks/warden/internal/config"
	"github.com/kestrelworks/warden/internal/engine"
	"github.com/kestrelworks/warden/internal/provider"
	"github.com/kestrelworks/warden/internal/taskdef"
)

var (
	runTasksDir string
	runMaxDepth int
	runTimeout  time.Duration
	runWatch    bool
)

var runCmd = &cobra.Command{
	Use:   "run <task> [arguments]",
	Short: "Execute a task against the provider and validate the result",
	Long: `Execute a task end to end: render its prompt, call the provider,
validate (and if needed repair) the response, and recursively expand any
nested task calls the prompt makes.

Everything after the task name is passed to the prompt as $ARGUMENTS.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		dir := runTasksDir
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

		if runWatch || cfg.Tasks.Watch {
			watcher, err := taskdef.NewWatcher(dir, registry, func(err error) {
				if err != nil {
					fmt.Fprintf(os.Stderr, "task reload failed: %v\n", err)
				}
			})
			if err != nil {
				return fmt.Errorf("watch task directory: %w", err)
			}
			defer watcher.Close()
		}

		apiKey, err := config.GetAPIKey(cfg)
		if err != nil && !cfg.Anthropic.UseAWSBedrock {
			return err
		}
		client, err := provider.NewClient(provider.ClientConfig{
			Model:         cfg.Anthropic.Model,
			APIKey:        apiKey,
			UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
			MaxTokens:     cfg.Anthropic.MaxTokens,
		})
		if err != nil {
			return fmt.Errorf("create provider client: %w", err)
		}

		budget := compose.Budget{MaxDepth: cfg.Engine.MaxDepth, Timeout: cfg.Engine.Timeout}
		if runMaxDepth > 0 {
			budget.MaxDepth = runMaxDepth
		}
		if runTimeout > 0 {
			budget.Timeout = runTimeout
		}

		orch := compose.New(engine.New(), registry, client.ExecFunc(), budget)
		if cfg.Logging.DebugLog != "" {
			logger, err := compose.NewDebugLogger(cfg.Logging.DebugLog)
			if err != nil {
				fmt.Fprintf(os.Stderr, "debug log disabled: %v\n", err)
			} else {
				orch.SetLogger(logger)
				defer logger.Close()
			}
		}

		input := map[string]any{"arguments": strings.Join(args[1:], " ")}
		env := orch.Compose(context.Background(), def, input)

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
	runCmd.Flags().StringVar(&runTasksDir, "tasks", "", "Task definition directory (overrides config)")
	runCmd.Flags().IntVar(&runMaxDepth, "max-depth", 0, "Composition depth limit (overrides config)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Budget for the whole call tree (overrides config)")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Reload task definitions on change")
}
