package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrelworks/warden/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Warden configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/warden/config.yaml
Project-specific overrides can be placed in .warden.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s (source: %s)\n", config.MaskAPIKey(cfg.Anthropic.APIKey), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("anthropic.max_tokens: %d\n", cfg.Anthropic.MaxTokens)
	fmt.Printf("engine.max_depth: %d\n", cfg.Engine.MaxDepth)
	fmt.Printf("engine.timeout: %s\n", cfg.Engine.Timeout)
	fmt.Printf("tasks.dir: %s\n", cfg.Tasks.Dir)
	fmt.Printf("tasks.watch: %t\n", cfg.Tasks.Watch)
	fmt.Printf("logging.debug_log: %s\n", cfg.Logging.DebugLog)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	switch key {
	case "anthropic.api_key":
		fmt.Println(config.MaskAPIKey(cfg.Anthropic.APIKey))
	case "anthropic.model":
		fmt.Println(cfg.Anthropic.Model)
	case "anthropic.use_aws_bedrock":
		fmt.Println(cfg.Anthropic.UseAWSBedrock)
	case "anthropic.aws_region":
		fmt.Println(cfg.Anthropic.AWSRegion)
	case "anthropic.max_tokens":
		fmt.Println(cfg.Anthropic.MaxTokens)
	case "engine.max_depth":
		fmt.Println(cfg.Engine.MaxDepth)
	case "engine.timeout":
		fmt.Println(cfg.Engine.Timeout)
	case "tasks.dir":
		fmt.Println(cfg.Tasks.Dir)
	case "tasks.watch":
		fmt.Println(cfg.Tasks.Watch)
	case "logging.debug_log":
		fmt.Println(cfg.Logging.DebugLog)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
		os.Exit(1)
	}
}

// setConfigKey updates a single configuration value and saves it.
func setConfigKey(cfg *config.Config, key, value string) {
	var err error
	switch key {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_aws_bedrock":
		cfg.Anthropic.UseAWSBedrock, err = strconv.ParseBool(value)
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.max_tokens":
		cfg.Anthropic.MaxTokens, err = strconv.Atoi(value)
	case "engine.max_depth":
		cfg.Engine.MaxDepth, err = strconv.Atoi(value)
	case "engine.timeout":
		cfg.Engine.Timeout, err = time.ParseDuration(value)
	case "tasks.dir":
		cfg.Tasks.Dir = value
	case "tasks.watch":
		cfg.Tasks.Watch, err = strconv.ParseBool(value)
	case "logging.debug_log":
		cfg.Logging.DebugLog = value
	default:
		fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid value for %s: %v\n", key, err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s = %s\n", key, value)
}
