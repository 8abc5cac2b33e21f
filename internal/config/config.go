// Package config handles configuration loading and management for Warden.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Warden.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Tasks     TasksConfig     `mapstructure:"tasks"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AnthropicConfig holds provider settings.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key; ANTHROPIC_API_KEY wins over config.
	APIKey string `mapstructure:"api_key"`
	// Model is the model identifier passed to the Messages API.
	Model string `mapstructure:"model"`
	// UseAWSBedrock routes calls through AWS Bedrock instead of the direct API.
	UseAWSBedrock bool `mapstructure:"use_aws_bedrock"`
	// AWSRegion is the Bedrock region (e.g. us-west-2).
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile name.
	AWSProfile string `mapstructure:"aws_profile"`
	// MaxTokens caps the response length per call.
	MaxTokens int `mapstructure:"max_tokens"`
}

// EngineConfig holds validation and composition defaults.
type EngineConfig struct {
	// MaxDepth bounds the composition call tree.
	MaxDepth int `mapstructure:"max_depth"`
	// Timeout is the budget covering a whole call tree.
	Timeout time.Duration `mapstructure:"timeout"`
}

// TasksConfig holds task-definition discovery settings.
type TasksConfig struct {
	// Dir is the directory holding task definition YAML files.
	Dir string `mapstructure:"dir"`
	// Watch enables hot reload of the definition directory.
	Watch bool `mapstructure:"watch"`
}

// LoggingConfig holds debug logging settings.
type LoggingConfig struct {
	// DebugLog is the path of the composition debug log; empty disables it.
	DebugLog string `mapstructure:"debug_log"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, WARDEN_*)
// 2. Project config (.warden.yaml in current directory or parent)
// 3. User config (~/.config/warden/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("WARDEN")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("tasks.dir", "WARDEN_TASKS_DIR")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("engine.max_depth", cfg.Engine.MaxDepth)
	v.Set("engine.timeout", cfg.Engine.Timeout.String())
	v.Set("tasks.dir", cfg.Tasks.Dir)
	v.Set("tasks.watch", cfg.Tasks.Watch)
	v.Set("logging.debug_log", cfg.Logging.DebugLog)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.use_aws_bedrock", false)
	v.SetDefault("anthropic.max_tokens", 4096)

	v.SetDefault("engine.max_depth", 5)
	v.SetDefault("engine.timeout", "10m")

	v.SetDefault("tasks.dir", ".warden/tasks")
	v.SetDefault("tasks.watch", false)

	v.SetDefault("logging.debug_log", "")
}

// getUserConfigDir returns the XDG config directory for Warden.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "warden")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "warden")
	}
	return filepath.Join(home, ".config", "warden")
}

// findProjectConfig searches for .warden.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".warden.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a config value.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}
