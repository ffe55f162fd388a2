// Package config handles configuration loading and management for Steward.
// It supports XDG config paths, environment variables, and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/viper"

	"github.com/stewardbot/steward/pkg/models"
)

// Config holds all configuration for Steward.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Budgets   BudgetsConfig   `mapstructure:"budgets"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Models    ModelsConfig    `mapstructure:"models"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	DataDir   string          `mapstructure:"data_dir"`
}

// AnthropicConfig holds reasoning-service settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// UseBedrock routes API calls through AWS Bedrock instead of the
	// direct API.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// BudgetsConfig holds USD budget limits and decomposition thresholds.
type BudgetsConfig struct {
	// MinSubtask is the smallest budget a delegated child may receive.
	MinSubtask float64 `mapstructure:"min_subtask"`
	// MaxSubtask is the largest budget a delegated child may receive.
	MaxSubtask float64 `mapstructure:"max_subtask"`
	// DefaultTask is the root budget when no "$N" prefix is given.
	DefaultTask float64 `mapstructure:"default_task"`
	// MaxTask is the largest budget a root task may receive.
	MaxTask float64 `mapstructure:"max_task"`
	// DailyCeiling halts all tasks once the day's total spend passes it.
	DailyCeiling float64 `mapstructure:"daily_ceiling"`
	// PlannerThreshold marks a root as a planner when its budget exceeds it.
	PlannerThreshold float64 `mapstructure:"planner_threshold"`
	// PlannerLength marks a root as a planner when its description is longer.
	PlannerLength int `mapstructure:"planner_length"`
}

// LimitsConfig holds structural limits on the delegation tree.
type LimitsConfig struct {
	// MaxDelegationDepth is the deepest level a child may be created at.
	MaxDelegationDepth int `mapstructure:"max_delegation_depth"`
	// MaxSubtasksPerTask caps the number of children per parent.
	MaxSubtasksPerTask int `mapstructure:"max_subtasks_per_task"`
	// StepCeilings maps depth to the loop iteration ceiling. Depths past
	// the end of the slice use the last entry.
	StepCeilings []int `mapstructure:"step_ceilings"`
}

// ModelsConfig maps tiers to concrete model ids.
type ModelsConfig struct {
	Simple   string `mapstructure:"simple"`
	Standard string `mapstructure:"standard"`
	Complex  string `mapstructure:"complex"`
	Planner  string `mapstructure:"planner"`
}

// ToolsConfig holds tool-execution settings.
type ToolsConfig struct {
	// WorkDir is the sandbox root all file tools resolve paths against.
	WorkDir string `mapstructure:"work_dir"`
	// ScriptTimeoutSeconds bounds run_script executions.
	ScriptTimeoutSeconds int `mapstructure:"script_timeout_seconds"`
}

// TokenCeilings holds the per-call token limits for a tier.
type TokenCeilings struct {
	MaxInput  int
	MaxOutput int
}

// Ceilings returns the token ceilings for a tier.
func (c *Config) Ceilings(tier models.Tier) TokenCeilings {
	switch tier {
	case models.TierSimple:
		return TokenCeilings{MaxInput: 2_000, MaxOutput: 500}
	case models.TierComplex, models.TierPlanner:
		return TokenCeilings{MaxInput: 12_000, MaxOutput: 4_000}
	default:
		return TokenCeilings{MaxInput: 8_000, MaxOutput: 2_000}
	}
}

// ModelFor returns the model id configured for a tier.
func (c *Config) ModelFor(tier models.Tier) string {
	switch tier {
	case models.TierSimple:
		return c.Models.Simple
	case models.TierComplex:
		return c.Models.Complex
	case models.TierPlanner:
		return c.Models.Planner
	default:
		return c.Models.Standard
	}
}

// MaxStepsForDepth returns the loop iteration ceiling for a depth.
// Deeper nodes get fewer steps.
func (c *Config) MaxStepsForDepth(depth int) int {
	ceilings := c.Limits.StepCeilings
	if len(ceilings) == 0 {
		return 10
	}
	if depth < 0 {
		depth = 0
	}
	if depth >= len(ceilings) {
		return ceilings[len(ceilings)-1]
	}
	return ceilings[depth]
}

// DBPath returns the path to the task database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "steward.db")
}

// SignalsDir returns the directory watched for operator signal files.
func (c *Config) SignalsDir() string {
	return filepath.Join(c.DataDir, "signals")
}

// Load loads configuration with the following precedence (highest first):
// environment variables (STEWARD_*, ANTHROPIC_API_KEY), the user config at
// ~/.config/steward/config.yaml, built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	v.SetEnvPrefix("STEWARD")
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
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

// Default returns a Config populated with built-in defaults only.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Unmarshal of in-memory defaults cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.use_bedrock", false)

	v.SetDefault("budgets.min_subtask", 0.01)
	v.SetDefault("budgets.max_subtask", 1.00)
	v.SetDefault("budgets.default_task", 1.00)
	v.SetDefault("budgets.max_task", 25.00)
	v.SetDefault("budgets.daily_ceiling", 2.00)
	v.SetDefault("budgets.planner_threshold", 2.00)
	v.SetDefault("budgets.planner_length", 400)

	v.SetDefault("limits.max_delegation_depth", 2)
	v.SetDefault("limits.max_subtasks_per_task", 15)
	v.SetDefault("limits.step_ceilings", []int{10, 6, 4})

	v.SetDefault("models.simple", "claude-haiku-4-5-20251001")
	v.SetDefault("models.standard", "claude-sonnet-4-5-20250929")
	v.SetDefault("models.complex", "claude-sonnet-4-5-20250929")
	v.SetDefault("models.planner", "claude-sonnet-4-5-20250929")

	v.SetDefault("tools.work_dir", ".")
	v.SetDefault("tools.script_timeout_seconds", 120)

	v.SetDefault("data_dir", getDataDir())
}

// getUserConfigDir returns the XDG config directory for Steward.
func getUserConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "steward")
}

// getDataDir returns the XDG data directory for Steward.
func getDataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "steward")
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv expands ${VAR} references in config values.
func expandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
