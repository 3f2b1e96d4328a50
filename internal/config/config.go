package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. DEVDEPS_LOG_LEVEL.
const EnvPrefix = "DEVDEPS"

var configFileNames = []string{".devdeps.yaml", ".devdeps.yml", ".devdeps.json"}

// Config represents the devdeps configuration
type Config struct {
	// Per-user root for portable installs; empty means ~/.fx
	ConfigRoot string `json:"config_root" yaml:"config_root" mapstructure:"config_root"`

	// debug, info, warning or error
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	Output    OutputConfig    `json:"output" yaml:"output" mapstructure:"output"`
	Func      FuncConfig      `json:"func" yaml:"func" mapstructure:"func"`
	Ngrok     NgrokConfig     `json:"ngrok" yaml:"ngrok" mapstructure:"ngrok"`
	TestTool  TestToolConfig  `json:"test_tool" yaml:"test_tool" mapstructure:"test_tool"`
	VxTestApp VxTestAppConfig `json:"vx_test_app" yaml:"vx_test_app" mapstructure:"vx_test_app"`
	Dotnet    DotnetConfig    `json:"dotnet" yaml:"dotnet" mapstructure:"dotnet"`
	Network   NetworkConfig   `json:"network" yaml:"network" mapstructure:"network"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	// Default output format
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Whether to colorize output
	Color bool `json:"color" yaml:"color" mapstructure:"color"`
}

// FuncConfig configures Azure Functions Core Tools
type FuncConfig struct {
	// Semver range, e.g. "4"
	Version    string `json:"version" yaml:"version" mapstructure:"version"`
	SymlinkDir string `json:"symlink_dir" yaml:"symlink_dir" mapstructure:"symlink_dir"`
}

// NgrokConfig configures the tunnel client
type NgrokConfig struct {
	Version string `json:"version" yaml:"version" mapstructure:"version"`
}

// TestToolConfig configures the Teams App Test Tool
type TestToolConfig struct {
	VersionRange   string        `json:"version_range" yaml:"version_range" mapstructure:"version_range"`
	SymlinkDir     string        `json:"symlink_dir" yaml:"symlink_dir" mapstructure:"symlink_dir"`
	ReleaseType    string        `json:"release_type" yaml:"release_type" mapstructure:"release_type"`
	UpdateInterval time.Duration `json:"update_interval" yaml:"update_interval" mapstructure:"update_interval"`
}

// VxTestAppConfig configures the video extensibility test app
type VxTestAppConfig struct {
	Version    string `json:"version" yaml:"version" mapstructure:"version"`
	SymlinkDir string `json:"symlink_dir" yaml:"symlink_dir" mapstructure:"symlink_dir"`
	BaseURL    string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
}

// DotnetConfig configures the .NET SDK install script source
type DotnetConfig struct {
	// Directory holding a bundled dotnet-install script
	ScriptDir     string `json:"script_dir" yaml:"script_dir" mapstructure:"script_dir"`
	ScriptBaseURL string `json:"script_base_url" yaml:"script_base_url" mapstructure:"script_base_url"`
}

// NetworkConfig contains download and registry settings
type NetworkConfig struct {
	// Attempts after the first try for retriable failures
	RetryAttempts uint   `json:"retry_attempts" yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RegistryURL   string `json:"registry_url" yaml:"registry_url" mapstructure:"registry_url"`
}

// MetricsConfig controls the Prometheus textfile export
type MetricsConfig struct {
	// Empty disables the export
	File string `json:"file" yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Func: FuncConfig{
			Version: "4",
		},
		Ngrok: NgrokConfig{
			Version: "4.3.3",
		},
		TestTool: TestToolConfig{
			VersionRange:   "~0.2.0",
			SymlinkDir:     "devTools/teamsapptester",
			ReleaseType:    "npm",
			UpdateInterval: 7 * 24 * time.Hour,
		},
		VxTestApp: VxTestAppConfig{
			Version:    "1.0.4",
			SymlinkDir: "devTools/video-extensibility-test-app",
			BaseURL:    "https://github.com/microsoft/teams-video-extensibility-test-app/releases/download",
		},
		Dotnet: DotnetConfig{
			ScriptBaseURL: "https://dot.net/v1",
		},
		Network: NetworkConfig{
			RetryAttempts: 3,
			RegistryURL:   "https://registry.npmjs.org",
		},
	}
}

// LoadConfig loads configuration from a file, layered over the defaults and
// under DEVDEPS_* environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Seed viper with the defaults so every key is known to AutomaticEnv
	base, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default config: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// If no config file specified, try to find one
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType(configType(configPath))
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to a file, as JSON for .json paths and YAML otherwise
func SaveConfig(config *Config, configPath string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if configType(configPath) == "json" {
		data, err = json.MarshalIndent(config, "", "  ")
	} else {
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveConfigRoot returns the portable install root, defaulting to ~/.fx.
func (c *Config) ResolveConfigRoot() (string, error) {
	if c.ConfigRoot != "" {
		return c.ConfigRoot, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".fx"), nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

// findConfigFile looks for config files in common locations
func findConfigFile() string {
	// Current directory
	for _, candidate := range configFileNames {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	// Home directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		for _, name := range configFileNames {
			candidate := filepath.Join(homeDir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}

	// XDG config directory
	candidate := filepath.Join(xdg.ConfigHome, "devdeps", "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}

	return ""
}

// GetConfigPath returns the config file path to use
func GetConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	found := findConfigFile()
	if found != "" {
		return found
	}

	// Default location
	if p, err := xdg.ConfigFile(filepath.Join("devdeps", "config.yaml")); err == nil {
		return p
	}
	return ".devdeps.yaml"
}
