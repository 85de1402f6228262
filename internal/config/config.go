// Package config resolves hmm's tool settings from defaults, an optional
// settings file, HMM_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/registry"
	"github.com/adamancini/hmm/internal/state"
	"github.com/adamancini/hmm/internal/types"
)

const (
	// AppName is the application name.
	AppName = "hmm"
	// EnvPrefix prefixes every environment override, e.g. HMM_ROOT.
	EnvPrefix = "HMM"
	// SettingsFileName is the settings file name without extension.
	SettingsFileName = "hmm"
)

// Setting keys.
const (
	KeyManifest           = "manifest"
	KeyRoot               = "root"
	KeyRegistryURL        = "registry_url"
	KeyConcurrency        = "concurrency"
	KeyInstallConcurrency = "install_concurrency"
	KeyHTTPTimeout        = "http_timeout"
	KeyInstallTimeout     = "install_timeout"
	KeyOutput             = "output"
	KeyVerbose            = "verbose"
	KeyQuiet              = "quiet"
)

// DefaultInstallConcurrency bounds simultaneous installs unless overridden.
const DefaultInstallConcurrency = 4

// DefaultInstallTimeout bounds one entry's install unless overridden.
const DefaultInstallTimeout = 10 * time.Minute

// flagKeys maps command-line flag names to setting keys.
var flagKeys = map[string]string{
	"path":                KeyManifest,
	"root":                KeyRoot,
	"registry-url":        KeyRegistryURL,
	"concurrency":         KeyConcurrency,
	"install-concurrency": KeyInstallConcurrency,
	"install-timeout":     KeyInstallTimeout,
	"output":              KeyOutput,
	"verbose":             KeyVerbose,
	"quiet":               KeyQuiet,
}

// Config holds the resolved tool settings.
type Config struct {
	// Manifest is the path of the dependency manifest.
	Manifest string `json:"manifest" mapstructure:"manifest"`
	// Root is the library cache directory.
	Root string `json:"root" mapstructure:"root"`
	// RegistryURL is the base URL of the haxelib registry.
	RegistryURL string `json:"registry_url" mapstructure:"registry_url"`
	// Concurrency bounds simultaneous inspections.
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
	// InstallConcurrency bounds simultaneous installs.
	InstallConcurrency int `json:"install_concurrency" mapstructure:"install_concurrency"`
	// HTTPTimeout bounds one registry download.
	HTTPTimeout time.Duration `json:"http_timeout" mapstructure:"http_timeout"`
	// InstallTimeout bounds one entry's install, including locking and cloning.
	InstallTimeout time.Duration `json:"install_timeout" mapstructure:"install_timeout"`
	// Output selects text, json or yaml output.
	Output  string `json:"output" mapstructure:"output"`
	Verbose bool   `json:"verbose" mapstructure:"verbose"`
	Quiet   bool   `json:"quiet" mapstructure:"quiet"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Manifest:           manifest.DefaultFileName,
		Root:               state.DefaultRoot,
		RegistryURL:        registry.DefaultBaseURL,
		Concurrency:        runtime.NumCPU(),
		InstallConcurrency: DefaultInstallConcurrency,
		HTTPTimeout:        registry.DefaultTimeout,
		InstallTimeout:     DefaultInstallTimeout,
		Output:             string(types.OutputText),
	}
}

// OutputFormat returns the parsed output format.
func (c *Config) OutputFormat() types.OutputFormat {
	f, err := types.ParseOutputFormat(c.Output)
	if err != nil {
		return types.OutputText
	}
	return f
}

// Validate checks the resolved settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Manifest == "" {
		errs = append(errs, errors.New("manifest path must not be empty"))
	}
	if c.Root == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.InstallConcurrency < 1 {
		errs = append(errs, fmt.Errorf("install_concurrency must be at least 1, got %d", c.InstallConcurrency))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("http_timeout must not be negative, got %s", c.HTTPTimeout))
	}
	if c.InstallTimeout < 0 {
		errs = append(errs, fmt.Errorf("install_timeout must not be negative, got %s", c.InstallTimeout))
	}
	if _, err := types.ParseOutputFormat(c.Output); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// SettingsFile is an explicit settings file. It must exist when set.
	SettingsFile string
	// SettingsDir overrides the directory searched for hmm.{yaml,toml,json}.
	SettingsDir string
	// Flags are bound over every other source. Only flags the user changed
	// take precedence.
	Flags *pflag.FlagSet
}

// Dir returns the settings directory: $XDG_CONFIG_HOME/hmm, falling back to
// ~/.config/hmm.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName), nil
}

// Load resolves settings. It returns the settings and the path of the
// settings file that was read, or "" when none was found.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault(KeyManifest, defaults.Manifest)
	v.SetDefault(KeyRoot, defaults.Root)
	v.SetDefault(KeyRegistryURL, defaults.RegistryURL)
	v.SetDefault(KeyConcurrency, defaults.Concurrency)
	v.SetDefault(KeyInstallConcurrency, defaults.InstallConcurrency)
	v.SetDefault(KeyHTTPTimeout, defaults.HTTPTimeout)
	v.SetDefault(KeyInstallTimeout, defaults.InstallTimeout)
	v.SetDefault(KeyOutput, defaults.Output)
	v.SetDefault(KeyVerbose, defaults.Verbose)
	v.SetDefault(KeyQuiet, defaults.Quiet)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	resolved, err := readSettingsFile(v, opts)
	if err != nil {
		return nil, "", err
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, "", fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid settings: %w", err)
	}

	return &cfg, resolved, nil
}

func readSettingsFile(v *viper.Viper, opts LoadOptions) (string, error) {
	if opts.SettingsFile != "" {
		if _, err := os.Stat(opts.SettingsFile); err != nil {
			return "", fmt.Errorf("settings file not found: %s", opts.SettingsFile)
		}
		v.SetConfigFile(opts.SettingsFile)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read settings file %s: %w", opts.SettingsFile, err)
		}
		return opts.SettingsFile, nil
	}

	dir := opts.SettingsDir
	if dir == "" {
		var err error
		dir, err = Dir()
		if err != nil {
			return "", err
		}
	}

	v.SetConfigName(SettingsFileName)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read settings: %w", err)
	}
	return v.ConfigFileUsed(), nil
}
