// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for a goal-orchestration core.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Registration identifies this SDM instance to the rest of the system.
	Registration RegistrationConfig `yaml:"registration"`

	// Bus configures how this core reaches the event bus.
	Bus BusConfig `yaml:"bus"`

	// Ledger configures the local admission ledger.
	Ledger LedgerConfig `yaml:"ledger"`

	// ProgressLog configures per-goal progress log buffering and the
	// persistent sink.
	ProgressLog ProgressLogConfig `yaml:"progress_log"`

	// Signing configures goal-event signing and verification.
	Signing SigningConfig `yaml:"signing"`

	// Isolate configures the isolated-goal schedulers.
	Isolate IsolateConfig `yaml:"isolate"`

	// Planning configures the goal planner's rule source.
	Planning PlanningConfig `yaml:"planning"`

	// Source configures how this core reaches the repository content
	// push-test leaves inspect (file existence, file contents).
	Source SourceConfig `yaml:"source"`

	// Paths configures directory locations used across this core.
	Paths PathsConfig `yaml:"paths"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Bus         *BusConfig         `yaml:"bus,omitempty"`
	Ledger      *LedgerConfig      `yaml:"ledger,omitempty"`
	ProgressLog *ProgressLogConfig `yaml:"progress_log,omitempty"`
	Signing     *SigningConfig     `yaml:"signing,omitempty"`
	Isolate     *IsolateConfig     `yaml:"isolate,omitempty"`
	Planning    *PlanningConfig    `yaml:"planning,omitempty"`
	Source      *SourceConfig      `yaml:"source,omitempty"`
	Paths       *PathsConfig       `yaml:"paths,omitempty"`
}

// RegistrationConfig identifies this SDM instance.
type RegistrationConfig struct {
	// Self is this registration's name, matched against a goal's
	// Fulfillment.Name to decide relevance.
	Self string `yaml:"self"`

	// Host is recorded in a goal's in_process start metadata
	// (hostname, pod name, or similar).
	Host string `yaml:"host"`

	// Team and TeamName identify the workspace this core serves.
	Team     string `yaml:"team"`
	TeamName string `yaml:"team_name"`
}

// BusConfig configures the event bus client.
type BusConfig struct {
	// Mode selects the bus implementation: "http" for bus/httpbus
	// against a real backend, "memory" for bus/membus, used in
	// development and integration tests.
	// Default: http
	Mode string `yaml:"mode"`

	// BaseURL is the bus backend's address, used when Mode is "http".
	BaseURL string `yaml:"base_url"`

	// TokenFile names a file holding the bearer token used to
	// authenticate bus requests. Never store the token inline in the
	// config file itself.
	TokenFile string `yaml:"token_file"`
}

// LedgerConfig configures the local at-most-once admission ledger.
type LedgerConfig struct {
	// Path is the SQLite database file path. Default: <state>/ledger.db
	Path string `yaml:"path"`

	// PoolSize is the number of pooled connections. Default: 4
	PoolSize int `yaml:"pool_size"`
}

// ProgressLogConfig configures per-goal progress log buffering and
// the persistent sink (remote log service first, local fallback
// second).
type ProgressLogConfig struct {
	// BufferBytes is the size threshold, in bytes, that triggers a
	// flush to the persistent sink. Default: 1000.
	BufferBytes int `yaml:"buffer_bytes"`

	// FlushInterval is the time threshold that triggers a flush,
	// parsed with time.ParseDuration. Default: 2s.
	FlushInterval string `yaml:"flush_interval"`

	// RemoteURL is the base URL of the remote log service. Empty
	// disables the remote sink.
	RemoteURL string `yaml:"remote_url"`

	// LocalDir is the directory local log files are written under
	// when the remote sink is unset or unreachable.
	LocalDir string `yaml:"local_dir"`
}

// SigningConfig configures goal-event signing and verification.
type SigningConfig struct {
	// Enabled requires every dispatched goal event to carry a valid
	// signature. Default: true (production), false (development).
	Enabled bool `yaml:"enabled"`

	// PrivateKeyPath names the PEM-encoded RSA private key this
	// registration signs its own goal events with. Optional: a
	// registration that only dispatches goals signed upstream (by the
	// platform or another registration) need not sign anything itself.
	PrivateKeyPath string `yaml:"private_key_path"`

	// TrustedKeyFiles lists additional PEM-encoded RSA public keys
	// trusted to sign incoming goal events, beyond the embedded
	// platform key every Verifier already trusts.
	TrustedKeyFiles []string `yaml:"trusted_key_files"`
}

// IsolateConfig configures the isolated-goal schedulers.
type IsolateConfig struct {
	// RunDir is the directory bootstrap sockets and config files are
	// created under for the subprocess scheduler, one subdirectory per
	// invocation. Default: <state>/isolate-runs
	RunDir string `yaml:"run_dir"`

	// Kubernetes configures the Kubernetes Job scheduler. Zero value
	// leaves Kubernetes isolation unavailable; goals that request it
	// fail admission instead.
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
}

// KubernetesConfig configures the Kubernetes Job isolation strategy.
type KubernetesConfig struct {
	// Deployment and Namespace identify this SDM's own deployment,
	// used to name and label Jobs.
	Deployment string `yaml:"deployment"`
	Namespace  string `yaml:"namespace"`

	// Image is the container image isolated-goal Jobs run, normally
	// this SDM's own image.
	Image string `yaml:"image"`

	// APIServerURL and TokenFile locate and authenticate to the
	// Kubernetes API server this scheduler applies Jobs against.
	APIServerURL string `yaml:"api_server_url"`
	TokenFile    string `yaml:"token_file"`
}

// PlanningConfig configures the goal planner's rule source.
type PlanningConfig struct {
	// RulesFile is the path to the JSONC goal-rule file loaded by
	// goalplan.LoadRules at startup. Required: a planner with no rules
	// plans every push to an empty goal set.
	RulesFile string `yaml:"rules_file"`

	// MergePolicy selects how multiple matching rules' goals combine:
	// "additive" (default) or "replace". See goalplan.MergePolicy.
	MergePolicy string `yaml:"merge_policy"`
}

// SourceConfig configures how this core reads repository content for
// push-test leaves (hasFile, hasFileContaining) and for the isolated
// subprocess worker's working tree.
type SourceConfig struct {
	// CloneRoot is the directory local clones are kept under, one
	// subdirectory per repository coordinate. Default:
	// <state>/repos
	CloneRoot string `yaml:"clone_root"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for this core's runtime data.
	Root string `yaml:"root"`

	// State is where runtime state (the ledger, isolate run
	// directories, local progress logs) is stored.
	State string `yaml:"state"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "sdm-core")
	defaultState := filepath.Join(defaultRoot, "state")

	return &Config{
		Environment: Development,
		Bus: BusConfig{
			Mode: "http",
		},
		Ledger: LedgerConfig{
			Path:     filepath.Join(defaultState, "ledger.db"),
			PoolSize: 4,
		},
		ProgressLog: ProgressLogConfig{
			BufferBytes:   1000,
			FlushInterval: "2s",
			LocalDir:      filepath.Join(defaultState, "progress-logs"),
		},
		Signing: SigningConfig{
			Enabled: false,
		},
		Isolate: IsolateConfig{
			RunDir: filepath.Join(defaultState, "isolate-runs"),
		},
		Planning: PlanningConfig{
			MergePolicy: "additive",
		},
		Source: SourceConfig{
			CloneRoot: filepath.Join(defaultState, "repos"),
		},
		Paths: PathsConfig{
			Root:  defaultRoot,
			State: defaultState,
		},
	}
}

// Load loads configuration from the SDMCORE_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if SDMCORE_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("SDMCORE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("SDMCORE_CONFIG environment variable not set; " +
			"set it to the path of your sdm-core.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values - this ensures deterministic, auditable configuration.
// The only expansion performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: signing is required rather than
		// silently accepting unsigned goal events.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Signing: &SigningConfig{Enabled: true},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Bus != nil {
		if overrides.Bus.Mode != "" {
			c.Bus.Mode = overrides.Bus.Mode
		}
		if overrides.Bus.BaseURL != "" {
			c.Bus.BaseURL = overrides.Bus.BaseURL
		}
		if overrides.Bus.TokenFile != "" {
			c.Bus.TokenFile = overrides.Bus.TokenFile
		}
	}

	if overrides.Ledger != nil {
		if overrides.Ledger.Path != "" {
			c.Ledger.Path = overrides.Ledger.Path
		}
		if overrides.Ledger.PoolSize != 0 {
			c.Ledger.PoolSize = overrides.Ledger.PoolSize
		}
	}

	if overrides.ProgressLog != nil {
		if overrides.ProgressLog.BufferBytes != 0 {
			c.ProgressLog.BufferBytes = overrides.ProgressLog.BufferBytes
		}
		if overrides.ProgressLog.FlushInterval != "" {
			c.ProgressLog.FlushInterval = overrides.ProgressLog.FlushInterval
		}
		if overrides.ProgressLog.RemoteURL != "" {
			c.ProgressLog.RemoteURL = overrides.ProgressLog.RemoteURL
		}
		if overrides.ProgressLog.LocalDir != "" {
			c.ProgressLog.LocalDir = overrides.ProgressLog.LocalDir
		}
	}

	if overrides.Signing != nil {
		// Enabled is a bool, so we always apply it from overrides.
		c.Signing.Enabled = overrides.Signing.Enabled
		if overrides.Signing.PrivateKeyPath != "" {
			c.Signing.PrivateKeyPath = overrides.Signing.PrivateKeyPath
		}
		if len(overrides.Signing.TrustedKeyFiles) > 0 {
			c.Signing.TrustedKeyFiles = overrides.Signing.TrustedKeyFiles
		}
	}

	if overrides.Isolate != nil {
		if overrides.Isolate.RunDir != "" {
			c.Isolate.RunDir = overrides.Isolate.RunDir
		}
		if overrides.Isolate.Kubernetes.Deployment != "" {
			c.Isolate.Kubernetes.Deployment = overrides.Isolate.Kubernetes.Deployment
		}
		if overrides.Isolate.Kubernetes.Namespace != "" {
			c.Isolate.Kubernetes.Namespace = overrides.Isolate.Kubernetes.Namespace
		}
		if overrides.Isolate.Kubernetes.Image != "" {
			c.Isolate.Kubernetes.Image = overrides.Isolate.Kubernetes.Image
		}
		if overrides.Isolate.Kubernetes.APIServerURL != "" {
			c.Isolate.Kubernetes.APIServerURL = overrides.Isolate.Kubernetes.APIServerURL
		}
		if overrides.Isolate.Kubernetes.TokenFile != "" {
			c.Isolate.Kubernetes.TokenFile = overrides.Isolate.Kubernetes.TokenFile
		}
	}

	if overrides.Planning != nil {
		if overrides.Planning.RulesFile != "" {
			c.Planning.RulesFile = overrides.Planning.RulesFile
		}
		if overrides.Planning.MergePolicy != "" {
			c.Planning.MergePolicy = overrides.Planning.MergePolicy
		}
	}

	if overrides.Source != nil {
		if overrides.Source.CloneRoot != "" {
			c.Source.CloneRoot = overrides.Source.CloneRoot
		}
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.State != "" {
			c.Paths.State = overrides.Paths.State
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"ATOMIST_ROOT": c.Paths.Root,
		"HOME":         os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["ATOMIST_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Ledger.Path = expandVars(c.Ledger.Path, vars)
	c.ProgressLog.LocalDir = expandVars(c.ProgressLog.LocalDir, vars)
	c.Isolate.RunDir = expandVars(c.Isolate.RunDir, vars)
	c.Planning.RulesFile = expandVars(c.Planning.RulesFile, vars)
	c.Source.CloneRoot = expandVars(c.Source.CloneRoot, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Registration.Self == "" {
		errs = append(errs, fmt.Errorf("registration.self is required"))
	}

	if c.Bus.Mode != "http" && c.Bus.Mode != "memory" {
		errs = append(errs, fmt.Errorf("bus.mode must be one of: http, memory"))
	}
	if c.Bus.Mode == "http" && c.Bus.BaseURL == "" {
		errs = append(errs, fmt.Errorf("bus.base_url is required when bus.mode is http"))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	if c.Planning.RulesFile == "" {
		errs = append(errs, fmt.Errorf("planning.rules_file is required"))
	}
	if c.Planning.MergePolicy != "" && c.Planning.MergePolicy != "additive" && c.Planning.MergePolicy != "replace" {
		errs = append(errs, fmt.Errorf("planning.merge_policy must be one of: additive, replace"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.State,
		c.ProgressLog.LocalDir,
		c.Isolate.RunDir,
		c.Source.CloneRoot,
		filepath.Dir(c.Ledger.Path),
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
