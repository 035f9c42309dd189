// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/atomist-sdm/sdmcore/lib/ref"
)

// Config is the environment bundle an isolated goal worker reads on
// startup. It carries only identifying, non-secret values; live
// credentials are sealed separately and referenced by
// CredentialSealPath.
type Config struct {
	// GoalSetID identifies the goal set the worker's goal belongs to.
	GoalSetID string `json:"goal_set_id"`

	// UniqueName identifies the exact goal within the set this worker
	// fulfills.
	UniqueName string `json:"unique_name"`

	// CorrelationID threads this worker's activity back to the push
	// event that produced its goal set, for log correlation.
	CorrelationID string `json:"correlation_id"`

	// Team and TeamName identify the workspace the goal's repository
	// belongs to.
	Team     string `json:"team"`
	TeamName string `json:"team_name"`

	// SocketPath is the Unix socket the worker dials to fetch its
	// exact goal event and report its terminal result (lib/workerproto).
	SocketPath string `json:"socket_path"`

	// CredentialSealPath names the file holding the age-sealed
	// credential bundle (bus token, provider token) encrypted to
	// WorkerPublicKey. Empty when the goal's implementation needs no
	// live credentials.
	CredentialSealPath string `json:"credential_seal_path,omitempty"`

	// WorkerPrivateKeyPath names the file holding the worker's
	// ephemeral age private key, generated for this invocation only
	// and used to unseal CredentialSealPath.
	WorkerPrivateKeyPath string `json:"worker_private_key_path,omitempty"`
}

// Validate checks that Config contains everything a worker needs to
// bootstrap. CredentialSealPath and WorkerPrivateKeyPath are optional:
// a goal implementation that needs no live credentials may omit both.
func (c *Config) Validate() error {
	if c.GoalSetID == "" {
		return fmt.Errorf("goal_set_id is required")
	}
	if _, err := ref.ParseGoalSetID(c.GoalSetID); err != nil {
		return fmt.Errorf("invalid goal_set_id: %w", err)
	}
	if c.UniqueName == "" {
		return fmt.Errorf("unique_name is required")
	}
	if _, err := ref.ParseUniqueName(c.UniqueName); err != nil {
		return fmt.Errorf("invalid unique_name: %w", err)
	}
	if c.CorrelationID == "" {
		return fmt.Errorf("correlation_id is required")
	}
	if c.Team == "" {
		return fmt.Errorf("team is required")
	}
	if _, err := ref.ParseWorkspaceID(c.Team); err != nil {
		return fmt.Errorf("invalid team: %w", err)
	}
	if c.TeamName == "" {
		return fmt.Errorf("team_name is required")
	}
	if c.SocketPath == "" {
		return fmt.Errorf("socket_path is required")
	}
	if (c.CredentialSealPath == "") != (c.WorkerPrivateKeyPath == "") {
		return fmt.Errorf("credential_seal_path and worker_private_key_path must be set together")
	}
	return nil
}

// WriteConfig validates config and writes it as JSON to path with
// 0600 permissions. The file is sensitive: it names the socket the
// worker trusts and, when present, the sealed credential bundle.
func WriteConfig(path string, config *Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid bootstrap config: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bootstrap config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing bootstrap config to %s: %w", path, err)
	}
	return nil
}

// ReadConfig reads and validates a bootstrap config from path.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bootstrap config from %s: %w", path, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing bootstrap config from %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bootstrap config in %s: %w", path, err)
	}
	return &config, nil
}

// WriteToStdout validates config and writes it as formatted JSON to
// stdout, used when a worker is launched with its bundle piped rather
// than written to a file.
func WriteToStdout(config *Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid bootstrap config: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(config)
}
