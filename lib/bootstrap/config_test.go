// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{
		GoalSetID:     "550e8400-e29b-41d4-a716-446655440000",
		UniqueName:    "build",
		CorrelationID: "push-abc123",
		Team:          "acme-workspace",
		TeamName:      "Acme",
		SocketPath:    "/run/sdm/worker-abc.sock",
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		config := validConfig()
		if err := config.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing goal set id", func(t *testing.T) {
		config := validConfig()
		config.GoalSetID = ""
		if err := config.Validate(); err == nil {
			t.Fatal("expected error for missing goal_set_id")
		}
	})

	t.Run("invalid goal set id", func(t *testing.T) {
		config := validConfig()
		config.GoalSetID = "not-a-uuid"
		if err := config.Validate(); err == nil {
			t.Fatal("expected error for invalid goal_set_id")
		}
	})

	t.Run("missing unique name", func(t *testing.T) {
		config := validConfig()
		config.UniqueName = ""
		if err := config.Validate(); err == nil {
			t.Fatal("expected error for missing unique_name")
		}
	})

	t.Run("missing correlation id", func(t *testing.T) {
		config := validConfig()
		config.CorrelationID = ""
		if err := config.Validate(); err == nil {
			t.Fatal("expected error for missing correlation_id")
		}
	})

	t.Run("missing team", func(t *testing.T) {
		config := validConfig()
		config.Team = ""
		if err := config.Validate(); err == nil {
			t.Fatal("expected error for missing team")
		}
	})

	t.Run("missing team name", func(t *testing.T) {
		config := validConfig()
		config.TeamName = ""
		if err := config.Validate(); err == nil {
			t.Fatal("expected error for missing team_name")
		}
	})

	t.Run("missing socket path", func(t *testing.T) {
		config := validConfig()
		config.SocketPath = ""
		if err := config.Validate(); err == nil {
			t.Fatal("expected error for missing socket_path")
		}
	})

	t.Run("credential seal path without private key path", func(t *testing.T) {
		config := validConfig()
		config.CredentialSealPath = "/run/sdm/creds.age"
		if err := config.Validate(); err == nil {
			t.Fatal("expected error when credential_seal_path has no matching private key path")
		}
	})

	t.Run("credential pair set together is valid", func(t *testing.T) {
		config := validConfig()
		config.CredentialSealPath = "/run/sdm/creds.age"
		config.WorkerPrivateKeyPath = "/run/sdm/worker.key"
		if err := config.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestWriteAndReadConfig(t *testing.T) {
	directory := t.TempDir()
	configPath := filepath.Join(directory, "bootstrap.json")

	original := validConfig()
	if err := WriteConfig(configPath, original); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read file failed: %v", err)
	}
	var rawCheck map[string]any
	if err := json.Unmarshal(data, &rawCheck); err != nil {
		t.Fatalf("file is not valid JSON: %v", err)
	}

	loaded, err := ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if loaded.GoalSetID != original.GoalSetID {
		t.Errorf("goal_set_id = %q, want %q", loaded.GoalSetID, original.GoalSetID)
	}
	if loaded.UniqueName != original.UniqueName {
		t.Errorf("unique_name = %q, want %q", loaded.UniqueName, original.UniqueName)
	}
	if loaded.CorrelationID != original.CorrelationID {
		t.Errorf("correlation_id = %q, want %q", loaded.CorrelationID, original.CorrelationID)
	}
	if loaded.Team != original.Team {
		t.Errorf("team = %q, want %q", loaded.Team, original.Team)
	}
	if loaded.TeamName != original.TeamName {
		t.Errorf("team_name = %q, want %q", loaded.TeamName, original.TeamName)
	}
	if loaded.SocketPath != original.SocketPath {
		t.Errorf("socket_path = %q, want %q", loaded.SocketPath, original.SocketPath)
	}
}

func TestWriteConfigInvalidConfig(t *testing.T) {
	directory := t.TempDir()
	configPath := filepath.Join(directory, "bootstrap.json")

	config := &Config{}
	if err := WriteConfig(configPath, config); err == nil {
		t.Fatal("expected error for invalid config")
	}

	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		t.Error("file should not exist after failed write")
	}
}

func TestReadConfigFileNotFound(t *testing.T) {
	_, err := ReadConfig("/nonexistent/path/bootstrap.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadConfigInvalidJSON(t *testing.T) {
	directory := t.TempDir()
	configPath := filepath.Join(directory, "bootstrap.json")
	if err := os.WriteFile(configPath, []byte("not json"), 0600); err != nil {
		t.Fatalf("write file failed: %v", err)
	}

	_, err := ReadConfig(configPath)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestReadConfigMissingRequiredField(t *testing.T) {
	directory := t.TempDir()
	configPath := filepath.Join(directory, "bootstrap.json")

	data := `{"goal_set_id": "550e8400-e29b-41d4-a716-446655440000", "unique_name": "build"}`
	if err := os.WriteFile(configPath, []byte(data), 0600); err != nil {
		t.Fatalf("write file failed: %v", err)
	}

	_, err := ReadConfig(configPath)
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
}
