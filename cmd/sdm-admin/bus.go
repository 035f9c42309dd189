// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/atomist-sdm/sdmcore/lib/bus"
	"github.com/atomist-sdm/sdmcore/lib/bus/httpbus"
	"github.com/atomist-sdm/sdmcore/lib/bus/membus"
	"github.com/atomist-sdm/sdmcore/lib/config"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/secret"
)

// loadConfig reads the configuration this binary shares with the
// sdm-core master it talks to: same bus, same registration.
func loadConfig(configPath string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildEventBus constructs the same bus.EventBus implementation the
// master process builds from the same config. Commands here only
// ever publish KindChatCommand and subscribe for KindChatCommandResult,
// so an httpbus.Client works for Publish but Subscribe requires a
// bus in "memory" mode until a streaming or webhook transport backs
// the HTTP client's reply path.
func buildEventBus(cfg *config.Config) (bus.EventBus, error) {
	switch cfg.Bus.Mode {
	case "memory":
		return membus.New(), nil
	case "http":
		token, err := secret.ReadFromPath(cfg.Bus.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("reading bus token: %w", err)
		}
		defer token.Close()
		return &httpbus.Client{BaseURL: cfg.Bus.BaseURL, Token: token.String()}, nil
	default:
		return nil, fmt.Errorf("unsupported bus mode %q", cfg.Bus.Mode)
	}
}

// selfFromConfig parses the registration name every command sends
// chat admin requests as.
func selfFromConfig(cfg *config.Config) (ref.RegistrationName, error) {
	return ref.ParseRegistrationName(cfg.Registration.Self)
}
