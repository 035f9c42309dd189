// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package progresslog

import (
	"fmt"
	"time"

	"github.com/atomist-sdm/sdmcore/lib/config"
)

// ConfigFromFile converts the operational configuration's
// progress-log section into the Config New expects, parsing
// FlushInterval with time.ParseDuration.
func ConfigFromFile(c config.ProgressLogConfig) (Config, error) {
	interval := DefaultFlushInterval
	if c.FlushInterval != "" {
		parsed, err := time.ParseDuration(c.FlushInterval)
		if err != nil {
			return Config{}, fmt.Errorf("parsing progress_log.flush_interval %q: %w", c.FlushInterval, err)
		}
		interval = parsed
	}
	return Config{
		BufferBytes:   c.BufferBytes,
		FlushInterval: interval,
		RemoteURL:     c.RemoteURL,
		LocalDir:      c.LocalDir,
	}, nil
}
