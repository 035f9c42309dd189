// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package progresslog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

// localSink spools flushed chunks through an lz4 frame writer to a
// file alongside the goal's working directory. Used when the remote
// log service is unreachable; favors lz4's low CPU cost since this
// sink may be written on every goal on every machine.
type localSink struct {
	path string
	file *os.File
	zw   *lz4.Writer
}

func newLocalSink(path string) (*localSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating local log file %s: %w", path, err)
	}
	return &localSink{path: path, file: file, zw: lz4.NewWriter(file)}, nil
}

func (s *localSink) write(_ context.Context, chunk []byte) error {
	if _, err := s.zw.Write(chunk); err != nil {
		return fmt.Errorf("writing to local log %s: %w", s.path, err)
	}
	return nil
}

func (s *localSink) close() error {
	if err := s.zw.Close(); err != nil {
		s.file.Close()
		return fmt.Errorf("closing lz4 writer for %s: %w", s.path, err)
	}
	return s.file.Close()
}
