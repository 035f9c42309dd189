// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package progresslog

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"
)

// probeTimeout bounds how long construction waits to learn whether
// the remote log service is reachable before falling back to the
// local sink.
const probeTimeout = 2 * time.Second

// remoteSink batches flushed chunks through gzip before POSTing them
// to a remote log service, trading CPU for reduced egress on chatty
// build logs.
type remoteSink struct {
	url    string
	client *http.Client
}

func newRemoteSink(url string) *remoteSink {
	return &remoteSink{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

// probeRemote reports whether url answers quickly enough to be
// trusted as the persistent sink. A failed probe means the caller
// should fall back to local logging rather than stall goal execution
// on an unreachable log service.
func probeRemote(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

func (s *remoteSink) write(ctx context.Context, chunk []byte) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(chunk); err != nil {
		return fmt.Errorf("compressing log chunk: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, &buf)
	if err != nil {
		return fmt.Errorf("building log request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Encoding", "gzip")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting log chunk to %s: %w", s.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("log service %s returned %s", s.url, resp.Status)
	}
	return nil
}

func (s *remoteSink) close() error {
	return nil
}
