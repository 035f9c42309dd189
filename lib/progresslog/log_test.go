// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package progresslog

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atomist-sdm/sdmcore/lib/clock"
	"github.com/pierrec/lz4/v4"
)

func TestEphemeralSinkWritesThrough(t *testing.T) {
	var buf bytes.Buffer
	s := newEphemeralSink(&buf)
	if err := s.write(context.Background(), []byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "hello\n" {
		t.Errorf("buf = %q, want %q", buf.String(), "hello\n")
	}
	if err := s.close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestLocalSinkWritesCompressedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goal.log.lz4")
	s, err := newLocalSink(path)
	if err != nil {
		t.Fatalf("newLocalSink: %v", err)
	}
	if err := s.write(context.Background(), []byte("line one\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.write(context.Background(), []byte("line two\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	decoded, err := io.ReadAll(lz4.NewReader(f))
	if err != nil {
		t.Fatalf("reading lz4 stream: %v", err)
	}
	if string(decoded) != "line one\nline two\n" {
		t.Errorf("decoded = %q, want %q", decoded, "line one\nline two\n")
	}
}

func TestRemoteSinkPostsGzippedChunk(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			t.Errorf("server: reading gzip body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received, _ = io.ReadAll(gz)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	s := newRemoteSink(server.URL)
	if err := s.write(context.Background(), []byte("remote chunk\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if string(received) != "remote chunk\n" {
		t.Errorf("server received %q, want %q", received, "remote chunk\n")
	}
}

func TestProbeRemoteFalseOnUnreachable(t *testing.T) {
	if probeRemote(context.Background(), "http://127.0.0.1:1") {
		t.Error("expected probeRemote to report false for a refused connection")
	}
}

func TestNewFallsBackToLocalWhenRemoteUnreachable(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{RemoteURL: "http://127.0.0.1:1", LocalDir: dir}
	l, err := New(context.Background(), cfg, clock.Real(), "set-1", "build")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	if !strings.HasPrefix(l.URL(), "file://") {
		t.Errorf("URL() = %q, want a file:// fallback", l.URL())
	}
}

func TestWriteFlushesOnBufferSize(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{BufferBytes: 8, FlushInterval: time.Hour, LocalDir: dir}
	l, err := New(context.Background(), cfg, clock.Real(), "set-1", "build")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := l.Write("this line exceeds the buffer threshold"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	path := filepath.Join(dir, "set-1", "build.log.lz4")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected the local log file to contain data after a size-triggered flush")
	}
}

func TestWriteAfterCloseReturnsError(t *testing.T) {
	l, err := New(context.Background(), Config{}, clock.Real(), "set-1", "build")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Write("too late"); err == nil {
		t.Error("expected Write after Close to return an error")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	l, err := New(context.Background(), Config{}, clock.Real(), "set-1", "build")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}

func TestFlushTriggeredByTimer(t *testing.T) {
	dir := t.TempDir()
	fake := clock.Fake(time.Now())
	cfg := Config{BufferBytes: 1 << 20, FlushInterval: time.Second, LocalDir: dir}
	l, err := New(context.Background(), cfg, fake, "set-1", "build")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	if err := l.Write("short line"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	fake.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)

	l.mu.Lock()
	remaining := l.buf.Len()
	l.mu.Unlock()
	if remaining != 0 {
		t.Errorf("buffer still holds %d bytes after the flush interval elapsed", remaining)
	}
}

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.BufferBytes != DefaultBufferBytes {
		t.Errorf("BufferBytes = %d, want %d", cfg.BufferBytes, DefaultBufferBytes)
	}
	if cfg.FlushInterval != DefaultFlushInterval {
		t.Errorf("FlushInterval = %v, want %v", cfg.FlushInterval, DefaultFlushInterval)
	}
}
