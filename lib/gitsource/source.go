// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package gitsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/atomist-sdm/sdmcore/lib/ref"
)

// Repository represents a git working tree at a specific directory.
// All operations target this directory via "git -C <dir>" — there is
// no default directory, callers always say which repository they mean.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given directory.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository's working-tree directory.
func (r *Repository) Dir() string { return r.dir }

// Run executes a git command targeting this repository and returns
// stdout. Stderr is captured separately and included in error
// messages on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// CloneURLResolver maps a repository coordinate to the URL this core
// clones and fetches it from. Resolution (and any credential material
// the URL embeds or the clone needs) is the source-control provider's
// concern, supplied by the caller wiring a Source — gitsource treats
// the result as an opaque git remote.
type CloneURLResolver func(coordinate ref.RepoCoordinate) (string, error)

// Source locates and maintains local clones of repositories under a
// single root directory, one subdirectory per repository coordinate.
type Source struct {
	// Root is the directory clones are kept under (config.SourceConfig.CloneRoot).
	Root string

	// ResolveCloneURL resolves a coordinate to a clone URL.
	ResolveCloneURL CloneURLResolver
}

// Checkout ensures a local clone of coordinate exists under s.Root,
// fetches, and checks out sha, cloning fresh on first use. It returns
// a Repository rooted at the resulting working tree.
func (s *Source) Checkout(ctx context.Context, coordinate ref.RepoCoordinate, sha ref.SHA) (*Repository, error) {
	if s.ResolveCloneURL == nil {
		return nil, fmt.Errorf("gitsource: no ResolveCloneURL configured")
	}
	dir := s.dirFor(coordinate)
	repo := NewRepository(dir)

	if _, err := os.Stat(filepath.Join(dir, ".git")); errors.Is(err, os.ErrNotExist) {
		cloneURL, err := s.ResolveCloneURL(coordinate)
		if err != nil {
			return nil, fmt.Errorf("gitsource: resolving clone url for %s: %w", coordinate, err)
		}
		if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
			return nil, fmt.Errorf("gitsource: creating clone parent: %w", err)
		}
		clone := exec.CommandContext(ctx, "git", "clone", "--no-checkout", cloneURL, dir)
		var stderr bytes.Buffer
		clone.Stderr = &stderr
		if err := clone.Run(); err != nil {
			return nil, fmt.Errorf("gitsource: cloning %s: %w (stderr: %s)", coordinate, err, strings.TrimSpace(stderr.String()))
		}
	} else if err != nil {
		return nil, fmt.Errorf("gitsource: checking clone for %s: %w", coordinate, err)
	} else {
		if _, err := repo.Run(ctx, "fetch", "--prune", "origin"); err != nil {
			return nil, fmt.Errorf("gitsource: fetching %s: %w", coordinate, err)
		}
	}

	if _, err := repo.Run(ctx, "checkout", "--force", sha.String()); err != nil {
		return nil, fmt.Errorf("gitsource: checking out %s at %s: %w", coordinate, sha.Short(), err)
	}
	return repo, nil
}

// dirFor derives a stable, collision-free directory for coordinate
// under s.Root, keyed by provider/owner/name.
func (s *Source) dirFor(coordinate ref.RepoCoordinate) string {
	return filepath.Join(s.Root, coordinate.Provider.String(), coordinate.Owner, coordinate.Name)
}

// FileExists reports whether path exists in the working tree, for the
// hasFile push-test leaf.
func (r *Repository) FileExists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(r.dir, path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// FileContains reports whether any file matching glob (relative to
// the working tree root) contains a match for contentRegex, for the
// hasFileContaining push-test leaf.
func (r *Repository) FileContains(_ context.Context, glob, contentRegex string) (bool, error) {
	re, err := regexp.Compile(contentRegex)
	if err != nil {
		return false, fmt.Errorf("gitsource: compiling content regex %q: %w", contentRegex, err)
	}

	matches, err := filepath.Glob(filepath.Join(r.dir, glob))
	if err != nil {
		return false, fmt.Errorf("gitsource: evaluating glob %q: %w", glob, err)
	}

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return false, fmt.Errorf("gitsource: reading %s: %w", path, err)
		}
		if re.Match(content) {
			return true, nil
		}
	}
	return false, nil
}
