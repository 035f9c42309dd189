// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// ProviderID identifies the source-control resource provider hosting
// a repository (e.g. a specific GitHub App installation or GitLab
// instance). Opaque outside this core — push tests compare it for
// equality only (the hasResourceProvider leaf).
type ProviderID struct {
	id string
}

// ParseProviderID validates and wraps a raw provider id.
func ParseProviderID(raw string) (ProviderID, error) {
	if raw == "" {
		return ProviderID{}, fmt.Errorf("provider id is empty")
	}
	return ProviderID{id: raw}, nil
}

// MustParseProviderID is like ParseProviderID but panics on error.
func MustParseProviderID(raw string) ProviderID {
	p, err := ParseProviderID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseProviderID(%q): %v", raw, err))
	}
	return p
}

// String returns the provider id.
func (p ProviderID) String() string { return p.id }

// IsZero reports whether the ProviderID is unset.
func (p ProviderID) IsZero() bool { return p.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (p ProviderID) MarshalText() ([]byte, error) { return []byte(p.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ProviderID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*p = ProviderID{}
		return nil
	}
	parsed, err := ParseProviderID(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// RepoCoordinate identifies a repository within a resource provider:
// owner and name, plus the provider that hosts it. Two repositories
// with the same owner/name under different providers are distinct
// (a push-test "isRepo" match requires all three to agree).
type RepoCoordinate struct {
	Provider ProviderID
	Owner    string
	Name     string
}

// NewRepoCoordinate validates and constructs a RepoCoordinate.
func NewRepoCoordinate(provider ProviderID, owner, name string) (RepoCoordinate, error) {
	if provider.IsZero() {
		return RepoCoordinate{}, fmt.Errorf("repo coordinate: provider is zero-value")
	}
	if owner == "" {
		return RepoCoordinate{}, fmt.Errorf("repo coordinate: owner is empty")
	}
	if name == "" {
		return RepoCoordinate{}, fmt.Errorf("repo coordinate: name is empty")
	}
	return RepoCoordinate{Provider: provider, Owner: owner, Name: name}, nil
}

// String renders "owner/name@provider" for logs and chat messages.
func (r RepoCoordinate) String() string {
	return r.Owner + "/" + r.Name + "@" + r.Provider.String()
}

// IsZero reports whether the RepoCoordinate is unset.
func (r RepoCoordinate) IsZero() bool { return r.Owner == "" && r.Name == "" }

// Equal reports whether two repo coordinates refer to the same
// repository under the same provider.
func (r RepoCoordinate) Equal(other RepoCoordinate) bool {
	return r.Provider == other.Provider && r.Owner == other.Owner && r.Name == other.Name
}

// WorkspaceID identifies the collaborating workspace (tenant) this
// SDM instance and its event bus operate within. Carried on every
// goal event so a multi-tenant bus implementation can route and
// authorize correctly; this core treats it as an opaque label.
type WorkspaceID struct {
	id string
}

// ParseWorkspaceID validates and wraps a raw workspace id.
func ParseWorkspaceID(raw string) (WorkspaceID, error) {
	if raw == "" {
		return WorkspaceID{}, fmt.Errorf("workspace id is empty")
	}
	return WorkspaceID{id: raw}, nil
}

// MustParseWorkspaceID is like ParseWorkspaceID but panics on error.
func MustParseWorkspaceID(raw string) WorkspaceID {
	w, err := ParseWorkspaceID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseWorkspaceID(%q): %v", raw, err))
	}
	return w
}

// String returns the workspace id.
func (w WorkspaceID) String() string { return w.id }

// IsZero reports whether the WorkspaceID is unset.
func (w WorkspaceID) IsZero() bool { return w.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (w WorkspaceID) MarshalText() ([]byte, error) { return []byte(w.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *WorkspaceID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*w = WorkspaceID{}
		return nil
	}
	parsed, err := ParseWorkspaceID(string(data))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
