// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "testing"

func TestParseSHA(t *testing.T) {
	valid := "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"
	sha, err := ParseSHA(valid)
	if err != nil {
		t.Fatalf("ParseSHA(%q) returned error: %v", valid, err)
	}
	if sha.String() != valid {
		t.Errorf("String() = %q, want %q", sha.String(), valid)
	}
	if sha.Short() != valid[:7] {
		t.Errorf("Short() = %q, want %q", sha.Short(), valid[:7])
	}

	cases := []string{
		"",
		"abc",
		"A1B2C3D4E5F6A1B2C3D4E5F6A1B2C3D4E5F6A1B2", // uppercase not allowed
		"g1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2", // 'g' not hex
	}
	for _, c := range cases {
		if _, err := ParseSHA(c); err == nil {
			t.Errorf("ParseSHA(%q) should have failed", c)
		}
	}
}

func TestSHAZeroValue(t *testing.T) {
	var sha SHA
	if !sha.IsZero() {
		t.Error("zero-value SHA should report IsZero() == true")
	}
	data, err := sha.MarshalText()
	if err != nil || data != nil {
		t.Errorf("zero-value SHA.MarshalText() = (%v, %v), want (nil, nil)", data, err)
	}
}

func TestGoalSetIDRoundTrip(t *testing.T) {
	id := NewGoalSetID()
	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var parsed GoalSetID
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed != id {
		t.Errorf("round trip mismatch: got %v, want %v", parsed, id)
	}
}

func TestGoalSetIDZeroValue(t *testing.T) {
	var id GoalSetID
	if !id.IsZero() {
		t.Error("zero-value GoalSetID should report IsZero() == true")
	}
}

func TestUniqueNameValidation(t *testing.T) {
	if _, err := ParseUniqueName(""); err == nil {
		t.Error("empty unique name should fail")
	}
	if _, err := ParseUniqueName("has space"); err == nil {
		t.Error("unique name with whitespace should fail")
	}
	n, err := ParseUniqueName("npm-build")
	if err != nil {
		t.Fatalf("ParseUniqueName: %v", err)
	}
	if n.String() != "npm-build" {
		t.Errorf("String() = %q, want %q", n.String(), "npm-build")
	}
}

func TestRepoCoordinateEqual(t *testing.T) {
	provider := MustParseProviderID("github-app-1")
	a, err := NewRepoCoordinate(provider, "atomist", "sdmcore")
	if err != nil {
		t.Fatalf("NewRepoCoordinate: %v", err)
	}
	b, err := NewRepoCoordinate(provider, "atomist", "sdmcore")
	if err != nil {
		t.Fatalf("NewRepoCoordinate: %v", err)
	}
	if !a.Equal(b) {
		t.Error("identical repo coordinates should be Equal")
	}

	other, err := NewRepoCoordinate(provider, "atomist", "other-repo")
	if err != nil {
		t.Fatalf("NewRepoCoordinate: %v", err)
	}
	if a.Equal(other) {
		t.Error("different repo names should not be Equal")
	}
}

func TestRecordIDRoundTrip(t *testing.T) {
	id, err := ParseRecordID("rec-12345")
	if err != nil {
		t.Fatalf("ParseRecordID: %v", err)
	}
	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var parsed RecordID
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed != id {
		t.Errorf("round trip mismatch: got %v, want %v", parsed, id)
	}
}
