package experiment

import (
	"testing"

	"anchortest/domain/core"
)

func TestManifestFingerprint_Deterministic(t *testing.T) {
	a := NewManifest("e1", "grid", core.Hash("plan"), 1, 0, 5, 0.1, "1.0.0")
	b := NewManifest("e2", "other name", core.Hash("plan"), 1, 0, 5, 0.1, "1.0.0")

	if a.Fingerprint != b.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", a.Fingerprint, b.Fingerprint)
	}
	if a.Fingerprint.IsEmpty() {
		t.Errorf("Fingerprint not computed")
	}
}

func TestManifestFingerprint_Unique(t *testing.T) {
	base := NewManifest("e", "grid", core.Hash("plan"), 1, 0, 5, 0.1, "1.0.0")

	testCases := []struct {
		name string
		m    *Manifest
	}{
		{"different plan", NewManifest("e", "grid", core.Hash("plan2"), 1, 0, 5, 0.1, "1.0.0")},
		{"different seed", NewManifest("e", "grid", core.Hash("plan"), 2, 0, 5, 0.1, "1.0.0")},
		{"different bootstrap seed", NewManifest("e", "grid", core.Hash("plan"), 1, 7, 5, 0.1, "1.0.0")},
		{"different retries", NewManifest("e", "grid", core.Hash("plan"), 1, 0, 3, 0.1, "1.0.0")},
		{"different threshold", NewManifest("e", "grid", core.Hash("plan"), 1, 0, 5, 0.2, "1.0.0")},
		{"different code", NewManifest("e", "grid", core.Hash("plan"), 1, 0, 5, 0.1, "1.1.0")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.m.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint should be different for %s", tc.name)
			}
		})
	}
}

func TestManifestValidate(t *testing.T) {
	if err := NewManifest("e", "grid", core.Hash("plan"), 1, 0, 5, 0.1, "1.0.0").Validate(); err != nil {
		t.Errorf("Manifest validation failed: %v", err)
	}
	if err := NewManifest("", "grid", core.Hash("plan"), 1, 0, 5, 0.1, "1.0.0").Validate(); err == nil {
		t.Errorf("expected error for empty experiment id")
	}
	if err := NewManifest("e", "grid", "", 1, 0, 5, 0.1, "1.0.0").Validate(); err == nil {
		t.Errorf("expected error for empty plan hash")
	}
}
