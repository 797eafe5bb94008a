package core

import (
	"errors"
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestValidateFlagInput(t *testing.T) {
	tests := []struct {
		name       string
		input      FlagInput
		wantFields []string
	}{
		{name: "minimal", input: FlagInput{Key: "new_ui"}},
		{name: "full", input: FlagInput{Key: "new_ui", Enabled: true, RolloutPercentage: intPtr(50)}},
		{name: "rollout lower bound", input: FlagInput{Key: "a", RolloutPercentage: intPtr(0)}},
		{name: "rollout upper bound", input: FlagInput{Key: "a", RolloutPercentage: intPtr(100)}},
		{name: "key at max length", input: FlagInput{Key: strings.Repeat("k", MaxKeyLength)}},
		{name: "multibyte key at max length", input: FlagInput{Key: strings.Repeat("é", MaxKeyLength)}},
		{name: "empty key", input: FlagInput{Key: ""}, wantFields: []string{"key"}},
		{name: "blank key", input: FlagInput{Key: "   "}, wantFields: []string{"key"}},
		{name: "key too long", input: FlagInput{Key: strings.Repeat("k", MaxKeyLength+1)}, wantFields: []string{"key"}},
		{name: "rollout above range", input: FlagInput{Key: "a", RolloutPercentage: intPtr(150)}, wantFields: []string{"rolloutPercentage"}},
		{name: "rollout below range", input: FlagInput{Key: "a", RolloutPercentage: intPtr(-1)}, wantFields: []string{"rolloutPercentage"}},
		{name: "both invalid", input: FlagInput{RolloutPercentage: intPtr(101)}, wantFields: []string{"key", "rolloutPercentage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFlagInput(tt.input)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateFlagInput() error = %v, want nil", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("ValidateFlagInput() error = %v, want *ValidationError", err)
			}
			if len(vErr.Fields) != len(tt.wantFields) {
				t.Fatalf("Fields = %v, want keys %v", vErr.Fields, tt.wantFields)
			}
			for _, field := range tt.wantFields {
				if _, ok := vErr.Fields[field]; !ok {
					t.Fatalf("Fields = %v, missing %q", vErr.Fields, field)
				}
			}
		})
	}
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"rolloutPercentage": "must be between 0 and 100",
		"key":               "is required",
	}}

	want := "invalid flag: key: is required; rolloutPercentage: must be between 0 and 100"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	var empty *ValidationError
	if got := empty.Error(); got != "invalid flag" {
		t.Fatalf("nil Error() = %q, want %q", got, "invalid flag")
	}
}

func TestFlagInputApplyReplacesAllMutableFields(t *testing.T) {
	desc := "old"
	existing := Flag{Key: "old", Description: &desc, Enabled: true, RolloutPercentage: intPtr(10)}

	updated := FlagInput{Key: "new"}.Apply(existing)

	if updated.Key != "new" {
		t.Fatalf("Key = %q, want %q", updated.Key, "new")
	}
	if updated.Description != nil || updated.RolloutPercentage != nil || updated.Enabled {
		t.Fatalf("Apply() = %+v, want nil description/rollout and disabled", updated)
	}
	if updated.ID != existing.ID {
		t.Fatalf("ID changed from %s to %s", existing.ID, updated.ID)
	}
}
