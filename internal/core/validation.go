package core

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ValidationError reports every field of a FlagInput that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "invalid flag"
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid flag: " + strings.Join(parts, "; ")
}

// ValidateFlagInput checks the key and rollout constraints. It returns nil or
// a *ValidationError.
func ValidateFlagInput(in FlagInput) error {
	fields := make(map[string]string)

	switch {
	case strings.TrimSpace(in.Key) == "":
		fields["key"] = "is required"
	case utf8.RuneCountInString(in.Key) > MaxKeyLength:
		fields["key"] = fmt.Sprintf("must be at most %d characters", MaxKeyLength)
	}

	if p := in.RolloutPercentage; p != nil && (*p < MinRolloutPercentage || *p > MaxRolloutPercentage) {
		fields["rolloutPercentage"] = fmt.Sprintf("must be between %d and %d", MinRolloutPercentage, MaxRolloutPercentage)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
