package core

import "github.com/google/uuid"

const (
	MaxKeyLength         = 100
	MinRolloutPercentage = 0
	MaxRolloutPercentage = 100
)

// Flag is a stored feature flag. Description and RolloutPercentage are
// nullable; nil means the value was never set.
type Flag struct {
	ID                uuid.UUID `json:"id"`
	Key               string    `json:"key"`
	Description       *string   `json:"description"`
	Enabled           bool      `json:"enabled"`
	RolloutPercentage *int      `json:"rolloutPercentage"`
}

// FlagInput carries the caller-supplied fields for a create or a full
// replacement update.
type FlagInput struct {
	Key               string
	Description       *string
	Enabled           bool
	RolloutPercentage *int
}

// Apply returns a copy of f with every mutable field replaced by in.
func (in FlagInput) Apply(f Flag) Flag {
	f.Key = in.Key
	f.Description = in.Description
	f.Enabled = in.Enabled
	f.RolloutPercentage = in.RolloutPercentage
	return f
}
