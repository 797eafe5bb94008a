// Package switchboard provides client interfaces and domain types for the
// switchboard feature flag and status services.
//
// Use the http sub-package to create a client:
//
//	import switchboardhttp "github.com/matt-riley/switchboard/clients/go/http"
package switchboard

import "context"

// FlagManager covers CRUD operations on feature flags.
type FlagManager interface {
	CreateFlag(ctx context.Context, in FlagInput) (Flag, error)
	GetFlag(ctx context.Context, id string) (Flag, error)
	ListFlags(ctx context.Context) ([]Flag, error)
	UpdateFlag(ctx context.Context, id string, in FlagInput) (Flag, error)
	DeleteFlag(ctx context.Context, id string) error
}

// StatusReader covers the probe endpoints shared by both services.
type StatusReader interface {
	Health(ctx context.Context) error
	Ready(ctx context.Context) (Status, error)
	Status(ctx context.Context) (Status, error)
}

// Flag is a stored feature flag. Nil pointers mean the field was never set.
type Flag struct {
	ID                string
	Key               string
	Description       *string
	Enabled           bool
	RolloutPercentage *int
}

// FlagInput is the body of a create or full-replacement update.
type FlagInput struct {
	Key               string
	Description       *string
	Enabled           bool
	RolloutPercentage *int
}

// Status is a dependency report. Dependencies maps a dependency name such as
// "database" or "object_storage" to "healthy" or "unhealthy".
type Status struct {
	Status       string
	Dependencies map[string]string
}

// Healthy reports whether the overall status is "healthy".
func (s Status) Healthy() bool {
	return s.Status == "healthy"
}
