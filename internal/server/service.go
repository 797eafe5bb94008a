package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/matt-riley/switchboard/internal/core"
	"github.com/matt-riley/switchboard/internal/health"
	"github.com/matt-riley/switchboard/internal/service"
)

type Service interface {
	CreateFlag(ctx context.Context, in core.FlagInput) (core.Flag, error)
	ListFlags(ctx context.Context) ([]core.Flag, error)
	GetFlag(ctx context.Context, id uuid.UUID) (core.Flag, error)
	UpdateFlag(ctx context.Context, id uuid.UUID, in core.FlagInput) (core.Flag, error)
	DeleteFlag(ctx context.Context, id uuid.UUID) error
}

// Checker evaluates dependency health for the readiness and status probes.
type Checker interface {
	Check(ctx context.Context) health.Report
}

var (
	_ Service = (*service.Service)(nil)
	_ Checker = (*health.Checker)(nil)
)
