package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/matt-riley/switchboard/internal/core"
	"github.com/matt-riley/switchboard/internal/repository"
)

const (
	OperationCreate = "create"
	OperationList   = "list"
	OperationGet    = "get"
	OperationUpdate = "update"
	OperationDelete = "delete"

	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultConflict = "conflict"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

var (
	ErrFlagNotFound    = errors.New("flag not found")
	ErrFlagKeyConflict = errors.New("flag key already exists")
	ErrInvalidFlag     = errors.New("invalid flag")
)

type Repository interface {
	CreateFlag(ctx context.Context, flag repository.Flag) (repository.Flag, error)
	UpdateFlag(ctx context.Context, flag repository.Flag) (repository.Flag, error)
	GetFlag(ctx context.Context, id uuid.UUID) (repository.Flag, error)
	ListFlags(ctx context.Context) ([]repository.Flag, error)
	DeleteFlag(ctx context.Context, id uuid.UUID) error
}

// OperationObserver receives the outcome of every flag operation.
type OperationObserver func(operation, result string)

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithOperationObserver(observe OperationObserver) Option {
	return func(s *Service) {
		s.observe = observe
	}
}

// WithIDGenerator replaces uuid.New for new flag ids.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

type Service struct {
	repo    Repository
	logger  *slog.Logger
	observe OperationObserver
	newID   func() uuid.UUID
}

func New(repo Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repository is nil")
	}

	svc := &Service{
		repo:   repo,
		logger: slog.Default(),
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

func (s *Service) CreateFlag(ctx context.Context, in core.FlagInput) (core.Flag, error) {
	if err := validate(in); err != nil {
		s.record(OperationCreate, err)
		return core.Flag{}, err
	}

	flag := in.Apply(core.Flag{ID: s.newID()})
	created, err := s.repo.CreateFlag(ctx, coreFlagToRepository(flag))
	if err != nil {
		err = s.translate(ctx, "create flag", err, slog.String("key", in.Key))
		s.record(OperationCreate, err)
		return core.Flag{}, err
	}

	s.record(OperationCreate, nil)
	s.logger.InfoContext(ctx, "feature flag created", "id", created.ID.String(), "key", created.Key)
	return repositoryFlagToCore(created), nil
}

func (s *Service) ListFlags(ctx context.Context) ([]core.Flag, error) {
	flags, err := s.repo.ListFlags(ctx)
	if err != nil {
		err = fmt.Errorf("list flags: %w", err)
		s.record(OperationList, err)
		return nil, err
	}

	result := make([]core.Flag, 0, len(flags))
	for _, flag := range flags {
		result = append(result, repositoryFlagToCore(flag))
	}

	s.record(OperationList, nil)
	return result, nil
}

func (s *Service) GetFlag(ctx context.Context, id uuid.UUID) (core.Flag, error) {
	flag, err := s.repo.GetFlag(ctx, id)
	if err != nil {
		err = s.translate(ctx, "get flag", err, slog.String("id", id.String()))
		s.record(OperationGet, err)
		return core.Flag{}, err
	}

	s.record(OperationGet, nil)
	return repositoryFlagToCore(flag), nil
}

func (s *Service) UpdateFlag(ctx context.Context, id uuid.UUID, in core.FlagInput) (core.Flag, error) {
	if err := validate(in); err != nil {
		s.record(OperationUpdate, err)
		return core.Flag{}, err
	}

	flag := in.Apply(core.Flag{ID: id})
	updated, err := s.repo.UpdateFlag(ctx, coreFlagToRepository(flag))
	if err != nil {
		err = s.translate(ctx, "update flag", err, slog.String("id", id.String()), slog.String("key", in.Key))
		s.record(OperationUpdate, err)
		return core.Flag{}, err
	}

	s.record(OperationUpdate, nil)
	s.logger.InfoContext(ctx, "feature flag updated", "id", updated.ID.String(), "key", updated.Key)
	return repositoryFlagToCore(updated), nil
}

func (s *Service) DeleteFlag(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteFlag(ctx, id); err != nil {
		err = s.translate(ctx, "delete flag", err, slog.String("id", id.String()))
		s.record(OperationDelete, err)
		return err
	}

	s.record(OperationDelete, nil)
	s.logger.InfoContext(ctx, "feature flag deleted", "id", id.String())
	return nil
}

func validate(in core.FlagInput) error {
	if err := core.ValidateFlagInput(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFlag, err)
	}
	return nil
}

// translate maps store errors onto the service's sentinel errors.
func (s *Service) translate(ctx context.Context, op string, err error, attrs ...slog.Attr) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		s.logger.LogAttrs(ctx, slog.LevelWarn, "feature flag not found", attrs...)
		return ErrFlagNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		s.logger.LogAttrs(ctx, slog.LevelWarn, "feature flag key already exists", attrs...)
		return ErrFlagKeyConflict
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Service) record(operation string, err error) {
	if s.observe == nil {
		return
	}
	s.observe(operation, resultOf(err))
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrFlagNotFound):
		return ResultNotFound
	case errors.Is(err, ErrFlagKeyConflict):
		return ResultConflict
	case errors.Is(err, ErrInvalidFlag):
		return ResultInvalid
	default:
		return ResultError
	}
}

func coreFlagToRepository(flag core.Flag) repository.Flag {
	return repository.Flag{
		ID:                flag.ID,
		Key:               flag.Key,
		Description:       flag.Description,
		Enabled:           flag.Enabled,
		RolloutPercentage: flag.RolloutPercentage,
	}
}

func repositoryFlagToCore(flag repository.Flag) core.Flag {
	return core.Flag{
		ID:                flag.ID,
		Key:               flag.Key,
		Description:       flag.Description,
		Enabled:           flag.Enabled,
		RolloutPercentage: flag.RolloutPercentage,
	}
}
