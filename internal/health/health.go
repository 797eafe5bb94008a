// Package health evaluates the reachability of external dependencies and
// reduces the outcomes into a single report.
//
// Probes never panic out of [Checker.Check] and never return errors: every
// failure is folded into an unhealthy [Result].
package health

import (
	"context"
	"fmt"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	DependencyDatabase      = "database"
	DependencyObjectStorage = "object_storage"
)

// Result is the outcome of a single probe evaluation.
type Result struct {
	Healthy bool
	Err     error
	Latency time.Duration
}

// Status renders the result as "healthy" or "unhealthy".
func (r Result) Status() string {
	return statusString(r.Healthy)
}

// Probe checks one external dependency.
type Probe interface {
	Name() string
	Check(ctx context.Context) Result
}

// Pinger is satisfied by *pgxpool.Pool and the flag repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BucketLister is satisfied by *storage.Client.
type BucketLister interface {
	ListBuckets(ctx context.Context) ([]string, error)
}

// DatabaseProbe reports the database healthy when a ping round trip succeeds.
func DatabaseProbe(db Pinger) Probe {
	return probeFunc{
		name: DependencyDatabase,
		check: func(ctx context.Context) error {
			if db == nil {
				return fmt.Errorf("database client is not configured")
			}
			return db.Ping(ctx)
		},
	}
}

// ObjectStorageProbe reports object storage healthy when listing buckets
// succeeds. An empty listing is healthy.
func ObjectStorageProbe(store BucketLister) Probe {
	return probeFunc{
		name: DependencyObjectStorage,
		check: func(ctx context.Context) error {
			if store == nil {
				return fmt.Errorf("object storage client is not configured")
			}
			_, err := store.ListBuckets(ctx)
			return err
		},
	}
}

// NewProbe adapts a plain check function into a Probe.
func NewProbe(name string, check func(ctx context.Context) error) Probe {
	return probeFunc{name: name, check: check}
}

type probeFunc struct {
	name  string
	check func(ctx context.Context) error
}

func (p probeFunc) Name() string { return p.name }

func (p probeFunc) Check(ctx context.Context) (result Result) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = Result{Err: fmt.Errorf("probe %s panicked: %v", p.name, rec)}
		}
		result.Latency = time.Since(start)
	}()

	if err := p.check(ctx); err != nil {
		return Result{Err: err}
	}
	return Result{Healthy: true}
}

func statusString(healthy bool) string {
	if healthy {
		return StatusHealthy
	}
	return StatusUnhealthy
}
