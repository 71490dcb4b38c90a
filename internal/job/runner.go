// Package job implements the automation engine: a shared per-tenant batch
// runner plus the individual jobs built on it. Every job is stateless,
// idempotent, and returns the uniform domain.JobRunResult.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"retailpos-backend/internal/domain"
)

// ErrBadParams marks a setup failure: the invocation is rejected before any
// entity loop starts. Handlers map it to 400.
var ErrBadParams = errors.New("invalid job parameters")

// ErrUnknownTenant is a setup failure for an explicit tenant that does not
// exist or is inactive.
var ErrUnknownTenant = errors.New("unknown tenant")

// TenantLister resolves the fan-out set for jobs called without a tenant.
type TenantLister interface {
	ListActiveIDs(ctx context.Context) ([]int64, error)
	Exists(ctx context.Context, tenantID int64) (bool, error)
}

// Locker serializes one job per tenant across processes. A nil Locker
// disables locking.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// TenantOutcome is what one tenant's pass contributes to the aggregate.
type TenantOutcome struct {
	Processed int
	Failed    int
	Errors    []string
}

// TenantFunc runs one job for one tenant. A non-nil error is a tenant-level
// failure (timeout, dead connection); it is folded into the aggregate and
// never aborts the remaining tenants.
type TenantFunc func(ctx context.Context, tenantID int64) (TenantOutcome, error)

// Runner owns tenant fan-out, failure isolation, run locking, and result
// aggregation for every job.
type Runner struct {
	Tenants TenantLister
	Locks   Locker
	LockTTL time.Duration
	Logger  *slog.Logger
}

// Run executes fn for the explicit tenant, or for all active tenants when
// tenantID is nil. One tenant's error never blocks the others.
func (r *Runner) Run(ctx context.Context, jobName string, tenantID *int64, fn TenantFunc) (domain.JobRunResult, error) {
	tenants, err := r.resolveTenants(ctx, tenantID)
	if err != nil {
		return domain.JobRunResult{}, err
	}

	res := domain.JobRunResult{Success: true, Errors: []string{}}
	for _, id := range tenants {
		out := r.runTenant(ctx, jobName, id, fn)
		res.Processed += out.Processed
		res.Failed += out.Failed
		res.Errors = append(res.Errors, out.Errors...)
	}
	res.Message = fmt.Sprintf("%s: processed %d, failed %d across %d tenant(s)", jobName, res.Processed, res.Failed, len(tenants))

	status := "ok"
	if res.Failed > 0 {
		status = "partial"
	}
	jobRuns.WithLabelValues(jobName, status).Inc()
	jobEntities.WithLabelValues(jobName).Add(float64(res.Processed))
	return res, nil
}

func (r *Runner) resolveTenants(ctx context.Context, tenantID *int64) ([]int64, error) {
	if tenantID != nil {
		ok, err := r.Tenants.Exists(ctx, *tenantID)
		if err != nil {
			return nil, fmt.Errorf("resolve tenant: %w", err)
		}
		if !ok {
			return nil, ErrUnknownTenant
		}
		return []int64{*tenantID}, nil
	}
	ids, err := r.Tenants.ListActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return ids, nil
}

func (r *Runner) runTenant(ctx context.Context, jobName string, tenantID int64, fn TenantFunc) TenantOutcome {
	if r.Locks != nil {
		key := fmt.Sprintf("joblock:%s:%d", jobName, tenantID)
		ttl := r.LockTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		ok, err := r.Locks.Acquire(ctx, key, ttl)
		if err != nil {
			r.Logger.Warn("job lock unavailable, running unlocked", "job", jobName, "tenant", tenantID, "err", err)
		} else if !ok {
			r.Logger.Info("job already running for tenant, skipping", "job", jobName, "tenant", tenantID)
			return TenantOutcome{}
		} else {
			defer func() {
				if err := r.Locks.Release(ctx, key); err != nil {
					r.Logger.Warn("job lock release failed", "job", jobName, "tenant", tenantID, "err", err)
				}
			}()
		}
	}

	out, err := safeRunTenant(ctx, tenantID, fn)
	if err != nil {
		r.Logger.Error("tenant run failed", "job", jobName, "tenant", tenantID, "err", err)
		out.Failed++
		out.Errors = append(out.Errors, fmt.Sprintf("tenant %d: %v", tenantID, err))
	}
	return out
}

// safeRunTenant shields the loop from a panicking job implementation; the
// tenant is reported failed like any other tenant-level error.
func safeRunTenant(ctx context.Context, tenantID int64, fn TenantFunc) (out TenantOutcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx, tenantID)
}
