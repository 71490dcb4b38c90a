package job

import (
	"context"
	"fmt"

	"retailpos-backend/internal/domain"
)

type SyncStore interface {
	ListDirty(ctx context.Context, tenantID int64) ([]domain.SyncRecord, error)
	Resolve(ctx context.Context, tenantID int64, entityType string, entityID, winnerBranch int64) error
	CreateConflict(ctx context.Context, tenantID int64, entityType string, entityID int64, branchIDs []int64) (bool, error)
}

type SettingsReader interface {
	Get(ctx context.Context, tenantID int64) (*domain.TenantSettings, error)
}

type SyncParams struct {
	TenantID *int64
	// Policy overrides the tenant setting when non-empty.
	Policy domain.ConflictPolicy
}

// SyncJob reconciles dirty branch records per entity. Under last-write-wins
// the record with the latest updatedAt wins; equal timestamps break toward
// the lower branch ID so repeated runs pick the same winner. Under the
// manual policy a divergence leaves a conflict record instead.
type SyncJob struct {
	Runner   *Runner
	Records  SyncStore
	Settings SettingsReader
	Audit    AuditWriter
}

func (j SyncJob) Run(ctx context.Context, p SyncParams) (domain.JobRunResult, error) {
	if p.Policy != "" && p.Policy != domain.ConflictLastWriteWins && p.Policy != domain.ConflictManual {
		return domain.JobRunResult{}, fmt.Errorf("%w: unknown conflict policy %q", ErrBadParams, p.Policy)
	}

	return j.Runner.Run(ctx, "branch-sync", p.TenantID, func(ctx context.Context, tenantID int64) (TenantOutcome, error) {
		var out TenantOutcome

		policy := p.Policy
		if policy == "" {
			settings, err := j.Settings.Get(ctx, tenantID)
			if err != nil {
				return out, fmt.Errorf("load tenant settings: %w", err)
			}
			policy = settings.ConflictPolicy
		}

		dirty, err := j.Records.ListDirty(ctx, tenantID)
		if err != nil {
			return out, fmt.Errorf("list dirty records: %w", err)
		}

		for _, group := range groupRecords(dirty) {
			if !diverged(group) {
				// All branches agree; just clear the dirty flags.
				winner := pickWinner(group)
				if err := j.Records.Resolve(ctx, tenantID, winner.EntityType, winner.EntityID, winner.BranchID); err != nil {
					out.Failed++
					out.Errors = append(out.Errors, fmt.Sprintf("%s %d: %v", winner.EntityType, winner.EntityID, err))
					continue
				}
				out.Processed++
				continue
			}

			switch policy {
			case domain.ConflictManual:
				branchIDs := make([]int64, 0, len(group))
				for _, rec := range group {
					branchIDs = append(branchIDs, rec.BranchID)
				}
				created, err := j.Records.CreateConflict(ctx, tenantID, group[0].EntityType, group[0].EntityID, branchIDs)
				if err != nil {
					out.Failed++
					out.Errors = append(out.Errors, fmt.Sprintf("%s %d: %v", group[0].EntityType, group[0].EntityID, err))
					continue
				}
				if created {
					out.Processed++
				}
			default: // last-write-wins
				winner := pickWinner(group)
				if err := j.Records.Resolve(ctx, tenantID, winner.EntityType, winner.EntityID, winner.BranchID); err != nil {
					out.Failed++
					out.Errors = append(out.Errors, fmt.Sprintf("%s %d: %v", winner.EntityType, winner.EntityID, err))
					continue
				}
				out.Processed++
				j.Audit.Write(ctx, tenantID, "branch_sync_merged", winner.EntityType, winner.EntityID, map[string]any{
					"winnerBranch": winner.BranchID,
					"updatedAt":    winner.UpdatedAt,
				})
			}
		}
		return out, nil
	})
}

// groupRecords buckets dirty records per entity, preserving the store's
// stable ordering inside each group.
func groupRecords(records []domain.SyncRecord) [][]domain.SyncRecord {
	var groups [][]domain.SyncRecord
	index := make(map[string]int)
	for _, rec := range records {
		key := fmt.Sprintf("%s:%d", rec.EntityType, rec.EntityID)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], rec)
	}
	return groups
}

func diverged(group []domain.SyncRecord) bool {
	for _, rec := range group[1:] {
		if rec.Checksum != group[0].Checksum {
			return true
		}
	}
	return false
}

// pickWinner returns the latest record; ties break toward the lower branch
// ID so the outcome is deterministic.
func pickWinner(group []domain.SyncRecord) domain.SyncRecord {
	winner := group[0]
	for _, rec := range group[1:] {
		if rec.UpdatedAt.After(winner.UpdatedAt) {
			winner = rec
			continue
		}
		if rec.UpdatedAt.Equal(winner.UpdatedAt) && rec.BranchID < winner.BranchID {
			winner = rec
		}
	}
	return winner
}
