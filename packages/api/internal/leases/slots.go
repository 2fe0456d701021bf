package leases

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
	"github.com/sandbox-pool/infra/packages/shared/pkg/telemetry"
)

const (
	slotNamespace     = "lease-slots"
	slotSchemaVersion = 1

	// orphanSlotGrace is how long a slot may point at a lease that was never written.
	orphanSlotGrace = time.Minute
)

// slot is one of a user's MaxLeasesPerUser open-lease places for a template.
// Creating it is the atomic part of the lease limit.
type slot struct {
	UserEmail    string `json:"userEmail"`
	TemplateUUID string `json:"templateUuid"`
	Index        int    `json:"index"`
	LeaseUUID    string `json:"leaseUuid"`

	store.Meta `json:"meta"`
}

func (s *slot) RecordKey() store.Key {
	return store.NewCompositeKey(s.UserEmail+"#"+s.TemplateUUID, strconv.Itoa(s.Index))
}

func (s *slot) leaseKey() store.Key {
	return store.NewCompositeKey(s.UserEmail, s.LeaseUUID)
}

// reserveSlot takes the first free slot below limit for the lease. A slot whose
// lease ended, or never got written, is reclaimed on the way.
func (r *Registry) reserveSlot(ctx context.Context, email, templateUUID, leaseUUID string, limit int) (*slot, error) {
	for index := range limit {
		candidate := &slot{UserEmail: email, TemplateUUID: templateUUID, Index: index, LeaseUUID: leaseUUID}

		reserved, err := r.tryReserve(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve lease slot: %w", err)
		}

		if reserved {
			return candidate, nil
		}
	}

	return nil, fmt.Errorf("%s already holds %d open leases: %w", email, limit, ErrLeaseLimitReached)
}

func (r *Registry) tryReserve(ctx context.Context, candidate *slot) (bool, error) {
	// One reclaim per index, the second round only retries the create.
	for range 2 {
		err := r.slots.Create(ctx, candidate)
		if err == nil {
			return true, nil
		}

		if !store.IsAlreadyExists(err) {
			return false, err
		}

		held, err := r.slots.Get(ctx, candidate.RecordKey())
		if store.IsNotFound(err) {
			continue
		}

		if err != nil {
			return false, err
		}

		stale, err := r.slotIsStale(ctx, held)
		if err != nil || !stale {
			return false, err
		}

		err = r.slots.DeleteWithVersionCheck(ctx, held)
		if err != nil && !store.IsConflict(err) && !store.IsNotFound(err) {
			return false, err
		}
	}

	return false, nil
}

func (r *Registry) slotIsStale(ctx context.Context, held *slot) (bool, error) {
	lease, err := r.table.Get(ctx, held.leaseKey())
	if store.IsNotFound(err) {
		return r.now().Sub(held.CreatedTime) > orphanSlotGrace, nil
	}

	if err != nil {
		return false, err
	}

	return !lease.Status.Open(), nil
}

// releaseSlot frees the slot of a lease that reached a terminal status. A
// failure only delays the slot until the next reservation reclaims it.
func (r *Registry) releaseSlot(ctx context.Context, lease *Lease) {
	held, err := r.slots.ListAll(ctx, func(s *slot) bool {
		return s.UserEmail == lease.UserEmail && s.LeaseUUID == lease.UUID
	})
	if err == nil {
		for _, s := range held {
			if err = r.slots.DeleteWithVersionCheck(ctx, s); err != nil && !store.IsNotFound(err) {
				break
			}

			err = nil
		}
	}

	if err != nil {
		telemetry.ReportError(ctx, "failed to release lease slot", err, telemetry.WithLeaseID(lease.LeaseID()))

		return
	}

	logger.L().Debug(ctx, "lease slot released", logger.WithLeaseID(lease.LeaseID()))
}

func (r *Registry) dropSlot(ctx context.Context, s *slot) {
	if err := r.slots.Delete(ctx, s.RecordKey()); err != nil && !store.IsNotFound(err) {
		telemetry.ReportError(ctx, "failed to drop unused lease slot", err)
	}
}
