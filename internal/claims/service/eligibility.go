package service

import (
	"context"

	"escena/internal/claims/models"
	id "escena/pkg/domain"
	dErrors "escena/pkg/domain-errors"
)

// CheckClaimEligibility reports whether claimant may file a claim on ref. It has
// no side effects; CreateClaim runs it again inside the insert transaction.
//
// Order of checks: claimant exists, profile exists, profile unowned, no pending
// claim on the profile, claimant holds no profile of the same type. The only
// row locked is the profile's; approvals lock the claimant after it.
func (s *Service) CheckClaimEligibility(ctx context.Context, claimant id.UserID, ref models.EntityRef) error {
	return s.view(ctx, func(store Store) error {
		return checkEligibility(ctx, store, claimant, ref)
	})
}

func checkEligibility(ctx context.Context, store Store, claimant id.UserID, ref models.EntityRef) error {
	if !ref.Type.IsClaimable() {
		return dErrors.New(dErrors.CodeValidation, "este tipo de perfil no se puede reclamar")
	}
	exists, err := store.UserExists(ctx, claimant)
	if err != nil {
		return wrapUserErr(err)
	}
	if !exists {
		return models.ErrUserNotFound
	}

	entity, err := store.FindEntity(ctx, ref)
	if err != nil {
		return wrapEntityErr(err)
	}
	if err := entity.CanBeClaimed(); err != nil {
		return err
	}

	pending, err := store.HasPendingClaim(ctx, ref)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pending claims")
	}
	if pending {
		return models.ErrDuplicatePendingClaim
	}

	owns, err := store.OwnsProfileOfType(ctx, claimant, ref.Type)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing profiles")
	}
	if owns {
		return models.ErrDuplicateProfile
	}
	return nil
}
