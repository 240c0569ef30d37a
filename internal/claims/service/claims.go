package service

import (
	"context"
	"errors"

	"escena/internal/claims/models"
	id "escena/pkg/domain"
	dErrors "escena/pkg/domain-errors"
	audit "escena/pkg/platform/audit"
	"escena/pkg/platform/sentinel"
	"escena/pkg/requestcontext"
)

// CreateClaimRequest carries a claimant's submission.
type CreateClaimRequest struct {
	Target      models.EntityRef
	Message     string
	Images      *models.ImageSet
	ImageChoice models.ImageChoice
}

// CreateClaim files a PENDING_CLAIM for claimant. Eligibility is re-checked in the
// same transaction as the insert and the store's uniqueness constraint closes the
// remaining race between two concurrent submissions.
func (s *Service) CreateClaim(ctx context.Context, claimant id.UserID, req CreateClaimRequest) (*models.ProfileClaim, error) {
	claim, err := models.NewProfileClaim(id.NewClaimID(), claimant, req.Target, req.Message, req.Images, req.ImageChoice, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(store Store) error {
		if err := checkEligibility(ctx, store, claimant, req.Target); err != nil {
			return err
		}
		if err := store.CreateClaim(ctx, claim); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return models.ErrDuplicatePendingClaim
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create claim")
		}
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "failed to create claim")
	}

	s.logAudit(ctx, audit.EventClaimSubmitted, audit.Event{
		UserID:  claimant,
		Subject: req.Target.String(),
	},
		"claim_id", claim.ID.String(),
		"user_id", claimant.String(),
		"entity", req.Target.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementClaimsCreated()
	}
	return claim, nil
}
