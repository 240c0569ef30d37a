package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"escena/internal/claims/models"
	id "escena/pkg/domain"
	dErrors "escena/pkg/domain-errors"
	audit "escena/pkg/platform/audit"
	"escena/pkg/requestcontext"
)

// ApproveClaim transfers ownership of the claimed profile to the claimant.
//
// All writes run in one transaction with the claim and profile rows locked:
// the profile takes the claimant as owner with merged images, the claimant
// gets the profile's role, orphan events of a venue or festival follow the
// profile, and the claim becomes APPROVED. The claimant is emailed after commit.
func (s *Service) ApproveClaim(ctx context.Context, claimID id.ClaimID, admin id.UserID) (entity *models.Entity, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "claims.ApproveClaim",
		trace.WithAttributes(attribute.String("claim.id", claimID.String())))
	defer func() {
		endSpan(span, err)
		s.recordDecision("approve_claim", start, err)
	}()

	now := requestcontext.Now(ctx)
	var (
		claim    *models.ProfileClaim
		claimant *models.User
		moved    int
	)
	err = s.tx.RunInTx(ctx, func(store Store) error {
		c, err := store.FindClaim(ctx, claimID)
		if err != nil {
			return wrapClaimErr(err)
		}
		if err := c.CanProcess(); err != nil {
			return err
		}

		e, err := store.FindEntity(ctx, c.Target)
		if err != nil {
			return wrapEntityErr(err)
		}
		if err := e.CanBeClaimed(); err != nil {
			return err
		}

		u, err := store.FindUserByID(ctx, c.ClaimantID)
		if err != nil {
			return wrapUserErr(err)
		}

		merged := models.MergeImages(e.Images, c.Images, c.ImageChoice)
		e.ApplyClaim(u.ID, admin, merged, now)
		if err := e.CheckInvariants(); err != nil {
			return err
		}
		if err := store.UpdateEntity(ctx, e); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
		}

		if u.Role != models.RoleAdmin {
			if err := store.UpdateUserRole(ctx, u.ID, e.Ref.Type.OwnerRole()); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user role")
			}
		}

		if e.Ref.Type.HasDependentEvents() {
			moved, err = store.ReassignOrphanEvents(ctx, e.Ref, u.ID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reassign events")
			}
		}

		c.ApplyApproval(admin, now)
		if err := store.UpdateClaim(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update claim")
		}

		claim, entity, claimant = c, e, u
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "failed to approve claim")
	}

	s.logAudit(ctx, audit.EventClaimApproved, audit.Event{
		UserID:   claimant.ID,
		ActorID:  admin.String(),
		Subject:  entity.Ref.String(),
		Decision: string(models.ClaimStatusApproved),
	},
		"claim_id", claim.ID.String(),
		"user_id", claimant.ID.String(),
		"admin_id", admin.String(),
		"entity", entity.Ref.String(),
		"events_reassigned", moved,
	)
	s.notify(ctx, "claim_approved", func(ctx context.Context) error {
		return s.notifier.SendClaimApproved(ctx, claim.ID.String(), claimant.Email, entity.Name, entity.Ref.Type.String())
	})
	return entity, nil
}

// RejectClaim closes a pending claim without touching the profile. The
// claimant is emailed the reason after commit.
func (s *Service) RejectClaim(ctx context.Context, claimID id.ClaimID, admin id.UserID, reason string) (err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "claims.RejectClaim",
		trace.WithAttributes(attribute.String("claim.id", claimID.String())))
	defer func() {
		endSpan(span, err)
		s.recordDecision("reject_claim", start, err)
	}()

	now := requestcontext.Now(ctx)
	var (
		claim      *models.ProfileClaim
		claimant   *models.User
		entityName string
	)
	err = s.tx.RunInTx(ctx, func(store Store) error {
		c, err := store.FindClaim(ctx, claimID)
		if err != nil {
			return wrapClaimErr(err)
		}
		if err := c.CanProcess(); err != nil {
			return err
		}

		c.ApplyRejection(admin, reason, now)
		if err := store.UpdateClaim(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update claim")
		}

		// recipient and profile name for the email; a missing row only skips it
		if u, err := store.FindUserByID(ctx, c.ClaimantID); err == nil {
			claimant = u
		}
		if e, err := store.FindEntity(ctx, c.Target); err == nil {
			entityName = e.Name
		}
		claim = c
		return nil
	})
	if err != nil {
		return passThrough(err, "failed to reject claim")
	}

	s.logAudit(ctx, audit.EventClaimRejected, audit.Event{
		UserID:   claim.ClaimantID,
		ActorID:  admin.String(),
		Subject:  claim.Target.String(),
		Decision: string(models.ClaimStatusRejected),
		Reason:   claim.RejectionReason,
	},
		"claim_id", claim.ID.String(),
		"user_id", claim.ClaimantID.String(),
		"admin_id", admin.String(),
		"entity", claim.Target.String(),
	)
	if claimant != nil {
		s.notify(ctx, "claim_rejected", func(ctx context.Context) error {
			return s.notifier.SendClaimRejected(ctx, claim.ID.String(), claimant.Email, entityName, claim.Target.Type.String(), claim.RejectionReason)
		})
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
