package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"escena/internal/claims/models"
	id "escena/pkg/domain"
	dErrors "escena/pkg/domain-errors"
	audit "escena/pkg/platform/audit"
	"escena/pkg/requestcontext"
)

// ApproveRegistration publishes a self-registered profile. Ownership and the
// registrant's role are left as they are.
func (s *Service) ApproveRegistration(ctx context.Context, ref models.EntityRef, admin id.UserID) (entity *models.Entity, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "claims.ApproveRegistration",
		trace.WithAttributes(attribute.String("entity", ref.String())))
	defer func() {
		endSpan(span, err)
		s.recordDecision("approve_registration", start, err)
	}()

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(store Store) error {
		e, err := store.FindEntity(ctx, ref)
		if err != nil {
			return wrapEntityErr(err)
		}
		if e.Approved {
			return dErrors.New(dErrors.CodeConflict, "este perfil ya está aprobado")
		}
		e.ApplyRegistrationApproval(admin, now)
		if err := store.UpdateEntity(ctx, e); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
		}
		entity = e
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "failed to approve registration")
	}

	entry := audit.Event{
		ActorID:  admin.String(),
		Subject:  ref.String(),
		Decision: "approved",
	}
	if entity.OwnerID != nil {
		entry.UserID = *entity.OwnerID
	}
	s.logAudit(ctx, audit.EventRegistrationApproved, entry,
		"admin_id", admin.String(),
		"entity", ref.String(),
	)
	return entity, nil
}

// RejectRegistration discards a self-registered profile that was never
// approved: the row is deleted and the registrant goes back to the plain user
// role in one transaction. The registrant is emailed only when a reason is given.
//
// This is not claim rejection: claims are closed with RejectClaim and never
// delete anything.
func (s *Service) RejectRegistration(ctx context.Context, ref models.EntityRef, admin id.UserID, reason string) (err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "claims.RejectRegistration",
		trace.WithAttributes(attribute.String("entity", ref.String())))
	defer func() {
		endSpan(span, err)
		s.recordDecision("reject_registration", start, err)
	}()

	reason = strings.TrimSpace(reason)
	var (
		entity     *models.Entity
		registrant *models.User
	)
	err = s.tx.RunInTx(ctx, func(store Store) error {
		e, err := store.FindEntity(ctx, ref)
		if err != nil {
			return wrapEntityErr(err)
		}
		if err := e.CanReviewRegistration(); err != nil {
			return err
		}

		if e.OwnerID != nil {
			u, err := store.FindUserByID(ctx, *e.OwnerID)
			if err != nil {
				return wrapUserErr(err)
			}
			if u.Role != models.RoleAdmin {
				if err := store.UpdateUserRole(ctx, u.ID, models.RoleUser); err != nil {
					return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset user role")
				}
			}
			registrant = u
		}

		if err := store.DeleteEntity(ctx, ref); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete profile")
		}
		entity = e
		return nil
	})
	if err != nil {
		return passThrough(err, "failed to reject registration")
	}

	entry := audit.Event{
		ActorID:  admin.String(),
		Subject:  ref.String(),
		Decision: "rejected",
		Reason:   reason,
	}
	if registrant != nil {
		entry.UserID = registrant.ID
	}
	s.logAudit(ctx, audit.EventRegistrationRejected, entry,
		"admin_id", admin.String(),
		"entity", ref.String(),
	)
	if registrant != nil && reason != "" {
		s.notify(ctx, "request_rejected", func(ctx context.Context) error {
			return s.notifier.SendRequestRejected(ctx, ref.String(), registrant.Email, entity.Name, ref.Type.String(), reason)
		})
	}
	return nil
}
