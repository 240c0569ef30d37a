package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"escena/internal/claims/models"
	"escena/internal/claims/service"
	id "escena/pkg/domain"
	dErrors "escena/pkg/domain-errors"
	"escena/pkg/platform/httputil"
	"escena/pkg/platform/middleware/admin"
	"escena/pkg/platform/middleware/auth"
	"escena/pkg/requestcontext"
)

// Service defines the claim workflow operations exposed over HTTP.
type Service interface {
	CreateClaim(ctx context.Context, claimant id.UserID, req service.CreateClaimRequest) (*models.ProfileClaim, error)
	ListClaimsByClaimant(ctx context.Context, userID id.UserID) ([]*models.ProfileClaim, error)
	ListPendingClaims(ctx context.Context) ([]*models.ProfileClaim, error)
	ApproveClaim(ctx context.Context, claimID id.ClaimID, admin id.UserID) (*models.Entity, error)
	RejectClaim(ctx context.Context, claimID id.ClaimID, admin id.UserID, reason string) error
	ApproveRegistration(ctx context.Context, ref models.EntityRef, admin id.UserID) (*models.Entity, error)
	RejectRegistration(ctx context.Context, ref models.EntityRef, admin id.UserID, reason string) error
}

// Handler serves the claim and registration review endpoints.
type Handler struct {
	claims       Service
	logger       *slog.Logger
	jwtValidator auth.JWTValidator
}

func New(claims Service, logger *slog.Logger, jwtValidator auth.JWTValidator) *Handler {
	return &Handler{
		claims:       claims,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the routes on r. Every route requires a session; /admin
// routes also require the admin role.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/claims", h.handleCreateClaim)
		r.Get("/claims/mine", h.handleListMine)

		r.Route("/admin", func(r chi.Router) {
			r.Use(admin.RequireAdmin(h.logger))
			r.Get("/claims", h.handleListPending)
			r.Post("/claims/{id}", h.handleDecideClaim)
			r.Post("/registrations/{type}/{id}/approve", h.handleApproveRegistration)
			r.Post("/registrations/{type}/{id}/reject", h.handleRejectRegistration)
		})
	})
}

func (h *Handler) handleCreateClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	var req createClaimRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid create claim request")
		return
	}
	sanitize(&req)

	target, err := req.target()
	if err != nil {
		h.writeError(ctx, w, err, "invalid create claim request")
		return
	}
	choice, err := models.ParseImageChoice(req.ImageChoice)
	if err != nil {
		h.writeError(ctx, w, err, "invalid create claim request")
		return
	}

	claim, err := h.claims.CreateClaim(ctx, userID, service.CreateClaimRequest{
		Target:      target,
		Message:     req.Message,
		Images:      req.Images,
		ImageChoice: choice,
	})
	if err != nil {
		h.writeError(ctx, w, err, "failed to create claim")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"claim": toClaimResponse(claim)})
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, err := h.claims.ListClaimsByClaimant(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "failed to list claims")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"claims": toClaimList(claims)})
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, err := h.claims.ListPendingClaims(ctx)
	if err != nil {
		h.writeError(ctx, w, err, "failed to list pending claims")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"claims": toClaimList(claims)})
}

func (h *Handler) handleDecideClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID := requestcontext.UserID(ctx)

	claimID, err := id.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid claim id")
		return
	}
	var req decisionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid decision request")
		return
	}
	sanitize(&req)
	if err := req.validate(); err != nil {
		h.writeError(ctx, w, err, "invalid decision request")
		return
	}

	if req.Action == actionApprove {
		entity, err := h.claims.ApproveClaim(ctx, claimID, adminID)
		if err != nil {
			h.writeError(ctx, w, err, "failed to approve claim")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "entity": toEntityResponse(entity)})
		return
	}

	if err := h.claims.RejectClaim(ctx, claimID, adminID, req.Reason); err != nil {
		h.writeError(ctx, w, err, "failed to reject claim")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleApproveRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, err := entityRefFromPath(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid registration path")
		return
	}
	entity, err := h.claims.ApproveRegistration(ctx, ref, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "failed to approve registration")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "entity": toEntityResponse(entity)})
}

func (h *Handler) handleRejectRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, err := entityRefFromPath(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid registration path")
		return
	}
	var req rejectRegistrationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid reject registration request")
		return
	}
	sanitize(&req)

	if err := h.claims.RejectRegistration(ctx, ref, requestcontext.UserID(ctx), req.Reason); err != nil {
		h.writeError(ctx, w, err, "failed to reject registration")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func entityRefFromPath(r *http.Request) (models.EntityRef, error) {
	kind, err := models.ParseEntityType(chi.URLParam(r, "type"))
	if err != nil {
		return models.EntityRef{}, err
	}
	entityID, err := id.ParseEntityID(chi.URLParam(r, "id"))
	if err != nil {
		return models.EntityRef{}, err
	}
	return models.EntityRef{Type: kind, ID: entityID}, nil
}

// writeError logs client errors at warn and everything else at error before
// rendering the envelope.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	attrs := []any{
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
