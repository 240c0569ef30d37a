package handler

import (
	"time"

	"escena/internal/claims/models"
	id "escena/pkg/domain"
	dErrors "escena/pkg/domain-errors"
)

type createClaimRequest struct {
	EntityType  string           `json:"entity_type"`
	EntityID    string           `json:"entity_id"`
	Message     string           `json:"message"`
	ImageChoice string           `json:"image_choice"`
	Images      *models.ImageSet `json:"images"`
}

func (r *createClaimRequest) target() (models.EntityRef, error) {
	if r.EntityType == "" {
		return models.EntityRef{}, dErrors.New(dErrors.CodeValidation, "entity_type es obligatorio")
	}
	kind, err := models.ParseEntityType(r.EntityType)
	if err != nil {
		return models.EntityRef{}, err
	}
	entityID, err := id.ParseEntityID(r.EntityID)
	if err != nil {
		return models.EntityRef{}, err
	}
	return models.EntityRef{Type: kind, ID: entityID}, nil
}

const (
	actionApprove = "approve"
	actionReject  = "reject"
)

type decisionRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

func (r *decisionRequest) validate() error {
	switch r.Action {
	case actionApprove, actionReject:
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, "action debe ser approve o reject")
}

type rejectRegistrationRequest struct {
	Reason string `json:"reason"`
}

type claimResponse struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	EntityType      string           `json:"entity_type"`
	EntityID        string           `json:"entity_id"`
	ClaimantID      string           `json:"claimant_id"`
	Message         string           `json:"message,omitempty"`
	Images          *models.ImageSet `json:"images,omitempty"`
	ImageChoice     string           `json:"image_choice"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	ProcessedAt     *time.Time       `json:"processed_at,omitempty"`
}

func toClaimResponse(c *models.ProfileClaim) claimResponse {
	return claimResponse{
		ID:              c.ID.String(),
		Status:          string(c.Status),
		EntityType:      c.Target.Type.String(),
		EntityID:        c.Target.ID.String(),
		ClaimantID:      c.ClaimantID.String(),
		Message:         c.Message,
		Images:          c.Images,
		ImageChoice:     string(c.ImageChoice),
		RejectionReason: c.RejectionReason,
		CreatedAt:       c.CreatedAt,
		ProcessedAt:     c.ProcessedAt,
	}
}

func toClaimList(claims []*models.ProfileClaim) []claimResponse {
	out := make([]claimResponse, 0, len(claims))
	for _, c := range claims {
		out = append(out, toClaimResponse(c))
	}
	return out
}

// entityResponse is the public projection of a profile after a decision.
type entityResponse struct {
	Type            string          `json:"type"`
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Approved        bool            `json:"approved"`
	OwnerID         string          `json:"owner_id,omitempty"`
	OperatorCreated bool            `json:"operator_created"`
	Images          models.ImageSet `json:"images"`
}

func toEntityResponse(e *models.Entity) entityResponse {
	resp := entityResponse{
		Type:            e.Ref.Type.String(),
		ID:              e.Ref.ID.String(),
		Name:            e.Name,
		Approved:        e.Approved,
		OperatorCreated: e.OperatorCreated,
		Images:          e.Images,
	}
	if e.OwnerID != nil {
		resp.OwnerID = e.OwnerID.String()
	}
	return resp
}
