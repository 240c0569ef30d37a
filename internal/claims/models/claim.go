package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "escena/pkg/domain"
	dErrors "escena/pkg/domain-errors"
)

// MaxClaimMessageLength bounds the free-text note a claimant attaches.
const MaxClaimMessageLength = 1000

type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "PENDING_CLAIM"
	ClaimStatusApproved ClaimStatus = "APPROVED"
	ClaimStatusRejected ClaimStatus = "REJECTED"
)

// IsTerminal reports whether the status can no longer change.
func (s ClaimStatus) IsTerminal() bool {
	return s == ClaimStatusApproved || s == ClaimStatusRejected
}

// ProfileClaim is a user's request to take ownership of an operator-created profile.
//
// Invariants:
//   - Target.Type is claimable
//   - once Status leaves PENDING_CLAIM the claim never changes again
//   - ProcessedAt and ProcessedBy are set iff Status is terminal
type ProfileClaim struct {
	ID              id.ClaimID  `json:"id"`
	ClaimantID      id.UserID   `json:"claimant_id"`
	Target          EntityRef   `json:"target"`
	Status          ClaimStatus `json:"status"`
	Message         string      `json:"message,omitempty"`
	Images          *ImageSet   `json:"images,omitempty"`
	ImageChoice     ImageChoice `json:"image_choice"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	ProcessedAt     *time.Time  `json:"processed_at,omitempty"`
	ProcessedBy     *id.UserID  `json:"processed_by,omitempty"`
}

// NewProfileClaim builds a pending claim. Images are normalized; an empty set is
// stored as "no images".
func NewProfileClaim(claimID id.ClaimID, claimant id.UserID, target EntityRef, message string, images *ImageSet, choice ImageChoice, now time.Time) (*ProfileClaim, error) {
	if claimant.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "claimant is required")
	}
	if !target.Type.IsClaimable() {
		return nil, dErrors.New(dErrors.CodeValidation, "este tipo de perfil no se puede reclamar")
	}
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > MaxClaimMessageLength {
		return nil, dErrors.New(dErrors.CodeValidation, "el mensaje no puede superar los 1000 caracteres")
	}
	if choice == "" {
		choice = ImageChoiceKeepOperator
	}
	var claimImages *ImageSet
	if images != nil {
		normalized := images.Normalize()
		if !normalized.IsEmpty() {
			claimImages = &normalized
		}
	}
	return &ProfileClaim{
		ID:          claimID,
		ClaimantID:  claimant,
		Target:      target,
		Status:      ClaimStatusPending,
		Message:     message,
		Images:      claimImages,
		ImageChoice: choice,
		CreatedAt:   now,
	}, nil
}

func (c *ProfileClaim) IsPending() bool {
	return c.Status == ClaimStatusPending
}

// CanProcess guards both decisions.
func (c *ProfileClaim) CanProcess() error {
	if !c.IsPending() {
		return ErrAlreadyProcessed
	}
	return nil
}

func (c *ProfileClaim) ApplyApproval(admin id.UserID, now time.Time) {
	c.markProcessed(ClaimStatusApproved, admin, now)
}

func (c *ProfileClaim) ApplyRejection(admin id.UserID, reason string, now time.Time) {
	c.RejectionReason = strings.TrimSpace(reason)
	c.markProcessed(ClaimStatusRejected, admin, now)
}

func (c *ProfileClaim) markProcessed(status ClaimStatus, admin id.UserID, now time.Time) {
	processedBy := admin
	processedAt := now
	c.Status = status
	c.ProcessedAt = &processedAt
	c.ProcessedBy = &processedBy
}
