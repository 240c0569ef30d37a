package audit

import (
	"context"
	"time"

	id "escena/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers ownership and role changes that must be traceable.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity such as new submissions.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// UserID is the user the action is about (claimant or registrant).
	UserID id.UserID `json:"user_id"`
	// ActorID is the admin who acted, empty for self-service actions.
	ActorID   string `json:"actor_id,omitempty"`
	Subject   string `json:"subject"`
	Action    string `json:"action"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventClaimSubmitted       AuditEvent = "claim_submitted"
	EventClaimApproved        AuditEvent = "claim_approved"
	EventClaimRejected        AuditEvent = "claim_rejected"
	EventRegistrationApproved AuditEvent = "registration_approved"
	EventRegistrationRejected AuditEvent = "registration_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventClaimApproved:        CategoryCompliance,
	EventClaimRejected:        CategoryCompliance,
	EventRegistrationApproved: CategoryCompliance,
	EventRegistrationRejected: CategoryCompliance,
	EventClaimSubmitted:       CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
