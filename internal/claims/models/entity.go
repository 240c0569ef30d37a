package models

import (
	"time"

	id "escena/pkg/domain"
	dErrors "escena/pkg/domain-errors"
)

// EntityType tags a profile row. Band, venue, festival and association are
// claimable; promoter and organizer are self-registration-only profile kinds.
type EntityType string

const (
	EntityBand        EntityType = "band"
	EntityVenue       EntityType = "venue"
	EntityFestival    EntityType = "festival"
	EntityAssociation EntityType = "association"
	EntityPromoter    EntityType = "promoter"
	EntityOrganizer   EntityType = "organizer"
)

var entityRoles = map[EntityType]Role{
	EntityBand:        RoleBand,
	EntityVenue:       RoleVenue,
	EntityFestival:    RoleFestival,
	EntityAssociation: RoleAssociation,
	EntityPromoter:    RolePromoter,
	EntityOrganizer:   RoleOrganizer,
}

// ParseEntityType validates a profile kind from user input.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if _, ok := entityRoles[t]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "tipo de perfil inválido: "+s)
	}
	return t, nil
}

func (t EntityType) String() string { return string(t) }

// IsClaimable reports whether profiles of this kind can be operator-created and
// later claimed.
func (t EntityType) IsClaimable() bool {
	switch t {
	case EntityBand, EntityVenue, EntityFestival, EntityAssociation:
		return true
	}
	return false
}

// OwnerRole is the role a user receives when they own a profile of this kind.
func (t EntityType) OwnerRole() Role {
	return entityRoles[t]
}

// HasDependentEvents reports whether events reference profiles of this kind.
func (t EntityType) HasDependentEvents() bool {
	return t == EntityVenue || t == EntityFestival
}

// EntityRef is the single typed reference to a profile. It replaces a set of
// mutually exclusive nullable foreign keys.
type EntityRef struct {
	Type EntityType  `json:"type"`
	ID   id.EntityID `json:"id"`
}

func (r EntityRef) String() string {
	return string(r.Type) + ":" + r.ID.String()
}

// Entity is a profile in the directory.
//
// Invariants:
//   - OwnerID != nil && !Approved only for a self-registration awaiting review
//     (OperatorCreated is false in that state)
//   - OperatorCreated implies OwnerID == nil
//   - once claimed, an entity never returns to the unowned state
type Entity struct {
	Ref             EntityRef  `json:"ref"`
	Name            string     `json:"name"`
	Approved        bool       `json:"approved"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	ApprovedBy      *id.UserID `json:"approved_by,omitempty"`
	OwnerID         *id.UserID `json:"owner_id,omitempty"`
	OperatorCreated bool       `json:"operator_created"`
	Images          ImageSet   `json:"images"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewOperatorEntity builds an admin-created profile: approved and unowned.
func NewOperatorEntity(ref EntityRef, name string, images ImageSet, admin id.UserID, now time.Time) (*Entity, error) {
	if !ref.Type.IsClaimable() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "operator profiles must be claimable")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "profile name cannot be empty")
	}
	approvedBy := admin
	approvedAt := now
	return &Entity{
		Ref:             ref,
		Name:            name,
		Approved:        true,
		ApprovedAt:      &approvedAt,
		ApprovedBy:      &approvedBy,
		OperatorCreated: true,
		Images:          images.Normalize(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// NewSelfRegisteredEntity builds a profile created by its registrant, pending review.
func NewSelfRegisteredEntity(ref EntityRef, name string, registrant id.UserID, now time.Time) (*Entity, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "profile name cannot be empty")
	}
	if registrant.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registrant is required")
	}
	owner := registrant
	return &Entity{
		Ref:       ref,
		Name:      name,
		OwnerID:   &owner,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (e *Entity) IsOwned() bool {
	return e.OwnerID != nil && !e.OwnerID.IsNil()
}

// IsPendingRegistration reports a self-registration still awaiting admin review.
func (e *Entity) IsPendingRegistration() bool {
	return e.IsOwned() && !e.Approved && !e.OperatorCreated
}

// CheckInvariants validates ownership/approval consistency.
func (e *Entity) CheckInvariants() error {
	if e.OperatorCreated && e.IsOwned() {
		return dErrors.New(dErrors.CodeInvariantViolation, "operator-created profile cannot have an owner")
	}
	if len(e.Images.Gallery) > MaxGalleryImages {
		return dErrors.New(dErrors.CodeInvariantViolation, "gallery exceeds maximum size")
	}
	return nil
}

// CanBeClaimed is the entity-level guard shared by eligibility and approval.
func (e *Entity) CanBeClaimed() error {
	if !e.Ref.Type.IsClaimable() {
		return dErrors.New(dErrors.CodeValidation, "este tipo de perfil no se puede reclamar")
	}
	if e.IsOwned() {
		return ErrAlreadyOwned
	}
	return nil
}

// ApplyClaim transfers ownership to the claimant. Call CanBeClaimed first.
func (e *Entity) ApplyClaim(claimant, admin id.UserID, images ImageSet, now time.Time) {
	owner := claimant
	approvedBy := admin
	approvedAt := now
	e.OwnerID = &owner
	e.OperatorCreated = false
	e.Approved = true
	e.ApprovedAt = &approvedAt
	e.ApprovedBy = &approvedBy
	e.Images = images
	e.UpdatedAt = now
}

// CanReviewRegistration guards both registration outcomes: only an unapproved
// profile can be approved or rejected through the registration path.
func (e *Entity) CanReviewRegistration() error {
	if e.Approved {
		return ErrRegistrationAlreadyApproved
	}
	return nil
}

// ApplyRegistrationApproval marks a self-registration as approved.
func (e *Entity) ApplyRegistrationApproval(admin id.UserID, now time.Time) {
	approvedBy := admin
	approvedAt := now
	e.Approved = true
	e.ApprovedAt = &approvedAt
	e.ApprovedBy = &approvedBy
	e.UpdatedAt = now
}
