// Package domain holds typed identifiers shared across modules.
//
// Every aggregate gets its own ID type so a claim ID can never be passed where an
// entity ID is expected. All parsers reject empty, malformed and nil UUIDs with
// CodeInvalidInput.
package domain

import (
	"github.com/google/uuid"

	dErrors "escena/pkg/domain-errors"
)

type (
	UserID   uuid.UUID
	ClaimID  uuid.UUID
	EntityID uuid.UUID
	EventID  uuid.UUID
)

func (id UserID) String() string   { return uuid.UUID(id).String() }
func (id ClaimID) String() string  { return uuid.UUID(id).String() }
func (id EntityID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ClaimID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id EntityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id ClaimID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id EntityID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ClaimID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EntityID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EventID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }

// NewClaimID returns a random claim ID.
func NewClaimID() ClaimID { return ClaimID(uuid.New()) }

// NewEntityID returns a random entity ID.
func NewEntityID() EntityID { return EntityID(uuid.New()) }

// NewEventID returns a random event ID.
func NewEventID() EventID { return EventID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

func ParseClaimID(s string) (ClaimID, error) {
	u, err := parseUUID(s, "claim ID")
	return ClaimID(u), err
}

func ParseEntityID(s string) (EntityID, error) {
	u, err := parseUUID(s, "entity ID")
	return EntityID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event ID")
	return EventID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
