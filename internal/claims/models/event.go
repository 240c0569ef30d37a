package models

import (
	"time"

	id "escena/pkg/domain"
)

// Event is a dependent record: it points at a venue and/or festival and has its
// own nullable creator.
type Event struct {
	ID              id.EventID   `json:"id"`
	Name            string       `json:"name"`
	VenueID         *id.EntityID `json:"venue_id,omitempty"`
	FestivalID      *id.EntityID `json:"festival_id,omitempty"`
	CreatedBy       *id.UserID   `json:"created_by,omitempty"`
	OperatorCreated bool         `json:"operator_created"`
	StartsAt        time.Time    `json:"starts_at"`
}

// IsOrphanOf reports whether the event hangs off ref and has no creator yet;
// such events follow the profile when it is claimed.
func (e *Event) IsOrphanOf(ref EntityRef) bool {
	if e.CreatedBy != nil {
		return false
	}
	switch ref.Type {
	case EntityVenue:
		return e.VenueID != nil && *e.VenueID == ref.ID
	case EntityFestival:
		return e.FestivalID != nil && *e.FestivalID == ref.ID
	}
	return false
}

// AdoptBy assigns the event to the new owner of its venue or festival.
func (e *Event) AdoptBy(owner id.UserID) {
	createdBy := owner
	e.CreatedBy = &createdBy
	e.OperatorCreated = false
}
