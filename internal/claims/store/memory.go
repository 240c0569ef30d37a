package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"escena/internal/claims/models"
	id "escena/pkg/domain"
	"escena/pkg/platform/sentinel"
)

// InMemory keeps users, profiles, claims and events in maps. Rows are copied
// on the way in and out so callers never share state with the store.
type InMemory struct {
	mu       sync.RWMutex
	users    map[id.UserID]*models.User
	entities map[models.EntityRef]*models.Entity
	claims   map[id.ClaimID]*models.ProfileClaim
	events   map[id.EventID]*models.Event
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:    make(map[id.UserID]*models.User),
		entities: make(map[models.EntityRef]*models.Entity),
		claims:   make(map[id.ClaimID]*models.ProfileClaim),
		events:   make(map[id.EventID]*models.Event),
	}
}

// Checkpoint snapshots every table; calling the returned func restores it.
func (s *InMemory) Checkpoint() func() {
	s.mu.RLock()
	users := maps.Clone(s.users)
	entities := make(map[models.EntityRef]*models.Entity, len(s.entities))
	for k, v := range s.entities {
		entities[k] = cloneEntity(v)
	}
	claims := make(map[id.ClaimID]*models.ProfileClaim, len(s.claims))
	for k, v := range s.claims {
		claims[k] = cloneClaim(v)
	}
	events := make(map[id.EventID]*models.Event, len(s.events))
	for k, v := range s.events {
		events[k] = cloneEvent(v)
	}
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.users, s.entities, s.claims, s.events = users, entities, claims, events
	}
}

func (s *InMemory) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	u := *user
	s.users[user.ID] = &u
	return nil
}

func (s *InMemory) FindUserByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *InMemory) UserExists(_ context.Context, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok, nil
}

func (s *InMemory) UpdateUserRole(_ context.Context, userID id.UserID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	updated := *u
	updated.Role = role
	s.users[userID] = &updated
	return nil
}

func (s *InMemory) CreateEntity(_ context.Context, entity *models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[entity.Ref]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.entities[entity.Ref] = cloneEntity(entity)
	return nil
}

func (s *InMemory) FindEntity(_ context.Context, ref models.EntityRef) (*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEntity(e), nil
}

func (s *InMemory) UpdateEntity(_ context.Context, entity *models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[entity.Ref]; !ok {
		return sentinel.ErrNotFound
	}
	s.entities[entity.Ref] = cloneEntity(entity)
	return nil
}

// DeleteEntity removes the profile and detaches events that referenced it.
func (s *InMemory) DeleteEntity(_ context.Context, ref models.EntityRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[ref]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.entities, ref)
	for _, ev := range s.events {
		if ev.VenueID != nil && ref.Type == models.EntityVenue && *ev.VenueID == ref.ID {
			ev.VenueID = nil
		}
		if ev.FestivalID != nil && ref.Type == models.EntityFestival && *ev.FestivalID == ref.ID {
			ev.FestivalID = nil
		}
	}
	return nil
}

func (s *InMemory) OwnsProfileOfType(_ context.Context, userID id.UserID, entityType models.EntityType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ref, e := range s.entities {
		if ref.Type == entityType && e.OwnerID != nil && *e.OwnerID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) CreateEvent(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.events[event.ID] = cloneEvent(event)
	return nil
}

func (s *InMemory) FindEvent(_ context.Context, eventID id.EventID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEvent(ev), nil
}

func (s *InMemory) ReassignOrphanEvents(_ context.Context, ref models.EntityRef, owner id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := 0
	for _, ev := range s.events {
		if ev.IsOrphanOf(ref) {
			ev.AdoptBy(owner)
			moved++
		}
	}
	return moved, nil
}

// CreateClaim checks for a pending claim on the same target and inserts under
// one lock, mirroring the partial unique index of the Postgres store.
func (s *InMemory) CreateClaim(_ context.Context, claim *models.ProfileClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[claim.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if claim.IsPending() && s.hasPendingLocked(claim.Target) {
		return sentinel.ErrAlreadyUsed
	}
	s.claims[claim.ID] = cloneClaim(claim)
	return nil
}

func (s *InMemory) FindClaim(_ context.Context, claimID id.ClaimID) (*models.ProfileClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneClaim(c), nil
}

func (s *InMemory) UpdateClaim(_ context.Context, claim *models.ProfileClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[claim.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.claims[claim.ID] = cloneClaim(claim)
	return nil
}

func (s *InMemory) HasPendingClaim(_ context.Context, ref models.EntityRef) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasPendingLocked(ref), nil
}

func (s *InMemory) ListPendingClaims(_ context.Context) ([]*models.ProfileClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ProfileClaim
	for _, c := range s.claims {
		if c.IsPending() {
			out = append(out, cloneClaim(c))
		}
	}
	slices.SortFunc(out, func(a, b *models.ProfileClaim) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *InMemory) ListClaimsByClaimant(_ context.Context, userID id.UserID) ([]*models.ProfileClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ProfileClaim
	for _, c := range s.claims {
		if c.ClaimantID == userID {
			out = append(out, cloneClaim(c))
		}
	}
	slices.SortFunc(out, func(a, b *models.ProfileClaim) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *InMemory) hasPendingLocked(ref models.EntityRef) bool {
	for _, c := range s.claims {
		if c.Target == ref && c.IsPending() {
			return true
		}
	}
	return false
}

func cloneEntity(e *models.Entity) *models.Entity {
	out := *e
	out.Images.Gallery = slices.Clone(e.Images.Gallery)
	out.OwnerID = clonePtr(e.OwnerID)
	out.ApprovedBy = clonePtr(e.ApprovedBy)
	out.ApprovedAt = clonePtr(e.ApprovedAt)
	return &out
}

func cloneClaim(c *models.ProfileClaim) *models.ProfileClaim {
	out := *c
	if c.Images != nil {
		images := *c.Images
		images.Gallery = slices.Clone(c.Images.Gallery)
		out.Images = &images
	}
	out.ProcessedAt = clonePtr(c.ProcessedAt)
	out.ProcessedBy = clonePtr(c.ProcessedBy)
	return &out
}

func cloneEvent(ev *models.Event) *models.Event {
	out := *ev
	out.VenueID = clonePtr(ev.VenueID)
	out.FestivalID = clonePtr(ev.FestivalID)
	out.CreatedBy = clonePtr(ev.CreatedBy)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
