package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"escena/internal/claims/models"
	id "escena/pkg/domain"
)

// Seeder is the write surface both stores expose for fixtures.
type Seeder interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateEntity(ctx context.Context, entity *models.Entity) error
	CreateEvent(ctx context.Context, event *models.Event) error
}

// Demo lists what SeedDemo created.
type Demo struct {
	Admin    *models.User
	Fan      *models.User
	Band     *models.Entity
	Venue    *models.Entity
	Festival *models.Entity
	Events   []*models.Event
}

// SeedDemo creates an admin, a plain user and operator-created profiles with
// orphan events, enough to walk through a claim locally.
func SeedDemo(ctx context.Context, s Seeder, now time.Time) (*Demo, error) {
	admin := &models.User{ID: id.UserID(uuid.New()), Email: "admin@escena.local", Name: "Admin", Role: models.RoleAdmin}
	fan := &models.User{ID: id.UserID(uuid.New()), Email: "fan@escena.local", Name: "Fan", Role: models.RoleUser}
	for _, u := range []*models.User{admin, fan} {
		if err := s.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	demo := &Demo{Admin: admin, Fan: fan}
	profiles := []struct {
		kind models.EntityType
		name string
		dst  **models.Entity
	}{
		{models.EntityBand, "Los Operadores", &demo.Band},
		{models.EntityVenue, "Sala Central", &demo.Venue},
		{models.EntityFestival, "Festival del Valle", &demo.Festival},
	}
	for _, p := range profiles {
		e, err := models.NewOperatorEntity(models.EntityRef{Type: p.kind, ID: id.NewEntityID()}, p.name, models.ImageSet{}, admin.ID, now)
		if err != nil {
			return nil, err
		}
		if err := s.CreateEntity(ctx, e); err != nil {
			return nil, fmt.Errorf("seed profile %s: %w", p.name, err)
		}
		*p.dst = e
	}

	venueID, festivalID := demo.Venue.Ref.ID, demo.Festival.Ref.ID
	events := []*models.Event{
		{ID: id.NewEventID(), Name: "Noche de estreno", VenueID: &venueID, OperatorCreated: true, StartsAt: now.AddDate(0, 1, 0)},
		{ID: id.NewEventID(), Name: "Jornada principal", VenueID: &venueID, FestivalID: &festivalID, OperatorCreated: true, StartsAt: now.AddDate(0, 2, 0)},
	}
	for _, ev := range events {
		if err := s.CreateEvent(ctx, ev); err != nil {
			return nil, fmt.Errorf("seed event %s: %w", ev.Name, err)
		}
	}
	demo.Events = events
	return demo, nil
}
