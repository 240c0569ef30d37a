package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"escena/internal/claims/models"
	id "escena/pkg/domain"
	"escena/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists the workflow in the profiles, profile_claims, users and
// events tables. A Postgres bound to a transaction locks every row it reads
// for the lifetime of the transaction.
type Postgres struct {
	db   querier
	lock bool
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// NewPostgresTx binds the store to tx with row locking on reads.
func NewPostgresTx(tx *sql.Tx) *Postgres {
	return &Postgres{db: tx, lock: true}
}

// WithTx runs fn inside a transaction and commits when it returns nil.
func WithTx(ctx context.Context, db *sql.DB, fn func(store *Postgres) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(NewPostgresTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translate(err, "commit tx")
	}
	return nil
}

func (s *Postgres) forUpdate() string {
	if s.lock {
		return " FOR UPDATE"
	}
	return ""
}

func (s *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, role) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(user.ID), user.Email, user.Name, string(user.Role))
	return translate(err, "insert user")
}

func (s *Postgres) FindUserByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	var (
		raw  uuid.UUID
		role string
		u    models.User
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role FROM users WHERE id = $1`+s.forUpdate(),
		uuid.UUID(userID)).Scan(&raw, &u.Email, &u.Name, &role)
	if err != nil {
		return nil, translate(err, "find user")
	}
	u.ID = id.UserID(raw)
	u.Role = models.Role(role)
	return &u, nil
}

func (s *Postgres) UserExists(ctx context.Context, userID id.UserID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`,
		uuid.UUID(userID)).Scan(&exists)
	if err != nil {
		return false, translate(err, "check user")
	}
	return exists, nil
}

func (s *Postgres) UpdateUserRole(ctx context.Context, userID id.UserID, role models.Role) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, uuid.UUID(userID), string(role))
	if err != nil {
		return translate(err, "update user role")
	}
	return expectRow(res)
}

const profileColumns = `id, kind, name, approved, approved_at, approved_by, owner_id, operator_created,
	logo_url, primary_image_url, gallery, created_at, updated_at`

func (s *Postgres) CreateEntity(ctx context.Context, e *models.Entity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.UUID(e.Ref.ID), string(e.Ref.Type), e.Name, e.Approved, nullTime(e.ApprovedAt),
		nullUUID(e.ApprovedBy), nullUUID(e.OwnerID), e.OperatorCreated,
		e.Images.Logo, e.Images.Primary, pq.Array(gallery(e.Images.Gallery)), e.CreatedAt, e.UpdatedAt)
	return translate(err, "insert profile")
}

func (s *Postgres) FindEntity(ctx context.Context, ref models.EntityRef) (*models.Entity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1 AND kind = $2`+s.forUpdate(),
		uuid.UUID(ref.ID), string(ref.Type))
	e, err := scanEntity(row)
	if err != nil {
		return nil, translate(err, "find profile")
	}
	return e, nil
}

func (s *Postgres) UpdateEntity(ctx context.Context, e *models.Entity) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET name = $3, approved = $4, approved_at = $5, approved_by = $6, owner_id = $7,
		 operator_created = $8, logo_url = $9, primary_image_url = $10, gallery = $11, updated_at = $12
		 WHERE id = $1 AND kind = $2`,
		uuid.UUID(e.Ref.ID), string(e.Ref.Type), e.Name, e.Approved, nullTime(e.ApprovedAt),
		nullUUID(e.ApprovedBy), nullUUID(e.OwnerID), e.OperatorCreated,
		e.Images.Logo, e.Images.Primary, pq.Array(gallery(e.Images.Gallery)), e.UpdatedAt)
	if err != nil {
		return translate(err, "update profile")
	}
	return expectRow(res)
}

func (s *Postgres) DeleteEntity(ctx context.Context, ref models.EntityRef) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1 AND kind = $2`,
		uuid.UUID(ref.ID), string(ref.Type))
	if err != nil {
		return translate(err, "delete profile")
	}
	return expectRow(res)
}

func (s *Postgres) OwnsProfileOfType(ctx context.Context, userID id.UserID, entityType models.EntityType) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE owner_id = $1 AND kind = $2)`,
		uuid.UUID(userID), string(entityType)).Scan(&exists)
	if err != nil {
		return false, translate(err, "check profile ownership")
	}
	return exists, nil
}

func (s *Postgres) CreateEvent(ctx context.Context, ev *models.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, name, venue_id, festival_id, created_by, operator_created, starts_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(ev.ID), ev.Name, nullUUID(ev.VenueID), nullUUID(ev.FestivalID), nullUUID(ev.CreatedBy),
		ev.OperatorCreated, ev.StartsAt)
	return translate(err, "insert event")
}

func (s *Postgres) FindEvent(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	var (
		raw                          uuid.UUID
		venueID, festivalID, creator uuid.NullUUID
		ev                           models.Event
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, venue_id, festival_id, created_by, operator_created, starts_at FROM events WHERE id = $1`,
		uuid.UUID(eventID)).Scan(&raw, &ev.Name, &venueID, &festivalID, &creator, &ev.OperatorCreated, &ev.StartsAt)
	if err != nil {
		return nil, translate(err, "find event")
	}
	ev.ID = id.EventID(raw)
	ev.VenueID = fromNullUUID[id.EntityID](venueID)
	ev.FestivalID = fromNullUUID[id.EntityID](festivalID)
	ev.CreatedBy = fromNullUUID[id.UserID](creator)
	return &ev, nil
}

func (s *Postgres) ReassignOrphanEvents(ctx context.Context, ref models.EntityRef, owner id.UserID) (int, error) {
	var column string
	switch ref.Type {
	case models.EntityVenue:
		column = "venue_id"
	case models.EntityFestival:
		column = "festival_id"
	default:
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET created_by = $1, operator_created = false
		 WHERE `+column+` = $2 AND created_by IS NULL`,
		uuid.UUID(owner), uuid.UUID(ref.ID))
	if err != nil {
		return 0, translate(err, "reassign events")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassign events: %w", err)
	}
	return int(n), nil
}

const claimColumns = `id, claimant_id, entity_type, entity_id, status, message, has_images,
	logo_url, primary_image_url, gallery, image_choice, rejection_reason, created_at, processed_at, processed_by`

func (s *Postgres) CreateClaim(ctx context.Context, c *models.ProfileClaim) error {
	var images models.ImageSet
	if c.Images != nil {
		images = *c.Images
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile_claims (`+claimColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(c.ID), uuid.UUID(c.ClaimantID), string(c.Target.Type), uuid.UUID(c.Target.ID),
		string(c.Status), c.Message, c.Images != nil, images.Logo, images.Primary,
		pq.Array(gallery(images.Gallery)), string(c.ImageChoice), c.RejectionReason, c.CreatedAt,
		nullTime(c.ProcessedAt), nullUUID(c.ProcessedBy))
	return translate(err, "insert claim")
}

func (s *Postgres) FindClaim(ctx context.Context, claimID id.ClaimID) (*models.ProfileClaim, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM profile_claims WHERE id = $1`+s.forUpdate(),
		uuid.UUID(claimID))
	c, err := scanClaim(row)
	if err != nil {
		return nil, translate(err, "find claim")
	}
	return c, nil
}

// UpdateClaim writes the decision fields; the submission itself is immutable.
func (s *Postgres) UpdateClaim(ctx context.Context, c *models.ProfileClaim) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profile_claims SET status = $2, rejection_reason = $3, processed_at = $4, processed_by = $5
		 WHERE id = $1`,
		uuid.UUID(c.ID), string(c.Status), c.RejectionReason, nullTime(c.ProcessedAt), nullUUID(c.ProcessedBy))
	if err != nil {
		return translate(err, "update claim")
	}
	return expectRow(res)
}

func (s *Postgres) HasPendingClaim(ctx context.Context, ref models.EntityRef) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profile_claims
		 WHERE entity_type = $1 AND entity_id = $2 AND status = 'PENDING_CLAIM')`,
		string(ref.Type), uuid.UUID(ref.ID)).Scan(&exists)
	if err != nil {
		return false, translate(err, "check pending claim")
	}
	return exists, nil
}

func (s *Postgres) ListPendingClaims(ctx context.Context) ([]*models.ProfileClaim, error) {
	return s.listClaims(ctx,
		`SELECT `+claimColumns+` FROM profile_claims WHERE status = 'PENDING_CLAIM' ORDER BY created_at ASC`)
}

func (s *Postgres) ListClaimsByClaimant(ctx context.Context, userID id.UserID) ([]*models.ProfileClaim, error) {
	return s.listClaims(ctx,
		`SELECT `+claimColumns+` FROM profile_claims WHERE claimant_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(userID))
}

func (s *Postgres) listClaims(ctx context.Context, query string, args ...any) ([]*models.ProfileClaim, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list claims")
	}
	defer rows.Close()

	var out []*models.ProfileClaim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (*models.Entity, error) {
	var (
		rawID               uuid.UUID
		kind                string
		approvedAt          sql.NullTime
		approvedBy, ownerID uuid.NullUUID
		images              pq.StringArray
		e                   models.Entity
	)
	err := row.Scan(&rawID, &kind, &e.Name, &e.Approved, &approvedAt, &approvedBy, &ownerID,
		&e.OperatorCreated, &e.Images.Logo, &e.Images.Primary, &images, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Ref = models.EntityRef{Type: models.EntityType(kind), ID: id.EntityID(rawID)}
	e.ApprovedAt = fromNullTime(approvedAt)
	e.ApprovedBy = fromNullUUID[id.UserID](approvedBy)
	e.OwnerID = fromNullUUID[id.UserID](ownerID)
	if len(images) > 0 {
		e.Images.Gallery = []string(images)
	}
	return &e, nil
}

func scanClaim(row scanner) (*models.ProfileClaim, error) {
	var (
		rawID, claimant, entityID uuid.UUID
		entityType, status        string
		choice                    string
		hasImages                 bool
		images                    models.ImageSet
		imageGallery              pq.StringArray
		processedAt               sql.NullTime
		processedBy               uuid.NullUUID
		c                         models.ProfileClaim
	)
	err := row.Scan(&rawID, &claimant, &entityType, &entityID, &status, &c.Message, &hasImages,
		&images.Logo, &images.Primary, &imageGallery, &choice, &c.RejectionReason, &c.CreatedAt,
		&processedAt, &processedBy)
	if err != nil {
		return nil, err
	}
	c.ID = id.ClaimID(rawID)
	c.ClaimantID = id.UserID(claimant)
	c.Target = models.EntityRef{Type: models.EntityType(entityType), ID: id.EntityID(entityID)}
	c.Status = models.ClaimStatus(status)
	c.ImageChoice = models.ImageChoice(choice)
	if hasImages {
		if len(imageGallery) > 0 {
			images.Gallery = []string(imageGallery)
		}
		c.Images = &images
	}
	c.ProcessedAt = fromNullTime(processedAt)
	c.ProcessedBy = fromNullUUID[id.UserID](processedBy)
	return &c, nil
}

// translate maps driver errors onto storage sentinels.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, sentinel.ErrAlreadyUsed)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func gallery(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}

func nullUUID[T ~[16]byte](p *T) uuid.NullUUID {
	if p == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*p), Valid: true}
}

func fromNullUUID[T ~[16]byte](n uuid.NullUUID) *T {
	if !n.Valid {
		return nil
	}
	v := T(n.UUID)
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
