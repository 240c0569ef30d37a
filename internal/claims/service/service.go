// Package service orchestrates the profile claim and self-registration review
// workflows: eligibility, the claim lifecycle and the approval transactions.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	claimmetrics "escena/internal/claims/metrics"
	"escena/internal/claims/models"
	id "escena/pkg/domain"
	dErrors "escena/pkg/domain-errors"
	audit "escena/pkg/platform/audit"
	"escena/pkg/platform/sentinel"
	"escena/pkg/requestcontext"
)

// Store is the persistence surface of the workflow. Inside RunInTx, Find*
// reads lock the returned row until commit.
type Store interface {
	FindUserByID(ctx context.Context, userID id.UserID) (*models.User, error)
	// UserExists never locks the row.
	UserExists(ctx context.Context, userID id.UserID) (bool, error)
	UpdateUserRole(ctx context.Context, userID id.UserID, role models.Role) error

	FindEntity(ctx context.Context, ref models.EntityRef) (*models.Entity, error)
	UpdateEntity(ctx context.Context, entity *models.Entity) error
	DeleteEntity(ctx context.Context, ref models.EntityRef) error
	OwnsProfileOfType(ctx context.Context, userID id.UserID, entityType models.EntityType) (bool, error)

	// ReassignOrphanEvents hands events of a venue or festival that have no
	// creator to owner and returns how many moved.
	ReassignOrphanEvents(ctx context.Context, ref models.EntityRef, owner id.UserID) (int, error)

	// CreateClaim returns sentinel.ErrAlreadyUsed when the target already has a
	// pending claim.
	CreateClaim(ctx context.Context, claim *models.ProfileClaim) error
	FindClaim(ctx context.Context, claimID id.ClaimID) (*models.ProfileClaim, error)
	UpdateClaim(ctx context.Context, claim *models.ProfileClaim) error
	HasPendingClaim(ctx context.Context, ref models.EntityRef) (bool, error)
	ListPendingClaims(ctx context.Context) ([]*models.ProfileClaim, error)
	ListClaimsByClaimant(ctx context.Context, userID id.UserID) ([]*models.ProfileClaim, error)
}

// Service runs the claim and registration workflows.
type Service struct {
	store          Store
	tx             StoreTx
	notifier       Notifier
	auditPublisher AuditPublisher
	metrics        *claimmetrics.Metrics
	logger         *slog.Logger
	tracer         trace.Tracer
	notifyTimeout  time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *claimmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithStoreTx sets the transaction runner. Without it the service serializes
// transactions in memory over its store.
func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithNotifyTimeout bounds each post-commit notification.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.notifyTimeout = d
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("claims store is required")
	}
	s := &Service{
		store:         store,
		tracer:        otel.Tracer("escena/internal/claims/service"),
		notifyTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = newInMemoryStoreTx(store, defaultTxTimeout)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// GetClaim returns a single claim.
func (s *Service) GetClaim(ctx context.Context, claimID id.ClaimID) (*models.ProfileClaim, error) {
	var claim *models.ProfileClaim
	err := s.view(ctx, func(store Store) error {
		var err error
		claim, err = store.FindClaim(ctx, claimID)
		return err
	})
	if err != nil {
		return nil, wrapClaimErr(err)
	}
	return claim, nil
}

// ListPendingClaims returns the admin review queue, oldest first.
func (s *Service) ListPendingClaims(ctx context.Context) ([]*models.ProfileClaim, error) {
	var claims []*models.ProfileClaim
	err := s.view(ctx, func(store Store) error {
		var err error
		claims, err = store.ListPendingClaims(ctx)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending claims")
	}
	return claims, nil
}

// ListClaimsByClaimant returns a user's own claims, newest first.
func (s *Service) ListClaimsByClaimant(ctx context.Context, userID id.UserID) ([]*models.ProfileClaim, error) {
	var claims []*models.ProfileClaim
	err := s.view(ctx, func(store Store) error {
		var err error
		claims, err = store.ListClaimsByClaimant(ctx, userID)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list claims")
	}
	return claims, nil
}

// view runs read-only work through the tx runner when it offers isolation;
// otherwise directly against the store.
func (s *Service) view(ctx context.Context, fn func(store Store) error) error {
	if v, ok := s.tx.(StoreViewer); ok {
		return v.View(ctx, fn)
	}
	return fn(s.store)
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, entry audit.Event, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	s.logger.InfoContext(ctx, string(event), args...)

	if s.auditPublisher == nil {
		return
	}
	entry.Action = string(event)
	entry.Category = event.Category()
	entry.RequestID = requestID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if err := s.auditPublisher.Emit(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "event", string(event), "error", err)
	}
}

// notify runs one post-commit send. Failures are logged and counted only.
func (s *Service) notify(ctx context.Context, kind string, send func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	// the admin's request may end before the mail server answers
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if err := send(ctx); err != nil {
		s.logger.WarnContext(ctx, "notification failed",
			"kind", kind,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		if s.metrics != nil {
			s.metrics.IncrementNotificationFailure(kind)
		}
	}
}

func (s *Service) recordDecision(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	s.metrics.RecordDecision(operation, outcome)
	s.metrics.ObserveApproval(operation, start)
}

func wrapClaimErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.ErrClaimNotFound
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load claim")
}

func wrapEntityErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.ErrEntityNotFound
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
}

func wrapUserErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.ErrUserNotFound
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
}

// passThrough keeps coded errors raised inside a transaction and wraps the rest.
func passThrough(err error, message string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}
