package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	claimmetrics "escena/internal/claims/metrics"
	"escena/internal/claims/models"
	"escena/internal/claims/service"
	"escena/internal/claims/service/mocks"
	"escena/internal/claims/store"
	"escena/internal/notification"
	id "escena/pkg/domain"
	dErrors "escena/pkg/domain-errors"
	audit "escena/pkg/platform/audit"
	"escena/pkg/platform/audit/publisher"
	auditmemory "escena/pkg/platform/audit/store/memory"
	"escena/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	ctrl       *gomock.Controller
	notifier   *mocks.MockNotifier
	store      *store.InMemory
	auditStore *auditmemory.InMemoryStore
	metrics    *claimmetrics.Metrics
	service    *service.Service
	demo       *store.Demo
	other      *models.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctrl = gomock.NewController(s.T())
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.store = store.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.metrics = claimmetrics.New(prometheus.NewRegistry())

	demo, err := store.SeedDemo(s.ctx, s.store, s.now)
	s.Require().NoError(err)
	s.demo = demo
	s.other = s.newUser("otra@escena.local", models.RoleUser)

	svc, err := service.New(s.store,
		service.WithNotifier(s.notifier),
		service.WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
		service.WithMetrics(s.metrics),
		service.WithNotifyTimeout(time.Second),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) newUser(email string, role models.Role) *models.User {
	u := &models.User{ID: id.UserID(uuid.New()), Email: email, Name: email, Role: role}
	s.Require().NoError(s.store.CreateUser(s.ctx, u))
	return u
}

func (s *ServiceSuite) fileClaim(claimant id.UserID, target models.EntityRef) *models.ProfileClaim {
	claim, err := s.service.CreateClaim(s.ctx, claimant, service.CreateClaimRequest{Target: target, Message: "soy yo"})
	s.Require().NoError(err)
	return claim
}

func (s *ServiceSuite) selfRegister(kind models.EntityType, name string) (*models.Entity, *models.User) {
	registrant := s.newUser(name+"@escena.local", kind.OwnerRole())
	entity, err := models.NewSelfRegisteredEntity(models.EntityRef{Type: kind, ID: id.NewEntityID()}, name, registrant.ID, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateEntity(s.ctx, entity))
	return entity, registrant
}

func (s *ServiceSuite) user(userID id.UserID) *models.User {
	u, err := s.store.FindUserByID(s.ctx, userID)
	s.Require().NoError(err)
	return u
}

func (s *ServiceSuite) entity(ref models.EntityRef) *models.Entity {
	e, err := s.store.FindEntity(s.ctx, ref)
	s.Require().NoError(err)
	return e
}

func (s *ServiceSuite) auditActions(userID id.UserID) []string {
	events, err := s.auditStore.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	return actions
}

func (s *ServiceSuite) TestNew() {
	_, err := service.New(nil)
	s.Require().Error(err)
}

func (s *ServiceSuite) TestCreateClaim() {
	s.Run("files a pending claim", func() {
		claim := s.fileClaim(s.demo.Fan.ID, s.demo.Band.Ref)

		s.Equal(models.ClaimStatusPending, claim.Status)
		s.Equal(s.demo.Band.Ref, claim.Target)
		s.Equal(models.ImageChoiceKeepOperator, claim.ImageChoice)
		s.Equal(s.now, claim.CreatedAt)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ClaimsCreated))
		s.Contains(s.auditActions(s.demo.Fan.ID), string(audit.EventClaimSubmitted))
	})

	s.Run("second claimant is refused while one is pending", func() {
		_, err := s.service.CreateClaim(s.ctx, s.other.ID, service.CreateClaimRequest{Target: s.demo.Band.Ref})
		s.Require().ErrorIs(err, models.ErrDuplicatePendingClaim)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown profile", func() {
		_, err := s.service.CreateClaim(s.ctx, s.demo.Fan.ID, service.CreateClaimRequest{
			Target: models.EntityRef{Type: models.EntityBand, ID: id.NewEntityID()},
		})
		s.Require().ErrorIs(err, models.ErrEntityNotFound)
	})

	s.Run("unknown claimant", func() {
		_, err := s.service.CreateClaim(s.ctx, id.UserID(uuid.New()), service.CreateClaimRequest{Target: s.demo.Venue.Ref})
		s.Require().ErrorIs(err, models.ErrUserNotFound)
	})

	s.Run("non claimable kind", func() {
		_, err := s.service.CreateClaim(s.ctx, s.demo.Fan.ID, service.CreateClaimRequest{
			Target: models.EntityRef{Type: models.EntityPromoter, ID: id.NewEntityID()},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("claimant already owns a profile of the type", func() {
		_, registrant := s.selfRegister(models.EntityVenue, "Sala Propia")
		_, err := s.service.CreateClaim(s.ctx, registrant.ID, service.CreateClaimRequest{Target: s.demo.Venue.Ref})
		s.Require().ErrorIs(err, models.ErrDuplicateProfile)
	})

	s.Run("nil claimant is a validation error", func() {
		_, err := s.service.CreateClaim(s.ctx, id.UserID{}, service.CreateClaimRequest{Target: s.demo.Venue.Ref})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestCheckClaimEligibility() {
	s.Require().NoError(s.service.CheckClaimEligibility(s.ctx, s.demo.Fan.ID, s.demo.Festival.Ref))

	s.Run("owned profile", func() {
		entity, _ := s.selfRegister(models.EntityBand, "Banda Propia")
		err := s.service.CheckClaimEligibility(s.ctx, s.demo.Fan.ID, entity.Ref)
		s.Require().ErrorIs(err, models.ErrAlreadyOwned)
	})

	s.Run("has no side effects", func() {
		claims, err := s.service.ListPendingClaims(s.ctx)
		s.Require().NoError(err)
		s.Empty(claims)
	})
}

func (s *ServiceSuite) TestApproveClaim() {
	claim := s.fileClaim(s.demo.Fan.ID, s.demo.Band.Ref)
	s.notifier.EXPECT().
		SendClaimApproved(gomock.Any(), claim.ID.String(), s.demo.Fan.Email, s.demo.Band.Name, "band").
		Return(nil)

	entity, err := s.service.ApproveClaim(s.ctx, claim.ID, s.demo.Admin.ID)
	s.Require().NoError(err)

	s.Require().NotNil(entity.OwnerID)
	s.Equal(s.demo.Fan.ID, *entity.OwnerID)
	s.True(entity.Approved)
	s.False(entity.OperatorCreated)
	s.Equal(s.demo.Admin.ID, *entity.ApprovedBy)

	stored := s.entity(s.demo.Band.Ref)
	s.Equal(s.demo.Fan.ID, *stored.OwnerID)
	s.Equal(models.RoleBand, s.user(s.demo.Fan.ID).Role)

	got, err := s.service.GetClaim(s.ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal(models.ClaimStatusApproved, got.Status)
	s.Equal(s.demo.Admin.ID, *got.ProcessedBy)
	s.Equal(s.now, *got.ProcessedAt)

	s.Contains(s.auditActions(s.demo.Fan.ID), string(audit.EventClaimApproved))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Decisions.WithLabelValues("approve_claim", "ok")))

	s.Run("second decision is refused", func() {
		_, err := s.service.ApproveClaim(s.ctx, claim.ID, s.demo.Admin.ID)
		s.Require().ErrorIs(err, models.ErrAlreadyProcessed)
		s.Require().ErrorIs(s.service.RejectClaim(s.ctx, claim.ID, s.demo.Admin.ID, "tarde"), models.ErrAlreadyProcessed)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Decisions.WithLabelValues("approve_claim", "conflict")))
	})

	s.Run("owned profile can no longer be claimed", func() {
		_, err := s.service.CreateClaim(s.ctx, s.other.ID, service.CreateClaimRequest{Target: s.demo.Band.Ref})
		s.Require().ErrorIs(err, models.ErrAlreadyOwned)
	})
}

func (s *ServiceSuite) TestApproveClaim_UnknownClaim() {
	_, err := s.service.ApproveClaim(s.ctx, id.NewClaimID(), s.demo.Admin.ID)
	s.Require().ErrorIs(err, models.ErrClaimNotFound)
	s.Require().ErrorIs(s.service.RejectClaim(s.ctx, id.NewClaimID(), s.demo.Admin.ID, ""), models.ErrClaimNotFound)
}

func (s *ServiceSuite) TestApproveClaim_AdminKeepsRole() {
	claim := s.fileClaim(s.demo.Admin.ID, s.demo.Festival.Ref)
	s.notifier.EXPECT().SendClaimApproved(gomock.Any(), gomock.Any(), s.demo.Admin.Email, gomock.Any(), "festival").Return(nil)

	_, err := s.service.ApproveClaim(s.ctx, claim.ID, s.demo.Admin.ID)
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, s.user(s.demo.Admin.ID).Role)
}

func (s *ServiceSuite) TestApproveClaim_MergesImages() {
	withImages := models.ImageSet{Logo: "op-logo.png", Gallery: []string{"op-1.png"}}
	venue, err := models.NewOperatorEntity(models.EntityRef{Type: models.EntityVenue, ID: id.NewEntityID()}, "Sala Norte", withImages, s.demo.Admin.ID, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateEntity(s.ctx, venue))

	mine := &models.ImageSet{Logo: "mi-logo.png", Primary: "mi-foto.png", Gallery: []string{"a.png", "b.png"}}

	s.Run("operator images kept by default", func() {
		claim, err := s.service.CreateClaim(s.ctx, s.demo.Fan.ID, service.CreateClaimRequest{Target: venue.Ref, Images: mine})
		s.Require().NoError(err)
		s.notifier.EXPECT().SendClaimApproved(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		entity, err := s.service.ApproveClaim(s.ctx, claim.ID, s.demo.Admin.ID)
		s.Require().NoError(err)
		s.Equal(withImages, entity.Images)
	})

	s.Run("claimant images replace an empty profile", func() {
		claim, err := s.service.CreateClaim(s.ctx, s.other.ID, service.CreateClaimRequest{Target: s.demo.Venue.Ref, Images: mine})
		s.Require().NoError(err)
		s.notifier.EXPECT().SendClaimApproved(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		entity, err := s.service.ApproveClaim(s.ctx, claim.ID, s.demo.Admin.ID)
		s.Require().NoError(err)
		s.Equal("mi-logo.png", entity.Images.Logo)
		s.Equal("mi-foto.png", entity.Images.Primary)
		s.Equal([]string{"a.png", "b.png"}, entity.Images.Gallery)
	})
}

func (s *ServiceSuite) TestApproveClaim_UseMineOverridesOperatorImages() {
	withImages := models.ImageSet{Logo: "op-logo.png", Primary: "op-main.png"}
	band, err := models.NewOperatorEntity(models.EntityRef{Type: models.EntityBand, ID: id.NewEntityID()}, "Banda Norte", withImages, s.demo.Admin.ID, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateEntity(s.ctx, band))

	claim, err := s.service.CreateClaim(s.ctx, s.demo.Fan.ID, service.CreateClaimRequest{
		Target:      band.Ref,
		Images:      &models.ImageSet{Logo: "mi-logo.png"},
		ImageChoice: models.ImageChoiceUseMine,
	})
	s.Require().NoError(err)
	s.notifier.EXPECT().SendClaimApproved(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	entity, err := s.service.ApproveClaim(s.ctx, claim.ID, s.demo.Admin.ID)
	s.Require().NoError(err)
	s.Equal("mi-logo.png", entity.Images.Logo)
	s.Equal("op-main.png", entity.Images.Primary)
}

func (s *ServiceSuite) TestApproveClaim_ReassignsOrphanEvents() {
	// an event with a creator keeps it
	venueID := s.demo.Venue.Ref.ID
	creator := s.demo.Admin.ID
	owned := &models.Event{ID: id.NewEventID(), Name: "Ciclo propio", VenueID: &venueID, CreatedBy: &creator, StartsAt: s.now}
	s.Require().NoError(s.store.CreateEvent(s.ctx, owned))

	claimant := s.newUser("sala@escena.local", models.RoleUser)
	claim := s.fileClaim(claimant.ID, s.demo.Venue.Ref)
	s.notifier.EXPECT().SendClaimApproved(gomock.Any(), gomock.Any(), claimant.Email, s.demo.Venue.Name, "venue").Return(nil)

	_, err := s.service.ApproveClaim(s.ctx, claim.ID, s.demo.Admin.ID)
	s.Require().NoError(err)

	for _, seeded := range s.demo.Events {
		ev, err := s.store.FindEvent(s.ctx, seeded.ID)
		s.Require().NoError(err)
		s.Require().NotNil(ev.CreatedBy)
		s.Equal(claimant.ID, *ev.CreatedBy)
	}
	ev, err := s.store.FindEvent(s.ctx, owned.ID)
	s.Require().NoError(err)
	s.Equal(creator, *ev.CreatedBy)
	s.Equal(models.RoleVenue, s.user(claimant.ID).Role)
}

func (s *ServiceSuite) TestApproveClaim_ConcurrentDecisions() {
	claim := s.fileClaim(s.demo.Fan.ID, s.demo.Band.Ref)
	s.notifier.EXPECT().SendClaimApproved(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.ApproveClaim(s.ctx, claim.ID, s.demo.Admin.ID)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, models.ErrAlreadyProcessed)
	}
	s.Equal(1, succeeded)
}

func (s *ServiceSuite) TestRejectClaim() {
	claim := s.fileClaim(s.demo.Fan.ID, s.demo.Band.Ref)
	before := s.entity(s.demo.Band.Ref)
	s.notifier.EXPECT().
		SendClaimRejected(gomock.Any(), claim.ID.String(), s.demo.Fan.Email, s.demo.Band.Name, "band", "nombre no coincide").
		Return(nil)

	s.Require().NoError(s.service.RejectClaim(s.ctx, claim.ID, s.demo.Admin.ID, "  nombre no coincide "))

	got, err := s.service.GetClaim(s.ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal(models.ClaimStatusRejected, got.Status)
	s.Equal("nombre no coincide", got.RejectionReason)

	after := s.entity(s.demo.Band.Ref)
	s.Equal(before, after)
	s.Nil(after.OwnerID)
	s.True(after.OperatorCreated)
	s.Equal(models.RoleUser, s.user(s.demo.Fan.ID).Role)
	s.Contains(s.auditActions(s.demo.Fan.ID), string(audit.EventClaimRejected))

	s.Run("profile can be claimed again", func() {
		s.fileClaim(s.other.ID, s.demo.Band.Ref)
	})
}

func (s *ServiceSuite) TestNotificationFailureIsNotSurfaced() {
	claim := s.fileClaim(s.demo.Fan.ID, s.demo.Band.Ref)
	s.notifier.EXPECT().
		SendClaimApproved(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("smtp down"))

	_, err := s.service.ApproveClaim(s.ctx, claim.ID, s.demo.Admin.ID)
	s.Require().NoError(err)
	s.Equal(s.demo.Fan.ID, *s.entity(s.demo.Band.Ref).OwnerID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.NotificationFailures.WithLabelValues("claim_approved")))
}

func (s *ServiceSuite) TestNotificationOutlivesCancelledRequest() {
	claim := s.fileClaim(s.demo.Fan.ID, s.demo.Band.Ref)
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// the request goes away after commit, before the email is sent
	auditPublisher := mocks.NewMockAuditPublisher(s.ctrl)
	auditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, audit.Event) error {
			cancel()
			return nil
		})
	s.notifier.EXPECT().
		SendClaimApproved(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _, _, _ string) error {
			return ctx.Err()
		})
	svc, err := service.New(s.store,
		service.WithNotifier(s.notifier),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(s.metrics),
	)
	s.Require().NoError(err)

	_, err = svc.ApproveClaim(ctx, claim.ID, s.demo.Admin.ID)
	s.Require().NoError(err)
	s.Equal(0.0, testutil.ToFloat64(s.metrics.NotificationFailures.WithLabelValues("claim_approved")))
}

func (s *ServiceSuite) TestRollbackOnFailure() {
	failing := &failingStore{InMemory: s.store}
	svc, err := service.New(failing, service.WithNotifier(s.notifier))
	s.Require().NoError(err)

	claim := s.fileClaim(s.demo.Fan.ID, s.demo.Venue.Ref)
	before := s.entity(s.demo.Venue.Ref)

	_, err = svc.ApproveClaim(s.ctx, claim.ID, s.demo.Admin.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	s.Equal(before, s.entity(s.demo.Venue.Ref))
	s.Equal(models.RoleUser, s.user(s.demo.Fan.ID).Role)
	for _, seeded := range s.demo.Events {
		ev, err := s.store.FindEvent(s.ctx, seeded.ID)
		s.Require().NoError(err)
		s.Nil(ev.CreatedBy)
	}
	got, err := s.service.GetClaim(s.ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal(models.ClaimStatusPending, got.Status)
}

func (s *ServiceSuite) TestApproveRegistration() {
	entity, registrant := s.selfRegister(models.EntityPromoter, "Producciones Sur")

	approved, err := s.service.ApproveRegistration(s.ctx, entity.Ref, s.demo.Admin.ID)
	s.Require().NoError(err)
	s.True(approved.Approved)
	s.Equal(registrant.ID, *approved.OwnerID)
	s.Equal(models.RolePromoter, s.user(registrant.ID).Role)
	s.Contains(s.auditActions(registrant.ID), string(audit.EventRegistrationApproved))

	s.Run("approving twice is a conflict", func() {
		_, err := s.service.ApproveRegistration(s.ctx, entity.Ref, s.demo.Admin.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("approved profile cannot be rejected", func() {
		err := s.service.RejectRegistration(s.ctx, entity.Ref, s.demo.Admin.ID, "")
		s.Require().ErrorIs(err, models.ErrRegistrationAlreadyApproved)
		s.entity(entity.Ref)
	})

	s.Run("unknown profile", func() {
		_, err := s.service.ApproveRegistration(s.ctx, models.EntityRef{Type: models.EntityBand, ID: id.NewEntityID()}, s.demo.Admin.ID)
		s.Require().ErrorIs(err, models.ErrEntityNotFound)
	})
}

func (s *ServiceSuite) TestRejectRegistration() {
	s.Run("without reason sends nothing", func() {
		festival, registrant := s.selfRegister(models.EntityFestival, "Festival Nuevo")

		s.Require().NoError(s.service.RejectRegistration(s.ctx, festival.Ref, s.demo.Admin.ID, "  "))

		_, err := s.store.FindEntity(s.ctx, festival.Ref)
		s.Require().Error(err)
		s.Equal(models.RoleUser, s.user(registrant.ID).Role)
		s.Contains(s.auditActions(registrant.ID), string(audit.EventRegistrationRejected))
	})

	s.Run("with reason notifies the registrant", func() {
		band, registrant := s.selfRegister(models.EntityBand, "Banda Dudosa")
		s.notifier.EXPECT().
			SendRequestRejected(gomock.Any(), band.Ref.String(), registrant.Email, "Banda Dudosa", "band", "datos incompletos").
			Return(nil)

		s.Require().NoError(s.service.RejectRegistration(s.ctx, band.Ref, s.demo.Admin.ID, "datos incompletos"))
		s.Equal(models.RoleUser, s.user(registrant.ID).Role)
	})

	s.Run("events are detached from a rejected venue", func() {
		venue, _ := s.selfRegister(models.EntityVenue, "Sala Fantasma")
		venueID := venue.Ref.ID
		ev := &models.Event{ID: id.NewEventID(), Name: "Fecha", VenueID: &venueID, StartsAt: s.now}
		s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

		s.Require().NoError(s.service.RejectRegistration(s.ctx, venue.Ref, s.demo.Admin.ID, ""))

		got, err := s.store.FindEvent(s.ctx, ev.ID)
		s.Require().NoError(err)
		s.Nil(got.VenueID)
	})
}

func (s *ServiceSuite) TestAuditEmitFailureIsNotSurfaced() {
	auditPublisher := mocks.NewMockAuditPublisher(s.ctrl)
	auditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
	svc, err := service.New(s.store, service.WithAuditPublisher(auditPublisher))
	s.Require().NoError(err)

	_, err = svc.CreateClaim(s.ctx, s.demo.Fan.ID, service.CreateClaimRequest{Target: s.demo.Band.Ref})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestListClaims() {
	first := s.fileClaim(s.demo.Fan.ID, s.demo.Band.Ref)
	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
	second, err := s.service.CreateClaim(later, s.demo.Fan.ID, service.CreateClaimRequest{Target: s.demo.Venue.Ref})
	s.Require().NoError(err)
	s.fileClaim(s.other.ID, s.demo.Festival.Ref)

	pending, err := s.service.ListPendingClaims(s.ctx)
	s.Require().NoError(err)
	s.Len(pending, 3)
	s.Equal(first.ID, pending[0].ID)

	mine, err := s.service.ListClaimsByClaimant(s.ctx, s.demo.Fan.ID)
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal(second.ID, mine[0].ID)
	s.Equal(first.ID, mine[1].ID)
}

func (s *ServiceSuite) TestRepeatedClaimRejectionsEachNotify() {
	mailer := &outbox{}
	svc, err := service.New(s.store,
		service.WithNotifier(notification.NewGateway(mailer, notification.WithDeduper(&setDeduper{seen: map[string]bool{}}))),
		service.WithNotifyTimeout(time.Second),
	)
	s.Require().NoError(err)

	for _, reason := range []string{"nombre no coincide", "faltan pruebas"} {
		claim, err := svc.CreateClaim(s.ctx, s.demo.Fan.ID, service.CreateClaimRequest{Target: s.demo.Band.Ref})
		s.Require().NoError(err)
		s.Require().NoError(svc.RejectClaim(s.ctx, claim.ID, s.demo.Admin.ID, reason))
	}

	sent := mailer.messages()
	s.Require().Len(sent, 2)
	s.Contains(sent[0].TextBody, "nombre no coincide")
	s.Contains(sent[1].TextBody, "faltan pruebas")
}

type outbox struct {
	mu   sync.Mutex
	sent []notification.Message
}

func (o *outbox) Send(_ context.Context, msg notification.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) messages() []notification.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notification.Message(nil), o.sent...)
}

type setDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *setDeduper) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *setDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

func (s *ServiceSuite) TestCreateClaim_DoesNotLockClaimantRow() {
	svc, err := service.New(&noUserLockStore{InMemory: s.store})
	s.Require().NoError(err)

	claim, err := svc.CreateClaim(s.ctx, s.demo.Fan.ID, service.CreateClaimRequest{Target: s.demo.Band.Ref})
	s.Require().NoError(err)
	s.Equal(models.ClaimStatusPending, claim.Status)

	_, err = svc.CreateClaim(s.ctx, id.UserID(uuid.New()), service.CreateClaimRequest{Target: s.demo.Venue.Ref})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestReadsWaitForInFlightApproval() {
	claim := s.fileClaim(s.demo.Fan.ID, s.demo.Band.Ref)
	gated := &gatedStore{InMemory: s.store, entered: make(chan struct{}), release: make(chan struct{})}
	svc, err := service.New(gated)
	s.Require().NoError(err)

	approved := make(chan error, 1)
	go func() {
		_, err := svc.ApproveClaim(s.ctx, claim.ID, s.demo.Admin.ID)
		approved <- err
	}()
	<-gated.entered

	read := make(chan *models.ProfileClaim, 1)
	go func() {
		got, err := svc.GetClaim(s.ctx, claim.ID)
		if err == nil {
			read <- got
		}
	}()

	select {
	case <-read:
		s.Fail("read returned while the approval was half applied")
	case <-time.After(50 * time.Millisecond):
	}

	close(gated.release)
	s.Require().NoError(<-approved)
	got := <-read
	s.Equal(models.ClaimStatusApproved, got.Status)
}

// noUserLockStore rejects the locking user read used by decisions.
type noUserLockStore struct {
	*store.InMemory
}

func (n *noUserLockStore) FindUserByID(context.Context, id.UserID) (*models.User, error) {
	return nil, errors.New("user row locked")
}

// gatedStore pauses an approval after the profile has been updated.
type gatedStore struct {
	*store.InMemory
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) UpdateUserRole(ctx context.Context, userID id.UserID, role models.Role) error {
	close(g.entered)
	<-g.release
	return g.InMemory.UpdateUserRole(ctx, userID, role)
}

// failingStore fails the last write of claim approval so earlier writes must
// be rolled back.
type failingStore struct {
	*store.InMemory
}

func (f *failingStore) UpdateClaim(context.Context, *models.ProfileClaim) error {
	return errors.New("disk full")
}
