package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/gomail.v2"

	"escena/pkg/platform/circuit"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type memoryDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (d *memoryDeduper) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memoryDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

type GatewaySuite struct {
	suite.Suite
	mailer  *recordingMailer
	deduper *memoryDeduper
	now     time.Time
	gateway *Gateway
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.mailer = &recordingMailer{}
	s.deduper = &memoryDeduper{seen: map[string]bool{}}
	s.now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := circuit.New("smtp-test",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return s.now }),
	)
	s.gateway = NewGateway(s.mailer, WithDeduper(s.deduper), WithBreaker(breaker))
}

func (s *GatewaySuite) TestRendersOutcomeEmails() {
	ctx := context.Background()

	s.Run("claim approved", func() {
		s.Require().NoError(s.gateway.SendClaimApproved(ctx, "claim-1", "ana.lopez@example.com", "Sala Z", "venue"))
		msg := s.mailer.sent[len(s.mailer.sent)-1]
		s.Equal("ana.lopez@example.com", msg.To)
		s.Equal("Tu solicitud para Sala Z fue aprobada", msg.Subject)
		s.Contains(msg.TextBody, "Hola Ana")
		s.Contains(msg.TextBody, "la sala Sala Z")
		s.Contains(msg.HTMLBody, "<b>Sala Z</b>")
	})

	s.Run("claim rejected carries reason", func() {
		s.Require().NoError(s.gateway.SendClaimRejected(ctx, "claim-2", "ana@example.com", "Los X", "band", "sin pruebas"))
		msg := s.mailer.sent[len(s.mailer.sent)-1]
		s.Contains(msg.TextBody, "Motivo: sin pruebas")
	})

	s.Run("request rejected", func() {
		s.Require().NoError(s.gateway.SendRequestRejected(ctx, "promoter:p-1", "ana@example.com", "Prod X", "promoter", "duplicado"))
		msg := s.mailer.sent[len(s.mailer.sent)-1]
		s.Equal("Tu registro de Prod X no fue aprobado", msg.Subject)
		s.Contains(msg.TextBody, "la promotora Prod X")
	})

	s.Run("html escapes profile names", func() {
		s.Require().NoError(s.gateway.SendClaimApproved(ctx, "claim-3", "ana@example.com", "<script>x</script>", "band"))
		msg := s.mailer.sent[len(s.mailer.sent)-1]
		s.NotContains(msg.HTMLBody, "<script>")
	})
}

func (s *GatewaySuite) TestRejectsInvalidRecipient() {
	err := s.gateway.SendClaimApproved(context.Background(), "claim-1", "not-an-email", "Sala Z", "venue")
	s.ErrorIs(err, ErrInvalidRecipient)
	s.Empty(s.mailer.sent)
}

func (s *GatewaySuite) TestRejectsMissingKey() {
	err := s.gateway.SendClaimRejected(context.Background(), " ", "ana@example.com", "Los X", "band", "no")
	s.ErrorIs(err, ErrMissingKey)
	s.Empty(s.mailer.sent)
}

func (s *GatewaySuite) TestDedupe() {
	ctx := context.Background()

	s.Run("same decision is sent once", func() {
		s.Require().NoError(s.gateway.SendClaimApproved(ctx, "claim-1", "ana@example.com", "Sala Z", "venue"))
		s.Require().NoError(s.gateway.SendClaimApproved(ctx, "claim-1", "ana@example.com", "Sala Z", "venue"))
		s.Len(s.mailer.sent, 1)
	})

	s.Run("separate claims on the same profile each get their email", func() {
		s.Require().NoError(s.gateway.SendClaimRejected(ctx, "claim-10", "ana@example.com", "Los X", "band", "nombre no coincide"))
		s.Require().NoError(s.gateway.SendClaimRejected(ctx, "claim-11", "ana@example.com", "Los X", "band", "faltan pruebas"))
		s.Require().Len(s.mailer.sent, 3)
		s.Contains(s.mailer.sent[1].TextBody, "nombre no coincide")
		s.Contains(s.mailer.sent[2].TextBody, "faltan pruebas")
	})

	s.Run("repeated registration rejections each get their email", func() {
		s.Require().NoError(s.gateway.SendRequestRejected(ctx, "band:r-1", "ana@example.com", "Los X", "band", "duplicado"))
		s.Require().NoError(s.gateway.SendRequestRejected(ctx, "band:r-2", "ana@example.com", "Los X", "band", "duplicado"))
		s.Len(s.mailer.sent, 5)
	})

	s.Run("outcome is part of the key", func() {
		s.Require().NoError(s.gateway.SendClaimApproved(ctx, "claim-10", "ana@example.com", "Los X", "band"))
		s.Len(s.mailer.sent, 6)
	})

	s.Run("failed send is released for a later retry", func() {
		s.mailer.err = errors.New("smtp down")
		s.Error(s.gateway.SendClaimRejected(ctx, "claim-20", "bob@example.com", "Los X", "band", "no"))
		s.mailer.err = nil
		s.NoError(s.gateway.SendClaimRejected(ctx, "claim-20", "bob@example.com", "Los X", "band", "no"))
		s.Len(s.mailer.sent, 7)
	})

	s.Run("dedupe outage still sends", func() {
		s.deduper.err = errors.New("redis down")
		s.NoError(s.gateway.SendClaimApproved(ctx, "claim-1", "ana@example.com", "Sala Z", "venue"))
		s.Len(s.mailer.sent, 8)
		s.deduper.err = nil
	})
}

func (s *GatewaySuite) TestBreakerOpensAfterFailures() {
	ctx := context.Background()
	s.mailer.err = errors.New("smtp down")

	s.Error(s.gateway.SendClaimApproved(ctx, "claim-a", "a@example.com", "A", "band"))
	s.Error(s.gateway.SendClaimApproved(ctx, "claim-b", "b@example.com", "B", "band"))

	s.mailer.err = nil
	err := s.gateway.SendClaimApproved(ctx, "claim-c", "c@example.com", "C", "band")
	s.ErrorIs(err, ErrCircuitOpen)
	s.Empty(s.mailer.sent)

	s.now = s.now.Add(2 * time.Minute)
	s.NoError(s.gateway.SendClaimApproved(ctx, "claim-c", "c@example.com", "C", "band"))
	s.Len(s.mailer.sent, 1)
}

type fakeDialer struct {
	sent []*gomail.Message
	err  error
	wait chan struct{}
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.wait != nil {
		<-d.wait
	}
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSMTPMailer(t *testing.T) {
	t.Run("builds multipart message", func(t *testing.T) {
		d := &fakeDialer{}
		m := &SMTPMailer{dialer: d, from: "no-reply@escena.local"}

		err := m.Send(context.Background(), Message{To: "ana@example.com", Subject: "Hola", TextBody: "t", HTMLBody: "<p>h</p>"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(d.sent) != 1 {
			t.Fatalf("expected 1 message, got %d", len(d.sent))
		}
		if got := d.sent[0].GetHeader("To"); len(got) != 1 || got[0] != "ana@example.com" {
			t.Fatalf("unexpected To header: %v", got)
		}
	})

	t.Run("returns when context ends", func(t *testing.T) {
		d := &fakeDialer{wait: make(chan struct{})}
		defer close(d.wait)
		m := &SMTPMailer{dialer: d, from: "no-reply@escena.local"}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if err := m.Send(ctx, Message{To: "ana@example.com"}); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	})
}
