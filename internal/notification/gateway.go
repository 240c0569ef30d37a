// Package notification renders and delivers the outcome emails of the claim and
// registration workflows.
package notification

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"escena/pkg/email"
	"escena/pkg/platform/circuit"
)

var (
	ErrCircuitOpen      = errors.New("notification: mail transport unavailable")
	ErrInvalidRecipient = errors.New("notification: invalid recipient")
	ErrMissingKey       = errors.New("notification: missing decision key")
)

// Gateway sends one email per call. It skips a send whose decision key and
// outcome the deduper has already seen and stops calling the mailer while the
// breaker is open.
type Gateway struct {
	mailer  Mailer
	breaker *circuit.Breaker
	deduper Deduper
	logger  *slog.Logger
}

type Option func(*Gateway)

func WithDeduper(d Deduper) Option {
	return func(g *Gateway) {
		g.deduper = d
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(g *Gateway) {
		g.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func NewGateway(mailer Mailer, opts ...Option) *Gateway {
	g := &Gateway{
		mailer:  mailer,
		breaker: circuit.New("smtp"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SendClaimApproved announces an approved claim. key is the claim ID.
func (g *Gateway) SendClaimApproved(ctx context.Context, key, to, entityName, entityType string) error {
	return g.send(ctx, KindClaimApproved, key, to, entityName, entityType, "")
}

// SendClaimRejected announces a rejected claim with its reason. key is the claim ID.
func (g *Gateway) SendClaimRejected(ctx context.Context, key, to, entityName, entityType, reason string) error {
	return g.send(ctx, KindClaimRejected, key, to, entityName, entityType, reason)
}

// SendRequestRejected announces a rejected self-registration. key is the
// entity ref of the deleted profile.
func (g *Gateway) SendRequestRejected(ctx context.Context, key, to, entityName, entityType, reason string) error {
	return g.send(ctx, KindRequestRejected, key, to, entityName, entityType, reason)
}

func (g *Gateway) send(ctx context.Context, kind Kind, ref, to, entityName, entityType, reason string) error {
	to = strings.TrimSpace(to)
	if !email.Valid(to) {
		return ErrInvalidRecipient
	}
	if strings.TrimSpace(ref) == "" {
		return ErrMissingKey
	}
	msg, err := render(kind, to, templateData{
		Greeting:    email.GreetingName(to),
		EntityName:  entityName,
		EntityLabel: entityLabel(entityType),
		Reason:      strings.TrimSpace(reason),
	})
	if err != nil {
		return err
	}

	key := dedupeKey(string(kind), ref)
	if g.deduper != nil {
		first, err := g.deduper.Claim(ctx, key)
		switch {
		case err != nil:
			// send anyway; a duplicate beats a lost notification
			g.logger.WarnContext(ctx, "notification dedupe unavailable", "kind", string(kind), "error", err)
		case !first:
			g.logger.InfoContext(ctx, "notification already sent", "kind", string(kind))
			return nil
		}
	}

	if !g.breaker.Allow() {
		g.release(ctx, key)
		return ErrCircuitOpen
	}
	if err := g.mailer.Send(ctx, msg); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.ErrorContext(ctx, "mail transport circuit opened", "breaker", g.breaker.Name())
		}
		g.release(ctx, key)
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "mail transport circuit closed", "breaker", g.breaker.Name())
	}
	return nil
}

func (g *Gateway) release(ctx context.Context, key string) {
	if g.deduper == nil {
		return
	}
	if err := g.deduper.Release(ctx, key); err != nil {
		g.logger.WarnContext(ctx, "notification dedupe release failed", "error", err)
	}
}
