package service

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	audit "escena/pkg/platform/audit"
)

// Notifier delivers outcome emails. Calls happen after commit; errors are
// logged and counted by the caller, never returned to the admin. key identifies
// the decision being announced: the claim ID for claim outcomes and the entity
// ref for registration outcomes. Repeated calls with the same key and outcome
// may be collapsed into one email.
type Notifier interface {
	SendClaimApproved(ctx context.Context, key, to, entityName, entityType string) error
	SendClaimRejected(ctx context.Context, key, to, entityName, entityType, reason string) error
	SendRequestRejected(ctx context.Context, key, to, entityName, entityType, reason string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
