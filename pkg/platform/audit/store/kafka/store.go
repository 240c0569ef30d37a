// Package kafka streams audit events to a topic, keyed by user so a user's
// history stays ordered within one partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	audit "escena/pkg/platform/audit"
)

// Producer is satisfied by internal/platform/kafka.Producer.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

type Store struct {
	producer Producer
}

func New(producer Producer) *Store {
	return &Store{producer: producer}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.producer.Produce(ctx, []byte(event.UserID.String()), payload)
}
