// Package application holds helpers shared by the subscription command
// handlers and services.
package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	sharedApplication "github.com/xl-c111/Flora-sub001/internal/shared/application"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
)

// RecordEvents stamps request metadata on events and writes them to the
// outbox through ctx's transaction.
func RecordEvents(ctx context.Context, repo outbox.Repository, userID uuid.UUID, events ...sharedDomain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, userID))
	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := repo.SaveBatch(ctx, msgs); err != nil {
		return fmt.Errorf("failed to write events to outbox: %w", err)
	}
	return nil
}

// RecordAggregateEvents drains an aggregate's pending events into the outbox.
func RecordAggregateEvents(ctx context.Context, repo outbox.Repository, userID uuid.UUID, agg sharedDomain.AggregateRoot) error {
	if err := RecordEvents(ctx, repo, userID, agg.DomainEvents()...); err != nil {
		return err
	}
	agg.ClearDomainEvents()
	return nil
}
