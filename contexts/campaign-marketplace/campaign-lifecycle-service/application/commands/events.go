package commands

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"

	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

const moduleName = "campaign-marketplace/campaign-lifecycle-service"

const (
	EventCampaignCreated     = "campaign.created"
	EventCampaignCancelled   = "campaign.cancelled"
	EventNotificationCreated = "notification.created"
)

func newLifecycleEnvelope(
	ctx context.Context,
	eventID string,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	traceID := eventID
	if spanContext := trace.SpanContextFromContext(ctx); spanContext.HasTraceID() {
		traceID = spanContext.TraceID().String()
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "campaign-lifecycle-service",
		TraceID:          traceID,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             payload,
	}, nil
}

func appendEvent(
	ctx context.Context,
	store ports.Store,
	ids ports.IDGenerator,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) error {
	eventID, err := ids.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newLifecycleEnvelope(ctx, eventID, eventType, partitionKeyPath, partitionKey, occurredAt, data)
	if err != nil {
		return err
	}
	return store.AppendOutbox(ctx, envelope)
}
