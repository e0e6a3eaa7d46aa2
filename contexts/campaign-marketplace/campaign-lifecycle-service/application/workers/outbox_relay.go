package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	application "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

// OutboxRelay moves committed lifecycle events from the outbox to the bus.
// Rows are published in outbox order and the cycle stops at the first publish
// failure, so a later event never overtakes an earlier one.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	ctx, span := application.StartSpan(ctx, "outbox.relay")
	defer span.End()

	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}
	rows, err := r.Outbox.ListPendingOutbox(ctx, batch)
	if err != nil {
		span.RecordError(err)
		logger.Error("lifecycle outbox list failed",
			"event", "lifecycle_outbox_list_failed",
			"module", moduleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	published, skipped := 0, 0
	for _, row := range rows {
		event, ok := decodeOutboxRow(row)
		if !ok {
			// Left pending for manual inspection.
			skipped++
			logger.Error("lifecycle outbox row undecodable",
				"event", "lifecycle_outbox_decode_failed",
				"module", moduleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", row.EventType,
			)
			continue
		}

		if err := r.Publisher.Publish(ctx, event.EventType, event); err != nil {
			span.RecordError(err)
			logger.Error("lifecycle outbox publish failed",
				"event", "lifecycle_outbox_publish_failed",
				"module", moduleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"topic", event.EventType,
				"published_count", published,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, r.now()); err != nil {
			span.RecordError(err)
			logger.Error("lifecycle outbox mark published failed",
				"event", "lifecycle_outbox_mark_published_failed",
				"module", moduleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		published++
	}

	span.SetAttributes(
		attribute.Int("outbox.published", published),
		attribute.Int("outbox.skipped", skipped),
	)
	logger.Info("lifecycle outbox relay cycle completed",
		"event", "lifecycle_outbox_relay_completed",
		"module", moduleName,
		"layer", "worker",
		"published_count", published,
		"skipped_count", skipped,
	)
	return nil
}

func (r OutboxRelay) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// decodeOutboxRow restores the stored envelope. Row columns fill in the topic
// and partition key when the payload left them empty.
func decodeOutboxRow(row ports.OutboxMessage) (ports.EventEnvelope, bool) {
	var event ports.EventEnvelope
	if err := json.Unmarshal(row.Payload, &event); err != nil {
		return ports.EventEnvelope{}, false
	}
	if event.EventType == "" {
		event.EventType = row.EventType
	}
	if event.PartitionKey == "" {
		event.PartitionKey = row.PartitionKey
	}
	if event.EventID == "" {
		event.EventID = row.OutboxID
	}
	return event, event.EventType != ""
}
