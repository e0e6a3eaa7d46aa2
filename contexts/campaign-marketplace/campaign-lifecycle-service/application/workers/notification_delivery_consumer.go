package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

const (
	notificationCreatedTopic         = "notification.created"
	defaultNotificationConsumerGroup = "campaign-lifecycle-notification-delivery-cg"
)

type NotificationDelivery struct {
	EventID          string
	NotificationID   string
	RecipientID      string
	NotificationType string
	Title            string
	Message          string
	CampaignID       string
}

// DeliveryChannel hands a notification to an external channel such as email
// or push. Nil means deliveries are only logged.
type DeliveryChannel interface {
	Deliver(ctx context.Context, delivery NotificationDelivery) error
}

// NotificationDeliveryConsumer forwards notification.created events to the
// delivery channel once per event id.
type NotificationDeliveryConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Channel       DeliveryChannel
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c NotificationDeliveryConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("notification delivery consumer disabled by feature flag",
			"event", "notification_delivery_consumer_disabled",
			"module", moduleName,
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultNotificationConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, notificationCreatedTopic, group, c.handleNotificationCreated)
}

func (c NotificationDeliveryConsumer) handleNotificationCreated(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}

	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), now.Add(c.dedupTTL()))
	if err != nil {
		logger.Error("notification.created dedupe failed",
			"event", "notification_delivery_dedupe_failed",
			"module", moduleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("notification.created already processed",
			"event", "notification_delivery_replayed",
			"module", moduleName,
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload struct {
		NotificationID   string `json:"notification_id"`
		RecipientID      string `json:"recipient_id"`
		NotificationType string `json:"notification_type"`
		Title            string `json:"title"`
		Message          string `json:"message"`
		CampaignID       string `json:"campaign_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode notification.created payload: %w", err)
	}
	if strings.TrimSpace(payload.RecipientID) == "" {
		return fmt.Errorf("notification.created payload missing recipient_id")
	}

	delivery := NotificationDelivery{
		EventID:          event.EventID,
		NotificationID:   payload.NotificationID,
		RecipientID:      payload.RecipientID,
		NotificationType: payload.NotificationType,
		Title:            payload.Title,
		Message:          payload.Message,
		CampaignID:       payload.CampaignID,
	}
	if c.Channel != nil {
		if err := c.Channel.Deliver(ctx, delivery); err != nil {
			logger.Error("notification delivery failed",
				"event", "notification_delivery_failed",
				"module", moduleName,
				"layer", "worker",
				"event_id", event.EventID,
				"notification_id", payload.NotificationID,
				"error", err.Error(),
			)
			if releaseErr := c.Dedup.ReleaseEvent(ctx, event.EventID); releaseErr != nil {
				logger.Error("notification.created release failed",
					"event", "notification_delivery_release_failed",
					"module", moduleName,
					"layer", "worker",
					"event_id", event.EventID,
					"error", releaseErr.Error(),
				)
			}
			return err
		}
	}

	logger.Info("notification handed off for delivery",
		"event", "notification_delivery_handed_off",
		"module", moduleName,
		"layer", "worker",
		"event_id", event.EventID,
		"notification_id", payload.NotificationID,
		"recipient_id", payload.RecipientID,
		"notification_type", payload.NotificationType,
	)
	return nil
}

func (c NotificationDeliveryConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
