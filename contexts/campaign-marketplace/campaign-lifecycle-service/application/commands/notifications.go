package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
	domainerrors "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/errors"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

// NotificationEmitter writes notifications inside the caller's transaction and
// queues a notification.created event for delivery.
type NotificationEmitter struct {
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Emit returns false when the notification's dedup key was already used.
func (e NotificationEmitter) Emit(ctx context.Context, store ports.Store, notification entities.Notification) (bool, error) {
	logger := application.ResolveLogger(e.Logger)
	if !notification.Type.Valid() || strings.TrimSpace(notification.RecipientID) == "" {
		return false, fmt.Errorf("notification %q: %w", notification.Type, domainerrors.ErrInvalidInput)
	}

	notificationID, err := e.IDGenerator.NewID(ctx)
	if err != nil {
		return false, err
	}
	now := e.Clock.Now().UTC()
	notification = notification.Clone()
	notification.NotificationID = notificationID
	notification.Read = false
	notification.ReadAt = nil
	notification.CreatedAt = now

	inserted, err := store.InsertNotification(ctx, notification)
	if err != nil {
		return false, err
	}
	if !inserted {
		logger.Debug("duplicate notification skipped",
			"event", "notification_deduplicated",
			"module", moduleName,
			"layer", "application",
			"notification_type", string(notification.Type),
			"dedup_key", notification.DedupKey,
		)
		return false, nil
	}

	if err := appendEvent(ctx, store, e.IDGenerator, EventNotificationCreated, "recipient_id", notification.RecipientID, now, map[string]any{
		"notification_id":   notification.NotificationID,
		"recipient_id":      notification.RecipientID,
		"notification_type": string(notification.Type),
		"title":             notification.Title,
		"message":           notification.Message,
		"campaign_id":       notification.CampaignID(),
	}); err != nil {
		return false, err
	}
	return true, nil
}

type MarkNotificationReadCommand struct {
	NotificationID string
	RecipientID    string
}

type MarkNotificationReadUseCase struct {
	Transactions application.TxRunner
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (uc MarkNotificationReadUseCase) Execute(ctx context.Context, cmd MarkNotificationReadCommand) (entities.Notification, error) {
	logger := application.ResolveLogger(uc.Logger)
	notificationID := strings.TrimSpace(cmd.NotificationID)
	recipientID := strings.TrimSpace(cmd.RecipientID)

	var result entities.Notification
	err := uc.Transactions.Run(ctx, "mark_notification_read", func(ctx context.Context, store ports.Store) error {
		notification, err := store.GetNotification(ctx, notificationID)
		if err != nil {
			return err
		}
		if notification.RecipientID != recipientID {
			return domainerrors.ErrNotRecipient
		}
		if notification.Read {
			result = notification
			return nil
		}
		readAt := uc.Clock.Now().UTC()
		if err := store.MarkNotificationRead(ctx, notificationID, readAt); err != nil {
			return err
		}
		notification.Read = true
		notification.ReadAt = &readAt
		result = notification
		return nil
	})
	if err != nil {
		return entities.Notification{}, err
	}

	logger.Debug("notification marked read",
		"event", "notification_marked_read",
		"module", moduleName,
		"layer", "application",
		"notification_id", notificationID,
	)
	return result, nil
}
