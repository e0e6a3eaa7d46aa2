package ports

import (
	"context"
	"time"

	contractsv1 "brandreach/contracts/events/v1"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
)

type CampaignFilter struct {
	BrandID string
	Status  entities.CampaignStatus
}

type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign entities.Campaign) error
	// SaveCampaign overwrites the mutable campaign fields. BrandID and
	// CreatedAt are never changed.
	SaveCampaign(ctx context.Context, campaign entities.Campaign) error
	GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error)
	// GetCampaignForUpdate loads the campaign and holds its row lock until the
	// enclosing transaction ends.
	GetCampaignForUpdate(ctx context.Context, campaignID string) (entities.Campaign, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]entities.Campaign, error)
	// ListCampaignsDueForSweep returns ids of open campaigns that reached their
	// start date while upcoming, passed their end date, or have an active
	// completion stage.
	ListCampaignsDueForSweep(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type InvitationRepository interface {
	CreateInvitation(ctx context.Context, invitation entities.Invitation) error
	UpdateInvitation(ctx context.Context, invitation entities.Invitation) error
	DeleteInvitation(ctx context.Context, invitationID string) error
	GetInvitation(ctx context.Context, invitationID string) (entities.Invitation, error)
	FindPendingInvitation(ctx context.Context, campaignID string, influencerID string) (entities.Invitation, bool, error)
	ListInvitationsByCampaign(ctx context.Context, campaignID string) ([]entities.Invitation, error)
	ListInvitationsByInfluencer(ctx context.Context, influencerID string) ([]entities.Invitation, error)
}

type ContentRepository interface {
	CreateContent(ctx context.Context, content entities.Content) error
	UpdateContent(ctx context.Context, content entities.Content) error
	GetContent(ctx context.Context, contentID string) (entities.Content, error)
	// ListContentByCampaign returns records ordered by creation time, oldest first.
	ListContentByCampaign(ctx context.Context, campaignID string) ([]entities.Content, error)
}

type NotificationFilter struct {
	RecipientID string
	UnreadOnly  bool
	Limit       int
}

type NotificationRepository interface {
	// InsertNotification stores the notification. When DedupKey is set and a
	// notification with the same key exists, nothing is written and inserted
	// is false.
	InsertNotification(ctx context.Context, notification entities.Notification) (inserted bool, err error)
	GetNotification(ctx context.Context, notificationID string) (entities.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string, readAt time.Time) error
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]entities.Notification, error)
}

type StatisticsRepository interface {
	AppendInfluencerInvitation(ctx context.Context, influencerID string, invitationID string, at time.Time) error
	IncrementInfluencerCompletedCampaigns(ctx context.Context, influencerID string, at time.Time) error
	GetInfluencerProfile(ctx context.Context, influencerID string) (entities.InfluencerProfile, error)
	IncrementBrandStats(ctx context.Context, brandID string, delta entities.BrandStatsDelta, at time.Time) error
	GetBrandStats(ctx context.Context, brandID string) (entities.BrandStats, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// Store is the full record store surface visible inside a transaction.
type Store interface {
	CampaignRepository
	InvitationRepository
	ContentRepository
	NotificationRepository
	StatisticsRepository
	OutboxWriter
}

// UnitOfWork runs fn in one atomic transaction. Any error returned by fn
// rolls back every write made through the provided store. Write conflicts
// surface as domain ErrTransactionConflict.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type EventDedupStore interface {
	// ReserveEvent reports true when a live reservation for eventID exists.
	// Expired reservations are taken over.
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
	// ReleaseEvent drops the reservation so a redelivery is handled again.
	ReleaseEvent(ctx context.Context, eventID string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
