package postgresadapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
	domainerrors "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/errors"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

const defaultLockTimeout = 5 * time.Second

type Repository struct {
	db          *gorm.DB
	lockTimeout time.Duration
	logger      *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:          db,
		lockTimeout: defaultLockTimeout,
		logger:      logger,
	}
}

// WithLockTimeout bounds how long a transaction waits for a campaign row lock
// before the attempt fails as a conflict.
func (r *Repository) WithLockTimeout(timeout time.Duration) *Repository {
	if timeout > 0 {
		r.lockTimeout = timeout
	}
	return r
}

// WithinTransaction runs fn in a READ COMMITTED transaction. Campaign rows are
// locked explicitly with GetCampaignForUpdate, which serializes concurrent
// writers on the same campaign.
func (r *Repository) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())).Error; err != nil {
			return err
		}
		return fn(ctx, &Repository{db: tx, lockTimeout: r.lockTimeout, logger: r.logger})
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	return mapStoreError(err)
}

func (r *Repository) CreateCampaign(ctx context.Context, campaign entities.Campaign) error {
	row := campaignModelFromEntity(campaign)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidCampaignInput
		}
		return mapStoreError(err)
	}
	return nil
}

func (r *Repository) SaveCampaign(ctx context.Context, campaign entities.Campaign) error {
	result := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("campaign_id = ?", strings.TrimSpace(campaign.CampaignID)).
		Updates(campaignUpdatesFromEntity(campaign))
	if result.Error != nil {
		return mapStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCampaignNotFound
	}
	return nil
}

func (r *Repository) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return r.getCampaign(r.db.WithContext(ctx), campaignID)
}

func (r *Repository) GetCampaignForUpdate(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return r.getCampaign(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), campaignID)
}

func (r *Repository) getCampaign(query *gorm.DB, campaignID string) (entities.Campaign, error) {
	var row campaignModel
	err := query.
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, domainerrors.ErrCampaignNotFound
		}
		return entities.Campaign{}, mapStoreError(err)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCampaigns(ctx context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	tx := r.db.WithContext(ctx).Model(&campaignModel{})
	if strings.TrimSpace(filter.BrandID) != "" {
		tx = tx.Where("brand_id = ?", strings.TrimSpace(filter.BrandID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []campaignModel
	if err := tx.Order("created_at DESC").Order("campaign_id ASC").Find(&rows).Error; err != nil {
		return nil, mapStoreError(err)
	}

	items := make([]entities.Campaign, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListCampaignsDueForSweep(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("status NOT IN ?", []string{string(entities.CampaignStatusCompleted), string(entities.CampaignStatusCancelled)}).
		Where(
			"((status = ? AND start_date <= ?) OR end_date < ? OR progress->'completion'->>'status' = ?)",
			string(entities.CampaignStatusUpcoming), now.UTC(), now.UTC(), string(entities.StageStatusActive),
		).
		Order("end_date ASC").
		Order("campaign_id ASC").
		Limit(limit).
		Pluck("campaign_id", &ids).
		Error
	if err != nil {
		return nil, mapStoreError(err)
	}
	return ids, nil
}

func (r *Repository) CreateInvitation(ctx context.Context, invitation entities.Invitation) error {
	row := invitationModelFromEntity(invitation)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateInvitation
		}
		return mapStoreError(err)
	}
	return nil
}

func (r *Repository) UpdateInvitation(ctx context.Context, invitation entities.Invitation) error {
	result := r.db.WithContext(ctx).
		Model(&invitationModel{}).
		Where("invitation_id = ?", strings.TrimSpace(invitation.InvitationID)).
		Updates(map[string]any{
			"message":      invitation.Message,
			"status":       string(invitation.Status),
			"updated_at":   invitation.UpdatedAt.UTC(),
			"responded_at": normalizeOptionalTime(invitation.RespondedAt),
		})
	if result.Error != nil {
		return mapStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvitationNotFound
	}
	return nil
}

func (r *Repository) DeleteInvitation(ctx context.Context, invitationID string) error {
	result := r.db.WithContext(ctx).
		Where("invitation_id = ?", strings.TrimSpace(invitationID)).
		Delete(&invitationModel{})
	if result.Error != nil {
		return mapStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvitationNotFound
	}
	return nil
}

func (r *Repository) GetInvitation(ctx context.Context, invitationID string) (entities.Invitation, error) {
	var row invitationModel
	err := r.db.WithContext(ctx).
		Where("invitation_id = ?", strings.TrimSpace(invitationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Invitation{}, domainerrors.ErrInvitationNotFound
		}
		return entities.Invitation{}, mapStoreError(err)
	}
	return row.toEntity(), nil
}

func (r *Repository) FindPendingInvitation(ctx context.Context, campaignID string, influencerID string) (entities.Invitation, bool, error) {
	var rows []invitationModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND influencer_id = ? AND status = ?",
			strings.TrimSpace(campaignID),
			strings.TrimSpace(influencerID),
			string(entities.InvitationStatusPending),
		).
		Limit(1).
		Find(&rows).
		Error
	if err != nil {
		return entities.Invitation{}, false, mapStoreError(err)
	}
	if len(rows) == 0 {
		return entities.Invitation{}, false, nil
	}
	return rows[0].toEntity(), true, nil
}

func (r *Repository) ListInvitationsByCampaign(ctx context.Context, campaignID string) ([]entities.Invitation, error) {
	return r.listInvitations(ctx, "campaign_id = ?", campaignID)
}

func (r *Repository) ListInvitationsByInfluencer(ctx context.Context, influencerID string) ([]entities.Invitation, error) {
	return r.listInvitations(ctx, "influencer_id = ?", influencerID)
}

func (r *Repository) listInvitations(ctx context.Context, condition string, value string) ([]entities.Invitation, error) {
	var rows []invitationModel
	if err := r.db.WithContext(ctx).
		Where(condition, strings.TrimSpace(value)).
		Order("created_at ASC").
		Order("invitation_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, mapStoreError(err)
	}
	items := make([]entities.Invitation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateContent(ctx context.Context, content entities.Content) error {
	row := contentModelFromEntity(content)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidContentInput
		}
		return mapStoreError(err)
	}
	return nil
}

func (r *Repository) UpdateContent(ctx context.Context, content entities.Content) error {
	row := contentModelFromEntity(content)
	result := r.db.WithContext(ctx).
		Model(&contentModel{}).
		Where("content_id = ?", row.ContentID).
		Updates(map[string]any{
			"title":        row.Title,
			"description":  row.Description,
			"platform":     row.Platform,
			"content_url":  row.ContentURL,
			"status":       row.Status,
			"feedback":     row.Feedback,
			"reviewed_by":  row.ReviewedBy,
			"updated_at":   row.UpdatedAt,
			"submitted_at": row.SubmittedAt,
			"reviewed_at":  row.ReviewedAt,
			"published_at": row.PublishedAt,
		})
	if result.Error != nil {
		return mapStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrContentNotFound
	}
	return nil
}

func (r *Repository) GetContent(ctx context.Context, contentID string) (entities.Content, error) {
	var row contentModel
	err := r.db.WithContext(ctx).
		Where("content_id = ?", strings.TrimSpace(contentID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Content{}, domainerrors.ErrContentNotFound
		}
		return entities.Content{}, mapStoreError(err)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListContentByCampaign(ctx context.Context, campaignID string) ([]entities.Content, error) {
	var rows []contentModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Order("created_at ASC").
		Order("content_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, mapStoreError(err)
	}
	items := make([]entities.Content, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// InsertNotification relies on the unique dedup_key index: a second insert
// with the same key affects no rows. Rows without a key never conflict.
func (r *Repository) InsertNotification(ctx context.Context, notification entities.Notification) (bool, error) {
	row := notificationModelFromEntity(notification)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return false, mapStoreError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) GetNotification(ctx context.Context, notificationID string) (entities.Notification, error) {
	var row notificationModel
	err := r.db.WithContext(ctx).
		Where("notification_id = ?", strings.TrimSpace(notificationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Notification{}, domainerrors.ErrNotificationNotFound
		}
		return entities.Notification{}, mapStoreError(err)
	}
	return row.toEntity(), nil
}

func (r *Repository) MarkNotificationRead(ctx context.Context, notificationID string, readAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("notification_id = ?", strings.TrimSpace(notificationID)).
		Updates(map[string]any{
			"read":    true,
			"read_at": readAt.UTC(),
		})
	if result.Error != nil {
		return mapStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotificationNotFound
	}
	return nil
}

func (r *Repository) ListNotifications(ctx context.Context, filter ports.NotificationFilter) ([]entities.Notification, error) {
	tx := r.db.WithContext(ctx).Model(&notificationModel{})
	if recipientID := strings.TrimSpace(filter.RecipientID); recipientID != "" {
		tx = tx.Where("recipient_id = ?", recipientID)
	}
	if filter.UnreadOnly {
		tx = tx.Where("read = ?", false)
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	var rows []notificationModel
	if err := tx.Order("created_at DESC").Order("notification_id ASC").Find(&rows).Error; err != nil {
		return nil, mapStoreError(err)
	}
	items := make([]entities.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendInfluencerInvitation(ctx context.Context, influencerID string, invitationID string, at time.Time) error {
	row := influencerProfileModel{
		InfluencerID:  strings.TrimSpace(influencerID),
		InvitationIDs: pq.StringArray{strings.TrimSpace(invitationID)},
		UpdatedAt:     at.UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "influencer_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"invitation_ids": gorm.Expr("array_append(lifecycle_influencer_profiles.invitation_ids, ?)", row.InvitationIDs[0]),
				"updated_at":     row.UpdatedAt,
			}),
		}).
		Create(&row).
		Error
	return mapStoreError(err)
}

func (r *Repository) IncrementInfluencerCompletedCampaigns(ctx context.Context, influencerID string, at time.Time) error {
	row := influencerProfileModel{
		InfluencerID:       strings.TrimSpace(influencerID),
		InvitationIDs:      pq.StringArray{},
		CompletedCampaigns: 1,
		UpdatedAt:          at.UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "influencer_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"completed_campaigns": gorm.Expr("lifecycle_influencer_profiles.completed_campaigns + 1"),
				"updated_at":          row.UpdatedAt,
			}),
		}).
		Create(&row).
		Error
	return mapStoreError(err)
}

func (r *Repository) GetInfluencerProfile(ctx context.Context, influencerID string) (entities.InfluencerProfile, error) {
	influencerID = strings.TrimSpace(influencerID)
	var rows []influencerProfileModel
	if err := r.db.WithContext(ctx).
		Where("influencer_id = ?", influencerID).
		Limit(1).
		Find(&rows).
		Error; err != nil {
		return entities.InfluencerProfile{}, mapStoreError(err)
	}
	if len(rows) == 0 {
		return entities.InfluencerProfile{InfluencerID: influencerID, InvitationIDs: []string{}}, nil
	}
	return rows[0].toEntity(), nil
}

func (r *Repository) IncrementBrandStats(ctx context.Context, brandID string, delta entities.BrandStatsDelta, at time.Time) error {
	row := brandStatsModel{BrandID: strings.TrimSpace(brandID)}
	initial := entities.BrandStats{}.Apply(delta)
	row.TotalCampaigns = initial.TotalCampaigns
	row.ActiveCampaigns = initial.ActiveCampaigns
	row.CompletedCampaigns = initial.CompletedCampaigns
	row.UpdatedAt = at.UTC()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "brand_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_campaigns":     gorm.Expr("lifecycle_brand_stats.total_campaigns + ?", delta.TotalCampaigns),
				"active_campaigns":    gorm.Expr("GREATEST(lifecycle_brand_stats.active_campaigns + ?, 0)", delta.ActiveCampaigns),
				"completed_campaigns": gorm.Expr("lifecycle_brand_stats.completed_campaigns + ?", delta.CompletedCampaigns),
				"updated_at":          row.UpdatedAt,
			}),
		}).
		Create(&row).
		Error
	return mapStoreError(err)
}

func (r *Repository) GetBrandStats(ctx context.Context, brandID string) (entities.BrandStats, error) {
	brandID = strings.TrimSpace(brandID)
	var rows []brandStatsModel
	if err := r.db.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Limit(1).
		Find(&rows).
		Error; err != nil {
		return entities.BrandStats{}, mapStoreError(err)
	}
	if len(rows) == 0 {
		return entities.BrandStats{BrandID: brandID}, nil
	}
	return rows[0].toEntity(), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
	return mapStoreError(err)
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, mapStoreError(err)
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	return mapStoreError(r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		}).
		Error)
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}

	createResult := r.db.WithContext(ctx).
		Clauses(reserveEventConflict(row.ProcessedAt)).
		Create(&row)
	if createResult.Error != nil {
		return false, mapStoreError(createResult.Error)
	}
	return createResult.RowsAffected == 0, nil
}

// reserveEventConflict takes over a reservation only once it has expired, so
// RowsAffected is zero exactly when a live reservation already exists.
func reserveEventConflict(now time.Time) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload_hash", "expires_at", "processed_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "lifecycle_event_dedup.expires_at < ?", Vars: []any{now}},
		}},
	}
}

func (r *Repository) ReleaseEvent(ctx context.Context, eventID string) error {
	return mapStoreError(r.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Delete(&eventDedupModel{}).
		Error)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// mapStoreError turns serialization failures, deadlocks and lock timeouts
// into ErrTransactionConflict so callers can retry the whole unit of work.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %s", domainerrors.ErrTransactionConflict, pgErr.Message)
		}
	}
	return err
}
