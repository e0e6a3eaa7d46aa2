package postgresadapter

import (
	"strings"
	"time"

	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type campaignModel struct {
	CampaignID        string                                    `gorm:"column:campaign_id;primaryKey"`
	BrandID           string                                    `gorm:"column:brand_id;index"`
	Title             string                                    `gorm:"column:title"`
	Description       string                                    `gorm:"column:description"`
	Budget            float64                                   `gorm:"column:budget"`
	StartDate         time.Time                                 `gorm:"column:start_date"`
	EndDate           time.Time                                 `gorm:"column:end_date;index"`
	Status            string                                    `gorm:"column:status;index"`
	Progress          datatypes.JSONType[entities.Progress]     `gorm:"column:progress;type:jsonb"`
	Applications      datatypes.JSONSlice[entities.Application] `gorm:"column:applications;type:jsonb"`
	NotificationFlags datatypes.JSONMap                         `gorm:"column:notification_flags;type:jsonb"`
	CreatedAt         time.Time                                 `gorm:"column:created_at"`
	UpdatedAt         time.Time                                 `gorm:"column:updated_at"`
	CompletedAt       *time.Time                                `gorm:"column:completed_at"`
	CancelledAt       *time.Time                                `gorm:"column:cancelled_at"`
}

func (campaignModel) TableName() string {
	return "lifecycle_campaigns"
}

func campaignModelFromEntity(item entities.Campaign) campaignModel {
	return campaignModel{
		CampaignID:        strings.TrimSpace(item.CampaignID),
		BrandID:           strings.TrimSpace(item.BrandID),
		Title:             strings.TrimSpace(item.Title),
		Description:       item.Description,
		Budget:            item.Budget,
		StartDate:         item.StartDate.UTC(),
		EndDate:           item.EndDate.UTC(),
		Status:            string(item.Status),
		Progress:          datatypes.NewJSONType(item.Progress),
		Applications:      applicationsOrEmpty(item.Applications),
		NotificationFlags: flagsToJSON(item.NotificationFlags),
		CreatedAt:         item.CreatedAt.UTC(),
		UpdatedAt:         item.UpdatedAt.UTC(),
		CompletedAt:       normalizeOptionalTime(item.CompletedAt),
		CancelledAt:       normalizeOptionalTime(item.CancelledAt),
	}
}

// campaignUpdatesFromEntity leaves brand_id and created_at untouched.
func campaignUpdatesFromEntity(item entities.Campaign) map[string]any {
	row := campaignModelFromEntity(item)
	return map[string]any{
		"title":              row.Title,
		"description":        row.Description,
		"budget":             row.Budget,
		"start_date":         row.StartDate,
		"end_date":           row.EndDate,
		"status":             row.Status,
		"progress":           row.Progress,
		"applications":       row.Applications,
		"notification_flags": row.NotificationFlags,
		"updated_at":         row.UpdatedAt,
		"completed_at":       row.CompletedAt,
		"cancelled_at":       row.CancelledAt,
	}
}

func (m campaignModel) toEntity() entities.Campaign {
	return entities.Campaign{
		CampaignID:        m.CampaignID,
		BrandID:           m.BrandID,
		Title:             m.Title,
		Description:       m.Description,
		Budget:            m.Budget,
		StartDate:         m.StartDate.UTC(),
		EndDate:           m.EndDate.UTC(),
		Status:            entities.CampaignStatus(m.Status),
		Progress:          m.Progress.Data(),
		Applications:      append([]entities.Application{}, m.Applications...),
		NotificationFlags: flagsFromJSON(m.NotificationFlags),
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
		CompletedAt:       normalizeOptionalTime(m.CompletedAt),
		CancelledAt:       normalizeOptionalTime(m.CancelledAt),
	}
}

type invitationModel struct {
	InvitationID string     `gorm:"column:invitation_id;primaryKey"`
	CampaignID   string     `gorm:"column:campaign_id;index"`
	BrandID      string     `gorm:"column:brand_id"`
	InfluencerID string     `gorm:"column:influencer_id;index"`
	Message      string     `gorm:"column:message"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	RespondedAt  *time.Time `gorm:"column:responded_at"`
}

func (invitationModel) TableName() string {
	return "lifecycle_invitations"
}

func invitationModelFromEntity(item entities.Invitation) invitationModel {
	return invitationModel{
		InvitationID: strings.TrimSpace(item.InvitationID),
		CampaignID:   strings.TrimSpace(item.CampaignID),
		BrandID:      strings.TrimSpace(item.BrandID),
		InfluencerID: strings.TrimSpace(item.InfluencerID),
		Message:      item.Message,
		Status:       string(item.Status),
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
		RespondedAt:  normalizeOptionalTime(item.RespondedAt),
	}
}

func (m invitationModel) toEntity() entities.Invitation {
	return entities.Invitation{
		InvitationID: m.InvitationID,
		CampaignID:   m.CampaignID,
		BrandID:      m.BrandID,
		InfluencerID: m.InfluencerID,
		Message:      m.Message,
		Status:       entities.InvitationStatus(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
		RespondedAt:  normalizeOptionalTime(m.RespondedAt),
	}
}

type contentModel struct {
	ContentID   string     `gorm:"column:content_id;primaryKey"`
	CampaignID  string     `gorm:"column:campaign_id;index"`
	CreatorID   string     `gorm:"column:creator_id"`
	Title       string     `gorm:"column:title"`
	Description string     `gorm:"column:description"`
	Platform    string     `gorm:"column:platform"`
	ContentURL  string     `gorm:"column:content_url"`
	Status      string     `gorm:"column:status"`
	Feedback    string     `gorm:"column:feedback"`
	ReviewedBy  string     `gorm:"column:reviewed_by"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	SubmittedAt *time.Time `gorm:"column:submitted_at"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (contentModel) TableName() string {
	return "lifecycle_content"
}

func contentModelFromEntity(item entities.Content) contentModel {
	return contentModel{
		ContentID:   strings.TrimSpace(item.ContentID),
		CampaignID:  strings.TrimSpace(item.CampaignID),
		CreatorID:   strings.TrimSpace(item.CreatorID),
		Title:       item.Title,
		Description: item.Description,
		Platform:    item.Platform,
		ContentURL:  item.ContentURL,
		Status:      string(item.Status),
		Feedback:    item.Feedback,
		ReviewedBy:  item.ReviewedBy,
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
		SubmittedAt: normalizeOptionalTime(item.SubmittedAt),
		ReviewedAt:  normalizeOptionalTime(item.ReviewedAt),
		PublishedAt: normalizeOptionalTime(item.PublishedAt),
	}
}

func (m contentModel) toEntity() entities.Content {
	return entities.Content{
		ContentID:   m.ContentID,
		CampaignID:  m.CampaignID,
		CreatorID:   m.CreatorID,
		Title:       m.Title,
		Description: m.Description,
		Platform:    m.Platform,
		ContentURL:  m.ContentURL,
		Status:      entities.ContentStatus(m.Status),
		Feedback:    m.Feedback,
		ReviewedBy:  m.ReviewedBy,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
		SubmittedAt: normalizeOptionalTime(m.SubmittedAt),
		ReviewedAt:  normalizeOptionalTime(m.ReviewedAt),
		PublishedAt: normalizeOptionalTime(m.PublishedAt),
	}
}

type notificationModel struct {
	NotificationID string            `gorm:"column:notification_id;primaryKey"`
	RecipientID    string            `gorm:"column:recipient_id;index"`
	Type           string            `gorm:"column:type"`
	Title          string            `gorm:"column:title"`
	Message        string            `gorm:"column:message"`
	Data           datatypes.JSONMap `gorm:"column:data;type:jsonb"`
	DedupKey       *string           `gorm:"column:dedup_key;uniqueIndex"`
	Read           bool              `gorm:"column:read"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
	ReadAt         *time.Time        `gorm:"column:read_at"`
}

func (notificationModel) TableName() string {
	return "lifecycle_notifications"
}

func notificationModelFromEntity(item entities.Notification) notificationModel {
	row := notificationModel{
		NotificationID: strings.TrimSpace(item.NotificationID),
		RecipientID:    strings.TrimSpace(item.RecipientID),
		Type:           string(item.Type),
		Title:          item.Title,
		Message:        item.Message,
		Data:           datatypes.JSONMap{},
		Read:           item.Read,
		CreatedAt:      item.CreatedAt.UTC(),
		ReadAt:         normalizeOptionalTime(item.ReadAt),
	}
	for key, value := range item.Data {
		row.Data[key] = value
	}
	if key := strings.TrimSpace(item.DedupKey); key != "" {
		row.DedupKey = &key
	}
	return row
}

func (m notificationModel) toEntity() entities.Notification {
	item := entities.Notification{
		NotificationID: m.NotificationID,
		RecipientID:    m.RecipientID,
		Type:           entities.NotificationType(m.Type),
		Title:          m.Title,
		Message:        m.Message,
		Data:           make(map[string]any, len(m.Data)),
		Read:           m.Read,
		CreatedAt:      m.CreatedAt.UTC(),
		ReadAt:         normalizeOptionalTime(m.ReadAt),
	}
	for key, value := range m.Data {
		item.Data[key] = value
	}
	if m.DedupKey != nil {
		item.DedupKey = *m.DedupKey
	}
	return item
}

type influencerProfileModel struct {
	InfluencerID       string         `gorm:"column:influencer_id;primaryKey"`
	InvitationIDs      pq.StringArray `gorm:"column:invitation_ids;type:text[]"`
	CompletedCampaigns int            `gorm:"column:completed_campaigns"`
	UpdatedAt          time.Time      `gorm:"column:updated_at"`
}

func (influencerProfileModel) TableName() string {
	return "lifecycle_influencer_profiles"
}

func (m influencerProfileModel) toEntity() entities.InfluencerProfile {
	return entities.InfluencerProfile{
		InfluencerID:       m.InfluencerID,
		InvitationIDs:      append([]string{}, m.InvitationIDs...),
		CompletedCampaigns: m.CompletedCampaigns,
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

type brandStatsModel struct {
	BrandID            string    `gorm:"column:brand_id;primaryKey"`
	TotalCampaigns     int       `gorm:"column:total_campaigns"`
	ActiveCampaigns    int       `gorm:"column:active_campaigns"`
	CompletedCampaigns int       `gorm:"column:completed_campaigns"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (brandStatsModel) TableName() string {
	return "lifecycle_brand_stats"
}

func (m brandStatsModel) toEntity() entities.BrandStats {
	return entities.BrandStats{
		BrandID:            m.BrandID,
		TotalCampaigns:     m.TotalCampaigns,
		ActiveCampaigns:    m.ActiveCampaigns,
		CompletedCampaigns: m.CompletedCampaigns,
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "lifecycle_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "lifecycle_event_dedup"
}

func applicationsOrEmpty(items []entities.Application) datatypes.JSONSlice[entities.Application] {
	if len(items) == 0 {
		return datatypes.JSONSlice[entities.Application]{}
	}
	return append(datatypes.JSONSlice[entities.Application]{}, items...)
}

func flagsToJSON(flags entities.NotificationFlags) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for key, value := range flags {
		out[string(key)] = value
	}
	return out
}

func flagsFromJSON(raw datatypes.JSONMap) entities.NotificationFlags {
	out := make(entities.NotificationFlags, len(raw))
	for key, value := range raw {
		if set, ok := value.(bool); ok {
			out[entities.NotificationFlag(key)] = set
		}
	}
	return out
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
