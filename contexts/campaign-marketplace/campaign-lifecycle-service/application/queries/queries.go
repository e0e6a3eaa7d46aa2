package queries

import (
	"context"
	"log/slog"
	"strings"

	application "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
	domainerrors "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/errors"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

const moduleName = "campaign-marketplace/campaign-lifecycle-service"

type GetCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc GetCampaignUseCase) Execute(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(campaignID))
}

type ListCampaignsQuery struct {
	BrandID string
	Status  string
}

type ListCampaignsUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc ListCampaignsUseCase) Execute(ctx context.Context, query ListCampaignsQuery) ([]entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)
	filter := ports.CampaignFilter{BrandID: strings.TrimSpace(query.BrandID)}
	if status := strings.TrimSpace(query.Status); status != "" {
		filter.Status = entities.CampaignStatus(strings.ToLower(status))
		if !filter.Status.Valid() {
			return nil, domainerrors.ErrInvalidCampaignInput
		}
	}
	items, err := uc.Campaigns.ListCampaigns(ctx, filter)
	if err != nil {
		return nil, err
	}
	logger.Debug("campaigns listed",
		"event", "campaigns_listed",
		"module", moduleName,
		"layer", "application",
		"count", len(items),
	)
	return items, nil
}

type ListInvitationsQuery struct {
	ActorID      string
	CampaignID   string
	InfluencerID string
}

// ListInvitationsUseCase lists a campaign's invitations for its brand, or an
// influencer's own invitations.
type ListInvitationsUseCase struct {
	Campaigns   ports.CampaignRepository
	Invitations ports.InvitationRepository
	Logger      *slog.Logger
}

func (uc ListInvitationsUseCase) Execute(ctx context.Context, query ListInvitationsQuery) ([]entities.Invitation, error) {
	actorID := strings.TrimSpace(query.ActorID)
	if campaignID := strings.TrimSpace(query.CampaignID); campaignID != "" {
		campaign, err := uc.Campaigns.GetCampaign(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		if campaign.BrandID != actorID {
			return nil, domainerrors.ErrNotCampaignOwner
		}
		return uc.Invitations.ListInvitationsByCampaign(ctx, campaignID)
	}
	influencerID := strings.TrimSpace(query.InfluencerID)
	if influencerID == "" {
		influencerID = actorID
	}
	if influencerID != actorID {
		return nil, domainerrors.ErrNotInvitee
	}
	return uc.Invitations.ListInvitationsByInfluencer(ctx, influencerID)
}

type ListContentQuery struct {
	ActorID    string
	CampaignID string
}

// ListContentUseCase shows the brand every submission and a creator only
// their own.
type ListContentUseCase struct {
	Campaigns ports.CampaignRepository
	Contents  ports.ContentRepository
	Logger    *slog.Logger
}

func (uc ListContentUseCase) Execute(ctx context.Context, query ListContentQuery) ([]entities.Content, error) {
	actorID := strings.TrimSpace(query.ActorID)
	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(query.CampaignID))
	if err != nil {
		return nil, err
	}
	items, err := uc.Contents.ListContentByCampaign(ctx, campaign.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.BrandID == actorID {
		return items, nil
	}
	if _, ok := campaign.ApplicationIndex(actorID); !ok {
		return nil, domainerrors.ErrNotAcceptedApplicant
	}
	own := make([]entities.Content, 0, len(items))
	for _, item := range items {
		if item.CreatorID == actorID {
			own = append(own, item)
		}
	}
	return own, nil
}

type ListNotificationsQuery struct {
	RecipientID string
	UnreadOnly  bool
	Limit       int
}

type ListNotificationsUseCase struct {
	Notifications ports.NotificationRepository
	Logger        *slog.Logger
}

func (uc ListNotificationsUseCase) Execute(ctx context.Context, query ListNotificationsQuery) ([]entities.Notification, error) {
	limit := query.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return uc.Notifications.ListNotifications(ctx, ports.NotificationFilter{
		RecipientID: strings.TrimSpace(query.RecipientID),
		UnreadOnly:  query.UnreadOnly,
		Limit:       limit,
	})
}

type GetInfluencerProfileUseCase struct {
	Statistics ports.StatisticsRepository
	Logger     *slog.Logger
}

func (uc GetInfluencerProfileUseCase) Execute(ctx context.Context, influencerID string) (entities.InfluencerProfile, error) {
	return uc.Statistics.GetInfluencerProfile(ctx, strings.TrimSpace(influencerID))
}

type GetBrandStatsUseCase struct {
	Statistics ports.StatisticsRepository
	Logger     *slog.Logger
}

func (uc GetBrandStatsUseCase) Execute(ctx context.Context, brandID string) (entities.BrandStats, error) {
	return uc.Statistics.GetBrandStats(ctx, strings.TrimSpace(brandID))
}
