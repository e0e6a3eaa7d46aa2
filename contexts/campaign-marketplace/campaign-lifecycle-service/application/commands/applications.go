package commands

import (
	"context"
	"log/slog"
	"strings"

	application "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
	domainerrors "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/errors"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

type ApplyCommand struct {
	CampaignID   string
	InfluencerID string
	Message      string
}

// ApplyUseCase records a direct, non-invited application.
type ApplyUseCase struct {
	Transactions application.TxRunner
	Progress     ProgressEvaluator
	Notifier     NotificationEmitter
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (uc ApplyUseCase) Execute(ctx context.Context, cmd ApplyCommand) (entities.Application, error) {
	logger := application.ResolveLogger(uc.Logger)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	influencerID := strings.TrimSpace(cmd.InfluencerID)
	message := strings.TrimSpace(cmd.Message)
	if campaignID == "" || influencerID == "" || len(message) > 2000 {
		return entities.Application{}, domainerrors.ErrInvalidInput
	}

	var result entities.Application
	err := uc.Transactions.Run(ctx, "apply_to_campaign", func(ctx context.Context, store ports.Store) error {
		campaign, err := store.GetCampaignForUpdate(ctx, campaignID)
		if err != nil {
			return err
		}
		now := uc.Clock.Now().UTC()
		// The stored status lags the calendar until a refresh runs.
		campaign.Status = entities.DeriveStatus(campaign.Status, campaign.StartDate, campaign.EndDate, now)
		if campaign.Status != entities.CampaignStatusActive {
			return domainerrors.ErrCampaignNotActive
		}
		if _, exists := campaign.ApplicationIndex(influencerID); exists {
			return domainerrors.ErrDuplicateApplication
		}

		result = entities.Application{
			InfluencerID: influencerID,
			Status:       entities.ApplicationStatusPending,
			AppliedAt:    now,
			Message:      message,
		}
		campaign.Applications = append(campaign.Applications, result)

		if _, err := uc.Notifier.Emit(ctx, store, entities.Notification{
			RecipientID: campaign.BrandID,
			Type:        entities.NotificationCampaignApplication,
			Title:       "New campaign application",
			Message:     "An influencer applied to \"" + campaign.Title + "\".",
			Data: map[string]any{
				"campaign_id":    campaign.CampaignID,
				"campaign_title": campaign.Title,
				"influencer_id":  influencerID,
			},
		}); err != nil {
			return err
		}

		decision, err := uc.Progress.Advance(ctx, store, campaign)
		if err != nil {
			return err
		}
		updated := decision.Campaign
		updated.UpdatedAt = now
		return store.SaveCampaign(ctx, updated)
	})
	if err != nil {
		return entities.Application{}, err
	}

	logger.Info("campaign application submitted",
		"event", "campaign_application_submitted",
		"module", moduleName,
		"layer", "application",
		"campaign_id", campaignID,
		"influencer_id", influencerID,
	)
	return result, nil
}

type ReviewApplicationCommand struct {
	CampaignID   string
	InfluencerID string
	BrandID      string
	Decision     string
}

type ReviewApplicationUseCase struct {
	Transactions application.TxRunner
	Progress     ProgressEvaluator
	Notifier     NotificationEmitter
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (uc ReviewApplicationUseCase) Execute(ctx context.Context, cmd ReviewApplicationCommand) (entities.Application, error) {
	logger := application.ResolveLogger(uc.Logger)
	decision := entities.ApplicationStatus(strings.ToLower(strings.TrimSpace(cmd.Decision)))
	if decision != entities.ApplicationStatusAccepted && decision != entities.ApplicationStatusRejected {
		return entities.Application{}, domainerrors.ErrInvalidReviewDecision
	}
	actorID := strings.TrimSpace(cmd.BrandID)
	influencerID := strings.TrimSpace(cmd.InfluencerID)

	var result entities.Application
	err := uc.Transactions.Run(ctx, "review_application", func(ctx context.Context, store ports.Store) error {
		campaign, err := store.GetCampaignForUpdate(ctx, strings.TrimSpace(cmd.CampaignID))
		if err != nil {
			return err
		}
		if campaign.BrandID != actorID {
			return domainerrors.ErrNotCampaignOwner
		}
		index, ok := campaign.ApplicationIndex(influencerID)
		if !ok {
			return domainerrors.ErrApplicationNotFound
		}
		if campaign.Applications[index].Status != entities.ApplicationStatusPending {
			return domainerrors.ErrApplicationAlreadyReviewed
		}

		now := uc.Clock.Now().UTC()
		campaign.Applications[index].Status = decision
		campaign.Applications[index].ReviewedAt = &now
		result = campaign.Applications[index]

		notificationType := entities.NotificationApplicationRejected
		title := "Application declined"
		message := "Your application to \"" + campaign.Title + "\" was declined."
		if decision == entities.ApplicationStatusAccepted {
			notificationType = entities.NotificationApplicationAccepted
			title = "Application accepted"
			message = "Your application to \"" + campaign.Title + "\" was accepted."
		}
		if _, err := uc.Notifier.Emit(ctx, store, entities.Notification{
			RecipientID: influencerID,
			Type:        notificationType,
			Title:       title,
			Message:     message,
			Data: map[string]any{
				"campaign_id":    campaign.CampaignID,
				"campaign_title": campaign.Title,
				"decision":       string(decision),
			},
		}); err != nil {
			return err
		}

		outcome, err := uc.Progress.Advance(ctx, store, campaign)
		if err != nil {
			return err
		}
		updated := outcome.Campaign
		updated.UpdatedAt = now
		return store.SaveCampaign(ctx, updated)
	})
	if err != nil {
		return entities.Application{}, err
	}

	logger.Info("campaign application reviewed",
		"event", "campaign_application_reviewed",
		"module", moduleName,
		"layer", "application",
		"campaign_id", strings.TrimSpace(cmd.CampaignID),
		"influencer_id", influencerID,
		"decision", string(decision),
	)
	return result, nil
}
