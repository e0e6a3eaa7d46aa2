package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
	domainerrors "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/errors"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

type CreateCampaignCommand struct {
	BrandID     string
	Title       string
	Description string
	Budget      float64
	StartDate   time.Time
	EndDate     time.Time
}

type CreateCampaignUseCase struct {
	Transactions application.TxRunner
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (uc CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.Clock.Now().UTC()
	campaign := entities.Campaign{
		BrandID:           strings.TrimSpace(cmd.BrandID),
		Title:             strings.TrimSpace(cmd.Title),
		Description:       strings.TrimSpace(cmd.Description),
		Budget:            cmd.Budget,
		StartDate:         cmd.StartDate.UTC(),
		EndDate:           cmd.EndDate.UTC(),
		Progress:          entities.NewProgress(now),
		Applications:      []entities.Application{},
		NotificationFlags: entities.NotificationFlags{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if !campaign.ValidateCreate() {
		return entities.Campaign{}, domainerrors.ErrInvalidCampaignInput
	}
	campaign.Status = entities.DeriveStatus("", campaign.StartDate, campaign.EndDate, now)

	err := uc.Transactions.Run(ctx, "create_campaign", func(ctx context.Context, store ports.Store) error {
		campaignID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		campaign.CampaignID = campaignID
		if err := store.IncrementBrandStats(ctx, campaign.BrandID, entities.BrandStatsDelta{
			TotalCampaigns:  1,
			ActiveCampaigns: 1,
		}, now); err != nil {
			return err
		}
		if err := appendEvent(ctx, store, uc.IDGenerator, EventCampaignCreated, "campaign_id", campaign.CampaignID, now, map[string]any{
			"campaign_id": campaign.CampaignID,
			"brand_id":    campaign.BrandID,
			"status":      string(campaign.Status),
			"start_date":  campaign.StartDate.Format(time.RFC3339),
			"end_date":    campaign.EndDate.Format(time.RFC3339),
		}); err != nil {
			return err
		}
		return store.CreateCampaign(ctx, campaign)
	})
	if err != nil {
		return entities.Campaign{}, err
	}

	logger.Info("campaign created",
		"event", "campaign_created",
		"module", moduleName,
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"brand_id", campaign.BrandID,
		"status", string(campaign.Status),
	)
	return campaign, nil
}

type CancelCampaignCommand struct {
	CampaignID string
	BrandID    string
	Reason     string
}

type CancelCampaignUseCase struct {
	Transactions application.TxRunner
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (uc CancelCampaignUseCase) Execute(ctx context.Context, cmd CancelCampaignCommand) (entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.BrandID)

	var result entities.Campaign
	err := uc.Transactions.Run(ctx, "cancel_campaign", func(ctx context.Context, store ports.Store) error {
		campaign, err := store.GetCampaignForUpdate(ctx, strings.TrimSpace(cmd.CampaignID))
		if err != nil {
			return err
		}
		if campaign.BrandID != actorID {
			return domainerrors.ErrNotCampaignOwner
		}
		if campaign.Status.IsSticky() {
			return domainerrors.ErrCampaignClosed
		}

		now := uc.Clock.Now().UTC()
		campaign.Status = entities.CampaignStatusCancelled
		campaign.CancelledAt = &now
		campaign.UpdatedAt = now
		if err := store.IncrementBrandStats(ctx, campaign.BrandID, entities.BrandStatsDelta{ActiveCampaigns: -1}, now); err != nil {
			return err
		}
		if err := appendEvent(ctx, store, uc.IDGenerator, EventCampaignCancelled, "campaign_id", campaign.CampaignID, now, map[string]any{
			"campaign_id": campaign.CampaignID,
			"brand_id":    campaign.BrandID,
			"reason":      strings.TrimSpace(cmd.Reason),
		}); err != nil {
			return err
		}
		if err := store.SaveCampaign(ctx, campaign); err != nil {
			return err
		}
		result = campaign
		return nil
	})
	if err != nil {
		return entities.Campaign{}, err
	}

	logger.Info("campaign cancelled",
		"event", "campaign_cancelled",
		"module", moduleName,
		"layer", "application",
		"campaign_id", result.CampaignID,
		"brand_id", result.BrandID,
	)
	return result, nil
}

type RefreshCampaignStatusCommand struct {
	CampaignID string
	// ActorID is empty for system callers. When set it must be the brand owner.
	ActorID string
}

type RefreshCampaignStatusResult struct {
	Campaign        entities.Campaign
	StatusChanged   bool
	ProgressChanged bool
}

// RefreshCampaignStatusUseCase recomputes the date-derived status and then
// runs the progress engine.
type RefreshCampaignStatusUseCase struct {
	Transactions application.TxRunner
	Progress     ProgressEvaluator
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (uc RefreshCampaignStatusUseCase) Execute(ctx context.Context, cmd RefreshCampaignStatusCommand) (RefreshCampaignStatusResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)

	var result RefreshCampaignStatusResult
	err := uc.Transactions.Run(ctx, "refresh_campaign_status", func(ctx context.Context, store ports.Store) error {
		campaign, err := store.GetCampaignForUpdate(ctx, strings.TrimSpace(cmd.CampaignID))
		if err != nil {
			return err
		}
		if actorID != "" && campaign.BrandID != actorID {
			return domainerrors.ErrNotCampaignOwner
		}

		now := uc.Clock.Now().UTC()
		result = RefreshCampaignStatusResult{}
		derived := entities.DeriveStatus(campaign.Status, campaign.StartDate, campaign.EndDate, now)
		if derived != campaign.Status {
			campaign.Status = derived
			result.StatusChanged = true
		}

		decision, err := uc.Progress.Advance(ctx, store, campaign)
		if err != nil {
			return err
		}
		result.ProgressChanged = decision.Changed
		result.Campaign = decision.Campaign
		if !result.StatusChanged && !result.ProgressChanged {
			return nil
		}
		result.Campaign.UpdatedAt = now
		return store.SaveCampaign(ctx, result.Campaign)
	})
	if err != nil {
		return RefreshCampaignStatusResult{}, err
	}

	if result.StatusChanged {
		logger.Info("campaign status refreshed",
			"event", "campaign_status_refreshed",
			"module", moduleName,
			"layer", "application",
			"campaign_id", result.Campaign.CampaignID,
			"status", string(result.Campaign.Status),
		)
	}
	return result, nil
}

// RefreshCampaign refreshes on behalf of the system and reports whether the
// status or the progress moved.
func (uc RefreshCampaignStatusUseCase) RefreshCampaign(ctx context.Context, campaignID string) (bool, error) {
	result, err := uc.Execute(ctx, RefreshCampaignStatusCommand{CampaignID: campaignID})
	if err != nil {
		return false, err
	}
	return result.StatusChanged || result.ProgressChanged, nil
}
