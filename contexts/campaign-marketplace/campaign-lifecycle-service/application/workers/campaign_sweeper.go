package workers

import (
	"context"
	"log/slog"
	"time"

	application "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

const moduleName = "campaign-marketplace/campaign-lifecycle-service"

// CampaignRefresher re-derives the status of one campaign and runs the
// progress engine, in its own transaction.
type CampaignRefresher interface {
	RefreshCampaign(ctx context.Context, campaignID string) (bool, error)
}

// CampaignSweeper refreshes campaigns the calendar has moved on: upcoming
// campaigns past their start date, open campaigns past their end date, and
// campaigns waiting on an active completion stage.
type CampaignSweeper struct {
	Campaigns ports.CampaignRepository
	Refresher CampaignRefresher
	Clock     ports.Clock
	BatchSize int
	Disabled  bool
	Logger    *slog.Logger
}

func (j CampaignSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if j.Disabled {
		return nil
	}
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	campaignIDs, err := j.Campaigns.ListCampaignsDueForSweep(ctx, now, limit)
	if err != nil {
		logger.Error("campaign sweep list failed",
			"event", "campaign_sweep_list_failed",
			"module", moduleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	advanced := 0
	failed := 0
	for _, campaignID := range campaignIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		changed, err := j.Refresher.RefreshCampaign(ctx, campaignID)
		if err != nil {
			failed++
			logger.Error("campaign sweep refresh failed",
				"event", "campaign_sweep_refresh_failed",
				"module", moduleName,
				"layer", "worker",
				"campaign_id", campaignID,
				"error", err.Error(),
			)
			continue
		}
		if changed {
			advanced++
		}
	}

	if len(campaignIDs) > 0 {
		logger.Info("campaign sweep completed",
			"event", "campaign_sweep_completed",
			"module", moduleName,
			"layer", "worker",
			"candidate_count", len(campaignIDs),
			"advanced_count", advanced,
			"failed_count", failed,
		)
	}
	return nil
}
