package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	application "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/services"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

// ProgressEvaluator runs the progress engine against transactional state and
// applies its effects through the same store.
type ProgressEvaluator struct {
	Engine   services.ProgressEngine
	Notifier NotificationEmitter
	Clock    ports.Clock
	Logger   *slog.Logger
}

// Advance evaluates campaign, which the caller must have loaded with
// GetCampaignForUpdate and may already have mutated. Effects are applied
// before returning; persisting Decision.Campaign is left to the caller so the
// campaign row stays the last write of the transaction.
func (p ProgressEvaluator) Advance(ctx context.Context, store ports.Store, campaign entities.Campaign) (services.Decision, error) {
	logger := application.ResolveLogger(p.Logger)
	ctx, span := application.StartSpan(ctx, "progress.evaluate", attribute.String("campaign.id", campaign.CampaignID))
	defer span.End()

	invitations, err := store.ListInvitationsByCampaign(ctx, campaign.CampaignID)
	if err != nil {
		return services.Decision{}, err
	}
	contents, err := store.ListContentByCampaign(ctx, campaign.CampaignID)
	if err != nil {
		return services.Decision{}, err
	}

	now := p.Clock.Now().UTC()
	decision := p.Engine.Evaluate(services.Snapshot{
		Campaign:    campaign,
		Invitations: invitations,
		Contents:    contents,
	}, now)

	for _, effect := range decision.Effects {
		if err := p.apply(ctx, store, effect); err != nil {
			span.RecordError(err)
			return services.Decision{}, err
		}
	}

	span.SetAttributes(
		attribute.Bool("progress.changed", decision.Changed),
		attribute.Bool("progress.completed", decision.Completed),
		attribute.Int("progress.effects", len(decision.Effects)),
	)
	if decision.Repaired {
		logger.Warn("campaign progress repaired",
			"event", "campaign_progress_repaired",
			"module", moduleName,
			"layer", "application",
			"campaign_id", campaign.CampaignID,
		)
	}
	for _, transition := range decision.Transitions {
		logger.Info("campaign stage advanced",
			"event", "campaign_stage_advanced",
			"module", moduleName,
			"layer", "application",
			"campaign_id", campaign.CampaignID,
			"stage", string(transition.Stage),
			"from_status", string(transition.From),
			"to_status", string(transition.To),
		)
	}
	if decision.Completed {
		logger.Info("campaign completed",
			"event", "campaign_completed",
			"module", moduleName,
			"layer", "application",
			"campaign_id", campaign.CampaignID,
			"brand_id", campaign.BrandID,
		)
	}
	return decision, nil
}

// EvaluateAndAdvance locks the campaign, evaluates it and saves it when the
// evaluation changed anything.
func (p ProgressEvaluator) EvaluateAndAdvance(ctx context.Context, store ports.Store, campaignID string) (bool, error) {
	campaign, err := store.GetCampaignForUpdate(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return false, err
	}
	decision, err := p.Advance(ctx, store, campaign)
	if err != nil {
		return false, err
	}
	if !decision.Changed {
		return false, nil
	}
	updated := decision.Campaign
	updated.UpdatedAt = p.Clock.Now().UTC()
	if err := store.SaveCampaign(ctx, updated); err != nil {
		return false, err
	}
	return true, nil
}

func (p ProgressEvaluator) apply(ctx context.Context, store ports.Store, effect services.Effect) error {
	now := p.Clock.Now().UTC()
	switch effect.Kind {
	case services.EffectNotify:
		_, err := p.Notifier.Emit(ctx, store, effect.Notification)
		return err
	case services.EffectIncrementInfluencerCompleted:
		return store.IncrementInfluencerCompletedCampaigns(ctx, effect.InfluencerID, now)
	case services.EffectIncrementBrandStats:
		if effect.BrandDelta.IsZero() {
			return nil
		}
		return store.IncrementBrandStats(ctx, effect.BrandID, effect.BrandDelta, now)
	default:
		return fmt.Errorf("unknown progress effect %q", effect.Kind)
	}
}

type EvaluateProgressUseCase struct {
	Transactions application.TxRunner
	Progress     ProgressEvaluator
	Logger       *slog.Logger
}

func (uc EvaluateProgressUseCase) Execute(ctx context.Context, campaignID string) (bool, error) {
	changed := false
	err := uc.Transactions.Run(ctx, "evaluate_progress", func(ctx context.Context, store ports.Store) error {
		var err error
		changed, err = uc.Progress.EvaluateAndAdvance(ctx, store, campaignID)
		return err
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}
