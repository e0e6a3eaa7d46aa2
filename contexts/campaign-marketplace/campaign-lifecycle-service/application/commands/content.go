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

type SubmitContentCommand struct {
	CampaignID  string
	CreatorID   string
	Title       string
	Description string
	Platform    string
	ContentURL  string
}

type SubmitContentUseCase struct {
	Transactions application.TxRunner
	Notifier     NotificationEmitter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (uc SubmitContentUseCase) Execute(ctx context.Context, cmd SubmitContentCommand) (entities.Content, error) {
	logger := application.ResolveLogger(uc.Logger)
	content := entities.Content{
		CampaignID:  strings.TrimSpace(cmd.CampaignID),
		CreatorID:   strings.TrimSpace(cmd.CreatorID),
		Title:       strings.TrimSpace(cmd.Title),
		Description: strings.TrimSpace(cmd.Description),
		Platform:    strings.ToLower(strings.TrimSpace(cmd.Platform)),
		ContentURL:  strings.TrimSpace(cmd.ContentURL),
		Status:      entities.ContentStatusSubmitted,
	}
	if !content.ValidateCreate() {
		return entities.Content{}, domainerrors.ErrInvalidContentInput
	}

	err := uc.Transactions.Run(ctx, "submit_content", func(ctx context.Context, store ports.Store) error {
		campaign, err := store.GetCampaignForUpdate(ctx, content.CampaignID)
		if err != nil {
			return err
		}
		if campaign.Status.IsSticky() {
			return domainerrors.ErrCampaignClosed
		}
		if !campaign.HasAcceptedApplication(content.CreatorID) {
			return domainerrors.ErrNotAcceptedApplicant
		}

		contentID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		now := uc.Clock.Now().UTC()
		content.ContentID = contentID
		content.CreatedAt = now
		content.UpdatedAt = now
		content.SubmittedAt = &now
		if err := store.CreateContent(ctx, content); err != nil {
			return err
		}
		if _, err := uc.Notifier.Emit(ctx, store, entities.Notification{
			RecipientID: campaign.BrandID,
			Type:        entities.NotificationContentSubmitted,
			Title:       "Content submitted",
			Message:     "New content \"" + content.Title + "\" was submitted for \"" + campaign.Title + "\".",
			Data: map[string]any{
				"campaign_id":    campaign.CampaignID,
				"campaign_title": campaign.Title,
				"content_id":     content.ContentID,
				"creator_id":     content.CreatorID,
			},
		}); err != nil {
			return err
		}

		// A submission always puts the content stage in progress; Advance never
		// moves a completed stage back.
		if !campaign.Progress.Content.Advance(entities.StageStatusActive, now) {
			return nil
		}
		campaign.UpdatedAt = now
		return store.SaveCampaign(ctx, campaign)
	})
	if err != nil {
		return entities.Content{}, err
	}

	logger.Info("content submitted",
		"event", "content_submitted",
		"module", moduleName,
		"layer", "application",
		"content_id", content.ContentID,
		"campaign_id", content.CampaignID,
		"creator_id", content.CreatorID,
	)
	return content, nil
}

type ReviewContentCommand struct {
	ContentID  string
	ReviewerID string
	Decision   string
	Feedback   string
}

type ReviewContentUseCase struct {
	Transactions application.TxRunner
	Progress     ProgressEvaluator
	Notifier     NotificationEmitter
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (uc ReviewContentUseCase) Execute(ctx context.Context, cmd ReviewContentCommand) (entities.Content, error) {
	logger := application.ResolveLogger(uc.Logger)
	decision := entities.ContentStatus(strings.ToLower(strings.TrimSpace(cmd.Decision)))
	if !decision.IsReviewDecision() {
		return entities.Content{}, domainerrors.ErrInvalidReviewDecision
	}
	contentID := strings.TrimSpace(cmd.ContentID)
	reviewerID := strings.TrimSpace(cmd.ReviewerID)

	var result entities.Content
	err := uc.Transactions.Run(ctx, "review_content", func(ctx context.Context, store ports.Store) error {
		content, campaign, err := lockContentCampaign(ctx, store, contentID)
		if err != nil {
			return err
		}
		if campaign.BrandID != reviewerID {
			return domainerrors.ErrNotCampaignOwner
		}
		if content.Status != entities.ContentStatusSubmitted {
			return domainerrors.ErrInvalidContentTransition
		}

		now := uc.Clock.Now().UTC()
		content.Status = decision
		content.Feedback = strings.TrimSpace(cmd.Feedback)
		content.ReviewedBy = reviewerID
		content.ReviewedAt = &now
		content.UpdatedAt = now
		if err := store.UpdateContent(ctx, content); err != nil {
			return err
		}

		outcome, err := uc.Progress.Advance(ctx, store, campaign)
		if err != nil {
			return err
		}

		notificationType := entities.NotificationContentRejected
		title := "Content needs changes"
		message := "Your content \"" + content.Title + "\" for \"" + campaign.Title + "\" was rejected."
		if decision == entities.ContentStatusApproved {
			notificationType = entities.NotificationContentApproved
			title = "Content approved"
			message = "Your content \"" + content.Title + "\" for \"" + campaign.Title + "\" was approved."
		}
		if _, err := uc.Notifier.Emit(ctx, store, entities.Notification{
			RecipientID: content.CreatorID,
			Type:        notificationType,
			Title:       title,
			Message:     message,
			Data: map[string]any{
				"campaign_id":    campaign.CampaignID,
				"campaign_title": campaign.Title,
				"content_id":     content.ContentID,
				"feedback":       content.Feedback,
			},
		}); err != nil {
			return err
		}

		result = content
		if !outcome.Changed {
			return nil
		}
		updated := outcome.Campaign
		updated.UpdatedAt = now
		return store.SaveCampaign(ctx, updated)
	})
	if err != nil {
		return entities.Content{}, err
	}

	logger.Info("content reviewed",
		"event", "content_reviewed",
		"module", moduleName,
		"layer", "application",
		"content_id", result.ContentID,
		"campaign_id", result.CampaignID,
		"decision", string(result.Status),
	)
	return result, nil
}

type PublishContentCommand struct {
	ContentID string
	CreatorID string
}

type PublishContentUseCase struct {
	Transactions application.TxRunner
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (uc PublishContentUseCase) Execute(ctx context.Context, cmd PublishContentCommand) (entities.Content, error) {
	logger := application.ResolveLogger(uc.Logger)
	contentID := strings.TrimSpace(cmd.ContentID)
	creatorID := strings.TrimSpace(cmd.CreatorID)

	var result entities.Content
	err := uc.Transactions.Run(ctx, "publish_content", func(ctx context.Context, store ports.Store) error {
		content, _, err := lockContentCampaign(ctx, store, contentID)
		if err != nil {
			return err
		}
		if content.CreatorID != creatorID {
			return domainerrors.ErrNotContentCreator
		}
		if content.Status != entities.ContentStatusApproved {
			return domainerrors.ErrInvalidContentTransition
		}
		now := uc.Clock.Now().UTC()
		content.Status = entities.ContentStatusPublished
		content.PublishedAt = &now
		content.UpdatedAt = now
		if err := store.UpdateContent(ctx, content); err != nil {
			return err
		}
		result = content
		return nil
	})
	if err != nil {
		return entities.Content{}, err
	}

	logger.Info("content published",
		"event", "content_published",
		"module", moduleName,
		"layer", "application",
		"content_id", result.ContentID,
		"campaign_id", result.CampaignID,
	)
	return result, nil
}

func lockContentCampaign(ctx context.Context, store ports.Store, contentID string) (entities.Content, entities.Campaign, error) {
	content, err := store.GetContent(ctx, contentID)
	if err != nil {
		return entities.Content{}, entities.Campaign{}, err
	}
	campaign, err := store.GetCampaignForUpdate(ctx, content.CampaignID)
	if err != nil {
		return entities.Content{}, entities.Campaign{}, err
	}
	content, err = store.GetContent(ctx, contentID)
	if err != nil {
		return entities.Content{}, entities.Campaign{}, err
	}
	return content, campaign, nil
}
