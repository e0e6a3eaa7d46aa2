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

type CreateInvitationCommand struct {
	CampaignID   string
	BrandID      string
	InfluencerID string
	Message      string
}

type CreateInvitationUseCase struct {
	Transactions application.TxRunner
	Progress     ProgressEvaluator
	Notifier     NotificationEmitter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (uc CreateInvitationUseCase) Execute(ctx context.Context, cmd CreateInvitationCommand) (entities.Invitation, error) {
	logger := application.ResolveLogger(uc.Logger)
	invitation := entities.Invitation{
		CampaignID:   strings.TrimSpace(cmd.CampaignID),
		BrandID:      strings.TrimSpace(cmd.BrandID),
		InfluencerID: strings.TrimSpace(cmd.InfluencerID),
		Message:      strings.TrimSpace(cmd.Message),
		Status:       entities.InvitationStatusPending,
	}
	if !invitation.ValidateCreate() {
		return entities.Invitation{}, domainerrors.ErrInvalidInvitationInput
	}

	err := uc.Transactions.Run(ctx, "create_invitation", func(ctx context.Context, store ports.Store) error {
		campaign, err := store.GetCampaignForUpdate(ctx, invitation.CampaignID)
		if err != nil {
			return err
		}
		if campaign.BrandID != invitation.BrandID {
			return domainerrors.ErrNotCampaignOwner
		}
		if campaign.Status.IsSticky() {
			return domainerrors.ErrCampaignClosed
		}
		if _, found, err := store.FindPendingInvitation(ctx, campaign.CampaignID, invitation.InfluencerID); err != nil {
			return err
		} else if found {
			return domainerrors.ErrDuplicateInvitation
		}

		invitationID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		now := uc.Clock.Now().UTC()
		invitation.InvitationID = invitationID
		invitation.CreatedAt = now
		invitation.UpdatedAt = now
		if err := store.CreateInvitation(ctx, invitation); err != nil {
			return err
		}
		if _, err := uc.Notifier.Emit(ctx, store, entities.Notification{
			RecipientID: invitation.InfluencerID,
			Type:        entities.NotificationCampaignInvitation,
			Title:       "New campaign invitation",
			Message:     "You have been invited to join the campaign \"" + campaign.Title + "\".",
			Data: map[string]any{
				"campaign_id":    campaign.CampaignID,
				"campaign_title": campaign.Title,
				"invitation_id":  invitation.InvitationID,
				"brand_id":       campaign.BrandID,
			},
		}); err != nil {
			return err
		}
		if err := store.AppendInfluencerInvitation(ctx, invitation.InfluencerID, invitation.InvitationID, now); err != nil {
			return err
		}

		decision, err := uc.Progress.Advance(ctx, store, campaign)
		if err != nil {
			return err
		}
		if !decision.Changed {
			return nil
		}
		updated := decision.Campaign
		updated.UpdatedAt = now
		return store.SaveCampaign(ctx, updated)
	})
	if err != nil {
		return entities.Invitation{}, err
	}

	logger.Info("invitation created",
		"event", "invitation_created",
		"module", moduleName,
		"layer", "application",
		"invitation_id", invitation.InvitationID,
		"campaign_id", invitation.CampaignID,
		"influencer_id", invitation.InfluencerID,
	)
	return invitation, nil
}

type RespondInvitationCommand struct {
	InvitationID string
	InfluencerID string
	Response     string
}

type RespondInvitationUseCase struct {
	Transactions application.TxRunner
	Progress     ProgressEvaluator
	Notifier     NotificationEmitter
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (uc RespondInvitationUseCase) Execute(ctx context.Context, cmd RespondInvitationCommand) (entities.Invitation, error) {
	logger := application.ResolveLogger(uc.Logger)
	response := entities.InvitationStatus(strings.ToLower(strings.TrimSpace(cmd.Response)))
	if !response.IsResponse() {
		return entities.Invitation{}, domainerrors.ErrInvalidResponse
	}
	invitationID := strings.TrimSpace(cmd.InvitationID)
	actorID := strings.TrimSpace(cmd.InfluencerID)

	var result entities.Invitation
	err := uc.Transactions.Run(ctx, "respond_invitation", func(ctx context.Context, store ports.Store) error {
		invitation, campaign, err := lockInvitationCampaign(ctx, store, invitationID)
		if err != nil {
			return err
		}
		if invitation.InfluencerID != actorID {
			return domainerrors.ErrNotInvitee
		}
		if invitation.Status != entities.InvitationStatusPending {
			return domainerrors.ErrInvitationAlreadyResponded
		}

		now := uc.Clock.Now().UTC()
		invitation.Status = response
		invitation.RespondedAt = &now
		invitation.UpdatedAt = now
		if err := store.UpdateInvitation(ctx, invitation); err != nil {
			return err
		}

		mutated := false
		notificationType := entities.NotificationInvitationRejected
		verb := "declined"
		if response == entities.InvitationStatusAccepted {
			notificationType = entities.NotificationInvitationAccepted
			verb = "accepted"
			acceptInvitedApplication(&campaign, invitation, now)
			mutated = true
		}
		if _, err := uc.Notifier.Emit(ctx, store, entities.Notification{
			RecipientID: campaign.BrandID,
			Type:        notificationType,
			Title:       "Invitation " + verb,
			Message:     "An influencer " + verb + " your invitation to \"" + campaign.Title + "\".",
			Data: map[string]any{
				"campaign_id":    campaign.CampaignID,
				"campaign_title": campaign.Title,
				"invitation_id":  invitation.InvitationID,
				"influencer_id":  invitation.InfluencerID,
				"response":       string(response),
			},
		}); err != nil {
			return err
		}

		decision, err := uc.Progress.Advance(ctx, store, campaign)
		if err != nil {
			return err
		}
		if mutated || decision.Changed {
			updated := decision.Campaign
			updated.UpdatedAt = now
			if err := store.SaveCampaign(ctx, updated); err != nil {
				return err
			}
		}
		result = invitation
		return nil
	})
	if err != nil {
		return entities.Invitation{}, err
	}

	logger.Info("invitation responded",
		"event", "invitation_responded",
		"module", moduleName,
		"layer", "application",
		"invitation_id", result.InvitationID,
		"campaign_id", result.CampaignID,
		"response", string(result.Status),
	)
	return result, nil
}

type DeleteInvitationCommand struct {
	InvitationID string
	BrandID      string
}

type DeleteInvitationUseCase struct {
	Transactions application.TxRunner
	Progress     ProgressEvaluator
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (uc DeleteInvitationUseCase) Execute(ctx context.Context, cmd DeleteInvitationCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	invitationID := strings.TrimSpace(cmd.InvitationID)
	actorID := strings.TrimSpace(cmd.BrandID)

	var campaignID string
	err := uc.Transactions.Run(ctx, "delete_invitation", func(ctx context.Context, store ports.Store) error {
		invitation, campaign, err := lockInvitationCampaign(ctx, store, invitationID)
		if err != nil {
			return err
		}
		if campaign.BrandID != actorID {
			return domainerrors.ErrNotCampaignOwner
		}
		if err := store.DeleteInvitation(ctx, invitation.InvitationID); err != nil {
			return err
		}

		decision, err := uc.Progress.Advance(ctx, store, campaign)
		if err != nil {
			return err
		}
		campaignID = campaign.CampaignID
		if !decision.Changed {
			return nil
		}
		updated := decision.Campaign
		updated.UpdatedAt = uc.Clock.Now().UTC()
		return store.SaveCampaign(ctx, updated)
	})
	if err != nil {
		return err
	}

	logger.Info("invitation deleted",
		"event", "invitation_deleted",
		"module", moduleName,
		"layer", "application",
		"invitation_id", invitationID,
		"campaign_id", campaignID,
	)
	return nil
}

// lockInvitationCampaign takes the campaign lock before trusting the
// invitation state: every invitation write happens under that lock, so the
// second read is current.
func lockInvitationCampaign(ctx context.Context, store ports.Store, invitationID string) (entities.Invitation, entities.Campaign, error) {
	invitation, err := store.GetInvitation(ctx, invitationID)
	if err != nil {
		return entities.Invitation{}, entities.Campaign{}, err
	}
	campaign, err := store.GetCampaignForUpdate(ctx, invitation.CampaignID)
	if err != nil {
		return entities.Invitation{}, entities.Campaign{}, err
	}
	invitation, err = store.GetInvitation(ctx, invitationID)
	if err != nil {
		return entities.Invitation{}, entities.Campaign{}, err
	}
	return invitation, campaign, nil
}

// acceptInvitedApplication records the influencer as an accepted participant.
// A pending direct application from the same influencer is taken over by the
// invitation so the influencer is counted once.
func acceptInvitedApplication(campaign *entities.Campaign, invitation entities.Invitation, now time.Time) {
	reviewedAt := now
	if index, ok := campaign.ApplicationIndex(invitation.InfluencerID); ok {
		campaign.Applications[index].Status = entities.ApplicationStatusAccepted
		campaign.Applications[index].InvitationID = invitation.InvitationID
		campaign.Applications[index].ReviewedAt = &reviewedAt
		return
	}
	campaign.Applications = append(campaign.Applications, entities.Application{
		InfluencerID: invitation.InfluencerID,
		Status:       entities.ApplicationStatusAccepted,
		AppliedAt:    now,
		InvitationID: invitation.InvitationID,
		ReviewedAt:   &reviewedAt,
	})
}
