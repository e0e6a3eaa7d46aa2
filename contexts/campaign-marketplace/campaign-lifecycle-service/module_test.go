package campaignlifecycleservice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/adapters/memory"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application/workers"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
	domainerrors "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/errors"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
	httptransport "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/transport/http"
)

var lifecycleNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestModule(t *testing.T) Module {
	t.Helper()
	module := NewInMemoryModule(nil, nil)
	module.Store.SetNow(lifecycleNow)
	return module
}

func createActiveCampaign(t *testing.T, module Module, brandID string) string {
	t.Helper()
	resp, err := module.Handler.CreateCampaignHandler(context.Background(), brandID, httptransport.CreateCampaignRequest{
		Title:       "Summer collection",
		Description: "Short-form videos featuring the summer line",
		Budget:      2500,
		StartDate:   lifecycleNow.AddDate(0, -1, 0).Format(time.RFC3339),
		EndDate:     lifecycleNow.AddDate(0, 1, 0).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if resp.Campaign.Status != string(entities.CampaignStatusActive) {
		t.Fatalf("expected active campaign, got %s", resp.Campaign.Status)
	}
	return resp.Campaign.CampaignID
}

func invite(t *testing.T, module Module, brandID string, campaignID string, influencerID string) string {
	t.Helper()
	resp, err := module.Handler.CreateInvitationHandler(context.Background(), brandID, campaignID, httptransport.CreateInvitationRequest{
		InfluencerID: influencerID,
		Message:      "We would love to work with you",
	})
	if err != nil {
		t.Fatalf("invite %s failed: %v", influencerID, err)
	}
	return resp.Invitation.InvitationID
}

func respond(t *testing.T, module Module, influencerID string, invitationID string, response string) {
	t.Helper()
	if _, err := module.Handler.RespondInvitationHandler(context.Background(), influencerID, invitationID, httptransport.RespondInvitationRequest{
		Response: response,
	}); err != nil {
		t.Fatalf("respond %s by %s failed: %v", response, influencerID, err)
	}
}

func submit(t *testing.T, module Module, creatorID string, campaignID string) string {
	t.Helper()
	resp, err := module.Handler.SubmitContentHandler(context.Background(), creatorID, campaignID, httptransport.SubmitContentRequest{
		Title:      "Try-on haul",
		Platform:   "tiktok",
		ContentURL: "https://video.example.com/v/" + creatorID,
	})
	if err != nil {
		t.Fatalf("submit content by %s failed: %v", creatorID, err)
	}
	return resp.Content.ContentID
}

func review(t *testing.T, module Module, brandID string, contentID string, decision string) {
	t.Helper()
	if _, err := module.Handler.ReviewContentHandler(context.Background(), brandID, contentID, httptransport.ReviewContentRequest{
		Decision: decision,
	}); err != nil {
		t.Fatalf("review content %s failed: %v", decision, err)
	}
}

func loadCampaign(t *testing.T, store *memory.Store, campaignID string) entities.Campaign {
	t.Helper()
	campaign, err := store.GetCampaign(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("load campaign failed: %v", err)
	}
	return campaign
}

func notificationsFor(t *testing.T, store *memory.Store, recipientID string, notificationType entities.NotificationType) []entities.Notification {
	t.Helper()
	items, err := store.ListNotifications(context.Background(), ports.NotificationFilter{RecipientID: recipientID})
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	matched := make([]entities.Notification, 0)
	for _, item := range items {
		if item.Type == notificationType {
			matched = append(matched, item)
		}
	}
	return matched
}

func totalNotifications(t *testing.T, store *memory.Store) int {
	t.Helper()
	items, err := store.ListNotifications(context.Background(), ports.NotificationFilter{})
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	return len(items)
}

func TestInvitationToCompletionFlow(t *testing.T) {
	module := newTestModule(t)
	ctx := context.Background()
	campaignID := createActiveCampaign(t, module, "brand-1")

	first := invite(t, module, "brand-1", campaignID, "inf-1")
	second := invite(t, module, "brand-1", campaignID, "inf-2")
	if got := len(notificationsFor(t, module.Store, "inf-1", entities.NotificationCampaignInvitation)); got != 1 {
		t.Fatalf("expected one invitation notification for inf-1, got %d", got)
	}
	profile, err := module.Handler.GetInfluencerProfileHandler(ctx, "inf-1")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if len(profile.InvitationIDs) != 1 || profile.InvitationIDs[0] != first {
		t.Fatalf("expected profile to reference invitation %s, got %v", first, profile.InvitationIDs)
	}
	if status := loadCampaign(t, module.Store, campaignID).Progress.Invitations.Status; status != entities.StageStatusActive {
		t.Fatalf("expected invitations stage active while invitations are pending, got %s", status)
	}

	respond(t, module, "inf-1", first, "accepted")
	if got := len(notificationsFor(t, module.Store, "brand-1", entities.NotificationInvitationAccepted)); got != 1 {
		t.Fatalf("expected one acceptance notification, got %d", got)
	}
	if status := loadCampaign(t, module.Store, campaignID).Progress.Invitations.Status; status != entities.StageStatusActive {
		t.Fatalf("expected invitations stage active with one pending response, got %s", status)
	}

	respond(t, module, "inf-2", second, "rejected")
	campaign := loadCampaign(t, module.Store, campaignID)
	if campaign.Progress.Invitations.Status != entities.StageStatusCompleted {
		t.Fatalf("expected invitations stage completed, got %s", campaign.Progress.Invitations.Status)
	}
	if campaign.Progress.Content.Status != entities.StageStatusActive {
		t.Fatalf("expected content stage active, got %s", campaign.Progress.Content.Status)
	}
	if !campaign.HasAcceptedApplication("inf-1") || campaign.HasAcceptedApplication("inf-2") {
		t.Fatalf("expected only inf-1 to hold an accepted application, got %+v", campaign.Applications)
	}
	if got := len(notificationsFor(t, module.Store, "inf-1", entities.NotificationCampaignContentStage)); got != 1 {
		t.Fatalf("expected one content stage notification for inf-1, got %d", got)
	}
	if got := len(notificationsFor(t, module.Store, "inf-2", entities.NotificationCampaignContentStage)); got != 0 {
		t.Fatalf("expected no content stage notification for inf-2, got %d", got)
	}

	contentID := submit(t, module, "inf-1", campaignID)
	if got := len(notificationsFor(t, module.Store, "brand-1", entities.NotificationContentSubmitted)); got != 1 {
		t.Fatalf("expected one content submitted notification, got %d", got)
	}

	review(t, module, "brand-1", contentID, "approved")
	campaign = loadCampaign(t, module.Store, campaignID)
	if campaign.Progress.Content.Status != entities.StageStatusCompleted {
		t.Fatalf("expected content stage completed, got %s", campaign.Progress.Content.Status)
	}
	if campaign.Progress.Completion.Status != entities.StageStatusActive {
		t.Fatalf("expected completion stage active, got %s", campaign.Progress.Completion.Status)
	}
	if got := len(notificationsFor(t, module.Store, "inf-1", entities.NotificationContentApproved)); got != 1 {
		t.Fatalf("expected one content approved notification, got %d", got)
	}

	evaluated, err := module.Handler.EvaluateProgressHandler(ctx, campaignID)
	if err != nil {
		t.Fatalf("evaluate progress failed: %v", err)
	}
	if !evaluated.ProgressChanged {
		t.Fatalf("expected evaluation to complete the campaign")
	}
	campaign = loadCampaign(t, module.Store, campaignID)
	if campaign.Status != entities.CampaignStatusCompleted {
		t.Fatalf("expected campaign completed, got %s", campaign.Status)
	}

	for i := 0; i < 2; i++ {
		again, err := module.Handler.EvaluateProgressHandler(ctx, campaignID)
		if err != nil {
			t.Fatalf("repeat evaluation failed: %v", err)
		}
		if again.ProgressChanged {
			t.Fatalf("expected repeat evaluation to be a no-op")
		}
	}

	profile, err = module.Handler.GetInfluencerProfileHandler(ctx, "inf-1")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.CompletedCampaigns != 1 {
		t.Fatalf("expected one completed campaign for inf-1, got %d", profile.CompletedCampaigns)
	}
	if got := len(notificationsFor(t, module.Store, "inf-1", entities.NotificationCampaignCompleted)); got != 1 {
		t.Fatalf("expected one completion notification, got %d", got)
	}
	stats, err := module.Handler.GetBrandStatsHandler(ctx, "brand-1")
	if err != nil {
		t.Fatalf("get brand stats failed: %v", err)
	}
	if stats.TotalCampaigns != 1 || stats.ActiveCampaigns != 0 || stats.CompletedCampaigns != 1 {
		t.Fatalf("unexpected brand stats %+v", stats)
	}
}

func TestRespondingToAnsweredInvitationIsInvalidState(t *testing.T) {
	module := newTestModule(t)
	campaignID := createActiveCampaign(t, module, "brand-1")
	invitationID := invite(t, module, "brand-1", campaignID, "inf-1")
	respond(t, module, "inf-1", invitationID, "accepted")

	before := loadCampaign(t, module.Store, campaignID)
	notificationsBefore := totalNotifications(t, module.Store)
	module.Store.SetNow(lifecycleNow.Add(time.Hour))

	_, err := module.Handler.RespondInvitationHandler(context.Background(), "inf-1", invitationID, httptransport.RespondInvitationRequest{
		Response: "rejected",
	})
	if !errors.Is(err, domainerrors.ErrInvitationAlreadyResponded) || !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected already responded invalid state error, got %v", err)
	}

	after := loadCampaign(t, module.Store, campaignID)
	if !after.UpdatedAt.Equal(before.UpdatedAt) || len(after.Applications) != len(before.Applications) {
		t.Fatalf("expected campaign untouched after failed response")
	}
	if got := totalNotifications(t, module.Store); got != notificationsBefore {
		t.Fatalf("expected no new notifications, got %d -> %d", notificationsBefore, got)
	}
	stored, err := module.Store.GetInvitation(context.Background(), invitationID)
	if err != nil {
		t.Fatalf("get invitation failed: %v", err)
	}
	if stored.Status != entities.InvitationStatusAccepted {
		t.Fatalf("expected invitation to stay accepted, got %s", stored.Status)
	}
}

func TestRespondInvitationRequiresInvitee(t *testing.T) {
	module := newTestModule(t)
	campaignID := createActiveCampaign(t, module, "brand-1")
	invitationID := invite(t, module, "brand-1", campaignID, "inf-1")

	_, err := module.Handler.RespondInvitationHandler(context.Background(), "inf-2", invitationID, httptransport.RespondInvitationRequest{
		Response: "accepted",
	})
	if !errors.Is(err, domainerrors.ErrNotInvitee) {
		t.Fatalf("expected not invitee error, got %v", err)
	}

	_, err = module.Handler.RespondInvitationHandler(context.Background(), "inf-1", invitationID, httptransport.RespondInvitationRequest{
		Response: "maybe",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown response, got %v", err)
	}

	_, err = module.Handler.RespondInvitationHandler(context.Background(), "inf-1", "missing", httptransport.RespondInvitationRequest{
		Response: "accepted",
	})
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found for unknown invitation, got %v", err)
	}
}

func TestAllInvitationsRejectedNotifiesBrandOnce(t *testing.T) {
	module := newTestModule(t)
	ctx := context.Background()
	campaignID := createActiveCampaign(t, module, "brand-1")
	first := invite(t, module, "brand-1", campaignID, "inf-1")
	second := invite(t, module, "brand-1", campaignID, "inf-2")

	respond(t, module, "inf-1", first, "rejected")
	if got := len(notificationsFor(t, module.Store, "brand-1", entities.NotificationAllInvitationsRejected)); got != 0 {
		t.Fatalf("expected no all-rejected notification while one invitation is pending, got %d", got)
	}
	respond(t, module, "inf-2", second, "rejected")

	for i := 0; i < 3; i++ {
		if _, err := module.Handler.EvaluateProgressHandler(ctx, campaignID); err != nil {
			t.Fatalf("evaluate progress failed: %v", err)
		}
	}

	rejected := notificationsFor(t, module.Store, "brand-1", entities.NotificationAllInvitationsRejected)
	if len(rejected) != 1 {
		t.Fatalf("expected exactly one all-rejected notification, got %d", len(rejected))
	}
	if rejected[0].CampaignID() != campaignID {
		t.Fatalf("expected notification to reference %s, got %s", campaignID, rejected[0].CampaignID())
	}
	if got := len(notificationsFor(t, module.Store, "brand-1", entities.NotificationInvitationRejected)); got != 2 {
		t.Fatalf("expected two rejection notifications, got %d", got)
	}
	campaign := loadCampaign(t, module.Store, campaignID)
	if campaign.Progress.Invitations.IsCompleted() {
		t.Fatalf("expected invitations stage not completed")
	}
	if !campaign.FlagSet(entities.FlagAllInvitationsRejectedSent) {
		t.Fatalf("expected all-rejected flag to be recorded")
	}
}

func TestDuplicatePendingInvitationIsRejected(t *testing.T) {
	module := newTestModule(t)
	campaignID := createActiveCampaign(t, module, "brand-1")
	invitationID := invite(t, module, "brand-1", campaignID, "inf-1")

	_, err := module.Handler.CreateInvitationHandler(context.Background(), "brand-1", campaignID, httptransport.CreateInvitationRequest{
		InfluencerID: "inf-1",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateInvitation) {
		t.Fatalf("expected duplicate invitation error, got %v", err)
	}

	respond(t, module, "inf-1", invitationID, "rejected")
	if again := invite(t, module, "brand-1", campaignID, "inf-1"); again == invitationID {
		t.Fatalf("expected a new invitation id after the first was answered")
	}
}

func TestOnlyBrandOwnerCanInvite(t *testing.T) {
	module := newTestModule(t)
	campaignID := createActiveCampaign(t, module, "brand-1")

	_, err := module.Handler.CreateInvitationHandler(context.Background(), "brand-2", campaignID, httptransport.CreateInvitationRequest{
		InfluencerID: "inf-1",
	})
	if !errors.Is(err, domainerrors.ErrNotCampaignOwner) || !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected not campaign owner error, got %v", err)
	}
	_, err = module.Handler.CreateInvitationHandler(context.Background(), "brand-1", "missing", httptransport.CreateInvitationRequest{
		InfluencerID: "inf-1",
	})
	if !errors.Is(err, domainerrors.ErrCampaignNotFound) {
		t.Fatalf("expected campaign not found, got %v", err)
	}
	_, err = module.Handler.CreateInvitationHandler(context.Background(), "brand-1", campaignID, httptransport.CreateInvitationRequest{})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing influencer, got %v", err)
	}
}

func TestDeletingPendingInvitationAdvancesStage(t *testing.T) {
	module := newTestModule(t)
	campaignID := createActiveCampaign(t, module, "brand-1")
	first := invite(t, module, "brand-1", campaignID, "inf-1")
	second := invite(t, module, "brand-1", campaignID, "inf-2")
	respond(t, module, "inf-1", first, "accepted")

	if err := module.Handler.DeleteInvitationHandler(context.Background(), "inf-2", second); !errors.Is(err, domainerrors.ErrNotCampaignOwner) {
		t.Fatalf("expected influencer delete to be unauthorized, got %v", err)
	}
	if err := module.Handler.DeleteInvitationHandler(context.Background(), "brand-1", second); err != nil {
		t.Fatalf("delete invitation failed: %v", err)
	}
	if _, err := module.Store.GetInvitation(context.Background(), second); !errors.Is(err, domainerrors.ErrInvitationNotFound) {
		t.Fatalf("expected deleted invitation to be gone, got %v", err)
	}

	campaign := loadCampaign(t, module.Store, campaignID)
	if campaign.Progress.Invitations.Status != entities.StageStatusCompleted {
		t.Fatalf("expected invitations stage completed after delete, got %s", campaign.Progress.Invitations.Status)
	}
	if got := len(notificationsFor(t, module.Store, "inf-1", entities.NotificationCampaignContentStage)); got != 1 {
		t.Fatalf("expected content stage notification after delete, got %d", got)
	}
}

func TestDirectApplicationFlow(t *testing.T) {
	module := newTestModule(t)
	ctx := context.Background()
	campaignID := createActiveCampaign(t, module, "brand-1")

	applied, err := module.Handler.ApplyHandler(ctx, "inf-9", campaignID, httptransport.ApplyRequest{Message: "Big fan"})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if applied.Application.Status != string(entities.ApplicationStatusPending) {
		t.Fatalf("expected pending application, got %s", applied.Application.Status)
	}
	if got := len(notificationsFor(t, module.Store, "brand-1", entities.NotificationCampaignApplication)); got != 1 {
		t.Fatalf("expected one application notification, got %d", got)
	}
	if _, err := module.Handler.ApplyHandler(ctx, "inf-9", campaignID, httptransport.ApplyRequest{}); !errors.Is(err, domainerrors.ErrDuplicateApplication) {
		t.Fatalf("expected duplicate application error, got %v", err)
	}

	if _, err := module.Handler.ReviewApplicationHandler(ctx, "brand-2", campaignID, "inf-9", httptransport.ReviewApplicationRequest{
		Decision: "accepted",
	}); !errors.Is(err, domainerrors.ErrNotCampaignOwner) {
		t.Fatalf("expected non-owner review to fail, got %v", err)
	}
	reviewed, err := module.Handler.ReviewApplicationHandler(ctx, "brand-1", campaignID, "inf-9", httptransport.ReviewApplicationRequest{
		Decision: "accepted",
	})
	if err != nil {
		t.Fatalf("review application failed: %v", err)
	}
	if reviewed.Application.Status != string(entities.ApplicationStatusAccepted) {
		t.Fatalf("expected accepted application, got %s", reviewed.Application.Status)
	}
	if _, err := module.Handler.ReviewApplicationHandler(ctx, "brand-1", campaignID, "inf-9", httptransport.ReviewApplicationRequest{
		Decision: "rejected",
	}); !errors.Is(err, domainerrors.ErrApplicationAlreadyReviewed) {
		t.Fatalf("expected already reviewed error, got %v", err)
	}

	campaign := loadCampaign(t, module.Store, campaignID)
	if campaign.Progress.Invitations.Status != entities.StageStatusCompleted {
		t.Fatalf("expected direct acceptance to complete invitations stage, got %s", campaign.Progress.Invitations.Status)
	}
	if got := len(notificationsFor(t, module.Store, "inf-9", entities.NotificationCampaignContentStage)); got != 1 {
		t.Fatalf("expected content stage notification for direct applicant, got %d", got)
	}
}

func TestApplyRequiresActiveCampaign(t *testing.T) {
	module := newTestModule(t)
	resp, err := module.Handler.CreateCampaignHandler(context.Background(), "brand-1", httptransport.CreateCampaignRequest{
		Title:     "Autumn preview",
		StartDate: lifecycleNow.AddDate(0, 1, 0).Format(time.RFC3339),
		EndDate:   lifecycleNow.AddDate(0, 2, 0).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if resp.Campaign.Status != string(entities.CampaignStatusUpcoming) {
		t.Fatalf("expected upcoming campaign, got %s", resp.Campaign.Status)
	}

	_, err = module.Handler.ApplyHandler(context.Background(), "inf-1", resp.Campaign.CampaignID, httptransport.ApplyRequest{})
	if !errors.Is(err, domainerrors.ErrCampaignNotActive) {
		t.Fatalf("expected campaign not active error, got %v", err)
	}
}

func TestUpcomingCampaignOpensOnceStartDatePasses(t *testing.T) {
	module := newTestModule(t)
	ctx := context.Background()
	create := func(title string) string {
		resp, err := module.Handler.CreateCampaignHandler(ctx, "brand-1", httptransport.CreateCampaignRequest{
			Title:     title,
			StartDate: lifecycleNow.Add(24 * time.Hour).Format(time.RFC3339),
			EndDate:   lifecycleNow.AddDate(0, 1, 0).Format(time.RFC3339),
		})
		if err != nil {
			t.Fatalf("create campaign failed: %v", err)
		}
		if resp.Campaign.Status != string(entities.CampaignStatusUpcoming) {
			t.Fatalf("expected upcoming campaign, got %s", resp.Campaign.Status)
		}
		return resp.Campaign.CampaignID
	}
	swept := create("Launch week")
	unswept := create("Launch weekend")

	module.Store.SetNow(lifecycleNow.Add(48 * time.Hour))

	// Applying re-derives the status without waiting for a sweep.
	if _, err := module.Handler.ApplyHandler(ctx, "inf-2", unswept, httptransport.ApplyRequest{}); err != nil {
		t.Fatalf("apply before sweep failed: %v", err)
	}
	if status := loadCampaign(t, module.Store, unswept).Status; status != entities.CampaignStatusActive {
		t.Fatalf("expected applied campaign persisted as active, got %s", status)
	}

	sweeper := workers.CampaignSweeper{Campaigns: module.Store, Refresher: module.Refresh, Clock: module.Store}
	if err := sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if status := loadCampaign(t, module.Store, swept).Status; status != entities.CampaignStatusActive {
		t.Fatalf("expected swept campaign active, got %s", status)
	}
	if _, err := module.Handler.ApplyHandler(ctx, "inf-1", swept, httptransport.ApplyRequest{}); err != nil {
		t.Fatalf("apply after sweep failed: %v", err)
	}
}

func TestSubmitContentRequiresAcceptedApplication(t *testing.T) {
	module := newTestModule(t)
	campaignID := createActiveCampaign(t, module, "brand-1")
	invite(t, module, "brand-1", campaignID, "inf-1")

	_, err := module.Handler.SubmitContentHandler(context.Background(), "inf-1", campaignID, httptransport.SubmitContentRequest{
		Title:      "Early post",
		ContentURL: "https://video.example.com/v/early",
	})
	if !errors.Is(err, domainerrors.ErrNotAcceptedApplicant) {
		t.Fatalf("expected not accepted applicant error, got %v", err)
	}
	_, err = module.Handler.SubmitContentHandler(context.Background(), "inf-1", campaignID, httptransport.SubmitContentRequest{
		Title:      "Bad link",
		ContentURL: "not-a-link",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for bad url, got %v", err)
	}
}

func TestLatestRejectedSubmissionBlocksContentCompletion(t *testing.T) {
	module := newTestModule(t)
	campaignID := createActiveCampaign(t, module, "brand-1")
	invitationID := invite(t, module, "brand-1", campaignID, "inf-1")
	respond(t, module, "inf-1", invitationID, "accepted")

	older := submit(t, module, "inf-1", campaignID)
	module.Store.SetNow(lifecycleNow.Add(time.Hour))
	newer := submit(t, module, "inf-1", campaignID)

	review(t, module, "brand-1", older, "approved")
	if status := loadCampaign(t, module.Store, campaignID).Progress.Content.Status; status != entities.StageStatusActive {
		t.Fatalf("expected content stage active while newest submission is unreviewed, got %s", status)
	}
	review(t, module, "brand-1", newer, "rejected")
	campaign := loadCampaign(t, module.Store, campaignID)
	if campaign.Progress.Content.IsCompleted() {
		t.Fatalf("expected content stage not completed when newest submission is rejected")
	}
	if got := len(notificationsFor(t, module.Store, "inf-1", entities.NotificationContentRejected)); got != 1 {
		t.Fatalf("expected one content rejected notification, got %d", got)
	}

	if _, err := module.Handler.ReviewContentHandler(context.Background(), "brand-1", newer, httptransport.ReviewContentRequest{
		Decision: "approved",
	}); !errors.Is(err, domainerrors.ErrInvalidContentTransition) {
		t.Fatalf("expected reviewed content to refuse a second review, got %v", err)
	}
	if _, err := module.Handler.ReviewContentHandler(context.Background(), "inf-1", older, httptransport.ReviewContentRequest{
		Decision: "approved",
	}); !errors.Is(err, domainerrors.ErrNotCampaignOwner) {
		t.Fatalf("expected creator review to be unauthorized, got %v", err)
	}
}

func TestPublishApprovedContent(t *testing.T) {
	module := newTestModule(t)
	campaignID := createActiveCampaign(t, module, "brand-1")
	invitationID := invite(t, module, "brand-1", campaignID, "inf-1")
	respond(t, module, "inf-1", invitationID, "accepted")
	contentID := submit(t, module, "inf-1", campaignID)

	if _, err := module.Handler.PublishContentHandler(context.Background(), "inf-1", contentID); !errors.Is(err, domainerrors.ErrInvalidContentTransition) {
		t.Fatalf("expected unreviewed content publish to fail, got %v", err)
	}
	review(t, module, "brand-1", contentID, "approved")
	if _, err := module.Handler.PublishContentHandler(context.Background(), "brand-1", contentID); !errors.Is(err, domainerrors.ErrNotContentCreator) {
		t.Fatalf("expected brand publish to be unauthorized, got %v", err)
	}
	published, err := module.Handler.PublishContentHandler(context.Background(), "inf-1", contentID)
	if err != nil {
		t.Fatalf("publish content failed: %v", err)
	}
	if published.Content.Status != string(entities.ContentStatusPublished) || published.Content.PublishedAt == "" {
		t.Fatalf("expected published content, got %+v", published.Content)
	}

	listed, err := module.Handler.ListContentHandler(context.Background(), "brand-1", campaignID)
	if err != nil {
		t.Fatalf("list content failed: %v", err)
	}
	if len(listed.Items) != 1 {
		t.Fatalf("expected one content item, got %d", len(listed.Items))
	}
	if _, err := module.Handler.ListContentHandler(context.Background(), "inf-7", campaignID); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected outsider listing to be unauthorized, got %v", err)
	}
}

func TestEndDatePassedCompletesCampaignOnRefresh(t *testing.T) {
	module := newTestModule(t)
	ctx := context.Background()
	campaignID := createActiveCampaign(t, module, "brand-1")
	invitationID := invite(t, module, "brand-1", campaignID, "inf-1")
	respond(t, module, "inf-1", invitationID, "accepted")

	module.Store.SetNow(lifecycleNow.AddDate(0, 2, 0))
	if _, err := module.Handler.RefreshCampaignStatusHandler(ctx, "brand-2", campaignID); !errors.Is(err, domainerrors.ErrNotCampaignOwner) {
		t.Fatalf("expected non-owner refresh to fail, got %v", err)
	}
	refreshed, err := module.Handler.RefreshCampaignStatusHandler(ctx, "brand-1", campaignID)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.Campaign.Status != string(entities.CampaignStatusCompleted) {
		t.Fatalf("expected completed campaign, got %s", refreshed.Campaign.Status)
	}
	if refreshed.Campaign.Progress.Completion.Status != string(entities.StageStatusCompleted) {
		t.Fatalf("expected completion stage completed, got %s", refreshed.Campaign.Progress.Completion.Status)
	}
	if refreshed.Campaign.Progress.Content.Status == string(entities.StageStatusCompleted) {
		t.Fatalf("expected content stage left incomplete")
	}

	again, err := module.Handler.RefreshCampaignStatusHandler(ctx, "brand-1", campaignID)
	if err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if again.StatusChanged || again.ProgressChanged {
		t.Fatalf("expected second refresh to change nothing")
	}
	if got := len(notificationsFor(t, module.Store, "inf-1", entities.NotificationCampaignCompleted)); got != 1 {
		t.Fatalf("expected one completion notification, got %d", got)
	}
	profile, err := module.Handler.GetInfluencerProfileHandler(ctx, "inf-1")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.CompletedCampaigns != 1 {
		t.Fatalf("expected completed campaign counted once, got %d", profile.CompletedCampaigns)
	}
}

func TestCancelledCampaignIsNeverCompleted(t *testing.T) {
	module := newTestModule(t)
	ctx := context.Background()
	campaignID := createActiveCampaign(t, module, "brand-1")

	if _, err := module.Handler.CancelCampaignHandler(ctx, "brand-2", campaignID, httptransport.CancelCampaignRequest{}); !errors.Is(err, domainerrors.ErrNotCampaignOwner) {
		t.Fatalf("expected non-owner cancel to fail, got %v", err)
	}
	cancelled, err := module.Handler.CancelCampaignHandler(ctx, "brand-1", campaignID, httptransport.CancelCampaignRequest{Reason: "budget cut"})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Campaign.Status != string(entities.CampaignStatusCancelled) || cancelled.Campaign.CancelledAt == "" {
		t.Fatalf("expected cancelled campaign, got %+v", cancelled.Campaign)
	}
	if _, err := module.Handler.CancelCampaignHandler(ctx, "brand-1", campaignID, httptransport.CancelCampaignRequest{}); !errors.Is(err, domainerrors.ErrCampaignClosed) {
		t.Fatalf("expected second cancel to fail, got %v", err)
	}

	module.Store.SetNow(lifecycleNow.AddDate(0, 3, 0))
	if _, err := module.Handler.EvaluateProgressHandler(ctx, campaignID); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if status := loadCampaign(t, module.Store, campaignID).Status; status != entities.CampaignStatusCancelled {
		t.Fatalf("expected campaign to stay cancelled, got %s", status)
	}
	stats, err := module.Handler.GetBrandStatsHandler(ctx, "brand-1")
	if err != nil {
		t.Fatalf("get brand stats failed: %v", err)
	}
	if stats.TotalCampaigns != 1 || stats.ActiveCampaigns != 0 || stats.CompletedCampaigns != 0 {
		t.Fatalf("unexpected brand stats %+v", stats)
	}
	if _, err := module.Handler.CreateInvitationHandler(ctx, "brand-1", campaignID, httptransport.CreateInvitationRequest{
		InfluencerID: "inf-1",
	}); !errors.Is(err, domainerrors.ErrCampaignClosed) {
		t.Fatalf("expected invitation on cancelled campaign to fail, got %v", err)
	}
}

func TestCreateCampaignRejectsBadInput(t *testing.T) {
	module := newTestModule(t)
	cases := []httptransport.CreateCampaignRequest{
		{Title: "ab", StartDate: lifecycleNow.Format(time.RFC3339), EndDate: lifecycleNow.Add(time.Hour).Format(time.RFC3339)},
		{Title: "Valid title", StartDate: "yesterday", EndDate: lifecycleNow.Format(time.RFC3339)},
		{Title: "Valid title", StartDate: lifecycleNow.Format(time.RFC3339), EndDate: lifecycleNow.Add(-time.Hour).Format(time.RFC3339)},
	}
	for i, req := range cases {
		if _, err := module.Handler.CreateCampaignHandler(context.Background(), "brand-1", req); !errors.Is(err, domainerrors.ErrInvalidInput) {
			t.Fatalf("case %d: expected invalid input, got %v", i, err)
		}
	}
}

func TestNotificationsAreReadByRecipientOnly(t *testing.T) {
	module := newTestModule(t)
	ctx := context.Background()
	campaignID := createActiveCampaign(t, module, "brand-1")
	invite(t, module, "brand-1", campaignID, "inf-1")

	listed, err := module.Handler.ListNotificationsHandler(ctx, "inf-1", true, 0)
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	if len(listed.Items) != 1 {
		t.Fatalf("expected one unread notification, got %d", len(listed.Items))
	}
	notificationID := listed.Items[0].NotificationID

	if _, err := module.Handler.MarkNotificationReadHandler(ctx, "brand-1", notificationID); !errors.Is(err, domainerrors.ErrNotRecipient) {
		t.Fatalf("expected non-recipient read to fail, got %v", err)
	}
	read, err := module.Handler.MarkNotificationReadHandler(ctx, "inf-1", notificationID)
	if err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if !read.Notification.Read || read.Notification.ReadAt == "" {
		t.Fatalf("expected notification marked read, got %+v", read.Notification)
	}
	unread, err := module.Handler.ListNotificationsHandler(ctx, "inf-1", true, 0)
	if err != nil {
		t.Fatalf("list unread failed: %v", err)
	}
	if len(unread.Items) != 0 {
		t.Fatalf("expected no unread notifications, got %d", len(unread.Items))
	}
}

var errStatsUnavailable = errors.New("brand stats store unavailable")

// brandStatsFailingStore fails the last write the completion path makes.
type brandStatsFailingStore struct {
	ports.Store
}

func (s brandStatsFailingStore) IncrementBrandStats(context.Context, string, entities.BrandStatsDelta, time.Time) error {
	return errStatsUnavailable
}

type brandStatsFailingUnitOfWork struct {
	inner ports.UnitOfWork
}

func (u brandStatsFailingUnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	return u.inner.WithinTransaction(ctx, func(ctx context.Context, store ports.Store) error {
		return fn(ctx, brandStatsFailingStore{Store: store})
	})
}

func seededModule(t *testing.T, seed []entities.Campaign, unitOfWork func(*memory.Store) ports.UnitOfWork) (Module, *memory.Store) {
	t.Helper()
	store := memory.NewStore(seed)
	store.SetNow(lifecycleNow)
	module := NewModule(Dependencies{
		UnitOfWork:              unitOfWork(store),
		Campaigns:               store,
		Invitations:             store,
		Contents:                store,
		Notifications:           store,
		Statistics:              store,
		Clock:                   store,
		IDGenerator:             store,
		TxMaxAttempts:           3,
		TxInitialBackoff:        time.Millisecond,
		CountDirectApplications: true,
	})
	return module, store
}

func TestFailedSideEffectRollsBackCompletion(t *testing.T) {
	createdAt := lifecycleNow.AddDate(0, -2, 0)
	progress := entities.NewProgress(createdAt)
	progress.Invitations.Advance(entities.StageStatusCompleted, createdAt)
	progress.Content.Advance(entities.StageStatusActive, createdAt)
	seed := []entities.Campaign{{
		CampaignID: "campaign-expired",
		BrandID:    "brand-1",
		Title:      "Spring teaser",
		StartDate:  createdAt,
		EndDate:    lifecycleNow.Add(-time.Hour),
		Status:     entities.CampaignStatusActive,
		Progress:   progress,
		Applications: []entities.Application{
			{InfluencerID: "inf-1", Status: entities.ApplicationStatusAccepted, InvitationID: "inv-1", AppliedAt: createdAt},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}}
	module, store := seededModule(t, seed, func(store *memory.Store) ports.UnitOfWork {
		return brandStatsFailingUnitOfWork{inner: store}
	})

	_, err := module.Handler.EvaluateProgressHandler(context.Background(), "campaign-expired")
	if !errors.Is(err, errStatsUnavailable) {
		t.Fatalf("expected statistics failure to surface, got %v", err)
	}

	campaign := loadCampaign(t, store, "campaign-expired")
	if campaign.Status != entities.CampaignStatusActive || campaign.Progress.Completion.IsCompleted() {
		t.Fatalf("expected campaign untouched after rollback, got status=%s completion=%s", campaign.Status, campaign.Progress.Completion.Status)
	}
	if got := totalNotifications(t, store); got != 0 {
		t.Fatalf("expected no notifications after rollback, got %d", got)
	}
	profile, err := store.GetInfluencerProfile(context.Background(), "inf-1")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.CompletedCampaigns != 0 {
		t.Fatalf("expected influencer counter untouched, got %d", profile.CompletedCampaigns)
	}
	pending, err := store.ListPendingOutbox(context.Background(), 0)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no outbox rows after rollback, got %d", len(pending))
	}
}

// conflictingUnitOfWork reports a write conflict for the first remaining
// attempts before handing over to the real store.
type conflictingUnitOfWork struct {
	inner     ports.UnitOfWork
	remaining int
	attempts  int
}

func (u *conflictingUnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	u.attempts++
	if u.remaining > 0 {
		u.remaining--
		return fmt.Errorf("could not serialize access: %w", domainerrors.ErrTransactionConflict)
	}
	return u.inner.WithinTransaction(ctx, fn)
}

func TestTransactionConflictIsRetried(t *testing.T) {
	conflicts := &conflictingUnitOfWork{remaining: 2}
	module, store := seededModule(t, nil, func(store *memory.Store) ports.UnitOfWork {
		conflicts.inner = store
		return conflicts
	})

	resp, err := module.Handler.CreateCampaignHandler(context.Background(), "brand-1", httptransport.CreateCampaignRequest{
		Title:     "Retry launch",
		StartDate: lifecycleNow.Format(time.RFC3339),
		EndDate:   lifecycleNow.AddDate(0, 1, 0).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("expected create to succeed after retries, got %v", err)
	}
	if conflicts.attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", conflicts.attempts)
	}
	loadCampaign(t, store, resp.Campaign.CampaignID)
}

func TestTransactionConflictSurfacesWhenRetriesRunOut(t *testing.T) {
	conflicts := &conflictingUnitOfWork{remaining: 10}
	module, store := seededModule(t, nil, func(store *memory.Store) ports.UnitOfWork {
		conflicts.inner = store
		return conflicts
	})

	_, err := module.Handler.CreateCampaignHandler(context.Background(), "brand-1", httptransport.CreateCampaignRequest{
		Title:     "Contended launch",
		StartDate: lifecycleNow.Format(time.RFC3339),
		EndDate:   lifecycleNow.AddDate(0, 1, 0).Format(time.RFC3339),
	})
	if !errors.Is(err, domainerrors.ErrTransactionConflict) {
		t.Fatalf("expected transaction conflict, got %v", err)
	}
	if conflicts.attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", conflicts.attempts)
	}
	campaigns, err := store.ListCampaigns(context.Background(), ports.CampaignFilter{})
	if err != nil {
		t.Fatalf("list campaigns failed: %v", err)
	}
	if len(campaigns) != 0 {
		t.Fatalf("expected no campaign after exhausted retries, got %d", len(campaigns))
	}
}

func TestNonConflictErrorsAreNotRetried(t *testing.T) {
	conflicts := &conflictingUnitOfWork{}
	module, _ := seededModule(t, nil, func(store *memory.Store) ports.UnitOfWork {
		conflicts.inner = store
		return conflicts
	})

	if _, err := module.Handler.EvaluateProgressHandler(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrCampaignNotFound) {
		t.Fatalf("expected campaign not found, got %v", err)
	}
	if conflicts.attempts != 1 {
		t.Fatalf("expected a single attempt for a non-conflict error, got %d", conflicts.attempts)
	}
}
