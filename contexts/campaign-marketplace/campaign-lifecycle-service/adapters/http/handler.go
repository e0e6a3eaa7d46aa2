package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application/commands"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application/queries"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
	domainerrors "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/errors"
	httptransport "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/transport/http"
)

// Handler adapts transport DTOs to lifecycle use cases. userID is always the
// authenticated caller.
type Handler struct {
	CreateCampaign        commands.CreateCampaignUseCase
	CancelCampaign        commands.CancelCampaignUseCase
	RefreshCampaignStatus commands.RefreshCampaignStatusUseCase
	EvaluateProgress      commands.EvaluateProgressUseCase
	CreateInvitation      commands.CreateInvitationUseCase
	RespondInvitation     commands.RespondInvitationUseCase
	DeleteInvitation      commands.DeleteInvitationUseCase
	Apply                 commands.ApplyUseCase
	ReviewApplication     commands.ReviewApplicationUseCase
	SubmitContent         commands.SubmitContentUseCase
	ReviewContent         commands.ReviewContentUseCase
	PublishContent        commands.PublishContentUseCase
	MarkNotificationRead  commands.MarkNotificationReadUseCase
	GetCampaign           queries.GetCampaignUseCase
	ListCampaigns         queries.ListCampaignsUseCase
	ListInvitations       queries.ListInvitationsUseCase
	ListContent           queries.ListContentUseCase
	ListNotifications     queries.ListNotificationsUseCase
	GetInfluencerProfile  queries.GetInfluencerProfileUseCase
	GetBrandStats         queries.GetBrandStatsUseCase
	Logger                *slog.Logger
}

// CreateCampaignHandler godoc
// @Summary Create a campaign
// @Description Creates a campaign owned by the caller. Status is derived from the dates.
// @Tags campaign-lifecycle
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller id"
// @Param request body httptransport.CreateCampaignRequest true "Request body"
// @Success 201 {object} httptransport.CampaignResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/campaigns [post]
func (h Handler) CreateCampaignHandler(
	ctx context.Context,
	userID string,
	req httptransport.CreateCampaignRequest,
) (httptransport.CampaignResponse, error) {
	if err := validateRequest(req); err != nil {
		return httptransport.CampaignResponse{}, err
	}
	startDate, err := parseTimestamp(req.StartDate)
	if err != nil {
		return httptransport.CampaignResponse{}, domainerrors.ErrInvalidCampaignInput
	}
	endDate, err := parseTimestamp(req.EndDate)
	if err != nil {
		return httptransport.CampaignResponse{}, domainerrors.ErrInvalidCampaignInput
	}
	campaign, err := h.CreateCampaign.Execute(ctx, commands.CreateCampaignCommand{
		BrandID:     userID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		StartDate:   startDate,
		EndDate:     endDate,
	})
	if err != nil {
		return httptransport.CampaignResponse{}, err
	}
	return httptransport.CampaignResponse{Campaign: mapCampaign(campaign)}, nil
}

func (h Handler) GetCampaignHandler(ctx context.Context, campaignID string) (httptransport.CampaignResponse, error) {
	campaign, err := h.GetCampaign.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.CampaignResponse{}, err
	}
	return httptransport.CampaignResponse{Campaign: mapCampaign(campaign)}, nil
}

func (h Handler) ListCampaignsHandler(ctx context.Context, brandID string, status string) (httptransport.ListCampaignsResponse, error) {
	items, err := h.ListCampaigns.Execute(ctx, queries.ListCampaignsQuery{
		BrandID: brandID,
		Status:  status,
	})
	if err != nil {
		return httptransport.ListCampaignsResponse{}, err
	}
	result := make([]httptransport.CampaignDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapCampaign(item))
	}
	return httptransport.ListCampaignsResponse{Items: result}, nil
}

func (h Handler) CancelCampaignHandler(
	ctx context.Context,
	userID string,
	campaignID string,
	req httptransport.CancelCampaignRequest,
) (httptransport.CampaignResponse, error) {
	if err := validateRequest(req); err != nil {
		return httptransport.CampaignResponse{}, err
	}
	campaign, err := h.CancelCampaign.Execute(ctx, commands.CancelCampaignCommand{
		CampaignID: campaignID,
		BrandID:    userID,
		Reason:     req.Reason,
	})
	if err != nil {
		return httptransport.CampaignResponse{}, err
	}
	return httptransport.CampaignResponse{Campaign: mapCampaign(campaign)}, nil
}

func (h Handler) RefreshCampaignStatusHandler(
	ctx context.Context,
	userID string,
	campaignID string,
) (httptransport.RefreshCampaignStatusResponse, error) {
	result, err := h.RefreshCampaignStatus.Execute(ctx, commands.RefreshCampaignStatusCommand{
		CampaignID: campaignID,
		ActorID:    userID,
	})
	if err != nil {
		return httptransport.RefreshCampaignStatusResponse{}, err
	}
	return httptransport.RefreshCampaignStatusResponse{
		Campaign:        mapCampaign(result.Campaign),
		StatusChanged:   result.StatusChanged,
		ProgressChanged: result.ProgressChanged,
	}, nil
}

func (h Handler) EvaluateProgressHandler(ctx context.Context, campaignID string) (httptransport.EvaluateProgressResponse, error) {
	changed, err := h.EvaluateProgress.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.EvaluateProgressResponse{}, err
	}
	return httptransport.EvaluateProgressResponse{
		CampaignID:      strings.TrimSpace(campaignID),
		ProgressChanged: changed,
	}, nil
}

// CreateInvitationHandler godoc
// @Summary Invite an influencer
// @Description Creates a pending invitation, notifies the influencer and re-evaluates progress.
// @Tags campaign-lifecycle
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller id"
// @Param campaign_id path string true "Campaign id"
// @Param request body httptransport.CreateInvitationRequest true "Request body"
// @Success 201 {object} httptransport.InvitationResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/campaigns/{campaign_id}/invitations [post]
func (h Handler) CreateInvitationHandler(
	ctx context.Context,
	userID string,
	campaignID string,
	req httptransport.CreateInvitationRequest,
) (httptransport.InvitationResponse, error) {
	if err := validateRequest(req); err != nil {
		return httptransport.InvitationResponse{}, err
	}
	invitation, err := h.CreateInvitation.Execute(ctx, commands.CreateInvitationCommand{
		CampaignID:   campaignID,
		BrandID:      userID,
		InfluencerID: req.InfluencerID,
		Message:      req.Message,
	})
	if err != nil {
		return httptransport.InvitationResponse{}, err
	}
	return httptransport.InvitationResponse{Invitation: mapInvitation(invitation)}, nil
}

// RespondInvitationHandler godoc
// @Summary Accept or reject an invitation
// @Description Only the invited influencer may respond, once.
// @Tags campaign-lifecycle
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller id"
// @Param invitation_id path string true "Invitation id"
// @Param request body httptransport.RespondInvitationRequest true "Request body"
// @Success 200 {object} httptransport.InvitationResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/invitations/{invitation_id}/respond [post]
func (h Handler) RespondInvitationHandler(
	ctx context.Context,
	userID string,
	invitationID string,
	req httptransport.RespondInvitationRequest,
) (httptransport.InvitationResponse, error) {
	if err := validateRequest(req); err != nil {
		return httptransport.InvitationResponse{}, err
	}
	invitation, err := h.RespondInvitation.Execute(ctx, commands.RespondInvitationCommand{
		InvitationID: invitationID,
		InfluencerID: userID,
		Response:     req.Response,
	})
	if err != nil {
		return httptransport.InvitationResponse{}, err
	}
	return httptransport.InvitationResponse{Invitation: mapInvitation(invitation)}, nil
}

func (h Handler) DeleteInvitationHandler(ctx context.Context, userID string, invitationID string) error {
	return h.DeleteInvitation.Execute(ctx, commands.DeleteInvitationCommand{
		InvitationID: invitationID,
		BrandID:      userID,
	})
}

func (h Handler) ListCampaignInvitationsHandler(
	ctx context.Context,
	userID string,
	campaignID string,
) (httptransport.ListInvitationsResponse, error) {
	return h.listInvitations(ctx, queries.ListInvitationsQuery{ActorID: userID, CampaignID: campaignID})
}

func (h Handler) ListMyInvitationsHandler(ctx context.Context, userID string) (httptransport.ListInvitationsResponse, error) {
	return h.listInvitations(ctx, queries.ListInvitationsQuery{ActorID: userID, InfluencerID: userID})
}

func (h Handler) listInvitations(ctx context.Context, query queries.ListInvitationsQuery) (httptransport.ListInvitationsResponse, error) {
	items, err := h.ListInvitations.Execute(ctx, query)
	if err != nil {
		return httptransport.ListInvitationsResponse{}, err
	}
	result := make([]httptransport.InvitationDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapInvitation(item))
	}
	return httptransport.ListInvitationsResponse{Items: result}, nil
}

// ApplyHandler godoc
// @Summary Apply to a campaign directly
// @Description Appends a pending application to an active campaign.
// @Tags campaign-lifecycle
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller id"
// @Param campaign_id path string true "Campaign id"
// @Param request body httptransport.ApplyRequest true "Request body"
// @Success 201 {object} httptransport.ApplicationResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/campaigns/{campaign_id}/applications [post]
func (h Handler) ApplyHandler(
	ctx context.Context,
	userID string,
	campaignID string,
	req httptransport.ApplyRequest,
) (httptransport.ApplicationResponse, error) {
	if err := validateRequest(req); err != nil {
		return httptransport.ApplicationResponse{}, err
	}
	application, err := h.Apply.Execute(ctx, commands.ApplyCommand{
		CampaignID:   campaignID,
		InfluencerID: userID,
		Message:      req.Message,
	})
	if err != nil {
		return httptransport.ApplicationResponse{}, err
	}
	return httptransport.ApplicationResponse{
		CampaignID:  strings.TrimSpace(campaignID),
		Application: mapApplication(application),
	}, nil
}

func (h Handler) ReviewApplicationHandler(
	ctx context.Context,
	userID string,
	campaignID string,
	influencerID string,
	req httptransport.ReviewApplicationRequest,
) (httptransport.ApplicationResponse, error) {
	if err := validateRequest(req); err != nil {
		return httptransport.ApplicationResponse{}, err
	}
	application, err := h.ReviewApplication.Execute(ctx, commands.ReviewApplicationCommand{
		CampaignID:   campaignID,
		InfluencerID: influencerID,
		BrandID:      userID,
		Decision:     req.Decision,
	})
	if err != nil {
		return httptransport.ApplicationResponse{}, err
	}
	return httptransport.ApplicationResponse{
		CampaignID:  strings.TrimSpace(campaignID),
		Application: mapApplication(application),
	}, nil
}

// SubmitContentHandler godoc
// @Summary Submit content
// @Description Accepted participants submit content for brand review.
// @Tags campaign-lifecycle
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller id"
// @Param campaign_id path string true "Campaign id"
// @Param request body httptransport.SubmitContentRequest true "Request body"
// @Success 201 {object} httptransport.ContentResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/campaigns/{campaign_id}/content [post]
func (h Handler) SubmitContentHandler(
	ctx context.Context,
	userID string,
	campaignID string,
	req httptransport.SubmitContentRequest,
) (httptransport.ContentResponse, error) {
	if err := validateRequest(req); err != nil {
		return httptransport.ContentResponse{}, err
	}
	content, err := h.SubmitContent.Execute(ctx, commands.SubmitContentCommand{
		CampaignID:  campaignID,
		CreatorID:   userID,
		Title:       req.Title,
		Description: req.Description,
		Platform:    req.Platform,
		ContentURL:  req.ContentURL,
	})
	if err != nil {
		return httptransport.ContentResponse{}, err
	}
	return httptransport.ContentResponse{Content: mapContent(content)}, nil
}

// ReviewContentHandler godoc
// @Summary Approve or reject content
// @Description The campaign brand reviews a submitted content record.
// @Tags campaign-lifecycle
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller id"
// @Param content_id path string true "Content id"
// @Param request body httptransport.ReviewContentRequest true "Request body"
// @Success 200 {object} httptransport.ContentResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/content/{content_id}/review [post]
func (h Handler) ReviewContentHandler(
	ctx context.Context,
	userID string,
	contentID string,
	req httptransport.ReviewContentRequest,
) (httptransport.ContentResponse, error) {
	if err := validateRequest(req); err != nil {
		return httptransport.ContentResponse{}, err
	}
	content, err := h.ReviewContent.Execute(ctx, commands.ReviewContentCommand{
		ContentID:  contentID,
		ReviewerID: userID,
		Decision:   req.Decision,
		Feedback:   req.Feedback,
	})
	if err != nil {
		return httptransport.ContentResponse{}, err
	}
	return httptransport.ContentResponse{Content: mapContent(content)}, nil
}

func (h Handler) PublishContentHandler(ctx context.Context, userID string, contentID string) (httptransport.ContentResponse, error) {
	content, err := h.PublishContent.Execute(ctx, commands.PublishContentCommand{
		ContentID: contentID,
		CreatorID: userID,
	})
	if err != nil {
		return httptransport.ContentResponse{}, err
	}
	return httptransport.ContentResponse{Content: mapContent(content)}, nil
}

func (h Handler) ListContentHandler(ctx context.Context, userID string, campaignID string) (httptransport.ListContentResponse, error) {
	items, err := h.ListContent.Execute(ctx, queries.ListContentQuery{
		ActorID:    userID,
		CampaignID: campaignID,
	})
	if err != nil {
		return httptransport.ListContentResponse{}, err
	}
	result := make([]httptransport.ContentDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapContent(item))
	}
	return httptransport.ListContentResponse{Items: result}, nil
}

func (h Handler) ListNotificationsHandler(
	ctx context.Context,
	userID string,
	unreadOnly bool,
	limit int,
) (httptransport.ListNotificationsResponse, error) {
	items, err := h.ListNotifications.Execute(ctx, queries.ListNotificationsQuery{
		RecipientID: userID,
		UnreadOnly:  unreadOnly,
		Limit:       limit,
	})
	if err != nil {
		return httptransport.ListNotificationsResponse{}, err
	}
	result := make([]httptransport.NotificationDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapNotification(item))
	}
	return httptransport.ListNotificationsResponse{Items: result}, nil
}

func (h Handler) MarkNotificationReadHandler(
	ctx context.Context,
	userID string,
	notificationID string,
) (httptransport.NotificationResponse, error) {
	notification, err := h.MarkNotificationRead.Execute(ctx, commands.MarkNotificationReadCommand{
		NotificationID: notificationID,
		RecipientID:    userID,
	})
	if err != nil {
		return httptransport.NotificationResponse{}, err
	}
	return httptransport.NotificationResponse{Notification: mapNotification(notification)}, nil
}

func (h Handler) GetInfluencerProfileHandler(ctx context.Context, influencerID string) (httptransport.InfluencerProfileResponse, error) {
	profile, err := h.GetInfluencerProfile.Execute(ctx, influencerID)
	if err != nil {
		return httptransport.InfluencerProfileResponse{}, err
	}
	return httptransport.InfluencerProfileResponse{
		InfluencerID:       profile.InfluencerID,
		InvitationIDs:      append([]string{}, profile.InvitationIDs...),
		CompletedCampaigns: profile.CompletedCampaigns,
	}, nil
}

func (h Handler) GetBrandStatsHandler(ctx context.Context, brandID string) (httptransport.BrandStatsResponse, error) {
	stats, err := h.GetBrandStats.Execute(ctx, brandID)
	if err != nil {
		return httptransport.BrandStatsResponse{}, err
	}
	return httptransport.BrandStatsResponse{
		BrandID:            stats.BrandID,
		TotalCampaigns:     stats.TotalCampaigns,
		ActiveCampaigns:    stats.ActiveCampaigns,
		CompletedCampaigns: stats.CompletedCampaigns,
	}, nil
}

func validateRequest(request any) error {
	if err := httptransport.Validate(request); err != nil {
		return fmt.Errorf("%w: %s", domainerrors.ErrInvalidInput, err.Error())
	}
	return nil
}

func mapCampaign(item entities.Campaign) httptransport.CampaignDTO {
	result := httptransport.CampaignDTO{
		CampaignID:  item.CampaignID,
		BrandID:     item.BrandID,
		Title:       item.Title,
		Description: item.Description,
		Budget:      item.Budget,
		StartDate:   formatTime(item.StartDate),
		EndDate:     formatTime(item.EndDate),
		Status:      string(item.Status),
		Progress: httptransport.ProgressDTO{
			Creation:    mapStage(item.Progress.Creation),
			Invitations: mapStage(item.Progress.Invitations),
			Content:     mapStage(item.Progress.Content),
			Completion:  mapStage(item.Progress.Completion),
		},
		Applications:      make([]httptransport.ApplicationDTO, 0, len(item.Applications)),
		NotificationFlags: make(map[string]bool, len(item.NotificationFlags)),
		CreatedAt:         formatTime(item.CreatedAt),
		UpdatedAt:         formatTime(item.UpdatedAt),
		CompletedAt:       formatOptionalTime(item.CompletedAt),
		CancelledAt:       formatOptionalTime(item.CancelledAt),
	}
	for _, application := range item.Applications {
		result.Applications = append(result.Applications, mapApplication(application))
	}
	for flag, value := range item.NotificationFlags {
		result.NotificationFlags[string(flag)] = value
	}
	return result
}

func mapStage(stage entities.Stage) httptransport.StageDTO {
	return httptransport.StageDTO{
		Status:      string(stage.Status),
		CompletedAt: formatOptionalTime(stage.CompletedAt),
	}
}

func mapApplication(item entities.Application) httptransport.ApplicationDTO {
	return httptransport.ApplicationDTO{
		InfluencerID: item.InfluencerID,
		Status:       string(item.Status),
		AppliedAt:    formatTime(item.AppliedAt),
		InvitationID: item.InvitationID,
		Message:      item.Message,
		ReviewedAt:   formatOptionalTime(item.ReviewedAt),
	}
}

func mapInvitation(item entities.Invitation) httptransport.InvitationDTO {
	return httptransport.InvitationDTO{
		InvitationID: item.InvitationID,
		CampaignID:   item.CampaignID,
		BrandID:      item.BrandID,
		InfluencerID: item.InfluencerID,
		Message:      item.Message,
		Status:       string(item.Status),
		CreatedAt:    formatTime(item.CreatedAt),
		UpdatedAt:    formatTime(item.UpdatedAt),
		RespondedAt:  formatOptionalTime(item.RespondedAt),
	}
}

func mapContent(item entities.Content) httptransport.ContentDTO {
	return httptransport.ContentDTO{
		ContentID:   item.ContentID,
		CampaignID:  item.CampaignID,
		CreatorID:   item.CreatorID,
		Title:       item.Title,
		Description: item.Description,
		Platform:    item.Platform,
		ContentURL:  item.ContentURL,
		Status:      string(item.Status),
		Feedback:    item.Feedback,
		ReviewedBy:  item.ReviewedBy,
		CreatedAt:   formatTime(item.CreatedAt),
		UpdatedAt:   formatTime(item.UpdatedAt),
		SubmittedAt: formatOptionalTime(item.SubmittedAt),
		ReviewedAt:  formatOptionalTime(item.ReviewedAt),
		PublishedAt: formatOptionalTime(item.PublishedAt),
	}
}

func mapNotification(item entities.Notification) httptransport.NotificationDTO {
	result := httptransport.NotificationDTO{
		NotificationID: item.NotificationID,
		RecipientID:    item.RecipientID,
		Type:           string(item.Type),
		Title:          item.Title,
		Message:        item.Message,
		Read:           item.Read,
		CreatedAt:      formatTime(item.CreatedAt),
		ReadAt:         formatOptionalTime(item.ReadAt),
	}
	if len(item.Data) > 0 {
		result.Data = make(map[string]any, len(item.Data))
		for key, value := range item.Data {
			result.Data[key] = value
		}
	}
	return result
}

func parseTimestamp(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return parsed.UTC(), nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func formatOptionalTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return formatTime(*value)
}
