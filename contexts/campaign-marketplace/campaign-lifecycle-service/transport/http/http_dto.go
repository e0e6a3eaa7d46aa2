package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateCampaignRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=120"`
	Description string  `json:"description" validate:"max=5000"`
	Budget      float64 `json:"budget" validate:"gte=0"`
	StartDate   string  `json:"start_date" validate:"required"`
	EndDate     string  `json:"end_date" validate:"required"`
}

type CancelCampaignRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type StageDTO struct {
	Status      string `json:"status"`
	CompletedAt string `json:"completed_at,omitempty"`
}

type ProgressDTO struct {
	Creation    StageDTO `json:"creation"`
	Invitations StageDTO `json:"invitations"`
	Content     StageDTO `json:"content"`
	Completion  StageDTO `json:"completion"`
}

type ApplicationDTO struct {
	InfluencerID string `json:"influencer_id"`
	Status       string `json:"status"`
	AppliedAt    string `json:"applied_at"`
	InvitationID string `json:"invitation_id,omitempty"`
	Message      string `json:"message,omitempty"`
	ReviewedAt   string `json:"reviewed_at,omitempty"`
}

type CampaignDTO struct {
	CampaignID        string           `json:"campaign_id"`
	BrandID           string           `json:"brand_id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Budget            float64          `json:"budget"`
	StartDate         string           `json:"start_date"`
	EndDate           string           `json:"end_date"`
	Status            string           `json:"status"`
	Progress          ProgressDTO      `json:"progress"`
	Applications      []ApplicationDTO `json:"applications"`
	NotificationFlags map[string]bool  `json:"notification_flags"`
	CreatedAt         string           `json:"created_at"`
	UpdatedAt         string           `json:"updated_at"`
	CompletedAt       string           `json:"completed_at,omitempty"`
	CancelledAt       string           `json:"cancelled_at,omitempty"`
}

type CampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
}

type ListCampaignsResponse struct {
	Items []CampaignDTO `json:"items"`
}

type RefreshCampaignStatusResponse struct {
	Campaign        CampaignDTO `json:"campaign"`
	StatusChanged   bool        `json:"status_changed"`
	ProgressChanged bool        `json:"progress_changed"`
}

type EvaluateProgressResponse struct {
	CampaignID      string `json:"campaign_id"`
	ProgressChanged bool   `json:"progress_changed"`
}

type CreateInvitationRequest struct {
	InfluencerID string `json:"influencer_id" validate:"required,max=128"`
	Message      string `json:"message" validate:"max=2000"`
}

type RespondInvitationRequest struct {
	Response string `json:"response" validate:"required,oneof=accepted rejected"`
}

type InvitationDTO struct {
	InvitationID string `json:"invitation_id"`
	CampaignID   string `json:"campaign_id"`
	BrandID      string `json:"brand_id"`
	InfluencerID string `json:"influencer_id"`
	Message      string `json:"message,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	RespondedAt  string `json:"responded_at,omitempty"`
}

type InvitationResponse struct {
	Invitation InvitationDTO `json:"invitation"`
}

type ListInvitationsResponse struct {
	Items []InvitationDTO `json:"items"`
}

type ApplyRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

type ReviewApplicationRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
}

type ApplicationResponse struct {
	CampaignID  string         `json:"campaign_id"`
	Application ApplicationDTO `json:"application"`
}

type SubmitContentRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Platform    string `json:"platform" validate:"max=64"`
	ContentURL  string `json:"content_url" validate:"required,url"`
}

type ReviewContentRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

type ContentDTO struct {
	ContentID   string `json:"content_id"`
	CampaignID  string `json:"campaign_id"`
	CreatorID   string `json:"creator_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Platform    string `json:"platform,omitempty"`
	ContentURL  string `json:"content_url"`
	Status      string `json:"status"`
	Feedback    string `json:"feedback,omitempty"`
	ReviewedBy  string `json:"reviewed_by,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	SubmittedAt string `json:"submitted_at,omitempty"`
	ReviewedAt  string `json:"reviewed_at,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

type ContentResponse struct {
	Content ContentDTO `json:"content"`
}

type ListContentResponse struct {
	Items []ContentDTO `json:"items"`
}

type NotificationDTO struct {
	NotificationID string         `json:"notification_id"`
	RecipientID    string         `json:"recipient_id"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Data           map[string]any `json:"data,omitempty"`
	Read           bool           `json:"read"`
	CreatedAt      string         `json:"created_at"`
	ReadAt         string         `json:"read_at,omitempty"`
}

type NotificationResponse struct {
	Notification NotificationDTO `json:"notification"`
}

type ListNotificationsResponse struct {
	Items []NotificationDTO `json:"items"`
}

type InfluencerProfileResponse struct {
	InfluencerID       string   `json:"influencer_id"`
	InvitationIDs      []string `json:"invitation_ids"`
	CompletedCampaigns int      `json:"completed_campaigns"`
}

type BrandStatsResponse struct {
	BrandID            string `json:"brand_id"`
	TotalCampaigns     int    `json:"total_campaigns"`
	ActiveCampaigns    int    `json:"active_campaigns"`
	CompletedCampaigns int    `json:"completed_campaigns"`
}
