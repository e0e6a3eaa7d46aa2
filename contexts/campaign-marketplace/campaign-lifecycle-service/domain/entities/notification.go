package entities

import "time"

type NotificationType string

const (
	NotificationCampaignInvitation     NotificationType = "CAMPAIGN_INVITATION"
	NotificationInvitationAccepted     NotificationType = "INVITATION_ACCEPTED"
	NotificationInvitationRejected     NotificationType = "INVITATION_REJECTED"
	NotificationAllInvitationsRejected NotificationType = "ALL_INVITATIONS_REJECTED"
	NotificationCampaignContentStage   NotificationType = "CAMPAIGN_CONTENT_STAGE"
	NotificationContentSubmitted       NotificationType = "CONTENT_SUBMITTED"
	NotificationContentApproved        NotificationType = "CONTENT_APPROVED"
	NotificationContentRejected        NotificationType = "CONTENT_REJECTED"
	NotificationCampaignApplication    NotificationType = "CAMPAIGN_APPLICATION"
	NotificationApplicationAccepted    NotificationType = "APPLICATION_ACCEPTED"
	NotificationApplicationRejected    NotificationType = "APPLICATION_REJECTED"
	NotificationCampaignCompleted      NotificationType = "CAMPAIGN_COMPLETED"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationCampaignInvitation,
		NotificationInvitationAccepted,
		NotificationInvitationRejected,
		NotificationAllInvitationsRejected,
		NotificationCampaignContentStage,
		NotificationContentSubmitted,
		NotificationContentApproved,
		NotificationContentRejected,
		NotificationCampaignApplication,
		NotificationApplicationAccepted,
		NotificationApplicationRejected,
		NotificationCampaignCompleted:
		return true
	default:
		return false
	}
}

// Notification is a persisted message for one recipient. A non-empty DedupKey
// is unique across all notifications and makes the insert at-most-once.
type Notification struct {
	NotificationID string
	RecipientID    string
	Type           NotificationType
	Title          string
	Message        string
	Data           map[string]any
	DedupKey       string
	Read           bool
	CreatedAt      time.Time
	ReadAt         *time.Time
}

// CampaignID returns the campaign reference carried in the payload, if any.
func (n Notification) CampaignID() string {
	value, _ := n.Data["campaign_id"].(string)
	return value
}

func (n Notification) Clone() Notification {
	out := n
	if n.Data != nil {
		out.Data = make(map[string]any, len(n.Data))
		for key, value := range n.Data {
			out.Data[key] = value
		}
	}
	out.ReadAt = cloneTime(n.ReadAt)
	return out
}
