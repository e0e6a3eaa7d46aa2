package entities

import (
	"strings"
	"time"
)

type CampaignStatus string

const (
	CampaignStatusPending   CampaignStatus = "pending"
	CampaignStatusUpcoming  CampaignStatus = "upcoming"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusPending,
		CampaignStatusUpcoming,
		CampaignStatusActive,
		CampaignStatusCompleted,
		CampaignStatusCancelled:
		return true
	default:
		return false
	}
}

// IsSticky reports whether the status is terminal and must never be
// recomputed from the campaign dates.
func (s CampaignStatus) IsSticky() bool {
	return s == CampaignStatusCompleted || s == CampaignStatusCancelled
}

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	default:
		return false
	}
}

// Application is one influencer's participation entry on a campaign, created
// either by a direct application or by accepting an invitation.
type Application struct {
	InfluencerID string            `json:"influencer_id"`
	Status       ApplicationStatus `json:"status"`
	AppliedAt    time.Time         `json:"applied_at"`
	InvitationID string            `json:"invitation_id,omitempty"`
	Message      string            `json:"message,omitempty"`
	ReviewedAt   *time.Time        `json:"reviewed_at,omitempty"`
}

func (a Application) IsDirect() bool {
	return strings.TrimSpace(a.InvitationID) == ""
}

type NotificationFlag string

const (
	FlagAllInvitationsRejectedSent NotificationFlag = "allInvitationsRejectedSent"
)

type NotificationFlags map[NotificationFlag]bool

type Campaign struct {
	CampaignID        string
	BrandID           string
	Title             string
	Description       string
	Budget            float64
	StartDate         time.Time
	EndDate           time.Time
	Status            CampaignStatus
	Progress          Progress
	Applications      []Application
	NotificationFlags NotificationFlags
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
}

func (c Campaign) ValidateCreate() bool {
	title := strings.TrimSpace(c.Title)
	return strings.TrimSpace(c.BrandID) != "" &&
		len(title) >= 3 &&
		len(title) <= 120 &&
		len(strings.TrimSpace(c.Description)) <= 5000 &&
		c.Budget >= 0 &&
		!c.StartDate.IsZero() &&
		!c.EndDate.IsZero() &&
		c.EndDate.After(c.StartDate)
}

// Clone returns a deep copy so callers can mutate applications and flags
// without aliasing stored state.
func (c Campaign) Clone() Campaign {
	out := c
	out.Applications = append([]Application(nil), c.Applications...)
	for i := range out.Applications {
		out.Applications[i].ReviewedAt = cloneTime(c.Applications[i].ReviewedAt)
	}
	if c.NotificationFlags != nil {
		out.NotificationFlags = make(NotificationFlags, len(c.NotificationFlags))
		for key, value := range c.NotificationFlags {
			out.NotificationFlags[key] = value
		}
	}
	out.Progress = c.Progress.clone()
	out.CompletedAt = cloneTime(c.CompletedAt)
	out.CancelledAt = cloneTime(c.CancelledAt)
	return out
}

func (c Campaign) FlagSet(flag NotificationFlag) bool {
	return c.NotificationFlags[flag]
}

func (c *Campaign) SetFlag(flag NotificationFlag) {
	if c.NotificationFlags == nil {
		c.NotificationFlags = make(NotificationFlags)
	}
	c.NotificationFlags[flag] = true
}

// ApplicationIndex returns the position of the influencer's application entry.
func (c Campaign) ApplicationIndex(influencerID string) (int, bool) {
	influencerID = strings.TrimSpace(influencerID)
	for i, item := range c.Applications {
		if item.InfluencerID == influencerID {
			return i, true
		}
	}
	return -1, false
}

func (c Campaign) HasAcceptedApplication(influencerID string) bool {
	index, ok := c.ApplicationIndex(influencerID)
	return ok && c.Applications[index].Status == ApplicationStatusAccepted
}

// AcceptedInfluencers lists influencer ids with an accepted application in
// application order, without duplicates.
func (c Campaign) AcceptedInfluencers() []string {
	seen := make(map[string]struct{}, len(c.Applications))
	items := make([]string, 0, len(c.Applications))
	for _, item := range c.Applications {
		if item.Status != ApplicationStatusAccepted {
			continue
		}
		if _, ok := seen[item.InfluencerID]; ok {
			continue
		}
		seen[item.InfluencerID] = struct{}{}
		items = append(items, item.InfluencerID)
	}
	return items
}

// DeriveStatus computes the date-driven status. Sticky statuses are returned
// unchanged.
func DeriveStatus(current CampaignStatus, start time.Time, end time.Time, now time.Time) CampaignStatus {
	if current.IsSticky() {
		return current
	}
	switch {
	case start.IsZero() || end.IsZero():
		return CampaignStatusPending
	case now.Before(start):
		return CampaignStatusUpcoming
	case !now.After(end):
		return CampaignStatusActive
	default:
		return CampaignStatusPending
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
