package entities

import (
	"strings"
	"time"
)

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusRejected InvitationStatus = "rejected"
)

func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationStatusPending, InvitationStatusAccepted, InvitationStatusRejected:
		return true
	default:
		return false
	}
}

// IsResponse reports whether the status is a valid influencer answer.
func (s InvitationStatus) IsResponse() bool {
	return s == InvitationStatusAccepted || s == InvitationStatusRejected
}

type Invitation struct {
	InvitationID string
	CampaignID   string
	BrandID      string
	InfluencerID string
	Message      string
	Status       InvitationStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	RespondedAt  *time.Time
}

func (i Invitation) ValidateCreate() bool {
	return strings.TrimSpace(i.CampaignID) != "" &&
		strings.TrimSpace(i.BrandID) != "" &&
		strings.TrimSpace(i.InfluencerID) != "" &&
		len(i.Message) <= 2000
}
