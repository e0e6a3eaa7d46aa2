package entities

import (
	"net/url"
	"strings"
	"time"
)

type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusSubmitted ContentStatus = "submitted"
	ContentStatusApproved  ContentStatus = "approved"
	ContentStatusRejected  ContentStatus = "rejected"
	ContentStatusPublished ContentStatus = "published"
)

func (s ContentStatus) Valid() bool {
	switch s {
	case ContentStatusDraft,
		ContentStatusSubmitted,
		ContentStatusApproved,
		ContentStatusRejected,
		ContentStatusPublished:
		return true
	default:
		return false
	}
}

// CountsAsApproved is true for approved content and for approved content that
// has since been published.
func (s ContentStatus) CountsAsApproved() bool {
	return s == ContentStatusApproved || s == ContentStatusPublished
}

// IsSubmission reports whether the record is a real submission; drafts are
// ignored by progress evaluation.
func (s ContentStatus) IsSubmission() bool {
	return s.Valid() && s != ContentStatusDraft
}

// IsReviewDecision reports whether the status is a valid brand review outcome.
func (s ContentStatus) IsReviewDecision() bool {
	return s == ContentStatusApproved || s == ContentStatusRejected
}

type Content struct {
	ContentID   string
	CampaignID  string
	CreatorID   string
	Title       string
	Description string
	Platform    string
	ContentURL  string
	Status      ContentStatus
	Feedback    string
	ReviewedBy  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt *time.Time
	ReviewedAt  *time.Time
	PublishedAt *time.Time
}

func (c Content) ValidateCreate() bool {
	if strings.TrimSpace(c.CampaignID) == "" ||
		strings.TrimSpace(c.CreatorID) == "" ||
		strings.TrimSpace(c.Title) == "" ||
		len(c.Title) > 200 ||
		len(c.Description) > 5000 {
		return false
	}
	parsed, err := url.Parse(strings.TrimSpace(c.ContentURL))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
