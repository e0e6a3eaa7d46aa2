package entities

import "time"

// InfluencerProfile holds the denormalized participation data kept on the
// influencer's record.
type InfluencerProfile struct {
	InfluencerID       string
	InvitationIDs      []string
	CompletedCampaigns int
	UpdatedAt          time.Time
}

type BrandStats struct {
	BrandID            string
	TotalCampaigns     int
	ActiveCampaigns    int
	CompletedCampaigns int
	UpdatedAt          time.Time
}

type BrandStatsDelta struct {
	TotalCampaigns     int
	ActiveCampaigns    int
	CompletedCampaigns int
}

func (d BrandStatsDelta) IsZero() bool {
	return d.TotalCampaigns == 0 && d.ActiveCampaigns == 0 && d.CompletedCampaigns == 0
}

func (s BrandStats) Apply(delta BrandStatsDelta) BrandStats {
	s.TotalCampaigns += delta.TotalCampaigns
	s.ActiveCampaigns += delta.ActiveCampaigns
	s.CompletedCampaigns += delta.CompletedCampaigns
	if s.ActiveCampaigns < 0 {
		s.ActiveCampaigns = 0
	}
	return s
}
