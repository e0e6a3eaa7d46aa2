package services

import (
	"strconv"
	"time"

	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
)

// Snapshot is everything the engine reads for one campaign, loaded from a
// single transaction.
type Snapshot struct {
	Campaign    entities.Campaign
	Invitations []entities.Invitation
	Contents    []entities.Content
}

// InvitationStats counts responses across invitations and, when enabled,
// direct applications. Invitations is the invitation share of Total.
type InvitationStats struct {
	Total       int
	Invitations int
	Accepted    int
	Rejected    int
	Pending     int
}

func (s InvitationStats) AllResponded() bool {
	return s.Total > 0 && s.Pending == 0
}

type StageTransition struct {
	Stage entities.StageName
	From  entities.StageStatus
	To    entities.StageStatus
}

// Decision is the outcome of one evaluation. Campaign is the updated record;
// it must be persisted only when Changed is true.
type Decision struct {
	Campaign    entities.Campaign
	Changed     bool
	Repaired    bool
	Completed   bool
	Stats       InvitationStats
	Transitions []StageTransition
	Effects     []Effect
}

// ProgressEngine decides campaign stage transitions. It has no side effects:
// notifications and statistics updates come back as Decision.Effects.
type ProgressEngine struct {
	// CountDirectApplications makes direct (non-invited) applications count
	// toward invitation-stage statistics.
	CountDirectApplications bool
}

func (e ProgressEngine) Evaluate(snapshot Snapshot, now time.Time) Decision {
	now = now.UTC()
	campaign := snapshot.Campaign.Clone()
	decision := Decision{}

	stats := e.InvitationStats(campaign, snapshot.Invitations)
	decision.Stats = stats

	if !campaign.Progress.IsComplete() {
		campaign.Progress = repairProgress(campaign, stats)
		decision.Repaired = true
		decision.Changed = true
	}
	loaded := campaign.Progress

	advance := func(name entities.StageName, stage *entities.Stage, to entities.StageStatus) {
		from := stage.Status
		if stage.Advance(to, now) {
			decision.Changed = true
			decision.Transitions = append(decision.Transitions, StageTransition{Stage: name, From: from, To: to})
		}
	}

	if !campaign.Progress.Invitations.IsCompleted() {
		switch {
		case stats.AllResponded() && stats.Accepted > 0:
			advance(entities.StageInvitations, &campaign.Progress.Invitations, entities.StageStatusCompleted)
			advance(entities.StageContent, &campaign.Progress.Content, entities.StageStatusActive)
			for _, influencerID := range e.acceptedParticipants(campaign, snapshot.Invitations) {
				decision.Effects = append(decision.Effects, notifyEffect(contentStageNotification(campaign, influencerID)))
			}
		case stats.AllResponded() && stats.Accepted == 0:
			if !campaign.FlagSet(entities.FlagAllInvitationsRejectedSent) {
				decision.Effects = append(decision.Effects, notifyEffect(allRejectedNotification(campaign, stats)))
				campaign.SetFlag(entities.FlagAllInvitationsRejectedSent)
				decision.Changed = true
			}
		case stats.Total > 0:
			advance(entities.StageInvitations, &campaign.Progress.Invitations, entities.StageStatusActive)
		}
	}

	if campaign.Progress.Invitations.IsCompleted() {
		accepted := campaign.AcceptedInfluencers()
		latest := LatestSubmissionByCreator(snapshot.Contents)
		allSubmitted := len(accepted) > 0
		allApproved := len(accepted) > 0
		for _, influencerID := range accepted {
			item, ok := latest[influencerID]
			if !ok {
				allSubmitted = false
				allApproved = false
				continue
			}
			if !item.Status.CountsAsApproved() {
				allApproved = false
			}
		}

		switch {
		case allSubmitted && allApproved && !campaign.Progress.Content.IsCompleted():
			advance(entities.StageContent, &campaign.Progress.Content, entities.StageStatusCompleted)
			advance(entities.StageCompletion, &campaign.Progress.Completion, entities.StageStatusActive)
		case len(latest) > 0:
			advance(entities.StageContent, &campaign.Progress.Content, entities.StageStatusActive)
		}
	}

	isAfterEnd := !campaign.EndDate.IsZero() && now.After(campaign.EndDate)
	allStagesDone := loaded.Invitations.IsCompleted() && loaded.Content.IsCompleted()
	if (isAfterEnd || allStagesDone) &&
		!campaign.Progress.Completion.IsCompleted() &&
		campaign.Status != entities.CampaignStatusCompleted &&
		campaign.Status != entities.CampaignStatusCancelled {
		advance(entities.StageCompletion, &campaign.Progress.Completion, entities.StageStatusCompleted)
		completedAt := now
		campaign.Status = entities.CampaignStatusCompleted
		campaign.CompletedAt = &completedAt
		decision.Completed = true
		decision.Changed = true

		reason := "all_stages_completed"
		if !allStagesDone {
			reason = "end_date_passed"
		}
		for _, influencerID := range campaign.AcceptedInfluencers() {
			decision.Effects = append(decision.Effects,
				influencerCompletedEffect(influencerID),
				notifyEffect(campaignCompletedNotification(campaign, influencerID, reason)),
			)
		}
		decision.Effects = append(decision.Effects, brandStatsEffect(campaign.BrandID, entities.BrandStatsDelta{
			ActiveCampaigns:    -1,
			CompletedCampaigns: 1,
		}))
	}

	decision.Campaign = campaign
	return decision
}

// InvitationStats counts invitation outcomes for the campaign. When direct
// applications are counted, entries that did not come from an invitation are
// folded in with the matching status.
func (e ProgressEngine) InvitationStats(campaign entities.Campaign, invitations []entities.Invitation) InvitationStats {
	stats := InvitationStats{}
	for _, item := range invitations {
		if item.CampaignID != campaign.CampaignID {
			continue
		}
		stats.Total++
		stats.Invitations++
		switch item.Status {
		case entities.InvitationStatusAccepted:
			stats.Accepted++
		case entities.InvitationStatusRejected:
			stats.Rejected++
		case entities.InvitationStatusPending:
			stats.Pending++
		}
	}
	if !e.CountDirectApplications {
		return stats
	}
	for _, item := range campaign.Applications {
		if !item.IsDirect() {
			continue
		}
		stats.Total++
		switch item.Status {
		case entities.ApplicationStatusAccepted:
			stats.Accepted++
		case entities.ApplicationStatusRejected:
			stats.Rejected++
		case entities.ApplicationStatusPending:
			stats.Pending++
		}
	}
	return stats
}

// LatestSubmissionByCreator keeps the most recently created submission per
// creator. Drafts are not submissions. Ties keep the later record in input
// order.
func LatestSubmissionByCreator(contents []entities.Content) map[string]entities.Content {
	latest := make(map[string]entities.Content, len(contents))
	for _, item := range contents {
		if !item.Status.IsSubmission() {
			continue
		}
		current, ok := latest[item.CreatorID]
		if !ok || !item.CreatedAt.Before(current.CreatedAt) {
			latest[item.CreatorID] = item
		}
	}
	return latest
}

func (e ProgressEngine) acceptedParticipants(campaign entities.Campaign, invitations []entities.Invitation) []string {
	seen := make(map[string]struct{})
	items := make([]string, 0)
	add := func(influencerID string) {
		if _, ok := seen[influencerID]; ok {
			return
		}
		seen[influencerID] = struct{}{}
		items = append(items, influencerID)
	}
	for _, item := range invitations {
		if item.CampaignID == campaign.CampaignID && item.Status == entities.InvitationStatusAccepted {
			add(item.InfluencerID)
		}
	}
	if e.CountDirectApplications {
		for _, item := range campaign.Applications {
			if item.IsDirect() && item.Status == entities.ApplicationStatusAccepted {
				add(item.InfluencerID)
			}
		}
	}
	return items
}

// repairProgress fills in only the stages with an unknown status. Valid
// stages keep their status and completion time. A missing stage that a later
// stage has already moved past is restored as completed, without a time.
func repairProgress(campaign entities.Campaign, stats InvitationStats) entities.Progress {
	progress := campaign.Progress
	defaults := entities.NewProgress(campaign.CreatedAt)
	startedLater := func(stages ...entities.Stage) bool {
		for _, stage := range stages {
			if stage.Status.Valid() && stage.Status != entities.StageStatusPending {
				return true
			}
		}
		return false
	}

	if !progress.Completion.Status.Valid() {
		progress.Completion = defaults.Completion
	}
	if !progress.Content.Status.Valid() {
		progress.Content = defaults.Content
		if startedLater(progress.Completion) {
			progress.Content = entities.Stage{Status: entities.StageStatusCompleted}
		}
	}
	if !progress.Invitations.Status.Valid() {
		switch {
		case startedLater(progress.Content, progress.Completion):
			progress.Invitations = entities.Stage{Status: entities.StageStatusCompleted}
		case stats.Total > 0:
			progress.Invitations = entities.Stage{Status: entities.StageStatusActive}
		default:
			progress.Invitations = defaults.Invitations
		}
	}
	if !progress.Creation.Status.Valid() {
		progress.Creation = defaults.Creation
	}
	return progress
}

func contentStageNotification(campaign entities.Campaign, influencerID string) entities.Notification {
	return entities.Notification{
		RecipientID: influencerID,
		Type:        entities.NotificationCampaignContentStage,
		Title:       "Content stage started",
		Message:     "The content stage for \"" + campaign.Title + "\" has started. You can now submit your content.",
		Data: map[string]any{
			"campaign_id":    campaign.CampaignID,
			"campaign_title": campaign.Title,
			"stage":          string(entities.StageContent),
		},
		DedupKey: DedupKey(campaign.CampaignID, entities.NotificationCampaignContentStage, influencerID),
	}
}

func allRejectedNotification(campaign entities.Campaign, stats InvitationStats) entities.Notification {
	return entities.Notification{
		RecipientID: campaign.BrandID,
		Type:        entities.NotificationAllInvitationsRejected,
		Title:       "All invitations rejected",
		Message:     allRejectedMessage(campaign.Title, stats),
		Data: map[string]any{
			"campaign_id":        campaign.CampaignID,
			"campaign_title":     campaign.Title,
			"total_invitations":  stats.Invitations,
			"total_applications": stats.Total - stats.Invitations,
			"rejected":           stats.Rejected,
		},
		DedupKey: DedupKey(campaign.CampaignID, entities.NotificationAllInvitationsRejected),
	}
}

func allRejectedMessage(title string, stats InvitationStats) string {
	applications := stats.Total - stats.Invitations
	var subject string
	switch {
	case applications == 0:
		subject = strconv.Itoa(stats.Invitations) + " invitations"
	case stats.Invitations == 0:
		subject = strconv.Itoa(applications) + " applications"
	default:
		subject = strconv.Itoa(stats.Invitations) + " invitations and " + strconv.Itoa(applications) + " applications"
	}
	return "All " + subject + " for \"" + title + "\" were rejected. Invite more influencers to continue the campaign."
}

func campaignCompletedNotification(campaign entities.Campaign, influencerID string, reason string) entities.Notification {
	return entities.Notification{
		RecipientID: influencerID,
		Type:        entities.NotificationCampaignCompleted,
		Title:       "Campaign completed",
		Message:     "The campaign \"" + campaign.Title + "\" has been completed.",
		Data: map[string]any{
			"campaign_id":    campaign.CampaignID,
			"campaign_title": campaign.Title,
			"reason":         reason,
		},
		DedupKey: DedupKey(campaign.CampaignID, entities.NotificationCampaignCompleted, influencerID),
	}
}
