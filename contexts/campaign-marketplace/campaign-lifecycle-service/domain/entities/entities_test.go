package entities

import (
	"testing"
	"time"
)

func TestStageAdvanceIsForwardOnly(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stage := Stage{Status: StageStatusPending}

	if !stage.Advance(StageStatusActive, at) {
		t.Fatalf("expected pending -> active to advance")
	}
	if stage.CompletedAt != nil {
		t.Fatalf("expected no completion time on active stage")
	}
	if stage.Advance(StageStatusActive, at) {
		t.Fatalf("expected same-status advance to be ignored")
	}
	if !stage.Advance(StageStatusCompleted, at) {
		t.Fatalf("expected active -> completed to advance")
	}
	if stage.CompletedAt == nil || !stage.CompletedAt.Equal(at) {
		t.Fatalf("expected completion time %s, got %v", at, stage.CompletedAt)
	}
	for _, target := range []StageStatus{StageStatusPending, StageStatusActive, "bogus"} {
		if stage.Advance(target, at.Add(time.Hour)) {
			t.Fatalf("expected completed stage to ignore %q", target)
		}
	}
	if stage.Status != StageStatusCompleted {
		t.Fatalf("expected completed stage, got %s", stage.Status)
	}
}

func TestProgressIsCompleteDetectsMissingStages(t *testing.T) {
	progress := NewProgress(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if !progress.IsComplete() {
		t.Fatalf("expected fresh progress to be complete")
	}
	if !progress.Creation.IsCompleted() {
		t.Fatalf("expected creation stage completed")
	}

	var legacy Progress
	if legacy.IsComplete() {
		t.Fatalf("expected zero progress to be incomplete")
	}
	progress.Content.Status = ""
	if progress.IsComplete() {
		t.Fatalf("expected progress with blank content stage to be incomplete")
	}
}

func TestProgressNotBehind(t *testing.T) {
	previous := NewProgress(time.Now())
	previous.Invitations.Status = StageStatusCompleted

	next := previous.clone()
	next.Content.Status = StageStatusActive
	if !next.NotBehind(previous) {
		t.Fatalf("expected forward progress to be not behind")
	}
	next.Invitations.Status = StageStatusActive
	if next.NotBehind(previous) {
		t.Fatalf("expected regressed invitations stage to be behind")
	}
}

func TestDeriveStatus(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		current CampaignStatus
		now     time.Time
		want    CampaignStatus
	}{
		{name: "before start", now: start.Add(-time.Hour), want: CampaignStatusUpcoming},
		{name: "at start", now: start, want: CampaignStatusActive},
		{name: "at end", now: end, want: CampaignStatusActive},
		{name: "after end", now: end.Add(time.Second), want: CampaignStatusPending},
		{name: "completed sticks", current: CampaignStatusCompleted, now: start.Add(-time.Hour), want: CampaignStatusCompleted},
		{name: "cancelled sticks", current: CampaignStatusCancelled, now: start.Add(time.Hour), want: CampaignStatusCancelled},
	}
	for _, tc := range cases {
		if got := DeriveStatus(tc.current, start, end, tc.now); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
	if got := DeriveStatus("", time.Time{}, end, start); got != CampaignStatusPending {
		t.Fatalf("expected pending without start date, got %s", got)
	}
}

func TestCampaignValidateCreate(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	valid := Campaign{
		BrandID:   "brand-1",
		Title:     "Spring launch",
		Budget:    500,
		StartDate: start,
		EndDate:   start.Add(24 * time.Hour),
	}
	if !valid.ValidateCreate() {
		t.Fatalf("expected valid campaign")
	}

	shortTitle := valid
	shortTitle.Title = "ab"
	if shortTitle.ValidateCreate() {
		t.Fatalf("expected short title to be rejected")
	}
	reversed := valid
	reversed.EndDate = start.Add(-time.Hour)
	if reversed.ValidateCreate() {
		t.Fatalf("expected end before start to be rejected")
	}
	negative := valid
	negative.Budget = -1
	if negative.ValidateCreate() {
		t.Fatalf("expected negative budget to be rejected")
	}
}

func TestCampaignCloneDoesNotAlias(t *testing.T) {
	reviewedAt := time.Now().UTC()
	original := Campaign{
		CampaignID: "campaign-1",
		Progress:   NewProgress(time.Now()),
		Applications: []Application{
			{InfluencerID: "inf-1", Status: ApplicationStatusPending, ReviewedAt: &reviewedAt},
		},
		NotificationFlags: NotificationFlags{},
	}

	copied := original.Clone()
	copied.Applications[0].Status = ApplicationStatusAccepted
	copied.SetFlag(FlagAllInvitationsRejectedSent)
	copied.Progress.Invitations.Status = StageStatusCompleted

	if original.Applications[0].Status != ApplicationStatusPending {
		t.Fatalf("expected original application untouched")
	}
	if original.FlagSet(FlagAllInvitationsRejectedSent) {
		t.Fatalf("expected original flags untouched")
	}
	if original.Progress.Invitations.Status != StageStatusPending {
		t.Fatalf("expected original progress untouched")
	}
	if copied.Applications[0].ReviewedAt == original.Applications[0].ReviewedAt {
		t.Fatalf("expected reviewed_at pointer to be copied")
	}
}

func TestAcceptedInfluencersSkipsDuplicatesAndPending(t *testing.T) {
	campaign := Campaign{Applications: []Application{
		{InfluencerID: "inf-1", Status: ApplicationStatusAccepted},
		{InfluencerID: "inf-2", Status: ApplicationStatusPending},
		{InfluencerID: "inf-3", Status: ApplicationStatusAccepted, InvitationID: "inv-3"},
		{InfluencerID: "inf-1", Status: ApplicationStatusAccepted},
	}}
	got := campaign.AcceptedInfluencers()
	if len(got) != 2 || got[0] != "inf-1" || got[1] != "inf-3" {
		t.Fatalf("expected [inf-1 inf-3], got %v", got)
	}
	if !campaign.HasAcceptedApplication("inf-3") {
		t.Fatalf("expected inf-3 to be accepted")
	}
	if campaign.HasAcceptedApplication("inf-2") {
		t.Fatalf("expected inf-2 not to be accepted")
	}
	if !campaign.Applications[0].IsDirect() || campaign.Applications[2].IsDirect() {
		t.Fatalf("expected direct flag to follow invitation id")
	}
}

func TestContentStatusRules(t *testing.T) {
	if ContentStatusDraft.IsSubmission() {
		t.Fatalf("expected draft not to count as submission")
	}
	if !ContentStatusPublished.CountsAsApproved() {
		t.Fatalf("expected published content to count as approved")
	}
	if ContentStatusRejected.CountsAsApproved() {
		t.Fatalf("expected rejected content not to count as approved")
	}
	if ContentStatusPublished.IsReviewDecision() {
		t.Fatalf("expected published not to be a review decision")
	}
	if ContentStatus("archived").Valid() {
		t.Fatalf("expected unknown content status to be invalid")
	}
}

func TestContentValidateCreateRequiresHTTPURL(t *testing.T) {
	content := Content{
		CampaignID: "campaign-1",
		CreatorID:  "inf-1",
		Title:      "Unboxing",
		ContentURL: "https://video.example.com/v/1",
	}
	if !content.ValidateCreate() {
		t.Fatalf("expected https content url to be valid")
	}
	content.ContentURL = "ftp://video.example.com/v/1"
	if content.ValidateCreate() {
		t.Fatalf("expected ftp url to be rejected")
	}
	content.ContentURL = "not a url"
	if content.ValidateCreate() {
		t.Fatalf("expected malformed url to be rejected")
	}
}

func TestBrandStatsApplyClampsActive(t *testing.T) {
	stats := BrandStats{BrandID: "brand-1", TotalCampaigns: 1, ActiveCampaigns: 0}
	stats = stats.Apply(BrandStatsDelta{ActiveCampaigns: -1, CompletedCampaigns: 1})
	if stats.ActiveCampaigns != 0 {
		t.Fatalf("expected active campaigns clamped at 0, got %d", stats.ActiveCampaigns)
	}
	if stats.CompletedCampaigns != 1 || stats.TotalCampaigns != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !(BrandStatsDelta{}).IsZero() {
		t.Fatalf("expected empty delta to be zero")
	}
}

func TestNotificationCampaignIDAndTypes(t *testing.T) {
	notification := Notification{
		Type: NotificationCampaignCompleted,
		Data: map[string]any{"campaign_id": "campaign-9"},
	}
	if notification.CampaignID() != "campaign-9" {
		t.Fatalf("expected campaign id from payload, got %q", notification.CampaignID())
	}
	if (Notification{}).CampaignID() != "" {
		t.Fatalf("expected empty campaign id without payload")
	}
	if NotificationType("INVITATION_RESPONSE").Valid() {
		t.Fatalf("expected unknown notification type to be invalid")
	}
	if !InvitationStatusRejected.IsResponse() || InvitationStatusPending.IsResponse() {
		t.Fatalf("unexpected invitation response classification")
	}
}
