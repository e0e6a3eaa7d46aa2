package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
	domainerrors "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/errors"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

var storeNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func seedCampaign(id string, endDate time.Time) entities.Campaign {
	return entities.Campaign{
		CampaignID: id,
		BrandID:    "brand-1",
		Title:      "Campaign " + id,
		StartDate:  storeNow.AddDate(0, -1, 0),
		EndDate:    endDate,
		Status:     entities.CampaignStatusActive,
		Progress:   entities.NewProgress(storeNow.AddDate(0, -1, 0)),
		CreatedAt:  storeNow.AddDate(0, -1, 0),
	}
}

func TestStoreRollsBackFailedTransaction(t *testing.T) {
	store := NewStore([]entities.Campaign{seedCampaign("campaign-1", storeNow.AddDate(0, 1, 0))})
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTransaction(ctx, func(ctx context.Context, tx ports.Store) error {
		campaign, err := tx.GetCampaignForUpdate(ctx, "campaign-1")
		if err != nil {
			return err
		}
		campaign.Status = entities.CampaignStatusCancelled
		if err := tx.SaveCampaign(ctx, campaign); err != nil {
			return err
		}
		if _, err := tx.InsertNotification(ctx, entities.Notification{
			NotificationID: "n-1",
			RecipientID:    "brand-1",
			Type:           entities.NotificationCampaignCompleted,
		}); err != nil {
			return err
		}
		if err := tx.IncrementBrandStats(ctx, "brand-1", entities.BrandStatsDelta{CompletedCampaigns: 1}, storeNow); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transaction error, got %v", err)
	}

	campaign, err := store.GetCampaign(ctx, "campaign-1")
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if campaign.Status != entities.CampaignStatusActive {
		t.Fatalf("expected status rollback, got %s", campaign.Status)
	}
	if _, err := store.GetNotification(ctx, "n-1"); !errors.Is(err, domainerrors.ErrNotificationNotFound) {
		t.Fatalf("expected notification rollback, got %v", err)
	}
	stats, err := store.GetBrandStats(ctx, "brand-1")
	if err != nil {
		t.Fatalf("get brand stats failed: %v", err)
	}
	if stats.CompletedCampaigns != 0 {
		t.Fatalf("expected brand stats rollback, got %+v", stats)
	}
}

func TestStoreNotificationDedupKeyIsUnique(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	notification := entities.Notification{
		NotificationID: "n-1",
		RecipientID:    "brand-1",
		Type:           entities.NotificationAllInvitationsRejected,
		DedupKey:       "campaign/campaign-1/ALL_INVITATIONS_REJECTED",
	}

	inserted, err := store.InsertNotification(ctx, notification)
	if err != nil || !inserted {
		t.Fatalf("expected first insert, got inserted=%v err=%v", inserted, err)
	}
	notification.NotificationID = "n-2"
	inserted, err = store.InsertNotification(ctx, notification)
	if err != nil {
		t.Fatalf("duplicate insert failed: %v", err)
	}
	if inserted {
		t.Fatalf("expected duplicate dedup key to be skipped")
	}

	plain := entities.Notification{NotificationID: "n-3", RecipientID: "brand-1", Type: entities.NotificationInvitationRejected}
	if inserted, err := store.InsertNotification(ctx, plain); err != nil || !inserted {
		t.Fatalf("expected notification without dedup key to insert, got inserted=%v err=%v", inserted, err)
	}
	plain.NotificationID = "n-4"
	if inserted, err := store.InsertNotification(ctx, plain); err != nil || !inserted {
		t.Fatalf("expected second keyless notification to insert, got inserted=%v err=%v", inserted, err)
	}

	items, err := store.ListNotifications(ctx, ports.NotificationFilter{RecipientID: "brand-1"})
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(items))
	}
}

func TestStoreRejectsSecondPendingInvitation(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	first := entities.Invitation{InvitationID: "inv-1", CampaignID: "campaign-1", InfluencerID: "inf-1", Status: entities.InvitationStatusPending}
	if err := store.CreateInvitation(ctx, first); err != nil {
		t.Fatalf("create invitation failed: %v", err)
	}
	second := first
	second.InvitationID = "inv-2"
	if err := store.CreateInvitation(ctx, second); !errors.Is(err, domainerrors.ErrDuplicateInvitation) {
		t.Fatalf("expected duplicate invitation error, got %v", err)
	}

	first.Status = entities.InvitationStatusRejected
	if err := store.UpdateInvitation(ctx, first); err != nil {
		t.Fatalf("update invitation failed: %v", err)
	}
	if err := store.CreateInvitation(ctx, second); err != nil {
		t.Fatalf("expected new pending invitation after rejection, got %v", err)
	}
	if _, found, err := store.FindPendingInvitation(ctx, "campaign-1", "inf-1"); err != nil || !found {
		t.Fatalf("expected pending invitation to be found, got found=%v err=%v", found, err)
	}
}

func TestStoreListCampaignsDueForSweep(t *testing.T) {
	expired := seedCampaign("campaign-expired", storeNow.Add(-time.Hour))
	waiting := seedCampaign("campaign-waiting", storeNow.AddDate(0, 1, 0))
	waiting.Progress.Completion.Status = entities.StageStatusActive
	running := seedCampaign("campaign-running", storeNow.AddDate(0, 1, 0))
	cancelled := seedCampaign("campaign-cancelled", storeNow.Add(-time.Hour))
	cancelled.Status = entities.CampaignStatusCancelled
	starting := seedCampaign("campaign-starting", storeNow.AddDate(0, 2, 0))
	starting.Status = entities.CampaignStatusUpcoming
	starting.StartDate = storeNow
	upcoming := seedCampaign("campaign-upcoming", storeNow.AddDate(0, 2, 0))
	upcoming.Status = entities.CampaignStatusUpcoming
	upcoming.StartDate = storeNow.Add(time.Hour)
	store := NewStore([]entities.Campaign{expired, waiting, running, cancelled, starting, upcoming})

	ids, err := store.ListCampaignsDueForSweep(context.Background(), storeNow, 10)
	if err != nil {
		t.Fatalf("list due campaigns failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != "campaign-expired" || ids[1] != "campaign-waiting" || ids[2] != "campaign-starting" {
		t.Fatalf("expected [campaign-expired campaign-waiting campaign-starting], got %v", ids)
	}

	limited, err := store.ListCampaignsDueForSweep(context.Background(), storeNow, 1)
	if err != nil {
		t.Fatalf("list due campaigns failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %v", limited)
	}
}

func TestStoreOutboxAndEventReservation(t *testing.T) {
	store := NewStore(nil)
	store.SetNow(storeNow)
	ctx := context.Background()

	if err := store.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:    "evt-1",
		EventType:  "notification.created",
		OccurredAt: storeNow,
		Data:       []byte(`{"recipient_id":"inf-1"}`),
	}); err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-1" {
		t.Fatalf("expected one pending row, got %+v", pending)
	}
	if err := store.MarkOutboxPublished(ctx, "evt-1", storeNow); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	if pending, _ := store.ListPendingOutbox(ctx, 10); len(pending) != 0 {
		t.Fatalf("expected no pending rows after publish, got %d", len(pending))
	}

	processed, err := store.ReserveEvent(ctx, "evt-1", "hash", storeNow.Add(time.Hour))
	if err != nil || processed {
		t.Fatalf("expected first reservation, got processed=%v err=%v", processed, err)
	}
	processed, err = store.ReserveEvent(ctx, "evt-1", "hash", storeNow.Add(time.Hour))
	if err != nil || !processed {
		t.Fatalf("expected replay to be detected, got processed=%v err=%v", processed, err)
	}
	store.SetNow(storeNow.Add(2 * time.Hour))
	processed, err = store.ReserveEvent(ctx, "evt-1", "hash", storeNow.Add(3*time.Hour))
	if err != nil || processed {
		t.Fatalf("expected expired reservation to be renewed, got processed=%v err=%v", processed, err)
	}
	if err := store.ReleaseEvent(ctx, "evt-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	processed, err = store.ReserveEvent(ctx, "evt-1", "hash", storeNow.Add(3*time.Hour))
	if err != nil || processed {
		t.Fatalf("expected released reservation to be taken again, got processed=%v err=%v", processed, err)
	}
}

func TestStoreStatisticsCounters(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	if err := store.AppendInfluencerInvitation(ctx, "inf-1", "inv-1", storeNow); err != nil {
		t.Fatalf("append invitation ref failed: %v", err)
	}
	if err := store.IncrementInfluencerCompletedCampaigns(ctx, "inf-1", storeNow); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	profile, err := store.GetInfluencerProfile(ctx, "inf-1")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if len(profile.InvitationIDs) != 1 || profile.CompletedCampaigns != 1 {
		t.Fatalf("unexpected profile %+v", profile)
	}

	empty, err := store.GetInfluencerProfile(ctx, "inf-unknown")
	if err != nil {
		t.Fatalf("get empty profile failed: %v", err)
	}
	if empty.InfluencerID != "inf-unknown" || empty.InvitationIDs == nil || empty.CompletedCampaigns != 0 {
		t.Fatalf("expected zero profile, got %+v", empty)
	}

	if err := store.IncrementBrandStats(ctx, "brand-1", entities.BrandStatsDelta{ActiveCampaigns: -1}, storeNow); err != nil {
		t.Fatalf("increment brand stats failed: %v", err)
	}
	stats, err := store.GetBrandStats(ctx, "brand-1")
	if err != nil {
		t.Fatalf("get brand stats failed: %v", err)
	}
	if stats.ActiveCampaigns != 0 {
		t.Fatalf("expected active campaigns clamped at 0, got %d", stats.ActiveCampaigns)
	}
}
