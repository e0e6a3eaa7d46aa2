package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
	domainerrors "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/errors"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"

	"github.com/google/uuid"
)

// Store is a transactional in-memory record store. Every write runs against a
// private copy of the committed state which replaces it on success, so a
// failed unit of work leaves nothing behind. Transactions are serialized.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	committed *state
	now       *time.Time
}

func NewStore(seed []entities.Campaign) *Store {
	initial := newState()
	for _, item := range seed {
		campaign := item.Clone()
		initial.campaigns[campaign.CampaignID] = campaign
	}
	return &Store{committed: initial}
}

// SetNow pins the store clock. A zero time restores the wall clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.IsZero() {
		s.now = nil
		return
	}
	pinned := now.UTC()
	s.now = &pinned
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now != nil {
		return *s.now
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	working := s.snapshot().clone()
	if err := fn(ctx, working); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = working
	s.mu.Unlock()
	return nil
}

// snapshot returns the committed state. Committed states are never mutated,
// so callers may read it without holding the lock.
func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed
}

func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	return s.WithinTransaction(ctx, func(_ context.Context, store ports.Store) error {
		return fn(store.(*state))
	})
}

func (s *Store) CreateCampaign(ctx context.Context, campaign entities.Campaign) error {
	return s.write(ctx, func(st *state) error { return st.CreateCampaign(ctx, campaign) })
}

func (s *Store) SaveCampaign(ctx context.Context, campaign entities.Campaign) error {
	return s.write(ctx, func(st *state) error { return st.SaveCampaign(ctx, campaign) })
}

func (s *Store) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return s.snapshot().GetCampaign(ctx, campaignID)
}

func (s *Store) GetCampaignForUpdate(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return s.snapshot().GetCampaignForUpdate(ctx, campaignID)
}

func (s *Store) ListCampaigns(ctx context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	return s.snapshot().ListCampaigns(ctx, filter)
}

func (s *Store) ListCampaignsDueForSweep(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return s.snapshot().ListCampaignsDueForSweep(ctx, now, limit)
}

func (s *Store) CreateInvitation(ctx context.Context, invitation entities.Invitation) error {
	return s.write(ctx, func(st *state) error { return st.CreateInvitation(ctx, invitation) })
}

func (s *Store) UpdateInvitation(ctx context.Context, invitation entities.Invitation) error {
	return s.write(ctx, func(st *state) error { return st.UpdateInvitation(ctx, invitation) })
}

func (s *Store) DeleteInvitation(ctx context.Context, invitationID string) error {
	return s.write(ctx, func(st *state) error { return st.DeleteInvitation(ctx, invitationID) })
}

func (s *Store) GetInvitation(ctx context.Context, invitationID string) (entities.Invitation, error) {
	return s.snapshot().GetInvitation(ctx, invitationID)
}

func (s *Store) FindPendingInvitation(ctx context.Context, campaignID string, influencerID string) (entities.Invitation, bool, error) {
	return s.snapshot().FindPendingInvitation(ctx, campaignID, influencerID)
}

func (s *Store) ListInvitationsByCampaign(ctx context.Context, campaignID string) ([]entities.Invitation, error) {
	return s.snapshot().ListInvitationsByCampaign(ctx, campaignID)
}

func (s *Store) ListInvitationsByInfluencer(ctx context.Context, influencerID string) ([]entities.Invitation, error) {
	return s.snapshot().ListInvitationsByInfluencer(ctx, influencerID)
}

func (s *Store) CreateContent(ctx context.Context, content entities.Content) error {
	return s.write(ctx, func(st *state) error { return st.CreateContent(ctx, content) })
}

func (s *Store) UpdateContent(ctx context.Context, content entities.Content) error {
	return s.write(ctx, func(st *state) error { return st.UpdateContent(ctx, content) })
}

func (s *Store) GetContent(ctx context.Context, contentID string) (entities.Content, error) {
	return s.snapshot().GetContent(ctx, contentID)
}

func (s *Store) ListContentByCampaign(ctx context.Context, campaignID string) ([]entities.Content, error) {
	return s.snapshot().ListContentByCampaign(ctx, campaignID)
}

func (s *Store) InsertNotification(ctx context.Context, notification entities.Notification) (bool, error) {
	inserted := false
	err := s.write(ctx, func(st *state) error {
		var err error
		inserted, err = st.InsertNotification(ctx, notification)
		return err
	})
	return inserted, err
}

func (s *Store) GetNotification(ctx context.Context, notificationID string) (entities.Notification, error) {
	return s.snapshot().GetNotification(ctx, notificationID)
}

func (s *Store) MarkNotificationRead(ctx context.Context, notificationID string, readAt time.Time) error {
	return s.write(ctx, func(st *state) error { return st.MarkNotificationRead(ctx, notificationID, readAt) })
}

func (s *Store) ListNotifications(ctx context.Context, filter ports.NotificationFilter) ([]entities.Notification, error) {
	return s.snapshot().ListNotifications(ctx, filter)
}

func (s *Store) AppendInfluencerInvitation(ctx context.Context, influencerID string, invitationID string, at time.Time) error {
	return s.write(ctx, func(st *state) error { return st.AppendInfluencerInvitation(ctx, influencerID, invitationID, at) })
}

func (s *Store) IncrementInfluencerCompletedCampaigns(ctx context.Context, influencerID string, at time.Time) error {
	return s.write(ctx, func(st *state) error { return st.IncrementInfluencerCompletedCampaigns(ctx, influencerID, at) })
}

func (s *Store) GetInfluencerProfile(ctx context.Context, influencerID string) (entities.InfluencerProfile, error) {
	return s.snapshot().GetInfluencerProfile(ctx, influencerID)
}

func (s *Store) IncrementBrandStats(ctx context.Context, brandID string, delta entities.BrandStatsDelta, at time.Time) error {
	return s.write(ctx, func(st *state) error { return st.IncrementBrandStats(ctx, brandID, delta, at) })
}

func (s *Store) GetBrandStats(ctx context.Context, brandID string) (entities.BrandStats, error) {
	return s.snapshot().GetBrandStats(ctx, brandID)
}

func (s *Store) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	return s.write(ctx, func(st *state) error { return st.AppendOutbox(ctx, envelope) })
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	st := s.snapshot()
	items := make([]ports.OutboxMessage, 0)
	for _, record := range st.outbox {
		if record.publishedAt != nil {
			continue
		}
		items = append(items, record.message)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	return s.write(ctx, func(st *state) error {
		for i := range st.outbox {
			if st.outbox[i].message.OutboxID != outboxID {
				continue
			}
			at := publishedAt.UTC()
			st.outbox[i].publishedAt = &at
			return nil
		}
		return nil
	})
}

func (s *Store) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	now := s.Now()
	alreadyProcessed := false
	err := s.write(ctx, func(st *state) error {
		if existing, ok := st.events[eventID]; ok && existing.expiresAt.After(now) {
			alreadyProcessed = true
			return nil
		}
		st.events[eventID] = eventReservation{payloadHash: payloadHash, expiresAt: expiresAt.UTC()}
		return nil
	})
	return alreadyProcessed, err
}

func (s *Store) ReleaseEvent(ctx context.Context, eventID string) error {
	return s.write(ctx, func(st *state) error {
		delete(st.events, eventID)
		return nil
	})
}

type outboxRecord struct {
	message     ports.OutboxMessage
	publishedAt *time.Time
}

type eventReservation struct {
	payloadHash string
	expiresAt   time.Time
}

// state implements ports.Store over plain maps. Values stored in the maps are
// never mutated in place; writers replace them, so a shallow map copy is a
// full transaction snapshot.
type state struct {
	campaigns        map[string]entities.Campaign
	invitations      map[string]entities.Invitation
	invitationOrder  []string
	contents         map[string]entities.Content
	contentOrder     []string
	notifications    map[string]entities.Notification
	notificationKeys map[string]string
	profiles         map[string]entities.InfluencerProfile
	brandStats       map[string]entities.BrandStats
	outbox           []outboxRecord
	events           map[string]eventReservation
}

func newState() *state {
	return &state{
		campaigns:        make(map[string]entities.Campaign),
		invitations:      make(map[string]entities.Invitation),
		contents:         make(map[string]entities.Content),
		notifications:    make(map[string]entities.Notification),
		notificationKeys: make(map[string]string),
		profiles:         make(map[string]entities.InfluencerProfile),
		brandStats:       make(map[string]entities.BrandStats),
		events:           make(map[string]eventReservation),
	}
}

func (st *state) clone() *state {
	out := newState()
	for key, value := range st.campaigns {
		out.campaigns[key] = value
	}
	for key, value := range st.invitations {
		out.invitations[key] = value
	}
	for key, value := range st.contents {
		out.contents[key] = value
	}
	for key, value := range st.notifications {
		out.notifications[key] = value
	}
	for key, value := range st.notificationKeys {
		out.notificationKeys[key] = value
	}
	for key, value := range st.profiles {
		out.profiles[key] = value
	}
	for key, value := range st.brandStats {
		out.brandStats[key] = value
	}
	for key, value := range st.events {
		out.events[key] = value
	}
	out.invitationOrder = append([]string(nil), st.invitationOrder...)
	out.contentOrder = append([]string(nil), st.contentOrder...)
	out.outbox = append([]outboxRecord(nil), st.outbox...)
	return out
}

func (st *state) CreateCampaign(_ context.Context, campaign entities.Campaign) error {
	if _, exists := st.campaigns[campaign.CampaignID]; exists {
		return domainerrors.ErrInvalidCampaignInput
	}
	st.campaigns[campaign.CampaignID] = campaign.Clone()
	return nil
}

func (st *state) SaveCampaign(_ context.Context, campaign entities.Campaign) error {
	existing, exists := st.campaigns[campaign.CampaignID]
	if !exists {
		return domainerrors.ErrCampaignNotFound
	}
	updated := campaign.Clone()
	updated.BrandID = existing.BrandID
	updated.CreatedAt = existing.CreatedAt
	st.campaigns[campaign.CampaignID] = updated
	return nil
}

func (st *state) GetCampaign(_ context.Context, campaignID string) (entities.Campaign, error) {
	item, exists := st.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	return item.Clone(), nil
}

// GetCampaignForUpdate needs no row lock: transactions are already serialized.
func (st *state) GetCampaignForUpdate(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return st.GetCampaign(ctx, campaignID)
}

func (st *state) ListCampaigns(_ context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	brandID := strings.TrimSpace(filter.BrandID)
	items := make([]entities.Campaign, 0, len(st.campaigns))
	for _, campaign := range st.campaigns {
		if brandID != "" && campaign.BrandID != brandID {
			continue
		}
		if filter.Status != "" && campaign.Status != filter.Status {
			continue
		}
		items = append(items, campaign.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CampaignID < items[j].CampaignID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (st *state) ListCampaignsDueForSweep(_ context.Context, now time.Time, limit int) ([]string, error) {
	candidates := make([]entities.Campaign, 0)
	for _, campaign := range st.campaigns {
		if campaign.Status.IsSticky() {
			continue
		}
		started := campaign.Status == entities.CampaignStatusUpcoming &&
			!campaign.StartDate.IsZero() && !now.Before(campaign.StartDate)
		pastEnd := !campaign.EndDate.IsZero() && now.After(campaign.EndDate)
		if !started && !pastEnd && campaign.Progress.Completion.Status != entities.StageStatusActive {
			continue
		}
		candidates = append(candidates, campaign)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].EndDate.Equal(candidates[j].EndDate) {
			return candidates[i].CampaignID < candidates[j].CampaignID
		}
		return candidates[i].EndDate.Before(candidates[j].EndDate)
	})
	ids := make([]string, 0, len(candidates))
	for _, campaign := range candidates {
		ids = append(ids, campaign.CampaignID)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

func (st *state) CreateInvitation(_ context.Context, invitation entities.Invitation) error {
	if _, exists := st.invitations[invitation.InvitationID]; exists {
		return domainerrors.ErrInvalidInvitationInput
	}
	if invitation.Status == entities.InvitationStatusPending {
		for _, item := range st.invitations {
			if item.CampaignID == invitation.CampaignID &&
				item.InfluencerID == invitation.InfluencerID &&
				item.Status == entities.InvitationStatusPending {
				return domainerrors.ErrDuplicateInvitation
			}
		}
	}
	st.invitations[invitation.InvitationID] = invitation
	st.invitationOrder = append(st.invitationOrder, invitation.InvitationID)
	return nil
}

func (st *state) UpdateInvitation(_ context.Context, invitation entities.Invitation) error {
	if _, exists := st.invitations[invitation.InvitationID]; !exists {
		return domainerrors.ErrInvitationNotFound
	}
	st.invitations[invitation.InvitationID] = invitation
	return nil
}

func (st *state) DeleteInvitation(_ context.Context, invitationID string) error {
	invitationID = strings.TrimSpace(invitationID)
	if _, exists := st.invitations[invitationID]; !exists {
		return domainerrors.ErrInvitationNotFound
	}
	delete(st.invitations, invitationID)
	order := make([]string, 0, len(st.invitationOrder))
	for _, id := range st.invitationOrder {
		if id != invitationID {
			order = append(order, id)
		}
	}
	st.invitationOrder = order
	return nil
}

func (st *state) GetInvitation(_ context.Context, invitationID string) (entities.Invitation, error) {
	item, exists := st.invitations[strings.TrimSpace(invitationID)]
	if !exists {
		return entities.Invitation{}, domainerrors.ErrInvitationNotFound
	}
	return item, nil
}

func (st *state) FindPendingInvitation(_ context.Context, campaignID string, influencerID string) (entities.Invitation, bool, error) {
	for _, id := range st.invitationOrder {
		item := st.invitations[id]
		if item.CampaignID == campaignID && item.InfluencerID == influencerID && item.Status == entities.InvitationStatusPending {
			return item, true, nil
		}
	}
	return entities.Invitation{}, false, nil
}

func (st *state) ListInvitationsByCampaign(_ context.Context, campaignID string) ([]entities.Invitation, error) {
	items := make([]entities.Invitation, 0)
	for _, id := range st.invitationOrder {
		if item := st.invitations[id]; item.CampaignID == strings.TrimSpace(campaignID) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (st *state) ListInvitationsByInfluencer(_ context.Context, influencerID string) ([]entities.Invitation, error) {
	items := make([]entities.Invitation, 0)
	for _, id := range st.invitationOrder {
		if item := st.invitations[id]; item.InfluencerID == strings.TrimSpace(influencerID) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (st *state) CreateContent(_ context.Context, content entities.Content) error {
	if _, exists := st.contents[content.ContentID]; exists {
		return domainerrors.ErrInvalidContentInput
	}
	st.contents[content.ContentID] = content
	st.contentOrder = append(st.contentOrder, content.ContentID)
	return nil
}

func (st *state) UpdateContent(_ context.Context, content entities.Content) error {
	if _, exists := st.contents[content.ContentID]; !exists {
		return domainerrors.ErrContentNotFound
	}
	st.contents[content.ContentID] = content
	return nil
}

func (st *state) GetContent(_ context.Context, contentID string) (entities.Content, error) {
	item, exists := st.contents[strings.TrimSpace(contentID)]
	if !exists {
		return entities.Content{}, domainerrors.ErrContentNotFound
	}
	return item, nil
}

func (st *state) ListContentByCampaign(_ context.Context, campaignID string) ([]entities.Content, error) {
	items := make([]entities.Content, 0)
	for _, id := range st.contentOrder {
		if item := st.contents[id]; item.CampaignID == strings.TrimSpace(campaignID) {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (st *state) InsertNotification(_ context.Context, notification entities.Notification) (bool, error) {
	if _, exists := st.notifications[notification.NotificationID]; exists {
		return false, domainerrors.ErrInvalidInput
	}
	if key := strings.TrimSpace(notification.DedupKey); key != "" {
		if _, exists := st.notificationKeys[key]; exists {
			return false, nil
		}
		st.notificationKeys[key] = notification.NotificationID
	}
	st.notifications[notification.NotificationID] = notification.Clone()
	return true, nil
}

func (st *state) GetNotification(_ context.Context, notificationID string) (entities.Notification, error) {
	item, exists := st.notifications[strings.TrimSpace(notificationID)]
	if !exists {
		return entities.Notification{}, domainerrors.ErrNotificationNotFound
	}
	return item.Clone(), nil
}

func (st *state) MarkNotificationRead(_ context.Context, notificationID string, readAt time.Time) error {
	item, exists := st.notifications[strings.TrimSpace(notificationID)]
	if !exists {
		return domainerrors.ErrNotificationNotFound
	}
	updated := item.Clone()
	at := readAt.UTC()
	updated.Read = true
	updated.ReadAt = &at
	st.notifications[updated.NotificationID] = updated
	return nil
}

func (st *state) ListNotifications(_ context.Context, filter ports.NotificationFilter) ([]entities.Notification, error) {
	recipientID := strings.TrimSpace(filter.RecipientID)
	items := make([]entities.Notification, 0)
	for _, item := range st.notifications {
		if recipientID != "" && item.RecipientID != recipientID {
			continue
		}
		if filter.UnreadOnly && item.Read {
			continue
		}
		items = append(items, item.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].NotificationID < items[j].NotificationID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (st *state) AppendInfluencerInvitation(_ context.Context, influencerID string, invitationID string, at time.Time) error {
	profile := st.profiles[influencerID]
	profile.InfluencerID = influencerID
	profile.InvitationIDs = append(append([]string(nil), profile.InvitationIDs...), invitationID)
	profile.UpdatedAt = at.UTC()
	st.profiles[influencerID] = profile
	return nil
}

func (st *state) IncrementInfluencerCompletedCampaigns(_ context.Context, influencerID string, at time.Time) error {
	profile := st.profiles[influencerID]
	profile.InfluencerID = influencerID
	profile.InvitationIDs = append([]string(nil), profile.InvitationIDs...)
	profile.CompletedCampaigns++
	profile.UpdatedAt = at.UTC()
	st.profiles[influencerID] = profile
	return nil
}

func (st *state) GetInfluencerProfile(_ context.Context, influencerID string) (entities.InfluencerProfile, error) {
	influencerID = strings.TrimSpace(influencerID)
	profile, ok := st.profiles[influencerID]
	if !ok {
		return entities.InfluencerProfile{InfluencerID: influencerID, InvitationIDs: []string{}}, nil
	}
	profile.InvitationIDs = append([]string{}, profile.InvitationIDs...)
	return profile, nil
}

func (st *state) IncrementBrandStats(_ context.Context, brandID string, delta entities.BrandStatsDelta, at time.Time) error {
	stats := st.brandStats[brandID]
	stats.BrandID = brandID
	stats = stats.Apply(delta)
	stats.UpdatedAt = at.UTC()
	st.brandStats[brandID] = stats
	return nil
}

func (st *state) GetBrandStats(_ context.Context, brandID string) (entities.BrandStats, error) {
	brandID = strings.TrimSpace(brandID)
	stats, ok := st.brandStats[brandID]
	if !ok {
		return entities.BrandStats{BrandID: brandID}, nil
	}
	return stats, nil
}

func (st *state) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	st.outbox = append(st.outbox, outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
	})
	return nil
}
