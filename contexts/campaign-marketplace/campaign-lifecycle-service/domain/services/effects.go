package services

import "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"

type EffectKind string

const (
	EffectNotify                       EffectKind = "notify"
	EffectIncrementInfluencerCompleted EffectKind = "increment_influencer_completed"
	EffectIncrementBrandStats          EffectKind = "increment_brand_stats"
)

// Effect is a side effect decided during evaluation. Effects are applied by
// the caller, in order, inside the same transaction as the campaign write.
type Effect struct {
	Kind         EffectKind
	Notification entities.Notification
	InfluencerID string
	BrandID      string
	BrandDelta   entities.BrandStatsDelta
}

func notifyEffect(notification entities.Notification) Effect {
	return Effect{Kind: EffectNotify, Notification: notification}
}

func influencerCompletedEffect(influencerID string) Effect {
	return Effect{Kind: EffectIncrementInfluencerCompleted, InfluencerID: influencerID}
}

func brandStatsEffect(brandID string, delta entities.BrandStatsDelta) Effect {
	return Effect{Kind: EffectIncrementBrandStats, BrandID: brandID, BrandDelta: delta}
}

// DedupKey builds the unique key for one-time campaign notifications.
func DedupKey(campaignID string, notificationType entities.NotificationType, parts ...string) string {
	key := "campaign/" + campaignID + "/" + string(notificationType)
	for _, part := range parts {
		key += "/" + part
	}
	return key
}
