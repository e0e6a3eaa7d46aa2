package postgresadapter

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates the lifecycle tables and the indexes gorm tags cannot express.
func Migrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)
	if err := tx.AutoMigrate(
		&campaignModel{},
		&invitationModel{},
		&contentModel{},
		&notificationModel{},
		&influencerProfileModel{},
		&brandStatsModel{},
		&outboxModel{},
		&eventDedupModel{},
	); err != nil {
		return fmt.Errorf("auto migrate lifecycle tables: %w", err)
	}

	statements := []string{
		// At most one pending invitation per (campaign, influencer).
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_lifecycle_invitations_pending
			ON lifecycle_invitations (campaign_id, influencer_id)
			WHERE status = 'pending'`,
		`CREATE INDEX IF NOT EXISTS idx_lifecycle_content_campaign_created
			ON lifecycle_content (campaign_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_lifecycle_outbox_pending
			ON lifecycle_outbox (created_at)
			WHERE status = 'pending'`,
	}
	for _, statement := range statements {
		if err := tx.Exec(statement).Error; err != nil {
			return fmt.Errorf("create lifecycle index: %w", err)
		}
	}
	return nil
}
