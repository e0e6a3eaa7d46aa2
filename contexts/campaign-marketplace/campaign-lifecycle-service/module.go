package campaignlifecycleservice

import (
	"log/slog"
	"time"

	httpadapter "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/adapters/http"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/adapters/memory"
	application "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application/commands"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application/queries"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/entities"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/services"
	"brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	// Refresh re-derives status and runs the engine for one campaign in its
	// own transaction. The campaign sweeper drives it.
	Refresh commands.RefreshCampaignStatusUseCase
	Store   *memory.Store
}

type Dependencies struct {
	UnitOfWork    ports.UnitOfWork
	Campaigns     ports.CampaignRepository
	Invitations   ports.InvitationRepository
	Contents      ports.ContentRepository
	Notifications ports.NotificationRepository
	Statistics    ports.StatisticsRepository
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator

	TxMaxAttempts           int
	TxInitialBackoff        time.Duration
	CountDirectApplications bool
	Logger                  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	transactions := application.TxRunner{
		UnitOfWork:     deps.UnitOfWork,
		MaxAttempts:    deps.TxMaxAttempts,
		InitialBackoff: deps.TxInitialBackoff,
		Logger:         deps.Logger,
	}
	notifier := commands.NotificationEmitter{
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	progress := commands.ProgressEvaluator{
		Engine:   services.ProgressEngine{CountDirectApplications: deps.CountDirectApplications},
		Notifier: notifier,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	evaluateProgress := commands.EvaluateProgressUseCase{
		Transactions: transactions,
		Progress:     progress,
		Logger:       deps.Logger,
	}
	refresh := commands.RefreshCampaignStatusUseCase{
		Transactions: transactions,
		Progress:     progress,
		Clock:        deps.Clock,
		Logger:       deps.Logger,
	}

	return Module{
		Refresh: refresh,
		Handler: httpadapter.Handler{
			CreateCampaign: commands.CreateCampaignUseCase{
				Transactions: transactions,
				Clock:        deps.Clock,
				IDGenerator:  deps.IDGenerator,
				Logger:       deps.Logger,
			},
			CancelCampaign: commands.CancelCampaignUseCase{
				Transactions: transactions,
				Clock:        deps.Clock,
				IDGenerator:  deps.IDGenerator,
				Logger:       deps.Logger,
			},
			RefreshCampaignStatus: refresh,
			EvaluateProgress:      evaluateProgress,
			CreateInvitation: commands.CreateInvitationUseCase{
				Transactions: transactions,
				Progress:     progress,
				Notifier:     notifier,
				Clock:        deps.Clock,
				IDGenerator:  deps.IDGenerator,
				Logger:       deps.Logger,
			},
			RespondInvitation: commands.RespondInvitationUseCase{
				Transactions: transactions,
				Progress:     progress,
				Notifier:     notifier,
				Clock:        deps.Clock,
				Logger:       deps.Logger,
			},
			DeleteInvitation: commands.DeleteInvitationUseCase{
				Transactions: transactions,
				Progress:     progress,
				Clock:        deps.Clock,
				Logger:       deps.Logger,
			},
			Apply: commands.ApplyUseCase{
				Transactions: transactions,
				Progress:     progress,
				Notifier:     notifier,
				Clock:        deps.Clock,
				Logger:       deps.Logger,
			},
			ReviewApplication: commands.ReviewApplicationUseCase{
				Transactions: transactions,
				Progress:     progress,
				Notifier:     notifier,
				Clock:        deps.Clock,
				Logger:       deps.Logger,
			},
			SubmitContent: commands.SubmitContentUseCase{
				Transactions: transactions,
				Notifier:     notifier,
				Clock:        deps.Clock,
				IDGenerator:  deps.IDGenerator,
				Logger:       deps.Logger,
			},
			ReviewContent: commands.ReviewContentUseCase{
				Transactions: transactions,
				Progress:     progress,
				Notifier:     notifier,
				Clock:        deps.Clock,
				Logger:       deps.Logger,
			},
			PublishContent: commands.PublishContentUseCase{
				Transactions: transactions,
				Clock:        deps.Clock,
				Logger:       deps.Logger,
			},
			MarkNotificationRead: commands.MarkNotificationReadUseCase{
				Transactions: transactions,
				Clock:        deps.Clock,
				Logger:       deps.Logger,
			},
			GetCampaign: queries.GetCampaignUseCase{
				Campaigns: deps.Campaigns,
				Logger:    deps.Logger,
			},
			ListCampaigns: queries.ListCampaignsUseCase{
				Campaigns: deps.Campaigns,
				Logger:    deps.Logger,
			},
			ListInvitations: queries.ListInvitationsUseCase{
				Campaigns:   deps.Campaigns,
				Invitations: deps.Invitations,
				Logger:      deps.Logger,
			},
			ListContent: queries.ListContentUseCase{
				Campaigns: deps.Campaigns,
				Contents:  deps.Contents,
				Logger:    deps.Logger,
			},
			ListNotifications: queries.ListNotificationsUseCase{
				Notifications: deps.Notifications,
				Logger:        deps.Logger,
			},
			GetInfluencerProfile: queries.GetInfluencerProfileUseCase{
				Statistics: deps.Statistics,
				Logger:     deps.Logger,
			},
			GetBrandStats: queries.GetBrandStatsUseCase{
				Statistics: deps.Statistics,
				Logger:     deps.Logger,
			},
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Campaign, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		UnitOfWork:              store,
		Campaigns:               store,
		Invitations:             store,
		Contents:                store,
		Notifications:           store,
		Statistics:              store,
		Clock:                   store,
		IDGenerator:             store,
		TxMaxAttempts:           3,
		CountDirectApplications: true,
		Logger:                  logger,
	})
	module.Store = store
	return module
}
