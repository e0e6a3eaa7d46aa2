package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	campaignlifecycle "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service"
	lifecycleerrors "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/domain/errors"
	lifecyclehttp "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/transport/http"
	_ "brandreach/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Addr           string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	mux       *http.ServeMux
	http      *http.Server
	logger    *slog.Logger
	addr      string
	limiter   *userRateLimiter
	lifecycle campaignlifecycle.Module
}

func New(lifecycle campaignlifecycle.Module, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		limiter:   newUserRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		lifecycle: lifecycle,
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/campaigns", s.mutating(s.handleCreateCampaign))
	s.mux.HandleFunc("GET /v1/campaigns", s.handleListCampaigns)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}", s.handleGetCampaign)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/cancel", s.mutating(s.handleCancelCampaign))
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/status/refresh", s.mutating(s.handleRefreshCampaignStatus))
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/progress/evaluate", s.mutating(s.handleEvaluateProgress))

	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/invitations", s.mutating(s.handleCreateInvitation))
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}/invitations", s.handleListCampaignInvitations)
	s.mux.HandleFunc("GET /v1/invitations", s.handleListMyInvitations)
	s.mux.HandleFunc("POST /v1/invitations/{invitation_id}/respond", s.mutating(s.handleRespondInvitation))
	s.mux.HandleFunc("DELETE /v1/invitations/{invitation_id}", s.mutating(s.handleDeleteInvitation))

	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/applications", s.mutating(s.handleApply))
	s.mux.HandleFunc(
		"POST /v1/campaigns/{campaign_id}/applications/{influencer_id}/review",
		s.mutating(s.handleReviewApplication),
	)

	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/content", s.mutating(s.handleSubmitContent))
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}/content", s.handleListContent)
	s.mux.HandleFunc("POST /v1/content/{content_id}/review", s.mutating(s.handleReviewContent))
	s.mux.HandleFunc("POST /v1/content/{content_id}/publish", s.mutating(s.handlePublishContent))

	s.mux.HandleFunc("GET /v1/notifications", s.handleListNotifications)
	s.mux.HandleFunc("POST /v1/notifications/{notification_id}/read", s.mutating(s.handleMarkNotificationRead))

	s.mux.HandleFunc("GET /v1/influencers/{influencer_id}/profile", s.handleGetInfluencerProfile)
	s.mux.HandleFunc("GET /v1/brands/{brand_id}/stats", s.handleGetBrandStats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireUser checks the bearer token is present and returns the caller from
// X-User-Id. Token verification happens upstream of this service.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authorization bearer token is required")
		return "", false
	}
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

// decodeBody decodes an optional JSON body. An empty body leaves target at its
// zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, lifecycleerrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, lifecycleerrors.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, lifecycleerrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, lifecycleerrors.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, lifecycleerrors.ErrTransactionConflict):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "transaction_conflict", "concurrent update, retry the request")
	default:
		s.logger.Error("unexpected lifecycle error",
			"event", "http_unexpected_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, lifecyclehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
