package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	lifecyclehttp "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/transport/http"
)

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.CreateCampaignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.lifecycle.Handler.CreateCampaignHandler(r.Context(), userID, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	brandID := strings.TrimSpace(query.Get("brand_id"))
	if brandID == "" {
		brandID = userID
	}
	resp, err := s.lifecycle.Handler.ListCampaignsHandler(r.Context(), brandID, query.Get("status"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	resp, err := s.lifecycle.Handler.GetCampaignHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.CancelCampaignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.lifecycle.Handler.CancelCampaignHandler(r.Context(), userID, r.PathValue("campaign_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefreshCampaignStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.lifecycle.Handler.RefreshCampaignStatusHandler(r.Context(), userID, r.PathValue("campaign_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvaluateProgress(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	resp, err := s.lifecycle.Handler.EvaluateProgressHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.CreateInvitationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.lifecycle.Handler.CreateInvitationHandler(r.Context(), userID, r.PathValue("campaign_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCampaignInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.lifecycle.Handler.ListCampaignInvitationsHandler(r.Context(), userID, r.PathValue("campaign_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListMyInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.lifecycle.Handler.ListMyInvitationsHandler(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRespondInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.RespondInvitationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.lifecycle.Handler.RespondInvitationHandler(r.Context(), userID, r.PathValue("invitation_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.lifecycle.Handler.DeleteInvitationHandler(r.Context(), userID, r.PathValue("invitation_id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.ApplyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.lifecycle.Handler.ApplyHandler(r.Context(), userID, r.PathValue("campaign_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleReviewApplication(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.ReviewApplicationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.lifecycle.Handler.ReviewApplicationHandler(
		r.Context(),
		userID,
		r.PathValue("campaign_id"),
		r.PathValue("influencer_id"),
		req,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitContent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.SubmitContentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.lifecycle.Handler.SubmitContentHandler(r.Context(), userID, r.PathValue("campaign_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.lifecycle.Handler.ListContentHandler(r.Context(), userID, r.PathValue("campaign_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReviewContent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req lifecyclehttp.ReviewContentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.lifecycle.Handler.ReviewContentHandler(r.Context(), userID, r.PathValue("content_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePublishContent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.lifecycle.Handler.PublishContentHandler(r.Context(), userID, r.PathValue("content_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	unreadOnly := false
	if raw := strings.TrimSpace(query.Get("unread")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_unread", "unread must be a boolean")
			return
		}
		unreadOnly = parsed
	}
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.lifecycle.Handler.ListNotificationsHandler(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.lifecycle.Handler.MarkNotificationReadHandler(r.Context(), userID, r.PathValue("notification_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetInfluencerProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	resp, err := s.lifecycle.Handler.GetInfluencerProfileHandler(r.Context(), r.PathValue("influencer_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBrandStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	resp, err := s.lifecycle.Handler.GetBrandStatsHandler(r.Context(), r.PathValue("brand_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
