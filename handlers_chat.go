package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"chinampa/assistant"
	"chinampa/models"

	"go.uber.org/zap"
)

const askTimeout = 90 * time.Second

// handleAskAI answers one chat message, optionally grounded on a report.
func (a *App) handleAskAI(w http.ResponseWriter, r *http.Request) {
	var req models.AskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad json")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeDetail(w, http.StatusBadRequest, "Message is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), askTimeout)
	defer cancel()
	answer, err := a.advisor.Ask(ctx, req.Message, req.Report)
	if err != nil {
		a.assistantError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.AskResp{Response: answer})
}

// handleRecommendations runs the fixed question list against a report.
func (a *App) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var raw models.RawReport
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), askTimeout)
	defer cancel()
	recs, err := a.advisor.Recommend(ctx, raw)
	if err != nil {
		a.assistantError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationsResp{Recommendations: recs})
}

func (a *App) assistantError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, assistant.ErrNoModel) {
		writeDetail(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}
	a.reqLogger(r).Error("assistant failed", zap.Error(err))
	writeDetail(w, http.StatusInternalServerError, err.Error())
}
