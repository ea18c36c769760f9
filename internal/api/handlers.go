// Package api exposes HTTP handlers for devlog.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/rnwolfe/devlog/internal/activity"
	"github.com/rnwolfe/devlog/internal/challenge"
	"github.com/rnwolfe/devlog/internal/streak"
	"github.com/rnwolfe/devlog/internal/tracker"
	"github.com/rnwolfe/devlog/internal/version"
)

// Handler coordinates HTTP requests with the tracker.
type Handler struct {
	tracker *tracker.Tracker
	log     logrus.FieldLogger
}

// NewHandler builds a Handler.
func NewHandler(t *tracker.Tracker, log logrus.FieldLogger) *Handler {
	return &Handler{tracker: t, log: log}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("GET /version", versionInfo)

	mux.HandleFunc("POST /v1/users/{id}/posts", h.createPost)
	mux.HandleFunc("GET /v1/users/{id}/posts", h.listPosts)
	mux.HandleFunc("PATCH /v1/users/{id}/posts/{postID}", h.updatePost)
	mux.HandleFunc("DELETE /v1/users/{id}/posts/{postID}", h.deletePost)
	mux.HandleFunc("GET /v1/users/{id}/streak", h.getStreak)
	mux.HandleFunc("POST /v1/users/{id}/streak/recompute", h.recomputeStreak)
	mux.HandleFunc("GET /v1/users/{id}/challenge", h.challengeProgress)
	mux.HandleFunc("GET /v1/users/{id}/heatmap", h.heatmap)

	mux.HandleFunc("GET /v1/challenge", h.activeChallenge)
	mux.HandleFunc("POST /v1/challenge", h.createChallenge)
	mux.HandleFunc("DELETE /v1/challenge", h.endChallenge)
	mux.HandleFunc("GET /v1/challenge/board", h.challengeBoard)
	mux.HandleFunc("GET /v1/challenges", h.listChallenges)
	mux.HandleFunc("GET /v1/challenges/{windowID}", h.getChallenge)
	mux.HandleFunc("GET /v1/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /v1/streaks", h.listStreaks)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

type postResponse struct {
	Post   activity.Post    `json:"post"`
	Streak streak.Aggregate `json:"streak"`
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req activity.NewPost
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	req.UserID = r.PathValue("id")

	post, agg, err := h.tracker.CreatePost(r.Context(), req)
	if err != nil {
		if post.ID != "" {
			h.log.WithError(err).WithField("post_id", post.ID).Error("streak recompute after post failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"type":   "streak_update_failed",
				"detail": err.Error(),
				"post":   post,
			})
			return
		}
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, postResponse{Post: post, Streak: agg})
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 20)
	posts, err := h.tracker.Posts(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	if posts == nil {
		posts = []activity.Post{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": posts})
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	var req activity.PostEdit
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	post, err := h.tracker.UpdatePost(r.Context(), r.PathValue("id"), r.PathValue("postID"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	agg, err := h.tracker.DeletePost(r.Context(), r.PathValue("id"), r.PathValue("postID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"streak": agg})
}

func (h *Handler) getStreak(w http.ResponseWriter, r *http.Request) {
	agg, err := h.tracker.Streak(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func (h *Handler) recomputeStreak(w http.ResponseWriter, r *http.Request) {
	agg, err := h.tracker.RecomputeStreak(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func (h *Handler) listStreaks(w http.ResponseWriter, r *http.Request) {
	aggs, err := h.tracker.Streaks(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if aggs == nil {
		aggs = []streak.Aggregate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": aggs})
}

func (h *Handler) challengeProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.tracker.ChallengeProgress(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) heatmap(w http.ResponseWriter, r *http.Request) {
	weeks := intQuery(r, "weeks", activity.DefaultHeatmapWeeks)
	if weeks > 53 {
		writeError(w, http.StatusBadRequest, "validation_failed", "weeks must be at most 53")
		return
	}
	cells, err := h.tracker.Heatmap(r.Context(), r.PathValue("id"), weeks)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cells": cells})
}

func (h *Handler) activeChallenge(w http.ResponseWriter, r *http.Request) {
	win, err := h.tracker.ActiveChallenge(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"window": win})
}

func (h *Handler) createChallenge(w http.ResponseWriter, r *http.Request) {
	var req tracker.ChallengeInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	win, err := h.tracker.CreateChallenge(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, win)
}

func (h *Handler) endChallenge(w http.ResponseWriter, r *http.Request) {
	ended, err := h.tracker.EndChallenge(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ended": ended})
}

func (h *Handler) listChallenges(w http.ResponseWriter, r *http.Request) {
	wins, err := h.tracker.Challenges(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if wins == nil {
		wins = []challenge.Window{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": wins})
}

func (h *Handler) getChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("windowID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "window id must be an integer")
		return
	}
	win, err := h.tracker.Challenge(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, win)
}

func (h *Handler) challengeBoard(w http.ResponseWriter, r *http.Request) {
	win, board, err := h.tracker.Board(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if board == nil {
		board = []challenge.Standing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"window": win, "items": board})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	ranks, err := h.tracker.Leaderboard(r.Context(), intQuery(r, "limit", 50))
	if err != nil {
		h.fail(w, err)
		return
	}
	if ranks == nil {
		ranks = []activity.Rank{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": ranks})
}

// fail maps engine errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case tracker.IsInvalid(err):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case tracker.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, streak.ErrDataFetch), errors.Is(err, challenge.ErrDataFetch):
		h.log.WithError(err).Warn("data fetch failed")
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		h.log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func intQuery(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
