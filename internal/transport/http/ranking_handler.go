package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"geohis-quiz-service/internal/app"
	"geohis-quiz-service/internal/domain"
)

// RankingHandler exposes read-only leaderboard endpoints.
type RankingHandler struct {
	rankings *app.RankingStore
}

func NewRankingHandler(rankings *app.RankingStore) *RankingHandler {
	return &RankingHandler{rankings: rankings}
}

// ServeTopicRanking handles GET /rankings?topicId=...&limit=...
func (h *RankingHandler) ServeTopicRanking(w http.ResponseWriter, r *http.Request) {
	topicID := r.URL.Query().Get("topicId")
	if topicID == "" {
		http.Error(w, "missing topicId", http.StatusBadRequest)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	entries := h.rankings.GetTopicRanking(r.Context(), topicID, limit)
	if entries == nil {
		entries = []domain.RankingEntry{}
	}
	writeJSON(w, entries)
}

// ServeTopicStats handles GET /rankings/stats?topicId=...
func (h *RankingHandler) ServeTopicStats(w http.ResponseWriter, r *http.Request) {
	topicID := r.URL.Query().Get("topicId")
	if topicID == "" {
		http.Error(w, "missing topicId", http.StatusBadRequest)
		return
	}
	writeJSON(w, h.rankings.GetTopicStats(r.Context(), topicID))
}

// ServePlayerBest handles GET /rankings/player?topicId=...&initials=...&limit=...
func (h *RankingHandler) ServePlayerBest(w http.ResponseWriter, r *http.Request) {
	topicID := r.URL.Query().Get("topicId")
	initials := r.URL.Query().Get("initials")
	if topicID == "" || initials == "" {
		http.Error(w, "missing topicId or initials", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries := h.rankings.GetPlayerBestScores(r.Context(), topicID, initials, limit)
	if entries == nil {
		entries = []domain.RankingEntry{}
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
