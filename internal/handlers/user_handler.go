package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lingopath/backend/internal/auth"
	"github.com/lingopath/backend/internal/models"
	"go.uber.org/zap"
)

// StatsService is the interface that wraps the streak and score aggregator.
type StatsService interface {
	// GetStats recomputes streaks and cumulative score from stored attempts.
	GetStats(ctx context.Context, userID int) (*models.UserStatsResponse, error)
}

// NextActivityService is the interface that wraps the next-activity resolver.
type NextActivityService interface {
	// GetNext picks the single suggested next activity for the user.
	GetNext(ctx context.Context, userID int) (*models.NextActivityResponse, error)
}

// AchievementsService is the interface that wraps badge queries.
type AchievementsService interface {
	// GetUserAchievements lists the user's granted badges.
	GetUserAchievements(ctx context.Context, userID int) ([]models.UserAchievementResponse, error)
}

// UsersHandler handles HTTP requests for per-user aggregates
type UsersHandler struct {
	BaseHandler
	stats        StatsService
	nextActivity NextActivityService
	achievements AchievementsService
}

// NewUsersHandler creates a new user handler
func NewUsersHandler(stats StatsService, nextActivity NextActivityService, achievements AchievementsService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		BaseHandler:  BaseHandler{logger: logger},
		stats:        stats,
		nextActivity: nextActivity,
		achievements: achievements,
	}
}

// RegisterRoutes registers all user handler routes
func (h *UsersHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/me", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/stats", h.GetStats)
		r.Get("/next-activity", h.GetNextActivity)
		r.Get("/achievements", h.GetAchievements)
	})
}

// GetStats handles GET /api/v1/me/stats
// @Summary Get user stats
// @Description Get current/max streak and cumulative score, recomputed from attempt history
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} models.UserStatsResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/me/stats [get]
func (h *UsersHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := h.stats.GetStats(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err, "get stats")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

// GetNextActivity handles GET /api/v1/me/next-activity
// @Summary Get next activity
// @Description Get the single suggested next activity: due vocabulary, next lesson, next scene or course completion
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} models.NextActivityResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/me/next-activity [get]
func (h *UsersHandler) GetNextActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	next, err := h.nextActivity.GetNext(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err, "get next activity")
		return
	}

	h.respondJSON(w, http.StatusOK, next)
}

// GetAchievements handles GET /api/v1/me/achievements
// @Summary Get user achievements
// @Description Get the badges granted to the user
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {array} models.UserAchievementResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/me/achievements [get]
func (h *UsersHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	granted, err := h.achievements.GetUserAchievements(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err, "get achievements")
		return
	}

	h.respondJSON(w, http.StatusOK, granted)
}
