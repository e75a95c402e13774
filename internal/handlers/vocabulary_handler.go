package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lingopath/backend/internal/auth"
	"github.com/lingopath/backend/internal/models"
	"go.uber.org/zap"
)

// VocabularyService is the interface that wraps methods for saved-word business logic.
type VocabularyService interface {
	// AddWord saves a word for the user; the new word is due immediately.
	AddWord(ctx context.Context, userID int, req models.AddWordRequest) (*models.UserVocabulary, error)
	// GetDueWords lists words whose review time has arrived.
	GetDueWords(ctx context.Context, userID int) ([]models.DueWordResponse, error)
	// ReviewWord applies one review outcome and reschedules the word.
	ReviewWord(ctx context.Context, userID, userVocabularyID int, req models.ReviewWordRequest) (*models.ReviewWordResponse, error)
}

// VocabularyHandler handles HTTP requests for saved words
type VocabularyHandler struct {
	BaseHandler
	service VocabularyService
}

// NewVocabularyHandler creates a new vocabulary handler
func NewVocabularyHandler(svc VocabularyService, logger *zap.Logger) *VocabularyHandler {
	return &VocabularyHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all vocabulary handler routes
func (h *VocabularyHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/vocabulary", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Add)
		r.Get("/due", h.GetDue)
		r.Post("/{id}/review", h.Review)
	})
}

// Add handles POST /api/v1/vocabulary
// @Summary Save a word
// @Description Save a word to the user's review list; re-saving an existing word is a no-op
// @Tags vocabulary
// @Accept json
// @Produce json
// @Param request body models.AddWordRequest true "Word to save"
// @Success 200 {object} models.UserVocabulary
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/vocabulary [post]
func (h *VocabularyHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.AddWordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.service.AddWord(r.Context(), userID, req)
	if err != nil {
		h.respondServiceError(w, err, "add word")
		return
	}

	h.respondJSON(w, http.StatusOK, saved)
}

// GetDue handles GET /api/v1/vocabulary/due
// @Summary List due words
// @Description Get saved words whose next review time has arrived, earliest first
// @Tags vocabulary
// @Accept json
// @Produce json
// @Success 200 {array} models.DueWordResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/vocabulary/due [get]
func (h *VocabularyHandler) GetDue(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	due, err := h.service.GetDueWords(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err, "get due words")
		return
	}

	h.respondJSON(w, http.StatusOK, due)
}

// Review handles POST /api/v1/vocabulary/{id}/review
// @Summary Review a word
// @Description Apply one review outcome: correct pushes the word a day out, wrong resets it to twelve hours
// @Tags vocabulary
// @Accept json
// @Produce json
// @Param id path int true "Saved word ID"
// @Param request body models.ReviewWordRequest true "Review outcome"
// @Success 200 {object} models.ReviewWordResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/vocabulary/{id}/review [post]
func (h *VocabularyHandler) Review(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	wordID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid word id")
		return
	}

	var req models.ReviewWordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.ReviewWord(r.Context(), userID, wordID, req)
	if err != nil {
		h.respondServiceError(w, err, "review word")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}
