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

// LessonsService is the interface that wraps methods for lesson business logic.
type LessonsService interface {
	// GetLesson retrieves an unlocked lesson with its exercises, answers stripped.
	GetLesson(ctx context.Context, userID, lessonID int) (*models.LessonDetailResponse, error)
	// SubmitLesson grades a full attempt and advances the unlock ledger.
	SubmitLesson(ctx context.Context, userID, lessonID int, req models.SubmitLessonRequest) (*models.SubmitLessonResponse, error)
	// RetryLessonMistakes regrades only the still-wrong items of the latest attempt.
	RetryLessonMistakes(ctx context.Context, userID, lessonID int, req models.RetryMistakesRequest) (*models.SubmitLessonResponse, error)
}

// LessonsHandler handles HTTP requests for lessons
type LessonsHandler struct {
	BaseHandler
	service LessonsService
}

// NewLessonsHandler creates a new lesson handler
func NewLessonsHandler(svc LessonsService, logger *zap.Logger) *LessonsHandler {
	return &LessonsHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all lesson handler routes
func (h *LessonsHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/lessons", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/{id}", h.GetByID)
		r.Post("/{id}/submit", h.Submit)
		r.Post("/{id}/retry-mistakes", h.RetryMistakes)
	})
}

// GetByID handles GET /api/v1/lessons/{id}
// @Summary Get lesson
// @Description Get an unlocked lesson with its exercises; correct answers are never included
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.LessonDetailResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/lessons/{id} [get]
func (h *LessonsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	lessonID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}

	lesson, err := h.service.GetLesson(r.Context(), userID, lessonID)
	if err != nil {
		h.respondServiceError(w, err, "get lesson")
		return
	}

	h.respondJSON(w, http.StatusOK, lesson)
}

// Submit handles POST /api/v1/lessons/{id}/submit
// @Summary Submit lesson answers
// @Description Grade a full attempt; repeating an idempotency key replays the stored result
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param request body models.SubmitLessonRequest true "Submitted answers"
// @Success 200 {object} models.SubmitLessonResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/lessons/{id}/submit [post]
func (h *LessonsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	lessonID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}

	var req models.SubmitLessonRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.SubmitLesson(r.Context(), userID, lessonID, req)
	if err != nil {
		h.respondServiceError(w, err, "submit lesson")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// RetryMistakes handles POST /api/v1/lessons/{id}/retry-mistakes
// @Summary Retry lesson mistakes
// @Description Regrade only the items still wrong in the latest attempt; correct answers never flip back
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param request body models.RetryMistakesRequest true "Replacement answers for wrong items"
// @Success 200 {object} models.SubmitLessonResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/lessons/{id}/retry-mistakes [post]
func (h *LessonsHandler) RetryMistakes(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	lessonID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}

	var req models.RetryMistakesRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.RetryLessonMistakes(r.Context(), userID, lessonID, req)
	if err != nil {
		h.respondServiceError(w, err, "retry lesson mistakes")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}
