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

// ScenesService is the interface that wraps methods for scene business logic.
type ScenesService interface {
	// GetScenes lists the scenes of a course with per-user unlock state.
	GetScenes(ctx context.Context, userID, courseID int) ([]models.SceneListItem, error)
	// GetScene retrieves an unlocked scene with its steps, choice correctness stripped.
	GetScene(ctx context.Context, userID, sceneID int) (*models.SceneDetailResponse, error)
	// SubmitScene grades answers over the scene's question steps.
	SubmitScene(ctx context.Context, userID, sceneID int, req models.SubmitSceneRequest) (*models.SubmitSceneResponse, error)
	// RetrySceneMistakes regrades only the still-wrong steps of the attempt.
	RetrySceneMistakes(ctx context.Context, userID, sceneID int, req models.SubmitSceneRequest) (*models.SubmitSceneResponse, error)
}

// ScenesHandler handles HTTP requests for scenes
type ScenesHandler struct {
	BaseHandler
	service ScenesService
}

// NewScenesHandler creates a new scene handler
func NewScenesHandler(svc ScenesService, logger *zap.Logger) *ScenesHandler {
	return &ScenesHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all scene handler routes
func (h *ScenesHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/scenes", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetAll)
		r.Get("/{id}", h.GetByID)
		r.Post("/{id}/submit", h.Submit)
		r.Post("/{id}/retry-mistakes", h.RetryMistakes)
	})
}

// GetAll handles GET /api/v1/scenes
// @Summary List scenes of a course
// @Description Get the scenes of a course in position order, with unlock requirements
// @Tags scenes
// @Accept json
// @Produce json
// @Param courseId query int true "Course ID"
// @Success 200 {array} models.SceneListItem
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/scenes [get]
func (h *ScenesHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	courseID, err := strconv.Atoi(r.URL.Query().Get("courseId"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "courseId parameter is required")
		return
	}

	scenes, err := h.service.GetScenes(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, err, "get scenes")
		return
	}

	h.respondJSON(w, http.StatusOK, scenes)
}

// GetByID handles GET /api/v1/scenes/{id}
// @Summary Get scene
// @Description Get an unlocked scene with its steps; choice correctness is never included
// @Tags scenes
// @Accept json
// @Produce json
// @Param id path int true "Scene ID"
// @Success 200 {object} models.SceneDetailResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/scenes/{id} [get]
func (h *ScenesHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sceneID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid scene id")
		return
	}

	scene, err := h.service.GetScene(r.Context(), userID, sceneID)
	if err != nil {
		h.respondServiceError(w, err, "get scene")
		return
	}

	h.respondJSON(w, http.StatusOK, scene)
}

// Submit handles POST /api/v1/scenes/{id}/submit
// @Summary Submit scene answers
// @Description Grade answers over the scene's question steps; completion requires all correct
// @Tags scenes
// @Accept json
// @Produce json
// @Param id path int true "Scene ID"
// @Param request body models.SubmitSceneRequest true "Submitted answers"
// @Success 200 {object} models.SubmitSceneResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/scenes/{id}/submit [post]
func (h *ScenesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sceneID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid scene id")
		return
	}

	var req models.SubmitSceneRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.SubmitScene(r.Context(), userID, sceneID, req)
	if err != nil {
		h.respondServiceError(w, err, "submit scene")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// RetryMistakes handles POST /api/v1/scenes/{id}/retry-mistakes
// @Summary Retry scene mistakes
// @Description Regrade only the steps still wrong in the attempt; correct answers never flip back
// @Tags scenes
// @Accept json
// @Produce json
// @Param id path int true "Scene ID"
// @Param request body models.SubmitSceneRequest true "Replacement answers for wrong steps"
// @Success 200 {object} models.SubmitSceneResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/scenes/{id}/retry-mistakes [post]
func (h *ScenesHandler) RetryMistakes(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sceneID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid scene id")
		return
	}

	var req models.SubmitSceneRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.RetrySceneMistakes(r.Context(), userID, sceneID, req)
	if err != nil {
		h.respondServiceError(w, err, "retry scene mistakes")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}
