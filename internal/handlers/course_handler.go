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

// CoursesService is the interface that wraps methods for course business logic.
type CoursesService interface {
	// GetCoursesList retrieves published courses with the user's state flags.
	GetCoursesList(ctx context.Context, userID int) ([]models.CourseListItem, error)
	// GetCourseDetail retrieves a course with its topics, lessons and per-lesson unlock state.
	GetCourseDetail(ctx context.Context, userID, courseID int) (*models.CourseDetailResponse, error)
	// StartCourse activates a course for the user and unlocks its first lesson.
	StartCourse(ctx context.Context, userID, courseID int) (*models.CourseProgressResponse, error)
	// GetCourseProgress summarizes the user's progress in a course.
	GetCourseProgress(ctx context.Context, userID, courseID int) (*models.CourseProgressResponse, error)
}

// CoursesHandler handles HTTP requests for courses
type CoursesHandler struct {
	BaseHandler
	service CoursesService
}

// NewCoursesHandler creates a new course handler
func NewCoursesHandler(svc CoursesService, logger *zap.Logger) *CoursesHandler {
	return &CoursesHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all course handler routes
func (h *CoursesHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/courses", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetAll)
		r.Get("/{id}", h.GetByID)
		r.Post("/{id}/start", h.Start)
		r.Get("/{id}/progress", h.GetProgress)
	})
}

// GetAll handles GET /api/v1/courses
// @Summary List courses
// @Description Get all published courses with the user's started/active/completed flags
// @Tags courses
// @Accept json
// @Produce json
// @Success 200 {array} models.CourseListItem
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/courses [get]
func (h *CoursesHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	courses, err := h.service.GetCoursesList(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err, "get courses")
		return
	}

	h.respondJSON(w, http.StatusOK, courses)
}

// GetByID handles GET /api/v1/courses/{id}
// @Summary Get course detail
// @Description Get a course with its topics and lessons, including per-lesson unlock state
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseDetailResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/courses/{id} [get]
func (h *CoursesHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	courseID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	detail, err := h.service.GetCourseDetail(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, err, "get course")
		return
	}

	h.respondJSON(w, http.StatusOK, detail)
}

// Start handles POST /api/v1/courses/{id}/start
// @Summary Start a course
// @Description Activate a course for the user, deactivating any other active course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseProgressResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/courses/{id}/start [post]
func (h *CoursesHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	courseID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	progress, err := h.service.StartCourse(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, err, "start course")
		return
	}

	h.respondJSON(w, http.StatusOK, progress)
}

// GetProgress handles GET /api/v1/courses/{id}/progress
// @Summary Get course progress
// @Description Summarize the user's completion state in a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseProgressResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/courses/{id}/progress [get]
func (h *CoursesHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	courseID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	progress, err := h.service.GetCourseProgress(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, err, "get course progress")
		return
	}

	h.respondJSON(w, http.StatusOK, progress)
}
