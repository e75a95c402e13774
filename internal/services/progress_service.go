package services

import (
	"context"
	"fmt"

	"github.com/lingopath/backend/internal/apperrors"
	"github.com/lingopath/backend/internal/models"
	"go.uber.org/zap"
)

// CourseRepository defines methods for course data access
type CourseRepository interface {
	// GetByID retrieves a published course; unpublished courses are not found
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// GetAllPublishedWithUserState retrieves published courses with the
	// user's started/active/completed flags
	GetAllPublishedWithUserState(ctx context.Context, userID int) ([]models.CourseListItem, error)
	// GetTopicsByCourseID retrieves the topics of a course in display order
	GetTopicsByCourseID(ctx context.Context, courseID int) ([]models.Topic, error)
}

// LessonRepository defines methods for lesson data access
type LessonRepository interface {
	// GetByID retrieves a lesson of a published course
	GetByID(ctx context.Context, id int) (*models.Lesson, error)
	// GetOrderedByCourseID retrieves every lesson of the course in
	// course-wide order (topic order, then lesson order, order <= 0 last)
	GetOrderedByCourseID(ctx context.Context, courseID int) ([]models.Lesson, error)
}

// UserLessonProgressRepository defines methods for the unlock ledger rows
type UserLessonProgressRepository interface {
	// GetByUserAndLesson retrieves one ledger row, nil when absent
	GetByUserAndLesson(ctx context.Context, userID, lessonID int) (*models.UserLessonProgress, error)
	// GetByUserAndCourse retrieves the user's rows for a course keyed by lesson ID
	GetByUserAndCourse(ctx context.Context, userID, courseID int) (map[int]*models.UserLessonProgress, error)
	// Create inserts a new ledger row
	Create(ctx context.Context, progress *models.UserLessonProgress) error
	// Update rewrites a ledger row
	Update(ctx context.Context, progress *models.UserLessonProgress) error
	// CountCompletedByUser counts distinct passed lessons overall
	CountCompletedByUser(ctx context.Context, userID int) (int, error)
	// CountCompletedByUserAndCourse counts distinct passed lessons in a course
	CountCompletedByUserAndCourse(ctx context.Context, userID, courseID int) (int, error)
	// SumBestScores sums best scores of completed lessons
	SumBestScores(ctx context.Context, userID int) (int, error)
}

// UserCourseRepository defines methods for user course rows
type UserCourseRepository interface {
	// GetActiveByUser retrieves the single active course row, nil when none
	GetActiveByUser(ctx context.Context, userID int) (*models.UserCourse, error)
	// GetByUserAndCourse retrieves the row for one course, nil when absent
	GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.UserCourse, error)
	// Create inserts a new row
	Create(ctx context.Context, uc *models.UserCourse) error
	// Update rewrites a row
	Update(ctx context.Context, uc *models.UserCourse) error
	// DeactivateAllByUser clears the active flag on all of the user's courses
	DeactivateAllByUser(ctx context.Context, userID int) error
}

// Transactor runs a function inside one storage transaction
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// progressService owns the lesson unlock ledger and the resume pointer
type progressService struct {
	courseRepo     CourseRepository
	lessonRepo     LessonRepository
	progressRepo   UserLessonProgressRepository
	userCourseRepo UserCourseRepository
	transactor     Transactor
	clock          Clock
	logger         *zap.Logger
}

// NewProgressService creates a new progress service
func NewProgressService(
	courseRepo CourseRepository,
	lessonRepo LessonRepository,
	progressRepo UserLessonProgressRepository,
	userCourseRepo UserCourseRepository,
	transactor Transactor,
	clock Clock,
	logger *zap.Logger,
) *progressService {
	return &progressService{
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
		progressRepo:   progressRepo,
		userCourseRepo: userCourseRepo,
		transactor:     transactor,
		clock:          clock,
		logger:         logger,
	}
}

// GetCoursesList retrieves published courses with the user's state
func (s *progressService) GetCoursesList(ctx context.Context, userID int) ([]models.CourseListItem, error) {
	return s.courseRepo.GetAllPublishedWithUserState(ctx, userID)
}

// GetCourseDetail retrieves a course with topics, lessons and the user's
// unlock state per lesson
func (s *progressService) GetCourseDetail(ctx context.Context, userID, courseID int) (*models.CourseDetailResponse, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	topics, err := s.courseRepo.GetTopicsByCourseID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}

	lessons, err := s.lessonRepo.GetOrderedByCourseID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons: %w", err)
	}

	progressByLesson, err := s.progressRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress rows: %w", err)
	}

	detail := &models.CourseDetailResponse{ID: course.ID, Title: course.Title}
	for _, topic := range topics {
		withLessons := models.TopicWithLessons{ID: topic.ID, Title: topic.Title, Order: topic.Order}
		for _, lesson := range lessons {
			if lesson.TopicID != topic.ID {
				continue
			}
			item := models.LessonListItem{ID: lesson.ID, Title: lesson.Title, Order: lesson.Order}
			if row := progressByLesson[lesson.ID]; row != nil {
				item.IsUnlocked = row.IsUnlocked
				item.IsCompleted = row.IsCompleted
				item.BestScore = row.BestScore
			}
			withLessons.Lessons = append(withLessons.Lessons, item)
		}
		detail.Topics = append(detail.Topics, withLessons)
	}

	return detail, nil
}

// StartCourse activates a course for the user, deactivating any other
// active course, and reconciles the unlock ledger so the first lesson is
// reachable. Starting a completed course returns its summary unchanged.
func (s *progressService) StartCourse(ctx context.Context, userID, courseID int) (*models.CourseProgressResponse, error) {
	if courseID <= 0 {
		return nil, apperrors.Validationf("course id must be positive")
	}

	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		now := s.clock.UtcNow()

		uc, err := s.userCourseRepo.GetByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			return err
		}

		// Completed courses stay terminal; re-unlocking is not supported
		if uc != nil && uc.IsCompleted {
			return nil
		}

		if err := s.userCourseRepo.DeactivateAllByUser(ctx, userID); err != nil {
			return err
		}

		if uc == nil {
			uc = &models.UserCourse{
				UserID:       userID,
				CourseID:     courseID,
				IsActive:     true,
				StartedAt:    now,
				LastOpenedAt: now,
			}
			if err := s.userCourseRepo.Create(ctx, uc); err != nil {
				return err
			}
		} else {
			uc.IsActive = true
			uc.LastOpenedAt = now
		}

		return s.reconcileCourse(ctx, userID, uc)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start course: %w", err)
	}

	return s.GetCourseProgress(ctx, userID, courseID)
}

// AdvanceAfterLesson applies a graded lesson attempt to the unlock ledger:
// best score stays monotone, completion is sticky, and the course ledger is
// re-derived fresh so the follower unlocks and the resume pointer is valid.
// Callers run it inside the submission transaction.
func (s *progressService) AdvanceAfterLesson(ctx context.Context, userID int, lesson *models.Lesson, score int, passed bool) error {
	now := s.clock.UtcNow()

	row, err := s.progressRepo.GetByUserAndLesson(ctx, userID, lesson.ID)
	if err != nil {
		return err
	}

	if row == nil {
		row = &models.UserLessonProgress{
			UserID:        userID,
			LessonID:      lesson.ID,
			IsUnlocked:    true,
			IsCompleted:   passed,
			BestScore:     score,
			LastAttemptAt: &now,
		}
		if err := s.progressRepo.Create(ctx, row); err != nil {
			return err
		}
	} else {
		row.IsCompleted = row.IsCompleted || passed
		if score > row.BestScore {
			row.BestScore = score
		}
		row.LastAttemptAt = &now
		if err := s.progressRepo.Update(ctx, row); err != nil {
			return err
		}
	}

	uc, err := s.userCourseRepo.GetByUserAndCourse(ctx, userID, lesson.CourseID)
	if err != nil {
		return err
	}
	if uc == nil || uc.IsCompleted {
		return nil
	}

	return s.reconcileCourse(ctx, userID, uc)
}

// reconcileCourse re-derives the whole ledger for one course: missing rows
// are created lazily, sequential unlocking is applied, the resume pointer
// is recomputed, and the course flips to completed when nothing remains.
func (s *progressService) reconcileCourse(ctx context.Context, userID int, uc *models.UserCourse) error {
	lessons, err := s.lessonRepo.GetOrderedByCourseID(ctx, uc.CourseID)
	if err != nil {
		return err
	}

	progressByLesson, err := s.progressRepo.GetByUserAndCourse(ctx, userID, uc.CourseID)
	if err != nil {
		return err
	}

	prevCompleted := true // lesson 0 is always unlocked
	allCompleted := len(lessons) > 0
	var nextLessonID *int

	for _, lesson := range lessons {
		row := progressByLesson[lesson.ID]
		if row == nil {
			row = &models.UserLessonProgress{
				UserID:     userID,
				LessonID:   lesson.ID,
				IsUnlocked: prevCompleted,
			}
			if err := s.progressRepo.Create(ctx, row); err != nil {
				return err
			}
			progressByLesson[lesson.ID] = row
		} else if prevCompleted && !row.IsUnlocked {
			row.IsUnlocked = true
			if err := s.progressRepo.Update(ctx, row); err != nil {
				return err
			}
		}

		if nextLessonID == nil && row.IsUnlocked && !row.IsCompleted {
			id := lesson.ID
			nextLessonID = &id
		}
		if !row.IsCompleted {
			allCompleted = false
		}
		prevCompleted = row.IsCompleted
	}

	if nextLessonID == nil && allCompleted {
		now := s.clock.UtcNow()
		uc.IsCompleted = true
		uc.IsActive = false
		uc.CompletedAt = &now
		uc.LastLessonID = nil
		s.logger.Info("course completed",
			zap.Int("user_id", userID),
			zap.Int("course_id", uc.CourseID),
		)
	} else {
		uc.LastLessonID = nextLessonID
	}

	return s.userCourseRepo.Update(ctx, uc)
}

// GetCourseProgress summarizes the user's progress in a course
func (s *progressService) GetCourseProgress(ctx context.Context, userID, courseID int) (*models.CourseProgressResponse, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	lessons, err := s.lessonRepo.GetOrderedByCourseID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons: %w", err)
	}

	progressByLesson, err := s.progressRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress rows: %w", err)
	}

	uc, err := s.userCourseRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user course: %w", err)
	}

	response := &models.CourseProgressResponse{
		CourseID:     courseID,
		TotalLessons: len(lessons),
		Status:       models.CourseStatusNotStarted,
	}

	for _, lesson := range lessons {
		row := progressByLesson[lesson.ID]
		if row == nil {
			continue
		}
		if row.IsCompleted {
			response.CompletedLessons++
		} else if response.NextLessonID == nil && row.IsUnlocked {
			id := lesson.ID
			response.NextLessonID = &id
		}
	}

	if response.TotalLessons > 0 {
		response.CompletionPercent = response.CompletedLessons * 100 / response.TotalLessons
	}

	if uc != nil {
		response.StartedAt = &uc.StartedAt
		response.CompletedAt = uc.CompletedAt
		if uc.IsCompleted {
			response.Status = models.CourseStatusCompleted
		} else {
			response.Status = models.CourseStatusInProgress
		}
	}

	return response, nil
}
