package services

import (
	"context"
	"fmt"

	"github.com/lingopath/backend/internal/models"
)

// nextActivityService picks the single suggested next activity with a
// strict priority: due vocabulary, then the next lesson of the active
// course, then the next unlocked scene, then course completion
type nextActivityService struct {
	userCourseRepo     UserCourseRepository
	userVocabRepo      UserVocabularyRepository
	lessonRepo         LessonRepository
	progressRepo       UserLessonProgressRepository
	sceneRepo          SceneRepository
	attemptRepo        SceneAttemptRepository
	clock              Clock
	unlockEveryLessons int
}

// NewNextActivityService creates a new next-activity service
func NewNextActivityService(
	userCourseRepo UserCourseRepository,
	userVocabRepo UserVocabularyRepository,
	lessonRepo LessonRepository,
	progressRepo UserLessonProgressRepository,
	sceneRepo SceneRepository,
	attemptRepo SceneAttemptRepository,
	clock Clock,
	unlockEveryLessons int,
) *nextActivityService {
	if unlockEveryLessons <= 0 {
		unlockEveryLessons = 3
	}
	return &nextActivityService{
		userCourseRepo:     userCourseRepo,
		userVocabRepo:      userVocabRepo,
		lessonRepo:         lessonRepo,
		progressRepo:       progressRepo,
		sceneRepo:          sceneRepo,
		attemptRepo:        attemptRepo,
		clock:              clock,
		unlockEveryLessons: unlockEveryLessons,
	}
}

// GetNext resolves the suggestion fresh from the ledgers. No active
// course yields an empty response.
func (s *nextActivityService) GetNext(ctx context.Context, userID int) (*models.NextActivityResponse, error) {
	uc, err := s.userCourseRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active course: %w", err)
	}
	if uc == nil {
		return &models.NextActivityResponse{}, nil
	}
	courseID := uc.CourseID

	due, err := s.userVocabRepo.GetDue(ctx, userID, s.clock.UtcNow(), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to get due words: %w", err)
	}
	if len(due) > 0 {
		id := due[0].UserVocabularyID
		return &models.NextActivityResponse{
			Type:             models.ActivityVocabularyReview,
			CourseID:         &courseID,
			UserVocabularyID: &id,
		}, nil
	}

	lessons, err := s.lessonRepo.GetOrderedByCourseID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons: %w", err)
	}
	progressByLesson, err := s.progressRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress rows: %w", err)
	}
	for _, lesson := range lessons {
		row := progressByLesson[lesson.ID]
		if row != nil && row.IsUnlocked && !row.IsCompleted {
			id := lesson.ID
			return &models.NextActivityResponse{
				Type:     models.ActivityLesson,
				CourseID: &courseID,
				LessonID: &id,
			}, nil
		}
	}

	scenes, err := s.sceneRepo.GetByCourseIDRanked(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scenes: %w", err)
	}
	if len(scenes) > 0 {
		passedLessons, err := s.progressRepo.CountCompletedByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			return nil, fmt.Errorf("failed to count passed lessons: %w", err)
		}
		completed, err := s.attemptRepo.GetCompletedSceneIDsByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get completed scenes: %w", err)
		}
		for i, scene := range scenes {
			if completed[scene.ID] {
				continue
			}
			if passedLessons < i*s.unlockEveryLessons {
				break // later positions need even more lessons
			}
			id := scene.ID
			return &models.NextActivityResponse{
				Type:     models.ActivityScene,
				CourseID: &courseID,
				SceneID:  &id,
			}, nil
		}
	}

	return &models.NextActivityResponse{
		Type:     models.ActivityCourseComplete,
		CourseID: &courseID,
	}, nil
}
