package services

import (
	"context"
	"testing"
	"time"

	"github.com/lingopath/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

type nextActivityFixture struct {
	service        *nextActivityService
	userCourseRepo *mockUserCourseRepository
	userVocabRepo  *mockUserVocabularyRepository
	lessonRepo     *mockLessonRepository
	progressRepo   *mockProgressRepository
	sceneRepo      *mockSceneRepository
	attemptRepo    *mockAttemptRepository
	clock          *fakeClock
}

func newNextActivityFixture() *nextActivityFixture {
	f := &nextActivityFixture{
		userCourseRepo: &mockUserCourseRepository{},
		userVocabRepo:  &mockUserVocabularyRepository{items: map[int]models.VocabularyItem{}},
		lessonRepo: &mockLessonRepository{lessons: []models.Lesson{
			{ID: 1, TopicID: 1, CourseID: 1, Title: "Greetings", Order: 1},
			{ID: 2, TopicID: 1, CourseID: 1, Title: "Numbers", Order: 2},
		}},
		progressRepo: &mockProgressRepository{lessonCourse: map[int]int{1: 1, 2: 1}},
		sceneRepo: &mockSceneRepository{scenes: []models.Scene{
			{ID: 1, CourseID: intPtr(1), Order: 1, Title: "At the cafe", Type: "dialogue"},
		}},
		attemptRepo: &mockAttemptRepository{},
		clock:       &fakeClock{now: time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)},
	}
	f.service = NewNextActivityService(
		f.userCourseRepo, f.userVocabRepo, f.lessonRepo, f.progressRepo,
		f.sceneRepo, f.attemptRepo, f.clock, 3,
	)
	return f
}

func (f *nextActivityFixture) startCourse(t *testing.T) {
	t.Helper()
	err := f.userCourseRepo.Create(context.Background(), &models.UserCourse{
		UserID: 1, CourseID: 1, IsActive: true,
		StartedAt: f.clock.now, LastOpenedAt: f.clock.now,
	})
	assert.NoError(t, err)
}

func (f *nextActivityFixture) addDueWord(t *testing.T) int {
	t.Helper()
	row := &models.UserVocabulary{
		UserID: 1, VocabularyItemID: 1,
		AddedAt: f.clock.now.Add(-time.Hour), NextReviewAt: f.clock.now.Add(-time.Hour),
	}
	assert.NoError(t, f.userVocabRepo.Create(context.Background(), row))
	f.userVocabRepo.items[1] = models.VocabularyItem{ID: 1, Word: "perro", Translation: "dog"}
	return row.ID
}

func (f *nextActivityFixture) passLesson(t *testing.T, lessonID int) {
	t.Helper()
	assert.NoError(t, f.progressRepo.Create(context.Background(), &models.UserLessonProgress{
		UserID: 1, LessonID: lessonID, IsUnlocked: true, IsCompleted: true, BestScore: 5,
	}))
}

func TestGetNextNoActiveCourse(t *testing.T) {
	f := newNextActivityFixture()

	next, err := f.service.GetNext(context.Background(), 1)
	assert.NoError(t, err)
	assert.Empty(t, next.Type)
	assert.Nil(t, next.CourseID)
}

func TestGetNextPriorityWalk(t *testing.T) {
	f := newNextActivityFixture()
	ctx := context.Background()
	f.startCourse(t)

	// Unlock the first lesson and add a due word: vocabulary wins.
	assert.NoError(t, f.progressRepo.Create(ctx, &models.UserLessonProgress{UserID: 1, LessonID: 1, IsUnlocked: true}))
	wordID := f.addDueWord(t)

	next, err := f.service.GetNext(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.ActivityVocabularyReview, next.Type)
	assert.Equal(t, wordID, *next.UserVocabularyID)

	// Word reviewed away: the open lesson is next.
	f.userVocabRepo.rows[0].NextReviewAt = f.clock.now.Add(24 * time.Hour)
	next, err = f.service.GetNext(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.ActivityLesson, next.Type)
	assert.Equal(t, 1, *next.LessonID)

	// All lessons passed: the unlocked scene is next.
	f.progressRepo.rows = nil
	f.passLesson(t, 1)
	f.passLesson(t, 2)
	next, err = f.service.GetNext(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.ActivityScene, next.Type)
	assert.Equal(t, 1, *next.SceneID)

	// Scene completed too: the course is done.
	now := f.clock.now
	assert.NoError(t, f.attemptRepo.Upsert(ctx, &models.SceneAttempt{
		UserID: 1, SceneID: 1, IsCompleted: true, CompletedAt: &now,
	}))
	next, err = f.service.GetNext(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.ActivityCourseComplete, next.Type)
	assert.Equal(t, 1, *next.CourseID)
}

func TestGetNextSkipsLockedScenes(t *testing.T) {
	f := newNextActivityFixture()
	ctx := context.Background()
	f.startCourse(t)
	f.sceneRepo.scenes = append(f.sceneRepo.scenes, models.Scene{
		ID: 2, CourseID: intPtr(1), Order: 2, Title: "At the market", Type: "dialogue",
	})

	// Both lessons passed unlocks position 1 but not position 2
	// (which needs three passed lessons); position 1 already completed.
	f.passLesson(t, 1)
	f.passLesson(t, 2)
	now := f.clock.now
	assert.NoError(t, f.attemptRepo.Upsert(ctx, &models.SceneAttempt{
		UserID: 1, SceneID: 1, IsCompleted: true, CompletedAt: &now,
	}))

	next, err := f.service.GetNext(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.ActivityCourseComplete, next.Type, "a locked scene is never suggested")
}
