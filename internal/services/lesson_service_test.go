package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lingopath/backend/internal/apperrors"
	"github.com/lingopath/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type lessonFixture struct {
	service      *lessonService
	lessonRepo   *mockLessonRepository
	exerciseRepo *mockExerciseRepository
	resultRepo   *mockResultRepository
	progressRepo *mockProgressRepository
	ledger       *noopLedger
	evaluator    *noopEvaluator
	clock        *fakeClock
}

func newLessonFixture() *lessonFixture {
	f := &lessonFixture{
		lessonRepo: &mockLessonRepository{lessons: []models.Lesson{
			{ID: 1, TopicID: 1, CourseID: 1, Title: "Greetings", Order: 1},
		}},
		exerciseRepo: &mockExerciseRepository{exercises: []models.Exercise{
			{ID: 11, LessonID: 1, Type: models.ExerciseTypeInput, CorrectAnswer: "hola", Order: 1},
			{ID: 12, LessonID: 1, Type: models.ExerciseTypeInput, CorrectAnswer: "adios", Order: 2},
			{ID: 13, LessonID: 1, Type: models.ExerciseTypeMultipleChoice, CorrectAnswer: "gracias", Order: 3},
			{ID: 14, LessonID: 1, Type: models.ExerciseTypeInput, CorrectAnswer: "buenos dias", Order: 4},
			{ID: 15, LessonID: 1, Type: models.ExerciseTypeInput, CorrectAnswer: "buenas noches", Order: 5},
		}},
		resultRepo: &mockResultRepository{},
		progressRepo: &mockProgressRepository{
			rows:         []*models.UserLessonProgress{{ID: 1, UserID: 1, LessonID: 1, IsUnlocked: true}},
			lessonCourse: map[int]int{1: 1},
			nextID:       1,
		},
		ledger:    &noopLedger{},
		evaluator: &noopEvaluator{},
		clock:     &fakeClock{now: time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)},
	}
	f.service = NewLessonService(
		f.lessonRepo, f.exerciseRepo, f.resultRepo, f.progressRepo,
		f.ledger, f.evaluator, &mockTransactor{}, f.clock, 80, zap.NewNop(),
	)
	return f
}

func allCorrectAnswers() []models.AnswerSubmission {
	return []models.AnswerSubmission{
		{ExerciseID: 11, Answer: "hola"},
		{ExerciseID: 12, Answer: "adios"},
		{ExerciseID: 13, Answer: "gracias"},
		{ExerciseID: 14, Answer: "buenos dias"},
		{ExerciseID: 15, Answer: "buenas noches"},
	}
}

func TestSubmitLessonPassing(t *testing.T) {
	f := newLessonFixture()
	answers := allCorrectAnswers()
	answers[4].Answer = "wrong" // 4 of 5 is exactly 80%

	result, err := f.service.SubmitLesson(context.Background(), 1, 1, models.SubmitLessonRequest{Answers: answers})

	assert.NoError(t, err)
	assert.Equal(t, 5, result.TotalExercises)
	assert.Equal(t, 4, result.CorrectAnswers)
	assert.True(t, result.IsPassed)
	assert.Equal(t, []int{15}, result.MistakeExerciseIDs)
	assert.Len(t, f.resultRepo.results, 1)
	assert.Equal(t, 1, f.ledger.calls)
	assert.True(t, f.ledger.lastPassed)
	assert.Equal(t, 1, f.evaluator.calls)
}

func TestSubmitLessonFailing(t *testing.T) {
	f := newLessonFixture()
	answers := allCorrectAnswers()
	answers[3].Answer = "no"
	answers[4].Answer = "no"

	result, err := f.service.SubmitLesson(context.Background(), 1, 1, models.SubmitLessonRequest{Answers: answers})

	assert.NoError(t, err)
	assert.Equal(t, 3, result.CorrectAnswers)
	assert.False(t, result.IsPassed)
	assert.Equal(t, []int{14, 15}, result.MistakeExerciseIDs)
	assert.False(t, f.ledger.lastPassed)
}

func TestSubmitLessonMissingAnswerCountsWrong(t *testing.T) {
	f := newLessonFixture()
	answers := allCorrectAnswers()[:4] // exercise 15 left unanswered

	result, err := f.service.SubmitLesson(context.Background(), 1, 1, models.SubmitLessonRequest{Answers: answers})

	assert.NoError(t, err)
	assert.Equal(t, 5, result.TotalExercises)
	assert.Equal(t, 4, result.CorrectAnswers)
	assert.Equal(t, []int{15}, result.MistakeExerciseIDs)
}

func TestSubmitLessonValidation(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()

	_, err := f.service.SubmitLesson(ctx, 1, 1, models.SubmitLessonRequest{})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = f.service.SubmitLesson(ctx, 1, 0, models.SubmitLessonRequest{Answers: allCorrectAnswers()})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = f.service.SubmitLesson(ctx, 1, 1, models.SubmitLessonRequest{Answers: []models.AnswerSubmission{
		{ExerciseID: 999, Answer: "hola"},
	}})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = f.service.SubmitLesson(ctx, 1, 99, models.SubmitLessonRequest{Answers: allCorrectAnswers()})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSubmitLessonIdempotent(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()
	req := models.SubmitLessonRequest{Answers: allCorrectAnswers(), IdempotencyKey: "key-1"}

	first, err := f.service.SubmitLesson(ctx, 1, 1, req)
	assert.NoError(t, err)

	// Replay with different answers under the same key: the stored
	// outcome comes back and nothing is regraded or restored.
	replayed := models.SubmitLessonRequest{
		Answers:        []models.AnswerSubmission{{ExerciseID: 11, Answer: "totally wrong"}},
		IdempotencyKey: "key-1",
	}
	second, err := f.service.SubmitLesson(ctx, 1, 1, replayed)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, f.resultRepo.results, 1)
	assert.Equal(t, 1, f.ledger.calls)
}

func TestSubmitLessonKeyBoundToLesson(t *testing.T) {
	f := newLessonFixture()
	f.lessonRepo.lessons = append(f.lessonRepo.lessons, models.Lesson{ID: 2, TopicID: 1, CourseID: 1, Title: "Numbers", Order: 2})
	ctx := context.Background()

	_, err := f.service.SubmitLesson(ctx, 1, 1, models.SubmitLessonRequest{Answers: allCorrectAnswers(), IdempotencyKey: "key-1"})
	assert.NoError(t, err)

	_, err = f.service.SubmitLesson(ctx, 1, 2, models.SubmitLessonRequest{Answers: allCorrectAnswers(), IdempotencyKey: "key-1"})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestRetryLessonMistakes(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()

	answers := allCorrectAnswers()
	answers[3].Answer = "no"
	answers[4].Answer = "no"
	first, err := f.service.SubmitLesson(ctx, 1, 1, models.SubmitLessonRequest{Answers: answers})
	assert.NoError(t, err)
	assert.False(t, first.IsPassed)

	retried, err := f.service.RetryLessonMistakes(ctx, 1, 1, models.RetryMistakesRequest{
		Answers: []models.AnswerSubmission{
			{ExerciseID: 14, Answer: "buenos dias"},
			{ExerciseID: 15, Answer: "buenas noches"},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 5, retried.CorrectAnswers)
	assert.True(t, retried.IsPassed)
	assert.Empty(t, retried.MistakeExerciseIDs)
	assert.Len(t, f.resultRepo.results, 1, "replay mutates the attempt in place")
	assert.True(t, f.ledger.lastPassed)
}

func TestRetryLessonMistakesNeverFlipsCorrect(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()

	answers := allCorrectAnswers()
	answers[4].Answer = "no"
	_, err := f.service.SubmitLesson(ctx, 1, 1, models.SubmitLessonRequest{Answers: answers})
	assert.NoError(t, err)

	// A wrong answer for an already-correct item and an answer for an
	// untracked item are both ignored.
	retried, err := f.service.RetryLessonMistakes(ctx, 1, 1, models.RetryMistakesRequest{
		Answers: []models.AnswerSubmission{
			{ExerciseID: 11, Answer: "garbage"},
			{ExerciseID: 999, Answer: "garbage"},
			{ExerciseID: 15, Answer: "still wrong"},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 4, retried.CorrectAnswers)
	assert.Equal(t, []int{15}, retried.MistakeExerciseIDs)
}

func TestRetryLessonMistakesIdempotent(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()

	answers := allCorrectAnswers()
	answers[4].Answer = "no"
	_, err := f.service.SubmitLesson(ctx, 1, 1, models.SubmitLessonRequest{Answers: answers})
	assert.NoError(t, err)

	req := models.RetryMistakesRequest{
		Answers:        []models.AnswerSubmission{{ExerciseID: 15, Answer: "buenas noches"}},
		IdempotencyKey: "retry-1",
	}
	first, err := f.service.RetryLessonMistakes(ctx, 1, 1, req)
	assert.NoError(t, err)

	req.Answers = []models.AnswerSubmission{{ExerciseID: 15, Answer: "different"}}
	second, err := f.service.RetryLessonMistakes(ctx, 1, 1, req)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRetryLessonMistakesWithoutAttempt(t *testing.T) {
	f := newLessonFixture()

	_, err := f.service.RetryLessonMistakes(context.Background(), 1, 1, models.RetryMistakesRequest{
		Answers: []models.AnswerSubmission{{ExerciseID: 11, Answer: "hola"}},
	})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGetLessonLocked(t *testing.T) {
	f := newLessonFixture()
	ctx := context.Background()

	// no ledger row at all
	_, err := f.service.GetLesson(ctx, 2, 1)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	// row present but still locked
	f.progressRepo.Create(ctx, &models.UserLessonProgress{UserID: 2, LessonID: 1, IsUnlocked: false})
	_, err = f.service.GetLesson(ctx, 2, 1)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	detail, err := f.service.GetLesson(ctx, 1, 1)
	assert.NoError(t, err)
	assert.Len(t, detail.Exercises, 5)
}

func TestSubmitLessonLocked(t *testing.T) {
	f := newLessonFixture()
	f.lessonRepo.lessons = append(f.lessonRepo.lessons, models.Lesson{ID: 2, TopicID: 1, CourseID: 1, Title: "Numbers", Order: 2})
	ctx := context.Background()
	answers := []models.AnswerSubmission{{ExerciseID: 21, Answer: "uno"}}

	// no ledger row: the lesson was never reached through the course
	_, err := f.service.SubmitLesson(ctx, 1, 2, models.SubmitLessonRequest{Answers: answers})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	// a locked row is just as closed
	f.progressRepo.Create(ctx, &models.UserLessonProgress{UserID: 1, LessonID: 2, IsUnlocked: false})
	_, err = f.service.SubmitLesson(ctx, 1, 2, models.SubmitLessonRequest{Answers: answers})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	assert.Empty(t, f.resultRepo.results, "locked submission must not store an attempt")
	assert.Equal(t, 0, f.ledger.calls, "locked submission must not advance the ledger")
}

func TestRetryLessonMistakesLocked(t *testing.T) {
	f := newLessonFixture()
	f.lessonRepo.lessons = append(f.lessonRepo.lessons, models.Lesson{ID: 2, TopicID: 1, CourseID: 1, Title: "Numbers", Order: 2})
	f.progressRepo.Create(context.Background(), &models.UserLessonProgress{UserID: 1, LessonID: 2, IsUnlocked: false})

	_, err := f.service.RetryLessonMistakes(context.Background(), 1, 2, models.RetryMistakesRequest{
		Answers: []models.AnswerSubmission{{ExerciseID: 21, Answer: "uno"}},
	})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.Equal(t, 0, f.ledger.calls)
}
