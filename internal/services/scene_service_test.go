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

type sceneFixture struct {
	service      *sceneService
	sceneRepo    *mockSceneRepository
	attemptRepo  *mockAttemptRepository
	progressRepo *mockProgressRepository
	evaluator    *noopEvaluator
	clock        *fakeClock
}

func intPtr(v int) *int { return &v }

func newSceneFixture() *sceneFixture {
	f := &sceneFixture{
		sceneRepo: &mockSceneRepository{
			scenes: []models.Scene{
				{ID: 1, CourseID: intPtr(1), Order: 1, Title: "At the cafe", Type: "dialogue"},
				{ID: 2, CourseID: intPtr(1), Order: 2, Title: "At the market", Type: "dialogue"},
			},
			steps: []models.SceneStep{
				{ID: 101, SceneID: 1, Order: 1, Speaker: "Ana", Text: "Hola!", StepType: "line"},
				{ID: 102, SceneID: 1, Order: 2, Text: "How do you greet back?", StepType: "question",
					ChoicesJSON: `[{"text":"Hola","isCorrect":true},{"text":"Adios","isCorrect":false}]`},
				{ID: 103, SceneID: 1, Order: 3, Text: "And to say thanks?", StepType: "question",
					ChoicesJSON: `[{"text":"Gracias","isCorrect":true},{"text":"Por favor","isCorrect":false}]`},
			},
		},
		attemptRepo:  &mockAttemptRepository{},
		progressRepo: &mockProgressRepository{lessonCourse: map[int]int{1: 1, 2: 1, 3: 1, 4: 1, 5: 1, 6: 1}},
		evaluator:    &noopEvaluator{},
		clock:        &fakeClock{now: time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)},
	}
	f.service = NewSceneService(
		f.sceneRepo, f.attemptRepo, f.progressRepo, f.evaluator,
		&mockTransactor{}, f.clock, 3, zap.NewNop(),
	)
	return f
}

// passLessons marks n lessons of course 1 as completed for user 1
func (f *sceneFixture) passLessons(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		err := f.progressRepo.Create(context.Background(), &models.UserLessonProgress{
			UserID: 1, LessonID: i, IsUnlocked: true, IsCompleted: true, BestScore: 5,
		})
		assert.NoError(t, err)
	}
}

func TestGetScenesUnlockByPosition(t *testing.T) {
	f := newSceneFixture()
	f.passLessons(t, 3)

	scenes, err := f.service.GetScenes(context.Background(), 1, 1)
	assert.NoError(t, err)
	assert.Len(t, scenes, 2)

	assert.Equal(t, 1, scenes[0].Position)
	assert.Equal(t, 0, scenes[0].RequiredLessons)
	assert.True(t, scenes[0].IsUnlocked)

	assert.Equal(t, 2, scenes[1].Position)
	assert.Equal(t, 3, scenes[1].RequiredLessons)
	assert.True(t, scenes[1].IsUnlocked)
}

// Sparse order values rank the same as dense ones: requirements come from
// the position in the ranked list, never from the raw order numbers.
func TestGetScenesSparseOrderEqualsDense(t *testing.T) {
	f := newSceneFixture()
	f.sceneRepo.scenes = []models.Scene{
		{ID: 1, CourseID: intPtr(1), Order: 10, Title: "First", Type: "dialogue"},
		{ID: 2, CourseID: intPtr(1), Order: 20, Title: "Second", Type: "dialogue"},
	}

	scenes, err := f.service.GetScenes(context.Background(), 1, 1)
	assert.NoError(t, err)
	assert.Equal(t, 0, scenes[0].RequiredLessons)
	assert.Equal(t, 3, scenes[1].RequiredLessons)
}

func TestGetScenesUnorderedRankLast(t *testing.T) {
	f := newSceneFixture()
	f.sceneRepo.scenes = []models.Scene{
		{ID: 5, CourseID: intPtr(1), Order: 0, Title: "Unordered", Type: "dialogue"},
		{ID: 2, CourseID: intPtr(1), Order: 1, Title: "Ordered", Type: "dialogue"},
	}

	scenes, err := f.service.GetScenes(context.Background(), 1, 1)
	assert.NoError(t, err)
	assert.Equal(t, "Ordered", scenes[0].Title)
	assert.Equal(t, "Unordered", scenes[1].Title)
}

func TestGetSceneLockedAndNotFound(t *testing.T) {
	f := newSceneFixture()
	ctx := context.Background()

	_, err := f.service.GetScene(ctx, 1, 2)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden), "second scene needs three passed lessons")

	_, err = f.service.GetScene(ctx, 1, 99)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	detail, err := f.service.GetScene(ctx, 1, 1)
	assert.NoError(t, err)
	assert.Len(t, detail.Steps, 3)
	assert.Empty(t, detail.Steps[0].Choices, "narrative step has no choices")
	assert.Equal(t, []string{"Hola", "Adios"}, detail.Steps[1].Choices)
}

func TestSceneWithoutCourseNeverUnlocks(t *testing.T) {
	f := newSceneFixture()
	f.sceneRepo.scenes = append(f.sceneRepo.scenes, models.Scene{ID: 7, CourseID: nil, Title: "Orphan", Type: "dialogue"})

	_, err := f.service.GetScene(context.Background(), 1, 7)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestSubmitSceneCompletion(t *testing.T) {
	f := newSceneFixture()
	ctx := context.Background()

	result, err := f.service.SubmitScene(ctx, 1, 1, models.SubmitSceneRequest{
		Answers: []models.StepAnswerSubmission{
			{StepID: 102, Answer: "Hola"},
			{StepID: 103, Answer: "Gracias"},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, result.TotalQuestions)
	assert.Equal(t, 2, result.CorrectAnswers)
	assert.True(t, result.IsCompleted)
	assert.Empty(t, result.MistakeStepIDs)
	assert.Equal(t, 1, f.evaluator.calls)

	attempt, _ := f.attemptRepo.GetByUserAndScene(ctx, 1, 1)
	assert.True(t, attempt.IsCompleted)
	assert.NotNil(t, attempt.CompletedAt)
}

func TestSubmitScenePartial(t *testing.T) {
	f := newSceneFixture()

	result, err := f.service.SubmitScene(context.Background(), 1, 1, models.SubmitSceneRequest{
		Answers: []models.StepAnswerSubmission{
			{StepID: 102, Answer: "Hola"},
			{StepID: 103, Answer: "Por favor"},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.CorrectAnswers)
	assert.False(t, result.IsCompleted, "every question step must be correct")
	assert.Equal(t, []int{103}, result.MistakeStepIDs)
}

func TestSubmitSceneIdempotent(t *testing.T) {
	f := newSceneFixture()
	ctx := context.Background()
	req := models.SubmitSceneRequest{
		Answers:        []models.StepAnswerSubmission{{StepID: 102, Answer: "Hola"}, {StepID: 103, Answer: "Gracias"}},
		IdempotencyKey: "scene-key",
	}

	first, err := f.service.SubmitScene(ctx, 1, 1, req)
	assert.NoError(t, err)

	req.Answers = []models.StepAnswerSubmission{{StepID: 102, Answer: "Adios"}}
	second, err := f.service.SubmitScene(ctx, 1, 1, req)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, f.attemptRepo.attempts, 1)
}

func TestRetrySceneMistakes(t *testing.T) {
	f := newSceneFixture()
	ctx := context.Background()

	_, err := f.service.SubmitScene(ctx, 1, 1, models.SubmitSceneRequest{
		Answers: []models.StepAnswerSubmission{
			{StepID: 102, Answer: "Hola"},
			{StepID: 103, Answer: "Por favor"},
		},
	})
	assert.NoError(t, err)

	retried, err := f.service.RetrySceneMistakes(ctx, 1, 1, models.SubmitSceneRequest{
		Answers: []models.StepAnswerSubmission{
			{StepID: 102, Answer: "Adios"}, // already correct, ignored
			{StepID: 103, Answer: "Gracias"},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, retried.CorrectAnswers)
	assert.True(t, retried.IsCompleted)
	assert.Empty(t, retried.MistakeStepIDs)
}

func TestRetrySceneMistakesWithoutAttempt(t *testing.T) {
	f := newSceneFixture()

	_, err := f.service.RetrySceneMistakes(context.Background(), 1, 1, models.SubmitSceneRequest{
		Answers: []models.StepAnswerSubmission{{StepID: 102, Answer: "Hola"}},
	})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSubmitSceneValidation(t *testing.T) {
	f := newSceneFixture()
	ctx := context.Background()

	_, err := f.service.SubmitScene(ctx, 1, 0, models.SubmitSceneRequest{
		Answers: []models.StepAnswerSubmission{{StepID: 102, Answer: "Hola"}},
	})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	// An empty body must not record an all-wrong attempt
	_, err = f.service.SubmitScene(ctx, 1, 1, models.SubmitSceneRequest{})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Empty(t, f.attemptRepo.attempts)
}

func TestSubmitSceneLocked(t *testing.T) {
	f := newSceneFixture()

	_, err := f.service.SubmitScene(context.Background(), 1, 2, models.SubmitSceneRequest{
		Answers: []models.StepAnswerSubmission{{StepID: 999, Answer: "x"}},
	})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}
