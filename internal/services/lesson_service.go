package services

import (
	"context"
	"fmt"

	"github.com/lingopath/backend/internal/apperrors"
	"github.com/lingopath/backend/internal/models"
	"go.uber.org/zap"
)

// ExerciseRepository defines methods for exercise data access
type ExerciseRepository interface {
	// GetByLessonID retrieves the exercises of a lesson in display order
	GetByLessonID(ctx context.Context, lessonID int) ([]models.Exercise, error)
}

// LessonResultRepository defines methods for stored lesson attempts
type LessonResultRepository interface {
	// GetByIdempotencyKey retrieves the attempt stored under a submit key,
	// nil when absent
	GetByIdempotencyKey(ctx context.Context, userID int, key string) (*models.LessonResult, error)
	// GetByMistakesKey retrieves the attempt last replayed under a key,
	// nil when absent
	GetByMistakesKey(ctx context.Context, userID int, key string) (*models.LessonResult, error)
	// GetLatestByUserAndLesson retrieves the most recent attempt, nil when absent
	GetLatestByUserAndLesson(ctx context.Context, userID, lessonID int) (*models.LessonResult, error)
	// Create inserts a new attempt
	Create(ctx context.Context, result *models.LessonResult) error
	// UpdateDetails rewrites an attempt's score, details and replay key
	UpdateDetails(ctx context.Context, result *models.LessonResult) error
	// GetAllByUser retrieves every attempt of the user
	GetAllByUser(ctx context.Context, userID int) ([]models.LessonResult, error)
}

// ProgressLedger applies graded lesson outcomes to the unlock ledger
type ProgressLedger interface {
	AdvanceAfterLesson(ctx context.Context, userID int, lesson *models.Lesson, score int, passed bool) error
}

// AchievementEvaluator re-checks badge predicates after progress changes
type AchievementEvaluator interface {
	EvaluateForUser(ctx context.Context, userID int) error
}

// lessonService grades lesson submissions and mistake replays
type lessonService struct {
	lessonRepo     LessonRepository
	exerciseRepo   ExerciseRepository
	resultRepo     LessonResultRepository
	progressRepo   UserLessonProgressRepository
	ledger         ProgressLedger
	achievements   AchievementEvaluator
	transactor     Transactor
	clock          Clock
	passingPercent int
	logger         *zap.Logger
}

// NewLessonService creates a new lesson service
func NewLessonService(
	lessonRepo LessonRepository,
	exerciseRepo ExerciseRepository,
	resultRepo LessonResultRepository,
	progressRepo UserLessonProgressRepository,
	ledger ProgressLedger,
	achievements AchievementEvaluator,
	transactor Transactor,
	clock Clock,
	passingPercent int,
	logger *zap.Logger,
) *lessonService {
	return &lessonService{
		lessonRepo:     lessonRepo,
		exerciseRepo:   exerciseRepo,
		resultRepo:     resultRepo,
		progressRepo:   progressRepo,
		ledger:         ledger,
		achievements:   achievements,
		transactor:     transactor,
		clock:          clock,
		passingPercent: NormalizePassingPercent(passingPercent),
		logger:         logger,
	}
}

// GetLesson retrieves an unlocked lesson with its exercises, correct
// answers stripped
func (s *lessonService) GetLesson(ctx context.Context, userID, lessonID int) (*models.LessonDetailResponse, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	if err := s.requireUnlocked(ctx, userID, lessonID); err != nil {
		return nil, err
	}

	exercises, err := s.exerciseRepo.GetByLessonID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercises: %w", err)
	}

	detail := &models.LessonDetailResponse{ID: lesson.ID, Title: lesson.Title}
	for _, exercise := range exercises {
		detail.Exercises = append(detail.Exercises, models.ExerciseResponse{
			ID:       exercise.ID,
			Type:     exercise.Type,
			Question: exercise.Question,
			Data:     exercise.Data,
			Order:    exercise.Order,
		})
	}
	return detail, nil
}

// requireUnlocked checks the ledger row of the lesson for the user.
// Lessons without a row have not been reached through course progression.
func (s *lessonService) requireUnlocked(ctx context.Context, userID, lessonID int) error {
	row, err := s.progressRepo.GetByUserAndLesson(ctx, userID, lessonID)
	if err != nil {
		return fmt.Errorf("failed to get lesson progress: %w", err)
	}
	if row == nil || !row.IsUnlocked {
		return apperrors.Forbiddenf("lesson %d is locked", lessonID)
	}
	return nil
}

// SubmitLesson grades a full attempt against the lesson's exercises,
// stores it and advances the unlock ledger in one transaction. Repeating
// an idempotency key replays the stored outcome without regrading.
func (s *lessonService) SubmitLesson(ctx context.Context, userID, lessonID int, req models.SubmitLessonRequest) (*models.SubmitLessonResponse, error) {
	if lessonID <= 0 {
		return nil, apperrors.Validationf("lesson id must be positive")
	}
	if len(req.Answers) == 0 {
		return nil, apperrors.Validationf("answers must not be empty")
	}

	if req.IdempotencyKey != "" {
		stored, err := s.resultRepo.GetByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if stored != nil {
			if stored.LessonID != lessonID {
				return nil, apperrors.Validationf("idempotency key was used for a different lesson")
			}
			return resultToResponse(stored, s.passingPercent), nil
		}
	}

	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if err := s.requireUnlocked(ctx, userID, lessonID); err != nil {
		return nil, err
	}

	exercises, err := s.exerciseRepo.GetByLessonID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercises: %w", err)
	}
	if len(exercises) == 0 {
		return nil, apperrors.Validationf("lesson %d has no exercises", lessonID)
	}

	answerByExercise := make(map[int]string, len(req.Answers))
	for _, submitted := range req.Answers {
		if _, dup := answerByExercise[submitted.ExerciseID]; dup {
			return nil, apperrors.Validationf("duplicate answer for exercise %d", submitted.ExerciseID)
		}
		answerByExercise[submitted.ExerciseID] = submitted.Answer
	}

	// Every exercise is graded; a missing answer counts as wrong
	details := models.ResultDetails{}
	for _, exercise := range exercises {
		userAnswer, answered := answerByExercise[exercise.ID]
		if !answered {
			details.Answers = append(details.Answers, models.AnswerDetail{
				ItemID:        exercise.ID,
				CorrectAnswer: exercise.CorrectAnswer,
			})
			continue
		}
		delete(answerByExercise, exercise.ID)
		details.Answers = append(details.Answers, models.AnswerDetail{
			ItemID:        exercise.ID,
			UserAnswer:    userAnswer,
			CorrectAnswer: exercise.CorrectAnswer,
			IsCorrect:     gradeAnswer(exercise.Type, exercise.CorrectAnswer, userAnswer),
		})
	}
	for exerciseID := range answerByExercise {
		return nil, apperrors.Validationf("exercise %d does not belong to lesson %d", exerciseID, lessonID)
	}

	score, mistakeIDs, _ := summarizeDetails(details)
	details.MistakeIDs = mistakeIDs
	passed := IsPassed(score, len(exercises), s.passingPercent)

	detailsJSON, err := encodeResultDetails(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result details: %w", err)
	}

	result := &models.LessonResult{
		UserID:         userID,
		LessonID:       lessonID,
		Score:          score,
		TotalQuestions: len(exercises),
		CompletedAt:    s.clock.UtcNow(),
		DetailsJSON:    detailsJSON,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		result.IdempotencyKey = &key
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.resultRepo.Create(ctx, result); err != nil {
			return err
		}
		if err := s.ledger.AdvanceAfterLesson(ctx, userID, lesson, score, passed); err != nil {
			return err
		}
		return s.achievements.EvaluateForUser(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store lesson result: %w", err)
	}

	s.logger.Info("lesson submitted",
		zap.Int("user_id", userID),
		zap.Int("lesson_id", lessonID),
		zap.Int("score", score),
		zap.Bool("passed", passed),
	)

	return &models.SubmitLessonResponse{
		TotalExercises:     len(exercises),
		CorrectAnswers:     score,
		IsPassed:           passed,
		MistakeExerciseIDs: mistakeIDs,
		Answers:            details.Answers,
	}, nil
}

// RetryLessonMistakes regrades only the currently-wrong items of the
// user's latest attempt. Correct answers never flip back; the merged
// detail replaces the stored one and the ledger advances when the
// recomputed aggregate passes.
func (s *lessonService) RetryLessonMistakes(ctx context.Context, userID, lessonID int, req models.RetryMistakesRequest) (*models.SubmitLessonResponse, error) {
	if lessonID <= 0 {
		return nil, apperrors.Validationf("lesson id must be positive")
	}
	if len(req.Answers) == 0 {
		return nil, apperrors.Validationf("answers must not be empty")
	}

	if req.IdempotencyKey != "" {
		stored, err := s.resultRepo.GetByMistakesKey(ctx, userID, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if stored != nil {
			if stored.LessonID != lessonID {
				return nil, apperrors.Validationf("idempotency key was used for a different lesson")
			}
			return resultToResponse(stored, s.passingPercent), nil
		}
	}

	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if err := s.requireUnlocked(ctx, userID, lessonID); err != nil {
		return nil, err
	}

	result, err := s.resultRepo.GetLatestByUserAndLesson(ctx, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest result: %w", err)
	}
	if result == nil {
		return nil, apperrors.NotFoundf("no attempt to retry for lesson %d", lessonID)
	}

	exercises, err := s.exerciseRepo.GetByLessonID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercises: %w", err)
	}
	exerciseByID := make(map[int]models.Exercise, len(exercises))
	for _, exercise := range exercises {
		exerciseByID[exercise.ID] = exercise
	}

	answerByItem := make(map[int]string, len(req.Answers))
	for _, submitted := range req.Answers {
		answerByItem[submitted.ExerciseID] = submitted.Answer
	}

	// Regrade only items that are still wrong; answers for untracked or
	// already-correct items are ignored
	details := parseResultDetails(result.DetailsJSON)
	for i, answer := range details.Answers {
		if answer.IsCorrect {
			continue
		}
		userAnswer, answered := answerByItem[answer.ItemID]
		if !answered {
			continue
		}
		details.Answers[i].UserAnswer = userAnswer
		if exercise, ok := exerciseByID[answer.ItemID]; ok {
			details.Answers[i].IsCorrect = gradeAnswer(exercise.Type, exercise.CorrectAnswer, userAnswer)
		} else {
			// content changed since the attempt; fall back to the recorded answer
			details.Answers[i].IsCorrect = normalizeAnswer(userAnswer) == normalizeAnswer(answer.CorrectAnswer)
		}
	}

	score, mistakeIDs, _ := summarizeDetails(details)
	details.MistakeIDs = mistakeIDs
	passed := IsPassed(score, result.TotalQuestions, s.passingPercent)

	detailsJSON, err := encodeResultDetails(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result details: %w", err)
	}

	result.Score = score
	result.DetailsJSON = detailsJSON
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		result.MistakesIdempotencyKey = &key
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.resultRepo.UpdateDetails(ctx, result); err != nil {
			return err
		}
		if err := s.ledger.AdvanceAfterLesson(ctx, userID, lesson, score, passed); err != nil {
			return err
		}
		return s.achievements.EvaluateForUser(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store retried result: %w", err)
	}

	s.logger.Info("lesson mistakes retried",
		zap.Int("user_id", userID),
		zap.Int("lesson_id", lessonID),
		zap.Int("score", score),
		zap.Bool("passed", passed),
	)

	return &models.SubmitLessonResponse{
		TotalExercises:     result.TotalQuestions,
		CorrectAnswers:     score,
		IsPassed:           passed,
		MistakeExerciseIDs: mistakeIDs,
		Answers:            details.Answers,
	}, nil
}

// resultToResponse rebuilds the submission response from a stored attempt
func resultToResponse(result *models.LessonResult, passingPercent int) *models.SubmitLessonResponse {
	details := parseResultDetails(result.DetailsJSON)
	score, mistakeIDs, _ := summarizeDetails(details)
	return &models.SubmitLessonResponse{
		TotalExercises:     result.TotalQuestions,
		CorrectAnswers:     score,
		IsPassed:           IsPassed(score, result.TotalQuestions, passingPercent),
		MistakeExerciseIDs: mistakeIDs,
		Answers:            details.Answers,
	}
}
