package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lingopath/backend/internal/apperrors"
	"github.com/lingopath/backend/internal/models"
	"go.uber.org/zap"
)

// SceneRepository defines methods for scene data access
type SceneRepository interface {
	// GetByID retrieves one scene
	GetByID(ctx context.Context, id int) (*models.Scene, error)
	// GetByCourseIDRanked retrieves the scenes of a course in rank order
	GetByCourseIDRanked(ctx context.Context, courseID int) ([]models.Scene, error)
	// GetStepsBySceneID retrieves the steps of a scene in display order
	GetStepsBySceneID(ctx context.Context, sceneID int) ([]models.SceneStep, error)
}

// SceneAttemptRepository defines methods for the per-scene attempt record
type SceneAttemptRepository interface {
	// GetByUserAndScene retrieves the single attempt row, nil when absent
	GetByUserAndScene(ctx context.Context, userID, sceneID int) (*models.SceneAttempt, error)
	// GetBySubmitKey retrieves the attempt stored under a submit key, nil when absent
	GetBySubmitKey(ctx context.Context, userID int, key string) (*models.SceneAttempt, error)
	// GetByMistakesKey retrieves the attempt last replayed under a key, nil when absent
	GetByMistakesKey(ctx context.Context, userID int, key string) (*models.SceneAttempt, error)
	// Upsert inserts or rewrites the attempt keyed by (user, scene)
	Upsert(ctx context.Context, attempt *models.SceneAttempt) error
	// GetCompletedSceneIDsByUser retrieves the set of completed scene IDs
	GetCompletedSceneIDsByUser(ctx context.Context, userID int) (map[int]bool, error)
	// GetCompletionTimesByUser retrieves completion timestamps for the aggregator
	GetCompletionTimesByUser(ctx context.Context, userID int) ([]time.Time, error)
	// CountCompletedByUser counts distinct completed scenes
	CountCompletedByUser(ctx context.Context, userID int) (int, error)
}

// sceneService resolves scene unlocking and grades scene submissions
type sceneService struct {
	sceneRepo          SceneRepository
	attemptRepo        SceneAttemptRepository
	progressRepo       UserLessonProgressRepository
	achievements       AchievementEvaluator
	transactor         Transactor
	clock              Clock
	unlockEveryLessons int
	logger             *zap.Logger
}

// NewSceneService creates a new scene service
func NewSceneService(
	sceneRepo SceneRepository,
	attemptRepo SceneAttemptRepository,
	progressRepo UserLessonProgressRepository,
	achievements AchievementEvaluator,
	transactor Transactor,
	clock Clock,
	unlockEveryLessons int,
	logger *zap.Logger,
) *sceneService {
	if unlockEveryLessons <= 0 {
		unlockEveryLessons = 3
	}
	return &sceneService{
		sceneRepo:          sceneRepo,
		attemptRepo:        attemptRepo,
		progressRepo:       progressRepo,
		achievements:       achievements,
		transactor:         transactor,
		clock:              clock,
		unlockEveryLessons: unlockEveryLessons,
		logger:             logger,
	}
}

// GetScenes lists the scenes of a course with per-user unlock state.
// Position is the 1-based rank in scene order; the raw order values never
// enter the unlock math.
func (s *sceneService) GetScenes(ctx context.Context, userID, courseID int) ([]models.SceneListItem, error) {
	if courseID <= 0 {
		return nil, apperrors.Validationf("course id must be positive")
	}

	scenes, err := s.sceneRepo.GetByCourseIDRanked(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scenes: %w", err)
	}

	passedLessons, err := s.progressRepo.CountCompletedByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count passed lessons: %w", err)
	}

	completed, err := s.attemptRepo.GetCompletedSceneIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed scenes: %w", err)
	}

	items := make([]models.SceneListItem, 0, len(scenes))
	for i, scene := range scenes {
		required := i * s.unlockEveryLessons
		items = append(items, models.SceneListItem{
			ID:              scene.ID,
			Title:           scene.Title,
			Type:            scene.Type,
			Position:        i + 1,
			IsUnlocked:      passedLessons >= required,
			IsCompleted:     completed[scene.ID],
			RequiredLessons: required,
			PassedLessons:   passedLessons,
		})
	}
	return items, nil
}

// GetScene retrieves an unlocked scene with its steps, choice correctness
// stripped
func (s *sceneService) GetScene(ctx context.Context, userID, sceneID int) (*models.SceneDetailResponse, error) {
	scene, err := s.sceneRepo.GetByID(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scene: %w", err)
	}

	if err := s.requireUnlocked(ctx, userID, scene); err != nil {
		return nil, err
	}

	steps, err := s.sceneRepo.GetStepsBySceneID(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scene steps: %w", err)
	}

	detail := &models.SceneDetailResponse{ID: scene.ID, Title: scene.Title, Type: scene.Type}
	for _, step := range steps {
		response := models.SceneStepResponse{
			ID:       step.ID,
			Order:    step.Order,
			Speaker:  step.Speaker,
			Text:     step.Text,
			ImageURL: step.ImageURL,
			AudioURL: step.AudioURL,
			StepType: step.StepType,
		}
		for _, choice := range parseSceneChoices(step.ChoicesJSON) {
			response.Choices = append(response.Choices, choice.Text)
		}
		detail.Steps = append(detail.Steps, response)
	}
	return detail, nil
}

// requireUnlocked checks the position-based unlock rule for one scene.
// Scenes without a course are never unlockable.
func (s *sceneService) requireUnlocked(ctx context.Context, userID int, scene *models.Scene) error {
	if scene.CourseID == nil {
		return apperrors.Forbiddenf("scene %d is not attached to a course", scene.ID)
	}

	ranked, err := s.sceneRepo.GetByCourseIDRanked(ctx, *scene.CourseID)
	if err != nil {
		return fmt.Errorf("failed to get scenes: %w", err)
	}

	position := 0
	for i, candidate := range ranked {
		if candidate.ID == scene.ID {
			position = i + 1
			break
		}
	}
	if position == 0 {
		return apperrors.NotFoundf("scene %d not found", scene.ID)
	}

	passedLessons, err := s.progressRepo.CountCompletedByUserAndCourse(ctx, userID, *scene.CourseID)
	if err != nil {
		return fmt.Errorf("failed to count passed lessons: %w", err)
	}

	required := (position - 1) * s.unlockEveryLessons
	if passedLessons < required {
		return apperrors.Forbiddenf("scene %d requires %d passed lessons, have %d", scene.ID, required, passedLessons)
	}
	return nil
}

// SubmitScene grades a submission over the scene's question steps and
// upserts the single attempt record. Completion requires every question
// step answered correctly; narrative steps are never scored.
func (s *sceneService) SubmitScene(ctx context.Context, userID, sceneID int, req models.SubmitSceneRequest) (*models.SubmitSceneResponse, error) {
	if sceneID <= 0 {
		return nil, apperrors.Validationf("scene id must be positive")
	}
	if len(req.Answers) == 0 {
		return nil, apperrors.Validationf("answers must not be empty")
	}

	if req.IdempotencyKey != "" {
		stored, err := s.attemptRepo.GetBySubmitKey(ctx, userID, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if stored != nil {
			if stored.SceneID != sceneID {
				return nil, apperrors.Validationf("idempotency key was used for a different scene")
			}
			return attemptToResponse(stored), nil
		}
	}

	scene, err := s.sceneRepo.GetByID(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scene: %w", err)
	}
	if err := s.requireUnlocked(ctx, userID, scene); err != nil {
		return nil, err
	}

	steps, err := s.sceneRepo.GetStepsBySceneID(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scene steps: %w", err)
	}

	answerByStep := make(map[int]string, len(req.Answers))
	for _, submitted := range req.Answers {
		answerByStep[submitted.StepID] = submitted.Answer
	}

	details := models.ResultDetails{}
	for _, step := range steps {
		choices := parseSceneChoices(step.ChoicesJSON)
		if len(choices) == 0 {
			continue
		}
		userAnswer := answerByStep[step.ID]
		details.Answers = append(details.Answers, models.AnswerDetail{
			ItemID:        step.ID,
			UserAnswer:    userAnswer,
			CorrectAnswer: correctChoiceText(choices),
			IsCorrect:     gradeStepAnswer(choices, userAnswer),
		})
	}

	score, mistakeIDs, allCorrect := summarizeDetails(details)
	details.MistakeIDs = mistakeIDs

	detailsJSON, err := encodeResultDetails(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attempt details: %w", err)
	}

	attempt, err := s.attemptRepo.GetByUserAndScene(ctx, userID, sceneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scene attempt: %w", err)
	}
	if attempt == nil {
		attempt = &models.SceneAttempt{UserID: userID, SceneID: sceneID}
	}

	// Completion is sticky across resubmissions
	if allCorrect && !attempt.IsCompleted {
		now := s.clock.UtcNow()
		attempt.IsCompleted = true
		attempt.CompletedAt = &now
	}
	attempt.Score = score
	attempt.TotalQuestions = len(details.Answers)
	attempt.DetailsJSON = detailsJSON
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		attempt.SubmitIdempotencyKey = &key
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.attemptRepo.Upsert(ctx, attempt); err != nil {
			return err
		}
		return s.achievements.EvaluateForUser(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store scene attempt: %w", err)
	}

	s.logger.Info("scene submitted",
		zap.Int("user_id", userID),
		zap.Int("scene_id", sceneID),
		zap.Int("score", score),
		zap.Bool("completed", attempt.IsCompleted),
	)

	return &models.SubmitSceneResponse{
		TotalQuestions: len(details.Answers),
		CorrectAnswers: score,
		IsCompleted:    attempt.IsCompleted,
		MistakeStepIDs: mistakeIDs,
		Answers:        details.Answers,
	}, nil
}

// RetrySceneMistakes regrades only the currently-wrong steps of the
// user's attempt; correct answers never flip back
func (s *sceneService) RetrySceneMistakes(ctx context.Context, userID, sceneID int, req models.SubmitSceneRequest) (*models.SubmitSceneResponse, error) {
	if sceneID <= 0 {
		return nil, apperrors.Validationf("scene id must be positive")
	}
	if len(req.Answers) == 0 {
		return nil, apperrors.Validationf("answers must not be empty")
	}

	if req.IdempotencyKey != "" {
		stored, err := s.attemptRepo.GetByMistakesKey(ctx, userID, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if stored != nil {
			if stored.SceneID != sceneID {
				return nil, apperrors.Validationf("idempotency key was used for a different scene")
			}
			return attemptToResponse(stored), nil
		}
	}

	scene, err := s.sceneRepo.GetByID(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scene: %w", err)
	}

	attempt, err := s.attemptRepo.GetByUserAndScene(ctx, userID, sceneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scene attempt: %w", err)
	}
	if attempt == nil {
		return nil, apperrors.NotFoundf("no attempt to retry for scene %d", sceneID)
	}

	steps, err := s.sceneRepo.GetStepsBySceneID(ctx, scene.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scene steps: %w", err)
	}
	choicesByStep := make(map[int][]models.SceneChoice, len(steps))
	for _, step := range steps {
		if choices := parseSceneChoices(step.ChoicesJSON); len(choices) > 0 {
			choicesByStep[step.ID] = choices
		}
	}

	answerByStep := make(map[int]string, len(req.Answers))
	for _, submitted := range req.Answers {
		answerByStep[submitted.StepID] = submitted.Answer
	}

	details := parseResultDetails(attempt.DetailsJSON)
	for i, answer := range details.Answers {
		if answer.IsCorrect {
			continue
		}
		userAnswer, answered := answerByStep[answer.ItemID]
		if !answered {
			continue
		}
		details.Answers[i].UserAnswer = userAnswer
		if choices, ok := choicesByStep[answer.ItemID]; ok {
			details.Answers[i].IsCorrect = gradeStepAnswer(choices, userAnswer)
		} else {
			details.Answers[i].IsCorrect = normalizeAnswer(userAnswer) == normalizeAnswer(answer.CorrectAnswer)
		}
	}

	score, mistakeIDs, allCorrect := summarizeDetails(details)
	details.MistakeIDs = mistakeIDs

	detailsJSON, err := encodeResultDetails(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attempt details: %w", err)
	}

	if allCorrect && !attempt.IsCompleted {
		now := s.clock.UtcNow()
		attempt.IsCompleted = true
		attempt.CompletedAt = &now
	}
	attempt.Score = score
	attempt.DetailsJSON = detailsJSON
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		attempt.MistakesIdempotencyKey = &key
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.attemptRepo.Upsert(ctx, attempt); err != nil {
			return err
		}
		return s.achievements.EvaluateForUser(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store retried attempt: %w", err)
	}

	s.logger.Info("scene mistakes retried",
		zap.Int("user_id", userID),
		zap.Int("scene_id", sceneID),
		zap.Int("score", score),
		zap.Bool("completed", attempt.IsCompleted),
	)

	return &models.SubmitSceneResponse{
		TotalQuestions: attempt.TotalQuestions,
		CorrectAnswers: score,
		IsCompleted:    attempt.IsCompleted,
		MistakeStepIDs: mistakeIDs,
		Answers:        details.Answers,
	}, nil
}

// attemptToResponse rebuilds the submission response from the stored attempt
func attemptToResponse(attempt *models.SceneAttempt) *models.SubmitSceneResponse {
	details := parseResultDetails(attempt.DetailsJSON)
	score, mistakeIDs, _ := summarizeDetails(details)
	return &models.SubmitSceneResponse{
		TotalQuestions: attempt.TotalQuestions,
		CorrectAnswers: score,
		IsCompleted:    attempt.IsCompleted,
		MistakeStepIDs: mistakeIDs,
		Answers:        details.Answers,
	}
}
