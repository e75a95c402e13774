package services

import (
	"context"
	"sort"
	"time"

	"github.com/lingopath/backend/internal/apperrors"
	"github.com/lingopath/backend/internal/models"
)

// In-memory fakes shared by the service tests. They reproduce the row
// semantics of the MySQL repositories: absent optional rows come back as
// nil without error, must-exist lookups return a typed not-found error.

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) UtcNow() time.Time {
	return c.now.UTC()
}

type mockTransactor struct {
	calls int
}

func (m *mockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type noopEvaluator struct {
	calls int
}

func (m *noopEvaluator) EvaluateForUser(ctx context.Context, userID int) error {
	m.calls++
	return nil
}

type noopLedger struct {
	calls      int
	lastScore  int
	lastPassed bool
}

func (m *noopLedger) AdvanceAfterLesson(ctx context.Context, userID int, lesson *models.Lesson, score int, passed bool) error {
	m.calls++
	m.lastScore = score
	m.lastPassed = passed
	return nil
}

type mockCourseRepository struct {
	courses []models.Course
	topics  []models.Topic
	list    []models.CourseListItem
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	for i := range m.courses {
		if m.courses[i].ID == id && m.courses[i].Published {
			course := m.courses[i]
			return &course, nil
		}
	}
	return nil, apperrors.NotFoundf("course %d not found", id)
}

func (m *mockCourseRepository) GetAllPublishedWithUserState(ctx context.Context, userID int) ([]models.CourseListItem, error) {
	return m.list, nil
}

func (m *mockCourseRepository) GetTopicsByCourseID(ctx context.Context, courseID int) ([]models.Topic, error) {
	var topics []models.Topic
	for _, topic := range m.topics {
		if topic.CourseID == courseID {
			topics = append(topics, topic)
		}
	}
	return topics, nil
}

type mockLessonRepository struct {
	lessons []models.Lesson
}

func (m *mockLessonRepository) GetByID(ctx context.Context, id int) (*models.Lesson, error) {
	for i := range m.lessons {
		if m.lessons[i].ID == id {
			lesson := m.lessons[i]
			return &lesson, nil
		}
	}
	return nil, apperrors.NotFoundf("lesson %d not found", id)
}

func (m *mockLessonRepository) GetOrderedByCourseID(ctx context.Context, courseID int) ([]models.Lesson, error) {
	var lessons []models.Lesson
	for _, lesson := range m.lessons {
		if lesson.CourseID == courseID {
			lessons = append(lessons, lesson)
		}
	}
	return lessons, nil
}

type mockProgressRepository struct {
	rows         []*models.UserLessonProgress
	lessonCourse map[int]int
	nextID       int
}

func (m *mockProgressRepository) find(userID, lessonID int) *models.UserLessonProgress {
	for _, row := range m.rows {
		if row.UserID == userID && row.LessonID == lessonID {
			return row
		}
	}
	return nil
}

func (m *mockProgressRepository) GetByUserAndLesson(ctx context.Context, userID, lessonID int) (*models.UserLessonProgress, error) {
	row := m.find(userID, lessonID)
	if row == nil {
		return nil, nil
	}
	clone := *row
	return &clone, nil
}

func (m *mockProgressRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (map[int]*models.UserLessonProgress, error) {
	result := make(map[int]*models.UserLessonProgress)
	for _, row := range m.rows {
		if row.UserID == userID && m.lessonCourse[row.LessonID] == courseID {
			clone := *row
			result[row.LessonID] = &clone
		}
	}
	return result, nil
}

func (m *mockProgressRepository) Create(ctx context.Context, progress *models.UserLessonProgress) error {
	m.nextID++
	progress.ID = m.nextID
	clone := *progress
	m.rows = append(m.rows, &clone)
	return nil
}

func (m *mockProgressRepository) Update(ctx context.Context, progress *models.UserLessonProgress) error {
	row := m.find(progress.UserID, progress.LessonID)
	if row != nil {
		*row = *progress
	}
	return nil
}

func (m *mockProgressRepository) CountCompletedByUser(ctx context.Context, userID int) (int, error) {
	count := 0
	for _, row := range m.rows {
		if row.UserID == userID && row.IsCompleted {
			count++
		}
	}
	return count, nil
}

func (m *mockProgressRepository) CountCompletedByUserAndCourse(ctx context.Context, userID, courseID int) (int, error) {
	count := 0
	for _, row := range m.rows {
		if row.UserID == userID && row.IsCompleted && m.lessonCourse[row.LessonID] == courseID {
			count++
		}
	}
	return count, nil
}

func (m *mockProgressRepository) SumBestScores(ctx context.Context, userID int) (int, error) {
	sum := 0
	for _, row := range m.rows {
		if row.UserID == userID && row.IsCompleted {
			sum += row.BestScore
		}
	}
	return sum, nil
}

type mockUserCourseRepository struct {
	rows   []*models.UserCourse
	nextID int
}

func (m *mockUserCourseRepository) GetActiveByUser(ctx context.Context, userID int) (*models.UserCourse, error) {
	for _, row := range m.rows {
		if row.UserID == userID && row.IsActive {
			clone := *row
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockUserCourseRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.UserCourse, error) {
	for _, row := range m.rows {
		if row.UserID == userID && row.CourseID == courseID {
			clone := *row
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockUserCourseRepository) Create(ctx context.Context, uc *models.UserCourse) error {
	m.nextID++
	uc.ID = m.nextID
	clone := *uc
	m.rows = append(m.rows, &clone)
	return nil
}

func (m *mockUserCourseRepository) Update(ctx context.Context, uc *models.UserCourse) error {
	for _, row := range m.rows {
		if row.UserID == uc.UserID && row.CourseID == uc.CourseID {
			*row = *uc
		}
	}
	return nil
}

func (m *mockUserCourseRepository) DeactivateAllByUser(ctx context.Context, userID int) error {
	for _, row := range m.rows {
		if row.UserID == userID {
			row.IsActive = false
		}
	}
	return nil
}

type mockExerciseRepository struct {
	exercises []models.Exercise
}

func (m *mockExerciseRepository) GetByLessonID(ctx context.Context, lessonID int) ([]models.Exercise, error) {
	var exercises []models.Exercise
	for _, exercise := range m.exercises {
		if exercise.LessonID == lessonID {
			exercises = append(exercises, exercise)
		}
	}
	return exercises, nil
}

type mockResultRepository struct {
	results []*models.LessonResult
	nextID  int
}

func (m *mockResultRepository) GetByIdempotencyKey(ctx context.Context, userID int, key string) (*models.LessonResult, error) {
	for _, result := range m.results {
		if result.UserID == userID && result.IdempotencyKey != nil && *result.IdempotencyKey == key {
			clone := *result
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockResultRepository) GetByMistakesKey(ctx context.Context, userID int, key string) (*models.LessonResult, error) {
	for _, result := range m.results {
		if result.UserID == userID && result.MistakesIdempotencyKey != nil && *result.MistakesIdempotencyKey == key {
			clone := *result
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockResultRepository) GetLatestByUserAndLesson(ctx context.Context, userID, lessonID int) (*models.LessonResult, error) {
	var latest *models.LessonResult
	for _, result := range m.results {
		if result.UserID == userID && result.LessonID == lessonID {
			if latest == nil || result.CompletedAt.After(latest.CompletedAt) ||
				(result.CompletedAt.Equal(latest.CompletedAt) && result.ID > latest.ID) {
				latest = result
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (m *mockResultRepository) Create(ctx context.Context, result *models.LessonResult) error {
	m.nextID++
	result.ID = m.nextID
	clone := *result
	m.results = append(m.results, &clone)
	return nil
}

func (m *mockResultRepository) UpdateDetails(ctx context.Context, result *models.LessonResult) error {
	for _, stored := range m.results {
		if stored.ID == result.ID {
			stored.Score = result.Score
			stored.DetailsJSON = result.DetailsJSON
			stored.MistakesIdempotencyKey = result.MistakesIdempotencyKey
		}
	}
	return nil
}

func (m *mockResultRepository) GetAllByUser(ctx context.Context, userID int) ([]models.LessonResult, error) {
	var results []models.LessonResult
	for _, result := range m.results {
		if result.UserID == userID {
			results = append(results, *result)
		}
	}
	return results, nil
}

type mockSceneRepository struct {
	scenes []models.Scene
	steps  []models.SceneStep
}

func (m *mockSceneRepository) GetByID(ctx context.Context, id int) (*models.Scene, error) {
	for i := range m.scenes {
		if m.scenes[i].ID == id {
			scene := m.scenes[i]
			return &scene, nil
		}
	}
	return nil, apperrors.NotFoundf("scene %d not found", id)
}

func (m *mockSceneRepository) GetByCourseIDRanked(ctx context.Context, courseID int) ([]models.Scene, error) {
	var scenes []models.Scene
	for _, scene := range m.scenes {
		if scene.CourseID != nil && *scene.CourseID == courseID {
			scenes = append(scenes, scene)
		}
	}
	sort.SliceStable(scenes, func(i, j int) bool {
		iOrdered, jOrdered := scenes[i].Order > 0, scenes[j].Order > 0
		if iOrdered != jOrdered {
			return iOrdered
		}
		if iOrdered && scenes[i].Order != scenes[j].Order {
			return scenes[i].Order < scenes[j].Order
		}
		return scenes[i].ID < scenes[j].ID
	})
	return scenes, nil
}

func (m *mockSceneRepository) GetStepsBySceneID(ctx context.Context, sceneID int) ([]models.SceneStep, error) {
	var steps []models.SceneStep
	for _, step := range m.steps {
		if step.SceneID == sceneID {
			steps = append(steps, step)
		}
	}
	return steps, nil
}

type mockAttemptRepository struct {
	attempts []*models.SceneAttempt
	nextID   int
}

func (m *mockAttemptRepository) GetByUserAndScene(ctx context.Context, userID, sceneID int) (*models.SceneAttempt, error) {
	for _, attempt := range m.attempts {
		if attempt.UserID == userID && attempt.SceneID == sceneID {
			clone := *attempt
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockAttemptRepository) GetBySubmitKey(ctx context.Context, userID int, key string) (*models.SceneAttempt, error) {
	for _, attempt := range m.attempts {
		if attempt.UserID == userID && attempt.SubmitIdempotencyKey != nil && *attempt.SubmitIdempotencyKey == key {
			clone := *attempt
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockAttemptRepository) GetByMistakesKey(ctx context.Context, userID int, key string) (*models.SceneAttempt, error) {
	for _, attempt := range m.attempts {
		if attempt.UserID == userID && attempt.MistakesIdempotencyKey != nil && *attempt.MistakesIdempotencyKey == key {
			clone := *attempt
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockAttemptRepository) Upsert(ctx context.Context, attempt *models.SceneAttempt) error {
	for _, stored := range m.attempts {
		if stored.UserID == attempt.UserID && stored.SceneID == attempt.SceneID {
			attempt.ID = stored.ID
			*stored = *attempt
			return nil
		}
	}
	m.nextID++
	attempt.ID = m.nextID
	clone := *attempt
	m.attempts = append(m.attempts, &clone)
	return nil
}

func (m *mockAttemptRepository) GetCompletedSceneIDsByUser(ctx context.Context, userID int) (map[int]bool, error) {
	completed := make(map[int]bool)
	for _, attempt := range m.attempts {
		if attempt.UserID == userID && attempt.IsCompleted {
			completed[attempt.SceneID] = true
		}
	}
	return completed, nil
}

func (m *mockAttemptRepository) GetCompletionTimesByUser(ctx context.Context, userID int) ([]time.Time, error) {
	var times []time.Time
	for _, attempt := range m.attempts {
		if attempt.UserID == userID && attempt.IsCompleted && attempt.CompletedAt != nil {
			times = append(times, *attempt.CompletedAt)
		}
	}
	return times, nil
}

func (m *mockAttemptRepository) CountCompletedByUser(ctx context.Context, userID int) (int, error) {
	count := 0
	for _, attempt := range m.attempts {
		if attempt.UserID == userID && attempt.IsCompleted {
			count++
		}
	}
	return count, nil
}

type mockVocabularyRepository struct {
	items  []*models.VocabularyItem
	nextID int
}

func (m *mockVocabularyRepository) GetByWordAndTranslation(ctx context.Context, word, translation string) (*models.VocabularyItem, error) {
	for _, item := range m.items {
		if item.Word == word && item.Translation == translation {
			clone := *item
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockVocabularyRepository) Create(ctx context.Context, item *models.VocabularyItem) error {
	m.nextID++
	item.ID = m.nextID
	clone := *item
	m.items = append(m.items, &clone)
	return nil
}

type mockUserVocabularyRepository struct {
	rows   []*models.UserVocabulary
	items  map[int]models.VocabularyItem
	nextID int
}

func (m *mockUserVocabularyRepository) GetByID(ctx context.Context, userID, id int) (*models.UserVocabulary, error) {
	for _, row := range m.rows {
		if row.UserID == userID && row.ID == id {
			clone := *row
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockUserVocabularyRepository) GetByUserAndItem(ctx context.Context, userID, itemID int) (*models.UserVocabulary, error) {
	for _, row := range m.rows {
		if row.UserID == userID && row.VocabularyItemID == itemID {
			clone := *row
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockUserVocabularyRepository) GetByReviewKey(ctx context.Context, userID int, key string) (*models.UserVocabulary, error) {
	for _, row := range m.rows {
		if row.UserID == userID && row.ReviewIdempotencyKey != nil && *row.ReviewIdempotencyKey == key {
			clone := *row
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockUserVocabularyRepository) Create(ctx context.Context, uv *models.UserVocabulary) error {
	m.nextID++
	uv.ID = m.nextID
	clone := *uv
	m.rows = append(m.rows, &clone)
	return nil
}

func (m *mockUserVocabularyRepository) Update(ctx context.Context, uv *models.UserVocabulary) error {
	for _, row := range m.rows {
		if row.ID == uv.ID {
			*row = *uv
		}
	}
	return nil
}

func (m *mockUserVocabularyRepository) GetDue(ctx context.Context, userID int, now time.Time, limit int) ([]models.DueWordResponse, error) {
	var due []*models.UserVocabulary
	for _, row := range m.rows {
		if row.UserID == userID && !row.NextReviewAt.After(now) {
			due = append(due, row)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReviewAt.Equal(due[j].NextReviewAt) {
			return due[i].NextReviewAt.Before(due[j].NextReviewAt)
		}
		if !due[i].AddedAt.Equal(due[j].AddedAt) {
			return due[i].AddedAt.Before(due[j].AddedAt)
		}
		return due[i].ID < due[j].ID
	})

	var responses []models.DueWordResponse
	for _, row := range due {
		if limit > 0 && len(responses) >= limit {
			break
		}
		item := m.items[row.VocabularyItemID]
		responses = append(responses, models.DueWordResponse{
			UserVocabularyID: row.ID,
			Word:             item.Word,
			Translation:      item.Translation,
			Example:          item.Example,
			NextReviewAt:     row.NextReviewAt,
			ReviewCount:      row.ReviewCount,
		})
	}
	return responses, nil
}

type mockAchievementRepository struct {
	catalog []*models.Achievement
	grants  []models.UserAchievement
	nextID  int
}

func (m *mockAchievementRepository) GetOrCreateByTitle(ctx context.Context, title, description string) (*models.Achievement, error) {
	for _, achievement := range m.catalog {
		if achievement.Title == title {
			clone := *achievement
			return &clone, nil
		}
	}
	m.nextID++
	achievement := &models.Achievement{ID: m.nextID, Title: title, Description: description}
	m.catalog = append(m.catalog, achievement)
	clone := *achievement
	return &clone, nil
}

func (m *mockAchievementRepository) HasGrant(ctx context.Context, userID, achievementID int) (bool, error) {
	for _, grant := range m.grants {
		if grant.UserID == userID && grant.AchievementID == achievementID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAchievementRepository) Grant(ctx context.Context, userID, achievementID int, grantedAt time.Time) error {
	for _, grant := range m.grants {
		if grant.UserID == userID && grant.AchievementID == achievementID {
			return nil
		}
	}
	m.grants = append(m.grants, models.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		GrantedAt:     grantedAt,
	})
	return nil
}

func (m *mockAchievementRepository) GetByUserID(ctx context.Context, userID int) ([]models.UserAchievementResponse, error) {
	var responses []models.UserAchievementResponse
	for _, grant := range m.grants {
		if grant.UserID != userID {
			continue
		}
		for _, achievement := range m.catalog {
			if achievement.ID == grant.AchievementID {
				responses = append(responses, models.UserAchievementResponse{
					Title:       achievement.Title,
					Description: achievement.Description,
					GrantedAt:   grant.GrantedAt,
				})
			}
		}
	}
	return responses, nil
}
