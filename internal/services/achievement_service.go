package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lingopath/backend/internal/models"
	"go.uber.org/zap"
)

// AchievementRepository defines methods for the badge catalog and grants
type AchievementRepository interface {
	// GetOrCreateByTitle retrieves a catalog entry, creating it on first use
	GetOrCreateByTitle(ctx context.Context, title, description string) (*models.Achievement, error)
	// HasGrant reports whether the user already holds the badge
	HasGrant(ctx context.Context, userID, achievementID int) (bool, error)
	// Grant records a badge, ignoring a duplicate grant
	Grant(ctx context.Context, userID, achievementID int, grantedAt time.Time) error
	// GetByUserID retrieves the user's granted badges
	GetByUserID(ctx context.Context, userID int) ([]models.UserAchievementResponse, error)
}

// StatsProvider supplies the recomputed streak and score aggregates
type StatsProvider interface {
	GetStats(ctx context.Context, userID int) (*models.UserStatsResponse, error)
}

// achievementDef pairs a catalog entry with its predicate over the
// evaluation snapshot
type achievementDef struct {
	title       string
	description string
	earned      func(snap achievementSnapshot) bool
}

// achievementSnapshot is the state every predicate is judged against
type achievementSnapshot struct {
	passedLessons   int
	completedScenes int
	hasPerfect      bool
	stats           models.UserStatsResponse
}

var achievementDefs = []achievementDef{
	{"First Steps", "Pass your first lesson", func(s achievementSnapshot) bool {
		return s.passedLessons >= 1
	}},
	{"Getting Serious", "Pass five lessons", func(s achievementSnapshot) bool {
		return s.passedLessons >= 5
	}},
	{"Flawless", "Pass a lesson with a perfect score", func(s achievementSnapshot) bool {
		return s.hasPerfect
	}},
	{"Centurion", "Earn one hundred points", func(s achievementSnapshot) bool {
		return s.stats.TotalScore >= 100
	}},
	{"On a Roll", "Keep a three day streak", func(s achievementSnapshot) bool {
		return s.stats.MaxStreak >= 3
	}},
	{"Unstoppable", "Keep a seven day streak", func(s achievementSnapshot) bool {
		return s.stats.MaxStreak >= 7
	}},
	{"Goal Getter", "Reach your daily goal", func(s achievementSnapshot) bool {
		return s.stats.DailyGoalScore > 0 && s.stats.TodayScore >= s.stats.DailyGoalScore
	}},
	{"Storyteller", "Complete your first scene", func(s achievementSnapshot) bool {
		return s.completedScenes >= 1
	}},
}

// achievementService evaluates badges after every progress change and
// grants each at most once
type achievementService struct {
	achievementRepo AchievementRepository
	progressRepo    UserLessonProgressRepository
	resultRepo      LessonResultRepository
	attemptRepo     SceneAttemptRepository
	stats           StatsProvider
	clock           Clock
	passingPercent  int
	logger          *zap.Logger
}

// NewAchievementService creates a new achievement service
func NewAchievementService(
	achievementRepo AchievementRepository,
	progressRepo UserLessonProgressRepository,
	resultRepo LessonResultRepository,
	attemptRepo SceneAttemptRepository,
	stats StatsProvider,
	clock Clock,
	passingPercent int,
	logger *zap.Logger,
) *achievementService {
	return &achievementService{
		achievementRepo: achievementRepo,
		progressRepo:    progressRepo,
		resultRepo:      resultRepo,
		attemptRepo:     attemptRepo,
		stats:           stats,
		clock:           clock,
		passingPercent:  NormalizePassingPercent(passingPercent),
		logger:          logger,
	}
}

// GetUserAchievements lists the user's granted badges
func (s *achievementService) GetUserAchievements(ctx context.Context, userID int) ([]models.UserAchievementResponse, error) {
	granted, err := s.achievementRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	return granted, nil
}

// EvaluateForUser re-checks every predicate against fresh aggregates and
// grants what newly holds. Grants are append-only; a predicate turning
// false later never revokes one. Runs inside the submission transaction.
func (s *achievementService) EvaluateForUser(ctx context.Context, userID int) error {
	snap, err := s.buildSnapshot(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to build achievement snapshot: %w", err)
	}

	now := s.clock.UtcNow()
	for _, def := range achievementDefs {
		if !def.earned(snap) {
			continue
		}
		achievement, err := s.achievementRepo.GetOrCreateByTitle(ctx, def.title, def.description)
		if err != nil {
			return err
		}
		held, err := s.achievementRepo.HasGrant(ctx, userID, achievement.ID)
		if err != nil {
			return err
		}
		if held {
			continue
		}
		if err := s.achievementRepo.Grant(ctx, userID, achievement.ID, now); err != nil {
			return err
		}
		s.logger.Info("achievement granted",
			zap.Int("user_id", userID),
			zap.String("title", def.title),
		)
	}
	return nil
}

func (s *achievementService) buildSnapshot(ctx context.Context, userID int) (achievementSnapshot, error) {
	var snap achievementSnapshot

	passed, err := s.progressRepo.CountCompletedByUser(ctx, userID)
	if err != nil {
		return snap, err
	}
	snap.passedLessons = passed

	scenes, err := s.attemptRepo.CountCompletedByUser(ctx, userID)
	if err != nil {
		return snap, err
	}
	snap.completedScenes = scenes

	results, err := s.resultRepo.GetAllByUser(ctx, userID)
	if err != nil {
		return snap, err
	}
	for _, result := range results {
		if result.TotalQuestions > 0 && result.Score == result.TotalQuestions {
			snap.hasPerfect = true
			break
		}
	}

	stats, err := s.stats.GetStats(ctx, userID)
	if err != nil {
		return snap, err
	}
	snap.stats = *stats

	return snap, nil
}
