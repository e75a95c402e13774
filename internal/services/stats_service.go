package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lingopath/backend/internal/models"
	"go.uber.org/zap"
)

// statsService recomputes streaks and cumulative score from stored
// attempts on every call; nothing is cached between reads
type statsService struct {
	resultRepo     LessonResultRepository
	progressRepo   UserLessonProgressRepository
	attemptRepo    SceneAttemptRepository
	clock          Clock
	passingPercent int
	sceneScore     int
	dailyGoalScore int
	logger         *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(
	resultRepo LessonResultRepository,
	progressRepo UserLessonProgressRepository,
	attemptRepo SceneAttemptRepository,
	clock Clock,
	passingPercent, sceneScore, dailyGoalScore int,
	logger *zap.Logger,
) *statsService {
	return &statsService{
		resultRepo:     resultRepo,
		progressRepo:   progressRepo,
		attemptRepo:    attemptRepo,
		clock:          clock,
		passingPercent: NormalizePassingPercent(passingPercent),
		sceneScore:     sceneScore,
		dailyGoalScore: dailyGoalScore,
		logger:         logger,
	}
}

// GetStats reports current and max streak, cumulative score and today's
// score against the daily goal
func (s *statsService) GetStats(ctx context.Context, userID int) (*models.UserStatsResponse, error) {
	results, err := s.resultRepo.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson results: %w", err)
	}

	sceneTimes, err := s.attemptRepo.GetCompletionTimesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scene completions: %w", err)
	}

	bestScoreSum, err := s.progressRepo.SumBestScores(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum best scores: %w", err)
	}

	completedScenes, err := s.attemptRepo.CountCompletedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed scenes: %w", err)
	}

	now := s.clock.UtcNow()
	today := utcDate(now)

	// Study dates are UTC calendar dates with at least one passed lesson
	// or completed scene
	studyDates := make(map[time.Time]bool)
	var lastStudyAt *time.Time
	markStudy := func(at time.Time) {
		studyDates[utcDate(at)] = true
		if lastStudyAt == nil || at.After(*lastStudyAt) {
			t := at
			lastStudyAt = &t
		}
	}

	// Today's lesson score counts the best attempt per lesson made today
	todayBestByLesson := make(map[int]int)
	for _, result := range results {
		if IsPassed(result.Score, result.TotalQuestions, s.passingPercent) {
			markStudy(result.CompletedAt)
		}
		if utcDate(result.CompletedAt).Equal(today) && result.Score > todayBestByLesson[result.LessonID] {
			todayBestByLesson[result.LessonID] = result.Score
		}
	}

	todayScore := 0
	for _, score := range todayBestByLesson {
		todayScore += score
	}
	for _, at := range sceneTimes {
		markStudy(at)
		if utcDate(at).Equal(today) {
			todayScore += s.sceneScore
		}
	}

	current, max := computeStreaks(studyDates, today)

	return &models.UserStatsResponse{
		CurrentStreak:  current,
		MaxStreak:      max,
		TotalScore:     bestScoreSum + completedScenes*s.sceneScore,
		TodayScore:     todayScore,
		DailyGoalScore: s.dailyGoalScore,
		LastStudyAt:    lastStudyAt,
	}, nil
}

// utcDate truncates a timestamp to its UTC calendar date
func utcDate(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
}

// computeStreaks walks the sorted study dates once. The current streak is
// the consecutive run ending today or yesterday; a run that ended earlier
// counts only toward the max.
func computeStreaks(studyDates map[time.Time]bool, today time.Time) (current, max int) {
	if len(studyDates) == 0 {
		return 0, 0
	}

	dates := make([]time.Time, 0, len(studyDates))
	for date := range studyDates {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	run := 1
	for i := 1; i <= len(dates); i++ {
		if i < len(dates) && dates[i].Sub(dates[i-1]) == 24*time.Hour {
			run++
			continue
		}
		if run > max {
			max = run
		}
		if i == len(dates) {
			last := dates[len(dates)-1]
			gap := today.Sub(last)
			if gap == 0 || gap == 24*time.Hour {
				current = run
			}
		}
		run = 1
	}
	return current, max
}
