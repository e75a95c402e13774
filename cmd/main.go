package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lingopath/backend/docs"
	"github.com/lingopath/backend/internal/auth"
	"github.com/lingopath/backend/internal/config"
	"github.com/lingopath/backend/internal/handlers"
	"github.com/lingopath/backend/internal/logger"
	"github.com/lingopath/backend/internal/middlewares"
	"github.com/lingopath/backend/internal/repositories"
	"github.com/lingopath/backend/internal/services"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title LingoPath Progression API
// @version 1.0
// @description API for course progression, scenes, vocabulary review and achievements

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting LingoPath Progression Service")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	transactor := repositories.NewTransactor(db)
	courseRepo := repositories.NewCourseRepository(db)
	lessonRepo := repositories.NewLessonRepository(db)
	exerciseRepo := repositories.NewExerciseRepository(db)
	resultRepo := repositories.NewLessonResultRepository(db)
	progressRepo := repositories.NewUserLessonProgressRepository(db)
	userCourseRepo := repositories.NewUserCourseRepository(db)
	sceneRepo := repositories.NewSceneRepository(db)
	sceneAttemptRepo := repositories.NewSceneAttemptRepository(db)
	vocabularyRepo := repositories.NewVocabularyRepository(db)
	userVocabRepo := repositories.NewUserVocabularyRepository(db)
	achievementRepo := repositories.NewAchievementRepository(db)

	// Initialize services
	clock := services.UTCClock{}
	prog := cfg.Progression
	statsService := services.NewStatsService(resultRepo, progressRepo, sceneAttemptRepo, clock,
		prog.PassingPercent, prog.SceneCompletionScore, prog.DailyGoalScore, logger.Logger)
	achievementService := services.NewAchievementService(achievementRepo, progressRepo, resultRepo,
		sceneAttemptRepo, statsService, clock, prog.PassingPercent, logger.Logger)
	progressService := services.NewProgressService(courseRepo, lessonRepo, progressRepo,
		userCourseRepo, transactor, clock, logger.Logger)
	lessonService := services.NewLessonService(lessonRepo, exerciseRepo, resultRepo, progressRepo,
		progressService, achievementService, transactor, clock, prog.PassingPercent, logger.Logger)
	sceneService := services.NewSceneService(sceneRepo, sceneAttemptRepo, progressRepo,
		achievementService, transactor, clock, prog.SceneUnlockEveryLessons, logger.Logger)
	vocabularyService := services.NewVocabularyService(vocabularyRepo, userVocabRepo, transactor, clock, logger.Logger)
	nextActivityService := services.NewNextActivityService(userCourseRepo, userVocabRepo, lessonRepo,
		progressRepo, sceneRepo, sceneAttemptRepo, clock, prog.SceneUnlockEveryLessons)

	// Initialize handlers
	coursesHandler := handlers.NewCoursesHandler(progressService, logger.Logger)
	lessonsHandler := handlers.NewLessonsHandler(lessonService, logger.Logger)
	scenesHandler := handlers.NewScenesHandler(sceneService, logger.Logger)
	vocabularyHandler := handlers.NewVocabularyHandler(vocabularyService, logger.Logger)
	usersHandler := handlers.NewUsersHandler(statsService, nextActivityService, achievementService, logger.Logger)

	// Initialize auth middleware
	tokenValidator := auth.NewTokenValidator(cfg.JWT.Secret)
	authMiddleware := auth.Middleware(tokenValidator)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(1 * 1024 * 1024)) // 1MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Register routes
	coursesHandler.RegisterRoutes(r, authMiddleware)
	lessonsHandler.RegisterRoutes(r, authMiddleware)
	scenesHandler.RegisterRoutes(r, authMiddleware)
	vocabularyHandler.RegisterRoutes(r, authMiddleware)
	usersHandler.RegisterRoutes(r, authMiddleware)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "progression_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
