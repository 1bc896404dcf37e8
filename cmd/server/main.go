// Package main - точка входа REST API сервера StudyPulse.
//
// Сервер принимает академические события (посещаемость, оценки, сдачи
// заданий, логины, вклад в сообщество), прогоняет их через движок
// геймификации и отдаёт лидерборды, прогресс и академические сводки.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/studypulse/studypulse-backend/config"
	"github.com/studypulse/studypulse-backend/internal/application/command"
	"github.com/studypulse/studypulse-backend/internal/application/eventhandler"
	appgam "github.com/studypulse/studypulse-backend/internal/application/gamification"
	"github.com/studypulse/studypulse-backend/internal/application/query"
	"github.com/studypulse/studypulse-backend/internal/application/saga"
	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
	"github.com/studypulse/studypulse-backend/internal/infrastructure/messaging"
	"github.com/studypulse/studypulse-backend/internal/infrastructure/persistence/postgres"
	rediscache "github.com/studypulse/studypulse-backend/internal/infrastructure/persistence/redis"
	"github.com/studypulse/studypulse-backend/internal/infrastructure/service"
	httpapi "github.com/studypulse/studypulse-backend/internal/interface/http"
	"github.com/studypulse/studypulse-backend/internal/interface/http/handlers"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

func main() {
	// .env удобен в разработке; в production переменные приходят из окружения.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	slogger := setupSlog(cfg)
	appLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	slogger.Info("starting StudyPulse API server",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	slogger.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var leaderboardCache *rediscache.LeaderboardCache
	var studentCache *rediscache.StudentCache
	var cacheChecker handlers.CacheChecker

	if !cfg.Redis.Disabled {
		slogger.Info("connecting to Redis...")
		redisCfg := rediscache.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := rediscache.NewCache(redisCfg)
		if err != nil {
			slogger.Warn("failed to connect to Redis, serving reads from PostgreSQL", "error", err)
		} else {
			defer cache.Close()
			leaderboardCache = rediscache.NewLeaderboardCache(cache, 0)
			studentCache = rediscache.NewStudentCache(cache, 0)
			cacheChecker = cache
			slogger.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. РЕПОЗИТОРИИ
	// ─────────────────────────────────────────────────────────────────────────
	var studentRepo student.Repository = postgres.NewStudentRepository(dbConn)
	if studentCache != nil {
		studentRepo = service.NewCachedStudentRepository(studentRepo, studentCache, slogger)
	}

	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	streakRepo := postgres.NewStreakRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	attendanceRepo := postgres.NewAttendanceRepository(dbConn)
	gradeRepo := postgres.NewGradeRepository(dbConn)
	subjectRepo := postgres.NewSubjectRepository(dbConn)
	submissionRepo := postgres.NewSubmissionRepository(dbConn)
	contributionRepo := postgres.NewContributionRepository(dbConn)
	notificationRepo := postgres.NewNotificationRepository(dbConn)
	activityRepo := postgres.NewActivityRepository(dbConn)
	uow := postgres.NewUnitOfWork(dbConn)

	var lbRepo leaderboard.Repository = postgres.NewLeaderboardRepository(dbConn)
	if leaderboardCache != nil {
		lbRepo = service.NewCachedLeaderboardRepository(lbRepo, leaderboardCache, slogger)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS + ОБРАБОТЧИКИ СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultEventBusConfig()
	busCfg.Logger = slogger
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer func() { _ = bus.Close() }()

	eventhandler.RegisterAll(bus,
		eventhandler.NewOnLevelUpHandler(notificationRepo, appLog),
		eventhandler.NewOnAchievementUnlockedHandler(notificationRepo, appLog),
		eventhandler.NewOnStreakExtendedHandler(notificationRepo, appLog),
		eventhandler.NewOnStreakBrokenHandler(notificationRepo, appLog),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ДВИЖОК ГЕЙМИФИКАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	gamificationSvc := appgam.NewService(appgam.Config{
		UnitOfWork:     uow,
		Students:       studentRepo,
		Ledger:         ledgerRepo,
		Streaks:        streakRepo,
		Achievements:   achievementRepo,
		Leaderboard:    lbRepo,
		EventPublisher: bus,
		Logger:         appLog,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if cacheChecker != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(cacheChecker))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpapi.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.MaxHeaderBytes = cfg.HTTP.MaxHeaderBytes
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverCfg.APIKeyHeader = cfg.HTTP.APIKeyHeader
	serverCfg.APIKeys = cfg.HTTP.APIKeys

	server := httpapi.NewServer(serverCfg, httpapi.Dependencies{
		MarkAttendanceHandler:     command.NewMarkAttendanceHandler(attendanceRepo, activityRepo, gamificationSvc, appLog),
		RecordGradeHandler:        command.NewRecordGradeHandler(gradeRepo, subjectRepo, activityRepo, gamificationSvc, appLog),
		SubmitAssignmentHandler:   command.NewSubmitAssignmentHandler(submissionRepo, activityRepo, gamificationSvc, appLog),
		RecordLoginHandler:        command.NewRecordLoginHandler(gamificationSvc, appLog),
		RecordContributionHandler: command.NewRecordContributionHandler(contributionRepo, activityRepo, gamificationSvc, appLog),

		GetLeaderboardHandler:     query.NewGetLeaderboardHandler(lbRepo),
		GetStudentRankHandler:     query.NewGetStudentRankHandler(lbRepo),
		GetStudentProgressHandler: query.NewGetStudentProgressHandler(studentRepo, ledgerRepo, streakRepo, achievementRepo),
		GetAcademicSummaryHandler: query.NewGetAcademicSummaryHandler(attendanceRepo, gradeRepo, subjectRepo),
		GetActivityFeedHandler:    query.NewGetActivityFeedHandler(activityRepo),

		OnboardingSaga: saga.NewOnboarding(studentRepo, gamificationSvc, bus, appLog),

		Logger:        appLog,
		HealthChecker: healthChecker,
	})

	errCh := server.StartAsync()
	slogger.Info("StudyPulse API server is running",
		"host", cfg.HTTP.Host,
		"port", cfg.HTTP.Port,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		slogger.Info("received shutdown signal", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	slogger.Info("shutdown completed successfully")
	return nil
}

// setupSlog настраивает структурированное логирование инфраструктуры.
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
