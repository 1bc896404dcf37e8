// Package main - точка входа фоновых процессов (Worker) StudyPulse.
//
// Worker отвечает за периодические задачи:
// - Пересборка лидербордов и расчёт изменений рангов
// - Детектирование стриков под угрозой
// - Ежедневный дайджест посещаемости
// - Поиск «камбэков» по снапшотам лидерборда
// - Доставка отложенных уведомлений
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/studypulse/studypulse-backend/config"
	"github.com/studypulse/studypulse-backend/internal/application/eventhandler"
	appgam "github.com/studypulse/studypulse-backend/internal/application/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/notification"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
	"github.com/studypulse/studypulse-backend/internal/infrastructure/messaging"
	"github.com/studypulse/studypulse-backend/internal/infrastructure/persistence/postgres"
	"github.com/studypulse/studypulse-backend/internal/infrastructure/persistence/projections"
	rediscache "github.com/studypulse/studypulse-backend/internal/infrastructure/persistence/redis"
	"github.com/studypulse/studypulse-backend/internal/infrastructure/scheduler"
	"github.com/studypulse/studypulse-backend/internal/infrastructure/scheduler/jobs"
	"github.com/studypulse/studypulse-backend/internal/infrastructure/service"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

func main() {
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

	slogger.Info("starting StudyPulse worker",
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

	// Worker тоже должен видеть актуальную схему.
	slogger.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *rediscache.Cache
	var leaderboardCache *rediscache.LeaderboardCache

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

		redisCache, err = rediscache.NewCache(redisCfg)
		if err != nil {
			slogger.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			leaderboardCache = rediscache.NewLeaderboardCache(redisCache, 0)
			slogger.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. РЕПОЗИТОРИИ
	// ─────────────────────────────────────────────────────────────────────────
	studentRepo := postgres.NewStudentRepository(dbConn)
	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	streakRepo := postgres.NewStreakRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	attendanceRepo := postgres.NewAttendanceRepository(dbConn)
	subjectRepo := postgres.NewSubjectRepository(dbConn)
	notificationRepo := postgres.NewNotificationRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)
	uow := postgres.NewUnitOfWork(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS + DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultEventBusConfig()
	busCfg.Logger = slogger

	var eventBus eventBusCloser
	if redisCache != nil {
		redisBus := messaging.NewRedisEventBus(redisCache.Client(), busCfg)
		if err := redisBus.Start(); err != nil {
			return fmt.Errorf("failed to start redis event bus: %w", err)
		}
		eventBus = redisBus
	} else {
		eventBus = messaging.NewInMemoryEventBus(busCfg)
	}
	defer func() { _ = eventBus.Close() }()

	dispatcherCfg := messaging.DefaultDispatcherConfig()
	dispatcherCfg.Logger = slogger
	dispatcher := messaging.NewDispatcher(dispatcherCfg)
	dispatcher.Use(messaging.RecoveryMiddleware(slogger))
	dispatcher.Use(messaging.LoggingMiddleware(slogger))

	for _, h := range []eventhandler.Registrable{
		eventhandler.NewOnLevelUpHandler(notificationRepo, appLog),
		eventhandler.NewOnAchievementUnlockedHandler(notificationRepo, appLog),
		eventhandler.NewOnStreakExtendedHandler(notificationRepo, appLog),
		eventhandler.NewOnStreakBrokenHandler(notificationRepo, appLog),
	} {
		if err := dispatcher.Register(h.EventType(), string(h.EventType())+"_handler", h.Handle); err != nil {
			return fmt.Errorf("failed to register event handler: %w", err)
		}
	}
	dispatcher.Attach(eventBus)
	defer dispatcher.Stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ДВИЖОК ГЕЙМИФИКАЦИИ (для камбэк-ачивок)
	// ─────────────────────────────────────────────────────────────────────────
	gamificationSvc := appgam.NewService(appgam.Config{
		UnitOfWork:     uow,
		Students:       studentRepo,
		Ledger:         ledgerRepo,
		Streaks:        streakRepo,
		Achievements:   achievementRepo,
		Leaderboard:    leaderboardRepo,
		EventPublisher: eventBus,
		Logger:         appLog,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ПЛАНИРОВЩИК И ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	rankingView := projections.NewLeaderboardView()
	if err := dispatcher.Register(rankingView.EventType(), "leaderboard_view", rankingView.Handle); err != nil {
		return fmt.Errorf("failed to register leaderboard view: %w", err)
	}

	var jobCache jobs.LeaderboardCache
	if leaderboardCache != nil {
		jobCache = leaderboardCache
	}

	rebuildCfg := jobs.DefaultRebuildLeaderboardConfig()
	rebuildCfg.SnapshotRetentionDays = cfg.Scheduler.SnapshotRetentionDays
	rebuildJob := jobs.NewRebuildLeaderboardJob(
		leaderboardRepo, jobCache, rankingView, eventBus, slogger, rebuildCfg)

	streaksJob := jobs.NewDetectStreaksAtRiskJob(
		studentRepo, streakRepo, notificationRepo, slogger,
		jobs.DefaultDetectStreaksAtRiskConfig())

	digestJob := jobs.NewAttendanceDigestJob(
		studentRepo, subjectRepo, attendanceRepo, notificationRepo, slogger,
		jobs.DefaultAttendanceDigestConfig())

	comebacksJob := jobs.NewDetectComebacksJob(
		leaderboardRepo, gamificationSvc, slogger,
		jobs.DefaultDetectComebacksConfig())

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   slogger,
		Timezone: cfg.App.Location,
	})

	digestCron, err := scheduler.ParseCronExpression(
		fmt.Sprintf("%d %d * * *", cfg.Scheduler.DailyDigestMinute, cfg.Scheduler.DailyDigestHour))
	if err != nil {
		return fmt.Errorf("invalid digest schedule: %w", err)
	}

	registrations := []struct {
		job      scheduler.Job
		schedule scheduler.Schedule
	}{
		{rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)},
		{streaksJob, scheduler.NewIntervalSchedule(cfg.Scheduler.DetectStreaksInterval)},
		{comebacksJob, scheduler.NewIntervalSchedule(cfg.Scheduler.DetectComebacksInterval)},
		{digestJob, digestCron},
	}
	for _, r := range registrations {
		if err := sched.Register(r.job, r.schedule); err != nil {
			return fmt.Errorf("failed to register job %s: %w", r.job.Name(), err)
		}
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() { _ = sched.Stop() }()
		slogger.Info("scheduler started", "jobs", len(registrations))
	} else {
		slogger.Warn("scheduler is disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ДОСТАВКА УВЕДОМЛЕНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if !cfg.Notifications.Disabled {
		dispatchCfg := service.DefaultDispatchConfig()
		dispatchCfg.BatchSize = cfg.Notifications.BatchSize

		notifier := service.NewNotificationDispatcher(
			notificationRepo,
			[]notification.Channel{service.NewInAppChannel()},
			slogger,
			dispatchCfg,
		)

		go runNotificationLoop(ctx, notifier, cfg.Notifications.DispatchInterval, slogger)
	} else {
		slogger.Warn("notification delivery is disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("StudyPulse worker is running", "timezone", cfg.App.Timezone)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	slogger.Info("received shutdown signal", "signal", sig.String())
	slogger.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	slogger.Info("shutdown completed successfully")
	return nil
}

// eventBusCloser объединяет возможности обеих реализаций шины.
type eventBusCloser interface {
	messaging.EventStream
	Publish(event shared.Event) error
	Close() error
}

// runNotificationLoop периодически опустошает очередь уведомлений.
func runNotificationLoop(ctx context.Context, notifier *service.NotificationDispatcher, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			delivered, err := notifier.DispatchPending(ctx)
			if err != nil {
				log.Error("notification dispatch failed", "error", err)
				continue
			}
			if delivered > 0 {
				log.Info("notifications delivered", "count", delivered)
			}
		}
	}
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
