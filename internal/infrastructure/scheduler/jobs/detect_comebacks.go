package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// DETECT COMEBACKS JOB
// ══════════════════════════════════════════════════════════════════════════════

// AchievementUnlocker awards badges. Satisfied by the application-layer
// gamification service.
type AchievementUnlocker interface {
	UnlockAchievement(ctx context.Context, studentID string, badgeType gamification.BadgeType, unlockContext string) (*gamification.Achievement, error)
}

// DetectComebacksJob looks through the XP leaderboard snapshot history
// for students who dropped off the board and then returned, and awards
// them the comeback badge. Runs after the nightly rebuild so the newest
// snapshot reflects today's ranking.
type DetectComebacksJob struct {
	repo     leaderboard.Repository
	unlocker AchievementUnlocker
	logger   *slog.Logger
	config   DetectComebacksConfig
}

// DetectComebacksConfig contains configuration for comeback detection.
type DetectComebacksConfig struct {
	// LookbackDays is how far back to search for the disappearance.
	LookbackDays int

	// Timeout bounds one detection run.
	Timeout time.Duration
}

// DefaultDetectComebacksConfig returns a two week lookback.
func DefaultDetectComebacksConfig() DetectComebacksConfig {
	return DetectComebacksConfig{
		LookbackDays: 14,
		Timeout:      time.Minute,
	}
}

// NewDetectComebacksJob creates the job.
func NewDetectComebacksJob(
	repo leaderboard.Repository,
	unlocker AchievementUnlocker,
	logger *slog.Logger,
	config DetectComebacksConfig,
) *DetectComebacksJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.LookbackDays <= 0 {
		config.LookbackDays = 14
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}
	return &DetectComebacksJob{
		repo:     repo,
		unlocker: unlocker,
		logger:   logger,
		config:   config,
	}
}

// Name returns the job name.
func (j *DetectComebacksJob) Name() string {
	return "detect_comebacks"
}

// Description returns a human-readable job description.
func (j *DetectComebacksJob) Description() string {
	return "Awards the comeback badge to students who returned to the XP leaderboard"
}

// Run executes one detection pass.
func (j *DetectComebacksJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -j.config.LookbackDays)

	// Newest first.
	snapshots, err := j.repo.ListSnapshots(ctx, leaderboard.CategoryXP, from, now)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(snapshots) < 3 {
		// Not enough history to distinguish a comeback from churn.
		return nil
	}

	current := snapshots[0]
	middle := snapshots[len(snapshots)/2]
	oldest := snapshots[len(snapshots)-1]

	candidates := leaderboard.Comebacks(oldest, middle, current)
	if len(candidates) == 0 {
		return nil
	}

	awarded := 0
	for _, studentID := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		achievement, err := j.unlocker.UnlockAchievement(ctx, studentID, gamification.BadgeComebackKing, "leaderboard_return")
		if err != nil {
			j.logger.Warn("comeback badge award failed",
				slog.String("student_id", studentID),
				slog.String("error", err.Error()),
			)
			continue
		}
		// Nil achievement means the badge was already unlocked.
		if achievement != nil {
			awarded++
		}
	}

	j.logger.Info("comeback detection complete",
		slog.Int("candidates", len(candidates)),
		slog.Int("awarded", awarded),
	)
	return nil
}
