// Package gamification is the application-layer orchestrator: the single
// entry point composing XP awards, streak updates, achievement unlocks
// and leaderboard upserts into atomic-per-call units of work.
package gamification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// Service orchestrates all gamification writes. Constructed once at
// process start and passed into handlers; it holds no mutable state
// of its own.
type Service struct {
	uow             UnitOfWork
	students        student.Repository
	ledger          student.LedgerRepository
	streaks         gamification.StreakRepository
	achievements    gamification.AchievementRepository
	leaderboardRepo leaderboard.Repository
	publisher       shared.EventPublisher
	log             *logger.Logger

	now   func() time.Time
	newID func() string
}

// Config carries the service dependencies.
type Config struct {
	UnitOfWork     UnitOfWork
	Students       student.Repository
	Ledger         student.LedgerRepository
	Streaks        gamification.StreakRepository
	Achievements   gamification.AchievementRepository
	Leaderboard    leaderboard.Repository
	EventPublisher shared.EventPublisher
	Logger         *logger.Logger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// NewService creates the orchestrator.
func NewService(cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	return &Service{
		uow:             cfg.UnitOfWork,
		students:        cfg.Students,
		ledger:          cfg.Ledger,
		streaks:         cfg.Streaks,
		achievements:    cfg.Achievements,
		leaderboardRepo: cfg.Leaderboard,
		publisher:       cfg.EventPublisher,
		log:             cfg.Logger.With(logger.Component("gamification")),
		now:             cfg.Now,
		newID:           cfg.NewID,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// AWARD XP
// ══════════════════════════════════════════════════════════════════════════════

// AwardResult is what an XP award reports back to the caller.
type AwardResult struct {
	TotalXP   int
	NewLevel  int
	LeveledUp bool
}

// AwardXP credits amount to the student, appends the matching ledger
// entry and recomputes the level, all in one transaction. The balance
// mutation and the ledger append commit together or not at all.
func (s *Service) AwardXP(ctx context.Context, studentID string, amount int, reason string, source student.Source) (*AwardResult, error) {
	if amount <= 0 {
		return nil, student.ErrInvalidAmount
	}

	var result AwardResult
	var oldLevel int

	err := s.uow.Execute(ctx, func(repos TxRepositories) error {
		stud, err := repos.Students().GetByID(ctx, studentID)
		if err != nil {
			return err
		}

		oldLevel = gamification.LevelForXP(stud.TotalXP.Int())
		newTotal := stud.TotalXP.Int() + amount
		newLevel := gamification.LevelForXP(newTotal)

		if err := stud.ApplyAward(amount, newLevel); err != nil {
			return err
		}
		if err := repos.Students().Update(ctx, stud); err != nil {
			return err
		}

		entry, err := student.NewExperienceTransaction(s.newID(), studentID, amount, reason, source)
		if err != nil {
			return err
		}
		if err := repos.Ledger().Append(ctx, entry); err != nil {
			return err
		}

		result = AwardResult{
			TotalXP:   newTotal,
			NewLevel:  newLevel,
			LeveledUp: newLevel > oldLevel,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("award xp: %w", err)
	}

	s.log.Info("xp awarded",
		logger.StudentID(studentID),
		logger.XPAmount(amount),
		logger.LevelField(result.NewLevel),
	)

	s.publish(shared.NewXPAwardedEvent(studentID, amount, result.TotalXP, reason, string(source)))
	if result.LeveledUp {
		s.publish(shared.NewLevelUpEvent(studentID, oldLevel, result.NewLevel, result.TotalXP))
	}

	return &result, nil
}

// GetTotalXP returns the student's cumulative XP.
func (s *Service) GetTotalXP(ctx context.Context, studentID string) (int, error) {
	stud, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("get total xp: %w", err)
	}
	return stud.TotalXP.Int(), nil
}

// VerifyLedger cross-checks the invariant that the student's total XP
// equals the sum of their ledger entries. Returns shared.ErrLedgerMismatch
// on divergence.
func (s *Service) VerifyLedger(ctx context.Context, studentID string) error {
	stud, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("verify ledger: %w", err)
	}
	sum, err := s.ledger.SumByStudent(ctx, studentID)
	if err != nil {
		return fmt.Errorf("verify ledger: %w", err)
	}
	if sum != stud.TotalXP.Int() {
		s.log.Error("ledger mismatch",
			logger.StudentID(studentID),
			logger.Int("ledger_sum", sum),
			logger.Int("student_total", stud.TotalXP.Int()),
		)
		return shared.ErrLedgerMismatch
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAKS
// ══════════════════════════════════════════════════════════════════════════════

// StreakResult reports a streak update back to the caller.
type StreakResult struct {
	CurrentStreak int
	LongestStreak int
	Outcome       gamification.StreakOutcome

	// NewAchievement is non-nil when the update landed exactly on a
	// milestone and the badge had not been unlocked before.
	NewAchievement *gamification.Achievement
}

// UpdateStreak applies today's activity to the (student, type) streak,
// creating it on first activity. A milestone length triggers the badge
// unlock cascade; same-day repeats are no-ops.
func (s *Service) UpdateStreak(ctx context.Context, studentID string, streakType gamification.StreakType) (*StreakResult, error) {
	if !streakType.IsValid() {
		return nil, shared.ErrInvalidStreakType
	}

	today := s.now()

	streak, err := s.streaks.GetByStudentAndType(ctx, studentID, streakType)
	switch {
	case err == nil:
	case shared.IsNotFound(err):
		created, cerr := gamification.NewStreak(s.newID(), studentID, streakType, today)
		if cerr != nil {
			return nil, cerr
		}
		if cerr := s.streaks.Create(ctx, created); cerr != nil {
			// Lost a same-day race: another call created the row first.
			if !shared.IsAlreadyExists(cerr) {
				return nil, fmt.Errorf("update streak: %w", cerr)
			}
			return &StreakResult{CurrentStreak: 1, LongestStreak: 1, Outcome: gamification.OutcomeUnchanged}, nil
		}
		return &StreakResult{CurrentStreak: 1, LongestStreak: 1, Outcome: gamification.OutcomeStarted}, nil
	default:
		return nil, fmt.Errorf("update streak: %w", err)
	}

	prev := streak.CurrentStreak
	advance := streak.Advance(today)

	if advance.Outcome == gamification.OutcomeUnchanged {
		return &StreakResult{
			CurrentStreak: advance.CurrentStreak,
			LongestStreak: advance.LongestStreak,
			Outcome:       advance.Outcome,
		}, nil
	}

	if err := s.streaks.Update(ctx, streak); err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}

	result := &StreakResult{
		CurrentStreak: advance.CurrentStreak,
		LongestStreak: advance.LongestStreak,
		Outcome:       advance.Outcome,
	}

	switch advance.Outcome {
	case gamification.OutcomeExtended:
		s.publish(shared.NewStreakExtendedEvent(studentID, string(streakType), advance.CurrentStreak, advance.LongestStreak))
	case gamification.OutcomeReset:
		s.publish(shared.NewStreakBrokenEvent(studentID, string(streakType), prev, 0))
	}

	if advance.HasMilestone {
		unlocked, err := s.UnlockAchievement(ctx, studentID, advance.Milestone, string(streakType))
		if err != nil {
			// The streak itself is saved; surface the unlock failure.
			return nil, fmt.Errorf("update streak: milestone unlock: %w", err)
		}
		result.NewAchievement = unlocked
	}

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// UnlockAchievement idempotently grants a badge. The achievement insert,
// the XP ledger append and the student total/level update commit in ONE
// transaction. Returns nil (no error) when the badge was already
// unlocked: no duplicate record, no duplicate XP.
func (s *Service) UnlockAchievement(ctx context.Context, studentID string, badgeType gamification.BadgeType, unlockContext string) (*gamification.Achievement, error) {
	badge, err := gamification.BadgeDetails(badgeType)
	if err != nil {
		return nil, err
	}

	var unlocked *gamification.Achievement

	err = s.uow.Execute(ctx, func(repos TxRepositories) error {
		achievement, err := gamification.NewAchievement(s.newID(), studentID, badgeType, unlockContext)
		if err != nil {
			return err
		}

		inserted, err := repos.Achievements().CreateIfAbsent(ctx, achievement)
		if err != nil {
			return err
		}
		if !inserted {
			// Already unlocked, or this call lost the race: no-op.
			return nil
		}

		stud, err := repos.Students().GetByID(ctx, studentID)
		if err != nil {
			return err
		}

		newTotal := stud.TotalXP.Int() + badge.XPEarned
		newLevel := gamification.LevelForXP(newTotal)
		if err := stud.ApplyAward(badge.XPEarned, newLevel); err != nil {
			return err
		}
		if err := repos.Students().Update(ctx, stud); err != nil {
			return err
		}

		reason := fmt.Sprintf("Unlocked %s", badge.Title)
		entry, err := student.NewExperienceTransaction(s.newID(), studentID, badge.XPEarned, reason, student.SourceAchievement)
		if err != nil {
			return err
		}
		if err := repos.Ledger().Append(ctx, entry); err != nil {
			return err
		}

		unlocked = achievement
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unlock achievement: %w", err)
	}
	if unlocked == nil {
		return nil, nil
	}

	s.log.Info("achievement unlocked",
		logger.StudentID(studentID),
		logger.BadgeType(string(badgeType)),
		logger.XPAmount(badge.XPEarned),
	)
	s.publish(shared.NewAchievementUnlockedEvent(studentID, string(badgeType), badge.Title, string(badge.Rarity), badge.XPEarned))

	return unlocked, nil
}

// Activity describes a raw event for automatic achievement checks.
type Activity struct {
	Type ActivityType
	Data ActivityData
}

// ActivityType dispatches the automatic checks.
type ActivityType string

const (
	ActivityAttendance ActivityType = "attendance"
	ActivityGrade      ActivityType = "grade"
	ActivityAssignment ActivityType = "assignment"
	ActivitySocial     ActivityType = "social"
)

// ActivityData carries the facts the checks look at.
type ActivityData struct {
	// Attendance: percentage for the current week.
	Percentage float64

	// Grade: the letter just earned and the resulting CGPA.
	GradeLetter string
	CGPA        float64

	// Assignment: whether the hand-in beat the deadline by a day.
	SubmittedEarly bool

	// Social: running contribution counters.
	PeersHelped int
	NotesShared int
}

// CheckAndAwardAchievements runs the automatic badge checks for one
// activity and returns newly unlocked achievements. Already-unlocked
// badges are skipped silently.
func (s *Service) CheckAndAwardAchievements(ctx context.Context, studentID string, act Activity) ([]*gamification.Achievement, error) {
	var candidates []gamification.BadgeType

	switch act.Type {
	case ActivityAttendance:
		if act.Data.Percentage == 100 {
			candidates = append(candidates, gamification.BadgePerfectWeek)
		}
	case ActivityGrade:
		if act.Data.GradeLetter == "A+" {
			candidates = append(candidates, gamification.BadgeFirstAPlus)
		}
		if act.Data.CGPA >= 9 {
			candidates = append(candidates, gamification.BadgeDeanList)
		}
	case ActivityAssignment:
		if act.Data.SubmittedEarly {
			candidates = append(candidates, gamification.BadgeEarlyBird)
		}
	case ActivitySocial:
		if act.Data.PeersHelped >= 10 {
			candidates = append(candidates, gamification.BadgeHelpfulPeer)
		}
		if act.Data.NotesShared >= 50 {
			candidates = append(candidates, gamification.BadgeKnowledgeSharer)
		}
	default:
		return nil, shared.ErrInvalidActivityType
	}

	var unlocked []*gamification.Achievement
	for _, badgeType := range candidates {
		achievement, err := s.UnlockAchievement(ctx, studentID, badgeType, string(act.Type))
		if err != nil {
			return unlocked, err
		}
		if achievement != nil {
			unlocked = append(unlocked, achievement)
		}
	}
	return unlocked, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// UpdateLeaderboard upserts the student's score in a category for the
// current period. One entry per (student, category); a concurrent
// duplicate becomes an update of the same row.
func (s *Service) UpdateLeaderboard(ctx context.Context, studentID string, category leaderboard.Category, score float64) error {
	stud, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}

	entry, err := leaderboard.NewEntry(s.newID(), studentID, stud.DisplayName, category, score)
	if err != nil {
		return err
	}
	if err := s.leaderboardRepo.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}

	s.publish(shared.NewLeaderboardUpdatedEvent(studentID, string(category), score))
	return nil
}

// GetLeaderboard returns the top entries of a category, score
// descending, earlier update winning ties.
func (s *Service) GetLeaderboard(ctx context.Context, category leaderboard.Category, limit int) ([]*leaderboard.Entry, error) {
	if !category.IsValid() {
		return nil, shared.ErrInvalidCategory
	}
	if limit <= 0 {
		limit = 100
	}

	entries, err := s.leaderboardRepo.GetTop(ctx, category, limit)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	return entries, nil
}

// publish swallows publisher errors: event delivery is best-effort and
// never fails the business operation.
func (s *Service) publish(event shared.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		s.log.Warn("event publish failed", logger.Err(err), logger.String("event", string(event.EventType())))
	}
}
