package gamification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
	"github.com/studypulse/studypulse-backend/pkg/timeutil"
)

// ──────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu           sync.Mutex
	students     map[string]*student.Student
	ledger       []*student.ExperienceTransaction
	achievements map[string]*domain.Achievement // key: studentID|badgeType
	streaks      map[string]*domain.Streak      // key: studentID|type
	entries      map[string]*leaderboard.Entry  // key: studentID|category

	failLedgerAppend bool
}

func newMemStore() *memStore {
	return &memStore{
		students:     make(map[string]*student.Student),
		achievements: make(map[string]*domain.Achievement),
		streaks:      make(map[string]*domain.Streak),
		entries:      make(map[string]*leaderboard.Entry),
	}
}

type memStudents struct{ s *memStore }

func (r memStudents) Create(_ context.Context, st *student.Student) error {
	if _, ok := r.s.students[st.ID]; ok {
		return shared.ErrStudentAlreadyExists
	}
	r.s.students[st.ID] = st.Clone()
	return nil
}

func (r memStudents) GetByID(_ context.Context, id string) (*student.Student, error) {
	st, ok := r.s.students[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return st.Clone(), nil
}

func (r memStudents) GetByAuthUserID(_ context.Context, authID string) (*student.Student, error) {
	for _, st := range r.s.students {
		if st.AuthUserID == authID {
			return st.Clone(), nil
		}
	}
	return nil, shared.ErrStudentNotFound
}

func (r memStudents) Update(_ context.Context, st *student.Student) error {
	if _, ok := r.s.students[st.ID]; !ok {
		return shared.ErrStudentNotFound
	}
	r.s.students[st.ID] = st.Clone()
	return nil
}

func (r memStudents) GetAll(_ context.Context, _ student.ListOptions) ([]*student.Student, error) {
	var out []*student.Student
	for _, st := range r.s.students {
		out = append(out, st.Clone())
	}
	return out, nil
}

func (r memStudents) Count(_ context.Context) (int, error) { return len(r.s.students), nil }

type memLedger struct{ s *memStore }

func (r memLedger) Append(_ context.Context, tx *student.ExperienceTransaction) error {
	if r.s.failLedgerAppend {
		return shared.ErrStoreUnavailable
	}
	r.s.ledger = append(r.s.ledger, tx)
	return nil
}

func (r memLedger) ListByStudent(_ context.Context, studentID string, _ student.ListOptions) ([]*student.ExperienceTransaction, error) {
	var out []*student.ExperienceTransaction
	for _, tx := range r.s.ledger {
		if tx.StudentID == studentID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r memLedger) SumByStudent(_ context.Context, studentID string) (int, error) {
	sum := 0
	for _, tx := range r.s.ledger {
		if tx.StudentID == studentID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

type memAchievements struct{ s *memStore }

func achKey(studentID string, badgeType domain.BadgeType) string {
	return studentID + "|" + string(badgeType)
}

func (r memAchievements) GetByStudentAndBadge(_ context.Context, studentID string, badgeType domain.BadgeType) (*domain.Achievement, error) {
	a, ok := r.s.achievements[achKey(studentID, badgeType)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (r memAchievements) ListByStudent(_ context.Context, studentID string) ([]*domain.Achievement, error) {
	var out []*domain.Achievement
	for _, a := range r.s.achievements {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAchievements) CreateIfAbsent(_ context.Context, a *domain.Achievement) (bool, error) {
	key := achKey(a.StudentID, a.BadgeType)
	if _, exists := r.s.achievements[key]; exists {
		return false, nil
	}
	r.s.achievements[key] = a
	return true, nil
}

func (r memAchievements) CountByStudent(_ context.Context, studentID string) (int, error) {
	n := 0
	for _, a := range r.s.achievements {
		if a.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

type memStreaks struct{ s *memStore }

func streakKey(studentID string, t domain.StreakType) string {
	return studentID + "|" + string(t)
}

func (r memStreaks) GetByStudentAndType(_ context.Context, studentID string, t domain.StreakType) (*domain.Streak, error) {
	st, ok := r.s.streaks[streakKey(studentID, t)]
	if !ok {
		return nil, shared.ErrStreakNotFound
	}
	return st.Clone(), nil
}

func (r memStreaks) ListByStudent(_ context.Context, studentID string) ([]*domain.Streak, error) {
	var out []*domain.Streak
	for _, st := range r.s.streaks {
		if st.StudentID == studentID {
			out = append(out, st.Clone())
		}
	}
	return out, nil
}

func (r memStreaks) Create(_ context.Context, st *domain.Streak) error {
	key := streakKey(st.StudentID, st.Type)
	if _, exists := r.s.streaks[key]; exists {
		return shared.ErrAlreadyExists
	}
	r.s.streaks[key] = st.Clone()
	return nil
}

func (r memStreaks) Update(_ context.Context, st *domain.Streak) error {
	r.s.streaks[streakKey(st.StudentID, st.Type)] = st.Clone()
	return nil
}

type memLeaderboard struct{ s *memStore }

var _ leaderboard.Repository = memLeaderboard{}

func (r memLeaderboard) Upsert(_ context.Context, e *leaderboard.Entry) error {
	key := e.StudentID + "|" + string(e.Category)
	if existing, ok := r.s.entries[key]; ok {
		existing.Score = e.Score
		existing.UpdatedAt = e.UpdatedAt
		return nil
	}
	r.s.entries[key] = e.Clone()
	return nil
}

func (r memLeaderboard) GetByStudentAndCategory(_ context.Context, studentID string, c leaderboard.Category) (*leaderboard.Entry, error) {
	e, ok := r.s.entries[studentID+"|"+string(c)]
	if !ok {
		return nil, shared.ErrLeaderboardNotFound
	}
	return e.Clone(), nil
}

func (r memLeaderboard) GetTop(_ context.Context, c leaderboard.Category, limit int) ([]*leaderboard.Entry, error) {
	var out []*leaderboard.Entry
	for _, e := range r.s.entries {
		if e.Category == c {
			out = append(out, e.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memLeaderboard) ListAll(ctx context.Context, c leaderboard.Category) ([]*leaderboard.Entry, error) {
	return r.GetTop(ctx, c, 1<<30)
}

func (r memLeaderboard) GetStudentRank(ctx context.Context, studentID string, c leaderboard.Category) (leaderboard.Rank, error) {
	all, _ := r.ListAll(ctx, c)
	for i, e := range all {
		if e.StudentID == studentID {
			return leaderboard.Rank(i + 1), nil
		}
	}
	return 0, nil
}

func (r memLeaderboard) GetTotalCount(ctx context.Context, c leaderboard.Category) (int, error) {
	all, _ := r.ListAll(ctx, c)
	return len(all), nil
}

func (r memLeaderboard) UpdateRankChanges(_ context.Context, c leaderboard.Category, changes map[string]int) error {
	for studentID, change := range changes {
		if e, ok := r.s.entries[studentID+"|"+string(c)]; ok {
			e.RankChange = leaderboard.RankChange(change)
		}
	}
	return nil
}

func (r memLeaderboard) SaveSnapshot(_ context.Context, _ *leaderboard.Snapshot) error { return nil }
func (r memLeaderboard) GetLatestSnapshot(_ context.Context, _ leaderboard.Category) (*leaderboard.Snapshot, error) {
	return nil, shared.ErrLeaderboardNotFound
}
func (r memLeaderboard) ListSnapshots(_ context.Context, _ leaderboard.Category, _, _ time.Time) ([]*leaderboard.Snapshot, error) {
	return nil, nil
}
func (r memLeaderboard) DeleteOldSnapshots(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

// memUoW snapshots the store before running fn and restores it when fn
// fails, approximating transactional rollback.
type memUoW struct{ s *memStore }

type memTxRepos struct{ s *memStore }

func (r memTxRepos) Students() student.Repository                { return memStudents{r.s} }
func (r memTxRepos) Ledger() student.LedgerRepository            { return memLedger{r.s} }
func (r memTxRepos) Achievements() domain.AchievementRepository  { return memAchievements{r.s} }
func (r memTxRepos) Streaks() domain.StreakRepository            { return memStreaks{r.s} }

func (u memUoW) Execute(_ context.Context, fn func(repos TxRepositories) error) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	backupStudents := make(map[string]*student.Student, len(u.s.students))
	for k, v := range u.s.students {
		backupStudents[k] = v.Clone()
	}
	backupLedger := make([]*student.ExperienceTransaction, len(u.s.ledger))
	copy(backupLedger, u.s.ledger)
	backupAch := make(map[string]*domain.Achievement, len(u.s.achievements))
	for k, v := range u.s.achievements {
		backupAch[k] = v
	}

	if err := fn(memTxRepos{u.s}); err != nil {
		u.s.students = backupStudents
		u.s.ledger = backupLedger
		u.s.achievements = backupAch
		return err
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store   *memStore
	service *Service
	nowFn   func() time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	f := &fixture{store: store}
	f.nowFn = func() time.Time {
		return time.Date(2026, time.March, 10, 12, 0, 0, 0, timeutil.CampusTZ)
	}

	seq := 0
	f.service = NewService(Config{
		UnitOfWork:   memUoW{store},
		Students:     memStudents{store},
		Ledger:       memLedger{store},
		Streaks:      memStreaks{store},
		Achievements: memAchievements{store},
		Leaderboard:  memLeaderboard{store},
		Now:          func() time.Time { return f.nowFn() },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%04d", seq)
		},
	})
	return f
}

func (f *fixture) seedStudent(t *testing.T, id string, totalXP int) {
	t.Helper()
	st, err := student.NewStudent(student.NewStudentParams{
		ID:          id,
		AuthUserID:  "auth-" + id,
		Email:       id + "@studypulse.app",
		DisplayName: "Student " + id,
		Program:     "btech-cse",
		Semester:    3,
	})
	require.NoError(t, err)
	require.NoError(t, memStudents{f.store}.Create(context.Background(), st))

	if totalXP > 0 {
		_, err := f.service.AwardXP(context.Background(), id, totalXP, "seed", student.SourceManual)
		require.NoError(t, err)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// AwardXP
// ──────────────────────────────────────────────────────────────────────────────

func TestService_AwardXP(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)
	ctx := context.Background()

	result, err := f.service.AwardXP(ctx, "s1", 250, "quiz", student.SourceManual)
	require.NoError(t, err)

	assert.Equal(t, 250, result.TotalXP)
	assert.Equal(t, 2, result.NewLevel)
	assert.True(t, result.LeveledUp)

	// Ledger entry landed with the balance.
	sum, err := memLedger{f.store}.SumByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 250, sum)

	total, err := f.service.GetTotalXP(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 250, total)
}

func TestService_AwardXP_NoLevelUp(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)

	result, err := f.service.AwardXP(context.Background(), "s1", 50, "attendance", student.SourceAttendance)
	require.NoError(t, err)

	assert.Equal(t, 1, result.NewLevel)
	assert.False(t, result.LeveledUp)
}

func TestService_AwardXP_RejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)

	_, err := f.service.AwardXP(context.Background(), "s1", 0, "noop", student.SourceManual)
	assert.Error(t, err)

	_, err = f.service.AwardXP(context.Background(), "s1", -10, "steal", student.SourceManual)
	assert.Error(t, err)
}

func TestService_AwardXP_UnknownStudent(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.AwardXP(context.Background(), "ghost", 100, "quiz", student.SourceManual)
	assert.True(t, shared.IsNotFound(err))
}

func TestService_AwardXP_AtomicRollback(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 100)
	ctx := context.Background()

	// Ledger append fails: the balance mutation must not survive.
	f.store.failLedgerAppend = true
	_, err := f.service.AwardXP(ctx, "s1", 50, "quiz", student.SourceManual)
	require.Error(t, err)
	f.store.failLedgerAppend = false

	total, err := f.service.GetTotalXP(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 100, total)

	require.NoError(t, f.service.VerifyLedger(ctx, "s1"))
}

func TestService_VerifyLedger_DetectsMismatch(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 100)

	// Corrupt the ledger behind the service's back.
	f.store.ledger = nil

	err := f.service.VerifyLedger(context.Background(), "s1")
	assert.ErrorIs(t, err, shared.ErrLedgerMismatch)
}

// ──────────────────────────────────────────────────────────────────────────────
// UnlockAchievement
// ──────────────────────────────────────────────────────────────────────────────

func TestService_UnlockAchievement(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)
	ctx := context.Background()

	unlocked, err := f.service.UnlockAchievement(ctx, "s1", domain.BadgeFirstAPlus, "")
	require.NoError(t, err)
	require.NotNil(t, unlocked)

	assert.Equal(t, "First A+", unlocked.Title)
	assert.Equal(t, 100, unlocked.XPEarned)

	// The badge XP landed atomically with the record.
	total, err := f.service.GetTotalXP(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 100, total)
	require.NoError(t, f.service.VerifyLedger(ctx, "s1"))
}

func TestService_UnlockAchievement_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)
	ctx := context.Background()

	first, err := f.service.UnlockAchievement(ctx, "s1", domain.BadgeFirstAPlus, "")
	require.NoError(t, err)
	require.NotNil(t, first)

	// Second unlock: no record, no duplicate XP.
	second, err := f.service.UnlockAchievement(ctx, "s1", domain.BadgeFirstAPlus, "")
	require.NoError(t, err)
	assert.Nil(t, second)

	count, err := memAchievements{f.store}.CountByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	total, err := f.service.GetTotalXP(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 100, total)
}

func TestService_UnlockAchievement_UnknownBadge(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)

	_, err := f.service.UnlockAchievement(context.Background(), "s1", domain.BadgeType("golden_unicorn"), "")
	assert.ErrorIs(t, err, shared.ErrUnknownBadge)
}

func TestService_UnlockAchievement_RollsBackOnLedgerFailure(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)
	ctx := context.Background()

	f.store.failLedgerAppend = true
	_, err := f.service.UnlockAchievement(ctx, "s1", domain.BadgeDeanList, "")
	require.Error(t, err)
	f.store.failLedgerAppend = false

	// Neither the achievement nor the XP survived.
	count, err := memAchievements{f.store}.CountByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	total, err := f.service.GetTotalXP(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	// A later retry succeeds cleanly.
	unlocked, err := f.service.UnlockAchievement(ctx, "s1", domain.BadgeDeanList, "")
	require.NoError(t, err)
	assert.NotNil(t, unlocked)
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateStreak
// ──────────────────────────────────────────────────────────────────────────────

func TestService_UpdateStreak_FirstActivity(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)

	result, err := f.service.UpdateStreak(context.Background(), "s1", domain.StreakLogin)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeStarted, result.Outcome)
	assert.Equal(t, 1, result.CurrentStreak)
}

func TestService_UpdateStreak_SameDayNoOp(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)
	ctx := context.Background()

	_, err := f.service.UpdateStreak(ctx, "s1", domain.StreakLogin)
	require.NoError(t, err)

	result, err := f.service.UpdateStreak(ctx, "s1", domain.StreakLogin)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnchanged, result.Outcome)
	assert.Equal(t, 1, result.CurrentStreak)
}

func TestService_UpdateStreak_SeventhDayUnlocksWeekStreak(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, timeutil.CampusTZ)
	var result *StreakResult
	for d := 0; d < 7; d++ {
		day := base.AddDate(0, 0, d)
		f.nowFn = func() time.Time { return day }
		var err error
		result, err = f.service.UpdateStreak(ctx, "s1", domain.StreakAttendance)
		require.NoError(t, err)
	}

	assert.Equal(t, 7, result.CurrentStreak)
	require.NotNil(t, result.NewAchievement)
	assert.Equal(t, domain.BadgeWeekStreak, result.NewAchievement.BadgeType)
	assert.Equal(t, "attendance", result.NewAchievement.Context)

	// The milestone badge's XP went through the award path.
	total, err := f.service.GetTotalXP(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 100, total)
	require.NoError(t, f.service.VerifyLedger(ctx, "s1"))
}

func TestService_UpdateStreak_GapResetsPreservingLongest(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, timeutil.CampusTZ)
	for d := 0; d < 3; d++ {
		day := base.AddDate(0, 0, d)
		f.nowFn = func() time.Time { return day }
		_, err := f.service.UpdateStreak(ctx, "s1", domain.StreakStudy)
		require.NoError(t, err)
	}

	// Three days later.
	f.nowFn = func() time.Time { return base.AddDate(0, 0, 6) }
	result, err := f.service.UpdateStreak(ctx, "s1", domain.StreakStudy)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeReset, result.Outcome)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 3, result.LongestStreak)
}

func TestService_UpdateStreak_MilestoneOncePerLifetime(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)
	ctx := context.Background()

	base := time.Date(2026, time.January, 1, 9, 0, 0, 0, timeutil.CampusTZ)

	// Grow to 7, break, regrow to 7. The second milestone crossing
	// finds the badge already unlocked and awards nothing.
	for d := 0; d < 7; d++ {
		day := base.AddDate(0, 0, d)
		f.nowFn = func() time.Time { return day }
		_, err := f.service.UpdateStreak(ctx, "s1", domain.StreakLogin)
		require.NoError(t, err)
	}
	var lastResult *StreakResult
	for d := 9; d < 16; d++ {
		day := base.AddDate(0, 0, d)
		f.nowFn = func() time.Time { return day }
		var err error
		lastResult, err = f.service.UpdateStreak(ctx, "s1", domain.StreakLogin)
		require.NoError(t, err)
	}

	assert.Equal(t, 7, lastResult.CurrentStreak)
	assert.Nil(t, lastResult.NewAchievement)

	total, err := f.service.GetTotalXP(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 100, total)
}

func TestService_UpdateStreak_InvalidType(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)

	_, err := f.service.UpdateStreak(context.Background(), "s1", domain.StreakType("gym"))
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// CheckAndAwardAchievements
// ──────────────────────────────────────────────────────────────────────────────

func TestService_CheckAndAward_PerfectAttendance(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)

	unlocked, err := f.service.CheckAndAwardAchievements(context.Background(), "s1", Activity{
		Type: ActivityAttendance,
		Data: ActivityData{Percentage: 100},
	})
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, domain.BadgePerfectWeek, unlocked[0].BadgeType)
}

func TestService_CheckAndAward_GradeUnlocksTwoBadges(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)

	unlocked, err := f.service.CheckAndAwardAchievements(context.Background(), "s1", Activity{
		Type: ActivityGrade,
		Data: ActivityData{GradeLetter: "A+", CGPA: 9.2},
	})
	require.NoError(t, err)
	require.Len(t, unlocked, 2)
	assert.Equal(t, domain.BadgeFirstAPlus, unlocked[0].BadgeType)
	assert.Equal(t, domain.BadgeDeanList, unlocked[1].BadgeType)
}

func TestService_CheckAndAward_FirstEarlySubmissionUnlocksEarlyBird(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)

	unlocked, err := f.service.CheckAndAwardAchievements(context.Background(), "s1", Activity{
		Type: ActivityAssignment,
		Data: ActivityData{SubmittedEarly: true},
	})
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, domain.BadgeEarlyBird, unlocked[0].BadgeType)

	// An on-time hand-in never triggers it.
	f.seedStudent(t, "s2", 0)
	unlocked, err = f.service.CheckAndAwardAchievements(context.Background(), "s2", Activity{
		Type: ActivityAssignment,
		Data: ActivityData{SubmittedEarly: false},
	})
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestService_CheckAndAward_BelowThresholdsNoop(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)

	unlocked, err := f.service.CheckAndAwardAchievements(context.Background(), "s1", Activity{
		Type: ActivityGrade,
		Data: ActivityData{GradeLetter: "B+", CGPA: 7.5},
	})
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestService_CheckAndAward_InvalidActivity(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)

	_, err := f.service.CheckAndAwardAchievements(context.Background(), "s1", Activity{Type: "karaoke"})
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Leaderboard
// ──────────────────────────────────────────────────────────────────────────────

func TestService_UpdateLeaderboard_UpsertsSingleRow(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "s1", 0)
	ctx := context.Background()

	require.NoError(t, f.service.UpdateLeaderboard(ctx, "s1", leaderboard.CategoryXP, 500))
	require.NoError(t, f.service.UpdateLeaderboard(ctx, "s1", leaderboard.CategoryXP, 750))

	entries, err := f.service.GetLeaderboard(ctx, leaderboard.CategoryXP, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 750.0, entries[0].Score)
}

func TestService_GetLeaderboard_OrderedByScoreDesc(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, score := range []float64{300, 900, 600} {
		id := fmt.Sprintf("s%d", i+1)
		f.seedStudent(t, id, 0)
		require.NoError(t, f.service.UpdateLeaderboard(ctx, id, leaderboard.CategoryGrades, score))
	}

	entries, err := f.service.GetLeaderboard(ctx, leaderboard.CategoryGrades, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 900.0, entries[0].Score)
	assert.Equal(t, 600.0, entries[1].Score)
}

func TestService_GetLeaderboard_InvalidCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetLeaderboard(context.Background(), leaderboard.Category("karma"), 10)
	assert.Error(t, err)
}

func TestService_UpdateLeaderboard_UnknownStudent(t *testing.T) {
	f := newFixture(t)

	err := f.service.UpdateLeaderboard(context.Background(), "ghost", leaderboard.CategoryXP, 100)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
