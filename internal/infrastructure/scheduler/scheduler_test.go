package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// FAKES
// ──────────────────────────────────────────────────────────────────────────────

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Name() string        { return j.name }
func (j *stubJob) Description() string { return "stub job for scheduler tests" }

func (j *stubJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func quietScheduler() *Scheduler {
	cfg := DefaultSchedulerConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewScheduler(cfg)
}

// ──────────────────────────────────────────────────────────────────────────────
// CRON PARSING
// ──────────────────────────────────────────────────────────────────────────────

func TestParseCronExpression_Fields(t *testing.T) {
	tests := []struct {
		expr    string
		after   time.Time
		want    time.Time
		comment string
	}{
		{
			expr:    "0 21 * * *",
			after:   time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC),
			want:    time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC),
			comment: "daily digest slot same day",
		},
		{
			expr:    "0 21 * * *",
			after:   time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC),
			want:    time.Date(2026, 3, 11, 21, 0, 0, 0, time.UTC),
			comment: "already fired, rolls to next day",
		},
		{
			expr:    "*/15 * * * *",
			after:   time.Date(2026, 3, 10, 10, 7, 0, 0, time.UTC),
			want:    time.Date(2026, 3, 10, 10, 15, 0, 0, time.UTC),
			comment: "step values",
		},
		{
			expr:    "0 0 * * 0",
			after:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), // Tuesday
			want:    time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),  // Sunday
			comment: "weekday restriction",
		},
		{
			expr:    "30 8 1 * *",
			after:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
			want:    time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC),
			comment: "first of month",
		},
	}

	for _, tc := range tests {
		ce, err := ParseCronExpression(tc.expr)
		require.NoError(t, err, tc.comment)
		assert.Equal(t, tc.want, ce.Next(tc.after), tc.comment)
		assert.Equal(t, tc.expr, ce.String())
	}
}

func TestParseCronExpression_Invalid(t *testing.T) {
	for _, expr := range []string{
		"",
		"* * * *",
		"60 * * * *",
		"* 24 * * *",
		"x * * * *",
		"*/0 * * * *",
		"a-b * * * *",
		"a-b/2 * * * *",
		"x/2 * * * *",
		"1-x * * * *",
	} {
		_, err := ParseCronExpression(expr)
		assert.Error(t, err, expr)
	}
}

func TestParseCronExpression_ListsAndRanges(t *testing.T) {
	ce, err := ParseCronExpression("0 9-11 * * 1,3,5")
	require.NoError(t, err)

	// Monday 10:00 matches the range and weekday list.
	mon := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), ce.Next(mon))

	// Tuesday skips to Wednesday.
	tue := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), ce.Next(tue))
}

func TestIntervalSchedule_Next(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Minute)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(10*time.Minute), s.Next(now))
	assert.Contains(t, s.String(), "10m")
}

// ──────────────────────────────────────────────────────────────────────────────
// SCHEDULER
// ──────────────────────────────────────────────────────────────────────────────

func TestScheduler_RegisterRejectsDuplicates(t *testing.T) {
	s := quietScheduler()
	job := &stubJob{name: "rebuild_leaderboard"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))
	err := s.Register(job, NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(job, nil), ErrNilSchedule)
}

func TestScheduler_EnableDisable(t *testing.T) {
	s := quietScheduler()
	require.NoError(t, s.Register(&stubJob{name: "detect_streaks"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.DisableJob("detect_streaks"))
	info, err := s.GetJobInfo("detect_streaks")
	require.NoError(t, err)
	assert.False(t, info.Enabled)

	require.NoError(t, s.EnableJob("detect_streaks"))
	info, err = s.GetJobInfo("detect_streaks")
	require.NoError(t, err)
	assert.True(t, info.Enabled)

	assert.ErrorIs(t, s.DisableJob("missing"), ErrJobNotFound)
}

func TestScheduler_RunNow(t *testing.T) {
	s := quietScheduler()
	job := &stubJob{name: "attendance_digest"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "attendance_digest")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, job.runs)

	history := s.GetHistory(10)
	require.Len(t, history, 1)
	assert.Equal(t, "attendance_digest", history[0].JobName)

	snap := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalExecutions)
	assert.Equal(t, int64(1), snap.TotalSuccesses)
}

func TestScheduler_RunNowReturnsJobError(t *testing.T) {
	s := quietScheduler()
	errJob := errors.New("digest source unavailable")
	require.NoError(t, s.Register(&stubJob{name: "attendance_digest", err: errJob}, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "attendance_digest")
	assert.ErrorIs(t, err, errJob)
	require.NotNil(t, result)
	assert.False(t, result.Success)

	snap := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalFailures)
}

func TestScheduler_StartStop(t *testing.T) {
	s := quietScheduler()
	require.NoError(t, s.Register(&stubJob{name: "noop"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

// ──────────────────────────────────────────────────────────────────────────────
// CRON SCHEDULER
// ──────────────────────────────────────────────────────────────────────────────

func TestCronScheduler_AddAndInspectJobs(t *testing.T) {
	cs := NewCronScheduler(
		WithLocation(time.UTC),
		WithCronLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	require.NoError(t, cs.AddJob("digest", EveryDay21PM, &stubJob{name: "digest"}))
	assert.Error(t, cs.AddJob("broken", "not a cron", &stubJob{name: "broken"}))

	status, ok := cs.GetJobStatus("digest")
	require.True(t, ok)
	assert.True(t, status.Enabled)
	assert.False(t, status.NextRun.IsZero())

	require.NoError(t, cs.DisableJob("digest"))
	status, _ = cs.GetJobStatus("digest")
	assert.False(t, status.Enabled)

	require.NoError(t, cs.EnableJob("digest"))
	assert.Len(t, cs.ListJobs(), 1)

	cs.RemoveJob("digest")
	_, ok = cs.GetJobStatus("digest")
	assert.False(t, ok)
}
