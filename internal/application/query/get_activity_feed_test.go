package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studypulse/studypulse-backend/internal/domain/activity"
)

// ──────────────────────────────────────────────────────────────────────────────
// In-memory fake
// ──────────────────────────────────────────────────────────────────────────────

type memActivities struct {
	entries []*activity.Activity
}

func (r *memActivities) Append(_ context.Context, a *activity.Activity) error {
	r.entries = append(r.entries, a)
	return nil
}

func (r *memActivities) ListByStudent(_ context.Context, studentID string, limit int) ([]*activity.Activity, error) {
	var out []*activity.Activity
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].StudentID == studentID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *memActivities) ListByStudentAndType(_ context.Context, studentID string, activityType activity.Type, from, to time.Time) ([]*activity.Activity, error) {
	var out []*activity.Activity
	for _, e := range r.entries {
		if e.StudentID == studentID && e.Type == activityType && !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func seedActivities(t *testing.T, repo *memActivities, studentID string, n int) {
	t.Helper()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		entry, err := activity.NewActivity(
			fmt.Sprintf("act-%d", i),
			studentID,
			activity.TypeAttendance,
			base.Add(time.Duration(i)*time.Hour),
			activity.Data{AttendancePercentage: 80},
		)
		require.NoError(t, err)
		require.NoError(t, repo.Append(context.Background(), entry))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestGetActivityFeed_NewestFirst(t *testing.T) {
	repo := &memActivities{}
	seedActivities(t, repo, "student-1", 3)

	grade, err := activity.NewActivity("act-grade", "student-1", activity.TypeGrade,
		time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC),
		activity.Data{GradeLetter: "A", CGPA: 8.7})
	require.NoError(t, err)
	require.NoError(t, repo.Append(context.Background(), grade))

	h := NewGetActivityFeedHandler(repo)
	result, err := h.Handle(context.Background(), GetActivityFeedQuery{StudentID: "student-1"})
	require.NoError(t, err)

	require.Len(t, result.Activities, 4)
	assert.Equal(t, "act-grade", result.Activities[0].ID)
	assert.Equal(t, "grade", result.Activities[0].Type)
	assert.Equal(t, "A", result.Activities[0].GradeLetter)
	assert.InDelta(t, 8.7, result.Activities[0].CGPA, 0.001)
	assert.Equal(t, "student-1", result.StudentID)
	assert.False(t, result.GeneratedAt.IsZero())
}

func TestGetActivityFeed_LimitDefaultsAndCaps(t *testing.T) {
	repo := &memActivities{}
	seedActivities(t, repo, "student-1", 30)

	h := NewGetActivityFeedHandler(repo)

	result, err := h.Handle(context.Background(), GetActivityFeedQuery{StudentID: "student-1"})
	require.NoError(t, err)
	assert.Len(t, result.Activities, 20)

	result, err = h.Handle(context.Background(), GetActivityFeedQuery{StudentID: "student-1", Limit: 5})
	require.NoError(t, err)
	assert.Len(t, result.Activities, 5)

	result, err = h.Handle(context.Background(), GetActivityFeedQuery{StudentID: "student-1", Limit: 500})
	require.NoError(t, err)
	assert.Len(t, result.Activities, 30)
}

func TestGetActivityFeed_Validation(t *testing.T) {
	h := NewGetActivityFeedHandler(&memActivities{})

	_, err := h.Handle(context.Background(), GetActivityFeedQuery{})
	require.Error(t, err)

	_, err = h.Handle(context.Background(), GetActivityFeedQuery{StudentID: "student-1", Limit: -1})
	require.Error(t, err)
}

func TestGetActivityFeed_EmptyFeed(t *testing.T) {
	h := NewGetActivityFeedHandler(&memActivities{})

	result, err := h.Handle(context.Background(), GetActivityFeedQuery{StudentID: "student-1"})
	require.NoError(t, err)
	assert.Empty(t, result.Activities)
}
