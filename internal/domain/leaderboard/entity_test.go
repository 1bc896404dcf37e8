package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEntry(t *testing.T, studentID string, category Category, score float64, updatedAt time.Time) *Entry {
	t.Helper()
	e, err := NewEntry("e-"+studentID, studentID, "Student "+studentID, category, score)
	require.NoError(t, err)
	e.UpdatedAt = updatedAt
	return e
}

func TestNewEntry(t *testing.T) {
	e, err := NewEntry("e-1", "student-1", "Amina", CategoryXP, 1250)
	require.NoError(t, err)

	assert.Equal(t, PeriodCurrent, e.Period)
	assert.Equal(t, 1250.0, e.Score)
}

func TestNewEntry_Validation(t *testing.T) {
	_, err := NewEntry("e-1", "", "Amina", CategoryXP, 10)
	assert.Error(t, err)

	_, err = NewEntry("e-1", "student-1", "Amina", Category("karma"), 10)
	assert.Error(t, err)

	_, err = NewEntry("e-1", "student-1", "Amina", CategoryXP, -5)
	assert.Error(t, err)
}

func TestRanking_Sort(t *testing.T) {
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	r := NewRanking(CategoryXP)
	require.NoError(t, r.Add(mustEntry(t, "a", CategoryXP, 500, base)))
	require.NoError(t, r.Add(mustEntry(t, "b", CategoryXP, 900, base)))
	require.NoError(t, r.Add(mustEntry(t, "c", CategoryXP, 700, base)))

	r.Sort()

	top := r.Top(3)
	assert.Equal(t, "b", top[0].StudentID)
	assert.Equal(t, "c", top[1].StudentID)
	assert.Equal(t, "a", top[2].StudentID)
	assert.Equal(t, Rank(1), top[0].Rank)
	assert.Equal(t, Rank(3), top[2].Rank)
}

func TestRanking_Sort_TieBreakByEarlierUpdate(t *testing.T) {
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	r := NewRanking(CategoryGrades)
	require.NoError(t, r.Add(mustEntry(t, "late", CategoryGrades, 9.5, base.Add(time.Hour))))
	require.NoError(t, r.Add(mustEntry(t, "early", CategoryGrades, 9.5, base)))

	r.Sort()

	// Equal score: whoever reached it first ranks higher.
	top := r.Top(2)
	assert.Equal(t, "early", top[0].StudentID)
	assert.Equal(t, "late", top[1].StudentID)
	assert.Equal(t, Rank(1), top[0].Rank)
	assert.Equal(t, Rank(2), top[1].Rank)
}

func TestRanking_Add_RejectsDuplicateStudent(t *testing.T) {
	base := time.Now()
	r := NewRanking(CategoryXP)
	require.NoError(t, r.Add(mustEntry(t, "a", CategoryXP, 100, base)))

	err := r.Add(mustEntry(t, "a", CategoryXP, 200, base))
	assert.Error(t, err)
	assert.Equal(t, 1, r.Count())
}

func TestSnapshot_ComputeChanges(t *testing.T) {
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	prev := NewRanking(CategoryXP)
	require.NoError(t, prev.Add(mustEntry(t, "a", CategoryXP, 900, base)))
	require.NoError(t, prev.Add(mustEntry(t, "b", CategoryXP, 800, base)))
	prev.Sort()
	prevSnap := NewSnapshot("snap-1", prev)

	// b overtakes a, newcomer c appears.
	current := NewRanking(CategoryXP)
	require.NoError(t, current.Add(mustEntry(t, "a", CategoryXP, 950, base)))
	require.NoError(t, current.Add(mustEntry(t, "b", CategoryXP, 1200, base)))
	require.NoError(t, current.Add(mustEntry(t, "c", CategoryXP, 600, base)))
	current.Sort()

	ComputeChanges(current, prevSnap)

	assert.Equal(t, RankChange(1), current.GetByID("b").RankChange)
	assert.Equal(t, RankChange(-1), current.GetByID("a").RankChange)
	assert.Equal(t, RankChange(0), current.GetByID("c").RankChange)
}

func TestSnapshot_Comebacks(t *testing.T) {
	base := time.Now()

	build := func(ids ...string) *Snapshot {
		r := NewRanking(CategoryXP)
		for _, id := range ids {
			require.NoError(t, r.Add(mustEntry(t, id, CategoryXP, 100, base)))
		}
		r.Sort()
		return NewSnapshot("snap", r)
	}

	before := build("a", "b", "c")
	after := build("a", "c")
	current := build("a", "b", "c")

	assert.Equal(t, []string{"b"}, Comebacks(before, after, current))
	assert.Nil(t, Comebacks(nil, after, current))
}

func TestRankChange_Direction(t *testing.T) {
	assert.Equal(t, RankDirectionUp, RankChange(3).Direction())
	assert.Equal(t, RankDirectionDown, RankChange(-2).Direction())
	assert.Equal(t, RankDirectionStable, RankChange(0).Direction())
	assert.Equal(t, "+3", RankChange(3).String())
	assert.Equal(t, "-2", RankChange(-2).String())
	assert.Equal(t, "±0", RankChange(0).String())
}
