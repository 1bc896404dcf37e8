package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp       int
		expected int
	}{
		{0, 1},
		{-50, 1},
		{99, 1},
		{100, 2},
		{250, 2},
		{399, 2},
		{400, 3},
		{899, 3},
		{900, 4},
		{10000, 11},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestLevelForXP_Monotonic(t *testing.T) {
	prev := LevelForXP(0)
	for xp := 1; xp <= 5000; xp++ {
		level := LevelForXP(xp)
		assert.GreaterOrEqual(t, level, prev, "level dropped at xp=%d", xp)
		prev = level
	}
}

func TestXPThresholdForLevel(t *testing.T) {
	assert.Equal(t, 0, XPThresholdForLevel(0))
	assert.Equal(t, 100, XPThresholdForLevel(1))
	assert.Equal(t, 400, XPThresholdForLevel(2))
	assert.Equal(t, 2500, XPThresholdForLevel(5))
	assert.Equal(t, 0, XPThresholdForLevel(-3))
}

func TestLevelForXP_AtThresholdBoundary(t *testing.T) {
	// Reaching the threshold for level L puts the student at least at L.
	for level := 1; level <= 20; level++ {
		xp := XPThresholdForLevel(level)
		assert.GreaterOrEqual(t, LevelForXP(xp), level, "threshold for level %d", level)
	}
}

func TestXPToNextLevel(t *testing.T) {
	assert.Equal(t, 100, XPToNextLevel(0))
	assert.Equal(t, 150, XPToNextLevel(250))
	assert.Equal(t, 300, XPToNextLevel(100))
	assert.Equal(t, 100, XPToNextLevel(-10))
}

func TestLevelProgress(t *testing.T) {
	assert.Equal(t, 0.0, LevelProgress(0))
	assert.Equal(t, 50.0, LevelProgress(50))
	// Level 2 spans [100, 400).
	assert.Equal(t, 0.0, LevelProgress(100))
	assert.Equal(t, 50.0, LevelProgress(250))

	for xp := 0; xp <= 3000; xp += 7 {
		p := LevelProgress(xp)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.Less(t, p, 100.0)
	}
}
