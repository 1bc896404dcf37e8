package gamification

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// LEVELING MODEL
// Квадратичная кривая прогрессии: каждый следующий уровень дороже предыдущего.
// ══════════════════════════════════════════════════════════════════════════════

// LevelForXP возвращает уровень студента для суммарного XP.
// Формула: floor(sqrt(xp/100)) + 1. Монотонно неубывающая,
// уровень 1 при xp = 0. Отрицательный XP трактуется как 0.
func LevelForXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Floor(math.Sqrt(float64(xp)/100))) + 1
}

// XPThresholdForLevel возвращает суммарный XP, с которого начинается
// следующий за level уровень: level^2 * 100. Обратная граница формулы
// LevelForXP, используется для отображения "XP до следующего уровня".
func XPThresholdForLevel(level int) int {
	if level < 0 {
		return 0
	}
	return level * level * 100
}

// XPToNextLevel возвращает, сколько XP осталось до следующего уровня.
func XPToNextLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	threshold := XPThresholdForLevel(LevelForXP(xp))
	remaining := threshold - xp
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LevelProgress возвращает прогресс внутри текущего уровня в процентах [0, 100].
func LevelProgress(xp int) float64 {
	if xp < 0 {
		xp = 0
	}
	level := LevelForXP(xp)
	floor := XPThresholdForLevel(level - 1)
	ceil := XPThresholdForLevel(level)
	if ceil == floor {
		return 0
	}
	return float64(xp-floor) / float64(ceil-floor) * 100
}
