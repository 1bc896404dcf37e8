package gamification

import (
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// BadgeType - строковый ключ бейджа из статического каталога.
type BadgeType string

const (
	// Посещаемость.
	BadgePerfectWeek        BadgeType = "perfect_week"
	BadgeWeekStreak         BadgeType = "week_streak"
	BadgeMonthStreak        BadgeType = "month_streak"
	BadgeCenturyStreak      BadgeType = "century_streak"
	BadgeAttendanceRecovery BadgeType = "attendance_recovery"

	// Оценки.
	BadgeFirstAPlus BadgeType = "first_a_plus"
	BadgeDeanList   BadgeType = "dean_list"
	BadgeAllRounder BadgeType = "all_rounder"

	// Задания.
	BadgeNeverMissed BadgeType = "never_missed"
	BadgeEarlyBird   BadgeType = "early_bird"

	// Сообщество.
	BadgeHelpfulPeer     BadgeType = "helpful_peer"
	BadgeKnowledgeSharer BadgeType = "knowledge_sharer"

	// Возвращение.
	BadgeComebackKing BadgeType = "comeback_king"
)

// IsValid проверяет, что бейдж присутствует в каталоге.
func (b BadgeType) IsValid() bool {
	_, ok := badgeCatalog[b]
	return ok
}

// Rarity - редкость бейджа, влияет только на отображение.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE CATALOG
// Статическая конфигурация. Код никогда не изменяет каталог в рантайме.
// ══════════════════════════════════════════════════════════════════════════════

// Badge - метаданные бейджа из каталога.
type Badge struct {
	Type        BadgeType
	Title       string
	Description string
	Icon        string
	Rarity      Rarity
	XPEarned    int
}

var badgeCatalog = map[BadgeType]Badge{
	BadgePerfectWeek: {
		Type:        BadgePerfectWeek,
		Title:       "Perfect Week",
		Description: "100% attendance for 1 week straight",
		Icon:        "🎯",
		Rarity:      RarityCommon,
		XPEarned:    50,
	},
	BadgeWeekStreak: {
		Type:        BadgeWeekStreak,
		Title:       "7-Day Streak",
		Description: "Maintained your streak for 7 days",
		Icon:        "🔥",
		Rarity:      RarityCommon,
		XPEarned:    100,
	},
	BadgeMonthStreak: {
		Type:        BadgeMonthStreak,
		Title:       "30-Day Streak",
		Description: "Maintained your streak for 30 days",
		Icon:        "⭐",
		Rarity:      RarityRare,
		XPEarned:    500,
	},
	BadgeCenturyStreak: {
		Type:        BadgeCenturyStreak,
		Title:       "Century Streak",
		Description: "100 days of consistency!",
		Icon:        "🏆",
		Rarity:      RarityLegendary,
		XPEarned:    2000,
	},
	BadgeFirstAPlus: {
		Type:        BadgeFirstAPlus,
		Title:       "First A+",
		Description: "Scored your first A+ grade",
		Icon:        "📚",
		Rarity:      RarityCommon,
		XPEarned:    100,
	},
	BadgeDeanList: {
		Type:        BadgeDeanList,
		Title:       "Dean's List",
		Description: "Achieved 9+ CGPA",
		Icon:        "🎓",
		Rarity:      RarityEpic,
		XPEarned:    1000,
	},
	BadgeAllRounder: {
		Type:        BadgeAllRounder,
		Title:       "All-Rounder",
		Description: "A+ in all subjects this semester",
		Icon:        "🌟",
		Rarity:      RarityLegendary,
		XPEarned:    2500,
	},
	BadgeNeverMissed: {
		Type:        BadgeNeverMissed,
		Title:       "Assignment Ninja",
		Description: "Never missed a deadline",
		Icon:        "⚡",
		Rarity:      RarityRare,
		XPEarned:    300,
	},
	BadgeEarlyBird: {
		Type:        BadgeEarlyBird,
		Title:       "Early Bird",
		Description: "Submitted 10 assignments early",
		Icon:        "🐦",
		Rarity:      RarityCommon,
		XPEarned:    150,
	},
	BadgeHelpfulPeer: {
		Type:        BadgeHelpfulPeer,
		Title:       "Helpful Peer",
		Description: "Helped 10 classmates with notes",
		Icon:        "🤝",
		Rarity:      RarityRare,
		XPEarned:    400,
	},
	BadgeKnowledgeSharer: {
		Type:        BadgeKnowledgeSharer,
		Title:       "Knowledge Sharer",
		Description: "Shared 50+ notes publicly",
		Icon:        "📤",
		Rarity:      RarityEpic,
		XPEarned:    800,
	},
	BadgeComebackKing: {
		Type:        BadgeComebackKing,
		Title:       "Comeback King",
		Description: "Improved CGPA by 1+ point",
		Icon:        "👑",
		Rarity:      RarityEpic,
		XPEarned:    1500,
	},
	BadgeAttendanceRecovery: {
		Type:        BadgeAttendanceRecovery,
		Title:       "Recovery Master",
		Description: "Brought attendance from danger to safe zone",
		Icon:        "💪",
		Rarity:      RarityRare,
		XPEarned:    600,
	},
}

// BadgeDetails возвращает метаданные бейджа из каталога.
// Неизвестный тип - ошибка валидации, а не тихий fallback.
func BadgeDetails(badgeType BadgeType) (Badge, error) {
	badge, ok := badgeCatalog[badgeType]
	if !ok {
		return Badge{}, shared.ErrUnknownBadge
	}
	return badge, nil
}

// CatalogSize возвращает число бейджей в каталоге.
func CatalogSize() int {
	return len(badgeCatalog)
}

// AllBadges возвращает каталог в виде среза (порядок не гарантирован).
func AllBadges() []Badge {
	badges := make([]Badge, 0, len(badgeCatalog))
	for _, b := range badgeCatalog {
		badges = append(badges, b)
	}
	return badges
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Achievement - единожды разблокированный бейдж студента.
// Максимум одна запись на пару (студент, тип бейджа);
// после создания запись неизменяема.
type Achievement struct {
	ID          string
	StudentID   string
	BadgeType   BadgeType
	Title       string
	Description string
	Icon        string
	Rarity      Rarity
	XPEarned    int

	// Context - необязательная пометка, откуда пришла разблокировка
	// (например, тип стрика для юбилейных бейджей).
	Context string

	UnlockedAt time.Time
}

// NewAchievement создаёт достижение по метаданным каталога.
func NewAchievement(id, studentID string, badgeType BadgeType, context string) (*Achievement, error) {
	if studentID == "" {
		return nil, shared.ErrInvalidStudentID
	}

	badge, err := BadgeDetails(badgeType)
	if err != nil {
		return nil, err
	}

	return &Achievement{
		ID:          id,
		StudentID:   studentID,
		BadgeType:   badge.Type,
		Title:       badge.Title,
		Description: badge.Description,
		Icon:        badge.Icon,
		Rarity:      badge.Rarity,
		XPEarned:    badge.XPEarned,
		Context:     context,
		UnlockedAt:  time.Now().UTC(),
	}, nil
}

// String возвращает строковое представление для логирования.
func (a *Achievement) String() string {
	return fmt.Sprintf(
		"Achievement{Student: %s, Badge: %s, XP: %d}",
		a.StudentID, a.BadgeType, a.XPEarned,
	)
}
