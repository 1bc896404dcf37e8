// Package social содержит доменную модель взаимопомощи StudyPulse:
// счётчики помощи одногруппникам и публикации конспектов.
// Счётчики питают бейджи helpful_peer и knowledge_sharer.
package social

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ContributionType определяет вид социального вклада.
type ContributionType string

const (
	// ContributionHelp - помощь однокурснику (ответ на запрос помощи).
	ContributionHelp ContributionType = "help"
	// ContributionNoteShared - публикация конспекта в общий доступ.
	ContributionNoteShared ContributionType = "note_shared"
)

// IsValid проверяет, что вид вклада известен.
func (c ContributionType) IsValid() bool {
	return c == ContributionHelp || c == ContributionNoteShared
}

// Пороговые значения вкладов для бейджей.
const (
	// HelpfulPeerThreshold - помог 10 однокурсникам → helpful_peer.
	HelpfulPeerThreshold = 10
	// KnowledgeSharerThreshold - опубликовал 50 конспектов → knowledge_sharer.
	KnowledgeSharerThreshold = 50
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidContribution - неизвестный вид вклада.
	ErrInvalidContribution = errors.New("invalid contribution type")

	// ErrEmptyStudentID - пустой идентификатор студента.
	ErrEmptyStudentID = errors.New("student id must be non-empty")

	// ErrSelfHelp - студент не может учитывать помощь самому себе.
	ErrSelfHelp = errors.New("student cannot help themselves")
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTRIBUTION
// ══════════════════════════════════════════════════════════════════════════════

// Contribution - единичная запись социального вклада.
// Append-only: записи не изменяются и не удаляются.
type Contribution struct {
	ID        string
	StudentID string
	Type      ContributionType

	// RecipientID - кому помогли; пуст для публикаций конспектов.
	RecipientID string

	// Subject - предмет, по которому был вклад (необязательно).
	Subject string

	CreatedAt time.Time
}

// NewContribution создаёт запись вклада с валидацией.
func NewContribution(id, studentID string, contribType ContributionType, recipientID, subject string) (*Contribution, error) {
	if studentID == "" {
		return nil, ErrEmptyStudentID
	}
	if !contribType.IsValid() {
		return nil, ErrInvalidContribution
	}
	if contribType == ContributionHelp && recipientID == studentID {
		return nil, ErrSelfHelp
	}

	return &Contribution{
		ID:          id,
		StudentID:   studentID,
		Type:        contribType,
		RecipientID: recipientID,
		Subject:     subject,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// String возвращает строковое представление для логирования.
func (c *Contribution) String() string {
	return fmt.Sprintf("Contribution{Student: %s, Type: %s}", c.StudentID, c.Type)
}

// ══════════════════════════════════════════════════════════════════════════════
// COUNTERS
// ══════════════════════════════════════════════════════════════════════════════

// Counters - агрегированные счётчики вкладов студента.
// Read model, вычисляется из записей Contribution.
type Counters struct {
	StudentID   string
	PeersHelped int
	NotesShared int
}

// QualifiesForHelpfulPeer возвращает true при достижении порога помощи.
func (c Counters) QualifiesForHelpfulPeer() bool {
	return c.PeersHelped >= HelpfulPeerThreshold
}

// QualifiesForKnowledgeSharer возвращает true при достижении порога публикаций.
func (c Counters) QualifiesForKnowledgeSharer() bool {
	return c.NotesShared >= KnowledgeSharerThreshold
}

// ComputeCounters агрегирует записи вкладов в счётчики.
// Помощь разным получателям считается по уникальным получателям:
// десять ответов одному и тому же студенту - это один peer.
func ComputeCounters(studentID string, contributions []*Contribution) Counters {
	counters := Counters{StudentID: studentID}
	seen := make(map[string]bool)

	for _, contrib := range contributions {
		if contrib.StudentID != studentID {
			continue
		}
		switch contrib.Type {
		case ContributionHelp:
			if contrib.RecipientID != "" && !seen[contrib.RecipientID] {
				seen[contrib.RecipientID] = true
				counters.PeersHelped++
			}
		case ContributionNoteShared:
			counters.NotesShared++
		}
	}
	return counters
}
