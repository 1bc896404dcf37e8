// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Student events
	EventStudentRegistered EventType = "student.registered"
	EventStudentUpdated    EventType = "student.updated"

	// Gamification events
	EventXPAwarded           EventType = "gamification.xp_awarded"
	EventLevelUp             EventType = "gamification.level_up"
	EventStreakExtended      EventType = "gamification.streak_extended"
	EventStreakBroken        EventType = "gamification.streak_broken"
	EventAchievementUnlocked EventType = "gamification.achievement_unlocked"

	// Academic events
	EventAttendanceMarked    EventType = "academics.attendance_marked"
	EventGradeRecorded       EventType = "academics.grade_recorded"
	EventAssignmentSubmitted EventType = "academics.assignment_submitted"

	// Leaderboard events
	EventLeaderboardUpdated EventType = "leaderboard.updated"
	EventLeaderboardRebuilt EventType = "leaderboard.rebuilt"

	// Notification events
	EventNotificationQueued EventType = "notification.queued"

	// System events
	EventComebackDetected EventType = "system.comeback_detected"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced the event.
	AggregateID() string

	// Payload returns the event data for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	Type          EventType
	Timestamp     time.Time
	AggregateRoot string
	CorrelationID string
}

// EventType returns the type of the event.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the aggregate root ID.
func (e BaseEvent) AggregateID() string {
	return e.AggregateRoot
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:          eventType,
		Timestamp:     time.Now().UTC(),
		AggregateRoot: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing related events.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ─────────────────────────────────────────────────────────────────────────────
// Student events
// ─────────────────────────────────────────────────────────────────────────────

// StudentRegisteredEvent is published when a student record is created on
// the first successful authentication callback.
type StudentRegisteredEvent struct {
	BaseEvent
	StudentID   string
	DisplayName string
	Program     string
}

// Payload returns the event data.
func (e StudentRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":   e.StudentID,
		"display_name": e.DisplayName,
		"program":      e.Program,
	}
}

// NewStudentRegisteredEvent creates a new student registered event.
func NewStudentRegisteredEvent(studentID, displayName, program string) StudentRegisteredEvent {
	return StudentRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventStudentRegistered, studentID),
		StudentID:   studentID,
		DisplayName: displayName,
		Program:     program,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Gamification events
// ─────────────────────────────────────────────────────────────────────────────

// XPAwardedEvent is published after an XP award committed together with its
// ledger entry.
type XPAwardedEvent struct {
	BaseEvent
	StudentID string
	Amount    int
	NewTotal  int
	Reason    string
	Source    string
}

// Payload returns the event data.
func (e XPAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"amount":     e.Amount,
		"new_total":  e.NewTotal,
		"reason":     e.Reason,
		"source":     e.Source,
	}
}

// NewXPAwardedEvent creates a new XP awarded event.
func NewXPAwardedEvent(studentID string, amount, newTotal int, reason, source string) XPAwardedEvent {
	return XPAwardedEvent{
		BaseEvent: NewBaseEvent(EventXPAwarded, studentID),
		StudentID: studentID,
		Amount:    amount,
		NewTotal:  newTotal,
		Reason:    reason,
		Source:    source,
	}
}

// LevelUpEvent is published when an XP award pushes the student past a level
// threshold.
type LevelUpEvent struct {
	BaseEvent
	StudentID string
	OldLevel  int
	NewLevel  int
	TotalXP   int
}

// Payload returns the event data.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
		"total_xp":   e.TotalXP,
	}
}

// NewLevelUpEvent creates a new level up event.
func NewLevelUpEvent(studentID string, oldLevel, newLevel, totalXP int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, studentID),
		StudentID: studentID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// StreakExtendedEvent is published when a streak counter increments.
type StreakExtendedEvent struct {
	BaseEvent
	StudentID     string
	StreakType    string
	CurrentStreak int
	LongestStreak int
}

// Payload returns the event data.
func (e StreakExtendedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":     e.StudentID,
		"streak_type":    e.StreakType,
		"current_streak": e.CurrentStreak,
		"longest_streak": e.LongestStreak,
	}
}

// NewStreakExtendedEvent creates a new streak extended event.
func NewStreakExtendedEvent(studentID, streakType string, current, longest int) StreakExtendedEvent {
	return StreakExtendedEvent{
		BaseEvent:     NewBaseEvent(EventStreakExtended, studentID),
		StudentID:     studentID,
		StreakType:    streakType,
		CurrentStreak: current,
		LongestStreak: longest,
	}
}

// StreakBrokenEvent is published when a day gap resets a streak to 1.
type StreakBrokenEvent struct {
	BaseEvent
	StudentID      string
	StreakType     string
	PreviousStreak int
	DaysMissed     int
}

// Payload returns the event data.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":      e.StudentID,
		"streak_type":     e.StreakType,
		"previous_streak": e.PreviousStreak,
		"days_missed":     e.DaysMissed,
	}
}

// NewStreakBrokenEvent creates a new streak broken event.
func NewStreakBrokenEvent(studentID, streakType string, previousStreak, daysMissed int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, studentID),
		StudentID:      studentID,
		StreakType:     streakType,
		PreviousStreak: previousStreak,
		DaysMissed:     daysMissed,
	}
}

// AchievementUnlockedEvent is published once per (student, badge) unlock.
type AchievementUnlockedEvent struct {
	BaseEvent
	StudentID string
	BadgeType string
	Title     string
	Rarity    string
	XPEarned  int
}

// Payload returns the event data.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"badge_type": e.BadgeType,
		"title":      e.Title,
		"rarity":     e.Rarity,
		"xp_earned":  e.XPEarned,
	}
}

// NewAchievementUnlockedEvent creates a new achievement unlocked event.
func NewAchievementUnlockedEvent(studentID, badgeType, title, rarity string, xpEarned int) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent: NewBaseEvent(EventAchievementUnlocked, studentID),
		StudentID: studentID,
		BadgeType: badgeType,
		Title:     title,
		Rarity:    rarity,
		XPEarned:  xpEarned,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Academic events
// ─────────────────────────────────────────────────────────────────────────────

// AttendanceMarkedEvent is published when an attendance record is stored.
type AttendanceMarkedEvent struct {
	BaseEvent
	StudentID  string
	SubjectID  string
	Status     string
	Date       time.Time
	Percentage float64
}

// Payload returns the event data.
func (e AttendanceMarkedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"subject_id": e.SubjectID,
		"status":     e.Status,
		"date":       e.Date.Format("2006-01-02"),
		"percentage": e.Percentage,
	}
}

// NewAttendanceMarkedEvent creates a new attendance marked event.
func NewAttendanceMarkedEvent(studentID, subjectID, status string, date time.Time, percentage float64) AttendanceMarkedEvent {
	return AttendanceMarkedEvent{
		BaseEvent:  NewBaseEvent(EventAttendanceMarked, studentID),
		StudentID:  studentID,
		SubjectID:  subjectID,
		Status:     status,
		Date:       date,
		Percentage: percentage,
	}
}

// GradeRecordedEvent is published when a grade is stored.
type GradeRecordedEvent struct {
	BaseEvent
	StudentID   string
	SubjectID   string
	GradeLetter string
	CGPA        float64
}

// Payload returns the event data.
func (e GradeRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":   e.StudentID,
		"subject_id":   e.SubjectID,
		"grade_letter": e.GradeLetter,
		"cgpa":         e.CGPA,
	}
}

// NewGradeRecordedEvent creates a new grade recorded event.
func NewGradeRecordedEvent(studentID, subjectID, gradeLetter string, cgpa float64) GradeRecordedEvent {
	return GradeRecordedEvent{
		BaseEvent:   NewBaseEvent(EventGradeRecorded, studentID),
		StudentID:   studentID,
		SubjectID:   subjectID,
		GradeLetter: gradeLetter,
		CGPA:        cgpa,
	}
}

// AssignmentSubmittedEvent is published when an assignment submission is recorded.
type AssignmentSubmittedEvent struct {
	BaseEvent
	StudentID      string
	AssignmentID   string
	SubmittedEarly bool
}

// Payload returns the event data.
func (e AssignmentSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":      e.StudentID,
		"assignment_id":   e.AssignmentID,
		"submitted_early": e.SubmittedEarly,
	}
}

// NewAssignmentSubmittedEvent creates a new assignment submitted event.
func NewAssignmentSubmittedEvent(studentID, assignmentID string, submittedEarly bool) AssignmentSubmittedEvent {
	return AssignmentSubmittedEvent{
		BaseEvent:      NewBaseEvent(EventAssignmentSubmitted, studentID),
		StudentID:      studentID,
		AssignmentID:   assignmentID,
		SubmittedEarly: submittedEarly,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Leaderboard events
// ─────────────────────────────────────────────────────────────────────────────

// LeaderboardUpdatedEvent is published when a student's score in a category
// is upserted.
type LeaderboardUpdatedEvent struct {
	BaseEvent
	StudentID string
	Category  string
	Score     float64
}

// Payload returns the event data.
func (e LeaderboardUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"category":   e.Category,
		"score":      e.Score,
	}
}

// NewLeaderboardUpdatedEvent creates a new leaderboard updated event.
func NewLeaderboardUpdatedEvent(studentID, category string, score float64) LeaderboardUpdatedEvent {
	return LeaderboardUpdatedEvent{
		BaseEvent: NewBaseEvent(EventLeaderboardUpdated, studentID),
		StudentID: studentID,
		Category:  category,
		Score:     score,
	}
}

// LeaderboardRebuiltEvent is published after a full ranking recompute of a
// category. Read-side projections refresh on it.
type LeaderboardRebuiltEvent struct {
	BaseEvent
	Category string
	Entries  int
}

// Payload returns the event data.
func (e LeaderboardRebuiltEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"category": e.Category,
		"entries":  e.Entries,
	}
}

// NewLeaderboardRebuiltEvent creates a new leaderboard rebuilt event.
func NewLeaderboardRebuiltEvent(category string, entries int) LeaderboardRebuiltEvent {
	return LeaderboardRebuiltEvent{
		BaseEvent: NewBaseEvent(EventLeaderboardRebuilt, category),
		Category:  category,
		Entries:   entries,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Event infrastructure contracts
// ─────────────────────────────────────────────────────────────────────────────

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Origin        string          `json:"origin,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler processes a single event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber subscribes handlers to event types.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler)
	Unsubscribe(eventType EventType)
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
