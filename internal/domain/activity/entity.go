// Package activity contains domain entities for the raw activity feed:
// attendance marks, recorded grades, assignment submissions and social
// contributions, in the shape the achievement checks consume them.
// This is a pure domain layer with zero external dependencies.
package activity

import (
	"errors"
	"time"
)

// Domain errors for activity package.
var (
	ErrInvalidStudentID = errors.New("activity: invalid student ID")
	ErrInvalidType      = errors.New("activity: invalid activity type")
	ErrFutureTimestamp  = errors.New("activity: timestamp cannot be in the future")
	ErrMissingDeadline  = errors.New("activity: submission requires a deadline")
)

// Type classifies an activity for achievement dispatch.
type Type string

const (
	TypeAttendance Type = "attendance"
	TypeGrade      Type = "grade"
	TypeAssignment Type = "assignment"
	TypeSocial     Type = "social"
)

// IsValid checks if the activity type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeAttendance, TypeGrade, TypeAssignment, TypeSocial:
		return true
	}
	return false
}

// Activity is one raw event flowing into the gamification pipeline.
// The Data fields that apply depend on Type; the rest stay zero.
type Activity struct {
	ID         string
	StudentID  string
	Type       Type
	OccurredAt time.Time
	Data       Data
}

// Data carries the type-specific facts the achievement checks look at.
type Data struct {
	// Attendance: weekly percentage at the time of the event.
	AttendancePercentage float64

	// Grade: letter grade and CGPA after the new grade landed.
	GradeLetter string
	CGPA        float64

	// Assignment: whether the submission beat the deadline.
	SubmittedEarly bool
}

// NewActivity creates a validated activity event.
func NewActivity(id, studentID string, activityType Type, occurredAt time.Time, data Data) (*Activity, error) {
	if studentID == "" {
		return nil, ErrInvalidStudentID
	}
	if !activityType.IsValid() {
		return nil, ErrInvalidType
	}
	if occurredAt.After(time.Now().Add(time.Minute)) { // Allow 1 minute tolerance
		return nil, ErrFutureTimestamp
	}

	return &Activity{
		ID:         id,
		StudentID:  studentID,
		Type:       activityType,
		OccurredAt: occurredAt,
		Data:       data,
	}, nil
}

// Submission tracks one assignment hand-in against its deadline.
// Used to derive early_bird (a hand-in a day before deadline) and
// never_missed (no late submissions over a full semester).
type Submission struct {
	ID           string
	StudentID    string
	AssignmentID string
	Deadline     time.Time
	SubmittedAt  time.Time
}

// NewSubmission creates a validated submission record.
func NewSubmission(id, studentID, assignmentID string, deadline, submittedAt time.Time) (*Submission, error) {
	if studentID == "" {
		return nil, ErrInvalidStudentID
	}
	if deadline.IsZero() {
		return nil, ErrMissingDeadline
	}

	return &Submission{
		ID:           id,
		StudentID:    studentID,
		AssignmentID: assignmentID,
		Deadline:     deadline,
		SubmittedAt:  submittedAt,
	}, nil
}

// IsEarly reports whether the submission landed at least a day
// before the deadline.
func (s *Submission) IsEarly() bool {
	return s.Deadline.Sub(s.SubmittedAt) >= 24*time.Hour
}

// IsLate reports whether the submission missed the deadline.
func (s *Submission) IsLate() bool {
	return s.SubmittedAt.After(s.Deadline)
}

// SubmissionStats aggregates a student's submission history.
type SubmissionStats struct {
	Total int
	Early int
	Late  int
}

// QualifiesForNeverMissed reports whether every submission so far
// beat its deadline. Requires a non-trivial history.
func (st SubmissionStats) QualifiesForNeverMissed() bool {
	return st.Total >= 5 && st.Late == 0
}

// ComputeSubmissionStats folds submissions into counters.
func ComputeSubmissionStats(submissions []*Submission) SubmissionStats {
	var stats SubmissionStats
	for _, s := range submissions {
		stats.Total++
		if s.IsEarly() {
			stats.Early++
		}
		if s.IsLate() {
			stats.Late++
		}
	}
	return stats
}
