package academics

import (
	"context"
	"time"
)

// AttendanceRepository is the storage port for attendance records.
type AttendanceRepository interface {
	// Create inserts a record. Returns shared.ErrDuplicateAttendance
	// when (student, subject, date) is already marked.
	Create(ctx context.Context, record *AttendanceRecord) error

	// ListByStudentAndSubject returns a student's records for one
	// subject, oldest first.
	ListByStudentAndSubject(ctx context.Context, studentID, subjectID string) ([]AttendanceRecord, error)

	// ListByStudentSince returns all of a student's records on or
	// after the given date, oldest first.
	ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]AttendanceRecord, error)
}

// GradeRepository is the storage port for grades.
type GradeRepository interface {
	// Create inserts a grade.
	Create(ctx context.Context, grade *Grade) error

	// ListByStudent returns all of a student's grades.
	ListByStudent(ctx context.Context, studentID string) ([]Grade, error)

	// ListByStudentAndSemester returns one semester's grades.
	ListByStudentAndSemester(ctx context.Context, studentID string, semester int) ([]Grade, error)
}

// SubjectRepository is the storage port for subjects.
type SubjectRepository interface {
	// Create inserts a subject.
	Create(ctx context.Context, subject *Subject) error

	// GetByID returns a subject or shared.ErrSubjectNotFound.
	GetByID(ctx context.Context, id string) (*Subject, error)

	// ListByStudent returns all of a student's subjects.
	ListByStudent(ctx context.Context, studentID string) ([]Subject, error)
}
