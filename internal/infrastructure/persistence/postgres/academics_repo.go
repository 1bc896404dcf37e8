package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/academics"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMICS REPOSITORIES
// Attendance, grades and subjects. The UNIQUE (student, subject, date)
// constraint makes a repeated attendance mark a Conflict, not a second row.
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceRepository implements academics.AttendanceRepository for PostgreSQL.
type AttendanceRepository struct {
	db Querier
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(conn *Connection) *AttendanceRepository {
	return &AttendanceRepository{db: conn}
}

// Create inserts an attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, record *academics.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (id, student_id, subject_id, date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.StudentID,
		record.SubjectID,
		record.Date,
		string(record.Status),
		record.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrDuplicateAttendance
		}
		return fmt.Errorf("failed to create attendance record: %w", err)
	}

	return nil
}

// ListByStudentAndSubject returns a student's records for one subject, oldest first.
func (r *AttendanceRepository) ListByStudentAndSubject(ctx context.Context, studentID, subjectID string) ([]academics.AttendanceRecord, error) {
	query := `
		SELECT id, student_id, subject_id, date, status, created_at
		FROM attendance_records
		WHERE student_id = $1 AND subject_id = $2
		ORDER BY date ASC
	`

	return r.queryRecords(ctx, query, studentID, subjectID)
}

// ListByStudentSince returns a student's records on or after the date, oldest first.
func (r *AttendanceRepository) ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]academics.AttendanceRecord, error) {
	query := `
		SELECT id, student_id, subject_id, date, status, created_at
		FROM attendance_records
		WHERE student_id = $1 AND date >= $2
		ORDER BY date ASC
	`

	return r.queryRecords(ctx, query, studentID, since)
}

func (r *AttendanceRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]academics.AttendanceRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []academics.AttendanceRecord
	for rows.Next() {
		var (
			rec    academics.AttendanceRecord
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.SubjectID, &rec.Date, &status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		rec.Status = academics.AttendanceStatus(status)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Grades
// ─────────────────────────────────────────────────────────────────────────────

// GradeRepository implements academics.GradeRepository for PostgreSQL.
type GradeRepository struct {
	db Querier
}

// NewGradeRepository creates a new GradeRepository.
func NewGradeRepository(conn *Connection) *GradeRepository {
	return &GradeRepository{db: conn}
}

// Create inserts a grade.
func (r *GradeRepository) Create(ctx context.Context, grade *academics.Grade) error {
	query := `
		INSERT INTO grades (id, student_id, subject_id, marks_obtained, total_marks, semester, exam_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		grade.ID,
		grade.StudentID,
		grade.SubjectID,
		grade.MarksObtained,
		grade.TotalMarks,
		grade.Semester,
		string(grade.ExamType),
	)
	if err != nil {
		return fmt.Errorf("failed to create grade: %w", err)
	}

	return nil
}

// ListByStudent returns all of a student's grades.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]academics.Grade, error) {
	query := `
		SELECT id, student_id, subject_id, marks_obtained, total_marks, semester, exam_type
		FROM grades
		WHERE student_id = $1
		ORDER BY semester, subject_id
	`

	return r.queryGrades(ctx, query, studentID)
}

// ListByStudentAndSemester returns one semester's grades.
func (r *GradeRepository) ListByStudentAndSemester(ctx context.Context, studentID string, semester int) ([]academics.Grade, error) {
	query := `
		SELECT id, student_id, subject_id, marks_obtained, total_marks, semester, exam_type
		FROM grades
		WHERE student_id = $1 AND semester = $2
		ORDER BY subject_id
	`

	return r.queryGrades(ctx, query, studentID, semester)
}

func (r *GradeRepository) queryGrades(ctx context.Context, query string, args ...interface{}) ([]academics.Grade, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grades: %w", err)
	}
	defer rows.Close()

	var grades []academics.Grade
	for rows.Next() {
		var (
			g        academics.Grade
			examType string
		)
		if err := rows.Scan(&g.ID, &g.StudentID, &g.SubjectID, &g.MarksObtained, &g.TotalMarks, &g.Semester, &examType); err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}
		g.ExamType = academics.ExamType(examType)
		grades = append(grades, g)
	}

	return grades, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Subjects
// ─────────────────────────────────────────────────────────────────────────────

// SubjectRepository implements academics.SubjectRepository for PostgreSQL.
type SubjectRepository struct {
	db Querier
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(conn *Connection) *SubjectRepository {
	return &SubjectRepository{db: conn}
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *academics.Subject) error {
	query := `
		INSERT INTO subjects (id, student_id, name, credits, semester)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		subject.ID,
		subject.StudentID,
		subject.Name,
		subject.Credits,
		subject.Semester,
	)
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}

	return nil
}

// GetByID returns a subject by ID.
func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*academics.Subject, error) {
	query := `SELECT id, student_id, name, credits, semester FROM subjects WHERE id = $1`

	var s academics.Subject
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.StudentID, &s.Name, &s.Credits, &s.Semester)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to scan subject: %w", err)
	}

	return &s, nil
}

// ListByStudent returns all of a student's subjects.
func (r *SubjectRepository) ListByStudent(ctx context.Context, studentID string) ([]academics.Subject, error) {
	query := `
		SELECT id, student_id, name, credits, semester
		FROM subjects
		WHERE student_id = $1
		ORDER BY semester, name
	`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	var subjects []academics.Subject
	for rows.Next() {
		var s academics.Subject
		if err := rows.Scan(&s.ID, &s.StudentID, &s.Name, &s.Credits, &s.Semester); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, s)
	}

	return subjects, rows.Err()
}
