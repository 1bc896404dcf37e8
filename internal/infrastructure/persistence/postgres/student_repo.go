package postgres

import (
	"context"
	"fmt"

	"github.com/studypulse/studypulse-backend/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository for PostgreSQL.
// It runs against a Querier, so the same code serves pool queries and
// transaction-scoped queries inside the unit of work.
type StudentRepository struct {
	db Querier
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{db: conn}
}

// newStudentRepositoryTx binds the repository to a transaction.
func newStudentRepositoryTx(q Querier) *StudentRepository {
	return &StudentRepository{db: q}
}

const studentColumns = `id, auth_user_id, email, display_name, program,
	current_semester, total_xp, level, created_at, updated_at`

// Create creates a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	query := `
		INSERT INTO students (
			id, auth_user_id, email, display_name, program,
			current_semester, total_xp, level, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		s.ID,
		s.AuthUserID,
		s.Email,
		s.DisplayName,
		string(s.Program),
		s.CurrentSemester,
		s.TotalXP.Int(),
		s.Level,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return student.ErrStudentAlreadyExists
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

// GetByID returns a student by internal ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return r.scanStudent(r.db.QueryRow(ctx, query, id))
}

// GetByAuthUserID returns a student by the auth provider's user ID.
func (r *StudentRepository) GetByAuthUserID(ctx context.Context, authUserID string) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE auth_user_id = $1`
	return r.scanStudent(r.db.QueryRow(ctx, query, authUserID))
}

// Update updates a student.
func (r *StudentRepository) Update(ctx context.Context, s *student.Student) error {
	query := `
		UPDATE students SET
			email = $1,
			display_name = $2,
			program = $3,
			current_semester = $4,
			total_xp = $5,
			level = $6,
			updated_at = $7
		WHERE id = $8
	`

	tag, err := r.db.Exec(ctx, query,
		s.Email,
		s.DisplayName,
		string(s.Program),
		s.CurrentSemester,
		s.TotalXP.Int(),
		s.Level,
		s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return student.ErrStudentNotFound
	}

	return nil
}

// GetAll returns students with pagination, newest first.
func (r *StudentRepository) GetAll(ctx context.Context, opts student.ListOptions) ([]*student.Student, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + studentColumns + `
		FROM students
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []*student.Student
	for rows.Next() {
		s, err := r.scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}

	return students, rows.Err()
}

// Count returns the total number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *StudentRepository) scanStudent(row rowScanner) (*student.Student, error) {
	var (
		s       student.Student
		program string
		totalXP int
	)

	err := row.Scan(
		&s.ID,
		&s.AuthUserID,
		&s.Email,
		&s.DisplayName,
		&program,
		&s.CurrentSemester,
		&totalXP,
		&s.Level,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, student.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	s.Program = student.Program(program)
	s.TotalXP = student.XP(totalXP)
	return &s, nil
}
