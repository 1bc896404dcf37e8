package postgres

import (
	"context"
	"fmt"

	"github.com/studypulse/studypulse-backend/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP LEDGER REPOSITORY IMPLEMENTATION
// Append-only: no update or delete paths exist, matching the domain
// contract. total_xp reconciliation reads SUM(amount) from here.
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepository implements student.LedgerRepository for PostgreSQL.
type LedgerRepository struct {
	db Querier
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{db: conn}
}

// newLedgerRepositoryTx binds the repository to a transaction.
func newLedgerRepositoryTx(q Querier) *LedgerRepository {
	return &LedgerRepository{db: q}
}

// Append adds a ledger entry.
func (r *LedgerRepository) Append(ctx context.Context, tx *student.ExperienceTransaction) error {
	query := `
		INSERT INTO xp_ledger (id, student_id, amount, reason, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		tx.ID,
		tx.StudentID,
		tx.Amount,
		tx.Reason,
		string(tx.Source),
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

// ListByStudent returns a student's ledger entries, newest first.
func (r *LedgerRepository) ListByStudent(ctx context.Context, studentID string, opts student.ListOptions) ([]*student.ExperienceTransaction, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, student_id, amount, reason, source, created_at
		FROM xp_ledger
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, studentID, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*student.ExperienceTransaction
	for rows.Next() {
		var (
			tx     student.ExperienceTransaction
			source string
		)
		if err := rows.Scan(&tx.ID, &tx.StudentID, &tx.Amount, &tx.Reason, &source, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		tx.Source = student.Source(source)
		entries = append(entries, &tx)
	}

	return entries, rows.Err()
}

// SumByStudent returns the sum of a student's ledger entries.
func (r *LedgerRepository) SumByStudent(ctx context.Context, studentID string) (int, error) {
	var sum int
	query := `SELECT COALESCE(SUM(amount), 0) FROM xp_ledger WHERE student_id = $1`
	if err := r.db.QueryRow(ctx, query, studentID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return sum, nil
}
