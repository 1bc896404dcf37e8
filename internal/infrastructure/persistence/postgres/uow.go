package postgres

import (
	"context"

	appgam "github.com/studypulse/studypulse-backend/internal/application/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/student"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// One pgx transaction spans the award: student update, ledger append and
// achievement insert commit together or not at all.
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork implements gamification.UnitOfWork over pgx transactions.
type UnitOfWork struct {
	conn *Connection
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(conn *Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Execute runs fn inside a transaction. The repositories handed to fn
// are bound to that transaction.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(repos appgam.TxRepositories) error) error {
	return u.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return fn(&txRepositories{tx: tx})
	})
}

// txRepositories exposes transaction-bound repositories.
type txRepositories struct {
	tx pgx.Tx
}

func (r *txRepositories) Students() student.Repository {
	return newStudentRepositoryTx(r.tx)
}

func (r *txRepositories) Ledger() student.LedgerRepository {
	return newLedgerRepositoryTx(r.tx)
}

func (r *txRepositories) Achievements() gamification.AchievementRepository {
	return newAchievementRepositoryTx(r.tx)
}

func (r *txRepositories) Streaks() gamification.StreakRepository {
	return newStreakRepositoryTx(r.tx)
}
