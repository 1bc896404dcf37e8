package gamification

import (
	"context"

	"github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// Atomic-batch port. The XP balance mutation, its ledger append and any
// cascading achievement insert must commit together or not at all.
// ══════════════════════════════════════════════════════════════════════════════

// TxRepositories bundles the repositories scoped to one transaction.
// Everything done through them inside a single Execute call commits
// atomically.
type TxRepositories interface {
	Students() student.Repository
	Ledger() student.LedgerRepository
	Achievements() gamification.AchievementRepository
	Streaks() gamification.StreakRepository
}

// UnitOfWork runs a function against transaction-scoped repositories.
// A returned error rolls everything back; nil commits.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos TxRepositories) error) error
}
