package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/student"
	rediscache "github.com/studypulse/studypulse-backend/internal/infrastructure/persistence/redis"
	"github.com/studypulse/studypulse-backend/pkg/circuitbreaker"
)

// CachedStudentRepository is a read-through student cache over the
// PostgreSQL repository. GetByID is the hot path (every progress read
// and every XP award loads the aggregate); writes go straight to
// PostgreSQL and invalidate the cached row. The Redis path sits behind
// the same circuit breaker discipline as the leaderboard cache.
type CachedStudentRepository struct {
	student.Repository

	cache   *rediscache.StudentCache
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewCachedStudentRepository wraps repo with the Redis student cache.
func NewCachedStudentRepository(
	repo student.Repository,
	cache *rediscache.StudentCache,
	logger *slog.Logger,
) *CachedStudentRepository {
	if logger == nil {
		logger = slog.Default()
	}

	breaker := circuitbreaker.New("student-cache",
		circuitbreaker.WithFailureThreshold(5),
		circuitbreaker.WithTimeout(30*time.Second),
		circuitbreaker.WithIsFailure(func(err error) bool {
			return !errors.Is(err, rediscache.ErrCacheMiss)
		}),
	)

	return &CachedStudentRepository{
		Repository: repo,
		cache:      cache,
		breaker:    breaker,
		logger:     logger,
	}
}

// GetByID returns the cached student, loading and caching from
// PostgreSQL on a miss.
func (r *CachedStudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	var cached *student.Student
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		var cerr error
		cached, cerr = r.cache.Get(ctx, id)
		return cerr
	})
	if err == nil {
		return cached, nil
	}
	if !rediscache.IsMiss(err) {
		r.logger.Debug("student cache bypassed",
			slog.String("student_id", id),
			slog.String("reason", err.Error()),
		)
	}

	stud, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if serr := r.cache.Set(ctx, stud); serr != nil {
		r.logger.Debug("student cache fill failed",
			slog.String("student_id", id),
			slog.String("reason", serr.Error()),
		)
	}
	return stud, nil
}

// Update writes through to PostgreSQL and drops the stale cached row.
func (r *CachedStudentRepository) Update(ctx context.Context, stud *student.Student) error {
	if err := r.Repository.Update(ctx, stud); err != nil {
		return err
	}
	if err := r.cache.Invalidate(ctx, stud.ID); err != nil {
		r.logger.Debug("student cache invalidation failed",
			slog.String("student_id", stud.ID),
			slog.String("reason", err.Error()),
		)
	}
	return nil
}
