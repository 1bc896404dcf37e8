package redis

import (
	"context"
	"errors"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/student"
)

// DefaultStudentTTL bounds staleness of cached student rows; the
// write path invalidates on every XP award, so the TTL is a backstop.
const DefaultStudentTTL = 5 * time.Minute

// StudentCache is a read-through cache for student aggregates.
type StudentCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewStudentCache creates a new StudentCache.
func NewStudentCache(cache *Cache, ttl time.Duration) *StudentCache {
	if ttl <= 0 {
		ttl = DefaultStudentTTL
	}
	return &StudentCache{cache: cache, ttl: ttl}
}

// Get returns a cached student. A miss returns ErrCacheMiss.
func (s *StudentCache) Get(ctx context.Context, studentID string) (*student.Student, error) {
	var st student.Student
	if err := s.cache.Get(ctx, StudentKey(studentID), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Set stores a student.
func (s *StudentCache) Set(ctx context.Context, st *student.Student) error {
	if st == nil {
		return nil
	}
	return s.cache.Set(ctx, StudentKey(st.ID), st, s.ttl)
}

// Invalidate drops the cached student and their progress summary.
func (s *StudentCache) Invalidate(ctx context.Context, studentID string) error {
	return s.cache.Delete(ctx, StudentKey(studentID), ProgressKey(studentID))
}

// IsMiss reports whether the error is a cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
