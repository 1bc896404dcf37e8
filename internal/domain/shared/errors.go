// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "gamification", "academics"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrStudentAlreadyExists = NewDomainError("student", "Create", ErrAlreadyExists, "student already exists")
	ErrInvalidStudentID     = NewDomainError("student", "Validate", ErrInvalidID, "invalid student ID")
	ErrNegativeXPAmount     = NewDomainError("student", "AwardXP", ErrNegativeValue, "XP amount cannot be negative")
	ErrLedgerMismatch       = NewDomainError("student", "Reconcile", ErrInvalidState, "XP ledger sum does not match student total")
)

// Academics domain errors
var (
	ErrGradeNotFound        = NewDomainError("academics", "Find", ErrNotFound, "grade not found")
	ErrSubjectNotFound      = NewDomainError("academics", "Find", ErrNotFound, "subject not found")
	ErrInvalidMarks         = NewDomainError("academics", "Validate", ErrValueOutOfRange, "marks out of range")
	ErrZeroTotalMarks       = NewDomainError("academics", "Validate", ErrInvalidInput, "total marks must be positive")
	ErrInvalidGradeScale    = NewDomainError("academics", "Validate", ErrInvalidInput, "invalid grade scale")
	ErrDuplicateAttendance  = NewDomainError("academics", "MarkAttendance", ErrAlreadyExists, "attendance already marked for this subject and date")
	ErrTargetNotAchievable  = NewDomainError("academics", "Project", ErrValueOutOfRange, "target is not achievable")
	ErrInvalidAttendanceDay = NewDomainError("academics", "Validate", ErrFutureTimestamp, "attendance date cannot be in the future")
)

// Gamification domain errors
var (
	ErrStreakNotFound        = NewDomainError("gamification", "FindStreak", ErrNotFound, "streak not found")
	ErrInvalidStreakType     = NewDomainError("gamification", "Validate", ErrInvalidInput, "invalid streak type")
	ErrUnknownBadge          = NewDomainError("gamification", "Unlock", ErrInvalidInput, "unknown badge type")
	ErrBadgeAlreadyUnlocked  = NewDomainError("gamification", "Unlock", ErrAlreadyExists, "badge already unlocked")
	ErrTransactionNotAtomic  = NewDomainError("gamification", "AwardXP", ErrInvalidState, "XP award must commit atomically with its ledger entry")
	ErrInvalidActivityType   = NewDomainError("gamification", "CheckAchievements", ErrInvalidInput, "invalid activity type")
	ErrStreakAlreadyRecorded = NewDomainError("gamification", "UpdateStreak", ErrAlreadyProcessed, "activity already recorded today")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrInvalidCategory     = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "invalid leaderboard category")
	ErrInvalidScore        = NewDomainError("leaderboard", "Validate", ErrNegativeValue, "score cannot be negative")
	ErrInvalidLimit        = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid result limit")
)

// Notification domain errors
var (
	ErrNotificationNotFound = NewDomainError("notification", "Find", ErrNotFound, "notification not found")
	ErrInvalidPriority      = NewDomainError("notification", "Validate", ErrInvalidInput, "invalid notification priority")
)

// Persistence errors
var (
	ErrStoreUnavailable = NewDomainError("persistence", "Request", ErrServiceUnavailable, "persistence backend is unavailable")
	ErrStoreTimeout     = NewDomainError("persistence", "Request", ErrTimeout, "persistence request timeout")
	ErrBatchFailed      = NewDomainError("persistence", "AtomicBatch", ErrExternalService, "atomic batch did not commit")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsConflict checks if the error is a concurrent-duplicate conflict. The
// persistence layer reports the loser of an insert race through this.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrConcurrentModification)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
