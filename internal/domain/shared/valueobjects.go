// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// StudentID represents the internal student identifier (UUID).
type StudentID string

// uuidRegex validates the UUID format.
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the StudentID is a valid UUID.
func (s StudentID) IsValid() bool {
	return uuidRegex.MatchString(string(s))
}

// String returns the string representation.
func (s StudentID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s StudentID) IsEmpty() bool {
	return s == ""
}

// NewStudentID creates a validated StudentID.
func NewStudentID(id string) (StudentID, error) {
	sid := StudentID(id)
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewStudentID", ErrInvalidID, "student ID must be a UUID")
	}
	return sid, nil
}

// SubjectID represents the identifier of a subject (UUID).
type SubjectID string

// IsValid checks if the SubjectID is a valid UUID.
func (s SubjectID) IsValid() bool {
	return uuidRegex.MatchString(string(s))
}

// String returns the string representation.
func (s SubjectID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s SubjectID) IsEmpty() bool {
	return s == ""
}

// ═══════════════════════════════════════════════════════════════════════════
// Academic Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Semester represents an academic semester number (1-12).
type Semester int

const (
	MinSemester Semester = 1
	MaxSemester Semester = 12
)

// IsValid checks if the semester is within a sane range.
func (s Semester) IsValid() bool {
	return s >= MinSemester && s <= MaxSemester
}

// Int returns the underlying int value.
func (s Semester) Int() int {
	return int(s)
}

// IsOdd returns true for odd (July-December) semesters.
func (s Semester) IsOdd() bool {
	return s%2 == 1
}

// NewSemester creates a validated Semester.
func NewSemester(n int) (Semester, error) {
	s := Semester(n)
	if !s.IsValid() {
		return 0, NewDomainError("shared", "NewSemester", ErrValueOutOfRange, "semester must be between 1 and 12")
	}
	return s, nil
}

// Credits represents the credit weight of a subject. Subjects with zero
// credits are excluded from weighted aggregates, not treated as errors.
type Credits int

// IsValid checks that credits are non-negative.
func (c Credits) IsValid() bool {
	return c >= 0
}

// CountsTowardGPA returns true if the subject participates in weighted averages.
func (c Credits) CountsTowardGPA() bool {
	return c > 0
}

// Int returns the underlying int value.
func (c Credits) Int() int {
	return int(c)
}

// Percent represents a percentage value in [0, 100].
type Percent float64

// IsValid checks if the percent is within range.
func (p Percent) IsValid() bool {
	return p >= 0 && p <= 100
}

// Float64 returns the underlying float64 value.
func (p Percent) Float64() float64 {
	return float64(p)
}

// String returns the string representation with two decimals.
func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

// Round2 rounds a float to 2 decimal places. All user-facing percentages
// and grade points are reported at this precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ═══════════════════════════════════════════════════════════════════════════
// Time Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time interval [From, To].
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks that From does not come after To.
func (t TimeRange) IsValid() bool {
	return !t.From.After(t.To)
}

// Duration returns the length of the range.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains checks if tm falls within the range.
func (t TimeRange) Contains(tm time.Time) bool {
	return !tm.Before(t.From) && !tm.After(t.To)
}

// NewTimeRange creates a validated TimeRange.
func NewTimeRange(from, to time.Time) (TimeRange, error) {
	tr := TimeRange{From: from, To: to}
	if !tr.IsValid() {
		return TimeRange{}, NewDomainError("shared", "NewTimeRange", ErrInvalidInput, "range start is after end")
	}
	return tr, nil
}

// LastNDays returns a TimeRange for the last N days.
func LastNDays(n int) TimeRange {
	now := time.Now()
	return TimeRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}
