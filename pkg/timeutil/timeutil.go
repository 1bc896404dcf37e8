// Package timeutil provides campus-timezone utilities for StudyPulse.
// All attendance, streak, and deadline math is done in IST (UTC+5:30),
// the timezone of the campuses the app serves. India has no DST, so a
// fixed zone is safe year-round.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// CampusTZ is the campus timezone (IST, UTC+5:30, no DST).
var CampusTZ = time.FixedZone("Asia/Kolkata", 5*60*60+30*60)

// Now returns the current time in campus timezone.
func Now() time.Time {
	return time.Now().In(CampusTZ)
}

// ToCampus converts a time to campus timezone.
func ToCampus(t time.Time) time.Time {
	return t.In(CampusTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in campus timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, CampusTZ)
}

// DateTime creates a time in campus timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, CampusTZ)
}

// StartOfDay returns the start of the day (00:00:00) in campus timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToCampus(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, CampusTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in campus timezone.
func EndOfDay(t time.Time) time.Time {
	local := ToCampus(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, CampusTZ)
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in campus timezone.
func StartOfWeek(t time.Time) time.Time {
	local := ToCampus(t)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(local.AddDate(0, 0, -daysToSubtract))
}

// EndOfWeek returns the end of the week (Sunday 23:59:59) in campus timezone.
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	return EndOfDay(start.AddDate(0, 0, 6))
}

// StartOfMonth returns the start of the month in campus timezone.
func StartOfMonth(t time.Time) time.Time {
	local := ToCampus(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, CampusTZ)
}

// EndOfMonth returns the end of the month in campus timezone.
func EndOfMonth(t time.Time) time.Time {
	start := StartOfMonth(t)
	return EndOfDay(start.AddDate(0, 1, -1))
}

// IsToday checks if the given time is today in campus timezone.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// IsYesterday checks if the given time is yesterday in campus timezone.
func IsYesterday(t time.Time) bool {
	return IsSameDay(t, Now().AddDate(0, 0, -1))
}

// DaysSince calculates the number of calendar days since the given time.
func DaysSince(t time.Time) int {
	now := StartOfDay(Now())
	then := StartOfDay(t)
	return int(now.Sub(then).Hours() / 24)
}

// Streak utilities. Streak continuation is decided on calendar-day
// boundaries in campus timezone, never on raw 24h deltas.

// IsSameDay checks if two times are on the same calendar day in campus timezone.
func IsSameDay(t1, t2 time.Time) bool {
	a1, a2 := ToCampus(t1), ToCampus(t2)
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// IsConsecutiveDay checks if t2 is the calendar day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	a1, a2 := ToCampus(t1), ToCampus(t2)
	nextDay := a1.AddDate(0, 0, 1)
	return IsSameDay(nextDay, a2)
}

// DayGap returns the number of whole calendar days between t1 and t2.
// Positive when t2 is after t1, negative when before. Same day returns 0.
func DayGap(t1, t2 time.Time) int {
	a1 := StartOfDay(t1)
	a2 := StartOfDay(t2)
	return int(a2.Sub(a1).Hours() / 24)
}

// DaysBetween calculates the absolute number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	days := DayGap(t1, t2)
	if days < 0 {
		days = -days
	}
	return days
}

// Academic calendar. The academic year starts in July; odd semesters run
// July-December, even semesters January-June.
const (
	// AcademicYearStartMonth is when the odd semester begins.
	AcademicYearStartMonth = time.July
)

// AcademicYearStart returns the start of the academic year containing t.
func AcademicYearStart(t time.Time) time.Time {
	local := ToCampus(t)
	year := local.Year()
	if local.Month() < AcademicYearStartMonth {
		year--
	}
	return Date(year, int(AcademicYearStartMonth), 1)
}

// CurrentSemesterParity returns 1 during the odd semester (July-December)
// and 2 during the even semester (January-June).
func CurrentSemesterParity(t time.Time) int {
	local := ToCampus(t)
	if local.Month() >= AcademicYearStartMonth {
		return 1
	}
	return 2
}

// Class hours, used for deciding whether an attendance reminder makes sense.
const (
	// ClassDayStart is when lectures start (8:00 AM).
	ClassDayStart = 8
	// ClassDayEnd is when lectures end (6:00 PM).
	ClassDayEnd = 18
)

// IsClassHours checks if the given time is within lecture hours (8:00-18:00).
func IsClassHours(t time.Time) bool {
	hour := ToCampus(t).Hour()
	return hour >= ClassDayStart && hour < ClassDayEnd
}

// IsWeekend checks if the given time is on a weekend.
func IsWeekend(t time.Time) bool {
	weekday := ToCampus(t).Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsClassDay checks if the given time is on a teaching day (Mon-Sat; most
// Indian colleges teach Saturdays).
func IsClassDay(t time.Time) bool {
	return ToCampus(t).Weekday() != time.Sunday
}

// NextClassDay returns the start of the next teaching day.
func NextClassDay(t time.Time) time.Time {
	next := ToCampus(t).AddDate(0, 0, 1)
	for !IsClassDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return StartOfDay(next)
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD), used for
	// streak last-activity dates in the database.
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
	// FormatHumanDate is a human-readable format.
	FormatHumanDate = "2 January 2006"
	// FormatShortDate is a short format (Jan 2).
	FormatShortDate = "Jan 2"
)

// FormatCampus formats a time in campus timezone with the given layout.
func FormatCampus(t time.Time, layout string) string {
	return ToCampus(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in campus timezone.
func FormatDateStr(t time.Time) string {
	return FormatCampus(t, FormatDate)
}

// FormatDateTimeStr formats a time as datetime string in campus timezone.
func FormatDateTimeStr(t time.Time) string {
	return FormatCampus(t, FormatDateTime)
}

// FormatRelative returns a human-readable relative time string.
func FormatRelative(t time.Time) string {
	now := Now()
	local := ToCampus(t)
	duration := now.Sub(local)

	if duration < 0 {
		duration = -duration
		return formatFutureDuration(duration)
	}

	return formatPastDuration(duration)
}

func formatPastDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%dd ago", days)
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	default:
		months := int(d.Hours() / 24 / 30)
		if months < 12 {
			return fmt.Sprintf("%dmo ago", months)
		}
		return fmt.Sprintf("%dy ago", months/12)
	}
}

func formatFutureDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("in %dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("in %dh", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "tomorrow"
		}
		return fmt.Sprintf("in %dd", days)
	}
}

// ParseCampus parses a time string in campus timezone.
func ParseCampus(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, CampusTZ)
}

// ParseDateCampus parses a date string (YYYY-MM-DD) in campus timezone.
func ParseDateCampus(value string) (time.Time, error) {
	return ParseCampus(FormatDate, value)
}

// Notification timing helpers.

// IsSafeNotificationTime checks if it's appropriate to send notifications (8:00-22:00).
func IsSafeNotificationTime(t time.Time) bool {
	hour := ToCampus(t).Hour()
	return hour >= 8 && hour < 22
}

// NextSafeNotificationTime returns the next time when notifications are appropriate.
func NextSafeNotificationTime(t time.Time) time.Time {
	local := ToCampus(t)
	hour := local.Hour()

	if hour < 8 {
		return DateTime(local.Year(), int(local.Month()), local.Day(), 8, 0, 0)
	} else if hour >= 22 {
		tomorrow := local.AddDate(0, 0, 1)
		return DateTime(tomorrow.Year(), int(tomorrow.Month()), tomorrow.Day(), 8, 0, 0)
	}

	return local
}
