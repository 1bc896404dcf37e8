package academics

import (
	"math"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE TYPES
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceStatus is the status of a single attendance record.
type AttendanceStatus string

const (
	// StatusPresent - the student attended the class.
	StatusPresent AttendanceStatus = "present"
	// StatusAbsent - the student missed the class.
	StatusAbsent AttendanceStatus = "absent"
	// StatusHoliday - the class did not happen (holiday). Excluded from
	// percentage denominators.
	StatusHoliday AttendanceStatus = "holiday"
	// StatusMedical - medically excused absence. Tracked separately and
	// excluded from the present/absent ratio.
	StatusMedical AttendanceStatus = "medical"
	// StatusCancelled - the class was cancelled. Excluded from denominators.
	StatusCancelled AttendanceStatus = "cancelled"
)

// IsValid checks that the status is one of the known values.
func (s AttendanceStatus) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHoliday, StatusMedical, StatusCancelled:
		return true
	default:
		return false
	}
}

// CountsTowardRatio returns true if the status participates in the
// present/total attendance ratio.
func (s AttendanceStatus) CountsTowardRatio() bool {
	return s == StatusPresent || s == StatusAbsent
}

// AttendanceRecord is one (student, subject, date) attendance mark.
// At most one record exists per (student, subject, date); the record is
// append-only from the engine's point of view.
type AttendanceRecord struct {
	ID        string
	StudentID string
	SubjectID string
	Date      time.Time
	Status    AttendanceStatus
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE CALCULATIONS
// ══════════════════════════════════════════════════════════════════════════════

// round2 rounds to 2 decimal places; all reported percentages use it.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AttendancePercentage returns the attendance percentage rounded to two
// decimals. A zero total returns 0, not an error.
func AttendancePercentage(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(present) / float64(total) * 100)
}

// ClassesMissed derives the number of missed classes from a percentage
// and a class total.
func ClassesMissed(percentage float64, totalClasses int) int {
	presentClasses := int(math.Round(percentage / 100 * float64(totalClasses)))
	return totalClasses - presentClasses
}

// Default safe-zone thresholds. Most universities require 75% at the
// mid-semester checkpoint and 85% to sit the end-semester exam.
const (
	DefaultMidSemThreshold = 75.0
	DefaultEndSemThreshold = 85.0
)

// SafeZone classifies an attendance percentage against the two exam
// eligibility thresholds.
type SafeZone struct {
	MidSemSafe bool
	EndSemSafe bool
	Status     ZoneStatus
}

// ZoneStatus is the coarse attendance health classification.
type ZoneStatus string

const (
	// ZoneCritical - below the mid-semester threshold.
	ZoneCritical ZoneStatus = "critical"
	// ZoneWarning - between the two thresholds.
	ZoneWarning ZoneStatus = "warning"
	// ZoneSafe - at or above the end-semester threshold.
	ZoneSafe ZoneStatus = "safe"
)

// SafeZoneStatus classifies percentage against the given thresholds.
// A percentage exactly at the mid threshold is a warning, not critical.
func SafeZoneStatus(percentage, midThreshold, endThreshold float64) SafeZone {
	zone := SafeZone{
		MidSemSafe: percentage >= midThreshold,
		EndSemSafe: percentage >= endThreshold,
	}

	switch {
	case percentage < midThreshold:
		zone.Status = ZoneCritical
	case percentage < endThreshold:
		zone.Status = ZoneWarning
	default:
		zone.Status = ZoneSafe
	}

	return zone
}

// DefaultSafeZoneStatus classifies against the default thresholds.
func DefaultSafeZoneStatus(percentage float64) SafeZone {
	return SafeZoneStatus(percentage, DefaultMidSemThreshold, DefaultEndSemThreshold)
}

// SimulationCap bounds the attendance simulation loops. A target of 0
// makes "classes can miss" unbounded and a target above 100 makes
// "classes to attend" unreachable; in both cases the loop stops at the
// cap and the cap itself is returned (fail closed).
const SimulationCap = 10000

// ClassesCanMiss simulates adding absences one at a time and returns how
// many the student can still afford before dropping below target.
// Returns 0 when already below target.
func ClassesCanMiss(currentPercentage float64, currentTotal int, targetPercentage float64) int {
	if currentPercentage <= targetPercentage || currentTotal <= 0 {
		return 0
	}

	currentPresent := int(math.Round(currentPercentage / 100 * float64(currentTotal)))

	canMiss := 0
	for canMiss < SimulationCap {
		newTotal := currentTotal + canMiss
		newPercentage := float64(currentPresent) / float64(newTotal) * 100

		if newPercentage < targetPercentage {
			// Rounding the reconstructed present count can land the very
			// first recomputation below target; never report a negative.
			if canMiss == 0 {
				return 0
			}
			return canMiss - 1
		}
		canMiss++
	}

	return SimulationCap
}

// ClassesNeedToAttend simulates attending classes until the target is
// met and returns how many are needed. Returns 0 when already at or
// above target; returns SimulationCap when the target is unreachable
// (e.g. above 100%).
func ClassesNeedToAttend(currentPercentage float64, currentTotal int, targetPercentage float64) int {
	if currentPercentage >= targetPercentage {
		return 0
	}

	currentPresent := int(math.Round(currentPercentage / 100 * float64(currentTotal)))

	needToAttend := 0
	for needToAttend < SimulationCap {
		newTotal := currentTotal + needToAttend
		newPresent := currentPresent + needToAttend
		if newTotal > 0 {
			newPercentage := float64(newPresent) / float64(newTotal) * 100
			if newPercentage >= targetPercentage {
				return needToAttend
			}
		}
		needToAttend++
	}

	return SimulationCap
}

// AttendanceStats is the aggregate attendance picture for a set of records.
type AttendanceStats struct {
	Present    int
	Absent     int
	Medical    int
	Total      int
	Percentage float64
	SafeZone
}

// ComputeAttendanceStats aggregates records into counts, percentage and
// safe-zone classification. Holiday and cancelled records do not appear
// in any counter; medical absences are counted separately and excluded
// from the ratio.
func ComputeAttendanceStats(records []AttendanceRecord) AttendanceStats {
	stats := AttendanceStats{}
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			stats.Present++
		case StatusAbsent:
			stats.Absent++
		case StatusMedical:
			stats.Medical++
		}
	}
	stats.Total = stats.Present + stats.Absent
	stats.Percentage = AttendancePercentage(stats.Present, stats.Total)
	stats.SafeZone = DefaultSafeZoneStatus(stats.Percentage)
	return stats
}
