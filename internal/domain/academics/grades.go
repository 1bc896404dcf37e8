package academics

// ══════════════════════════════════════════════════════════════════════════════
// GRADE TYPES
// ══════════════════════════════════════════════════════════════════════════════

// ExamType identifies the examination a grade came from.
type ExamType string

const (
	ExamMid      ExamType = "mid"
	ExamEnd      ExamType = "end"
	ExamSurprise ExamType = "surprise"
	ExamViva     ExamType = "viva"
)

// IsValid checks that the exam type is known.
func (e ExamType) IsValid() bool {
	switch e {
	case ExamMid, ExamEnd, ExamSurprise, ExamViva:
		return true
	default:
		return false
	}
}

// Grade is one scored examination for a subject. MarksObtained above
// TotalMarks is tolerated (bonus marks happen); the engine never panics
// on it, the resulting percentage just exceeds 100.
type Grade struct {
	ID            string
	StudentID     string
	SubjectID     string
	MarksObtained float64
	TotalMarks    float64
	Semester      int
	ExamType      ExamType
}

// Subject carries the credit weight used by GPA aggregation. Subjects
// with zero credits, and grades whose subject is missing from the
// lookup, are skipped by the weighted aggregates.
type Subject struct {
	ID        string
	StudentID string
	Name      string
	Credits   int
	Semester  int
}

// GradeScale selects the grade-point system.
type GradeScale string

const (
	// Scale4 is the 4.0 letter-step scale.
	Scale4 GradeScale = "4.0"
	// Scale10 is the 10-point scale (Indian standard), percentage/10.
	Scale10 GradeScale = "10.0"
)

// IsValid checks that the scale is known.
func (s GradeScale) IsValid() bool {
	return s == Scale4 || s == Scale10
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADE CONVERSION
// ══════════════════════════════════════════════════════════════════════════════

// GradePoint converts marks to a grade point on the given scale.
// totalMarks <= 0 returns 0 (caller error, neutral value by policy).
func GradePoint(marksObtained, totalMarks float64, scale GradeScale) float64 {
	if totalMarks <= 0 {
		return 0
	}
	percentage := marksObtained / totalMarks * 100

	if scale == Scale4 {
		switch {
		case percentage >= 90:
			return 4.0
		case percentage >= 80:
			return 3.7
		case percentage >= 70:
			return 3.3
		case percentage >= 60:
			return 3.0
		case percentage >= 50:
			return 2.7
		case percentage >= 40:
			return 2.3
		default:
			return 0.0
		}
	}

	return round2(percentage / 10)
}

// GradeLetter converts marks to a letter grade using fixed percentage
// bands. totalMarks <= 0 maps to "F".
func GradeLetter(marksObtained, totalMarks float64) string {
	if totalMarks <= 0 {
		return "F"
	}
	percentage := marksObtained / totalMarks * 100

	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B+"
	case percentage >= 60:
		return "B"
	case percentage >= 50:
		return "C+"
	case percentage >= 40:
		return "C"
	case percentage >= 30:
		return "D"
	default:
		return "F"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WEIGHTED AGGREGATION
// ══════════════════════════════════════════════════════════════════════════════

// subjectIndex builds a lookup from subject ID to subject.
func subjectIndex(subjects []Subject) map[string]Subject {
	idx := make(map[string]Subject, len(subjects))
	for _, s := range subjects {
		idx[s.ID] = s
	}
	return idx
}

// WeightedGPA computes the credit-weighted mean grade point over all
// grades whose subject is resolvable. Unresolvable grades and
// zero-credit subjects are skipped, not zero-weighted. Returns 0 when
// no credits matched.
func WeightedGPA(grades []Grade, subjects []Subject, scale GradeScale) float64 {
	if len(grades) == 0 {
		return 0
	}

	idx := subjectIndex(subjects)

	totalCredits := 0
	qualityPoints := 0.0

	for _, g := range grades {
		subject, ok := idx[g.SubjectID]
		if !ok || subject.Credits <= 0 {
			continue
		}

		point := GradePoint(g.MarksObtained, g.TotalMarks, scale)
		qualityPoints += point * float64(subject.Credits)
		totalCredits += subject.Credits
	}

	if totalCredits == 0 {
		return 0
	}

	return round2(qualityPoints / float64(totalCredits))
}

// CGPA is the weighted GPA over all semesters to date.
func CGPA(allGrades []Grade, allSubjects []Subject, scale GradeScale) float64 {
	return WeightedGPA(allGrades, allSubjects, scale)
}

// SemesterGPA computes the weighted GPA over a single semester's grades.
func SemesterGPA(grades []Grade, subjects []Subject, semester int, scale GradeScale) float64 {
	var semesterGrades []Grade
	for _, g := range grades {
		if g.Semester == semester {
			semesterGrades = append(semesterGrades, g)
		}
	}
	return WeightedGPA(semesterGrades, subjects, scale)
}

// WeightedPercentage computes the credit-weighted mean raw percentage
// over resolvable grades. Returns 0 when no credits matched.
func WeightedPercentage(grades []Grade, subjects []Subject) float64 {
	if len(grades) == 0 {
		return 0
	}

	idx := subjectIndex(subjects)

	totalWeightedMarks := 0.0
	totalWeightedMax := 0.0

	for _, g := range grades {
		subject, ok := idx[g.SubjectID]
		if !ok || subject.Credits <= 0 || g.TotalMarks <= 0 {
			continue
		}

		weight := float64(subject.Credits)
		totalWeightedMarks += g.MarksObtained / g.TotalMarks * 100 * weight
		totalWeightedMax += 100 * weight
	}

	if totalWeightedMax == 0 {
		return 0
	}

	return round2(totalWeightedMarks / totalWeightedMax * 100)
}
