package academics

// ══════════════════════════════════════════════════════════════════════════════
// PREDICTIVE CALCULATIONS
// What-if scenarios and target solving for the predictions dashboard.
// ══════════════════════════════════════════════════════════════════════════════

// HypotheticalGrade overrides the marks of an already-graded subject in
// a what-if scenario. Overrides for subjects without an existing grade
// are ignored, not inserted.
type HypotheticalGrade struct {
	SubjectID string
	Marks     float64
	Total     float64
}

// WhatIfResult compares the current GPA with the projected one.
type WhatIfResult struct {
	CurrentGPA   float64
	ProjectedGPA float64
	Difference   float64
}

// WhatIfProjection recomputes the GPA with hypothetical marks replacing
// the matching subjects' grades.
func WhatIfProjection(currentGrades []Grade, subjects []Subject, hypothetical []HypotheticalGrade, scale GradeScale) WhatIfResult {
	currentGPA := WeightedGPA(currentGrades, subjects, scale)

	projected := make([]Grade, len(currentGrades))
	copy(projected, currentGrades)

	for _, hyp := range hypothetical {
		for i := range projected {
			if projected[i].SubjectID == hyp.SubjectID {
				projected[i].MarksObtained = hyp.Marks
				projected[i].TotalMarks = hyp.Total
				break
			}
		}
	}

	projectedGPA := WeightedGPA(projected, subjects, scale)

	return WhatIfResult{
		CurrentGPA:   currentGPA,
		ProjectedGPA: projectedGPA,
		Difference:   round2(projectedGPA - currentGPA),
	}
}

// TargetRequirement is the output of RequiredGradeForTarget.
type TargetRequirement struct {
	// RequiredGPA is the average GPA needed across remaining subjects.
	RequiredGPA float64

	// IsAchievable is true when RequiredGPA lies in [0, 10].
	IsAchievable bool

	// AverageMarksNeeded is RequiredGPA converted to a percentage.
	AverageMarksNeeded float64
}

// RequiredGradeForTarget solves the credit-weighted equation
//
//	targetCGPA * totalCredits = currentQualityPoints + requiredGPA * remainingCredits
//
// for requiredGPA. Zero remaining credits makes the target unachievable
// (there is nothing left to score in).
func RequiredGradeForTarget(currentGrades []Grade, subjects []Subject, targetCGPA float64, remainingSubjects []Subject) TargetRequirement {
	graded := make(map[string]bool, len(currentGrades))
	for _, g := range currentGrades {
		graded[g.SubjectID] = true
	}

	completedCredits := 0
	for _, s := range subjects {
		if graded[s.ID] {
			completedCredits += s.Credits
		}
	}

	remainingCredits := 0
	for _, s := range remainingSubjects {
		remainingCredits += s.Credits
	}

	totalCredits := completedCredits + remainingCredits
	if totalCredits == 0 || remainingCredits == 0 {
		return TargetRequirement{RequiredGPA: 0, IsAchievable: false, AverageMarksNeeded: 0}
	}

	currentGPA := WeightedGPA(currentGrades, subjects, Scale10)
	currentQualityPoints := currentGPA * float64(completedCredits)
	targetQualityPoints := targetCGPA * float64(totalCredits)
	requiredQualityPoints := targetQualityPoints - currentQualityPoints

	requiredGPA := requiredQualityPoints / float64(remainingCredits)

	return TargetRequirement{
		RequiredGPA:        round2(requiredGPA),
		IsAchievable:       requiredGPA >= 0 && requiredGPA <= 10,
		AverageMarksNeeded: round2(requiredGPA * 10),
	}
}

// FinalGradePrediction is the output of PredictFinalGrade.
type FinalGradePrediction struct {
	// RequiredInEndSem is the end-semester percentage needed for a 70%
	// final grade.
	RequiredInEndSem float64

	// PredictedGrade assumes the student repeats the mid-semester
	// performance.
	PredictedGrade float64

	// IsAchievable is true when RequiredInEndSem does not exceed 100.
	IsAchievable bool
}

// PredictFinalGrade projects the final grade from mid-semester marks
// given the mid-semester weightage (default 0.3 passed by callers).
func PredictFinalGrade(midSemMarks, midSemTotal, midSemWeightage float64) FinalGradePrediction {
	if midSemTotal <= 0 || midSemWeightage <= 0 || midSemWeightage >= 1 {
		return FinalGradePrediction{}
	}

	endSemWeightage := 1 - midSemWeightage
	midSemPercentage := midSemMarks / midSemTotal * 100
	currentContribution := midSemPercentage * midSemWeightage

	requiredFor70 := (70 - currentContribution) / endSemWeightage

	return FinalGradePrediction{
		RequiredInEndSem: round2(requiredFor70),
		PredictedGrade:   round2(midSemPercentage),
		IsAchievable:     requiredFor70 <= 100,
	}
}
