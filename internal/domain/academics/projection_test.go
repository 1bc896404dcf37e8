package academics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhatIfProjection(t *testing.T) {
	grades := []Grade{
		{ID: "g1", SubjectID: "s1", MarksObtained: 60, TotalMarks: 100},
		{ID: "g2", SubjectID: "s2", MarksObtained: 80, TotalMarks: 100},
	}
	subjects := []Subject{
		{ID: "s1", Credits: 3},
		{ID: "s2", Credits: 3},
	}

	t.Run("improving a subject raises the projection", func(t *testing.T) {
		result := WhatIfProjection(grades, subjects, []HypotheticalGrade{
			{SubjectID: "s1", Marks: 90, Total: 100},
		}, Scale10)

		assert.Equal(t, 7.0, result.CurrentGPA)
		assert.Equal(t, 8.5, result.ProjectedGPA)
		assert.Equal(t, 1.5, result.Difference)
	})

	t.Run("override for ungraded subject is ignored", func(t *testing.T) {
		result := WhatIfProjection(grades, subjects, []HypotheticalGrade{
			{SubjectID: "s3", Marks: 100, Total: 100},
		}, Scale10)

		assert.Equal(t, result.CurrentGPA, result.ProjectedGPA)
		assert.Equal(t, 0.0, result.Difference)
	})

	t.Run("input slice is not mutated", func(t *testing.T) {
		WhatIfProjection(grades, subjects, []HypotheticalGrade{
			{SubjectID: "s1", Marks: 0, Total: 100},
		}, Scale10)

		assert.Equal(t, 60.0, grades[0].MarksObtained)
	})
}

func TestRequiredGradeForTarget(t *testing.T) {
	grades := []Grade{
		{ID: "g1", SubjectID: "s1", MarksObtained: 70, TotalMarks: 100},
	}
	subjects := []Subject{{ID: "s1", Credits: 4}}

	t.Run("solves for remaining credits", func(t *testing.T) {
		remaining := []Subject{{ID: "s2", Credits: 4}}

		// target 8.0 over 8 credits = 64 QP; current 7.0*4 = 28; need 36/4 = 9.0.
		req := RequiredGradeForTarget(grades, subjects, 8.0, remaining)

		assert.Equal(t, 9.0, req.RequiredGPA)
		assert.True(t, req.IsAchievable)
		assert.Equal(t, 90.0, req.AverageMarksNeeded)
	})

	t.Run("impossible target above ten", func(t *testing.T) {
		remaining := []Subject{{ID: "s2", Credits: 1}}

		req := RequiredGradeForTarget(grades, subjects, 9.9, remaining)

		assert.False(t, req.IsAchievable)
		assert.Greater(t, req.RequiredGPA, 10.0)
	})

	t.Run("no remaining credits is unachievable", func(t *testing.T) {
		req := RequiredGradeForTarget(grades, subjects, 8.0, nil)

		assert.False(t, req.IsAchievable)
		assert.Equal(t, 0.0, req.RequiredGPA)
	})

	t.Run("already exceeding target allows zero", func(t *testing.T) {
		highGrades := []Grade{{ID: "g1", SubjectID: "s1", MarksObtained: 95, TotalMarks: 100}}
		remaining := []Subject{{ID: "s2", Credits: 4}}

		req := RequiredGradeForTarget(highGrades, subjects, 5.0, remaining)

		assert.True(t, req.IsAchievable)
		assert.LessOrEqual(t, req.RequiredGPA, 5.0)
	})
}

func TestPredictFinalGrade(t *testing.T) {
	t.Run("typical mid-semester score", func(t *testing.T) {
		// 24/30 with 30% weightage: contribution 24; need (70-24)/0.7 = 65.71.
		pred := PredictFinalGrade(24, 30, 0.3)

		assert.Equal(t, 65.71, pred.RequiredInEndSem)
		assert.Equal(t, 80.0, pred.PredictedGrade)
		assert.True(t, pred.IsAchievable)
	})

	t.Run("weak mid-semester makes seventy unreachable", func(t *testing.T) {
		// 0/30: need 70/0.7 = 100 exactly, still achievable.
		pred := PredictFinalGrade(0, 30, 0.3)
		assert.Equal(t, 100.0, pred.RequiredInEndSem)
		assert.True(t, pred.IsAchievable)

		// Higher weightage on the failed exam pushes it past 100.
		pred = PredictFinalGrade(0, 30, 0.4)
		assert.False(t, pred.IsAchievable)
	})

	t.Run("invalid inputs return zero value", func(t *testing.T) {
		assert.Equal(t, FinalGradePrediction{}, PredictFinalGrade(24, 0, 0.3))
		assert.Equal(t, FinalGradePrediction{}, PredictFinalGrade(24, 30, 0))
		assert.Equal(t, FinalGradePrediction{}, PredictFinalGrade(24, 30, 1))
	})
}
