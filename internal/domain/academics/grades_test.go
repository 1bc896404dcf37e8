package academics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradePoint_Scale4(t *testing.T) {
	tests := []struct {
		name     string
		marks    float64
		total    float64
		expected float64
	}{
		{"ninety percent is 4.0", 90, 100, 4.0},
		{"above ninety", 95, 100, 4.0},
		{"eighty band", 85, 100, 3.7},
		{"seventy band", 72, 100, 3.3},
		{"sixty band", 60, 100, 3.0},
		{"fifty band", 55, 100, 2.7},
		{"forty band", 45, 100, 2.3},
		{"below forty is zero", 39, 100, 0},
		{"zero total marks is neutral zero", 50, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GradePoint(tt.marks, tt.total, Scale4))
		})
	}
}

func TestGradePoint_Scale10(t *testing.T) {
	assert.Equal(t, 8.5, GradePoint(85, 100, Scale10))
	assert.Equal(t, 10.0, GradePoint(100, 100, Scale10))
	assert.Equal(t, 6.67, GradePoint(100, 150, Scale10))
	assert.Equal(t, 0.0, GradePoint(50, -1, Scale10))
}

func TestGradeLetter(t *testing.T) {
	tests := []struct {
		marks    float64
		total    float64
		expected string
	}{
		{92, 100, "A+"},
		{90, 100, "A+"},
		{85, 100, "A"},
		{75, 100, "B+"},
		{65, 100, "B"},
		{55, 100, "C+"},
		{45, 100, "C"},
		{35, 100, "D"},
		{10, 100, "F"},
		{50, 0, "F"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, GradeLetter(tt.marks, tt.total))
		})
	}
}

func TestWeightedGPA(t *testing.T) {
	t.Run("single grade single subject", func(t *testing.T) {
		grades := []Grade{{ID: "g1", SubjectID: "s1", MarksObtained: 85, TotalMarks: 100}}
		subjects := []Subject{{ID: "s1", Credits: 4}}

		assert.Equal(t, 8.5, WeightedGPA(grades, subjects, Scale10))
	})

	t.Run("credit weighting", func(t *testing.T) {
		grades := []Grade{
			{ID: "g1", SubjectID: "s1", MarksObtained: 90, TotalMarks: 100},
			{ID: "g2", SubjectID: "s2", MarksObtained: 60, TotalMarks: 100},
		}
		subjects := []Subject{
			{ID: "s1", Credits: 3},
			{ID: "s2", Credits: 1},
		}

		// (9.0*3 + 6.0*1) / 4 = 8.25
		assert.Equal(t, 8.25, WeightedGPA(grades, subjects, Scale10))
	})

	t.Run("no grades returns zero", func(t *testing.T) {
		assert.Equal(t, 0.0, WeightedGPA(nil, nil, Scale10))
	})

	t.Run("unresolvable subject is skipped", func(t *testing.T) {
		grades := []Grade{
			{ID: "g1", SubjectID: "s1", MarksObtained: 80, TotalMarks: 100},
			{ID: "g2", SubjectID: "missing", MarksObtained: 10, TotalMarks: 100},
		}
		subjects := []Subject{{ID: "s1", Credits: 4}}

		assert.Equal(t, 8.0, WeightedGPA(grades, subjects, Scale10))
	})

	t.Run("zero credit subject is skipped", func(t *testing.T) {
		grades := []Grade{
			{ID: "g1", SubjectID: "s1", MarksObtained: 80, TotalMarks: 100},
			{ID: "g2", SubjectID: "audit", MarksObtained: 10, TotalMarks: 100},
		}
		subjects := []Subject{
			{ID: "s1", Credits: 4},
			{ID: "audit", Credits: 0},
		}

		assert.Equal(t, 8.0, WeightedGPA(grades, subjects, Scale10))
	})

	t.Run("only unresolvable grades returns zero", func(t *testing.T) {
		grades := []Grade{{ID: "g1", SubjectID: "missing", MarksObtained: 80, TotalMarks: 100}}
		assert.Equal(t, 0.0, WeightedGPA(grades, nil, Scale10))
	})
}

func TestSemesterGPA(t *testing.T) {
	grades := []Grade{
		{ID: "g1", SubjectID: "s1", MarksObtained: 90, TotalMarks: 100, Semester: 1},
		{ID: "g2", SubjectID: "s2", MarksObtained: 50, TotalMarks: 100, Semester: 2},
	}
	subjects := []Subject{
		{ID: "s1", Credits: 3, Semester: 1},
		{ID: "s2", Credits: 3, Semester: 2},
	}

	assert.Equal(t, 9.0, SemesterGPA(grades, subjects, 1, Scale10))
	assert.Equal(t, 5.0, SemesterGPA(grades, subjects, 2, Scale10))
	assert.Equal(t, 0.0, SemesterGPA(grades, subjects, 3, Scale10))
}

func TestCGPA(t *testing.T) {
	grades := []Grade{
		{ID: "g1", SubjectID: "s1", MarksObtained: 90, TotalMarks: 100, Semester: 1},
		{ID: "g2", SubjectID: "s2", MarksObtained: 70, TotalMarks: 100, Semester: 2},
	}
	subjects := []Subject{
		{ID: "s1", Credits: 2},
		{ID: "s2", Credits: 2},
	}

	assert.Equal(t, 8.0, CGPA(grades, subjects, Scale10))
}

func TestWeightedPercentage(t *testing.T) {
	grades := []Grade{
		{ID: "g1", SubjectID: "s1", MarksObtained: 90, TotalMarks: 100},
		{ID: "g2", SubjectID: "s2", MarksObtained: 40, TotalMarks: 50},
	}
	subjects := []Subject{
		{ID: "s1", Credits: 1},
		{ID: "s2", Credits: 3},
	}

	// (90*1 + 80*3) / 4 = 82.5
	assert.Equal(t, 82.5, WeightedPercentage(grades, subjects))
	assert.Equal(t, 0.0, WeightedPercentage(nil, nil))
}
