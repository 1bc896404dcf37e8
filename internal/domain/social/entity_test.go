package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContribution(t *testing.T) {
	c, err := NewContribution("c-1", "student-1", ContributionHelp, "student-2", "DBMS")
	require.NoError(t, err)

	assert.Equal(t, ContributionHelp, c.Type)
	assert.Equal(t, "student-2", c.RecipientID)
}

func TestNewContribution_Validation(t *testing.T) {
	_, err := NewContribution("c-1", "", ContributionHelp, "student-2", "")
	assert.ErrorIs(t, err, ErrEmptyStudentID)

	_, err = NewContribution("c-1", "student-1", ContributionType("bribe"), "", "")
	assert.ErrorIs(t, err, ErrInvalidContribution)

	_, err = NewContribution("c-1", "student-1", ContributionHelp, "student-1", "")
	assert.ErrorIs(t, err, ErrSelfHelp)
}

func TestComputeCounters(t *testing.T) {
	var contributions []*Contribution

	// Helping the same peer twice counts once.
	for _, recipient := range []string{"p-1", "p-2", "p-2", "p-3"} {
		c, err := NewContribution("c", "student-1", ContributionHelp, recipient, "")
		require.NoError(t, err)
		contributions = append(contributions, c)
	}
	for i := 0; i < 2; i++ {
		c, err := NewContribution("c", "student-1", ContributionNoteShared, "", "")
		require.NoError(t, err)
		contributions = append(contributions, c)
	}
	// Another student's contribution is ignored.
	other, err := NewContribution("c", "student-2", ContributionNoteShared, "", "")
	require.NoError(t, err)
	contributions = append(contributions, other)

	counters := ComputeCounters("student-1", contributions)

	assert.Equal(t, 3, counters.PeersHelped)
	assert.Equal(t, 2, counters.NotesShared)
	assert.False(t, counters.QualifiesForHelpfulPeer())
	assert.False(t, counters.QualifiesForKnowledgeSharer())
}

func TestCounters_Thresholds(t *testing.T) {
	c := Counters{PeersHelped: HelpfulPeerThreshold, NotesShared: KnowledgeSharerThreshold}
	assert.True(t, c.QualifiesForHelpfulPeer())
	assert.True(t, c.QualifiesForKnowledgeSharer())
}
