package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/application/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/activity"
	domgam "github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/social"
	"github.com/studypulse/studypulse-backend/pkg/logger"
	"github.com/studypulse/studypulse-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD CONTRIBUTION COMMAND
// Social contributions pay no direct XP: the helpful_peer and
// knowledge_sharer badges carry the reward once the counters qualify.
// ══════════════════════════════════════════════════════════════════════════════

// RecordContributionCommand contains the data to record a contribution.
type RecordContributionCommand struct {
	// StudentID is the contributor.
	StudentID string

	// Type of the contribution (help or note_shared).
	Type social.ContributionType

	// RecipientID is the helped peer (help only).
	RecipientID string

	// Subject the contribution relates to.
	Subject string
}

// RecordContributionResult contains the result of a contribution.
type RecordContributionResult struct {
	// Counters are the aggregated contribution counters after this one.
	Counters social.Counters

	// Unlocked lists achievements granted by this contribution.
	Unlocked []*domgam.Achievement
}

// RecordContributionHandler handles the RecordContributionCommand.
type RecordContributionHandler struct {
	contributions social.Repository
	activities    activity.Repository
	service       *gamification.Service
	log           *logger.Logger
}

// NewRecordContributionHandler creates a new RecordContributionHandler.
func NewRecordContributionHandler(contributions social.Repository, activities activity.Repository, service *gamification.Service, log *logger.Logger) *RecordContributionHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordContributionHandler{
		contributions: contributions,
		activities:    activities,
		service:       service,
		log:           log.With(logger.Component("record_contribution")),
	}
}

// Handle executes the record contribution command.
func (h *RecordContributionHandler) Handle(ctx context.Context, cmd RecordContributionCommand) (*RecordContributionResult, error) {
	contribution, err := social.NewContribution(uuid.NewString(), cmd.StudentID, cmd.Type, cmd.RecipientID, cmd.Subject)
	if err != nil {
		return nil, err
	}

	if err := h.contributions.Append(ctx, contribution); err != nil {
		return nil, fmt.Errorf("record_contribution: %w", err)
	}

	counters, err := h.contributions.GetCounters(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("record_contribution: %w", err)
	}

	recordActivity(ctx, h.activities, h.log, cmd.StudentID, activity.TypeSocial, timeutil.Now(), activity.Data{})

	unlocked, err := h.service.CheckAndAwardAchievements(ctx, cmd.StudentID, gamification.Activity{
		Type: gamification.ActivitySocial,
		Data: gamification.ActivityData{
			PeersHelped: counters.PeersHelped,
			NotesShared: counters.NotesShared,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("record_contribution: %w", err)
	}

	return &RecordContributionResult{
		Counters: counters,
		Unlocked: unlocked,
	}, nil
}
