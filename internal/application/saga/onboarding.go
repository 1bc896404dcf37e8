// Package saga contains business processes that orchestrate multiple
// domain operations in a coordinated manner and stay consistent across
// partial failures.
package saga

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"

	appgam "github.com/studypulse/studypulse-backend/internal/application/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
	"github.com/studypulse/studypulse-backend/internal/domain/student"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA
// Flow: Validate → Check Existence → Create Student → Award Welcome XP →
//
//	Publish Event
//
// Triggered by the first successful authentication callback from the
// hosted auth provider. Exactly one student record per auth user;
// a repeated callback finds the record and becomes a no-op.
// ══════════════════════════════════════════════════════════════════════════════

// WelcomeXP is the one-time signup bonus.
const WelcomeXP = 50

// OnboardingInput contains all data required to onboard a new student.
type OnboardingInput struct {
	// AuthUserID - user ID at the hosted auth provider (required).
	AuthUserID string

	// Email - email from the auth callback (required).
	Email string

	// DisplayName - initial display name (required).
	DisplayName string

	// Program - study program slug, e.g. "btech-cse" (required).
	Program string

	// Semester - current semester, 1-12.
	Semester int
}

// Validate checks if the input is valid for onboarding.
func (i OnboardingInput) Validate() error {
	if i.AuthUserID == "" {
		return errors.New("onboarding: auth user ID is required")
	}
	if _, err := mail.ParseAddress(i.Email); err != nil {
		return errors.New("onboarding: valid email is required")
	}
	if i.DisplayName == "" {
		return errors.New("onboarding: display name is required")
	}
	return nil
}

// OnboardingResult contains the outcome of the onboarding process.
type OnboardingResult struct {
	// Student - the created or already existing record.
	Student *student.Student

	// Created - false when the auth user was already onboarded.
	Created bool
}

// Onboarding coordinates new-student registration.
type Onboarding struct {
	students  student.Repository
	service   *appgam.Service
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewOnboarding creates the saga.
func NewOnboarding(students student.Repository, service *appgam.Service, publisher shared.EventPublisher, log *logger.Logger) *Onboarding {
	if log == nil {
		log = logger.Default()
	}
	return &Onboarding{
		students:  students,
		service:   service,
		publisher: publisher,
		log:       log.With(logger.Component("onboarding")),
	}
}

// Run executes the onboarding flow. Idempotent per auth user: the
// welcome bonus is granted only on actual creation.
func (o *Onboarding) Run(ctx context.Context, input OnboardingInput) (*OnboardingResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	existing, err := o.students.GetByAuthUserID(ctx, input.AuthUserID)
	switch {
	case err == nil:
		return &OnboardingResult{Student: existing, Created: false}, nil
	case shared.IsNotFound(err):
	default:
		return nil, fmt.Errorf("onboarding: lookup: %w", err)
	}

	semester := input.Semester
	if semester == 0 {
		semester = 1
	}

	stud, err := student.NewStudent(student.NewStudentParams{
		ID:          uuid.NewString(),
		AuthUserID:  input.AuthUserID,
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Program:     student.Program(input.Program),
		Semester:    semester,
	})
	if err != nil {
		return nil, fmt.Errorf("onboarding: %w", err)
	}

	if err := o.students.Create(ctx, stud); err != nil {
		// Lost the race against a concurrent callback: fetch the winner.
		if shared.IsAlreadyExists(err) {
			winner, gerr := o.students.GetByAuthUserID(ctx, input.AuthUserID)
			if gerr != nil {
				return nil, fmt.Errorf("onboarding: %w", gerr)
			}
			return &OnboardingResult{Student: winner, Created: false}, nil
		}
		return nil, fmt.Errorf("onboarding: create: %w", err)
	}

	if _, err := o.service.AwardXP(ctx, stud.ID, WelcomeXP, "Welcome to StudyPulse", student.SourceManual); err != nil {
		// The record exists; the bonus can be re-issued by support.
		o.log.Warn("welcome xp not awarded", logger.StudentID(stud.ID), logger.Err(err))
	}

	if o.publisher != nil {
		_ = o.publisher.Publish(shared.NewStudentRegisteredEvent(stud.ID, stud.DisplayName, stud.Program.String()))
	}

	o.log.Info("student onboarded", logger.StudentID(stud.ID))

	return &OnboardingResult{Student: o.refetch(ctx, stud), Created: true}, nil
}

// refetch returns the freshest copy after the welcome award, falling
// back to the in-memory entity if the read fails.
func (o *Onboarding) refetch(ctx context.Context, stud *student.Student) *student.Student {
	fresh, err := o.students.GetByID(ctx, stud.ID)
	if err != nil {
		return stud
	}
	return fresh
}
