package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/studypulse/studypulse-backend/internal/application/command"
	appgam "github.com/studypulse/studypulse-backend/internal/application/gamification"
	"github.com/studypulse/studypulse-backend/internal/application/query"
	"github.com/studypulse/studypulse-backend/internal/application/saga"
	"github.com/studypulse/studypulse-backend/internal/domain/academics"
	"github.com/studypulse/studypulse-backend/internal/domain/gamification"
	"github.com/studypulse/studypulse-backend/internal/domain/leaderboard"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
	"github.com/studypulse/studypulse-backend/internal/domain/social"
	"github.com/studypulse/studypulse-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns basic service info.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "studypulse-api",
		"version": "v1",
		"uptime":  s.Uptime().String(),
	})
}

// handleHealth returns the aggregated health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"healthy": true})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// handleReady reports readiness for traffic.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]bool{"ready": status.Ready})
}

// handleLive reports process liveness.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// READ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard serves GET /api/v1/leaderboard/{category}.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetLeaderboardQuery{
		Category: leaderboard.Category(r.PathValue("category")),
		Limit:    getQueryParamInt(r, "limit", 0),
		Offset:   getQueryParamInt(r, "offset", 0),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{
		TotalCount: result.TotalCount,
		PageSize:   len(result.Entries),
		HasMore:    q.Offset+len(result.Entries) < result.TotalCount,
	})
}

// handleGetStudentRank serves GET /api/v1/students/{id}/rank?category=xp.
func (s *Server) handleGetStudentRank(w http.ResponseWriter, r *http.Request) {
	q := query.GetStudentRankQuery{
		StudentID: r.PathValue("id"),
		Category:  leaderboard.Category(r.URL.Query().Get("category")),
	}
	if q.Category == "" {
		q.Category = leaderboard.CategoryXP
	}

	result, err := s.deps.GetStudentRankHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetStudentProgress serves GET /api/v1/students/{id}/progress.
func (s *Server) handleGetStudentProgress(w http.ResponseWriter, r *http.Request) {
	q := query.GetStudentProgressQuery{
		StudentID:   r.PathValue("id"),
		LedgerLimit: getQueryParamInt(r, "ledger_limit", 0),
	}

	result, err := s.deps.GetStudentProgressHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetAcademicSummary serves GET /api/v1/students/{id}/academics.
func (s *Server) handleGetAcademicSummary(w http.ResponseWriter, r *http.Request) {
	q := query.GetAcademicSummaryQuery{
		StudentID:        r.PathValue("id"),
		TargetPercentage: float64(getQueryParamInt(r, "target", 0)),
	}

	result, err := s.deps.GetAcademicSummaryHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetActivityFeed serves GET /api/v1/students/{id}/activity.
func (s *Server) handleGetActivityFeed(w http.ResponseWriter, r *http.Request) {
	q := query.GetActivityFeedQuery{
		StudentID: r.PathValue("id"),
		Limit:     getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.GetActivityFeedHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerStudentRequest struct {
	AuthUserID  string `json:"auth_user_id" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Program     string `json:"program" validate:"required"`
	Semester    int    `json:"semester" validate:"omitempty,min=1,max=12"`
}

type studentResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Program     string `json:"program"`
	Semester    int    `json:"semester"`
	TotalXP     int    `json:"total_xp"`
	Level       int    `json:"level"`
}

// handleRegisterStudent serves POST /api/v1/students. The frontend
// calls it from the auth provider callback; a repeated callback for
// the same auth user returns the existing record with 200.
func (s *Server) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.deps.OnboardingSaga.Run(r.Context(), saga.OnboardingInput{
		AuthUserID:  req.AuthUserID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Program:     req.Program,
		Semester:    req.Semester,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, studentResponse{
		ID:          result.Student.ID,
		DisplayName: result.Student.DisplayName,
		Program:     result.Student.Program.String(),
		Semester:    result.Student.CurrentSemester,
		TotalXP:     int(result.Student.TotalXP),
		Level:       result.Student.Level,
	})
}

type markAttendanceRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	SubjectID string `json:"subject_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent holiday medical cancelled"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type attendanceResponse struct {
	Percentage float64               `json:"percentage"`
	Zone       string                `json:"zone"`
	XPAwarded  int                   `json:"xp_awarded"`
	Streak     *streakResponse       `json:"streak,omitempty"`
	Unlocked   []achievementResponse `json:"unlocked,omitempty"`
}

// handleMarkAttendance serves POST /api/v1/attendance.
func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markAttendanceRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	cmd := command.MarkAttendanceCommand{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		Status:    academics.AttendanceStatus(req.Status),
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		cmd.Date = date
	}

	result, err := s.deps.MarkAttendanceHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, attendanceResponse{
		Percentage: result.Percentage,
		Zone:       string(result.Zone),
		XPAwarded:  result.XPAwarded,
		Streak:     toStreakResponse(result.Streak),
		Unlocked:   toAchievementResponses(result.Unlocked),
	})
}

type recordGradeRequest struct {
	StudentID     string  `json:"student_id" validate:"required,uuid4"`
	SubjectID     string  `json:"subject_id" validate:"required"`
	MarksObtained float64 `json:"marks_obtained" validate:"gte=0"`
	TotalMarks    float64 `json:"total_marks" validate:"required,gt=0"`
	Semester      int     `json:"semester" validate:"required,min=1,max=12"`
	ExamType      string  `json:"exam_type" validate:"required,oneof=mid end surprise viva"`
}

type gradeResponse struct {
	Letter    string                `json:"letter"`
	CGPA      float64               `json:"cgpa"`
	XPAwarded int                   `json:"xp_awarded"`
	Unlocked  []achievementResponse `json:"unlocked,omitempty"`
}

// handleRecordGrade serves POST /api/v1/grades.
func (s *Server) handleRecordGrade(w http.ResponseWriter, r *http.Request) {
	var req recordGradeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.deps.RecordGradeHandler.Handle(r.Context(), command.RecordGradeCommand{
		StudentID:     req.StudentID,
		SubjectID:     req.SubjectID,
		MarksObtained: req.MarksObtained,
		TotalMarks:    req.TotalMarks,
		Semester:      req.Semester,
		ExamType:      academics.ExamType(req.ExamType),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, gradeResponse{
		Letter:    result.Letter,
		CGPA:      result.CGPA,
		XPAwarded: result.XPAwarded,
		Unlocked:  toAchievementResponses(result.Unlocked),
	})
}

type submitAssignmentRequest struct {
	StudentID    string    `json:"student_id" validate:"required,uuid4"`
	AssignmentID string    `json:"assignment_id" validate:"required"`
	Deadline     time.Time `json:"deadline" validate:"required"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type submissionResponse struct {
	Early     bool                  `json:"early"`
	Late      bool                  `json:"late"`
	XPAwarded int                   `json:"xp_awarded"`
	Streak    *streakResponse       `json:"streak,omitempty"`
	Unlocked  []achievementResponse `json:"unlocked,omitempty"`
}

// handleSubmitAssignment serves POST /api/v1/assignments.
func (s *Server) handleSubmitAssignment(w http.ResponseWriter, r *http.Request) {
	var req submitAssignmentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.deps.SubmitAssignmentHandler.Handle(r.Context(), command.SubmitAssignmentCommand{
		StudentID:    req.StudentID,
		AssignmentID: req.AssignmentID,
		Deadline:     req.Deadline,
		SubmittedAt:  req.SubmittedAt,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submissionResponse{
		Early:     result.Early,
		Late:      result.Late,
		XPAwarded: result.XPAwarded,
		Streak:    toStreakResponse(result.Streak),
		Unlocked:  toAchievementResponses(result.Unlocked),
	})
}

type recordLoginRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
}

type loginResponse struct {
	FirstToday bool            `json:"first_today"`
	XPAwarded  int             `json:"xp_awarded"`
	Streak     *streakResponse `json:"streak,omitempty"`
}

// handleRecordLogin serves POST /api/v1/logins.
func (s *Server) handleRecordLogin(w http.ResponseWriter, r *http.Request) {
	var req recordLoginRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.deps.RecordLoginHandler.Handle(r.Context(), command.RecordLoginCommand{
		StudentID: req.StudentID,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, loginResponse{
		FirstToday: result.FirstToday,
		XPAwarded:  result.XPAwarded,
		Streak:     toStreakResponse(result.Streak),
	})
}

type recordContributionRequest struct {
	StudentID   string `json:"student_id" validate:"required,uuid4"`
	Type        string `json:"type" validate:"required,oneof=help note_shared"`
	RecipientID string `json:"recipient_id" validate:"omitempty,uuid4"`
	Subject     string `json:"subject"`
}

type contributionResponse struct {
	PeersHelped int                   `json:"peers_helped"`
	NotesShared int                   `json:"notes_shared"`
	Unlocked    []achievementResponse `json:"unlocked,omitempty"`
}

// handleRecordContribution serves POST /api/v1/contributions.
func (s *Server) handleRecordContribution(w http.ResponseWriter, r *http.Request) {
	var req recordContributionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.deps.RecordContributionHandler.Handle(r.Context(), command.RecordContributionCommand{
		StudentID:   req.StudentID,
		Type:        social.ContributionType(req.Type),
		RecipientID: req.RecipientID,
		Subject:     req.Subject,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, contributionResponse{
		PeersHelped: result.Counters.PeersHelped,
		NotesShared: result.Counters.NotesShared,
		Unlocked:    toAchievementResponses(result.Unlocked),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE MAPPING
// ══════════════════════════════════════════════════════════════════════════════

type streakResponse struct {
	Current int    `json:"current"`
	Longest int    `json:"longest"`
	Outcome string `json:"outcome"`
}

type achievementResponse struct {
	BadgeType string `json:"badge_type"`
	Title     string `json:"title"`
	Rarity    string `json:"rarity"`
	XPEarned  int    `json:"xp_earned"`
}

func toStreakResponse(s *appgam.StreakResult) *streakResponse {
	if s == nil {
		return nil
	}
	return &streakResponse{
		Current: s.CurrentStreak,
		Longest: s.LongestStreak,
		Outcome: string(s.Outcome),
	}
}

func toAchievementResponses(unlocked []*gamification.Achievement) []achievementResponse {
	if len(unlocked) == 0 {
		return nil
	}
	out := make([]achievementResponse, 0, len(unlocked))
	for _, a := range unlocked {
		out = append(out, achievementResponse{
			BadgeType: string(a.BadgeType),
			Title:     a.Title,
			Rarity:    string(a.Rarity),
			XPEarned:  a.XPEarned,
		})
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING AND ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeAndValidate parses the JSON body into dst and validates it.
// Writes the error response itself and reports whether to proceed.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeJSONError(w, http.StatusBadRequest, "validation_failed", verrs[0].Error())
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

// writeDomainError maps domain errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrAlreadyExists):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidID),
		errors.Is(err, shared.ErrValueOutOfRange),
		errors.Is(err, shared.ErrFutureTimestamp):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("request failed", logger.String("error", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
