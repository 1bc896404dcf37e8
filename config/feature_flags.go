package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and A/B testing.
// Supports gradual rollout, student targeting, and batch-based experiments.
//
// Tuning philosophy: gamification should motivate, not pressure.
// Notifications are rationed, demotivating comparisons stay off by default.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	studentOverrides map[string]map[string]bool // studentID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Students are assigned based on hash of their ID
	RolloutPercent int

	// Batch targeting (e.g., "2025-autumn", "2026-spring")
	// Empty means all batches
	TargetBatches []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	StudentID string // Student UUID

	Batch   string // Admission batch (e.g., "2025-autumn")
	IsAdmin bool   // Is admin user
}

// Predefined feature flag names.
const (
	// === Leaderboard Features ===
	FeatureLeaderboardRankChange = "leaderboard.rank_change" // Show rank changes (+2, -1)
	FeatureLeaderboardStreaks    = "leaderboard.streaks"     // Streak category
	FeatureLeaderboardAttendance = "leaderboard.attendance"  // Attendance category

	// === Academic Features ===
	FeatureAcademicsSafeZone    = "academics.safe_zone"    // Attendance safe zone projection
	FeatureAcademicsGradeTarget = "academics.grade_target" // Required-marks calculator

	// === Notification Features ===
	FeatureNotifyLevelUp           = "notify.level_up"           // "You reached level N!"
	FeatureNotifyAchievement       = "notify.achievement"        // Badge unlocked
	FeatureNotifyStreakMilestone   = "notify.streak_milestone"   // 7/30/100-day streaks
	FeatureNotifyStreakAtRisk      = "notify.streak_at_risk"     // Streak about to break
	FeatureNotifyAttendanceWarning = "notify.attendance_warning" // Below-threshold subjects
	FeatureNotifyDailyDigest       = "notify.daily_digest"       // End of day summary

	// === Gamification Features ===
	FeatureGamificationStreaks      = "gamification.streaks"      // Daily streaks
	FeatureGamificationAchievements = "gamification.achievements" // Badges/achievements
	FeatureGamificationXPBonus      = "gamification.xp_bonus"     // Bonus XP for helping

	// === Social Features ===
	FeatureSocialContributions = "social.contributions" // Help and note sharing
	FeatureSocialComebacks     = "social.comebacks"     // Comeback detection

	// === Experimental Features ===
	FeatureExperimentalAnalytics = "experimental.analytics" // Advanced analytics
	FeatureExperimentalWebhooks  = "experimental.webhooks"  // Real-time webhooks
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		studentOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Leaderboard features - mostly enabled by default
	ff.features[FeatureLeaderboardRankChange] = &Feature{
		Name:           FeatureLeaderboardRankChange,
		Description:    "Show rank changes in leaderboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardStreaks] = &Feature{
		Name:           FeatureLeaderboardStreaks,
		Description:    "Streak leaderboard category",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardAttendance] = &Feature{
		Name:           FeatureLeaderboardAttendance,
		Description:    "Attendance leaderboard category",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Academic features - core to the product, always on
	ff.features[FeatureAcademicsSafeZone] = &Feature{
		Name:           FeatureAcademicsSafeZone,
		Description:    "Attendance safe zone projection",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureAcademicsGradeTarget] = &Feature{
		Name:           FeatureAcademicsGradeTarget,
		Description:    "Required marks calculator",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Notification features - carefully tuned to avoid spam
	ff.features[FeatureNotifyLevelUp] = &Feature{
		Name:           FeatureNotifyLevelUp,
		Description:    "Notify on level up",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyAchievement] = &Feature{
		Name:           FeatureNotifyAchievement,
		Description:    "Notify on badge unlock",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyStreakMilestone] = &Feature{
		Name:           FeatureNotifyStreakMilestone,
		Description:    "Notify on streak milestones",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyStreakAtRisk] = &Feature{
		Name:           FeatureNotifyStreakAtRisk,
		Description:    "Warn when a streak is about to break",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyAttendanceWarning] = &Feature{
		Name:           FeatureNotifyAttendanceWarning,
		Description:    "Warn on below-threshold attendance",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyDailyDigest] = &Feature{
		Name:           FeatureNotifyDailyDigest,
		Description:    "Daily progress summary",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Gamification features
	ff.features[FeatureGamificationStreaks] = &Feature{
		Name:           FeatureGamificationStreaks,
		Description:    "Track daily streaks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationAchievements] = &Feature{
		Name:           FeatureGamificationAchievements,
		Description:    "Unlock achievements",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationXPBonus] = &Feature{
		Name:           FeatureGamificationXPBonus,
		Description:    "Bonus XP for helping others",
		Enabled:        true,
		RolloutPercent: 50, // A/B test
	}

	// Social features
	ff.features[FeatureSocialContributions] = &Feature{
		Name:           FeatureSocialContributions,
		Description:    "Help and note sharing contributions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureSocialComebacks] = &Feature{
		Name:           FeatureSocialComebacks,
		Description:    "Detect students returning to the leaderboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced analytics dashboard",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalWebhooks] = &Feature{
		Name:           FeatureExperimentalWebhooks,
		Description:    "Real-time webhook updates",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_NOTIFY_DAILY_DIGEST=true
// Example: FEATURE_GAMIFICATION_XP_BONUS=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "notify.daily_digest" -> "FEATURE_NOTIFY_DAILY_DIGEST"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check student overrides first
	if ctx != nil && ctx.StudentID != "" {
		if overrides, ok := ff.studentOverrides[ctx.StudentID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check batch targeting
	if len(feature.TargetBatches) > 0 && ctx != nil && ctx.Batch != "" {
		batchMatch := false
		for _, b := range feature.TargetBatches {
			if b == ctx.Batch {
				batchMatch = true
				break
			}
		}
		if !batchMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.StudentID != "" {
		return ff.isInRollout(ctx.StudentID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a student is in the rollout percentage.
// Uses consistent hashing so students stay in their bucket.
func (ff *FeatureFlags) isInRollout(studentID, featureName string, percent int) bool {
	// Create a consistent hash for this student+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(studentID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a student.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !ff.IsEnabled(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 {
		return ""
	}

	// Use consistent hashing to assign variant
	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.StudentID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetStudentOverride sets a feature override for a specific student.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetStudentOverride(studentID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.studentOverrides[studentID]; !ok {
		ff.studentOverrides[studentID] = make(map[string]bool)
	}
	ff.studentOverrides[studentID][featureName] = enabled
}

// ClearStudentOverrides removes all overrides for a student.
func (ff *FeatureFlags) ClearStudentOverrides(studentID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.studentOverrides, studentID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// NotificationsEnabled checks if any notifications are enabled.
func (ff *FeatureFlags) NotificationsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureNotifyLevelUp, ctx) ||
		ff.IsEnabled(FeatureNotifyStreakAtRisk, ctx) ||
		ff.IsEnabled(FeatureNotifyAttendanceWarning, ctx) ||
		ff.IsEnabled(FeatureNotifyDailyDigest, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
