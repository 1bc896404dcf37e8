// Package postgres implements the PostgreSQL persistence layer for StudyPulse.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE STUDENTS AND XP LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create students table and append-only XP ledger
-- Version: 001

CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    auth_user_id VARCHAR(100) NOT NULL UNIQUE,
    email VARCHAR(255) NOT NULL UNIQUE,
    display_name VARCHAR(100) NOT NULL,
    program VARCHAR(50) NOT NULL,
    current_semester INTEGER NOT NULL DEFAULT 1,
    total_xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_level CHECK (level >= 1),
    CONSTRAINT valid_semester CHECK (current_semester BETWEEN 1 AND 12)
);

CREATE INDEX IF NOT EXISTS idx_students_auth_user_id ON students(auth_user_id);
CREATE INDEX IF NOT EXISTS idx_students_total_xp ON students(total_xp DESC);

-- Append-only XP ledger. The invariant: SUM(amount) per student equals
-- students.total_xp. Rows are never updated or deleted.
CREATE TABLE IF NOT EXISTS xp_ledger (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    amount INTEGER NOT NULL,
    reason VARCHAR(200) NOT NULL,
    source VARCHAR(30) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT positive_amount CHECK (amount > 0),
    CONSTRAINT valid_source CHECK (source IN ('manual', 'attendance', 'grade', 'assignment', 'streak', 'achievement', 'login'))
);

CREATE INDEX IF NOT EXISTS idx_xp_ledger_student_id ON xp_ledger(student_id);
CREATE INDEX IF NOT EXISTS idx_xp_ledger_student_date ON xp_ledger(student_id, created_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS xp_ledger;
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ACADEMICS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create subjects, attendance and grades
-- Version: 002

CREATE TABLE IF NOT EXISTS subjects (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    name VARCHAR(100) NOT NULL,
    credits INTEGER NOT NULL DEFAULT 0,
    semester INTEGER NOT NULL,

    CONSTRAINT valid_credits CHECK (credits >= 0),
    CONSTRAINT valid_subject_semester CHECK (semester BETWEEN 1 AND 12)
);

CREATE INDEX IF NOT EXISTS idx_subjects_student_id ON subjects(student_id);

CREATE TABLE IF NOT EXISTS attendance_records (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    subject_id UUID NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
    date DATE NOT NULL,
    status VARCHAR(20) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_attendance_status CHECK (status IN ('present', 'absent', 'holiday', 'medical', 'cancelled')),
    -- One mark per student, subject and class day.
    CONSTRAINT uniq_attendance_mark UNIQUE (student_id, subject_id, date)
);

CREATE INDEX IF NOT EXISTS idx_attendance_student_subject ON attendance_records(student_id, subject_id, date);
CREATE INDEX IF NOT EXISTS idx_attendance_student_date ON attendance_records(student_id, date DESC);

CREATE TABLE IF NOT EXISTS grades (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    subject_id UUID NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
    marks_obtained DECIMAL(6,2) NOT NULL,
    total_marks DECIMAL(6,2) NOT NULL,
    semester INTEGER NOT NULL,
    exam_type VARCHAR(20) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_marks CHECK (marks_obtained >= 0 AND marks_obtained <= total_marks),
    CONSTRAINT positive_total CHECK (total_marks > 0),
    CONSTRAINT valid_exam_type CHECK (exam_type IN ('mid', 'end', 'surprise', 'viva'))
);

CREATE INDEX IF NOT EXISTS idx_grades_student_id ON grades(student_id);
CREATE INDEX IF NOT EXISTS idx_grades_student_semester ON grades(student_id, semester);
`

const migration002Down = `
DROP TABLE IF EXISTS grades;
DROP TABLE IF EXISTS attendance_records;
DROP TABLE IF EXISTS subjects;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE GAMIFICATION
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create streaks and achievements
-- Version: 003

CREATE TABLE IF NOT EXISTS streaks (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    streak_type VARCHAR(20) NOT NULL,
    current_streak INTEGER NOT NULL DEFAULT 1,
    longest_streak INTEGER NOT NULL DEFAULT 1,
    last_activity_date DATE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_streak_type CHECK (streak_type IN ('attendance', 'study', 'assignment', 'login')),
    CONSTRAINT valid_streak_counts CHECK (current_streak >= 0 AND longest_streak >= current_streak),
    -- One row per student and streak family; concurrent first marks
    -- collapse to the same row.
    CONSTRAINT uniq_streak UNIQUE (student_id, streak_type)
);

CREATE INDEX IF NOT EXISTS idx_streaks_student_id ON streaks(student_id);
CREATE INDEX IF NOT EXISTS idx_streaks_last_activity ON streaks(last_activity_date);

CREATE TABLE IF NOT EXISTS achievements (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    badge_type VARCHAR(40) NOT NULL,
    title VARCHAR(100) NOT NULL,
    description VARCHAR(300) NOT NULL,
    icon VARCHAR(10) NOT NULL,
    rarity VARCHAR(20) NOT NULL,
    xp_earned INTEGER NOT NULL,
    unlock_context VARCHAR(100),
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_rarity CHECK (rarity IN ('common', 'rare', 'epic', 'legendary')),
    -- Each badge unlocks at most once per student. Uniqueness lives in
    -- the database, not in application checks.
    CONSTRAINT uniq_achievement UNIQUE (student_id, badge_type)
);

CREATE INDEX IF NOT EXISTS idx_achievements_student_id ON achievements(student_id, unlocked_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS achievements;
DROP TABLE IF EXISTS streaks;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create leaderboard entries and snapshots
-- Version: 004

CREATE TABLE IF NOT EXISTS leaderboard_entries (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    display_name VARCHAR(100) NOT NULL,
    category VARCHAR(20) NOT NULL,
    score DECIMAL(10,2) NOT NULL DEFAULT 0,
    period VARCHAR(20) NOT NULL DEFAULT 'current',
    rank_change INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_category CHECK (category IN ('attendance', 'grades', 'xp', 'streak')),
    -- One row per student, category and period; upserts update in place.
    CONSTRAINT uniq_leaderboard_entry UNIQUE (student_id, category, period)
);

-- Ranking order: score descending, earlier update wins ties.
CREATE INDEX IF NOT EXISTS idx_leaderboard_order ON leaderboard_entries(category, period, score DESC, updated_at ASC);

CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    category VARCHAR(20) NOT NULL,
    entries JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_snapshot_category CHECK (category IN ('attendance', 'grades', 'xp', 'streak'))
);

CREATE INDEX IF NOT EXISTS idx_snapshots_category_date ON leaderboard_snapshots(category, created_at DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS leaderboard_snapshots;
DROP TABLE IF EXISTS leaderboard_entries;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: CREATE NOTIFICATIONS, SOCIAL AND ACTIVITY
// ══════════════════════════════════════════════════════════════════════════════

const migration005Up = `
-- Migration: Create notifications, contributions, activities and submissions
-- Version: 005

CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    type VARCHAR(40) NOT NULL,
    title VARCHAR(200) NOT NULL,
    message VARCHAR(500) NOT NULL,
    priority INTEGER NOT NULL DEFAULT 2,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    payload JSONB NOT NULL DEFAULT '{}'::jsonb,
    fail_reason VARCHAR(300),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    delivered_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_priority CHECK (priority BETWEEN 1 AND 3),
    CONSTRAINT valid_notification_status CHECK (status IN ('pending', 'queued', 'delivered', 'failed', 'skipped'))
);

CREATE INDEX IF NOT EXISTS idx_notifications_student ON notifications(student_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_pending ON notifications(status, priority DESC) WHERE status IN ('pending', 'queued');

CREATE TABLE IF NOT EXISTS contributions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    type VARCHAR(20) NOT NULL,
    recipient_id UUID,
    subject VARCHAR(100),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_contribution_type CHECK (type IN ('help', 'note_shared'))
);

CREATE INDEX IF NOT EXISTS idx_contributions_student ON contributions(student_id, created_at DESC);

CREATE TABLE IF NOT EXISTS activities (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    type VARCHAR(20) NOT NULL,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
    data JSONB NOT NULL DEFAULT '{}'::jsonb,

    CONSTRAINT valid_activity_type CHECK (type IN ('attendance', 'grade', 'assignment', 'social'))
);

CREATE INDEX IF NOT EXISTS idx_activities_student ON activities(student_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_activities_student_type ON activities(student_id, type, occurred_at DESC);

CREATE TABLE IF NOT EXISTS submissions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    assignment_id VARCHAR(100) NOT NULL,
    deadline TIMESTAMP WITH TIME ZONE NOT NULL,
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,

    CONSTRAINT uniq_submission UNIQUE (student_id, assignment_id)
);

CREATE INDEX IF NOT EXISTS idx_submissions_student ON submissions(student_id, submitted_at DESC);
`

const migration005Down = `
DROP TABLE IF EXISTS submissions;
DROP TABLE IF EXISTS activities;
DROP TABLE IF EXISTS contributions;
DROP TABLE IF EXISTS notifications;
`
