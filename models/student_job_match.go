package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/campusforge/placement-pipeline/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// JobSource discriminates which job table a job id refers to
type JobSource string

const (
	JobSourceIntelligence JobSource = "job_intelligence"
	JobSourcePosting      JobSource = "job_posting"
)

// String returns the string representation of the job source
func (s JobSource) String() string {
	return string(s)
}

// Valid checks if the job source is valid
func (s JobSource) Valid() bool {
	switch s {
	case JobSourceIntelligence, JobSourcePosting:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for JobSource
func (s *JobSource) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = JobSource(v)
	case []byte:
		*s = JobSource(string(v))
	default:
		return fmt.Errorf("cannot scan %T into JobSource", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for JobSource
func (s JobSource) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid JobSource: %s", s)
	}
	return string(s), nil
}

// MatchReasoning is the scoring engine's free-form explanation for one match.
// Stored as JSONB, treated as opaque by every downstream consumer.
type MatchReasoning json.RawMessage

// Value implements the driver.Valuer interface for MatchReasoning
func (r MatchReasoning) Value() (driver.Value, error) {
	if len(r) == 0 {
		return []byte("{}"), nil
	}
	return []byte(r), nil
}

// Scan implements the sql.Scanner interface for MatchReasoning
func (r *MatchReasoning) Scan(value any) error {
	if value == nil {
		*r = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*r = MatchReasoning(append([]byte(nil), v...))
	case string:
		*r = MatchReasoning(v)
	default:
		return fmt.Errorf("cannot scan %T into MatchReasoning", value)
	}

	return nil
}

// MarshalJSON passes the raw payload through unchanged
func (r MatchReasoning) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON stores the raw payload unchanged
func (r *MatchReasoning) UnmarshalJSON(data []byte) error {
	*r = MatchReasoning(append([]byte(nil), data...))
	return nil
}

// StudentJobMatch represents one scored (student, job) pair inside a match run.
// Approved/ApprovedAt mirror the approval gate: the approval flow flips them on
// existing rows, and new rows for an already approved pair are created with the
// approval carried over so approval survives re-matching.
type StudentJobMatch struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	MatchRunID      uint           `gorm:"not null;index:idx_student_job_matches_match_run_id" json:"match_run_id"`
	StudentID       uint           `gorm:"not null;index:idx_student_job_matches_student_id" json:"student_id"`
	JobSource       JobSource      `gorm:"type:job_source;not null" json:"job_source"`
	JobID           uint           `gorm:"not null;index:idx_student_job_matches_job" json:"job_id"`
	MatchScore      float64        `gorm:"type:double precision;not null" json:"match_score"`
	SkillMatchScore *float64       `gorm:"type:double precision" json:"skill_match_score,omitempty"`
	ATSScore        *float64       `gorm:"type:double precision" json:"ats_score,omitempty"`
	MatchedSkills   pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"matched_skills"`
	MissingSkills   pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"missing_skills"`
	Reasoning       MatchReasoning `gorm:"type:jsonb;not null;default:'{}'" json:"reasoning"`
	Approved        bool           `gorm:"not null;default:false" json:"approved"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	CreatedAt       time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	MatchRun *MatchRun `gorm:"foreignKey:MatchRunID;references:ID" json:"match_run,omitempty"`
	Student  *Student  `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
}

// TableName returns the table name for the model
func (StudentJobMatch) TableName() string {
	return "student_job_matches"
}

// BeforeCreate is called before creating a new record
func (m *StudentJobMatch) BeforeCreate(tx *gorm.DB) error {
	if m.JobSource == "" {
		m.JobSource = JobSourceIntelligence
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = utils.UTCNow()
	}
	return nil
}

// StudentJobMatchFilter represents filter criteria for match queries
type StudentJobMatchFilter struct {
	ID            *uint      `json:"id,omitempty"`
	MatchRunID    *uint      `json:"match_run_id,omitempty"`
	StudentID     *uint      `json:"student_id,omitempty"`
	JobSource     *JobSource `json:"job_source,omitempty"`
	JobID         *uint      `json:"job_id,omitempty"`
	MinMatchScore *float64   `json:"min_match_score,omitempty"`
	MaxMatchScore *float64   `json:"max_match_score,omitempty"`
	Approved      *bool      `json:"approved,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
