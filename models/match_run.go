package models

import (
	"time"

	"github.com/campusforge/placement-pipeline/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MatchRun represents one immutable matching execution. A single-student match
// produces a run covering one student; a batch produces one run shared by all
// matches persisted in that invocation. Counters are aggregates over the batch.
type MatchRun struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UUID                 uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_match_runs_uuid" json:"uuid"`
	RunType              RunType   `gorm:"type:run_type;not null;default:'manual'" json:"run_type"`
	JobIntelligenceRunID uint      `gorm:"not null;index:idx_match_runs_job_intelligence_run_id" json:"job_intelligence_run_id"`
	StudentsConsidered   int       `gorm:"not null;default:0" json:"students_considered"`
	StudentsMatched      int       `gorm:"not null;default:0" json:"students_matched"`
	TotalMatches         int       `gorm:"not null;default:0" json:"total_matches"`
	CreatedAt            time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_match_runs_created_at" json:"created_at"`

	// Relations
	Matches []StudentJobMatch `gorm:"foreignKey:MatchRunID" json:"matches,omitempty"`
}

// TableName returns the table name for the model
func (MatchRun) TableName() string {
	return "match_runs"
}

// BeforeCreate is called before creating a new record
func (r *MatchRun) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.RunType == "" {
		r.RunType = RunTypeManual
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// MatchRunFilter represents filter criteria for match run queries
type MatchRunFilter struct {
	ID                   *uint      `json:"id,omitempty"`
	UUID                 *uuid.UUID `json:"uuid,omitempty"`
	RunType              *RunType   `json:"run_type,omitempty"`
	JobIntelligenceRunID *uint      `json:"job_intelligence_run_id,omitempty"`
	CreatedAfter         *time.Time `json:"created_after,omitempty"`
	CreatedBefore        *time.Time `json:"created_before,omitempty"`
}
