package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/campusforge/placement-pipeline/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunType represents how a pipeline run was triggered
type RunType string

const (
	RunTypeManual    RunType = "manual"
	RunTypeScheduled RunType = "scheduled"
	RunTypeBatch     RunType = "batch"
)

// String returns the string representation of the run type
func (t RunType) String() string {
	return string(t)
}

// Valid checks if the run type is valid
func (t RunType) Valid() bool {
	switch t {
	case RunTypeManual, RunTypeScheduled, RunTypeBatch:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for RunType
func (t *RunType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = RunType(v)
	case []byte:
		*t = RunType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RunType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for RunType
func (t RunType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid RunType: %s", t)
	}
	return string(t), nil
}

// JobIntelligenceRun represents one immutable batch of scraped and scored jobs.
// The auto-incrementing ID is the ordering key: the latest run is the row with
// the highest ID. Runs are never updated or deleted after creation.
type JobIntelligenceRun struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_job_intelligence_runs_uuid" json:"uuid"`
	RunType   RunType   `gorm:"type:run_type;not null;default:'manual';index:idx_job_intelligence_runs_run_type" json:"run_type"`
	TotalJobs int       `gorm:"not null;default:0" json:"total_jobs"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_job_intelligence_runs_created_at" json:"created_at"`

	// Relations
	Jobs []JobIntelligence `gorm:"foreignKey:RunID" json:"jobs,omitempty"`
}

// TableName returns the table name for the model
func (JobIntelligenceRun) TableName() string {
	return "job_intelligence_runs"
}

// BeforeCreate is called before creating a new record
func (r *JobIntelligenceRun) BeforeCreate(tx *gorm.DB) error {
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

// JobIntelligenceRunFilter represents filter criteria for run queries
type JobIntelligenceRunFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	RunType       *RunType   `json:"run_type,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
