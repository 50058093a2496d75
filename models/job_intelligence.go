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

// ScoreBreakdown is the scoring engine's structured explanation of a job's
// final score. It is stored as JSONB and never parsed by this service; the
// engine owns its shape.
type ScoreBreakdown json.RawMessage

// Value implements the driver.Valuer interface for ScoreBreakdown
func (b ScoreBreakdown) Value() (driver.Value, error) {
	if len(b) == 0 {
		return []byte("{}"), nil
	}
	return []byte(b), nil
}

// Scan implements the sql.Scanner interface for ScoreBreakdown
func (b *ScoreBreakdown) Scan(value any) error {
	if value == nil {
		*b = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*b = ScoreBreakdown(append([]byte(nil), v...))
	case string:
		*b = ScoreBreakdown(v)
	default:
		return fmt.Errorf("cannot scan %T into ScoreBreakdown", value)
	}

	return nil
}

// MarshalJSON passes the raw payload through unchanged
func (b ScoreBreakdown) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}
	return b, nil
}

// UnmarshalJSON stores the raw payload unchanged
func (b *ScoreBreakdown) UnmarshalJSON(data []byte) error {
	*b = ScoreBreakdown(append([]byte(nil), data...))
	return nil
}

// JobIntelligence represents one scraped and scored job inside a run.
// Rows are written once when the owning run is created; FinalScore is derived
// by the scoring engine and never hand-edited.
type JobIntelligence struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	RunID          uint           `gorm:"not null;index:idx_job_intelligence_run_id" json:"run_id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	CompanyName    string         `gorm:"size:255;not null" json:"company_name"`
	Location       *string        `gorm:"size:255" json:"location,omitempty"`
	JobType        *string        `gorm:"size:100" json:"job_type,omitempty"`
	Source         string         `gorm:"size:100;not null;index:idx_job_intelligence_source" json:"source"`
	ApplyLink      string         `gorm:"type:text;not null" json:"apply_link"`
	FinalScore     float64        `gorm:"type:double precision;not null" json:"final_score"`
	ScoreBreakdown ScoreBreakdown `gorm:"type:jsonb;not null;default:'{}'" json:"score_breakdown"`
	RequiredSkills pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"required_skills"`
	Description    *string        `gorm:"type:text" json:"description,omitempty"`
	CreatedAt      time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	Run *JobIntelligenceRun `gorm:"foreignKey:RunID;references:ID" json:"run,omitempty"`
}

// TableName returns the table name for the model
func (JobIntelligence) TableName() string {
	return "job_intelligence"
}

// BeforeCreate is called before creating a new record
func (j *JobIntelligence) BeforeCreate(tx *gorm.DB) error {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = utils.UTCNow()
	}
	return nil
}

// JobIntelligenceFilter represents filter criteria for job intelligence queries
type JobIntelligenceFilter struct {
	ID            *uint      `json:"id,omitempty"`
	RunID         *uint      `json:"run_id,omitempty"`
	Source        *string    `json:"source,omitempty"`
	CompanyName   *string    `json:"company_name,omitempty"`
	MinFinalScore *float64   `json:"min_final_score,omitempty"`
	MaxFinalScore *float64   `json:"max_final_score,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
