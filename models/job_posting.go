package models

import (
	"time"

	"github.com/campusforge/placement-pipeline/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// JobPosting represents a manually posted job, as opposed to a scraped one.
// Approvals with JobSourceJobPosting reference this table.
type JobPosting struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_job_postings_uuid" json:"uuid"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	CompanyName    string         `gorm:"size:255;not null" json:"company_name"`
	Location       *string        `gorm:"size:255" json:"location,omitempty"`
	JobType        *string        `gorm:"size:100" json:"job_type,omitempty"`
	ApplyLink      string         `gorm:"type:text;not null" json:"apply_link"`
	RequiredSkills pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"required_skills"`
	Description    *string        `gorm:"type:text" json:"description,omitempty"`
	IsActive       *bool          `gorm:"not null;default:true;index:idx_job_postings_is_active" json:"is_active"`
	CreatedAt      time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (JobPosting) TableName() string {
	return "job_postings"
}

// BeforeCreate is called before creating a new record
func (p *JobPosting) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// JobPostingFilter represents filter criteria for job posting queries
type JobPostingFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	CompanyName   *string    `json:"company_name,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
