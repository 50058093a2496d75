package models

import (
	"time"

	"github.com/campusforge/placement-pipeline/utils"
	"gorm.io/gorm"
)

// Approval is a staff-issued, one-way visibility grant for a (student, job)
// pair. The unique index over (student_id, job_source, job_id) makes approving
// twice return the existing row instead of creating a duplicate.
type Approval struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:uk_approvals_student_job" json:"student_id"`
	JobSource  JobSource `gorm:"type:job_source;not null;uniqueIndex:uk_approvals_student_job" json:"job_source"`
	JobID      uint      `gorm:"not null;uniqueIndex:uk_approvals_student_job" json:"job_id"`
	ApprovedAt time.Time `gorm:"not null" json:"approved_at"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	Student *Student `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
}

// TableName returns the table name for the model
func (Approval) TableName() string {
	return "approvals"
}

// BeforeCreate is called before creating a new record
func (a *Approval) BeforeCreate(tx *gorm.DB) error {
	if a.ApprovedAt.IsZero() {
		a.ApprovedAt = utils.UTCNow()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	return nil
}

// ApprovalFilter represents filter criteria for approval queries
type ApprovalFilter struct {
	ID             *uint      `json:"id,omitempty"`
	StudentID      *uint      `json:"student_id,omitempty"`
	JobSource      *JobSource `json:"job_source,omitempty"`
	JobID          *uint      `json:"job_id,omitempty"`
	ApprovedAfter  *time.Time `json:"approved_after,omitempty"`
	ApprovedBefore *time.Time `json:"approved_before,omitempty"`
}
