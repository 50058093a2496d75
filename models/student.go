package models

import (
	"time"

	"github.com/campusforge/placement-pipeline/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Student represents a registered student profile used for job matching
// Skills are stored as a PostgreSQL TEXT[] column and compared case-normalized
type Student struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_students_uuid" json:"uuid"`
	FirstName string         `gorm:"size:100;not null" json:"first_name"`
	LastName  string         `gorm:"size:100;not null" json:"last_name"`
	Email     string         `gorm:"size:255;not null;uniqueIndex:uk_students_email" json:"email"`
	Skills    pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"skills"`
	ATSScore  *float64       `gorm:"type:double precision" json:"ats_score,omitempty"`
	IsActive  *bool          `gorm:"not null;default:true;index:idx_students_is_active" json:"is_active"`
	CreatedAt time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Student) TableName() string {
	return "students"
}

// BeforeCreate is called before creating a new record
func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (s *Student) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	s.UpdatedAt = &now
	return nil
}

// FullName returns the display name of the student
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentFilter represents filter criteria for student queries
type StudentFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Email         *string    `json:"email,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
