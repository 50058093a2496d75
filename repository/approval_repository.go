package repository

import (
	"context"
	"errors"

	"github.com/campusforge/placement-pipeline/models"
	"gorm.io/gorm"
)

// ApprovalRepositoryImpl implements the ApprovalRepository interface
type ApprovalRepositoryImpl struct {
	*BaseRepository[models.Approval, models.ApprovalFilter]
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &ApprovalRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Approval, models.ApprovalFilter](db),
	}
}

// ByStudentAndJob retrieves the approval for a (student, jobSource, jobId)
// triple, or nil when the pair has not been approved. The triple is unique,
// so at most one row can match.
func (r *ApprovalRepositoryImpl) ByStudentAndJob(ctx context.Context, studentID uint, jobSource models.JobSource, jobID uint) (*models.Approval, error) {
	db := r.getDB(ctx)

	var approval models.Approval
	err := db.Where("student_id = ? AND job_source = ? AND job_id = ?", studentID, jobSource, jobID).
		Last(&approval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &approval, nil
}

// ListByJob retrieves all approvals for a job
func (r *ApprovalRepositoryImpl) ListByJob(ctx context.Context, jobSource models.JobSource, jobID uint) ([]*models.Approval, error) {
	filter := models.ApprovalFilter{JobSource: &jobSource, JobID: &jobID}
	return r.ByFilter(ctx, filter, "approved_at ASC", 0, 0)
}

// ListByStudent retrieves all approvals for a student
func (r *ApprovalRepositoryImpl) ListByStudent(ctx context.Context, studentID uint) ([]*models.Approval, error) {
	filter := models.ApprovalFilter{StudentID: &studentID}
	return r.ByFilter(ctx, filter, "approved_at ASC", 0, 0)
}

// ByFilter retrieves approvals based on filter criteria
func (r *ApprovalRepositoryImpl) ByFilter(ctx context.Context, filter models.ApprovalFilter, orderBy string, limit, offset int) ([]*models.Approval, error) {
	db := r.getDB(ctx)

	var approvals []*models.Approval
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&approvals).Error
	if err != nil {
		return nil, err
	}

	return approvals, nil
}

// Count returns the number of approvals matching the filter
func (r *ApprovalRepositoryImpl) Count(ctx context.Context, filter models.ApprovalFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Approval{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any approval matching the filter exists
func (r *ApprovalRepositoryImpl) Exists(ctx context.Context, filter models.ApprovalFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ApprovalRepositoryImpl) applyFilter(db *gorm.DB, filter models.ApprovalFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.StudentID != nil {
		db = db.Where("student_id = ?", *filter.StudentID)
	}
	if filter.JobSource != nil {
		db = db.Where("job_source = ?", *filter.JobSource)
	}
	if filter.JobID != nil {
		db = db.Where("job_id = ?", *filter.JobID)
	}
	if filter.ApprovedAfter != nil {
		db = db.Where("approved_at >= ?", *filter.ApprovedAfter)
	}
	if filter.ApprovedBefore != nil {
		db = db.Where("approved_at <= ?", *filter.ApprovedBefore)
	}
	return db
}
