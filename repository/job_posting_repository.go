package repository

import (
	"context"

	"github.com/campusforge/placement-pipeline/models"
	"gorm.io/gorm"
)

// JobPostingRepositoryImpl implements the JobPostingRepository interface
type JobPostingRepositoryImpl struct {
	*BaseRepository[models.JobPosting, models.JobPostingFilter]
}

// NewJobPostingRepository creates a new job posting repository
func NewJobPostingRepository(db *gorm.DB) JobPostingRepository {
	return &JobPostingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.JobPosting, models.JobPostingFilter](db),
	}
}

// ByFilter retrieves job postings based on filter criteria
func (r *JobPostingRepositoryImpl) ByFilter(ctx context.Context, filter models.JobPostingFilter, orderBy string, limit, offset int) ([]*models.JobPosting, error) {
	db := r.getDB(ctx)

	var postings []*models.JobPosting
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

	err := query.Find(&postings).Error
	if err != nil {
		return nil, err
	}

	return postings, nil
}

// Count returns the number of job postings matching the filter
func (r *JobPostingRepositoryImpl) Count(ctx context.Context, filter models.JobPostingFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.JobPosting{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any job posting matching the filter exists
func (r *JobPostingRepositoryImpl) Exists(ctx context.Context, filter models.JobPostingFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *JobPostingRepositoryImpl) applyFilter(db *gorm.DB, filter models.JobPostingFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CompanyName != nil {
		db = db.Where("company_name = ?", *filter.CompanyName)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}
