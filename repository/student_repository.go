package repository

import (
	"context"
	"errors"

	"github.com/campusforge/placement-pipeline/models"
	"github.com/campusforge/placement-pipeline/utils"
	"gorm.io/gorm"
)

// StudentRepositoryImpl implements the StudentRepository interface
type StudentRepositoryImpl struct {
	*BaseRepository[models.Student, models.StudentFilter]
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &StudentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Student, models.StudentFilter](db),
	}
}

// ByUUID retrieves a student by UUID
func (r *StudentRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Student, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.StudentFilter{UUID: &parsedUUID}
	students, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(students) == 0 {
		return nil, nil
	}

	return students[0], nil
}

// ByEmail retrieves a student by email
func (r *StudentRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Student, error) {
	db := r.getDB(ctx)

	var student models.Student
	err := db.Where("email = ?", email).Last(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &student, nil
}

// ListActiveStudents retrieves active students with pagination
func (r *StudentRepositoryImpl) ListActiveStudents(ctx context.Context, limit, offset int) ([]*models.Student, error) {
	filter := models.StudentFilter{IsActive: utils.ToPtr(true)}
	return r.ByFilter(ctx, filter, "id ASC", limit, offset)
}

// ListByIDs retrieves students matching the given ids, in id order
func (r *StudentRepositoryImpl) ListByIDs(ctx context.Context, ids []uint) ([]*models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	var students []*models.Student
	err := db.Where("id IN ?", ids).Order("id ASC").Find(&students).Error
	if err != nil {
		return nil, err
	}

	return students, nil
}

// ByFilter retrieves students based on filter criteria
func (r *StudentRepositoryImpl) ByFilter(ctx context.Context, filter models.StudentFilter, orderBy string, limit, offset int) ([]*models.Student, error) {
	db := r.getDB(ctx)

	var students []*models.Student
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

	err := query.Find(&students).Error
	if err != nil {
		return nil, err
	}

	return students, nil
}

// Count returns the number of students matching the filter
func (r *StudentRepositoryImpl) Count(ctx context.Context, filter models.StudentFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Student{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any student matching the filter exists
func (r *StudentRepositoryImpl) Exists(ctx context.Context, filter models.StudentFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *StudentRepositoryImpl) applyFilter(db *gorm.DB, filter models.StudentFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Email != nil {
		db = db.Where("email = ?", *filter.Email)
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
