package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/campusforge/placement-pipeline/models"
	"gorm.io/gorm"
)

// MatchRepositoryImpl implements the MatchRepository interface
type MatchRepositoryImpl struct {
	*BaseRepository[models.MatchRun, models.MatchRunFilter]
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &MatchRepositoryImpl{
		BaseRepository: NewBaseRepository[models.MatchRun, models.MatchRunFilter](db),
	}
}

// SaveRunWithMatches creates a match run and its matches atomically. Matches
// are inserted in slice order (descending score as the caller sorted them).
func (r *MatchRepositoryImpl) SaveRunWithMatches(ctx context.Context, run *models.MatchRun, matches []*models.StudentJobMatch) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Create(run).Error
	if err != nil {
		return fmt.Errorf("failed to save match run: %w", err)
	}

	for _, m := range matches {
		m.MatchRunID = run.ID
	}
	if len(matches) > 0 {
		err = db.CreateInBatches(matches, 100).Error
		if err != nil {
			return fmt.Errorf("failed to save student job matches: %w", err)
		}
	}

	return nil
}

// MatchRunByID retrieves a match run by ID
func (r *MatchRepositoryImpl) MatchRunByID(ctx context.Context, runID uint) (*models.MatchRun, error) {
	return r.ByID(ctx, runID)
}

// LatestMatchesForJob returns, per student, that student's most recent match
// against the given job, ordered by match score descending.
func (r *MatchRepositoryImpl) LatestMatchesForJob(ctx context.Context, jobSource models.JobSource, jobID uint, limit int) ([]*models.StudentJobMatch, error) {
	db := r.getDB(ctx)

	var matches []*models.StudentJobMatch
	sub := db.Model(&models.StudentJobMatch{}).
		Select("MAX(id)").
		Where("job_source = ? AND job_id = ?", jobSource, jobID).
		Group("student_id")

	query := db.Where("id IN (?)", sub).
		Preload("Student").
		Order("match_score DESC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&matches).Error
	if err != nil {
		return nil, err
	}

	return matches, nil
}

// MatchesByFilter retrieves matches based on filter criteria
func (r *MatchRepositoryImpl) MatchesByFilter(ctx context.Context, filter models.StudentJobMatchFilter, orderBy string, limit, offset int) ([]*models.StudentJobMatch, error) {
	db := r.getDB(ctx)

	var matches []*models.StudentJobMatch
	query := r.applyMatchFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&matches).Error
	if err != nil {
		return nil, err
	}

	return matches, nil
}

// MarkApproved flips the approval state on every match of the (student, job)
// pair. Matches are otherwise immutable; this is the single mutation the
// approval gate performs on them.
func (r *MatchRepositoryImpl) MarkApproved(ctx context.Context, studentID uint, jobSource models.JobSource, jobID uint, approvedAt time.Time) error {
	db := r.getDB(ctx)

	err := db.Model(&models.StudentJobMatch{}).
		Where("student_id = ? AND job_source = ? AND job_id = ?", studentID, jobSource, jobID).
		Updates(map[string]any{
			"approved":    true,
			"approved_at": approvedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark matches approved: %w", err)
	}

	return nil
}

// ByFilter retrieves match runs based on filter criteria
func (r *MatchRepositoryImpl) ByFilter(ctx context.Context, filter models.MatchRunFilter, orderBy string, limit, offset int) ([]*models.MatchRun, error) {
	db := r.getDB(ctx)

	var runs []*models.MatchRun
	query := db.Model(&models.MatchRun{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.RunType != nil {
		query = query.Where("run_type = ?", *filter.RunType)
	}
	if filter.JobIntelligenceRunID != nil {
		query = query.Where("job_intelligence_run_id = ?", *filter.JobIntelligenceRunID)
	}

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&runs).Error
	if err != nil {
		return nil, err
	}

	return runs, nil
}

func (r *MatchRepositoryImpl) applyMatchFilter(db *gorm.DB, filter models.StudentJobMatchFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.MatchRunID != nil {
		db = db.Where("match_run_id = ?", *filter.MatchRunID)
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
	if filter.MinMatchScore != nil {
		db = db.Where("match_score >= ?", *filter.MinMatchScore)
	}
	if filter.MaxMatchScore != nil {
		db = db.Where("match_score <= ?", *filter.MaxMatchScore)
	}
	if filter.Approved != nil {
		db = db.Where("approved = ?", *filter.Approved)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}
