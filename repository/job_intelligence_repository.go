package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusforge/placement-pipeline/models"
	"gorm.io/gorm"
)

// JobIntelligenceRepositoryImpl implements the JobIntelligenceRepository
// interface over the append-only run log. The run table's auto-incrementing
// primary key is the ordering key, so the latest run is a single indexed
// lookup (ORDER BY id DESC LIMIT 1).
type JobIntelligenceRepositoryImpl struct {
	*BaseRepository[models.JobIntelligenceRun, models.JobIntelligenceRunFilter]
}

// NewJobIntelligenceRepository creates a new job intelligence repository
func NewJobIntelligenceRepository(db *gorm.DB) JobIntelligenceRepository {
	return &JobIntelligenceRepositoryImpl{
		BaseRepository: NewBaseRepository[models.JobIntelligenceRun, models.JobIntelligenceRunFilter](db),
	}
}

// SaveRunWithJobs creates a run and its jobs atomically. Jobs are inserted in
// slice order, preserving scrape/scoring order inside the run.
func (r *JobIntelligenceRepositoryImpl) SaveRunWithJobs(ctx context.Context, run *models.JobIntelligenceRun, jobs []*models.JobIntelligence) error {
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

	run.TotalJobs = len(jobs)
	err = db.Create(run).Error
	if err != nil {
		return fmt.Errorf("failed to save job intelligence run: %w", err)
	}

	for _, job := range jobs {
		job.RunID = run.ID
	}
	if len(jobs) > 0 {
		err = db.CreateInBatches(jobs, 100).Error
		if err != nil {
			return fmt.Errorf("failed to save job intelligence records: %w", err)
		}
	}

	return nil
}

// LatestRun retrieves the most recent run, or nil when no run exists yet
func (r *JobIntelligenceRepositoryImpl) LatestRun(ctx context.Context) (*models.JobIntelligenceRun, error) {
	db := r.getDB(ctx)

	var run models.JobIntelligenceRun
	err := db.Order("id DESC").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &run, nil
}

// RunByID retrieves a run by ID
func (r *JobIntelligenceRepositoryImpl) RunByID(ctx context.Context, runID uint) (*models.JobIntelligenceRun, error) {
	return r.ByID(ctx, runID)
}

// JobsByRunID retrieves the jobs of a run in insertion order. A limit of 0
// returns the whole run.
func (r *JobIntelligenceRepositoryImpl) JobsByRunID(ctx context.Context, runID uint, limit int) ([]*models.JobIntelligence, error) {
	db := r.getDB(ctx)

	var jobs []*models.JobIntelligence
	query := db.Where("run_id = ?", runID).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	return jobs, nil
}

// JobByID retrieves a single job intelligence record by ID
func (r *JobIntelligenceRepositoryImpl) JobByID(ctx context.Context, id uint) (*models.JobIntelligence, error) {
	db := r.getDB(ctx)

	var job models.JobIntelligence
	err := db.Last(&job, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &job, nil
}

// CountRuns returns the number of runs matching the filter
func (r *JobIntelligenceRepositoryImpl) CountRuns(ctx context.Context, filter models.JobIntelligenceRunFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := db.Model(&models.JobIntelligenceRun{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.RunType != nil {
		query = query.Where("run_type = ?", *filter.RunType)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
