// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/campusforge/placement-pipeline/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// StudentRepository defines operations for students
type StudentRepository interface {
	Repository[models.Student, models.StudentFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Student, error)
	ByEmail(ctx context.Context, email string) (*models.Student, error)
	ListActiveStudents(ctx context.Context, limit, offset int) ([]*models.Student, error)
	ListByIDs(ctx context.Context, ids []uint) ([]*models.Student, error)
}

// JobPostingRepository defines operations for manually posted jobs
type JobPostingRepository interface {
	Repository[models.JobPosting, models.JobPostingFilter]
}

// JobIntelligenceRepository defines operations for job intelligence runs and
// their jobs. Runs are append-only: there are no update or delete operations.
type JobIntelligenceRepository interface {
	SaveRunWithJobs(ctx context.Context, run *models.JobIntelligenceRun, jobs []*models.JobIntelligence) error
	LatestRun(ctx context.Context) (*models.JobIntelligenceRun, error)
	RunByID(ctx context.Context, runID uint) (*models.JobIntelligenceRun, error)
	JobsByRunID(ctx context.Context, runID uint, limit int) ([]*models.JobIntelligence, error)
	JobByID(ctx context.Context, id uint) (*models.JobIntelligence, error)
	CountRuns(ctx context.Context, filter models.JobIntelligenceRunFilter) (int64, error)
}

// MatchRepository defines operations for match runs and student-job matches
type MatchRepository interface {
	SaveRunWithMatches(ctx context.Context, run *models.MatchRun, matches []*models.StudentJobMatch) error
	MatchRunByID(ctx context.Context, runID uint) (*models.MatchRun, error)
	LatestMatchesForJob(ctx context.Context, jobSource models.JobSource, jobID uint, limit int) ([]*models.StudentJobMatch, error)
	MatchesByFilter(ctx context.Context, filter models.StudentJobMatchFilter, orderBy string, limit, offset int) ([]*models.StudentJobMatch, error)
	MarkApproved(ctx context.Context, studentID uint, jobSource models.JobSource, jobID uint, approvedAt time.Time) error
}

// ApprovalRepository defines operations for approvals
type ApprovalRepository interface {
	Repository[models.Approval, models.ApprovalFilter]
	ByStudentAndJob(ctx context.Context, studentID uint, jobSource models.JobSource, jobID uint) (*models.Approval, error)
	ListByJob(ctx context.Context, jobSource models.JobSource, jobID uint) ([]*models.Approval, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.Approval, error)
}
