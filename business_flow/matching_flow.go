// Package businessflow contains the core business logic and use cases for matching workflows
package businessflow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/campusforge/placement-pipeline/app/dto"
	"github.com/campusforge/placement-pipeline/app/middleware"
	"github.com/campusforge/placement-pipeline/app/services"
	"github.com/campusforge/placement-pipeline/config"
	"github.com/campusforge/placement-pipeline/models"
	"github.com/campusforge/placement-pipeline/repository"
	"github.com/campusforge/placement-pipeline/utils"
	"gorm.io/gorm"
)

// MatchingFlow handles single-student and batch matching
type MatchingFlow interface {
	MatchStudent(ctx context.Context, req *dto.MatchStudentRequest, metadata *ClientMetadata) (*dto.StudentMatchResultDTO, error)
	MatchAllStudents(ctx context.Context, req *dto.BatchMatchRequest, metadata *ClientMetadata) (*dto.BatchMatchResponse, error)
}

// MatchingFlowImpl implements the matching business flow
type MatchingFlowImpl struct {
	studentRepo    repository.StudentRepository
	jobIntelRepo   repository.JobIntelligenceRepository
	matchRepo      repository.MatchRepository
	approvalRepo   repository.ApprovalRepository
	engine         services.ScoringEngine
	notifier       services.NotificationService
	matchingConfig config.MatchingConfig
	db             *gorm.DB
}

// NewMatchingFlow creates a new matching flow instance
func NewMatchingFlow(
	studentRepo repository.StudentRepository,
	jobIntelRepo repository.JobIntelligenceRepository,
	matchRepo repository.MatchRepository,
	approvalRepo repository.ApprovalRepository,
	engine services.ScoringEngine,
	notifier services.NotificationService,
	db *gorm.DB,
	matchingConfig config.MatchingConfig,
) MatchingFlow {
	return &MatchingFlowImpl{
		studentRepo:    studentRepo,
		jobIntelRepo:   jobIntelRepo,
		matchRepo:      matchRepo,
		approvalRepo:   approvalRepo,
		engine:         engine,
		notifier:       notifier,
		matchingConfig: matchingConfig,
		db:             db,
	}
}

// MatchStudent runs the matching algorithm for one student against the latest
// job intelligence run and persists the result as a new match run.
func (s *MatchingFlowImpl) MatchStudent(ctx context.Context, req *dto.MatchStudentRequest, metadata *ClientMetadata) (*dto.StudentMatchResultDTO, error) {
	if err := validateMatchParams(req.TopK, req.JobsLimit); err != nil {
		return nil, NewBusinessError("MATCH_VALIDATION_FAILED", "Match validation failed", err)
	}

	ctx, cancel := context.WithTimeout(ctx, utils.SingleMatchTimeout)
	defer cancel()

	student, err := getStudent(ctx, s.studentRepo, req.StudentID)
	if err != nil {
		return nil, NewBusinessError("STUDENT_LOOKUP_FAILED", "Failed to lookup student", err)
	}
	if !utils.IsTrue(student.IsActive) {
		return nil, NewBusinessError("STUDENT_INACTIVE", "Student is inactive", ErrStudentInactive)
	}

	run, jobs, err := s.loadLatestJobPool(ctx, req.JobsLimit)
	if err != nil {
		return nil, err
	}

	result, err := s.matchOne(ctx, student, run, jobs, req.TopK, models.RunTypeManual)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// MatchAllStudents fans the single-student algorithm out over the resolved
// student pool. Each student's outcome is isolated: a failure becomes one
// results entry with success=false and never aborts the rest of the batch.
func (s *MatchingFlowImpl) MatchAllStudents(ctx context.Context, req *dto.BatchMatchRequest, metadata *ClientMetadata) (*dto.BatchMatchResponse, error) {
	if err := validateMatchParams(req.TopK, req.JobsLimit); err != nil {
		return nil, NewBusinessError("MATCH_VALIDATION_FAILED", "Match validation failed", err)
	}

	timeout := s.matchingConfig.BatchTimeout
	if timeout <= 0 {
		timeout = utils.BatchMatchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, missingIDs, err := s.resolvePool(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 && len(missingIDs) == 0 {
		return nil, NewBusinessError("NO_STUDENTS_IN_POOL", "No students in matching pool", ErrNoStudentsInPool)
	}

	// The latest run is resolved once and shared read-only: every student in
	// the batch is matched against the same job pool even if a new run lands
	// mid-batch.
	run, jobs, err := s.loadLatestJobPool(ctx, req.JobsLimit)
	if err != nil {
		return nil, err
	}

	results := make([]dto.StudentMatchResultDTO, len(pool), len(pool)+len(missingIDs))

	workers := s.matchingConfig.BatchWorkers
	if workers <= 0 {
		workers = utils.DefaultBatchWorkers
	}
	if workers > len(pool) {
		workers = len(pool)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = s.matchOneIsolated(ctx, pool[i], run, jobs, req.TopK)
			}
		}()
	}
	for i := range pool {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	// Requested ids with no student row still show up once in the results,
	// as failed entries, so the caller can see every id was considered.
	for _, id := range missingIDs {
		results = append(results, dto.StudentMatchResultDTO{
			StudentID: id,
			Success:   false,
			Error:     utils.ToPtr(ErrStudentNotFound.Error()),
		})
	}

	summary := dto.MatchRunSummaryDTO{StudentsConsidered: len(results)}
	for i := range results {
		if !results[i].Success {
			continue
		}
		if len(results[i].Matches) > 0 {
			summary.StudentsMatched++
		}
		summary.TotalMatches += len(results[i].Matches)
	}

	return &dto.BatchMatchResponse{
		Summary: summary,
		Results: results,
		Email:   s.notifyTPO(summary),
	}, nil
}

func validateMatchParams(topK, jobsLimit *int) error {
	if topK != nil && *topK < 1 {
		return ErrInvalidTopK
	}
	if jobsLimit != nil && *jobsLimit < 1 {
		return ErrInvalidJobsLimit
	}
	return nil
}

// loadLatestJobPool resolves the newest run and the head of its job list
func (s *MatchingFlowImpl) loadLatestJobPool(ctx context.Context, jobsLimit *int) (*models.JobIntelligenceRun, []*models.JobIntelligence, error) {
	run, err := s.jobIntelRepo.LatestRun(ctx)
	if err != nil {
		return nil, nil, NewBusinessError("JOB_RUN_LOOKUP_FAILED", "Failed to lookup latest run", err)
	}
	if run == nil {
		return nil, nil, NewBusinessError("NO_JOB_INTELLIGENCE_RUN", "No job intelligence run exists yet", ErrNoJobIntelligenceRun)
	}

	// An absent caller cap scores the whole run; MATCHING_DEFAULT_JOBS_LIMIT
	// is an operator opt-in ceiling, not an implicit one.
	limit := s.matchingConfig.DefaultJobsLimit
	if jobsLimit != nil {
		limit = *jobsLimit
	}

	jobs, err := s.jobIntelRepo.JobsByRunID(ctx, run.ID, limit)
	if err != nil {
		return nil, nil, NewBusinessError("JOB_RUN_JOBS_LOOKUP_FAILED", "Failed to load run jobs", err)
	}
	if len(jobs) == 0 {
		return nil, nil, NewBusinessErrorf("EMPTY_JOB_RUN", "Job intelligence run %d contains no jobs", ErrEmptyJobRun, run.ID)
	}

	return run, jobs, nil
}

// resolvePool resolves the batch student pool. When explicit ids were
// requested, ids with no student row come back as missingIDs so the batch can
// report them as per-student failures instead of dropping them silently.
func (s *MatchingFlowImpl) resolvePool(ctx context.Context, req *dto.BatchMatchRequest) ([]*models.Student, []uint, error) {
	var pool []*models.Student
	var missingIDs []uint
	var err error

	if len(req.StudentIDs) > 0 {
		pool, err = s.studentRepo.ListByIDs(ctx, req.StudentIDs)
		if err == nil {
			found := make(map[uint]struct{}, len(pool))
			for _, student := range pool {
				found[student.ID] = struct{}{}
			}
			seen := make(map[uint]struct{}, len(req.StudentIDs))
			for _, id := range req.StudentIDs {
				if _, ok := found[id]; ok {
					continue
				}
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				missingIDs = append(missingIDs, id)
			}
		}
	} else {
		pool, err = s.studentRepo.ListActiveStudents(ctx, 0, 0)
	}
	if err != nil {
		return nil, nil, NewBusinessError("STUDENT_POOL_LOOKUP_FAILED", "Failed to resolve student pool", err)
	}

	// IsActive narrows the pool before any matching happens
	if req.IsActive != nil {
		filtered := pool[:0]
		for _, student := range pool {
			if utils.IsTrue(student.IsActive) == *req.IsActive {
				filtered = append(filtered, student)
			}
		}
		pool = filtered
	}

	if req.LimitStudents != nil && len(pool) > *req.LimitStudents {
		pool = pool[:*req.LimitStudents]
	}

	return pool, missingIDs, nil
}

// matchOneIsolated wraps matchOne for batch mode where errors become a failed
// result entry instead of propagating.
func (s *MatchingFlowImpl) matchOneIsolated(ctx context.Context, student *models.Student, run *models.JobIntelligenceRun, jobs []*models.JobIntelligence, topK *int) dto.StudentMatchResultDTO {
	if !utils.IsTrue(student.IsActive) {
		return dto.StudentMatchResultDTO{
			StudentID: student.ID,
			Success:   false,
			Error:     utils.ToPtr(ErrStudentInactive.Error()),
		}
	}

	result, err := s.matchOne(ctx, student, run, jobs, topK, models.RunTypeBatch)
	if err != nil {
		return dto.StudentMatchResultDTO{
			StudentID: student.ID,
			Success:   false,
			Error:     utils.ToPtr(err.Error()),
		}
	}

	return *result
}

type scoredJob struct {
	job   *models.JobIntelligence
	score services.MatchScore
}

// approvedIntelligenceJobs maps the student's approved job intelligence ids to
// their approval records
func (s *MatchingFlowImpl) approvedIntelligenceJobs(ctx context.Context, studentID uint) (map[uint]*models.Approval, error) {
	approvals, err := s.approvalRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	approved := make(map[uint]*models.Approval, len(approvals))
	for _, approval := range approvals {
		if approval.JobSource == models.JobSourceIntelligence {
			approved[approval.JobID] = approval
		}
	}

	return approved, nil
}

// matchOne scores every job in the pool for one student, sorts descending,
// truncates to topK after the sort, and persists a match run.
func (s *MatchingFlowImpl) matchOne(ctx context.Context, student *models.Student, run *models.JobIntelligenceRun, jobs []*models.JobIntelligence, topK *int, runType models.RunType) (*dto.StudentMatchResultDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("matching aborted: %w", err)
	}

	profile := services.StudentProfile{
		StudentID: student.ID,
		Skills:    student.Skills,
		ATSScore:  student.ATSScore,
	}

	scored := make([]scoredJob, 0, len(jobs))
	for _, job := range jobs {
		jobProfile := services.JobProfile{
			Title:          job.Title,
			CompanyName:    job.CompanyName,
			Source:         job.Source,
			ApplyLink:      job.ApplyLink,
			RequiredSkills: job.RequiredSkills,
		}
		if job.Description != nil {
			jobProfile.Description = *job.Description
		}
		scored = append(scored, scoredJob{job: job, score: s.engine.ScoreMatch(profile, jobProfile)})
	}

	// Stable sort keeps run insertion order for equal scores, so topK is
	// always a prefix of the unbounded ordering.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score.MatchScore > scored[j].score.MatchScore
	})
	if topK != nil && len(scored) > *topK {
		scored = scored[:*topK]
	}

	// Approval is one-way: a new match row for an already approved
	// (student, job) pair must carry the approval instead of resetting it,
	// otherwise the next per-student MAX(id) read would report it revoked.
	approvedJobs, err := s.approvedIntelligenceJobs(ctx, student.ID)
	if err != nil {
		return nil, NewBusinessError("APPROVAL_LOOKUP_FAILED", "Failed to load approvals", err)
	}

	matches := make([]*models.StudentJobMatch, 0, len(scored))
	for _, entry := range scored {
		match := &models.StudentJobMatch{
			StudentID:       student.ID,
			JobSource:       models.JobSourceIntelligence,
			JobID:           entry.job.ID,
			MatchScore:      entry.score.MatchScore,
			SkillMatchScore: entry.score.SkillMatchScore,
			ATSScore:        entry.score.ATSScore,
			MatchedSkills:   entry.score.MatchedSkills,
			MissingSkills:   entry.score.MissingSkills,
			Reasoning:       models.MatchReasoning(entry.score.Reasoning),
		}
		if approval, ok := approvedJobs[entry.job.ID]; ok {
			match.Approved = true
			match.ApprovedAt = utils.ToPtr(approval.ApprovedAt)
		}
		matches = append(matches, match)
	}

	matchRun := &models.MatchRun{
		RunType:              runType,
		JobIntelligenceRunID: run.ID,
		StudentsConsidered:   1,
		StudentsMatched:      1,
		TotalMatches:         len(matches),
	}
	if len(matches) == 0 {
		matchRun.StudentsMatched = 0
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.matchRepo.SaveRunWithMatches(txCtx, matchRun, matches)
	})
	if err != nil {
		return nil, NewBusinessError("MATCH_RUN_CREATION_FAILED", "Failed to store match run", err)
	}

	middleware.RecordMatchRunCreated(string(runType), len(matches))

	out := make([]dto.MatchDTO, 0, len(scored))
	for i, entry := range scored {
		out = append(out, ToMatchDTO(matches[i], entry.job))
	}

	return &dto.StudentMatchResultDTO{
		StudentID: student.ID,
		Success:   true,
		Student:   ToStudentSummaryDTO(student),
		Matches:   out,
		Persisted: &dto.PersistedMatchesDTO{
			MatchRunID:           matchRun.ID,
			SavedMatches:         len(matches),
			JobIntelligenceRunID: run.ID,
		},
	}, nil
}

// notifyTPO emails the batch summary to the placement office. Failures are
// reported in the response and never fail the batch.
func (s *MatchingFlowImpl) notifyTPO(summary dto.MatchRunSummaryDTO) dto.EmailOutcomeDTO {
	if s.notifier == nil || s.matchingConfig.TPOEmail == "" {
		return dto.EmailOutcomeDTO{TpoSent: false}
	}

	subject := "Batch matching completed"
	body := fmt.Sprintf(
		"Batch matching finished.\n\nStudents considered: %d\nStudents matched: %d\nTotal matches: %d\n",
		summary.StudentsConsidered, summary.StudentsMatched, summary.TotalMatches,
	)

	if err := s.notifier.SendEmail(s.matchingConfig.TPOEmail, subject, body); err != nil {
		return dto.EmailOutcomeDTO{TpoSent: false, Error: utils.ToPtr(err.Error())}
	}

	return dto.EmailOutcomeDTO{TpoSent: true}
}
