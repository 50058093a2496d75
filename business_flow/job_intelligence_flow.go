// Package businessflow contains the core business logic and use cases for job intelligence workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/campusforge/placement-pipeline/app/dto"
	"github.com/campusforge/placement-pipeline/app/middleware"
	"github.com/campusforge/placement-pipeline/app/services"
	"github.com/campusforge/placement-pipeline/config"
	"github.com/campusforge/placement-pipeline/models"
	"github.com/campusforge/placement-pipeline/repository"
	"github.com/campusforge/placement-pipeline/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// JobIntelligenceFlow handles scrape ingestion and run reads
type JobIntelligenceFlow interface {
	IngestScrape(ctx context.Context, req *dto.ScrapeJobsRequest, runType models.RunType, metadata *ClientMetadata) (*dto.ScrapeJobsResponse, error)
	LatestRun(ctx context.Context) (*dto.JobIntelligenceRunResponse, error)
	RunByID(ctx context.Context, runID uint) (*dto.JobIntelligenceRunResponse, error)
	LatestRunForStudent(ctx context.Context, studentID uint) (*dto.StudentJobIntelligenceRunResponse, error)
}

// JobIntelligenceFlowImpl implements the job intelligence business flow
type JobIntelligenceFlowImpl struct {
	jobIntelRepo repository.JobIntelligenceRepository
	approvalRepo repository.ApprovalRepository
	studentRepo  repository.StudentRepository
	scraper      services.ScraperClient
	engine       services.ScoringEngine
	cacheConfig  *config.CacheConfig
	rc           *redis.Client
	db           *gorm.DB
}

// NewJobIntelligenceFlow creates a new job intelligence flow instance
func NewJobIntelligenceFlow(
	jobIntelRepo repository.JobIntelligenceRepository,
	approvalRepo repository.ApprovalRepository,
	studentRepo repository.StudentRepository,
	scraper services.ScraperClient,
	engine services.ScoringEngine,
	db *gorm.DB,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) JobIntelligenceFlow {
	return &JobIntelligenceFlowImpl{
		jobIntelRepo: jobIntelRepo,
		approvalRepo: approvalRepo,
		studentRepo:  studentRepo,
		scraper:      scraper,
		engine:       engine,
		cacheConfig:  cacheConfig,
		rc:           rc,
		db:           db,
	}
}

// IngestScrape runs one scrape against the external scraper, scores every job,
// and stores the result as a new immutable run. A scrape failure aborts the
// whole ingestion; there is never a partial run.
func (s *JobIntelligenceFlowImpl) IngestScrape(ctx context.Context, req *dto.ScrapeJobsRequest, runType models.RunType, metadata *ClientMetadata) (*dto.ScrapeJobsResponse, error) {
	if len(req.SearchTerms) == 0 {
		return nil, NewBusinessError("SCRAPE_VALIDATION_FAILED", "Scrape validation failed", ErrSearchTermsRequired)
	}
	if !runType.Valid() {
		runType = models.RunTypeManual
	}

	scrapeReq := services.ScrapeRequest{
		SearchTerms: req.SearchTerms,
		Locations:   req.Locations,
		SiteNames:   req.SiteNames,
	}
	if req.ResultsWanted != nil {
		scrapeReq.ResultsWanted = *req.ResultsWanted
	}
	if req.HoursOld != nil {
		scrapeReq.HoursOld = *req.HoursOld
	}

	scrapeCtx, cancel := context.WithTimeout(ctx, utils.ScrapeTimeout)
	defer cancel()

	result, err := s.scraper.Scrape(scrapeCtx, scrapeReq)
	if err != nil {
		middleware.RecordScrapeFailure()
		return nil, NewBusinessError("SCRAPE_FAILED", "Scrape request failed", err)
	}
	if !result.Success {
		middleware.RecordScrapeFailure()
		msg := "scraper reported failure"
		if result.Message != nil {
			msg = *result.Message
		}
		return nil, NewBusinessErrorf("SCRAPE_UPSTREAM_FAILED", "Scraper reported failure: %s", ErrScrapeFailed, msg)
	}

	// Score jobs in scrape order. Insertion order within the run is the
	// scoring order and later ties are broken by it.
	jobs := make([]*models.JobIntelligence, 0, len(result.Jobs))
	for _, raw := range result.Jobs {
		jobs = append(jobs, s.buildJob(raw))
	}

	run := &models.JobIntelligenceRun{RunType: runType}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.jobIntelRepo.SaveRunWithJobs(txCtx, run, jobs)
	})
	if err != nil {
		return nil, NewBusinessError("JOB_RUN_CREATION_FAILED", "Failed to store job intelligence run", err)
	}

	middleware.RecordJobRunCreated(string(run.RunType), run.TotalJobs)
	s.invalidateLatestRunCache(ctx)

	return &dto.ScrapeJobsResponse{
		Message:   "Job intelligence run created successfully",
		RunID:     run.ID,
		RunUUID:   run.UUID.String(),
		RunType:   string(run.RunType),
		TotalJobs: run.TotalJobs,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
	}, nil
}

// buildJob converts one raw scraper record into a scored JobIntelligence row
func (s *JobIntelligenceFlowImpl) buildJob(raw services.RawJob) *models.JobIntelligence {
	job := &models.JobIntelligence{
		Title:          raw.StringField("title"),
		CompanyName:    raw.StringField("company"),
		Source:         raw.StringField("site"),
		ApplyLink:      raw.StringField("job_url"),
		RequiredSkills: utils.NormalizeSkills(raw.StringSliceField("skills")),
	}
	if v := raw.StringField("location"); v != "" {
		job.Location = utils.ToPtr(v)
	}
	if v := raw.StringField("job_type"); v != "" {
		job.JobType = utils.ToPtr(v)
	}
	if v := raw.StringField("description"); v != "" {
		job.Description = utils.ToPtr(v)
	}

	profile := services.JobProfile{
		Title:          job.Title,
		CompanyName:    job.CompanyName,
		Source:         job.Source,
		ApplyLink:      job.ApplyLink,
		RequiredSkills: job.RequiredSkills,
	}
	if job.Description != nil {
		profile.Description = *job.Description
	}

	final, breakdown := s.engine.ScoreJob(profile)
	job.FinalScore = final
	job.ScoreBreakdown = models.ScoreBreakdown(breakdown)

	return job
}

// LatestRun returns the newest run with its full job records
func (s *JobIntelligenceFlowImpl) LatestRun(ctx context.Context) (*dto.JobIntelligenceRunResponse, error) {
	if cached := s.readLatestRunCache(ctx); cached != nil {
		return cached, nil
	}

	run, err := s.jobIntelRepo.LatestRun(ctx)
	if err != nil {
		return nil, NewBusinessError("JOB_RUN_LOOKUP_FAILED", "Failed to lookup latest run", err)
	}
	if run == nil {
		return nil, NewBusinessError("NO_JOB_INTELLIGENCE_RUN", "No job intelligence run exists yet", ErrNoJobIntelligenceRun)
	}

	resp, err := s.buildRunResponse(ctx, run)
	if err != nil {
		return nil, err
	}

	s.writeLatestRunCache(ctx, resp)

	return resp, nil
}

// RunByID returns one run with its full job records
func (s *JobIntelligenceFlowImpl) RunByID(ctx context.Context, runID uint) (*dto.JobIntelligenceRunResponse, error) {
	run, err := s.jobIntelRepo.RunByID(ctx, runID)
	if err != nil {
		return nil, NewBusinessError("JOB_RUN_LOOKUP_FAILED", "Failed to lookup run", err)
	}
	if run == nil {
		return nil, NewBusinessErrorf("JOB_RUN_NOT_FOUND", "Job intelligence run %d not found", ErrJobRunNotFound, runID)
	}

	return s.buildRunResponse(ctx, run)
}

func (s *JobIntelligenceFlowImpl) buildRunResponse(ctx context.Context, run *models.JobIntelligenceRun) (*dto.JobIntelligenceRunResponse, error) {
	jobs, err := s.jobIntelRepo.JobsByRunID(ctx, run.ID, 0)
	if err != nil {
		return nil, NewBusinessError("JOB_RUN_JOBS_LOOKUP_FAILED", "Failed to load run jobs", err)
	}

	out := make([]dto.JobIntelligenceDTO, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, ToJobIntelligenceDTO(job))
	}

	return &dto.JobIntelligenceRunResponse{
		RunID:     run.ID,
		RunUUID:   run.UUID.String(),
		RunType:   string(run.RunType),
		TotalJobs: run.TotalJobs,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
		Jobs:      out,
	}, nil
}

// LatestRunForStudent returns the newest run filtered through the approval
// gate: apply links stay null and approved stays false until an approval row
// exists for the (student, job) pair.
func (s *JobIntelligenceFlowImpl) LatestRunForStudent(ctx context.Context, studentID uint) (*dto.StudentJobIntelligenceRunResponse, error) {
	student, err := getStudent(ctx, s.studentRepo, studentID)
	if err != nil {
		return nil, NewBusinessError("STUDENT_LOOKUP_FAILED", "Failed to lookup student", err)
	}

	run, err := s.jobIntelRepo.LatestRun(ctx)
	if err != nil {
		return nil, NewBusinessError("JOB_RUN_LOOKUP_FAILED", "Failed to lookup latest run", err)
	}
	if run == nil {
		return nil, NewBusinessError("NO_JOB_INTELLIGENCE_RUN", "No job intelligence run exists yet", ErrNoJobIntelligenceRun)
	}

	jobs, err := s.jobIntelRepo.JobsByRunID(ctx, run.ID, 0)
	if err != nil {
		return nil, NewBusinessError("JOB_RUN_JOBS_LOOKUP_FAILED", "Failed to load run jobs", err)
	}

	approvals, err := s.approvalRepo.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, NewBusinessError("APPROVAL_LOOKUP_FAILED", "Failed to load approvals", err)
	}

	approvedJobs := make(map[uint]*models.Approval, len(approvals))
	for _, approval := range approvals {
		if approval.JobSource == models.JobSourceIntelligence {
			approvedJobs[approval.JobID] = approval
		}
	}

	out := make([]dto.StudentJobIntelligenceDTO, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, ToStudentJobIntelligenceDTO(job, approvedJobs[job.ID]))
	}

	return &dto.StudentJobIntelligenceRunResponse{
		RunID:     run.ID,
		RunUUID:   run.UUID.String(),
		RunType:   string(run.RunType),
		TotalJobs: run.TotalJobs,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
		Jobs:      out,
	}, nil
}

func (s *JobIntelligenceFlowImpl) cacheEnabled() bool {
	return s.rc != nil && s.cacheConfig != nil && s.cacheConfig.Enabled
}

func (s *JobIntelligenceFlowImpl) latestRunCacheKey() string {
	return fmt.Sprintf("%s%s", s.cacheConfig.RedisPrefix, utils.LatestRunCacheKey)
}

func (s *JobIntelligenceFlowImpl) readLatestRunCache(ctx context.Context) *dto.JobIntelligenceRunResponse {
	if !s.cacheEnabled() {
		return nil
	}

	payload, err := s.rc.Get(ctx, s.latestRunCacheKey()).Bytes()
	if err != nil {
		return nil
	}

	var resp dto.JobIntelligenceRunResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil
	}

	return &resp
}

func (s *JobIntelligenceFlowImpl) writeLatestRunCache(ctx context.Context, resp *dto.JobIntelligenceRunResponse) {
	if !s.cacheEnabled() {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}

	// Cache failures only cost a DB read on the next request
	_ = s.rc.Set(ctx, s.latestRunCacheKey(), payload, utils.LatestRunCacheTTL).Err()
}

func (s *JobIntelligenceFlowImpl) invalidateLatestRunCache(ctx context.Context) {
	if !s.cacheEnabled() {
		return
	}
	_ = s.rc.Del(ctx, s.latestRunCacheKey()).Err()
}
