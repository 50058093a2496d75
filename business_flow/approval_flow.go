// Package businessflow contains the core business logic and use cases for approval workflows
package businessflow

import (
	"context"
	"time"

	"github.com/campusforge/placement-pipeline/app/dto"
	"github.com/campusforge/placement-pipeline/config"
	"github.com/campusforge/placement-pipeline/models"
	"github.com/campusforge/placement-pipeline/repository"
	"github.com/campusforge/placement-pipeline/utils"
	"gorm.io/gorm"
)

// ApprovalFlow handles eligible-student listings and the approval gate
type ApprovalFlow interface {
	EligibleStudents(ctx context.Context, req *dto.EligibleStudentsRequest, metadata *ClientMetadata) (*dto.EligibleStudentsResponse, error)
	ApproveStudentForJob(ctx context.Context, req *dto.ApproveStudentRequest, metadata *ClientMetadata) (*dto.ApproveStudentResponse, error)
}

// ApprovalFlowImpl implements the approval business flow
type ApprovalFlowImpl struct {
	studentRepo    repository.StudentRepository
	jobPostingRepo repository.JobPostingRepository
	jobIntelRepo   repository.JobIntelligenceRepository
	matchRepo      repository.MatchRepository
	approvalRepo   repository.ApprovalRepository
	matchingConfig config.MatchingConfig
	db             *gorm.DB
}

// NewApprovalFlow creates a new approval flow instance
func NewApprovalFlow(
	studentRepo repository.StudentRepository,
	jobPostingRepo repository.JobPostingRepository,
	jobIntelRepo repository.JobIntelligenceRepository,
	matchRepo repository.MatchRepository,
	approvalRepo repository.ApprovalRepository,
	db *gorm.DB,
	matchingConfig config.MatchingConfig,
) ApprovalFlow {
	return &ApprovalFlowImpl{
		studentRepo:    studentRepo,
		jobPostingRepo: jobPostingRepo,
		jobIntelRepo:   jobIntelRepo,
		matchRepo:      matchRepo,
		approvalRepo:   approvalRepo,
		matchingConfig: matchingConfig,
		db:             db,
	}
}

// EligibleStudents lists the latest match per student against one job,
// ordered by match score descending. MaxScore is a ceiling filter and
// ApprovedOnly keeps only already approved students.
func (s *ApprovalFlowImpl) EligibleStudents(ctx context.Context, req *dto.EligibleStudentsRequest, metadata *ClientMetadata) (*dto.EligibleStudentsResponse, error) {
	jobSource := models.JobSource(req.JobSource)
	job, err := s.resolveJob(ctx, jobSource, req.JobID)
	if err != nil {
		return nil, err
	}

	limit := 0
	if req.Limit != nil {
		limit = *req.Limit
	}

	matches, err := s.matchRepo.LatestMatchesForJob(ctx, jobSource, req.JobID, limit)
	if err != nil {
		return nil, NewBusinessError("MATCH_LOOKUP_FAILED", "Failed to load matches", err)
	}

	students := make([]dto.EligibleStudentDTO, 0, len(matches))
	for _, match := range matches {
		if req.MaxScore != nil && match.MatchScore > *req.MaxScore {
			continue
		}
		if utils.IsTrue(req.ApprovedOnly) && !match.Approved {
			continue
		}
		if match.Student == nil {
			continue
		}

		entry := dto.EligibleStudentDTO{
			StudentID:       match.StudentID,
			UUID:            match.Student.UUID.String(),
			Email:           match.Student.Email,
			Name:            match.Student.FullName(),
			Skills:          match.Student.Skills,
			MatchScore:      match.MatchScore,
			SkillMatchScore: match.SkillMatchScore,
			ATSScore:        match.ATSScore,
			MatchedSkills:   match.MatchedSkills,
			MissingSkills:   match.MissingSkills,
			Approved:        match.Approved,
		}
		if match.ApprovedAt != nil {
			entry.ApprovedAt = utils.ToPtr(match.ApprovedAt.UTC().Format(time.RFC3339))
		}
		students = append(students, entry)
	}

	return &dto.EligibleStudentsResponse{
		Message:  "Eligible students retrieved successfully",
		Job:      *job,
		Students: students,
	}, nil
}

// ApproveStudentForJob creates the approval record for a (student, jobSource,
// jobId) triple, idempotently. A second call for the same triple returns the
// original approval unchanged; approval is one-way and never revoked here.
func (s *ApprovalFlowImpl) ApproveStudentForJob(ctx context.Context, req *dto.ApproveStudentRequest, metadata *ClientMetadata) (*dto.ApproveStudentResponse, error) {
	jobSource := models.JobSource(req.JobSource)
	if !jobSource.Valid() {
		return nil, NewBusinessError("INVALID_JOB_SOURCE", "Invalid job source", ErrInvalidJobSource)
	}

	var approval *models.Approval
	var alreadyApproved bool

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		existing, err := s.approvalRepo.ByStudentAndJob(txCtx, req.StudentID, jobSource, req.JobID)
		if err != nil {
			return err
		}
		if existing != nil {
			approval = existing
			alreadyApproved = true
			return nil
		}

		student, err := getStudent(txCtx, s.studentRepo, req.StudentID)
		if err != nil {
			return err
		}

		if _, err := s.resolveJob(txCtx, jobSource, req.JobID); err != nil {
			return err
		}

		if !s.matchingConfig.AllowPreApproval {
			exists, err := s.matchRepo.MatchesByFilter(txCtx, models.StudentJobMatchFilter{
				StudentID: utils.ToPtr(student.ID),
				JobSource: utils.ToPtr(jobSource),
				JobID:     utils.ToPtr(req.JobID),
			}, "", 1, 0)
			if err != nil {
				return err
			}
			if len(exists) == 0 {
				return ErrNoMatchForApproval
			}
		}

		approval = &models.Approval{
			StudentID: student.ID,
			JobSource: jobSource,
			JobID:     req.JobID,
		}
		if err := s.approvalRepo.Save(txCtx, approval); err != nil {
			return err
		}

		// Flip the student-visible state on all of the student's matches for
		// this job so subsequent reads carry the real apply link.
		return s.matchRepo.MarkApproved(txCtx, student.ID, jobSource, req.JobID, approval.ApprovedAt)
	})

	if err != nil {
		if be, ok := err.(*BusinessError); ok {
			return nil, be
		}
		return nil, NewBusinessError("APPROVAL_FAILED", "Failed to approve student for job", err)
	}

	message := "Student approved successfully"
	if alreadyApproved {
		message = "Student was already approved"
	}

	return &dto.ApproveStudentResponse{
		Message:         message,
		AlreadyApproved: alreadyApproved,
		Approval:        ToApprovalDTO(approval),
	}, nil
}

// resolveJob loads the job the source names and returns its summary
func (s *ApprovalFlowImpl) resolveJob(ctx context.Context, jobSource models.JobSource, jobID uint) (*dto.JobSummaryDTO, error) {
	switch jobSource {
	case models.JobSourceIntelligence:
		job, err := s.jobIntelRepo.JobByID(ctx, jobID)
		if err != nil {
			return nil, NewBusinessError("JOB_LOOKUP_FAILED", "Failed to lookup job", err)
		}
		if job == nil {
			return nil, NewBusinessErrorf("JOB_NOT_FOUND", "Job %d not found in job intelligence", ErrJobNotFound, jobID)
		}
		return &dto.JobSummaryDTO{
			Source:      string(jobSource),
			ID:          job.ID,
			Title:       job.Title,
			CompanyName: job.CompanyName,
		}, nil

	case models.JobSourcePosting:
		job, err := s.jobPostingRepo.ByID(ctx, jobID)
		if err != nil {
			return nil, NewBusinessError("JOB_LOOKUP_FAILED", "Failed to lookup job", err)
		}
		if job == nil {
			return nil, NewBusinessErrorf("JOB_NOT_FOUND", "Job %d not found in job postings", ErrJobNotFound, jobID)
		}
		return &dto.JobSummaryDTO{
			Source:      string(jobSource),
			ID:          job.ID,
			Title:       job.Title,
			CompanyName: job.CompanyName,
		}, nil

	default:
		return nil, NewBusinessError("INVALID_JOB_SOURCE", "Invalid job source", ErrInvalidJobSource)
	}
}
