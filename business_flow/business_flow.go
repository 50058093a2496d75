// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"time"

	"github.com/campusforge/placement-pipeline/app/dto"
	"github.com/campusforge/placement-pipeline/models"
	"github.com/campusforge/placement-pipeline/repository"
	"github.com/campusforge/placement-pipeline/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	DeviceInfo map[string]string `json:"device_info,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		DeviceInfo: make(map[string]string),
		Additional: make(map[string]string),
	}
}

// AddDeviceInfo adds device information to the metadata
func (cm *ClientMetadata) AddDeviceInfo(key, value string) {
	if cm.DeviceInfo == nil {
		cm.DeviceInfo = make(map[string]string)
	}
	cm.DeviceInfo[key] = value
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

func getStudent(ctx context.Context, repo repository.StudentRepository, studentID uint) (*models.Student, error) {
	student, err := repo.ByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	return student, nil
}

// ToStudentSummaryDTO converts a student model to its match-response summary
func ToStudentSummaryDTO(student *models.Student) *dto.StudentSummaryDTO {
	return &dto.StudentSummaryDTO{
		ID:       student.ID,
		UUID:     student.UUID.String(),
		Email:    student.Email,
		Name:     student.FullName(),
		Skills:   student.Skills,
		ATSScore: student.ATSScore,
	}
}

// ToJobIntelligenceDTO converts a scored job to its privileged representation
func ToJobIntelligenceDTO(job *models.JobIntelligence) dto.JobIntelligenceDTO {
	return dto.JobIntelligenceDTO{
		ID:             job.ID,
		RunID:          job.RunID,
		Title:          job.Title,
		CompanyName:    job.CompanyName,
		Location:       job.Location,
		JobType:        job.JobType,
		Source:         job.Source,
		ApplyLink:      job.ApplyLink,
		FinalScore:     job.FinalScore,
		ScoreBreakdown: []byte(job.ScoreBreakdown),
		RequiredSkills: job.RequiredSkills,
		Description:    job.Description,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
	}
}

// ToStudentJobIntelligenceDTO converts a scored job to its student-facing
// representation. ApplyLink is only populated when an approval exists.
func ToStudentJobIntelligenceDTO(job *models.JobIntelligence, approval *models.Approval) dto.StudentJobIntelligenceDTO {
	out := dto.StudentJobIntelligenceDTO{
		ID:             job.ID,
		RunID:          job.RunID,
		Title:          job.Title,
		CompanyName:    job.CompanyName,
		Location:       job.Location,
		JobType:        job.JobType,
		Source:         job.Source,
		FinalScore:     job.FinalScore,
		RequiredSkills: job.RequiredSkills,
		Description:    job.Description,
		ScoreBreakdown: []byte(job.ScoreBreakdown),
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
	}

	if approval != nil {
		out.Approved = true
		out.ApplyLink = utils.ToPtr(job.ApplyLink)
		out.ApprovedAt = utils.ToPtr(approval.ApprovedAt.Format(time.RFC3339))
	}

	return out
}

// ToMatchDTO converts a persisted match plus its job view to the response shape
func ToMatchDTO(match *models.StudentJobMatch, job *models.JobIntelligence) dto.MatchDTO {
	return dto.MatchDTO{
		JobSource:       string(match.JobSource),
		JobID:           match.JobID,
		Title:           job.Title,
		CompanyName:     job.CompanyName,
		ApplyLink:       job.ApplyLink,
		MatchScore:      match.MatchScore,
		SkillMatchScore: match.SkillMatchScore,
		ATSScore:        match.ATSScore,
		MatchedSkills:   match.MatchedSkills,
		MissingSkills:   match.MissingSkills,
		Reasoning:       []byte(match.Reasoning),
	}
}

// ToApprovalDTO converts an approval model to its response shape
func ToApprovalDTO(approval *models.Approval) dto.ApprovalDTO {
	return dto.ApprovalDTO{
		ID:         approval.ID,
		StudentID:  approval.StudentID,
		JobSource:  string(approval.JobSource),
		JobID:      approval.JobID,
		ApprovedAt: approval.ApprovedAt.Format(time.RFC3339),
		CreatedAt:  approval.CreatedAt.Format(time.RFC3339),
	}
}
