package dto

// EligibleStudentsRequest represents the query to list students eligible for a job.
// MaxScore is a ceiling: matches scoring above it are excluded.
type EligibleStudentsRequest struct {
	JobSource    string   `json:"job_source" validate:"required,oneof=job_intelligence job_posting"`
	JobID        uint     `json:"job_id" validate:"required"`
	Limit        *int     `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
	MaxScore     *float64 `json:"max_score,omitempty"`
	ApprovedOnly *bool    `json:"approved_only,omitempty"`
}

// JobSummaryDTO identifies the job a listing or approval refers to
type JobSummaryDTO struct {
	Source      string `json:"source"`
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
}

// EligibleStudentDTO represents one student's latest match against the job
type EligibleStudentDTO struct {
	StudentID       uint     `json:"student_id"`
	UUID            string   `json:"uuid"`
	Email           string   `json:"email"`
	Name            string   `json:"name"`
	Skills          []string `json:"skills"`
	MatchScore      float64  `json:"match_score"`
	SkillMatchScore *float64 `json:"skill_match_score,omitempty"`
	ATSScore        *float64 `json:"ats_score,omitempty"`
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
	Approved        bool     `json:"approved"`
	ApprovedAt      *string  `json:"approved_at,omitempty"`
}

// EligibleStudentsResponse represents the response to an eligible students query
type EligibleStudentsResponse struct {
	Message  string               `json:"message"`
	Job      JobSummaryDTO        `json:"job"`
	Students []EligibleStudentDTO `json:"students"`
}

// ApproveStudentRequest represents the request to approve a student for a job
type ApproveStudentRequest struct {
	JobSource string `json:"job_source" validate:"required,oneof=job_intelligence job_posting"`
	JobID     uint   `json:"job_id" validate:"required"`
	StudentID uint   `json:"student_id" validate:"required"`
}

// ApprovalDTO represents a persisted approval record
type ApprovalDTO struct {
	ID         uint   `json:"id"`
	StudentID  uint   `json:"student_id"`
	JobSource  string `json:"job_source"`
	JobID      uint   `json:"job_id"`
	ApprovedAt string `json:"approved_at"`
	CreatedAt  string `json:"created_at"`
}

// ApproveStudentResponse represents the response to an approval request.
// AlreadyApproved is true when the triple had been approved before; the
// returned approval is the original record in that case.
type ApproveStudentResponse struct {
	Message         string      `json:"message"`
	AlreadyApproved bool        `json:"already_approved"`
	Approval        ApprovalDTO `json:"approval"`
}
