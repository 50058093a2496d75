package dto

import (
	"encoding/json"
)

// MatchStudentRequest represents the request to run matching for a single student
type MatchStudentRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
	TopK      *int `json:"top_k,omitempty" validate:"omitempty,min=1"`
	JobsLimit *int `json:"jobs_limit,omitempty" validate:"omitempty,min=1"`
}

// BatchMatchRequest represents the request to run matching for a pool of students
type BatchMatchRequest struct {
	StudentIDs    []uint `json:"student_ids,omitempty"`
	TopK          *int   `json:"top_k,omitempty" validate:"omitempty,min=1"`
	JobsLimit     *int   `json:"jobs_limit,omitempty" validate:"omitempty,min=1"`
	LimitStudents *int   `json:"limit_students,omitempty" validate:"omitempty,min=1"`
	IsActive      *bool  `json:"is_active,omitempty"`
}

// StudentSummaryDTO represents the resolved student in match responses
type StudentSummaryDTO struct {
	ID       uint     `json:"id"`
	UUID     string   `json:"uuid"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Skills   []string `json:"skills"`
	ATSScore *float64 `json:"ats_score,omitempty"`
}

// MatchDTO represents a single scored (student, job) pair, ordered by match score
type MatchDTO struct {
	JobSource       string          `json:"job_source"`
	JobID           uint            `json:"job_id"`
	Title           string          `json:"title"`
	CompanyName     string          `json:"company_name"`
	ApplyLink       string          `json:"apply_link"`
	MatchScore      float64         `json:"match_score"`
	SkillMatchScore *float64        `json:"skill_match_score,omitempty"`
	ATSScore        *float64        `json:"ats_score,omitempty"`
	MatchedSkills   []string        `json:"matched_skills"`
	MissingSkills   []string        `json:"missing_skills"`
	Reasoning       json.RawMessage `json:"reasoning,omitempty"`
}

// PersistedMatchesDTO identifies what a match invocation wrote
type PersistedMatchesDTO struct {
	MatchRunID           uint `json:"match_run_id"`
	SavedMatches         int  `json:"saved_matches"`
	JobIntelligenceRunID uint `json:"job_intelligence_run_id"`
}

// StudentMatchResultDTO represents the outcome of matching one student. In batch
// responses a failed student carries success=false and an error while the rest
// of the batch proceeds.
type StudentMatchResultDTO struct {
	StudentID uint                 `json:"student_id"`
	Success   bool                 `json:"success"`
	Error     *string              `json:"error,omitempty"`
	Student   *StudentSummaryDTO   `json:"student,omitempty"`
	Matches   []MatchDTO           `json:"matches,omitempty"`
	Persisted *PersistedMatchesDTO `json:"persisted,omitempty"`
}

// MatchRunSummaryDTO aggregates counters over a batch invocation
type MatchRunSummaryDTO struct {
	StudentsConsidered int `json:"students_considered"`
	StudentsMatched    int `json:"students_matched"`
	TotalMatches       int `json:"total_matches"`
}

// EmailOutcomeDTO reports the staff notification outcome of a batch run
type EmailOutcomeDTO struct {
	TpoSent bool    `json:"tpo_sent"`
	Error   *string `json:"error,omitempty"`
}

// BatchMatchResponse represents the response to a batch matching request
type BatchMatchResponse struct {
	Summary MatchRunSummaryDTO      `json:"summary"`
	Results []StudentMatchResultDTO `json:"results"`
	Email   EmailOutcomeDTO         `json:"email"`
}
