package dto

import (
	"encoding/json"
)

// ScrapeJobsRequest represents the request to scrape and ingest a new job intelligence run
type ScrapeJobsRequest struct {
	SearchTerms   []string `json:"search_terms" validate:"required,min=1,dive,min=1"`
	Locations     []string `json:"locations,omitempty" validate:"omitempty,dive,min=1"`
	SiteNames     []string `json:"site_names,omitempty" validate:"omitempty,dive,min=1"`
	ResultsWanted *int     `json:"results_wanted,omitempty" validate:"omitempty,min=1,max=1000"`
	HoursOld      *int     `json:"hours_old,omitempty" validate:"omitempty,min=1"`
}

// ScrapeJobsResponse represents the response to a scrape and ingest request
type ScrapeJobsResponse struct {
	Message   string `json:"message"`
	RunID     uint   `json:"run_id"`
	RunUUID   string `json:"run_uuid"`
	RunType   string `json:"run_type"`
	TotalJobs int    `json:"total_jobs"`
	CreatedAt string `json:"created_at"`
}

// JobIntelligenceDTO represents a scored job in privileged responses
type JobIntelligenceDTO struct {
	ID             uint            `json:"id"`
	RunID          uint            `json:"run_id"`
	Title          string          `json:"title"`
	CompanyName    string          `json:"company_name"`
	Location       *string         `json:"location,omitempty"`
	JobType        *string         `json:"job_type,omitempty"`
	Source         string          `json:"source"`
	ApplyLink      string          `json:"apply_link"`
	FinalScore     float64         `json:"final_score"`
	ScoreBreakdown json.RawMessage `json:"score_breakdown,omitempty"`
	RequiredSkills []string        `json:"required_skills"`
	Description    *string         `json:"description,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

// JobIntelligenceRunResponse represents a full run with its jobs for privileged reads
type JobIntelligenceRunResponse struct {
	RunID     uint                 `json:"run_id"`
	RunUUID   string               `json:"run_uuid"`
	RunType   string               `json:"run_type"`
	TotalJobs int                  `json:"total_jobs"`
	CreatedAt string               `json:"created_at"`
	Jobs      []JobIntelligenceDTO `json:"jobs"`
}

// StudentJobIntelligenceDTO represents a scored job as exposed to students.
// ApplyLink stays null until the student is approved for the job.
type StudentJobIntelligenceDTO struct {
	ID             uint            `json:"id"`
	RunID          uint            `json:"run_id"`
	Title          string          `json:"title"`
	CompanyName    string          `json:"company_name"`
	Location       *string         `json:"location,omitempty"`
	JobType        *string         `json:"job_type,omitempty"`
	Source         string          `json:"source"`
	ApplyLink      *string         `json:"apply_link"`
	FinalScore     float64         `json:"final_score"`
	RequiredSkills []string        `json:"required_skills"`
	Description    *string         `json:"description,omitempty"`
	Approved       bool            `json:"approved"`
	ApprovedAt     *string         `json:"approved_at,omitempty"`
	ScoreBreakdown json.RawMessage `json:"score_breakdown,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

// StudentJobIntelligenceRunResponse represents the student-facing view of the latest run
type StudentJobIntelligenceRunResponse struct {
	RunID     uint                        `json:"run_id"`
	RunUUID   string                      `json:"run_uuid"`
	RunType   string                      `json:"run_type"`
	TotalJobs int                         `json:"total_jobs"`
	CreatedAt string                      `json:"created_at"`
	Jobs      []StudentJobIntelligenceDTO `json:"jobs"`
}
