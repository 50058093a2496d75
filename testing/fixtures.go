// Package testing provides test utilities and database setup for testing the placement pipeline
package testing

import (
	"fmt"
	"math/rand"

	"github.com/campusforge/placement-pipeline/models"
	"github.com/campusforge/placement-pipeline/utils"
	"github.com/lib/pq"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestStudent creates an active student with the given skills
func (tf *TestFixtures) CreateTestStudent(skills ...string) (*models.Student, error) {
	suffix := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	student := &models.Student{
		FirstName: "Asha",
		LastName:  "Nair",
		Email:     fmt.Sprintf("asha.nair.%s@example.edu", suffix),
		Skills:    pq.StringArray(utils.NormalizeSkills(skills)),
		ATSScore:  utils.ToPtr(72.5),
		IsActive:  utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(student).Error; err != nil {
		return nil, fmt.Errorf("failed to create test student: %w", err)
	}

	return student, nil
}

// CreateInactiveStudent creates a deactivated student
func (tf *TestFixtures) CreateInactiveStudent() (*models.Student, error) {
	student, err := tf.CreateTestStudent("go", "sql")
	if err != nil {
		return nil, err
	}
	student.IsActive = utils.ToPtr(false)
	if err := tf.DB.DB.Save(student).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate test student: %w", err)
	}
	return student, nil
}

// CreateTestRun creates a job intelligence run with the given number of jobs
func (tf *TestFixtures) CreateTestRun(runType models.RunType, jobCount int) (*models.JobIntelligenceRun, error) {
	run := &models.JobIntelligenceRun{
		RunType:   runType,
		TotalJobs: jobCount,
	}
	if err := tf.DB.DB.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create test run: %w", err)
	}

	for i := 0; i < jobCount; i++ {
		job := &models.JobIntelligence{
			RunID:          run.ID,
			Title:          fmt.Sprintf("Backend Engineer %d", i+1),
			CompanyName:    fmt.Sprintf("Acme %d", i+1),
			Source:         "indeed",
			ApplyLink:      fmt.Sprintf("https://jobs.example.com/%d/%d", run.ID, i+1),
			FinalScore:     float64(50 + i),
			ScoreBreakdown: models.ScoreBreakdown(`{}`),
			RequiredSkills: pq.StringArray{"go", "sql", "docker"},
		}
		if err := tf.DB.DB.Create(job).Error; err != nil {
			return nil, fmt.Errorf("failed to create test job: %w", err)
		}
	}

	return run, nil
}

// CreateTestJobPosting creates an active manually posted job
func (tf *TestFixtures) CreateTestJobPosting() (*models.JobPosting, error) {
	posting := &models.JobPosting{
		Title:          "Platform Engineer",
		CompanyName:    "CampusForge Labs",
		ApplyLink:      "https://careers.example.com/platform-engineer",
		RequiredSkills: pq.StringArray{"go", "kubernetes"},
		IsActive:       utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(posting).Error; err != nil {
		return nil, fmt.Errorf("failed to create test job posting: %w", err)
	}
	return posting, nil
}

// CreateTestMatchRun creates a match run and one match row per (student, job) pair
func (tf *TestFixtures) CreateTestMatchRun(
	runType models.RunType,
	jobIntelRunID uint,
	studentID uint,
	jobIDs []uint,
	scores []float64,
) (*models.MatchRun, error) {
	if len(jobIDs) != len(scores) {
		return nil, fmt.Errorf("jobIDs and scores must have equal length")
	}

	matchRun := &models.MatchRun{
		RunType:              runType,
		JobIntelligenceRunID: jobIntelRunID,
		StudentsConsidered:   1,
		StudentsMatched:      1,
		TotalMatches:         len(jobIDs),
	}
	if err := tf.DB.DB.Create(matchRun).Error; err != nil {
		return nil, fmt.Errorf("failed to create test match run: %w", err)
	}

	for i, jobID := range jobIDs {
		match := &models.StudentJobMatch{
			MatchRunID:      matchRun.ID,
			StudentID:       studentID,
			JobSource:       models.JobSourceIntelligence,
			JobID:           jobID,
			MatchScore:      scores[i],
			SkillMatchScore: utils.ToPtr(scores[i]),
			MatchedSkills:   pq.StringArray{"go"},
			MissingSkills:   pq.StringArray{"kubernetes"},
			Reasoning:       models.MatchReasoning(`{}`),
		}
		if err := tf.DB.DB.Create(match).Error; err != nil {
			return nil, fmt.Errorf("failed to create test match: %w", err)
		}
	}

	return matchRun, nil
}

// CreateTestApproval approves a (student, job) pair directly
func (tf *TestFixtures) CreateTestApproval(studentID uint, jobSource models.JobSource, jobID uint) (*models.Approval, error) {
	approval := &models.Approval{
		StudentID: studentID,
		JobSource: jobSource,
		JobID:     jobID,
	}
	if err := tf.DB.DB.Create(approval).Error; err != nil {
		return nil, fmt.Errorf("failed to create test approval: %w", err)
	}
	return approval, nil
}
