package businessflow_test

import (
	"errors"
	"testing"
	"time"

	businessflow "github.com/campusforge/placement-pipeline/business_flow"
	"github.com/campusforge/placement-pipeline/models"
	"github.com/campusforge/placement-pipeline/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToStudentJobIntelligenceDTO(t *testing.T) {
	job := &models.JobIntelligence{
		Title:          "Backend Engineer",
		CompanyName:    "Acme",
		Source:         "indeed",
		ApplyLink:      "https://jobs.example.com/1",
		FinalScore:     88,
		ScoreBreakdown: models.ScoreBreakdown(`{"method":"completeness_v1"}`),
		RequiredSkills: pq.StringArray{"go", "sql"},
		CreatedAt:      utils.UTCNow(),
	}
	job.ID = 11

	t.Run("WithoutApprovalLinkStaysHidden", func(t *testing.T) {
		out := businessflow.ToStudentJobIntelligenceDTO(job, nil)

		assert.False(t, out.Approved)
		assert.Nil(t, out.ApplyLink)
		assert.Nil(t, out.ApprovedAt)
		assert.Equal(t, job.Title, out.Title)
		assert.Equal(t, []string(job.RequiredSkills), out.RequiredSkills)
	})

	t.Run("WithApprovalLinkIsExposed", func(t *testing.T) {
		approval := &models.Approval{
			StudentID:  5,
			JobSource:  models.JobSourceIntelligence,
			JobID:      job.ID,
			ApprovedAt: utils.UTCNow(),
		}

		out := businessflow.ToStudentJobIntelligenceDTO(job, approval)

		assert.True(t, out.Approved)
		require.NotNil(t, out.ApplyLink)
		assert.Equal(t, job.ApplyLink, *out.ApplyLink)
		require.NotNil(t, out.ApprovedAt)
		assert.Equal(t, approval.ApprovedAt.Format(time.RFC3339), *out.ApprovedAt)
	})
}

func TestToStudentSummaryDTO(t *testing.T) {
	student := &models.Student{
		UUID:      uuid.New(),
		FirstName: "Asha",
		LastName:  "Nair",
		Email:     "asha.nair@example.edu",
		Skills:    pq.StringArray{"go"},
		ATSScore:  utils.ToPtr(70.0),
	}
	student.ID = 3

	out := businessflow.ToStudentSummaryDTO(student)

	assert.Equal(t, uint(3), out.ID)
	assert.Equal(t, "Asha Nair", out.Name)
	assert.Equal(t, student.UUID.String(), out.UUID)
	require.NotNil(t, out.ATSScore)
	assert.InDelta(t, 70.0, *out.ATSScore, 0.001)
}

func TestBusinessErrors(t *testing.T) {
	t.Run("WrappedSentinelSurvivesLayering", func(t *testing.T) {
		inner := businessflow.NewBusinessError("NO_MATCH_FOR_APPROVAL", "No match", businessflow.ErrNoMatchForApproval)
		outer := businessflow.NewBusinessError("APPROVAL_FAILED", "Approval failed", inner)

		assert.True(t, businessflow.IsNoMatchForApproval(outer))
		assert.False(t, businessflow.IsStudentNotFound(outer))
	})

	t.Run("ErrorMessageCarriesCause", func(t *testing.T) {
		err := businessflow.NewBusinessError("SCRAPE_FAILED", "Scrape request failed", errors.New("connection refused"))
		assert.Contains(t, err.Error(), "Scrape request failed")
	})

	t.Run("NilTargetIsFalse", func(t *testing.T) {
		assert.False(t, businessflow.IsInvalidTopK(nil))
	})
}
