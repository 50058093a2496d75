package businessflow_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campusforge/placement-pipeline/app/dto"
	"github.com/campusforge/placement-pipeline/app/services"
	businessflow "github.com/campusforge/placement-pipeline/business_flow"
	"github.com/campusforge/placement-pipeline/models"
	"github.com/campusforge/placement-pipeline/repository"
	testingutil "github.com/campusforge/placement-pipeline/testing"
	"github.com/campusforge/placement-pipeline/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newScraperStub serves a canned scraper response and closes with the test
func newScraperStub(t *testing.T, response map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("failed to encode stub response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newJobIntelFlow(testDB *testingutil.TestDB, scraperURL string) businessflow.JobIntelligenceFlow {
	return businessflow.NewJobIntelligenceFlow(
		repository.NewJobIntelligenceRepository(testDB.DB),
		repository.NewApprovalRepository(testDB.DB),
		repository.NewStudentRepository(testDB.DB),
		services.NewScraperClient(scraperURL, "", 5*time.Second),
		services.NewScoringEngine(),
		testDB.DB,
		nil,
		nil,
	)
}

func TestIngestScrape(t *testing.T) {
	testDB, _ := setupFlowTest(t)
	metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
	ctx := testingutil.CreateTestContext()

	scrapeReq := &dto.ScrapeJobsRequest{
		SearchTerms: []string{"backend engineer"},
		Locations:   []string{"Bengaluru"},
	}

	t.Run("CreatesScoredRun", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		server := newScraperStub(t, map[string]any{
			"success": true,
			"jobs": []map[string]any{
				{
					"title":       "Backend Engineer",
					"company":     "Acme",
					"site":        "linkedin",
					"job_url":     "https://jobs.example.com/1",
					"location":    "Bengaluru",
					"description": "Build services",
					"skills":      []string{"Go", " SQL ", "go"},
				},
				{
					"title":   "Data Engineer",
					"company": "Globex",
					"site":    "indeed",
					"job_url": "https://jobs.example.com/2",
				},
			},
		})
		flow := newJobIntelFlow(testDB, server.URL)

		resp, err := flow.IngestScrape(ctx, scrapeReq, models.RunTypeManual, metadata)
		require.NoError(t, err)

		assert.NotZero(t, resp.RunID)
		assert.NotEmpty(t, resp.RunUUID)
		assert.Equal(t, string(models.RunTypeManual), resp.RunType)
		assert.Equal(t, 2, resp.TotalJobs)

		run, err := flow.RunByID(ctx, resp.RunID)
		require.NoError(t, err)
		require.Len(t, run.Jobs, 2)

		// Skills were normalized and deduplicated on the way in
		assert.Equal(t, []string{"go", "sql"}, run.Jobs[0].RequiredSkills)
		assert.Greater(t, run.Jobs[0].FinalScore, 0.0)
		assert.NotEmpty(t, run.Jobs[0].ScoreBreakdown)
	})

	t.Run("RunsAreAppendOnlyVersions", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		server := newScraperStub(t, map[string]any{
			"success": true,
			"jobs": []map[string]any{
				{"title": "Engineer", "company": "Acme", "site": "indeed", "job_url": "https://jobs.example.com/1"},
			},
		})
		flow := newJobIntelFlow(testDB, server.URL)

		first, err := flow.IngestScrape(ctx, scrapeReq, models.RunTypeManual, metadata)
		require.NoError(t, err)
		second, err := flow.IngestScrape(ctx, scrapeReq, models.RunTypeScheduled, metadata)
		require.NoError(t, err)

		assert.Greater(t, second.RunID, first.RunID)

		// Both runs remain readable; latest points at the newer one
		latest, err := flow.LatestRun(ctx)
		require.NoError(t, err)
		assert.Equal(t, second.RunID, latest.RunID)

		old, err := flow.RunByID(ctx, first.RunID)
		require.NoError(t, err)
		assert.Equal(t, first.RunID, old.RunID)
	})

	t.Run("EmptySearchTermsRejected", func(t *testing.T) {
		flow := newJobIntelFlow(testDB, "http://127.0.0.1:1")
		_, err := flow.IngestScrape(ctx, &dto.ScrapeJobsRequest{}, models.RunTypeManual, metadata)
		assert.True(t, businessflow.IsSearchTermsRequired(err))
	})

	t.Run("UpstreamFailureCreatesNoRun", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		server := newScraperStub(t, map[string]any{
			"success": false,
			"message": "rate limited",
		})
		flow := newJobIntelFlow(testDB, server.URL)

		_, err := flow.IngestScrape(ctx, scrapeReq, models.RunTypeManual, metadata)
		assert.True(t, businessflow.IsScrapeFailed(err))

		_, err = flow.LatestRun(ctx)
		assert.True(t, businessflow.IsNoJobIntelligenceRun(err))
	})

	t.Run("UnreachableScraperCreatesNoRun", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		flow := newJobIntelFlow(testDB, "http://127.0.0.1:1")
		_, err := flow.IngestScrape(ctx, scrapeReq, models.RunTypeManual, metadata)
		require.Error(t, err)

		_, err = flow.LatestRun(ctx)
		assert.True(t, businessflow.IsNoJobIntelligenceRun(err))
	})

	t.Run("EmptyScrapeStillCreatesRun", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		server := newScraperStub(t, map[string]any{
			"success": true,
			"jobs":    []map[string]any{},
		})
		flow := newJobIntelFlow(testDB, server.URL)

		resp, err := flow.IngestScrape(ctx, scrapeReq, models.RunTypeManual, metadata)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.TotalJobs)

		latest, err := flow.LatestRun(ctx)
		require.NoError(t, err)
		assert.Equal(t, resp.RunID, latest.RunID)
		assert.Empty(t, latest.Jobs)
	})
}

func TestRunReads(t *testing.T) {
	testDB, fixtures := setupFlowTest(t)
	ctx := testingutil.CreateTestContext()
	flow := newJobIntelFlow(testDB, "http://127.0.0.1:1")

	t.Run("LatestRunWithoutDataRejected", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())
		_, err := flow.LatestRun(ctx)
		assert.True(t, businessflow.IsNoJobIntelligenceRun(err))
	})

	t.Run("UnknownRunRejected", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())
		_, err := flow.RunByID(ctx, 999999)
		assert.True(t, businessflow.IsJobRunNotFound(err))
	})

	t.Run("RunByIDReturnsJobsInInsertionOrder", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		run, err := fixtures.CreateTestRun(models.RunTypeManual, 3)
		require.NoError(t, err)

		resp, err := flow.RunByID(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, resp.Jobs, 3)
		for i := 1; i < len(resp.Jobs); i++ {
			assert.Greater(t, resp.Jobs[i].ID, resp.Jobs[i-1].ID)
		}
	})
}

func TestLatestRunForStudent(t *testing.T) {
	testDB, fixtures := setupFlowTest(t)
	ctx := testingutil.CreateTestContext()
	flow := newJobIntelFlow(testDB, "http://127.0.0.1:1")

	t.Run("ApplyLinksGatedByApproval", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		student, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)
		run, err := fixtures.CreateTestRun(models.RunTypeManual, 2)
		require.NoError(t, err)

		jobs, err := repository.NewJobIntelligenceRepository(testDB.DB).JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)
		require.Len(t, jobs, 2)

		_, err = fixtures.CreateTestApproval(student.ID, models.JobSourceIntelligence, jobs[0].ID)
		require.NoError(t, err)

		resp, err := flow.LatestRunForStudent(ctx, student.ID)
		require.NoError(t, err)
		require.Len(t, resp.Jobs, 2)

		byID := make(map[uint]dto.StudentJobIntelligenceDTO, len(resp.Jobs))
		for _, job := range resp.Jobs {
			byID[job.ID] = job
		}

		approved := byID[jobs[0].ID]
		assert.True(t, approved.Approved)
		require.NotNil(t, approved.ApplyLink)
		assert.Equal(t, jobs[0].ApplyLink, *approved.ApplyLink)
		assert.NotNil(t, approved.ApprovedAt)

		hidden := byID[jobs[1].ID]
		assert.False(t, hidden.Approved)
		assert.Nil(t, hidden.ApplyLink)
		assert.Nil(t, hidden.ApprovedAt)
	})

	t.Run("UnknownStudentRejected", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())
		_, err := flow.LatestRunForStudent(ctx, 999999)
		require.Error(t, err)
	})

	t.Run("PostingApprovalDoesNotLeakIntelligenceLinks", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		student, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)
		run, err := fixtures.CreateTestRun(models.RunTypeManual, 1)
		require.NoError(t, err)

		jobs, err := repository.NewJobIntelligenceRepository(testDB.DB).JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)

		// Approval for a job posting with the same numeric id must not
		// unlock the intelligence job.
		_, err = fixtures.CreateTestApproval(student.ID, models.JobSourcePosting, jobs[0].ID)
		require.NoError(t, err)

		resp, err := flow.LatestRunForStudent(ctx, student.ID)
		require.NoError(t, err)
		require.Len(t, resp.Jobs, 1)
		assert.False(t, resp.Jobs[0].Approved)
		assert.Nil(t, resp.Jobs[0].ApplyLink)
	})
}

func TestNormalizeSkillsHelpers(t *testing.T) {
	assert.Equal(t, "go", utils.NormalizeSkill("  Go "))
	assert.Equal(t, []string{"go", "sql"}, utils.NormalizeSkills([]string{"Go", "", " SQL ", "go"}))
	assert.Empty(t, utils.NormalizeSkills(nil))
}
