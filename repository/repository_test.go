package repository_test

import (
	"testing"

	"github.com/campusforge/placement-pipeline/models"
	"github.com/campusforge/placement-pipeline/repository"
	testingutil "github.com/campusforge/placement-pipeline/testing"
	"github.com/campusforge/placement-pipeline/utils"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepoTest(t *testing.T) (*testingutil.TestDB, *testingutil.TestFixtures) {
	t.Helper()
	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testDB.TeardownTestDB(); err != nil {
			t.Logf("warning: failed to teardown test database: %v", err)
		}
	})
	return testDB, testingutil.NewTestFixtures(testDB)
}

func TestStudentRepository(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := repository.NewStudentRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	t.Run("SaveAndLookup", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		student, err := fixtures.CreateTestStudent("go", "sql")
		require.NoError(t, err)

		byID, err := repo.ByID(ctx, student.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, student.Email, byID.Email)

		byEmail, err := repo.ByEmail(ctx, student.Email)
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, student.ID, byEmail.ID)

		byUUID, err := repo.ByUUID(ctx, student.UUID.String())
		require.NoError(t, err)
		require.NotNil(t, byUUID)
		assert.Equal(t, student.ID, byUUID.ID)

		missing, err := repo.ByEmail(ctx, "nobody@example.edu")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ListActiveStudentsExcludesInactive", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		active, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)
		_, err = fixtures.CreateInactiveStudent()
		require.NoError(t, err)

		students, err := repo.ListActiveStudents(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, active.ID, students[0].ID)
	})

	t.Run("ListByIDsKeepsInactiveAndOrdersByID", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		first, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)
		second, err := fixtures.CreateInactiveStudent()
		require.NoError(t, err)

		students, err := repo.ListByIDs(ctx, []uint{second.ID, first.ID})
		require.NoError(t, err)
		require.Len(t, students, 2)
		assert.Equal(t, first.ID, students[0].ID)
		assert.Equal(t, second.ID, students[1].ID)

		empty, err := repo.ListByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("SkillsRoundTrip", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		student, err := fixtures.CreateTestStudent("Go", "SQL", "docker")
		require.NoError(t, err)

		loaded, err := repo.ByID(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, pq.StringArray{"go", "sql", "docker"}, loaded.Skills)
	})
}

func TestJobIntelligenceRepository(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := repository.NewJobIntelligenceRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	t.Run("SaveRunWithJobsIsAtomicAndOrdered", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		run := &models.JobIntelligenceRun{RunType: models.RunTypeManual}
		jobs := []*models.JobIntelligence{
			{Title: "A", CompanyName: "Acme", Source: "indeed", ApplyLink: "https://jobs.example.com/a", ScoreBreakdown: models.ScoreBreakdown(`{}`)},
			{Title: "B", CompanyName: "Acme", Source: "indeed", ApplyLink: "https://jobs.example.com/b", ScoreBreakdown: models.ScoreBreakdown(`{}`)},
			{Title: "C", CompanyName: "Acme", Source: "indeed", ApplyLink: "https://jobs.example.com/c", ScoreBreakdown: models.ScoreBreakdown(`{}`)},
		}
		require.NoError(t, repo.SaveRunWithJobs(ctx, run, jobs))

		assert.NotZero(t, run.ID)
		assert.Equal(t, 3, run.TotalJobs)
		for _, job := range jobs {
			assert.Equal(t, run.ID, job.RunID)
		}

		loaded, err := repo.JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)
		require.Len(t, loaded, 3)
		assert.Equal(t, "A", loaded[0].Title)
		assert.Equal(t, "B", loaded[1].Title)
		assert.Equal(t, "C", loaded[2].Title)
	})

	t.Run("JobsByRunIDLimit", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		run, err := fixtures.CreateTestRun(models.RunTypeManual, 5)
		require.NoError(t, err)

		limited, err := repo.JobsByRunID(ctx, run.ID, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)

		all, err := repo.JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("LatestRunIsHighestID", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		_, err := fixtures.CreateTestRun(models.RunTypeManual, 1)
		require.NoError(t, err)
		newest, err := fixtures.CreateTestRun(models.RunTypeScheduled, 1)
		require.NoError(t, err)

		latest, err := repo.LatestRun(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, newest.ID, latest.ID)
		assert.Equal(t, models.RunTypeScheduled, latest.RunType)
	})

	t.Run("LatestRunNilWhenEmpty", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		latest, err := repo.LatestRun(ctx)
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("JobByID", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		run, err := fixtures.CreateTestRun(models.RunTypeManual, 1)
		require.NoError(t, err)
		jobs, err := repo.JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)

		job, err := repo.JobByID(ctx, jobs[0].ID)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, jobs[0].Title, job.Title)

		missing, err := repo.JobByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("CountRuns", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		_, err := fixtures.CreateTestRun(models.RunTypeManual, 0)
		require.NoError(t, err)
		_, err = fixtures.CreateTestRun(models.RunTypeScheduled, 0)
		require.NoError(t, err)

		total, err := repo.CountRuns(ctx, models.JobIntelligenceRunFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		scheduled, err := repo.CountRuns(ctx, models.JobIntelligenceRunFilter{
			RunType: utils.ToPtr(models.RunTypeScheduled),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), scheduled)
	})
}

func TestMatchRepository(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := repository.NewMatchRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	seed := func(t *testing.T) (jobID uint, studentIDs []uint) {
		t.Helper()
		require.NoError(t, testDB.ClearAllTables())

		run, err := fixtures.CreateTestRun(models.RunTypeManual, 1)
		require.NoError(t, err)
		jobs, err := repository.NewJobIntelligenceRepository(testDB.DB).JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)
		jobID = jobs[0].ID

		for _, score := range []float64{60, 90, 30} {
			student, err := fixtures.CreateTestStudent("go")
			require.NoError(t, err)
			studentIDs = append(studentIDs, student.ID)
			_, err = fixtures.CreateTestMatchRun(models.RunTypeManual, run.ID, student.ID, []uint{jobID}, []float64{score})
			require.NoError(t, err)
		}
		return jobID, studentIDs
	}

	t.Run("LatestMatchesForJobOrdersByScore", func(t *testing.T) {
		jobID, studentIDs := seed(t)

		matches, err := repo.LatestMatchesForJob(ctx, models.JobSourceIntelligence, jobID, 0)
		require.NoError(t, err)
		require.Len(t, matches, 3)

		assert.Equal(t, studentIDs[1], matches[0].StudentID)
		assert.Equal(t, studentIDs[0], matches[1].StudentID)
		assert.Equal(t, studentIDs[2], matches[2].StudentID)
		require.NotNil(t, matches[0].Student)
		assert.Equal(t, studentIDs[1], matches[0].Student.ID)
	})

	t.Run("LatestMatchesForJobKeepsNewestPerStudent", func(t *testing.T) {
		jobID, studentIDs := seed(t)

		// Re-match the lowest scoring student with a better score; only the
		// newer row must surface.
		run, err := fixtures.CreateTestRun(models.RunTypeManual, 0)
		require.NoError(t, err)
		_, err = fixtures.CreateTestMatchRun(models.RunTypeBatch, run.ID, studentIDs[2], []uint{jobID}, []float64{95})
		require.NoError(t, err)

		matches, err := repo.LatestMatchesForJob(ctx, models.JobSourceIntelligence, jobID, 0)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, studentIDs[2], matches[0].StudentID)
		assert.InDelta(t, 95, matches[0].MatchScore, 0.001)
	})

	t.Run("LatestMatchesForJobLimit", func(t *testing.T) {
		jobID, studentIDs := seed(t)

		matches, err := repo.LatestMatchesForJob(ctx, models.JobSourceIntelligence, jobID, 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, studentIDs[1], matches[0].StudentID)
	})

	t.Run("MarkApprovedFlipsMatchState", func(t *testing.T) {
		jobID, studentIDs := seed(t)

		approvedAt := utils.UTCNow()
		require.NoError(t, repo.MarkApproved(ctx, studentIDs[0], models.JobSourceIntelligence, jobID, approvedAt))

		matches, err := repo.MatchesByFilter(ctx, models.StudentJobMatchFilter{
			StudentID: utils.ToPtr(studentIDs[0]),
		}, "", 0, 0)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.True(t, matches[0].Approved)
		require.NotNil(t, matches[0].ApprovedAt)

		// Other students' matches are untouched
		others, err := repo.MatchesByFilter(ctx, models.StudentJobMatchFilter{
			StudentID: utils.ToPtr(studentIDs[1]),
		}, "", 0, 0)
		require.NoError(t, err)
		require.Len(t, others, 1)
		assert.False(t, others[0].Approved)
	})

	t.Run("MatchRunByID", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		student, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)
		run, err := fixtures.CreateTestRun(models.RunTypeManual, 1)
		require.NoError(t, err)
		jobs, err := repository.NewJobIntelligenceRepository(testDB.DB).JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)

		matchRun, err := fixtures.CreateTestMatchRun(models.RunTypeBatch, run.ID, student.ID, []uint{jobs[0].ID}, []float64{75})
		require.NoError(t, err)

		loaded, err := repo.MatchRunByID(ctx, matchRun.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, models.RunTypeBatch, loaded.RunType)
		assert.Equal(t, run.ID, loaded.JobIntelligenceRunID)

		missing, err := repo.MatchRunByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestApprovalRepository(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := repository.NewApprovalRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	t.Run("ByStudentAndJob", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		student, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)
		approval, err := fixtures.CreateTestApproval(student.ID, models.JobSourceIntelligence, 7)
		require.NoError(t, err)
		assert.False(t, approval.ApprovedAt.IsZero())

		found, err := repo.ByStudentAndJob(ctx, student.ID, models.JobSourceIntelligence, 7)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, approval.ID, found.ID)

		// Same job id under the other source is a different triple
		none, err := repo.ByStudentAndJob(ctx, student.ID, models.JobSourcePosting, 7)
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("ListByStudentAndListByJob", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		first, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)
		second, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)

		_, err = fixtures.CreateTestApproval(first.ID, models.JobSourceIntelligence, 1)
		require.NoError(t, err)
		_, err = fixtures.CreateTestApproval(first.ID, models.JobSourceIntelligence, 2)
		require.NoError(t, err)
		_, err = fixtures.CreateTestApproval(second.ID, models.JobSourceIntelligence, 1)
		require.NoError(t, err)

		byStudent, err := repo.ListByStudent(ctx, first.ID)
		require.NoError(t, err)
		assert.Len(t, byStudent, 2)

		byJob, err := repo.ListByJob(ctx, models.JobSourceIntelligence, 1)
		require.NoError(t, err)
		assert.Len(t, byJob, 2)
	})
}
